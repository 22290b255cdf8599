package game

import "testing"

func TestNext_DeclaredEdges(t *testing.T) {
	cases := []struct {
		name    string
		current Phase
		ev      PhaseEvent
		want    Phase
		wantOK  bool
	}{
		{
			name:    "game start leaves the lobby for the background narration",
			current: PhaseLobby,
			ev:      PhaseEvent{Kind: OnGameStarted},
			want:    PhaseNarrationBackground,
			wantOK:  true,
		},
		{
			name:    "day_started during night always yields the day narration",
			current: PhaseNight,
			ev:      PhaseEvent{Kind: OnDayStarted},
			want:    PhaseNarrationDay,
			wantOK:  true,
		},
		{
			name:    "background narration falls through to night",
			current: PhaseNarrationBackground,
			ev:      PhaseEvent{Kind: OnAllContinued, Story: StoryBackground},
			want:    PhaseNight,
			wantOK:  true,
		},
		{
			name:    "day narration falls through to discussion",
			current: PhaseNarrationDay,
			ev:      PhaseEvent{Kind: OnAllContinued, Story: StoryDay},
			want:    PhaseDiscussion,
			wantOK:  true,
		},
		{
			name:    "explicit hint wins over the story fallback",
			current: PhaseNarrationDay,
			ev:      PhaseEvent{Kind: OnAllContinued, NextHint: "night", Story: StoryDay},
			want:    PhaseNight,
			wantOK:  true,
		},
		{
			name:    "unrecognized hint falls back to the story type",
			current: PhaseNarrationBackground,
			ev:      PhaseEvent{Kind: OnAllContinued, NextHint: "intermission", Story: StoryBackground},
			want:    PhaseNight,
			wantOK:  true,
		},
		{
			name:    "no hint and no story returns to the lobby",
			current: PhaseDiscussion,
			ev:      PhaseEvent{Kind: OnAllContinued},
			want:    PhaseLobby,
			wantOK:  true,
		},
		{
			name:    "hinted discussion exit reaches night",
			current: PhaseDiscussion,
			ev:      PhaseEvent{Kind: OnAllContinued, NextHint: "night"},
			want:    PhaseNight,
			wantOK:  true,
		},
		{
			name:    "game_started outside the lobby is ignored",
			current: PhaseNight,
			ev:      PhaseEvent{Kind: OnGameStarted},
			want:    PhaseNight,
			wantOK:  false,
		},
		{
			name:    "day_started outside night is ignored",
			current: PhaseLobby,
			ev:      PhaseEvent{Kind: OnDayStarted},
			want:    PhaseLobby,
			wantOK:  false,
		},
		{
			name:    "all_players_continued in the lobby is ignored",
			current: PhaseLobby,
			ev:      PhaseEvent{Kind: OnAllContinued, NextHint: "night"},
			want:    PhaseLobby,
			wantOK:  false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Next(tc.current, tc.ev)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("Next(%v, %+v) = (%v, %v), want (%v, %v)",
					tc.current, tc.ev, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestNext_GameEndedReachableFromEverywhere(t *testing.T) {
	for _, from := range []Phase{PhaseLobby, PhaseNight, PhaseNarrationBackground, PhaseNarrationDay, PhaseDiscussion} {
		got, ok := Next(from, PhaseEvent{Kind: OnGameEnded})
		if !ok || got != PhaseEnded {
			t.Fatalf("from %v: got (%v, %v), want (ended, true)", from, got, ok)
		}
	}
}

func TestNext_EndedIsTerminal(t *testing.T) {
	for _, ev := range []PhaseEvent{
		{Kind: OnGameStarted},
		{Kind: OnDayStarted},
		{Kind: OnAllContinued, NextHint: "night"},
		{Kind: OnGameEnded},
	} {
		got, ok := Next(PhaseEnded, ev)
		if ok || got != PhaseEnded {
			t.Fatalf("ended must not transition on %+v, got (%v, %v)", ev, got, ok)
		}
	}
}
