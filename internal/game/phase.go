package game

type Phase string

const (
	PhaseLobby               Phase = "lobby"
	PhaseNight               Phase = "night"
	PhaseNarrationBackground Phase = "narration_background"
	PhaseNarrationDay        Phase = "narration_day"
	PhaseDiscussion          Phase = "discussion"
	PhaseEnded               Phase = "ended"
)

// StoryType tags which kind of narrative a narration phase is showing.
type StoryType string

const (
	StoryNone       StoryType = ""
	StoryBackground StoryType = "background"
	StoryDay        StoryType = "day"
)

type EventKind string

const (
	OnGameStarted  EventKind = "game_started"
	OnDayStarted   EventKind = "day_started"
	OnAllContinued EventKind = "all_players_continued"
	OnGameEnded    EventKind = "game_ended"
)

// PhaseEvent is a phase-relevant inbound event. NextHint carries the
// authority's next_phase field when present; Story is the type of the
// narrative just shown, used as the fallback when the hint is absent.
type PhaseEvent struct {
	Kind     EventKind
	NextHint string
	Story    StoryType
}

type Transition struct {
	From Phase
	On   EventKind
}

// Edges is the permitted transition graph. The all_players_continued
// targets are what a well-behaved authority produces; the actual
// destination is resolved from the hint or the story type in Next.
// game_ended is handled separately and reaches Ended from every state.
var Edges = map[Transition]Phase{
	{PhaseLobby, OnGameStarted}:                PhaseNarrationBackground,
	{PhaseNight, OnDayStarted}:                 PhaseNarrationDay,
	{PhaseNarrationBackground, OnAllContinued}: PhaseNight,
	{PhaseNarrationDay, OnAllContinued}:        PhaseDiscussion,
	{PhaseDiscussion, OnAllContinued}:          PhaseNight,
}

// Next resolves one transition. It is total: every (event, state) pair
// yields exactly one answer, with ok=false meaning "stay put". Ended is
// terminal.
func Next(current Phase, ev PhaseEvent) (Phase, bool) {
	if current == PhaseEnded {
		return current, false
	}
	if ev.Kind == OnGameEnded {
		return PhaseEnded, true
	}

	target, ok := Edges[Transition{From: current, On: ev.Kind}]
	if !ok {
		return current, false
	}

	if ev.Kind == OnAllContinued {
		if hinted, ok := parsePhaseHint(ev.NextHint); ok {
			return hinted, true
		}
		return afterStory(ev.Story), true
	}
	return target, true
}

// parsePhaseHint maps the authority's next_phase names onto phases. An
// unrecognized hint is treated as absent so the story fallback runs.
func parsePhaseHint(hint string) (Phase, bool) {
	switch hint {
	case "night":
		return PhaseNight, true
	case "day", "discussion":
		return PhaseDiscussion, true
	case "lobby":
		return PhaseLobby, true
	case "ended":
		return PhaseEnded, true
	default:
		return "", false
	}
}

func afterStory(st StoryType) Phase {
	switch st {
	case StoryBackground:
		return PhaseNight
	case StoryDay:
		return PhaseDiscussion
	default:
		return PhaseLobby
	}
}

// IsNarration reports whether p is one of the two narration phases.
func (p Phase) IsNarration() bool {
	return p == PhaseNarrationBackground || p == PhaseNarrationDay
}
