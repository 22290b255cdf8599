package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Player is a player record as the authority serializes it. In the keyed
// form the id lives on the map key and may be absent from the record
// itself; PlayerSet fills it back in.
type Player struct {
	ID     string `json:"player_id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Alive  bool   `json:"alive"`
	Ready  bool   `json:"ready"`
	IsHost bool   `json:"is_host,omitempty"`
}

// PlayerSet normalizes the two shapes the authority uses for player
// collections: an ordered array of records carrying player_id, or an
// object keyed by player id. Either way it decodes to one canonical
// id-keyed map.
type PlayerSet map[string]Player

func (ps *PlayerSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*ps = nil
		return nil
	}

	switch data[0] {
	case '[':
		var list []Player
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		out := make(PlayerSet, len(list))
		for _, p := range list {
			if p.ID == "" {
				continue
			}
			out[p.ID] = p
		}
		*ps = out
		return nil

	case '{':
		var keyed map[string]Player
		if err := json.Unmarshal(data, &keyed); err != nil {
			return err
		}
		out := make(PlayerSet, len(keyed))
		for id, p := range keyed {
			if p.ID == "" {
				p.ID = id
			}
			out[id] = p
		}
		*ps = out
		return nil
	}

	return fmt.Errorf("players: unexpected JSON shape starting with %q", data[0])
}

// Settings are the host-tunable game settings, broadcast to every client.
type Settings struct {
	Theme         string `json:"theme,omitempty"`
	Mafia         int    `json:"mafia"`
	DayDuration   int    `json:"day_duration"`
	NightDuration int    `json:"night_duration"`
}

// GameState is the authority's embedded state summary. Round and
// Settings are optional; absence means "keep what you have".
type GameState struct {
	Round    *int      `json:"round,omitempty"`
	Settings *Settings `json:"settings,omitempty"`
	Players  PlayerSet `json:"players,omitempty"`
}

type StateUpdate struct {
	Msg     string     `json:"msg,omitempty"`
	Players PlayerSet  `json:"players,omitempty"`
	State   *GameState `json:"state,omitempty"`
}

type SettingsUpdated struct {
	Settings Settings `json:"settings"`
}

type RoleAssigned struct {
	Players PlayerSet `json:"players"`
}

type GameStarted struct {
	BackgroundStory string     `json:"background_story"`
	GameState       *GameState `json:"game_state,omitempty"`
}

type DayStarted struct {
	Story     string     `json:"story"`
	GameState *GameState `json:"game_state,omitempty"`
}

type NightResolved struct {
	Result    json.RawMessage `json:"result,omitempty"`
	GameState *GameState      `json:"game_state,omitempty"`
}

type ContinueUpdate struct {
	PlayerID  string `json:"player_id,omitempty"`
	Continued int    `json:"continued,omitempty"`
	Total     int    `json:"total,omitempty"`
}

type AllContinued struct {
	NextPhase string `json:"next_phase,omitempty"`
}

type PlayerLeft struct {
	PlayerID  string    `json:"player_id,omitempty"`
	Players   PlayerSet `json:"players,omitempty"`
	NewHostID string    `json:"new_host_id,omitempty"`
}

type GameEnded struct {
	Msg string `json:"msg,omitempty"`
}

type ErrorPayload struct {
	Msg string `json:"msg"`
}

// Outbound intents.

type Join struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type PlayerReady struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Ready    bool   `json:"ready"`
}

type Action struct {
	Type     string `json:"type"`
	Activity string `json:"activity"`
	Target   string `json:"target,omitempty"`
}

type PlayerAction struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Action   Action `json:"action"`
}

type PlayerContinue struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type UpdateSettings struct {
	GameID   string   `json:"game_id"`
	HostID   string   `json:"host_id"`
	Settings Settings `json:"settings"`
}

type StartGame struct {
	GameID string `json:"game_id"`
	HostID string `json:"host_id"`
}

type LeaveGame struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}
