package protocol

import "encoding/json"

// Client -> Server
// join:            { game_id, player_id }
// player_ready:    { game_id, player_id, ready }
// player_action:   { game_id, player_id, action: { type, activity, target } }
// player_continue: { game_id, player_id }
// update_settings: { game_id, host_id, settings }
// start_game:      { game_id, host_id }
// leave_game:      { game_id, player_id }
//
// Server -> Client
// state_update:            { msg?, players?, state? }
// settings_updated:        { settings }
// role_assigned:           { players }
// game_started:            { background_story, game_state? }
// day_started:             { story, game_state? }
// night_resolved:          { result, game_state? }
// player_continue_update:  { player_id?, continued?, total? }
// all_players_continued:   { next_phase? }
// player_left:             { player_id?, players?, new_host_id? }
// game_ended:              { msg? }
// error:                   { msg }

const (
	EvtJoin           = "join"
	EvtPlayerReady    = "player_ready"
	EvtPlayerAction   = "player_action"
	EvtPlayerContinue = "player_continue"
	EvtUpdateSettings = "update_settings"
	EvtStartGame      = "start_game"
	EvtLeaveGame      = "leave_game"

	EvtStateUpdate     = "state_update"
	EvtSettingsUpdated = "settings_updated"
	EvtRoleAssigned    = "role_assigned"
	EvtGameStarted     = "game_started"
	EvtDayStarted      = "day_started"
	EvtNightResolved   = "night_resolved"
	EvtContinueUpdate  = "player_continue_update"
	EvtAllContinued    = "all_players_continued"
	EvtPlayerLeft      = "player_left"
	EvtGameEnded       = "game_ended"
	EvtError           = "error"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
