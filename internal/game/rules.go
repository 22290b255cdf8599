package game

import (
	"errors"
	"strings"

	"github.com/mkarlsen/mafia-night/internal/protocol"
)

var ErrNotEnoughPlayers = errors.New("need at least 4 players to start")
var ErrTooManyMafia = errors.New("too many mafia for current player count")
var ErrEmptyActivity = errors.New("describe what you will do tonight")
var ErrMissingTarget = errors.New("this role requires a target")
var ErrUnknownTarget = errors.New("target is not a living player")

const (
	RoleMafia     = "mafia"
	RoleDoctor    = "doctor"
	RoleDetective = "detective"
)

const (
	ActionKill        = "kill"
	ActionSave        = "save"
	ActionInvestigate = "investigate"
	ActionNone        = "none"
)

// Prompt is the role-conditioned night prompt.
type Prompt struct {
	Question    string
	ActionType  string
	NeedsTarget bool
}

func PromptFor(role string) Prompt {
	switch role {
	case RoleMafia:
		return Prompt{Question: "Who do you want to kill?", ActionType: ActionKill, NeedsTarget: true}
	case RoleDoctor:
		return Prompt{Question: "Who do you want to save?", ActionType: ActionSave, NeedsTarget: true}
	case RoleDetective:
		return Prompt{Question: "Who do you want to investigate?", ActionType: ActionInvestigate, NeedsTarget: true}
	default:
		return Prompt{Question: "What will you do tonight?", ActionType: ActionNone, NeedsTarget: false}
	}
}

// BuildAction validates a night submission against the local player's
// role and the living-target candidate set, returning the wire action.
// Failures here stay local; nothing is emitted.
func BuildAction(role, activity, targetID string, targets []protocol.Player) (protocol.Action, error) {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return protocol.Action{}, ErrEmptyActivity
	}

	prompt := PromptFor(role)
	if !prompt.NeedsTarget {
		return protocol.Action{Type: prompt.ActionType, Activity: activity}, nil
	}

	if targetID == "" {
		return protocol.Action{}, ErrMissingTarget
	}
	for _, t := range targets {
		if t.ID == targetID {
			return protocol.Action{Type: prompt.ActionType, Activity: activity, Target: targetID}, nil
		}
	}
	return protocol.Action{}, ErrUnknownTarget
}

// CanStart checks the host's start preconditions: at least 4 players
// and strictly fewer mafia than half the lobby, rounded up.
func CanStart(playerCount, mafia int) error {
	if playerCount < 4 {
		return ErrNotEnoughPlayers
	}
	if mafia >= (playerCount+1)/2 {
		return ErrTooManyMafia
	}
	return nil
}

// DefaultSettings mirrors the authority's lobby defaults.
func DefaultSettings() protocol.Settings {
	return protocol.Settings{Mafia: 1, DayDuration: 120, NightDuration: 60}
}

// SettingsPatch is a partial settings change; nil fields keep the
// current value.
type SettingsPatch struct {
	Theme         *string
	Mafia         *int
	DayDuration   *int
	NightDuration *int
}

func ApplyPatch(s protocol.Settings, p SettingsPatch) protocol.Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Mafia != nil {
		s.Mafia = *p.Mafia
	}
	if p.DayDuration != nil {
		s.DayDuration = *p.DayDuration
	}
	if p.NightDuration != nil {
		s.NightDuration = *p.NightDuration
	}
	return s
}
