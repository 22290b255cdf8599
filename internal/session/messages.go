package session

import (
	"encoding/json"

	"github.com/mkarlsen/mafia-night/internal/game"
	"github.com/mkarlsen/mafia-night/internal/protocol"
)

type Msg interface{ isSessionMsg() }

// FromServer is one inbound event forwarded from the connection. Events
// enter the inbox in arrival order and are applied one at a time.
type FromServer struct {
	Event string
	Data  json.RawMessage
}

// ToggleReady flips the local player's ready flag.
type ToggleReady struct{}

// SubmitAction is the night-action submission. Reply receives nil on
// success or the validation/gating error.
type SubmitAction struct {
	Activity string
	Target   string
	Reply    chan error
}

// RequestContinue forwards the local continue press to the narration
// playback; at most one continue intent leaves per narration instance.
type RequestContinue struct{}

// ReportScroll relays the narration viewport position.
type ReportScroll struct{ AtBottom bool }

// UpdateSettings applies a host settings patch optimistically and emits
// it to the authority.
type UpdateSettings struct {
	Patch game.SettingsPatch
	Reply chan error
}

// StartGame asks the authority to start; rejected locally when the
// lobby composition is invalid.
type StartGame struct{ Reply chan error }

// Leave announces departure and tears the session down.
type Leave struct{}

// GetView reflects current state without data races; used by tests and
// the UI.
type GetView struct{ Reply chan View }

type Shutdown struct{}

func (FromServer) isSessionMsg()      {}
func (ToggleReady) isSessionMsg()     {}
func (SubmitAction) isSessionMsg()    {}
func (RequestContinue) isSessionMsg() {}
func (ReportScroll) isSessionMsg()    {}
func (UpdateSettings) isSessionMsg()  {}
func (StartGame) isSessionMsg()       {}
func (Leave) isSessionMsg()           {}
func (GetView) isSessionMsg()         {}
func (Shutdown) isSessionMsg()        {}

// View is the immutable snapshot handed to subscribers.
type View struct {
	GameID          string
	PlayerID        string
	HostID          string
	IsHost          bool
	Phase           game.Phase
	Round           int
	Players         protocol.PlayerSet
	Settings        protocol.Settings
	Self            protocol.Player
	SelfKnown       bool
	Targets         []protocol.Player
	Prompt          game.Prompt
	ActionSubmitted bool
}

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeError   NoticeKind = "error"
	NoticeDemoted NoticeKind = "demoted"
	NoticeEnded   NoticeKind = "ended"
)

// Notice is a user-facing signal: authority errors are non-fatal,
// demotion and game end force the view away from this session.
type Notice struct {
	Kind NoticeKind
	Text string
}
