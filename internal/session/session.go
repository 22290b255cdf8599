package session

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/mkarlsen/mafia-night/internal/game"
	"github.com/mkarlsen/mafia-night/internal/narration"
	"github.com/mkarlsen/mafia-night/internal/protocol"
)

var ErrNotHost = errors.New("only the host can do that")
var ErrWrongPhase = errors.New("not available in this phase")
var ErrAlreadySubmitted = errors.New("action already submitted this night")

// Link is the outbound side of the connection; satisfied by *conn.Conn.
type Link interface {
	Send(event string, payload any) error
	Close()
}

// Deps wires a session into its surroundings. Views and Notices are
// written non-blocking; a slow consumer misses intermediate snapshots,
// never blocks the loop.
type Deps struct {
	Link         Link
	Views        chan<- View
	Notices      chan<- Notice
	NarrationOut chan<- narration.Snapshot
	NarrationCfg narration.Config
	Log          *zap.Logger
}

// Session is the single owner of one game view's canonical state: the
// player registry, the phase machine, the one-shot gates and the host
// authority. Everything mutates inside one loop; inbound events and
// local intents are applied strictly in inbox order.
type Session struct {
	inbox chan Msg
	deps  Deps

	gameID   string
	playerID string
	hostID   string
	isHost   bool

	phase    game.Phase
	round    int
	registry *game.Registry
	settings protocol.Settings

	actionSubmitted bool
	demoted         bool
	currentStory    game.StoryType
	narr            *narration.Engine

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, gameID, playerID string, isHost bool, deps Deps) *Session {
	ctx, cancel := context.WithCancel(parent)
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.NarrationCfg == (narration.Config{}) {
		deps.NarrationCfg = narration.DefaultConfig()
	}

	s := &Session{
		inbox:    make(chan Msg, 64),
		deps:     deps,
		gameID:   gameID,
		playerID: playerID,
		isHost:   isHost,
		phase:    game.PhaseLobby,
		registry: game.NewRegistry(),
		settings: game.DefaultSettings(),
		ctx:      ctx,
		cancel:   cancel,
	}
	if isHost {
		s.hostID = playerID
	}

	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Events lists every inbound event name the session consumes; the
// caller registers a forwarder for each on the connection.
func Events() []string {
	return []string{
		protocol.EvtStateUpdate,
		protocol.EvtSettingsUpdated,
		protocol.EvtRoleAssigned,
		protocol.EvtGameStarted,
		protocol.EvtDayStarted,
		protocol.EvtNightResolved,
		protocol.EvtContinueUpdate,
		protocol.EvtAllContinued,
		protocol.EvtPlayerLeft,
		protocol.EvtGameEnded,
		protocol.EvtError,
	}
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.teardown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case FromServer:
				s.apply(msg.Event, msg.Data)
				s.broadcastView()

			case ToggleReady:
				self, ok := s.registry.Get(s.playerID)
				if !ok {
					break
				}
				s.emit(protocol.EvtPlayerReady, protocol.PlayerReady{
					GameID:   s.gameID,
					PlayerID: s.playerID,
					Ready:    !self.Ready,
				})

			case SubmitAction:
				msg.Reply <- s.submitAction(msg.Activity, msg.Target)
				s.broadcastView()

			case RequestContinue:
				if s.narr != nil {
					s.narr.Inbox() <- narration.RequestContinue{}
				}

			case ReportScroll:
				if s.narr != nil {
					s.narr.Inbox() <- narration.ReportScroll{AtBottom: msg.AtBottom}
				}

			case UpdateSettings:
				msg.Reply <- s.updateSettings(msg.Patch)
				s.broadcastView()

			case StartGame:
				msg.Reply <- s.startGame()

			case Leave:
				s.emit(protocol.EvtLeaveGame, protocol.LeaveGame{GameID: s.gameID, PlayerID: s.playerID})
				s.teardown()
				return

			case GetView:
				msg.Reply <- s.view()

			case Shutdown:
				s.teardown()
				return
			}
		}
	}
}

// apply consumes one inbound event. Unknown events and malformed
// payloads never crash the loop; they are logged and dropped.
func (s *Session) apply(event string, data json.RawMessage) {
	switch event {
	case protocol.EvtStateUpdate:
		var p protocol.StateUpdate
		if !s.decode(event, data, &p) {
			return
		}
		if p.Players != nil {
			s.registry.Merge(p.Players)
			s.refreshHostID()
		}
		s.applyGameState(p.State)

	case protocol.EvtSettingsUpdated:
		var p protocol.SettingsUpdated
		if !s.decode(event, data, &p) {
			return
		}
		// Authoritative echo replaces the whole value, optimistic
		// local edits included.
		s.settings = p.Settings

	case protocol.EvtRoleAssigned:
		var p protocol.RoleAssigned
		if !s.decode(event, data, &p) {
			return
		}
		s.registry.Merge(p.Players)

	case protocol.EvtGameStarted:
		var p protocol.GameStarted
		if !s.decode(event, data, &p) {
			return
		}
		s.applyGameState(p.GameState)
		if next, ok := game.Next(s.phase, game.PhaseEvent{Kind: game.OnGameStarted}); ok {
			s.setPhase(next)
			s.startNarration(game.StoryBackground, p.BackgroundStory)
		}

	case protocol.EvtDayStarted:
		var p protocol.DayStarted
		if !s.decode(event, data, &p) {
			return
		}
		s.applyGameState(p.GameState)
		if next, ok := game.Next(s.phase, game.PhaseEvent{Kind: game.OnDayStarted}); ok {
			s.setPhase(next)
			s.startNarration(game.StoryDay, p.Story)
		}

	case protocol.EvtNightResolved:
		var p protocol.NightResolved
		if !s.decode(event, data, &p) {
			return
		}
		s.applyGameState(p.GameState)

	case protocol.EvtContinueUpdate:
		// Informational only.
		s.deps.Log.Debug("continue update", zap.ByteString("data", data))

	case protocol.EvtAllContinued:
		var p protocol.AllContinued
		if !s.decode(event, data, &p) {
			return
		}
		ev := game.PhaseEvent{Kind: game.OnAllContinued, NextHint: p.NextPhase, Story: s.currentStory}
		if next, ok := game.Next(s.phase, ev); ok {
			s.setPhase(next)
		}

	case protocol.EvtPlayerLeft:
		var p protocol.PlayerLeft
		if !s.decode(event, data, &p) {
			return
		}
		if p.Players != nil {
			s.registry.Replace(p.Players)
		} else if p.PlayerID != "" {
			s.registry.Remove(p.PlayerID)
		}
		s.applyHostHandoff(p.NewHostID)

	case protocol.EvtGameEnded:
		var p protocol.GameEnded
		_ = json.Unmarshal(data, &p)
		if next, ok := game.Next(s.phase, game.PhaseEvent{Kind: game.OnGameEnded}); ok {
			s.setPhase(next)
		}
		s.stopNarration()
		s.notify(Notice{Kind: NoticeEnded, Text: p.Msg})
		s.deps.Link.Close()

	case protocol.EvtError:
		var p protocol.ErrorPayload
		_ = json.Unmarshal(data, &p)
		if p.Msg == "" {
			p.Msg = "an error occurred"
		}
		s.notify(Notice{Kind: NoticeError, Text: p.Msg})

	default:
		s.deps.Log.Debug("ignoring event", zap.String("event", event))
	}
}

// applyGameState folds in the optional embedded state summary; absent
// fields keep their previous values.
func (s *Session) applyGameState(st *protocol.GameState) {
	if st == nil {
		return
	}
	if st.Round != nil {
		s.round = *st.Round
	}
	if st.Settings != nil {
		s.settings = *st.Settings
	}
	if st.Players != nil {
		s.registry.Merge(st.Players)
		s.refreshHostID()
	}
}

// applyHostHandoff processes a new_host_id. Demotion of the local host
// is one-way: the flag never comes back and the demotion notice fires
// exactly once.
func (s *Session) applyHostHandoff(newHostID string) {
	if newHostID == "" {
		return
	}
	s.hostID = newHostID
	if newHostID == s.playerID || !s.isHost {
		return
	}
	s.isHost = false
	if !s.demoted {
		s.demoted = true
		s.notify(Notice{Kind: NoticeDemoted, Text: "host has changed"})
	}
}

// refreshHostID keeps hostID in line with the is_host flags the
// authority serializes on player records.
func (s *Session) refreshHostID() {
	for id, p := range s.registry.Snapshot() {
		if p.IsHost {
			s.hostID = id
			return
		}
	}
}

func (s *Session) setPhase(next game.Phase) {
	if next == s.phase {
		return
	}
	leaving := s.phase
	s.phase = next

	if leaving.IsNarration() {
		s.stopNarration()
		s.currentStory = game.StoryNone
	}
	if next == game.PhaseNight {
		// Fresh gate for the new night.
		s.actionSubmitted = false
	}
}

func (s *Session) startNarration(st game.StoryType, text string) {
	s.stopNarration()
	s.currentStory = st
	s.narr = narration.New(s.ctx, narration.Story{Type: st, Text: text, Round: s.round}, s.deps.NarrationCfg, narration.Deps{
		GameID:   s.gameID,
		PlayerID: s.playerID,
		Emitter:  s.deps.Link,
		Out:      s.deps.NarrationOut,
		Log:      s.deps.Log,
	})
}

func (s *Session) stopNarration() {
	if s.narr != nil {
		s.narr.Stop()
		s.narr = nil
	}
}

func (s *Session) submitAction(activity, target string) error {
	if s.phase != game.PhaseNight {
		return ErrWrongPhase
	}
	if s.actionSubmitted {
		return ErrAlreadySubmitted
	}

	role := ""
	if self, ok := s.registry.Get(s.playerID); ok {
		role = self.Role
	}
	action, err := game.BuildAction(role, activity, target, s.registry.LivingTargets(s.playerID))
	if err != nil {
		return err
	}

	s.emit(protocol.EvtPlayerAction, protocol.PlayerAction{
		GameID:   s.gameID,
		PlayerID: s.playerID,
		Action:   action,
	})
	s.actionSubmitted = true
	return nil
}

func (s *Session) updateSettings(patch game.SettingsPatch) error {
	if !s.isHost {
		return ErrNotHost
	}
	s.settings = game.ApplyPatch(s.settings, patch)
	s.emit(protocol.EvtUpdateSettings, protocol.UpdateSettings{
		GameID:   s.gameID,
		HostID:   s.playerID,
		Settings: s.settings,
	})
	return nil
}

func (s *Session) startGame() error {
	if !s.isHost {
		return ErrNotHost
	}
	if err := game.CanStart(s.registry.Count(), s.settings.Mafia); err != nil {
		return err
	}
	s.emit(protocol.EvtStartGame, protocol.StartGame{GameID: s.gameID, HostID: s.playerID})
	return nil
}

func (s *Session) view() View {
	self, selfKnown := s.registry.Get(s.playerID)
	return View{
		GameID:          s.gameID,
		PlayerID:        s.playerID,
		HostID:          s.hostID,
		IsHost:          s.isHost,
		Phase:           s.phase,
		Round:           s.round,
		Players:         s.registry.Snapshot(),
		Settings:        s.settings,
		Self:            self,
		SelfKnown:       selfKnown,
		Targets:         s.registry.LivingTargets(s.playerID),
		Prompt:          game.PromptFor(self.Role),
		ActionSubmitted: s.actionSubmitted,
	}
}

func (s *Session) broadcastView() {
	if s.deps.Views == nil {
		return
	}
	select {
	case s.deps.Views <- s.view():
	default:
	}
}

func (s *Session) notify(n Notice) {
	if s.deps.Notices == nil {
		return
	}
	select {
	case s.deps.Notices <- n:
	default:
		s.deps.Log.Warn("notice dropped", zap.String("kind", string(n.Kind)), zap.String("text", n.Text))
	}
}

func (s *Session) emit(event string, payload any) {
	if err := s.deps.Link.Send(event, payload); err != nil {
		s.deps.Log.Warn("emit failed", zap.String("event", event), zap.Error(err))
	}
}

func (s *Session) decode(event string, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		s.deps.Log.Warn("malformed payload dropped", zap.String("event", event), zap.Error(err))
		return false
	}
	return true
}

// teardown cancels the narration timers and closes the connection.
// Reached from every exit path; closing twice is safe.
func (s *Session) teardown() {
	s.stopNarration()
	s.deps.Link.Close()
	s.cancel()
}
