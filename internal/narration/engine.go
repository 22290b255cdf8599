package narration

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mkarlsen/mafia-night/internal/game"
	"github.com/mkarlsen/mafia-night/internal/protocol"
)

// Story is one narrative payload from the authority.
type Story struct {
	Type  game.StoryType
	Text  string
	Round int
}

// Config holds the playback timings. Defaults match the original
// pacing; tests shrink them.
type Config struct {
	CharInterval  time.Duration
	SentencePause time.Duration
	FrameInterval time.Duration
	Frames        int
}

func DefaultConfig() Config {
	return Config{
		CharInterval:  50 * time.Millisecond,
		SentencePause: time.Second,
		FrameInterval: 350 * time.Millisecond,
		Frames:        16,
	}
}

// Emitter is where outbound intents go; satisfied by conn.Conn.
type Emitter interface {
	Send(event string, payload any) error
}

// Snapshot is the immutable view handed to subscribers after every
// change.
type Snapshot struct {
	Story      Story
	Sentences  []string
	Index      int
	Displayed  string
	Buffer     string
	Typing     bool
	Completed  bool
	Continued  bool
	Frame      int
	AutoFollow bool
}

type Msg interface{ isEngineMsg() }

// RequestContinue asks the authority to move on. One-shot per engine
// instance; repeats are ignored.
type RequestContinue struct{}

// ReportScroll tells the engine where the text viewport sits. Scrolling
// away from the bottom suspends auto-follow for the rest of this
// instance.
type ReportScroll struct{ AtBottom bool }

type GetState struct{ Reply chan Snapshot }

type Shutdown struct{}

func (RequestContinue) isEngineMsg() {}
func (ReportScroll) isEngineMsg()    {}
func (GetState) isEngineMsg()        {}
func (Shutdown) isEngineMsg()        {}

// Deps wires an engine into its session.
type Deps struct {
	GameID   string
	PlayerID string
	Emitter  Emitter
	Out      chan<- Snapshot
	Log      *zap.Logger
}

// Engine reveals one story sentence by sentence on a fixed cadence,
// with an independent sprite-frame oscillator running while characters
// are being typed. It owns every timer it starts; all of them die with
// the engine's context.
type Engine struct {
	inbox chan Msg
	cfg   Config
	deps  Deps

	story     Story
	sentences [][]rune

	idx       int
	pos       int
	displayed []rune
	buffer    []rune
	typing    bool
	completed bool
	continued bool

	frame    int
	frameDir int

	autoFollow bool

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, story Story, cfg Config, deps Deps) *Engine {
	ctx, cancel := context.WithCancel(parent)
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	parts := SplitSentences(story.Text)
	sentences := make([][]rune, len(parts))
	for i, s := range parts {
		sentences[i] = []rune(s)
	}

	e := &Engine{
		inbox:      make(chan Msg, 16),
		cfg:        cfg,
		deps:       deps,
		story:      story,
		sentences:  sentences,
		frameDir:   1,
		autoFollow: true,
		ctx:        ctx,
		cancel:     cancel,
	}
	e.typing = len(e.sentences) > 0
	e.completed = len(e.sentences) == 0

	go e.loop()
	return e
}

func (e *Engine) Inbox() chan<- Msg { return e.inbox }

// Stop tears the engine down, cancelling every timer it owns. Safe to
// call more than once.
func (e *Engine) Stop() { e.cancel() }

func (e *Engine) loop() {
	charTick := time.NewTicker(e.cfg.CharInterval)
	frameTick := time.NewTicker(e.cfg.FrameInterval)
	defer charTick.Stop()
	defer frameTick.Stop()

	var pause *time.Timer
	var pauseC <-chan time.Time
	defer func() {
		if pause != nil {
			pause.Stop()
		}
	}()

	e.broadcast()

	for {
		select {
		case <-e.ctx.Done():
			return

		case m := <-e.inbox:
			switch msg := m.(type) {
			case RequestContinue:
				if !e.continued {
					e.continued = true
					e.emit(protocol.EvtPlayerContinue, protocol.PlayerContinue{
						GameID:   e.deps.GameID,
						PlayerID: e.deps.PlayerID,
					})
					e.broadcast()
				}

			case ReportScroll:
				if !msg.AtBottom && e.autoFollow {
					e.autoFollow = false
					e.broadcast()
				}

			case GetState:
				msg.Reply <- e.snapshot()

			case Shutdown:
				e.cancel()
				return
			}

		case <-charTick.C:
			if !e.typing {
				break
			}
			if done := e.revealChar(); done {
				pause = time.NewTimer(e.cfg.SentencePause)
				pauseC = pause.C
			}
			e.broadcast()

		case <-pauseC:
			pauseC = nil
			e.advance()
			if e.completed {
				charTick.Stop()
				frameTick.Stop()
			}
			e.broadcast()

		case <-frameTick.C:
			if !e.typing {
				break
			}
			e.stepFrame()
			e.broadcast()
		}
	}
}

// revealChar appends the next character of the current sentence to both
// the per-sentence display and the cumulative buffer. Returns true when
// the sentence is exhausted; the separator is appended right away and
// the caller arms the inter-sentence pause.
func (e *Engine) revealChar() (sentenceDone bool) {
	sentence := e.sentences[e.idx]
	ch := sentence[e.pos]
	e.displayed = append(e.displayed, ch)
	e.buffer = append(e.buffer, ch)
	e.pos++

	if e.pos < len(sentence) {
		return false
	}
	e.buffer = append(e.buffer, []rune(separatorFor(string(sentence)))...)
	e.typing = false
	e.frame = 0
	e.frameDir = 1
	return true
}

// advance moves to the next sentence, or marks playback complete when
// the sequence is exhausted.
func (e *Engine) advance() {
	e.idx++
	if e.idx >= len(e.sentences) {
		e.typing = false
		e.completed = true
		e.frame = 0
		return
	}
	e.displayed = e.displayed[:0]
	e.pos = 0
	e.typing = true
}

// stepFrame bounces the sprite frame between 0 and Frames-1.
func (e *Engine) stepFrame() {
	next := e.frame + e.frameDir
	if next >= e.cfg.Frames-1 {
		e.frame = e.cfg.Frames - 1
		e.frameDir = -1
		return
	}
	if next <= 0 {
		e.frame = 0
		e.frameDir = 1
		return
	}
	e.frame = next
}

func (e *Engine) snapshot() Snapshot {
	sentences := make([]string, len(e.sentences))
	for i, s := range e.sentences {
		sentences[i] = string(s)
	}
	return Snapshot{
		Story:      e.story,
		Sentences:  sentences,
		Index:      e.idx,
		Displayed:  string(e.displayed),
		Buffer:     string(e.buffer),
		Typing:     e.typing,
		Completed:  e.completed,
		Continued:  e.continued,
		Frame:      e.frame,
		AutoFollow: e.autoFollow,
	}
}

func (e *Engine) broadcast() {
	if e.deps.Out == nil {
		return
	}
	select {
	case e.deps.Out <- e.snapshot():
	default:
		// Subscriber is behind; it will catch up on the next change.
	}
}

func (e *Engine) emit(event string, payload any) {
	if e.deps.Emitter == nil {
		return
	}
	if err := e.deps.Emitter.Send(event, payload); err != nil {
		e.deps.Log.Warn("narration: emit failed", zap.String("event", event), zap.Error(err))
	}
}
