package narration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mkarlsen/mafia-night/internal/game"
)

func fastConfig() Config {
	return Config{
		CharInterval:  time.Millisecond,
		SentencePause: 2 * time.Millisecond,
		FrameInterval: time.Millisecond,
		Frames:        4,
	}
}

type recordingEmitter struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingEmitter) Send(event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, event)
	return nil
}

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

// waitCompleted drains snapshots until playback finishes.
func waitCompleted(t *testing.T, out <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case snap := <-out:
			if snap.Completed {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for playback to complete")
			return Snapshot{}
		}
	}
}

func getState(t *testing.T, e *Engine, within time.Duration) Snapshot {
	t.Helper()
	reply := make(chan Snapshot, 1)
	e.Inbox() <- GetState{Reply: reply}
	select {
	case snap := <-reply:
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for engine state")
		return Snapshot{}
	}
}

func TestEngine_RevealsWholeSentence(t *testing.T) {
	out := make(chan Snapshot, 256)
	e := New(context.Background(), Story{Type: game.StoryBackground, Text: "Hello world"}, fastConfig(), Deps{Out: out})
	defer e.Stop()

	final := waitCompleted(t, out, 2*time.Second)
	if final.Buffer != "Hello world. " {
		t.Fatalf("buffer = %q, want %q", final.Buffer, "Hello world. ")
	}
	if final.Typing {
		t.Fatalf("typing flag must clear on completion")
	}
	if final.Frame != 0 {
		t.Fatalf("sprite frame must reset to 0, got %d", final.Frame)
	}
}

func TestEngine_TwoSentenceStory(t *testing.T) {
	out := make(chan Snapshot, 256)
	text := "A storm falls. The village sleeps."
	e := New(context.Background(), Story{Type: game.StoryBackground, Text: text}, fastConfig(), Deps{Out: out})
	defer e.Stop()

	final := waitCompleted(t, out, 2*time.Second)
	want := "A storm falls. The village sleeps. "
	if final.Buffer != want {
		t.Fatalf("buffer = %q, want %q", final.Buffer, want)
	}
	if final.Displayed != "The village sleeps" {
		t.Fatalf("displayed = %q, want last sentence", final.Displayed)
	}
	if final.Index != 2 {
		t.Fatalf("index = %d, want 2", final.Index)
	}
}

func TestEngine_EmptyStoryCompletesImmediately(t *testing.T) {
	out := make(chan Snapshot, 8)
	e := New(context.Background(), Story{Type: game.StoryDay, Text: "   "}, fastConfig(), Deps{Out: out})
	defer e.Stop()

	snap := getState(t, e, time.Second)
	if !snap.Completed || snap.Typing {
		t.Fatalf("empty story should complete immediately: %+v", snap)
	}
}

func TestEngine_ContinueIsOneShot(t *testing.T) {
	out := make(chan Snapshot, 256)
	em := &recordingEmitter{}
	e := New(context.Background(), Story{Type: game.StoryBackground, Text: "Hi"}, fastConfig(), Deps{
		GameID: "G1", PlayerID: "P1", Emitter: em, Out: out,
	})
	defer e.Stop()

	e.Inbox() <- RequestContinue{}
	e.Inbox() <- RequestContinue{}
	e.Inbox() <- RequestContinue{}

	snap := getState(t, e, time.Second)
	if !snap.Continued {
		t.Fatalf("continued flag should be set")
	}
	if em.count() != 1 {
		t.Fatalf("want exactly one continue intent, got %d", em.count())
	}
}

func TestEngine_ScrollAwaySuspendsAutoFollow(t *testing.T) {
	out := make(chan Snapshot, 256)
	e := New(context.Background(), Story{Type: game.StoryDay, Text: "One. Two. Three."}, fastConfig(), Deps{Out: out})
	defer e.Stop()

	if snap := getState(t, e, time.Second); !snap.AutoFollow {
		t.Fatalf("auto-follow must start enabled")
	}

	e.Inbox() <- ReportScroll{AtBottom: false}
	if snap := getState(t, e, time.Second); snap.AutoFollow {
		t.Fatalf("scrolling away must suspend auto-follow")
	}

	// One-way for the life of this instance: reporting bottom again
	// does not resume following.
	e.Inbox() <- ReportScroll{AtBottom: true}
	if snap := getState(t, e, time.Second); snap.AutoFollow {
		t.Fatalf("auto-follow must stay suspended until a new story")
	}
}

func TestEngine_StopCancelsTimers(t *testing.T) {
	out := make(chan Snapshot, 256)
	e := New(context.Background(), Story{Type: game.StoryBackground, Text: "A very long story that keeps typing"}, Config{
		CharInterval:  5 * time.Millisecond,
		SentencePause: 5 * time.Millisecond,
		FrameInterval: 5 * time.Millisecond,
		Frames:        4,
	}, Deps{Out: out})

	e.Stop()
	time.Sleep(20 * time.Millisecond)
	for len(out) > 0 {
		<-out
	}

	select {
	case snap := <-out:
		t.Fatalf("expected no snapshot after Stop, got %+v", snap)
	case <-time.After(50 * time.Millisecond):
		// good: timers are dead
	}
}

func TestStepFrame_BouncesBetweenBounds(t *testing.T) {
	e := &Engine{cfg: Config{Frames: 4}, frameDir: 1}

	want := []int{1, 2, 3, 2, 1, 0, 1}
	for i, w := range want {
		e.stepFrame()
		if e.frame != w {
			t.Fatalf("step %d: frame = %d, want %d", i, e.frame, w)
		}
	}
}
