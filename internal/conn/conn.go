package conn

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mkarlsen/mafia-night/internal/protocol"
)

const (
	writeTimeout      = 3 * time.Second
	keepaliveInterval = 30 * time.Second
)

// Handler receives the raw data of one inbound event. Handlers run on
// the single reader goroutine, in arrival order.
type Handler func(data json.RawMessage)

// Conn is one live connection to the authority for one session view.
// It announces presence on dial and tears down exactly once no matter
// how many exit paths fire.
type Conn struct {
	ws  *websocket.Conn
	log *zap.Logger

	mu       sync.Mutex
	handlers map[string]Handler

	writeMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	group     *errgroup.Group
}

// Dial opens the websocket and immediately announces join for the given
// player. Call On to register handlers, then Start to begin dispatch.
func Dial(parent context.Context, url, gameID, playerID string, log *zap.Logger) (*Conn, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dialCtx, dialCancel := context.WithTimeout(parent, 10*time.Second)
	defer dialCancel()

	ws, _, err := websocket.Dial(dialCtx, url, nil)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	c := &Conn{
		ws:       ws,
		log:      log,
		handlers: make(map[string]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}

	if err := c.Send(protocol.EvtJoin, protocol.Join{GameID: gameID, PlayerID: playerID}); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// On registers the handler for one event name, replacing any previous
// registration. Unregistered events are ignored.
func (c *Conn) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = h
}

// Send marshals the payload into the wire envelope and writes it.
func (c *Conn) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(protocol.Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, frame)
}

// Start begins the reader and keepalive goroutines. It returns
// immediately; Wait blocks until the reader exits.
func (c *Conn) Start() {
	g, ctx := errgroup.WithContext(c.ctx)
	c.group = g

	g.Go(func() error {
		defer c.Close()
		return c.readLoop(ctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := c.ws.Ping(ctx); err != nil {
					return nil
				}
			}
		}
	})
}

// Wait blocks until the connection's goroutines have finished.
func (c *Conn) Wait() error {
	if c.group == nil {
		return nil
	}
	return c.group.Wait()
}

func (c *Conn) readLoop(ctx context.Context) error {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn("conn: undecodable frame dropped", zap.Error(err))
			continue
		}

		c.mu.Lock()
		h := c.handlers[env.Event]
		c.mu.Unlock()
		if h == nil {
			c.log.Debug("conn: no handler for event", zap.String("event", env.Event))
			continue
		}
		h(env.Data)
	}
}

// Close tears the connection down. Idempotent and safe from any
// goroutine; every exit path may call it.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.ws.Close(websocket.StatusNormalClosure, "bye")
	})
}
