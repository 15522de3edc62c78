package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/akcyp/chess-online/internal/obslog"
)

const egressBuffer = 32

// Conn wraps one accepted websocket. Writes go through a buffered queue
// drained by a single goroutine, so messages to a connection keep the order
// Send was called in and a stalled socket never blocks a broadcaster.
type Conn struct {
	id   string
	name string

	ws     *websocket.Conn
	egress chan []byte

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewConn(ws *websocket.Conn, id, name string) *Conn {
	c := &Conn{
		id:     id,
		name:   name,
		ws:     ws,
		egress: make(chan []byte, egressBuffer),
		stopCh: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.writeLoop()
	return c
}

func (c *Conn) ID() string   { return c.id }
func (c *Conn) Name() string { return c.name }

// Send marshals and enqueues a message. Delivery is fire-and-forget: when
// the queue is full the message is dropped and the connection closed, the
// caller is never blocked and never sees an error.
func (c *Conn) Send(msg any) {
	raw, err := json.Marshal(msg)
	if err != nil {
		obslog.L().Error("ws_marshal_error", zap.String("user_id", c.id), zap.Error(err))
		return
	}
	select {
	case <-c.stopCh:
	case c.egress <- raw:
	default:
		obslog.L().Warn("ws_egress_full", zap.String("user_id", c.id))
		c.Close(websocket.StatusPolicyViolation, "slow consumer")
	}
}

func (c *Conn) writeLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case raw := <-c.egress:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := c.ws.Write(ctx, websocket.MessageText, raw)
			cancel()
			if err != nil {
				if !c.isStopping() {
					obslog.L().Debug("ws_write_error", zap.String("user_id", c.id), zap.Error(err))
				}
				return
			}
		}
	}
}

// Serve delivers the connection's lifecycle to the handler: OnAttach, one
// OnAction per inbound frame, OnDetach when the socket closes. It blocks
// until the peer disconnects or ctx is done.
func (c *Conn) Serve(ctx context.Context, h Handler) {
	h.OnAttach(c)
	defer h.OnDetach(c)
	for {
		_, raw, err := c.ws.Read(ctx)
		if err != nil {
			c.Close(websocket.StatusNormalClosure, "")
			return
		}
		h.OnAction(c, raw)
	}
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close(code websocket.StatusCode, reason string) {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		_ = c.ws.Close(code, reason)
	})
}

func (c *Conn) isStopping() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}
