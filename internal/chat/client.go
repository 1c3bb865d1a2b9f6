package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"go-relay/internal/errs"
)

// Options tune a websocket client. Zero HeartbeatInterval disables pings, so
// an idle connection stays registered for as long as the socket is open.
type Options struct {
	SendBuffer        int
	WriteWait         time.Duration
	HeartbeatInterval time.Duration
	MaxFrameBytes     int64
}

func DefaultOptions() Options {
	return Options{
		SendBuffer:    256,
		WriteWait:     10 * time.Second,
		MaxFrameBytes: 10 << 20,
	}
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	opts Options
	log  zerolog.Logger

	// Buffered channel of outbound lines, drained by writePump.
	send      chan string
	done      chan struct{}
	closeOnce sync.Once

	name  string
	state atomic.Int32
}

func NewClient(hub *Hub, conn *websocket.Conn, opts Options, log zerolog.Logger) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultOptions().SendBuffer
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = DefaultOptions().WriteWait
	}
	return &Client{
		hub:  hub,
		conn: conn,
		opts: opts,
		log:  log,
		send: make(chan string, opts.SendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Client) State() State { return State(c.state.Load()) }

// Send queues text for delivery. It blocks while the queue is full and fails
// with errs.ErrTransport once the connection is closed.
func (c *Client) Send(ctx context.Context, text string) error {
	if c.State() == StateClosed {
		return fmt.Errorf("%w: %s: connection closed", errs.ErrTransport, c.name)
	}
	select {
	case <-c.done:
		return fmt.Errorf("%w: %s: connection closed", errs.ErrTransport, c.name)
	default:
	}
	select {
	case c.send <- text:
		return nil
	case <-c.done:
		return fmt.Errorf("%w: %s: connection closed", errs.ErrTransport, c.name)
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", errs.ErrTransport, c.name, ctx.Err())
	}
}

// Serve runs the connection from name declaration to departure. It returns
// once the peer disconnects or the transport fails.
func (c *Client) Serve(ctx context.Context) {
	defer c.close()

	name, err := c.readName()
	if err != nil {
		c.log.Warn().Err(err).Msg("⚠️ rejected connection")
		c.closeWith(websocket.ClosePolicyViolation, "first frame must be a text name")
		return
	}
	c.name = name
	c.log = c.log.With().Str("name", name).Logger()
	go c.writePump()

	defer func() {
		c.state.Store(int32(StateClosed))
		c.hub.Leave(ctx, c, name)
	}()
	if err := c.hub.Join(ctx, c, name); err != nil {
		c.log.Warn().Err(err).Msg("⚠️ join aborted")
		return
	}
	c.state.Store(int32(StateActive))

	c.readPump(ctx)
}

func (c *Client) readName() (string, error) {
	c.conn.SetReadLimit(c.opts.MaxFrameBytes)
	c.armHeartbeat()
	mt, data, err := c.conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrTransport, err)
	}
	f := toFrame(mt, data)
	if f.Kind != FrameText || !utf8.ValidString(f.Text) {
		return "", fmt.Errorf("%w: %s name declaration", errs.ErrProtocol, f.Kind)
	}
	return f.Text, nil
}

// readPump pumps frames from the websocket connection to the hub, strictly in
// arrival order.
func (c *Client) readPump(ctx context.Context) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Warn().Err(err).Msg("⚠️ connection lost")
			}
			return
		}
		if c.State() != StateActive {
			return
		}
		err = c.hub.Dispatch(ctx, c, c.name, toFrame(mt, data))
		if errors.Is(err, ErrClosed) || errors.Is(err, errs.ErrTransport) {
			return
		}
	}
}

// writePump is the only goroutine that writes to the websocket.
func (c *Client) writePump() {
	var heartbeat <-chan time.Time
	if c.opts.HeartbeatInterval > 0 {
		ticker := time.NewTicker(c.opts.HeartbeatInterval)
		defer ticker.Stop()
		heartbeat = ticker.C
	}
	defer c.close()

	for {
		select {
		case text := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-heartbeat:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// armHeartbeat extends the read deadline on every pong. It only applies when
// pings are enabled; otherwise reads never time out.
func (c *Client) armHeartbeat() {
	if c.opts.HeartbeatInterval <= 0 {
		return
	}
	pongWait := c.opts.HeartbeatInterval * 10 / 9
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

func (c *Client) closeWith(code int, reason string) {
	deadline := time.Now().Add(c.opts.WriteWait)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
		c.conn.Close()
	})
}

func toFrame(messageType int, data []byte) Frame {
	switch messageType {
	case websocket.TextMessage:
		return Frame{Kind: FrameText, Text: string(data)}
	case websocket.BinaryMessage:
		return Frame{Kind: FrameBinary, Data: data}
	case websocket.CloseMessage:
		return Frame{Kind: FrameClose}
	}
	return Frame{Kind: FrameUnknown, Data: data}
}
