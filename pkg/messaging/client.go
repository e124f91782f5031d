package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

type clientState int

const (
	stateStopped clientState = iota
	stateStarting
	stateStarted
	stateStopping
)

const (
	defaultStartTimeout = 30 * time.Second
	defaultStopTimeout  = 10 * time.Second
)

var (
	ErrClientClosed = errors.New("messaging: client is not open")

	// ErrStopTimeout means the read loop did not drain within the stop
	// timeout; the connection is torn down regardless.
	ErrStopTimeout = errors.New("messaging: timed out waiting for connection to stop")
)

// Client maintains one channel connection shared by all subscribers.
// Transitions are serialized: concurrent Open and Close calls block each
// other, and whichever runs last decides the terminal state.
type Client struct {
	transport Transport

	startTimeout time.Duration
	stopTimeout  time.Duration

	// mu guards state transitions end to end, not just field access.
	mu    sync.Mutex
	state clientState
	conn  Conn
	done  chan struct{}

	handlersMu    sync.Mutex
	handlers      map[int]Handler
	nextHandlerID int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithStartTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.startTimeout = d }
}

func WithStopTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.stopTimeout = d }
}

// NewClient builds a client around the given transport. The client holds
// no global state; callers that want a shared connection share the Client
// value.
func NewClient(transport Transport, opts ...ClientOption) *Client {
	c := &Client{
		transport:    transport,
		startTimeout: defaultStartTimeout,
		stopTimeout:  defaultStopTimeout,
		handlers:     make(map[int]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open subscribes handler to server frames, connecting first if no
// connection is up. Opening an already-started client registers the
// handler without renegotiating. The returned function removes the
// subscription; it never closes the connection.
func (c *Client) Open(ctx context.Context, handler Handler) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateStopped {
		if err := c.startLocked(ctx); err != nil {
			c.state = stateStopped
			return nil, err
		}
	}

	return c.subscribe(handler), nil
}

// Send pushes one message onto the channel. Delivery is fire and forget:
// a nil return means the frame was written, not that it was answered.
func (c *Client) Send(ctx context.Context, sessionID, messageText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateStarted {
		return ErrClientClosed
	}
	return c.conn.WriteJSON(ClientMessage{SessionId: sessionID, MessageText: messageText})
}

// Close tears the connection down. Closing a stopped client is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateStopped {
		return nil
	}
	c.state = stateStopping

	err := c.conn.Close()

	// Wait for the read loop to drain, bounded so a wedged connection
	// cannot hang Close forever. Exceeding the bound is reported: the
	// client still ends up stopped, but the caller learns the transport
	// never confirmed.
	select {
	case <-c.done:
	case <-time.After(c.stopTimeout):
		if err == nil {
			err = ErrStopTimeout
		}
	}

	c.conn = nil
	c.done = nil
	c.state = stateStopped
	return err
}

// startLocked negotiates and connects under a fixed timeout. Caller holds
// mu.
func (c *Client) startLocked(ctx context.Context) error {
	c.state = stateStarting

	startCtx, cancel := context.WithTimeout(ctx, c.startTimeout)
	defer cancel()

	negotiated, err := c.transport.Negotiate(startCtx)
	if err != nil {
		return fmt.Errorf("negotiate: %w", err)
	}

	conn, err := c.transport.Connect(startCtx, negotiated.Url)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	c.conn = conn
	c.done = make(chan struct{})
	c.state = stateStarted
	go c.readLoop(conn, c.done)
	return nil
}

func (c *Client) subscribe(handler Handler) func() {
	c.handlersMu.Lock()
	id := c.nextHandlerID
	c.nextHandlerID++
	c.handlers[id] = handler
	c.handlersMu.Unlock()

	return func() {
		c.handlersMu.Lock()
		delete(c.handlers, id)
		c.handlersMu.Unlock()
	}
}

func (c *Client) readLoop(conn Conn, done chan struct{}) {
	defer close(done)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		c.handlersMu.Lock()
		handlers := make([]Handler, 0, len(c.handlers))
		for _, h := range c.handlers {
			handlers = append(handlers, h)
		}
		c.handlersMu.Unlock()

		for _, h := range handlers {
			h(msg)
		}
	}
}
