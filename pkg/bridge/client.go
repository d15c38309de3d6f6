package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/serialbridge/serialbridge-go/pkg/serialport"
	"github.com/serialbridge/serialbridge-go/pkg/transport"
	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

// Client errors.
var (
	ErrRequestTimeout = errors.New("request timed out")
	ErrClientClosed   = errors.New("client is closed")
)

// Conn is the framed stream the client runs on.
// Implemented by transport.Conn.
type Conn interface {
	// Send sends a frame to the daemon.
	Send(data []byte) error

	// Receive blocks until a frame arrives. Zero timeout means no limit.
	Receive(timeout time.Duration) ([]byte, error)

	// Close closes the stream.
	Close() error
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout (default 30s).
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger for receive-loop and dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is a command channel and event feed over one daemon connection.
type Client struct {
	mu sync.RWMutex

	conn    Conn
	timeout time.Duration
	logger  *slog.Logger

	// Message ID generator
	nextMsgID uint32

	// Pending requests awaiting responses
	pending   map[uint32]chan *wire.Response
	pendingMu sync.RWMutex

	feed *feed

	closed bool
	done   chan struct{}
}

// NewClient creates a client over an established connection and starts
// its receive loop.
func NewClient(conn Conn, opts ...Option) *Client {
	c := &Client{
		conn:    conn,
		timeout: 30 * time.Second,
		logger:  slog.Default(),
		pending: make(map[uint32]chan *wire.Response),
		feed:    newFeed(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.receiveLoop()
	return c
}

// Dial connects to a daemon address and returns a ready client.
func Dial(ctx context.Context, address string, config transport.ClientConfig, opts ...Option) (*Client, error) {
	conn, err := transport.NewClient(config).Connect(ctx, address)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, opts...), nil
}

// Close closes the client and the underlying connection. Pending requests
// fail with ErrClientClosed; feed subscriptions are cancelled.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	// Pending requests are not signalled here; waiters observe the closed
	// done channel. Closing their channels would race handleResponse.
	c.pendingMu.Lock()
	c.pending = make(map[uint32]chan *wire.Response)
	c.pendingMu.Unlock()

	c.feed.cancelAll()

	return c.conn.Close()
}

// nextMessageID generates the next unique message ID, skipping the
// reserved event ID.
func (c *Client) nextMessageID() uint32 {
	id := atomic.AddUint32(&c.nextMsgID, 1)
	if id == wire.EventMessageID {
		id = atomic.AddUint32(&c.nextMsgID, 1)
	}
	return id
}

// Invoke sends a command and waits for the matching response. A non-nil
// result receives the decoded response payload. Daemon failures return a
// *serialport.RemoteError carrying the daemon's code and message
// unchanged.
func (c *Client) Invoke(ctx context.Context, command string, args any, result any) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrClientClosed
	}
	timeout := c.timeout
	c.mu.RUnlock()

	req := &wire.Request{
		MessageID: c.nextMessageID(),
		Command:   command,
		Args:      args,
	}

	respCh := make(chan *wire.Response, 1)

	c.pendingMu.Lock()
	c.pending[req.MessageID] = respCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.MessageID)
		c.pendingMu.Unlock()
	}()

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return err
	}
	if err := c.conn.Send(data); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClientClosed
	case <-time.After(timeout):
		return ErrRequestTimeout
	case resp := <-respCh:
		if !resp.IsSuccess() {
			return &serialport.RemoteError{
				Code:    resp.Status.String(),
				Message: resp.Message,
			}
		}
		if result != nil && len(resp.Result) > 0 {
			if err := wire.Unmarshal(resp.Result, result); err != nil {
				return err
			}
		}
		return nil
	}
}

// receiveLoop pumps inbound frames until the connection fails or the
// client is closed.
func (c *Client) receiveLoop() {
	for {
		data, err := c.conn.Receive(0)
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Debug("bridge connection lost", "error", err)
				c.Close()
			}
			return
		}
		c.handleMessage(data)
	}
}

// handleMessage classifies and routes one inbound frame.
func (c *Client) handleMessage(data []byte) {
	msgType, err := wire.PeekMessageType(data)
	if err != nil {
		c.logger.Debug("dropping undecodable frame", "error", err)
		return
	}

	switch msgType {
	case wire.MessageTypeResponse:
		resp, err := wire.DecodeResponse(data)
		if err != nil {
			c.logger.Debug("dropping malformed response", "error", err)
			return
		}
		c.handleResponse(resp)

	case wire.MessageTypeEvent:
		ev, err := wire.DecodeEvent(data)
		if err != nil {
			c.logger.Debug("dropping malformed event", "error", err)
			return
		}
		c.feed.dispatch(ev, c.logger)

	default:
		c.logger.Debug("dropping unexpected message", "type", msgType.String())
	}
}

// handleResponse delivers a response to its pending request, if any.
// Responses with no matching request are dropped: the request may have
// timed out or been cancelled.
func (c *Client) handleResponse(resp *wire.Response) {
	c.pendingMu.RLock()
	ch, exists := c.pending[resp.MessageID]
	c.pendingMu.RUnlock()

	if !exists {
		c.logger.Debug("dropping unmatched response", "messageID", resp.MessageID)
		return
	}

	select {
	case ch <- resp:
	default:
		// Channel full or closed
	}
}
