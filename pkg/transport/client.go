package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Transport errors.
var (
	// ErrConnectionClosed indicates the connection has been closed.
	ErrConnectionClosed = errors.New("connection closed")
)

// ClientConfig configures a bridge transport client.
type ClientConfig struct {
	// TLSConfig enables TLS when set. Plain TCP is used when nil, which
	// is the normal case for a daemon on localhost.
	TLSConfig *tls.Config

	// MaxMessageSize is the maximum frame size (default: 256KB).
	MaxMessageSize uint32

	// ConnectTimeout is the connection timeout (default: 10s).
	ConnectTimeout time.Duration

	// Logger receives connection lifecycle logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client dials serial bridge daemons.
type Client struct {
	config ClientConfig
	logger *slog.Logger
}

// NewClient creates a new transport client.
func NewClient(config ClientConfig) *Client {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{config: config, logger: logger}
}

// Connect establishes a connection to the daemon at the given address.
func (c *Client) Connect(ctx context.Context, address string) (*Conn, error) {
	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	if c.config.TLSConfig != nil {
		tlsConn := tls.Client(conn, c.config.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("TLS handshake failed: %w", err)
		}
		conn = tlsConn
	}

	id := uuid.New().String()
	c.logger.Debug("connected to bridge daemon",
		"connID", id,
		"address", address,
		"tls", c.config.TLSConfig != nil)

	return NewConn(conn, id, c.config.MaxMessageSize), nil
}

// Conn is a framed connection to a bridge daemon.
type Conn struct {
	id      string
	conn    net.Conn
	framer  *Framer
	closeCh chan struct{}

	closeOnce sync.Once
	readMu    sync.Mutex
}

// NewConn wraps an established stream in a framed connection.
// An empty id is replaced with a fresh UUID.
func NewConn(conn net.Conn, id string, maxMessageSize uint32) *Conn {
	if id == "" {
		id = uuid.New().String()
	}
	return &Conn{
		id:      id,
		conn:    conn,
		framer:  NewFramerWithMaxSize(conn, maxMessageSize),
		closeCh: make(chan struct{}),
	}
}

// ID returns the connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send sends a message to the daemon.
// Thread-safe: the framer serializes concurrent writers.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.framer.WriteFrame(data)
}

// Receive receives a message from the daemon. A timeout of zero blocks
// until a frame arrives or the connection is closed.
func (c *Conn) Receive(timeout time.Duration) ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}

	return c.framer.ReadFrame()
}

// Close closes the connection. Safe to call multiple times.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}
