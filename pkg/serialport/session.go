package serialport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/encoding"

	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

// Commander is the request/response boundary to the bridge daemon.
// Implemented by bridge.Client.
type Commander interface {
	// Invoke sends a command and decodes the daemon's result into result
	// when it is non-nil. Remote failures are returned as *RemoteError
	// with the daemon's code and message unchanged.
	Invoke(ctx context.Context, command string, args any, result any) error
}

// EventFeed is the push-notification boundary delivering per-path data
// chunks. Implemented by bridge.Client.
type EventFeed interface {
	// Subscribe registers a handler for a channel and returns the
	// subscription. Multiple subscriptions per channel are allowed at
	// this level; the at-most-one invariant is the Session's.
	Subscribe(channel string, handler func(payload []byte)) (Subscription, error)
}

// Subscription is an active event-feed registration, owned by at most one
// Session at a time.
type Subscription interface {
	// Cancel releases the registration. Idempotent.
	Cancel()
}

// ReadOptions overrides the session defaults for a single read request.
// A nil *ReadOptions or a zero field means "use the session default".
type ReadOptions struct {
	Timeout time.Duration
	Size    int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for listener failures and lifecycle
// debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session is a stateful handle bound to one device path on a bridge
// daemon. The zero state is closed; see the package documentation for the
// lifecycle and concurrency contract.
type Session struct {
	mu sync.Mutex

	cfg    Config
	isOpen bool

	commander Commander
	feed      EventFeed
	sub       Subscription

	logger *slog.Logger
}

// NewSession creates a session bound to cfg.Path. No remote call is made;
// unset configuration fields are filled with defaults. Path and baud rate
// are validated at Open time, not here.
func NewSession(cfg Config, commander Commander, feed EventFeed, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg.withDefaults(),
		commander: commander,
		feed:      feed,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the device path the session is bound to.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Path
}

// BaudRate returns the configured baud rate.
func (s *Session) BaudRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.BaudRate
}

// Config returns a copy of the effective configuration.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// IsOpen reports whether the daemon has acknowledged an open for the
// session's path without an intervening close.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// Open opens the device. It validates path and baud rate locally before
// any remote call and is a no-op when the session is already open. On
// remote failure the session stays closed.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.isOpen {
		s.mu.Unlock()
		return nil
	}
	cfg := s.cfg
	s.mu.Unlock()

	if cfg.Path == "" {
		return &ValidationError{Reason: "serial port path is not set"}
	}
	if cfg.BaudRate <= 0 {
		return &ValidationError{Reason: "serial port baud rate is not set"}
	}

	args := &wire.OpenArgs{
		Path:        cfg.Path,
		BaudRate:    uint32(cfg.BaudRate),
		DataBits:    cfg.DataBits,
		FlowControl: cfg.FlowControl,
		Parity:      cfg.Parity,
		StopBits:    cfg.StopBits,
		Timeout:     uint64(cfg.Timeout / time.Millisecond),
	}
	if err := s.commander.Invoke(ctx, wire.CmdOpen, args, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.isOpen = true
	s.mu.Unlock()

	s.logger.Debug("serial port opened", "path", cfg.Path, "baudRate", cfg.BaudRate)
	return nil
}

// Close closes the device. Already-closed sessions are a no-op with zero
// remote calls. Otherwise the in-flight read is cancelled first, then the
// close command is issued, then the event subscription is released - the
// subscription outlives the close command so a final flush can still be
// delivered. On remote failure the session state is left unchanged.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.isOpen {
		s.mu.Unlock()
		return nil
	}
	path := s.cfg.Path
	s.mu.Unlock()

	if err := s.CancelRead(ctx); err != nil {
		return err
	}
	if err := s.commander.Invoke(ctx, wire.CmdClose, &wire.PathArgs{Path: path}, nil); err != nil {
		return err
	}

	s.CancelListen()

	s.mu.Lock()
	s.isOpen = false
	s.mu.Unlock()

	s.logger.Debug("serial port closed", "path", path)
	return nil
}

// Read schedules a read on the daemon. The data is not returned here; it
// arrives through the event feed (see Listen). opts may be nil to use the
// session defaults. There is no client-side timeout: the effective timeout
// is forwarded to the daemon and enforced there only.
//
// Open state is not checked locally; the daemon rejects reads on ports it
// does not hold open.
func (s *Session) Read(ctx context.Context, opts *ReadOptions) error {
	s.mu.Lock()
	args := &wire.ReadArgs{
		Path:    s.cfg.Path,
		Timeout: uint64(s.cfg.Timeout / time.Millisecond),
		Size:    uint32(s.cfg.Size),
	}
	s.mu.Unlock()

	if opts != nil {
		if opts.Timeout > 0 {
			args.Timeout = uint64(opts.Timeout / time.Millisecond)
		}
		if opts.Size > 0 {
			args.Size = uint32(opts.Size)
		}
	}

	return s.commander.Invoke(ctx, wire.CmdRead, args, nil)
}

// CancelRead stops the daemon's read loop for this path. Safe to call with
// no outstanding read.
func (s *Session) CancelRead(ctx context.Context) error {
	s.mu.Lock()
	path := s.cfg.Path
	s.mu.Unlock()

	return s.commander.Invoke(ctx, wire.CmdCancelRead, &wire.PathArgs{Path: path}, nil)
}

// Write sends text to the device and returns the number of bytes the
// daemon accepted. Returns a *NotOpenError without any remote call when
// the session is closed.
func (s *Session) Write(ctx context.Context, text string) (int, error) {
	s.mu.Lock()
	if !s.isOpen {
		path := s.cfg.Path
		s.mu.Unlock()
		return 0, &NotOpenError{Path: path}
	}
	args := &wire.WriteArgs{Path: s.cfg.Path, Value: text}
	s.mu.Unlock()

	var result wire.WriteResult
	if err := s.commander.Invoke(ctx, wire.CmdWrite, args, &result); err != nil {
		return 0, err
	}
	return int(result.Size), nil
}

// WriteBinary sends raw bytes to the device and returns the number of
// bytes the daemon accepted. Returns a *NotOpenError without any remote
// call when the session is closed.
func (s *Session) WriteBinary(ctx context.Context, data []byte) (int, error) {
	s.mu.Lock()
	if !s.isOpen {
		path := s.cfg.Path
		s.mu.Unlock()
		return 0, &NotOpenError{Path: path}
	}
	args := &wire.WriteBinaryArgs{Path: s.cfg.Path, Value: data}
	s.mu.Unlock()

	var result wire.WriteResult
	if err := s.commander.Invoke(ctx, wire.CmdWriteBinary, args, &result); err != nil {
		return 0, err
	}
	return int(result.Size), nil
}

// Listen registers handler for data decoded as text with the session's
// configured encoding. Any prior listener is released first: a session
// owns at most one feed subscription. Handler panics are logged and never
// cancel the subscription.
func (s *Session) Listen(handler func(text string)) error {
	return s.listen(true, func(data []byte, enc encoding.Encoding) {
		handler(decodeText(enc, data))
	})
}

// ListenBinary registers handler for raw received bytes. Any prior
// listener is released first.
func (s *Session) ListenBinary(handler func(data []byte)) error {
	return s.listen(false, func(data []byte, _ encoding.Encoding) {
		handler(data)
	})
}

// CancelListen releases the feed subscription if present. Idempotent.
func (s *Session) CancelListen() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// SetPath rebinds the session to a different device path. If the session
// is open it is transparently closed, mutated and reopened; failures in
// either step propagate and can leave the session closed.
func (s *Session) SetPath(ctx context.Context, path string) error {
	return s.Change(ctx, ChangeOptions{Path: path})
}

// SetBaudRate changes the baud rate, transparently closing and reopening
// an open session like SetPath.
func (s *Session) SetBaudRate(ctx context.Context, baudRate int) error {
	return s.Change(ctx, ChangeOptions{BaudRate: baudRate})
}

// ChangeOptions selects the mutable fields for Change. Zero values leave
// the corresponding field untouched.
type ChangeOptions struct {
	Path     string
	BaudRate int
}

// Change applies path and/or baud rate changes. A closed session is
// mutated directly. An open session is closed, mutated and reopened as
// explicit sequential steps with no retries: if the close or the reopen
// fails, the error propagates and the session may end up closed even
// though the caller intended it to stay open.
func (s *Session) Change(ctx context.Context, opts ChangeOptions) error {
	s.mu.Lock()
	wasOpen := s.isOpen
	s.mu.Unlock()

	if wasOpen {
		if err := s.Close(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	if opts.Path != "" {
		s.cfg.Path = opts.Path
	}
	if opts.BaudRate > 0 {
		s.cfg.BaudRate = opts.BaudRate
	}
	s.mu.Unlock()

	if wasOpen {
		return s.Open(ctx)
	}
	return nil
}

func (s *Session) listen(decode bool, deliver func(data []byte, enc encoding.Encoding)) error {
	s.mu.Lock()
	path := s.cfg.Path
	encName := s.cfg.Encoding
	s.mu.Unlock()

	var enc encoding.Encoding
	if decode {
		resolved, err := lookupEncoding(encName)
		if err != nil {
			return err
		}
		enc = resolved
	}

	// At most one subscription per session: release the old one before
	// registering the new one.
	s.CancelListen()

	channel := wire.ReadEventChannel(path)
	sub, err := s.feed.Subscribe(channel, func(payload []byte) {
		var chunk wire.ReadChunk
		if err := wire.Unmarshal(payload, &chunk); err != nil {
			s.logger.Error("failed to decode read chunk",
				"path", path,
				"channel", channel,
				"error", err)
			return
		}
		s.dispatch(path, chunk.Data, enc, deliver)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	return nil
}

// dispatch invokes the listener callback, isolating panics so one
// malformed delivery cannot kill the feed.
func (s *Session) dispatch(path string, data []byte, enc encoding.Encoding, deliver func([]byte, encoding.Encoding)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("serial data listener failed",
				"path", path,
				"panic", r)
		}
	}()
	deliver(data, enc)
}
