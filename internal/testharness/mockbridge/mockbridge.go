// Package mockbridge provides an in-process serial bridge daemon for
// tests. It speaks the real framed CBOR protocol over TCP and mirrors the
// production daemon's port-state semantics: opening an open port fails,
// closing an unopened port fails, force_close never does.
package mockbridge

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/serialbridge/serialbridge-go/pkg/transport"
	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

// Server is a mock bridge daemon.
type Server struct {
	ln     net.Listener
	logger *slog.Logger

	mu        sync.Mutex
	available []string
	ports     map[string]*portState
	conns     map[string]*transport.Conn
	commands  []string
	failNext  map[string]*scriptedFailure
	closed    bool

	wg sync.WaitGroup
}

// portState tracks one open port.
type portState struct {
	baudRate uint32
	reading  bool

	// last read parameters, for test assertions
	readTimeout uint64
	readSize    uint32
}

type scriptedFailure struct {
	status  wire.Status
	message string
}

// Start launches a mock daemon on a loopback port.
func Start() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{
		ln:       ln,
		logger:   slog.Default(),
		ports:    make(map[string]*portState),
		conns:    make(map[string]*transport.Conn),
		failNext: make(map[string]*scriptedFailure),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

// Addr returns the daemon's dialable address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close stops the daemon and drops all connections.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]*transport.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	err := s.ln.Close()
	for _, c := range conns {
		c.Close()
	}
	s.wg.Wait()
	return err
}

// SetAvailablePorts configures the result of available_ports.
func (s *Server) SetAvailablePorts(paths ...string) {
	s.mu.Lock()
	s.available = paths
	s.mu.Unlock()
}

// FailNext scripts a failure for the next invocation of command.
func (s *Server) FailNext(command string, status wire.Status, message string) {
	s.mu.Lock()
	s.failNext[command] = &scriptedFailure{status: status, message: message}
	s.mu.Unlock()
}

// Commands returns the commands handled so far, in arrival order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.commands))
	copy(out, s.commands)
	return out
}

// IsOpen reports whether the daemon holds path open.
func (s *Server) IsOpen(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ports[path]
	return ok
}

// IsReading reports whether a read loop is active on path.
func (s *Server) IsReading(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ports[path]
	return ok && p.reading
}

// LastRead returns the timeout and size of the most recent read on path.
func (s *Server) LastRead(path string) (timeoutMillis uint64, size uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.ports[path]; ok {
		return p.readTimeout, p.readSize
	}
	return 0, 0
}

// PushChunk emits a read event for path to every connected client.
func (s *Server) PushChunk(path string, data []byte) error {
	payload, err := wire.Marshal(&wire.ReadChunk{
		Size: uint32(len(data)),
		Data: data,
	})
	if err != nil {
		return err
	}
	frame, err := wire.EncodeEvent(&wire.Event{
		Channel: wire.ReadEventChannel(path),
		Payload: payload,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	conns := make([]*transport.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.Send(frame); err != nil {
			s.logger.Debug("push failed", "connID", c.ID(), "error", err)
		}
	}
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}
		conn := transport.NewConn(nc, "", 0)

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn.ID()] = conn
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn *transport.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn.ID())
		s.mu.Unlock()
	}()

	for {
		data, err := conn.Receive(0)
		if err != nil {
			if !errors.Is(err, transport.ErrConnectionClosed) {
				s.logger.Debug("connection ended", "connID", conn.ID(), "error", err)
			}
			return
		}

		req, err := wire.DecodeRequest(data)
		if err != nil {
			s.logger.Debug("dropping malformed request", "connID", conn.ID(), "error", err)
			continue
		}

		resp := s.handle(req)
		frame, err := wire.EncodeResponse(resp)
		if err != nil {
			s.logger.Debug("encode response failed", "error", err)
			continue
		}
		if err := conn.Send(frame); err != nil {
			return
		}
	}
}

func (s *Server) handle(req *wire.Request) *wire.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, req.Command)

	if f := s.failNext[req.Command]; f != nil {
		delete(s.failNext, req.Command)
		return failure(req, f.status, f.message)
	}

	switch req.Command {
	case wire.CmdAvailablePorts:
		return success(req, &wire.PortList{Ports: s.available})

	case wire.CmdOpen:
		var args wire.OpenArgs
		if err := req.DecodeArgs(&args); err != nil {
			return failure(req, wire.StatusInvalidArgument, err.Error())
		}
		if _, open := s.ports[args.Path]; open {
			return failure(req, wire.StatusPortAlreadyOpen,
				fmt.Sprintf("serial port %s is already open", args.Path))
		}
		s.ports[args.Path] = &portState{baudRate: args.BaudRate}
		return success(req, nil)

	case wire.CmdClose:
		var args wire.PathArgs
		if err := req.DecodeArgs(&args); err != nil {
			return failure(req, wire.StatusInvalidArgument, err.Error())
		}
		if _, open := s.ports[args.Path]; !open {
			return failure(req, wire.StatusPortNotFound,
				fmt.Sprintf("serial port %s is not open", args.Path))
		}
		delete(s.ports, args.Path)
		return success(req, nil)

	case wire.CmdForceClose:
		var args wire.PathArgs
		if err := req.DecodeArgs(&args); err != nil {
			return failure(req, wire.StatusInvalidArgument, err.Error())
		}
		delete(s.ports, args.Path)
		return success(req, nil)

	case wire.CmdCloseAll:
		s.ports = make(map[string]*portState)
		return success(req, nil)

	case wire.CmdRead:
		var args wire.ReadArgs
		if err := req.DecodeArgs(&args); err != nil {
			return failure(req, wire.StatusInvalidArgument, err.Error())
		}
		p, open := s.ports[args.Path]
		if !open {
			return failure(req, wire.StatusPortNotFound,
				fmt.Sprintf("serial port %s is not open", args.Path))
		}
		// A second read on an already-reading port is acknowledged, not
		// restarted, matching the daemon.
		p.reading = true
		p.readTimeout = args.Timeout
		p.readSize = args.Size
		return success(req, nil)

	case wire.CmdCancelRead:
		var args wire.PathArgs
		if err := req.DecodeArgs(&args); err != nil {
			return failure(req, wire.StatusInvalidArgument, err.Error())
		}
		p, open := s.ports[args.Path]
		if !open {
			return failure(req, wire.StatusPortNotFound,
				fmt.Sprintf("serial port %s is not open", args.Path))
		}
		p.reading = false
		return success(req, nil)

	case wire.CmdWrite:
		var args wire.WriteArgs
		if err := req.DecodeArgs(&args); err != nil {
			return failure(req, wire.StatusInvalidArgument, err.Error())
		}
		if _, open := s.ports[args.Path]; !open {
			return failure(req, wire.StatusPortNotFound,
				fmt.Sprintf("serial port %s is not open", args.Path))
		}
		return success(req, &wire.WriteResult{Size: uint32(len(args.Value))})

	case wire.CmdWriteBinary:
		var args wire.WriteBinaryArgs
		if err := req.DecodeArgs(&args); err != nil {
			return failure(req, wire.StatusInvalidArgument, err.Error())
		}
		if _, open := s.ports[args.Path]; !open {
			return failure(req, wire.StatusPortNotFound,
				fmt.Sprintf("serial port %s is not open", args.Path))
		}
		return success(req, &wire.WriteResult{Size: uint32(len(args.Value))})

	default:
		return failure(req, wire.StatusUnknownCommand,
			fmt.Sprintf("unknown command %q", req.Command))
	}
}

func success(req *wire.Request, result any) *wire.Response {
	resp := &wire.Response{MessageID: req.MessageID, Status: wire.StatusSuccess}
	if result != nil {
		data, err := wire.Marshal(result)
		if err != nil {
			return failure(req, wire.StatusInternal, err.Error())
		}
		resp.Result = data
	}
	return resp
}

func failure(req *wire.Request, status wire.Status, message string) *wire.Response {
	return &wire.Response{MessageID: req.MessageID, Status: status, Message: message}
}
