// Package interactive provides the interactive command loop for
// serial-terminal.
package interactive

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/serialbridge/serialbridge-go/pkg/bridge"
	"github.com/serialbridge/serialbridge-go/pkg/serialport"
)

// Terminal handles interactive mode for serial-terminal.
type Terminal struct {
	client  *bridge.Client
	session *serialport.Session
	rl      *readline.Instance

	listenMode string // "", "text" or "binary"
}

// New creates a new interactive terminal.
func New(client *bridge.Client, session *serialport.Session) (*Terminal, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "serial> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Terminal{
		client:  client,
		session: session,
		rl:      rl,
	}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid clobbering the input line.
func (t *Terminal) Stdout() io.Writer {
	return t.rl.Stdout()
}

// Run starts the interactive command loop.
func (t *Terminal) Run(ctx context.Context, cancel context.CancelFunc) {
	defer t.rl.Close()

	t.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := t.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(t.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			t.printHelp()

		case "ports", "p":
			t.cmdPorts(ctx)

		case "open", "o":
			t.cmdOpen(ctx)

		case "close", "c":
			t.cmdClose(ctx)

		case "send", "s", "write", "w":
			t.cmdSend(ctx, args)

		case "sendhex", "sh":
			t.cmdSendHex(ctx, args)

		case "read", "r":
			t.cmdRead(ctx, args)

		case "cancel":
			t.cmdCancel(ctx)

		case "listen", "l":
			t.cmdListen(args)

		case "baud", "b":
			t.cmdBaud(ctx, args)

		case "port":
			t.cmdPort(ctx, args)

		case "status":
			t.cmdStatus()

		case "forceclose":
			t.cmdForceClose(ctx, args)

		case "closeall":
			t.cmdCloseAll(ctx)

		case "quit", "exit", "q":
			fmt.Fprintln(t.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(t.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (t *Terminal) printHelp() {
	fmt.Fprintln(t.rl.Stdout(), `
Serial Terminal Commands:
  Port:
    ports              - List serial ports on the daemon host
    open               - Open the configured port
    close              - Close the port
    status             - Show session status
    baud <rate>        - Change baud rate (reopens if open)
    port <path>        - Switch device path (reopens if open)

  Data:
    send <text>        - Write text to the port
    sendhex <hex>      - Write raw bytes, e.g. sendhex deadbeef
    read [ms [bytes]]  - Start the daemon read loop
    cancel             - Stop the daemon read loop
    listen [text|binary|off] - Print incoming data (default text)

  Daemon:
    forceclose <path>  - Force-close a port regardless of owner
    closeall           - Close every port on the daemon

  General:
    help               - Show this help
    quit               - Exit`)
}

func (t *Terminal) cmdPorts(ctx context.Context) {
	ports, err := serialport.ListAvailablePorts(ctx, t.client)
	if err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if len(ports) == 0 {
		fmt.Fprintln(t.rl.Stdout(), "No serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Fprintf(t.rl.Stdout(), "  %s\n", p)
	}
}

func (t *Terminal) cmdOpen(ctx context.Context) {
	if err := t.session.Open(ctx); err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Open failed: %v\n", err)
		return
	}
	fmt.Fprintf(t.rl.Stdout(), "Opened %s @ %d\n", t.session.Path(), t.session.BaudRate())
}

func (t *Terminal) cmdClose(ctx context.Context) {
	if err := t.session.Close(ctx); err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Close failed: %v\n", err)
		return
	}
	t.listenMode = ""
	fmt.Fprintln(t.rl.Stdout(), "Closed")
}

func (t *Terminal) cmdSend(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(t.rl.Stdout(), "Usage: send <text>")
		return
	}
	text := strings.Join(args, " ")
	n, err := t.session.Write(ctx, text+"\r\n")
	if err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Write failed: %v\n", err)
		return
	}
	fmt.Fprintf(t.rl.Stdout(), "Sent %d bytes\n", n)
}

func (t *Terminal) cmdSendHex(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(t.rl.Stdout(), "Usage: sendhex <hex bytes>")
		fmt.Fprintln(t.rl.Stdout(), "  Example: sendhex de ad be ef")
		return
	}
	data, err := hex.DecodeString(strings.Join(args, ""))
	if err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Invalid hex: %v\n", err)
		return
	}
	n, err := t.session.WriteBinary(ctx, data)
	if err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Write failed: %v\n", err)
		return
	}
	fmt.Fprintf(t.rl.Stdout(), "Sent %d bytes\n", n)
}

func (t *Terminal) cmdRead(ctx context.Context, args []string) {
	var opts *serialport.ReadOptions
	if len(args) > 0 {
		millis, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(t.rl.Stdout(), "Invalid timeout: %v\n", err)
			return
		}
		opts = &serialport.ReadOptions{Timeout: time.Duration(millis) * time.Millisecond}
		if len(args) > 1 {
			size, err := strconv.Atoi(args[1])
			if err != nil {
				fmt.Fprintf(t.rl.Stdout(), "Invalid size: %v\n", err)
				return
			}
			opts.Size = size
		}
	}

	if t.listenMode == "" {
		fmt.Fprintln(t.rl.Stdout(), "Hint: no listener active, use 'listen' to see incoming data")
	}
	if err := t.session.Read(ctx, opts); err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Read failed: %v\n", err)
		return
	}
	fmt.Fprintln(t.rl.Stdout(), "Reading")
}

func (t *Terminal) cmdCancel(ctx context.Context) {
	if err := t.session.CancelRead(ctx); err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Cancel failed: %v\n", err)
		return
	}
	fmt.Fprintln(t.rl.Stdout(), "Read cancelled")
}

func (t *Terminal) cmdListen(args []string) {
	mode := "text"
	if len(args) > 0 {
		mode = strings.ToLower(args[0])
	}

	switch mode {
	case "off":
		t.session.CancelListen()
		t.listenMode = ""
		fmt.Fprintln(t.rl.Stdout(), "Listener off")

	case "text":
		err := t.session.Listen(func(text string) {
			fmt.Fprintf(t.rl.Stdout(), "\n[%s] %s\n", time.Now().Format("15:04:05"), text)
			t.rl.Refresh()
		})
		if err != nil {
			fmt.Fprintf(t.rl.Stdout(), "Listen failed: %v\n", err)
			return
		}
		t.listenMode = "text"
		fmt.Fprintln(t.rl.Stdout(), "Listening (text)")

	case "binary", "bin":
		err := t.session.ListenBinary(func(data []byte) {
			fmt.Fprintf(t.rl.Stdout(), "\n[%s] % x\n", time.Now().Format("15:04:05"), data)
			t.rl.Refresh()
		})
		if err != nil {
			fmt.Fprintf(t.rl.Stdout(), "Listen failed: %v\n", err)
			return
		}
		t.listenMode = "binary"
		fmt.Fprintln(t.rl.Stdout(), "Listening (binary)")

	default:
		fmt.Fprintln(t.rl.Stdout(), "Usage: listen [text|binary|off]")
	}
}

func (t *Terminal) cmdBaud(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(t.rl.Stdout(), "Usage: baud <rate>")
		return
	}
	rate, err := strconv.Atoi(args[0])
	if err != nil || rate <= 0 {
		fmt.Fprintf(t.rl.Stdout(), "Invalid baud rate: %s\n", args[0])
		return
	}
	if err := t.session.SetBaudRate(ctx, rate); err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Baud change failed: %v\n", err)
		return
	}
	fmt.Fprintf(t.rl.Stdout(), "Baud rate set to %d\n", rate)
}

func (t *Terminal) cmdPort(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(t.rl.Stdout(), "Usage: port <path>")
		return
	}
	if err := t.session.SetPath(ctx, args[0]); err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Port change failed: %v\n", err)
		return
	}
	fmt.Fprintf(t.rl.Stdout(), "Port set to %s\n", args[0])
}

func (t *Terminal) cmdStatus() {
	state := "closed"
	if t.session.IsOpen() {
		state = "open"
	}
	listener := t.listenMode
	if listener == "" {
		listener = "off"
	}
	cfg := t.session.Config()

	fmt.Fprintln(t.rl.Stdout(), "\nSession Status")
	fmt.Fprintln(t.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(t.rl.Stdout(), "  Port:      %s\n", cfg.Path)
	fmt.Fprintf(t.rl.Stdout(), "  Baud rate: %d\n", cfg.BaudRate)
	fmt.Fprintf(t.rl.Stdout(), "  Line:      %d%s%d, flow %s\n",
		cfg.DataBits, parityLetter(cfg.Parity.String()), cfg.StopBits, cfg.FlowControl)
	fmt.Fprintf(t.rl.Stdout(), "  Encoding:  %s\n", cfg.Encoding)
	fmt.Fprintf(t.rl.Stdout(), "  State:     %s\n", state)
	fmt.Fprintf(t.rl.Stdout(), "  Listener:  %s\n", listener)
	fmt.Fprintln(t.rl.Stdout())
}

// parityLetter shortens a parity name to its conventional letter, as in
// "8N1".
func parityLetter(name string) string {
	if name == "" {
		return "N"
	}
	return name[:1]
}

func (t *Terminal) cmdForceClose(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(t.rl.Stdout(), "Usage: forceclose <path>")
		return
	}
	if err := serialport.ForceClose(ctx, t.client, args[0]); err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Force close failed: %v\n", err)
		return
	}
	fmt.Fprintf(t.rl.Stdout(), "Force closed %s\n", args[0])
}

func (t *Terminal) cmdCloseAll(ctx context.Context) {
	if err := serialport.CloseAllPorts(ctx, t.client); err != nil {
		fmt.Fprintf(t.rl.Stdout(), "Close all failed: %v\n", err)
		return
	}
	fmt.Fprintln(t.rl.Stdout(), "All ports closed")
}
