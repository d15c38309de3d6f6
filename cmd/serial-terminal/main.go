// Command serial-terminal is an interactive terminal for serial ports
// owned by a bridge daemon.
//
// Usage:
//
//	serial-terminal [flags]
//
// Flags:
//
//	-addr string       Daemon address (default "127.0.0.1:8765")
//	-daemon string     Discover the daemon by name via mDNS instead of -addr
//	-profiles string   YAML profiles file (default "profiles.yaml")
//	-profile string    Profile name to load from the profiles file
//	-path string       Serial device path, e.g. /dev/ttyUSB0
//	-baud int          Baud rate
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Connect to a local daemon and open a port directly
//	serial-terminal -path /dev/ttyUSB0 -baud 115200
//
//	# Use a saved profile
//	serial-terminal -profile arduino
//
//	# Find the daemon via mDNS
//	serial-terminal -daemon workbench -path /dev/ttyACM0 -baud 9600
//
// A profiles file looks like:
//
//	profiles:
//	  arduino:
//	    path: /dev/ttyACM0
//	    baudRate: 115200
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/serialbridge/serialbridge-go/cmd/serial-terminal/interactive"
	"github.com/serialbridge/serialbridge-go/pkg/bridge"
	"github.com/serialbridge/serialbridge-go/pkg/discovery"
	"github.com/serialbridge/serialbridge-go/pkg/serialport"
	"github.com/serialbridge/serialbridge-go/pkg/transport"
)

func main() {
	var (
		addr         = flag.String("addr", "127.0.0.1:8765", "daemon address")
		daemonName   = flag.String("daemon", "", "discover the daemon by name via mDNS")
		profilesPath = flag.String("profiles", "profiles.yaml", "YAML profiles file")
		profileName  = flag.String("profile", "", "profile name to load")
		path         = flag.String("path", "", "serial device path")
		baud         = flag.Int("baud", 0, "baud rate")
		logLevel     = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	cfg, err := buildConfig(*profilesPath, *profileName, *path, *baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	address := *addr
	if *daemonName != "" {
		address, err = discoverDaemon(ctx, *daemonName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger.Info("discovered daemon", "name", *daemonName, "address", address)
	}

	client, err := bridge.Dial(ctx, address, transport.ClientConfig{Logger: logger},
		bridge.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect to %s: %v\n", address, err)
		os.Exit(1)
	}
	defer client.Close()

	session := serialport.NewSession(cfg, client, client, serialport.WithLogger(logger))

	term, err := interactive.New(client, session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Shut down cleanly on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	term.Run(ctx, cancel)

	// The interactive loop has ended; release the port if we still hold it.
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer closeCancel()
	if err := session.Close(closeCtx); err != nil {
		logger.Warn("failed to close port on exit", "error", err)
	}
}

// buildConfig assembles the session configuration from the profile file
// and flags. Flags override profile values.
func buildConfig(profilesPath, profileName, path string, baud int) (serialport.Config, error) {
	var cfg serialport.Config

	if profileName != "" {
		profiles, err := LoadProfiles(profilesPath)
		if err != nil {
			return cfg, err
		}
		profile, ok := profiles[profileName]
		if !ok {
			return cfg, fmt.Errorf("profile %q not found in %s", profileName, profilesPath)
		}
		cfg = profile.SessionConfig()
	}

	if path != "" {
		cfg.Path = path
	}
	if baud > 0 {
		cfg.BaudRate = baud
	}

	if cfg.Path == "" {
		return cfg, fmt.Errorf("no port selected: pass -path or -profile")
	}
	if cfg.BaudRate <= 0 {
		return cfg, fmt.Errorf("no baud rate selected: pass -baud or -profile")
	}
	return cfg, nil
}

// discoverDaemon resolves a daemon name to a dialable address via mDNS.
func discoverDaemon(ctx context.Context, name string) (string, error) {
	browser, err := discovery.NewBrowser(discovery.BrowserConfig{})
	if err != nil {
		return "", err
	}
	defer browser.Stop()

	browseCtx, browseCancel := context.WithTimeout(ctx, discovery.BrowseTimeout)
	defer browseCancel()

	svc, err := browser.FindByName(browseCtx, name)
	if err != nil {
		return "", fmt.Errorf("daemon %q not found: %w", name, err)
	}
	addr := svc.Address()
	if addr == "" {
		return "", fmt.Errorf("daemon %q advertised no address", name)
	}
	return addr, nil
}

// newLogger builds a text logger at the requested level.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
