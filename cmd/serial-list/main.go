// Command serial-list lists serial ports known to a bridge daemon, or
// discovers daemons on the local network.
//
// Usage:
//
//	serial-list [flags]
//
// Flags:
//
//	-addr string       Daemon address (default "127.0.0.1:8765")
//	-discover          Discover daemons via mDNS instead of listing ports
//	-timeout duration  Overall timeout (default 10s)
//
// Examples:
//
//	# List ports on the local daemon
//	serial-list
//
//	# Find daemons on the network
//	serial-list -discover
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/serialbridge/serialbridge-go/pkg/bridge"
	"github.com/serialbridge/serialbridge-go/pkg/discovery"
	"github.com/serialbridge/serialbridge-go/pkg/serialport"
	"github.com/serialbridge/serialbridge-go/pkg/transport"
)

func main() {
	var (
		addr     = flag.String("addr", "127.0.0.1:8765", "daemon address")
		discover = flag.Bool("discover", false, "discover daemons via mDNS")
		timeout  = flag.Duration("timeout", 10*time.Second, "overall timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var err error
	if *discover {
		err = discoverDaemons(ctx)
	} else {
		err = listPorts(ctx, *addr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// listPorts connects to the daemon and prints its serial ports.
func listPorts(ctx context.Context, addr string) error {
	client, err := bridge.Dial(ctx, addr, transport.ClientConfig{})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer client.Close()

	ports, err := serialport.ListAvailablePorts(ctx, client)
	if err != nil {
		return err
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}

// discoverDaemons browses for daemons until the timeout expires and
// prints each one as it appears.
func discoverDaemons(ctx context.Context) error {
	browser, err := discovery.NewBrowser(discovery.BrowserConfig{})
	if err != nil {
		return err
	}
	defer browser.Stop()

	daemons, err := browser.Browse(ctx)
	if err != nil {
		return err
	}

	found := 0
	for d := range daemons {
		found++
		detail := ""
		if d.Platform != "" {
			detail = " " + d.Platform
		}
		if d.PortCount > 0 {
			detail += fmt.Sprintf(" %d ports", d.PortCount)
		}
		fmt.Printf("%-24s %s%s\n", d.InstanceName,
			strings.Join(d.Addresses, ","), detail)
		if d.Port != 0 {
			fmt.Printf("%24s dial: %s\n", "", d.Address())
		}
	}

	if found == 0 {
		fmt.Println("No daemons found")
	}
	return nil
}
