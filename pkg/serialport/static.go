package serialport

import (
	"context"

	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

// Static operations, independent of any Session. All three delegate
// directly to the command channel and surface its result unchanged.

// ListAvailablePorts returns the device paths currently visible to the
// daemon's host. No ordering is guaranteed.
func ListAvailablePorts(ctx context.Context, c Commander) ([]string, error) {
	var result wire.PortList
	if err := c.Invoke(ctx, wire.CmdAvailablePorts, nil, &result); err != nil {
		return nil, err
	}
	return result.Ports, nil
}

// ForceClose instructs the daemon to release a device regardless of which
// client opened it. Used to recover from a previous ungraceful exit.
func ForceClose(ctx context.Context, c Commander, path string) error {
	return c.Invoke(ctx, wire.CmdForceClose, &wire.PathArgs{Path: path}, nil)
}

// CloseAllPorts releases every device the daemon currently holds open.
func CloseAllPorts(ctx context.Context, c Commander) error {
	return c.Invoke(ctx, wire.CmdCloseAll, nil, nil)
}
