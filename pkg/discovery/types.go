package discovery

import (
	"errors"
	"time"
)

// Service constants for mDNS.
const (
	// ServiceType is the DNS-SD service type for bridge daemons.
	ServiceType = "_serialbridge._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default daemon listen port.
	DefaultPort = 8765
)

// TXT record keys.
const (
	TXTKeyVersion   = "ver"   // Protocol version
	TXTKeyName      = "name"  // User-visible daemon name
	TXTKeyPlatform  = "plat"  // Host platform, e.g. "linux", "darwin" (optional)
	TXTKeyPortCount = "ports" // Number of attached serial ports (optional)
)

// ProtocolVersion is the version advertised and accepted by this package.
const ProtocolVersion = 1

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second
)

// MaxInstanceNameLen is the DNS label limit.
const MaxInstanceNameLen = 63

// Discovery errors.
var (
	ErrInvalidVersion      = errors.New("unsupported protocol version")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("daemon not found")
)

// DaemonInfo describes a daemon for advertisement.
type DaemonInfo struct {
	// Name is the user-visible daemon name, also used as the mDNS
	// instance name.
	Name string

	// Port is the daemon's TCP listen port. Zero means DefaultPort.
	Port uint16

	// Platform is the host platform (optional).
	Platform string

	// PortCount is the number of serial ports attached to the host
	// (optional, zero is omitted).
	PortCount int
}

// DaemonService is a daemon found on the network.
type DaemonService struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// Host is the advertised hostname.
	Host string

	// Port is the daemon's TCP listen port.
	Port uint16

	// Addresses are the daemon's IP addresses as strings, IPv4 first.
	Addresses []string

	// Name is the user-visible daemon name from the TXT record.
	Name string

	// Platform is the host platform, empty when not advertised.
	Platform string

	// PortCount is the advertised number of attached serial ports.
	PortCount int
}

// Address returns a dialable "host:port" for the daemon, preferring the
// first resolved IP address. It returns "" when no address is known.
func (s *DaemonService) Address() string {
	if len(s.Addresses) == 0 {
		return ""
	}
	return joinHostPort(s.Addresses[0], s.Port)
}

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to a named network interface.
	// Empty means all interfaces.
	Interface string

	// TTL overrides the mDNS record TTL.
	TTL time.Duration
}

// BrowserConfig configures a Browser.
type BrowserConfig struct {
	// Interface restricts browsing to a named network interface.
	// Empty means all interfaces.
	Interface string
}
