package serialport

import (
	"time"

	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

// Defaults applied by NewSession for unset configuration fields.
const (
	// DefaultTimeout is the daemon-side read poll timeout.
	DefaultTimeout = 200 * time.Millisecond

	// DefaultChunkSize is the byte count requested per read.
	DefaultChunkSize = 1024

	// DefaultEncoding is the character encoding for decoding received bytes.
	DefaultEncoding = "utf-8"
)

// Config configures a Session. Path and BaudRate are required to open;
// everything else has a working default. DataBits, FlowControl, Parity and
// StopBits are fixed at construction - there is no setter for them, only
// Path and BaudRate can change over the Session's lifetime.
type Config struct {
	// Path is the device identifier, e.g. "/dev/ttyUSB0" or "COM3".
	Path string

	// BaudRate is the line speed. Must be positive to open.
	BaudRate int

	// Encoding names the character encoding used when decoding received
	// bytes into text (IANA names, default "utf-8").
	Encoding string

	// DataBits is the number of data bits (5-8, default 8).
	DataBits wire.DataBits

	// FlowControl is the flow control mode (default none).
	FlowControl wire.FlowControl

	// Parity is the parity mode (default none).
	Parity wire.Parity

	// StopBits is the number of stop bits (1 or 2, default 2).
	StopBits wire.StopBits

	// Timeout is the default daemon-side read timeout (default 200ms).
	Timeout time.Duration

	// Size is the default read chunk size in bytes (default 1024).
	Size int
}

// withDefaults fills unset fields with their defaults and normalizes the
// line options onto the values the daemon accepts.
func (c Config) withDefaults() Config {
	c.DataBits = c.DataBits.Normalize()
	c.StopBits = c.StopBits.Normalize()
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Size <= 0 {
		c.Size = DefaultChunkSize
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	return c
}
