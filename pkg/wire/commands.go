package wire

// Command names understood by the bridge daemon.
const (
	CmdAvailablePorts = "available_ports"
	CmdForceClose     = "force_close"
	CmdCloseAll       = "close_all"
	CmdOpen           = "open"
	CmdClose          = "close"
	CmdRead           = "read"
	CmdCancelRead     = "cancel_read"
	CmdWrite          = "write"
	CmdWriteBinary    = "write_binary"
)

// ReadEventChannelPrefix is the fixed prefix for per-path read channels.
// The daemon and client derive the channel name independently from the
// port path, so no negotiation round-trip is needed.
const ReadEventChannelPrefix = "serialport-read-"

// ReadEventChannel returns the event channel name for a port path.
func ReadEventChannel(path string) string {
	return ReadEventChannelPrefix + path
}

// OpenArgs carries the full port configuration for the open command.
type OpenArgs struct {
	Path        string      `cbor:"1,keyasint"`
	BaudRate    uint32      `cbor:"2,keyasint"`
	DataBits    DataBits    `cbor:"3,keyasint,omitempty"`
	FlowControl FlowControl `cbor:"4,keyasint,omitempty"`
	Parity      Parity      `cbor:"5,keyasint,omitempty"`
	StopBits    StopBits    `cbor:"6,keyasint,omitempty"`

	// Timeout is the daemon-side read poll timeout in milliseconds.
	Timeout uint64 `cbor:"7,keyasint,omitempty"`
}

// PathArgs carries the path for commands that only target a port.
type PathArgs struct {
	Path string `cbor:"1,keyasint"`
}

// ReadArgs schedules a read on an open port. The daemon acknowledges the
// request and delivers data separately as ReadChunk events.
type ReadArgs struct {
	Path string `cbor:"1,keyasint"`

	// Timeout is the per-read poll timeout in milliseconds.
	Timeout uint64 `cbor:"2,keyasint,omitempty"`

	// Size is the number of bytes requested per chunk.
	Size uint32 `cbor:"3,keyasint,omitempty"`
}

// WriteArgs carries a text payload for the write command.
type WriteArgs struct {
	Path  string `cbor:"1,keyasint"`
	Value string `cbor:"2,keyasint"`
}

// WriteBinaryArgs carries a binary payload for the write_binary command.
type WriteBinaryArgs struct {
	Path  string `cbor:"1,keyasint"`
	Value []byte `cbor:"2,keyasint"`
}

// PortList is the result of the available_ports command.
// No ordering is guaranteed.
type PortList struct {
	Ports []string `cbor:"1,keyasint"`
}

// WriteResult reports how many bytes the daemon accepted.
type WriteResult struct {
	Size uint32 `cbor:"1,keyasint"`
}

// ReadChunk is the payload of a read event: a slice of bytes received
// from the port plus its length.
type ReadChunk struct {
	Size uint32 `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint"`
}
