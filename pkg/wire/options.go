package wire

// Serial line options. The zero value of each type means "use the driver
// default", mirroring the daemon's own normalization: out-of-range values
// are not rejected but silently mapped to the default.

// DataBits is the number of data bits per character.
type DataBits uint8

const (
	DataBitsDefault DataBits = 0
	DataBits5       DataBits = 5
	DataBits6       DataBits = 6
	DataBits7       DataBits = 7
	DataBits8       DataBits = 8
)

// Normalize maps the value onto the set the daemon accepts.
// Anything outside {5,6,7,8} becomes 8.
func (d DataBits) Normalize() DataBits {
	switch d {
	case DataBits5, DataBits6, DataBits7, DataBits8:
		return d
	default:
		return DataBits8
	}
}

// StopBits is the number of stop bits per character.
type StopBits uint8

const (
	StopBitsDefault StopBits = 0
	StopBits1       StopBits = 1
	StopBits2       StopBits = 2
)

// Normalize maps the value onto the set the daemon accepts.
// Anything outside {1,2} becomes 2.
func (s StopBits) Normalize() StopBits {
	switch s {
	case StopBits1, StopBits2:
		return s
	default:
		return StopBits2
	}
}

// Parity is the parity checking mode.
type Parity uint8

const (
	ParityNone Parity = 0
	ParityOdd  Parity = 1
	ParityEven Parity = 2
)

// String returns the daemon's name for the parity mode.
func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "Odd"
	case ParityEven:
		return "Even"
	default:
		return "None"
	}
}

// ParseParity maps a parity name onto a Parity value.
// Unknown names map to ParityNone, matching the daemon.
func ParseParity(name string) Parity {
	switch name {
	case "Odd", "odd":
		return ParityOdd
	case "Even", "even":
		return ParityEven
	default:
		return ParityNone
	}
}

// FlowControl is the flow control mode.
type FlowControl uint8

const (
	FlowControlNone     FlowControl = 0
	FlowControlSoftware FlowControl = 1
	FlowControlHardware FlowControl = 2
)

// String returns the daemon's name for the flow control mode.
func (f FlowControl) String() string {
	switch f {
	case FlowControlSoftware:
		return "Software"
	case FlowControlHardware:
		return "Hardware"
	default:
		return "None"
	}
}

// ParseFlowControl maps a flow control name onto a FlowControl value.
// Unknown names map to FlowControlNone, matching the daemon.
func ParseFlowControl(name string) FlowControl {
	switch name {
	case "Software", "software":
		return FlowControlSoftware
	case "Hardware", "hardware":
		return FlowControlHardware
	default:
		return FlowControlNone
	}
}
