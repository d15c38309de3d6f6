package wire

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the command completed successfully.
	StatusSuccess Status = 0

	// StatusUnknownCommand indicates the daemon does not know the command.
	StatusUnknownCommand Status = 1

	// StatusInvalidArgument indicates an argument value is missing or out of range.
	StatusInvalidArgument Status = 2

	// StatusPortNotFound indicates the path is not open on the daemon.
	StatusPortNotFound Status = 3

	// StatusPortAlreadyOpen indicates an open attempt on an already open path.
	StatusPortAlreadyOpen Status = 4

	// StatusIOError indicates the underlying serial device failed.
	StatusIOError Status = 5

	// StatusBusy indicates the daemon cannot serve the command right now.
	StatusBusy Status = 6

	// StatusInternal indicates an unexpected daemon-side failure.
	StatusInternal Status = 7
)

// IsSuccess returns true for StatusSuccess.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusUnknownCommand:
		return "UNKNOWN_COMMAND"
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusPortNotFound:
		return "PORT_NOT_FOUND"
	case StatusPortAlreadyOpen:
		return "PORT_ALREADY_OPEN"
	case StatusIOError:
		return "IO_ERROR"
	case StatusBusy:
		return "BUSY"
	case StatusInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}
