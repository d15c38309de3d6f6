package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR map keys for message encoding.
// All bridge messages use integer keys for efficiency.
const (
	// Common message keys
	KeyMessageID = 1
	KeyCommand   = 2 // Command (request), status (response) or channel (event)
	KeyArgs      = 3

	// Response-specific keys
	KeyResult       = 3
	KeyErrorMessage = 4
)

// EventMessageID is the reserved message ID indicating an event message.
const EventMessageID uint32 = 0

// Request represents a command sent from the client to the daemon.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32, never 0
//	  2: command,      // text: "open", "close", "read", ...
//	  3: args          // command-specific argument struct
//	}
type Request struct {
	MessageID uint32 `cbor:"1,keyasint"`
	Command   string `cbor:"2,keyasint"`
	Args      any    `cbor:"3,keyasint,omitempty"`
}

// Validate checks if the request is valid.
func (r *Request) Validate() error {
	if r.MessageID == EventMessageID {
		return fmt.Errorf("messageId 0 is reserved for events")
	}
	if r.Command == "" {
		return fmt.Errorf("command name is empty")
	}
	return nil
}

// DecodeArgs decodes the request arguments into v. Decoded requests carry
// raw CBOR args; locally constructed ones carry a typed struct, which is
// re-encoded so both paths behave the same.
func (r *Request) DecodeArgs(v any) error {
	switch args := r.Args.(type) {
	case nil:
		return fmt.Errorf("request has no arguments")
	case cbor.RawMessage:
		return Unmarshal(args, v)
	default:
		data, err := Marshal(args)
		if err != nil {
			return err
		}
		return Unmarshal(data, v)
	}
}

// Response represents the daemon's reply to a request.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32: matches request
//	  2: status,       // uint8: 0=success, or error code
//	  3: result,       // command-specific result (success only)
//	  4: message       // error detail text (failure only)
//	}
type Response struct {
	MessageID uint32          `cbor:"1,keyasint"`
	Status    Status          `cbor:"2,keyasint"`
	Result    cbor.RawMessage `cbor:"3,keyasint,omitempty"`
	Message   string          `cbor:"4,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Event represents an unsolicited push message from the daemon.
//
// CBOR encoding:
//
//	{
//	  1: 0,            // messageId 0 = event
//	  2: channel,      // text: e.g. "serialport-read-/dev/ttyUSB0"
//	  3: payload       // channel-specific payload
//	}
type Event struct {
	Channel string          `cbor:"2,keyasint"`
	Payload cbor.RawMessage `cbor:"3,keyasint"`
}
