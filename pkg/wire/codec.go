package wire

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for bridge messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for bridge messages.
var decMode cbor.DecMode

func init() {
	var err error

	// Configure encoder for deterministic output
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Configure decoder to be lenient for forward compatibility
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// EncodeRequest encodes a request message to CBOR bytes.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(req)
}

// DecodeRequest decodes CBOR bytes into a request message.
func DecodeRequest(data []byte) (*Request, error) {
	var req struct {
		MessageID uint32          `cbor:"1,keyasint"`
		Command   string          `cbor:"2,keyasint"`
		Args      cbor.RawMessage `cbor:"3,keyasint"`
	}
	if err := Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	out := &Request{MessageID: req.MessageID, Command: req.Command}
	if len(req.Args) > 0 {
		out.Args = req.Args
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return out, nil
}

// EncodeResponse encodes a response message to CBOR bytes.
func EncodeResponse(resp *Response) ([]byte, error) {
	return Marshal(resp)
}

// DecodeResponse decodes CBOR bytes into a response message.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// EncodeEvent encodes an event message to CBOR bytes.
// Events carry messageId=0, which is added automatically.
func EncodeEvent(ev *Event) ([]byte, error) {
	wireMsg := struct {
		MessageID uint32          `cbor:"1,keyasint"`
		Channel   string          `cbor:"2,keyasint"`
		Payload   cbor.RawMessage `cbor:"3,keyasint"`
	}{
		MessageID: EventMessageID,
		Channel:   ev.Channel,
		Payload:   ev.Payload,
	}
	return Marshal(wireMsg)
}

// DecodeEvent decodes CBOR bytes into an event message.
func DecodeEvent(data []byte) (*Event, error) {
	var wireMsg struct {
		MessageID uint32          `cbor:"1,keyasint"`
		Channel   string          `cbor:"2,keyasint"`
		Payload   cbor.RawMessage `cbor:"3,keyasint"`
	}
	if err := Unmarshal(data, &wireMsg); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if wireMsg.MessageID != EventMessageID {
		return nil, fmt.Errorf("not an event message: messageId=%d", wireMsg.MessageID)
	}
	return &Event{Channel: wireMsg.Channel, Payload: wireMsg.Payload}, nil
}

// MessageType identifies the kind of an incoming frame.
type MessageType uint8

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeRequest
	MessageTypeResponse
	MessageTypeEvent
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	case MessageTypeEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// PeekMessageType examines CBOR data to determine the message type
// without fully decoding it.
//
// Detection logic:
//   - Event: messageId (key 1) = 0
//   - Request: key 2 holds a text string (the command name)
//   - Response: key 2 holds an unsigned integer (the status)
func PeekMessageType(data []byte) (MessageType, error) {
	var peek struct {
		MessageID uint32          `cbor:"1,keyasint"`
		Tag       cbor.RawMessage `cbor:"2,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return MessageTypeUnknown, fmt.Errorf("failed to peek message: %w", err)
	}

	if peek.MessageID == EventMessageID {
		return MessageTypeEvent, nil
	}

	if len(peek.Tag) == 0 {
		return MessageTypeUnknown, fmt.Errorf("message has no key 2")
	}

	// CBOR major type 3 (text string) has initial bytes 0x60..0x7b.
	if peek.Tag[0] >= 0x60 && peek.Tag[0] <= 0x7b {
		return MessageTypeRequest, nil
	}
	return MessageTypeResponse, nil
}
