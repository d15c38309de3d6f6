package wire

import (
	"testing"
)

func TestPeekMessageType(t *testing.T) {
	t.Run("Request", func(t *testing.T) {
		data, err := EncodeRequest(&Request{
			MessageID: 7,
			Command:   CmdOpen,
			Args:      &OpenArgs{Path: "/dev/ttyUSB0", BaudRate: 9600},
		})
		if err != nil {
			t.Fatalf("encode request: %v", err)
		}
		mt, err := PeekMessageType(data)
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		if mt != MessageTypeRequest {
			t.Errorf("expected REQUEST, got %s", mt)
		}
	})

	t.Run("Response", func(t *testing.T) {
		data, err := EncodeResponse(&Response{MessageID: 7, Status: StatusSuccess})
		if err != nil {
			t.Fatalf("encode response: %v", err)
		}
		mt, err := PeekMessageType(data)
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		if mt != MessageTypeResponse {
			t.Errorf("expected RESPONSE, got %s", mt)
		}
	})

	t.Run("FailureResponse", func(t *testing.T) {
		data, err := EncodeResponse(&Response{
			MessageID: 9,
			Status:    StatusPortNotFound,
			Message:   "serial port not found",
		})
		if err != nil {
			t.Fatalf("encode response: %v", err)
		}
		mt, err := PeekMessageType(data)
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		if mt != MessageTypeResponse {
			t.Errorf("expected RESPONSE, got %s", mt)
		}
	})

	t.Run("Event", func(t *testing.T) {
		payload, err := Marshal(&ReadChunk{Size: 2, Data: []byte{0x68, 0x69}})
		if err != nil {
			t.Fatalf("marshal chunk: %v", err)
		}
		data, err := EncodeEvent(&Event{
			Channel: ReadEventChannel("/dev/ttyUSB0"),
			Payload: payload,
		})
		if err != nil {
			t.Fatalf("encode event: %v", err)
		}
		mt, err := PeekMessageType(data)
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		if mt != MessageTypeEvent {
			t.Errorf("expected EVENT, got %s", mt)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := PeekMessageType([]byte{0xff, 0x00, 0x13}); err == nil {
			t.Error("expected error for garbage input")
		}
	})
}

func TestRequestValidation(t *testing.T) {
	if _, err := EncodeRequest(&Request{MessageID: 0, Command: CmdRead}); err == nil {
		t.Error("expected error for messageId 0")
	}
	if _, err := EncodeRequest(&Request{MessageID: 1}); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestRequestRoundTrip(t *testing.T) {
	data, err := EncodeRequest(&Request{
		MessageID: 42,
		Command:   CmdWriteBinary,
		Args:      &WriteBinaryArgs{Path: "COM3", Value: []byte{1, 2, 3}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	req, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.MessageID != 42 {
		t.Errorf("expected messageId 42, got %d", req.MessageID)
	}
	if req.Command != CmdWriteBinary {
		t.Errorf("expected command %q, got %q", CmdWriteBinary, req.Command)
	}

	var args WriteBinaryArgs
	if err := req.DecodeArgs(&args); err != nil {
		t.Fatalf("decode args: %v", err)
	}
	if args.Path != "COM3" {
		t.Errorf("expected path COM3, got %q", args.Path)
	}
	if len(args.Value) != 3 {
		t.Errorf("expected 3 payload bytes, got %d", len(args.Value))
	}
}

func TestEventRoundTrip(t *testing.T) {
	payload, err := Marshal(&ReadChunk{Size: 5, Data: []byte("hello")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	data, err := EncodeEvent(&Event{Channel: ReadEventChannel("COM3"), Payload: payload})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Channel != "serialport-read-COM3" {
		t.Errorf("unexpected channel %q", ev.Channel)
	}

	var chunk ReadChunk
	if err := Unmarshal(ev.Payload, &chunk); err != nil {
		t.Fatalf("unmarshal chunk: %v", err)
	}
	if string(chunk.Data) != "hello" || chunk.Size != 5 {
		t.Errorf("unexpected chunk %q size %d", chunk.Data, chunk.Size)
	}
}

func TestDecodeEventRejectsNonEvent(t *testing.T) {
	data, err := EncodeResponse(&Response{MessageID: 3, Status: StatusSuccess})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeEvent(data); err == nil {
		t.Error("expected error decoding a response as event")
	}
}
