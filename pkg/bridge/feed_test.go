package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

func TestSubscriptionReceivesEvents(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn)
	defer client.Close()

	received := make(chan wire.ReadChunk, 4)
	channel := wire.ReadEventChannel("/dev/ttyUSB0")

	sub, err := client.Subscribe(channel, func(payload []byte) {
		var chunk wire.ReadChunk
		if err := wire.Unmarshal(payload, &chunk); err != nil {
			t.Errorf("unmarshal chunk: %v", err)
			return
		}
		received <- chunk
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	conn.pushEvent(t, channel, wire.ReadChunk{Size: 5, Data: []byte("hello")})

	select {
	case chunk := <-received:
		if string(chunk.Data) != "hello" || chunk.Size != 5 {
			t.Errorf("unexpected chunk %q size %d", chunk.Data, chunk.Size)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	// Events on other channels do not reach this handler
	conn.pushEvent(t, wire.ReadEventChannel("/dev/ttyACM0"), wire.ReadChunk{Size: 1, Data: []byte("x")})
	conn.pushEvent(t, channel, wire.ReadChunk{Size: 2, Data: []byte("ok")})

	select {
	case chunk := <-received:
		if string(chunk.Data) != "ok" {
			t.Errorf("received event for foreign channel: %q", chunk.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("second event not delivered")
	}

	sub.Cancel()
}

func TestCancelStopsDelivery(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn)
	defer client.Close()

	channel := wire.ReadEventChannel("COM3")
	delivered := make(chan struct{}, 4)

	sub, err := client.Subscribe(channel, func([]byte) { delivered <- struct{}{} })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	conn.pushEvent(t, channel, wire.ReadChunk{Size: 1, Data: []byte("a")})
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("event not delivered before cancel")
	}

	sub.Cancel()
	sub.Cancel() // idempotent

	conn.pushEvent(t, channel, wire.ReadChunk{Size: 1, Data: []byte("b")})
	// Push a sentinel on a second subscription to know dispatch caught up
	sentinel := make(chan struct{}, 1)
	if _, err := client.Subscribe(channel, func([]byte) { sentinel <- struct{}{} }); err != nil {
		t.Fatalf("subscribe sentinel: %v", err)
	}
	conn.pushEvent(t, channel, wire.ReadChunk{Size: 1, Data: []byte("c")})

	<-sentinel
	select {
	case <-delivered:
		t.Error("cancelled subscription still received events")
	default:
	}
}

func TestHandlerPanicIsIsolated(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn)
	defer client.Close()

	channel := wire.ReadEventChannel("COM3")
	calls := make(chan struct{}, 4)

	_, err := client.Subscribe(channel, func([]byte) {
		calls <- struct{}{}
		panic("handler bug")
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	conn.pushEvent(t, channel, wire.ReadChunk{Size: 1, Data: []byte("a")})
	conn.pushEvent(t, channel, wire.ReadChunk{Size: 1, Data: []byte("b")})

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatalf("delivery %d suppressed after panic", i+1)
		}
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn)
	client.Close()

	_, err := client.Subscribe(wire.ReadEventChannel("COM3"), func([]byte) {})
	if !errors.Is(err, ErrClientClosed) {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
}

func TestCloseCancelsSubscriptions(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn)

	if _, err := client.Subscribe(wire.ReadEventChannel("COM3"), func([]byte) {}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	client.Close()

	client.feed.mu.RLock()
	n := len(client.feed.subs)
	client.feed.mu.RUnlock()
	if n != 0 {
		t.Errorf("expected no subscriptions after close, got %d", n)
	}
}
