package serialport

import (
	"context"
	"sync"

	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

// fakeCommander records invoked commands and serves canned results,
// standing in for a bridge daemon.
type fakeCommander struct {
	mu    sync.Mutex
	calls []fakeCall
	fail  map[string]error
	ports []string
}

type fakeCall struct {
	command string
	args    any
}

func newFakeCommander() *fakeCommander {
	return &fakeCommander{fail: make(map[string]error)}
}

func (f *fakeCommander) Invoke(_ context.Context, command string, args any, result any) error {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{command: command, args: args})
	err := f.fail[command]
	ports := f.ports
	f.mu.Unlock()

	if err != nil {
		return err
	}

	switch command {
	case wire.CmdWrite:
		if r, ok := result.(*wire.WriteResult); ok {
			r.Size = uint32(len(args.(*wire.WriteArgs).Value))
		}
	case wire.CmdWriteBinary:
		if r, ok := result.(*wire.WriteResult); ok {
			r.Size = uint32(len(args.(*wire.WriteBinaryArgs).Value))
		}
	case wire.CmdAvailablePorts:
		if r, ok := result.(*wire.PortList); ok {
			r.Ports = ports
		}
	}
	return nil
}

func (f *fakeCommander) failWith(command string, err error) {
	f.mu.Lock()
	f.fail[command] = err
	f.mu.Unlock()
}

func (f *fakeCommander) commandLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	log := make([]string, len(f.calls))
	for i, c := range f.calls {
		log[i] = c.command
	}
	return log
}

func (f *fakeCommander) lastArgs(command string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].command == command {
			return f.calls[i].args
		}
	}
	return nil
}

// fakeFeed is an in-memory event feed with push control.
type fakeFeed struct {
	mu   sync.Mutex
	subs []*fakeSub
}

type fakeSub struct {
	feed      *fakeFeed
	channel   string
	handler   func([]byte)
	cancelled bool
}

func (s *fakeSub) Cancel() {
	s.feed.mu.Lock()
	s.cancelled = true
	s.feed.mu.Unlock()
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{}
}

func (f *fakeFeed) Subscribe(channel string, handler func(payload []byte)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSub{feed: f, channel: channel, handler: handler}
	f.subs = append(f.subs, sub)
	return sub, nil
}

// push delivers a read chunk to every live subscription on the channel.
func (f *fakeFeed) push(channel string, chunk wire.ReadChunk) error {
	payload, err := wire.Marshal(&chunk)
	if err != nil {
		return err
	}

	f.mu.Lock()
	var handlers []func([]byte)
	for _, sub := range f.subs {
		if sub.channel == channel && !sub.cancelled {
			handlers = append(handlers, sub.handler)
		}
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(payload)
	}
	return nil
}

// active returns the number of live subscriptions.
func (f *fakeFeed) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, sub := range f.subs {
		if !sub.cancelled {
			n++
		}
	}
	return n
}
