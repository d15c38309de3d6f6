package bridge

import (
	"log/slog"
	"sync"

	"github.com/serialbridge/serialbridge-go/pkg/serialport"
	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

// Subscribe registers a handler for an event channel. The returned
// subscription stays active until cancelled or the client closes; handler
// panics are recovered and logged, never cancelling the subscription.
func (c *Client) Subscribe(channel string, handler func(payload []byte)) (serialport.Subscription, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, ErrClientClosed
	}

	return c.feed.subscribe(channel, handler), nil
}

// feed fans inbound events out to channel subscribers.
type feed struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]*Subscription
}

func newFeed() *feed {
	return &feed{subs: make(map[string]map[uint64]*Subscription)}
}

// Subscription is an active event-feed registration.
type Subscription struct {
	feed    *feed
	channel string
	id      uint64
	handler func(payload []byte)

	cancelOnce sync.Once
}

// Channel returns the channel name the subscription is registered on.
func (s *Subscription) Channel() string {
	return s.channel
}

// Cancel releases the registration. Idempotent.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		s.feed.remove(s)
	})
}

func (f *feed) subscribe(channel string, handler func(payload []byte)) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	sub := &Subscription{
		feed:    f,
		channel: channel,
		id:      f.nextID,
		handler: handler,
	}

	byID := f.subs[channel]
	if byID == nil {
		byID = make(map[uint64]*Subscription)
		f.subs[channel] = byID
	}
	byID[sub.id] = sub

	return sub
}

func (f *feed) remove(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byID := f.subs[sub.channel]
	delete(byID, sub.id)
	if len(byID) == 0 {
		delete(f.subs, sub.channel)
	}
}

// cancelAll drops every subscription. Used on client close.
func (f *feed) cancelAll() {
	f.mu.Lock()
	f.subs = make(map[string]map[uint64]*Subscription)
	f.mu.Unlock()
}

// dispatch delivers an event to all subscribers of its channel.
// Events with no subscriber are dropped silently; the daemon pushes until
// told otherwise.
func (f *feed) dispatch(ev *wire.Event, logger *slog.Logger) {
	f.mu.RLock()
	byID := f.subs[ev.Channel]
	handlers := make([]func([]byte), 0, len(byID))
	for _, sub := range byID {
		handlers = append(handlers, sub.handler)
	}
	f.mu.RUnlock()

	for _, handler := range handlers {
		deliver(handler, ev, logger)
	}
}

// deliver invokes one handler with panic isolation.
func deliver(handler func([]byte), ev *wire.Event, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler failed",
				"channel", ev.Channel,
				"panic", r)
		}
	}()
	handler(ev.Payload)
}
