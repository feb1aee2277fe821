// Package pubsub implements the synchronous notification channel that
// decouples the timer and session from whatever reacts to their state
// changes. Delivery is best-effort: a panicking subscriber is logged and
// skipped, never allowed to break the publishing operation or starve the
// subscribers after it.
package pubsub

import (
	"sync"

	"go.uber.org/zap"
)

// Event is an open, tagged payload. Kind identifies the event; Data carries
// a kind-specific struct that subscribers treat as read-only.
type Event struct {
	Kind string
	Data any
}

// Subscriber receives events published on a Subject. Notify is called
// synchronously on the publisher's goroutine, so implementations must not
// block appreciably.
type Subscriber interface {
	Notify(event Event)
}

// Subject fans events out to an ordered set of distinct subscribers.
type Subject struct {
	mu   sync.Mutex
	subs []Subscriber
	log  *zap.Logger
}

// NewSubject builds a subject that reports subscriber panics on log.
func NewSubject(log *zap.Logger) *Subject {
	if log == nil {
		log = zap.NewNop()
	}
	return &Subject{log: log}
}

// Subscribe adds sub in arrival order. Subscribing the same subscriber
// twice is a no-op.
func (s *Subject) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subs {
		if existing == sub {
			return
		}
	}
	s.subs = append(s.subs, sub)
}

// Unsubscribe removes sub, preserving the order of the rest. Removing a
// non-member is a no-op.
func (s *Subject) Unsubscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.subs {
		if existing == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers event to every current subscriber in subscription order,
// synchronously on the caller's goroutine.
func (s *Subject) Publish(event Event) {
	s.mu.Lock()
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		s.deliver(sub, event)
	}
}

func (s *Subject) deliver(sub Subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("subscriber panicked during notify",
				zap.String("event", event.Kind),
				zap.Any("panic", r))
		}
	}()
	sub.Notify(event)
}
