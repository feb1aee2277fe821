package app

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-runner/internal/pubsub"
)

type timerState int

const (
	timerIdle timerState = iota
	timerRunning
	timerPaused
	timerExpired
)

// Timer is a countdown toward a fixed deadline. Once started, a background
// goroutine wakes once per tick interval, publishes the remaining time and,
// exactly once, a terminal expiration event. Remaining is also computable
// synchronously on demand; both paths derive from the same deadline instant
// so they cannot disagree.
type Timer struct {
	events *pubsub.Subject

	mu             sync.Mutex
	duration       time.Duration
	startedAt      time.Time
	deadline       time.Time
	state          timerState
	notifiedExpiry bool
	stop           chan struct{}
	done           chan struct{}

	now  func() time.Time
	tick time.Duration
}

// NewTimer builds a timer for the given duration. The countdown does not
// begin until Start is called.
func NewTimer(duration time.Duration, log *zap.Logger) *Timer {
	return NewTimerWithClock(duration, time.Now, time.Second, log)
}

// NewTimerWithClock is test-only for deterministic countdowns.
func NewTimerWithClock(duration time.Duration, now func() time.Time, tick time.Duration, log *zap.Logger) *Timer {
	return &Timer{
		events:   pubsub.NewSubject(log),
		duration: duration,
		now:      now,
		tick:     tick,
	}
}

// Events exposes the timer's notification channel.
func (t *Timer) Events() *pubsub.Subject { return t.events }

// Start begins the countdown. Starting a timer that is already running,
// paused, or expired is a no-op and does not move the deadline. A timer
// with a non-positive duration expires immediately.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.state != timerIdle {
		t.mu.Unlock()
		return
	}
	now := t.now()
	t.startedAt = now
	t.deadline = now.Add(t.duration)

	if t.duration <= 0 {
		t.state = timerExpired
		t.notifiedExpiry = true
		t.mu.Unlock()
		t.events.Publish(pubsub.Event{Kind: EventTimerExpired, Data: TimerExpiredPayload{}})
		return
	}

	t.state = timerRunning
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.countdown(t.stop, t.done)
	t.mu.Unlock()
}

// Stop ends the background countdown entirely and blocks until it has
// ceased, so callers can be certain no further timer events will arrive.
// The timer returns to idle: Remaining reports the full configured
// duration again, while Elapsed keeps measuring from the original start.
// Stopping an idle timer is a no-op.
func (t *Timer) Stop() {
	t.mu.Lock()
	if t.state == timerRunning || t.state == timerPaused {
		t.state = timerIdle
	}
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Pause suspends expiry checking and progress notifications while keeping
// the deadline, so Resume continues toward the same instant. Only a running
// timer can be paused.
func (t *Timer) Pause() {
	t.mu.Lock()
	if t.state == timerRunning {
		t.state = timerPaused
	}
	t.mu.Unlock()
}

// Resume un-pauses the countdown. Resuming an expired or idle timer is a
// no-op.
func (t *Timer) Resume() {
	t.mu.Lock()
	if t.state == timerPaused {
		t.state = timerRunning
	}
	t.mu.Unlock()
}

// Reset stops the countdown and returns the timer to its pre-start state
// with the same duration.
func (t *Timer) Reset() {
	t.reset(t.Duration())
}

// ResetTo is Reset with a new duration.
func (t *Timer) ResetTo(duration time.Duration) {
	t.reset(duration)
}

func (t *Timer) reset(duration time.Duration) {
	t.Stop()
	t.mu.Lock()
	t.duration = duration
	t.startedAt = time.Time{}
	t.deadline = time.Time{}
	t.state = timerIdle
	t.notifiedExpiry = false
	t.stop = nil
	t.done = nil
	t.mu.Unlock()
}

// Duration returns the configured countdown duration.
func (t *Timer) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

// Remaining computes the time left before the deadline, clamped at zero.
// Querying a running timer past its deadline marks it expired immediately,
// without waiting for the background tick. A timer that has not been
// started reports its full duration.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingLocked()
}

func (t *Timer) remainingLocked() time.Duration {
	switch t.state {
	case timerIdle:
		return t.duration
	case timerExpired:
		return 0
	}
	remaining := t.deadline.Sub(t.now())
	if remaining < 0 {
		remaining = 0
	}
	if remaining == 0 && t.state == timerRunning {
		// Eager expiry on query; the countdown goroutine still owns the
		// terminal notification and publishes it on its next wakeup.
		t.state = timerExpired
	}
	return remaining
}

// Expired reports whether the countdown has reached zero. Like Remaining,
// it observes the deadline directly rather than waiting for the tick.
func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remainingLocked()
	return t.state == timerExpired
}

// Running reports whether the countdown is active and not paused.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == timerRunning
}

// Paused reports whether the countdown is suspended.
func (t *Timer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == timerPaused
}

// Elapsed returns the time since Start, zero if never started.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startedAt.IsZero() {
		return 0
	}
	return t.now().Sub(t.startedAt)
}

// countdown is the background activity. Events are published outside the
// timer lock so a subscriber may call back into the timer without
// deadlocking.
func (t *Timer) countdown(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		t.mu.Lock()
		switch t.state {
		case timerPaused:
			t.mu.Unlock()
			continue
		case timerIdle:
			// Stopped between the tick and acquiring the lock.
			t.mu.Unlock()
			return
		case timerExpired:
			// A query expired us first; emit the terminal event if it is
			// still owed.
			owed := !t.notifiedExpiry
			t.notifiedExpiry = true
			t.mu.Unlock()
			if owed {
				t.events.Publish(pubsub.Event{Kind: EventTimerExpired, Data: TimerExpiredPayload{}})
			}
			return
		}

		remaining := t.remainingLocked()
		if remaining > 0 {
			t.mu.Unlock()
			t.events.Publish(pubsub.Event{Kind: EventTimerTick, Data: TimerTickPayload{Remaining: remaining}})
			continue
		}

		t.state = timerExpired
		t.notifiedExpiry = true
		t.mu.Unlock()
		t.events.Publish(pubsub.Event{Kind: EventTimerTick, Data: TimerTickPayload{Remaining: 0}})
		t.events.Publish(pubsub.Event{Kind: EventTimerExpired, Data: TimerExpiredPayload{}})
		return
	}
}
