package client

import "time"

// TypingTimer debounces keystrokes into start/stop typing signals. It is
// deadline-based rather than built on nested timer callbacks: the owner
// calls Keystroke on input and Tick on its render/poll loop, and tests
// drive it with a fake clock.
type TypingTimer struct {
	ttl   time.Duration
	now   func() time.Time
	start func()
	stop  func()

	active   bool
	deadline time.Time
}

// NewTypingTimer fires start on the first keystroke of a burst and stop
// once ttl elapses with no refresh (or on Cancel).
func NewTypingTimer(ttl time.Duration, now func() time.Time, start, stop func()) *TypingTimer {
	if now == nil {
		now = time.Now
	}
	return &TypingTimer{ttl: ttl, now: now, start: start, stop: stop}
}

func (t *TypingTimer) Active() bool { return t.active }

// Keystroke starts or refreshes the burst.
func (t *TypingTimer) Keystroke() {
	if !t.active {
		t.active = true
		if t.start != nil {
			t.start()
		}
	}
	t.deadline = t.now().Add(t.ttl)
}

// Tick expires the burst once the deadline passes. Safe to call often.
func (t *TypingTimer) Tick() {
	if t.active && !t.now().Before(t.deadline) {
		t.active = false
		if t.stop != nil {
			t.stop()
		}
	}
}

// Cancel stops the burst immediately, e.g. when the message is sent or
// the conversation is closed.
func (t *TypingTimer) Cancel() {
	if t.active {
		t.active = false
		if t.stop != nil {
			t.stop()
		}
	}
}
