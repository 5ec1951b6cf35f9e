package presence

import (
	"context"
	"time"
)

const (
	DefaultOnlineWindow = 5 * time.Minute
	DefaultTypingTTL    = 3 * time.Second
)

// TypingStore keeps the ephemeral typing flags. Entries self-expire, so a
// client that dies mid-type heals without a stop signal.
type TypingStore interface {
	Set(ctx context.Context, conversationID string, userID int64, ttl time.Duration) error
	Delete(ctx context.Context, conversationID string, userID int64) error
	Peers(ctx context.Context, conversationID string) ([]int64, error)
}

type LastActiveToucher interface {
	TouchLastActive(ctx context.Context, userID int64, at time.Time) error
}

// Tracker implements heartbeat presence and typing signals. "Online" is a
// heuristic over the last heartbeat, not a connection state: there is no
// socket and no explicit offline event.
type Tracker struct {
	users  LastActiveToucher
	typing TypingStore

	onlineWindow time.Duration
	typingTTL    time.Duration
	now          func() time.Time
}

func NewTracker(users LastActiveToucher, typing TypingStore) *Tracker {
	return &Tracker{
		users:        users,
		typing:       typing,
		onlineWindow: DefaultOnlineWindow,
		typingTTL:    DefaultTypingTTL,
		now:          time.Now,
	}
}

func (t *Tracker) SetOnlineWindow(d time.Duration) {
	if d > 0 {
		t.onlineWindow = d
	}
}

func (t *Tracker) SetTypingTTL(d time.Duration) {
	if d > 0 {
		t.typingTTL = d
	}
}

// SetNow — инъекция времени для детерминированных тестов.
func (t *Tracker) SetNow(now func() time.Time) {
	if now != nil {
		t.now = now
	}
}

func (t *Tracker) Heartbeat(ctx context.Context, userID int64) error {
	return t.users.TouchLastActive(ctx, userID, t.now())
}

func (t *Tracker) IsOnline(lastActiveAt *time.Time) bool {
	if lastActiveAt == nil {
		return false
	}
	return t.now().Sub(*lastActiveAt) < t.onlineWindow
}

// SetTyping refreshes the TTL when isTyping is true and removes the flag
// immediately when false.
func (t *Tracker) SetTyping(ctx context.Context, conversationID string, userID int64, isTyping bool) error {
	if isTyping {
		return t.typing.Set(ctx, conversationID, userID, t.typingTTL)
	}
	return t.typing.Delete(ctx, conversationID, userID)
}

// TypingPeers lists users with a non-expired typing flag in the
// conversation, excluding the caller.
func (t *Tracker) TypingPeers(ctx context.Context, conversationID string, callerID int64) ([]int64, error) {
	all, err := t.typing.Peers(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(all))
	for _, id := range all {
		if id != callerID {
			out = append(out, id)
		}
	}
	return out, nil
}
