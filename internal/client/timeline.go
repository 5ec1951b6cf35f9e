package client

import (
	"time"

	"github.com/cwrk-planet/messaging-service/internal/domain"
)

// Entry is one rendered line of an open conversation. The two variants
// make the reconciliation match compiler-enforced: a provisional entry can
// only be replaced through its temp id, never by comparing content.
type Entry interface{ isEntry() }

// Provisional is an optimistic send awaiting server acknowledgment. It is
// always the caller's own message, so no sender field is needed.
type Provisional struct {
	TempID      string
	Content     string
	MediaURL    string
	MediaKind   string
	SubmittedAt time.Time
}

func (Provisional) isEntry() {}

// Persisted wraps a server-acknowledged message.
type Persisted struct {
	Message domain.Message
}

func (Persisted) isEntry() {}

// Timeline is the in-memory ordered message list of one open
// conversation. Not safe for concurrent use; Controller serializes.
type Timeline struct {
	entries []Entry
	// ids of persisted messages already present, to dedupe pagination
	// responses that overlap loaded state
	seen map[string]struct{}
}

func NewTimeline() *Timeline {
	return &Timeline{seen: make(map[string]struct{})}
}

func (t *Timeline) Len() int { return len(t.entries) }

func (t *Timeline) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Reset replaces the timeline with an initial ascending page.
func (t *Timeline) Reset(msgs []domain.Message) {
	t.entries = t.entries[:0]
	t.seen = make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		t.entries = append(t.entries, Persisted{Message: m})
		t.seen[m.ID] = struct{}{}
	}
}

func (t *Timeline) AppendProvisional(p Provisional) {
	t.entries = append(t.entries, p)
}

// Resolve swaps the provisional entry for the durable message, matched by
// temp id. If the message already arrived through another path the
// provisional is dropped instead, so the timeline never holds it twice.
func (t *Timeline) Resolve(tempID string, msg domain.Message) bool {
	i := t.indexOfProvisional(tempID)
	if i < 0 {
		return false
	}
	if _, dup := t.seen[msg.ID]; dup {
		t.entries = append(t.entries[:i], t.entries[i+1:]...)
		return true
	}
	t.entries[i] = Persisted{Message: msg}
	t.seen[msg.ID] = struct{}{}
	return true
}

// Remove drops a provisional entry, e.g. after a failed send. No ghost
// stays in the rendered log.
func (t *Timeline) Remove(tempID string) bool {
	i := t.indexOfProvisional(tempID)
	if i < 0 {
		return false
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	return true
}

// Prepend inserts an older ascending page before the loaded state,
// skipping messages already present. Returns how many were inserted.
func (t *Timeline) Prepend(msgs []domain.Message) int {
	fresh := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		if _, dup := t.seen[m.ID]; dup {
			continue
		}
		fresh = append(fresh, Persisted{Message: m})
		t.seen[m.ID] = struct{}{}
	}
	if len(fresh) == 0 {
		return 0
	}
	t.entries = append(fresh, t.entries...)
	return len(fresh)
}

// OldestPersisted returns the oldest server-acknowledged message, the
// anchor for backward pagination. Nil when nothing durable is loaded.
func (t *Timeline) OldestPersisted() *domain.Message {
	for _, e := range t.entries {
		if p, ok := e.(Persisted); ok {
			m := p.Message
			return &m
		}
	}
	return nil
}

func (t *Timeline) indexOfProvisional(tempID string) int {
	for i, e := range t.entries {
		if p, ok := e.(Provisional); ok && p.TempID == tempID {
			return i
		}
	}
	return -1
}
