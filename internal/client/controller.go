package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cwrk-planet/messaging-service/internal/domain"

	"github.com/google/uuid"
)

type SendState int

const (
	StateIdle SendState = iota
	StateSending
	StateReconciled
	StateFailed
)

// SendRequest mirrors the sendMessage operation. ClientID carries the temp
// id so a retried send is idempotent on the server.
type SendRequest struct {
	RecipientID int64
	ClientID    string
	Content     string
	MediaURL    string
	MediaKind   string
}

type MessageSender interface {
	Send(ctx context.Context, in SendRequest) (domain.Message, error)
}

type HistoryLoader interface {
	History(ctx context.Context, conversationID, cursor string) ([]domain.Message, string, error)
}

// SummaryRefresher re-fetches the sidebar so ordering and unread counts
// reflect a just-sent message.
type SummaryRefresher interface {
	RefreshSummaries(ctx context.Context) error
}

// Viewport is the scroll surface of the rendered log. Measured before and
// after a prepend so the visible anchor does not jump.
type Viewport interface {
	ContentHeight() int
	ScrollBy(delta int)
}

// Controller reconciles optimistic local state with server responses for
// one open conversation. Optimistic append, server ack and a backward
// pagination response may interleave in any order; matching provisional
// entries by temp id (not by position or content) keeps the three commuting.
type Controller struct {
	mu sync.Mutex

	conversationID string
	recipientID    int64

	timeline  *Timeline
	sender    MessageSender
	history   HistoryLoader
	summaries SummaryRefresher
	viewport  Viewport

	// older-history cursor from the last page response; empty means
	// exhausted (or nothing loaded yet)
	nextCursor string
	loaded     bool

	states map[string]SendState
	// failed payloads kept for retry under the same client id
	failed map[string]SendRequest

	newTempID func() string
	now       func() time.Time
}

func NewController(conversationID string, recipientID int64, sender MessageSender, history HistoryLoader, summaries SummaryRefresher, viewport Viewport) *Controller {
	return &Controller{
		conversationID: conversationID,
		recipientID:    recipientID,
		timeline:       NewTimeline(),
		sender:         sender,
		history:        history,
		summaries:      summaries,
		viewport:       viewport,
		states:         make(map[string]SendState),
		failed:         make(map[string]SendRequest),
		newTempID:      uuid.NewString,
		now:            time.Now,
	}
}

// SetNow — инъекция времени для тестов.
func (c *Controller) SetNow(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

func (c *Controller) SetTempIDFunc(f func() string) {
	if f != nil {
		c.newTempID = f
	}
}

func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeline.Entries()
}

func (c *Controller) State(tempID string) SendState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.states[tempID]; ok {
		return s
	}
	return StateIdle
}

// LoadLatest fetches the most recent page and resets the timeline.
func (c *Controller) LoadLatest(ctx context.Context) error {
	msgs, next, err := c.history.History(ctx, c.conversationID, "")
	if err != nil {
		return fmt.Errorf("load latest: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeline.Reset(msgs)
	c.nextCursor = next
	c.loaded = true
	return nil
}

// Send appends a provisional entry immediately and reconciles it once the
// server acknowledges. On failure the provisional is removed and the
// payload kept for Retry under the same temp id.
func (c *Controller) Send(ctx context.Context, content, mediaURL, mediaKind string) (string, error) {
	tempID := c.newTempID()
	req := SendRequest{
		RecipientID: c.recipientID,
		ClientID:    tempID,
		Content:     content,
		MediaURL:    mediaURL,
		MediaKind:   mediaKind,
	}
	return tempID, c.submit(ctx, tempID, req)
}

// Retry re-sends a failed payload with its original temp id, which the
// server treats as the idempotency key: no duplicate can result even if
// the first attempt actually landed.
func (c *Controller) Retry(ctx context.Context, tempID string) error {
	c.mu.Lock()
	req, ok := c.failed[tempID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("no failed send with temp id %s", tempID)
	}
	return c.submit(ctx, tempID, req)
}

func (c *Controller) submit(ctx context.Context, tempID string, req SendRequest) error {
	c.mu.Lock()
	c.timeline.AppendProvisional(Provisional{
		TempID:      tempID,
		Content:     req.Content,
		MediaURL:    req.MediaURL,
		MediaKind:   req.MediaKind,
		SubmittedAt: c.now(),
	})
	c.states[tempID] = StateSending
	delete(c.failed, tempID)
	c.mu.Unlock()

	msg, err := c.sender.Send(ctx, req)

	c.mu.Lock()
	if err != nil {
		c.timeline.Remove(tempID)
		c.states[tempID] = StateFailed
		c.failed[tempID] = req
		c.mu.Unlock()
		return fmt.Errorf("send: %w", err)
	}
	c.timeline.Resolve(tempID, msg)
	c.states[tempID] = StateReconciled
	c.mu.Unlock()

	// best-effort: sidebar ordering catches up on the next poll anyway
	if c.summaries != nil {
		_ = c.summaries.RefreshSummaries(ctx)
	}
	return nil
}

// LoadOlder fetches the page preceding the oldest loaded message and
// prepends it, shifting the scroll position by the measured height delta
// so the viewport stays anchored. A failed load leaves cursor and loaded
// page intact; the same call can simply be retried.
func (c *Controller) LoadOlder(ctx context.Context) (int, error) {
	c.mu.Lock()
	if !c.loaded || c.nextCursor == "" {
		c.mu.Unlock()
		return 0, nil
	}
	cursor := c.nextCursor
	c.mu.Unlock()

	msgs, next, err := c.history.History(ctx, c.conversationID, cursor)
	if err != nil {
		return 0, fmt.Errorf("load older: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.viewport.ContentHeight()
	added := c.timeline.Prepend(msgs)
	c.nextCursor = next
	if added > 0 {
		after := c.viewport.ContentHeight()
		c.viewport.ScrollBy(after - before)
	}
	return added, nil
}

// HasMoreHistory reports whether older pages remain.
func (c *Controller) HasMoreHistory() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded && c.nextCursor != ""
}
