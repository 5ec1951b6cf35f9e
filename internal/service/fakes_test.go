package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cwrk-planet/messaging-service/internal/domain"
	"github.com/cwrk-planet/messaging-service/internal/postgres"
	"github.com/cwrk-planet/messaging-service/internal/queue"
)

type fakeConvRepo struct {
	byID      map[string]*domain.Conversation
	byPair    map[[2]int64]string
	markers   map[string]time.Time
	summaries []postgres.SummaryRow
	seq       int
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{
		byID:    make(map[string]*domain.Conversation),
		byPair:  make(map[[2]int64]string),
		markers: make(map[string]time.Time),
	}
}

func (f *fakeConvRepo) GetOrCreate(ctx context.Context, x, y int64) (*domain.Conversation, error) {
	a, b := domain.NormalizePair(x, y)
	if id, ok := f.byPair[[2]int64{a, b}]; ok {
		return f.byID[id], nil
	}
	f.seq++
	c := &domain.Conversation{
		ID:        fmt.Sprintf("conv-%d", f.seq),
		UserA:     a,
		UserB:     b,
		CreatedAt: time.Now(),
	}
	f.byID[c.ID] = c
	f.byPair[[2]int64{a, b}] = c.ID
	return c, nil
}

func (f *fakeConvRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return c, nil
}

func (f *fakeConvRepo) ListSummaries(ctx context.Context, callerID int64) ([]postgres.SummaryRow, error) {
	return f.summaries, nil
}

// mirrors the GREATEST upsert: the marker never moves backwards
func (f *fakeConvRepo) UpsertReadMarker(ctx context.Context, conversationID string, userID int64, readAt time.Time) error {
	key := fmt.Sprintf("%s|%d", conversationID, userID)
	if cur, ok := f.markers[key]; ok && cur.After(readAt) {
		return nil
	}
	f.markers[key] = readAt
	return nil
}

func (f *fakeConvRepo) marker(conversationID string, userID int64) (time.Time, bool) {
	at, ok := f.markers[fmt.Sprintf("%s|%d", conversationID, userID)]
	return at, ok
}

type fakeMessageRepo struct {
	byClientID map[string]*domain.Message
	appended   []*domain.Message
	history    []domain.Message
	nextCursor string
	seq        int
	now        func() time.Time
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		byClientID: make(map[string]*domain.Message),
		now:        time.Now,
	}
}

func (f *fakeMessageRepo) Append(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	key := m.ConversationID + "|" + m.ClientID
	if existing, ok := f.byClientID[key]; ok {
		return existing, nil
	}
	f.seq++
	m.ID = fmt.Sprintf("msg-%d", f.seq)
	m.CreatedAt = f.now()
	f.byClientID[key] = m
	f.appended = append(f.appended, m)
	return m, nil
}

func (f *fakeMessageRepo) History(ctx context.Context, conversationID, before string, limit int) ([]domain.Message, string, error) {
	return f.history, f.nextCursor, nil
}

type fakeSocial struct {
	follows map[[2]int64]bool
}

func newFakeSocial() *fakeSocial {
	return &fakeSocial{follows: make(map[[2]int64]bool)}
}

func (f *fakeSocial) follow(a, b int64) { f.follows[[2]int64{a, b}] = true }

func (f *fakeSocial) IsMutualFollow(ctx context.Context, callerID, targetID int64) (bool, error) {
	return f.follows[[2]int64{callerID, targetID}] && f.follows[[2]int64{targetID, callerID}], nil
}

func (f *fakeSocial) ListMutualContacts(ctx context.Context, callerID int64) ([]domain.Contact, error) {
	return nil, nil
}

func (f *fakeSocial) ListOneSidedFollows(ctx context.Context, callerID int64) ([]domain.Contact, error) {
	return nil, nil
}

type fakeQueue struct {
	enqueued []queue.Task
	options  []queue.EnqueueOptions
	err      error
}

func (f *fakeQueue) Enqueue(ctx context.Context, t queue.Task, opts queue.EnqueueOptions) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, t)
	f.options = append(f.options, opts)
	return nil
}

func (f *fakeQueue) Close() error { return nil }

type fakeOnline struct {
	window time.Duration
	now    time.Time
}

func (f *fakeOnline) IsOnline(lastActiveAt *time.Time) bool {
	if lastActiveAt == nil {
		return false
	}
	return f.now.Sub(*lastActiveAt) < f.window
}
