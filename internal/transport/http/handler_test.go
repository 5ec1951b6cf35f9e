package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cwrk-planet/messaging-service/internal/domain"
	"github.com/cwrk-planet/messaging-service/internal/postgres"
	"github.com/cwrk-planet/messaging-service/internal/presence"
	"github.com/cwrk-planet/messaging-service/internal/queue"
	"github.com/cwrk-planet/messaging-service/internal/service"
)

// --- in-memory fakes behind the service interfaces ---

type memConvRepo struct {
	byID    map[string]*domain.Conversation
	byPair  map[[2]int64]string
	markers map[string]time.Time
	seq     int
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{
		byID:    make(map[string]*domain.Conversation),
		byPair:  make(map[[2]int64]string),
		markers: make(map[string]time.Time),
	}
}

func (m *memConvRepo) GetOrCreate(ctx context.Context, x, y int64) (*domain.Conversation, error) {
	a, b := domain.NormalizePair(x, y)
	if id, ok := m.byPair[[2]int64{a, b}]; ok {
		return m.byID[id], nil
	}
	m.seq++
	c := &domain.Conversation{ID: fmt.Sprintf("conv-%d", m.seq), UserA: a, UserB: b, CreatedAt: time.Now()}
	m.byID[c.ID] = c
	m.byPair[[2]int64{a, b}] = c.ID
	return c, nil
}

func (m *memConvRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return c, nil
}

func (m *memConvRepo) ListSummaries(ctx context.Context, callerID int64) ([]postgres.SummaryRow, error) {
	return nil, nil
}

func (m *memConvRepo) UpsertReadMarker(ctx context.Context, conversationID string, userID int64, readAt time.Time) error {
	key := fmt.Sprintf("%s|%d", conversationID, userID)
	if cur, ok := m.markers[key]; ok && cur.After(readAt) {
		return nil
	}
	m.markers[key] = readAt
	return nil
}

type memMessageRepo struct {
	byClientID map[string]*domain.Message
	seq        int
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{byClientID: make(map[string]*domain.Message)}
}

func (m *memMessageRepo) Append(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	key := msg.ConversationID + "|" + msg.ClientID
	if existing, ok := m.byClientID[key]; ok {
		return existing, nil
	}
	m.seq++
	msg.ID = fmt.Sprintf("msg-%d", m.seq)
	msg.CreatedAt = time.Now().UTC()
	m.byClientID[key] = msg
	return msg, nil
}

func (m *memMessageRepo) History(ctx context.Context, conversationID, before string, limit int) ([]domain.Message, string, error) {
	var out []domain.Message
	for _, msg := range m.byClientID {
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	return out, "", nil
}

type memSocial struct {
	follows map[[2]int64]bool
}

func newMemSocial() *memSocial { return &memSocial{follows: make(map[[2]int64]bool)} }

func (m *memSocial) follow(a, b int64) { m.follows[[2]int64{a, b}] = true }

func (m *memSocial) IsMutualFollow(ctx context.Context, callerID, targetID int64) (bool, error) {
	return m.follows[[2]int64{callerID, targetID}] && m.follows[[2]int64{targetID, callerID}], nil
}

func (m *memSocial) ListMutualContacts(ctx context.Context, callerID int64) ([]domain.Contact, error) {
	return nil, nil
}

func (m *memSocial) ListOneSidedFollows(ctx context.Context, callerID int64) ([]domain.Contact, error) {
	return nil, nil
}

type memQueue struct{ enqueued []queue.Task }

func (m *memQueue) Enqueue(ctx context.Context, t queue.Task, opts queue.EnqueueOptions) error {
	m.enqueued = append(m.enqueued, t)
	return nil
}

func (m *memQueue) Close() error { return nil }

type memToucher struct{ touched map[int64]time.Time }

func (m *memToucher) TouchLastActive(ctx context.Context, userID int64, at time.Time) error {
	m.touched[userID] = at
	return nil
}

type memTypingStore struct{ typing map[string][]int64 }

func (m *memTypingStore) Set(ctx context.Context, conversationID string, userID int64, ttl time.Duration) error {
	for _, id := range m.typing[conversationID] {
		if id == userID {
			return nil
		}
	}
	m.typing[conversationID] = append(m.typing[conversationID], userID)
	return nil
}

func (m *memTypingStore) Delete(ctx context.Context, conversationID string, userID int64) error {
	peers := m.typing[conversationID][:0]
	for _, id := range m.typing[conversationID] {
		if id != userID {
			peers = append(peers, id)
		}
	}
	m.typing[conversationID] = peers
	return nil
}

func (m *memTypingStore) Peers(ctx context.Context, conversationID string) ([]int64, error) {
	return m.typing[conversationID], nil
}

// tokens "token-<id>" resolve to <id>; everything else is rejected
type memIdentity struct{}

func (memIdentity) Resolve(ctx context.Context, token string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(token, "token-%d", &id); err != nil || id == 0 {
		return 0, domain.ErrUnauthorized
	}
	return id, nil
}

type stack struct {
	server *httptest.Server
	convs  *memConvRepo
	msgs   *memMessageRepo
	social *memSocial
	queue  *memQueue
}

func newStack(t *testing.T) *stack {
	t.Helper()

	convs := newMemConvRepo()
	msgs := newMemMessageRepo()
	social := newMemSocial()
	q := &memQueue{}

	toucher := &memToucher{touched: make(map[int64]time.Time)}
	tracker := presence.NewTracker(toucher, &memTypingStore{typing: make(map[string][]int64)})

	gateSvc := service.NewGateService(social, q)
	convSvc := service.NewConversationService(convs, tracker)
	msgSvc := service.NewMessageService(msgs, convs, gateSvc)

	h := NewHandler(convSvc, msgSvc, gateSvc, tracker)
	srv := httptest.NewServer(NewRouter(h, memIdentity{}, tracker))
	t.Cleanup(srv.Close)

	return &stack{server: srv, convs: convs, msgs: msgs, social: social, queue: q}
}

func (s *stack) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return v
}

func TestAuthRequired(t *testing.T) {
	s := newStack(t)

	resp, _ := s.do(t, http.MethodGet, "/conversations", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", resp.StatusCode)
	}
	resp, _ = s.do(t, http.MethodGet, "/conversations", "bogus", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", resp.StatusCode)
	}
}

func TestHealthzNeedsNoAuth(t *testing.T) {
	s := newStack(t)

	resp, _ := s.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestSendMessageCreated(t *testing.T) {
	s := newStack(t)
	s.social.follow(1, 2)
	s.social.follow(2, 1)

	resp, raw := s.do(t, http.MethodPost, "/messages", "token-1", SendMessageRequest{
		RecipientID: "2",
		ClientID:    "5f8a1a0e-3a6b-4c1e-9d6f-0a1b2c3d4e5f",
		Content:     "hello",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
	}

	item := decode[MessageItem](t, raw)
	if item.SenderID != "1" {
		t.Fatalf("sender must be the token's user, got %q", item.SenderID)
	}
	if item.Content == nil || *item.Content != "hello" {
		t.Fatalf("unexpected content: %v", item.Content)
	}
	if item.ClientID != "5f8a1a0e-3a6b-4c1e-9d6f-0a1b2c3d4e5f" {
		t.Fatalf("client id must echo back for reconciliation, got %q", item.ClientID)
	}

	// a retry with the same client id returns the same message
	resp2, raw2 := s.do(t, http.MethodPost, "/messages", "token-1", SendMessageRequest{
		RecipientID: "2",
		ClientID:    item.ClientID,
		Content:     "hello",
	})
	if resp2.StatusCode != http.StatusCreated {
		t.Fatalf("retry: expected 201, got %d", resp2.StatusCode)
	}
	if item2 := decode[MessageItem](t, raw2); item2.ID != item.ID {
		t.Fatalf("retry duplicated the message: %s vs %s", item2.ID, item.ID)
	}
}

func TestSendMessageEmptyBody(t *testing.T) {
	s := newStack(t)
	s.social.follow(1, 2)
	s.social.follow(2, 1)

	resp, raw := s.do(t, http.MethodPost, "/messages", "token-1", SendMessageRequest{
		RecipientID: "2",
		Content:     "   ",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, raw)
	}
}

func TestSendMessageNotMutual(t *testing.T) {
	s := newStack(t)
	s.social.follow(1, 2) // no follow-back

	resp, raw := s.do(t, http.MethodPost, "/messages", "token-1", SendMessageRequest{
		RecipientID: "2",
		Content:     "hey",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.StatusCode, raw)
	}
	if e := decode[ErrorResponse](t, raw); e.Reason != "not_mutual" {
		t.Fatalf("client needs the not_mutual reason to branch, got %q", e.Reason)
	}
	if len(s.convs.byID) != 0 {
		t.Fatalf("denied send must not create a conversation")
	}
}

func TestGetMessagesForbiddenForOutsider(t *testing.T) {
	s := newStack(t)
	conv, _ := s.convs.GetOrCreate(context.Background(), 1, 2)

	resp, _ := s.do(t, http.MethodGet, "/conversations/"+conv.ID+"/messages", "token-3", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp, _ = s.do(t, http.MethodGet, "/conversations/missing/messages", "token-1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMarkRead(t *testing.T) {
	s := newStack(t)
	conv, _ := s.convs.GetOrCreate(context.Background(), 1, 2)

	resp, _ := s.do(t, http.MethodPost, "/conversations/"+conv.ID+"/read", "token-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if _, ok := s.convs.markers[conv.ID+"|1"]; !ok {
		t.Fatalf("marker not written")
	}

	resp, _ = s.do(t, http.MethodPost, "/conversations/"+conv.ID+"/read", "token-3", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("outsider markRead: expected 403, got %d", resp.StatusCode)
	}
}

func TestTypingRoundTrip(t *testing.T) {
	s := newStack(t)
	conv, _ := s.convs.GetOrCreate(context.Background(), 1, 2)

	resp, _ := s.do(t, http.MethodPost, "/conversations/"+conv.ID+"/typing", "token-2", TypingRequest{IsTyping: true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("setTyping: expected 200, got %d", resp.StatusCode)
	}

	// peer sees the flag, the typist does not see their own
	resp, raw := s.do(t, http.MethodGet, "/conversations/"+conv.ID+"/typing", "token-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("getTyping: expected 200, got %d", resp.StatusCode)
	}
	if got := decode[TypingResponse](t, raw); len(got.UserIDs) != 1 || got.UserIDs[0] != "2" {
		t.Fatalf("expected [2] typing, got %v", got.UserIDs)
	}

	_, raw = s.do(t, http.MethodGet, "/conversations/"+conv.ID+"/typing", "token-2", nil)
	if got := decode[TypingResponse](t, raw); len(got.UserIDs) != 0 {
		t.Fatalf("typist must not see their own flag, got %v", got.UserIDs)
	}

	// outsiders cannot even observe typing
	resp, _ = s.do(t, http.MethodGet, "/conversations/"+conv.ID+"/typing", "token-3", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("outsider typing: expected 403, got %d", resp.StatusCode)
	}
}

func TestRequestFollowBackEnqueues(t *testing.T) {
	s := newStack(t)

	resp, _ := s.do(t, http.MethodPost, "/contacts/2/request", "token-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(s.queue.enqueued) != 1 || s.queue.enqueued[0].Type != queue.FollowRequestTaskType {
		t.Fatalf("expected one follow-request task, got %+v", s.queue.enqueued)
	}

	resp, _ = s.do(t, http.MethodPost, "/contacts/abc/request", "token-1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad target id: expected 400, got %d", resp.StatusCode)
	}
}

func TestHeartbeat(t *testing.T) {
	s := newStack(t)

	resp, raw := s.do(t, http.MethodPost, "/heartbeat", "token-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	if got := decode[StatusResponse](t, raw); got.Status != "ok" {
		t.Fatalf("unexpected status %q", got.Status)
	}
}
