package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cwrk-planet/messaging-service/internal/domain"
	"github.com/cwrk-planet/messaging-service/internal/postgres"
)

type ConversationRepo interface {
	GetOrCreate(ctx context.Context, userX, userY int64) (*domain.Conversation, error)
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	ListSummaries(ctx context.Context, callerID int64) ([]postgres.SummaryRow, error)
	UpsertReadMarker(ctx context.Context, conversationID string, userID int64, readAt time.Time) error
}

// OnlineChecker is satisfied by presence.Tracker.
type OnlineChecker interface {
	IsOnline(lastActiveAt *time.Time) bool
}

// ConversationSummary is one sidebar entry: peer profile, newest message
// (nil for an empty conversation) and the caller's unread count.
type ConversationSummary struct {
	Conversation domain.Conversation
	Peer         domain.Contact
	PeerOnline   bool
	LastMessage  *domain.Message
	UnreadCount  int64
}

type ConversationService struct {
	conversations ConversationRepo
	online        OnlineChecker
	now           func() time.Time
}

func NewConversationService(conversations ConversationRepo, online OnlineChecker) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		online:        online,
		now:           time.Now,
	}
}

// SetNow — инъекция времени для тестов.
func (s *ConversationService) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns the caller's conversations, newest activity first; empty
// conversations sort last (repo ordering).
func (s *ConversationService) List(ctx context.Context, callerID int64) ([]ConversationSummary, error) {
	rows, err := s.conversations.ListSummaries(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("conversations.ListSummaries: %w", err)
	}

	out := make([]ConversationSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, ConversationSummary{
			Conversation: r.Conversation,
			Peer:         r.Peer,
			PeerOnline:   s.online.IsOnline(r.Peer.LastActiveAt),
			LastMessage:  r.LastMessage,
			UnreadCount:  r.UnreadCount,
		})
	}
	return out, nil
}

// MarkRead moves the caller's own marker to now. The marker only ever
// moves forward (enforced in the upsert), and the peer's marker is never
// touched.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID string, callerID int64) error {
	if _, err := s.Authorize(ctx, conversationID, callerID); err != nil {
		return err
	}
	return s.conversations.UpsertReadMarker(ctx, conversationID, callerID, s.now())
}

// Authorize loads the conversation and checks the caller is one of its two
// participants.
func (s *ConversationService) Authorize(ctx context.Context, conversationID string, callerID int64) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, domain.ErrNotParticipant
	}
	return conv, nil
}
