package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cwrk-planet/messaging-service/internal/domain"

	"github.com/google/uuid"
)

const (
	DefaultPageSize      = 30
	DefaultMaxContentLen = 4000
	DefaultMaxMediaBytes = 5 << 20 // 5MB chat ceiling
)

type MessageRepo interface {
	Append(ctx context.Context, m *domain.Message) (*domain.Message, error)
	History(ctx context.Context, conversationID, before string, limit int) ([]domain.Message, string, error)
}

// Gate is satisfied by GateService.
type Gate interface {
	CanMessage(ctx context.Context, callerID, targetID int64) error
}

type SendInput struct {
	SenderID    int64
	RecipientID int64
	// ClientID is the sender-generated temp id; it doubles as the
	// idempotency key, so a retry after a transient failure cannot
	// duplicate the message. Generated server-side when absent.
	ClientID  string
	Content   string
	MediaURL  string
	MediaKind string
}

type Page struct {
	Messages   []domain.Message
	NextCursor string
}

type MessageService struct {
	messages      MessageRepo
	conversations ConversationRepo
	gate          Gate

	pageSize      int
	maxContentLen int
	maxMediaBytes int
}

func NewMessageService(messages MessageRepo, conversations ConversationRepo, gate Gate) *MessageService {
	return &MessageService{
		messages:      messages,
		conversations: conversations,
		gate:          gate,
		pageSize:      DefaultPageSize,
		maxContentLen: DefaultMaxContentLen,
		maxMediaBytes: DefaultMaxMediaBytes,
	}
}

func (s *MessageService) SetPageSize(n int) {
	if n > 0 {
		s.pageSize = n
	}
}

func (s *MessageService) SetMaxContentLen(n int) {
	if n > 0 {
		s.maxContentLen = n
	}
}

func (s *MessageService) SetMaxMediaBytes(n int) {
	if n > 0 {
		s.maxMediaBytes = n
	}
}

// Send validates, passes the gate and appends. The conversation is created
// lazily here, on the first successful send — never on "open chat" — so
// the store holds no empty conversations.
func (s *MessageService) Send(ctx context.Context, in SendInput) (*domain.Message, error) {
	content := strings.TrimSpace(in.Content)
	media := strings.TrimSpace(in.MediaURL)

	// validation happens before any durable write
	if content == "" && media == "" {
		return nil, domain.ErrEmptyMessage
	}
	if len(content) > s.maxContentLen {
		return nil, domain.ErrMessageTooLong
	}

	var mediaKind *domain.MediaKind
	var mediaURL *string
	if media != "" {
		kind, err := domain.ParseMediaKind(in.MediaKind)
		if err != nil {
			return nil, err
		}
		if mediaPayloadBytes(media) > s.maxMediaBytes {
			return nil, domain.ErrMediaTooLarge
		}
		mediaKind = &kind
		mediaURL = &media
	}

	clientID := in.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	} else if _, err := uuid.Parse(clientID); err != nil {
		return nil, fmt.Errorf("%w: client id must be a uuid", domain.ErrInvalidClientID)
	}

	if err := s.gate.CanMessage(ctx, in.SenderID, in.RecipientID); err != nil {
		return nil, err
	}

	conv, err := s.conversations.GetOrCreate(ctx, in.SenderID, in.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("conversations.GetOrCreate: %w", err)
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       in.SenderID,
		ClientID:       clientID,
	}
	if content != "" {
		msg.Content = &content
	}
	msg.MediaURL = mediaURL
	msg.MediaKind = mediaKind

	stored, err := s.messages.Append(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("messages.Append: %w", err)
	}
	return stored, nil
}

// History pages backwards through the conversation. cursor is the
// (created_at,id) of the oldest message the caller already holds; empty
// cursor means "most recent page". Pages come back ascending.
func (s *MessageService) History(ctx context.Context, callerID int64, conversationID, cursor string, limit int) (*Page, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, domain.ErrNotParticipant
	}

	if limit <= 0 {
		limit = s.pageSize
	}
	msgs, next, err := s.messages.History(ctx, conversationID, cursor, limit)
	if err != nil {
		return nil, err
	}
	return &Page{Messages: msgs, NextCursor: next}, nil
}

// mediaPayloadBytes estimates the decoded size of an already-encoded media
// payload. For a base64 data URI that is 3/4 of the payload length; plain
// URLs count as their own length.
func mediaPayloadBytes(url string) int {
	if strings.HasPrefix(url, "data:") {
		if i := strings.IndexByte(url, ','); i >= 0 {
			return (len(url) - i - 1) / 4 * 3
		}
	}
	return len(url)
}
