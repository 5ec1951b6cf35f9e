package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/messaging-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationRepository struct {
	db querier
}

func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreate — идемпотентна при одновременном вызове обоими участниками:
// проигравший гонку по уникальному индексу (user_a, user_b) получает ту же
// строку через повторный SELECT, Conflict наружу не выходит.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, userX, userY int64) (*domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.QueryRow(ctx, queryGetOrCreateConversation, userX, userY).
		Scan(&c.ID, &c.UserA, &c.UserB, &c.CreatedAt)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapPgError(err)
	}

	// ON CONFLICT DO NOTHING returned no row: the pair already exists.
	err = r.db.QueryRow(ctx, queryGetConversationByPair, userX, userY).
		Scan(&c.ID, &c.UserA, &c.UserB, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, mapPgError(err)
	}
	return &c, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.QueryRow(ctx, queryGetConversationByID, id).
		Scan(&c.ID, &c.UserA, &c.UserB, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, mapPgError(err)
	}
	return &c, nil
}

// SummaryRow is one row of the conversation list query: the conversation,
// the peer's public profile, the newest message (nil if none) and the
// caller's unread count.
type SummaryRow struct {
	Conversation domain.Conversation
	Peer         domain.Contact
	LastMessage  *domain.Message
	UnreadCount  int64
}

func (r *ConversationRepository) ListSummaries(ctx context.Context, callerID int64) ([]SummaryRow, error) {
	rows, err := r.db.Query(ctx, queryListConversationSummaries, callerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SummaryRow, 0, 16)
	for rows.Next() {
		var (
			s         SummaryRow
			msgID     *string
			senderID  *int64
			clientID  *string
			content   *string
			mediaURL  *string
			mediaKind *string
			msgAt     *time.Time
		)
		if err := rows.Scan(
			&s.Conversation.ID, &s.Conversation.UserA, &s.Conversation.UserB, &s.Conversation.CreatedAt,
			&s.Peer.UserID, &s.Peer.DisplayName, &s.Peer.AvatarURL, &s.Peer.LastActiveAt,
			&msgID, &senderID, &clientID, &content, &mediaURL, &mediaKind, &msgAt,
			&s.UnreadCount,
		); err != nil {
			return nil, err
		}
		if msgID != nil {
			m := domain.Message{
				ID:             *msgID,
				ConversationID: s.Conversation.ID,
				SenderID:       *senderID,
				Content:        content,
				MediaURL:       mediaURL,
				CreatedAt:      *msgAt,
			}
			if clientID != nil {
				m.ClientID = *clientID
			}
			if mediaKind != nil {
				k := domain.MediaKind(*mediaKind)
				m.MediaKind = &k
			}
			s.LastMessage = &m
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ConversationRepository) UpsertReadMarker(ctx context.Context, conversationID string, userID int64, readAt time.Time) error {
	_, err := r.db.Exec(ctx, queryUpsertReadMarker, conversationID, userID, readAt)
	return mapPgError(err)
}

func (r *ConversationRepository) GetReadMarker(ctx context.Context, conversationID string, userID int64) (*time.Time, error) {
	var at time.Time
	err := r.db.QueryRow(ctx, queryGetReadMarker, conversationID, userID).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &at, nil
}
