package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/messaging-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db querier
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append inserts the message, using (conversation_id, client_id) as the
// idempotency key: a retried send with the same client id returns the row
// already stored instead of creating a duplicate.
func (r *MessageRepository) Append(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	err := r.db.QueryRow(ctx, queryAppendMessage,
		m.ConversationID, m.SenderID, m.ClientID, m.Content, m.MediaURL, m.MediaKind,
	).Scan(&m.ID, &m.CreatedAt)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapPgError(err)
	}

	return r.getByClientID(ctx, m.ConversationID, m.ClientID)
}

func (r *MessageRepository) getByClientID(ctx context.Context, conversationID, clientID string) (*domain.Message, error) {
	var m domain.Message
	err := r.db.QueryRow(ctx, queryGetMessageByClientID, conversationID, clientID).Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.ClientID,
		&m.Content, &m.MediaURL, &m.MediaKind, &m.CreatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &m, nil
}

// History возвращает страницу истории с курсорной пагинацией (created_at,id).
// Without a cursor it is the most recent page; with one — the page
// immediately preceding it. Messages come back ascending for direct
// rendering, next is empty when the history is exhausted.
func (r *MessageRepository) History(ctx context.Context, conversationID, before string, limit int) ([]domain.Message, string, error) {
	if limit <= 0 {
		limit = 30
	}
	if limit > 100 {
		limit = 100
	}
	cur, err := DecodeCursor(before)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, queryMessageHistory, conversationID, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.ClientID,
			&m.Content, &m.MediaURL, &m.MediaKind, &m.CreatedAt,
		); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) == limit {
		oldest := out[len(out)-1]
		if c, e := EncodeCursor(Cursor{CreatedAt: oldest.CreatedAt, ID: oldest.ID}); e == nil {
			next = c
		}
	}

	// DESC scan order, ascending for the caller.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, next, nil
}
