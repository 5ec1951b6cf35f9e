package postgres

import (
	"context"

	"github.com/cwrk-planet/messaging-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SocialRepository is a read-only view of the platform's follow graph.
// Messaging never writes follows; follow-request side effects go through
// the queue instead.
type SocialRepository struct {
	db querier
}

func NewSocialRepository(db *pgxpool.Pool) *SocialRepository {
	return &SocialRepository{db: db}
}

func (r *SocialRepository) IsMutualFollow(ctx context.Context, callerID, targetID int64) (bool, error) {
	var mutual bool
	err := r.db.QueryRow(ctx, queryIsMutualFollow, callerID, targetID).Scan(&mutual)
	return mutual, err
}

func (r *SocialRepository) ListMutualContacts(ctx context.Context, callerID int64) ([]domain.Contact, error) {
	return r.listContacts(ctx, queryListMutualContacts, callerID)
}

func (r *SocialRepository) ListOneSidedFollows(ctx context.Context, callerID int64) ([]domain.Contact, error) {
	return r.listContacts(ctx, queryListOneSidedFollows, callerID)
}

func (r *SocialRepository) listContacts(ctx context.Context, sql string, callerID int64) ([]domain.Contact, error) {
	rows, err := r.db.Query(ctx, sql, callerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Contact, 0, 16)
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.UserID, &c.DisplayName, &c.AvatarURL, &c.LastActiveAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
