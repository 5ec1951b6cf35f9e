package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/messaging-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db querier
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// TouchLastActive is the only write messaging performs on the users table.
func (r *UserRepository) TouchLastActive(ctx context.Context, userID int64, at time.Time) error {
	cmd, err := r.db.Exec(ctx, queryTouchLastActive, userID, at)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, queryUserExists, userID).Scan(&exists)
	return exists, err
}
