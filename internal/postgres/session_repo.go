package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/cwrk-planet/messaging-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository resolves opaque bearer tokens against the sessions
// table owned by the auth service. Tokens are stored hashed; messaging
// only ever reads here.
type SessionRepository struct {
	db  querier
	now func() time.Time
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Resolve — ищет живую сессию по хешу токена; fails closed.
func (r *SessionRepository) Resolve(ctx context.Context, token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, domain.ErrUnauthorized
	}

	sum := sha256.Sum256([]byte(token))
	hash := hex.EncodeToString(sum[:])

	var userID int64
	err := r.db.QueryRow(ctx, queryResolveSession, hash, r.now()).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUnauthorized
		}
		return 0, mapPgError(err)
	}
	return userID, nil
}
