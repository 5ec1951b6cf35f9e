package domain

import "time"

// Conversation is the durable 1:1 channel between two users. Exactly one
// row exists per unordered pair; UserA < UserB always holds (see
// NormalizePair), which is what makes the unique index on the pair work.
type Conversation struct {
	ID        string    `db:"id"`
	UserA     int64     `db:"user_a"`
	UserB     int64     `db:"user_b"`
	CreatedAt time.Time `db:"created_at"`
}

// NormalizePair orders a participant pair so {A,B} and {B,A} map to the
// same row.
func NormalizePair(x, y int64) (int64, int64) {
	if x > y {
		return y, x
	}
	return x, y
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.UserA == userID || c.UserB == userID
}

// Peer returns the other participant. Callers must have checked
// HasParticipant first.
func (c *Conversation) Peer(userID int64) int64 {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}
