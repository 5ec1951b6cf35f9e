package domain

import "time"

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// ParseMediaKind validates a wire value. Empty input means "no media".
func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case MediaImage, MediaVideo:
		return MediaKind(s), nil
	default:
		return "", ErrInvalidMedia
	}
}

// Message is immutable once created. Content may be nil for media-only
// messages. ClientID is assigned by the sending client and doubles as the
// idempotency key for retried sends.
type Message struct {
	ID             string     `db:"id"`
	ConversationID string     `db:"conversation_id"`
	SenderID       int64      `db:"sender_id"`
	ClientID       string     `db:"client_id"`
	Content        *string    `db:"content"`
	MediaURL       *string    `db:"media_url"`
	MediaKind      *MediaKind `db:"media_kind"`
	CreatedAt      time.Time  `db:"created_at"`
}
