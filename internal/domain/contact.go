package domain

import "time"

// Contact is a peer's public profile as shown in the contact picker and
// conversation list.
type Contact struct {
	UserID       int64
	DisplayName  *string
	AvatarURL    *string
	LastActiveAt *time.Time
}
