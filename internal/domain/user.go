package domain

import "time"

// User is the public slice of the platform's user record that messaging
// needs. The row is owned by the account service; messaging only ever
// writes last_active_at.
type User struct {
	ID           int64      `db:"id"`
	DisplayName  *string    `db:"display_name"`
	AvatarURL    *string    `db:"avatar_url"`
	LastActiveAt *time.Time `db:"last_active_at"`
}
