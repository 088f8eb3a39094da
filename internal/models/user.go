package models

import "time"

// User statuses. Presence transitions and explicit status updates move users
// between these; there is no other valid value.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusOffline = "offline"
)

// ValidStatus reports whether s is one of the fixed status values.
func ValidStatus(s string) bool {
	return s == StatusOnline || s == StatusAway || s == StatusOffline
}

// User represents a registered account. Users are never hard-deleted.
type User struct {
	ID           int        `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Status       string     `db:"status" json:"status"`
	LastSeen     *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	AvatarURL    *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
