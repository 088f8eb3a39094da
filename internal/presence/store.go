// Package presence tracks ephemeral connection state in Redis: who is online,
// which connections they hold, which transport rooms each connection joined,
// and who is typing where. State must be shared across server processes so
// delivery can target whichever process owns the recipient's socket.
package presence

import (
	"context"
	"time"
)

// TypingTTL bounds how long a typing entry survives without renewal.
const TypingTTL = 10 * time.Second

// Store is the presence contract consumed by the delivery router and the
// session layer. All operations are keyed set/TTL mutations: commutative,
// idempotent, and safe under concurrent connections of the same user.
// Room presence is recorded per connection so removing one device never
// clears another's entries.
type Store interface {
	SetOnline(ctx context.Context, userID int, connID string) error
	SetAway(ctx context.Context, userID int) error
	SetOffline(ctx context.Context, userID int) error
	SetStatus(ctx context.Context, userID int, status string) error

	AddUserToRoom(ctx context.Context, connID string, roomKey string) error
	RemoveUserFromRoom(ctx context.Context, connID string, roomKey string) error
	RoomsForUser(ctx context.Context, userID int) ([]string, error)
	RemoveFromAllRooms(ctx context.Context, connID string) error

	ConnectionIDs(ctx context.Context, userID int) ([]string, error)
	PurgeConnection(ctx context.Context, userID int, connID string) error

	SetTyping(ctx context.Context, userID int, roomKey string, ttl time.Duration) error
	RemoveTyping(ctx context.Context, userID int, roomKey string) error
}
