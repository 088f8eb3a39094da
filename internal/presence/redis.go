package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rtchat/internal/models"
)

// RedisStore implements Store on a shared Redis instance.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "presence:"}
}

func (s *RedisStore) connsKey(userID int) string {
	return fmt.Sprintf("%sconns:%d", s.prefix, userID)
}

func (s *RedisStore) statusKey(userID int) string {
	return fmt.Sprintf("%sstatus:%d", s.prefix, userID)
}

func (s *RedisStore) roomsKey(connID string) string {
	return fmt.Sprintf("%srooms:%s", s.prefix, connID)
}

func (s *RedisStore) typingKey(roomKey string, userID int) string {
	return fmt.Sprintf("%styping:%s:%d", s.prefix, roomKey, userID)
}

// SetOnline records the connection and flips the user online.
func (s *RedisStore) SetOnline(ctx context.Context, userID int, connID string) error {
	if err := s.client.SAdd(ctx, s.connsKey(userID), connID).Err(); err != nil {
		return fmt.Errorf("presence set online: %w", err)
	}
	return s.SetStatus(ctx, userID, models.StatusOnline)
}

// SetAway flips the user's presence status to away.
func (s *RedisStore) SetAway(ctx context.Context, userID int) error {
	return s.SetStatus(ctx, userID, models.StatusAway)
}

// SetOffline flips the status; connection cleanup is PurgeConnection's job.
func (s *RedisStore) SetOffline(ctx context.Context, userID int) error {
	return s.SetStatus(ctx, userID, models.StatusOffline)
}

// SetStatus writes the status key directly.
func (s *RedisStore) SetStatus(ctx context.Context, userID int, status string) error {
	if err := s.client.Set(ctx, s.statusKey(userID), status, 0).Err(); err != nil {
		return fmt.Errorf("presence set status: %w", err)
	}
	return nil
}

// AddUserToRoom records the room on the connection's room set.
func (s *RedisStore) AddUserToRoom(ctx context.Context, connID string, roomKey string) error {
	if err := s.client.SAdd(ctx, s.roomsKey(connID), roomKey).Err(); err != nil {
		return fmt.Errorf("presence add to room: %w", err)
	}
	return nil
}

// RemoveUserFromRoom removes the room from this connection only.
func (s *RedisStore) RemoveUserFromRoom(ctx context.Context, connID string, roomKey string) error {
	if err := s.client.SRem(ctx, s.roomsKey(connID), roomKey).Err(); err != nil {
		return fmt.Errorf("presence remove from room: %w", err)
	}
	return nil
}

// RoomsForUser unions the room sets of every live connection the user holds.
func (s *RedisStore) RoomsForUser(ctx context.Context, userID int) ([]string, error) {
	conns, err := s.client.SMembers(ctx, s.connsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("presence rooms for user: %w", err)
	}
	if len(conns) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(conns))
	for _, connID := range conns {
		keys = append(keys, s.roomsKey(connID))
	}
	rooms, err := s.client.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("presence rooms for user: %w", err)
	}
	return rooms, nil
}

// RemoveFromAllRooms drops the connection's whole room set.
func (s *RedisStore) RemoveFromAllRooms(ctx context.Context, connID string) error {
	if err := s.client.Del(ctx, s.roomsKey(connID)).Err(); err != nil {
		return fmt.Errorf("presence remove all rooms: %w", err)
	}
	return nil
}

// ConnectionIDs lists the user's live connection ids; empty when offline.
func (s *RedisStore) ConnectionIDs(ctx context.Context, userID int) ([]string, error) {
	conns, err := s.client.SMembers(ctx, s.connsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("presence connection ids: %w", err)
	}
	return conns, nil
}

// PurgeConnection forgets one connection. Deleting keys that are already gone
// is fine, so duplicate disconnects are harmless.
func (s *RedisStore) PurgeConnection(ctx context.Context, userID int, connID string) error {
	if err := s.client.SRem(ctx, s.connsKey(userID), connID).Err(); err != nil {
		return fmt.Errorf("presence purge connection: %w", err)
	}
	return s.RemoveFromAllRooms(ctx, connID)
}

// SetTyping marks the user typing in a room; the entry expires on its own.
func (s *RedisStore) SetTyping(ctx context.Context, userID int, roomKey string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.typingKey(roomKey, userID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("presence set typing: %w", err)
	}
	return nil
}

// RemoveTyping clears the typing entry explicitly (stop-typing or send).
func (s *RedisStore) RemoveTyping(ctx context.Context, userID int, roomKey string) error {
	if err := s.client.Del(ctx, s.typingKey(roomKey, userID)).Err(); err != nil {
		return fmt.Errorf("presence remove typing: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
