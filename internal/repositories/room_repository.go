package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"rtchat/internal/models"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomNameTaken      = errors.New("room name already taken")
	ErrCreatorCannotLeave = errors.New("creator cannot leave while other members remain")
)

// RoomRepository abstracts room and membership persistence.
type RoomRepository interface {
	CreateRoom(ctx context.Context, creatorID int, name string, description *string, isPrivate bool) (models.Room, error)
	GetRoom(ctx context.Context, roomID int) (models.Room, error)
	ListRoomsForUser(ctx context.Context, userID int) ([]models.Room, error)
	ListPublicRooms(ctx context.Context) ([]models.Room, error)
	IsMember(ctx context.Context, roomID int, userID int) (bool, error)
	JoinRoom(ctx context.Context, roomID int, userID int) (models.Membership, error)
	LeaveRoom(ctx context.Context, roomID int, userID int) error
	ListMembers(ctx context.Context, roomID int) ([]models.RoomMember, error)
	MemberRoomIDs(ctx context.Context, userID int) ([]int, error)
	UpdateLastRead(ctx context.Context, roomID int, userID int) error
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// CreateRoom creates a room and the creator's membership atomically.
func (r *RoomRepo) CreateRoom(ctx context.Context, creatorID int, name string, description *string, isPrivate bool) (models.Room, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var exists bool
	if err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rooms WHERE LOWER(name)=LOWER($1))`, name); err != nil {
		return models.Room{}, err
	}
	if exists {
		err = ErrRoomNameTaken
		return models.Room{}, err
	}

	var room models.Room
	if err = tx.QueryRowxContext(ctx, `INSERT INTO rooms (name, description, is_private, creator_id) VALUES ($1, $2, $3, $4)
        RETURNING id, name, description, is_private, creator_id, created_at`, name, description, isPrivate, creatorID).
		StructScan(&room); err != nil {
		return models.Room{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO room_members (user_id, room_id) VALUES ($1, $2)`, creatorID, room.ID); err != nil {
		return models.Room{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT id, name, description, is_private, creator_id, created_at FROM rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// ListRoomsForUser returns rooms the user is a member of.
func (r *RoomRepo) ListRoomsForUser(ctx context.Context, userID int) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.SelectContext(ctx, &rooms, `SELECT r.id, r.name, r.description, r.is_private, r.creator_id, r.created_at
        FROM rooms r INNER JOIN room_members rm ON rm.room_id = r.id
        WHERE rm.user_id=$1 ORDER BY r.created_at DESC`, userID)
	return rooms, err
}

// ListPublicRooms returns all non-private rooms.
func (r *RoomRepo) ListPublicRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.SelectContext(ctx, &rooms, `SELECT id, name, description, is_private, creator_id, created_at
        FROM rooms WHERE is_private = FALSE ORDER BY created_at DESC`)
	return rooms, err
}

// IsMember checks for a membership row.
func (r *RoomRepo) IsMember(ctx context.Context, roomID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM room_members WHERE room_id=$1 AND user_id=$2)`, roomID, userID)
	return exists, err
}

// JoinRoom creates a membership; joining twice is a no-op on the existing row.
func (r *RoomRepo) JoinRoom(ctx context.Context, roomID int, userID int) (models.Membership, error) {
	var membership models.Membership
	err := r.db.QueryRowxContext(ctx, `INSERT INTO room_members (user_id, room_id) VALUES ($1, $2)
        ON CONFLICT (user_id, room_id) DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING user_id, room_id, joined_at, last_read_at`, userID, roomID).
		StructScan(&membership)
	return membership, err
}

// LeaveRoom removes a membership. The creator may only leave an empty room.
func (r *RoomRepo) LeaveRoom(ctx context.Context, roomID int, userID int) error {
	room, err := r.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatorID == userID {
		var others int
		if err := r.db.GetContext(ctx, &others, `SELECT COUNT(*) FROM room_members WHERE room_id=$1 AND user_id<>$2`, roomID, userID); err != nil {
			return err
		}
		if others > 0 {
			return ErrCreatorCannotLeave
		}
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM room_members WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	return err
}

// ListMembers returns memberships joined with user display fields.
func (r *RoomRepo) ListMembers(ctx context.Context, roomID int) ([]models.RoomMember, error) {
	var members []models.RoomMember
	err := r.db.SelectContext(ctx, &members, `SELECT u.id AS user_id, u.username, u.status, rm.joined_at
        FROM room_members rm INNER JOIN users u ON u.id = rm.user_id
        WHERE rm.room_id=$1 ORDER BY rm.joined_at ASC`, roomID)
	return members, err
}

// MemberRoomIDs returns every room id the user holds a membership in.
func (r *RoomRepo) MemberRoomIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT room_id FROM room_members WHERE user_id=$1`, userID)
	return ids, err
}

// UpdateLastRead stamps the membership's last-read time.
func (r *RoomRepo) UpdateLastRead(ctx context.Context, roomID int, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE room_members SET last_read_at = NOW() WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	return err
}
