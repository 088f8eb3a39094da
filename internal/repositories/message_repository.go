package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"rtchat/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for room messages. Soft-deleted rows
// are invisible to GetActiveMessage so later edit/delete attempts resolve to
// not-found.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomID int, authorID int, content string) (models.Message, error)
	GetActiveMessage(ctx context.Context, messageID int) (models.Message, error)
	ListRoomMessages(ctx context.Context, roomID int, limit int) ([]models.Message, error)
	EditMessage(ctx context.Context, messageID int, content string, editedAt time.Time) (models.Message, error)
	SoftDeleteMessage(ctx context.Context, messageID int) error
	EditHistory(ctx context.Context, messageID int) ([]models.MessageEdit, error)
	SearchMessages(ctx context.Context, roomID int, query string, limit int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, room_id, author_id, content, created_at, edited_at, is_deleted`

// CreateMessage stores a room message.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID int, authorID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (room_id, author_id, content) VALUES ($1, $2, $3)
        RETURNING `+messageColumns, roomID, authorID, content).
		StructScan(&msg)
	return msg, err
}

// GetActiveMessage retrieves a message that has not been soft-deleted.
func (r *MessageRepo) GetActiveMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1 AND is_deleted = FALSE`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListRoomMessages returns the most recent messages in creation order.
// Deleted rows are included; their content is already the placeholder.
func (r *MessageRepo) ListRoomMessages(ctx context.Context, roomID int, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT * FROM (
            SELECT `+messageColumns+` FROM messages WHERE room_id=$1 ORDER BY created_at DESC LIMIT $2
        ) recent ORDER BY created_at ASC`, roomID, limit)
	return msgs, err
}

// EditMessage applies new content and appends the pre-edit snapshot to the
// history in one transaction. The snapshot keeps the timestamp the displaced
// content had been visible since.
func (r *MessageRepo) EditMessage(ctx context.Context, messageID int, content string, editedAt time.Time) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var prev models.Message
	err = tx.GetContext(ctx, &prev, `SELECT `+messageColumns+` FROM messages WHERE id=$1 AND is_deleted = FALSE FOR UPDATE`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrMessageNotFound
		return models.Message{}, err
	}
	if err != nil {
		return models.Message{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO message_edits (message_id, content, edited_at) VALUES ($1, $2, $3)`,
		messageID, prev.Content, visibleSince(prev)); err != nil {
		return models.Message{}, err
	}

	var msg models.Message
	if err = tx.QueryRowxContext(ctx, `UPDATE messages SET content=$2, edited_at=$3 WHERE id=$1
        RETURNING `+messageColumns, messageID, content, editedAt).
		StructScan(&msg); err != nil {
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// visibleSince reports when a message's current content became visible:
// creation time for a never-edited message, the last edit time otherwise.
// This is the timestamp the content keeps when an edit displaces it into
// the history.
func visibleSince(msg models.Message) time.Time {
	if msg.EditedAt != nil {
		return *msg.EditedAt
	}
	return msg.CreatedAt
}

// SoftDeleteMessage flags the row deleted and replaces its content with the
// placeholder. A second delete finds no active row and reports not-found.
func (r *MessageRepo) SoftDeleteMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_deleted = TRUE, content=$2 WHERE id=$1 AND is_deleted = FALSE`,
		messageID, models.DeletedPlaceholder)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// EditHistory returns prior-content snapshots oldest first.
func (r *MessageRepo) EditHistory(ctx context.Context, messageID int) ([]models.MessageEdit, error) {
	var edits []models.MessageEdit
	err := r.db.SelectContext(ctx, &edits, `SELECT id, message_id, content, edited_at FROM message_edits WHERE message_id=$1 ORDER BY id ASC`, messageID)
	return edits, err
}

// SearchMessages matches content in a room, excluding deleted rows.
func (r *MessageRepo) SearchMessages(ctx context.Context, roomID int, query string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE room_id=$1 AND is_deleted = FALSE AND content ILIKE '%' || $2 || '%'
        ORDER BY created_at DESC LIMIT $3`, roomID, query, limit)
	return msgs, err
}
