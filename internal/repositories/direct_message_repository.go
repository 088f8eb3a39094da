package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"rtchat/internal/models"
)

// DirectMessageRepository defines interactions for 1:1 messages. The same
// soft-delete and edit-history semantics as room messages apply.
type DirectMessageRepository interface {
	CreateDirectMessage(ctx context.Context, senderID int, receiverID int, content string) (models.DirectMessage, error)
	GetActiveDirectMessage(ctx context.Context, messageID int) (models.DirectMessage, error)
	ListBetween(ctx context.Context, userID int, partnerID int, limit int) ([]models.DirectMessage, error)
	EditDirectMessage(ctx context.Context, messageID int, content string, editedAt time.Time) (models.DirectMessage, error)
	SoftDeleteDirectMessage(ctx context.Context, messageID int) error
	EditHistory(ctx context.Context, messageID int) ([]models.MessageEdit, error)
	ListConversations(ctx context.Context, viewerID int) ([]models.Conversation, error)
}

// DirectMessageRepo is a sqlx-backed repository.
type DirectMessageRepo struct {
	db *sqlx.DB
}

// NewDirectMessageRepo constructs a DirectMessageRepo.
func NewDirectMessageRepo(db *sqlx.DB) *DirectMessageRepo {
	return &DirectMessageRepo{db: db}
}

const directMessageColumns = `id, sender_id, receiver_id, content, created_at, edited_at, is_deleted`

// CreateDirectMessage stores a 1:1 message.
func (r *DirectMessageRepo) CreateDirectMessage(ctx context.Context, senderID int, receiverID int, content string) (models.DirectMessage, error) {
	var msg models.DirectMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO direct_messages (sender_id, receiver_id, content) VALUES ($1, $2, $3)
        RETURNING `+directMessageColumns, senderID, receiverID, content).
		StructScan(&msg)
	return msg, err
}

// GetActiveDirectMessage retrieves a message that has not been soft-deleted.
func (r *DirectMessageRepo) GetActiveDirectMessage(ctx context.Context, messageID int) (models.DirectMessage, error) {
	var msg models.DirectMessage
	err := r.db.GetContext(ctx, &msg, `SELECT `+directMessageColumns+` FROM direct_messages WHERE id=$1 AND is_deleted = FALSE`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DirectMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// ListBetween returns the recent messages of the unordered pair in creation order.
func (r *DirectMessageRepo) ListBetween(ctx context.Context, userID int, partnerID int, limit int) ([]models.DirectMessage, error) {
	var msgs []models.DirectMessage
	err := r.db.SelectContext(ctx, &msgs, `SELECT * FROM (
            SELECT `+directMessageColumns+` FROM direct_messages
            WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
            ORDER BY created_at DESC LIMIT $3
        ) recent ORDER BY created_at ASC`, userID, partnerID, limit)
	return msgs, err
}

// EditDirectMessage applies new content with a history append, as EditMessage does.
func (r *DirectMessageRepo) EditDirectMessage(ctx context.Context, messageID int, content string, editedAt time.Time) (models.DirectMessage, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.DirectMessage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var prev models.DirectMessage
	err = tx.GetContext(ctx, &prev, `SELECT `+directMessageColumns+` FROM direct_messages WHERE id=$1 AND is_deleted = FALSE FOR UPDATE`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrMessageNotFound
		return models.DirectMessage{}, err
	}
	if err != nil {
		return models.DirectMessage{}, err
	}

	visibleSince := prev.CreatedAt
	if prev.EditedAt != nil {
		visibleSince = *prev.EditedAt
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO direct_message_edits (message_id, content, edited_at) VALUES ($1, $2, $3)`,
		messageID, prev.Content, visibleSince); err != nil {
		return models.DirectMessage{}, err
	}

	var msg models.DirectMessage
	if err = tx.QueryRowxContext(ctx, `UPDATE direct_messages SET content=$2, edited_at=$3 WHERE id=$1
        RETURNING `+directMessageColumns, messageID, content, editedAt).
		StructScan(&msg); err != nil {
		return models.DirectMessage{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.DirectMessage{}, err
	}
	return msg, nil
}

// SoftDeleteDirectMessage flags the row deleted and swaps in the placeholder.
func (r *DirectMessageRepo) SoftDeleteDirectMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE direct_messages SET is_deleted = TRUE, content=$2 WHERE id=$1 AND is_deleted = FALSE`,
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
func (r *DirectMessageRepo) EditHistory(ctx context.Context, messageID int) ([]models.MessageEdit, error) {
	var edits []models.MessageEdit
	err := r.db.SelectContext(ctx, &edits, `SELECT id, message_id, content, edited_at FROM direct_message_edits WHERE message_id=$1 ORDER BY id ASC`, messageID)
	return edits, err
}

// ListConversations derives the viewer's conversation list: the latest message
// per partner, newest conversation first.
func (r *DirectMessageRepo) ListConversations(ctx context.Context, viewerID int) ([]models.Conversation, error) {
	query := `SELECT DISTINCT ON (t.partner_id)
            t.partner_id, u.username AS partner_username,
            t.id, t.sender_id, t.receiver_id, t.content, t.created_at, t.edited_at, t.is_deleted
        FROM (
            SELECT dm.*, CASE WHEN dm.sender_id=$1 THEN dm.receiver_id ELSE dm.sender_id END AS partner_id
            FROM direct_messages dm
            WHERE dm.sender_id=$1 OR dm.receiver_id=$1
        ) t
        INNER JOIN users u ON u.id = t.partner_id
        ORDER BY t.partner_id, t.created_at DESC`

	rows, err := r.db.QueryxContext(ctx, query, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		var msg models.DirectMessage
		if err := rows.Scan(&conv.PartnerID, &conv.PartnerUsername,
			&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.CreatedAt, &msg.EditedAt, &msg.IsDeleted); err != nil {
			return nil, err
		}
		conv.LastMessage = msg
		result = append(result, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Most recent conversation first.
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastMessage.CreatedAt.After(result[j].LastMessage.CreatedAt)
	})
	return result, nil
}
