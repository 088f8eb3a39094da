package models

import "time"

// DirectMessage is a 1:1 message. There is no conversation table; the
// conversation is implicit in the (sender, receiver) unordered pair.
type DirectMessage struct {
	ID         int        `db:"id" json:"id"`
	SenderID   int        `db:"sender_id" json:"sender_id"`
	ReceiverID int        `db:"receiver_id" json:"receiver_id"`
	Content    string     `db:"content" json:"content"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	EditedAt   *time.Time `db:"edited_at" json:"edited_at,omitempty"`
	IsDeleted  bool       `db:"is_deleted" json:"is_deleted"`
}

// Conversation is a derived view: the latest direct message exchanged with
// one partner, from the viewer's perspective.
type Conversation struct {
	PartnerID       int           `db:"partner_id" json:"partner_id"`
	PartnerUsername string        `db:"partner_username" json:"partner_username"`
	LastMessage     DirectMessage `json:"last_message"`
}
