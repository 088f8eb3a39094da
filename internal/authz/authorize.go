package authz

import (
	"errors"
	"time"
)

// EditWindow is how long after creation the author may still edit a message.
// The window is measured from the original creation time, never from a later
// edit.
const EditWindow = 24 * time.Hour

var (
	ErrNotOwner = errors.New("requester is not the author")
	ErrTooOld   = errors.New("message is past the edit window")
)

// AuthorizeEdit permits an edit when the requester authored the message and
// the message is still inside the edit window at now.
func AuthorizeEdit(authorID int, createdAt time.Time, requesterID int, now time.Time) error {
	if authorID != requesterID {
		return ErrNotOwner
	}
	if now.Sub(createdAt) > EditWindow {
		return ErrTooOld
	}
	return nil
}

// AuthorizeDelete permits a delete for the author only; there is no age cap.
func AuthorizeDelete(authorID int, requesterID int) error {
	if authorID != requesterID {
		return ErrNotOwner
	}
	return nil
}
