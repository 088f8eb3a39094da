package delivery

import (
	"sync"

	"rtchat/internal/auth"
)

// Session is the per-connection state the router needs: the identity attached
// at handshake, the connection id, and the session's unread counters.
type Session struct {
	ConnID   string
	Identity auth.Identity
	Unread   *UnreadTracker
}

// NewSession builds a session for a freshly authenticated connection.
func NewSession(connID string, identity auth.Identity) *Session {
	return &Session{ConnID: connID, Identity: identity, Unread: NewUnreadTracker()}
}

// SessionRegistry indexes live sessions by user so delivery to a user can
// update every device's session state (unread counters) alongside the
// transport send.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[int]map[string]*Session
}

// NewSessionRegistry constructs an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[int]map[string]*Session)}
}

// Register adds a session.
func (r *SessionRegistry) Register(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[sess.Identity.UserID] == nil {
		r.sessions[sess.Identity.UserID] = make(map[string]*Session)
	}
	r.sessions[sess.Identity.UserID][sess.ConnID] = sess
}

// Unregister removes a session; removing twice is harmless.
func (r *SessionRegistry) Unregister(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conns, ok := r.sessions[sess.Identity.UserID]; ok {
		delete(conns, sess.ConnID)
		if len(conns) == 0 {
			delete(r.sessions, sess.Identity.UserID)
		}
	}
}

// ForUser returns the user's live sessions on this process.
func (r *SessionRegistry) ForUser(userID int) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := r.sessions[userID]
	result := make([]*Session, 0, len(conns))
	for _, sess := range conns {
		result = append(result, sess)
	}
	return result
}
