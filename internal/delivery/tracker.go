package delivery

import "sync"

// UnreadTracker keeps per-session unread counters for direct conversations.
// Counts are derived session state, not persisted: activating a conversation
// zeroes its counter, and messages received while a different (or no)
// conversation is active increment by exactly one.
type UnreadTracker struct {
	mu     sync.Mutex
	active int // partner id of the active conversation, 0 when none
	counts map[int]int
}

// NewUnreadTracker constructs an empty tracker.
func NewUnreadTracker() *UnreadTracker {
	return &UnreadTracker{counts: make(map[int]int)}
}

// Activate marks the partner's conversation active and resets its counter.
func (t *UnreadTracker) Activate(partnerID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = partnerID
	delete(t.counts, partnerID)
}

// Deactivate clears the active conversation if it is the given partner's.
func (t *UnreadTracker) Deactivate(partnerID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == partnerID {
		t.active = 0
	}
}

// Increment adds one unread for the partner unless that conversation is active.
func (t *UnreadTracker) Increment(partnerID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == partnerID {
		return
	}
	t.counts[partnerID]++
}

// Count returns the unread count for one partner.
func (t *UnreadTracker) Count(partnerID int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[partnerID]
}

// Total returns the sum of unread counts across all partners.
func (t *UnreadTracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}
