package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnreadTracker(t *testing.T) {
	tracker := NewUnreadTracker()

	tracker.Increment(2)
	tracker.Increment(2)
	tracker.Increment(3)
	assert.Equal(t, 2, tracker.Count(2))
	assert.Equal(t, 1, tracker.Count(3))
	assert.Equal(t, 3, tracker.Total())

	// Opening the conversation resets its counter and suppresses increments.
	tracker.Activate(2)
	assert.Equal(t, 0, tracker.Count(2))
	tracker.Increment(2)
	assert.Equal(t, 0, tracker.Count(2))

	// Other conversations still count while one is active.
	tracker.Increment(3)
	assert.Equal(t, 2, tracker.Count(3))

	// After leaving, increments resume.
	tracker.Deactivate(2)
	tracker.Increment(2)
	assert.Equal(t, 1, tracker.Count(2))
	assert.Equal(t, 3, tracker.Total())
}

func TestUnreadTrackerDeactivateOtherPartner(t *testing.T) {
	tracker := NewUnreadTracker()
	tracker.Activate(2)

	// Deactivating a different partner leaves the active conversation alone.
	tracker.Deactivate(3)
	tracker.Increment(2)
	assert.Equal(t, 0, tracker.Count(2))
}

func TestRoomKey(t *testing.T) {
	assert.Equal(t, "room:7", RoomKey(7))
}

func TestPairKeyOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey(1, 2), PairKey(2, 1))
	assert.Equal(t, "dm:1:2", PairKey(2, 1))
	assert.NotEqual(t, PairKey(1, 2), PairKey(1, 3))
}
