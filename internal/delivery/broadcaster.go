package delivery

import (
	"fmt"

	"rtchat/internal/models"
)

// Broadcaster is the transport fan-out surface the router emits through. It
// is injected at construction so the router has no hidden connection state
// and can be tested against a fake.
type Broadcaster interface {
	SendToConnection(connID string, event models.OutEvent)
	SendToRoom(roomKey string, event models.OutEvent)
	SendToRoomExcept(roomKey string, exceptConnID string, event models.OutEvent)
	JoinRoom(connID string, roomKey string)
	LeaveRoom(connID string, roomKey string)
}

// RoomKey names the transport group for a persisted room.
func RoomKey(roomID int) string {
	return fmt.Sprintf("room:%d", roomID)
}

// PairKey names the transport group for a direct conversation. Sorting the
// two ids makes the key identical regardless of who initiates, so both
// participants' joins land in the same logical group.
func PairKey(a, b int) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("dm:%d:%d", a, b)
}
