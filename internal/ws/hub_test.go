package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtchat/internal/models"
)

func testHubClient(hub *Hub, connID string) *Client {
	return &Client{connID: connID, send: make(chan []byte, 8), hub: hub}
}

func drain(c *Client) []string {
	var names []string
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return names
			}
			var event models.Event
			if err := json.Unmarshal(payload, &event); err == nil {
				names = append(names, event.Name)
			}
		default:
			return names
		}
	}
}

func TestHubSendToConnection(t *testing.T) {
	hub := NewHub()
	c1 := testHubClient(hub, "c1")
	c2 := testHubClient(hub, "c2")
	hub.Register(c1)
	hub.Register(c2)

	hub.SendToConnection("c1", models.OutEvent{Name: "pong"})

	assert.Equal(t, []string{"pong"}, drain(c1))
	assert.Empty(t, drain(c2))
}

func TestHubSendToUnknownConnection(t *testing.T) {
	hub := NewHub()

	// No clients registered: nothing to do, nothing to panic on.
	hub.SendToConnection("ghost", models.OutEvent{Name: "pong"})
}

func TestHubRoomFanOut(t *testing.T) {
	hub := NewHub()
	c1 := testHubClient(hub, "c1")
	c2 := testHubClient(hub, "c2")
	c3 := testHubClient(hub, "c3")
	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	hub.JoinRoom("c1", "room:7")
	hub.JoinRoom("c2", "room:7")

	hub.SendToRoom("room:7", models.OutEvent{Name: "message_received"})

	assert.Equal(t, []string{"message_received"}, drain(c1))
	assert.Equal(t, []string{"message_received"}, drain(c2))
	assert.Empty(t, drain(c3))
}

func TestHubSendToRoomExcept(t *testing.T) {
	hub := NewHub()
	c1 := testHubClient(hub, "c1")
	c2 := testHubClient(hub, "c2")
	hub.Register(c1)
	hub.Register(c2)
	hub.JoinRoom("c1", "room:7")
	hub.JoinRoom("c2", "room:7")

	hub.SendToRoomExcept("room:7", "c1", models.OutEvent{Name: "typing_indicator"})

	assert.Empty(t, drain(c1))
	assert.Equal(t, []string{"typing_indicator"}, drain(c2))
}

func TestHubLeaveRoom(t *testing.T) {
	hub := NewHub()
	c1 := testHubClient(hub, "c1")
	hub.Register(c1)
	hub.JoinRoom("c1", "room:7")
	hub.LeaveRoom("c1", "room:7")

	hub.SendToRoom("room:7", models.OutEvent{Name: "message_received"})

	assert.Empty(t, drain(c1))
}

func TestHubUnregisterRemovesFromRooms(t *testing.T) {
	hub := NewHub()
	c1 := testHubClient(hub, "c1")
	c2 := testHubClient(hub, "c2")
	hub.Register(c1)
	hub.Register(c2)
	hub.JoinRoom("c1", "room:7")
	hub.JoinRoom("c2", "room:7")

	hub.Unregister("c1")
	hub.SendToRoom("room:7", models.OutEvent{Name: "message_received"})

	assert.Empty(t, drain(c1))
	assert.Equal(t, []string{"message_received"}, drain(c2))
}

func TestHubSendToAll(t *testing.T) {
	hub := NewHub()
	c1 := testHubClient(hub, "c1")
	c2 := testHubClient(hub, "c2")
	hub.Register(c1)
	hub.Register(c2)

	hub.SendToAll(models.OutEvent{Name: "room_created"})

	assert.Equal(t, []string{"room_created"}, drain(c1))
	assert.Equal(t, []string{"room_created"}, drain(c2))
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub()
	slow := &Client{connID: "slow", send: make(chan []byte, 1), hub: hub}
	hub.Register(slow)

	hub.SendToConnection("slow", models.OutEvent{Name: "one"})
	hub.SendToConnection("slow", models.OutEvent{Name: "two"})

	// The overflowing send closed the channel and evicted the client.
	hub.mu.Lock()
	_, ok := hub.clients["slow"]
	hub.mu.Unlock()
	require.False(t, ok)

	payload, open := <-slow.send
	require.True(t, open)
	var event models.Event
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "one", event.Name)

	_, open = <-slow.send
	assert.False(t, open)
}

func TestHubEvictionDuringFanOutKeepsBroadcasting(t *testing.T) {
	hub := NewHub()
	slow := &Client{connID: "slow", send: make(chan []byte, 1), hub: hub}
	healthy := testHubClient(hub, "healthy")
	hub.Register(slow)
	hub.Register(healthy)
	hub.JoinRoom("slow", "room:7")
	hub.JoinRoom("healthy", "room:7")

	// The second fan-out overflows the slow client mid-broadcast. Eviction
	// must not abort delivery to the rest of the room, and later broadcasts
	// that run after the eviction must not touch the closed channel.
	hub.SendToRoom("room:7", models.OutEvent{Name: "one"})
	hub.SendToRoom("room:7", models.OutEvent{Name: "two"})
	hub.SendToRoom("room:7", models.OutEvent{Name: "three"})

	assert.Equal(t, []string{"one", "two", "three"}, drain(healthy))
	assert.Equal(t, []string{"one"}, drain(slow))

	hub.mu.Lock()
	_, ok := hub.clients["slow"]
	hub.mu.Unlock()
	assert.False(t, ok)
}

func TestHubEvictedClientSurvivesConcurrentSends(t *testing.T) {
	hub := NewHub()
	slow := &Client{connID: "slow", send: make(chan []byte, 1), hub: hub}
	hub.Register(slow)
	hub.JoinRoom("slow", "room:7")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.SendToRoom("room:7", models.OutEvent{Name: "burst"})
		}()
		go func() {
			defer wg.Done()
			hub.SendToConnection("slow", models.OutEvent{Name: "direct"})
		}()
	}
	wg.Wait()

	hub.mu.Lock()
	_, ok := hub.clients["slow"]
	hub.mu.Unlock()
	assert.False(t, ok)
}

func TestHubRoomBroadcastOrderConsistent(t *testing.T) {
	hub := NewHub()
	c1 := &Client{connID: "c1", send: make(chan []byte, 64), hub: hub}
	c2 := &Client{connID: "c2", send: make(chan []byte, 64), hub: hub}
	hub.Register(c1)
	hub.Register(c2)
	hub.JoinRoom("c1", "room:7")
	hub.JoinRoom("c2", "room:7")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hub.SendToRoom("room:7", models.OutEvent{Name: fmt.Sprintf("event-%d", n)})
		}(i)
	}
	wg.Wait()

	first := drain(c1)
	second := drain(c2)
	require.Len(t, first, 16)
	assert.Equal(t, first, second)
}
