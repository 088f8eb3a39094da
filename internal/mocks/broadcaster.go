package mocks

import (
	"github.com/stretchr/testify/mock"

	"rtchat/internal/models"
)

// BroadcasterMock covers both the delivery fan-out surface and the REST
// layer's announcement surface.
type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) SendToConnection(connID string, event models.OutEvent) {
	m.Called(connID, event)
}

func (m *BroadcasterMock) SendToRoom(roomKey string, event models.OutEvent) {
	m.Called(roomKey, event)
}

func (m *BroadcasterMock) SendToRoomExcept(roomKey string, exceptConnID string, event models.OutEvent) {
	m.Called(roomKey, exceptConnID, event)
}

func (m *BroadcasterMock) SendToAll(event models.OutEvent) {
	m.Called(event)
}

func (m *BroadcasterMock) JoinRoom(connID string, roomKey string) {
	m.Called(connID, roomKey)
}

func (m *BroadcasterMock) LeaveRoom(connID string, roomKey string) {
	m.Called(connID, roomKey)
}
