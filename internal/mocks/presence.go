package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type PresenceStoreMock struct {
	mock.Mock
}

func (m *PresenceStoreMock) SetOnline(ctx context.Context, userID int, connID string) error {
	args := m.Called(ctx, userID, connID)
	return args.Error(0)
}

func (m *PresenceStoreMock) SetAway(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *PresenceStoreMock) SetOffline(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *PresenceStoreMock) SetStatus(ctx context.Context, userID int, status string) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

func (m *PresenceStoreMock) AddUserToRoom(ctx context.Context, connID string, roomKey string) error {
	args := m.Called(ctx, connID, roomKey)
	return args.Error(0)
}

func (m *PresenceStoreMock) RemoveUserFromRoom(ctx context.Context, connID string, roomKey string) error {
	args := m.Called(ctx, connID, roomKey)
	return args.Error(0)
}

func (m *PresenceStoreMock) RoomsForUser(ctx context.Context, userID int) ([]string, error) {
	args := m.Called(ctx, userID)
	var rooms []string
	if val := args.Get(0); val != nil {
		rooms = val.([]string)
	}
	return rooms, args.Error(1)
}

func (m *PresenceStoreMock) RemoveFromAllRooms(ctx context.Context, connID string) error {
	args := m.Called(ctx, connID)
	return args.Error(0)
}

func (m *PresenceStoreMock) ConnectionIDs(ctx context.Context, userID int) ([]string, error) {
	args := m.Called(ctx, userID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *PresenceStoreMock) PurgeConnection(ctx context.Context, userID int, connID string) error {
	args := m.Called(ctx, userID, connID)
	return args.Error(0)
}

func (m *PresenceStoreMock) SetTyping(ctx context.Context, userID int, roomKey string, ttl time.Duration) error {
	args := m.Called(ctx, userID, roomKey, ttl)
	return args.Error(0)
}

func (m *PresenceStoreMock) RemoveTyping(ctx context.Context, userID int, roomKey string) error {
	args := m.Called(ctx, userID, roomKey)
	return args.Error(0)
}
