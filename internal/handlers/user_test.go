package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rtchat/internal/mocks"
	"rtchat/internal/models"
)

func setupUserRouter(handler *UserHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(userIDContextKey, 1)
		c.Next()
	})
	r.GET("/users/me", handler.GetMe)
	r.PATCH("/users/me", handler.UpdateMe)
	return r
}

func TestGetMe(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(users, new(mocks.RoomRepositoryMock), new(mocks.BroadcasterMock), nil)
	router := setupUserRouter(handler)

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestUpdateMeAnnouncesToMemberRooms(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	rooms := new(mocks.RoomRepositoryMock)
	bcast := new(mocks.BroadcasterMock)
	handler := NewUserHandler(users, rooms, bcast, nil)
	router := setupUserRouter(handler)

	updated := models.User{ID: 1, Username: "alice2"}
	users.On("UpdateProfile", mock.Anything, 1, "alice2", (*string)(nil)).Return(updated, nil).Once()
	rooms.On("MemberRoomIDs", mock.Anything, 1).Return([]int{7, 8}, nil).Once()

	expected := models.OutEvent{
		Name: models.EventUserProfileUpdated,
		Data: models.UserProfilePayload{UserID: 1, Username: "alice2"},
	}
	bcast.On("SendToRoom", "room:7", expected).Once()
	bcast.On("SendToRoom", "room:8", expected).Once()

	req := httptest.NewRequest(http.MethodPatch, "/users/me", bytes.NewBufferString(`{"username":"alice2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
	rooms.AssertExpectations(t)
	bcast.AssertExpectations(t)
}

func TestUpdateMeInvalidBody(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(users, new(mocks.RoomRepositoryMock), new(mocks.BroadcasterMock), nil)
	router := setupUserRouter(handler)

	req := httptest.NewRequest(http.MethodPatch, "/users/me", bytes.NewBufferString(`{"username":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
