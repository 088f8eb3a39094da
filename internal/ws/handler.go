package ws

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"rtchat/internal/auth"
	"rtchat/internal/delivery"
	"rtchat/internal/observability"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades authenticated HTTP requests to websocket sessions and owns
// their lifecycle.
type Handler struct {
	hub    *Hub
	router *delivery.Router
	tokens *auth.TokenService
}

// NewHandler constructs a websocket handler.
func NewHandler(hub *Hub, router *delivery.Router, tokens *auth.TokenService) *Handler {
	return &Handler{hub: hub, router: router, tokens: tokens}
}

// Serve handles GET /ws. The token travels in the Authorization header or,
// for browser clients that cannot set headers on websocket requests, in the
// token query parameter.
func (h *Handler) Serve(c *gin.Context) {
	ctx, span := otel.Tracer("rtchat/ws").Start(c.Request.Context(), "ws.handshake")
	meta := observability.MetaFromRequest(c.Request)
	span.SetAttributes(
		attribute.String("client.ip", meta.ClientIP),
		attribute.String("request.id", meta.RequestID),
		attribute.String("device.id", meta.DeviceID),
	)

	token := bearerToken(c)
	if token == "" {
		span.End()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	identity, err := h.tokens.Verify(token)
	if err != nil {
		span.End()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	span.SetAttributes(
		attribute.Int("user.id", identity.UserID),
		attribute.String("user.name", identity.Username),
	)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.End()
		log.Printf("ws upgrade user=%d: %v", identity.UserID, err)
		return
	}
	span.End()

	session := delivery.NewSession(uuid.NewString(), identity)
	client := newClient(conn, session, h.router, h.hub)

	h.hub.Register(client)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")

	// Detach from the request context: the connection outlives the handshake.
	connCtx := context.WithoutCancel(ctx)
	h.router.HandleConnect(connCtx, session)

	var once sync.Once
	teardown := func() {
		once.Do(func() {
			h.router.HandleDisconnect(connCtx, session)
			h.hub.Unregister(client.connID)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
		})
	}

	go client.writePump()
	go client.readPump(connCtx, teardown)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
