package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"rtchat/internal/delivery"
	"rtchat/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Client binds one websocket connection to its session. Events are read and
// dispatched sequentially, so a single connection's actions are processed in
// the order they were sent.
type Client struct {
	connID  string
	conn    *websocket.Conn
	send    chan []byte
	session *delivery.Session
	router  *delivery.Router
	hub     *Hub
}

func newClient(conn *websocket.Conn, session *delivery.Session, router *delivery.Router, hub *Hub) *Client {
	return &Client{
		connID:  session.ConnID,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		session: session,
		router:  router,
		hub:     hub,
	}
}

// readPump consumes inbound frames until the connection dies, dispatching
// each event to the router. onClose runs exactly once when the loop ends.
func (c *Client) readPump(ctx context.Context, onClose func()) {
	defer func() {
		onClose()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read error conn=%s: %v", c.connID, err)
			}
			return
		}

		var event models.Event
		if err := json.Unmarshal(payload, &event); err != nil || event.Name == "" {
			c.hub.SendToConnection(c.connID, models.OutEvent{
				Name: models.EventError,
				Data: models.ErrorPayload{Message: "malformed event", Code: models.CodeMessageValidationError},
			})
			continue
		}

		c.router.Dispatch(ctx, c.session, event)
	}
}

// writePump drains the send channel and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("ws write error conn=%s: %v", c.connID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
