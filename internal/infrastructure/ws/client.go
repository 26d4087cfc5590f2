package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"localxplore/pkg/logger"
)

const (
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	framePing        = "ping"
	framePong        = "pong"
)

// clientFrame is the only thing clients send upstream: topic management and
// keepalives. Messages themselves go through the HTTP API.
type clientFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	// rooms tracks this client's conversation subscriptions so the hub can
	// release them all on disconnect. Guarded by the hub's mutex.
	rooms map[string]struct{}
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		rooms:  make(map[string]struct{}),
	}
}

// ReadPump consumes control frames until the connection dies, then
// unregisters the client. Unregistering releases every subscription.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		h.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for %s: %v", c.UserID, err)
			}
			break
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			logger.Debug("Ignoring malformed frame from %s: %v", c.UserID, err)
			continue
		}

		switch frame.Type {
		case frameSubscribe:
			if frame.ConversationID != "" {
				h.Subscribe(c, frame.ConversationID)
			}
		case frameUnsubscribe:
			if frame.ConversationID != "" {
				h.Unsubscribe(c, frame.ConversationID)
			}
		case framePing:
			pong, _ := json.Marshal(map[string]string{
				"type":      framePong,
				"timestamp": time.Now().Format(time.RFC3339),
			})
			select {
			case c.Send <- pong:
			default:
			}
		default:
			logger.Debug("Unknown frame type %q from %s", frame.Type, c.UserID)
		}
	}
}

// WritePump drains the send queue onto the wire.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("WebSocket write error for %s: %v", c.UserID, err)
			return
		}
	}
}
