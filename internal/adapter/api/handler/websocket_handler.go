package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"localxplore/internal/infrastructure/firebase"
	"localxplore/internal/infrastructure/ws"
	"localxplore/pkg/errors"
	"localxplore/pkg/logger"
)

type WebSocketHandler struct {
	hub        *ws.Hub
	authClient *firebase.FirebaseAuthClient
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // You should restrict this in production
	},
}

func NewWebSocketHandler(hub *ws.Hub, authClient *firebase.FirebaseAuthClient) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		authClient: authClient,
	}
}

// HandleWebSocket authenticates via the token query parameter and hands the
// connection to the hub. Browsers cannot set headers on WebSocket requests,
// so the Bearer middleware is no use here.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication token is required", nil)
	}

	userID, err := h.authClient.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(userID, conn)
	h.hub.Register <- client

	go client.ReadPump(h.hub)
	go client.WritePump()

	logger.Info("WebSocket connection established for user %s", userID)

	return nil
}
