package router

import (
	"github.com/labstack/echo/v4"

	"localxplore/internal/adapter/api/handler"
	"localxplore/internal/adapter/api/middleware"
)

// SetupMessageRouter sets up all messaging-related routes (excluding WebSocket)
func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messageGroup := e.Group("/v1/messages")
	messageGroup.Use(authMiddleware.Authenticate)

	messageGroup.POST("", messageHandler.SendMessage)                // POST /v1/messages - Send a message
	messageGroup.PUT("/:id/read", messageHandler.MarkMessageRead)    // PUT /v1/messages/:id/read - Mark message as read
	messageGroup.GET("/unread-count", messageHandler.GetUnreadCount) // GET /v1/messages/unread-count - Unread badge count

	conversationGroup := e.Group("/v1/conversations")
	conversationGroup.Use(authMiddleware.Authenticate)

	conversationGroup.GET("", messageHandler.ListConversations)                    // GET /v1/conversations - List own conversations
	conversationGroup.GET("/:id/messages", messageHandler.GetConversationMessages) // GET /v1/conversations/:id/messages - Conversation thread
}
