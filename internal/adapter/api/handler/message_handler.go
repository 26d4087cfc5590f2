package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"localxplore/internal/usecase"
	"localxplore/pkg/response"
)

type MessageHandler struct {
	messagingUseCase *usecase.MessagingUseCase
}

func NewMessageHandler(messagingUseCase *usecase.MessagingUseCase) *MessageHandler {
	return &MessageHandler{
		messagingUseCase: messagingUseCase,
	}
}

type sendMessageRequest struct {
	ReceiverID   string `json:"receiver_id" validate:"required"`
	Content      string `json:"content" validate:"required"`
	ExperienceID string `json:"experience_id,omitempty"`
	BookingID    string `json:"booking_id,omitempty"`
}

// SendMessage sends a message to another user, creating the conversation
// on first contact
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.messagingUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ReceiverID:   req.ReceiverID,
		Content:      req.Content,
		ExperienceID: req.ExperienceID,
		BookingID:    req.BookingID,
	})

	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// ListConversations returns the user's conversations, most recently
// active first
func (h *MessageHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	limit, offset := paginationParams(c, 50)

	conversations, total, err := h.messagingUseCase.ListConversations(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, conversations, total, limit, offset)
}

// GetConversationMessages returns the thread of a conversation in
// timestamp order
func (h *MessageHandler) GetConversationMessages(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	limit, offset := paginationParams(c, 50)

	messages, total, err := h.messagingUseCase.GetConversationMessages(c.Request().Context(), userID, conversationID, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, limit, offset)
}

// MarkMessageRead marks a received message as read
func (h *MessageHandler) MarkMessageRead(c echo.Context) error {
	messageID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.messagingUseCase.MarkMessageRead(c.Request().Context(), userID, messageID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// GetUnreadCount returns the number of unread messages for the user
func (h *MessageHandler) GetUnreadCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.messagingUseCase.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"unread_count": count})
}
