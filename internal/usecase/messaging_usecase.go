package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"localxplore/internal/domain/entity"
	"localxplore/internal/domain/repository"
	"localxplore/internal/infrastructure/ratelimit"
	"localxplore/pkg/errors"
	"localxplore/pkg/logger"
)

type MessagingUseCase struct {
	messagingRepo repository.MessagingRepository
	notifier      Notifier
	rateLimiter   *ratelimit.RateLimiter
}

func NewMessagingUseCase(messagingRepo repository.MessagingRepository, notifier Notifier) *MessagingUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &MessagingUseCase{
		messagingRepo: messagingRepo,
		notifier:      notifier,
		rateLimiter:   rateLimiter,
	}
}

type SendMessageInput struct {
	ReceiverID   string
	Content      string
	ExperienceID string
	BookingID    string
}

// SendMessage resolves the conversation for the sender/receiver pair,
// appends the message and pushes it to live subscribers. The receiver is
// addressed directly; the conversation is an internal detail of the pair.
func (uc *MessagingUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("You are sending messages too quickly, please slow down", waitTime)
	}

	if input.ReceiverID == "" {
		return nil, errors.BadRequest("Receiver is required", nil)
	}
	if senderID == input.ReceiverID {
		return nil, errors.BadRequest("You cannot send a message to yourself", nil)
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.EmptyContent("Message content is empty")
	}

	conversation, err := uc.messagingRepo.ResolveConversation(ctx, senderID, input.ReceiverID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		ReceiverID:     input.ReceiverID,
		Content:        content,
		ExperienceID:   input.ExperienceID,
		BookingID:      input.BookingID,
		Read:           false,
	}

	if err := uc.messagingRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	uc.pushNewMessage(conversation.ID, message)

	return message, nil
}

func (uc *MessagingUseCase) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	return uc.messagingRepo.ListConversationsByUserID(ctx, userID, limit, offset)
}

func (uc *MessagingUseCase) GetConversationMessages(ctx context.Context, userID, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	conversation, err := uc.messagingRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}

	if !conversation.HasParticipant(userID) {
		return nil, 0, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	return uc.messagingRepo.ListMessagesByConversation(ctx, conversationID, limit, offset)
}

// MarkMessageRead flips the read flag. Repeated calls are no-op successes.
func (uc *MessagingUseCase) MarkMessageRead(ctx context.Context, userID, messageID string) error {
	changed, err := uc.messagingRepo.MarkMessageRead(ctx, messageID, userID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	message, err := uc.messagingRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		logger.Warn("MarkMessageRead: message %s read but not reloadable for receipt: %v", messageID, err)
		return nil
	}

	receipt := map[string]interface{}{
		"type":            "message_read",
		"conversation_id": message.ConversationID,
		"message_id":      message.ID,
		"reader_id":       userID,
	}

	payload, err := json.Marshal(receipt)
	if err != nil {
		logger.Error("Failed to marshal read receipt: %v", err)
		return nil
	}

	uc.notifier.PublishToConversationExcept(message.ConversationID, payload, userID)
	uc.notifier.PublishToUser(message.SenderID, payload)

	return nil
}

func (uc *MessagingUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return uc.messagingRepo.CountUnread(ctx, userID)
}

func (uc *MessagingUseCase) pushNewMessage(conversationID string, message *entity.Message) {
	notification := map[string]interface{}{
		"type":            "message_new",
		"conversation_id": conversationID,
		"message":         message,
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		logger.Error("Failed to marshal message notification: %v", err)
		return
	}

	// Thread view subscribers first, then both conversation lists. The
	// sender's other sessions want the update too, hence no exclusion on
	// the user channel.
	uc.notifier.PublishToConversationExcept(conversationID, payload, message.SenderID)

	listUpdate := map[string]interface{}{
		"type":            "conversation_update",
		"conversation_id": conversationID,
		"last_message":    message,
		"updated_at":      message.CreatedAt.Format(time.RFC3339),
	}

	listPayload, err := json.Marshal(listUpdate)
	if err != nil {
		logger.Error("Failed to marshal conversation update: %v", err)
		return
	}

	uc.notifier.PublishToUser(message.ReceiverID, listPayload)
	uc.notifier.PublishToUser(message.SenderID, listPayload)
}
