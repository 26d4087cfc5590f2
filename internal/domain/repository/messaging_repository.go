package repository

import (
	"context"

	"localxplore/internal/domain/entity"
)

type MessagingRepository interface {
	// ResolveConversation finds or creates the single conversation for an
	// unordered participant pair. Safe under concurrent first contact from
	// both directions.
	ResolveConversation(ctx context.Context, userA, userB string) (*entity.Conversation, error)

	GetConversationByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListConversationsByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)

	// CreateMessage appends the message and updates the parent
	// conversation's last-message projection and updatedAt atomically.
	CreateMessage(ctx context.Context, message *entity.Message) error

	GetMessageByID(ctx context.Context, id string) (*entity.Message, error)
	ListMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)

	// MarkMessageRead flips read false->true. Returns false when the
	// message was already read (no-op).
	MarkMessageRead(ctx context.Context, messageID, userID string) (bool, error)

	CountUnread(ctx context.Context, userID string) (int64, error)
}
