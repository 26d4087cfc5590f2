package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"localxplore/internal/domain/entity"
	"localxplore/internal/domain/repository"
	"localxplore/pkg/errors"
	"localxplore/pkg/logger"
)

type firestoreMessagingRepository struct {
	client *firestore.Client
}

func NewFirestoreMessagingRepository(client *firestore.Client) repository.MessagingRepository {
	return &firestoreMessagingRepository{
		client: client,
	}
}

// ResolveConversation finds or creates the conversation for an unordered
// participant pair. The document ID is the canonical sorted-pair key, so
// concurrent first contact from both directions converges on one document:
// the loser of the race fails its Create, the transaction retries, and the
// second attempt reads the winner's document.
func (r *firestoreMessagingRepository) ResolveConversation(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	key := entity.ConversationKey(userA, userB)
	convRef := r.client.Collection("conversations").Doc(key)

	var conversation *entity.Conversation

	err := runTransaction(ctx, r.client, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(convRef)
		if err == nil {
			var existing entity.Conversation
			if err := doc.DataTo(&existing); err != nil {
				return errors.Internal("Failed to parse conversation data", err)
			}
			conversation = &existing
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		now := time.Now()
		participants := []string{userA, userB}
		sort.Strings(participants)

		created := &entity.Conversation{
			ID:           key,
			Participants: participants,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(convRef, created); err != nil {
			return err
		}

		conversation = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return conversation, nil
}

func (r *firestoreMessagingRepository) GetConversationByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreMessagingRepository) ListConversationsByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection("conversations").
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch conversations", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var conversations []*entity.Conversation
	for i := start; i < end; i++ {
		var conversation entity.Conversation
		if err := allDocs[i].DataTo(&conversation); err != nil {
			logger.Warn("Skipping malformed conversation document %s: %v", allDocs[i].Ref.ID, err)
			continue
		}
		conversations = append(conversations, &conversation)
	}

	return conversations, total, nil
}

// CreateMessage appends the message and refreshes the parent conversation's
// last-message projection in the same transaction. The conversation list can
// therefore never point at a message that was not committed.
func (r *firestoreMessagingRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()

	convRef := r.client.Collection("conversations").Doc(message.ConversationID)
	msgRef := r.client.Collection("messages").Doc(message.ID)

	return runTransaction(ctx, r.client, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(convRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Conversation", err)
			}
			return err
		}

		if err := tx.Create(msgRef, message); err != nil {
			return err
		}

		return tx.Update(convRef, []firestore.Update{
			{Path: "lastMessage", Value: message},
			{Path: "updatedAt", Value: message.CreatedAt},
		})
	})
}

func (r *firestoreMessagingRepository) GetMessageByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.client.Collection("messages").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

func (r *firestoreMessagingRepository) ListMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("messages").
		Where("conversationId", "==", conversationID).
		OrderBy("createdAt", firestore.Asc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for conversation %s: %v", conversationID, err)
		return nil, 0, errors.Internal("Failed to fetch messages", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var messages []*entity.Message
	for i := start; i < end; i++ {
		var message entity.Message
		if err := allDocs[i].DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message document %s: %v", allDocs[i].Ref.ID, err)
			continue
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}

// MarkMessageRead flips the read flag false->true. Only the receiver may do
// this; marking an already-read message again is a no-op. The read flag on
// the conversation's last-message projection is kept in step.
func (r *firestoreMessagingRepository) MarkMessageRead(ctx context.Context, messageID, userID string) (bool, error) {
	msgRef := r.client.Collection("messages").Doc(messageID)

	var changed bool

	err := runTransaction(ctx, r.client, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(msgRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Message", err)
			}
			return err
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return errors.Internal("Failed to parse message data", err)
		}

		if message.ReceiverID != userID {
			return errors.Forbidden("Only the receiver can mark a message as read", nil)
		}

		if message.Read {
			changed = false
			return nil
		}

		convRef := r.client.Collection("conversations").Doc(message.ConversationID)
		convDoc, err := tx.Get(convRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		if err := tx.Update(msgRef, []firestore.Update{
			{Path: "read", Value: true},
		}); err != nil {
			return err
		}

		if convDoc != nil && convDoc.Exists() {
			var conversation entity.Conversation
			if err := convDoc.DataTo(&conversation); err == nil &&
				conversation.LastMessage != nil && conversation.LastMessage.ID == messageID {
				if err := tx.Update(convRef, []firestore.Update{
					{Path: "lastMessage.read", Value: true},
				}); err != nil {
					return err
				}
			}
		}

		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return changed, nil
}

func (r *firestoreMessagingRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	query := r.client.Collection("messages").
		Where("receiverId", "==", userID).
		Where("read", "==", false)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count unread messages", err)
	}

	return int64(len(docs)), nil
}
