package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localxplore/internal/domain/entity"
	"localxplore/pkg/errors"
)

// fakeMessagingStore keeps conversations keyed by the canonical pair key and
// applies message append plus projection update under one mutex, mirroring
// the real store's transactional commit.
type fakeMessagingStore struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string]*entity.Message
	appendOrder   []string
}

func newFakeMessagingStore() *fakeMessagingStore {
	return &fakeMessagingStore{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string]*entity.Message),
	}
}

func (s *fakeMessagingStore) ResolveConversation(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entity.ConversationKey(userA, userB)
	if conversation, ok := s.conversations[key]; ok {
		copied := *conversation
		return &copied, nil
	}

	participants := []string{userA, userB}
	sort.Strings(participants)

	now := time.Now()
	conversation := &entity.Conversation{
		ID:           key,
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.conversations[key] = conversation

	copied := *conversation
	return &copied, nil
}

func (s *fakeMessagingStore) GetConversationByID(ctx context.Context, id string) (*entity.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	copied := *conversation
	return &copied, nil
}

func (s *fakeMessagingStore) ListConversationsByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*entity.Conversation
	for _, conversation := range s.conversations {
		if conversation.HasParticipant(userID) {
			copied := *conversation
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, int64(len(result)), nil
}

func (s *fakeMessagingStore) CreateMessage(ctx context.Context, message *entity.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[message.ConversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}

	message.ID = uuid.New().String()
	message.CreatedAt = time.Now()

	stored := *message
	s.messages[message.ID] = &stored
	s.appendOrder = append(s.appendOrder, message.ID)

	conversation.LastMessage = &stored
	conversation.UpdatedAt = stored.CreatedAt
	return nil
}

func (s *fakeMessagingStore) GetMessageByID(ctx context.Context, id string) (*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	copied := *message
	return &copied, nil
}

func (s *fakeMessagingStore) ListMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*entity.Message
	for _, id := range s.appendOrder {
		if message := s.messages[id]; message.ConversationID == conversationID {
			copied := *message
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (s *fakeMessagingStore) MarkMessageRead(ctx context.Context, messageID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[messageID]
	if !ok {
		return false, errors.NotFound("Message", nil)
	}
	if message.ReceiverID != userID {
		return false, errors.Forbidden("Only the receiver can mark a message as read", nil)
	}
	if message.Read {
		return false, nil
	}

	message.Read = true
	if conversation, ok := s.conversations[message.ConversationID]; ok {
		if conversation.LastMessage != nil && conversation.LastMessage.ID == messageID {
			conversation.LastMessage.Read = true
		}
	}
	return true, nil
}

func (s *fakeMessagingStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, message := range s.messages {
		if message.ReceiverID == userID && !message.Read {
			count++
		}
	}
	return count, nil
}

func (s *fakeMessagingStore) conversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

func TestSendMessageCreatesConversationOnFirstContact(t *testing.T) {
	store := newFakeMessagingStore()
	uc := NewMessagingUseCase(store, newFakeNotifier())

	message, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		ReceiverID: "bob",
		Content:    "Is the tour still on for Saturday?",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.ConversationKey("alice", "bob"), message.ConversationID)
	assert.False(t, message.Read)

	conversation, err := store.GetConversationByID(context.Background(), message.ConversationID)
	require.NoError(t, err)
	require.NotNil(t, conversation.LastMessage)
	assert.Equal(t, message.ID, conversation.LastMessage.ID)

	count, err := uc.UnreadCount(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSendMessageConcurrentFirstContactBothDirections(t *testing.T) {
	store := newFakeMessagingStore()
	uc := NewMessagingUseCase(store, newFakeNotifier())

	var wg sync.WaitGroup
	send := func(sender, receiver string) {
		defer wg.Done()
		_, err := uc.SendMessage(context.Background(), sender, SendMessageInput{
			ReceiverID: receiver,
			Content:    "hello",
		})
		assert.NoError(t, err)
	}

	wg.Add(2)
	go send("alice", "bob")
	go send("bob", "alice")
	wg.Wait()

	// Both directions land in the same single conversation
	assert.Equal(t, 1, store.conversationCount())

	messages, total, err := uc.GetConversationMessages(context.Background(), "alice", entity.ConversationKey("alice", "bob"), 50, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, int64(2), total)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	store := newFakeMessagingStore()
	uc := NewMessagingUseCase(store, newFakeNotifier())

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		ReceiverID: "bob",
		Content:    "   \n\t ",
	})

	assert.True(t, errors.Is(err, "EMPTY_CONTENT"))
	assert.Equal(t, 0, store.conversationCount())
}

func TestSendMessageRejectsSelfAndMissingReceiver(t *testing.T) {
	store := newFakeMessagingStore()
	uc := NewMessagingUseCase(store, newFakeNotifier())

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		ReceiverID: "alice",
		Content:    "note to self",
	})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.SendMessage(context.Background(), "alice", SendMessageInput{
		Content: "to nobody",
	})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestMarkMessageReadFlipsOnceAndUpdatesProjection(t *testing.T) {
	store := newFakeMessagingStore()
	notifier := newFakeNotifier()
	uc := NewMessagingUseCase(store, notifier)

	message, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		ReceiverID: "bob",
		Content:    "see you there",
	})
	require.NoError(t, err)

	require.NoError(t, uc.MarkMessageRead(context.Background(), "bob", message.ID))

	count, err := uc.UnreadCount(context.Background(), "bob")
	require.NoError(t, err)
	assert.Zero(t, count)

	conversation, err := store.GetConversationByID(context.Background(), message.ConversationID)
	require.NoError(t, err)
	assert.True(t, conversation.LastMessage.Read)

	receiptsBefore := len(notifier.userPayloads("alice"))

	// Second call is a no-op success and pushes no second receipt
	require.NoError(t, uc.MarkMessageRead(context.Background(), "bob", message.ID))
	assert.Len(t, notifier.userPayloads("alice"), receiptsBefore)
}

func TestMarkMessageReadForbiddenForSender(t *testing.T) {
	store := newFakeMessagingStore()
	uc := NewMessagingUseCase(store, newFakeNotifier())

	message, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		ReceiverID: "bob",
		Content:    "hi",
	})
	require.NoError(t, err)

	err = uc.MarkMessageRead(context.Background(), "alice", message.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestGetConversationMessagesRequiresParticipant(t *testing.T) {
	store := newFakeMessagingStore()
	uc := NewMessagingUseCase(store, newFakeNotifier())

	message, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		ReceiverID: "bob",
		Content:    "hi",
	})
	require.NoError(t, err)

	_, _, err = uc.GetConversationMessages(context.Background(), "mallory", message.ConversationID, 50, 0)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestListConversationsMostRecentFirst(t *testing.T) {
	store := newFakeMessagingStore()
	uc := NewMessagingUseCase(store, newFakeNotifier())

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{ReceiverID: "bob", Content: "first"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = uc.SendMessage(context.Background(), "alice", SendMessageInput{ReceiverID: "carol", Content: "second"})
	require.NoError(t, err)

	conversations, total, err := uc.ListConversations(context.Background(), "alice", 50, 0)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, entity.ConversationKey("alice", "carol"), conversations[0].ID)
	assert.Equal(t, entity.ConversationKey("alice", "bob"), conversations[1].ID)
}

func TestSendMessagePushesToThreadAndBothLists(t *testing.T) {
	store := newFakeMessagingStore()
	notifier := newFakeNotifier()
	uc := NewMessagingUseCase(store, notifier)

	message, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		ReceiverID: "bob",
		Content:    "on my way",
	})
	require.NoError(t, err)

	threadPayloads := notifier.topicPayloads(message.ConversationID)
	require.Len(t, threadPayloads, 1)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(threadPayloads[0], &event))
	assert.Equal(t, "message_new", event["type"])

	for _, userID := range []string{"alice", "bob"} {
		payloads := notifier.userPayloads(userID)
		require.Len(t, payloads, 1)
		require.NoError(t, json.Unmarshal(payloads[0], &event))
		assert.Equal(t, "conversation_update", event["type"])
	}
}
