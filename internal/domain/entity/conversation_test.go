package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, ConversationKey("alice", "bob"), ConversationKey("bob", "alice"))
	assert.Equal(t, "alice_bob", ConversationKey("bob", "alice"))
}

func TestConversationKeyDistinctPairs(t *testing.T) {
	assert.NotEqual(t, ConversationKey("alice", "bob"), ConversationKey("alice", "carol"))
}

func TestHasParticipant(t *testing.T) {
	conversation := &Conversation{Participants: []string{"alice", "bob"}}

	assert.True(t, conversation.HasParticipant("alice"))
	assert.True(t, conversation.HasParticipant("bob"))
	assert.False(t, conversation.HasParticipant("carol"))
}
