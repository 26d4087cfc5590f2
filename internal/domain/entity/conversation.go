package entity

import (
	"sort"
	"time"
)

// Conversation groups all messages between exactly two participants. There
// is at most one per unordered pair: the document ID is the canonical
// sorted-pair key, so a second find-or-create lands on the same record.
type Conversation struct {
	ID           string    `json:"id" firestore:"id"`
	Participants []string  `json:"participants" firestore:"participants"`
	LastMessage  *Message  `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" firestore:"updatedAt"`
}

// ConversationKey returns the canonical ID for an unordered participant
// pair. Both orderings of the same pair yield the same key.
func ConversationKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return pair[0] + "_" + pair[1]
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
