package entity

import "time"

// Message is immutable once written except for the read flag, which only
// the receiver-side read flow may flip, and only from false to true.
type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	ReceiverID     string    `json:"receiver_id" firestore:"receiverId"`
	Content        string    `json:"content" firestore:"content"`
	ExperienceID   string    `json:"experience_id,omitempty" firestore:"experienceId,omitempty"`
	BookingID      string    `json:"booking_id,omitempty" firestore:"bookingId,omitempty"`
	Read           bool      `json:"read" firestore:"read"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}
