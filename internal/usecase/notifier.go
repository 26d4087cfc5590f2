package usecase

// Notifier is the push side of the realtime channel. Implemented by the
// ws.Hub; delivery must never block the caller.
type Notifier interface {
	PublishToUser(userID string, payload []byte)
	PublishToConversation(conversationID string, payload []byte)
	PublishToConversationExcept(conversationID string, payload []byte, exceptUserID string)
}
