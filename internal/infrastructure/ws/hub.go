package ws

import (
	"context"
	"sync"

	"localxplore/pkg/logger"
)

// Hub is the registry of live subscribers. A client is always subscribed to
// its own user topic (conversation-list view) and may join any number of
// conversation topics (thread view). Every subscription is released when the
// client disconnects, whichever way the connection dies.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[*Client]struct{}
	rooms map[string]map[*Client]struct{}

	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		users:      make(map[string]map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run owns all registry mutations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-h.Register:
				h.add(client)
				logger.Info("Client registered: %s", client.UserID)

			case client := <-h.Unregister:
				h.remove(client)
				logger.Info("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[*Client]struct{})
	}
	h.users[client.UserID][client] = struct{}{}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.users[client.UserID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.users, client.UserID)
			}
			close(client.Send)
		}
	}

	for room := range client.rooms {
		h.leaveRoomLocked(room, client)
	}
	client.rooms = make(map[string]struct{})
}

// Subscribe adds the client to a conversation topic.
func (h *Hub) Subscribe(client *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[conversationID] == nil {
		h.rooms[conversationID] = make(map[*Client]struct{})
	}
	h.rooms[conversationID][client] = struct{}{}
	client.rooms[conversationID] = struct{}{}
}

// Unsubscribe releases a conversation topic subscription.
func (h *Hub) Unsubscribe(client *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveRoomLocked(conversationID, client)
	delete(client.rooms, conversationID)
}

func (h *Hub) leaveRoomLocked(conversationID string, client *Client) {
	if clients, ok := h.rooms[conversationID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, conversationID)
		}
	}
}

// PublishToUser delivers a payload to every connection of one user.
func (h *Hub) PublishToUser(userID string, payload []byte) {
	h.mu.Lock()
	slow := h.fanOut(h.users[userID], payload, "")
	h.mu.Unlock()

	h.dropSlow(slow)
}

// PublishToConversation delivers a payload to every subscriber of a
// conversation. The write lock is held across the whole fan-out, so
// concurrent publishers are serialized and every subscriber's queue sees
// the same total order. Payloads carry updated_at so a client can also
// discard a snapshot older than the one it already rendered.
func (h *Hub) PublishToConversation(conversationID string, payload []byte) {
	h.mu.Lock()
	slow := h.fanOut(h.rooms[conversationID], payload, "")
	h.mu.Unlock()

	h.dropSlow(slow)
}

// PublishToConversationExcept is PublishToConversation minus one user,
// used to avoid echoing a sender's own message back at them.
func (h *Hub) PublishToConversationExcept(conversationID string, payload []byte, exceptUserID string) {
	h.mu.Lock()
	slow := h.fanOut(h.rooms[conversationID], payload, exceptUserID)
	h.mu.Unlock()

	h.dropSlow(slow)
}

func (h *Hub) fanOut(clients map[*Client]struct{}, payload []byte, exceptUserID string) []*Client {
	var slow []*Client
	for client := range clients {
		if exceptUserID != "" && client.UserID == exceptUserID {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	return slow
}

// dropSlow disconnects clients whose send queue is full. Losing one slow
// consumer must not stall delivery to the rest.
func (h *Hub) dropSlow(clients []*Client) {
	for _, client := range clients {
		logger.Warn("Dropping slow client %s", client.UserID)
		h.remove(client)
		client.Conn.Close()
	}
}
