package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID string) *Client {
	// No underlying connection; these tests only exercise the registry and
	// queueing, never the pumps.
	return NewClient(userID, nil)
}

func receive(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case payload := <-client.Send:
		return payload
	case <-time.After(time.Second):
		t.Fatal("expected a payload on the send queue")
		return nil
	}
}

func TestPublishToUserReachesAllConnections(t *testing.T) {
	hub := NewHub()
	first := newTestClient("alice")
	second := newTestClient("alice")
	other := newTestClient("bob")
	hub.add(first)
	hub.add(second)
	hub.add(other)

	hub.PublishToUser("alice", []byte("hello"))

	assert.Equal(t, []byte("hello"), receive(t, first))
	assert.Equal(t, []byte("hello"), receive(t, second))
	assert.Empty(t, other.Send)
}

func TestPublishToConversation(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("alice")
	bob := newTestClient("bob")
	hub.add(alice)
	hub.add(bob)

	hub.Subscribe(alice, "conv-1")
	hub.Subscribe(bob, "conv-1")

	hub.PublishToConversation("conv-1", []byte("m1"))

	assert.Equal(t, []byte("m1"), receive(t, alice))
	assert.Equal(t, []byte("m1"), receive(t, bob))
}

func TestPublishToConversationExceptSkipsSender(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("alice")
	bob := newTestClient("bob")
	hub.add(alice)
	hub.add(bob)

	hub.Subscribe(alice, "conv-1")
	hub.Subscribe(bob, "conv-1")

	hub.PublishToConversationExcept("conv-1", []byte("m1"), "alice")

	assert.Equal(t, []byte("m1"), receive(t, bob))
	assert.Empty(t, alice.Send)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("alice")
	hub.add(alice)
	hub.Subscribe(alice, "conv-1")

	hub.Unsubscribe(alice, "conv-1")
	hub.PublishToConversation("conv-1", []byte("m1"))

	assert.Empty(t, alice.Send)
}

func TestPublishOrderingPerConversation(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("alice")
	hub.add(alice)
	hub.Subscribe(alice, "conv-1")

	hub.PublishToConversation("conv-1", []byte("m1"))
	hub.PublishToConversation("conv-1", []byte("m2"))

	assert.Equal(t, []byte("m1"), receive(t, alice))
	assert.Equal(t, []byte("m2"), receive(t, alice))
}

func TestConcurrentPublishersYieldOneOrderPerConversation(t *testing.T) {
	hub := NewHub()

	clients := make([]*Client, 64)
	for i := range clients {
		clients[i] = newTestClient("user")
		hub.add(clients[i])
		hub.Subscribe(clients[i], "conv-1")
	}

	var wg sync.WaitGroup
	for _, payload := range [][]byte{[]byte("m1"), []byte("m2")} {
		wg.Add(1)
		go func(payload []byte) {
			defer wg.Done()
			hub.PublishToConversation("conv-1", payload)
		}(payload)
	}
	wg.Wait()

	// Whichever publisher won, every subscriber queued the two payloads in
	// the same order.
	first := string(receive(t, clients[0])) + string(receive(t, clients[0]))
	for _, client := range clients[1:] {
		observed := string(receive(t, client)) + string(receive(t, client))
		assert.Equal(t, first, observed)
	}
}

func TestRemoveReleasesEverySubscription(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("alice")
	hub.add(alice)
	hub.Subscribe(alice, "conv-1")
	hub.Subscribe(alice, "conv-2")

	hub.remove(alice)

	// Send queue is closed once
	_, open := <-alice.Send
	assert.False(t, open)

	// Nothing is delivered to the dead client on any topic
	hub.PublishToUser("alice", []byte("m1"))
	hub.PublishToConversation("conv-1", []byte("m2"))
	hub.PublishToConversation("conv-2", []byte("m3"))

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Empty(t, hub.users)
	assert.Empty(t, hub.rooms)
}

func TestRunHandlesRegisterAndUnregister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	hub.Run(ctx)

	alice := newTestClient("alice")
	hub.Register <- alice

	require.Eventually(t, func() bool {
		hub.PublishToUser("alice", []byte("hello"))
		select {
		case <-alice.Send:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	hub.Unregister <- alice

	require.Eventually(t, func() bool {
		select {
		case _, open := <-alice.Send:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
