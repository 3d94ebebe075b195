package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTestClient(hub *Hub, sessionID string, buffer int) *Client {
	client := &Client{
		hub:       hub,
		id:        uuid.NewString(),
		send:      make(chan []byte, buffer),
		sessionID: sessionID,
	}
	hub.clients[client] = true
	return client
}

func TestHubBroadcastToSession(t *testing.T) {
	t.Run("delivers only to the session's clients", func(t *testing.T) {
		hub := NewHub(testLogger())
		watcher := addTestClient(hub, "session_a", 4)
		other := addTestClient(hub, "session_b", 4)

		hub.BroadcastToSession("session_a", "timer_update", map[string]interface{}{"timeRemaining": 10})

		require.Len(t, watcher.send, 1)
		assert.Len(t, other.send, 0)
	})

	t.Run("evicts a client whose buffer is full", func(t *testing.T) {
		hub := NewHub(testLogger())
		slow := addTestClient(hub, "session_a", 0)

		hub.BroadcastToSession("session_a", "timer_update", nil)

		assert.Equal(t, 0, hub.ConnectedClients("session_a"))
		_, open := <-slow.send
		assert.False(t, open, "an evicted client's send channel is closed")
	})
}

func TestHubConcurrentBroadcasts(t *testing.T) {
	// Timer ticks and prompt submissions broadcast from different goroutines;
	// concurrent eviction of slow clients must not fault the process.
	hub := NewHub(testLogger())
	for i := 0; i < 256; i++ {
		addTestClient(hub, "session_a", 0)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.BroadcastToSession("session_a", "timer_update", map[string]interface{}{"timeRemaining": 10})
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ConnectedClients("session_a"), "every slow client is evicted exactly once")
}
