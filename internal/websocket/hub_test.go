package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	userID   string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string, userID string) *mockClient {
	return &mockClient{
		id:       id,
		userID:   userID,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) UserID() string {
	return m.userID
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", "alice")
	client2 := newMockClient("client-2", "alice")
	client3 := newMockClient("client-3", "bob")

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount("alice"))
	assert.Equal(t, 1, hub.ClientCount("bob"))
	assert.Equal(t, 0, hub.ClientCount("nobody"))
	assert.Equal(t, 3, hub.TotalClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount("alice"))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount("alice"))
	assert.Equal(t, 0, hub.ClientCount("bob"))
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_Broadcast_UserIsolation(t *testing.T) {
	hub := NewHub()

	aliceLaptop := newMockClient("client-1a", "alice")
	alicePhone := newMockClient("client-1b", "alice")
	bob := newMockClient("client-2", "bob")

	hub.Register(aliceLaptop)
	hub.Register(alicePhone)
	hub.Register(bob)

	hub.Broadcast("alice", CollectionSynced(domain.CollectionTransactions, 1, 10))

	assert.Len(t, aliceLaptop.GetMessages(), 1, "laptop should receive 1 message")
	assert.Len(t, alicePhone.GetMessages(), 1, "phone should receive 1 message")
	assert.Len(t, bob.GetMessages(), 0, "bob should not receive alice's events")
}

func TestHub_Broadcast_PreservesOrder(t *testing.T) {
	hub := NewHub()
	client := newMockClient("client-1", "alice")
	hub.Register(client)

	for i := 1; i <= 5; i++ {
		hub.Broadcast("alice", CollectionSynced(domain.CollectionBudgets, uint64(i), i))
	}

	messages := client.GetMessages()
	require.Len(t, messages, 5)
	for i, raw := range messages {
		var decoded struct {
			Payload SyncedPayload `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, uint64(i+1), decoded.Payload.Version)
	}
}

func TestHub_Broadcast_SkipsClosedClient(t *testing.T) {
	hub := NewHub()
	closed := newMockClient("client-1", "alice")
	open := newMockClient("client-2", "alice")
	hub.Register(closed)
	hub.Register(open)
	closed.Close()

	require.NotPanics(t, func() {
		hub.Broadcast("alice", SessionOpened())
	})
	assert.Empty(t, closed.GetMessages())
	assert.Len(t, open.GetMessages(), 1)
}

func TestHub_CloseUser(t *testing.T) {
	hub := NewHub()
	a1 := newMockClient("a1", "alice")
	a2 := newMockClient("a2", "alice")
	b1 := newMockClient("b1", "bob")
	hub.Register(a1)
	hub.Register(a2)
	hub.Register(b1)

	n := hub.CloseUser("alice")

	assert.Equal(t, 2, n)
	assert.True(t, a1.IsClosed())
	assert.True(t, a2.IsClosed())
	assert.False(t, b1.IsClosed())
	assert.Equal(t, 0, hub.ClientCount("alice"))
	assert.Equal(t, 1, hub.TotalClientCount())
	assert.Equal(t, 0, hub.CloseUser("alice"))
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	clientCount := 50

	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), fmt.Sprintf("user-%d", i%5))
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}

	wg.Wait()

	// 10 per user, 5 users
	assert.Equal(t, clientCount, hub.TotalClientCount())

	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			hub.Broadcast(fmt.Sprintf("user-%d", idx%5), SessionOpened())
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", "alice")

	// Should not panic when unregistering a client that was never registered
	require.NotPanics(t, func() {
		hub.Unregister(client)
	})
}

func TestHub_BroadcastToUnknownUser(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Broadcast("nobody", SessionClosed())
	})
}
