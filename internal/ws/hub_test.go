package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastToUser(t *testing.T) {
	hub := NewFeedHub()

	// Two tabs for merchant 1, one for merchant 2.
	a := &Client{UserID: 1, Send: make(chan []byte, 4)}
	b := &Client{UserID: 1, Send: make(chan []byte, 4)}
	other := &Client{UserID: 2, Send: make(chan []byte, 4)}
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)
	assert.Equal(t, 3, hub.ClientCount())

	hub.Publish(1, "STAMP", 10, 20, 3, 0)

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.Send:
			var ev FeedEvent
			require.NoError(t, json.Unmarshal(data, &ev))
			assert.Equal(t, "STAMP", ev.Type)
			assert.EqualValues(t, 10, ev.CardID)
			assert.EqualValues(t, 20, ev.CustomerID)
			assert.Equal(t, 3, ev.Amount)
		default:
			t.Fatal("expected event on merchant 1 connection")
		}
	}
	select {
	case <-other.Send:
		t.Fatal("merchant 2 must not see merchant 1 events")
	default:
	}
}

func TestHubSkipsSlowConsumer(t *testing.T) {
	hub := NewFeedHub()
	c := &Client{UserID: 1, Send: make(chan []byte, 1)}
	hub.Register(c)

	// The second publish finds the buffer full and is dropped, not blocked.
	hub.Publish(1, "STAMP", 1, 1, 1, 0)
	hub.Publish(1, "REWARD", 1, 1, 0, 5)

	var ev FeedEvent
	require.NoError(t, json.Unmarshal(<-c.Send, &ev))
	assert.Equal(t, "STAMP", ev.Type)
	select {
	case <-c.Send:
		t.Fatal("second event should have been dropped")
	default:
	}
}

func TestHubUnregisterOnClose(t *testing.T) {
	hub := NewHub()
	c := &Client{UserID: 1, Send: make(chan []byte, 1)}
	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	c.Close()
	assert.Equal(t, 0, hub.ClientCount())

	// Closing twice is a no-op.
	c.Close()
	assert.Equal(t, 0, hub.ClientCount())
}
