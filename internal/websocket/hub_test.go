package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statedash/internal/config"
	"statedash/internal/infrastructure"
	"statedash/internal/shared/testutil"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, infrastructure.NewNoopBusinessMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.running
	}, time.Second, 5*time.Millisecond)

	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func newTestClient(hub *Hub, buffer int) *Client {
	c := NewClient(hub, newMockConnection(), config.WebSocketConfig{}, "trace-1", hub.logger)
	c.send = make(chan []byte, buffer)
	return c
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func TestHub_RegisterSendsWelcome(t *testing.T) {
	hub := startHub(t)
	client := newTestClient(hub, 8)

	hub.Register(client)

	msg := receive(t, client)
	assert.Equal(t, TypeConnection, msg.Type)
	assert.Equal(t, "trace-1", msg.TraceID)
	data := msg.Data.(map[string]interface{})
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, client.ID(), data["client_id"])
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-client.send
	assert.False(t, ok, "send channel closed on unregister")
}

func TestHub_BroadcastDatasetLoaded(t *testing.T) {
	hub := startHub(t)
	a := newTestClient(hub, 8)
	b := newTestClient(hub, 8)
	hub.Register(a)
	hub.Register(b)
	receive(t, a)
	receive(t, b)

	ctx := infrastructure.WithTraceID(context.Background(), "load-42")
	hub.BroadcastDatasetLoaded(ctx, DatasetEvent{DatasetID: "ds-1", Label: "URL CSV", Status: "Showing 3 records from URL CSV.", Rows: 3})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, TypeDatasetLoaded, msg.Type)
		assert.Equal(t, "load-42", msg.TraceID)
		data := msg.Data.(map[string]interface{})
		assert.Equal(t, "ds-1", data["dataset_id"])
		assert.EqualValues(t, 3, data["rows"])
	}

	require.Eventually(t, func() bool { return hub.Stats().MessagesSent == 2 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, hub.Stats().TotalConnections)
}

func TestHub_BroadcastDatasetFailed(t *testing.T) {
	hub := startHub(t)
	c := newTestClient(hub, 8)
	hub.Register(c)
	receive(t, c)

	hub.BroadcastDatasetFailed(context.Background(), DatasetFailure{Source: "url", Status: "Failed to load URL: HTTP 404"})

	msg := receive(t, c)
	assert.Equal(t, TypeDatasetFailed, msg.Type)
	assert.Empty(t, msg.TraceID)
	assert.Equal(t, "Failed to load URL: HTTP 404", msg.Data.(map[string]interface{})["status"])
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := startHub(t)
	slow := newTestClient(hub, 1)
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	// Welcome message fills the buffer
	hub.Broadcast(context.Background(), TypeDatasetLoaded, DatasetEvent{Rows: 1})

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, hub.Stats().DroppedClients)
}

func TestHub_StopClosesClients(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	go hub.Run(context.Background())
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.running
	}, time.Second, 5*time.Millisecond)

	c := newTestClient(hub, 8)
	hub.Register(c)
	receive(t, c)

	hub.Stop()

	_, ok := <-c.send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())

	// Calls after shutdown return immediately
	hub.Register(newTestClient(hub, 1))
	hub.Stop()
}

func TestHub_RunAfterStopReturns(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	go hub.Run(context.Background())
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.running
	}, time.Second, 5*time.Millisecond)

	hub.Stop()

	returned := make(chan struct{})
	go func() {
		hub.Run(context.Background())
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("second Run did not return")
	}

	hub.Stop()
}
