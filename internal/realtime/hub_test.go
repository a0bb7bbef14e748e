package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := uuid.New().String()

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	first := SSEMessage{Channel: channel, Event: SSEEventStatusChanged, Data: map[string]any{"seq": 1}}
	second := SSEMessage{Channel: channel, Event: SSEEventLocationChanged, Data: map[string]any{"seq": 2}}
	hub.Broadcast(first)
	hub.Broadcast(second)

	gotFirst := recvMessage(t, clientA.Outbound, time.Second)
	gotSecond := recvMessage(t, clientA.Outbound, time.Second)
	if gotFirst.Event != SSEEventStatusChanged {
		t.Fatalf("first event: want=%s got=%s", SSEEventStatusChanged, gotFirst.Event)
	}
	if gotSecond.Event != SSEEventLocationChanged {
		t.Fatalf("second event: want=%s got=%s", SSEEventLocationChanged, gotSecond.Event)
	}

	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	reconnect := SSEMessage{Channel: channel, Event: SSEEventDeliveryReceived, Data: map[string]any{"seq": 3}}
	hub.Broadcast(reconnect)
	gotReconnect := recvMessage(t, clientB.Outbound, time.Second)
	if gotReconnect.Event != SSEEventDeliveryReceived {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventDeliveryReceived, gotReconnect.Event)
	}
}

// A reconnect closes the replaced client from the new stream's goroutine
// while the old stream's handler still closes it on exit, so closing twice
// must be a no-op rather than a panic.
func TestSSEHubCloseClientTwice(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, uuid.New().String())

	hub.CloseClient(client)
	hub.CloseClient(client)

	select {
	case <-client.done:
	default:
		t.Fatalf("client done should be closed")
	}
}

func TestSSEHubIsolatesChannels(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	projectA := uuid.New().String()
	projectB := uuid.New().String()

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, projectA)
	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, projectB)

	hub.Broadcast(SSEMessage{Channel: projectA, Event: SSEEventPieceMarkCreated})

	recvMessage(t, clientA.Outbound, time.Second)
	select {
	case msg := <-clientB.Outbound:
		t.Fatalf("clientB should not receive another project's event, got %s", msg.Event)
	case <-time.After(100 * time.Millisecond):
	}
}
