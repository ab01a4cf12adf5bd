package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/holosched/backend/internal/cache"
	"github.com/holosched/backend/internal/models"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	mr := miniredis.RunT(t)

	redis, err := cache.NewRedisClient(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { redis.Close() })

	h := NewHub(redis)
	go h.Run()
	return h
}

func newTestClient(h *Hub, userID uuid.UUID) *Client {
	return &Client{
		hub:    h,
		send:   make(chan []byte, 16),
		userID: userID,
	}
}

func TestHub_RegisterReplacesClient(t *testing.T) {
	h := newTestHub(t)
	uid := uuid.New()

	first := newTestClient(h, uid)
	second := newTestClient(h, uid)

	h.register <- first
	h.register <- second

	// The first client's send channel is closed when the user reconnects
	select {
	case _, open := <-first.send:
		if open {
			t.Error("Expected the replaced client's send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("Expected the replaced client's send channel to be closed")
	}

	if got := h.ConnectedUsers(); got != 1 {
		t.Errorf("Expected 1 connected user, got %d", got)
	}
}

func TestHub_PublishedEventReachesOwner(t *testing.T) {
	h := newTestHub(t)
	uid := uuid.New()

	client := newTestClient(h, uid)
	h.register <- client

	ev := models.ScheduleEvent{
		Type:       models.EventStreamAdded,
		StreamerID: uid,
		StreamID:   uuid.New(),
		OccurredAt: time.Now().UTC(),
	}
	if err := h.redis.PublishScheduleEvent(ev); err != nil {
		t.Fatalf("Failed to publish event: %v", err)
	}

	select {
	case payload := <-client.send:
		var got models.ScheduleEvent
		if err := json.Unmarshal(payload, &got); err != nil {
			t.Fatalf("Failed to decode delivered event: %v", err)
		}
		if got.Type != ev.Type || got.StreamID != ev.StreamID {
			t.Errorf("Unexpected event delivered: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the event to reach the owner's client")
	}
}

// A delivery racing a reconnect must never hit a just-closed send channel.
func TestHub_DeliveryDuringReconnect(t *testing.T) {
	h := newTestHub(t)
	uid := uuid.New()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			h.register <- newTestClient(h, uid)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			h.sendToUser(uid, []byte(`{"type":"stream_added"}`))
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Hub deadlocked under concurrent reconnects and deliveries")
	}
}
