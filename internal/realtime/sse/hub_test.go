package sse

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"serviceconnect_backend/platform/logger"
)

func TestPublishDeliversToConnectedClient(t *testing.T) {
	h := NewHub(logger.New("development"))
	userID := uuid.New()

	cl := &client{userID: userID, events: make(chan Event, 4)}
	h.addClient(cl)

	h.Publish(userID, Event{Type: EventMessage})

	select {
	case event := <-cl.events:
		if event.Type != EventMessage {
			t.Errorf("event type = %q, want %q", event.Type, EventMessage)
		}
	default:
		t.Fatal("expected a queued event")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	h := NewHub(logger.New("development"))
	userID := uuid.New()

	cl := &client{userID: userID, events: make(chan Event, 1)}
	h.addClient(cl)

	h.Publish(userID, Event{Type: EventMessage})
	h.Publish(userID, Event{Type: EventAnnouncement})

	if got := len(cl.events); got != 1 {
		t.Errorf("queued events = %d, want 1", got)
	}
}

func TestRemoveClientClosesChannel(t *testing.T) {
	h := NewHub(logger.New("development"))
	userID := uuid.New()

	cl := &client{userID: userID, events: make(chan Event, 1)}
	h.addClient(cl)
	h.removeClient(cl)

	if _, ok := <-cl.events; ok {
		t.Error("expected the event channel closed after removal")
	}

	// Publishing after removal reaches no one and must not panic.
	h.Publish(userID, Event{Type: EventMessage})
}

func TestPublishDuringDisconnectDoesNotPanic(t *testing.T) {
	h := NewHub(logger.New("development"))
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		cl := &client{userID: userID, events: make(chan Event, 1)}
		h.addClient(cl)

		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.PublishToMany([]uuid.UUID{userID}, Event{Type: EventMessage})
			}
		}()
		go func(c *client) {
			defer wg.Done()
			h.removeClient(c)
		}(cl)
	}
	wg.Wait()
}

func TestCloseAfterRemoveIsSafe(t *testing.T) {
	h := NewHub(logger.New("development"))
	userID := uuid.New()

	cl := &client{userID: userID, events: make(chan Event, 1)}
	h.addClient(cl)
	h.removeClient(cl)
	h.Close()
}
