package ws

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestHubRegisterUnregister(t *testing.T) {
	h := NewHub(zerolog.Nop())

	c1 := &client{userID: "u1", send: make(chan []byte, 1)}
	c2 := &client{userID: "u1", send: make(chan []byte, 1)}
	c3 := &client{userID: "u2", send: make(chan []byte, 1)}

	h.register(c1)
	h.register(c2)
	h.register(c3)

	if h.UserConnections("u1") != 2 {
		t.Errorf("expected 2 connections for u1, got %d", h.UserConnections("u1"))
	}
	if h.ConnectedUsers() != 2 {
		t.Errorf("expected 2 users, got %d", h.ConnectedUsers())
	}

	h.unregister(c1)
	if h.UserConnections("u1") != 1 {
		t.Errorf("expected 1 connection after unregister, got %d", h.UserConnections("u1"))
	}

	h.unregister(c2)
	if h.ConnectedUsers() != 1 {
		t.Errorf("expected u1 removed entirely, got %d users", h.ConnectedUsers())
	}

	// double unregister is a no-op
	h.unregister(c2)
}

func TestPushDeliversToAllUserConnections(t *testing.T) {
	h := NewHub(zerolog.Nop())

	c1 := &client{userID: "u1", send: make(chan []byte, 1)}
	c2 := &client{userID: "u1", send: make(chan []byte, 1)}
	other := &client{userID: "u2", send: make(chan []byte, 1)}
	h.register(c1)
	h.register(c2)
	h.register(other)

	h.Push("u1", Event{Kind: "reminder", Title: "Take aspirin"})

	for _, c := range []*client{c1, c2} {
		select {
		case raw := <-c.send:
			var ev Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				t.Fatalf("invalid event payload: %v", err)
			}
			if ev.Kind != "reminder" || ev.Title != "Take aspirin" {
				t.Errorf("unexpected event: %+v", ev)
			}
			if ev.Timestamp.IsZero() {
				t.Error("timestamp should be filled in")
			}
		default:
			t.Fatal("expected event on user connection")
		}
	}

	select {
	case <-other.send:
		t.Fatal("other user should not receive the event")
	default:
	}
}

func TestPushSkipsFullBuffers(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := &client{userID: "u1", send: make(chan []byte)} // unbuffered, no reader
	h.register(c)

	// must not block
	h.Push("u1", Event{Kind: "notification", Title: "hi"})
}

func TestPushToUnknownUserIsNoop(t *testing.T) {
	h := NewHub(zerolog.Nop())
	h.Push("nobody", Event{Kind: "reminder", Title: "x"})
}
