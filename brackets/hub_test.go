package brackets

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

// waitIdle blocks until the hub has finished handling every earlier request:
// Register is unbuffered, so the send only completes once Run is back in
// its select loop.
func waitIdle(h *Hub) {
	h.Register <- &Client{Hub: h, Send: make(chan []byte, 1), Room: "idle"}
}

func TestHubPublishToRoom(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()

	watcher := &Client{Hub: hub, Send: make(chan []byte, 4), Room: RoomForRun("run-1")}
	other := &Client{Hub: hub, Send: make(chan []byte, 4), Room: RoomForRun("run-2")}
	hub.Register <- watcher
	hub.Register <- other
	waitIdle(hub)

	hub.Publish("run-1", MessageGamePlayed, map[string]int{"sequence": 1})

	select {
	case raw := <-watcher.Send:
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]int `json:"payload"`
			RoomID  string         `json:"room_id"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("invalid message %s: %v", raw, err)
		}
		if msg.Type != MessageGamePlayed || msg.RoomID != "simulation_run-1" || msg.Payload["sequence"] != 1 {
			t.Errorf("message = %+v", msg)
		}
	default:
		t.Fatal("watcher received nothing")
	}

	if len(other.Send) != 0 {
		t.Errorf("client of another run received %d messages", len(other.Send))
	}

	hub.Unregister <- watcher
	waitIdle(hub)
	if _, ok := <-watcher.Send; ok {
		t.Errorf("Send channel still open after unregister")
	}

	// Publishing to a room without clients is a no-op.
	hub.Publish("run-1", MessageRunFinished, nil)
}

func TestHubSkipsFullClients(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()

	slow := &Client{Hub: hub, Send: make(chan []byte, 1), Room: RoomForRun("r")}
	hub.Register <- slow
	waitIdle(hub)

	hub.Publish("r", MessageRunStarted, nil)
	hub.Publish("r", MessageGamePlayed, nil)

	if got := len(slow.Send); got != 1 {
		t.Fatalf("buffered messages = %d, want 1", got)
	}
}
