package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/Dosada05/live-scoring/models"
	"github.com/Dosada05/live-scoring/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(h *Hub, id string, buffer int) *Client {
	c := &Client{id: id, hub: h, logger: discardLogger(), send: make(chan []byte, buffer)}
	h.Register(c)
	return c
}

func drain(c *Client) []Envelope {
	var out []Envelope
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return out
			}
			var env Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				panic(fmt.Sprintf("bad frame %s: %v", msg, err))
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestHub_JoinLeave(t *testing.T) {
	h := NewHub(discardLogger())
	a := newTestClient(h, "a", 8)
	b := newTestClient(h, "b", 8)

	h.Join(a, "m1")
	h.Join(a, "m1")
	h.Join(b, "m1")
	h.Join(a, "m2")

	if got := h.RoomSize("m1"); got != 2 {
		t.Errorf("RoomSize(m1) = %d, want 2", got)
	}
	if got := h.RoomSize("m2"); got != 1 {
		t.Errorf("RoomSize(m2) = %d, want 1", got)
	}

	h.Leave(b, "m1")
	if got := h.RoomSize("m1"); got != 1 {
		t.Errorf("RoomSize(m1) after leave = %d, want 1", got)
	}

	h.RemoveClient(a)
	h.RemoveClient(a)
	if h.RoomSize("m1") != 0 || h.RoomSize("m2") != 0 {
		t.Errorf("rooms not emptied: m1=%d m2=%d", h.RoomSize("m1"), h.RoomSize("m2"))
	}
	if _, ok := <-a.send; ok {
		t.Error("send queue of removed client is open")
	}
	if m := h.Metrics(); m.Clients != 1 || m.Rooms != 0 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestHub_BroadcastToRoom(t *testing.T) {
	h := NewHub(discardLogger())
	inRoom := newTestClient(h, "in", 8)
	elsewhere := newTestClient(h, "out", 8)
	h.Join(inRoom, "m1")
	h.Join(elsewhere, "m2")

	h.BroadcastToRoom("m1", models.Broadcast{
		Type:  models.BroadcastMatchUpdated,
		Sport: models.SportBadminton,
		Match: &models.Match{ID: "m1", Sport: models.SportBadminton, Status: models.StatusLive},
	})

	got := drain(inRoom)
	if len(got) != 1 || got[0].Event != models.BroadcastMatchUpdated {
		t.Fatalf("in-room frames = %+v", got)
	}
	var b models.Broadcast
	if err := json.Unmarshal(got[0].Data, &b); err != nil {
		t.Fatal(err)
	}
	if b.Match == nil || b.Match.ID != "m1" || b.Sport != models.SportBadminton {
		t.Errorf("broadcast data = %+v", b)
	}
	if other := drain(elsewhere); len(other) != 0 {
		t.Errorf("other room received %d frames", len(other))
	}
}

func TestHub_BroadcastKeepsOrder(t *testing.T) {
	h := NewHub(discardLogger())
	c := newTestClient(h, "c", 16)
	h.Join(c, "m1")

	for i := 1; i <= 5; i++ {
		h.BroadcastToRoom("m1", models.Broadcast{Type: models.BroadcastMatchUpdated, Match: &models.Match{ID: "m1", Version: int64(i)}})
	}
	frames := drain(c)
	if len(frames) != 5 {
		t.Fatalf("frames = %d", len(frames))
	}
	for i, f := range frames {
		var b models.Broadcast
		if err := json.Unmarshal(f.Data, &b); err != nil {
			t.Fatal(err)
		}
		if b.Match.Version != int64(i+1) {
			t.Errorf("frame %d version = %d", i, b.Match.Version)
		}
	}
}

func TestHub_SlowClientDisconnected(t *testing.T) {
	h := NewHub(discardLogger())
	slow := newTestClient(h, "slow", 1)
	fast := newTestClient(h, "fast", 8)
	h.Join(slow, "m1")
	h.Join(fast, "m1")

	h.BroadcastToRoom("m1", map[string]string{"n": "1"})
	h.BroadcastToRoom("m1", map[string]string{"n": "2"})

	if got := h.RoomSize("m1"); got != 1 {
		t.Errorf("RoomSize = %d, want 1", got)
	}
	if m := h.Metrics(); m.SlowDisconnects != 1 || m.Clients != 1 {
		t.Errorf("metrics = %+v", m)
	}
	if got := len(drain(fast)); got != 2 {
		t.Errorf("fast client frames = %d", got)
	}
	// после отключения очередь закрыта, повторная отправка ничего не ломает
	h.BroadcastToRoom("m1", map[string]string{"n": "3"})
}

func TestHub_RunShutdown(t *testing.T) {
	h := NewHub(discardLogger())
	c := newTestClient(h, "c", 1)
	h.Join(c, "m1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if _, ok := <-c.send; ok {
		t.Error("client queue still open after shutdown")
	}
	if h.ClientCount() != 0 || h.RoomSize("m1") != 0 {
		t.Errorf("hub not emptied: %+v", h.Metrics())
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("wrap: %w", services.ErrNotAuthorized), "not_authorized"},
		{services.ErrMatchNotFound, "match_not_found"},
		{services.ErrUnknownSport, "unknown_sport"},
		{services.ErrMatchClosed, "match_closed"},
		{services.ErrMatchNotLive, "match_not_live"},
		{services.ErrInvalidStatusTransition, "invalid_transition"},
		{services.ErrInvalidEventPayload, "invalid_payload"},
		{services.ErrValidationFailed, "invalid_payload"},
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("%w: boom", services.ErrPersistenceFailed), "internal_error"},
		{errors.New("boom"), "internal_error"},
	}
	for _, tt := range tests {
		code, msg := errorCode(tt.err)
		if code != tt.code {
			t.Errorf("errorCode(%v) = %s, want %s", tt.err, code, tt.code)
		}
		if code == "internal_error" && msg != "failed to process event" {
			t.Errorf("internal error leaked: %q", msg)
		}
	}
}
