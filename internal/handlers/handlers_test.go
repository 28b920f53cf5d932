package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/presence"
	"github.com/parley-chat/parley/internal/store"
)

type stubConns struct{ n int }

func (s stubConns) ClientCount() int { return s.n }

func newTestHandler(t *testing.T) (*Handler, *presence.Registry, store.HistoryStore) {
	t.Helper()
	history := store.NewFileStore(filepath.Join(t.TempDir(), "messages.json"), zerolog.Nop())
	registry := presence.NewRegistry()
	h := NewHandler(history, registry, stubConns{n: 3}, "test-instance")
	return h, registry, history
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestGetMessagesEmpty(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetMessages(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	var msgs []models.Message
	decodeBody(t, rec, &msgs)
	if len(msgs) != 0 {
		t.Fatalf("expected empty array, got %d messages", len(msgs))
	}
	if !strings.HasPrefix(body, "[") {
		t.Errorf("expected a JSON array, got %q", body)
	}
}

func TestGetMessagesReturnsHistory(t *testing.T) {
	h, _, history := newTestHandler(t)
	history.Append(models.Message{ID: 1, Sender: "alice", SenderID: "c1", Body: "hi", Timestamp: "2026-01-02T15:04:05Z"})
	history.Append(models.Message{ID: 2, Sender: "bob", SenderID: "c2", Body: "yo", Timestamp: "2026-01-02T15:04:06Z"})

	rec := httptest.NewRecorder()
	h.GetMessages(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))

	var msgs []models.Message
	decodeBody(t, rec, &msgs)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != 1 || msgs[1].ID != 2 {
		t.Errorf("history order lost: %+v", msgs)
	}
}

func TestGetUsers(t *testing.T) {
	h, registry, _ := newTestHandler(t)
	registry.Join("c1", "alice")
	registry.Join("c2", "bob")

	rec := httptest.NewRecorder()
	h.GetUsers(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var users []models.User
	decodeBody(t, rec, &users)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestStats(t *testing.T) {
	h, registry, history := newTestHandler(t)
	registry.Join("c1", "alice")
	registry.SetTyping("c1", true)
	history.Append(models.Message{ID: 1, Sender: "alice", SenderID: "c1", Body: "hi", Timestamp: "2026-01-02T15:04:05Z"})

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var stats StatsResponse
	decodeBody(t, rec, &stats)
	if stats.Connections != 3 {
		t.Errorf("expected 3 connections, got %d", stats.Connections)
	}
	if stats.RegisteredUsers != 1 || stats.TypingUsers != 1 || stats.HistoryLength != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.StartedAt == "" {
		t.Error("started_at missing")
	}
}

func TestHealthHealthy(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HealthResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "healthy" {
		t.Errorf("expected healthy, got %q", resp.Status)
	}
	if resp.Checks["history"].Status != "pass" {
		t.Errorf("expected history check pass, got %+v", resp.Checks)
	}
	if resp.Instance != "test-instance" {
		t.Errorf("expected instance id, got %q", resp.Instance)
	}
}

func TestRootLiveness(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected plain text, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "running") {
		t.Errorf("unexpected liveness body: %q", rec.Body.String())
	}
}
