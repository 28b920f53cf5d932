package store

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func newTestSQLiteStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreAppendAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s := newTestSQLiteStore(t, path)
	s.Append(testMessage(1, "first"))
	s.Append(testMessage(2, "second"))
	s.Close()

	reloaded := newTestSQLiteStore(t, path)
	msgs := reloaded.All()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages after reload, got %d", len(msgs))
	}
	if msgs[0].Body != "first" || msgs[1].Body != "second" {
		t.Errorf("reload lost order: %+v", msgs)
	}
}

func TestSQLiteStoreTrimsToBound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s := newTestSQLiteStore(t, path)
	for i := 1; i <= MaxHistory+10; i++ {
		s.Append(testMessage(int64(i), "msg"))
	}
	s.Close()

	reloaded := newTestSQLiteStore(t, path)
	msgs := reloaded.All()
	if len(msgs) != MaxHistory {
		t.Fatalf("expected mirrored history capped at %d, got %d", MaxHistory, len(msgs))
	}
	if msgs[0].ID != 11 {
		t.Errorf("expected oldest surviving id 11, got %d", msgs[0].ID)
	}
}
