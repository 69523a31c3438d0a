// internal/state/session_test.go
package state

import (
	"context"
	"errors"
	"testing"

	"github.com/user/overseer/internal/types"
)

func TestSessionStoreCreateAndGet(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	ctx := context.Background()

	created, err := store.Create(ctx, "monitoring_demo", "user123", "session_001")
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Error("expected session ID to be assigned")
	}

	got, err := store.Get(ctx, "monitoring_demo", "user123", "session_001")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != created.ID {
		t.Errorf("expected %s, got %s", created.ID, got.ID)
	}

	// Create is idempotent for the same triple
	again, err := store.Create(ctx, "monitoring_demo", "user123", "session_001")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != created.ID {
		t.Errorf("expected same session on repeat create, got %s", again.ID)
	}
}

func TestSessionStoreGetMissing(t *testing.T) {
	store := NewSessionStore(t.TempDir())

	_, err := store.Get(context.Background(), "app", "nobody", "nothing")
	if !errors.Is(err, types.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	ctx := context.Background()

	if _, err := store.Create(ctx, "app", "u", "s"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "app", "u", "s"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "app", "u", "s"); !errors.Is(err, types.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "app", "u", "s"); !errors.Is(err, types.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on double delete, got %v", err)
	}
}

func TestSessionStoreList(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := store.Create(ctx, "app", "u", name); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 3 {
		t.Errorf("expected 3 sessions, got %d", len(sessions))
	}
}
