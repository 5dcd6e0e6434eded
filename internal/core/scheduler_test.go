package core

import (
	"context"
	"testing"
	"time"

	"github.com/JonMunkholm/catalog/internal/store"
)

func TestStartReconcileScheduler_RefreshesUntilCancelled(t *testing.T) {
	mem := store.NewMemory()
	svc := NewService(mem, nil, Options{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartReconcileScheduler(ctx, 10*time.Millisecond)
		close(done)
	}()

	// written behind the session's back; only a refresh can pick it up
	if _, err := store.NewCatalog(mem).Create(context.Background(), product("Pump", "P-1", "1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	deadline := time.After(time.Second)
	for svc.set.Len() != 1 {
		select {
		case <-deadline:
			t.Fatal("scheduler never refreshed the catalog")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if svc.LastRefresh().IsZero() {
		t.Error("LastRefresh not recorded")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
