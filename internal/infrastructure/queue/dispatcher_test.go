package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

type collectingRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
}

func (r *collectingRepo) Insert(_ context.Context, entry *domain.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *collectingRepo) snapshot() []domain.ActivityEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ActivityEntry(nil), r.entries...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestDispatcher_PersistsEntries(t *testing.T) {
	repo := &collectingRepo{}
	d := NewDispatcher(2, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 10; i++ {
		d.Record(domain.ActivityEntry{
			ActorID:   "user-1",
			Action:    domain.ActivityLogin,
			Timestamp: time.Now(),
		})
	}

	waitFor(t, func() bool { return len(repo.snapshot()) == 10 })
}

func TestDispatcher_PerActorOrdering(t *testing.T) {
	repo := &collectingRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	actions := []string{domain.ActivityRegister, domain.ActivityLogin, domain.ActivityPasswordChange}
	for _, action := range actions {
		d.Record(domain.ActivityEntry{ActorID: "user-7", Action: action})
	}

	waitFor(t, func() bool { return len(repo.snapshot()) == len(actions) })

	// Same actor hashes to the same worker, so relative order holds.
	got := repo.snapshot()
	for i, action := range actions {
		if got[i].Action != action {
			t.Fatalf("order broken at %d: expected %s, got %s", i, action, got[i].Action)
		}
	}
}

func TestDispatcher_RecordNeverBlocks(t *testing.T) {
	// Workers are never started, so buffers fill up; Record must drop
	// instead of blocking the caller.
	d := NewDispatcher(1, &collectingRepo{}, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < channelBuffer+10; i++ {
			d.Record(domain.ActivityEntry{ActorID: "user-1", Action: domain.ActivityLogin})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Record blocked on a full queue")
	}
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	d := NewDispatcher(2, &collectingRepo{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("workers did not stop on cancel")
	}
}
