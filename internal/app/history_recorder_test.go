package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
)

type memSessionsRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.WatchSession
}

func newMemSessionsRepo() *memSessionsRepo {
	return &memSessionsRepo{sessions: map[string]domain.WatchSession{}}
}

func (r *memSessionsRepo) Upsert(ctx context.Context, s domain.WatchSession) (domain.WatchSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return s, nil
}

func (r *memSessionsRepo) Get(ctx context.Context, id string) (domain.WatchSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.WatchSession{}, ports.ErrNotFound
	}
	return s, nil
}

func (r *memSessionsRepo) List(ctx context.Context, limit int) ([]domain.WatchSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.WatchSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out, nil
}

func TestHistoryRecorder_PersistsWatchEvents(t *testing.T) {
	bus := memorybus.New()
	t.Cleanup(bus.Close)
	repo := newMemSessionsRepo()

	rec := NewHistoryRecorder(zerolog.Nop(), bus, repo)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go rec.Run(ctx)

	// Laisse le temps au subscribe de s'installer.
	time.Sleep(10 * time.Millisecond)

	sess := domain.WatchSession{
		ID:      "sess-1",
		Channel: "chan1",
		State:   domain.SessionRunning,
		PID:     7,
	}
	PublishWatchEvent(bus, "watch.running", sess)

	waitFor(t, "session recorded", func() bool {
		_, err := repo.Get(context.Background(), "sess-1")
		return err == nil
	})
	got, _ := repo.Get(context.Background(), "sess-1")
	if got.State != domain.SessionRunning || got.Channel != "chan1" {
		t.Fatalf("recorded session mismatch: %+v", got)
	}

	// Les events hors watch.* sont ignorés.
	bus.Publish("schedule.fired", []byte(`{"id":"sess-2"}`))
	time.Sleep(20 * time.Millisecond)
	if _, err := repo.Get(context.Background(), "sess-2"); err == nil {
		t.Fatalf("schedule event must not be recorded as a session")
	}
}
