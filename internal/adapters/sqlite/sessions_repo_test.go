package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
)

func TestSessionsRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSessionsRepository(db.SQL)

	started := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	sess := domain.WatchSession{
		ID:        "sess-1",
		Channel:   "chan1",
		Quality:   "best",
		Trigger:   domain.TriggerManual,
		State:     domain.SessionStarting,
		PID:       4242,
		StartedAt: started,
		ExitCode:  -1,
	}

	stored, err := repo.Upsert(ctx, sess)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if stored.State != domain.SessionStarting {
		t.Fatalf("state: want %q, got %q", domain.SessionStarting, stored.State)
	}
	if !stored.StartedAt.Equal(started) {
		t.Fatalf("startedAt: want %v, got %v", started, stored.StartedAt)
	}
	if !stored.EndedAt.IsZero() {
		t.Fatalf("endedAt should stay zero while running, got %v", stored.EndedAt)
	}

	// Transition running -> failed: le snapshot complet écrase la ligne.
	sess.State = domain.SessionFailed
	sess.Retries = 1
	sess.EndedAt = started.Add(2 * time.Hour)
	sess.ExitCode = 1
	sess.ErrorCode = "player_crashed"
	sess.ErrorMessage = "streamlink exited with error code 1"

	updated, err := repo.Upsert(ctx, sess)
	if err != nil {
		t.Fatalf("Upsert(update): %v", err)
	}
	if updated.State != domain.SessionFailed {
		t.Fatalf("state: want %q, got %q", domain.SessionFailed, updated.State)
	}
	if updated.Retries != 1 || updated.ExitCode != 1 {
		t.Fatalf("retries/exitCode not persisted: %+v", updated)
	}
	if updated.ErrorCode != "player_crashed" {
		t.Fatalf("errorCode: want player_crashed, got %q", updated.ErrorCode)
	}
	if !updated.EndedAt.Equal(sess.EndedAt) {
		t.Fatalf("endedAt: want %v, got %v", sess.EndedAt, updated.EndedAt)
	}

	got, err := repo.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Channel != "chan1" || got.Trigger != domain.TriggerManual {
		t.Fatalf("Get mismatch: %+v", got)
	}
}

func TestSessionsRepository_GetNotFound(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSessionsRepository(db.SQL)
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Get(missing): want ErrNotFound, got %v", err)
	}
}

func TestSessionsRepository_ListOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSessionsRepository(db.SQL)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s := domain.WatchSession{
			ID:        "sess-" + string(rune('a'+i)),
			Channel:   "chan1",
			Trigger:   domain.TriggerSchedule,
			State:     domain.SessionExited,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if _, err := repo.Upsert(ctx, s); err != nil {
			t.Fatalf("Upsert(%d): %v", i, err)
		}
	}

	got, err := repo.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limit: want 3, got %d", len(got))
	}
	// Plus récent d'abord.
	if got[0].ID != "sess-e" || got[2].ID != "sess-c" {
		t.Fatalf("order: got %q, %q, %q", got[0].ID, got[1].ID, got[2].ID)
	}

	all, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("List(0): %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("default limit should return all 5, got %d", len(all))
	}
}
