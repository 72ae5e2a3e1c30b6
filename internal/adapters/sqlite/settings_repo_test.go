package sqlite

import (
	"context"
	"testing"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
)

func TestSettingsRepository_DefaultsAndPersist(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSettingsRepository(db.SQL)

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get(default): %v", err)
	}
	if got.Player == "" || got.Quality == "" {
		t.Fatalf("expected default settings, got %+v", got)
	}

	want := domain.DefaultSettings()
	want.CookieFile = "/home/afk/cookies.txt"
	want.LowResource = true
	want.RetryCount = 3
	want.RetryDelaySeconds = 30

	updated, err := repo.Put(ctx, want)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if updated.CookieFile != want.CookieFile {
		t.Fatalf("CookieFile: want %q, got %q", want.CookieFile, updated.CookieFile)
	}
	if !updated.LowResource {
		t.Fatalf("LowResource not persisted")
	}
	if updated.RetryCount != 3 || updated.RetryDelaySeconds != 30 {
		t.Fatalf("retry policy not persisted: %+v", updated)
	}

	got2, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get(after Put): %v", err)
	}
	if got2.CookieFile != want.CookieFile {
		t.Fatalf("CookieFile after Put: want %q, got %q", want.CookieFile, got2.CookieFile)
	}
}
