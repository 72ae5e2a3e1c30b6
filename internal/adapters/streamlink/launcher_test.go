package streamlink

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
)

func TestArgs(t *testing.T) {
	req := domain.WatchRequest{
		Channel:    "somechannel",
		Quality:    "720p",
		CookieFile: "/tmp/cookies.txt",
	}
	cfg := domain.DefaultSettings()

	got := Args(req, cfg)
	want := []string{
		"--player-no-close",
		"--player", "mpv",
		"--player-args", "--mute=yes --really-quiet --no-border --geometry=0x0+0x0 --no-osc --idle=once",
		"--retry-streams", "5",
		"--twitch-disable-ads",
		"--twitch-cookies-path", "/tmp/cookies.txt",
		"https://twitch.tv/somechannel", "720p",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Args:\n got %q\nwant %q", got, want)
	}
}

func TestArgs_Defaults(t *testing.T) {
	got := Args(domain.WatchRequest{Channel: "c"}, domain.Settings{})

	joined := strings.Join(got, " ")
	if !strings.Contains(joined, "--player mpv") {
		t.Fatalf("missing default player: %q", joined)
	}
	if !strings.Contains(joined, "--retry-streams 5") {
		t.Fatalf("missing default retry-streams: %q", joined)
	}
	if strings.Contains(joined, "--twitch-cookies-path") {
		t.Fatalf("cookie flag must be omitted without a cookie file: %q", joined)
	}
	if got[len(got)-1] != "best" {
		t.Fatalf("default quality: want best, got %q", got[len(got)-1])
	}
}

func TestLauncher_StartMissingBinary(t *testing.T) {
	l := New(zerolog.Nop(), Options{Binary: "definitely-not-a-real-binary-taw"})
	_, err := l.Start(context.Background(), domain.WatchRequest{Channel: "c"})
	if err == nil {
		t.Fatalf("expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "not found in PATH") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestLauncher_StartAndTerminate lance un vrai process (script shell) et
// vérifie le cycle Start -> Terminate -> Done.
func TestLauncher_StartAndTerminate(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-streamlink")
	content := "#!/bin/sh\necho boom >&2\nsleep 30\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	l := New(zerolog.Nop(), Options{Binary: script})
	proc, err := l.Start(context.Background(), domain.WatchRequest{Channel: "c"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if proc.PID() <= 0 {
		t.Fatalf("expected a PID, got %d", proc.PID())
	}

	select {
	case <-proc.Done():
		t.Fatalf("process exited immediately")
	case <-time.After(50 * time.Millisecond):
	}

	if err := proc.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	select {
	case <-proc.Done():
	case <-time.After(2 * time.Second):
		_ = proc.Kill()
		t.Fatalf("process did not exit after SIGTERM")
	}

	if proc.ExitCode() == 0 {
		t.Fatalf("terminated process should not report exit code 0")
	}
	if !strings.Contains(proc.StderrTail(), "boom") {
		t.Fatalf("stderr tail: want boom, got %q", proc.StderrTail())
	}

	// Terminate après la fin est toléré (process group déjà parti).
	if err := proc.Terminate(); err != nil {
		t.Fatalf("Terminate after exit: %v", err)
	}
}
