// Package streamlink lance le couple resolver (streamlink) + player (mpv)
// comme un seul process enfant, dans son propre groupe pour pouvoir tout
// arrêter d'un coup.
package streamlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/cookies"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
)

const stderrTailSize = 2048

// Arguments mpv pour le visionnage AFK: muet, sans fenêtre visible, conso
// minimale.
var defaultPlayerArgs = []string{
	"--mute=yes",
	"--really-quiet",
	"--no-border",
	"--geometry=0x0+0x0",
	"--no-osc",
	"--idle=once",
}

type Options struct {
	// Binary est l'exécutable resolver ("streamlink" dans le PATH par défaut).
	Binary string
	// SettingsFunc fournit les settings au moment du launch (hot-reload,
	// même pattern que les workers du serveur).
	SettingsFunc func(ctx context.Context) (domain.Settings, error)
}

type Launcher struct {
	logger zerolog.Logger
	opts   Options
}

func New(logger zerolog.Logger, opts Options) *Launcher {
	if opts.Binary == "" {
		opts.Binary = "streamlink"
	}
	return &Launcher{logger: logger, opts: opts}
}

// Args construit la séquence d'arguments streamlink pour une requête.
// La séquence est fixe; seuls channel/qualité/cookies varient.
func Args(req domain.WatchRequest, cfg domain.Settings) []string {
	player := cfg.Player
	if player == "" {
		player = "mpv"
	}
	streamRetries := cfg.StreamRetries
	if streamRetries <= 0 {
		streamRetries = 5
	}
	quality := req.Quality
	if quality == "" {
		quality = "best"
	}

	args := []string{
		"--player-no-close",
		"--player", player,
		"--player-args", strings.Join(defaultPlayerArgs, " "),
		"--retry-streams", strconv.Itoa(streamRetries),
		"--twitch-disable-ads",
	}
	if req.CookieFile != "" {
		args = append(args, "--twitch-cookies-path", req.CookieFile)
	}
	args = append(args, "https://twitch.tv/"+req.Channel, quality)
	return args
}

// Start résout l'exécutable et lance le process sans attendre sa fin.
// Un exécutable introuvable ou un exec raté remontent en erreur immédiate.
func (l *Launcher) Start(ctx context.Context, req domain.WatchRequest) (ports.Process, error) {
	cfg := domain.DefaultSettings()
	if l.opts.SettingsFunc != nil {
		var err error
		cfg, err = l.opts.SettingsFunc(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
	}

	if req.CookieFile != "" {
		// Preflight best-effort: un jar expiré est la cause la plus fréquente
		// de sortie immédiate sans stderr exploitable.
		if rep, err := cookies.Check(req.CookieFile, time.Now()); err == nil {
			for _, w := range rep.Warnings {
				l.logger.Warn().Str("cookies", req.CookieFile).Msg(w)
			}
		}
	}

	bin, err := exec.LookPath(l.opts.Binary)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH (is it installed?): %w", l.opts.Binary, err)
	}

	args := Args(req, cfg)
	cmd := exec.Command(bin, args...)
	// Groupe de process dédié: Terminate/Kill touchent streamlink ET mpv.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	tail := &tailBuffer{limit: stderrTailSize}
	cmd.Stdout = io.Discard
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", l.opts.Binary, err)
	}

	l.logger.Debug().
		Str("channel", req.Channel).
		Str("quality", req.Quality).
		Int("pid", cmd.Process.Pid).
		Strs("args", args).
		Msg("spawned player process")

	p := &process{cmd: cmd, stderr: tail, done: make(chan struct{}), exitCode: -1}
	go p.wait()
	return p, nil
}

type process struct {
	cmd    *exec.Cmd
	stderr *tailBuffer
	done   chan struct{}

	mu       sync.Mutex
	exitCode int
}

func (p *process) wait() {
	err := p.cmd.Wait()

	p.mu.Lock()
	if err == nil {
		p.exitCode = 0
	} else {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			p.exitCode = exitErr.ExitCode()
		}
	}
	p.mu.Unlock()
	close(p.done)
}

func (p *process) PID() int {
	return p.cmd.Process.Pid
}

func (p *process) Done() <-chan struct{} {
	return p.done
}

func (p *process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

func (p *process) StderrTail() string {
	return strings.TrimSpace(p.stderr.String())
}

func (p *process) Terminate() error {
	return p.signal(syscall.SIGTERM)
}

func (p *process) Kill() error {
	return p.signal(syscall.SIGKILL)
}

func (p *process) signal(sig syscall.Signal) error {
	// PID négatif = tout le groupe (Setpgid au lancement).
	err := syscall.Kill(-p.cmd.Process.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		// Déjà sorti.
		return nil
	}
	return err
}

// tailBuffer garde les derniers octets écrits, borné.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
