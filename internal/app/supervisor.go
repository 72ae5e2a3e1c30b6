package app

import (
	"context"
	"sync"
	"time"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

type SupervisorOptions struct {
	// Fenêtre de confirmation starting -> running. Une sortie pendant cette
	// fenêtre est traitée comme un échec de lancement (pas de retry).
	StartupGrace time.Duration
	// Attente max d'un Stop avant de rendre la main; le monitor finit le
	// travail et le prochain poll voit la transition.
	StopTimeout time.Duration
	// Policy de relance après sortie inattendue (y compris code 0).
	RetryCount int
	RetryDelay time.Duration
}

func DefaultSupervisorOptions() SupervisorOptions {
	return SupervisorOptions{
		StartupGrace: 2 * time.Second,
		StopTimeout:  500 * time.Millisecond,
		RetryCount:   1,
		RetryDelay:   10 * time.Second,
	}
}

// Supervisor possède l'unique slot de process externe.
//
// Invariant: au plus une session en starting/running; toute erreur laisse le
// slot avec zéro ou une session traquée. Les starts concurrents sont rejetés
// (ErrAlreadyRunning), jamais mis en file.
type Supervisor struct {
	logger   zerolog.Logger
	launcher ports.Launcher
	bus      ports.EventBus

	mu          sync.Mutex
	opts        SupervisorOptions
	current     *watchSession
	lastFailure *domain.WatchSession
}

// watchSession est l'état interne mutable; domain.WatchSession en est le
// snapshot exposé.
type watchSession struct {
	domain.WatchSession
	req           domain.WatchRequest
	proc          ports.Process
	stopRequested bool
}

func NewSupervisor(logger zerolog.Logger, launcher ports.Launcher, bus ports.EventBus, opts SupervisorOptions) *Supervisor {
	def := DefaultSupervisorOptions()
	if opts.StartupGrace <= 0 {
		opts.StartupGrace = def.StartupGrace
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = def.StopTimeout
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = def.RetryCount
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	return &Supervisor{logger: logger, launcher: launcher, bus: bus, opts: opts}
}

// SetRetryPolicy applique la policy à chaud (depuis les settings).
func (s *Supervisor) SetRetryPolicy(count int, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count >= 0 {
		s.opts.RetryCount = count
	}
	if delay > 0 {
		s.opts.RetryDelay = delay
	}
}

type SupervisorStatus struct {
	// Active est la session en starting/running, nil si idle.
	Active *domain.WatchSession
	// LastFailure est le dernier échec surfacé, remis à zéro au start suivant.
	LastFailure *domain.WatchSession
}

// Status est le poll() du contrat: instantané, jamais bloquant.
func (s *Supervisor) Status() SupervisorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SupervisorStatus{}
	if s.current != nil {
		c := s.current.WatchSession
		st.Active = &c
	}
	if s.lastFailure != nil {
		f := *s.lastFailure
		st.LastFailure = &f
	}
	return st
}

// Start réserve le slot puis lance le process. Renvoie ErrAlreadyRunning si
// une session est déjà en starting/running, sans toucher à celle-ci.
func (s *Supervisor) Start(ctx context.Context, req domain.WatchRequest) (domain.WatchSession, error) {
	s.mu.Lock()
	if s.current != nil && !s.current.State.IsTerminal() {
		cur := s.current.WatchSession
		s.mu.Unlock()
		return cur, ErrAlreadyRunning
	}

	sess := &watchSession{
		WatchSession: domain.WatchSession{
			ID:        xid.New().String(),
			Channel:   req.Channel,
			Quality:   req.Quality,
			Trigger:   req.Trigger,
			State:     domain.SessionStarting,
			ExitCode:  -1,
			StartedAt: time.Now().UTC(),
		},
		req: req,
	}
	// Le slot est réservé avant le lancement: un start concurrent pendant
	// l'exec est déjà rejeté.
	s.current = sess
	s.lastFailure = nil
	s.mu.Unlock()

	if err := s.launch(ctx, sess); err != nil {
		return domain.WatchSession{}, err
	}

	s.mu.Lock()
	snap := sess.WatchSession
	s.mu.Unlock()
	return snap, nil
}

// launch démarre (ou relance) le process de la session. Appelé avec le slot
// déjà réservé.
func (s *Supervisor) launch(ctx context.Context, sess *watchSession) error {
	proc, err := s.launcher.Start(ctx, sess.req)
	if err != nil {
		coded := NewLaunchError(err)
		s.mu.Lock()
		s.setStateLocked(sess, domain.SessionFailed)
		sess.EndedAt = time.Now().UTC()
		sess.ErrorCode = coded.Code
		sess.ErrorMessage = coded.Error()
		snap := sess.WatchSession
		s.releaseLocked(sess)
		s.mu.Unlock()

		s.logger.Error().Err(err).Str("channel", sess.Channel).Msg("launch failed")
		s.publish("watch.failed", snap)
		return coded
	}

	s.mu.Lock()
	if s.current != sess || sess.stopRequested {
		// Stop a libéré le slot pendant l'exec: ce process n'est traqué par
		// personne, on le termine tout de suite au lieu de l'adopter.
		stopTimeout := s.opts.StopTimeout
		s.mu.Unlock()

		s.logger.Info().
			Str("session_id", sess.ID).
			Int("pid", proc.PID()).
			Msg("session stopped during launch, terminating process")
		_ = proc.Terminate()
		go func() {
			select {
			case <-proc.Done():
			case <-time.After(stopTimeout):
				_ = proc.Kill()
			}
		}()
		return nil
	}
	sess.proc = proc
	sess.PID = proc.PID()
	snap := sess.WatchSession
	s.mu.Unlock()

	s.logger.Info().
		Str("session_id", sess.ID).
		Str("channel", sess.Channel).
		Str("quality", sess.Quality).
		Int("pid", snap.PID).
		Msg("player process started")
	s.publish("watch.started", snap)

	go s.confirmRunning(sess, proc)
	go s.monitor(sess, proc)
	return nil
}

// confirmRunning passe la session en running si le process survit à la
// fenêtre de démarrage.
func (s *Supervisor) confirmRunning(sess *watchSession, proc ports.Process) {
	s.mu.Lock()
	grace := s.opts.StartupGrace
	s.mu.Unlock()

	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-proc.Done():
		// Sortie prématurée: le monitor s'en charge.
		return
	case <-t.C:
	}

	s.mu.Lock()
	if s.current != sess || sess.proc != proc || sess.State != domain.SessionStarting {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(sess, domain.SessionRunning)
	snap := sess.WatchSession
	s.mu.Unlock()

	s.logger.Info().Str("session_id", snap.ID).Str("channel", snap.Channel).Msg("playback running")
	s.publish("watch.running", snap)
}

// monitor attend la fin du process et applique la policy de sortie.
func (s *Supervisor) monitor(sess *watchSession, proc ports.Process) {
	<-proc.Done()
	code := proc.ExitCode()
	now := time.Now().UTC()

	s.mu.Lock()
	if s.current != sess || sess.proc != proc {
		// Session remplacée entre-temps, rien à faire.
		s.mu.Unlock()
		return
	}

	if sess.stopRequested {
		s.setStateLocked(sess, domain.SessionExited)
		sess.EndedAt = now
		sess.ExitCode = code
		snap := sess.WatchSession
		s.releaseLocked(sess)
		s.mu.Unlock()

		s.logger.Info().Str("session_id", snap.ID).Int("exit_code", code).Msg("playback stopped")
		s.publish("watch.exited", snap)
		return
	}

	if sess.State == domain.SessionStarting {
		// Sortie immédiate pendant la fenêtre de démarrage: échec de
		// lancement, fatal pour cette requête.
		coded := NewLaunchError(NewCrashError(code, proc.StderrTail()))
		s.setStateLocked(sess, domain.SessionFailed)
		sess.EndedAt = now
		sess.ExitCode = code
		sess.ErrorCode = coded.Code
		sess.ErrorMessage = coded.Error()
		snap := sess.WatchSession
		s.releaseLocked(sess)
		s.mu.Unlock()

		s.logger.Error().Str("session_id", snap.ID).Int("exit_code", code).Msg("player exited during startup")
		s.publish("watch.failed", snap)
		return
	}

	// Sortie inattendue après running. Le flux peut juste s'être terminé
	// (code 0): même policy de relance que pour un crash.
	retryCount := s.opts.RetryCount
	retryDelay := s.opts.RetryDelay
	if sess.Retries < retryCount {
		sess.Retries++
		s.setStateLocked(sess, domain.SessionStarting)
		sess.PID = 0
		sess.proc = nil
		snap := sess.WatchSession
		s.mu.Unlock()

		s.logger.Warn().
			Str("session_id", snap.ID).
			Int("exit_code", code).
			Int("attempt", snap.Retries).
			Dur("delay", retryDelay).
			Msg("player exited unexpectedly, retrying")
		s.publish("watch.retrying", snap)

		time.AfterFunc(retryDelay, func() {
			s.mu.Lock()
			if s.current != sess || sess.stopRequested {
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			if err := s.launch(context.Background(), sess); err != nil {
				s.logger.Error().Err(err).Str("session_id", sess.ID).Msg("retry launch failed")
			}
		})
		return
	}

	// Retries épuisés: échec visible, slot libéré.
	var coded *CodedError
	if code == 0 {
		coded = &CodedError{Code: CodeStreamEnded, Message: "stream ended (streamlink exited with code 0)"}
	} else {
		coded = NewCrashError(code, proc.StderrTail())
	}
	s.setStateLocked(sess, domain.SessionFailed)
	sess.EndedAt = now
	sess.ExitCode = code
	sess.ErrorCode = coded.Code
	sess.ErrorMessage = coded.Error()
	snap := sess.WatchSession
	s.releaseLocked(sess)
	s.mu.Unlock()

	s.logger.Error().
		Str("session_id", snap.ID).
		Int("exit_code", code).
		Int("retries", snap.Retries).
		Msg("playback failed")
	s.publish("watch.failed", snap)
}

// Stop termine la session active (process compris, pas juste le polling).
// Sans session active c'est un no-op.
func (s *Supervisor) Stop(ctx context.Context) (SupervisorStatus, error) {
	s.mu.Lock()
	sess := s.current
	if sess == nil {
		s.mu.Unlock()
		return s.Status(), nil
	}
	sess.stopRequested = true
	proc := sess.proc
	stopTimeout := s.opts.StopTimeout

	if proc == nil {
		// Retry en attente: pas de process à tuer.
		s.setStateLocked(sess, domain.SessionExited)
		sess.EndedAt = time.Now().UTC()
		snap := sess.WatchSession
		s.releaseLocked(sess)
		s.mu.Unlock()

		s.publish("watch.exited", snap)
		return s.Status(), nil
	}
	s.mu.Unlock()

	if err := proc.Terminate(); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("terminate failed")
	}

	select {
	case <-proc.Done():
	case <-ctx.Done():
		_ = proc.Kill()
	case <-time.After(stopTimeout):
		_ = proc.Kill()
		select {
		case <-proc.Done():
		case <-time.After(stopTimeout):
			// Toujours vivant: le monitor finalisera, on rend la main.
			s.logger.Warn().Str("session_id", sess.ID).Msg("stop still pending")
		}
	}

	return s.Status(), nil
}

func (s *Supervisor) setStateLocked(sess *watchSession, to domain.SessionState) {
	if !domain.CanTransition(sess.State, to) {
		s.logger.Error().
			Str("session_id", sess.ID).
			Str("from", string(sess.State)).
			Str("to", string(to)).
			Msg("invalid session transition")
		return
	}
	sess.State = to
}

// releaseLocked libère le slot; une session failed devient le dernier échec
// surfacé par Status.
func (s *Supervisor) releaseLocked(sess *watchSession) {
	if s.current != sess {
		return
	}
	if sess.State == domain.SessionFailed {
		f := sess.WatchSession
		s.lastFailure = &f
	}
	s.current = nil
}

func (s *Supervisor) publish(topic string, sess domain.WatchSession) {
	PublishWatchEvent(s.bus, topic, sess)
}
