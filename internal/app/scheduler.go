package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
)

// scheduleStarter est ce dont le scheduler a besoin du WatchService.
type scheduleStarter interface {
	start(ctx context.Context, channel, quality string, trigger domain.Trigger) (SessionDTO, error)
}

// Scheduler maintient l'unique créneau quotidien en mémoire et demande un
// visionnage au tick correspondant.
type Scheduler struct {
	logger  zerolog.Logger
	starter scheduleStarter
	bus     ports.EventBus

	TickInterval time.Duration
	// Now est injectable pour les tests.
	Now func() time.Time

	mu        sync.Mutex
	entry     *domain.ScheduleEntry
	expr      string
	lastFired string // date "2006-01-02" du dernier déclenchement
	gron      *gronx.Gronx
}

func NewScheduler(logger zerolog.Logger, watch *WatchService, bus ports.EventBus) *Scheduler {
	return &Scheduler{
		logger:       logger,
		starter:      watch,
		bus:          bus,
		TickInterval: 60 * time.Second,
		Now:          time.Now,
		gron:         gronx.New(),
	}
}

// Arm (ré)arme le créneau. Ré-armer remet le garde-fou "une fois par jour" à
// zéro pour la nouvelle entrée.
func (sch *Scheduler) Arm(entry domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	if err := entry.Validate(); err != nil {
		return domain.ScheduleEntry{}, err
	}
	expr, err := entry.CronExpr()
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	if !sch.gron.IsValid(expr) {
		return domain.ScheduleEntry{}, domain.ErrInvalidTimeOfDay
	}

	sch.mu.Lock()
	e := entry
	sch.entry = &e
	sch.expr = expr
	sch.lastFired = ""
	sch.mu.Unlock()

	sch.logger.Info().Str("time", entry.TimeOfDay).Str("channel", entry.Channel).Msg("schedule armed")
	sch.publishEntry("schedule.armed", entry)
	return entry, nil
}

// Disarm est idempotent; un tick après disarm est un no-op.
func (sch *Scheduler) Disarm() {
	sch.mu.Lock()
	armed := sch.entry != nil
	sch.entry = nil
	sch.expr = ""
	sch.mu.Unlock()

	if !armed {
		return
	}
	sch.logger.Info().Msg("schedule disarmed")
	if sch.bus != nil {
		sch.bus.Publish("schedule.disarmed", []byte(`{}`))
	}
}

func (sch *Scheduler) Current() (domain.ScheduleEntry, bool) {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	if sch.entry == nil {
		return domain.ScheduleEntry{}, false
	}
	return *sch.entry, true
}

// NextRun calcule la prochaine occurrence du créneau armé.
func (sch *Scheduler) NextRun() (time.Time, bool) {
	sch.mu.Lock()
	expr := sch.expr
	enabled := sch.entry != nil && sch.entry.Enabled
	sch.mu.Unlock()

	if !enabled {
		return time.Time{}, false
	}
	next, err := gronx.NextTickAfter(expr, sch.Now(), false)
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

func (sch *Scheduler) LastFired() string {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	return sch.lastFired
}

func (sch *Scheduler) Run(ctx context.Context) {
	interval := sch.TickInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sch.logger.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			sch.tick(ctx)
		}
	}
}

func (sch *Scheduler) tick(ctx context.Context) {
	now := sch.Now()

	sch.mu.Lock()
	if sch.entry == nil || !sch.entry.Enabled {
		sch.mu.Unlock()
		return
	}
	today := now.Format("2006-01-02")
	if sch.lastFired == today {
		// Déjà déclenché aujourd'hui.
		sch.mu.Unlock()
		return
	}
	due, err := sch.gron.IsDue(sch.expr, now)
	if err != nil || !due {
		sch.mu.Unlock()
		return
	}
	// Marqué avant le start: un échec de lancement ne re-déclenche pas.
	sch.lastFired = today
	entry := *sch.entry
	sch.mu.Unlock()

	sch.logger.Info().Str("channel", entry.Channel).Str("time", entry.TimeOfDay).Msg("schedule fired")
	sch.publishEntry("schedule.fired", entry)

	_, err = sch.starter.start(ctx, entry.Channel, entry.Quality, domain.TriggerSchedule)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		sch.logger.Info().Str("channel", entry.Channel).Msg("scheduled watch skipped, session already active")
	case err != nil:
		sch.logger.Warn().Err(err).Str("channel", entry.Channel).Msg("scheduled watch failed to start")
	}
}

func (sch *Scheduler) publishEntry(topic string, entry domain.ScheduleEntry) {
	if sch.bus == nil {
		return
	}
	b, err := json.Marshal(ToScheduleDTO(entry))
	if err != nil {
		return
	}
	sch.bus.Publish(topic, b)
}

type ScheduleDTO struct {
	TimeOfDay string `json:"timeOfDay"`
	Channel   string `json:"channel"`
	Quality   string `json:"quality,omitempty"`
	Enabled   bool   `json:"enabled"`
}

func ToScheduleDTO(e domain.ScheduleEntry) ScheduleDTO {
	return ScheduleDTO{TimeOfDay: e.TimeOfDay, Channel: e.Channel, Quality: e.Quality, Enabled: e.Enabled}
}

func (d ScheduleDTO) ToDomain() domain.ScheduleEntry {
	return domain.ScheduleEntry{TimeOfDay: d.TimeOfDay, Channel: d.Channel, Quality: d.Quality, Enabled: d.Enabled}
}
