package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
)

type fakeStarter struct {
	mu    sync.Mutex
	err   error
	calls []domain.WatchRequest
}

func (f *fakeStarter) start(ctx context.Context, channel, quality string, trigger domain.Trigger) (SessionDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, domain.WatchRequest{Channel: channel, Quality: quality, Trigger: trigger})
	if f.err != nil {
		return SessionDTO{}, f.err
	}
	return SessionDTO{ID: "sess", Channel: channel}, nil
}

func (f *fakeStarter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testScheduler(starter *fakeStarter) *Scheduler {
	return &Scheduler{
		logger:       zerolog.Nop(),
		starter:      starter,
		TickInterval: time.Minute,
		Now:          time.Now,
		gron:         gronx.New(),
	}
}

func TestScheduler_FiresOncePerDay(t *testing.T) {
	starter := &fakeStarter{}
	sch := testScheduler(starter)

	if _, err := sch.Arm(domain.ScheduleEntry{TimeOfDay: "20:00", Channel: "chan1", Enabled: true}); err != nil {
		t.Fatalf("Arm: %v", err)
	}

	// 48h d'horloge simulée, un tick par minute comme en production.
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	end := now.Add(48 * time.Hour)
	for ; now.Before(end); now = now.Add(time.Minute) {
		cur := now
		sch.Now = func() time.Time { return cur }
		sch.tick(context.Background())
	}

	if got := starter.count(); got != 2 {
		t.Fatalf("fires over 48h: want 2, got %d", got)
	}
	for _, call := range starter.calls {
		if call.Trigger != domain.TriggerSchedule {
			t.Fatalf("trigger: want %q, got %q", domain.TriggerSchedule, call.Trigger)
		}
		if call.Channel != "chan1" {
			t.Fatalf("channel: want chan1, got %q", call.Channel)
		}
	}
}

func TestScheduler_BusySlotStillMarksDay(t *testing.T) {
	starter := &fakeStarter{err: ErrAlreadyRunning}
	sch := testScheduler(starter)

	if _, err := sch.Arm(domain.ScheduleEntry{TimeOfDay: "10:30", Channel: "chan1", Enabled: true}); err != nil {
		t.Fatalf("Arm: %v", err)
	}

	fire := time.Date(2025, 6, 1, 10, 30, 0, 0, time.Local)
	sch.Now = func() time.Time { return fire }
	sch.tick(context.Background())
	if starter.count() != 1 {
		t.Fatalf("first tick: want 1 attempt, got %d", starter.count())
	}

	// Même minute, re-tick: le jour est déjà marqué, pas de retry.
	sch.tick(context.Background())
	later := fire.Add(time.Minute)
	sch.Now = func() time.Time { return later }
	sch.tick(context.Background())
	if starter.count() != 1 {
		t.Fatalf("after busy skip: want 1 attempt, got %d", starter.count())
	}
}

func TestScheduler_DisarmStopsTicks(t *testing.T) {
	starter := &fakeStarter{}
	sch := testScheduler(starter)

	if _, err := sch.Arm(domain.ScheduleEntry{TimeOfDay: "10:30", Channel: "chan1", Enabled: true}); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	sch.Disarm()
	// Idempotent.
	sch.Disarm()

	fire := time.Date(2025, 6, 1, 10, 30, 0, 0, time.Local)
	sch.Now = func() time.Time { return fire }
	sch.tick(context.Background())
	if starter.count() != 0 {
		t.Fatalf("disarmed scheduler fired %d times", starter.count())
	}

	if _, ok := sch.Current(); ok {
		t.Fatalf("Current after Disarm must be empty")
	}
}

func TestScheduler_ArmValidates(t *testing.T) {
	sch := testScheduler(&fakeStarter{})
	if _, err := sch.Arm(domain.ScheduleEntry{TimeOfDay: "25:00", Channel: "chan1"}); err == nil {
		t.Fatalf("expected invalid time error")
	}
	if _, err := sch.Arm(domain.ScheduleEntry{TimeOfDay: "10:00"}); err == nil {
		t.Fatalf("expected missing channel error")
	}
}

func TestScheduler_RearmResetsDailyGuard(t *testing.T) {
	starter := &fakeStarter{}
	sch := testScheduler(starter)

	if _, err := sch.Arm(domain.ScheduleEntry{TimeOfDay: "10:30", Channel: "chan1", Enabled: true}); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	fire := time.Date(2025, 6, 1, 10, 30, 0, 0, time.Local)
	sch.Now = func() time.Time { return fire }
	sch.tick(context.Background())
	if starter.count() != 1 {
		t.Fatalf("first fire: want 1, got %d", starter.count())
	}

	// Ré-armer sur un créneau plus tard le même jour: doit pouvoir re-feu.
	if _, err := sch.Arm(domain.ScheduleEntry{TimeOfDay: "11:00", Channel: "chan2", Enabled: true}); err != nil {
		t.Fatalf("re-Arm: %v", err)
	}
	refire := time.Date(2025, 6, 1, 11, 0, 0, 0, time.Local)
	sch.Now = func() time.Time { return refire }
	sch.tick(context.Background())
	if starter.count() != 2 {
		t.Fatalf("after re-arm: want 2 fires, got %d", starter.count())
	}
}

func TestScheduler_NextRun(t *testing.T) {
	sch := testScheduler(&fakeStarter{})
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	sch.Now = func() time.Time { return now }

	if _, ok := sch.NextRun(); ok {
		t.Fatalf("NextRun without entry must report none")
	}

	if _, err := sch.Arm(domain.ScheduleEntry{TimeOfDay: "10:30", Channel: "chan1", Enabled: true}); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	next, ok := sch.NextRun()
	if !ok {
		t.Fatalf("NextRun: expected a value")
	}
	want := time.Date(2025, 6, 1, 10, 30, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Fatalf("NextRun: want %v, got %v", want, next)
	}
}
