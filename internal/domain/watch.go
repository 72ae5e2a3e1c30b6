package domain

import (
	"errors"
	"time"
)

type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
)

// WatchRequest est l'intention de lancer un visionnage.
// Immutable une fois émise (par l'utilisateur ou le scheduler).
type WatchRequest struct {
	Channel    string
	Quality    string
	CookieFile string
	Trigger    Trigger
}

type SessionState string

const (
	SessionStarting SessionState = "starting"
	SessionRunning  SessionState = "running"
	SessionExited   SessionState = "exited"
	SessionFailed   SessionState = "failed"
)

func (s SessionState) IsTerminal() bool {
	return s == SessionExited || s == SessionFailed
}

// WatchSession est la trace du process externe (streamlink+mpv) côté superviseur.
// Il y en a au plus une en starting/running à la fois.
type WatchSession struct {
	ID      string
	Channel string
	Quality string
	Trigger Trigger

	State   SessionState
	PID     int
	Retries int

	StartedAt time.Time
	EndedAt   time.Time

	ExitCode     int
	ErrorCode    string
	ErrorMessage string
}

var ErrInvalidTransition = errors.New("invalid session state transition")

// CanTransition encode la machine d'état du superviseur.
// running -> starting correspond à une relance (retry) après sortie inattendue.
func CanTransition(from, to SessionState) bool {
	if from == to {
		return true
	}
	switch from {
	case SessionStarting:
		return to == SessionRunning || to == SessionExited || to == SessionFailed
	case SessionRunning:
		return to == SessionExited || to == SessionFailed || to == SessionStarting
	case SessionExited, SessionFailed:
		return false
	default:
		return false
	}
}
