package app

import (
	"fmt"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
)

var (
	ErrNotFound       = ports.ErrNotFound
	ErrAlreadyRunning = ports.ErrAlreadyRunning
)

// Codes d'erreur stables, persistés dans WatchSession.errorCode.
const (
	CodeAlreadyRunning = "already_running"
	CodeLaunchFailed   = "launch_failed"
	CodePlayerCrashed  = "player_crashed"
	CodeStreamEnded    = "stream_ended"
)

// CodedError porte un code stable en plus du message lisible.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }

// NewLaunchError: l'exécutable est introuvable ou est sorti immédiatement.
// Fatal pour la requête, pas de retry.
func NewLaunchError(err error) *CodedError {
	return &CodedError{Code: CodeLaunchFailed, Message: "failed to launch streamlink", Err: err}
}

// NewCrashError: le player est sorti avec un code non nul après avoir tourné.
// Le code de sortie de l'outil externe fait partie du message (exigence UI).
func NewCrashError(exitCode int, stderr string) *CodedError {
	msg := fmt.Sprintf("streamlink exited with error code %d", exitCode)
	if stderr != "" {
		msg += ": " + stderr
	}
	return &CodedError{Code: CodePlayerCrashed, Message: msg}
}
