package ports

import "errors"

var ErrNotFound = errors.New("not found")

// ErrAlreadyRunning: un start est rejeté (jamais mis en file) quand une
// session est déjà en starting/running.
var ErrAlreadyRunning = errors.New("a watch session is already running")
