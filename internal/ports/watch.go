package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
)

// Launcher démarre le process externe (resolver + player) sans attendre sa fin.
type Launcher interface {
	Start(ctx context.Context, req domain.WatchRequest) (Process, error)
}

// Process est le handle minimal sur le process externe lancé.
type Process interface {
	PID() int
	// Done est fermé quand le process est terminé (Wait rendu).
	Done() <-chan struct{}
	// ExitCode n'est valide qu'après Done. -1 si tué par signal ou inconnu.
	ExitCode() int
	// StderrTail renvoie les derniers octets de stderr, pour enrichir les
	// messages d'erreur (souvent vide avec streamlink, voir historique).
	StderrTail() string
	// Terminate demande un arrêt doux (SIGTERM au groupe de process).
	Terminate() error
	// Kill force l'arrêt (SIGKILL au groupe).
	Kill() error
}

type SessionRepository interface {
	Upsert(ctx context.Context, s domain.WatchSession) (domain.WatchSession, error)
	Get(ctx context.Context, id string) (domain.WatchSession, error)
	List(ctx context.Context, limit int) ([]domain.WatchSession, error)
}

type EventBus interface {
	Publish(topic string, payload []byte)
	Subscribe() (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}
