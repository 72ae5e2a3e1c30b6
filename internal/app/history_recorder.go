package app

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
	"github.com/rs/zerolog"
)

// HistoryRecorder écoute les events watch.* et persiste chaque transition de
// session, pour l'historique consultable via l'API.
type HistoryRecorder struct {
	logger zerolog.Logger
	bus    ports.EventBus
	repo   ports.SessionRepository
}

func NewHistoryRecorder(logger zerolog.Logger, bus ports.EventBus, repo ports.SessionRepository) *HistoryRecorder {
	return &HistoryRecorder{logger: logger, bus: bus, repo: repo}
}

func (r *HistoryRecorder) Run(ctx context.Context) {
	if r == nil || r.bus == nil || r.repo == nil {
		return
	}
	ch, cancel := r.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("history recorder stopped")
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			r.handleEvent(ctx, evt)
		}
	}
}

func (r *HistoryRecorder) handleEvent(ctx context.Context, evt ports.Event) {
	if !strings.HasPrefix(evt.Topic, "watch.") {
		return
	}

	var dto SessionDTO
	if err := json.Unmarshal(evt.Payload, &dto); err != nil {
		return
	}
	if dto.ID == "" {
		return
	}

	if _, err := r.repo.Upsert(ctx, fromSessionDTO(dto)); err != nil {
		r.logger.Warn().Err(err).Str("session_id", dto.ID).Msg("failed to record session")
	}
}
