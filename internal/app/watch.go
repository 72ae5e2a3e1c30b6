package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
)

// WatchService fait le pont entre la surface de contrôle et le superviseur:
// il complète les requêtes avec les settings (cookies, qualité) avant launch.
type WatchService struct {
	sup      *Supervisor
	settings *SettingsService
	sessions ports.SessionRepository
}

func NewWatchService(sup *Supervisor, settings *SettingsService, sessions ports.SessionRepository) *WatchService {
	return &WatchService{sup: sup, settings: settings, sessions: sessions}
}

type StartWatchRequest struct {
	Channel string `json:"channel"`
	Quality string `json:"quality,omitempty"`
}

type SessionDTO struct {
	ID        string              `json:"id"`
	Channel   string              `json:"channel"`
	Quality   string              `json:"quality"`
	Trigger   domain.Trigger      `json:"trigger"`
	State     domain.SessionState `json:"state"`
	PID       int                 `json:"pid,omitempty"`
	Retries   int                 `json:"retries"`
	StartedAt time.Time           `json:"startedAt"`
	EndedAt   time.Time           `json:"endedAt"`
	ExitCode  int                 `json:"exitCode"`
	ErrorCode string              `json:"errorCode,omitempty"`
	Error     string              `json:"error,omitempty"`
}

type StatusDTO struct {
	Active      *SessionDTO `json:"active,omitempty"`
	LastFailure *SessionDTO `json:"lastFailure,omitempty"`
}

func ToSessionDTO(s domain.WatchSession) SessionDTO {
	return SessionDTO{
		ID:        s.ID,
		Channel:   s.Channel,
		Quality:   s.Quality,
		Trigger:   s.Trigger,
		State:     s.State,
		PID:       s.PID,
		Retries:   s.Retries,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		ExitCode:  s.ExitCode,
		ErrorCode: s.ErrorCode,
		Error:     s.ErrorMessage,
	}
}

func fromSessionDTO(d SessionDTO) domain.WatchSession {
	return domain.WatchSession{
		ID:           d.ID,
		Channel:      d.Channel,
		Quality:      d.Quality,
		Trigger:      d.Trigger,
		State:        d.State,
		PID:          d.PID,
		Retries:      d.Retries,
		StartedAt:    d.StartedAt,
		EndedAt:      d.EndedAt,
		ExitCode:     d.ExitCode,
		ErrorCode:    d.ErrorCode,
		ErrorMessage: d.Error,
	}
}

func PublishWatchEvent(bus ports.EventBus, topic string, sess domain.WatchSession) {
	if bus == nil {
		return
	}
	b, err := json.Marshal(ToSessionDTO(sess))
	if err != nil {
		return
	}
	bus.Publish(topic, b)
}

func (s *WatchService) StartNow(ctx context.Context, req StartWatchRequest) (SessionDTO, error) {
	return s.start(ctx, req.Channel, req.Quality, domain.TriggerManual)
}

func (s *WatchService) start(ctx context.Context, channel, quality string, trigger domain.Trigger) (SessionDTO, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return SessionDTO{}, errors.New("missing channel")
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return SessionDTO{}, err
	}
	if quality == "" {
		quality = cfg.Quality
	}
	if cfg.LowResource {
		// Profil AFK: le rendu vidéo ne sert à rien.
		quality = "audio_only"
	}

	sess, err := s.sup.Start(ctx, domain.WatchRequest{
		Channel:    channel,
		Quality:    quality,
		CookieFile: cfg.CookieFile,
		Trigger:    trigger,
	})
	if err != nil {
		return ToSessionDTO(sess), err
	}
	return ToSessionDTO(sess), nil
}

func (s *WatchService) Stop(ctx context.Context) (StatusDTO, error) {
	st, err := s.sup.Stop(ctx)
	if err != nil {
		return StatusDTO{}, err
	}
	return toStatusDTO(st), nil
}

func (s *WatchService) Status(ctx context.Context) StatusDTO {
	return toStatusDTO(s.sup.Status())
}

func (s *WatchService) History(ctx context.Context, limit int) ([]SessionDTO, error) {
	sessions, err := s.sessions.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]SessionDTO, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, ToSessionDTO(sess))
	}
	return out, nil
}

func toStatusDTO(st SupervisorStatus) StatusDTO {
	out := StatusDTO{}
	if st.Active != nil {
		d := ToSessionDTO(*st.Active)
		out.Active = &d
	}
	if st.LastFailure != nil {
		d := ToSessionDTO(*st.LastFailure)
		out.LastFailure = &d
	}
	return out
}
