package app

import (
	"context"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
)

type SettingsService struct {
	repo ports.SettingsRepository
}

func NewSettingsService(repo ports.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	return s.repo.Get(ctx)
}

func (s *SettingsService) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	// Validation légère V1.
	def := domain.DefaultSettings()
	if settings.CookieFile == "" {
		settings.CookieFile = def.CookieFile
	}
	if settings.Player == "" {
		settings.Player = def.Player
	}
	if settings.Quality == "" {
		settings.Quality = def.Quality
	}
	if settings.StreamRetries <= 0 {
		settings.StreamRetries = def.StreamRetries
	}
	if settings.RetryCount < 0 {
		settings.RetryCount = def.RetryCount
	}
	if settings.RetryDelaySeconds <= 0 {
		settings.RetryDelaySeconds = def.RetryDelaySeconds
	}
	if settings.DefaultScheduleTime == "" {
		settings.DefaultScheduleTime = def.DefaultScheduleTime
	}
	return s.repo.Put(ctx, settings)
}
