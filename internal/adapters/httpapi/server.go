package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/app"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
)

type Server struct {
	logger    zerolog.Logger
	watch     *app.WatchService
	scheduler *app.Scheduler
	settings  *app.SettingsService
	bus       ports.EventBus
	// onSettingsUpdated est optionnel (ex: appliquer la retry policy à chaud).
	onSettingsUpdated func(domain.Settings)
}

func NewServer(logger zerolog.Logger, watch *app.WatchService, scheduler *app.Scheduler, settings *app.SettingsService, bus ports.EventBus, onSettingsUpdated func(domain.Settings)) *Server {
	return &Server{
		logger:            logger,
		watch:             watch,
		scheduler:         scheduler,
		settings:          settings,
		bus:               bus,
		onSettingsUpdated: onSettingsUpdated,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/openapi.json", s.handleOpenAPI)
		r.Get("/events", s.handleEvents)
		r.Get("/cookies/check", s.handleCookiesCheck)

		if s.watch != nil {
			NewWatchHandler(s.watch).Routes(r)
		}
		if s.scheduler != nil {
			NewScheduleHandler(s.scheduler).Routes(r)
		}
		if s.settings != nil {
			NewSettingsHandler(s.settings, s.onSettingsUpdated).Routes(r)
		}
	})

	return r
}
