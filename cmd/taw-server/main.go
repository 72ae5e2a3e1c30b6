package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/adapters/httpapi"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/adapters/streamlink"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/app"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/buildinfo"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/config"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	def := config.Default()
	addr := flag.String("addr", def.Addr, "Adresse d'écoute (ex: 127.0.0.1:8080)")
	dbPath := flag.String("db", def.DBPath, "Chemin SQLite (ex: taw.db)")
	cookiesPath := flag.String("cookies", def.CookieFile, "Chemin du cookie jar NETSCAPE")
	flag.Parse()

	var out io.Writer = os.Stdout
	if isatty.IsTerminal(os.Stdout.Fd()) {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).With().Timestamp().Str("app", "taw-server").Logger()
	log.Logger = logger

	logger.Info().Interface("build", buildinfo.Current()).Str("db", *dbPath).Msg("starting")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()

	bus := memorybus.New()
	defer bus.Close()

	sessionsRepo := sqlite.NewSessionsRepository(db.SQL)
	settingsRepo := sqlite.NewSettingsRepository(db.SQL)
	settingsSvc := app.NewSettingsService(settingsRepo)

	// Le chemin passé en flag sert de défaut tant que les settings n'en
	// portent pas un autre.
	if s, err := settingsSvc.Get(ctx); err == nil {
		if s.CookieFile == domain.DefaultSettings().CookieFile && *cookiesPath != s.CookieFile {
			s.CookieFile = *cookiesPath
			if _, err := settingsSvc.Put(ctx, s); err != nil {
				logger.Warn().Err(err).Msg("failed to store cookie path")
			}
		}
	}

	launcher := streamlink.New(logger.With().Str("component", "launcher").Logger(), streamlink.Options{
		SettingsFunc: settingsSvc.Get,
	})

	supOpts := app.DefaultSupervisorOptions()
	if s, err := settingsSvc.Get(ctx); err == nil {
		supOpts.RetryCount = s.RetryCount
		supOpts.RetryDelay = time.Duration(s.RetryDelaySeconds) * time.Second
	}
	supervisor := app.NewSupervisor(logger.With().Str("component", "supervisor").Logger(), launcher, bus, supOpts)

	watchSvc := app.NewWatchService(supervisor, settingsSvc, sessionsRepo)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduler: déclenche le visionnage quotidien au créneau armé.
	scheduler := app.NewScheduler(logger.With().Str("component", "scheduler").Logger(), watchSvc, bus)
	go scheduler.Run(shutdownCtx)

	// Recorder: persiste chaque transition de session pour l'historique.
	recorder := app.NewHistoryRecorder(logger.With().Str("component", "history").Logger(), bus, sessionsRepo)
	go recorder.Run(shutdownCtx)

	srv := httpapi.NewServer(logger, watchSvc, scheduler, settingsSvc, bus, func(updated domain.Settings) {
		supervisor.SetRetryPolicy(updated.RetryCount, time.Duration(updated.RetryDelaySeconds)*time.Second)
	})
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Le process externe d'abord: pas de mpv orphelin après l'arrêt du daemon.
	if _, err := supervisor.Stop(shCtx); err != nil {
		logger.Warn().Err(err).Msg("failed to stop active session")
	}
	_ = httpServer.Shutdown(shCtx)
	logger.Info().Msg("bye")
}
