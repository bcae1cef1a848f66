package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dmelnik/pairpad/internal/adapters/http"
	wssignal "github.com/dmelnik/pairpad/internal/adapters/signal"
	"github.com/dmelnik/pairpad/internal/app"
	"github.com/dmelnik/pairpad/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	conns := app.NewConnRegistry()
	pub := wssignal.NewPublisher(conns)
	mgr := app.NewManager(app.Config{
		RoomDuration:  cfg.Rooms.RoomDuration,
		TurnDuration:  cfg.Rooms.TurnDuration,
		MaxUsers:      cfg.Rooms.MaxUsers,
		SweepInterval: cfg.Rooms.SweepInterval,
	}, conns, pub)

	limiter := wssignal.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	ctl := wssignal.NewController(mgr, conns, limiter)

	sweeper := &app.Sweeper{Mgr: mgr, Interval: cfg.Rooms.SweepInterval}
	go sweeper.Run(ctx)

	r := router.SetupRouter(ctx, cfg, mgr, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Pairpad server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
