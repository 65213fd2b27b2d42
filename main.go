package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fiberbendr/OurShopper/internal/config"
	"github.com/fiberbendr/OurShopper/internal/database"
	"github.com/fiberbendr/OurShopper/internal/notify"
	"github.com/fiberbendr/OurShopper/internal/router"
	"github.com/fiberbendr/OurShopper/internal/store"
	"github.com/fiberbendr/OurShopper/internal/ws"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	// init database and run migrations
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("init database")
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	st := store.New(db)
	hub := ws.NewHub()

	var mailer notify.Mailer
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTP)
	} else {
		logger.Warn().Msg("smtp not configured, email notifications disabled")
	}
	notifier := notify.NewNotifier(mailer, cfg.Notify.QueueSize)

	r := router.SetupRouter(cfg, st, hub, notifier)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()
	logger.Info().Str("addr", addr).Msg("server listening")

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-exit
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	hub.Close()
	notifier.Close()
}
