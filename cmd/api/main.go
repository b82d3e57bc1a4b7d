package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/researchloop/outreach/backend/internal/config"
	"github.com/researchloop/outreach/backend/internal/handler"
	feedHandler "github.com/researchloop/outreach/backend/internal/handler/feed"
	"github.com/researchloop/outreach/backend/internal/platform/otel"
	"github.com/researchloop/outreach/backend/internal/service/engagement"
	"github.com/researchloop/outreach/backend/internal/service/feed"
	"github.com/researchloop/outreach/backend/internal/service/records"
	"github.com/researchloop/outreach/backend/internal/service/sessions"
	"github.com/researchloop/outreach/backend/internal/service/survey"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	shutdownTracing, err := otel.Setup(ctx, "outreach-backend", cfg.Telemetry.Endpoint, cfg.Telemetry.Enabled)
	if err != nil {
		log.Printf("warning: tracing disabled: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	var store *records.Client
	var updater engagement.Updater
	if cfg.Store.Enabled() {
		store = records.NewClient(records.Config{
			BaseURL: cfg.Store.BaseURL,
			APIKey:  cfg.Store.APIKey,
			Version: cfg.Store.Version,
			Timeout: cfg.Store.Timeout,
		})
		updater = records.NewUpdater(store, cfg.Store.SubjectsDB, cfg.Store.Timeout)
		log.Println("contact store client initialized")
	} else {
		log.Println("contact store not configured; engagement and submissions will not be recorded")
	}

	if cfg.Webhook.Secret == "" {
		log.Println("warning: EMAIL_WEBHOOK_SECRET is empty; every webhook delivery will be rejected")
	}

	if cfg.Feed.Token == "" {
		log.Println("FEED_TOKEN is empty; engagement feed disabled")
	}

	hub := feed.NewHub()
	router := handler.NewRouter(handler.Services{
		Receiver:       engagement.NewReceiver(cfg.Webhook.Secret, updater, hub),
		Hub:            hub,
		Sessions:       sessions.NewService(cfg.Survey.SessionTTL),
		Registry:       survey.Default(),
		Store:          store,
		SubjectsDB:     cfg.Store.SubjectsDB,
		ResponsesDB:    cfg.Store.ResponsesDB,
		ConsentVersion: cfg.Survey.ConsentVersion,
		Feed: feedHandler.Options{
			Token:          cfg.Feed.Token,
			AllowedOrigins: cfg.Feed.AllowedOrigins,
		},
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("outreach backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
