package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/joho/godotenv"

	"github.com/gingerhealthcare/profilegen/catalog"
	"github.com/gingerhealthcare/profilegen/config"
	"github.com/gingerhealthcare/profilegen/data"
	"github.com/gingerhealthcare/profilegen/document"
	"github.com/gingerhealthcare/profilegen/handlers"
	"github.com/gingerhealthcare/profilegen/health"
	"github.com/gingerhealthcare/profilegen/llm"
	"github.com/gingerhealthcare/profilegen/logging"
	"github.com/gingerhealthcare/profilegen/matcher"
	"github.com/gingerhealthcare/profilegen/scheduler"
	"github.com/gingerhealthcare/profilegen/scraper"
	"github.com/gingerhealthcare/profilegen/server"
	"github.com/gingerhealthcare/profilegen/session"
	"github.com/gingerhealthcare/profilegen/validation"
)

func main() {
	// .env is optional, real deployments use environment variables
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.LogRetentionWeeks, cfg.MaxLogFileSize, logging.ParseLevel(cfg.LogLevel))
	logging.Info("Starting profile generator",
		"env", cfg.Env,
		"procedures_source", cfg.ProceduresSource)

	container := data.NewCatalogContainer()
	container.SetServerStartTime(time.Now())

	loader := catalog.NewLoader(cfg.ProceduresSource)
	validator := validation.NewDataValidator()

	catalogScheduler := scheduler.NewScheduler(container, loader)
	if err := catalogScheduler.Start(); err != nil {
		logging.Error("Failed to load the procedure catalogue", "error", err)
		os.Exit(1)
	}
	defer catalogScheduler.Stop()

	sessions := session.NewStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	defer sessions.Close()

	var generator llm.Generator
	if cfg.AnthropicAPIKey != "" {
		generator = llm.NewAnthropicGenerator(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		logging.Info("Automated generation enabled", "model", cfg.AnthropicModel)
	} else {
		logging.Info("No API key configured, running in manual prompt mode")
	}

	deps := &handlers.Deps{
		Store:     container,
		Health:    health.NewHealthChecker(container),
		Sessions:  sessions,
		Fetcher:   scraper.NewFetcher(time.Duration(cfg.FetchTimeoutSeconds) * time.Second),
		Matcher:   matcher.New(matcher.KeywordScorer{}, cfg.MatchTopN),
		Builder:   document.NewBuilder(),
		Generator: generator,
		Validator: validator,
		Config:    cfg,
	}

	srv := server.NewServer(cfg, deps)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logging.Error("Server error", "error", err)
		os.Exit(1)
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
		os.Exit(1)
	}
}
