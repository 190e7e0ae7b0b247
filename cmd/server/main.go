package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/newsluhy/internal/api"
	"github.com/hoanghai1803/newsluhy/internal/api/handlers"
	"github.com/hoanghai1803/newsluhy/internal/config"
	"github.com/hoanghai1803/newsluhy/internal/pipeline"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	envPath := flag.String("env", ".env", "path to an optional dotenv file")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		slog.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))
	for _, w := range cfg.Warnings() {
		slog.Warn(w)
	}

	env := pipelineEnv(cfg)
	if env.AIConfigured() {
		slog.Info("AI ranking configured", "provider", cfg.AI.Provider, "model", cfg.AI.Model)
	}

	bg := handlers.NewBackground()
	router := api.NewRouter(pipeline.New(pipeline.Deps{}), api.Options{
		Env:        env,
		BotToken:   cfg.Telegram.BotToken,
		Background: bg,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// Webhook runs still in flight owe their chats a reply. Handlers
		// that outlived a timed-out Shutdown can no longer start new runs.
		bg.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// pipelineEnv maps the loaded configuration onto the per-run pipeline
// settings.
func pipelineEnv(cfg *config.Config) pipeline.Env {
	return pipeline.Env{
		GoogleAPIKey:  cfg.Search.APIKey,
		GoogleCSEID:   cfg.Search.CSEID,
		SerpAPIKey:    cfg.Search.SerpAPIKey,
		SearchFeedURL: cfg.Search.FeedURL,
		QueryStrategy: cfg.Search.QueryStrategy,
		MaxResults:    cfg.Search.MaxResults,
		AIProvider:    cfg.AI.Provider,
		AIAPIKey:      cfg.AI.APIKey,
		AIBaseURL:     cfg.AI.BaseURL,
		AIModel:       cfg.AI.Model,
	}
}
