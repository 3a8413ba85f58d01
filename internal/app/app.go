package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/declabot/internal/bot"
	"github.com/declabot/internal/config"
	"github.com/declabot/internal/filestore"
	"github.com/declabot/internal/handler"
	"github.com/declabot/internal/mailer"
	"github.com/declabot/internal/report"
	"github.com/declabot/internal/store"
)

type App struct {
	config    *config.Config
	logger    *slog.Logger
	store     *store.ProfileStore
	blobs     *filestore.Store
	collector *handler.Collector
	bot       *bot.Bot
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	profiles, err := store.Open(cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("open draft store: %w", err)
	}

	blobs, err := filestore.New(cfg.AttachmentDir)
	if err != nil {
		return nil, fmt.Errorf("open attachment store: %w", err)
	}

	m := mailer.New(mailer.Config{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		User:        cfg.SMTPUser,
		Pass:        cfg.SMTPPass,
		FromAddress: cfg.SMTPFromAddress,
		FromName:    cfg.SMTPFromName,
	})

	dispatcher := report.NewDispatcher(profiles, blobs, m, cfg.BoardEmails, logger)
	collector := handler.NewCollector()
	b := bot.New(profiles, dispatcher, collector, logger)

	return &App{
		config:    cfg,
		logger:    logger,
		store:     profiles,
		blobs:     blobs,
		collector: collector,
		bot:       b,
	}, nil
}

func (app *App) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("server failed", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done() // Wait for OS signal or parent context to fail

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("stopped server")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	slog.SetDefault(logger)
	return logger
}
