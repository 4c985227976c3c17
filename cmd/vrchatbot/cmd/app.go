package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/jmcleod/vrchatbot/bot"
	"github.com/jmcleod/vrchatbot/internal/config"
	"github.com/jmcleod/vrchatbot/internal/metrics"
	"github.com/jmcleod/vrchatbot/session"
	"github.com/jmcleod/vrchatbot/storage"
	bboltstorage "github.com/jmcleod/vrchatbot/storage/bbolt"
	"github.com/jmcleod/vrchatbot/storage/file"
	"github.com/jmcleod/vrchatbot/storage/memory"
	"github.com/jmcleod/vrchatbot/vrchat"
)

const bboltFile = "vrchatbot.db"

// app is the wired process: storage, session manager and bot.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	repo     storage.Repository
	registry *prometheus.Registry
	metrics  *metrics.Collector
	sessions *session.Manager
	bot      *bot.Bot

	closers []func() error
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   cfg.NewLogger(),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.NewCollector(a.registry)

	repo, err := a.openStorage()
	if err != nil {
		return nil, err
	}
	a.repo = repo

	opts := []session.Option{
		session.WithLogger(a.logger),
		session.WithMetrics(a.metrics),
		session.WithProber(session.NewProber(cfg.Session.ProbeTTL, a.metrics)),
		session.WithPruneStaleCookies(cfg.Session.PruneStaleCookies),
	}
	if cfg.SealPassphrase != "" {
		sealer, err := session.LoadSealer(repo, cfg.SealPassphrase)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to load sealer: %w", err)
		}
		opts = append(opts, session.WithSealer(sealer))
	}

	var limiter *rate.Limiter
	if cfg.API.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.API.Rate), cfg.API.Burst)
	}
	api := vrchat.Config{
		BaseURL:   cfg.API.BaseURL,
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.Timeout,
		Limiter:   limiter,
		Logger:    a.logger,
		Observer:  a.metrics,
	}
	a.sessions = session.NewManager(repo, api, opts...)

	var webhook *bot.AlertWebhook
	if cfg.Alerts.WebhookURL != "" {
		webhook = bot.NewAlertWebhook(cfg.Alerts.WebhookURL, cfg.Alerts.WebhookHeader, a.logger)
		a.closers = append(a.closers, func() error { webhook.Close(); return nil })
	}
	a.bot = bot.New(a.sessions, repo,
		bot.WithLogger(a.logger),
		bot.WithMetrics(a.metrics),
		bot.WithExpireTimeout(cfg.Session.ExpireTimeout),
		bot.WithDefaultLocale(cfg.Locale),
		bot.WithAlertFunc(func(e bot.AlertEvent) {
			a.logger.Warn("alert", "type", e.Type, "message", e.Message, "count", e.Count, "threshold", e.Threshold)
			if webhook != nil {
				webhook.Notify(e)
			}
		}),
	)
	a.closers = append(a.closers, func() error { a.bot.Close(); return nil })
	return a, nil
}

func (a *app) openStorage() (storage.Repository, error) {
	switch a.cfg.Storage {
	case "memory":
		return memory.NewRepository(), nil
	case "bbolt":
		if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		repo, err := bboltstorage.NewRepositoryFromFile(filepath.Join(a.cfg.DataDir, bboltFile), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	default:
		repo, err := file.NewRepository(a.cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		return repo, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
