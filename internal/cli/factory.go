package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/angeloszaimis/syncguard/config"
	"github.com/angeloszaimis/syncguard/internal/circuitbreaker"
	"github.com/angeloszaimis/syncguard/internal/controller"
	"github.com/angeloszaimis/syncguard/internal/metrics"
	"github.com/angeloszaimis/syncguard/internal/recovery"
	"github.com/angeloszaimis/syncguard/internal/store"
	"github.com/angeloszaimis/syncguard/internal/syncexec"
	"github.com/angeloszaimis/syncguard/pkg/logger"
)

// app wires the reliability components from configuration. Every
// subcommand goes through here so they all share one store layout.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	breaker  *circuitbreaker.Breaker
	engine   *recovery.Engine
	ctrl     *controller.Controller
	metrics  *metrics.Metrics
	deadline time.Duration
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, false, cfg.Environment)

	fileStore, err := store.NewFileStore(cfg.Store.StatePath(), log)
	if err != nil {
		return nil, fmt.Errorf("opening circuit state store: %w", err)
	}

	breaker := circuitbreaker.New(fileStore, log)
	engine := recovery.NewEngine(log)

	journal := syncexec.NewJournal(cfg.Store.JournalPath(), log)
	// Durations were validated on load.
	baseTimeout, _ := time.ParseDuration(cfg.Retry.BaseTimeout)
	runner := syncexec.NewRunner(journal, baseTimeout, log)

	baseDelay, _ := time.ParseDuration(cfg.Retry.BaseDelay)
	maxDelay, _ := time.ParseDuration(cfg.Retry.MaxDelay)
	deadline, _ := time.ParseDuration(cfg.Retry.CycleDeadline)

	m := metrics.New()
	ctrl := controller.New(breaker, engine, runner, m, controller.Options{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
	}, log)

	return &app{
		cfg:      cfg,
		log:      log,
		breaker:  breaker,
		engine:   engine,
		ctrl:     ctrl,
		metrics:  m,
		deadline: deadline,
	}, nil
}

func (a *app) service(sc config.ServiceConfig) controller.Service {
	return controller.Service{
		ID:      sc.ID,
		Command: sc.Command,
		Recovery: recovery.Context{
			ServiceID:      sc.ID,
			MountPath:      sc.MountPath,
			SyncRoot:       a.cfg.Paths.SyncRoot,
			ArchiveDir:     sc.ArchiveDir,
			CredentialsDir: sc.CredentialsDir,
			BackupDir:      a.cfg.Paths.BackupDir,
			CacheDir:       sc.CacheDir,
			LogDir:         a.cfg.Paths.LogDir,
		},
	}
}
