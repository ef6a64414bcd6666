package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	reputationservice "flow/contexts/community-experience/reputation-service"
	reputationpostgres "flow/contexts/community-experience/reputation-service/adapters/postgres"
	reputationworkers "flow/contexts/community-experience/reputation-service/application/workers"
	walletservice "flow/contexts/finance-core/wallet-service"
	walletpostgres "flow/contexts/finance-core/wallet-service/adapters/postgres"
	walletworkers "flow/contexts/finance-core/wallet-service/application/workers"
	walletports "flow/contexts/finance-core/wallet-service/ports"
	projectservice "flow/contexts/project-funding/project-service"
	projectpostgres "flow/contexts/project-funding/project-service/adapters/postgres"
	projectworkers "flow/contexts/project-funding/project-service/application/workers"
	taskengine "flow/contexts/task-lifecycle/task-engine"
	"flow/contexts/task-lifecycle/task-engine/adapters/checker"
	taskpostgres "flow/contexts/task-lifecycle/task-engine/adapters/postgres"
	taskworkers "flow/contexts/task-lifecycle/task-engine/application/workers"
	taskports "flow/contexts/task-lifecycle/task-engine/ports"
	"flow/internal/platform/alerting"
	"flow/internal/platform/config"
	"flow/internal/platform/db"
	"flow/internal/platform/httpserver"
	"flow/internal/platform/messaging"
	"flow/internal/platform/paystack"
	"flow/internal/shared/money"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres

	taskRelay    taskworkers.OutboxRelay
	projectRelay projectworkers.OutboxRelay
	walletRelay  walletworkers.OutboxRelay

	verification taskworkers.VerificationConsumer
	sweeper      taskworkers.DeadlineSweeper
	processor    walletworkers.WithdrawalProcessor
	reconciler   walletworkers.TransferReconciler
	deposits     walletworkers.DepositReconciler
	rescorer     reputationworkers.CompletionConsumer

	cfg          config.Config
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	modules, err := buildModules(cfg, pg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(modules.tasks, modules.projects, modules.wallet, modules.reputation, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	modules, err := buildModules(cfg, pg, logger)
	if err != nil {
		return nil, err
	}

	alerts := alerting.LogSink{Logger: logger}

	processor := walletservice.NewWithdrawalProcessor(modules.walletDeps, walletAlertSink{sink: alerts}, logger)
	processor.MaxAttempts = cfg.WithdrawalMaxAttempts

	return &WorkerApp{
		postgres: pg,

		taskRelay:    taskengine.NewOutboxRelay(modules.taskRepo, kafka, taskpostgres.SystemClock{}, logger),
		projectRelay: projectservice.NewOutboxRelay(modules.projectRepo, kafka, projectpostgres.SystemClock{}, logger),
		walletRelay:  walletservice.NewOutboxRelay(modules.walletRepo, kafka, walletpostgres.SystemClock{}, logger),

		verification: taskengine.NewVerificationConsumer(kafka, modules.taskRepo, modules.tasks.Verification, taskpostgres.SystemClock{}, logger),
		sweeper: taskengine.NewDeadlineSweeper(
			modules.taskRepo,
			modules.taskRepo,
			taskAlertSink{sink: alerts},
			taskpostgres.SystemClock{},
			taskpostgres.UUIDGenerator{},
			cfg.VerificationDeadline,
			logger,
		),
		processor:  processor,
		reconciler: walletservice.NewTransferReconciler(modules.walletDeps, walletAlertSink{sink: alerts}, logger),
		deposits:   walletservice.NewDepositReconciler(modules.walletDeps, logger),
		rescorer:   reputationservice.NewCompletionConsumer(modules.reputationDeps, kafka, logger),

		cfg:          cfg,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}, nil
}

// builtModules groups the four context modules with the repositories and
// dependency bags the worker constructors need.
type builtModules struct {
	tasks      taskengine.Module
	projects   projectservice.Module
	wallet     walletservice.Module
	reputation reputationservice.Module

	taskRepo    *taskpostgres.Repository
	projectRepo *projectpostgres.Repository
	walletRepo  *walletpostgres.Repository

	walletDeps     walletservice.Dependencies
	reputationDeps reputationservice.Dependencies
}

func buildModules(cfg config.Config, pg *db.Postgres, logger *slog.Logger) (builtModules, error) {
	alerts := alerting.LogSink{Logger: logger}

	walletRepo := walletpostgres.NewRepository(pg.DB, logger)
	gateway := paystack.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey, logger)
	threshold, err := money.FromString(cfg.WithdrawalKYCThreshold, cfg.DefaultCurrency)
	if err != nil {
		return builtModules{}, err
	}
	walletDeps := walletservice.Dependencies{
		Ledger:       walletRepo,
		Escrow:       walletRepo,
		Accounts:     walletRepo,
		Profiles:     walletRepo,
		Gateway:      gateway,
		Outbox:       walletRepo,
		Clock:        walletpostgres.SystemClock{},
		IDGen:        walletpostgres.UUIDGenerator{},
		KYCThreshold: threshold,
		Logger:       logger,
	}
	walletModule := walletservice.NewModule(walletDeps)

	projectRepo := projectpostgres.NewRepository(pg.DB, logger)
	projectModule := projectservice.NewModule(projectservice.Dependencies{
		Projects: projectRepo,
		Escrow:   walletModule.Escrow,
		Outbox:   projectRepo,
		Clock:    projectpostgres.SystemClock{},
		IDGen:    projectpostgres.UUIDGenerator{},
		Logger:   logger,
	})

	taskRepo := taskpostgres.NewRepository(pg.DB, logger)
	taskModule := taskengine.NewModule(taskengine.Dependencies{
		Projects:               taskRepo,
		Tasks:                  taskRepo,
		Validations:            taskRepo,
		Workers:                taskRepo,
		Settlement:             taskRepo,
		Outbox:                 taskRepo,
		Alerts:                 taskAlertSink{sink: alerts},
		Clock:                  taskpostgres.SystemClock{},
		IDGen:                  taskpostgres.UUIDGenerator{},
		Checker:                checker.Heuristic{},
		DefaultUnitCount:       cfg.DefaultUnitCount,
		AssignmentCap:          cfg.AssignmentCap,
		ValidatorMinReputation: cfg.ValidatorMinReputation,
		Logger:                 logger,
	})

	reputationRepo := reputationpostgres.NewRepository(pg.DB, logger)
	reputationDeps := reputationservice.Dependencies{
		Profiles: reputationRepo,
		Dedup:    reputationRepo,
		Clock:    reputationpostgres.SystemClock{},
		Logger:   logger,
	}
	reputationModule := reputationservice.NewModule(reputationDeps)

	return builtModules{
		tasks:      taskModule,
		projects:   projectModule,
		wallet:     walletModule,
		reputation: reputationModule,

		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		walletRepo:  walletRepo,

		walletDeps:     walletDeps,
		reputationDeps: reputationDeps,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.cfg.EnableVerificationConsumer {
		if err := w.verification.Start(ctx); err != nil {
			return err
		}
	}
	if w.cfg.EnableReputationConsumer {
		if err := w.rescorer.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.cfg.EnableVerificationSweeper {
			if err := w.sweeper.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.cfg.EnableWithdrawalProcessor {
			if err := w.processor.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.cfg.EnableReconciler {
			if err := w.reconciler.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.deposits.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.cfg.EnableOutboxRelay {
			if err := w.taskRelay.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.projectRelay.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.walletRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// taskAlertSink adapts the shared log sink to the task engine's alert port.
type taskAlertSink struct {
	sink alerting.LogSink
}

func (s taskAlertSink) Emit(ctx context.Context, alert taskports.Alert) {
	s.sink.Emit(ctx, alerting.Alert{
		Title:       alert.Title,
		Description: alert.Description,
		Severity:    alerting.Severity(alert.Severity),
		Kind:        alert.Kind,
	})
}

// walletAlertSink adapts the shared log sink to the wallet's alert port.
type walletAlertSink struct {
	sink alerting.LogSink
}

func (s walletAlertSink) Emit(ctx context.Context, alert walletports.Alert) {
	s.sink.Emit(ctx, alerting.Alert{
		Title:       alert.Title,
		Description: alert.Description,
		Severity:    alerting.Severity(alert.Severity),
		Kind:        alert.Kind,
	})
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
