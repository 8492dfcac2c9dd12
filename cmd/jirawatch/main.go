package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	jiraadapter "github.com/akulikov/jirawatch/internal/adapter/driven/jira"
	"github.com/akulikov/jirawatch/internal/adapter/driven/mattermost"
	sqliteadapter "github.com/akulikov/jirawatch/internal/adapter/driven/sqlite"
	"github.com/akulikov/jirawatch/internal/application"
	"github.com/akulikov/jirawatch/internal/config"
	"github.com/akulikov/jirawatch/internal/domain/model"
	"github.com/akulikov/jirawatch/internal/vault"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load .env if present, then configuration (fail fast on missing
	// required env vars).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"jira_url", cfg.JiraURL,
		"db_path", cfg.DBPath,
		"sweep_interval", cfg.SweepInterval,
		"closed_statuses", cfg.ClosedStatuses,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode); the reader pool
	// is sized to the sweep parallelism.
	db, err := sqliteadapter.NewDB(cfg.DBPath, cfg.SweepParallelism)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Open the credential vault.
	v, err := vault.New(cfg.EncryptionPassphrase, cfg.SaltPath)
	if err != nil {
		return err
	}

	// 6. Wire adapters.
	credentialStore := sqliteadapter.NewCredentialRepo(db)
	subscriptionStore := sqliteadapter.NewSubscriptionRepo(db)
	ledgerStore := sqliteadapter.NewLedgerRepo(db)
	issueCacheStore := sqliteadapter.NewIssueCacheRepo(db)

	sessionFactory := jiraadapter.NewFactory(cfg.JiraURL, cfg.RequestTimeout)
	sink := mattermost.NewSink(cfg.MattermostURL, cfg.MattermostToken, cfg.RequestTimeout)

	// 7. Assemble the application core.
	pool := application.NewConnectionPool(sessionFactory, credentialStore, v, sink, cfg.PoolCapacity)
	detector := application.NewDetector(model.NewClosedStatuses(cfg.ClosedStatuses))

	monitor := application.NewMonitorService(
		pool,
		detector,
		subscriptionStore,
		ledgerStore,
		issueCacheStore,
		sink,
		cfg.JiraURL,
		cfg.MaxResults,
		cfg.SweepParallelism,
		cfg.SweepInterval,
	)
	go monitor.Start(ctx)

	slog.Info("jirawatch started",
		"sweep_interval", cfg.SweepInterval,
		"pool_capacity", cfg.PoolCapacity,
	)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	slog.Info("shutdown complete")
	return nil
}
