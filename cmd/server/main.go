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

	"github.com/jacksonlee411/peopleops/internal/jobs"
	"github.com/jacksonlee411/peopleops/internal/platform/config"
	"github.com/jacksonlee411/peopleops/internal/platform/logging"
	"github.com/jacksonlee411/peopleops/internal/platform/postgres"
	"github.com/jacksonlee411/peopleops/internal/server"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath     string
		migrateOnStart bool
	)
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the peopleops HTTP API and run scheduled backups",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return run(configPath, migrateOnStart)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the yaml config")
	cmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, migrateOnStart bool) error {
	cfg, err := config.Load(config.EffectivePath(configPath))
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrateOnStart {
		m, err := postgres.NewMigrator(cfg.Database.DSN())
		if err != nil {
			return err
		}
		err = postgres.RunMigration(m, "up", logger)
		_, _ = m.Close()
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	app, err := server.NewApp(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}

	scheduler := cron.New(cron.WithLocation(time.UTC))
	if cfg.Backup.Schedule != "" {
		if _, err := jobs.Schedule(scheduler, cfg.Backup.Schedule, app.Backup, logger.Named("backup"), 30*time.Minute); err != nil {
			return fmt.Errorf("backup schedule: %w", err)
		}
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           app.Handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
