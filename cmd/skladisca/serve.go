package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/erazemk/skladisca/internal/api"
	"github.com/erazemk/skladisca/internal/auth"
	"github.com/erazemk/skladisca/internal/config"
	"github.com/erazemk/skladisca/internal/db"
	"github.com/erazemk/skladisca/internal/inventory"
	"github.com/erazemk/skladisca/internal/jobs"
	"github.com/erazemk/skladisca/internal/lock"
	"github.com/erazemk/skladisca/internal/store"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd, *cfg)
		},
	}
	cmd.Flags().StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "listen address")
	cmd.Flags().StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for shared stock locks (default: in-process locks)")
	return cmd
}

func serve(cmd *cobra.Command, cfg config.Config) error {
	logger, closeLog, err := setupLogger(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBDriver, cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	// First run: create the schema and the admin account.
	password, err := initDatabase(ctx, database, cfg.DBDriver, cfg.AdminUser)
	switch {
	case errors.Is(err, errAlreadyInitialized):
	case err != nil:
		return fmt.Errorf("initializing database: %w", err)
	default:
		printInitResult(cmd.OutOrStdout(), redactDSN(cfg.DBDriver, cfg.DB), cfg.AdminUser, password)
		fmt.Fprintln(cmd.OutOrStdout())
	}
	slog.Info("database ready", "driver", cfg.DBDriver, "db", redactDSN(cfg.DBDriver, cfg.DB))

	// Load JWT secret from database (auto-generated on first run).
	secret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	svc := inventory.New(store.New(database),
		inventory.WithLocker(locker),
		inventory.WithLogger(logger),
	)

	scheduler, err := jobs.Start(jobs.PruneRevokedTokens(database, jobs.PruneSchedule, time.Now))
	if err != nil {
		return err
	}
	defer func() { <-scheduler.Stop().Done() }()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(database, svc, auth.NewTokens(secret)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newLocker returns a Redis locker when an address is configured, so that
// several server processes can share one database. Otherwise stock locks
// are in-process.
func newLocker(ctx context.Context, cfg config.Config) (lock.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return lock.NewLocal(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}

	slog.Info("using redis locks", "addr", cfg.RedisAddr)
	return lock.NewRedis(client), func() { client.Close() }, nil
}
