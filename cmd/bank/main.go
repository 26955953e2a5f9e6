package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cardbank/internal/banking/application"
	"cardbank/internal/banking/cli"
	"cardbank/internal/banking/domain"
	"cardbank/internal/banking/infrastructure/boltstore"
	"cardbank/internal/banking/infrastructure/credentials"
	"cardbank/internal/banking/infrastructure/filestore"
	"cardbank/internal/banking/infrastructure/memory"
	"cardbank/internal/banking/infrastructure/postgres"
	"cardbank/internal/common/config"
	"cardbank/internal/common/logging"
	"cardbank/internal/common/metrics"
	vo "cardbank/internal/common/value_objects"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so they never interleave with the menu on stdout
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	if err := run(cfg); err != nil {
		logging.Error("cardbank stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startupCtx := logging.WithCorrelationID(ctx, vo.NewCorrelationID())
	driver := cfg.ResolvedStoreDriver()

	logging.InfoContext(startupCtx, "Starting cardbank",
		"store_driver", driver,
		"environment", cfg.Environment,
		"log_level", cfg.LogLevel,
	)

	store, closeStore, err := openStore(startupCtx, cfg, driver)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := memory.NewRegistry(store, driver)
	if _, err := registry.Load(startupCtx); err != nil {
		return err
	}

	policy := domain.BalanceBounded
	if !cfg.EnforceBalanceBounds {
		policy = domain.BalanceUnbounded
	}

	hasher := credentials.NewHasher(cfg.BcryptCost)
	auth := application.NewAuthenticator(registry, hasher, application.AuthConfig{
		MaxAttempts:       cfg.AuthMaxAttempts,
		DeleteMaxAttempts: cfg.DeleteMaxAttempts,
	})
	service := application.NewBankingService(registry, hasher, application.ServiceConfig{
		BalancePolicy: policy,
	})
	shell := cli.NewShell(service, auth, os.Stdin, os.Stdout)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Leaving the menu stops everything else
		defer stop()
		err := shell.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.MetricsAddr != "" {
		server := newMetricsServer(cfg.MetricsAddr)

		g.Go(func() error {
			logging.Info("Metrics server listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logging.Info("cardbank stopped")
	return err
}

// openStore builds the account store selected by driver.
// The returned close function releases the store's resources.
func openStore(ctx context.Context, cfg *config.Config, driver string) (domain.Store, func(), error) {
	switch driver {
	case config.StoreDriverYAML:
		return filestore.New(cfg.StorePath, filestore.FormatYAML), func() {}, nil

	case config.StoreDriverBolt:
		store, err := boltstore.Open(cfg.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening bolt store: %w", err)
		}
		return store, closer(store, "bolt"), nil

	case config.StoreDriverPostgres:
		pool, err := cfg.NewPostgresPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(pool), pool.Close, nil

	default:
		return filestore.New(cfg.StorePath, filestore.FormatJSON), func() {}, nil
	}
}

func closer(c io.Closer, driver string) func() {
	return func() {
		if err := c.Close(); err != nil {
			logging.Error("Failed to close store", "driver", driver, "error", err)
		}
	}
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
