package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/addrbook/addrbook-go/internal/config"
	"github.com/addrbook/addrbook-go/internal/crypto"
	"github.com/addrbook/addrbook-go/internal/handler"
	"github.com/addrbook/addrbook-go/internal/repository"
	"github.com/addrbook/addrbook-go/internal/repository/memory"
	"github.com/addrbook/addrbook-go/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

func run(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	hasher := crypto.NewPasswordHasher(crypto.DefaultHashParams())
	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry)

	authService, err := service.NewAuthService(store, hasher, tokens)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.NewRouter(cfg, handler.Services{
			Auth:      authService,
			Users:     service.NewUserService(store, hasher),
			Addresses: service.NewAddressService(store),
			Tokens:    tokens,
			Store:     store,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// openStore returns the configured store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		slog.Warn("using in-memory store, data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	if cfg.DatabaseMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			slog.Warn("close database", "error", err)
		}
	}
	return repository.NewSQLStore(db), closeDB, nil
}
