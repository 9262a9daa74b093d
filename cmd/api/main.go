package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/auth"
	authStore "github.com/MrJamesThe3rd/budgetbuddy/internal/auth/store"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/config"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/database"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/export"
	budgetHttp "github.com/MrJamesThe3rd/budgetbuddy/internal/http"
	authHandler "github.com/MrJamesThe3rd/budgetbuddy/internal/http/auth"
	exportHandler "github.com/MrJamesThe3rd/budgetbuddy/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/budgetbuddy/internal/http/importcsv"
	txHandler "github.com/MrJamesThe3rd/budgetbuddy/internal/http/transaction"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/importer"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction/local"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction/memory"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction/remote"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	localDB, err := database.OpenLocal(cfg.Local.Path, cfg.Local.LogMode)
	if err != nil {
		return err
	}

	localStore, err := local.New(localDB)
	if err != nil {
		return fmt.Errorf("failed to prepare local store: %w", err)
	}

	remoteStore, users, closeRemote, err := openRemote(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRemote()

	var (
		authService        = auth.NewService(users, auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL), auth.WithBcryptCost(cfg.Auth.BcryptCost))
		transactionService = transaction.NewService(localStore, remoteStore, authService, transaction.WithLogger(slog.Default()))
		importService      = importer.NewService()
		exportService      = export.NewService()
	)

	authService.OnSignOut(transactionService.Purge)

	var (
		authH        = authHandler.NewHandler(authService)
		transactionH = txHandler.NewHandler(transactionService, cfg.Dashboard.TrendMonths,
			txHandler.WithSimulateErrors(cfg.Remote.SimulateErrors))
		importH      = importHandler.NewHandler(importService, transactionService)
		exportH      = exportHandler.NewHandler(exportService, transactionService)
	)

	router := budgetHttp.New(authService, cfg.Server.AllowedOrigins, authH, transactionH, importH, exportH)

	g, gctx := errgroup.WithContext(ctx)

	srv := budgetHttp.NewServer(gctx, fmt.Sprintf(":%d", cfg.App.Port), router, cfg.Server.Timeout)

	g.Go(func() error {
		slog.Info("starting server", "port", srv.Addr, "remote", cfg.Remote.Mode)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		slog.Info("shutting down server")

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openRemote builds the remote document store and the user repository for the configured mode.
func openRemote(ctx context.Context, cfg *config.Config) (transaction.RemoteStore, auth.Repository, func(), error) {
	if cfg.Remote.Mode == config.RemoteMemory {
		slog.Warn("using in-memory remote store, data is lost on exit")
		return memory.New(), auth.NewInMemory(), func() {}, nil
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		closeDB(db)
		return nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return remote.New(db), authStore.New(db), func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}
