// Command parleyd runs the parley HTTP gateway: the multi-provider chat
// relay and Moderator/Expert/Critic debate orchestrator.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleyai/parley/gateway"
	"github.com/parleyai/parley/internal/config"
	"github.com/parleyai/parley/mode"
	"github.com/parleyai/parley/provider"
	"github.com/parleyai/parley/store"
	"github.com/parleyai/parley/store/sqlite"
)

// bindError marks a failure to acquire the listen address, which exits with
// a distinct code from every other startup failure.
type bindError struct{ cause error }

func (e *bindError) Error() string { return fmt.Sprintf("bind listen address: %v", e.cause) }
func (e *bindError) Unwrap() error { return e.cause }

func main() {
	err := newRootCmd().Execute()
	var be *bindError
	switch {
	case err == nil:
		os.Exit(0)
	case errors.As(err, &be):
		os.Exit(2)
	default:
		os.Exit(1)
	}
}

// newRootCmd builds the parleyd command tree. The root command and its one
// subcommand, serve, both run the gateway: "parleyd serve" and "parleyd" are
// equivalent, kept as two names so operators can script either one without
// surprises.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parleyd",
		Short:         "parley chat and debate gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "run the HTTP gateway (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	})
	return root
}

func run(ctx context.Context) error {
	logger := newLogger()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return err
	}
	if !cfg.HasAnyProvider() {
		err := errors.New("no provider API key configured; set at least one of MISTRAL_API_KEY, QWEN_API_KEY, GLM_API_KEY, MINIMAX_API_KEY, DEEPSEEK_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY")
		logger.Error(err.Error())
		return err
	}

	db, err := sqlite.Open(ctx, cfg.StoragePath)
	if err != nil {
		logger.Error("failed to open storage", "error", err, "path", cfg.StoragePath)
		return err
	}
	defer db.Close()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Error("failed to bind listen address", "error", err, "addr", cfg.Addr)
		return &bindError{cause: err}
	}

	st := store.New(db)
	registry := provider.NewRegistry(cfg)
	modes := mode.New(st)
	srv := gateway.New(cfg, registry, st, modes, logger)

	logger.Info("starting parleyd", "addr", cfg.Addr, "providers", registry.Providers())

	httpServer := &http.Server{Handler: srv.Echo()}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited unexpectedly", "error", err)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during graceful shutdown", "error", err)
		return err
	}
	logger.Info("parleyd stopped")
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
