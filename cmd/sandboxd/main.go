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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/innovatehub-ph/runtime-sandbox/internal/config"
	"github.com/innovatehub-ph/runtime-sandbox/internal/contextstore"
	"github.com/innovatehub-ph/runtime-sandbox/internal/llm"
	"github.com/innovatehub-ph/runtime-sandbox/internal/orchestrator"
	"github.com/innovatehub-ph/runtime-sandbox/internal/process"
	"github.com/innovatehub-ph/runtime-sandbox/internal/server"
	"github.com/innovatehub-ph/runtime-sandbox/internal/store"
	"github.com/innovatehub-ph/runtime-sandbox/internal/workspace"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sandboxd",
		Short: "Per-session AI agent execution runtime",
		Long: `sandboxd serves isolated per-session workspaces, a process runtime with
interactive terminals, a context/log store with cursor polling, a websocket
status channel, and an AI orchestration pipeline with provider fallback.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}

	workspaces := workspace.NewManager(cfg.Workspace.Root, db, logger)
	runner := process.NewRunner(db, logger, cfg.Process.CommandTimeout, cfg.Process.MaxOutputBytes)
	terminals := process.NewManager(runner, logger)
	contexts := contextstore.NewRegistry(logger)

	var pipeline *orchestrator.Pipeline
	providers, err := llm.NewProvidersFromConfig(cfg.LLM.Providers)
	if err != nil {
		return err
	}
	if len(providers) > 0 {
		chain := llm.NewChain(providers, cfg.LLM.RequestTimeout, logger)
		extractor := orchestrator.NewExtractor(chain, db, cfg.Memory.ExtractionMinimum, cfg.Memory.ExtractionTimeout, logger)
		pipeline = orchestrator.NewPipeline(db, workspaces, runner, contexts, chain, extractor, cfg.Memory, logger)
		logger.Info("llm providers configured", zap.Strings("providers", chain.Providers()))
	} else {
		logger.Warn("no llm providers configured, message endpoint disabled")
	}

	srv := server.New(db, workspaces, runner, terminals, contexts, pipeline, logger)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Router(),
		// The websocket path needs an unbounded write window; read
		// headers are still bounded.
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Kill any terminals the status channel left behind.
	for _, id := range terminals.IDs() {
		terminals.Kill(id)
	}
	return nil
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
