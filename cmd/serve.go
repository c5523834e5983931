// serve.go implements the "studio serve" command: the HTTP API server.
//
// Unlike other commands that run and exit, serve blocks until interrupted,
// then drains in-flight requests before closing the database.

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blueprintlab/studio/internal/audit"
	"github.com/blueprintlab/studio/internal/document"
	"github.com/blueprintlab/studio/internal/server"
	"github.com/blueprintlab/studio/internal/tree"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the studio HTTP API server.

Listens on the configured host:port (default 0.0.0.0:8000) and serves the
project, node, document, and dictionary APIs plus the internal
context-assembly endpoint.`,
		RunE: runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Init(); err != nil {
		return err
	}
	if err := audit.Init(st.DB()); err != nil {
		logger.Warn("audit log unavailable", zap.Error(err))
	}

	ctx := context.Background()
	trees, err := tree.New(ctx, st, logger)
	if err != nil {
		return err
	}
	docs := document.New(st, logger)
	srv := server.New(cfg, st, trees, docs, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
