package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/server"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var opts appOptions
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.migrate = !skipMigrations
			opts.platform = true
			return runServe(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.inMemory, "in-memory", false, "keep all data in process memory instead of Postgres")
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply database migrations on startup")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts appOptions) error {
	cfg, err := config.Load(root.envFiles...)
	if err != nil {
		return err
	}
	logger, flush, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.WithError(err).Warn("Failed to flush traces")
		}
	}()

	a := newApp(cfg, logger, opts)
	if err := a.start(ctx); err != nil {
		return err
	}
	defer a.stop(context.WithoutCancel(ctx))

	var verifier middleware.ClaimsVerifier
	if cfg.AuthEnabled {
		verifier, err = middleware.NewOIDCVerifier(ctx, cfg.AuthIssuerURL, cfg.AuthClientID)
		if err != nil {
			return err
		}
	}

	e := server.New(cfg, logger, server.Dependencies{
		Promotion:  a.promotion(),
		Importer:   a.importer(),
		ImportRuns: a.runs,
		Health:     a.health,
		Verifier:   verifier,
	})
	srv := server.HTTPServer(cfg, e)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("%s listening on %s", cfg.AppName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	a.health.SetReady(true)

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	a.health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
