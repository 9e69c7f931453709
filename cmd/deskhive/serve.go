// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/deskhive/deskhive/internal/auth"
	authpg "github.com/deskhive/deskhive/internal/auth/postgres"
	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/logging"
	"github.com/deskhive/deskhive/internal/observability"
	"github.com/deskhive/deskhive/internal/store"
	"github.com/deskhive/deskhive/internal/web"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication service",
		Long: `Start the HTTP API for login, password setup and reset, and
token verification, plus the metrics/health endpoint and the
expired-token sweeper.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().String("web.addr", ":8080", "HTTP API listen address")
	cmd.Flags().String("observability.addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log.format", "json", "log format (json or text)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database URL is required (flag --database.url or config key database.url)")
	}

	logging.SetDefault("deskhive", version, cfg.Log.Format)
	logger := slog.Default()

	logger.Info("starting auth service",
		"web_addr", cfg.Web.Addr,
		"session_timeout", cfg.Session.Timeout,
		"consumption_policy", cfg.Session.ConsumptionPolicy,
	)

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("connected to database")

	clock := auth.SystemClock{}
	tokens := authpg.NewTokenStore(pool, auth.CryptoTokenSource{}, clock, cfg.Session.Timeout)
	users := authpg.NewUserDirectory(pool)
	workspaces := authpg.NewWorkspaceDirectory(pool)
	hasher := auth.NewArgon2idHasher()

	authSvc, err := auth.NewAuthServiceWithLogger(users, tokens, hasher, logger)
	if err != nil {
		return err
	}
	setupSvc, err := auth.NewSetupService(users, tokens, workspaces, hasher, clock,
		auth.WithConsumptionPolicy(cfg.Policy()),
		auth.WithSetupLogger(logger),
	)
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifierWithLogger(tokens, users, clock, logger)
	if err != nil {
		return err
	}
	sweeper, err := auth.NewSweeper(tokens, cfg.Session.SweepInterval, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Observability server, if configured.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Observability.Addr != "" {
		obsServer = observability.NewServer(cfg.Observability.Addr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		auth.RegisterMetrics(obsServer.Registry())
		metrics = obsServer.Metrics()

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	handler, err := web.NewHandler(authSvc, setupSvc, verifier, logger, metrics)
	if err != nil {
		return err
	}

	var inviteGate gin.HandlerFunc
	if cfg.Web.InviteSecret != "" {
		inviteGate = web.InvitationGate([]byte(cfg.Web.InviteSecret))
	} else {
		logger.Warn("web.invite_secret not set, password setup endpoints disabled")
	}

	apiServer := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           web.NewRouter(handler, inviteGate),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sweeper.Run(ctx)

	apiErrChan := make(chan error, 1)
	go func() {
		if serveErr := apiServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			apiErrChan <- serveErr
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Auth service started")
	logger.Info("auth service ready", "web_addr", cfg.Web.Addr)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-apiErrChan:
		return oops.Code("WEB_SERVE_FAILED").With("addr", cfg.Web.Addr).Wrap(err)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping API server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the context when a background server reports
// an error, so one failing listener takes the whole process down cleanly.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
