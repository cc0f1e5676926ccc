package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/strokestats/strokestats/server/internal/config"
)

func main() {
	configPath := flag.String("config", "server.yaml", "path to config file")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("strokestats-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		slog.Warn("unknown log level, keeping info", "level", cfg.Server.LogLevel)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"max_scopes", cfg.Server.Reports.MaxScopes,
		"report_ttl", cfg.Server.Reports.TTL,
		"alert_rules", len(cfg.Server.Alerts.Rules),
		"webhooks", len(cfg.Server.Alerts.Webhooks),
	)
	if cfg.Server.Auth.Mode == "apikey" && cfg.Server.Auth.Key() == "" {
		slog.Warn("auth key is empty, every authenticated request will be refused", "key_env", cfg.Server.Auth.KeyEnv)
	}

	srv, err := newServer(cfg.Server)
	if err != nil {
		slog.Error("failed to build server", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Idle scope eviction and the stream ticker.
	go srv.store.Run(ctx)
	go srv.hub.Run(ctx)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("strokestats-server shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	srv.alerts.Wait()
}
