package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	appcfg "github.com/jo-hoe/scribed/internal/config"
	"github.com/jo-hoe/scribed/internal/engine"
	"github.com/jo-hoe/scribed/internal/locator"
	"github.com/jo-hoe/scribed/internal/server"
	"github.com/jo-hoe/scribed/internal/workspace"
)

func main() {
	// Load config
	cfg, err := appcfg.Load("")
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	// Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	// Workspace
	ws := workspace.New(cfg.Engine.WorkspaceDir)
	if err := ws.Ensure(); err != nil {
		logger.Error("ensure workspace", "dir", ws.Dir(), "err", err)
		os.Exit(1)
	}

	// Runtime locator and engine
	loc := locator.New(cfg.Engine.RuntimeCandidates)
	eng := engine.New(logger, cfg, loc, ws)

	rootCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng.StartupCheck(rootCtx)

	// HTTP server
	svc := &server.Service{
		Log:    logger,
		Cfg:    cfg,
		Engine: eng,
	}
	httpSrv := server.NewHTTPServer(svc)

	// Run server in background
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "address", cfg.Server.Addr, "workspace", ws.Dir())
		if err := httpSrv.ListenAndServe(); err != nil && err.Error() != "http: Server closed" {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "err", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	logger.Info("server stopped")
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
