package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hoangvvo/afford-agent/httpapi"
	"github.com/hoangvvo/afford-agent/internal/app"
	"github.com/hoangvvo/afford-agent/internal/config"
	"github.com/hoangvvo/afford-agent/internal/logging"
	"github.com/hoangvvo/afford-agent/mcpserver"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	if logging.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := app.InitTracing(context.Background(), cfg, "afford-server")
	if err != nil {
		return err
	}

	components, err := app.Build(cfg, logger)
	if err != nil {
		return err
	}

	mcp := mcpserver.New(components.Extractor, components.Searcher, &mcpserver.Options{Logger: logger})
	router := httpapi.SetupRouter(components.Agent, httpapi.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		MCPHandler:  mcpserver.NewHTTPHandler(mcp),
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "model", cfg.ModelID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", "error", err)
	}
	return nil
}
