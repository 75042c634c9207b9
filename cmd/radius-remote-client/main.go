// Package main RADIUS Remote Client API
//
// @title           RADIUS Remote Client API
// @version         1.0
// @description     API для управления абонентами RADIUS поверх общей базы FreeRADIUS

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the API key.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	radiusremoteclient "github.com/SV-Com/RADIUS-Remote-Client/internal/app/radius-remote-client"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/config"

	_ "github.com/SV-Com/RADIUS-Remote-Client/docs"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Env)}))

	logger.Info("starting radius-remote-client",
		slog.String("env", cfg.Env),
		slog.String("nas_type", cfg.NASType))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := radiusremoteclient.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("radius-remote-client stopped gracefully")
}

func logLevel(env string) slog.Level {
	if env == "prod" {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
