package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ngmaloney/routewatch/internal/analysis"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/httpapi"
	"github.com/ngmaloney/routewatch/internal/logging"
	"github.com/ngmaloney/routewatch/internal/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("routewatch-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("telemetry init failed", "error", err)
	} else {
		defer telemetry.Shutdown(shutdownTracer, logger)
	}

	rt, err := analysis.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("build service: %v", err)
	}
	defer rt.Close()

	app := httpapi.NewApp(&httpapi.Dependencies{
		Analysis:        rt.Service,
		Ports:           rt.Ports,
		Resolver:        rt.Resolver,
		Checks:          rt.Checks,
		AnalysisTimeout: time.Duration(cfg.Server.AnalysisTimeout) * time.Second,
		Version:         version,
		Logger:          logger,
	},
		time.Duration(cfg.Server.ReadTimeout)*time.Second,
		time.Duration(cfg.Server.WriteTimeout)*time.Second,
	)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	logger.Info("server stopped")
}
