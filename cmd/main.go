package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/botvine/huddle/internal/app"
	"github.com/botvine/huddle/internal/observability"
)

func main() {
	// Local development convenience; deployments set real env vars.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if observability.Enabled() {
		observability.Init()
		a.Log.Info("metrics enabled at /metrics")
	}
	otelShutdown := observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: "huddle",
		Environment: a.Cfg.Environment,
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	if err := a.Run(ctx); err != nil {
		a.Log.Error("run failed", "error", err)
		a.Close()
		os.Exit(1)
	}
	a.Log.Info("shutdown complete")
}
