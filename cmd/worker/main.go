package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biaslab/bias-engine/internal/bootstrap"
	"github.com/biaslab/bias-engine/internal/config"
	"github.com/biaslab/bias-engine/internal/core/domain"
	"github.com/biaslab/bias-engine/internal/core/ports"
	"github.com/biaslab/bias-engine/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logging.Init("bias-engine-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "bias-engine-worker")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if app.Queue == nil {
		log.Fatal("worker requires NATS_URL to be set")
	}

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeAnalysisJobs(ctx, func(handlerCtx context.Context, job domain.AnalysisJob) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 2*cfg.AnalysisOverallTimeout)
		defer cancel()

		_, err := app.Analyzer.Analyze(processCtx, ports.AnalyzeRequest{
			Input:    job.Input,
			Priority: job.Priority,
		})
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
