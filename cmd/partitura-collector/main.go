// Partitura Collector — архивирует итоговые отчёты runs.
//
// Collector:
//   - Потребляет события run.completed / run.failed из RabbitMQ
//   - Складывает отчёты в архив Postgres (идемпотентно по run_id)
//   - Повреждённые события уходят в DLQ, архив от них не страдает
//
// В отличие от остальных сервисов, collector без брокера бесполезен:
// при недоступном RabbitMQ процесс завершается.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partitura/partitura/internal/collector"
	"github.com/partitura/partitura/internal/mq"
	"github.com/partitura/partitura/internal/repo"
	"github.com/partitura/partitura/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting partitura-collector")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	archiveRepo := repo.NewArchiveRepo(pool)

	// RabbitMQ
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Error("RabbitMQ not available", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	// Создаём топологию
	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	}

	// Создаём collector
	coll := collector.New(collector.Config{
		ArchiveRepo: archiveRepo,
		Conn:        mqConn,
		Logger:      logger,
	})

	// Запускаем collector
	if err := coll.Start(ctx); err != nil {
		logger.Error("failed to start collector", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("COLLECTOR_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем collector
	coll.Stop()
	logger.Info("partitura-collector stopped")
}
