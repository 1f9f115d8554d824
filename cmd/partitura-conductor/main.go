// Partitura Conductor — выполняет runs шаблонов.
//
// Conductor:
//   - Забирает PENDING runs из БД (FOR UPDATE SKIP LOCKED)
//   - Разрешает шаблон: каталог пресетов, затем сохранённые шаблоны
//   - Собирает Step Runner из привязок и выполняет run по фазам
//   - Сохраняет итоговый run с отчётом и публикует событие завершения
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partitura/partitura/internal/catalog"
	"github.com/partitura/partitura/internal/conductor"
	"github.com/partitura/partitura/internal/mq"
	"github.com/partitura/partitura/internal/repo"
	"github.com/partitura/partitura/internal/steps"
	"github.com/partitura/partitura/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting partitura-conductor")

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

	// Создаём репозитории
	runRepo := repo.NewRunRepo(pool)
	templateRepo := repo.NewTemplateRepo(pool)
	bindingRepo := repo.NewBindingRepo(pool)

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection

	mqConn, err = mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Создаём conductor
	cond := conductor.New(conductor.Config{
		RunRepo:        runRepo,
		TemplateRepo:   templateRepo,
		BindingRepo:    bindingRepo,
		Catalog:        catalog.Default(),
		Publisher:      publisher,
		Conn:           mqConn,
		CriticalPhases: criticalPhasesFromEnv(),
		Fallback:       steps.ParseFallback(os.Getenv("STEP_FALLBACK")),
		PollInterval:   pollIntervalFromEnv(),
		Logger:         logger,
	})

	// Запускаем conductor
	if err := cond.Start(ctx); err != nil {
		logger.Error("failed to start conductor", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("CONDUCTOR_PORT"); v != "" {
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

	// Останавливаем conductor
	cond.Stop()
	logger.Info("partitura-conductor stopped")
}

// criticalPhasesFromEnv читает набор критических фаз по умолчанию
// из CRITICAL_PHASES (через запятую). Default: security,deploy.
func criticalPhasesFromEnv() []string {
	raw := os.Getenv("CRITICAL_PHASES")
	if raw == "" {
		raw = "security,deploy"
	}

	var phases []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			phases = append(phases, p)
		}
	}
	return phases
}

// pollIntervalFromEnv читает интервал опроса БД из POLL_INTERVAL
// (формат time.ParseDuration). Ноль оставляет значение по умолчанию.
func pollIntervalFromEnv() time.Duration {
	v := os.Getenv("POLL_INTERVAL")
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
