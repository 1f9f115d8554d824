package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/partitura/partitura/internal/mq"
	"github.com/partitura/partitura/internal/repo"
	"github.com/partitura/partitura/internal/telemetry"
)

const defaultPrefetch = 10

// Collector архивирует итоговые отчёты runs.
//
// Collector — чистый потребитель артефакта: отчёт приходит внутри
// события run.completed / run.failed, к таблице runs collector не
// обращается. Архив идемпотентен по run_id, поэтому повторная
// доставка события безопасна.
type Collector struct {
	archiveRepo *repo.ArchiveRepo

	conn     *mq.Connection
	consumer *mq.Consumer

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Collector.
type Config struct {
	// ArchiveRepo — архив отчётов.
	ArchiveRepo *repo.ArchiveRepo

	// Conn — соединение с RabbitMQ.
	Conn *mq.Connection

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Collector.
func New(cfg Config) *Collector {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Collector{
		archiveRepo: cfg.ArchiveRepo,
		conn:        cfg.Conn,
		logger:      logger,
	}
}

// Start запускает потребление очереди reports.archive.
func (c *Collector) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	c.consumer = mq.NewConsumer(c.conn, c.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueReportsArchive),
		Handler:  c.handleRunFinished,
		Prefetch: defaultPrefetch,
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("report consumer error", "error", err)
		}
	}()

	c.logger.Info("collector started", "queue", mq.QueueReportsArchive)
	return nil
}

// Stop останавливает Collector.
func (c *Collector) Stop() {
	c.logger.Info("stopping collector...")

	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	if c.consumer != nil {
		c.consumer.Stop()
	}

	c.wg.Wait()

	c.logger.Info("collector stopped")
}

// handleRunFinished обрабатывает событие завершения run.
func (c *Collector) handleRunFinished(ctx context.Context, delivery *mq.Delivery) error {
	event, err := mq.ParsePayload[mq.RunFinishedEvent](&delivery.Message)
	if err != nil {
		c.logger.Error("failed to parse run finished payload", "error", err)
		return err
	}

	if event.Report == nil {
		// Архивировать нечего, и повторная доставка этого не изменит
		c.logger.Warn("run finished event without report",
			"run_id", event.RunID,
			"status", event.Status,
		)
		return nil
	}

	if err := c.archiveRepo.Archive(ctx, event.Report, time.Now()); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			c.logger.Debug("report already archived", "run_id", event.RunID)
			return nil
		}
		return fmt.Errorf("archive report: %w", err)
	}

	telemetry.ReportArchived()

	c.logger.Info("report archived",
		"run_id", event.RunID,
		"template", event.TemplateName,
		"status", event.Status,
		"total_steps", event.Report.TotalSteps,
		"success_rate", event.Report.SuccessRate,
	)

	return nil
}
