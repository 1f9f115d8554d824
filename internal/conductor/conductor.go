package conductor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/partitura/partitura/internal/catalog"
	"github.com/partitura/partitura/internal/mq"
	"github.com/partitura/partitura/internal/repo"
	"github.com/partitura/partitura/internal/steps"
)

// Default configuration values.
const (
	defaultPollInterval = 5 * time.Second
	defaultBatchSize    = 16
)

// Conductor забирает runs из очереди и доводит их до конца.
//
// Цикл работы:
//   - Периодически забирает пачку PENDING runs (claim в БД)
//   - Слушает run.pending как подсказку опросить БД вне таймера
//   - Разрешает шаблон run: каталог пресетов, затем сохранённые
//   - Выполняет run в собственном процессе через executor
//   - Сохраняет терминальный run и отчёт, публикует событие завершения
//
// Несколько conductor'ов делят одну очередь без координации:
// атомарный claim гарантирует, что run выполняется ровно одним.
type Conductor struct {
	// Repositories
	runRepo      *repo.RunRepo
	templateRepo *repo.TemplateRepo
	bindingRepo  *repo.BindingRepo

	// Template source
	catalog *catalog.Source

	// MQ (опционально: nil — режим чистого polling)
	publisher *mq.Publisher
	conn      *mq.Connection
	consumer  *mq.Consumer

	// Configuration
	criticalPhases []string
	fallback       steps.Fallback
	pollInterval   time.Duration
	batchSize      int

	// Внеочередной опрос по событию run.pending
	trigger chan struct{}

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Conductor.
type Config struct {
	// Repositories
	RunRepo      *repo.RunRepo
	TemplateRepo *repo.TemplateRepo
	BindingRepo  *repo.BindingRepo

	// Catalog — источник пресетов. Обязателен.
	Catalog *catalog.Source

	// MQ. Nil допустим: conductor работает в режиме чистого polling.
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// CriticalPhases — политика отказов по умолчанию.
	// Per-run переопределение имеет приоритет.
	CriticalPhases []string

	// Fallback — поведение шагов без привязки. Default: FallbackSucceed.
	Fallback steps.Fallback

	// Polling configuration
	PollInterval time.Duration // интервал опроса БД (default: 5s)
	BatchSize    int           // размер claim-пачки (default: 16)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Conductor.
func New(cfg Config) *Conductor {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	fallback := cfg.Fallback
	if fallback == "" {
		fallback = steps.FallbackSucceed
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Conductor{
		runRepo:        cfg.RunRepo,
		templateRepo:   cfg.TemplateRepo,
		bindingRepo:    cfg.BindingRepo,
		catalog:        cfg.Catalog,
		publisher:      cfg.Publisher,
		conn:           cfg.Conn,
		criticalPhases: cfg.CriticalPhases,
		fallback:       fallback,
		pollInterval:   pollInterval,
		batchSize:      batchSize,
		trigger:        make(chan struct{}, 1),
		logger:         logger,
	}
}

// Start запускает Conductor.
func (c *Conductor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	c.logger.Info("starting conductor",
		"poll_interval", c.pollInterval,
		"batch_size", c.batchSize,
		"critical_phases", c.criticalPhases,
		"fallback", c.fallback,
	)

	if c.conn != nil {
		c.consumer = mq.NewConsumer(c.conn, c.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueRunsQueued),
			Handler:  c.handleRunQueued,
			Prefetch: 10,
		})

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("run consumer error", "error", err)
			}
		}()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.pollLoop(ctx)
	}()

	c.logger.Info("conductor started")
	return nil
}

// Stop останавливает Conductor.
func (c *Conductor) Stop() {
	c.logger.Info("stopping conductor...")

	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	if c.consumer != nil {
		c.consumer.Stop()
	}

	c.wg.Wait()

	c.logger.Info("conductor stopped")
}

// handleRunQueued обрабатывает уведомление о новом run в очереди.
// Само событие ничего не выполняет: это подсказка забрать runs из БД
// не дожидаясь таймера.
func (c *Conductor) handleRunQueued(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunQueuedEvent](&delivery.Message)
	if err != nil {
		c.logger.Error("failed to parse run.pending payload", "error", err)
		return err
	}

	c.logger.Debug("received run.pending event",
		"run_id", payload.RunID,
		"template", payload.TemplateName,
	)

	c.nudge()
	return nil
}

// nudge запрашивает внеочередной цикл опроса.
func (c *Conductor) nudge() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// pollLoop — основной цикл: опрос по таймеру и по событиям.
func (c *Conductor) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	// Первый claim сразу при старте (подхватываем runs, созданные пока
	// conductor был выключен)
	c.claimAndExecute(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.claimAndExecute(ctx)
		case <-c.trigger:
			c.claimAndExecute(ctx)
		}
	}
}

// claimAndExecute забирает пачки из очереди, пока она не опустеет.
func (c *Conductor) claimAndExecute(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		runs, err := c.runRepo.ClaimPending(ctx, c.batchSize)
		if err != nil {
			c.logger.Error("failed to claim pending runs", "error", err)
			return
		}
		if len(runs) == 0 {
			return
		}

		c.logger.Debug("claimed pending runs", "count", len(runs))

		for i := range runs {
			c.executeRun(ctx, &runs[i])
		}

		if len(runs) < c.batchSize {
			return
		}
	}
}
