package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/partitura/partitura/internal/catalog"
	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/mq"
	"github.com/partitura/partitura/internal/repo"
	"github.com/partitura/partitura/internal/telemetry"
)

// Scheduler — планировщик, превращающий due schedules в PENDING runs.
type Scheduler struct {
	scheduleRepo *repo.ScheduleRepo
	runRepo      *repo.RunRepo
	templateRepo *repo.TemplateRepo
	catalog      *catalog.Source
	publisher    *mq.Publisher
	logger       *slog.Logger
	batchSize    int
}

// Config — конфигурация Scheduler.
type Config struct {
	ScheduleRepo *repo.ScheduleRepo
	RunRepo      *repo.RunRepo
	TemplateRepo *repo.TemplateRepo

	// Catalog — каталог пресетов для проверки разрешимости имени шаблона.
	Catalog *catalog.Source

	// Publisher — опционально; без него conductor подхватит runs по таймеру.
	Publisher *mq.Publisher

	Logger *slog.Logger

	// BatchSize — количество schedules за один тик (default: 100).
	BatchSize int
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduleRepo: cfg.ScheduleRepo,
		runRepo:      cfg.RunRepo,
		templateRepo: cfg.TemplateRepo,
		catalog:      cfg.Catalog,
		publisher:    cfg.Publisher,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due schedules (enabled=true, next_due_at <= now)
// 2. Передвигает next_due_at
// 3. Создаёт PENDING run
// 4. Публикует run.pending в RabbitMQ
//
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	schedules, err := s.scheduleRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var processed, created int
	for i := range schedules {
		sched := &schedules[i]

		runCreated, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		processed++
		if runCreated {
			created++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"processed", processed,
		"runs_created", created,
	)

	return nil
}

// processSchedule обрабатывает один due schedule.
// Возвращает true, если run был создан.
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	// Шаблон должен разрешаться хотя бы на момент постановки:
	// run по исчезнувшему шаблону conductor лишь отклонит
	if !s.templateResolvable(ctx, sched.TemplateName) {
		s.logger.Warn("template not found for schedule, skipping",
			"schedule_id", sched.ID,
			"template", sched.TemplateName,
		)
		return false, nil
	}

	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		// Без нового next_due_at расписание срабатывало бы каждый тик.
		// Такой schedule выключается до ручного исправления.
		s.logger.Error("failed to calculate next due, disabling schedule",
			"schedule_id", sched.ID,
			"error", err,
		)
		sched.Enabled = false
		sched.UpdatedAt = now
		if err := s.scheduleRepo.Update(ctx, sched); err != nil {
			return false, fmt.Errorf("disable schedule: %w", err)
		}
		return false, nil
	}

	run := domain.NewRun(sched.TemplateName, sched.Inputs)
	run.CriticalPhases = sched.CriticalPhases

	// Сначала фиксируем next_due_at, потом создаём run: повторный тик
	// не должен поставить второй run за то же срабатывание
	sched.RecordRun(run.ID, nextDue)
	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return false, fmt.Errorf("update schedule: %w", err)
	}

	if err := s.runRepo.Create(ctx, run); err != nil {
		return false, fmt.Errorf("create run: %w", err)
	}

	s.logger.Info("created run from schedule",
		"run_id", run.ID,
		"schedule_id", sched.ID,
		"schedule_name", sched.Name,
		"template", sched.TemplateName,
		"next_due_at", nextDue,
	)
	telemetry.ScheduleFired()

	if s.publisher != nil {
		if err := s.publisher.PublishRunQueued(ctx, run.ID, run.TemplateName); err != nil {
			// Не фатальная ошибка — run уже создан в БД,
			// conductor заберёт его по таймеру
			s.logger.Warn("failed to publish run.pending",
				"run_id", run.ID,
				"error", err,
			)
		}
	}

	return true, nil
}

// templateResolvable проверяет, разрешается ли имя шаблона:
// сначала каталог пресетов, затем сохранённые шаблоны.
func (s *Scheduler) templateResolvable(ctx context.Context, name string) bool {
	if s.catalog != nil && s.catalog.Has(name) {
		return true
	}
	if s.templateRepo == nil {
		return false
	}
	_, err := s.templateRepo.GetByName(ctx, name)
	if err == nil {
		return true
	}
	if !errors.Is(err, repo.ErrNotFound) {
		s.logger.Error("failed to resolve template for schedule",
			"template", name,
			"error", err,
		)
	}
	return false
}
