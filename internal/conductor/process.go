package conductor

import (
	"context"
	"errors"
	"fmt"

	"github.com/partitura/partitura/internal/catalog"
	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/executor"
	"github.com/partitura/partitura/internal/mq"
	"github.com/partitura/partitura/internal/repo"
	"github.com/partitura/partitura/internal/steps"
	"github.com/partitura/partitura/internal/telemetry"
)

// executeRun выполняет один заявленный run от разрешения шаблона до
// публикации события завершения.
func (c *Conductor) executeRun(ctx context.Context, run *domain.Run) {
	logger := telemetry.WithRunID(c.logger, run.ID.String())

	tpl, err := c.resolveTemplate(ctx, run)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			c.failRun(ctx, run, err.Error())
			return
		}
		// Инфраструктурная ошибка: run возвращается в очередь
		logger.Error("failed to resolve template", "error", err)
		c.requeueRun(ctx, run)
		return
	}

	bindings, err := c.loadBindings(ctx)
	if err != nil {
		logger.Error("failed to load step bindings", "error", err)
		c.requeueRun(ctx, run)
		return
	}

	runner := steps.Instrument(steps.NewRunner(steps.RunnerConfig{
		Bindings: bindings,
		Fallback: c.fallback,
		Logger:   logger,
	}))

	exec := executor.New(executor.Config{
		Runner: runner,
		Policy: c.policyFor(run),
		Logger: logger,
	})

	result, err := exec.Execute(ctx, tpl, run.Inputs)
	if err != nil {
		// Шаблон отклонён до начала выполнения
		c.failRun(ctx, run, err.Error())
		return
	}

	graft(run, result)
	c.finishRun(ctx, run)
}

// resolveTemplate находит шаблон run: сначала каталог пресетов, затем
// сохранённые шаблоны. Имя из каталога затеняет одноимённый сохранённый
// шаблон.
func (c *Conductor) resolveTemplate(ctx context.Context, run *domain.Run) (*domain.Template, error) {
	tpl, err := c.catalog.Get(run.TemplateName)
	if err == nil {
		return tpl, nil
	}
	if !errors.Is(err, catalog.ErrPresetNotFound) {
		return nil, err
	}

	tpl, err = c.templateRepo.GetByName(ctx, run.TemplateName)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, run.TemplateName)
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return tpl, nil
}

// loadBindings загружает привязки шагов и индексирует их по имени.
func (c *Conductor) loadBindings(ctx context.Context) (map[string]domain.StepBinding, error) {
	list, err := c.bindingRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}

	bindings := make(map[string]domain.StepBinding, len(list))
	for _, b := range list {
		bindings[b.StepName] = b
	}
	return bindings, nil
}

// policyFor возвращает политику отказов run: per-run переопределение
// имеет приоритет над набором по умолчанию.
func (c *Conductor) policyFor(run *domain.Run) *executor.Policy {
	if len(run.CriticalPhases) > 0 {
		return executor.NewPolicy(run.CriticalPhases)
	}
	return executor.NewPolicy(c.criticalPhases)
}

// graft переносит исход выполнения на заявленную идентичность.
//
// Executor создаёт собственный Run, но БД знает run под ID из очереди:
// результаты, фазы и временные метки переезжают, идентичность и
// политика остаются заявленными.
func graft(claimed, result *domain.Run) {
	claimed.TemplateID = result.TemplateID
	claimed.Status = result.Status
	claimed.CurrentPhase = result.CurrentPhase
	claimed.Phases = result.Phases
	claimed.ResultsByPhase = result.ResultsByPhase
	claimed.ErrorsByPhase = result.ErrorsByPhase
	claimed.Error = result.Error
	// Метки executor'а из одних часов процесса: двое часов (БД при
	// claim, Go при финише) дали бы кривую длительность
	claimed.StartedAt = result.StartedAt
	claimed.FinishedAt = result.FinishedAt
}

// finishRun сохраняет терминальный run с отчётом и публикует событие.
func (c *Conductor) finishRun(ctx context.Context, run *domain.Run) {
	logger := telemetry.WithRunID(c.logger, run.ID.String())

	if err := c.runRepo.Update(ctx, run); err != nil {
		logger.Error("failed to persist finished run", "error", err)
		return
	}

	report, err := executor.BuildReport(run)
	if err != nil {
		logger.Error("failed to build report", "error", err)
		return
	}
	if err := c.runRepo.SaveReport(ctx, run.ID, report); err != nil {
		logger.Error("failed to save report", "error", err)
	}

	telemetry.ObserveRun(string(run.Status), run.Duration())
	c.publishFinished(ctx, run, report)

	logger.Info("run finished",
		"template", run.TemplateName,
		"status", run.Status,
		"steps", run.TotalResults(),
		"failures", report.TotalFailures,
		"duration", run.Duration(),
	)
}

// failRun отклоняет run до начала выполнения: несуществующий или
// некорректный шаблон. Отчёт производится и здесь, пустой: терминальный
// run без отчёта выглядел бы для потребителей как незавершённый.
func (c *Conductor) failRun(ctx context.Context, run *domain.Run, reason string) {
	run.MarkFailed(reason)

	c.logger.Warn("run rejected",
		"run_id", run.ID,
		"template", run.TemplateName,
		"reason", reason,
	)

	c.finishRun(ctx, run)
}

// requeueRun возвращает run в очередь после инфраструктурного сбоя.
func (c *Conductor) requeueRun(ctx context.Context, run *domain.Run) {
	run.Status = domain.RunStatusPending
	run.StartedAt = nil

	if err := c.runRepo.Update(ctx, run); err != nil {
		c.logger.Error("failed to requeue run", "run_id", run.ID, "error", err)
		return
	}

	c.logger.Info("run requeued", "run_id", run.ID)
}

// publishFinished публикует событие завершения run с отчётом.
// Отсутствие брокера или сбой публикации не фатальны: отчёт уже в БД.
func (c *Conductor) publishFinished(ctx context.Context, run *domain.Run, report *domain.Report) {
	if c.publisher == nil {
		return
	}

	event := &mq.RunFinishedEvent{
		RunID:        run.ID,
		TemplateName: run.TemplateName,
		Status:       run.Status,
		Error:        run.Error,
		Report:       report,
	}
	if run.FinishedAt != nil {
		event.FinishedAt = *run.FinishedAt
	}

	if err := c.publisher.PublishRunFinished(ctx, event); err != nil {
		c.logger.Warn("failed to publish run finished event",
			"run_id", run.ID,
			"error", err,
		)
	}
}
