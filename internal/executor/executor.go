package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/engine"
)

// Config — зависимости исполнителя.
type Config struct {
	// Runner — внешний исполнитель шагов. Обязателен.
	Runner StepRunner

	// Policy — политика отказов. Если nil, ни одна фаза не считается
	// критической.
	Policy *Policy

	// Logger — structured logger. Если nil, используется slog.Default().
	Logger *slog.Logger
}

// Executor выполняет композиционные шаблоны.
//
// Состояния между runs не хранит: каждый Execute самодостаточен,
// runs независимы и могут выполняться одновременно.
type Executor struct {
	runner StepRunner
	policy *Policy
	logger *slog.Logger
}

// New создаёт Executor.
func New(cfg Config) *Executor {
	if cfg.Policy == nil {
		cfg.Policy = NewPolicy(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Executor{
		runner: cfg.Runner,
		policy: cfg.Policy,
		logger: cfg.Logger,
	}
}

// Execute выполняет шаблон от начала до конца и возвращает Run.
//
// Ошибку Execute возвращает только для некорректного шаблона
// (ConfigError) — до начала выполнения. Отказы шагов ошибкой не
// являются: они записываются в Run как failed StepResult, и Run
// всегда доводится до терминального статуса, даже при прерывании
// критической фазой.
func (e *Executor) Execute(ctx context.Context, tpl *domain.Template, callerCtx map[string]any) (*domain.Run, error) {
	if tpl == nil {
		return nil, ErrNilTemplate
	}
	if e.runner == nil {
		return nil, ErrNoRunner
	}

	if err := engine.Validate(tpl); err != nil {
		return nil, fmt.Errorf("validate template: %w", err)
	}
	plan, err := engine.BuildPlan(tpl)
	if err != nil {
		return nil, fmt.Errorf("build plan: %w", err)
	}

	run := domain.BeginRun(tpl, callerCtx)
	e.logger.Info("run started",
		"run_id", run.ID,
		"template", tpl.Name,
		"phases", len(plan),
		"steps", plan.TotalSteps(),
	)

	for _, phase := range plan {
		run.EnterPhase(phase.Phase)

		for _, batch := range phase.Batches {
			for _, res := range e.runBatch(ctx, batch, callerCtx) {
				run.RecordResult(res)
			}
		}

		errs := run.PhaseErrors(phase.Phase)
		if e.policy.Decide(phase.Phase, errs) == DecisionAbort {
			run.MarkFailed(fmt.Sprintf("critical phase %q failed: %d of %d steps errored",
				phase.Phase, len(errs), phase.StepCount()))
			e.logger.Warn("run aborted",
				"run_id", run.ID,
				"phase", phase.Phase,
				"errors", len(errs),
			)
			return run, nil
		}
		if len(errs) > 0 {
			e.logger.Warn("phase finished with errors",
				"run_id", run.ID,
				"phase", phase.Phase,
				"errors", len(errs),
			)
		}
	}

	run.MarkCompleted()
	e.logger.Info("run completed",
		"run_id", run.ID,
		"template", tpl.Name,
		"steps", run.TotalResults(),
		"duration", run.Duration(),
	)
	return run, nil
}

// runBatch выполняет один batch и возвращает результаты в порядке
// объявления шагов.
func (e *Executor) runBatch(ctx context.Context, batch engine.Batch, callerCtx map[string]any) []domain.StepResult {
	if batch.Kind == engine.BatchSequential {
		results := make([]domain.StepResult, 0, len(batch.Steps))
		for _, s := range batch.Steps {
			results = append(results, e.runStep(ctx, s, callerCtx))
		}
		return results
	}

	// Fan-out/join: по горутине на шаг, join до перехода дальше.
	// Каждая горутина пишет в свой слот по индексу, поэтому внутри
	// run блокировки не нужны, а порядок результатов не зависит от
	// порядка завершения.
	results := make([]domain.StepResult, len(batch.Steps))
	var wg sync.WaitGroup
	for i, s := range batch.Steps {
		wg.Add(1)
		go func(i int, s domain.Step) {
			defer wg.Done()
			results[i] = e.runStep(ctx, s, callerCtx)
		}(i, s)
	}
	wg.Wait()
	return results
}

// runStep выполняет один шаг, превращая любой сбой в failed StepResult.
func (e *Executor) runStep(ctx context.Context, step domain.Step, callerCtx map[string]any) (result domain.StepResult) {
	result = domain.StepResult{
		StepName:  step.Name,
		Phase:     step.Phase,
		StartedAt: time.Now(),
	}

	// Паника runner'а не должна убить соседей по batch.
	defer func() {
		if r := recover(); r != nil {
			result.FinishedAt = time.Now()
			result.Success = false
			result.Error = fmt.Sprintf("step panicked: %v", r)
			e.logger.Error("step panicked",
				"step", step.Name,
				"phase", step.Phase,
				"panic", r,
			)
		}
	}()

	outcome := e.runner.RunStep(ctx, step, callerCtx)

	result.FinishedAt = time.Now()
	result.Output = outcome.Output
	if outcome.Failed() {
		result.Success = false
		result.Error = outcome.Err.Error()
		e.logger.Debug("step failed",
			"step", step.Name,
			"phase", step.Phase,
			"error", outcome.Err,
		)
		return result
	}

	result.Success = true
	return result
}
