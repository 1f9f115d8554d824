package steps

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/executor"
)

// Fallback — поведение для шагов без привязки.
type Fallback string

const (
	// FallbackSucceed — шаг без привязки считается успешным no-op.
	FallbackSucceed Fallback = "succeed"

	// FallbackFail — шаг без привязки считается отказом.
	FallbackFail Fallback = "fail"
)

// ParseFallback разбирает значение fallback из конфигурации.
// Неизвестные значения трактуются как FallbackSucceed.
func ParseFallback(s string) Fallback {
	if s == string(FallbackFail) {
		return FallbackFail
	}
	return FallbackSucceed
}

// Runner выполняет шаги шаблона по их привязкам.
//
// Реализует executor.StepRunner: находит привязку по имени шага,
// рендерит её конфигурацию через Scope и передаёт обработчику
// соответствующего вида. Шаблон описывает структуру работы,
// привязки — её содержимое; шаг без привязки выполняется как
// no-op либо отказ, в зависимости от Fallback.
type Runner struct {
	registry *Registry
	bindings map[string]domain.StepBinding
	fallback Fallback
	logger   *slog.Logger
}

// RunnerConfig — конфигурация Runner.
type RunnerConfig struct {
	// Registry — реестр обработчиков. Если nil, используется DefaultRegistry().
	Registry *Registry

	// Bindings — привязки по имени шага.
	Bindings map[string]domain.StepBinding

	// Fallback — поведение для шагов без привязки. Default: FallbackSucceed.
	Fallback Fallback

	// Logger — структурированный логгер. Если nil, используется slog.Default().
	Logger *slog.Logger
}

// NewRunner создаёт Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.Fallback == "" {
		cfg.Fallback = FallbackSucceed
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		registry: cfg.Registry,
		bindings: cfg.Bindings,
		fallback: cfg.Fallback,
		logger:   cfg.Logger,
	}
}

// RunStep выполняет шаг по его привязке.
func (r *Runner) RunStep(ctx context.Context, step domain.Step, callerCtx map[string]any) executor.Outcome {
	binding, ok := r.bindings[step.Name]
	if !ok {
		return r.unbound(step)
	}

	handler, err := r.registry.Get(binding.Kind)
	if err != nil {
		return executor.Failure(err)
	}

	config, err := RenderConfig(binding.Config, NewScope(step, callerCtx))
	if err != nil {
		return executor.Failure(err)
	}

	resp, err := handler.Run(ctx, NewRequest(step.Name, step.Phase, config))
	return toOutcome(resp, err)
}

// unbound — исход шага без привязки.
func (r *Runner) unbound(step domain.Step) executor.Outcome {
	if r.fallback == FallbackFail {
		return executor.Failure(fmt.Errorf("%w: %s", ErrUnboundStep, step.Name))
	}
	r.logger.Debug("step has no binding, running as no-op",
		"step", step.Name,
		"phase", step.Phase,
	)
	return executor.Success(map[string]any{
		"bound": false,
		"step":  step.Name,
	})
}

// toOutcome преобразует результат обработчика в Outcome.
//
// Response вместе с ошибкой — логический отказ с сохранёнными
// outputs (HTTP-ответ с кодом ошибки и т.п.).
func toOutcome(resp *Response, err error) executor.Outcome {
	var output map[string]any
	if resp != nil {
		output = resp.Outputs
	}
	return executor.Outcome{Output: output, Err: err}
}
