package steps

import (
	"context"
	"time"

	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/executor"
	"github.com/partitura/partitura/internal/telemetry"
)

// Instrument оборачивает runner записью метрик: длительность и итог
// каждого шага попадают в Prometheus. Сам исход не изменяется.
func Instrument(next executor.StepRunner) executor.StepRunner {
	return executor.RunnerFunc(func(ctx context.Context, step domain.Step, callerCtx map[string]any) executor.Outcome {
		start := time.Now()
		outcome := next.RunStep(ctx, step, callerCtx)
		telemetry.ObserveStep(!outcome.Failed(), time.Since(start))
		return outcome
	})
}
