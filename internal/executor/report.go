package executor

import (
	"github.com/partitura/partitura/internal/domain"
)

// BuildReport собирает итоговый отчёт по терминальному run.
//
// Чистая агрегация ResultsByPhase/ErrorsByPhase: фазы идут в порядке
// входа (Run.Phases), невыполненные фазы не включаются вовсе — нули
// не дорисовываются. Повторный вызов по тому же run даёт идентичный
// отчёт.
func BuildReport(run *domain.Run) (*domain.Report, error) {
	if run == nil {
		return nil, ErrNilRun
	}
	if !run.Status.IsTerminal() {
		return nil, ErrRunNotTerminal
	}

	report := &domain.Report{
		RunID:        run.ID,
		TemplateName: run.TemplateName,
		Status:       run.Status,
		Duration:     run.Duration(),
		PerPhase:     make([]domain.PhaseReport, 0, len(run.Phases)),
	}

	for _, phase := range run.Phases {
		results := run.ResultsByPhase[phase]
		errCount := len(run.ErrorsByPhase[phase])

		report.PerPhase = append(report.PerPhase, domain.PhaseReport{
			Phase:        phase,
			StepCount:    len(results),
			SuccessCount: len(results) - errCount,
			ErrorCount:   errCount,
		})
		report.TotalSteps += len(results)
		report.TotalFailures += errCount
	}

	report.TotalSuccesses = report.TotalSteps - report.TotalFailures
	if report.TotalSteps > 0 {
		report.SuccessRate = float64(report.TotalSuccesses) / float64(report.TotalSteps)
	}
	return report, nil
}
