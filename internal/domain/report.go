package domain

import (
	"time"

	"github.com/google/uuid"
)

// PhaseReport — сводка по одной фазе run.
type PhaseReport struct {
	// Phase — имя фазы.
	Phase string `json:"phase"`

	// StepCount — сколько шагов фазы выполнялось.
	StepCount int `json:"step_count"`

	// SuccessCount — сколько шагов завершилось успешно.
	SuccessCount int `json:"success_count"`

	// ErrorCount — сколько шагов отказало.
	ErrorCount int `json:"error_count"`
}

// Report — итоговый отчёт run.
//
// Производится ровно один раз на Execute, независимо от исхода:
// при аварийном прерывании отчёт включает фазы, выполненные до
// прерывания (невыполненные фазы не попадают в PerPhase вовсе).
// Чистая агрегация по терминальному run: повторная сборка по тому же
// run даёт идентичный отчёт.
type Report struct {
	// RunID — идентификатор run, по которому собран отчёт.
	RunID uuid.UUID `json:"run_id"`

	// TemplateName — имя выполненного шаблона.
	TemplateName string `json:"template_name,omitempty"`

	// Status — терминальный статус run.
	Status RunStatus `json:"status"`

	// Duration — длительность выполнения run.
	Duration time.Duration `json:"duration"`

	// PerPhase — сводки фаз в порядке их выполнения.
	PerPhase []PhaseReport `json:"per_phase"`

	// TotalSteps — число шагов во всех выполненных фазах.
	TotalSteps int `json:"total_steps"`

	// TotalSuccesses — число успешных шагов.
	TotalSuccesses int `json:"total_successes"`

	// TotalFailures — число отказавших шагов.
	TotalFailures int `json:"total_failures"`

	// SuccessRate — доля успешных шагов, от 0 до 1.
	SuccessRate float64 `json:"success_rate"`
}

// ArchivedReport — отчёт, принятый collector'ом из очереди событий.
type ArchivedReport struct {
	// Report — сам отчёт.
	Report Report `json:"report"`

	// ReceivedAt — время приёма события collector'ом.
	ReceivedAt time.Time `json:"received_at"`
}
