package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
//
// PENDING существует только у runs, ожидающих conductor в очереди;
// исполнитель создаёт run сразу в статусе RUNNING.
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не взят в работу.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusCompleted — все фазы выполнены; отдельные шаги могли
	// завершиться ошибкой, если их фазы не были критическими.
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusFailed — run прерван политикой отказов в критической фазе
	// либо отклонён из-за некорректного шаблона.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// ParseRunStatus парсит строку в RunStatus.
// Неизвестные значения возвращают пустой статус.
func ParseRunStatus(s string) RunStatus {
	switch s {
	case "PENDING":
		return RunStatusPending
	case "RUNNING":
		return RunStatusRunning
	case "COMPLETED":
		return RunStatusCompleted
	case "FAILED":
		return RunStatusFailed
	default:
		return ""
	}
}
