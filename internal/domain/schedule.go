package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического запуска шаблона.
//
// Поддерживаются два режима:
//   - cron-выражение: "0 9 * * *" (каждый день в 9:00)
//   - интервал: каждые N секунд
//
// Scheduler проверяет next_due_at и ставит run в очередь, когда время
// подошло.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID uuid.UUID `json:"id"`

	// TemplateName — имя шаблона, который нужно запускать.
	// Разрешается conductor'ом: сначала каталог пресетов, затем
	// сохранённые шаблоны.
	TemplateName string `json:"template_name"`

	// Name — имя расписания для удобства.
	Name string `json:"name,omitempty"`

	// CronExpr — cron-выражение в стандартном 5-польном формате.
	// Если задано, IntervalSec игнорируется.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах между запусками.
	// Используется, если CronExpr не задан.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — часовой пояс для вычисления времени запуска.
	// По умолчанию "UTC".
	Timezone string `json:"timezone"`

	// Enabled — флаг активности. Выключенные расписания scheduler
	// пропускает.
	Enabled bool `json:"enabled"`

	// NextDueAt — время следующего запуска. Scheduler создаёт run,
	// когда now >= NextDueAt, и вычисляет новое значение.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastRunID — ID последнего созданного run.
	LastRunID *uuid.UUID `json:"last_run_id,omitempty"`

	// Inputs — caller context для каждого создаваемого run.
	Inputs map[string]any `json:"inputs,omitempty"`

	// CriticalPhases — политика отказов для создаваемых runs.
	// Пустой список — политика по умолчанию.
	CriticalPhases []string `json:"critical_phases,omitempty"`

	// CreatedAt — время создания schedule.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCron возвращает true, если расписание использует cron-выражение.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание использует интервал.
func (s *Schedule) IsInterval() bool {
	return s.CronExpr == "" && s.IntervalSec > 0
}

// IsDue проверяет, пора ли запускать.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.NextDueAt == nil {
		return false
	}
	return now.After(*s.NextDueAt) || now.Equal(*s.NextDueAt)
}

// RecordRun записывает информацию о запуске.
func (s *Schedule) RecordRun(runID uuid.UUID, nextDue time.Time) {
	now := time.Now()
	s.LastRunAt = &now
	s.LastRunID = &runID
	s.NextDueAt = &nextDue
	s.UpdatedAt = now
}
