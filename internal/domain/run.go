package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepResult — исход одного шага в рамках одного run.
//
// Производится ровно один раз на шаг за run: записывает его тот код,
// который дождался завершения шага. После записи не изменяется.
type StepResult struct {
	// StepName — имя выполненного шага.
	StepName string `json:"step_name"`

	// Phase — фаза, в которой шаг выполнялся.
	Phase string `json:"phase"`

	// StartedAt — момент начала выполнения шага.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — момент завершения (успешного или с ошибкой).
	FinishedAt time.Time `json:"finished_at"`

	// Success — итог шага.
	Success bool `json:"success"`

	// Output — данные, возвращённые шагом. Заполняется при успехе;
	// при ошибке может содержать частичный результат.
	Output map[string]any `json:"output,omitempty"`

	// Error — описание отказа шага. Пусто при успехе.
	Error string `json:"error,omitempty"`
}

// Duration возвращает длительность выполнения шага.
func (r *StepResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Run — один проход композиционного шаблона.
//
// Создаётся либо исполнителем (сразу RUNNING), либо очередью
// (PENDING — ждёт, пока conductor возьмёт его в работу).
// Во время выполнения run изменяет только исполнитель; после
// перехода в терминальный статус run заморожен.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// TemplateID — идентификатор выполняемого шаблона.
	TemplateID uuid.UUID `json:"template_id"`

	// TemplateName — имя шаблона на момент запуска.
	// Дублируется, чтобы отчёты читались без обращения к каталогу.
	TemplateName string `json:"template_name"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Inputs — caller context, переданный при запуске.
	// Передаётся каждому шагу; во время run только читается.
	Inputs map[string]any `json:"inputs,omitempty"`

	// CurrentPhase — фаза, выполняемая в данный момент.
	// После завершения run хранит последнюю выполненную фазу.
	CurrentPhase string `json:"current_phase,omitempty"`

	// Phases — фазы, в которые run реально вошёл, в порядке выполнения.
	// При аварийном прерывании список короче объявленного в шаблоне.
	Phases []string `json:"phases,omitempty"`

	// ResultsByPhase — результаты шагов по фазам.
	// Внутри фазы результаты идут в порядке объявления шагов.
	ResultsByPhase map[string][]StepResult `json:"results_by_phase,omitempty"`

	// ErrorsByPhase — подмножество ResultsByPhase: только отказавшие шаги.
	ErrorsByPhase map[string][]StepResult `json:"errors_by_phase,omitempty"`

	// CriticalPhases — политика отказов, с которой run был запущен.
	// Пустой список означает политику по умолчанию.
	CriticalPhases []string `json:"critical_phases,omitempty"`

	// Error — причина отказа run (текст ConfigurationError либо
	// имя критической фазы, прервавшей выполнение).
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt — время начала выполнения. Nil для PENDING.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения. Nil, пока run не завершён.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewRun создаёт run в статусе PENDING для постановки в очередь.
func NewRun(templateName string, inputs map[string]any) *Run {
	return &Run{
		ID:           uuid.New(),
		TemplateName: templateName,
		Status:       RunStatusPending,
		Inputs:       inputs,
		CreatedAt:    time.Now(),
	}
}

// BeginRun создаёт run в статусе RUNNING для немедленного выполнения.
func BeginRun(tpl *Template, inputs map[string]any) *Run {
	now := time.Now()
	return &Run{
		ID:             uuid.New(),
		TemplateID:     tpl.ID,
		TemplateName:   tpl.Name,
		Status:         RunStatusRunning,
		Inputs:         inputs,
		ResultsByPhase: make(map[string][]StepResult),
		ErrorsByPhase:  make(map[string][]StepResult),
		CreatedAt:      now,
		StartedAt:      &now,
	}
}

// EnterPhase отмечает вход run в фазу.
func (r *Run) EnterPhase(phase string) {
	r.CurrentPhase = phase
	r.Phases = append(r.Phases, phase)
}

// RecordResult записывает результат шага в текущую фазу.
// Отказавшие шаги дополнительно попадают в ErrorsByPhase.
func (r *Run) RecordResult(res StepResult) {
	if r.ResultsByPhase == nil {
		r.ResultsByPhase = make(map[string][]StepResult)
	}
	r.ResultsByPhase[res.Phase] = append(r.ResultsByPhase[res.Phase], res)
	if !res.Success {
		if r.ErrorsByPhase == nil {
			r.ErrorsByPhase = make(map[string][]StepResult)
		}
		r.ErrorsByPhase[res.Phase] = append(r.ErrorsByPhase[res.Phase], res)
	}
}

// PhaseErrors возвращает отказавшие шаги фазы.
func (r *Run) PhaseErrors(phase string) []StepResult {
	return r.ErrorsByPhase[phase]
}

// TotalResults возвращает число записанных результатов по всем фазам.
func (r *Run) TotalResults() int {
	total := 0
	for _, results := range r.ResultsByPhase {
		total += len(results)
	}
	return total
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не начался или не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён.
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkCompleted переводит run в статус COMPLETED.
func (r *Run) MarkCompleted() {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с причиной.
func (r *Run) MarkFailed(reason string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = reason
}
