package engine

import "errors"

// Ошибки конфигурации шаблона.
var (
	// ErrNoSteps — шаблон не содержит шагов.
	ErrNoSteps = errors.New("template has no steps")

	// ErrNoPhases — шаблон не объявляет ни одной фазы.
	ErrNoPhases = errors.New("template has no phases")

	// ErrEmptyStepName — шаг без имени.
	ErrEmptyStepName = errors.New("step has empty name")

	// ErrDuplicateStep — несколько шагов с одинаковым именем.
	ErrDuplicateStep = errors.New("duplicate step name")

	// ErrDuplicatePhase — фаза объявлена более одного раза.
	ErrDuplicatePhase = errors.New("duplicate phase name")

	// ErrUnknownPhase — шаг ссылается на необъявленную фазу.
	ErrUnknownPhase = errors.New("step references undeclared phase")
)

// ConfigError — ошибка конфигурации шаблона с контекстом.
//
// Любая ConfigError обнаруживается до начала выполнения: некорректный
// шаблон не запускается даже частично.
type ConfigError struct {
	Step    string // имя шага, где обнаружена ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ConfigError) Error() string {
	if e.Step != "" {
		return "step " + e.Step + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError создаёт новую ошибку конфигурации.
func NewConfigError(step, field, message string, err error) *ConfigError {
	return &ConfigError{
		Step:    step,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
