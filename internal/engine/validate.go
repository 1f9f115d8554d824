package engine

import (
	"fmt"

	"github.com/partitura/partitura/internal/domain"
)

// Validate проверяет инварианты шаблона.
//
// Нарушение любого инварианта — ConfigError: такой шаблон не
// запускается вовсе. Объявленные зависимости проверяются отдельно
// (BuildGraph): их нарушения — предупреждения, а не ошибки.
func Validate(tpl *domain.Template) error {
	if len(tpl.Steps) == 0 {
		return NewConfigError("", "steps", "template has no steps", ErrNoSteps)
	}
	if len(tpl.Phases) == 0 {
		return NewConfigError("", "phases", "template has no phases", ErrNoPhases)
	}

	declared := make(map[string]bool, len(tpl.Phases))
	for _, phase := range tpl.Phases {
		if declared[phase] {
			return NewConfigError("", "phases", fmt.Sprintf(
				"phase %q is declared twice", phase), ErrDuplicatePhase)
		}
		declared[phase] = true
	}

	seen := make(map[string]bool, len(tpl.Steps))
	for _, s := range tpl.Steps {
		if s.Name == "" {
			return NewConfigError("", "name", "step has empty name", ErrEmptyStepName)
		}
		if seen[s.Name] {
			return NewConfigError(s.Name, "name", fmt.Sprintf(
				"step name %q is used twice", s.Name), ErrDuplicateStep)
		}
		seen[s.Name] = true

		if !declared[s.Phase] {
			return NewConfigError(s.Name, "phase", fmt.Sprintf(
				"phase %q is not declared in template phases", s.Phase), ErrUnknownPhase)
		}
	}

	return nil
}

// Warnings возвращает предупреждения валидации: нарушения справочных
// инвариантов (зависимости на несуществующие шаги), не препятствующие
// выполнению.
func Warnings(tpl *domain.Template) []string {
	return BuildGraph(tpl).Warnings
}
