package executor

import (
	"strings"

	"github.com/partitura/partitura/internal/domain"
)

// Decision — решение политики отказов после завершения фазы.
type Decision string

const (
	// DecisionContinue — перейти к следующей фазе.
	DecisionContinue Decision = "continue"

	// DecisionAbort — прервать run.
	DecisionAbort Decision = "abort"
)

// Policy — политика отказов по фазам.
//
// Набор критических фаз — входная конфигурация, а не константа ядра:
// отказы в структурных фазах (design, security, deploy) небезопасно
// надстраивать, тогда как отказы в справочных фазах (documentation,
// optimization) не должны блокировать остальную работу.
type Policy struct {
	critical map[string]bool
}

// NewPolicy создаёт политику с заданным набором критических фаз.
// Пустые имена фаз игнорируются: набор обычно приходит из CSV-переменной
// окружения или per-run переопределения.
func NewPolicy(criticalPhases []string) *Policy {
	critical := make(map[string]bool, len(criticalPhases))
	for _, phase := range criticalPhases {
		phase = strings.TrimSpace(phase)
		if phase == "" {
			continue
		}
		critical[phase] = true
	}
	return &Policy{critical: critical}
}

// IsCritical возвращает true, если фаза критическая.
func (p *Policy) IsCritical(phase string) bool {
	return p.critical[phase]
}

// CriticalPhases возвращает число критических фаз политики.
func (p *Policy) CriticalPhases() int {
	return len(p.critical)
}

// Decide решает, продолжать ли run после фазы.
//
// Непустые ошибки в критической фазе — abort; во всех остальных
// случаях — continue (ошибки записаны, но run идёт дальше).
func (p *Policy) Decide(phase string, errs []domain.StepResult) Decision {
	if len(errs) > 0 && p.critical[phase] {
		return DecisionAbort
	}
	return DecisionContinue
}
