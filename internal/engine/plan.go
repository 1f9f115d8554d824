package engine

import (
	"fmt"

	"github.com/partitura/partitura/internal/domain"
)

// BatchKind — способ выполнения batch.
type BatchKind string

const (
	// BatchParallel — шаги batch запускаются одновременно;
	// переход дальше — после завершения всех (fan-out/join).
	BatchParallel BatchKind = "parallel"

	// BatchSequential — batch из одного шага; выполняется и
	// ожидается до перехода к следующему batch.
	BatchSequential BatchKind = "sequential"
)

// Batch — упорядоченная подгруппа шагов одной фазы.
//
// Batch — производное представление: вычисляется из шаблона и нигде
// не сохраняется.
type Batch struct {
	// Kind — параллельный или последовательный batch.
	Kind BatchKind `json:"kind"`

	// Steps — шаги batch, в порядке объявления в шаблоне.
	// У BatchSequential всегда ровно один шаг.
	Steps []domain.Step `json:"steps"`
}

// Width возвращает число шагов batch.
func (b *Batch) Width() int {
	return len(b.Steps)
}

// PhasePlan — упорядоченные batches одной фазы.
type PhasePlan struct {
	// Phase — имя фазы.
	Phase string `json:"phase"`

	// Batches — batches фазы в порядке выполнения.
	Batches []Batch `json:"batches"`
}

// StepCount возвращает число шагов фазы.
func (p *PhasePlan) StepCount() int {
	total := 0
	for _, b := range p.Batches {
		total += len(b.Steps)
	}
	return total
}

// Plan — план выполнения шаблона: фазы в объявленном порядке,
// внутри каждой — batches в порядке выполнения.
type Plan []PhasePlan

// TotalSteps возвращает число шагов во всём плане.
func (p Plan) TotalSteps() int {
	total := 0
	for i := range p {
		total += p[i].StepCount()
	}
	return total
}

// PhaseNames возвращает имена фаз плана по порядку.
func (p Plan) PhaseNames() []string {
	names := make([]string, len(p))
	for i := range p {
		names[i] = p[i].Phase
	}
	return names
}

// BuildPlan строит план выполнения шаблона.
//
// Шаги каждой фазы группируются по правилу последовательных серий:
// максимальная серия соседних шагов с ParallelEligible == true
// образует один параллельный batch, а каждый шаг с
// ParallelEligible == false — отдельный последовательный batch.
// Правило сознательно не вычисляет настоящие зависимости данных:
// группировку определяют только соседство и флаг, поэтому автор
// шаблона всегда может предсказать план по одному его тексту.
//
// Шаг с необъявленной фазой — ConfigError: молча выбросить такой шаг
// значило бы выполнить неполный run незаметно для вызывающего.
//
// BuildPlan — чистая функция шаблона: повторные вызовы дают
// идентичный план.
func BuildPlan(tpl *domain.Template) (Plan, error) {
	declared := make(map[string]bool, len(tpl.Phases))
	for _, phase := range tpl.Phases {
		declared[phase] = true
	}
	for _, s := range tpl.Steps {
		if !declared[s.Phase] {
			return nil, NewConfigError(s.Name, "phase", fmt.Sprintf(
				"phase %q is not declared in template phases", s.Phase), ErrUnknownPhase)
		}
	}

	plan := make(Plan, 0, len(tpl.Phases))
	for _, phase := range tpl.Phases {
		plan = append(plan, PhasePlan{
			Phase:   phase,
			Batches: groupBatches(tpl.PhaseSteps(phase)),
		})
	}
	return plan, nil
}

// groupBatches группирует шаги фазы по правилу последовательных серий.
func groupBatches(steps []domain.Step) []Batch {
	var batches []Batch
	var run []domain.Step // накапливаемая параллельная серия

	flush := func() {
		if len(run) > 0 {
			batches = append(batches, Batch{Kind: BatchParallel, Steps: run})
			run = nil
		}
	}

	for _, s := range steps {
		if s.ParallelEligible {
			run = append(run, s)
			continue
		}
		flush()
		batches = append(batches, Batch{Kind: BatchSequential, Steps: []domain.Step{s}})
	}
	flush()

	return batches
}
