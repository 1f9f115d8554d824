package domain

import (
	"time"

	"github.com/google/uuid"
)

// Step — одна именованная единица работы внутри шаблона.
//
// Шаблон ничего не знает о содержимом шага: реализацию по имени
// поставляет внешний Step Runner. Здесь описано только место шага
// в плане — фаза и право выполняться параллельно с соседями.
type Step struct {
	// Name — имя шага, уникальное в пределах шаблона.
	Name string `json:"name"`

	// Phase — фаза, в которой выполняется шаг.
	// Должна быть объявлена в Template.Phases.
	Phase string `json:"phase"`

	// ParallelEligible — допускает ли шаг параллельное выполнение.
	// Соседние шаги одной фазы с ParallelEligible == true
	// группируются в один параллельный batch.
	ParallelEligible bool `json:"parallel_eligible"`
}

// Dependency — объявленная пара «predecessor раньше successor».
//
// Пары документируют замысел автора шаблона и проверяются валидацией,
// но порядок выполнения определяется фазами, а не этим графом.
type Dependency struct {
	// Predecessor — имя шага-предшественника.
	Predecessor string `json:"predecessor"`

	// Successor — имя шага-последователя.
	Successor string `json:"successor"`
}

// Template — композиционный шаблон: переиспользуемое описание шагов,
// фаз и объявленных зависимостей.
//
// Инварианты:
//   - каждая фаза, на которую ссылается шаг, объявлена в Phases;
//   - каждое имя в Dependencies существует среди Steps (нарушение —
//     предупреждение валидации, а не ошибка).
//
// После создания шаблон не изменяется. Кастомизация порождает новое
// значение (Clone/WithStep/WithoutStep); новая идентичность
// присваивается при сохранении, копия сохраняет исходный ID.
type Template struct {
	// ID — уникальный идентификатор шаблона.
	// У пресетов каталога — детерминированный (uuid.NewSHA1 от имени).
	ID uuid.UUID `json:"id"`

	// Name — имя шаблона. Для пресетов каталога служит ключом поиска.
	Name string `json:"name"`

	// Description — назначение шаблона.
	Description string `json:"description,omitempty"`

	// Steps — упорядоченная последовательность шагов.
	// Порядок внутри фазы определяет группировку в batches.
	Steps []Step `json:"steps"`

	// Phases — объявленный порядок фаз.
	// Выполнение идёт строго в этом порядке.
	Phases []string `json:"phases"`

	// Dependencies — объявленные пары (predecessor, successor).
	Dependencies []Dependency `json:"dependencies,omitempty"`

	// CreatedAt — время создания шаблона.
	CreatedAt time.Time `json:"created_at"`
}

// Clone возвращает глубокую копию шаблона.
func (t *Template) Clone() *Template {
	c := &Template{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	if t.Steps != nil {
		c.Steps = make([]Step, len(t.Steps))
		copy(c.Steps, t.Steps)
	}
	if t.Phases != nil {
		c.Phases = make([]string, len(t.Phases))
		copy(c.Phases, t.Phases)
	}
	if t.Dependencies != nil {
		c.Dependencies = make([]Dependency, len(t.Dependencies))
		copy(c.Dependencies, t.Dependencies)
	}
	return c
}

// WithStep возвращает копию шаблона с добавленным в конец шагом.
// Исходный шаблон не изменяется.
func (t *Template) WithStep(s Step) *Template {
	c := t.Clone()
	c.Steps = append(c.Steps, s)
	return c
}

// WithoutStep возвращает копию шаблона без шага name.
// Если шага нет, возвращается просто копия.
func (t *Template) WithoutStep(name string) *Template {
	c := t.Clone()
	steps := c.Steps[:0]
	for _, s := range c.Steps {
		if s.Name != name {
			steps = append(steps, s)
		}
	}
	c.Steps = steps
	return c
}

// FindStep возвращает шаг по имени.
func (t *Template) FindStep(name string) (Step, bool) {
	for _, s := range t.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// StepNames возвращает имена шагов в порядке объявления.
func (t *Template) StepNames() []string {
	names := make([]string, len(t.Steps))
	for i, s := range t.Steps {
		names[i] = s.Name
	}
	return names
}

// HasPhase проверяет, объявлена ли фаза в шаблоне.
func (t *Template) HasPhase(name string) bool {
	for _, p := range t.Phases {
		if p == name {
			return true
		}
	}
	return false
}

// PhaseSteps возвращает шаги фазы, сохраняя их относительный порядок
// из Steps.
func (t *Template) PhaseSteps(phase string) []Step {
	var steps []Step
	for _, s := range t.Steps {
		if s.Phase == phase {
			steps = append(steps, s)
		}
	}
	return steps
}
