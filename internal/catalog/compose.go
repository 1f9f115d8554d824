package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/partitura/partitura/internal/domain"
)

// capability — вклад одного тега требований в составляемый шаблон.
//
// Таблица capabilities фиксирует отображение «требование → шаги»:
// порядок объявления определяет порядок шагов в шаблоне, поэтому
// Compose детерминирован для одного и того же запроса.
type capability struct {
	tag   string
	steps []domain.Step
	deps  []domain.Dependency
}

// capabilities — известные теги в порядке вклада в шаблон.
var capabilities = []capability{
	{
		tag: "api",
		steps: []domain.Step{
			{Name: "design_api", Phase: "design", ParallelEligible: true},
			{Name: "implement_endpoints", Phase: "build", ParallelEligible: true},
			{Name: "test_api", Phase: "verify", ParallelEligible: true},
		},
		deps: []domain.Dependency{
			{Predecessor: "design_api", Successor: "implement_endpoints"},
			{Predecessor: "implement_endpoints", Successor: "test_api"},
		},
	},
	{
		tag: "storage",
		steps: []domain.Step{
			{Name: "design_schema", Phase: "design", ParallelEligible: true},
			{Name: "implement_storage", Phase: "build", ParallelEligible: true},
			{Name: "test_storage", Phase: "verify", ParallelEligible: true},
		},
		deps: []domain.Dependency{
			{Predecessor: "design_schema", Successor: "implement_storage"},
			{Predecessor: "implement_storage", Successor: "test_storage"},
		},
	},
	{
		tag: "ui",
		steps: []domain.Step{
			{Name: "design_screens", Phase: "design", ParallelEligible: true},
			{Name: "implement_screens", Phase: "build", ParallelEligible: true},
			{Name: "test_screens", Phase: "verify", ParallelEligible: true},
		},
		deps: []domain.Dependency{
			{Predecessor: "design_screens", Successor: "implement_screens"},
			{Predecessor: "implement_screens", Successor: "test_screens"},
		},
	},
	{
		tag: "security",
		steps: []domain.Step{
			{Name: "threat_model", Phase: "design", ParallelEligible: true},
			{Name: "security_scan", Phase: "security", ParallelEligible: false},
		},
		deps: []domain.Dependency{
			{Predecessor: "threat_model", Successor: "security_scan"},
		},
	},
	{
		tag: "docs",
		steps: []domain.Step{
			{Name: "write_guides", Phase: "documentation", ParallelEligible: true},
			{Name: "write_reference", Phase: "documentation", ParallelEligible: true},
		},
	},
}

// phaseOrder — канонический порядок фаз составляемых шаблонов.
// В шаблон попадают только фазы, в которых есть шаги.
var phaseOrder = []string{"design", "build", "verify", "security", "documentation", "deploy"}

// Compose собирает шаблон из цели и тегов требований.
//
// Отображение детерминировано: для одной и той же пары (goal, tags)
// получается шаблон с теми же шагами, фазами и ID. Неизвестные теги
// игнорируются; без тегов получается минимальный каркас
// (outline_requirements + assemble_release).
func (s *Source) Compose(goal string, tags []string) (*domain.Template, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, ErrEmptyGoal
	}

	requested := make(map[string]bool, len(tags))
	for _, tag := range tags {
		requested[strings.ToLower(strings.TrimSpace(tag))] = true
	}

	steps := []domain.Step{
		{Name: "outline_requirements", Phase: "design", ParallelEligible: false},
	}
	var deps []domain.Dependency
	var selected []string

	for _, c := range capabilities {
		if !requested[c.tag] {
			continue
		}
		selected = append(selected, c.tag)

		// outline предшествует первому шагу каждого включённого тега
		deps = append(deps, domain.Dependency{
			Predecessor: "outline_requirements",
			Successor:   c.steps[0].Name,
		})
		steps = append(steps, c.steps...)
		deps = append(deps, c.deps...)

		// выпуск ждёт последний шаг каждого включённого тега
		deps = append(deps, domain.Dependency{
			Predecessor: c.steps[len(c.steps)-1].Name,
			Successor:   "assemble_release",
		})
	}

	steps = append(steps, domain.Step{
		Name: "assemble_release", Phase: "deploy", ParallelEligible: false,
	})

	return &domain.Template{
		ID:           composeID(goal, selected),
		Name:         slugify(goal),
		Description:  goal,
		Steps:        steps,
		Phases:       usedPhases(steps),
		Dependencies: deps,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// composeID возвращает детерминированный ID составленного шаблона.
func composeID(goal string, tags []string) uuid.UUID {
	key := "https://partitura.dev/compose/" + slugify(goal) + "?tags=" + strings.Join(tags, ",")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key))
}

// usedPhases возвращает фазы шагов в каноническом порядке.
func usedPhases(steps []domain.Step) []string {
	used := make(map[string]bool, len(steps))
	for _, s := range steps {
		used[s.Phase] = true
	}
	var phases []string
	for _, phase := range phaseOrder {
		if used[phase] {
			phases = append(phases, phase)
		}
	}
	return phases
}

// slugify приводит цель к имени шаблона: строчные буквы, цифры и
// дефисы, не длиннее 48 символов. Для целей без латиницы — "composed".
func slugify(goal string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(goal) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
		if b.Len() >= 48 {
			break
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "composed"
	}
	return slug
}
