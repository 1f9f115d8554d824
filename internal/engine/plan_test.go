package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/partitura/partitura/internal/domain"
)

// makeTemplate — шорткат для сборки шаблона в тестах.
func makeTemplate(phases []string, steps ...domain.Step) *domain.Template {
	return &domain.Template{
		Name:   "test",
		Steps:  steps,
		Phases: phases,
	}
}

func step(name, phase string, parallel bool) domain.Step {
	return domain.Step{Name: name, Phase: phase, ParallelEligible: parallel}
}

// batchNames возвращает имена шагов batch.
func batchNames(b Batch) []string {
	names := make([]string, len(b.Steps))
	for i, s := range b.Steps {
		names[i] = s.Name
	}
	return names
}

func TestBuildPlan_ConsecutiveRuns(t *testing.T) {
	// Максимальная серия соседних parallel-шагов — один параллельный
	// batch; каждый sequential-шаг — отдельный batch.
	template := makeTemplate([]string{"p"},
		step("a", "p", true),
		step("b", "p", true),
		step("c", "p", false),
		step("d", "p", true),
	)

	plan, err := BuildPlan(template)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan) != 1 {
		t.Fatalf("expected 1 phase, got %d", len(plan))
	}

	batches := plan[0].Batches
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}

	if batches[0].Kind != BatchParallel || !reflect.DeepEqual(batchNames(batches[0]), []string{"a", "b"}) {
		t.Errorf("batch 0 should be parallel [a b], got %s %v", batches[0].Kind, batchNames(batches[0]))
	}
	if batches[1].Kind != BatchSequential || !reflect.DeepEqual(batchNames(batches[1]), []string{"c"}) {
		t.Errorf("batch 1 should be sequential [c], got %s %v", batches[1].Kind, batchNames(batches[1]))
	}
	if batches[2].Kind != BatchParallel || !reflect.DeepEqual(batchNames(batches[2]), []string{"d"}) {
		t.Errorf("batch 2 should be parallel [d], got %s %v", batches[2].Kind, batchNames(batches[2]))
	}
}

func TestBuildPlan_Grouping(t *testing.T) {
	tests := []struct {
		name  string
		steps []domain.Step
		want  [][]string // имена шагов по batches
		kinds []BatchKind
	}{
		{
			name: "all parallel",
			steps: []domain.Step{
				step("a", "p", true), step("b", "p", true), step("c", "p", true),
			},
			want:  [][]string{{"a", "b", "c"}},
			kinds: []BatchKind{BatchParallel},
		},
		{
			name: "all sequential",
			steps: []domain.Step{
				step("a", "p", false), step("b", "p", false),
			},
			want:  [][]string{{"a"}, {"b"}},
			kinds: []BatchKind{BatchSequential, BatchSequential},
		},
		{
			name: "alternating",
			steps: []domain.Step{
				step("a", "p", false), step("b", "p", true), step("c", "p", false), step("d", "p", true),
			},
			want:  [][]string{{"a"}, {"b"}, {"c"}, {"d"}},
			kinds: []BatchKind{BatchSequential, BatchParallel, BatchSequential, BatchParallel},
		},
		{
			name: "single parallel step",
			steps: []domain.Step{
				step("a", "p", true),
			},
			want:  [][]string{{"a"}},
			kinds: []BatchKind{BatchParallel},
		},
		{
			name: "trailing parallel run",
			steps: []domain.Step{
				step("a", "p", false), step("b", "p", true), step("c", "p", true),
			},
			want:  [][]string{{"a"}, {"b", "c"}},
			kinds: []BatchKind{BatchSequential, BatchParallel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := BuildPlan(makeTemplate([]string{"p"}, tt.steps...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			batches := plan[0].Batches
			if len(batches) != len(tt.want) {
				t.Fatalf("expected %d batches, got %d", len(tt.want), len(batches))
			}
			for i, b := range batches {
				if b.Kind != tt.kinds[i] {
					t.Errorf("batch %d: expected kind %s, got %s", i, tt.kinds[i], b.Kind)
				}
				if !reflect.DeepEqual(batchNames(b), tt.want[i]) {
					t.Errorf("batch %d: expected %v, got %v", i, tt.want[i], batchNames(b))
				}
			}
		})
	}
}

func TestBuildPlan_PhaseOrder(t *testing.T) {
	// Порядок фаз в плане — объявленный порядок, а не порядок шагов.
	template := makeTemplate([]string{"design", "build", "verify"},
		step("v1", "verify", false),
		step("d1", "design", false),
		step("b1", "build", false),
	)

	plan, err := BuildPlan(template)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"design", "build", "verify"}
	if !reflect.DeepEqual(plan.PhaseNames(), want) {
		t.Errorf("expected phase order %v, got %v", want, plan.PhaseNames())
	}
}

func TestBuildPlan_PreservesStepOrderWithinPhase(t *testing.T) {
	// Внутри фазы шаги сохраняют относительный порядок из шаблона,
	// даже если перемешаны с шагами других фаз.
	template := makeTemplate([]string{"a", "b"},
		step("a1", "a", true),
		step("b1", "b", true),
		step("a2", "a", true),
		step("b2", "b", true),
	)

	plan, err := BuildPlan(template)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := batchNames(plan[0].Batches[0]); !reflect.DeepEqual(got, []string{"a1", "a2"}) {
		t.Errorf("phase a: expected [a1 a2], got %v", got)
	}
	if got := batchNames(plan[1].Batches[0]); !reflect.DeepEqual(got, []string{"b1", "b2"}) {
		t.Errorf("phase b: expected [b1 b2], got %v", got)
	}
}

func TestBuildPlan_UnknownPhase(t *testing.T) {
	template := makeTemplate([]string{"design"},
		step("a", "design", false),
		step("b", "ship", false), // фаза ship не объявлена
	)

	_, err := BuildPlan(template)
	if err == nil {
		t.Fatal("expected error for undeclared phase")
	}
	if !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("expected ErrUnknownPhase, got %v", err)
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	if cfgErr.Step != "b" {
		t.Errorf("expected step b in error, got %q", cfgErr.Step)
	}
}

func TestBuildPlan_EmptyPhase(t *testing.T) {
	// Объявленная фаза без шагов остаётся в плане с нулём batches.
	template := makeTemplate([]string{"design", "review"},
		step("a", "design", false),
	)

	plan, err := BuildPlan(template)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(plan))
	}
	if len(plan[1].Batches) != 0 {
		t.Errorf("empty phase should have no batches, got %d", len(plan[1].Batches))
	}
}

func TestBuildPlan_Deterministic(t *testing.T) {
	// План — чистая функция шаблона.
	template := makeTemplate([]string{"p", "q"},
		step("a", "p", true),
		step("b", "p", false),
		step("c", "q", true),
		step("d", "q", true),
	)

	first, err := BuildPlan(template)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildPlan(template)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated BuildPlan calls should produce identical plans")
	}
}

func TestPlan_TotalSteps(t *testing.T) {
	template := makeTemplate([]string{"p", "q"},
		step("a", "p", true),
		step("b", "p", true),
		step("c", "q", false),
	)

	plan, err := BuildPlan(template)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.TotalSteps() != 3 {
		t.Errorf("expected 3 total steps, got %d", plan.TotalSteps())
	}
}
