package catalog

import (
	"errors"
	"reflect"
	"testing"

	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/engine"
)

// --- Source Tests ---

func TestDefault(t *testing.T) {
	s := Default()

	want := []string{"feature", "hotfix", "migration", "audit"}
	if !reflect.DeepEqual(s.Names(), want) {
		t.Errorf("expected presets %v, got %v", want, s.Names())
	}
	if s.Count() != 4 {
		t.Errorf("expected 4 presets, got %d", s.Count())
	}

	// Каждый пресет проходит валидацию и строит план
	for _, name := range s.Names() {
		tpl, err := s.Get(name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := engine.BuildPlan(tpl); err != nil {
			t.Errorf("preset %s should produce a plan: %v", name, err)
		}
	}
}

func TestSource_Get(t *testing.T) {
	s := Default()

	tpl, err := s.Get("feature")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Name != "feature" {
		t.Errorf("expected feature, got %s", tpl.Name)
	}

	_, err = s.Get("unknown")
	if !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("expected ErrPresetNotFound, got %v", err)
	}
}

func TestSource_GetReturnsCopy(t *testing.T) {
	s := Default()

	first, _ := s.Get("hotfix")
	first.Steps[0].Name = "mutated"

	second, _ := s.Get("hotfix")
	if second.Steps[0].Name == "mutated" {
		t.Error("catalog must not observe caller mutations")
	}
}

func TestNew_RejectsInvalidPreset(t *testing.T) {
	bad := &domain.Template{
		Name:   "broken",
		Phases: []string{"design"},
		Steps: []domain.Step{
			{Name: "a", Phase: "ship"}, // фаза не объявлена
		},
	}

	_, err := New(bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNew_RejectsDuplicateName(t *testing.T) {
	_, err := New(FeaturePreset(), FeaturePreset())
	if !errors.Is(err, ErrDuplicatePreset) {
		t.Errorf("expected ErrDuplicatePreset, got %v", err)
	}
}

func TestPresetID_Deterministic(t *testing.T) {
	// ID пресета одинаков между вызовами и процессами
	if FeaturePreset().ID != FeaturePreset().ID {
		t.Error("preset ID should be deterministic")
	}
	if FeaturePreset().ID == HotfixPreset().ID {
		t.Error("different presets should have different IDs")
	}
}

// --- Compose Tests ---

func TestCompose_EmptyGoal(t *testing.T) {
	s := Default()

	_, err := s.Compose("   ", nil)
	if !errors.Is(err, ErrEmptyGoal) {
		t.Errorf("expected ErrEmptyGoal, got %v", err)
	}
}

func TestCompose_NoTags(t *testing.T) {
	s := Default()

	tpl, err := s.Compose("Minimal delivery", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Минимальный каркас: outline + release
	if !reflect.DeepEqual(tpl.StepNames(), []string{"outline_requirements", "assemble_release"}) {
		t.Errorf("expected skeleton steps, got %v", tpl.StepNames())
	}
	if !reflect.DeepEqual(tpl.Phases, []string{"design", "deploy"}) {
		t.Errorf("expected [design deploy], got %v", tpl.Phases)
	}
	if tpl.Name != "minimal-delivery" {
		t.Errorf("expected slugified name, got %q", tpl.Name)
	}
	if tpl.Description != "Minimal delivery" {
		t.Errorf("description should carry the goal, got %q", tpl.Description)
	}
}

func TestCompose_Tags(t *testing.T) {
	s := Default()

	tpl, err := s.Compose("Billing service", []string{"api", "storage"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"outline_requirements",
		"design_api", "implement_endpoints", "test_api",
		"design_schema", "implement_storage", "test_storage",
		"assemble_release",
	}
	if !reflect.DeepEqual(tpl.StepNames(), want) {
		t.Errorf("expected %v, got %v", want, tpl.StepNames())
	}
	if !reflect.DeepEqual(tpl.Phases, []string{"design", "build", "verify", "deploy"}) {
		t.Errorf("unexpected phases: %v", tpl.Phases)
	}

	// Составленный шаблон валиден и планируем
	if err := engine.Validate(tpl); err != nil {
		t.Errorf("composed template should validate: %v", err)
	}
	if _, err := engine.BuildPlan(tpl); err != nil {
		t.Errorf("composed template should produce a plan: %v", err)
	}
}

func TestCompose_SecurityTag(t *testing.T) {
	s := Default()

	tpl, err := s.Compose("Harden the perimeter", []string{"security"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !tpl.HasPhase("security") {
		t.Error("security tag should introduce security phase")
	}
	if !reflect.DeepEqual(tpl.Phases, []string{"design", "security", "deploy"}) {
		t.Errorf("unexpected phases: %v", tpl.Phases)
	}
}

func TestCompose_UnknownTagsIgnored(t *testing.T) {
	s := Default()

	tpl, err := s.Compose("Strange request", []string{"blockchain", "api"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range tpl.StepNames() {
		if name == "blockchain" {
			t.Error("unknown tag must not produce steps")
		}
	}
	if _, ok := tpl.FindStep("design_api"); !ok {
		t.Error("known tag should still contribute steps")
	}
}

func TestCompose_Deterministic(t *testing.T) {
	s := Default()

	first, err := s.Compose("Billing service", []string{"storage", "API"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Compose("Billing service", []string{"api", "storage"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Один запрос — один шаблон: ID, шаги и фазы совпадают
	if first.ID != second.ID {
		t.Error("compose ID should be deterministic")
	}
	if !reflect.DeepEqual(first.StepNames(), second.StepNames()) {
		t.Error("compose steps should be deterministic")
	}
	if !reflect.DeepEqual(first.Phases, second.Phases) {
		t.Error("compose phases should be deterministic")
	}
}

func TestCompose_DependenciesAdvisory(t *testing.T) {
	s := Default()

	tpl, err := s.Compose("Billing service", []string{"api"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	graph := engine.BuildGraph(tpl)
	if len(graph.Warnings) != 0 {
		t.Errorf("composed dependencies should reference real steps, warnings: %v", graph.Warnings)
	}
	if len(graph.Adjacency["outline_requirements"]) == 0 {
		t.Error("outline should precede tag steps")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Billing service", "billing-service"},
		{"UPPER case  & symbols!", "upper-case-symbols"},
		{"already-slugged", "already-slugged"},
		{"русская цель", "composed"},
	}

	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
