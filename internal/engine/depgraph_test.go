package engine

import (
	"reflect"
	"testing"

	"github.com/partitura/partitura/internal/domain"
)

func TestBuildGraph_Adjacency(t *testing.T) {
	template := makeTemplate([]string{"p"},
		step("a", "p", false),
		step("b", "p", false),
		step("c", "p", false),
	)
	template.Dependencies = []domain.Dependency{
		{Predecessor: "a", Successor: "b"},
		{Predecessor: "a", Successor: "c"},
		{Predecessor: "b", Successor: "c"},
	}

	g := BuildGraph(template)

	if len(g.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", g.Warnings)
	}
	if !reflect.DeepEqual(g.Successors("a"), []string{"b", "c"}) {
		t.Errorf("expected a → [b c], got %v", g.Successors("a"))
	}
	if !reflect.DeepEqual(g.Successors("b"), []string{"c"}) {
		t.Errorf("expected b → [c], got %v", g.Successors("b"))
	}
	if g.Successors("c") != nil {
		t.Errorf("expected c to have no successors, got %v", g.Successors("c"))
	}

	// Order — predecessors в порядке первого появления.
	if !reflect.DeepEqual(g.Order, []string{"a", "b"}) {
		t.Errorf("expected order [a b], got %v", g.Order)
	}
	if g.Edges() != 3 {
		t.Errorf("expected 3 edges, got %d", g.Edges())
	}
}

func TestBuildGraph_UnknownNames(t *testing.T) {
	template := makeTemplate([]string{"p"},
		step("a", "p", false),
	)
	template.Dependencies = []domain.Dependency{
		{Predecessor: "a", Successor: "ghost"},
		{Predecessor: "phantom", Successor: "a"},
	}

	g := BuildGraph(template)

	// Неизвестные имена — предупреждения, но рёбра всё равно строятся.
	if len(g.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(g.Warnings), g.Warnings)
	}
	if !reflect.DeepEqual(g.Successors("a"), []string{"ghost"}) {
		t.Errorf("edge with unknown successor should still be recorded, got %v", g.Successors("a"))
	}
	if !reflect.DeepEqual(g.Successors("phantom"), []string{"a"}) {
		t.Errorf("edge with unknown predecessor should still be recorded, got %v", g.Successors("phantom"))
	}
}

func TestBuildGraph_NoDependencies(t *testing.T) {
	g := BuildGraph(makeTemplate([]string{"p"}, step("a", "p", false)))

	if g.Edges() != 0 {
		t.Errorf("expected empty graph, got %d edges", g.Edges())
	}
	if len(g.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", g.Warnings)
	}
	if len(g.Order) != 0 {
		t.Errorf("expected empty order, got %v", g.Order)
	}
}
