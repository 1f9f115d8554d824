package engine

import (
	"fmt"

	"github.com/partitura/partitura/internal/domain"
)

// Graph — граф объявленных зависимостей шаблона.
//
// Граф носит справочный характер: его читают валидация и
// инспекционные ручки API, но порядок выполнения задают объявленные
// фазы, а не обход этого графа.
type Graph struct {
	// Adjacency — отображение predecessor → successors.
	// Порядок successors повторяет порядок объявления пар.
	Adjacency map[string][]string

	// Order — predecessors в порядке первого появления.
	// Нужен для детерминированного обхода Adjacency.
	Order []string

	// Warnings — предупреждения о парах, ссылающихся на
	// несуществующие имена шагов.
	Warnings []string
}

// BuildGraph строит граф зависимостей шаблона.
//
// Пара, ссылающаяся на неизвестное имя шага, порождает предупреждение,
// но не блокирует построение: граф документирует замысел автора, даже
// ошибочный. Побочных эффектов нет.
func BuildGraph(tpl *domain.Template) *Graph {
	g := &Graph{Adjacency: make(map[string][]string)}

	known := make(map[string]bool, len(tpl.Steps))
	for _, s := range tpl.Steps {
		known[s.Name] = true
	}

	for _, dep := range tpl.Dependencies {
		if !known[dep.Predecessor] {
			g.Warnings = append(g.Warnings, fmt.Sprintf(
				"dependency (%s, %s) references unknown predecessor %q",
				dep.Predecessor, dep.Successor, dep.Predecessor))
		}
		if !known[dep.Successor] {
			g.Warnings = append(g.Warnings, fmt.Sprintf(
				"dependency (%s, %s) references unknown successor %q",
				dep.Predecessor, dep.Successor, dep.Successor))
		}

		if _, seen := g.Adjacency[dep.Predecessor]; !seen {
			g.Order = append(g.Order, dep.Predecessor)
		}
		g.Adjacency[dep.Predecessor] = append(g.Adjacency[dep.Predecessor], dep.Successor)
	}

	return g
}

// Successors возвращает последователей шага в порядке объявления пар.
func (g *Graph) Successors(name string) []string {
	return g.Adjacency[name]
}

// Edges возвращает количество рёбер графа.
func (g *Graph) Edges() int {
	total := 0
	for _, succ := range g.Adjacency {
		total += len(succ)
	}
	return total
}
