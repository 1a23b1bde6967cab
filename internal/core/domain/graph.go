package domain

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"go.trai.ch/zerr"
)

// ModuleGraph holds the declared modules of a project and their dependency
// edges. Validate establishes a deterministic topological order that Walk
// then yields, dependencies before dependents.
type ModuleGraph struct {
	modules   map[InternedString]Module
	loadOrder []InternedString
}

// NewModuleGraph creates a new empty ModuleGraph.
func NewModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		modules: make(map[InternedString]Module),
	}
}

// Add adds a module declaration to the graph.
// It returns an error if a module with the same name already exists.
func (g *ModuleGraph) Add(m Module) error {
	if _, exists := g.modules[m.Name]; exists {
		return zerr.With(ErrModuleAlreadyDefined, "module", m.Name.String())
	}
	g.modules[m.Name] = m
	return nil
}

// Module returns the declaration for name.
func (g *ModuleGraph) Module(name InternedString) (Module, bool) {
	m, ok := g.modules[name]
	return m, ok
}

// Len returns the number of declared modules.
func (g *ModuleGraph) Len() int {
	return len(g.modules)
}

// Validate checks that every dependency exists and that the graph is
// acyclic, using a depth-first topological sort. Roots are visited in name
// order so the resulting walk order is stable across runs.
func (g *ModuleGraph) Validate() error {
	g.loadOrder = make([]InternedString, 0, len(g.modules))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		module, exists := g.modules[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u.String())
		}

		for _, dep := range module.DependsOn {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.loadOrder = append(g.loadOrder, u)
		return nil
	}

	for _, name := range g.sortedNames() {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *ModuleGraph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator that yields modules in dependency order.
// It assumes Validate() has been called and returned nil.
func (g *ModuleGraph) Walk() iter.Seq[Module] {
	return func(yield func(Module) bool) {
		for _, name := range g.loadOrder {
			if !yield(g.modules[name]) {
				return
			}
		}
	}
}

// DOT exports Graphviz DOT text. Edges point from a module to the modules
// it depends on.
func (g *ModuleGraph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph molt {\n")
	b.WriteString("  rankdir=LR;\n")

	names := g.sortedNames()
	aliases := make(map[InternedString]string, len(names))
	for i, name := range names {
		alias := fmt.Sprintf("n%d", i)
		aliases[name] = alias
		label := escapeLabel(name.String())
		if kind := g.modules[name].Kind; kind != "" {
			label = label + "\\n(" + escapeLabel(string(kind)) + ")"
		}
		b.WriteString(fmt.Sprintf("  %s [label=\"%s\"];\n", alias, label))
	}
	for _, name := range names {
		for _, dep := range g.modules[name].DependsOn {
			to, ok := aliases[dep]
			if !ok {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s -> %s;\n", aliases[name], to))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// Mermaid exports Mermaid graph text.
func (g *ModuleGraph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	names := g.sortedNames()
	aliases := make(map[InternedString]string, len(names))
	for i, name := range names {
		alias := fmt.Sprintf("n%d", i)
		aliases[name] = alias
		label := escapeLabel(name.String())
		if kind := g.modules[name].Kind; kind != "" {
			label = label + "<br/>(" + escapeLabel(string(kind)) + ")"
		}
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", alias, label))
	}
	for _, name := range names {
		for _, dep := range g.modules[name].DependsOn {
			to, ok := aliases[dep]
			if !ok {
				continue
			}
			b.WriteString(fmt.Sprintf("    %s --> %s\n", aliases[name], to))
		}
	}
	return b.String()
}

func (g *ModuleGraph) sortedNames() []InternedString {
	names := make([]InternedString, 0, len(g.modules))
	for name := range g.modules {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i].String() < names[j].String()
	})
	return names
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
