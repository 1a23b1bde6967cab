// Package domain contains the core domain model for molt projects:
// modules, their exported bindings, entry references and load ordering.
package domain

// Kind selects the built-in loader that executes a module.
type Kind string

const (
	// KindTemplate parses the module's files as HTML templates and merges
	// the template sets exported by its dependencies.
	KindTemplate Kind = "template"

	// KindData parses the module's YAML or JSON files into a value table.
	KindData Kind = "data"

	// KindRoutes builds the request handler from a routing table, rendering
	// templates with data pulled from the module's dependencies.
	KindRoutes Kind = "routes"
)

// KnownKinds lists every kind a module declaration may use.
func KnownKinds() []Kind {
	return []Kind{KindTemplate, KindData, KindRoutes}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTemplate, KindData, KindRoutes:
		return true
	}
	return false
}

// Exports is the binding table a module produces when its loader executes.
// Evicting a module discards its table; re-executing the loader builds a
// fresh one.
type Exports map[string]any

// Module declares one reloadable unit of a project: a named set of source
// files executed by a kind's loader, depending on other modules by name.
type Module struct {
	Name      InternedString
	Kind      Kind
	Files     []string // patterns relative to the project root
	DependsOn []InternedString
}
