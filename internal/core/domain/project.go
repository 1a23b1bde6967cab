package domain

import "time"

// Project is a fully validated molt configuration: the project root, the
// entry reference, watch settings and the declared modules in dependency
// order (dependencies before dependents).
type Project struct {
	Root    string
	Entry   EntryRef
	Watch   WatchSettings
	Modules []Module
}

// Module returns the declaration for name.
func (p *Project) Module(name InternedString) (Module, bool) {
	for _, m := range p.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return Module{}, false
}

// Graph builds the module graph of the project. The project is already
// validated, so Validate on the result cannot fail.
func (p *Project) Graph() *ModuleGraph {
	g := NewModuleGraph()
	for _, m := range p.Modules {
		_ = g.Add(m)
	}
	_ = g.Validate()
	return g
}

// WatchSettings controls the file-watching pipeline.
type WatchSettings struct {
	// Debounce is the quiet window after the last change before a reload
	// cycle starts.
	Debounce time.Duration

	// Extensions lists the source-file extensions (dot-prefixed, lowercase)
	// that trigger reloads. Events for other files are dropped.
	Extensions []string

	// Ignore lists glob patterns, relative to the project root, whose
	// matches never trigger reloads. Built-in ignores are always applied.
	Ignore []string
}

// DefaultDebounce is the debounce window used when the config doesn't set one.
const DefaultDebounce = 250 * time.Millisecond

// DefaultExtensions returns the source-file extensions watched by default.
func DefaultExtensions() []string {
	return []string{".html", ".tmpl", ".yaml", ".yml", ".json"}
}

// DefaultIgnores returns the glob patterns that are always ignored.
func DefaultIgnores() []string {
	return []string{"**/.git/**", "**/node_modules/**", "**/.molt/**"}
}

// DefaultWatchSettings returns the watch settings used when the config
// omits the watch section entirely.
func DefaultWatchSettings() WatchSettings {
	return WatchSettings{
		Debounce:   DefaultDebounce,
		Extensions: DefaultExtensions(),
		Ignore:     DefaultIgnores(),
	}
}
