// Package depmap maps changed files to the set of modules that must be
// re-executed. It owns two indexes: which module each watched file
// belongs to, and which modules depend on a given module.
package depmap

import (
	"os"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ClosureProvider = (*DependentMap)(nil)

// modulePatterns holds a module's declared file globs for late binding
// of files created after startup.
type modulePatterns struct {
	module   domain.InternedString
	patterns []string
}

// DependentMap implements ports.ClosureProvider over a module graph.
// All paths are root-relative with forward slashes.
type DependentMap struct {
	mu         sync.RWMutex
	root       string
	fileOwners map[string][]domain.InternedString
	dependents map[domain.InternedString][]domain.InternedString
	patterns   []modulePatterns
}

// NewDependentMap builds the indexes for the given project root and
// module graph. Globs are expanded once here; files that appear later
// are bound on demand by RegisterChangedFiles.
func NewDependentMap(root string, graph *domain.ModuleGraph) (*DependentMap, error) {
	m := &DependentMap{
		root:       root,
		fileOwners: make(map[string][]domain.InternedString),
		dependents: make(map[domain.InternedString][]domain.InternedString),
	}

	fsys := os.DirFS(root)

	for module := range graph.Walk() {
		// Invert the declared dependencies into dependent edges.
		for _, dep := range module.DependsOn {
			m.dependents[dep] = append(m.dependents[dep], module.Name)
		}

		m.patterns = append(m.patterns, modulePatterns{
			module:   module.Name,
			patterns: module.Files,
		})

		for _, pattern := range module.Files {
			matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to expand file pattern"), "pattern", pattern)
			}
			for _, match := range matches {
				m.addOwner(match, module.Name)
			}
		}
	}

	return m, nil
}

// addOwner records the module as an owner of the path, keeping the list
// duplicate free.
func (m *DependentMap) addOwner(path string, module domain.InternedString) {
	for _, owner := range m.fileOwners[path] {
		if owner == module {
			return
		}
	}
	m.fileOwners[path] = append(m.fileOwners[path], module)
}

// RegisterChangedFiles binds paths the indexes have not seen yet. A
// file created after startup belongs to whichever modules' globs it
// matches; a path matching no module is fine and simply stays unbound.
func (m *DependentMap) RegisterChangedFiles(paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, path := range paths {
		if _, known := m.fileOwners[path]; known {
			continue
		}

		for _, mp := range m.patterns {
			for _, pattern := range mp.patterns {
				matched, err := doublestar.Match(pattern, path)
				if err != nil {
					return zerr.With(zerr.Wrap(err, "failed to match file pattern"), "pattern", pattern)
				}
				if matched {
					m.addOwner(path, mp.module)
					break
				}
			}
		}
	}

	return nil
}

// ComputeClosure returns every module affected by the changed paths:
// the modules owning the files plus all transitive dependents. The
// result is sorted by name; an empty result is not an error.
func (m *DependentMap) ComputeClosure(paths []string) ([]domain.InternedString, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	affected := make(map[domain.InternedString]struct{})

	var queue []domain.InternedString
	for _, path := range paths {
		for _, owner := range m.fileOwners[path] {
			if _, seen := affected[owner]; !seen {
				affected[owner] = struct{}{}
				queue = append(queue, owner)
			}
		}
	}

	for len(queue) > 0 {
		module := queue[0]
		queue = queue[1:]

		for _, dependent := range m.dependents[module] {
			if _, seen := affected[dependent]; !seen {
				affected[dependent] = struct{}{}
				queue = append(queue, dependent)
			}
		}
	}

	closure := make([]domain.InternedString, 0, len(affected))
	for module := range affected {
		closure = append(closure, module)
	}
	sort.Slice(closure, func(i, j int) bool {
		return closure[i].String() < closure[j].String()
	})

	return closure, nil
}

// WatchedFiles returns every file currently bound to a module, sorted,
// as root-relative slash paths.
func (m *DependentMap) WatchedFiles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]string, 0, len(m.fileOwners))
	for path := range m.fileOwners {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// Owners returns the modules that own the given root-relative path.
func (m *DependentMap) Owners(path string) []domain.InternedString {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owners := make([]domain.InternedString, len(m.fileOwners[path]))
	copy(owners, m.fileOwners[path])
	return owners
}
