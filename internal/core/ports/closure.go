package ports

import "go.molt.dev/molt/internal/core/domain"

// ClosureProvider computes which modules are affected by a batch of
// changed files. Implementations own the file-to-module index; the reload
// engine never inspects dependency structure itself.
//
//go:generate mockgen -source=closure.go -destination=mocks/mock_closure.go -package=mocks
type ClosureProvider interface {
	// RegisterChangedFiles refreshes the provider's view of the given
	// files. It is called once per batch, before ComputeClosure, so files
	// created after startup can be bound to their module.
	// Paths are relative to the project root.
	RegisterChangedFiles(paths []string) error

	// ComputeClosure returns the modules affected by the changed files:
	// the owners of the paths plus every module that transitively depends
	// on them. A batch that affects no module returns an empty slice, not
	// an error.
	ComputeClosure(paths []string) ([]domain.InternedString, error)
}
