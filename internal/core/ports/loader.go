package ports

import (
	"context"

	"go.molt.dev/molt/internal/core/domain"
)

//go:generate mockgen -source=loader.go -destination=mocks/mock_loader.go -package=mocks

// Requirer gives a loader access to the exports of other modules.
// Requiring a module loads it first if needed, which is how first-load
// order arises during bootstrap.
type Requirer interface {
	Require(name domain.InternedString) (domain.Exports, error)
}

// ModuleLoader executes a module declaration and produces its exports.
// Loaders must be side-effect free apart from reading the module's files:
// the same declaration may be executed many times over a process lifetime.
type ModuleLoader interface {
	Load(ctx context.Context, module domain.Module, req Requirer) (domain.Exports, error)
}
