// Package registry implements the module arena: the single authoritative
// store of module exports the process serves from.
package registry

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.trai.ch/zerr"
)

// slotState tracks where a module is in its load lifecycle.
type slotState uint8

const (
	stateLoading slotState = iota + 1
	stateLoaded
)

// slot holds one module's exports and load state.
type slot struct {
	state   slotState
	exports domain.Exports
}

// Registry is the arena of loaded modules. Exports enter the arena when
// a module's loader runs and leave it on eviction; request dispatch only
// ever reads the arena.
//
// Loading is serialized by the reload pipeline (bootstrap runs before
// the server starts, reloads hold the reload write lock), so Load never
// races with itself. The internal mutex protects readers that overlap
// with loading, such as ResolveEntry during bootstrap verification.
type Registry struct {
	modules map[domain.InternedString]domain.Module
	kinds   map[domain.Kind]ports.ModuleLoader

	mu       sync.RWMutex
	slots    map[domain.InternedString]*slot
	recorder *domain.LoadOrder
}

// New creates an empty arena for the project's modules.
func New(project *domain.Project, kinds map[domain.Kind]ports.ModuleLoader) *Registry {
	modules := make(map[domain.InternedString]domain.Module, len(project.Modules))
	for _, m := range project.Modules {
		modules[m.Name] = m
	}

	return &Registry{
		modules: modules,
		kinds:   kinds,
		slots:   make(map[domain.InternedString]*slot),
	}
}

// RecordLoads installs a recorder that captures the order in which
// modules finish loading. The returned uninstall function removes it;
// loads after uninstall no longer affect the recorded order.
func (r *Registry) RecordLoads(order *domain.LoadOrder) (uninstall func()) {
	r.mu.Lock()
	r.recorder = order
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		r.recorder = nil
		r.mu.Unlock()
	}
}

// Load returns the module's exports, executing its loader first if the
// module is not in the arena. Dependencies requested by the loader are
// loaded recursively.
func (r *Registry) Load(ctx context.Context, name domain.InternedString) (domain.Exports, error) {
	module, err := r.beginLoad(name)
	if err != nil {
		return nil, err
	}
	if module == nil {
		// Already loaded.
		r.mu.RLock()
		exports := r.slots[name].exports
		r.mu.RUnlock()
		return exports, nil
	}

	loader, ok := r.kinds[module.Kind]
	if !ok {
		r.abortLoad(name)
		err := zerr.With(domain.ErrUnknownKind, "kind", string(module.Kind))
		return nil, zerr.With(err, "module", name.String())
	}

	// The loader runs without the registry lock so it can Require its
	// dependencies, which loads them through this same path.
	exports, err := loader.Load(ctx, *module, &scopedRequirer{registry: r, module: *module, ctx: ctx})
	if err != nil {
		r.abortLoad(name)
		return nil, zerr.With(errors.Join(domain.ErrModuleLoadFailed, err), "module", name.String())
	}

	r.finishLoad(name, exports)
	return exports, nil
}

// beginLoad transitions the slot to loading. It returns the module to
// load, or nil if the module is already loaded.
func (r *Registry) beginLoad(name domain.InternedString) (*domain.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.slots[name]; ok {
		switch s.state {
		case stateLoaded:
			return nil, nil
		case stateLoading:
			// A module required itself back through its dependencies.
			return nil, zerr.With(domain.ErrCycleDetected, "module", name.String())
		}
	}

	module, ok := r.modules[name]
	if !ok {
		return nil, zerr.With(domain.ErrModuleNotFound, "module", name.String())
	}

	r.slots[name] = &slot{state: stateLoading}
	return &module, nil
}

// abortLoad clears a failed load so the module can be retried.
func (r *Registry) abortLoad(name domain.InternedString) {
	r.mu.Lock()
	delete(r.slots, name)
	r.mu.Unlock()
}

// finishLoad publishes the exports and records the load order.
func (r *Registry) finishLoad(name domain.InternedString, exports domain.Exports) {
	r.mu.Lock()
	r.slots[name] = &slot{state: stateLoaded, exports: exports}
	if r.recorder != nil {
		r.recorder.Record(name)
	}
	r.mu.Unlock()
}

// Evict removes the module's exports from the arena. It reports whether
// the module was loaded.
func (r *Registry) Evict(name domain.InternedString) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slots[name]; !ok {
		return false
	}
	delete(r.slots, name)
	return true
}

// Loaded reports whether the module's exports are in the arena.
func (r *Registry) Loaded(name domain.InternedString) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.slots[name]
	return ok && s.state == stateLoaded
}

// ResolveEntry looks up the entry attribute in the arena and returns it
// as a request handler. Resolution always reads the current arena state,
// so a reload that replaced the entry module is visible to the very next
// call.
func (r *Registry) ResolveEntry(ref domain.EntryRef) (ports.RequestHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.slots[ref.Module]
	if !ok || s.state != stateLoaded {
		return nil, zerr.With(domain.ErrModuleNotLoaded, "module", ref.Module.String())
	}

	value, ok := s.exports[ref.Attr]
	if !ok {
		err := zerr.With(domain.ErrEntryNotResolvable, "module", ref.Module.String())
		return nil, zerr.With(err, "attribute", ref.Attr)
	}

	handler, ok := value.(ports.RequestHandler)
	if !ok {
		err := zerr.With(domain.ErrEntryNotResolvable, "module", ref.Module.String())
		err = zerr.With(err, "attribute", ref.Attr)
		return nil, zerr.With(err, "reason", "attribute is not a request handler")
	}

	return handler, nil
}

// scopedRequirer is the loader's view of the arena, restricted to the
// module's declared dependencies.
type scopedRequirer struct {
	registry *Registry
	module   domain.Module
	ctx      context.Context
}

// Require returns the exports of a declared dependency, loading it
// first if needed.
func (s *scopedRequirer) Require(name domain.InternedString) (domain.Exports, error) {
	if !slices.Contains(s.module.DependsOn, name) {
		err := zerr.With(domain.ErrMissingDependency, "module", s.module.Name.String())
		return nil, zerr.With(err, "dependency", name.String())
	}
	return s.registry.Load(s.ctx, name)
}
