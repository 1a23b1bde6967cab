// Package reload drives the hot-reload cycle: it consumes debounced
// change batches, computes the affected modules, evicts and re-executes
// them in first-load order, and owns the lock that keeps request serving
// out of half-reloaded state.
package reload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.molt.dev/molt/internal/engine/registry"
	"go.molt.dev/molt/internal/ui/style"
	"go.trai.ch/zerr"
)

// Phase is the observable state of the reload cycle. It exists for logs
// and tests; the synchronization that matters is the reload lock.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseCollecting
	PhaseResolving
	PhaseEvicting
	PhaseReexecuting
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollecting:
		return "collecting"
	case PhaseResolving:
		return "resolving"
	case PhaseEvicting:
		return "evicting"
	case PhaseReexecuting:
		return "reexecuting"
	}
	return "unknown"
}

// batchPreviewLimit caps how many names a progress line spells out.
const batchPreviewLimit = 5

// Orchestrator runs reload cycles against the module registry.
//
// OnBatch is the single entry point, invoked by the debouncer when a
// change batch settles. The whole resolve→evict→re-execute span holds the
// reload lock exclusively, so back-to-back batches run strictly
// sequentially and Dispatch never observes a half-reloaded registry.
type Orchestrator struct {
	root    string
	entry   domain.EntryRef
	arena   *registry.Registry
	closure ports.ClosureProvider
	order   *domain.LoadOrder
	logger  ports.Logger
	tracer  ports.Tracer

	mu    sync.RWMutex // the reload lock; held for writing across a cycle
	phase atomic.Int32
}

var _ ports.Dispatcher = (*Orchestrator)(nil)

// New creates an orchestrator for a project. The load order must be the
// one recorded during bootstrap; it is read, never rebuilt.
func New(project *domain.Project, arena *registry.Registry, closure ports.ClosureProvider, order *domain.LoadOrder, logger ports.Logger, tracer ports.Tracer) *Orchestrator {
	return &Orchestrator{
		root:    project.Root,
		entry:   project.Entry,
		arena:   arena,
		closure: closure,
		order:   order,
		logger:  logger,
		tracer:  tracer,
	}
}

// Phase returns the current reload phase.
func (o *Orchestrator) Phase() Phase {
	return Phase(o.phase.Load())
}

// MarkCollecting flags that changes are accumulating for the next cycle.
// Only an idle orchestrator moves to Collecting; a cycle already under
// way keeps its phase.
func (o *Orchestrator) MarkCollecting() {
	o.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseCollecting))
}

// OnBatch runs one reload cycle for a settled change batch. A closure
// failure aborts the cycle before anything is evicted and is returned;
// the previous bindings keep serving and the next batch starts fresh.
// Per-module re-execution failures are logged and skipped, never
// returned: one broken module must not prevent recovery of the rest.
func (o *Orchestrator) OnBatch(ctx context.Context, paths []string) error {
	batch := o.relativize(paths)
	if len(batch) == 0 {
		o.phase.Store(int32(PhaseIdle))
		return nil
	}

	// Once eviction starts the cycle must finish, or affected modules
	// would stay unloaded; shutdown waits for the cycle, not the reverse.
	ctx = context.WithoutCancel(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.phase.Store(int32(PhaseIdle))

	ctx, span := o.tracer.Start(ctx, "reload")
	defer span.End()
	span.SetAttribute("files", len(batch))

	o.logBatch(batch)

	o.phase.Store(int32(PhaseResolving))
	affected, err := o.resolveClosure(batch)
	if err != nil {
		span.RecordError(err)
		o.logger.Error(err)
		return err
	}

	if len(affected) == 0 {
		o.logger.Info(fmt.Sprintf("%s No modules affected, nothing to reload", style.Circle))
		o.verifyEntry()
		return nil
	}

	o.order.Sort(affected)
	o.logAffected(affected)
	span.SetAttribute("modules", len(affected))

	o.phase.Store(int32(PhaseEvicting))
	for _, name := range affected {
		o.arena.Evict(name)
	}

	o.phase.Store(int32(PhaseReexecuting))
	for _, name := range affected {
		o.reexecute(ctx, name)
	}

	o.verifyEntry()
	return nil
}

// Dispatch implements ports.Dispatcher. It holds the reload lock for
// reading and resolves the entry handler fresh from the registry, so a
// request blocks out reload cycles for its duration and a completed
// reload is visible to the very next request.
func (o *Orchestrator) Dispatch(w http.ResponseWriter, r *http.Request) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	handler, err := o.arena.ResolveEntry(o.entry)
	if err != nil {
		return err
	}
	return handler.Serve(w, r)
}

// relativize rebases batch paths onto the project root, drops paths
// outside it, dedupes and sorts. The closure provider works in
// root-relative slash paths.
func (o *Orchestrator) relativize(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	batch := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(o.root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		batch = append(batch, rel)
	}
	slices.Sort(batch)
	return batch
}

func (o *Orchestrator) resolveClosure(batch []string) ([]domain.InternedString, error) {
	if err := o.closure.RegisterChangedFiles(batch); err != nil {
		return nil, errors.Join(domain.ErrChangeRegistration, err)
	}
	affected, err := o.closure.ComputeClosure(batch)
	if err != nil {
		return nil, errors.Join(domain.ErrClosureComputation, err)
	}
	return affected, nil
}

func (o *Orchestrator) reexecute(ctx context.Context, name domain.InternedString) {
	ctx, span := o.tracer.Start(ctx, "reload "+name.String())
	defer span.End()

	if _, err := o.arena.Load(ctx, name); err != nil {
		span.RecordError(err)
		o.logger.Error(err)
	}
}

// verifyEntry re-resolves the entry handler at the end of a cycle so a
// reload that broke the entry module is surfaced immediately instead of
// on the next request.
func (o *Orchestrator) verifyEntry() {
	if _, err := o.arena.ResolveEntry(o.entry); err != nil {
		o.logger.Error(zerr.Wrap(err, "entry is not servable"))
	}
}

func (o *Orchestrator) logBatch(batch []string) {
	if len(batch) == 1 {
		o.logger.Info(fmt.Sprintf("%s Noticed edit to %s", style.Dot, batch[0]))
		return
	}
	o.logger.Info(fmt.Sprintf("%s Noticed edits to %d files: %s", style.Dot, len(batch), preview(batch)))
}

func (o *Orchestrator) logAffected(affected []domain.InternedString) {
	names := make([]string, len(affected))
	for i, name := range affected {
		names[i] = name.String()
	}
	label := "modules"
	if len(names) == 1 {
		label = "module"
	}
	o.logger.Info(fmt.Sprintf("%s Will reload %d %s: %s", style.Arrow, len(names), label, preview(names)))
}

// preview spells out up to batchPreviewLimit items and elides the rest.
func preview(items []string) string {
	if len(items) <= batchPreviewLimit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:batchPreviewLimit], ", ") + " [more…]"
}
