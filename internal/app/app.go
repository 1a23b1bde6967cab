// Package app implements the application layer for molt.
//
// It assembles the engine and adapters into a running development server:
// configuration loading, the bootstrap pass over the entry module, the
// watch-debounce-reload pipeline and the HTTP front end.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.molt.dev/molt/internal/adapters/depmap"  //nolint:depguard // Wired in app layer
	"go.molt.dev/molt/internal/adapters/kinds"   //nolint:depguard // Wired in app layer
	"go.molt.dev/molt/internal/adapters/server"  //nolint:depguard // Wired in app layer
	"go.molt.dev/molt/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.molt.dev/molt/internal/engine/registry"
	"go.molt.dev/molt/internal/engine/reload"
	"go.molt.dev/molt/internal/ui/style"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	config ports.ConfigLoader
	watch  ports.Watcher
	hasher ports.Hasher
	logger ports.Logger
	tracer ports.Tracer
}

// New creates a new App instance.
func New(config ports.ConfigLoader, watch ports.Watcher, hasher ports.Hasher, logger ports.Logger, tracer ports.Tracer) *App {
	return &App{
		config: config,
		watch:  watch,
		hasher: hasher,
		logger: logger,
		tracer: tracer,
	}
}

// Options control a single Serve run.
type Options struct {
	// Addr is the address the HTTP server binds to.
	Addr string

	// Debounce overrides the project's debounce window when positive.
	Debounce time.Duration

	// Reload delivers manual reload triggers, typically wired to SIGHUP.
	// A trigger delivers the pending change batch immediately instead of
	// waiting out the debounce window.
	Reload <-chan os.Signal
}

// Serve loads the project containing dir, executes its entry module and
// serves the entry over HTTP while re-executing modules as their files
// change. It blocks until ctx is cancelled or a component fails.
func (a *App) Serve(ctx context.Context, dir string, opts Options) error {
	project, err := a.config.Load(dir)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	arena := registry.New(project, kinds.Default(project.Root))
	order := domain.NewLoadOrder()
	if err := a.bootstrap(ctx, arena, order, project); err != nil {
		return err
	}

	dependents, err := depmap.NewDependentMap(project.Root, project.Graph())
	if err != nil {
		return zerr.Wrap(err, "failed to index watched files")
	}

	orch := reload.New(project, arena, dependents, order, a.logger, a.tracer)

	window := project.Watch.Debounce
	if opts.Debounce > 0 {
		window = opts.Debounce
	}
	batches := watcher.NewDebouncer(window, func(paths []string) {
		// Reload failures are logged by the orchestrator; the pipeline
		// keeps running so the next edit gets another chance.
		_ = orch.OnBatch(ctx, paths)
	})

	filter := watcher.NewFilter(project.Root, project.Watch, a.hasher)
	filter.Prime(joinRoot(project.Root, dependents.WatchedFiles()))

	srv := server.New(opts.Addr, orch, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	if err := a.watch.Start(gctx, project.Root); err != nil {
		return zerr.Wrap(err, "failed to start file watcher")
	}
	defer func() { _ = a.watch.Stop() }()

	a.logger.Info(fmt.Sprintf("%s Watching %s", style.Dot, project.Root))

	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	g.Go(func() error {
		for event := range a.watch.Events() {
			if !filter.Accept(event) {
				continue
			}
			orch.MarkCollecting()
			batches.Add(event.Path)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case _, ok := <-opts.Reload:
				if !ok {
					return nil
				}
				a.logger.Info(fmt.Sprintf("%s Reload requested, delivering pending changes", style.Dot))
				batches.Flush()
			}
		}
	})

	return g.Wait()
}

// bootstrap performs the initial load of the entry module and verifies the
// entry attribute is servable. Loads are recorded so later reload cycles
// re-execute modules in first-load order.
func (a *App) bootstrap(ctx context.Context, arena *registry.Registry, order *domain.LoadOrder, project *domain.Project) error {
	ctx, span := a.tracer.Start(ctx, "bootstrap")
	defer span.End()
	span.SetAttribute("entry", project.Entry.String())

	uninstall := arena.RecordLoads(order)
	defer uninstall()

	if _, err := arena.Load(ctx, project.Entry.Module); err != nil {
		span.RecordError(err)
		return zerr.Wrap(err, "bootstrap failed")
	}

	if _, err := arena.ResolveEntry(project.Entry); err != nil {
		span.RecordError(err)
		return zerr.Wrap(err, "entry is not servable")
	}

	a.logger.Info(fmt.Sprintf("%s Loaded %s", style.Check, project.Entry.String()))
	return nil
}

// Graph loads the project containing dir and renders its module dependency
// graph in the given format.
func (a *App) Graph(dir, format string) (string, error) {
	project, err := a.config.Load(dir)
	if err != nil {
		return "", zerr.Wrap(err, "failed to load configuration")
	}

	switch format {
	case "dot":
		return project.Graph().DOT(), nil
	case "mermaid":
		return project.Graph().Mermaid(), nil
	default:
		return "", zerr.With(domain.ErrUnknownGraphFormat, "format", format)
	}
}

// joinRoot resolves slash-separated project-relative paths against root.
func joinRoot(root string, rel []string) []string {
	abs := make([]string, len(rel))
	for i, p := range rel {
		abs[i] = filepath.Join(root, filepath.FromSlash(p))
	}
	return abs
}
