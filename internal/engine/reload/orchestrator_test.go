package reload_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.molt.dev/molt/internal/core/ports/mocks"
	"go.molt.dev/molt/internal/engine/registry"
	"go.molt.dev/molt/internal/engine/reload"
	"go.uber.org/mock/gomock"
)

type loaderFunc func(ctx context.Context, module domain.Module, req ports.Requirer) (domain.Exports, error)

func (f loaderFunc) Load(ctx context.Context, module domain.Module, req ports.Requirer) (domain.Exports, error) {
	return f(ctx, module, req)
}

type stubTracer struct{}

func (stubTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, stubSpan{}
}

type stubSpan struct{}

func (stubSpan) End()                     {}
func (stubSpan) RecordError(error)        {}
func (stubSpan) SetAttribute(string, any) {}

func module(name string, deps ...string) domain.Module {
	return domain.Module{
		Name:      domain.NewInternedString(name),
		Kind:      domain.KindTemplate,
		Files:     []string{name + "/*.html"},
		DependsOn: domain.NewInternedStrings(deps),
	}
}

func project(t *testing.T, entry string, modules ...domain.Module) *domain.Project {
	t.Helper()

	ref, err := domain.ParseEntryRef(entry)
	require.NoError(t, err)
	return &domain.Project{
		Root:    t.TempDir(),
		Entry:   ref,
		Watch:   domain.DefaultWatchSettings(),
		Modules: modules,
	}
}

func requireDeps(module domain.Module, req ports.Requirer) error {
	for _, dep := range module.DependsOn {
		if _, err := req.Require(dep); err != nil {
			return err
		}
	}
	return nil
}

func newArena(proj *domain.Project, loader ports.ModuleLoader) *registry.Registry {
	return registry.New(proj, map[domain.Kind]ports.ModuleLoader{
		domain.KindTemplate: loader,
	})
}

// bootstrap loads the entry module with recording on, the way the app
// does before serving, and returns the recorded order.
func bootstrap(t *testing.T, arena *registry.Registry, proj *domain.Project) *domain.LoadOrder {
	t.Helper()

	order := domain.NewLoadOrder()
	uninstall := arena.RecordLoads(order)
	defer uninstall()

	_, err := arena.Load(context.Background(), proj.Entry.Module)
	require.NoError(t, err)
	return order
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	return logger
}

func okHandler(body string) ports.RequestHandler {
	return ports.RequestHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
		_, err := fmt.Fprint(w, body)
		return err
	})
}

func TestOrchestrator_OnBatch_ReexecutesInLoadOrder(t *testing.T) {
	ctrl := gomock.NewController(t)

	var loads []string
	loader := loaderFunc(func(_ context.Context, m domain.Module, req ports.Requirer) (domain.Exports, error) {
		if err := requireDeps(m, req); err != nil {
			return nil, err
		}
		loads = append(loads, m.Name.String())
		return domain.Exports{"handler": okHandler(m.Name.String())}, nil
	})

	proj := project(t, "pages:handler", module("site"), module("layout", "site"), module("pages", "layout"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)
	loads = nil

	closure := mocks.NewMockClosureProvider(ctrl)
	orch := reload.New(proj, arena, closure, order, quietLogger(ctrl), stubTracer{})

	changed := filepath.Join(proj.Root, "layout", "base.html")
	closure.EXPECT().RegisterChangedFiles([]string{"layout/base.html"}).Return(nil)
	// The provider answers in its own order; re-execution follows the
	// recorded load order instead.
	closure.EXPECT().ComputeClosure([]string{"layout/base.html"}).
		Return(domain.NewInternedStrings([]string{"pages", "layout"}), nil)

	// The same file reported twice collapses to one batch entry.
	require.NoError(t, orch.OnBatch(context.Background(), []string{changed, changed}))

	assert.Equal(t, []string{"layout", "pages"}, loads)
	assert.Equal(t, reload.PhaseIdle, orch.Phase())
}

func TestOrchestrator_OnBatch_NewModuleSortsLast(t *testing.T) {
	ctrl := gomock.NewController(t)

	var loads []string
	loader := loaderFunc(func(_ context.Context, m domain.Module, req ports.Requirer) (domain.Exports, error) {
		if err := requireDeps(m, req); err != nil {
			return nil, err
		}
		loads = append(loads, m.Name.String())
		return domain.Exports{"handler": okHandler(m.Name.String())}, nil
	})

	// extra is declared but nothing pulls it in at bootstrap, so it has
	// no recorded position and must re-execute after the recorded ones.
	proj := project(t, "pages:handler", module("site"), module("pages", "site"), module("extra"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)
	loads = nil

	closure := mocks.NewMockClosureProvider(ctrl)
	orch := reload.New(proj, arena, closure, order, quietLogger(ctrl), stubTracer{})

	closure.EXPECT().RegisterChangedFiles(gomock.Any()).Return(nil)
	closure.EXPECT().ComputeClosure(gomock.Any()).
		Return(domain.NewInternedStrings([]string{"extra", "site"}), nil)

	changed := filepath.Join(proj.Root, "shared.html")
	require.NoError(t, orch.OnBatch(context.Background(), []string{changed}))

	assert.Equal(t, []string{"site", "extra"}, loads)
}

func TestOrchestrator_OnBatch_EmptyClosure(t *testing.T) {
	ctrl := gomock.NewController(t)

	var loads []string
	loader := loaderFunc(func(_ context.Context, m domain.Module, _ ports.Requirer) (domain.Exports, error) {
		loads = append(loads, m.Name.String())
		return domain.Exports{"handler": okHandler(m.Name.String())}, nil
	})

	proj := project(t, "pages:handler", module("pages"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)
	loads = nil

	closure := mocks.NewMockClosureProvider(ctrl)
	orch := reload.New(proj, arena, closure, order, quietLogger(ctrl), stubTracer{})

	closure.EXPECT().RegisterChangedFiles(gomock.Any()).Return(nil)
	closure.EXPECT().ComputeClosure(gomock.Any()).Return(nil, nil)

	changed := filepath.Join(proj.Root, "README.html")
	require.NoError(t, orch.OnBatch(context.Background(), []string{changed}))

	// Nothing is evicted or re-executed on an unaffecting batch.
	assert.Empty(t, loads)
	assert.True(t, arena.Loaded(domain.NewInternedString("pages")))
}

func TestOrchestrator_OnBatch_ClosureFailureAbortsCycle(t *testing.T) {
	ctrl := gomock.NewController(t)

	var loads []string
	loader := loaderFunc(func(_ context.Context, m domain.Module, _ ports.Requirer) (domain.Exports, error) {
		loads = append(loads, m.Name.String())
		return domain.Exports{"handler": okHandler(m.Name.String())}, nil
	})

	proj := project(t, "pages:handler", module("pages"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)
	loads = nil

	closure := mocks.NewMockClosureProvider(ctrl)
	logger := quietLogger(ctrl)
	logger.EXPECT().Error(gomock.Any()).Times(1)
	orch := reload.New(proj, arena, closure, order, logger, stubTracer{})

	changed := filepath.Join(proj.Root, "pages", "index.html")

	closure.EXPECT().RegisterChangedFiles(gomock.Any()).Return(nil).Times(2)
	closure.EXPECT().ComputeClosure(gomock.Any()).Return(nil, errors.New("index corrupted"))

	err := orch.OnBatch(context.Background(), []string{changed})
	assert.ErrorIs(t, err, domain.ErrClosureComputation)

	// The failed cycle evicted nothing; the old bindings keep serving.
	assert.Empty(t, loads)
	assert.True(t, arena.Loaded(domain.NewInternedString("pages")))
	assert.Equal(t, reload.PhaseIdle, orch.Phase())

	// A later batch starts a fresh cycle and succeeds.
	closure.EXPECT().ComputeClosure(gomock.Any()).
		Return(domain.NewInternedStrings([]string{"pages"}), nil)
	require.NoError(t, orch.OnBatch(context.Background(), []string{changed}))
	assert.Equal(t, []string{"pages"}, loads)
}

func TestOrchestrator_OnBatch_RegistrationFailureAbortsCycle(t *testing.T) {
	ctrl := gomock.NewController(t)

	loader := loaderFunc(func(_ context.Context, m domain.Module, _ ports.Requirer) (domain.Exports, error) {
		return domain.Exports{"handler": okHandler(m.Name.String())}, nil
	})

	proj := project(t, "pages:handler", module("pages"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)

	closure := mocks.NewMockClosureProvider(ctrl)
	logger := quietLogger(ctrl)
	logger.EXPECT().Error(gomock.Any()).Times(1)
	orch := reload.New(proj, arena, closure, order, logger, stubTracer{})

	closure.EXPECT().RegisterChangedFiles(gomock.Any()).Return(errors.New("glob exploded"))

	changed := filepath.Join(proj.Root, "pages", "index.html")
	err := orch.OnBatch(context.Background(), []string{changed})

	assert.ErrorIs(t, err, domain.ErrChangeRegistration)
	assert.True(t, arena.Loaded(domain.NewInternedString("pages")))
}

func TestOrchestrator_OnBatch_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	var failSite atomic.Bool
	var loads []string
	loader := loaderFunc(func(_ context.Context, m domain.Module, _ ports.Requirer) (domain.Exports, error) {
		if m.Name.String() == "site" && failSite.Load() {
			return nil, errors.New("yaml gone bad")
		}
		loads = append(loads, m.Name.String())
		return domain.Exports{"handler": okHandler(m.Name.String())}, nil
	})

	// site and pages are independent, so a broken site must not stop
	// pages from recovering.
	proj := project(t, "pages:handler", module("site"), module("pages"))
	arena := newArena(proj, loader)

	order := domain.NewLoadOrder()
	uninstall := arena.RecordLoads(order)
	_, err := arena.Load(context.Background(), domain.NewInternedString("site"))
	require.NoError(t, err)
	_, err = arena.Load(context.Background(), domain.NewInternedString("pages"))
	require.NoError(t, err)
	uninstall()
	loads = nil

	closure := mocks.NewMockClosureProvider(ctrl)
	logger := quietLogger(ctrl)
	logger.EXPECT().Error(gomock.Any()).Times(1)
	orch := reload.New(proj, arena, closure, order, logger, stubTracer{})

	closure.EXPECT().RegisterChangedFiles(gomock.Any()).Return(nil)
	closure.EXPECT().ComputeClosure(gomock.Any()).
		Return(domain.NewInternedStrings([]string{"site", "pages"}), nil)

	failSite.Store(true)
	changed := filepath.Join(proj.Root, "shared.html")
	require.NoError(t, orch.OnBatch(context.Background(), []string{changed}))

	assert.Equal(t, []string{"pages"}, loads)
	assert.False(t, arena.Loaded(domain.NewInternedString("site")))
	assert.True(t, arena.Loaded(domain.NewInternedString("pages")))
}

func TestOrchestrator_OnBatch_EntryBreakageIsSurfaced(t *testing.T) {
	ctrl := gomock.NewController(t)

	var failLayout atomic.Bool
	loader := loaderFunc(func(_ context.Context, m domain.Module, req ports.Requirer) (domain.Exports, error) {
		if err := requireDeps(m, req); err != nil {
			return nil, err
		}
		if m.Name.String() == "layout" && failLayout.Load() {
			return nil, errors.New("template parse failed")
		}
		return domain.Exports{"handler": okHandler(m.Name.String())}, nil
	})

	proj := project(t, "pages:handler", module("layout"), module("pages", "layout"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)

	closure := mocks.NewMockClosureProvider(ctrl)
	logger := quietLogger(ctrl)
	// layout fails, pages fails behind it, and the entry check reports
	// the handler gone.
	logger.EXPECT().Error(gomock.Any()).Times(3)
	orch := reload.New(proj, arena, closure, order, logger, stubTracer{})

	closure.EXPECT().RegisterChangedFiles(gomock.Any()).Return(nil)
	closure.EXPECT().ComputeClosure(gomock.Any()).
		Return(domain.NewInternedStrings([]string{"layout", "pages"}), nil)

	failLayout.Store(true)
	changed := filepath.Join(proj.Root, "layout", "base.html")
	require.NoError(t, orch.OnBatch(context.Background(), []string{changed}))

	rec := httptest.NewRecorder()
	err := orch.Dispatch(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, domain.ErrModuleNotLoaded)
}

func TestOrchestrator_Dispatch_SeesFreshHandler(t *testing.T) {
	ctrl := gomock.NewController(t)

	var generation atomic.Int64
	loader := loaderFunc(func(_ context.Context, m domain.Module, _ ports.Requirer) (domain.Exports, error) {
		n := generation.Add(1)
		return domain.Exports{"handler": okHandler(fmt.Sprintf("%s v%d", m.Name.String(), n))}, nil
	})

	proj := project(t, "pages:handler", module("pages"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)

	closure := mocks.NewMockClosureProvider(ctrl)
	orch := reload.New(proj, arena, closure, order, quietLogger(ctrl), stubTracer{})

	rec := httptest.NewRecorder()
	require.NoError(t, orch.Dispatch(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, "pages v1", rec.Body.String())

	closure.EXPECT().RegisterChangedFiles(gomock.Any()).Return(nil)
	closure.EXPECT().ComputeClosure(gomock.Any()).
		Return(domain.NewInternedStrings([]string{"pages"}), nil)

	changed := filepath.Join(proj.Root, "pages", "index.html")
	require.NoError(t, orch.OnBatch(context.Background(), []string{changed}))

	// The entry is resolved per dispatch, never cached across reloads.
	rec = httptest.NewRecorder()
	require.NoError(t, orch.Dispatch(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, "pages v2", rec.Body.String())
}

func TestOrchestrator_Dispatch_BlocksDuringReload(t *testing.T) {
	ctrl := gomock.NewController(t)

	entered := make(chan struct{})
	release := make(chan struct{})

	var generation atomic.Int64
	loader := loaderFunc(func(_ context.Context, m domain.Module, _ ports.Requirer) (domain.Exports, error) {
		n := generation.Add(1)
		if n == 2 {
			close(entered)
			<-release
		}
		return domain.Exports{"handler": okHandler(fmt.Sprintf("%s v%d", m.Name.String(), n))}, nil
	})

	proj := project(t, "pages:handler", module("pages"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)

	closure := mocks.NewMockClosureProvider(ctrl)
	orch := reload.New(proj, arena, closure, order, quietLogger(ctrl), stubTracer{})

	closure.EXPECT().RegisterChangedFiles(gomock.Any()).Return(nil)
	closure.EXPECT().ComputeClosure(gomock.Any()).
		Return(domain.NewInternedStrings([]string{"pages"}), nil)

	changed := filepath.Join(proj.Root, "pages", "index.html")
	go func() {
		_ = orch.OnBatch(context.Background(), []string{changed})
	}()
	<-entered

	assert.Equal(t, reload.PhaseReexecuting, orch.Phase())
	// A notification mid-cycle must not clobber the running phase.
	orch.MarkCollecting()
	assert.Equal(t, reload.PhaseReexecuting, orch.Phase())

	got := make(chan string, 1)
	go func() {
		rec := httptest.NewRecorder()
		_ = orch.Dispatch(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		got <- rec.Body.String()
	}()

	// The reload lock is held, so the request cannot have completed.
	time.Sleep(20 * time.Millisecond)
	select {
	case body := <-got:
		t.Fatalf("request completed during reload: %q", body)
	default:
	}

	close(release)
	assert.Equal(t, "pages v2", <-got)
	assert.Equal(t, reload.PhaseIdle, orch.Phase())
}

func TestOrchestrator_OnBatch_IgnoresPathsOutsideRoot(t *testing.T) {
	ctrl := gomock.NewController(t)

	loader := loaderFunc(func(_ context.Context, m domain.Module, _ ports.Requirer) (domain.Exports, error) {
		return domain.Exports{"handler": okHandler(m.Name.String())}, nil
	})

	proj := project(t, "pages:handler", module("pages"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)

	// No provider expectations: an empty batch never reaches it.
	closure := mocks.NewMockClosureProvider(ctrl)
	orch := reload.New(proj, arena, closure, order, quietLogger(ctrl), stubTracer{})

	orch.MarkCollecting()
	require.NoError(t, orch.OnBatch(context.Background(), []string{"/elsewhere/file.html"}))
	assert.Equal(t, reload.PhaseIdle, orch.Phase())
}

func TestOrchestrator_OnBatch_LogsProgress(t *testing.T) {
	ctrl := gomock.NewController(t)

	loader := loaderFunc(func(_ context.Context, m domain.Module, _ ports.Requirer) (domain.Exports, error) {
		return domain.Exports{"handler": okHandler(m.Name.String())}, nil
	})

	proj := project(t, "pages:handler", module("layout"), module("pages"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)

	var msgs []string
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).Do(func(msg string) {
		msgs = append(msgs, msg)
	}).AnyTimes()

	closure := mocks.NewMockClosureProvider(ctrl)
	orch := reload.New(proj, arena, closure, order, logger, stubTracer{})

	closure.EXPECT().RegisterChangedFiles(gomock.Any()).Return(nil)
	closure.EXPECT().ComputeClosure(gomock.Any()).
		Return(domain.NewInternedStrings([]string{"pages", "layout"}), nil)

	changed := filepath.Join(proj.Root, "layout", "base.html")
	require.NoError(t, orch.OnBatch(context.Background(), []string{changed}))

	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, "● Noticed edit to layout/base.html", msgs[0])
	assert.Equal(t, "► Will reload 2 modules: layout, pages", msgs[1])
}

func TestOrchestrator_OnBatch_ElidesLongBatches(t *testing.T) {
	ctrl := gomock.NewController(t)

	loader := loaderFunc(func(_ context.Context, m domain.Module, _ ports.Requirer) (domain.Exports, error) {
		return domain.Exports{"handler": okHandler(m.Name.String())}, nil
	})

	proj := project(t, "pages:handler", module("pages"))
	arena := newArena(proj, loader)
	order := bootstrap(t, arena, proj)

	var msgs []string
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).Do(func(msg string) {
		msgs = append(msgs, msg)
	}).AnyTimes()

	closure := mocks.NewMockClosureProvider(ctrl)
	orch := reload.New(proj, arena, closure, order, logger, stubTracer{})

	closure.EXPECT().RegisterChangedFiles(gomock.Any()).Return(nil)
	closure.EXPECT().ComputeClosure(gomock.Any()).Return(nil, nil)

	batch := make([]string, 6)
	for i := range batch {
		batch[i] = filepath.Join(proj.Root, fmt.Sprintf("%c.html", 'a'+i))
	}
	require.NoError(t, orch.OnBatch(context.Background(), batch))

	require.NotEmpty(t, msgs)
	assert.Equal(t, "● Noticed edits to 6 files: a.html, b.html, c.html, d.html, e.html [more…]", msgs[0])
}
