package kinds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"maps"
	"net/http"
	"os"

	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Routes builds a module's request handler from a routing table.
//
// Each matched file holds a list of {path, template, data} entries. The
// loader merges the template sets and data tables its dependencies
// export, checks every entry against them, and registers the routes on an
// http.ServeMux, so method selectors and wildcards ("GET /posts/{slug}")
// work as usual. The handler is published under "handler", which is what
// an entry reference like "routes:handler" resolves to.
type Routes struct {
	root string
}

var _ ports.ModuleLoader = (*Routes)(nil)

// NewRoutes creates the routes loader for a project root.
func NewRoutes(root string) *Routes {
	return &Routes{root: root}
}

// routeEntry is one row of a routes file. Data optionally names a key of
// the merged data table; when empty the whole table is the render context.
type routeEntry struct {
	Path     string `yaml:"path"`
	Template string `yaml:"template"`
	Data     string `yaml:"data"`
}

// Load implements ports.ModuleLoader.
func (l *Routes) Load(_ context.Context, module domain.Module, req ports.Requirer) (domain.Exports, error) {
	templates := template.New(module.Name.String())
	data := make(map[string]any)

	for _, dep := range module.DependsOn {
		exports, err := req.Require(dep)
		if err != nil {
			return nil, err
		}
		if err := mergeTemplates(templates, exports); err != nil {
			return nil, zerr.With(err, "dependency", dep.String())
		}
		if depTable, ok := exports[ExportData].(map[string]any); ok {
			maps.Copy(data, depTable)
		}
	}

	files, err := expandFiles(l.root, module.Files)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	for _, file := range files {
		entries, err := parseRoutesFile(file)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if err := register(mux, entry, templates, data); err != nil {
				return nil, zerr.With(err, "file", file)
			}
		}
	}

	return domain.Exports{ExportHandler: &muxHandler{mux: mux}}, nil
}

func parseRoutesFile(path string) ([]routeEntry, error) {
	content, err := os.ReadFile(path) //nolint:gosec // paths come from the project's own globs
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read routes file"), "path", path)
	}

	var entries []routeEntry
	if err := yaml.Unmarshal(content, &entries); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrRouteParseFailed, err), "path", path)
	}
	return entries, nil
}

// register validates one entry against the merged exports and adds it to
// the mux. Everything checkable is checked here, at load time, so a broken
// routing table never replaces a working handler.
func register(mux *http.ServeMux, entry routeEntry, templates *template.Template, data map[string]any) (err error) {
	if entry.Path == "" || entry.Template == "" {
		return zerr.With(zerr.With(domain.ErrInvalidRoute, "path", entry.Path), "template", entry.Template)
	}
	if templates.Lookup(entry.Template) == nil {
		return zerr.With(zerr.With(domain.ErrTemplateNotFound, "template", entry.Template), "path", entry.Path)
	}

	routeData := any(data)
	if entry.Data != "" {
		value, ok := data[entry.Data]
		if !ok {
			return zerr.With(zerr.With(domain.ErrInvalidRoute, "path", entry.Path), "data", entry.Data)
		}
		routeData = value
	}

	// ServeMux reports malformed and conflicting patterns by panicking;
	// surface those as load errors instead.
	defer func() {
		if r := recover(); r != nil {
			err = zerr.With(errors.Join(domain.ErrInvalidRoute, fmt.Errorf("%v", r)), "path", entry.Path)
		}
	}()
	mux.Handle(entry.Path, &route{
		name:      entry.Template,
		templates: templates,
		data:      routeData,
	})
	return nil
}

// route renders one template with its bound data context.
type route struct {
	name      string
	templates *template.Template
	data      any
}

// render buffers the output so a template failure never leaves a
// half-written success response behind.
func (rt *route) render(w http.ResponseWriter) error {
	var buf bytes.Buffer
	if err := rt.templates.ExecuteTemplate(&buf, rt.name, rt.data); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to render template"), "template", rt.name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(buf.Bytes())
	return err
}

// ServeHTTP lets a route live inside the mux; served directly it degrades
// the render error into a plain 500.
func (rt *route) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	if err := rt.render(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// muxHandler adapts the route mux to the request handler contract,
// resolving the matched route by hand so render errors reach the caller.
type muxHandler struct {
	mux *http.ServeMux
}

var _ ports.RequestHandler = (*muxHandler)(nil)

// Serve implements ports.RequestHandler.
func (h *muxHandler) Serve(w http.ResponseWriter, r *http.Request) error {
	handler, pattern := h.mux.Handler(r)
	if rt, ok := handler.(*route); ok && pattern != "" {
		return rt.render(w)
	}

	// Unmatched paths and mux-internal handlers (404, 405, trailing-slash
	// redirects) write their own response.
	handler.ServeHTTP(w, r)
	return nil
}
