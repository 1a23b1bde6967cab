package kinds

import (
	"context"
	"html/template"

	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.trai.ch/zerr"
)

// Template parses a module's files as one html/template set.
//
// Template sets exported by required dependencies are merged in first, so
// a page module can fill blocks its layout defines. Later dependencies
// shadow earlier ones on name collisions, and the module's own files
// shadow both.
type Template struct {
	root string
}

var _ ports.ModuleLoader = (*Template)(nil)

// NewTemplate creates the template loader for a project root.
func NewTemplate(root string) *Template {
	return &Template{root: root}
}

// Load implements ports.ModuleLoader.
func (l *Template) Load(_ context.Context, module domain.Module, req ports.Requirer) (domain.Exports, error) {
	set := template.New(module.Name.String())

	for _, dep := range module.DependsOn {
		exports, err := req.Require(dep)
		if err != nil {
			return nil, err
		}
		if err := mergeTemplates(set, exports); err != nil {
			return nil, zerr.With(err, "dependency", dep.String())
		}
	}

	files, err := expandFiles(l.root, module.Files)
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		if _, err := set.ParseFiles(files...); err != nil {
			return nil, zerr.Wrap(err, "failed to parse templates")
		}
	}

	return domain.Exports{ExportTemplates: set}, nil
}

// mergeTemplates copies every template a dependency exports into dst.
// Parse trees are copied, not shared: executing dst escapes its own
// copies and leaves the dependency's cached set reusable.
func mergeTemplates(dst *template.Template, exports domain.Exports) error {
	src, ok := exports[ExportTemplates].(*template.Template)
	if !ok {
		return nil
	}
	for _, t := range src.Templates() {
		if t.Tree == nil {
			continue
		}
		if _, err := dst.AddParseTree(t.Name(), t.Tree.Copy()); err != nil {
			return zerr.Wrap(err, "failed to merge templates")
		}
	}
	return nil
}
