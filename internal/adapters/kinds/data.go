package kinds

import (
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Data loads a module's files into a value table keyed by file stem:
// data/site.yaml becomes entry "site". YAML is a superset of JSON, so
// .json files decode with the same parser. Tables exported by required
// dependencies are merged in first and shadowed by the module's own
// files.
type Data struct {
	root string
}

var _ ports.ModuleLoader = (*Data)(nil)

// NewData creates the data loader for a project root.
func NewData(root string) *Data {
	return &Data{root: root}
}

// Load implements ports.ModuleLoader.
func (l *Data) Load(_ context.Context, module domain.Module, req ports.Requirer) (domain.Exports, error) {
	table := make(map[string]any)

	for _, dep := range module.DependsOn {
		exports, err := req.Require(dep)
		if err != nil {
			return nil, err
		}
		if depTable, ok := exports[ExportData].(map[string]any); ok {
			maps.Copy(table, depTable)
		}
	}

	files, err := expandFiles(l.root, module.Files)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		value, err := parseDataFile(file)
		if err != nil {
			return nil, err
		}
		table[fileStem(file)] = value
	}

	return domain.Exports{ExportData: table}, nil
}

func parseDataFile(path string) (any, error) {
	content, err := os.ReadFile(path) //nolint:gosec // paths come from the project's own globs
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read data file"), "path", path)
	}

	var value any
	if err := yaml.Unmarshal(content, &value); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrDataParseFailed, err), "path", path)
	}
	return value, nil
}

// fileStem returns the base name of path without its extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
