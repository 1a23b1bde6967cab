// Package kinds provides the built-in module loaders: template, data and
// routes. Each loader executes one module declaration into an exports
// table; the registry decides when that happens and caches the result.
package kinds

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.trai.ch/zerr"
)

// Keys the built-in loaders publish their exports under. The entry
// reference in molt.yaml names one of these (usually "handler").
const (
	// ExportTemplates holds a module's parsed html/template set.
	ExportTemplates = "templates"

	// ExportData holds a module's value table.
	ExportData = "data"

	// ExportHandler holds a routes module's request handler.
	ExportHandler = "handler"
)

// Default returns the built-in loaders keyed by kind, all resolving file
// patterns against the project root.
func Default(root string) map[domain.Kind]ports.ModuleLoader {
	return map[domain.Kind]ports.ModuleLoader{
		domain.KindTemplate: NewTemplate(root),
		domain.KindData:     NewData(root),
		domain.KindRoutes:   NewRoutes(root),
	}
}

// expandFiles resolves a module's file patterns under the project root.
// Expansion runs on every load so a re-executed module picks up files
// created after the previous run. Results are absolute, deduped and sorted.
func expandFiles(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]struct{})

	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to expand file pattern"), "pattern", pattern)
		}
		for _, match := range matches {
			abs := filepath.Join(root, filepath.FromSlash(match))
			if _, ok := seen[abs]; ok {
				continue
			}
			seen[abs] = struct{}{}
			files = append(files, abs)
		}
	}

	slices.Sort(files)
	return files, nil
}
