// Package config provides the configuration loader for molt.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

var validModuleNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Load reads the molt.yaml at or above cwd and returns a validated
// Project with modules in dependency order.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}
	return l.loadMoltfile(configPath)
}

// DiscoverRoot returns the project root for cwd: the directory holding
// the nearest molt.yaml.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(configPath), nil
}

func (l *Loader) findConfiguration(cwd string) (string, error) {
	currentDir := cwd

	for {
		moltfilePath := filepath.Join(currentDir, domain.MoltFileName)
		if _, err := os.Stat(moltfilePath); err == nil {
			return moltfilePath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) loadMoltfile(configPath string) (*domain.Project, error) {
	var moltfile Moltfile
	if err := readAndUnmarshalYAML(configPath, &moltfile); err != nil {
		return nil, err
	}

	if moltfile.Version != "" && moltfile.Version != "1" {
		l.Logger.Warn(fmt.Sprintf("unsupported config version %q, continuing anyway", moltfile.Version))
	}

	entry, err := domain.ParseEntryRef(moltfile.Entry)
	if err != nil {
		return nil, err
	}

	root, err := resolveRoot(configPath, moltfile.Root)
	if err != nil {
		return nil, err
	}

	watch, err := resolveWatchSettings(moltfile.Watch)
	if err != nil {
		return nil, err
	}

	// Sort names so validation errors are reported deterministically.
	names := make([]string, 0, len(moltfile.Modules))
	for name := range moltfile.Modules {
		names = append(names, name)
	}
	slices.Sort(names)

	graph := domain.NewModuleGraph()
	for _, name := range names {
		module, err := buildModule(name, moltfile.Modules[name])
		if err != nil {
			return nil, err
		}
		if err := graph.Add(module); err != nil {
			return nil, err
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}

	if _, ok := graph.Module(entry.Module); !ok {
		return nil, zerr.With(domain.ErrModuleNotFound, "module", entry.Module.String())
	}

	modules := make([]domain.Module, 0, graph.Len())
	for module := range graph.Walk() {
		modules = append(modules, module)
	}

	return &domain.Project{
		Root:    root,
		Entry:   entry,
		Watch:   watch,
		Modules: modules,
	}, nil
}

// resolveRoot returns the directory module files resolve against: the
// config's directory, or the `root` key resolved relative to it.
func resolveRoot(configPath, override string) (string, error) {
	root := filepath.Dir(configPath)
	if override != "" {
		root = filepath.Join(root, filepath.FromSlash(override))
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", zerr.With(domain.ErrInvalidRoot, "root", root)
	}
	return root, nil
}

// buildModule validates a single module declaration.
func buildModule(name string, dto *ModuleDTO) (domain.Module, error) {
	if dto == nil {
		dto = &ModuleDTO{}
	}

	if !validModuleNameRegex.MatchString(name) {
		return domain.Module{}, zerr.With(domain.ErrInvalidModuleName, "module", name)
	}

	kind := domain.Kind(dto.Kind)
	if !kind.Valid() {
		err := zerr.With(domain.ErrUnknownKind, "kind", dto.Kind)
		return domain.Module{}, zerr.With(err, "module", name)
	}

	if len(dto.Files) == 0 {
		return domain.Module{}, zerr.With(domain.ErrNoFilesDeclared, "module", name)
	}

	for _, pattern := range dto.Files {
		if !doublestar.ValidatePattern(pattern) {
			err := zerr.With(domain.ErrInvalidGlob, "pattern", pattern)
			return domain.Module{}, zerr.With(err, "module", name)
		}
	}

	return domain.Module{
		Name:      domain.NewInternedString(name),
		Kind:      kind,
		Files:     slices.Clone(dto.Files),
		DependsOn: domain.NewInternedStrings(dto.DependsOn),
	}, nil
}

// resolveWatchSettings merges the watch section with the defaults. User
// ignores extend the built-in ignore set, they never replace it.
func resolveWatchSettings(dto *WatchDTO) (domain.WatchSettings, error) {
	settings := domain.DefaultWatchSettings()
	if dto == nil {
		return settings, nil
	}

	if dto.Debounce != "" {
		window, err := time.ParseDuration(dto.Debounce)
		if err != nil || window <= 0 {
			return domain.WatchSettings{}, zerr.With(domain.ErrInvalidDebounce, "debounce", dto.Debounce)
		}
		settings.Debounce = window
	}

	if len(dto.Extensions) > 0 {
		extensions := make([]string, 0, len(dto.Extensions))
		for _, ext := range dto.Extensions {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			extensions = append(extensions, ext)
		}
		settings.Extensions = extensions
	}

	for _, pattern := range dto.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return domain.WatchSettings{}, zerr.With(domain.ErrInvalidGlob, "pattern", pattern)
		}
	}
	settings.Ignore = append(slices.Clone(dto.Ignore), domain.DefaultIgnores()...)

	return settings, nil
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is discovered from a validated directory walk
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
