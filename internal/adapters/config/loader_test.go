package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.molt.dev/molt/internal/adapters/config"
	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func createFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), domain.FilePerm))
}

func newTestLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	// Allow any logging, we are testing loader logic here.
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return config.NewLoader(mockLogger)
}

func TestLoader_Load_ValidProject(t *testing.T) {
	loader := newTestLoader(t)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.MoltFileName, `
version: "1"
entry: "routes:handler"
watch:
  debounce: 100ms
  extensions: [".html", "yaml"]
  ignore: ["**/drafts/**"]
modules:
  site:
    kind: data
    files: ["data/*.yaml"]
  layout:
    kind: template
    files: ["layout/*.html"]
    dependsOn: [site]
  routes:
    kind: routes
    files: ["routes.yaml"]
    dependsOn: [layout, site]
`)

	project, err := loader.Load(rootDir)
	require.NoError(t, err)
	require.NotNil(t, project)

	assert.Equal(t, rootDir, project.Root)
	assert.Equal(t, "routes", project.Entry.Module.String())
	assert.Equal(t, "handler", project.Entry.Attr)

	assert.Equal(t, 100*time.Millisecond, project.Watch.Debounce)
	// Extensions are normalized to dot-prefixed lowercase.
	assert.Equal(t, []string{".html", ".yaml"}, project.Watch.Extensions)
	// User ignores extend the built-in set.
	assert.Equal(t, []string{"**/drafts/**", "**/.git/**", "**/node_modules/**", "**/.molt/**"}, project.Watch.Ignore)

	// Modules come back in dependency order.
	require.Len(t, project.Modules, 3)
	assert.Equal(t, "site", project.Modules[0].Name.String())
	assert.Equal(t, "layout", project.Modules[1].Name.String())
	assert.Equal(t, "routes", project.Modules[2].Name.String())

	layout, ok := project.Module(domain.NewInternedString("layout"))
	require.True(t, ok)
	assert.Equal(t, domain.KindTemplate, layout.Kind)
	assert.Equal(t, []string{"layout/*.html"}, layout.Files)
	assert.Equal(t, domain.NewInternedStrings([]string{"site"}), layout.DependsOn)
}

func TestLoader_Load_Defaults(t *testing.T) {
	loader := newTestLoader(t)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.MoltFileName, `
entry: "site:handler"
modules:
  site:
    kind: routes
    files: ["routes.yaml"]
`)

	project, err := loader.Load(rootDir)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultDebounce, project.Watch.Debounce)
	assert.Equal(t, domain.DefaultExtensions(), project.Watch.Extensions)
	assert.Equal(t, domain.DefaultIgnores(), project.Watch.Ignore)
}

func TestLoader_Load_DiscoversUpward(t *testing.T) {
	loader := newTestLoader(t)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.MoltFileName, `
entry: "site:handler"
modules:
  site:
    kind: routes
    files: ["routes.yaml"]
`)

	nested := filepath.Join(rootDir, "pages", "blog")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

	project, err := loader.Load(nested)
	require.NoError(t, err)
	assert.Equal(t, rootDir, project.Root)

	discovered, err := loader.DiscoverRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, rootDir, discovered)
}

func TestLoader_Load_NotFound(t *testing.T) {
	loader := newTestLoader(t)

	_, err := loader.Load(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoader_Load_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "missing entry",
			content: `
modules:
  site:
    kind: data
    files: ["data/*.yaml"]
`,
			wantErr: domain.ErrInvalidEntry,
		},
		{
			name: "entry without attribute",
			content: `
entry: "site:"
modules:
  site:
    kind: data
    files: ["data/*.yaml"]
`,
			wantErr: domain.ErrInvalidEntry,
		},
		{
			name: "entry names undeclared module",
			content: `
entry: "routes:handler"
modules:
  site:
    kind: data
    files: ["data/*.yaml"]
`,
			wantErr: domain.ErrModuleNotFound,
		},
		{
			name: "invalid module name",
			content: `
entry: "site:handler"
modules:
  site:
    kind: routes
    files: ["routes.yaml"]
  "bad name":
    kind: data
    files: ["data/*.yaml"]
`,
			wantErr: domain.ErrInvalidModuleName,
		},
		{
			name: "unknown kind",
			content: `
entry: "site:handler"
modules:
  site:
    kind: wasm
    files: ["site/*.html"]
`,
			wantErr: domain.ErrUnknownKind,
		},
		{
			name: "no files declared",
			content: `
entry: "site:handler"
modules:
  site:
    kind: data
`,
			wantErr: domain.ErrNoFilesDeclared,
		},
		{
			name: "invalid glob",
			content: `
entry: "site:handler"
modules:
  site:
    kind: data
    files: ["data/[.yaml"]
`,
			wantErr: domain.ErrInvalidGlob,
		},
		{
			name: "missing dependency",
			content: `
entry: "site:handler"
modules:
  site:
    kind: template
    files: ["site/*.html"]
    dependsOn: [ghost]
`,
			wantErr: domain.ErrMissingDependency,
		},
		{
			name: "dependency cycle",
			content: `
entry: "a:handler"
modules:
  a:
    kind: template
    files: ["a/*.html"]
    dependsOn: [b]
  b:
    kind: template
    files: ["b/*.html"]
    dependsOn: [a]
`,
			wantErr: domain.ErrCycleDetected,
		},
		{
			name: "invalid debounce",
			content: `
entry: "site:handler"
watch:
  debounce: "soon"
modules:
  site:
    kind: data
    files: ["data/*.yaml"]
`,
			wantErr: domain.ErrInvalidDebounce,
		},
		{
			name: "negative debounce",
			content: `
entry: "site:handler"
watch:
  debounce: "-5ms"
modules:
  site:
    kind: data
    files: ["data/*.yaml"]
`,
			wantErr: domain.ErrInvalidDebounce,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t)
			rootDir := t.TempDir()
			createFile(t, rootDir, domain.MoltFileName, tt.content)

			_, err := loader.Load(rootDir)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoader_Load_MalformedYAML(t *testing.T) {
	loader := newTestLoader(t)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.MoltFileName, `
entry: [this is
  not: valid
`)

	_, err := loader.Load(rootDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoader_Load_WarnsOnUnsupportedVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).Times(1)

	loader := config.NewLoader(mockLogger)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.MoltFileName, `
version: "2"
entry: "site:handler"
modules:
  site:
    kind: data
    files: ["data/*.yaml"]
`)

	_, err := loader.Load(rootDir)
	require.NoError(t, err)
}

func TestLoader_Load_CustomRoot(t *testing.T) {
	loader := newTestLoader(t)
	rootDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(rootDir, "site"), domain.DirPerm))

	createFile(t, rootDir, domain.MoltFileName, `
entry: "site:handler"
root: site
modules:
  site:
    kind: routes
    files: ["routes.yaml"]
`)

	project, err := loader.Load(rootDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootDir, "site"), project.Root)
}

func TestLoader_Load_RootNotADirectory(t *testing.T) {
	loader := newTestLoader(t)
	rootDir := t.TempDir()
	createFile(t, rootDir, "site", "not a directory")

	createFile(t, rootDir, domain.MoltFileName, `
entry: "site:handler"
root: site
modules:
  site:
    kind: routes
    files: ["routes.yaml"]
`)

	_, err := loader.Load(rootDir)
	assert.ErrorIs(t, err, domain.ErrInvalidRoot)
}
