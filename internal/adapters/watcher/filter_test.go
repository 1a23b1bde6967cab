package watcher_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.molt.dev/molt/internal/adapters/fs"
	"go.molt.dev/molt/internal/adapters/watcher"
	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
)

func newTestFilter(t *testing.T) (*watcher.Filter, string) {
	t.Helper()
	root := t.TempDir()
	return watcher.NewFilter(root, domain.DefaultWatchSettings(), fs.NewHasher()), root
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
}

func TestFilter_AcceptsModifiedSource(t *testing.T) {
	filter, root := newTestFilter(t)

	path := filepath.Join(root, "pages", "index.html")
	writeTestFile(t, path, "<h1>hello</h1>")

	assert.True(t, filter.Accept(ports.WatchEvent{Path: path, Operation: ports.OpWrite}))
}

func TestFilter_AcceptsCreatedSource(t *testing.T) {
	filter, root := newTestFilter(t)

	path := filepath.Join(root, "pages", "new.html")
	writeTestFile(t, path, "<h1>new</h1>")

	assert.True(t, filter.Accept(ports.WatchEvent{Path: path, Operation: ports.OpCreate}))
}

func TestFilter_RejectsRemovesAndRenames(t *testing.T) {
	filter, root := newTestFilter(t)

	path := filepath.Join(root, "pages", "index.html")
	writeTestFile(t, path, "<h1>hello</h1>")

	assert.False(t, filter.Accept(ports.WatchEvent{Path: path, Operation: ports.OpRemove}))
	assert.False(t, filter.Accept(ports.WatchEvent{Path: path, Operation: ports.OpRename}))
}

func TestFilter_RejectsUnknownExtension(t *testing.T) {
	filter, root := newTestFilter(t)

	path := filepath.Join(root, "server.log")
	writeTestFile(t, path, "not a source file")

	assert.False(t, filter.Accept(ports.WatchEvent{Path: path, Operation: ports.OpWrite}))
}

func TestFilter_RejectsIgnoredPaths(t *testing.T) {
	filter, root := newTestFilter(t)

	path := filepath.Join(root, "node_modules", "pkg", "index.html")
	writeTestFile(t, path, "<h1>vendored</h1>")

	assert.False(t, filter.Accept(ports.WatchEvent{Path: path, Operation: ports.OpWrite}))
}

func TestFilter_RejectsMissingFile(t *testing.T) {
	filter, root := newTestFilter(t)

	// A path that vanished between the event and the hash is noise.
	path := filepath.Join(root, "pages", "gone.html")
	assert.False(t, filter.Accept(ports.WatchEvent{Path: path, Operation: ports.OpWrite}))
}

func TestFilter_SuppressesTouchOnlyWrites(t *testing.T) {
	filter, root := newTestFilter(t)

	path := filepath.Join(root, "pages", "index.html")
	writeTestFile(t, path, "<h1>hello</h1>")

	event := ports.WatchEvent{Path: path, Operation: ports.OpWrite}

	// First sighting records the hash.
	require.True(t, filter.Accept(event))

	// Same content again: an editor rewrote the file without changing it.
	assert.False(t, filter.Accept(event))

	// A real edit passes again.
	writeTestFile(t, path, "<h1>bye</h1>")
	assert.True(t, filter.Accept(event))
}

func TestFilter_Prime(t *testing.T) {
	filter, root := newTestFilter(t)

	path := filepath.Join(root, "pages", "index.html")
	writeTestFile(t, path, "<h1>hello</h1>")

	filter.Prime([]string{path})

	// A touch-only write right after startup stays suppressed.
	event := ports.WatchEvent{Path: path, Operation: ports.OpWrite}
	assert.False(t, filter.Accept(event))

	writeTestFile(t, path, "<h1>edited</h1>")
	assert.True(t, filter.Accept(event))
}
