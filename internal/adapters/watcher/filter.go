package watcher

import (
	"path/filepath"
	"strings"
	"sync"
	"unique"

	"github.com/bmatcuk/doublestar/v4"
	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
)

// Filter decides which watch events feed the debouncer. It drops
// operations that cannot change module state, paths outside the watched
// extension set, ignored paths, and writes that leave file content
// untouched (editors tend to rewrite files on save without changing a
// byte).
type Filter struct {
	root       string
	extensions map[string]struct{}
	ignores    []string
	hasher     ports.Hasher

	mu     sync.Mutex
	hashes map[unique.Handle[string]]uint64
}

// NewFilter creates a filter for the given project root and watch settings.
func NewFilter(root string, settings domain.WatchSettings, hasher ports.Hasher) *Filter {
	extensions := make(map[string]struct{}, len(settings.Extensions))
	for _, ext := range settings.Extensions {
		extensions[strings.ToLower(ext)] = struct{}{}
	}

	return &Filter{
		root:       root,
		extensions: extensions,
		ignores:    settings.Ignore,
		hasher:     hasher,
		hashes:     make(map[unique.Handle[string]]uint64),
	}
}

// Prime records the current content hash of the given files so that the
// first save after startup only triggers a reload if it actually changed
// something.
func (f *Filter) Prime(paths []string) {
	for _, path := range paths {
		hash, err := f.hasher.ComputeFileHash(path)
		if err != nil {
			continue
		}

		handle := unique.Make(path)
		f.mu.Lock()
		f.hashes[handle] = hash
		f.mu.Unlock()
	}
}

// Accept reports whether the event should go into a reload batch.
func (f *Filter) Accept(event ports.WatchEvent) bool {
	// Removals and renames are treated as watch noise: the arena keeps
	// serving the last good state until a real edit arrives.
	if event.Operation != ports.OpWrite && event.Operation != ports.OpCreate {
		return false
	}

	ext := strings.ToLower(filepath.Ext(event.Path))
	if _, ok := f.extensions[ext]; !ok {
		return false
	}

	rel, err := filepath.Rel(f.root, event.Path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range f.ignores {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return false
		}
	}

	return f.contentChanged(event.Path)
}

// contentChanged hashes the file and compares against the last seen
// hash. Unreadable files count as unchanged: a path that vanished
// between the event and the hash is noise, not an edit.
func (f *Filter) contentChanged(path string) bool {
	hash, err := f.hasher.ComputeFileHash(path)
	if err != nil {
		return false
	}

	handle := unique.Make(path)

	f.mu.Lock()
	defer f.mu.Unlock()

	if previous, ok := f.hashes[handle]; ok && previous == hash {
		return false
	}
	f.hashes[handle] = hash
	return true
}
