/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package declstore captures a compiler's declaration emissions in memory,
// pre-processing each file as it arrives, and bridges that in-memory map to
// the on-disk cache between builds.
package declstore

import (
	"path/filepath"
	"sync"

	"bennypowers.dev/dtsroll/cache"
	"bennypowers.dev/dtsroll/internal/platform"
	"bennypowers.dev/dtsroll/processor"
)

// FileDescriptor is one entry of writeFiles' report: the path written,
// relative to the project directory, and its size in bytes.
type FileDescriptor struct {
	RelativePath string
	Size         int
}

// Store is an in-memory mapping from absolute declaration path to its
// canonical pre-processed form, with cache integration and a disk writer.
// Zero value is not usable; construct with New.
type Store struct {
	fs            platform.FileSystem
	cache         *cache.Cache
	cacheEnabled  bool
	buildInfoPath string

	mu      sync.Mutex
	files   map[string]*processor.CachedDeclaration
	emitted bool
}

// New creates an empty store. c may be nil when cacheEnabled is false;
// a non-nil c is still consulted for build-info routing even then.
func New(fsys platform.FileSystem, c *cache.Cache, cacheEnabled bool) *Store {
	return &Store{
		fs:           fsys,
		cache:        c,
		cacheEnabled: cacheEnabled,
		files:        make(map[string]*processor.CachedDeclaration),
	}
}

// Initialize clears the emitted flag and either restores from cache (when
// caching is enabled) or clears the map outright.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emitted = false

	if !s.cacheEnabled {
		s.files = make(map[string]*processor.CachedDeclaration)
		return
	}

	restored := make(map[string]cache.Entry)
	s.cache.Restore(restored)
	s.files = make(map[string]*processor.CachedDeclaration, len(restored))
	for path, entry := range restored {
		s.files[path] = &processor.CachedDeclaration{
			Code:           entry.Code,
			TypeReferences: entry.TypeReferences,
			FileReferences: entry.FileReferences,
		}
	}
}

// Finalize persists the store to cache, if caching is enabled and any file
// was written since Initialize. It reports whether downstream work (graph
// build, compose, transpile) is needed: true when caching is disabled or a
// file was emitted, false when a cached, unmodified build can be skipped.
func (s *Store) Finalize() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cacheEnabled {
		return true, nil
	}
	if !s.emitted {
		return false, nil
	}

	source := make(map[string]cache.Entry, len(s.files))
	for path, decl := range s.files {
		source[path] = cache.Entry{
			Code:           decl.Code,
			TypeReferences: decl.TypeReferences,
			FileReferences: decl.FileReferences,
		}
	}
	if err := s.cache.Save(source); err != nil {
		return true, err
	}
	return true, nil
}

// FileWriter is the write-callback handed to the compiler. The build-info
// file is written straight to disk; every other path is pre-processed and
// kept in memory. The compiler invokes it single-threaded during emission;
// each call also holds the store's mutex while it updates the map.
func (s *Store) FileWriter(path string, text []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emitted = true

	if s.cache != nil && s.cache.IsBuildInfoFile(path) {
		return s.fs.WriteFile(path, text, 0644)
	}

	decl, err := processor.PreProcess(path, text)
	if err != nil {
		return err
	}
	s.files[path] = decl
	return nil
}

// GetDeclarationFiles exposes the store's contents for the module graph
// builder. The returned map must be treated as read-only.
func (s *Store) GetDeclarationFiles() map[string]*processor.CachedDeclaration {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*processor.CachedDeclaration, len(s.files))
	for path, decl := range s.files {
		out[path] = decl
	}
	return out
}

// WriteFiles writes every stored entry to disk at its own stored path,
// returning one descriptor per file written with its path relative to
// projectDir.
func (s *Store) WriteFiles(projectDir string) ([]FileDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	descriptors := make([]FileDescriptor, 0, len(s.files))
	for path, decl := range s.files {
		if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		if err := s.fs.WriteFile(path, decl.Code, 0644); err != nil {
			return nil, err
		}

		rel, err := filepath.Rel(projectDir, path)
		if err != nil {
			rel = path
		}
		descriptors = append(descriptors, FileDescriptor{
			RelativePath: rel,
			Size:         len(decl.Code),
		})
	}
	return descriptors, nil
}

// ResolveEntryPoints picks the subset of allEntryPoints to bundle. With no
// selection, it returns just "index" when present, else the full set. With
// a selection, it returns the named subset; names absent from
// allEntryPoints are silently skipped, and the order of selected does not
// matter.
func ResolveEntryPoints(allEntryPoints map[string]string, selected []string) map[string]string {
	if selected == nil {
		if index, ok := allEntryPoints["index"]; ok {
			return map[string]string{"index": index}
		}
		out := make(map[string]string, len(allEntryPoints))
		for name, path := range allEntryPoints {
			out[name] = path
		}
		return out
	}

	out := make(map[string]string, len(selected))
	for _, name := range selected {
		if path, ok := allEntryPoints[name]; ok {
			out[name] = path
		}
	}
	return out
}

// Close clears the in-memory map.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string]*processor.CachedDeclaration)
}
