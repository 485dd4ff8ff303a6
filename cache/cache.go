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

// Package cache persists canonical declarations between builds so an
// incremental run can skip re-processing files the compiler didn't
// re-emit. The payload is msgpack-encoded and zstd-compressed, written
// atomically (temp file + rename) under the project's cache directory.
package cache

import (
	"bytes"
	"io"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"bennypowers.dev/dtsroll/internal/logging"
	"bennypowers.dev/dtsroll/internal/platform"
)

// Version gates cache compatibility. A cache file whose stored version
// does not equal this constant is treated as absent.
const Version = 1

const dirName = ".dtsroll-cache"
const fileName = "cache.msgpack.zst"

// Entry is the cached canonical form of one declaration file.
type Entry struct {
	Code           []byte   `msgpack:"code"`
	TypeReferences []string `msgpack:"typeReferences"`
	FileReferences []string `msgpack:"fileReferences"`
}

type payload struct {
	Version int              `msgpack:"version"`
	Files   map[string]Entry `msgpack:"files"`
}

// Cache is a single project's declaration cache. One instance is used per
// project per build; loading begins eagerly at construction and Restore
// awaits it.
type Cache struct {
	fs            platform.FileSystem
	dir           string
	path          string
	buildInfoPath string

	done    chan struct{}
	mu      sync.RWMutex
	loaded  payload
	present bool
}

// New creates a cache rooted at <projectDir>/.dtsroll-cache and starts
// loading it from disk in the background. buildInfoPath is the compiler's
// incremental build-info file path, passed through to IsBuildInfoFile.
func New(fsys platform.FileSystem, projectDir, buildInfoPath string) *Cache {
	dir := filepath.Join(projectDir, dirName)
	c := &Cache{
		fs:            fsys,
		dir:           dir,
		path:          filepath.Join(dir, fileName),
		buildInfoPath: buildInfoPath,
		done:          make(chan struct{}),
	}
	go c.load()
	return c
}

func (c *Cache) load() {
	defer close(c.done)

	data, err := c.fs.ReadFile(c.path)
	if err != nil {
		return // absent or unreadable: treated as an empty cache
	}

	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		logging.Debug("cache: corrupt compressed payload at %s: %v", c.path, err)
		return
	}
	defer zr.Close()

	decoded, err := io.ReadAll(zr)
	if err != nil {
		logging.Debug("cache: failed to decompress %s: %v", c.path, err)
		return
	}

	var p payload
	if err := msgpack.Unmarshal(decoded, &p); err != nil {
		logging.Debug("cache: failed to decode %s: %v", c.path, err)
		return
	}
	if p.Version != Version {
		logging.Debug("cache: version mismatch in %s (got %d, want %d)", c.path, p.Version, Version)
		return
	}

	c.mu.Lock()
	c.loaded = p
	c.present = true
	c.mu.Unlock()
}

// Restore populates target from the cache file. It is a no-op if the
// cache is absent, unreadable, corrupted, or carries a version other than
// the current constant. It never returns an error; failures are logged
// and treated as an empty cache.
func (c *Cache) Restore(target map[string]Entry) {
	<-c.done

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.present {
		return
	}
	for path, entry := range c.loaded.Files {
		target[path] = entry
	}
}

// Save atomically writes {version, files} to the cache file.
func (c *Cache) Save(source map[string]Entry) error {
	p := payload{Version: Version, Files: source}

	encoded, err := msgpack.Marshal(p)
	if err != nil {
		return err
	}

	var compressed bytes.Buffer
	zw, err := zstd.NewWriter(&compressed)
	if err != nil {
		return err
	}
	if _, err := zw.Write(encoded); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if err := c.fs.MkdirAll(c.dir, 0755); err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	if err := c.fs.WriteFile(tmp, compressed.Bytes(), 0644); err != nil {
		return err
	}
	return c.fs.Rename(tmp, c.path)
}

// Invalidate best-effort removes the cache directory. Errors are ignored.
func (c *Cache) Invalidate() {
	entries, err := c.fs.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		_ = c.fs.Remove(filepath.Join(c.dir, e.Name()))
	}
	_ = c.fs.Remove(c.dir)
}

// IsBuildInfoFile reports whether path is the configured compiler
// build-info file, which the store writes straight through to disk
// instead of routing through the processor.
func (c *Cache) IsBuildInfoFile(path string) bool {
	return path == c.buildInfoPath
}
