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

package modulegraph

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/dtsroll/internal/platform"
)

// Host exposes the filesystem queries a Resolver needs to probe
// candidate paths, combining the in-memory declaration store with an
// optional on-disk fallback.
type Host interface {
	FileExists(path string) bool
	ReadFile(path string) ([]byte, error)
	DirectoryExists(path string) bool
	CurrentDirectory() string
}

// Resolver resolves an import specifier seen inside containingFile to an
// absolute declaration path, or returns ("", false) if it cannot.
type Resolver interface {
	ResolveModuleName(specifier, containingFile string, host Host) (resolvedPath string, ok bool)
}

// storeHost implements Host by combining a declaration store's path set
// with an optional on-disk fallback filesystem, used when the builder's
// `resolve` option is enabled and a specifier points outside the store.
type storeHost struct {
	inStore    map[string]bool
	fs         platform.FileSystem
	allowDisk  bool
	currentDir string
}

func (h *storeHost) FileExists(path string) bool {
	if h.inStore[path] {
		return true
	}
	return h.allowDisk && h.fs != nil && h.fs.Exists(path)
}

func (h *storeHost) ReadFile(path string) ([]byte, error) {
	return h.fs.ReadFile(path)
}

func (h *storeHost) DirectoryExists(path string) bool {
	if !h.allowDisk || h.fs == nil {
		return false
	}
	info, err := h.fs.Stat(path)
	return err == nil && info.IsDir()
}

func (h *storeHost) CurrentDirectory() string {
	return h.currentDir
}

// declExtensions are tried, in order, against a bare specifier resolution
// candidate that doesn't already carry a declaration extension.
var declExtensions = []string{".d.ts", ".d.tsx"}

// NodeResolver implements Node-style resolution against declaration files:
// exact file, then each declaration extension appended, then
// "<dir>/index<ext>". Relative specifiers (starting with "." or "/") are
// tried directly; bare specifiers (package names) are tried as
// "<ancestorDir>/node_modules/<specifier>", walking up from
// containingFile's directory the way Node's CommonJS resolution does,
// since a bare specifier that should be bundled (per `noExternal`) still
// has to resolve to a concrete path for the graph to include it.
type NodeResolver struct{}

func (NodeResolver) ResolveModuleName(specifier, containingFile string, host Host) (string, bool) {
	if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		var base string
		if strings.HasPrefix(specifier, "/") {
			base = filepath.Clean(specifier)
		} else {
			base = filepath.Join(filepath.Dir(containingFile), specifier)
		}
		return resolveCandidates(base, host)
	}

	for _, dir := range ancestorDirs(filepath.Dir(containingFile)) {
		base := filepath.Join(dir, "node_modules", specifier)
		if resolved, ok := resolveCandidates(base, host); ok {
			return resolved, true
		}
	}
	return "", false
}

// ancestorDirs lists dir and each of its parents up to filesystem root, in
// that order, mirroring Node's node_modules search order.
func ancestorDirs(dir string) []string {
	dir = filepath.Clean(dir)
	var dirs []string
	for {
		dirs = append(dirs, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dirs
}

func resolveCandidates(base string, host Host) (string, bool) {
	if hasDeclExtension(base) && host.FileExists(base) {
		return base, true
	}

	for _, ext := range declExtensions {
		candidate := stripKnownSourceExtension(base) + ext
		if host.FileExists(candidate) {
			return candidate, true
		}
	}

	for _, ext := range declExtensions {
		candidate := filepath.Join(base, "index"+ext)
		if host.FileExists(candidate) {
			return candidate, true
		}
	}

	return "", false
}

func hasDeclExtension(path string) bool {
	for _, ext := range declExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// stripKnownSourceExtension removes a trailing source-file extension
// (.ts, .tsx, .d.ts, .d.tsx, .js, .mjs, .cjs) so a declaration extension
// can be appended in its place.
func stripKnownSourceExtension(path string) string {
	for _, ext := range []string{".d.ts", ".d.tsx", ".tsx", ".ts", ".mjs", ".cjs", ".js"} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}
