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

// Package modulegraph builds the closure of declaration modules reachable
// from a bundling entry point, resolving import/export specifiers through
// an injected Resolver and collecting each module's top-level identifier
// map along the way.
package modulegraph

import (
	"path/filepath"
	"strings"
	"time"

	"bennypowers.dev/dtsroll/buildpkg"
	"bennypowers.dev/dtsroll/internal/platform"
	"bennypowers.dev/dtsroll/processor"
	"bennypowers.dev/dtsroll/queries"
	"bennypowers.dev/dtsroll/set"
)

// IdentifierMap lists a module's top-level type-only and value-producing
// declared names.
type IdentifierMap struct {
	Types  set.Set[string]
	Values set.Set[string]
}

// ModuleInfo is one node of a Graph.
type ModuleInfo struct {
	Path           string
	Code           []byte
	Imports        []string // absolute paths of modules this one depends on, in first-seen order
	TypeReferences []string
	FileReferences []string
	Identifiers    IdentifierMap
}

// Graph is the result of a single bundling call: every module reachable
// from the entry, plus the specifier strings whose targets were pulled
// into the graph (as opposed to kept external), per module.
type Graph struct {
	Modules           map[string]*ModuleInfo
	BundledSpecifiers map[string][]string
	// Order lists module paths in first-seen DFS order, the order the
	// composer's conflict-detection and rename-allocation steps iterate
	// the graph in.
	Order []string
}

// Options configures one Build call.
type Options struct {
	External   []Pattern
	NoExternal []Pattern
	Resolver   Resolver
	// Resolve allows the builder to read and pre-process declaration
	// files from disk (e.g. node_modules dependencies) that are not
	// already present in the store.
	Resolve bool
	// OutDir and RootDir are used only for source-path -> declaration-path
	// entry-point normalization; see normalizeEntry.
	OutDir  string
	RootDir string
	Metrics MetricsCollector
}

// Builder walks a declaration store's files into a Graph.
type Builder struct {
	fs    platform.FileSystem
	store map[string]*processor.CachedDeclaration
	opts  Options

	queryManager *queries.QueryManager

	parsed map[string]*parsedModule
}

type parsedModule struct {
	specifiers  []string
	identifiers IdentifierMap
}

// NewBuilder constructs a Builder over a snapshot of the declaration
// store's files (as returned by declstore.Store.GetDeclarationFiles).
func NewBuilder(fsys platform.FileSystem, files map[string]*processor.CachedDeclaration, opts Options) (*Builder, error) {
	if opts.Resolver == nil {
		opts.Resolver = NodeResolver{}
	}
	if opts.Metrics == nil {
		opts.Metrics = noOpMetricsCollector{}
	}

	qm, err := queries.NewQueryManager(queries.AllQueries())
	if err != nil {
		return nil, buildpkg.WrapBundle(err)
	}

	return &Builder{
		fs:           fsys,
		store:        files,
		opts:         opts,
		queryManager: qm,
		parsed:       make(map[string]*parsedModule),
	}, nil
}

// Close releases the builder's compiled queries. Call once per Build call.
func (b *Builder) Close() {
	b.queryManager.Close()
}

// Build resolves entry to a declaration path already present in the store
// (normalizing a source path if needed) and walks its import/export
// closure into a Graph.
func (b *Builder) Build(entry string) (*Graph, error) {
	start := time.Now()
	defer func() { b.opts.Metrics.RecordDuration("modulegraph.build", time.Since(start)) }()

	entryPath, ok := b.normalizeEntry(entry)
	if !ok {
		return nil, buildpkg.Newf(buildpkg.Bundle, "entry point %q not found in declaration store", entry)
	}

	g := &Graph{
		Modules:           make(map[string]*ModuleInfo),
		BundledSpecifiers: make(map[string][]string),
	}

	visited := set.NewSet[string]()
	if err := b.visit(entryPath, g, visited, 0); err != nil {
		return nil, err
	}
	return g, nil
}

// normalizeEntry returns entry's declaration-store key, translating a
// source path to its declaration path if entry is not already a store key.
func (b *Builder) normalizeEntry(entry string) (string, bool) {
	if _, ok := b.store[entry]; ok {
		return entry, true
	}

	stripped := stripKnownSourceExtension(entry)
	base := stripped
	if b.opts.RootDir != "" {
		if rel, err := filepath.Rel(b.opts.RootDir, stripped); err == nil {
			base = rel
		}
	}
	if b.opts.OutDir != "" {
		base = filepath.Join(b.opts.OutDir, base)
	}

	for _, ext := range declExtensions {
		candidate := base + ext
		if _, ok := b.store[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

func (b *Builder) visit(path string, g *Graph, visited set.Set[string], depth int) error {
	b.opts.Metrics.SetGauge("modulegraph.depth", int64(depth))

	if _, exists := g.Modules[path]; exists {
		return nil
	}

	decl, ok := b.store[path]
	if !ok {
		return buildpkg.Newf(buildpkg.Bundle, "module %q resolved but not present in declaration store", path)
	}

	pm, err := b.parse(path, decl.Code)
	if err != nil {
		return err
	}

	mod := &ModuleInfo{
		Path:           path,
		Code:           decl.Code,
		TypeReferences: decl.TypeReferences,
		FileReferences: decl.FileReferences,
		Identifiers:    pm.identifiers,
	}
	g.Modules[path] = mod
	g.Order = append(g.Order, path)
	visited.Add(path)

	for _, spec := range pm.specifiers {
		if MatchesAny(spec, b.opts.External) {
			continue
		}

		resolvedPath, ok := b.opts.Resolver.ResolveModuleName(spec, path, b.host())
		if !ok {
			continue
		}

		if isNodeModulesPath(resolvedPath) && !MatchesAny(spec, b.opts.NoExternal) {
			continue
		}

		if _, inStore := b.store[resolvedPath]; !inStore {
			if !b.opts.Resolve {
				continue
			}
			if err := b.lazyLoad(resolvedPath); err != nil {
				continue
			}
		}

		if _, inStore := b.store[resolvedPath]; inStore {
			mod.Imports = append(mod.Imports, resolvedPath)
			g.BundledSpecifiers[path] = append(g.BundledSpecifiers[path], spec)

			if !visited.Has(resolvedPath) {
				if err := b.visit(resolvedPath, g, visited, depth+1); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// lazyLoad reads resolvedPath's raw text from disk and pre-processes it
// into the store, for a specifier the graph needs but which the compiler
// never emitted (typically a node_modules dependency kept via noExternal).
func (b *Builder) lazyLoad(resolvedPath string) error {
	raw, err := b.fs.ReadFile(resolvedPath)
	if err != nil {
		return err
	}
	decl, err := processor.PreProcess(resolvedPath, raw)
	if err != nil {
		return err
	}
	b.store[resolvedPath] = decl
	b.opts.Metrics.IncrementCounter("modulegraph.lazy_load")
	return nil
}

func (b *Builder) host() Host {
	inStore := make(map[string]bool, len(b.store))
	for path := range b.store {
		inStore[path] = true
	}
	currentDir := ""
	if b.fs != nil {
		currentDir = b.fs.TempDir()
	}
	return &storeHost{
		inStore:    inStore,
		fs:         b.fs,
		allowDisk:  b.opts.Resolve,
		currentDir: currentDir,
	}
}

// parse extracts import/export specifiers and the top-level identifier
// map for a module's already-processed code, memoized per path so a
// module reached through multiple import chains is only parsed once.
func (b *Builder) parse(path string, code []byte) (*parsedModule, error) {
	if pm, ok := b.parsed[path]; ok {
		return pm, nil
	}

	specs, err := b.extractSpecifiers(code)
	if err != nil {
		return nil, buildpkg.WrapBundle(err)
	}

	types, values, err := processor.IdentifierMap(code)
	if err != nil {
		return nil, buildpkg.WrapBundle(err)
	}

	pm := &parsedModule{
		specifiers: specs,
		identifiers: IdentifierMap{
			Types:  set.NewSet(types...),
			Values: set.NewSet(values...),
		},
	}
	b.parsed[path] = pm
	return pm, nil
}

func (b *Builder) extractSpecifiers(code []byte) ([]string, error) {
	parser := queries.RetrieveTypeScriptParser()
	defer queries.PutTypeScriptParser(parser)

	tree := parser.Parse(code, nil)
	if tree == nil {
		return nil, buildpkg.New(buildpkg.Bundle, "failed to parse declaration source for specifier extraction")
	}
	defer tree.Close()

	var specs []string
	for _, queryName := range []string{"imports", "exports"} {
		matcher, err := queries.NewQueryMatcher(b.queryManager, queryName)
		if err != nil {
			return nil, err
		}
		for match := range matcher.AllQueryMatches(tree.RootNode(), code) {
			for _, capture := range match.Captures {
				name := matcher.GetCaptureNameByIndex(capture.Index)
				if name == "import.source" || name == "export.source" {
					text := capture.Node.Utf8Text(code)
					specs = append(specs, strings.Trim(text, `"'`))
				}
			}
		}
		matcher.Close()
	}
	return specs, nil
}

// IsNodeModulesPath reports whether path lives under a node_modules
// directory. Exported so the bundle composer can apply the same
// node_modules-exports-suppressed rule it uses during graph construction.
func IsNodeModulesPath(path string) bool {
	return isNodeModulesPath(path)
}

func isNodeModulesPath(path string) bool {
	return strings.Contains(filepath.ToSlash(path), "/node_modules/")
}
