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

// Package orchestrator drives one end-to-end build: compiler emit, cache
// finalize, and a parallel transpile + declaration-bundle phase.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"bennypowers.dev/dtsroll/buildpkg"
	"bennypowers.dev/dtsroll/compilerapi"
	"bennypowers.dev/dtsroll/composer"
	"bennypowers.dev/dtsroll/declstore"
	"bennypowers.dev/dtsroll/internal/logging"
	"bennypowers.dev/dtsroll/internal/platform"
	"bennypowers.dev/dtsroll/modulegraph"
	"bennypowers.dev/dtsroll/processor"
	"bennypowers.dev/dtsroll/transpiler"
)

// Config gathers everything one Run call needs: where the project lives,
// which entry points to bundle, and how the module graph and transpiler
// should behave. The CLI layer is responsible for translating flags and a
// project config file into this struct.
type Config struct {
	ProjectDir string
	OutDir     string
	RootDir    string

	// CompilerOptions feeds the compiler adapter's CreateProgram call.
	CompilerOptions compilerapi.ProgramOptions

	// AllEntryPoints maps entry-point name to its entry file: either a
	// declaration path already in the store or a source path, which the
	// graph builder translates via OutDir/RootDir. Selected narrows
	// this per declstore.ResolveEntryPoints; nil bundles the default.
	AllEntryPoints map[string]string
	Selected       []string

	External   []modulegraph.Pattern
	NoExternal []modulegraph.Pattern
	Resolve    bool

	CacheEnabled bool
	Clean        bool
	// DryRun computes every bundle but writes nothing to disk and skips
	// transpilation; Result.Planned reports what a real run would write.
	DryRun bool

	// Declarations, if false, skips the bundler entirely (a project
	// that only wants transpiled JS can suppress declaration output).
	Declarations bool
	// Transpile, if false, skips the esbuild phase.
	Transpile bool
	// TranspileSource maps entry-point name to the *source* (not
	// declaration) file esbuild should bundle from; keyed the same way
	// as AllEntryPoints so Selected applies to both.
	TranspileSource map[string]string
	TranspileOpts   transpiler.Options

	Metrics modulegraph.MetricsCollector
}

// Result is everything one Run call produced.
type Result struct {
	// Incremental is true when the build was a no-op: the cache was
	// consulted, nothing was re-emitted, and neither bundling nor
	// transpilation ran.
	Incremental bool
	// Declarations maps entry-point name to its bundled output. Absent
	// when Declarations is false or the build was incremental.
	Declarations map[string]*composer.BundledDeclaration
	// Written lists the declaration files written to disk, relative to
	// OutDir.
	Written []string
	// Planned lists, on a dry run, the "<relative path> (<n> bytes)"
	// descriptors of the files a real run would have written.
	Planned   []string
	Transpile *transpiler.Result
}

// Run executes one build: initialize the store, drive the compiler's
// emit through store.FileWriter, finalize the cache, and then — unless
// the build turned out to be an incremental no-op — run declaration
// bundling and transpilation concurrently via errgroup, awaiting both
// before surfacing the first error. All concurrent tasks run to
// completion before the first error is propagated; errgroup already
// provides that (Wait blocks until every Go func returns).
func Run(ctx context.Context, cfg Config, store *declstore.Store, compiler compilerapi.Compiler, fsys platform.FileSystem) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.Initialize()

	program, err := compiler.CreateProgram(cfg.CompilerOptions)
	if err != nil {
		return nil, buildpkg.Wrap(buildpkg.Generic, err)
	}

	emitResult, err := program.Emit(ctx, "", store.FileWriter, true)
	if err != nil {
		var unsupported *processor.UnsupportedSyntaxError
		if errors.As(err, &unsupported) {
			return nil, buildpkg.WrapBundle(err)
		}
		return nil, buildpkg.Wrap(buildpkg.Generic, err)
	}
	if emitResult.HasErrors() {
		return nil, buildpkg.WrapTypeCheck(fmt.Errorf("%s", formatDiagnostics(emitResult.Diagnostics)))
	}

	hasEmitted, err := store.Finalize()
	if err != nil {
		return nil, buildpkg.Wrap(buildpkg.Generic, err)
	}
	if !hasEmitted {
		logging.Info("no files emitted since last build; skipping bundle and transpile")
		return &Result{Incremental: true}, nil
	}

	if cfg.Clean && !cfg.DryRun {
		if err := cleanOutDir(fsys, cfg.OutDir); err != nil {
			return nil, buildpkg.Wrap(buildpkg.Generic, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entryPoints := declstore.ResolveEntryPoints(cfg.AllEntryPoints, cfg.Selected)

	var (
		declResult      map[string]*composer.BundledDeclaration
		written         []string
		planned         []string
		transpileResult *transpiler.Result
	)

	g, _ := errgroup.WithContext(ctx)

	if cfg.Declarations {
		g.Go(func() error {
			files := store.GetDeclarationFiles()
			bundled, err := bundleAll(fsys, files, entryPoints, cfg)
			if err != nil {
				return err
			}
			declResult = bundled

			if cfg.DryRun {
				planned = planBundles(bundled)
				return nil
			}
			w, err := writeBundles(fsys, cfg.OutDir, bundled)
			if err != nil {
				return buildpkg.WrapBundle(err)
			}
			written = w
			return nil
		})
	}

	if cfg.Transpile && !cfg.DryRun {
		g.Go(func() error {
			opts := cfg.TranspileOpts
			opts.EntryPoints = sortedValues(declstore.ResolveEntryPoints(cfg.TranspileSource, cfg.Selected))
			res, err := transpiler.Build(opts)
			if err != nil {
				return err
			}
			transpileResult = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		Declarations: declResult,
		Written:      written,
		Planned:      planned,
		Transpile:    transpileResult,
	}, nil
}

// planBundles renders the dry-run report: one "<name>.d.ts (<n> bytes)"
// line per bundle a real run would write, in sorted-name order.
func planBundles(bundles map[string]*composer.BundledDeclaration) []string {
	names := make([]string, 0, len(bundles))
	for name := range bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	planned := make([]string, 0, len(names))
	for _, name := range names {
		planned = append(planned, fmt.Sprintf("%s.d.ts (%d bytes)", name, len(bundles[name].Code)))
	}
	return planned
}

// bundleAll bundles every selected entry point in parallel: each is an
// independent graph rooted at a different file with a disjoint output, so
// there is no shared mutable state across the fan-out besides the
// read-only files snapshot.
func bundleAll(fsys platform.FileSystem, files map[string]*processor.CachedDeclaration, entryPoints map[string]string, cfg Config) (map[string]*composer.BundledDeclaration, error) {
	type outcome struct {
		name    string
		bundled *composer.BundledDeclaration
		err     error
	}

	results := make(chan outcome, len(entryPoints))
	g := new(errgroup.Group)
	// Entry-point lists come from user config; bound the fan-out so an
	// oversized list can't spawn an unbounded number of graph builds.
	g.SetLimit(runtime.GOMAXPROCS(0))

	for name, path := range entryPoints {
		name, path := name, path
		// Each bundling call gets its own snapshot of the files map:
		// the graph builder lazy-loads node_modules declarations into
		// its map, and two entry points resolving the same dependency
		// concurrently must not race on shared state.
		snapshot := make(map[string]*processor.CachedDeclaration, len(files))
		for p, d := range files {
			snapshot[p] = d
		}
		g.Go(func() error {
			bundled, err := bundleOne(fsys, snapshot, path, cfg)
			results <- outcome{name: name, bundled: bundled, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	out := make(map[string]*composer.BundledDeclaration, len(entryPoints))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		out[r.name] = r.bundled
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func bundleOne(fsys platform.FileSystem, files map[string]*processor.CachedDeclaration, entryPath string, cfg Config) (*composer.BundledDeclaration, error) {
	builder, err := modulegraph.NewBuilder(fsys, files, modulegraph.Options{
		External:   cfg.External,
		NoExternal: cfg.NoExternal,
		Resolve:    cfg.Resolve,
		OutDir:     cfg.OutDir,
		RootDir:    cfg.RootDir,
		Metrics:    cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	defer builder.Close()

	graph, err := builder.Build(entryPath)
	if err != nil {
		return nil, buildpkg.WrapBundle(err)
	}

	bundled, err := composer.Compose(graph, entryPath)
	if err != nil {
		return nil, buildpkg.WrapBundle(err)
	}
	return bundled, nil
}

// writeBundles writes one <outDir>/<name>.d.ts per bundled entry point,
// returning the relative paths written.
func writeBundles(fsys platform.FileSystem, outDir string, bundles map[string]*composer.BundledDeclaration) ([]string, error) {
	if err := fsys.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(bundles))
	for name := range bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		rel := name + ".d.ts"
		path := filepath.Join(outDir, rel)
		if err := fsys.WriteFile(path, bundles[name].Code, 0644); err != nil {
			return nil, err
		}
		written = append(written, rel)
	}
	return written, nil
}

// cleanOutDir empties outDir (but not the directory itself) before a
// fresh build, per the orchestrator's "clean" option.
func cleanOutDir(fsys platform.FileSystem, outDir string) error {
	entries, err := fsys.ReadDir(outDir)
	if err != nil {
		// A missing outDir is nothing to clean.
		return nil
	}
	for _, e := range entries {
		if err := fsys.Remove(filepath.Join(outDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func sortedValues(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(m))
	for _, name := range names {
		out = append(out, m[name])
	}
	return out
}

func formatDiagnostics(diags []compilerapi.Diagnostic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d diagnostic(s):\n", len(diags))
	for _, d := range diags {
		if d.Severity != compilerapi.SeverityError {
			continue
		}
		fmt.Fprintf(&b, "  %s:%d:%d: %s\n", d.File, d.Line, d.Column, d.Message)
	}
	return b.String()
}
