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
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/dtsroll/buildpkg"
	"bennypowers.dev/dtsroll/cache"
	"bennypowers.dev/dtsroll/cmd/config"
	"bennypowers.dev/dtsroll/compilerapi"
	"bennypowers.dev/dtsroll/compilerapi/tscexec"
	"bennypowers.dev/dtsroll/declstore"
	"bennypowers.dev/dtsroll/internal/logging"
	"bennypowers.dev/dtsroll/internal/platform"
	"bennypowers.dev/dtsroll/orchestrator"
	"bennypowers.dev/dtsroll/transpiler"
)

// buildCmd runs one build: compiler emit, cache finalize, declaration
// bundling and transpilation. It is dtsroll's only real operation; the
// other subcommands inspect configuration or state.
var buildCmd = &cobra.Command{
	Use:   "build [entry files...]",
	Short: "Type-check, bundle declarations, and transpile a TypeScript project",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().BoolP("force", "f", false, "ignore the declaration cache and rebuild from scratch")
	buildCmd.Flags().BoolP("watch", "w", false, "watch for changes and rebuild (requires an external file-watcher; not implemented by this build driver)")
	buildCmd.Flags().BoolP("noEmit", "n", false, "type-check only; skip declaration bundling and transpilation")
	buildCmd.Flags().BoolP("clearCache", "c", false, "remove the declaration cache and exit")
	buildCmd.Flags().BoolP("minify", "m", false, "minify transpiled output")
	buildCmd.Flags().Bool("dry-run", false, "compute bundles but write nothing; report what would be written")

	viper.BindPFlag("force", buildCmd.Flags().Lookup("force"))
	viper.BindPFlag("dryRun", buildCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("watch", buildCmd.Flags().Lookup("watch"))
	viper.BindPFlag("noEmit", buildCmd.Flags().Lookup("noEmit"))
	viper.BindPFlag("clearCache", buildCmd.Flags().Lookup("clearCache"))
	viper.BindPFlag("minify", buildCmd.Flags().Lookup("minify"))
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return buildpkg.WrapConfiguration(err)
	}
	cfg.ProjectDir = viper.GetString("projectDir")
	if len(args) > 0 {
		expanded, err := expandEntryArgs(args)
		if err != nil {
			return buildpkg.WrapConfiguration(err)
		}
		entryPoints := make(config.EntryPointsConfig, len(expanded))
		for _, a := range expanded {
			entryPoints[entryName(a)] = a
		}
		cfg.EntryPoints = entryPoints
	}
	if viper.GetBool("force") {
		cfg.Cache = false
		cfg.Clean = true
	}
	if viper.GetBool("noEmit") {
		cfg.Declarations = false
		cfg.Transpile = false
	}
	if viper.GetBool("minify") {
		cfg.Minify = true
	}
	if viper.GetBool("watch") {
		logging.Warning("--watch requires a file-watcher collaborator outside this build driver's scope; running a single build instead")
	}

	fs := platform.NewOSFileSystem()
	cleanup := platform.NewCleanupRegistry()

	if viper.GetBool("clearCache") {
		c := cache.New(fs, cfg.ProjectDir, "")
		c.Invalidate()
		logging.Success("cache cleared")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := build(ctx, cfg, fs, cleanup)
	if cleanupErr := cleanup.CleanupAll(); cleanupErr != nil {
		logging.Warning("cleanup: %v", cleanupErr)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			os.Exit(130)
		}
		var be *buildpkg.Error
		if errors.As(err, &be) {
			logging.Error("%s", be.Error())
		} else {
			logging.Critical("unexpected failure: %v", err)
		}
		os.Exit(buildpkg.ExitCodeFor(err))
	}

	if res.Incremental {
		logging.Success("up to date, nothing to do")
		return nil
	}
	for _, p := range res.Planned {
		logging.Info("would write %s", p)
	}
	for _, w := range res.Written {
		logging.Success("wrote %s", w)
	}
	return nil
}

// build wires the orchestrator's collaborators from a BuildConfig and
// runs one build.
func build(ctx context.Context, cfg *config.BuildConfig, fs platform.FileSystem, cleanup *platform.CleanupRegistry) (*orchestrator.Result, error) {
	buildInfoPath := filepath.Join(cfg.ProjectDir, "tsconfig.tsbuildinfo")
	c := cache.New(fs, cfg.ProjectDir, buildInfoPath)
	store := declstore.New(fs, c, cfg.Cache)
	cleanup.Register(storeCloser{store})

	external, err := parsePatterns(cfg.External)
	if err != nil {
		return nil, err
	}
	noExternal, err := parsePatterns(cfg.NoExternal)
	if err != nil {
		return nil, err
	}

	allEntryPoints := make(map[string]string, len(cfg.EntryPoints))
	for name, rel := range cfg.EntryPoints {
		allEntryPoints[name] = absPath(cfg.ProjectDir, rel)
	}

	outDir := absPath(cfg.ProjectDir, cfg.OutDir)
	rootDir := cfg.RootDir
	if rootDir != "" {
		rootDir = absPath(cfg.ProjectDir, rootDir)
	}

	compiler := tscexec.Compiler{TscPath: cfg.TscPath, ProjectDir: cfg.ProjectDir}

	orchCfg := orchestrator.Config{
		ProjectDir:      cfg.ProjectDir,
		OutDir:          outDir,
		RootDir:         rootDir,
		CompilerOptions: compilerOptions(allEntryPoints, outDir, rootDir),
		AllEntryPoints:  allEntryPoints,
		Selected:        cfg.Selected,
		External:        external,
		NoExternal:      noExternal,
		Resolve:         cfg.Resolve,
		CacheEnabled:    cfg.Cache,
		Clean:           cfg.Clean,
		DryRun:          cfg.DryRun,
		Declarations:    cfg.Declarations,
		Transpile:       cfg.Transpile,
		TranspileSource: allEntryPoints,
		TranspileOpts: transpiler.Options{
			Platform:  transpiler.Platform(cfg.Platform),
			Target:    transpiler.Target(cfg.Target),
			Bundle:    true,
			Minify:    cfg.Minify,
			OutDir:    outDir,
			Env:       cfg.Env,
			SourceMap: transpiler.SourceMapNone,
		},
	}

	return orchestrator.Run(ctx, orchCfg, store, compiler, fs)
}

func compilerOptions(entryPoints map[string]string, outDir, rootDir string) compilerapi.ProgramOptions {
	opts := map[string]any{"outDir": outDir, "declaration": true}
	if rootDir != "" {
		opts["rootDir"] = rootDir
	}
	rootNames := make([]string, 0, len(entryPoints))
	for _, p := range entryPoints {
		rootNames = append(rootNames, p)
	}
	sort.Strings(rootNames)
	return compilerapi.ProgramOptions{RootNames: rootNames, CompilerOptions: opts}
}

func absPath(projectDir, p string) string {
	if p == "" {
		return p
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectDir, p)
}

// expandEntryArgs lets a project pass "src/**/*.ts"-style doublestar
// globs for entry points instead of enumerating every file by hand.
func expandEntryArgs(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !doublestar.ValidatePattern(a) || !strings.ContainsAny(a, "*?[{") {
			out = append(out, a)
			continue
		}
		matches, err := doublestar.FilepathGlob(a)
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}

func entryName(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".d.ts", ".d.tsx"} {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			if base == "" {
				return "index"
			}
			return base
		}
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		return "index"
	}
	return base
}

type storeCloser struct{ store *declstore.Store }

func (s storeCloser) Cleanup() error {
	s.store.Close()
	return nil
}
