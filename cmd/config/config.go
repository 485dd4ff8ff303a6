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

// Package config is the typed shape a project's dtsroll.config.yaml (or
// CLI flags, via viper's flag binding) decodes into.
package config

// EntryPointsConfig maps an entry-point name to its source (not
// declaration) TypeScript file, e.g. {"index": "src/index.ts"}.
type EntryPointsConfig map[string]string

// BuildConfig is the full set of options one build invocation needs.
type BuildConfig struct {
	ProjectDir string `mapstructure:"projectDir" yaml:"projectDir"`
	ConfigFile string `mapstructure:"configFile" yaml:"configFile"`

	// EntryPoints lists the named source entry points a project
	// exposes; a build may bundle all of them or a selected subset.
	EntryPoints EntryPointsConfig `mapstructure:"entryPoints" yaml:"entryPoints"`
	Selected    []string          `mapstructure:"selected" yaml:"selected"`

	OutDir  string `mapstructure:"outDir" yaml:"outDir"`
	RootDir string `mapstructure:"rootDir" yaml:"rootDir"`

	// External specifiers are always left as imports in bundled output.
	External []string `mapstructure:"external" yaml:"external"`
	// NoExternal overrides node_modules-exclusion for specifiers that
	// match, pulling them into the bundle instead.
	NoExternal []string `mapstructure:"noExternal" yaml:"noExternal"`
	// Resolve allows reading dependency declarations from disk when
	// they're not already in the declaration store.
	Resolve bool `mapstructure:"resolve" yaml:"resolve"`

	Cache bool `mapstructure:"cache" yaml:"cache"`
	Clean bool `mapstructure:"clean" yaml:"clean"`
	// DryRun computes every bundle but writes nothing and skips
	// transpilation, reporting what a real run would write.
	DryRun bool `mapstructure:"dryRun" yaml:"dryRun"`

	// Declarations and Transpile independently gate the two output
	// kinds the orchestrator can produce.
	Declarations bool `mapstructure:"declarations" yaml:"declarations"`
	Transpile    bool `mapstructure:"transpile" yaml:"transpile"`

	Platform string            `mapstructure:"platform" yaml:"platform"`
	Target   string            `mapstructure:"target" yaml:"target"`
	Minify   bool              `mapstructure:"minify" yaml:"minify"`
	Env      map[string]string `mapstructure:"env" yaml:"env"`

	// TscPath overrides the tsc binary invoked for the compiler phase;
	// empty uses "tsc" from PATH.
	TscPath string `mapstructure:"tscPath" yaml:"tscPath"`

	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// Clone deep-copies the slice/map fields so callers can mutate a cloned
// config (e.g. applying CLI flag overrides) without aliasing the
// original.
func (c *BuildConfig) Clone() *BuildConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.EntryPoints != nil {
		clone.EntryPoints = make(EntryPointsConfig, len(c.EntryPoints))
		for k, v := range c.EntryPoints {
			clone.EntryPoints[k] = v
		}
	}
	if c.Selected != nil {
		clone.Selected = append([]string(nil), c.Selected...)
	}
	if c.External != nil {
		clone.External = append([]string(nil), c.External...)
	}
	if c.NoExternal != nil {
		clone.NoExternal = append([]string(nil), c.NoExternal...)
	}
	if c.Env != nil {
		clone.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			clone.Env[k] = v
		}
	}
	return &clone
}

// Default returns a BuildConfig with the defaults a project gets when it
// supplies no dtsroll.config.{yaml,json} at all: declarations and transpilation both
// on, caching on, nothing external.
func Default() *BuildConfig {
	return &BuildConfig{
		OutDir:       "dist",
		Cache:        true,
		Declarations: true,
		Transpile:    true,
		Platform:     "neutral",
		Target:       "es2022",
	}
}
