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

// Package transpiler wraps esbuild's multi-entry-point Build API behind
// the string-enum options this toolchain's config layer speaks.
package transpiler

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// Platform selects esbuild's target runtime.
type Platform string

const (
	PlatformBrowser Platform = "browser"
	PlatformNode    Platform = "node"
	PlatformNeutral Platform = "neutral"
)

// Target specifies the ECMAScript target version.
type Target string

const (
	ES2015 Target = "es2015"
	ES2016 Target = "es2016"
	ES2017 Target = "es2017"
	ES2018 Target = "es2018"
	ES2019 Target = "es2019"
	ES2020 Target = "es2020"
	ES2021 Target = "es2021"
	ES2022 Target = "es2022"
	ES2023 Target = "es2023"
	ESNext Target = "esnext"
)

// SourceMapMode specifies how source maps are generated.
type SourceMapMode string

const (
	SourceMapInline   SourceMapMode = "inline"
	SourceMapExternal SourceMapMode = "external"
	SourceMapNone     SourceMapMode = "none"
)

// Options configures one Build call.
type Options struct {
	EntryPoints []string
	Platform    Platform
	Target      Target
	Bundle      bool
	Splitting   bool
	Minify      bool
	SourceMap   SourceMapMode
	Banner      string
	Footer      string
	OutDir      string
	// Env holds raw define values still containing `${process.env.X}`
	// placeholders; Build expands each against the ambient process
	// environment before handing it to esbuild as a Define entry keyed
	// `import.meta.env.<KEY>`.
	Env     map[string]string
	Plugins []api.Plugin
}

// OutputFile is one file esbuild produced.
type OutputFile struct {
	Path     string
	Contents []byte
}

// Message is a single esbuild warning or error.
type Message struct {
	Text   string
	File   string
	Line   int
	Column int
}

// Result is everything Build returns from one esbuild invocation.
type Result struct {
	OutputFiles []OutputFile
	Warnings    []Message
	Errors      []Message
	Metafile    string
}

// HasErrors reports whether esbuild reported any build errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Build transpiles and bundles opts.EntryPoints via esbuild's Build API.
func Build(opts Options) (*Result, error) {
	esOpts := api.BuildOptions{
		EntryPoints:       opts.EntryPoints,
		Bundle:            opts.Bundle,
		Splitting:         opts.Splitting,
		Outdir:            opts.OutDir,
		Format:            api.FormatESModule,
		Write:             false,
		Metafile:          true,
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		MinifySyntax:      opts.Minify,
		Platform:          platformFor(opts.Platform),
		Target:            targetFor(opts.Target),
		Sourcemap:         sourcemapFor(opts.SourceMap),
		Define:            buildDefine(opts.Env),
		Plugins:           opts.Plugins,
	}
	if opts.Banner != "" {
		esOpts.Banner = map[string]string{"js": opts.Banner}
	}
	if opts.Footer != "" {
		esOpts.Footer = map[string]string{"js": opts.Footer}
	}

	res := api.Build(esOpts)
	return toResult(res), errorFromResult(res)
}

func platformFor(p Platform) api.Platform {
	switch p {
	case PlatformNode:
		return api.PlatformNode
	case PlatformNeutral:
		return api.PlatformNeutral
	default:
		return api.PlatformBrowser
	}
}

func targetFor(t Target) api.Target {
	switch t {
	case ES2015:
		return api.ES2015
	case ES2016:
		return api.ES2016
	case ES2017:
		return api.ES2017
	case ES2018:
		return api.ES2018
	case ES2019:
		return api.ES2019
	case ES2021:
		return api.ES2021
	case ES2022:
		return api.ES2022
	case ES2023:
		return api.ES2023
	case ESNext:
		return api.ESNext
	default:
		return api.ES2020
	}
}

func sourcemapFor(m SourceMapMode) api.SourceMap {
	switch m {
	case SourceMapInline:
		return api.SourceMapInline
	case SourceMapExternal:
		return api.SourceMapExternal
	default:
		return api.SourceMapNone
	}
}

func toResult(res api.BuildResult) *Result {
	out := &Result{Metafile: res.Metafile}
	for _, f := range res.OutputFiles {
		out.OutputFiles = append(out.OutputFiles, OutputFile{Path: f.Path, Contents: f.Contents})
	}
	out.Warnings = toMessages(res.Warnings)
	out.Errors = toMessages(res.Errors)
	return out
}

func toMessages(msgs []api.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		msg := Message{Text: m.Text}
		if m.Location != nil {
			msg.File = m.Location.File
			msg.Line = m.Location.Line
			msg.Column = m.Location.Column
		}
		out = append(out, msg)
	}
	return out
}

func errorFromResult(res api.BuildResult) error {
	if len(res.Errors) == 0 {
		return nil
	}
	msg := "esbuild: build failed:\n"
	for _, e := range res.Errors {
		msg += fmt.Sprintf("  %s\n", e.Text)
	}
	return fmt.Errorf("%s", msg)
}
