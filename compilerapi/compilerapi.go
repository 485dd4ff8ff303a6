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

// Package compilerapi declares the contract the build orchestrator needs
// from a TypeScript compiler, without binding to any particular
// implementation. No TypeScript compiler is reachable from Go, so the
// production adapter (typically a subprocess wrapping tsc, or an
// in-process binding) is always supplied by the caller; this package
// defines the interface and a FakeProgram test double good enough to
// drive the orchestrator end-to-end in tests.
package compilerapi

import "context"

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one compiler-reported issue.
type Diagnostic struct {
	Message  string
	File     string
	Line     int
	Column   int
	Severity Severity
}

// EmitResult is what Program.Emit returns: every diagnostic produced
// during the emit, regardless of severity.
type EmitResult struct {
	Diagnostics []Diagnostic
}

// HasErrors reports whether any diagnostic in the result is error
// severity — the orchestrator's signal to abort before bundling.
func (r EmitResult) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// WriteFileFunc is the callback a Program calls once per emitted file.
// The orchestrator passes declstore.Store.FileWriter so every emitted
// declaration is pre-processed and cached as it's produced. Calls are
// serialized by the Program; the store additionally guards its map with
// a mutex on every FileWriter call.
type WriteFileFunc func(path string, text []byte) error

// ProgramOptions mirrors the inputs an incremental TypeScript program is
// created from.
type ProgramOptions struct {
	RootNames                    []string
	CompilerOptions              map[string]any
	ProjectReferences            []string
	ConfigFileParsingDiagnostics []Diagnostic
}

// Compiler creates a Program from a set of options. The production
// implementation is tscexec.Compiler in compilerapi/tscexec, which runs
// an installed tsc binary; tests use FakeProgram.
type Compiler interface {
	CreateProgram(opts ProgramOptions) (Program, error)
}

// Program is an incremental compilation unit capable of emitting
// declaration (and, depending on compilerOptions, source) output.
type Program interface {
	// Emit writes every output file via write, returning the
	// diagnostics produced. targetSourceFile, if non-empty, restricts
	// the emit to that one source file (used for single-file
	// watch-mode re-emits outside this package's core scope).
	// emitOnlyDtsFiles suppresses .js/.js.map output, which is all the
	// orchestrator ever requests.
	Emit(ctx context.Context, targetSourceFile string, write WriteFileFunc, emitOnlyDtsFiles bool) (EmitResult, error)
}
