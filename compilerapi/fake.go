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

package compilerapi

import (
	"context"
	"sort"
)

// FakeProgram is an in-memory Program, standing in for a real TypeScript
// compiler the way internal/platform.MapFileSystem stands in for a real
// filesystem: Files holds the declaration text Emit "compiles", keyed by
// output path, and Diagnostics is returned verbatim. Tests drive the
// orchestrator end-to-end against it without ever invoking tsc.
type FakeProgram struct {
	Files       map[string][]byte
	Diagnostics []Diagnostic

	// EmitErr, if set, is returned by Emit instead of writing anything —
	// simulates a compiler-level failure (not a diagnostic).
	EmitErr error
}

// NewFakeProgram returns a FakeProgram seeded with files.
func NewFakeProgram(files map[string][]byte) *FakeProgram {
	return &FakeProgram{Files: files}
}

// Emit writes every seeded file whose path is targetSourceFile, or all of
// them if targetSourceFile is empty, in deterministic (sorted-path) order
// so a test asserting on write sequence isn't at the mercy of map
// iteration order.
func (p *FakeProgram) Emit(ctx context.Context, targetSourceFile string, write WriteFileFunc, emitOnlyDtsFiles bool) (EmitResult, error) {
	if p.EmitErr != nil {
		return EmitResult{}, p.EmitErr
	}

	paths := make([]string, 0, len(p.Files))
	for path := range p.Files {
		if targetSourceFile != "" && path != targetSourceFile {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return EmitResult{Diagnostics: p.Diagnostics}, ctx.Err()
		default:
		}
		if err := write(path, p.Files[path]); err != nil {
			return EmitResult{Diagnostics: p.Diagnostics}, err
		}
	}

	return EmitResult{Diagnostics: p.Diagnostics}, nil
}
