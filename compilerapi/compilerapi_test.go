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

package compilerapi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/dtsroll/compilerapi"
)

func TestEmitResult_HasErrors(t *testing.T) {
	clean := compilerapi.EmitResult{Diagnostics: []compilerapi.Diagnostic{{Severity: compilerapi.SeverityWarning}}}
	assert.False(t, clean.HasErrors())

	dirty := compilerapi.EmitResult{Diagnostics: []compilerapi.Diagnostic{
		{Severity: compilerapi.SeverityWarning},
		{Severity: compilerapi.SeverityError},
	}}
	assert.True(t, dirty.HasErrors())
}

func TestFakeProgram_EmitWritesAllFilesInSortedOrder(t *testing.T) {
	p := compilerapi.NewFakeProgram(map[string][]byte{
		"/out/b.d.ts": []byte("export {}"),
		"/out/a.d.ts": []byte("export {}"),
	})

	var written []string
	res, err := p.Emit(context.Background(), "", func(path string, text []byte) error {
		written = append(written, path)
		return nil
	}, true)
	require.NoError(t, err)
	assert.False(t, res.HasErrors())
	assert.Equal(t, []string{"/out/a.d.ts", "/out/b.d.ts"}, written)
}

func TestFakeProgram_EmitTargetSourceFileFiltersOutput(t *testing.T) {
	p := compilerapi.NewFakeProgram(map[string][]byte{
		"/out/a.d.ts": []byte("export {}"),
		"/out/b.d.ts": []byte("export {}"),
	})

	var written []string
	_, err := p.Emit(context.Background(), "/out/a.d.ts", func(path string, text []byte) error {
		written = append(written, path)
		return nil
	}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/a.d.ts"}, written)
}

func TestFakeProgram_EmitErrShortCircuits(t *testing.T) {
	p := compilerapi.NewFakeProgram(map[string][]byte{"/out/a.d.ts": []byte("x")})
	p.EmitErr = errors.New("compiler crashed")

	_, err := p.Emit(context.Background(), "", func(string, []byte) error { return nil }, true)
	assert.EqualError(t, err, "compiler crashed")
}

func TestFakeProgram_WriteFuncErrorPropagates(t *testing.T) {
	p := compilerapi.NewFakeProgram(map[string][]byte{"/out/a.d.ts": []byte("x")})
	writeErr := errors.New("disk full")

	_, err := p.Emit(context.Background(), "", func(string, []byte) error { return writeErr }, true)
	assert.ErrorIs(t, err, writeErr)
}
