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
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryName(t *testing.T) {
	assert.Equal(t, "index", entryName("src/index.ts"))
	assert.Equal(t, "widget", entryName("widget.d.ts"))
	assert.Equal(t, "index", entryName(""))
}

func TestExpandEntryArgs_LiteralPathsPassThrough(t *testing.T) {
	out, err := expandEntryArgs([]string{"src/index.ts", "src/widget.ts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/index.ts", "src/widget.ts"}, out)
}

func TestExpandEntryArgs_GlobExpansion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "nested"), 0o755))
	for _, f := range []string{"src/a.ts", "src/nested/b.ts"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("export {}"), 0o644))
	}

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	out, err := expandEntryArgs([]string{"src/**/*.ts"})
	require.NoError(t, err)
	slices.Sort(out)
	assert.Equal(t, []string{"src/a.ts", "src/nested/b.ts"}, out)
}
