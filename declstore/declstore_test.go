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

package declstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/dtsroll/cache"
	"bennypowers.dev/dtsroll/declstore"
	"bennypowers.dev/dtsroll/internal/platform"
)

func TestStore_FileWriterPreProcessesAndSetsEmitted(t *testing.T) {
	fs := platform.NewMapFileSystem(nil)
	c := cache.New(fs, "/project", "/project/tsconfig.tsbuildinfo")
	s := declstore.New(fs, c, true)
	s.Initialize()

	require.NoError(t, s.FileWriter("/project/dist/index.d.ts", []byte("export const a = 1;\n")))

	files := s.GetDeclarationFiles()
	require.Contains(t, files, "/project/dist/index.d.ts")
	assert.Contains(t, string(files["/project/dist/index.d.ts"].Code), "declare const a")

	needsWork, err := s.Finalize()
	require.NoError(t, err)
	assert.True(t, needsWork, "FileWriter should have set the emitted flag")
}

func TestStore_FileWriterWritesBuildInfoStraightToDisk(t *testing.T) {
	fs := platform.NewMapFileSystem(nil)
	c := cache.New(fs, "/project", "/project/tsconfig.tsbuildinfo")
	s := declstore.New(fs, c, true)
	s.Initialize()

	require.NoError(t, s.FileWriter("/project/tsconfig.tsbuildinfo", []byte(`{"version":"5.0"}`)))

	assert.Empty(t, s.GetDeclarationFiles())
	assert.True(t, fs.Exists("/project/tsconfig.tsbuildinfo"))
}

func TestStore_FinalizeSkipsSaveWhenNothingEmitted(t *testing.T) {
	fs := platform.NewMapFileSystem(nil)
	c := cache.New(fs, "/project", "")
	s := declstore.New(fs, c, true)
	s.Initialize()

	needsWork, err := s.Finalize()
	require.NoError(t, err)
	assert.False(t, needsWork)
	assert.False(t, fs.Exists("/project/.dtsroll-cache/cache.msgpack.zst"))
}

func TestStore_FinalizeReportsWorkNeededWhenCachingDisabled(t *testing.T) {
	fs := platform.NewMapFileSystem(nil)
	s := declstore.New(fs, nil, false)
	s.Initialize()

	needsWork, err := s.Finalize()
	require.NoError(t, err)
	assert.True(t, needsWork)
}

func TestStore_InitializeRestoresFromCache(t *testing.T) {
	fs := platform.NewMapFileSystem(nil)
	c := cache.New(fs, "/project", "")
	require.NoError(t, c.Save(map[string]cache.Entry{
		"/project/dist/index.d.ts": {Code: []byte("declare const a: number;\n")},
	}))

	c2 := cache.New(fs, "/project", "")
	s := declstore.New(fs, c2, true)
	s.Initialize()

	files := s.GetDeclarationFiles()
	require.Contains(t, files, "/project/dist/index.d.ts")
	assert.Equal(t, "declare const a: number;\n", string(files["/project/dist/index.d.ts"].Code))
}

func TestStore_WriteFilesWritesToDiskAndReportsDescriptors(t *testing.T) {
	fs := platform.NewMapFileSystem(nil)
	s := declstore.New(fs, nil, false)
	s.Initialize()

	require.NoError(t, s.FileWriter("/project/dist/index.d.ts", []byte("export const a = 1;\n")))

	descriptors, err := s.WriteFiles("/project")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "dist/index.d.ts", descriptors[0].RelativePath)
	assert.True(t, fs.Exists("/project/dist/index.d.ts"))
}

func TestStore_Close(t *testing.T) {
	fs := platform.NewMapFileSystem(nil)
	s := declstore.New(fs, nil, false)
	s.Initialize()
	require.NoError(t, s.FileWriter("/project/dist/index.d.ts", []byte("export const a = 1;\n")))

	s.Close()
	assert.Empty(t, s.GetDeclarationFiles())
}

func TestResolveEntryPoints(t *testing.T) {
	all := map[string]string{
		"index": "/project/dist/index.d.ts",
		"cli":   "/project/dist/cli.d.ts",
	}

	t.Run("no selection prefers index", func(t *testing.T) {
		got := declstore.ResolveEntryPoints(all, nil)
		assert.Equal(t, map[string]string{"index": "/project/dist/index.d.ts"}, got)
	})

	t.Run("no selection and no index returns all", func(t *testing.T) {
		noIndex := map[string]string{"cli": "/project/dist/cli.d.ts"}
		got := declstore.ResolveEntryPoints(noIndex, nil)
		assert.Equal(t, noIndex, got)
	})

	t.Run("selection returns named subset, skips unknown names", func(t *testing.T) {
		got := declstore.ResolveEntryPoints(all, []string{"cli", "nonexistent"})
		assert.Equal(t, map[string]string{"cli": "/project/dist/cli.d.ts"}, got)
	})
}
