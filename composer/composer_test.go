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

package composer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/dtsroll/composer"
	"bennypowers.dev/dtsroll/internal/platform"
	"bennypowers.dev/dtsroll/modulegraph"
	"bennypowers.dev/dtsroll/processor"
)

func build(t *testing.T, files map[string]string, entry string, opts modulegraph.Options) *modulegraph.Graph {
	t.Helper()
	store := make(map[string]*processor.CachedDeclaration, len(files))
	for path, src := range files {
		decl, err := processor.PreProcess(path, []byte(src))
		require.NoError(t, err)
		store[path] = decl
	}
	b, err := modulegraph.NewBuilder(platform.NewMapFileSystem(nil), store, opts)
	require.NoError(t, err)
	defer b.Close()

	g, err := b.Build(entry)
	require.NoError(t, err)
	return g
}

func TestCompose_TwoModulesWithLocalImport(t *testing.T) {
	g := build(t, map[string]string{
		"/project/dist/index.d.ts": `import { User } from "./types"; export { User };`,
		"/project/dist/types.d.ts": `export interface User { name: string }`,
	}, "/project/dist/index.d.ts", modulegraph.Options{})

	out, err := composer.Compose(g, "/project/dist/index.d.ts")
	require.NoError(t, err)

	code := string(out.Code)
	assert.Contains(t, code, "interface User")
	// User is declared as an interface in the dependency; the entry's
	// re-export of it is classified through the graph as type-only.
	assert.Contains(t, code, "export type { User };")
	assert.NotContains(t, code, "import")
	if diff := cmp.Diff([]string{"User"}, out.Exports); diff != "" {
		t.Errorf("exports mismatch (-want +got):\n%s", diff)
	}
}

func TestCompose_NodeModulesCollisionRenamesAndDropsExports(t *testing.T) {
	g := build(t, map[string]string{
		"/project/dist/index.d.ts":              `import { User } from "lib"; export interface User { id: number } export { User };`,
		"/project/node_modules/lib/index.d.ts": `export interface User { name: string }`,
	}, "/project/dist/index.d.ts", modulegraph.Options{
		NoExternal: []modulegraph.Pattern{modulegraph.Literal("lib")},
	})

	out, err := composer.Compose(g, "/project/dist/index.d.ts")
	require.NoError(t, err)

	code := string(out.Code)
	// The entry is first-seen in DFS order, so it keeps the bare name;
	// the node_modules dependency, visited second, is disambiguated.
	assert.Contains(t, code, "interface User { id: number }")
	assert.Contains(t, code, "interface User$1 { name: string }")
	// node_modules' own export list never reaches the aggregate: only
	// the entry's (type) export of its own "User" survives.
	if diff := cmp.Diff([]string{"User"}, out.Exports); diff != "" {
		t.Errorf("exports mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, code, "export type { User };")
}

func TestCompose_SingleModuleNoConflicts(t *testing.T) {
	g := build(t, map[string]string{
		"/project/dist/index.d.ts": `export class Widget { render(): void }`,
	}, "/project/dist/index.d.ts", modulegraph.Options{})

	out, err := composer.Compose(g, "/project/dist/index.d.ts")
	require.NoError(t, err)

	code := string(out.Code)
	assert.Contains(t, code, "declare class Widget")
	assert.Contains(t, code, "export { Widget };")
	assert.NotContains(t, code, "$1")
}

func TestCompose_ValueAndTypeSameNameAcrossModulesDisambiguated(t *testing.T) {
	// index pulls in two unrelated modules that happen to declare the
	// same name as different kinds (a value, a type); composer's
	// disambiguation is keyed purely on name, across both kinds.
	g := build(t, map[string]string{
		"/project/dist/index.d.ts": `import { Config } from "./a"; import { Config as Config2 } from "./b";`,
		"/project/dist/a.d.ts":     `export class Config {}`,
		"/project/dist/b.d.ts":     `export interface Config { key: string }`,
	}, "/project/dist/index.d.ts", modulegraph.Options{})

	out, err := composer.Compose(g, "/project/dist/index.d.ts")
	require.NoError(t, err)

	code := string(out.Code)
	assert.Contains(t, code, "declare class Config {}")
	assert.Contains(t, code, "interface Config$1 { key: string }")
}

func TestCompose_RenameLeavesStringLiteralTypesAlone(t *testing.T) {
	// Both modules declare Config, so b's is renamed to Config$1 — but
	// only identifier occurrences: the string-literal type spelling
	// "Config" inside b must keep its value.
	g := build(t, map[string]string{
		"/project/dist/index.d.ts": `import { Config } from "./a"; import { Label } from "./b";`,
		"/project/dist/a.d.ts":     `export class Config {}`,
		"/project/dist/b.d.ts":     `export declare class Config {} export type Label = "Config";`,
	}, "/project/dist/index.d.ts", modulegraph.Options{})

	out, err := composer.Compose(g, "/project/dist/index.d.ts")
	require.NoError(t, err)

	code := string(out.Code)
	assert.Contains(t, code, "declare class Config$1 {}")
	assert.Contains(t, code, `type Label = "Config";`)
	assert.NotContains(t, code, `"Config$1"`)
}

func TestCompose_ExternalImportIsMergedAndKept(t *testing.T) {
	g := build(t, map[string]string{
		"/project/dist/index.d.ts": `import { Observable } from "rxjs"; import { Subject } from "rxjs"; export interface Stream { s: Observable<Subject<unknown>> }`,
	}, "/project/dist/index.d.ts", modulegraph.Options{
		External: []modulegraph.Pattern{modulegraph.Literal("rxjs")},
	})

	out, err := composer.Compose(g, "/project/dist/index.d.ts")
	require.NoError(t, err)

	code := string(out.Code)
	assert.Contains(t, code, `import { Observable, Subject } from "rxjs";`)
}
