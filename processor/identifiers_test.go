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

package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierMap_ClassifiesTypesAndValues(t *testing.T) {
	src := []byte(`interface Foo {}
type Bar = string;
declare class Baz {}
declare function qux(): void;
declare const a: number;
declare namespace ns {}
`)
	types, values, err := IdentifierMap(src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Foo", "Bar"}, types)
	assert.ElementsMatch(t, []string{"Baz", "qux", "a", "ns"}, values)
}

func TestIdentifierMap_RecursesIntoModuleBlocks(t *testing.T) {
	src := []byte(`declare namespace NS {
  interface Inner {}
  class Widget {}
}
declare module "ambient-lib" {
  interface Hook {}
  function register(): void;
}
`)
	types, values, err := IdentifierMap(src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Inner", "Hook"}, types)
	assert.ElementsMatch(t, []string{"NS", "Widget", "register"}, values)
}

func TestIdentifierMap_OnPreProcessOutput(t *testing.T) {
	src := []byte(`export interface Foo {}
export class Bar {}
export const a = 1, b = 2;
`)
	decl, err := PreProcess("index.d.ts", src)
	require.NoError(t, err)

	types, values, err := IdentifierMap(decl.Code)
	require.NoError(t, err)
	assert.Contains(t, types, "Foo")
	assert.Contains(t, values, "Bar")
	assert.Contains(t, values, "a")
	assert.Contains(t, values, "b")
}
