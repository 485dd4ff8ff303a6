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

package tscexec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/dtsroll/compilerapi"
	"bennypowers.dev/dtsroll/compilerapi/tscexec"
)

func TestParseDiagnostics_ErrorAndWarning(t *testing.T) {
	output := "src/index.ts(3,5): error TS2322: Type 'string' is not assignable to type 'number'.\n" +
		"src/other.ts(10,1): warning TS6133: 'x' is declared but its value is never read.\n" +
		"Found 2 errors.\n"

	diags := tscexec.ParseDiagnostics(output)
	require.Len(t, diags, 2)

	assert.Equal(t, "src/index.ts", diags[0].File)
	assert.Equal(t, 3, diags[0].Line)
	assert.Equal(t, 5, diags[0].Column)
	assert.Equal(t, compilerapi.SeverityError, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "not assignable")

	assert.Equal(t, compilerapi.SeverityWarning, diags[1].Severity)
}

func TestParseDiagnostics_NoMatchesOnCleanOutput(t *testing.T) {
	diags := tscexec.ParseDiagnostics("")
	assert.Empty(t, diags)
}
