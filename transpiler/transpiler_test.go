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

package transpiler

import (
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("DTSROLL_TEST_VAR", "hello")

	assert.Equal(t, "hello", expandEnv("${process.env.DTSROLL_TEST_VAR}"))
	assert.Equal(t, "prefix-hello-suffix", expandEnv("prefix-${process.env.DTSROLL_TEST_VAR}-suffix"))
	assert.Equal(t, "", expandEnv("${process.env.DTSROLL_UNSET_VAR}"))
	assert.Equal(t, "no placeholders here", expandEnv("no placeholders here"))
}

func TestBuildDefine(t *testing.T) {
	t.Setenv("DTSROLL_TEST_VAR", "1.2.3")

	define := buildDefine(map[string]string{
		"VERSION": "${process.env.DTSROLL_TEST_VAR}",
		"MODE":    "production",
	})

	assert.Equal(t, `"1.2.3"`, define["import.meta.env.VERSION"])
	assert.Equal(t, `"production"`, define["import.meta.env.MODE"])
}

func TestBuildDefine_Empty(t *testing.T) {
	assert.Nil(t, buildDefine(nil))
	assert.Nil(t, buildDefine(map[string]string{}))
}

func TestPlatformFor(t *testing.T) {
	assert.Equal(t, api.PlatformBrowser, platformFor(PlatformBrowser))
	assert.Equal(t, api.PlatformNode, platformFor(PlatformNode))
	assert.Equal(t, api.PlatformNeutral, platformFor(PlatformNeutral))
	assert.Equal(t, api.PlatformBrowser, platformFor(Platform("")))
}

func TestTargetFor(t *testing.T) {
	assert.Equal(t, api.ES2015, targetFor(ES2015))
	assert.Equal(t, api.ESNext, targetFor(ESNext))
	assert.Equal(t, api.ES2020, targetFor(Target("")))
}

func TestSourcemapFor(t *testing.T) {
	assert.Equal(t, api.SourceMapInline, sourcemapFor(SourceMapInline))
	assert.Equal(t, api.SourceMapExternal, sourcemapFor(SourceMapExternal))
	assert.Equal(t, api.SourceMapNone, sourcemapFor(SourceMapNone))
	assert.Equal(t, api.SourceMapNone, sourcemapFor(SourceMapMode("")))
}

func TestResult_HasErrors(t *testing.T) {
	clean := &Result{Warnings: []Message{{Text: "heads up"}}}
	assert.False(t, clean.HasErrors())

	dirty := &Result{Errors: []Message{{Text: "boom"}}}
	assert.True(t, dirty.HasErrors())
}

func TestToMessages(t *testing.T) {
	msgs := toMessages([]api.Message{
		{Text: "no location"},
		{Text: "with location", Location: &api.Location{File: "a.ts", Line: 3, Column: 5}},
	})

	assert.Len(t, msgs, 2)
	assert.Equal(t, "no location", msgs[0].Text)
	assert.Equal(t, "", msgs[0].File)
	assert.Equal(t, "with location", msgs[1].Text)
	assert.Equal(t, "a.ts", msgs[1].File)
	assert.Equal(t, 3, msgs[1].Line)
	assert.Equal(t, 5, msgs[1].Column)
}
