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

package buildpkg_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"bennypowers.dev/dtsroll/buildpkg"
)

func TestKind_ExitCode(t *testing.T) {
	assert.Equal(t, 1, buildpkg.TypeCheck.ExitCode())
	assert.Equal(t, 2, buildpkg.Bundle.ExitCode())
	assert.Equal(t, 3, buildpkg.Configuration.ExitCode())
	assert.Equal(t, 99, buildpkg.Generic.ExitCode())
}

func TestWrap_PreservesUnwrap(t *testing.T) {
	base := errors.New("entry point not found")
	err := buildpkg.WrapBundle(base)

	var be *buildpkg.Error
	require := assert.New(t)
	require.True(errors.As(err, &be))
	require.Equal(buildpkg.Bundle, be.Kind)
	require.True(errors.Is(err, base))
	require.Equal(2, be.ExitCode())
}

func TestWrap_NilIsNil(t *testing.T) {
	assert.Nil(t, buildpkg.WrapBundle(nil))
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, 0, buildpkg.ExitCodeFor(nil))
	assert.Equal(t, 3, buildpkg.ExitCodeFor(buildpkg.WrapConfiguration(errors.New("bad config"))))
	assert.Equal(t, 99, buildpkg.ExitCodeFor(errors.New("unexpected")))
}
