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
package platform_test

import (
	"errors"
	"testing"

	"bennypowers.dev/dtsroll/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleanable struct {
	name string
	err  error
	log  *[]string
}

func (f *fakeCleanable) Cleanup() error {
	*f.log = append(*f.log, f.name)
	return f.err
}

func TestCleanupRegistry_ReverseOrder(t *testing.T) {
	var log []string
	reg := platform.NewCleanupRegistry()
	reg.Register(&fakeCleanable{name: "a", log: &log})
	reg.Register(&fakeCleanable{name: "b", log: &log})
	reg.Register(&fakeCleanable{name: "c", log: &log})

	require.NoError(t, reg.CleanupAll())
	assert.Equal(t, []string{"c", "b", "a"}, log)
}

func TestCleanupRegistry_JoinsErrors(t *testing.T) {
	var log []string
	reg := platform.NewCleanupRegistry()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	reg.Register(&fakeCleanable{name: "a", err: errA, log: &log})
	reg.Register(&fakeCleanable{name: "b", err: errB, log: &log})

	err := reg.CleanupAll()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errA))
	assert.True(t, errors.Is(err, errB))
}

func TestCleanupRegistry_RunsOnce(t *testing.T) {
	var log []string
	reg := platform.NewCleanupRegistry()
	reg.Register(&fakeCleanable{name: "a", log: &log})

	require.NoError(t, reg.CleanupAll())
	require.NoError(t, reg.CleanupAll())
	assert.Equal(t, []string{"a"}, log)
}
