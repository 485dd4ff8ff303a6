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
package platform

import (
	"errors"
	"sync"
)

// Cleanable is anything a CleanupRegistry can release at process-lifetime
// end. The build command's store wrapper and TempDirFileSystem implement
// it with their own Cleanup method.
type Cleanable interface {
	Cleanup() error
}

// CleanupRegistry collects Cleanable resources registered over the life of
// a build and releases them all from one place, in reverse registration
// order, instead of each subsystem managing its own process-exit hook.
// The build command owns one instance per run and registers the
// declaration store with it; the orchestrator does not take one.
type CleanupRegistry struct {
	mu    sync.Mutex
	items []Cleanable
}

// NewCleanupRegistry returns an empty registry.
func NewCleanupRegistry() *CleanupRegistry {
	return &CleanupRegistry{}
}

// Register adds c to the registry. Safe for concurrent use.
func (r *CleanupRegistry) Register(c Cleanable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, c)
}

// CleanupAll runs every registered Cleanable's Cleanup in reverse
// registration order (last registered, first released), joining every
// error returned rather than stopping at the first.
func (r *CleanupRegistry) CleanupAll() error {
	r.mu.Lock()
	items := make([]Cleanable, len(r.items))
	copy(items, r.items)
	r.items = nil
	r.mu.Unlock()

	var errs []error
	for i := len(items) - 1; i >= 0; i-- {
		if err := items[i].Cleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
