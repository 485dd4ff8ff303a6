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

package composer

import (
	"fmt"

	"bennypowers.dev/dtsroll/modulegraph"
)

// renameKey joins a declared name and the path of the module that declares
// it into the rename map's lookup key.
func renameKey(name, modulePath string) string {
	return name + ":" + modulePath
}

// allocateRenames finds every top-level name declared by more than one
// module in the graph and assigns each later declaration a disambiguated
// suffix, visiting modules in graph.Order (first-seen DFS order) so the
// choice of which module "wins" the bare name is deterministic.
//
// A name is considered declared by a module if it appears in either that
// module's Identifiers.Types or Identifiers.Values set; a module that
// merges a value and a type under one name (declaration merging, e.g. a
// class and a same-named namespace) still counts as declaring that name
// only once.
func allocateRenames(graph *modulegraph.Graph) map[string]string {
	definingModules := map[string][]string{}
	seen := map[string]map[string]bool{}

	for _, path := range graph.Order {
		mod, ok := graph.Modules[path]
		if !ok {
			continue
		}
		names := make(map[string]bool, len(mod.Identifiers.Types)+len(mod.Identifiers.Values))
		for n := range mod.Identifiers.Types {
			names[n] = true
		}
		for n := range mod.Identifiers.Values {
			names[n] = true
		}
		for name := range names {
			if seen[name] == nil {
				seen[name] = map[string]bool{}
			}
			if seen[name][path] {
				continue
			}
			seen[name][path] = true
			definingModules[name] = append(definingModules[name], path)
		}
	}

	renames := map[string]string{}
	for name, paths := range definingModules {
		if len(paths) < 2 {
			continue
		}
		for i, path := range paths {
			if i == 0 {
				continue // first-seen module keeps the bare name
			}
			renames[renameKey(name, path)] = fmt.Sprintf("%s$%d", name, i)
		}
	}
	return renames
}

// applyRename returns name's renamed form for modulePath if it conflicted
// with a same-named declaration elsewhere in the graph, or name unchanged
// otherwise.
func applyRename(name, modulePath string, renames map[string]string) string {
	if renamed, ok := renames[renameKey(name, modulePath)]; ok {
		return renamed
	}
	return name
}
