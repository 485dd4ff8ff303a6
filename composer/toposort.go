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

import "bennypowers.dev/dtsroll/modulegraph"

// topoSort walks graph depth-first from entry, emitting each module only
// after every module it imports, so a dependency's declarations always
// precede their dependents in the assembled output. A module reached a
// second time while already on the current DFS stack is a back-edge
// (import cycle) and is skipped rather than followed: cycles are common
// in real .d.ts graphs (mutually-referential interfaces) and tolerated
// rather than rejected.
func topoSort(graph *modulegraph.Graph, entry string) []string {
	visited := make(map[string]bool, len(graph.Modules))
	onStack := make(map[string]bool, len(graph.Modules))
	order := make([]string, 0, len(graph.Modules))

	var visit func(path string)
	visit = func(path string) {
		if visited[path] || onStack[path] {
			return
		}
		mod, ok := graph.Modules[path]
		if !ok {
			return
		}
		onStack[path] = true
		for _, dep := range mod.Imports {
			visit(dep)
		}
		onStack[path] = false
		visited[path] = true
		order = append(order, path)
	}

	visit(entry)

	// Modules unreachable from entry by the Imports chain (shouldn't occur
	// given how Graph.Build populates Imports, but guards against a future
	// caller handing composer a graph built some other way) are appended
	// in first-seen order so nothing silently disappears from the output.
	for _, path := range graph.Order {
		visit(path)
	}

	return order
}
