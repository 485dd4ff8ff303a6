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
	"regexp"
	"sort"
	"strings"
)

var namedImportRe = regexp.MustCompile(`^import\s+\{([^}]*)\}\s+from\s+(['"])([^'"]*)['"]\s*;?\s*$`)

// mergeExternalImports collates the collected external import statements
// kept by stripImportsExports, by specifier. Named-import clauses
// (`import { a, b } from "spec";`) targeting the same specifier are
// combined into one clause with deduplicated, sorted members; every other
// import shape (namespace, default, side-effect) passes through as-is,
// deduplicated by exact text.
//
// There is no separate `import type` bucket: pre-processing rewrites
// every `import type` clause to a plain `import` before a declaration is
// cached (see sanitizeImportClause), so only one import kind is ever
// live by the time the composer runs.
func mergeExternalImports(imports []string) []string {
	members := map[string]map[string]bool{}
	var specOrder []string

	otherSeen := map[string]bool{}
	var other []string

	for _, text := range imports {
		m := namedImportRe.FindStringSubmatch(text)
		if m == nil {
			if !otherSeen[text] {
				otherSeen[text] = true
				other = append(other, text)
			}
			continue
		}

		spec := m[3]
		if members[spec] == nil {
			members[spec] = map[string]bool{}
			specOrder = append(specOrder, spec)
		}
		for _, part := range strings.Split(m[1], ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				members[spec][part] = true
			}
		}
	}

	merged := make([]string, 0, len(specOrder)+len(other))
	for _, spec := range specOrder {
		names := make([]string, 0, len(members[spec]))
		for name := range members[spec] {
			names = append(names, name)
		}
		sort.Strings(names)
		merged = append(merged, fmt.Sprintf("import { %s } from %q;", strings.Join(names, ", "), spec))
	}
	merged = append(merged, other...)
	return merged
}
