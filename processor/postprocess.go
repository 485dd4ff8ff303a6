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
	"regexp"
	"strings"
)

// declExtensionRe matches a relative import/export specifier ending in a
// declaration-file extension, capturing the part before the extension so
// it can be rewritten with the JavaScript extension instead.
var declExtensionRe = regexp.MustCompile(`(from\s+["'])(\.[^"']*?)\.d\.tsx?(["'])`)

var emptyStatementRe = regexp.MustCompile(`(?m)^[ \t]*;[ \t]*\r?\n?`)

// redundantNamespaceReexportRe matches a single-name `{ A as B }` clause;
// Go's regexp has no backreferences, so PostProcess compares A and B itself.
var redundantNamespaceReexportRe = regexp.MustCompile(`\{\s*([A-Za-z_$][\w$]*)\s+as\s+([A-Za-z_$][\w$]*)\s*\}`)

// PostProcess cleans up the text assembled by the bundle composer: it
// drops empty statements, rewrites relative declaration-extension
// specifiers to their JavaScript equivalent, and collapses redundant
// `{ X as X }` re-exports down to `{ X }`.
func PostProcess(source []byte) []byte {
	text := string(source)
	text = declExtensionRe.ReplaceAllString(text, "${1}${2}.js${3}")
	text = redundantNamespaceReexportRe.ReplaceAllStringFunc(text, func(clause string) string {
		m := redundantNamespaceReexportRe.FindStringSubmatch(clause)
		if m[1] != m[2] {
			return clause
		}
		return "{ " + m[1] + " }"
	})
	text = emptyStatementRe.ReplaceAllString(text, "")
	text = strings.TrimRight(text, "\n") + "\n"
	return []byte(text)
}
