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
package cmd

import (
	"regexp"
	"strings"

	"bennypowers.dev/dtsroll/buildpkg"
	"bennypowers.dev/dtsroll/modulegraph"
)

// parsePatterns turns each config/CLI string into a modulegraph.Pattern:
// a value wrapped in slashes ("/^lib-.*$/") compiles as a regular
// expression, anything else is a literal specifier-or-prefix match.
func parsePatterns(raw []string) ([]modulegraph.Pattern, error) {
	patterns := make([]modulegraph.Pattern, 0, len(raw))
	for _, s := range raw {
		if len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
			re, err := regexp.Compile(s[1 : len(s)-1])
			if err != nil {
				return nil, buildpkg.Wrap(buildpkg.Configuration, err)
			}
			patterns = append(patterns, modulegraph.Regex(re))
			continue
		}
		patterns = append(patterns, modulegraph.Literal(s))
	}
	return patterns, nil
}
