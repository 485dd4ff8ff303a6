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

package modulegraph

import (
	"regexp"
	"strings"
)

// Pattern is a tagged variant matching either an exact/prefix literal or a
// compiled regular expression against an import specifier, used for the
// `external`/`noExternal` option lists.
type Pattern struct {
	literal string
	regex   *regexp.Regexp
}

// Literal builds a Pattern that matches a specifier equal to s, or any
// specifier with s as a path prefix (s + "/...").
func Literal(s string) Pattern {
	return Pattern{literal: s}
}

// Regex builds a Pattern that matches any specifier the expression finds a
// match in.
func Regex(re *regexp.Regexp) Pattern {
	return Pattern{regex: re}
}

// Matches reports whether p matches specifier.
func (p Pattern) Matches(specifier string) bool {
	if p.regex != nil {
		return p.regex.MatchString(specifier)
	}
	return specifier == p.literal || strings.HasPrefix(specifier, p.literal+"/")
}

// MatchesAny reports whether any pattern in patterns matches specifier.
func MatchesAny(specifier string, patterns []Pattern) bool {
	for _, p := range patterns {
		if p.Matches(specifier) {
			return true
		}
	}
	return false
}
