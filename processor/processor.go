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

// Package processor canonicalizes raw TypeScript declaration files into a
// self-contained, rewrite-safe form before bundling (PreProcess), and
// cleans up the assembled bundle afterward (PostProcess). PreProcess walks
// a tree-sitter-typescript parse tree to find statement boundaries and
// rewrites statement text, using a position-addressed edit buffer for
// triple-slash removal and inline import() resolution. PostProcess does
// not parse: it applies regular-expression rewrites to the whole text.
package processor

import (
	"fmt"
)

// CachedDeclaration is the canonical form of one declaration file, ready
// to be stored and later consumed by the module graph builder and bundle
// composer.
type CachedDeclaration struct {
	Code           []byte
	TypeReferences []string
	FileReferences []string
}

// UnsupportedSyntaxError is raised when the processor encounters a
// construct it cannot safely rewrite — currently, an inline `import(...)`
// type reference whose argument is not a string literal.
type UnsupportedSyntaxError struct {
	Path   string
	Detail string
}

func (e *UnsupportedSyntaxError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unsupported syntax: %s", e.Detail)
	}
	return fmt.Sprintf("unsupported syntax in %s: %s", e.Path, e.Detail)
}
