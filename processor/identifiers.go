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

import "strings"

// IdentifierMap classifies every top-level declared name in an
// already-pre-processed declaration file into type-only names
// (interfaces, type aliases) and value-producing names (classes,
// functions, enums, variables, namespaces, modules), recursing into
// module and namespace bodies — including string-literal-named ambient
// modules — so nested declarations are visible to conflict detection and
// export classification. It reuses the same statement splitter and
// keyword classifier PreProcess uses for modifier normalization, since by
// this point every top-level statement is already one declaration per
// name (variable statements were split in step 4).
func IdentifierMap(code []byte) (types, values []string, err error) {
	stmts, err := splitTopLevelStatements(code)
	if err != nil {
		return nil, nil, err
	}
	if err := collectIdentifiers(stmts, &types, &values); err != nil {
		return nil, nil, err
	}
	return types, values, nil
}

func collectIdentifiers(stmts []statement, types, values *[]string) error {
	for _, st := range stmts {
		m := topLevelKeywordRe.FindStringSubmatch(st.text)
		if m == nil {
			continue
		}
		keyword, name := m[3], m[4]

		if name != "" {
			if keyword == "interface" || keyword == "type" {
				*types = append(*types, name)
			} else {
				*values = append(*values, name)
			}
		}

		// A module/namespace block declares names of its own; an ambient
		// module (`declare module "spec" { ... }`) has no identifier name
		// but its body still does.
		if keyword == "namespace" || keyword == "module" {
			body, ok := moduleBlockBody(st.text)
			if !ok {
				continue
			}
			inner, err := splitTopLevelStatements([]byte(body))
			if err != nil {
				return err
			}
			if err := collectIdentifiers(inner, types, values); err != nil {
				return err
			}
		}
	}
	return nil
}

// moduleBlockBody returns the text between the outermost braces of a
// module or namespace declaration, or ok=false for a bodiless shorthand
// declaration (`declare module "foo";`).
func moduleBlockBody(text string) (string, bool) {
	open := strings.Index(text, "{")
	close := strings.LastIndex(text, "}")
	if open == -1 || close <= open {
		return "", false
	}
	return text[open+1 : close], true
}

// TopLevelStatements returns the text of every top-level statement in an
// already-pre-processed declaration file, in source order. The bundle
// composer uses this to walk a module's canonical form statement by
// statement when stripping import/export declarations, rather than
// re-parsing with its own tree-sitter query.
func TopLevelStatements(code []byte) ([]string, error) {
	stmts, err := splitTopLevelStatements(code)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(stmts))
	for i, st := range stmts {
		out[i] = st.text
	}
	return out, nil
}
