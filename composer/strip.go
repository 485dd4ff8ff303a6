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
	"regexp"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"bennypowers.dev/dtsroll/modulegraph"
	"bennypowers.dev/dtsroll/processor"
	"bennypowers.dev/dtsroll/queries"
	"bennypowers.dev/dtsroll/set"
)

var (
	importStmtRe     = regexp.MustCompile(`^import\b`)
	importSpecRe     = regexp.MustCompile(`from\s+(['"])([^'"]*)['"]\s*;?\s*$`)
	sideEffectSpecRe = regexp.MustCompile(`^import\s+(['"])([^'"]*)['"]\s*;?\s*$`)
	exportFromStmtRe = regexp.MustCompile(`^export\s+(type\s+)?(\*(?:\s+as\s+[A-Za-z_$][\w$]*)?|\{[^}]*\})\s+from\s+`)
	exportClauseRe   = regexp.MustCompile(`^export\s+(type\s+)?\{([^}]*)\}\s*;?\s*$`)
	exportDefaultRe  = regexp.MustCompile(`^export\s+default\s+([A-Za-z_$][\w$]*)\s*;?\s*$`)
)

// stripImportsExports rewrites one module's canonical code into the
// composer's per-module intermediate form: import declarations whose
// targets were pulled into the graph are dropped, declarations whose
// targets were not are kept verbatim as external imports, the aggregated
// export clause and default-export statement are stripped into typed
// export lists, and every remaining statement has this module's own
// conflicting identifiers renamed per renames.
func stripImportsExports(g *modulegraph.Graph, mod *modulegraph.ModuleInfo, bundledSpecs []string, renames map[string]string) (DeclarationCode, error) {
	bundled := set.NewSet(bundledSpecs...)

	stmts, err := processor.TopLevelStatements(mod.Code)
	if err != nil {
		return DeclarationCode{}, err
	}

	var kept []string
	var externalImports []string
	var typeExports []string
	var valueExports []string

	for _, text := range stmts {
		switch {
		case importStmtRe.MatchString(text):
			spec, ok := importSpecifier(text)
			if ok && bundled.Has(spec) {
				continue // target is bundled into the graph; drop entirely
			}
			externalImports = append(externalImports, text)

		case exportFromStmtRe.MatchString(text):
			// Re-export target is already bundled (its declarations are
			// concatenated directly) or external (nothing further to do
			// here); either way the re-export clause itself is dropped.
			continue

		case exportClauseRe.MatchString(text):
			m := exportClauseRe.FindStringSubmatch(text)
			typeOnly := m[1] != ""
			for _, name := range splitExportedNames(m[2]) {
				renamed := applyRename(name, mod.Path, renames)
				if typeOnly || isTypeName(g, mod, name) {
					typeExports = append(typeExports, renamed)
				} else {
					valueExports = append(valueExports, renamed)
				}
			}

		case exportDefaultRe.MatchString(text):
			m := exportDefaultRe.FindStringSubmatch(text)
			valueExports = append(valueExports, applyRename(m[1], mod.Path, renames))

		default:
			kept = append(kept, renameOwnIdentifiers(text, mod, renames))
		}
	}

	return DeclarationCode{
		Code:            strings.Join(kept, "\n"),
		ExternalImports: externalImports,
		TypeExports:     typeExports,
		ValueExports:    valueExports,
	}, nil
}

func importSpecifier(text string) (string, bool) {
	if m := importSpecRe.FindStringSubmatch(text); m != nil {
		return m[2], true
	}
	if m := sideEffectSpecRe.FindStringSubmatch(text); m != nil {
		return m[2], true
	}
	return "", false
}

// splitExportedNames splits a standalone export clause's inner name list
// ("a, b as c") into local binding names, discarding any `as` alias
// target (the local declaration keeps its own name; the alias is dropped,
// and the bundle's export clause lists the local name).
func splitExportedNames(inner string) []string {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		local := strings.TrimSpace(regexp.MustCompile(`\s+as\s+.*$`).ReplaceAllString(part, ""))
		names = append(names, local)
	}
	return names
}

// isTypeName reports whether name is classified as type-only. The
// module's own identifier map is authoritative; a name absent from both
// local sets (re-exporting a binding imported from elsewhere rather than
// declared locally) is looked up through the module's bundled imports,
// so `export { User }` of a User imported from a bundled interface-only
// module still lands in the type-exports list. A name no bundled module
// declares defaults to a value export.
func isTypeName(g *modulegraph.Graph, mod *modulegraph.ModuleInfo, name string) bool {
	visited := map[string]bool{}
	var classify func(m *modulegraph.ModuleInfo) (isType, found bool)
	classify = func(m *modulegraph.ModuleInfo) (bool, bool) {
		if visited[m.Path] {
			return false, false
		}
		visited[m.Path] = true
		if m.Identifiers.Values.Has(name) {
			return false, true
		}
		if m.Identifiers.Types.Has(name) {
			return true, true
		}
		for _, dep := range m.Imports {
			if depMod, ok := g.Modules[dep]; ok {
				if isType, found := classify(depMod); found {
					return isType, true
				}
			}
		}
		return false, false
	}
	isType, _ := classify(mod)
	return isType
}

// renameOwnIdentifiers rewrites every occurrence of mod's own conflicting
// declared names within text. Only names this module itself declares are
// considered: an identifier merely referencing an import binding is left
// alone, since stripping that import leaves the bare name to resolve, via
// ordinary declaration merging in the assembled file, against whichever
// module's declaration happens to sit at that name in the final bundle.
func renameOwnIdentifiers(text string, mod *modulegraph.ModuleInfo, renames map[string]string) string {
	applicable := map[string]string{}
	for name := range mod.Identifiers.Types {
		if renamed, ok := renames[renameKey(name, mod.Path)]; ok {
			applicable[name] = renamed
		}
	}
	for name := range mod.Identifiers.Values {
		if renamed, ok := renames[renameKey(name, mod.Path)]; ok {
			applicable[name] = renamed
		}
	}
	if len(applicable) == 0 {
		return text
	}
	return renameIdentifierNodes(text, applicable)
}

// renameIdentifierNodes parses text and rewrites only identifier and
// type-identifier nodes whose text matches a rename, applying the edits
// in descending position order. Walking the tree keeps property names,
// string-literal types, and other non-identifier text that happens to
// spell a renamed name untouched.
func renameIdentifierNodes(text string, renames map[string]string) string {
	src := []byte(text)
	parser := queries.RetrieveTypeScriptParser()
	defer queries.PutTypeScriptParser(parser)

	tree := parser.Parse(src, nil)
	if tree == nil {
		return text
	}
	defer tree.Close()

	type span struct {
		start, end  uint
		replacement string
	}
	var edits []span

	var walk func(node *ts.Node)
	walk = func(node *ts.Node) {
		switch node.GrammarName() {
		case "identifier", "type_identifier":
			if renamed, ok := renames[node.Utf8Text(src)]; ok {
				edits = append(edits, span{node.StartByte(), node.EndByte(), renamed})
			}
			return
		}
		for i := range int(node.ChildCount()) {
			if child := node.Child(uint(i)); child != nil {
				walk(child)
			}
		}
	}
	walk(tree.RootNode())

	out := append([]byte(nil), src...)
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		rest := append([]byte(e.replacement), out[e.end:]...)
		out = append(out[:e.start], rest...)
	}
	return string(out)
}
