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
	"fmt"
	"regexp"
	"strings"

	"bennypowers.dev/dtsroll/queries"
)

var tripleSlashRe = regexp.MustCompile(`(?m)^[ \t]*///[ \t]*<reference[ \t]+(types|path)=["']([^"']*)["'][ \t]*/>[ \t]*\r?\n?`)

// extractTripleSlashDirectives removes every `/// <reference .../>` line
// from source, returning the directive targets bucketed by kind and the
// source with those lines removed.
func extractTripleSlashDirectives(source []byte) (typeRefs, fileRefs []string, stripped []byte) {
	buf := newEditBuffer(source)
	for _, m := range tripleSlashRe.FindAllSubmatchIndex(source, -1) {
		start, end := uint(m[0]), uint(m[1])
		kind := string(source[m[2]:m[3]])
		target := string(source[m[4]:m[5]])
		switch kind {
		case "types":
			typeRefs = append(typeRefs, target)
		case "path":
			fileRefs = append(fileRefs, target)
		}
		buf.remove(start, end)
	}
	return typeRefs, fileRefs, buf.apply()
}

var inlineImportStartRe = regexp.MustCompile(`import\s*\(`)
var quotedLiteralRe = regexp.MustCompile(`^\s*(['"])([^'"]*)['"]\s*$`)
var nonIdentCharRe = regexp.MustCompile(`[^A-Za-z0-9_$]+`)

// inlineImportOccurrence is one `import(...)` span found in the source,
// with argStart/argEnd addressing the parenthesized argument text.
type inlineImportOccurrence struct {
	start, end       int // the whole `import(...)` span, exclusive end
	argStart, argEnd int
}

// findInlineImports scans for `import(` tokens and, for each, walks
// forward counting paren depth (skipping string/template literal
// contents) to find the true matching close paren. A plain regex with a
// `[^()]*` argument body would fail to even recognize an argument
// containing a nested call such as `import(someExpr())`, silently letting
// unsupported syntax through instead of flagging it.
func findInlineImports(source []byte) []inlineImportOccurrence {
	var occurrences []inlineImportOccurrence
	for _, loc := range inlineImportStartRe.FindAllIndex(source, -1) {
		openParen := loc[1] - 1
		depth := 0
		argStart := openParen + 1
		inString := byte(0)
		end := -1
		for i := openParen; i < len(source); i++ {
			c := source[i]
			if inString != 0 {
				if c == '\\' {
					i++
				} else if c == inString {
					inString = 0
				}
				continue
			}
			switch c {
			case '\'', '"', '`':
				inString = c
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = i + 1
					break
				}
			}
			if end != -1 {
				break
			}
		}
		if end == -1 {
			continue
		}
		occurrences = append(occurrences, inlineImportOccurrence{
			start: loc[0], end: end, argStart: argStart, argEnd: end - 1,
		})
	}
	return occurrences
}

// resolveInlineImports rewrites every inline `import("<spec>").X` type
// reference into `<synthName>.X`, synthesizing one top-level
// `import * as <synthName> from "<spec>";` per distinct spec. Returns the
// synthetic import statements in first-use order.
func resolveInlineImports(source []byte, path string, reserved map[string]bool) ([]byte, []string, error) {
	occurrences := findInlineImports(source)
	if len(occurrences) == 0 {
		return source, nil, nil
	}

	buf := newEditBuffer(source)
	specToName := make(map[string]string)
	var order []string

	for _, occ := range occurrences {
		arg := string(source[occ.argStart:occ.argEnd])
		sub := quotedLiteralRe.FindStringSubmatch(arg)
		if sub == nil {
			return nil, nil, &UnsupportedSyntaxError{
				Path:   path,
				Detail: fmt.Sprintf("inline import() argument %q is not a string literal", strings.TrimSpace(arg)),
			}
		}
		spec := sub[2]

		name, ok := specToName[spec]
		if !ok {
			name = synthesizeImportName(spec, reserved)
			specToName[spec] = name
			reserved[name] = true
			order = append(order, spec)
		}
		buf.replace(uint(occ.start), uint(occ.end), name)
	}

	stmts := make([]string, 0, len(order))
	for _, spec := range order {
		stmts = append(stmts, fmt.Sprintf("import * as %s from %q;", specToName[spec], spec))
	}
	return buf.apply(), stmts, nil
}

// synthesizeDefaultName names an anonymous default export, prefixing
// underscores until the name no longer collides with one the file already
// declares.
func synthesizeDefaultName(reserved map[string]bool) string {
	name := "export_default"
	for reserved[name] {
		name = "_" + name
	}
	return name
}

func synthesizeImportName(spec string, reserved map[string]bool) string {
	base := nonIdentCharRe.ReplaceAllString(spec, "_")
	base = strings.Trim(base, "_")
	if base == "" {
		base = "mod"
	}
	if base[0] >= '0' && base[0] <= '9' {
		base = "_" + base
	}
	name := base
	for i := 1; reserved[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return name
}

// topLevelKeywordRe classifies a top-level statement's leading modifiers
// and declaration keyword. Capture groups: 1=export-default prefix (may be
// empty; a plain `export` prefix is consumed without capture), 2=declare
// prefix, 3=declaration keyword, 4=declared name (identifier, absent for
// anonymous default exports).
var topLevelKeywordRe = regexp.MustCompile(
	`^(export\s+default\s+)?(?:export\s+)?(declare\s+)?(abstract\s+class|class|function\*?|enum|namespace|module|interface|type|const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)?`,
)

var exportPrefixRe = regexp.MustCompile(`^export\s+default\s+|^export\s+`)
var leadingDeclareRe = regexp.MustCompile(`^declare\s+`)

// declareEligible reports whether a declaration keyword requires a
// synthesized `declare` modifier (everything except interface/type, which
// never carry one).
func declareEligible(keyword string) bool {
	switch keyword {
	case "interface", "type":
		return false
	default:
		return true
	}
}

func isVariableKeyword(keyword string) bool {
	return keyword == "const" || keyword == "let" || keyword == "var"
}

// statement is the text of one top-level node of a parsed declaration
// file, taken from the (already triple-slash-stripped,
// inline-import-resolved) source.
type statement struct {
	text string
}

func splitTopLevelStatements(source []byte) ([]statement, error) {
	parser := queries.RetrieveTypeScriptParser()
	defer queries.PutTypeScriptParser(parser)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("dtsroll: failed to parse declaration source")
	}
	defer tree.Close()

	root := tree.RootNode()
	stmts := make([]statement, 0, int(root.ChildCount()))
	for i := range int(root.ChildCount()) {
		child := root.Child(uint(i))
		if child == nil {
			continue
		}
		text := strings.TrimSpace(child.Utf8Text(source))
		if text == "" {
			continue
		}
		stmts = append(stmts, statement{text: text})
	}
	return stmts, nil
}

type rewrittenStatement struct {
	name string // declared name, "" if none/unknown
	text string
}

// PreProcess canonicalizes a raw declaration file per the ten rewrite
// steps: triple-slash extraction, modifier normalization, exported-name
// capture, variable-statement splitting, inline import() resolution,
// import/export-clause sanitation, namespace-export duplication,
// name-range reordering, and a trailing aggregated export statement.
func PreProcess(path string, source []byte) (*CachedDeclaration, error) {
	typeRefs, fileRefs, stripped := extractTripleSlashDirectives(source)

	reserved := map[string]bool{}
	resolved, syntheticImports, err := resolveInlineImports(stripped, path, reserved)
	if err != nil {
		return nil, err
	}

	stmts, err := splitTopLevelStatements(resolved)
	if err != nil {
		return nil, err
	}

	// Declared names reserve their spelling up front, so a synthesized
	// default-export name can be de-conflicted against every declaration
	// in the file, not just those seen before it.
	for _, st := range stmts {
		if m := topLevelKeywordRe.FindStringSubmatch(st.text); m != nil && m[4] != "" {
			reserved[m[4]] = true
		}
	}

	var exportedNames []string
	var defaultName string
	var groups []*rewrittenStatement
	groupIndex := map[string]int{}

	for _, st := range stmts {
		text := st.text

		if strings.HasPrefix(text, "import") && !strings.HasPrefix(text, "import(") {
			text = sanitizeImportClause(text)
			groups = append(groups, &rewrittenStatement{text: text})
			continue
		}
		if strings.HasPrefix(text, "export") && !isDeclarationExport(text) {
			text, names, isDefault, exprDefault := sanitizeExportClause(text, reserved)
			if isDefault {
				defaultName = exprDefault
			}
			exportedNames = append(exportedNames, names...)
			if text != "" {
				groups = append(groups, &rewrittenStatement{text: text})
			}
			continue
		}

		m := topLevelKeywordRe.FindStringSubmatch(text)
		if m == nil {
			// Not a recognized top-level declaration (e.g. an ambient
			// `declare global { ... }` block, or a bare expression
			// statement) — passed through unchanged.
			groups = append(groups, &rewrittenStatement{text: text})
			continue
		}

		isDefaultExport := m[1] != ""
		isExported := isDefaultExport || strings.HasPrefix(exportPrefixRe.FindString(text), "export")
		keyword := m[3]
		name := m[4]

		body := exportPrefixRe.ReplaceAllString(text, "")
		body = leadingDeclareRe.ReplaceAllString(body, "")

		if isDefaultExport {
			dn := name
			if dn == "" && !isVariableKeyword(keyword) {
				dn = synthesizeDefaultName(reserved)
				reserved[dn] = true
				// Anonymous default export (`export default class {}`):
				// splice the synthesized name in right after the
				// declaration keyword so the emitted declaration is
				// nameable and the trailing `export default <dn>;` is
				// valid.
				kwEnd := strings.Index(body, keyword) + len(keyword)
				body = body[:kwEnd] + " " + dn + body[kwEnd:]
			}
			defaultName = dn
		} else if isExported {
			if isVariableKeyword(keyword) {
				for _, decl := range splitVariableDeclarators(body[len(keyword):]) {
					declaredName := strings.TrimSpace(strings.SplitN(decl, ":", 2)[0])
					declaredName = strings.TrimSpace(strings.SplitN(declaredName, "=", 2)[0])
					exportedNames = append(exportedNames, declaredName)
				}
			} else if name != "" {
				exportedNames = append(exportedNames, name)
			}
		}

		if declareEligible(keyword) && !strings.HasPrefix(body, "declare ") {
			body = "declare " + body
		}

		if isVariableKeyword(keyword) {
			rest := strings.TrimSpace(body[len("declare "+keyword):])
			rest = strings.TrimSuffix(rest, ";")
			for _, decl := range splitVariableDeclarators(rest) {
				stmtText := fmt.Sprintf("declare %s %s;", keyword, strings.TrimSpace(decl))
				declName := strings.TrimSpace(strings.SplitN(decl, ":", 2)[0])
				declName = strings.TrimSpace(strings.SplitN(declName, "=", 2)[0])
				appendGroup(&groups, groupIndex, declName, stmtText)
			}
			continue
		}

		if keyword == "namespace" || keyword == "module" {
			body = duplicateNamespaceExports(body)
		}

		// Grouping by declared name (not keyword+name) keeps merged
		// declarations such as a class and its companion namespace
		// adjacent in the output.
		groupKey := name
		if groupKey == "" {
			groupKey = fmt.Sprintf("anon#%d", len(groups))
		}
		appendGroup(&groups, groupIndex, groupKey, body)
	}

	var out []string
	out = append(out, syntheticImports...)
	for _, g := range groups {
		out = append(out, g.text)
	}
	if len(exportedNames) > 0 {
		out = append(out, fmt.Sprintf("export { %s };", strings.Join(dedupe(exportedNames), ", ")))
	}
	if defaultName != "" {
		out = append(out, fmt.Sprintf("export default %s;", defaultName))
	}

	code := strings.Join(out, "\n") + "\n"

	return &CachedDeclaration{
		Code:           []byte(code),
		TypeReferences: typeRefs,
		FileReferences: fileRefs,
	}, nil
}

func appendGroup(groups *[]*rewrittenStatement, groupIndex map[string]int, key, text string) {
	if idx, ok := groupIndex[key]; ok {
		(*groups)[idx].text += "\n" + text
		return
	}
	groupIndex[key] = len(*groups)
	*groups = append(*groups, &rewrittenStatement{name: key, text: text})
}

// isDeclarationExport reports whether a statement beginning with "export"
// is actually an exported declaration (`export class Foo {}`, `export
// default ...`) rather than a standalone export clause (`export { a, b
// };`, `export * from "x";`, `export type { T };`).
func isDeclarationExport(text string) bool {
	rest := strings.TrimPrefix(text, "export")
	rest = strings.TrimLeft(rest, " \t")
	if strings.HasPrefix(rest, "{") || strings.HasPrefix(rest, "*") || strings.HasPrefix(rest, "type {") {
		return false
	}
	return true
}

// sanitizeImportClause rewrites `import type` to `import` and strips
// inline `type` markers from a named-import list, per step 6.
func sanitizeImportClause(text string) string {
	text = regexp.MustCompile(`^import\s+type\s+`).ReplaceAllString(text, "import ")
	text = regexp.MustCompile(`\{([^}]*)\}`).ReplaceAllStringFunc(text, func(clause string) string {
		inner := clause[1 : len(clause)-1]
		parts := strings.Split(inner, ",")
		for i, p := range parts {
			p = strings.TrimSpace(p)
			p = regexp.MustCompile(`^type\s+`).ReplaceAllString(p, "")
			parts[i] = p
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	})
	return text
}

var exportFromRe = regexp.MustCompile(`^export\s+(type\s+)?(\*(?:\s+as\s+[A-Za-z_$][\w$]*)?|\{[^}]*\})\s+from\s+`)
var exportClauseOnlyRe = regexp.MustCompile(`^export\s+(type\s+)?\{([^}]*)\}\s*;?\s*$`)

// sanitizeExportClause handles standalone `export { ... }`, `export type {
// ... }`, `export * from "..."`, and `export default <expr>;` statements
// (steps 3, 7, 8). Returns the statement's replacement text (empty if it
// should be dropped, e.g. `export {};`), the names it contributes to the
// aggregated export list, whether it was `export default`, and the
// default expression's synthesized/captured name.
func sanitizeExportClause(text string, reserved map[string]bool) (replacement string, names []string, isDefault bool, defaultName string) {
	if m := regexp.MustCompile(`^export\s+default\s+(.*);?\s*$`).FindStringSubmatch(text); m != nil {
		expr := strings.TrimSpace(m[1])
		if id := regexp.MustCompile(`^[A-Za-z_$][\w$]*$`).FindString(expr); id != "" {
			return "", nil, true, id
		}
		name := synthesizeDefaultName(reserved)
		reserved[name] = true
		return fmt.Sprintf("declare const %s: %s;", name, expr), nil, true, name
	}

	if exportFromRe.MatchString(text) {
		// export ... from "spec": re-export target is resolved by the
		// module graph builder / bundle composer, not here.
		return text, nil, false, ""
	}

	if m := exportClauseOnlyRe.FindStringSubmatch(text); m != nil {
		inner := strings.TrimSpace(m[2])
		if inner == "" {
			return "", nil, false, "" // `export {};` is dropped entirely
		}
		for _, part := range strings.Split(inner, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			fields := regexp.MustCompile(`\s+as\s+`).Split(part, 2)
			local := strings.TrimSpace(fields[0])
			names = append(names, local)
		}
		return "", names, false, ""
	}

	return text, nil, false, ""
}

// splitVariableDeclarators splits a comma-separated declarator list
// (`a: number, b: { x: number, y: number }`) on top-level commas only,
// tracking bracket/brace/paren/angle depth and string literals so commas
// nested inside object/tuple/generic types are not treated as separators.
func splitVariableDeclarators(body string) []string {
	var parts []string
	depth := 0
	start := 0
	inString := byte(0)
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inString != 0 {
			if c == '\\' {
				i++
			} else if c == inString {
				inString = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			inString = c
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	last := strings.TrimSpace(body[start:])
	if last != "" {
		parts = append(parts, last)
	}
	return parts
}

var namespaceExportClauseRe = regexp.MustCompile(`export\s*\{([^}]*)\}\s*;`)

// duplicateNamespaceExports implements step 8: inside a module/namespace
// body, a bare `export { Name }` (no `as`) gets `as Name` appended so a
// later rename pass over the aggregated bundle cannot silently break the
// re-export.
func duplicateNamespaceExports(body string) string {
	return namespaceExportClauseRe.ReplaceAllStringFunc(body, func(clause string) string {
		m := namespaceExportClauseRe.FindStringSubmatch(clause)
		inner := m[1]
		parts := strings.Split(inner, ",")
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if !strings.Contains(p, " as ") {
				p = p + " as " + p
			}
			parts[i] = " " + p
		}
		return "export {" + strings.Join(parts, ",") + " };"
	})
}

func dedupe(names []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
