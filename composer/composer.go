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

// Package composer turns a module graph into a single, self-contained
// declaration file: topological ordering, cross-module identifier
// conflict resolution, import/export stripping and merging,
// concatenation, and a final post-process pass.
package composer

import (
	"fmt"
	"strings"

	"bennypowers.dev/dtsroll/buildpkg"
	"bennypowers.dev/dtsroll/modulegraph"
	"bennypowers.dev/dtsroll/processor"
	"bennypowers.dev/dtsroll/set"
)

// Compose assembles the module graph reachable from entry into a single
// declaration file, per the topo-sort / conflict-detection /
// rename-allocation / per-module-rewrite / accumulation / merge /
// export-resolution / assembly / post-process pipeline.
func Compose(graph *modulegraph.Graph, entry string) (*BundledDeclaration, error) {
	order := topoSort(graph, entry)
	renames := allocateRenames(graph)

	var bodies []string
	var externalImports []string
	var typeExports, valueExports []string

	var fileRefs, typeRefs []string
	seenFileRef := map[string]bool{}
	seenTypeRef := map[string]bool{}

	allDeclarations := map[string]bool{}

	for _, path := range order {
		mod, ok := graph.Modules[path]
		if !ok {
			continue
		}

		dc, err := stripImportsExports(graph, mod, graph.BundledSpecifiers[path], renames)
		if err != nil {
			return nil, buildpkg.WrapBundle(err)
		}

		for _, ref := range mod.FileReferences {
			if !seenFileRef[ref] {
				seenFileRef[ref] = true
				fileRefs = append(fileRefs, ref)
			}
		}
		for _, ref := range mod.TypeReferences {
			if !seenTypeRef[ref] {
				seenTypeRef[ref] = true
				typeRefs = append(typeRefs, ref)
			}
		}

		externalImports = append(externalImports, dc.ExternalImports...)

		if strings.TrimSpace(dc.Code) != "" {
			bodies = append(bodies, dc.Code)
		}

		for name := range mod.Identifiers.Types {
			allDeclarations[applyRename(name, path, renames)] = true
		}
		for name := range mod.Identifiers.Values {
			allDeclarations[applyRename(name, path, renames)] = true
		}

		// node_modules modules contribute their code to the bundle (their
		// declarations may be referenced by project modules that import
		// them) but not to the aggregate export list: only the project's
		// own entry-reachable modules decide what the bundle exposes.
		if modulegraph.IsNodeModulesPath(path) {
			continue
		}
		typeExports = append(typeExports, dc.TypeExports...)
		valueExports = append(valueExports, dc.ValueExports...)
	}

	valueSet := set.NewSet(valueExports...)
	typeSet := set.Set[string]{}
	for _, name := range typeExports {
		if !valueSet.Has(name) { // value exports dominate a same-named type
			typeSet.Add(name)
		}
	}

	sortedValueExports := set.SortedMembers(valueSet)
	sortedTypeExports := set.SortedMembers(typeSet)

	var sections []string
	if len(fileRefs) > 0 || len(typeRefs) > 0 {
		var refLines []string
		for _, ref := range fileRefs {
			refLines = append(refLines, fmt.Sprintf(`/// <reference path="%s" />`, ref))
		}
		for _, ref := range typeRefs {
			refLines = append(refLines, fmt.Sprintf(`/// <reference types="%s" />`, ref))
		}
		sections = append(sections, strings.Join(refLines, "\n"))
	}

	if merged := mergeExternalImports(externalImports); len(merged) > 0 {
		sections = append(sections, strings.Join(merged, "\n"))
	}

	sections = append(sections, bodies...)

	if len(sortedValueExports) > 0 {
		sections = append(sections, fmt.Sprintf("export { %s };", strings.Join(sortedValueExports, ", ")))
	}
	if len(sortedTypeExports) > 0 {
		sections = append(sections, fmt.Sprintf("export type { %s };", strings.Join(sortedTypeExports, ", ")))
	}

	assembled := strings.Join(sections, "\n\n") + "\n"
	final := processor.PostProcess([]byte(assembled))

	exports := append(append([]string{}, sortedValueExports...), sortedTypeExports...)

	return &BundledDeclaration{
		Code:            final,
		Exports:         exports,
		AllDeclarations: allDeclarations,
	}, nil
}
