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

// Package tscexec is the one production implementation of
// compilerapi.Compiler: it shells out to an installed tsc binary, since
// no TypeScript compiler is reachable from Go, the same way transpiler
// wraps esbuild as an external build tool. tsc itself stays an opaque
// subprocess — this package only adapts its stdout and its
// declaration-file output to the compilerapi.Program contract.
package tscexec

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"bennypowers.dev/dtsroll/compilerapi"
)

// Compiler invokes a real tsc binary per CreateProgram call.
type Compiler struct {
	// TscPath is the tsc executable to invoke; defaults to "tsc" on PATH.
	TscPath string
	// ProjectDir is the working directory tsc is run from.
	ProjectDir string
}

// CreateProgram returns a Program bound to opts; tsc itself has no
// long-lived in-process representation, so this is a thin wrapper that
// defers all work to Emit.
func (c Compiler) CreateProgram(opts compilerapi.ProgramOptions) (compilerapi.Program, error) {
	tscPath := c.TscPath
	if tscPath == "" {
		tscPath = "tsc"
	}
	return &program{tscPath: tscPath, projectDir: c.ProjectDir, opts: opts}, nil
}

type program struct {
	tscPath    string
	projectDir string
	opts       compilerapi.ProgramOptions
}

var diagnosticLine = regexp.MustCompile(`^(.+?)\((\d+),(\d+)\): (error|warning) TS\d+: (.+)$`)

// Emit runs tsc with --declaration --emitDeclarationOnly, parses its
// diagnostic output, and — when no error diagnostics were reported —
// walks the configured output directory writing every declaration and
// build-info file through write, exactly as a compiler's own writeFile
// callback would have done had it been invoked in-process.
func (p *program) Emit(ctx context.Context, targetSourceFile string, write compilerapi.WriteFileFunc, emitOnlyDtsFiles bool) (compilerapi.EmitResult, error) {
	args := []string{"--declaration", "--emitDeclarationOnly", "--incremental"}
	if targetSourceFile != "" {
		args = append(args, targetSourceFile)
	} else {
		args = append(args, p.opts.RootNames...)
	}

	cmd := exec.CommandContext(ctx, p.tscPath, args...)
	cmd.Dir = p.projectDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	result := compilerapi.EmitResult{Diagnostics: ParseDiagnostics(stdout.String())}
	if result.HasErrors() {
		return result, nil
	}
	if runErr != nil {
		return result, fmt.Errorf("tsc: %w: %s", runErr, strings.TrimSpace(stderr.String()))
	}

	outDir, _ := p.opts.CompilerOptions["outDir"].(string)
	if outDir == "" {
		outDir = p.projectDir
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(p.projectDir, outDir)
	}

	if err := emitDeclarations(outDir, write); err != nil {
		return result, err
	}
	return result, nil
}

// emitDeclarations walks outDir, handing every .d.ts/.d.tsx/.tsbuildinfo
// file tsc wrote to write, mirroring the in-process writeFile callback
// the real TypeScript API would have invoked during emit.
func emitDeclarations(outDir string, write compilerapi.WriteFileFunc) error {
	return filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isDeclarationOutput(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return write(path, data)
	})
}

func isDeclarationOutput(path string) bool {
	return strings.HasSuffix(path, ".d.ts") ||
		strings.HasSuffix(path, ".d.tsx") ||
		strings.HasSuffix(path, ".tsbuildinfo")
}

// ParseDiagnostics parses tsc's default human-readable diagnostic
// output, one "<file>(<line>,<col>): error|warning TS<code>: <message>"
// line per diagnostic. Lines that don't match (summary lines, blank
// lines) are ignored.
func ParseDiagnostics(output string) []compilerapi.Diagnostic {
	var diags []compilerapi.Diagnostic
	for _, line := range strings.Split(output, "\n") {
		m := diagnosticLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		lineNum, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		severity := compilerapi.SeverityError
		if m[4] == "warning" {
			severity = compilerapi.SeverityWarning
		}
		diags = append(diags, compilerapi.Diagnostic{
			Message:  m[5],
			File:     m[1],
			Line:     lineNum,
			Column:   col,
			Severity: severity,
		})
	}
	return diags
}
