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

package transpiler

import (
	"os"
	"regexp"
	"strconv"
)

var envPlaceholderRe = regexp.MustCompile(`\$\{process\.env\.([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces every `${process.env.NAME}` placeholder in raw with
// the value of the NAME environment variable (empty string if unset).
func expandEnv(raw string) string {
	return envPlaceholderRe.ReplaceAllStringFunc(raw, func(m string) string {
		name := envPlaceholderRe.FindStringSubmatch(m)[1]
		return os.Getenv(name)
	})
}

// buildDefine turns a build config's raw env map into an esbuild Define
// map: each value is expanded against the ambient environment, then
// quoted as a string literal, and keyed so references to
// `import.meta.env.KEY` in source are replaced at build time.
func buildDefine(env map[string]string) map[string]string {
	if len(env) == 0 {
		return nil
	}
	define := make(map[string]string, len(env))
	for key, raw := range env {
		define["import.meta.env."+key] = strconv.Quote(expandEnv(raw))
	}
	return define
}
