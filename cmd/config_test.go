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
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/dtsroll/cmd/config"
)

func TestConfig_MarshalsToReadableYAML(t *testing.T) {
	cfg := config.Default()
	cfg.ProjectDir = "/home/dev/project"
	cfg.EntryPoints = config.EntryPointsConfig{"index": "src/index.ts"}

	out, err := yaml.Marshal(cfg)
	assert.NoError(t, err)

	var roundTripped config.BuildConfig
	assert.NoError(t, yaml.Unmarshal(out, &roundTripped))
	assert.Equal(t, cfg.OutDir, roundTripped.OutDir)
	assert.Equal(t, cfg.EntryPoints, roundTripped.EntryPoints)
	assert.Equal(t, cfg.ProjectDir, roundTripped.ProjectDir)
}
