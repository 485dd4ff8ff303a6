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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/dtsroll/buildpkg"
	"bennypowers.dev/dtsroll/cmd/config"
)

// configCmd prints the fully resolved build configuration (defaults,
// dtsroll.config.yaml, flags and DTSROLL_ env vars all merged by viper)
// as YAML, so a project can see exactly what a build would run with
// without actually running one.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved build configuration",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return buildpkg.WrapConfiguration(err)
	}
	cfg.ProjectDir = viper.GetString("projectDir")

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return buildpkg.WrapConfiguration(err)
	}
	fmt.Print(string(out))
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
}
