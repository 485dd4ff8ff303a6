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

// Package cmd is the CLI surface: a thin cobra+viper layer that
// translates flags and the project config file into an
// orchestrator.Config and drives one build.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/dtsroll/buildpkg"
	"bennypowers.dev/dtsroll/internal/logging"
)

// rootCmd holds only the flags shared by every subcommand; the build
// itself lives in buildCmd.
var rootCmd = &cobra.Command{
	Use:          "dtsroll",
	Short:        "Bundle TypeScript declaration files emitted by tsc into one .d.ts per entry point",
	Version:      Version,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(buildpkg.ExitCodeFor(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("project", "p", "", "path to the project directory (default: current working directory)")
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "enable debug logging")
	viper.BindPFlag("projectDir", rootCmd.PersistentFlags().Lookup("project"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig resolves the project directory and loads dtsroll.config.yaml
// (or .json) from it. Flags and DTSROLL_-prefixed environment variables
// both override whatever the config file sets, via viper's normal
// precedence.
func initConfig() {
	projectDir := viper.GetString("projectDir")
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			pterm.Fatal.Printf("unable to determine working directory: %v", err)
		}
		projectDir = cwd
	}
	abs, err := filepath.Abs(expandPath(projectDir))
	if err != nil {
		pterm.Fatal.Printf("invalid --project: %v", err)
	}
	viper.Set("projectDir", abs)

	viper.SetEnvPrefix("DTSROLL")
	viper.AutomaticEnv()

	viper.AddConfigPath(abs)
	viper.SetConfigName("dtsroll.config")
	if err := viper.ReadInConfig(); err != nil {
		logging.Debug("no dtsroll.config.{yaml,json} found in %s, using defaults: %v", abs, err)
	}

	if viper.GetBool("verbose") {
		logging.SetDebugEnabled(true)
	}
}

// expandPath resolves a leading "~" to the user's home directory.
func expandPath(p string) string {
	if p == "~" || len(p) > 1 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		if p == "~" {
			return home
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
