// Package cmd is the command line surface of the timetable engine.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/manvalan/fdc-railway-engine/config"
)

var (
	cfgPath     string
	networkPath string
)

var rootCmd = &cobra.Command{
	Use:   "fdc-rail",
	Short: "Railway timetable conflict resolution engine",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (json or yaml)")
	rootCmd.PersistentFlags().StringVarP(&networkPath, "network", "n", "network.rail", "network document")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configured file, or the defaults when no file was
// given. FDC_ environment variables still override file values.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		if _, err := os.Stat("engine.yaml"); err == nil {
			return config.Load("engine.yaml")
		}
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}
