// Command canvas runs and inspects infinite-canvas boards.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"brain2-canvas/internal/config"
)

const (
	flagConfigDir = "config-dir"
	flagEnv       = "env"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "canvas",
		Short: "Infinite-canvas diagram core",
		Long: `canvas hosts the interaction core of an infinite-canvas diagram editor.

It can serve a board with a debug HTTP surface, route connections between
rectangles, normalise JSON Canvas documents and replay a scripted demo.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String(flagConfigDir, "config", "Directory holding base/<env>/local config files")
	root.PersistentFlags().String(flagEnv, "", "Environment (development, staging, production); defaults to CANVAS_ENV")

	root.AddCommand(
		newServeCommand(),
		newRouteCommand(),
		newExportCommand(),
		newDemoCommand(),
	)
	return root
}

// loaderFor builds the layered config loader from the persistent flags.
func loaderFor(cmd *cobra.Command) *config.Loader {
	dir, _ := cmd.Flags().GetString(flagConfigDir)
	env, _ := cmd.Flags().GetString(flagEnv)
	environment := config.Environment(env)
	if environment == "" {
		environment = config.EnvironmentFromEnv()
	}
	return config.NewLoader(dir, environment)
}
