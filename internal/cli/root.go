package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pipewright",
	Short: "Agentic patching of CI/CD task definitions",
	Long: `Pipewright applies infrastructure change sets to CI/CD task
definitions. It scores the blast radius of each change set, patches
documents through deterministic rules or a generative proposer, and
records every decision in a persistent state store.`,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("pipewright version {{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
