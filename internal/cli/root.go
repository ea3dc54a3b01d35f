package cli

import (
	"github.com/example/ciid/internal/config"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// Execute builds the root command tree and runs the CLI.
func Execute() error {
	loader := &config.Loader{ConfigPath: config.DefaultConfigPath}
	rootOpts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "ciid",
		Short:         "Detect ambient OIDC credentials in CI systems",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("ciid version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&rootOpts.ConfigPath, "config", config.DefaultConfigPath, "Path to ciid.config.yml (optional)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if rootOpts.ConfigPath != "" {
			loader.ConfigPath = rootOpts.ConfigPath
		}
	}

	rootCmd.AddCommand(
		newTokenCmd(loader),
		newDoctorCmd(loader),
	)

	return rootCmd.Execute()
}

type rootOptions struct {
	ConfigPath string
}
