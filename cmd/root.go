package cmd

import (
	"github.com/spf13/cobra"

	"github.com/arcanaland/corvid/internal/config"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "corvid",
	Short: "Murder of Crows tarot reading service",
	Long: `Corvid serves tarot readings from a YAML card database over HTTP.
It lays out Counting Crow and three card spreads, relays readings to a local
Ollama model for interpretation, and archives reading sessions as JSON files.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default $XDG_CONFIG_HOME/corvid/config.toml)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the config selected by the --config flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
