package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/arcanaland/corvid/internal/config"
)

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the config file path and effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.GetConfigFilePath()
		}

		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		fmt.Printf("# %s (with environment overrides)\n", path)
		return toml.NewEncoder(os.Stdout).Encode(cfg)
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
}
