package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/wlcore/wlcore/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitWithFile(cfgFile); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		out, err := toml.Marshal(config.Get())
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path viper resolved the config file to",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitWithFile(cfgFile); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		fmt.Println(config.GetConfigPath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
