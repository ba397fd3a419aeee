package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatmark/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		path, _ := config.GetConfigPath()
		fmt.Printf("Config file: %s\n\n", path)
		fmt.Printf("render.debounce_ms: %d\n", cfg.Render.DebounceMS)
		fmt.Printf("render.width:       %d\n", cfg.Render.Width)
		fmt.Printf("render.cache_size:  %d\n", cfg.Render.CacheSize)
		fmt.Printf("citations.enabled:  %v\n", cfg.Citations.Enabled)
		if cfg.Theme.Primary != "" {
			fmt.Printf("theme.primary:      %s\n", cfg.Theme.Primary)
		}
		return nil
	},
}
