package main

import (
	"fmt"
	"os"

	"github.com/kasuganosora/itemvault/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "itemvault",
	Short: "Item, user and inventory storage service",
	Long: `itemvault stores typed game items under one shared id space,
together with users and the quantities of items each user holds.
Running it without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config/config.yaml", "config file (empty for defaults and environment only)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig reads --config. A missing file is only an error when the flag
// was given explicitly; the default path falls back to defaults and env.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) && !cmd.Flags().Changed("config") {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
