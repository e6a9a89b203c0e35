// Package commands implements the pincrawl command line interface.
package commands

import (
	"github.com/spf13/cobra"

	"pincrawl/internal/config"
	"pincrawl/internal/logging"
	"pincrawl/internal/storage"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pincrawl",
	Short: "Crawl, scrape and identify pinball machine classified ads",
	Long: `pincrawl tracks pinball machine classified ads through a three stage
pipeline: crawl discovers ad URLs from marketplace search pages, scrape
fetches their content, and identify extracts listing details and resolves
each machine against the OPDB catalog.

Each stage is idempotent and safe to re-run; interrupted runs are picked
up where they left off.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	defer logging.CloseLogging()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(adsCmd)
	rootCmd.AddCommand(productsCmd)
}

// loadConfig loads and validates the configuration shared by all subcommands.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured database and applies pending migrations.
func openStore(cfg *config.Config) (*storage.SQLStore, error) {
	return storage.New(cfg)
}
