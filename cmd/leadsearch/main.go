// Package main is the entry point for the leadsearch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/luminate-data/leadsearch/internal/config"
	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadsearch",
		Short: "Hybrid lead search over zipped tabular datasets",
		Long: `Leadsearch ingests zipped CSV/XLSX lead datasets into a searchable
store and answers free-text queries by fusing full-text and semantic
vector retrieval.`,
	}

	cmd.AddCommand(ingestCmd())
	cmd.AddCommand(vectorizeCmd())
	cmd.AddCommand(searchCmd())
	cmd.AddCommand(statusCmd())
	cmd.AddCommand(datasetsCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
