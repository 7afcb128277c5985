package main

import (
	"encoding/json"
	"errors"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/luminate-data/leadsearch/infrastructure/tracking"
)

func statusCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the progress of the last ingestion run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}

			doc, err := tracking.ReadStatus(cfg.StatusPath())
			if errors.Is(err, os.ErrNotExist) {
				cmd.Println("no ingestion run recorded yet")
				return nil
			}
			if err != nil {
				return err
			}

			raw, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(raw))
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}

func datasetsCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List ingested datasets and their row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, envFile)
			if err != nil {
				return err
			}
			defer app.Close()

			counts, err := app.leads.Datasets(ctx)
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				cmd.Println("no datasets ingested yet")
				return nil
			}

			names := make([]string, 0, len(counts))
			for name := range counts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				cmd.Printf("%s\t%d\n", name, counts[name])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}
