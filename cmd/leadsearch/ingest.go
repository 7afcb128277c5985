package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luminate-data/leadsearch/application/service"
	"github.com/luminate-data/leadsearch/domain/ingest"
	"github.com/luminate-data/leadsearch/domain/lead"
	"github.com/luminate-data/leadsearch/infrastructure/tracking"
)

func ingestCmd() *cobra.Command {
	var (
		envFile      string
		dataset      string
		pattern      string
		aliasFile    string
		required     []string
		rowLimit     int64
		deferVectors bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <archive.zip>",
		Short: "Ingest a zipped lead dataset",
		Long: `Ingest streams the CSV/XLSX members of a zip archive into the store
and the vector index. Files recorded as complete in a previous run are
skipped, so an interrupted run can simply be restarted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApp(ctx, envFile)
			if err != nil {
				return err
			}
			defer app.Close()

			opts := []service.RunOption{service.WithPattern(pattern)}
			if rowLimit > 0 {
				opts = append(opts, service.WithRowLimit(rowLimit))
			}
			if deferVectors {
				opts = append(opts, service.WithDeferredVectors())
			}
			if aliasFile != "" {
				aliases, err := lead.LoadAliases(aliasFile)
				if err != nil {
					return err
				}
				opts = append(opts, service.WithAliases(aliases))
			}
			if len(required) > 0 {
				fields := make([]lead.Field, len(required))
				for i, r := range required {
					fields[i] = lead.Field(r)
				}
				opts = append(opts, service.WithRequiredFields(fields...))
			}

			progress := tracking.NewStatusWriter(app.cfg.StatusPath(), app.logger)
			svc := service.NewIngest(
				app.leads, app.ledger, app.meta, app.vectors, app.domainEmbedder(), progress,
				app.cfg.BatchSize(), app.cfg.BatchRetries(), app.cfg.FlushEvery(),
				app.logger,
			)

			report, err := svc.Run(ctx, args[0], dataset, opts...)
			printRunReport(cmd, report)
			return err
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset identifier for the ingested rows (required)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob selecting archive members by base name (default: all)")
	cmd.Flags().StringVar(&aliasFile, "aliases", "", "YAML file with extra column aliases for this dataset")
	cmd.Flags().StringSliceVar(&required, "require", nil, "Fields a row must map for it to be stored")
	cmd.Flags().Int64Var(&rowLimit, "limit", 0, "Stop after storing this many rows (sampling; 0 = unlimited)")
	cmd.Flags().BoolVar(&deferVectors, "defer-vectors", false, "Store rows without embedding; run vectorize later")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func printRunReport(cmd *cobra.Command, report ingest.RunReport) {
	cmd.Printf("files: %d completed, %d failed, %d skipped\n",
		report.Completed(), report.Failed(), report.Skipped())
	cmd.Printf("rows:  %d stored, %d schema errors\n", report.Rows(), report.RowErrors())

	for _, f := range report.Files() {
		switch {
		case f.State() == ingest.StateFailed:
			cmd.Printf("  failed %s: %s\n", f.FileName(), f.Failure())
		case f.State() == ingest.StateCompleted && f.Failure() != "":
			cmd.Printf("  %s stored without vectors, run vectorize: %s\n", f.FileName(), f.Failure())
		}
	}
}

func vectorizeCmd() *cobra.Command {
	var (
		envFile string
		rebuild bool
	)

	cmd := &cobra.Command{
		Use:   "vectorize",
		Short: "Embed stored rows the vector index does not cover yet",
		Long: `Vectorize appends embeddings for rows above the vectorization
watermark. Use it after an ingest run with --defer-vectors, or to repair
the index after a crash between a batch commit and its vector append.

With --rebuild the watermark resets and every row is re-embedded; delete
the index directory first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApp(ctx, envFile)
			if err != nil {
				return err
			}
			defer app.Close()

			svc := service.NewVectorize(
				app.leads, app.meta, app.vectors, app.domainEmbedder(),
				app.cfg.BatchSize(), app.cfg.FlushEvery(),
				app.logger,
			)

			appended, err := svc.Run(ctx, rebuild)
			if err != nil {
				return err
			}
			cmd.Printf("appended %d vectors (index now holds %d)\n", appended, app.vectors.Count())
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Re-embed every row from scratch (requires an empty index directory)")

	return cmd
}
