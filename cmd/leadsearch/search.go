package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luminate-data/leadsearch/application/service"
	"github.com/luminate-data/leadsearch/domain/search"
)

func searchCmd() *cobra.Command {
	var (
		envFile      string
		topK         int
		datasets     []string
		category     string
		minFollowers int64
		maxFollowers int64
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "search <query terms...>",
		Short: "Search leads with fused full-text and vector retrieval",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, envFile)
			if err != nil {
				return err
			}
			defer app.Close()

			if topK <= 0 {
				topK = app.cfg.SearchK()
			}

			var filterOpts []search.FiltersOption
			if category != "" {
				filterOpts = append(filterOpts, search.WithCategory(category))
			}
			if cmd.Flags().Changed("min-followers") {
				filterOpts = append(filterOpts, search.WithMinFollowers(minFollowers))
			}
			if cmd.Flags().Changed("max-followers") {
				filterOpts = append(filterOpts, search.WithMaxFollowers(maxFollowers))
			}

			svc := service.NewHybridSearch(
				app.leads, app.lexical, app.vectors, app.domainEmbedder(),
				app.fusionStrategy(), app.cfg.PathTimeout(),
				app.logger,
			)

			query := search.NewQuery(strings.Join(args, " "), topK, datasets, search.NewFilters(filterOpts...))
			results, err := svc.Search(ctx, query)
			if err != nil {
				return err
			}

			if asJSON {
				return printResultsJSON(cmd, results)
			}
			printResults(cmd, results)
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of results (default: configured search k)")
	cmd.Flags().StringSliceVar(&datasets, "dataset", nil, "Restrict to these datasets")
	cmd.Flags().StringVar(&category, "category", "", "Only leads in this category")
	cmd.Flags().Int64Var(&minFollowers, "min-followers", 0, "Only leads with at least this many followers")
	cmd.Flags().Int64Var(&maxFollowers, "max-followers", 0, "Only leads with at most this many followers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit results as JSON")

	return cmd
}

func printResults(cmd *cobra.Command, results []search.RankedLead) {
	if len(results) == 0 {
		cmd.Println("no results")
		return
	}

	for i, r := range results {
		l := r.Lead()
		cmd.Printf("%2d. [%.4f] %s", i+1, r.FusedScore(), displayName(l.Name(), l.Username()))
		if l.Title() != "" {
			cmd.Printf(" - %s", l.Title())
		}
		if l.Company() != "" {
			cmd.Printf(" @ %s", l.Company())
		}
		if l.City() != "" {
			cmd.Printf(" (%s)", l.City())
		}
		cmd.Printf("  dataset=%s id=%d\n", l.Dataset(), l.ID())
	}
}

func displayName(name, username string) string {
	if name != "" {
		return name
	}
	if username != "" {
		return username
	}
	return "(unnamed)"
}

// resultDoc is the JSON output shape of one search hit.
type resultDoc struct {
	ID           int64    `json:"id"`
	Dataset      string   `json:"dataset"`
	Name         string   `json:"name,omitempty"`
	Username     string   `json:"username,omitempty"`
	Title        string   `json:"title,omitempty"`
	Company      string   `json:"company,omitempty"`
	City         string   `json:"city,omitempty"`
	Email        string   `json:"email,omitempty"`
	FusedScore   float64  `json:"fused_score"`
	LexicalScore *float64 `json:"lexical_score,omitempty"`
	VectorScore  *float64 `json:"vector_score,omitempty"`
}

func printResultsJSON(cmd *cobra.Command, results []search.RankedLead) error {
	docs := make([]resultDoc, len(results))
	for i, r := range results {
		l := r.Lead()
		docs[i] = resultDoc{
			ID:           l.ID(),
			Dataset:      l.Dataset(),
			Name:         l.Name(),
			Username:     l.Username(),
			Title:        l.Title(),
			Company:      l.Company(),
			City:         l.City(),
			Email:        l.Email(),
			FusedScore:   r.FusedScore(),
			LexicalScore: r.LexicalScore(),
			VectorScore:  r.VectorScore(),
		}
	}

	raw, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(raw))
	return nil
}
