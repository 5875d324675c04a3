// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/accepted-papers/internal/export"
	"github.com/pdiddy/accepted-papers/internal/index"
	"github.com/pdiddy/accepted-papers/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find stored papers whose abstracts are similar to a query",
	Long: `Search embeds the query text and returns the stored papers whose abstract
embeddings have a certainty of at least --min-similarity, most similar
first. Certainty is (1+cos)/2 of the two embeddings, so 0.5 means
unrelated and 1 means identical. Papers are stored by "scrape --index".

Papers embedded with a different dimension than the current
embedder.model are skipped with a warning. Run "clear" and re-index
after changing models.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.IntP("limit", "n", index.DefaultLimit, "maximum number of results")
	f.Float64("min-similarity", index.DefaultMinSimilarity, "certainty floor between 0 and 1")
	f.String("format", "text", "output format: text, csv, json, or yaml")

	mustBind("search.limit", f.Lookup("limit"))
	mustBind("search.min_similarity", f.Lookup("min-similarity"))

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	formatFlag, _ := cmd.Flags().GetString("format")
	var format types.ExportFormat
	if formatFlag != "text" {
		if format, err = export.ParseFormat(formatFlag); err != nil {
			return err
		}
	}

	ix, closeIndex, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIndex()

	results, err := ix.Search(ctx, query, cfg.Search.Limit, cfg.Search.MinSimilarity)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format != "" {
		return export.WriteResults(out, format, results)
	}
	printResults(out, results)
	return nil
}

func printResults(w io.Writer, results []types.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No papers matched.")
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "%d. %s (score %.4f)\n", i+1, r.Title, r.Score)
		fmt.Fprintf(w, "   %s\n", r.SourceURL)
		if r.Abstract != "" {
			fmt.Fprintf(w, "   %s\n", truncate(r.Abstract, 300))
		}
	}
}

func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
