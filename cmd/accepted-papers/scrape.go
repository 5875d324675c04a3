// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/accepted-papers/internal/export"
	"github.com/pdiddy/accepted-papers/internal/pipeline"
	"github.com/pdiddy/accepted-papers/internal/resolve"
	"github.com/pdiddy/accepted-papers/pkg/types"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <listing-url>",
	Short: "Scrape a conference listing page into a table of papers",
	Long: `Scrape resolves every arXiv link on a conference listing page (for
example https://openaccess.thecvf.com/ICCV2023?day=all), fetches each paper's
abstract and PDF text, and writes one row per paper with the columns
title, url, abstract, content.

Papers that fail to fetch are reported and skipped; use --failures to keep
the manifest. With --index the abstracts are embedded and stored for the
search command.`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.IntP("limit", "n", 0, "maximum number of papers to take from the listing (0 = all)")
	f.StringP("output", "o", "", "output file, or - for stdout (default papers.csv)")
	f.String("format", "", "output format: csv, json, or yaml (default from the output extension)")
	f.Int("concurrency", 0, "number of papers fetched at once (default 4)")
	f.Bool("abstract-only", false, "fetch abstracts only and skip PDF downloads")
	f.String("title-filter", "", "keep only papers whose title contains this text (case-insensitive)")
	f.String("failures", "", "write the failure manifest to this JSON file")
	f.Bool("index", false, "embed abstracts and store them in the vector store")
	f.Float64("rate-limit", 0, "requests per second across all fetches (default 1)")
	f.Int("max-retries", -1, "retries for transient HTTP failures (default 3)")

	mustBind("export.output", f.Lookup("output"))
	mustBind("fetcher.concurrency", f.Lookup("concurrency"))
	mustBind("fetcher.abstract_only", f.Lookup("abstract-only"))
	mustBind("http.rate_limit", f.Lookup("rate-limit"))

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	listingURL := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-retries") {
		cfg.HTTP.MaxRetries, _ = cmd.Flags().GetInt("max-retries")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	titleFilter, _ := cmd.Flags().GetString("title-filter")
	failuresPath, _ := cmd.Flags().GetString("failures")
	doIndex, _ := cmd.Flags().GetBool("index")

	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(string(cfg.Export.Format))
	if err != nil {
		return err
	}
	if formatFlag != "" {
		if format, err = export.ParseFormat(formatFlag); err != nil {
			return err
		}
	} else if cfg.Export.Output != "-" {
		format = export.FormatFromPath(cfg.Export.Output, format)
	}

	// Status lines go to stderr when the table itself goes to stdout.
	status := cmd.OutOrStdout()
	if cfg.Export.Output == "-" {
		status = cmd.ErrOrStderr()
	}

	client, fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	p := pipeline.New(
		resolve.NewListingResolver(client, cfg.Resolver),
		fetcher,
		pipeline.WithConcurrency(cfg.Fetcher.Concurrency),
		pipeline.WithLogger(logger),
		pipeline.WithOutput(status),
	)

	fmt.Fprintf(status, "Resolving %s\n", listingURL)
	result, err := p.Run(ctx, listingURL, limit)
	if err != nil {
		return err
	}

	records := export.FilterByTitle(result.Records, titleFilter)
	if titleFilter != "" {
		fmt.Fprintf(status, "Title filter %q kept %d of %d papers\n", titleFilter, len(records), len(result.Records))
	}

	if err := writeRecords(cmd.OutOrStdout(), cfg.Export.Output, format, records); err != nil {
		return err
	}
	if cfg.Export.Output != "-" {
		fmt.Fprintf(status, "Wrote %d papers to %s\n", len(records), cfg.Export.Output)
	}

	if failuresPath != "" {
		if err := export.WriteFailuresFile(failuresPath, result.Failures); err != nil {
			return err
		}
		fmt.Fprintf(status, "Wrote %d failures to %s\n", len(result.Failures), failuresPath)
	}

	if doIndex {
		ix, closeIndex, err := openIndex(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeIndex()
		if _, err := p.Index(ctx, ix, records); err != nil {
			return err
		}
	}

	if result.HasFailures() {
		logger.Warn("some papers failed", zap.Int("failed", result.Failed()), zap.Int("total", result.Total()))
		return fmt.Errorf("%d of %d paper(s) failed to fetch", result.Failed(), result.Total())
	}
	return nil
}

func writeRecords(stdout io.Writer, output string, format types.ExportFormat, records []types.PaperRecord) error {
	if output == "-" {
		return export.WriteRecords(stdout, format, records)
	}
	return export.WriteRecordsFile(output, format, records)
}
