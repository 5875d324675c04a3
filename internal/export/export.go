// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes paper records, search results, and failure
// manifests as CSV, JSON, or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/accepted-papers/pkg/types"
)

// RecordColumns is the CSV header for paper records.
var RecordColumns = []string{"title", "url", "abstract", "content"}

// ResultColumns is the CSV header for search results.
var ResultColumns = []string{"title", "url", "abstract", "score"}

// ParseFormat validates a format name. Empty selects CSV.
func ParseFormat(s string) (types.ExportFormat, error) {
	switch f := types.ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return types.FormatCSV, nil
	case types.FormatCSV, types.FormatJSON, types.FormatYAML:
		return f, nil
	case "yml":
		return types.FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json, or yaml)", s)
	}
}

// FormatFromPath picks a format from a file extension, falling back to
// def when the extension is not recognized.
func FormatFromPath(path string, def types.ExportFormat) types.ExportFormat {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if f, err := ParseFormat(ext); err == nil && ext != "" {
		return f
	}
	return def
}

// WriteRecords writes records to w in format.
func WriteRecords(w io.Writer, format types.ExportFormat, records []types.PaperRecord) error {
	if records == nil {
		records = []types.PaperRecord{}
	}
	switch format {
	case types.FormatCSV, "":
		rows := make([][]string, len(records))
		for i, r := range records {
			rows[i] = []string{r.Title, r.SourceURL, r.Abstract, r.FullText}
		}
		return writeCSV(w, RecordColumns, rows)
	case types.FormatJSON:
		return writeJSON(w, records)
	case types.FormatYAML:
		return writeYAML(w, records)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteResults writes search results to w in format.
func WriteResults(w io.Writer, format types.ExportFormat, results []types.SearchResult) error {
	if results == nil {
		results = []types.SearchResult{}
	}
	switch format {
	case types.FormatCSV, "":
		rows := make([][]string, len(results))
		for i, r := range results {
			rows[i] = []string{r.Title, r.SourceURL, r.Abstract, strconv.FormatFloat(r.Score, 'f', 4, 64)}
		}
		return writeCSV(w, ResultColumns, rows)
	case types.FormatJSON:
		return writeJSON(w, results)
	case types.FormatYAML:
		return writeYAML(w, results)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteRecordsFile writes records to path through a temporary file that is
// renamed into place, so a failed export never leaves a partial file.
func WriteRecordsFile(path string, format types.ExportFormat, records []types.PaperRecord) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteRecords(w, format, records)
	})
}

// WriteFailuresFile writes the failure manifest to path as JSON.
func WriteFailuresFile(path string, failures []types.Failure) error {
	if failures == nil {
		failures = []types.Failure{}
	}
	return writeFile(path, func(w io.Writer) error {
		return writeJSON(w, failures)
	})
}

// FilterByTitle returns the records whose title contains query, ignoring
// case. An empty query returns records unchanged.
func FilterByTitle(records []types.PaperRecord, query string) []types.PaperRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}
	var out []types.PaperRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Title), query) {
			out = append(out, r)
		}
	}
	return out
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing CSV rows: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

func writeFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writeErr := write(tmpFile)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
