// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/accepted-papers/pkg/types"
)

func sampleRecords() []types.PaperRecord {
	return []types.PaperRecord{
		{
			Title:      "Segment Anything, Again",
			SourceURL:  "https://arxiv.org/abs/2301.00001",
			ExternalID: "2301.00001",
			Abstract:   "We segment \"everything\".",
			FullText:   "line one\nline two",
			Embedding:  []float32{1, 2},
		},
		{
			Title:      "Diffusion for Depth",
			SourceURL:  "https://arxiv.org/abs/2301.00002",
			ExternalID: "2301.00002",
			Abstract:   "Depth, via diffusion.",
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    types.ExportFormat
		wantErr bool
	}{
		{"", types.FormatCSV, false},
		{"csv", types.FormatCSV, false},
		{"JSON", types.FormatJSON, false},
		{" yaml ", types.FormatYAML, false},
		{"yml", types.FormatYAML, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, types.FormatJSON, FormatFromPath("out/papers.json", types.FormatCSV))
	assert.Equal(t, types.FormatYAML, FormatFromPath("papers.yml", types.FormatCSV))
	assert.Equal(t, types.FormatCSV, FormatFromPath("papers.txt", types.FormatCSV))
	assert.Equal(t, types.FormatJSON, FormatFromPath("papers", types.FormatJSON))
}

func TestWriteRecords_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, types.FormatCSV, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"title", "url", "abstract", "content"}, rows[0])
	assert.Equal(t, []string{
		"Segment Anything, Again",
		"https://arxiv.org/abs/2301.00001",
		"We segment \"everything\".",
		"line one\nline two",
	}, rows[1])
	assert.Equal(t, "", rows[2][3])
}

func TestWriteRecords_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, types.FormatJSON, sampleRecords()))
	assert.NotContains(t, buf.String(), "embedding")

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "line one\nline two", got[0]["content"])
	_, hasContent := got[1]["content"]
	assert.False(t, hasContent)
}

func TestWriteRecords_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, types.FormatYAML, sampleRecords()))

	var got []types.PaperRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Diffusion for Depth", got[1].Title)
	assert.Nil(t, got[0].Embedding)
}

func TestWriteRecords_EmptyAndUnknown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, types.FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteRecords(&buf, types.FormatCSV, nil))
	assert.Equal(t, "title,url,abstract,content\n", buf.String())

	assert.Error(t, WriteRecords(&buf, "xml", nil))
}

func TestWriteResults(t *testing.T) {
	results := []types.SearchResult{{Title: "A", SourceURL: "u", Abstract: "x", Score: 0.91234}}

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, types.FormatCSV, results))
	assert.Equal(t, "title,url,abstract,score\nA,u,x,0.9123\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteResults(&buf, types.FormatJSON, results))
	assert.Contains(t, buf.String(), `"score": 0.91234`)
}

func TestWriteRecordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "papers.csv")
	require.NoError(t, WriteRecordsFile(path, types.FormatCSV, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "title,url,abstract,content\n"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteRecordsFile_FailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "papers.out")
	require.Error(t, WriteRecordsFile(path, "xml", sampleRecords()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFailuresFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.json")
	failures := []types.Failure{{
		Ref:     types.PublicationRef{Title: "B", SourceURL: "https://arxiv.org/abs/2301.00002", ExternalID: "2301.00002"},
		Kind:    types.KindFetch,
		Message: "fetch: parse metadata 2301.00002: no entry in metadata response",
	}}
	require.NoError(t, WriteFailuresFile(path, failures))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []types.Failure
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, failures, got)

	empty := filepath.Join(t.TempDir(), "none.json")
	require.NoError(t, WriteFailuresFile(empty, nil))
	data, err = os.ReadFile(empty)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestFilterByTitle(t *testing.T) {
	records := sampleRecords()
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Segment Anything, Again", "Diffusion for Depth"}},
		{"diffusion", []string{"Diffusion for Depth"}},
		{"  SEGMENT ", []string{"Segment Anything, Again"}},
		{"transformer", nil},
	}
	for _, tt := range tests {
		var titles []string
		for _, r := range FilterByTitle(records, tt.query) {
			titles = append(titles, r.Title)
		}
		assert.Equal(t, tt.want, titles, "query %q", tt.query)
	}
}
