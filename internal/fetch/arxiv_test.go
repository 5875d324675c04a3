// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/accepted-papers/internal/httputil"
	"github.com/pdiddy/accepted-papers/pkg/types"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title type="html">ArXiv Query: id_list=%[1]s</title>
  <entry>
    <id>http://arxiv.org/abs/%[1]sv1</id>
    <title>Test Paper</title>
    <summary>  %[2]s
    </summary>
    <link href="http://arxiv.org/abs/%[1]sv1" rel="alternate" type="text/html"/>
    %[3]s
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title type="html">ArXiv Query: id_list=9999.99999</title>
</feed>`

const errorFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format_for_bogus</id>
    <title>Error</title>
    <summary>incorrect id format for bogus</summary>
  </entry>
</feed>`

// fakeExtractor returns a fixed text or error and counts calls.
type fakeExtractor struct {
	text  string
	err   error
	calls atomic.Int32
	got   []byte
}

func (e *fakeExtractor) ExtractText(data []byte) (string, error) {
	e.calls.Add(1)
	e.got = data
	return e.text, e.err
}

// arxivServer serves the metadata API under /api/query and PDFs under
// /pdf/. feeds maps identifiers to a feed body; unknown ids get an empty
// feed.
type arxivServer struct {
	*httptest.Server
	feeds     map[string]string
	pdfStatus int
	pdfHits   atomic.Int32
}

func newArxivServer(t *testing.T) *arxivServer {
	t.Helper()
	s := &arxivServer{feeds: map[string]string{}, pdfStatus: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/query":
			id := r.URL.Query().Get("id_list")
			feed, ok := s.feeds[id]
			if !ok {
				feed = emptyFeed
			}
			w.Header().Set("Content-Type", "application/atom+xml")
			fmt.Fprint(w, feed)
		case strings.HasPrefix(r.URL.Path, "/pdf/"):
			s.pdfHits.Add(1)
			assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
			w.WriteHeader(s.pdfStatus)
			fmt.Fprint(w, "%PDF-1.4 fake bytes for "+strings.TrimPrefix(r.URL.Path, "/pdf/"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *arxivServer) addPaper(id, abstract string) {
	link := fmt.Sprintf(`<link title="pdf" href="%s/pdf/%sv1" rel="related" type="application/pdf"/>`, s.URL, id)
	s.feeds[id] = fmt.Sprintf(feedTemplate, id, abstract, link)
}

func (s *arxivServer) fetcher(ext TextExtractor, abstractOnly bool) *ArxivFetcher {
	client := httputil.NewClient(types.HTTPConfig{}, httputil.WithHTTPClient(s.Client()))
	return NewArxivFetcher(client, types.FetcherConfig{
		APIBase:      s.URL + "/api/query?id_list=",
		AbstractOnly: abstractOnly,
	}, WithTextExtractor(ext))
}

func TestArxivFetch_Success(t *testing.T) {
	srv := newArxivServer(t)
	srv.addPaper("2301.00001", "We study things.")
	ext := &fakeExtractor{text: "page one page two"}

	got, err := srv.fetcher(ext, false).Fetch(context.Background(), "2301.00001")
	require.NoError(t, err)
	assert.Equal(t, "We study things.", got.Abstract)
	assert.Equal(t, "page one page two", got.FullText)
	assert.Equal(t, int32(1), ext.calls.Load())
	assert.Equal(t, "%PDF-1.4 fake bytes for 2301.00001v1", string(ext.got))
}

func TestArxivFetch_NormalizesIdentifier(t *testing.T) {
	srv := newArxivServer(t)
	srv.addPaper("2301.00001", "Abstract.")

	for _, id := range []string{"arXiv:2301.00001", "2301.00001.pdf", " 2301.00001 "} {
		got, err := srv.fetcher(&fakeExtractor{text: "x"}, false).Fetch(context.Background(), id)
		require.NoError(t, err, "id %q", id)
		assert.Equal(t, "Abstract.", got.Abstract)
	}
}

func TestArxivFetch_AbstractOnly(t *testing.T) {
	srv := newArxivServer(t)
	srv.addPaper("2301.00002", "Only the abstract.")
	ext := &fakeExtractor{text: "unused"}

	got, err := srv.fetcher(ext, true).Fetch(context.Background(), "2301.00002")
	require.NoError(t, err)
	assert.Equal(t, "Only the abstract.", got.Abstract)
	assert.Empty(t, got.FullText)
	assert.Equal(t, int32(0), srv.pdfHits.Load())
	assert.Equal(t, int32(0), ext.calls.Load())
}

func TestArxivFetch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		setup   func(s *arxivServer)
		ext     *fakeExtractor
		wantErr error
	}{
		{
			name:    "unknown id yields empty feed",
			id:      "9999.99999",
			setup:   func(*arxivServer) {},
			ext:     &fakeExtractor{text: "x"},
			wantErr: ErrNoEntry,
		},
		{
			name:    "api error entry",
			id:      "bogus",
			setup:   func(s *arxivServer) { s.feeds["bogus"] = errorFeed },
			ext:     &fakeExtractor{text: "x"},
			wantErr: ErrNoEntry,
		},
		{
			name:    "empty abstract",
			id:      "2301.00003",
			setup:   func(s *arxivServer) { s.addPaper("2301.00003", "   ") },
			ext:     &fakeExtractor{text: "x"},
			wantErr: ErrNoAbstract,
		},
		{
			name: "missing pdf link",
			id:   "2301.00004",
			setup: func(s *arxivServer) {
				s.feeds["2301.00004"] = fmt.Sprintf(feedTemplate, "2301.00004", "Abstract.", "")
			},
			ext:     &fakeExtractor{text: "x"},
			wantErr: ErrNoPDFLink,
		},
		{
			name:    "no extractable text",
			id:      "2301.00005",
			setup:   func(s *arxivServer) { s.addPaper("2301.00005", "Abstract.") },
			ext:     &fakeExtractor{err: ErrNoText},
			wantErr: ErrNoText,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newArxivServer(t)
			tt.setup(srv)

			_, err := srv.fetcher(tt.ext, false).Fetch(context.Background(), tt.id)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, types.KindFetch, types.KindOf(err))
		})
	}
}

func TestArxivFetch_PDFDownloadFailure(t *testing.T) {
	srv := newArxivServer(t)
	srv.addPaper("2301.00006", "Abstract.")
	srv.pdfStatus = http.StatusNotFound
	ext := &fakeExtractor{text: "x"}

	_, err := srv.fetcher(ext, false).Fetch(context.Background(), "2301.00006")
	require.Error(t, err)
	assert.Equal(t, types.KindFetch, types.KindOf(err))

	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, int32(0), ext.calls.Load())
}

func TestArxivFetch_MetadataStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	client := httputil.NewClient(types.HTTPConfig{}, httputil.WithHTTPClient(ts.Client()))
	f := NewArxivFetcher(client, types.FetcherConfig{APIBase: ts.URL + "/?id_list="})

	_, err := f.Fetch(context.Background(), "2301.00001")
	require.Error(t, err)
	assert.Equal(t, types.KindFetch, types.KindOf(err))
	assert.Contains(t, err.Error(), "fetch metadata 2301.00001")
}

func TestArxivFetch_EmptyIdentifier(t *testing.T) {
	f := NewArxivFetcher(httputil.NewClient(types.HTTPConfig{}), types.FetcherConfig{})
	_, err := f.Fetch(context.Background(), "arXiv:")
	require.Error(t, err)
	assert.Equal(t, types.KindFetch, types.KindOf(err))
}

func TestNewArxivFetcher_Defaults(t *testing.T) {
	f := NewArxivFetcher(httputil.NewClient(types.HTTPConfig{}), types.FetcherConfig{})
	assert.Equal(t, DefaultArxivAPIBase, f.apiBase)
	assert.Equal(t, SourceArxiv, f.Source())
	assert.False(t, f.SkipFullText)
	assert.IsType(t, PDFTextExtractor{}, f.extractor)
}

func TestNormalizeArxivID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2301.00001", "2301.00001"},
		{"arXiv:2301.00001", "2301.00001"},
		{"ARXIV:2301.00001v2", "2301.00001v2"},
		{"2301.00001.pdf", "2301.00001"},
		{"https://arxiv.org/abs/2301.00001/", "2301.00001"},
		{"https://arxiv.org/pdf/2301.00001.pdf", "2301.00001"},
		{"hep-th/9901001", "hep-th/9901001"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeArxivID(tt.in), "input %q", tt.in)
	}
}
