package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResultsPage = `<html><body>
<div class="result results_links results_links_deep web-result">
  <a class="result__a" href="https://golang.org/doc/">Go Documentation</a>
  <a class="result__snippet" href="https://golang.org/doc/">The official Go documentation.</a>
</div>
<div class="result results_links results_links_deep web-result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fblog%2F&amp;rut=abc">The Go Blog</a>
  <a class="result__snippet" href="#">News from the Go project.</a>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	results, err := parseResults(sampleResultsPage, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Go Documentation", results[0].Title)
	assert.Equal(t, "https://golang.org/doc/", results[0].URL)
	assert.Equal(t, "The official Go documentation.", results[0].Snippet)

	// Redirect links are unwrapped to the destination URL.
	assert.Equal(t, "https://go.dev/blog/", results[1].URL)
}

func TestParseResultsMaxResults(t *testing.T) {
	results, err := parseResults(sampleResultsPage, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestParseResultsNoHits(t *testing.T) {
	results, err := parseResults("<html><body><p>nothing here</p></body></html>", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWebSearchExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang testing", r.URL.Query().Get("q"))
		io.WriteString(w, sampleResultsPage)
	}))
	defer srv.Close()

	s := NewSearcher().WithEndpoint(srv.URL)
	out, err := s.execute(context.Background(), map[string]any{
		"query": "golang testing",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Go Documentation")
	assert.Contains(t, out, "https://golang.org/doc/")
}

func TestWebSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body></body></html>")
	}))
	defer srv.Close()

	out, err := NewSearcher().WithEndpoint(srv.URL).execute(context.Background(), map[string]any{
		"query": "xyzzy",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "No results found")
}

func TestWebSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "tea time", http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := NewSearcher().WithEndpoint(srv.URL).execute(context.Background(), map[string]any{
		"query": "anything",
	})
	require.Error(t, err)
}
