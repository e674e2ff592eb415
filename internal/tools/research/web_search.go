// Package research provides the web-search tool, backed by the
// DuckDuckGo HTML endpoint so no API key is needed.
package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"dirigent/internal/directive"
	"dirigent/internal/logging"
	"dirigent/internal/tools"
)

const defaultSearchEndpoint = "https://html.duckduckgo.com/html/"

// SearchResult represents a single search result.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher performs web searches against a DuckDuckGo-compatible
// HTML endpoint.
type Searcher struct {
	endpoint string
	client   *http.Client
}

// NewSearcher creates a searcher against the default endpoint.
func NewSearcher() *Searcher {
	return &Searcher{
		endpoint: defaultSearchEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// WithEndpoint overrides the search endpoint.
func (s *Searcher) WithEndpoint(endpoint string) *Searcher {
	s.endpoint = endpoint
	return s
}

// Register adds the web-search tool to the registry.
func Register(reg *tools.Registry) {
	reg.MustRegister(NewSearcher().WebSearchTool())
}

// WebSearchTool returns the web-search tool definition.
func (s *Searcher) WebSearchTool() *tools.Tool {
	return &tools.Tool{
		Tag:         "web-search",
		Description: "Search the web for information using DuckDuckGo",
		Timeout:     30 * time.Second,
		Bindings: []directive.ParamBinding{
			{Name: "query", Source: directive.SourceAttribute, Required: true},
			{Name: "num_results", Source: directive.SourceAttribute, Type: directive.TypeInt},
		},
		Execute: s.execute,
	}
}

func (s *Searcher) execute(ctx context.Context, args map[string]any) (string, error) {
	query := tools.StringArg(args, "query")

	maxResults := tools.IntArg(args, "num_results", 10)
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 30 {
		maxResults = 30
	}

	logging.ToolsDebug("web-search: query=%q, num_results=%d", query, maxResults)

	results, err := s.search(ctx, query, maxResults)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		return "No results found for: " + query, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search Results for: %s\n\n", query)
	fmt.Fprintf(&sb, "Found %d results:\n\n", len(results))
	for i, result := range results {
		fmt.Fprintf(&sb, "## %d. %s\n", i+1, result.Title)
		fmt.Fprintf(&sb, "**URL:** %s\n", result.URL)
		if result.Snippet != "" {
			fmt.Fprintf(&sb, "\n%s\n", result.Snippet)
		}
		sb.WriteString("\n---\n\n")
	}

	logging.Tools("web-search completed: %d results for %q", len(results), query)
	return sb.String(), nil
}

func (s *Searcher) search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	searchURL := fmt.Sprintf("%s?q=%s", s.endpoint, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseResults(string(body), maxResults)
}

// parseResults extracts search results from DuckDuckGo HTML, which
// marks each hit with class="result results_links ...".
func parseResults(htmlContent string, maxResults int) ([]SearchResult, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []SearchResult
	var findResults func(*html.Node)
	findResults = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}

		if n.Type == html.ElementNode && n.Data == "div" {
			for _, attr := range n.Attr {
				if attr.Key == "class" && strings.Contains(attr.Val, "result") && strings.Contains(attr.Val, "results_links") {
					result := extractResult(n)
					if result.URL != "" && result.Title != "" {
						results = append(results, result)
					}
					return
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findResults(c)
		}
	}

	findResults(doc)
	return results, nil
}

func extractResult(n *html.Node) SearchResult {
	var result SearchResult

	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "class" {
					if strings.Contains(attr.Val, "result__a") {
						result.URL = getAttrValue(n, "href")
						result.Title = getTextContent(n)
					} else if strings.Contains(attr.Val, "result__snippet") {
						result.Snippet = getTextContent(n)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)

	// Unwrap DuckDuckGo redirect links.
	if strings.HasPrefix(result.URL, "//duckduckgo.com/l/?uddg=") {
		if decoded, err := url.QueryUnescape(strings.TrimPrefix(result.URL, "//duckduckgo.com/l/?uddg=")); err == nil {
			if idx := strings.Index(decoded, "&"); idx > 0 {
				decoded = decoded[:idx]
			}
			result.URL = decoded
		}
	}
	return result
}

func getAttrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func getTextContent(n *html.Node) string {
	var sb strings.Builder
	var getText func(*html.Node)
	getText = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			getText(c)
		}
	}
	getText(n)
	return strings.TrimSpace(sb.String())
}
