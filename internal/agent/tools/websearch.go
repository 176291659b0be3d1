package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/net/html"

	logx "github.com/waypoint-agents/server/pkg/logger"
)

const (
	ToolWebSearch = "web_search"

	defaultSearchResults = 5
	maxSearchResults     = 10
	userAgent            = "Mozilla/5.0 (compatible; waypoint-planner/1.0)"
)

// ===================================
// Web Search Tool
// ===================================

type WebSearchInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type WebSearchOutput struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

// WebSearchBinding searches the web through the DuckDuckGo HTML endpoint.
type WebSearchBinding struct {
	endpoint   string
	maxResults int
	client     *http.Client
}

func NewWebSearchBinding(endpoint string, maxResults int, client *http.Client) *WebSearchBinding {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}
	return &WebSearchBinding{endpoint: endpoint, maxResults: maxResults, client: client}
}

func (b *WebSearchBinding) Name() string { return ToolWebSearch }

func (b *WebSearchBinding) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, b.endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("search endpoint returned %s", resp.Status)
	}
	return nil
}

func (b *WebSearchBinding) Open(ctx context.Context) (Session, error) {
	return &webSearchSession{tool: b.newTool()}, nil
}

type webSearchSession struct {
	tool tool.BaseTool
}

func (s *webSearchSession) Tools(ctx context.Context) ([]tool.BaseTool, error) {
	return []tool.BaseTool{s.tool}, nil
}

func (s *webSearchSession) Close() error { return nil }

func (b *WebSearchBinding) newTool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolWebSearch,
			Desc: "Search the web for up-to-date travel information: transport fares and timetables, hotel prices, opening hours, attractions. Returns titles, URLs and snippets.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "Search keywords, e.g. 'Kolkata to Gangtok train fare'.",
					Required: true,
				},
				"max_results": {
					Type: schema.Integer,
					Desc: fmt.Sprintf("Maximum number of results (default: %d, max: %d)", b.maxResults, maxSearchResults),
				},
			}),
		},
		func(ctx context.Context, in *WebSearchInput) (*WebSearchOutput, error) {
			return b.Search(ctx, in)
		},
	)
}

// Search runs one query against the endpoint.
func (b *WebSearchBinding) Search(ctx context.Context, in *WebSearchInput) (*WebSearchOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	limit := in.MaxResults
	if limit <= 0 {
		limit = b.maxResults
	}
	if limit > maxSearchResults {
		limit = maxSearchResults
	}

	u, err := url.Parse(b.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned %s", resp.Status)
	}

	results, err := parseSearchResults(resp.Body, limit)
	if err != nil {
		return nil, err
	}
	logx.Debug().
		Str("query", query).
		Int("results", len(results)).
		Dur("took", time.Since(start)).
		Msg("Web search completed")

	return &WebSearchOutput{Results: results, Total: len(results)}, nil
}

// parseSearchResults extracts result links and snippets from a DuckDuckGo HTML page.
func parseSearchResults(r io.Reader, limit int) ([]SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var (
		results []SearchResult
		done    bool
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if done {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			switch {
			case hasClass(n, "result__a"):
				// The snippet of the limit-th result follows its link, so stop at the next link.
				if len(results) >= limit {
					done = true
					return
				}
				results = append(results, SearchResult{
					Title: strings.TrimSpace(textOf(n)),
					URL:   resolveResultURL(attr(n, "href")),
				})
				return
			case hasClass(n, "result__snippet") && len(results) > 0:
				last := &results[len(results)-1]
				if last.Snippet == "" {
					last.Snippet = strings.Join(strings.Fields(textOf(n)), " ")
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

// resolveResultURL unwraps DuckDuckGo redirect links ("//duckduckgo.com/l/?uddg=...").
func resolveResultURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
