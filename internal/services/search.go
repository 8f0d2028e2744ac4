package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"ID-ENRICH/internal/config"
	"ID-ENRICH/internal/models"
)

// WebSearcher looks up public evidence for a query.
// Success is a non-nil, possibly empty, result; failure is nil plus an error.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) (models.SearchResult, error)
}

const (
	defaultSearchLimit = 5
	noResultsMarker    = "ไม่พบผลการค้นหาสำหรับ"

	noTitle       = "No Title"
	noLink        = "No Link"
	noDescription = "No Description"

	resultClass      = "tF2Cxc"
	descriptionClass = "VwiC3b"
)

// GoogleScraper reads the organic results of a Google results page
type GoogleScraper struct {
	baseURL   string
	userAgent string
	httpc     *http.Client
	limiter   *rate.Limiter
}

func NewGoogleScraper(cfg config.SearchConfig) *GoogleScraper {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &GoogleScraper{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		httpc:     &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, burst),
	}
}

// WithHTTPClient overrides the internal HTTP client
func (g *GoogleScraper) WithHTTPClient(c *http.Client) *GoogleScraper {
	if c != nil {
		g.httpc = c
	}
	return g
}

func (g *GoogleScraper) Search(ctx context.Context, query string, limit int) (models.SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search throttle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.searchURL(query, limit), nil)
	if err != nil {
		return nil, err
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}
	results := parseResults(doc)
	log.Printf("[Search] %d results for %q", len(results), query)
	return results, nil
}

// searchURL asks for an exact-phrase match: the query is wrapped in double
// quotes and spaces become '+'
func (g *GoogleScraper) searchURL(query string, limit int) string {
	return g.baseURL + "?q=" + url.QueryEscape(`"`+query+`"`) + "&num=" + strconv.Itoa(limit)
}

// parseResults extracts ranked results in document order. A page that
// carries the localized no-results notice yields an empty result.
func parseResults(doc *html.Node) models.SearchResult {
	results := models.SearchResult{}
	if hasNoResultsNotice(doc) {
		return results
	}
	for _, c := range findAll(doc, func(n *html.Node) bool { return isElement(n, "div") && hasClass(n, resultClass) }) {
		item := models.SearchItem{Title: noTitle, Link: noLink, Description: noDescription}
		if h3 := findFirst(c, func(n *html.Node) bool { return isElement(n, "h3") }); h3 != nil {
			item.Title = strippedText(h3)
		}
		if a := findFirst(c, func(n *html.Node) bool { return isElement(n, "a") }); a != nil {
			if href, ok := attr(a, "href"); ok {
				item.Link = href
			}
		}
		if d := findFirst(c, func(n *html.Node) bool { return isElement(n, "div") && hasClass(n, descriptionClass) }); d != nil {
			item.Description = strippedText(d)
		}
		results = append(results, item)
	}
	return results
}

// hasNoResultsNotice reports whether a text node inside a div carries the
// no-results marker
func hasNoResultsNotice(doc *html.Node) bool {
	var walk func(n *html.Node, inDiv bool) bool
	walk = func(n *html.Node, inDiv bool) bool {
		if n.Type == html.TextNode {
			return inDiv && strings.Contains(n.Data, noResultsMarker)
		}
		inDiv = inDiv || isElement(n, "div")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c, inDiv) {
				return true
			}
		}
		return false
	}
	return walk(doc, false)
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// findFirst returns the first descendant (excluding n) matching match
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant matching match, outermost first,
// without descending into a match
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			out = append(out, c)
			continue
		}
		out = append(out, findAll(c, match)...)
	}
	return out
}

// strippedText concatenates the text nodes under n, each trimmed
func strippedText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
