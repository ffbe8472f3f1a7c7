package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// GoogleSearcher scrapes the HTML results page of a Google-compatible search endpoint.
type GoogleSearcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewGoogleSearcher creates a searcher against baseURL (e.g. https://www.google.com/search).
func NewGoogleSearcher(baseURL, userAgent string, timeout time.Duration) *GoogleSearcher {
	return &GoogleSearcher{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

// Search fetches one results page and returns outbound result links in page order.
func (g *GoogleSearcher) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(maxResults+2))
	params.Set("hl", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	return extractResultLinks(doc, maxResults), nil
}

// extractResultLinks collects unique outbound links. Google wraps them as /url?q=<target>.
func extractResultLinks(doc *goquery.Document, maxResults int) []string {
	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		target := resolveResultHref(href)
		if target == "" || seen[target] {
			return true
		}
		seen[target] = true
		links = append(links, target)
		return maxResults <= 0 || len(links) < maxResults
	})

	return links
}

func resolveResultHref(href string) string {
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = u.Query().Get("q")
		if href == "" {
			href = u.Query().Get("url")
		}
	}

	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Host)
	if host == "google.com" || strings.HasSuffix(host, ".google.com") || strings.Contains(host, "googleusercontent") {
		return ""
	}
	return href
}
