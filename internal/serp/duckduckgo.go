package serp

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoBaseURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the JavaScript-free DuckDuckGo results page.
type DuckDuckGo struct {
	fetcher Fetcher
	baseURL string
	logger  *slog.Logger
}

// NewDuckDuckGo creates a DuckDuckGo provider. An empty baseURL means the
// public html endpoint.
func NewDuckDuckGo(f Fetcher, baseURL string, logger *slog.Logger) *DuckDuckGo {
	if baseURL == "" {
		baseURL = duckDuckGoBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DuckDuckGo{fetcher: f, baseURL: baseURL, logger: logger}
}

// SearchURL builds the results-page URL for keyword. The html endpoint has
// no result-count parameter; limiting happens while parsing.
func (d *DuckDuckGo) SearchURL(keyword string) string {
	return d.baseURL + "?q=" + url.QueryEscape(keyword)
}

// Search implements Provider.
func (d *DuckDuckGo) Search(ctx context.Context, keyword string, limit int) ([]Result, error) {
	limit = normalizeLimit(limit)
	return search(ctx, "duckduckgo", d.fetcher, d.SearchURL(keyword), limit, func(body []byte, n int) ([]Result, error) {
		return ParseDuckDuckGo(bytes.NewReader(body), n)
	}, d.logger)
}

// ParseDuckDuckGo extracts organic results from the html endpoint. Sponsored
// entries (.result--ad) are skipped.
func ParseDuckDuckGo(r io.Reader, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	limit = normalizeLimit(limit)
	results := make([]Result, 0, limit)
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		title := s.Find(".result__a").First()
		if title.Length() == 0 {
			return true
		}
		results = append(results, Result{
			Title:   collapse(title.Text()),
			Snippet: collapse(s.Find(".result__snippet").First().Text()),
		})
		return len(results) < limit
	})
	return results, nil
}
