package serp

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

const googleBaseURL = "https://www.google.com/search"

// Google scrapes the Google web results page.
type Google struct {
	fetcher Fetcher
	baseURL string
	logger  *slog.Logger
}

// NewGoogle creates a Google provider. An empty baseURL means google.com.
func NewGoogle(f Fetcher, baseURL string, logger *slog.Logger) *Google {
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Google{fetcher: f, baseURL: baseURL, logger: logger}
}

// SearchURL builds the results-page URL for keyword.
func (g *Google) SearchURL(keyword string, limit int) string {
	return g.baseURL + "?q=" + url.QueryEscape(keyword) + "&num=" + strconv.Itoa(normalizeLimit(limit))
}

// Search implements Provider.
func (g *Google) Search(ctx context.Context, keyword string, limit int) ([]Result, error) {
	limit = normalizeLimit(limit)
	return search(ctx, "google", g.fetcher, g.SearchURL(keyword, limit), limit, func(body []byte, n int) ([]Result, error) {
		return ParseGoogle(bytes.NewReader(body), n)
	}, g.logger)
}

// ParseGoogle extracts organic results from a Google results page. Each
// div.g container contributes its h3 as the title and div.VwiC3b as the
// snippet; containers without an h3 are skipped.
func ParseGoogle(r io.Reader, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	limit = normalizeLimit(limit)
	results := make([]Result, 0, limit)
	doc.Find("div.g").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h3 := s.Find("h3").First()
		if h3.Length() == 0 {
			return true
		}
		results = append(results, Result{
			Title:   collapse(h3.Text()),
			Snippet: collapse(s.Find("div.VwiC3b").First().Text()),
		})
		return len(results) < limit
	})
	return results, nil
}
