package serp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FranksOps/seogen/internal/metrics"
	"github.com/FranksOps/seogen/internal/scraper"
)

// DefaultLimit is how many results a search returns when no limit is given.
const DefaultLimit = 10

var (
	// ErrBlocked means the engine served a bot challenge instead of results.
	ErrBlocked = errors.New("blocked by search engine")
	// ErrUnexpectedStatus means the result page did not come back 200.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Result is one organic search result. It is never persisted.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Provider returns the top results for a keyword, in page order, capped at
// limit. A page whose layout no longer matches yields fewer or zero results
// rather than an error.
type Provider interface {
	Search(ctx context.Context, keyword string, limit int) ([]Result, error)
}

// Fetcher is the single-GET dependency of the providers.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Response, error)
}

// Engines lists the names accepted by New.
var Engines = []string{"google", "duckduckgo"}

// New builds the provider for engine. baseURL overrides the engine's
// default endpoint when non-empty.
func New(engine string, f Fetcher, baseURL string, logger *slog.Logger) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", "google":
		return NewGoogle(f, baseURL, logger), nil
	case "duckduckgo", "ddg":
		return NewDuckDuckGo(f, baseURL, logger), nil
	default:
		return nil, fmt.Errorf("unknown search engine %q (want one of %s)", engine, strings.Join(Engines, ", "))
	}
}

type parseFunc func(body []byte, limit int) ([]Result, error)

// search runs the fetch, the status and challenge checks, and the parse
// shared by every engine.
func search(ctx context.Context, engine string, f Fetcher, target string, limit int, parse parseFunc, logger *slog.Logger) ([]Result, error) {
	start := time.Now()
	res, err := f.Fetch(ctx, target)
	if err != nil {
		metrics.RecordSERP(engine, "error", 0, time.Since(start))
		return nil, fmt.Errorf("%s search: %w", engine, err)
	}

	if res.Detection.Detected {
		metrics.RecordSERP(engine, "blocked", 0, res.Duration)
		logger.Warn("search engine served a challenge", "engine", engine, "source", res.Detection.Source, "status", res.StatusCode)
		return nil, fmt.Errorf("%s search: %w (%s)", engine, ErrBlocked, res.Detection.Source)
	}
	if res.StatusCode != http.StatusOK {
		metrics.RecordSERP(engine, "status", 0, res.Duration)
		return nil, fmt.Errorf("%s search: %w %d", engine, ErrUnexpectedStatus, res.StatusCode)
	}

	results, err := parse(res.Body, limit)
	if err != nil {
		metrics.RecordSERP(engine, "error", 0, res.Duration)
		return nil, fmt.Errorf("%s search: parse results: %w", engine, err)
	}

	metrics.RecordSERP(engine, "ok", len(results), res.Duration)
	logger.Debug("search complete", "engine", engine, "results", len(results), "duration", res.Duration)
	return results, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// collapse trims s and folds internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
