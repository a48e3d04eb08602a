package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FranksOps/seogen/internal/config"
	"github.com/FranksOps/seogen/internal/fingerprint"
	"github.com/FranksOps/seogen/internal/generator"
	"github.com/FranksOps/seogen/internal/llm"
	"github.com/FranksOps/seogen/internal/scraper"
	"github.com/FranksOps/seogen/internal/serp"
	"github.com/FranksOps/seogen/internal/storage"
	"github.com/FranksOps/seogen/internal/storage/csvbackend"
	"github.com/FranksOps/seogen/internal/storage/jsonbackend"
	"github.com/FranksOps/seogen/internal/storage/postgres"
	"github.com/FranksOps/seogen/internal/storage/sqlite"
	"github.com/FranksOps/seogen/pkg/backoff"
	"github.com/FranksOps/seogen/pkg/proxy"
	"github.com/FranksOps/seogen/pkg/ratelimit"
	"github.com/FranksOps/seogen/pkg/useragent"
)

// newProvider builds the configured search provider and its fetcher.
func newProvider(cfg *config.Config, logger *slog.Logger) (serp.Provider, error) {
	profile, err := fingerprint.ParseProfile(cfg.SERP.Fingerprint)
	if err != nil {
		return nil, err
	}

	fc := scraper.FetchConfig{
		Timeout:       cfg.SERP.Timeout,
		MaxRedirects:  cfg.SERP.MaxRedirects,
		UseCookieJar:  true,
		Fingerprint:   profile,
		RespectRobots: cfg.SERP.RespectRobots,
		Logger:        logger,
	}
	if len(cfg.SERP.UserAgents) > 0 {
		fc.UAPool = useragent.NewPool(cfg.SERP.UserAgents)
	}
	if cfg.SERP.ProxyFile != "" {
		pool := proxy.NewPool(proxy.Config{})
		if err := pool.LoadFile(cfg.SERP.ProxyFile); err != nil {
			return nil, fmt.Errorf("load proxies: %w", err)
		}
		fc.ProxyPool = pool
		logger.Info("proxy rotation enabled", "proxies", pool.Len())
	}
	if cfg.SERP.RPS > 0 {
		fc.Limiter = ratelimit.NewLimiter(cfg.SERP.RPS, cfg.SERP.Jitter)
	}

	fetcher, err := scraper.NewFetcher(fc)
	if err != nil {
		return nil, err
	}
	return serp.New(cfg.SERP.Engine, fetcher, cfg.SERP.BaseURL, logger)
}

// newGenerator builds the chat-completion client and wraps it with the
// retry policy.
func newGenerator(cfg *config.Config, logger *slog.Logger) (*generator.Generator, error) {
	client, err := llm.New(llm.Config{
		APIKey:      cfg.OpenAI.APIKey.Value(),
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
		HTTPClient:  &http.Client{Timeout: cfg.OpenAI.Timeout},
	})
	if err != nil {
		return nil, err
	}
	return generator.New(client,
		generator.WithPolicy(backoff.Policy{
			MaxAttempts: cfg.Generation.MaxAttempts,
			Unit:        cfg.Generation.BackoffUnit,
		}),
		generator.WithLogger(logger),
	), nil
}

// openSink opens a result sink from a DSN of the form csv:<path>,
// ndjson:<path>, sqlite:<path> or postgres://...
func openSink(ctx context.Context, dsn string) (storage.Backend, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return postgres.New(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.New(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "csv:"):
		return csvbackend.New(strings.TrimPrefix(dsn, "csv:"))
	case strings.HasPrefix(dsn, "ndjson:"):
		return jsonbackend.New(strings.TrimPrefix(dsn, "ndjson:"))
	case strings.HasPrefix(dsn, "jsonl:"):
		return jsonbackend.New(strings.TrimPrefix(dsn, "jsonl:"))
	default:
		return nil, fmt.Errorf("unsupported sink %q (want csv:, ndjson:, sqlite: or postgres://)", redactDSN(dsn))
	}
}

// redactDSN keeps only the scheme of a DSN for error messages.
func redactDSN(dsn string) string {
	if i := strings.Index(dsn, ":"); i > 0 {
		return dsn[:i] + ":..."
	}
	return "..."
}
