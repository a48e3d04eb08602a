package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/seogen/internal/bypass"
	"github.com/FranksOps/seogen/internal/fingerprint"
	"github.com/FranksOps/seogen/internal/metrics"
	"github.com/FranksOps/seogen/pkg/httpclient"
	"github.com/FranksOps/seogen/pkg/proxy"
	"github.com/FranksOps/seogen/pkg/ratelimit"
	"github.com/FranksOps/seogen/pkg/useragent"
	"github.com/google/uuid"
)

// maxBodyBytes bounds how much of a results page is read.
const maxBodyBytes = 8 << 20

// ErrDisallowed is returned when robots.txt forbids the target path.
var ErrDisallowed = errors.New("disallowed by robots.txt")

type contextKey string

const proxyKey contextKey = "proxy_url"

// FetchConfig configures the results-page fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	Limiter      *ratelimit.Limiter
	// RespectRobots checks the target host's robots.txt before each fetch.
	RespectRobots bool
	// RobotsAgent is the token matched against robots.txt groups.
	RobotsAgent string
	Detectors   []bypass.Detector
	Logger      *slog.Logger
}

// Response is what came back from one GET.
type Response struct {
	ID         string
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Detection  bypass.Detection
	Proxy      string
	FetchedAt  time.Time
}

// Fetcher performs single GETs with a browser-like fingerprint. One client
// is held for the Fetcher's lifetime so connections and cookies are reused.
type Fetcher struct {
	config  FetchConfig
	client  *httpclient.Client
	auditor *RobotsTxtAuditor
	logger  *slog.Logger
}

// NewFetcher initializes a new Fetcher with the given configuration.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.Detectors == nil {
		cfg.Detectors = bypass.DefaultDetectors()
	}
	if cfg.RobotsAgent == "" {
		cfg.RobotsAgent = "seogen"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Proxies rotate per request: the chosen URL travels in the request
	// context and the transport's Proxy func reads it back.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok && u != nil {
			return u, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
		Header: http.Header{
			"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
			"Accept-Language": {"en-US,en;q=0.9"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	f := &Fetcher{
		config: cfg,
		client: client,
		logger: cfg.Logger,
	}
	if cfg.RespectRobots {
		f.auditor = NewRobotsTxtAuditor(f, cfg.Logger)
	}
	return f, nil
}

// Fetch GETs targetURL. A non-nil error means no usable response was read;
// HTTP status handling is left to the caller.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	if f.auditor != nil {
		allowed, err := f.auditor.IsAllowed(ctx, targetURL, f.config.RobotsAgent)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", targetURL, ErrDisallowed)
		}
	}

	if f.config.Limiter != nil {
		if err := f.config.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter failed: %w", err)
		}
	}

	return f.get(ctx, targetURL)
}

func (f *Fetcher) get(ctx context.Context, targetURL string) (*Response, error) {
	start := time.Now()
	res := &Response{
		ID:        uuid.New().String(),
		URL:       targetURL,
		FetchedAt: start.UTC(),
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		activeProxy = f.config.ProxyPool.Next()
	}
	if activeProxy != nil {
		ctx = context.WithValue(ctx, proxyKey, activeProxy)
		res.Proxy = activeProxy.Redacted()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UAPool.Next())

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
			metrics.RecordProxyFailure(res.Proxy)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	res.Duration = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	res.StatusCode = resp.StatusCode
	res.Headers = resp.Header
	res.Body = body
	res.FinalURL = resp.Request.URL.String()
	res.Detection = bypass.Analyze(&bypass.Page{
		URL:        res.FinalURL,
		StatusCode: res.StatusCode,
		Headers:    res.Headers,
		Body:       res.Body,
	}, f.config.Detectors)

	f.logger.Debug("fetched",
		"url", targetURL,
		"status", res.StatusCode,
		"bytes", len(body),
		"duration", res.Duration,
		"detected", res.Detection.Source,
	)
	return res, nil
}
