package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// DefaultTimeout applies when Config.Timeout is zero. Requests are never
// sent without a deadline.
const DefaultTimeout = 30 * time.Second

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout time.Duration
	// MaxRedirects caps redirect hops; a negative value disables following.
	MaxRedirects int
	UseCookieJar bool
	// Header values are set on every outgoing request that lacks them.
	Header http.Header
	// Transport overrides the round tripper, e.g. for proxies or uTLS.
	Transport http.RoundTripper
}

// Client wraps http.Client with a redirect policy, an optional cookie jar and
// default request headers.
type Client struct {
	*http.Client
}

// New creates a new HTTP client based on the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &http.Client{Timeout: cfg.Timeout}

	if cfg.MaxRedirects >= 0 {
		limit := cfg.MaxRedirects
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) > limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	} else {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if cfg.UseCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.Jar = jar
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if len(cfg.Header) > 0 {
		transport = &headerTransport{base: transport, header: cfg.Header.Clone()}
	}
	c.Transport = transport

	return &Client{Client: c}, nil
}

// Do executes req bound to ctx, independent of the client-wide timeout.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}

	resp, err := c.Client.Do(req.Clone(ctx))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

type headerTransport struct {
	base   http.RoundTripper
	header http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var out *http.Request
	for k, vals := range t.header {
		if req.Header.Get(k) != "" {
			continue
		}
		if out == nil {
			// RoundTrippers must not mutate the caller's request.
			out = req.Clone(req.Context())
		}
		for _, v := range vals {
			out.Header.Add(k, v)
		}
	}
	if out == nil {
		out = req
	}
	return t.base.RoundTrip(out)
}
