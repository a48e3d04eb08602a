package serp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/seogen/internal/fingerprint"
	"github.com/FranksOps/seogen/internal/scraper"
)

const googleFixture = `<html><body><div id="search">
<div class="g"><a href="https://a.example"><h3>Best Running Shoes of 2024</h3></a><div class="VwiC3b">Our experts tested   dozens of pairs.</div></div>
<div class="g"><a href="https://b.example">no heading here</a></div>
<div class="g"><a href="https://c.example"><h3>Running Shoes for Beginners</h3></a></div>
<div class="g"><a href="https://d.example"><h3>Top Trail Shoes</h3></a><div class="VwiC3b">Grip and comfort.</div></div>
</div></body></html>`

const ddgFixture = `<html><body>
<div class="result result--ad"><a class="result__a" href="#">Sponsored Shoes</a><a class="result__snippet">Buy now</a></div>
<div class="result results_links"><h2><a class="result__a" href="#">Best Running Shoes</a></h2><a class="result__snippet">Tested by runners.</a></div>
<div class="result"><div class="result__snippet">orphan snippet</div></div>
<div class="result"><h2><a class="result__a" href="#">Running Shoe Guide</a></h2></div>
</body></html>`

func newFetcher(t *testing.T) *scraper.Fetcher {
	t.Helper()
	f, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
	})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	return f
}

func TestParseGoogle(t *testing.T) {
	results, err := ParseGoogle(strings.NewReader(googleFixture), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(results), results)
	}
	if results[0].Title != "Best Running Shoes of 2024" {
		t.Errorf("unexpected first title %q", results[0].Title)
	}
	if results[0].Snippet != "Our experts tested dozens of pairs." {
		t.Errorf("unexpected first snippet %q", results[0].Snippet)
	}
	if results[1].Snippet != "" {
		t.Errorf("expected empty snippet when absent, got %q", results[1].Snippet)
	}
	if results[2].Title != "Top Trail Shoes" {
		t.Errorf("expected page order to be kept, got %q", results[2].Title)
	}
}

func TestParseGoogle_Limit(t *testing.T) {
	results, _ := ParseGoogle(strings.NewReader(googleFixture), 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestParseGoogle_LayoutDrift(t *testing.T) {
	results, err := ParseGoogle(strings.NewReader(`<html><body><div class="new-layout"><h3>x</h3></div></body></html>`), 10)
	if err != nil {
		t.Fatalf("expected no error on unknown layout, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected zero results, got %d", len(results))
	}
}

func TestParseDuckDuckGo(t *testing.T) {
	results, err := ParseDuckDuckGo(strings.NewReader(ddgFixture), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(results), results)
	}
	if results[0].Title != "Best Running Shoes" || results[0].Snippet != "Tested by runners." {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].Title != "Running Shoe Guide" || results[1].Snippet != "" {
		t.Errorf("unexpected second result %+v", results[1])
	}
}

func TestGoogle_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "best running shoes" {
			t.Errorf("expected decoded query 'best running shoes', got %q", got)
		}
		if !strings.Contains(r.URL.RawQuery, "q=best+running+shoes") {
			t.Errorf("expected keyword to be query-escaped, got %q", r.URL.RawQuery)
		}
		if got := r.URL.Query().Get("num"); got != "10" {
			t.Errorf("expected num=10, got %q", got)
		}
		_, _ = fmt.Fprint(w, googleFixture)
	}))
	defer ts.Close()

	g := NewGoogle(newFetcher(t), ts.URL+"/search", nil)
	results, err := g.Search(context.Background(), "best running shoes", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestGoogle_SearchBlocked(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body>Our systems have detected unusual traffic from your computer network.</body></html>`)
	}))
	defer ts.Close()

	g := NewGoogle(newFetcher(t), ts.URL+"/search", nil)
	_, err := g.Search(context.Background(), "shoes", 10)
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestGoogle_SearchUnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	g := NewGoogle(newFetcher(t), ts.URL+"/search", nil)
	_, err := g.Search(context.Background(), "shoes", 10)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestDuckDuckGo_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "running shoes" {
			t.Errorf("unexpected query %q", got)
		}
		_, _ = fmt.Fprint(w, ddgFixture)
	}))
	defer ts.Close()

	p, err := New("duckduckgo", newFetcher(t), ts.URL+"/html/", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	results, err := p.Search(context.Background(), "running shoes", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected limit of 1 to be honored, got %d", len(results))
	}
}

func TestNew_UnknownEngine(t *testing.T) {
	if _, err := New("altavista", nil, "", nil); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}
