package bypass

import (
	"net/http"
	"testing"
)

func TestDetectGoogleSorry(t *testing.T) {
	ok := &Page{URL: "https://www.google.com/search?q=shoes", StatusCode: 200, Body: []byte("<div class=g>results</div>")}
	if detected, _ := detectGoogleSorry(ok); detected {
		t.Errorf("expected normal results page not to be detected")
	}

	redirected := &Page{URL: "https://www.google.com/sorry/index?continue=x", StatusCode: 429}
	if detected, src := detectGoogleSorry(redirected); !detected || src != "GoogleSorry" {
		t.Errorf("expected GoogleSorry detection by URL")
	}

	body := &Page{StatusCode: 200, Body: []byte("Our systems have detected unusual traffic from your computer network.")}
	if detected, _ := detectGoogleSorry(body); !detected {
		t.Errorf("expected GoogleSorry detection by body")
	}
}

func TestDetectDuckDuckGoAnomaly(t *testing.T) {
	p := &Page{StatusCode: 200, Body: []byte(`<div class="anomaly-modal__title">Unfortunately, bots use DuckDuckGo too.</div>`)}
	if detected, src := detectDuckDuckGoAnomaly(p); !detected || src != "DuckDuckGoAnomaly" {
		t.Errorf("expected DuckDuckGo anomaly detection")
	}
}

func TestDetectRecaptcha(t *testing.T) {
	p := &Page{StatusCode: 200, Body: []byte(`<script src="https://www.google.com/recaptcha/api.js"></script>`)}
	if detected, src := detectRecaptcha(p); !detected || src != "reCAPTCHA" {
		t.Errorf("expected reCAPTCHA detection")
	}
}

func TestDetectCloudflare(t *testing.T) {
	ok := &Page{StatusCode: 200, Headers: http.Header{"Server": {"cloudflare"}}, Body: []byte("OK")}
	if detected, _ := detectCloudflare(ok); detected {
		t.Errorf("expected 200 through Cloudflare not to be detected")
	}

	hdr := &Page{StatusCode: 403, Headers: http.Header{"Server": {"cloudflare"}}}
	if detected, src := detectCloudflare(hdr); !detected || src != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by header")
	}

	body := &Page{StatusCode: 503, Body: []byte("<html>... cf-turnstile ...</html>")}
	if detected, _ := detectCloudflare(body); !detected {
		t.Errorf("expected Cloudflare detection by body")
	}
}

func TestAnalyze(t *testing.T) {
	if d := Analyze(nil, DefaultDetectors()); d.Detected {
		t.Errorf("expected nil page not to be detected")
	}

	limited := &Page{StatusCode: http.StatusTooManyRequests}
	d := Analyze(limited, DefaultDetectors())
	if !d.Detected || d.Source != "RateLimited" {
		t.Errorf("expected RateLimited, got %+v", d)
	}

	// Google's sorry page arrives as a 429 too; the more specific source wins.
	sorry := &Page{URL: "https://www.google.com/sorry/index", StatusCode: http.StatusTooManyRequests}
	if d := Analyze(sorry, DefaultDetectors()); d.Source != "GoogleSorry" {
		t.Errorf("expected GoogleSorry to take precedence, got %+v", d)
	}

	clean := &Page{StatusCode: 200, Body: []byte("<html><h3>Best Running Shoes</h3></html>")}
	if d := Analyze(clean, DefaultDetectors()); d.Detected {
		t.Errorf("expected clean page, got %+v", d)
	}
}
