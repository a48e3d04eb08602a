package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	KeywordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seogen_keywords_total",
			Help: "Keywords processed, by outcome and failed stage",
		},
		[]string{"status", "stage"},
	)

	SERPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seogen_serp_requests_total",
			Help: "Total number of result-page requests executed",
		},
		[]string{"engine", "outcome"},
	)

	SERPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seogen_serp_duration_seconds",
			Help:    "Duration of result-page requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"engine"},
	)

	SERPResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seogen_serp_results_total",
			Help: "Competitor results parsed from result pages",
		},
		[]string{"engine"},
	)

	GenerationAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seogen_generation_attempts_total",
			Help: "Chat-completion attempts, by final outcome of the call",
		},
		[]string{"outcome"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seogen_generation_duration_seconds",
			Help:    "Wall time of a generation including retries",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seogen_proxy_failures_total",
			Help: "Total number of proxy failures during result-page fetches",
		},
		[]string{"proxy_url"},
	)
)

// RecordSERP counts one result-page request. outcome is "ok", "blocked",
// "status" or "error".
func RecordSERP(engine, outcome string, results int, d time.Duration) {
	SERPRequestsTotal.WithLabelValues(engine, outcome).Inc()
	SERPDuration.WithLabelValues(engine).Observe(d.Seconds())
	if results > 0 {
		SERPResultsTotal.WithLabelValues(engine).Add(float64(results))
	}
}

// RecordGeneration counts the attempts spent on one keyword.
func RecordGeneration(outcome string, attempts int, d time.Duration) {
	GenerationAttemptsTotal.WithLabelValues(outcome).Add(float64(attempts))
	GenerationDuration.Observe(d.Seconds())
}

// RecordKeyword counts a finished keyword. stage is empty on success.
func RecordKeyword(status, stage string) {
	KeywordsTotal.WithLabelValues(status, stage).Inc()
}

// RecordProxyFailure counts a failed request through proxyURL, which must
// already be redacted.
func RecordProxyFailure(proxyURL string) {
	ProxyFailures.WithLabelValues(proxyURL).Inc()
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer returns a server that will listen on the given port.
func NewServer(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(port)),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Listen binds the configured port without serving, so a taken port
// surfaces before any work starts.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen: %w", err)
	}
	return ln, nil
}

// Run listens on the configured port until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("metrics server listening", "addr", ln.Addr().String())
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return s.Stop(context.Background())
	}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
