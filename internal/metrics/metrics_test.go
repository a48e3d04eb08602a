package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMetricsServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	srv := NewServer(0, nil)
	go func() { done <- srv.Serve(ctx, ln) }()

	RecordSERP("google", "ok", 10, 1*time.Second)
	RecordGeneration("ok", 2, 3*time.Second)
	RecordKeyword("failed", "fetch")

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	output := string(body)

	if !strings.Contains(output, `seogen_serp_requests_total{engine="google",outcome="ok"}`) {
		t.Errorf("expected seogen_serp_requests_total metric")
	}
	if !strings.Contains(output, `seogen_serp_results_total{engine="google"} 10`) {
		t.Errorf("expected seogen_serp_results_total of 10 for google")
	}
	if !strings.Contains(output, "seogen_generation_duration_seconds_bucket") {
		t.Errorf("expected seogen_generation_duration_seconds metric")
	}
	if !strings.Contains(output, `seogen_keywords_total{stage="fetch",status="failed"}`) {
		t.Errorf("expected seogen_keywords_total metric")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected shutdown error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerListen_PortTaken(t *testing.T) {
	taken, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer taken.Close()
	port := taken.Addr().(*net.TCPAddr).Port

	if _, err := NewServer(port, nil).Listen(); err == nil {
		t.Fatal("expected error binding a taken port")
	}
	if err := NewServer(port, nil).Run(context.Background()); err == nil {
		t.Fatal("expected Run to fail on a taken port")
	}
}
