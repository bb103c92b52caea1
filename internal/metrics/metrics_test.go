package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMetricsServer(t *testing.T) {
	srv := Start(8889)
	time.Sleep(100 * time.Millisecond)
	defer srv.Stop(context.Background())

	RecordAttempt("structured", "available", 250*time.Millisecond)
	RecordResult("available", "structured")
	BootstrapFetchesTotal.Inc()

	resp, err := http.Get("http://localhost:8889/metrics")
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

	for _, want := range []string{
		"domaincheck_attempts_total",
		"domaincheck_attempt_duration_seconds_bucket",
		`domaincheck_results_total{availability="available",method="structured"}`,
		"domaincheck_bootstrap_fetches_total",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}
