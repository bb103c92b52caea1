package rdap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FranksOps/domaincheck/internal/core"
)

func serverReturning(t *testing.T, status int, body string, headers map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func newClient(srv *httptest.Server) *Client {
	return New(srv.Client(), "domaincheck-test/1.0")
}

func TestLookup_404IsAvailable(t *testing.T) {
	srv := serverReturning(t, http.StatusNotFound, "", nil)
	defer srv.Close()
	res := newClient(srv).Lookup(context.Background(), srv.URL+"/domain/{domain}", "acme.com")
	if res.Outcome != core.OutcomeAvailable {
		t.Errorf("expected available, got %s (err=%v)", res.Outcome, res.Err)
	}
}

func TestLookup_200ParsesMetadata(t *testing.T) {
	body := `{
		"ldhName": "acme.io",
		"status": ["active"],
		"events": [{"eventAction": "expiration", "eventDate": "2030-01-01T00:00:00Z"}],
		"entities": [{"roles": ["registrar"], "vcardArray": ["vcard", [["fn", {}, "text", "Registry X"]]]}],
		"nameservers": [{"ldhName": "ns1.acme.io"}]
	}`
	srv := serverReturning(t, http.StatusOK, body, nil)
	defer srv.Close()
	res := newClient(srv).Lookup(context.Background(), srv.URL+"/domain/{domain}", "acme.io")
	if res.Outcome != core.OutcomeTaken {
		t.Fatalf("expected taken, got %s (err=%v)", res.Outcome, res.Err)
	}
	if res.Metadata.Registrar != "Registry X" {
		t.Errorf("expected registrar extraction, got %q", res.Metadata.Registrar)
	}
	if res.Metadata.ExpiryDate != "2030-01-01T00:00:00Z" {
		t.Errorf("expected expiry extraction, got %q", res.Metadata.ExpiryDate)
	}
	if len(res.Metadata.NameServers) != 1 || res.Metadata.NameServers[0] != "ns1.acme.io" {
		t.Errorf("expected nameserver extraction, got %v", res.Metadata.NameServers)
	}
}

func TestLookup_429CarriesRetryAfter(t *testing.T) {
	srv := serverReturning(t, http.StatusTooManyRequests, "", map[string]string{"Retry-After": "2"})
	defer srv.Close()
	res := newClient(srv).Lookup(context.Background(), srv.URL+"/domain/{domain}", "acme.com")
	if res.Err == nil || res.Err.Kind != core.KindRateLimited {
		t.Fatalf("expected rate limited, got %+v", res)
	}
	if res.RetryAfter < 2*time.Second {
		t.Errorf("expected retry-after >= 2s, got %s", res.RetryAfter)
	}
}

func TestLookup_400IsBadQuery(t *testing.T) {
	srv := serverReturning(t, http.StatusBadRequest, "", nil)
	defer srv.Close()
	res := newClient(srv).Lookup(context.Background(), srv.URL+"/domain/{domain}", "acme.com")
	if res.Err == nil || res.Err.Kind != core.KindBadQuery {
		t.Fatalf("expected bad query, got %+v", res)
	}
	if res.Err.Retryable {
		t.Errorf("bad query must not be retryable")
	}
}

func TestLookup_500IsRetryable(t *testing.T) {
	srv := serverReturning(t, http.StatusInternalServerError, "", nil)
	defer srv.Close()
	res := newClient(srv).Lookup(context.Background(), srv.URL+"/domain/{domain}", "acme.com")
	if res.Err == nil || !res.Err.Retryable {
		t.Fatalf("expected retryable error, got %+v", res)
	}
}

func TestLookup_OtherInconclusive4xx(t *testing.T) {
	srv := serverReturning(t, http.StatusForbidden, "", nil)
	defer srv.Close()
	res := newClient(srv).Lookup(context.Background(), srv.URL+"/domain/{domain}", "acme.com")
	if res.Outcome != core.OutcomeInconclive {
		t.Fatalf("expected inconclusive, got %s", res.Outcome)
	}
}

func TestLookup_CallerCancellationIsCancelledNotTimeout(t *testing.T) {
	srv := serverReturning(t, http.StatusOK, "{}", nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newClient(srv).Lookup(ctx, srv.URL+"/domain/{domain}", "acme.com")
	if res.Err == nil || res.Err.Kind != core.KindCancelled {
		t.Fatalf("expected cancelled, got %+v", res)
	}
	if res.Err.Retryable {
		t.Errorf("cancelled must not be retryable")
	}
}

func TestLookup_DeadlineExceededIsRetryableTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	res := New(srv.Client(), "domaincheck-test/1.0").Lookup(ctx, srv.URL+"/domain/{domain}", "acme.com")
	if res.Err == nil || res.Err.Kind != core.KindTimeout {
		t.Fatalf("expected timeout, got %+v", res)
	}
	if !res.Err.Retryable {
		t.Errorf("per-attempt timeout must be retryable")
	}
}
