package webwhois

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FranksOps/domaincheck/internal/core"
)

func withTestEntry(t *testing.T, html, selector string, fn func(c *Client, fqdn string)) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	defer srv.Close()

	tld := "webwhoistest"
	RegisterEntry(tld, srv.URL+"/lookup?domain={domain}", selector)
	defer RemoveEntry(tld)

	fn(New(srv.Client(), "domaincheck-test/1.0"), "acme."+tld)
}

func TestLookup_NotFoundIsAvailable(t *testing.T) {
	html := `<html><body><div id="result">No match for ACME.TEST</div></body></html>`
	withTestEntry(t, html, "#result", func(c *Client, fqdn string) {
		res := c.Lookup(context.Background(), fqdn)
		if res.Outcome != core.OutcomeAvailable {
			t.Fatalf("expected available, got %s (err=%v)", res.Outcome, res.Err)
		}
	})
}

func TestLookup_RegisteredExtractsMetadata(t *testing.T) {
	html := `<html><body><pre class="out">Domain Name: ACME.TEST
Registrar: Registry X
Creation Date: 2020-01-01T00:00:00Z</pre></body></html>`
	withTestEntry(t, html, ".out", func(c *Client, fqdn string) {
		res := c.Lookup(context.Background(), fqdn)
		if res.Outcome != core.OutcomeTaken {
			t.Fatalf("expected taken, got %s (err=%v)", res.Outcome, res.Err)
		}
		if res.Metadata.Registrar != "Registry X" {
			t.Errorf("expected registrar extraction, got %q", res.Metadata.Registrar)
		}
	})
}

func TestLookup_EmptySelectorFallsBackToWholePage(t *testing.T) {
	html := `<html><body>No match for ACME.TEST</body></html>`
	withTestEntry(t, html, "", func(c *Client, fqdn string) {
		res := c.Lookup(context.Background(), fqdn)
		if res.Outcome != core.OutcomeAvailable {
			t.Fatalf("expected available, got %s (err=%v)", res.Outcome, res.Err)
		}
	})
}

func TestLookup_NoTableEntry(t *testing.T) {
	c := New(http.DefaultClient, "domaincheck-test/1.0")
	res := c.Lookup(context.Background(), "acme.doesnotexist-tld")
	if res.Err == nil || res.Err.Kind != core.KindNoTextualServer {
		t.Fatalf("expected no textual server, got %+v", res)
	}
}

func TestLookup_CallerCancellationIsCancelledNotTimeout(t *testing.T) {
	html := `<html><body><div id="result">No match for ACME.TEST</div></body></html>`
	withTestEntry(t, html, "#result", func(c *Client, fqdn string) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := c.Lookup(ctx, fqdn)
		if res.Err == nil || res.Err.Kind != core.KindCancelled {
			t.Fatalf("expected cancelled, got %+v", res)
		}
		if res.Err.Retryable {
			t.Errorf("cancelled must not be retryable")
		}
	})
}

func TestLookup_DeadlineExceededIsRetryableTimeout(t *testing.T) {
	tld := "webwhoistimeouttest"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	RegisterEntry(tld, srv.URL+"/lookup?domain={domain}", "")
	defer RemoveEntry(tld)

	c := New(srv.Client(), "domaincheck-test/1.0")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	res := c.Lookup(ctx, "acme."+tld)
	if res.Err == nil || res.Err.Kind != core.KindTimeout {
		t.Fatalf("expected timeout, got %+v", res)
	}
	if !res.Err.Retryable {
		t.Errorf("per-attempt timeout must be retryable")
	}
}
