//go:build integration

package test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domaincheck "github.com/FranksOps/domaincheck"
)

// rdapAndBootstrapServers wires a throwaway TLD's bootstrap entry at a
// local RDAP httptest server, mirroring the engine package's own unit test
// helper but kept independent here since integration tests build against
// the public API only.
func rdapAndBootstrapServers(t *testing.T, tld string, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	rdapSrv := httptest.NewServer(handler)
	t.Cleanup(rdapSrv.Close)

	bootstrapSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"services":[[["%s"],["%s"]]]}`, tld, rdapSrv.URL)
	}))
	t.Cleanup(bootstrapSrv.Close)
	return bootstrapSrv
}

// TestIntegration_BatchAcrossMixedOutcomes exercises the whole Engine end
// to end against fake RDAP/bootstrap servers: one available domain, one
// taken domain with metadata, and one invalid input, all in a single
// batch call, the way a real CLI invocation would use it.
func TestIntegration_BatchAcrossMixedOutcomes(t *testing.T) {
	tld := "integrationtest"
	bootstrapSrv := rdapAndBootstrapServers(t, tld, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/domain/taken." + tld:
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"ldhName":"taken.integrationtest","status":["active"],"entities":[{"roles":["registrar"],"vcardArray":["vcard",[["fn",{},"text","Registry X"]]]}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	cfg := domaincheck.DefaultConfiguration()
	cfg.BootstrapURL = bootstrapSrv.URL
	cfg.ProtocolOrder = domaincheck.StructuredOnly
	cfg.TLDs = []string{tld}
	cfg.PerAttemptTimeout = 5 * time.Second

	eng, err := domaincheck.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := eng.Batch(ctx, []string{"available." + tld, "taken." + tld, "--not-a-domain"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	byFQDN := make(map[string]domaincheck.DomainResult, len(results))
	for _, r := range results {
		byFQDN[r.FQDN] = r
	}

	if r := byFQDN["available."+tld]; r.Availability != domaincheck.Available {
		t.Errorf("expected available, got %+v", r)
	}
	if r := byFQDN["taken."+tld]; r.Availability != domaincheck.Taken || r.Registrar != "Registry X" {
		t.Errorf("expected taken with registrar, got %+v", r)
	}
	if r := byFQDN["--not-a-domain"]; r.Availability != domaincheck.Unknown || r.Error == nil || r.Error.Kind != domaincheck.KindInvalidInput {
		t.Errorf("expected invalid input isolated as unknown, got %+v", r)
	}
}
