package whois

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FranksOps/domaincheck/internal/core"
	"github.com/FranksOps/domaincheck/pkg/ratelimit"
)

var testTLDCounter atomic.Int64

// serveOnce starts a TCP listener that responds with body to the first
// connection, then closes. It registers the listener's host (without
// port) in serverTable under a throwaway TLD and returns that TLD, the
// listener's port (so tests can dial it without assuming port 43, which
// requires elevated privileges), and a cleanup func.
func serveOnce(t *testing.T, body string) (tld, port string, cleanup func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		_, _ = reader.ReadString('\n')
		conn.Write([]byte(body))
	}()

	host, p, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	tld = fmt.Sprintf("testtld%d", testTLDCounter.Add(1))
	serverTable[tld] = host
	return tld, p, func() {
		ln.Close()
		delete(serverTable, tld)
	}
}

func withTestHost(t *testing.T, body string, fn func(client *Client, fqdn string)) {
	tld, port, cleanup := serveOnce(t, body)
	defer cleanup()
	fn(NewWithPort(2*time.Second, 0, port), "acme."+tld)
}

func TestLookup_NotFoundIsAvailable(t *testing.T) {
	withTestHost(t, "No match for ACME.TEST\r\n", func(c *Client, fqdn string) {
		res := c.Lookup(context.Background(), fqdn)
		if res.Outcome != core.OutcomeAvailable {
			t.Fatalf("expected available, got %s (err=%v)", res.Outcome, res.Err)
		}
	})
}

func TestLookup_RegisteredExtractsMetadata(t *testing.T) {
	body := "Domain Name: ACME.TEST\r\nRegistrar: Registry X\r\nCreation Date: 2020-01-01T00:00:00Z\r\nName Server: ns1.acme.test\r\nName Server: ns2.acme.test\r\n"
	withTestHost(t, body, func(c *Client, fqdn string) {
		res := c.Lookup(context.Background(), fqdn)
		if res.Outcome != core.OutcomeTaken {
			t.Fatalf("expected taken, got %s", res.Outcome)
		}
		if res.Metadata.Registrar != "Registry X" {
			t.Errorf("expected registrar extraction, got %q", res.Metadata.Registrar)
		}
		if len(res.Metadata.NameServers) != 2 {
			t.Errorf("expected 2 name servers, got %v", res.Metadata.NameServers)
		}
	})
}

func TestLookup_UnknownOnAmbiguousBody(t *testing.T) {
	withTestHost(t, "Some unrelated banner text.\r\n", func(c *Client, fqdn string) {
		res := c.Lookup(context.Background(), fqdn)
		if res.Outcome != core.OutcomeInconclive {
			t.Fatalf("expected inconclusive, got %s", res.Outcome)
		}
	})
}

func TestLookup_NoServerMapping(t *testing.T) {
	res := New(2*time.Second, 0).Lookup(context.Background(), "acme.doesnotexist-tld")
	if res.Err == nil || res.Err.Kind != core.KindNoTextualServer {
		t.Fatalf("expected NoTextualServer, got %+v", res)
	}
}

func TestLookup_ThrottledClientAnswersFirstQueryPromptly(t *testing.T) {
	tld, port, cleanup := serveOnce(t, "No match for ACME.TEST\r\n")
	defer cleanup()
	// serveOnce only answers once; a second dial on a throttled client
	// would hang waiting on the limiter rather than fail fast, so this
	// test only asserts construction accepts a positive rate and the
	// first query still succeeds promptly.
	c := NewWithPort(2*time.Second, 50, port)
	start := time.Now()
	res := c.Lookup(context.Background(), "acme."+tld)
	if res.Outcome != core.OutcomeAvailable {
		t.Fatalf("expected available, got %s (err=%v)", res.Outcome, res.Err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("first query against an empty limiter should not block, took %v", time.Since(start))
	}
}

func TestLookup_OversizedResponseIsNonRetryable(t *testing.T) {
	oversized := make([]byte, maxBodyBytes+1)
	for i := range oversized {
		oversized[i] = 'x'
	}
	withTestHost(t, string(oversized), func(c *Client, fqdn string) {
		res := c.Lookup(context.Background(), fqdn)
		if res.Err == nil || res.Err.Kind != core.KindResponseTooLarge {
			t.Fatalf("expected ResponseTooLarge, got %+v", res)
		}
		if res.Err.Retryable {
			t.Errorf("ResponseTooLarge must not be retryable, got %+v", res.Err)
		}
	})
}

func TestLookup_CallerCancellationIsCancelledNotTimeout(t *testing.T) {
	withTestHost(t, "No match for ACME.TEST\r\n", func(c *Client, fqdn string) {
		// A contended limiter is what lets query observe ctx at all; at
		// rps=0 Wait never looks at ctx.
		c.limiters = ratelimit.NewGroup(50, 0)

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

func TestLookup_PerAttemptDeadlineIsRetryableTimeout(t *testing.T) {
	withTestHost(t, "No match for ACME.TEST\r\n", func(c *Client, fqdn string) {
		c.limiters = ratelimit.NewGroup(50, 0)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Millisecond)
		defer cancel()

		res := c.Lookup(ctx, fqdn)
		if res.Err == nil || res.Err.Kind != core.KindTimeout {
			t.Fatalf("expected timeout, got %+v", res)
		}
		if !res.Err.Retryable {
			t.Errorf("per-attempt timeout must be retryable")
		}
	})
}

func TestClassify_RateLimitSignature(t *testing.T) {
	cl := classify("com", "Query rate limit exceeded, try again later.")
	if cl.Outcome != core.OutcomeError || cl.Err == nil || cl.Err.Kind != core.KindRateLimited {
		t.Fatalf("expected rate limited classification, got %+v", cl)
	}
}

func TestFindReferral(t *testing.T) {
	body := "Domain Name: ACME.COM\r\nRegistrar WHOIS Server: whois.registrar.example\r\n"
	host, ok := findReferral(body)
	if !ok || host != "whois.registrar.example" {
		t.Fatalf("expected referral extraction, got %q ok=%v", host, ok)
	}
}
