// Package whois implements the textual-protocol client: a line-oriented
// TCP query against a per-TLD port-43 server, with one referral hop and
// pattern-driven interpretation of the free-form response.
package whois

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FranksOps/domaincheck/internal/core"
	"github.com/FranksOps/domaincheck/pkg/ratelimit"
)

// maxBodyBytes is the hard cap on a WHOIS response, per the resource
// model (typical responses are well under 64 KiB).
const maxBodyBytes = 1 << 20 // 1 MiB

// errResponseTooLarge is returned by query when a response exceeds
// maxBodyBytes, distinguishing it from an ordinary network failure so
// lookupAt can classify it as the non-retryable ResponseTooLarge kind,
// the same way internal/rdap and internal/webwhois treat an oversized body.
var errResponseTooLarge = errors.New("whois response exceeded cap")

// Result is the outcome of a single textual-protocol attempt (including
// any referral hop).
type Result struct {
	Outcome  core.AttemptOutcome
	Metadata core.Metadata
	Err      *core.Error
	Server   string
}

// Client performs WHOIS lookups over TCP/43. Queries to each port-43
// server are throttled by a per-host limiter so a large batch never looks
// like abuse to a single registry's WHOIS service.
type Client struct {
	dialTimeout time.Duration
	readTimeout time.Duration
	port        string // overridable only by tests; production always uses "43"

	limiters *ratelimit.Group
}

// New builds a Client with the given per-attempt timeout used for both
// connect and the overall read deadline, and throttled to queriesPerSecond
// per server (<=0 disables throttling).
func New(timeout time.Duration, queriesPerSecond float64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		dialTimeout: timeout,
		readTimeout: timeout,
		port:        "43",
		limiters:    ratelimit.NewGroup(queriesPerSecond, 0.2),
	}
}

// NewWithPort builds a Client pointed at a non-standard port. Production
// callers always use New (port 43); this exists for tests that spin up a
// local listener — binding port 43 itself requires elevated privileges —
// and for the rare deployment fronted by an internal WHOIS gateway.
func NewWithPort(timeout time.Duration, queriesPerSecond float64, port string) *Client {
	c := New(timeout, queriesPerSecond)
	c.port = port
	return c
}

// Lookup resolves fqdn's TLD to a server, queries it, and follows at most
// one referral hop, per §4.4.
func (c *Client) Lookup(ctx context.Context, fqdn string) Result {
	tld := lastLabel(fqdn)
	host, ok := serverFor(tld)
	if !ok {
		return Result{Outcome: core.OutcomeError, Err: core.NoTextualServer(tld)}
	}
	return c.lookupAt(ctx, fqdn, tld, host, false)
}

func (c *Client) lookupAt(ctx context.Context, fqdn, tld, host string, isReferral bool) Result {
	body, err := c.query(ctx, host, fqdn)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{Outcome: core.OutcomeError, Err: core.TimeoutError("whois lookup", c.readTimeout), Server: host}
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return Result{Outcome: core.OutcomeError, Err: core.CancelledError(), Server: host}
		}
		if errors.Is(err, errResponseTooLarge) {
			return Result{Outcome: core.OutcomeError, Err: core.ResponseTooLargeError("textual", maxBodyBytes), Server: host}
		}
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return Result{Outcome: core.OutcomeError, Err: core.TimeoutError("whois lookup", c.readTimeout), Server: host}
		}
		return Result{Outcome: core.OutcomeError, Err: core.NetworkError(true, err), Server: host}
	}

	if !isReferral {
		if referral, ok := findReferral(body); ok && !sameHost(referral, host) {
			if refBody, refErr := c.query(ctx, referral, fqdn); refErr == nil {
				body = refBody
				host = referral
			}
		}
	}

	cl := classify(tld, body)
	return Result{Outcome: cl.Outcome, Metadata: cl.Metadata, Err: cl.Err, Server: host}
}

// query throttles against host's limiter, opens a TCP connection to
// host:43, sends "{fqdn}\r\n", and reads the response to EOF (or until the
// 1 MiB cap), decoding as UTF-8 with lossy replacement of invalid
// sequences.
func (c *Client) query(ctx context.Context, host, fqdn string) (string, error) {
	if err := c.limiters.For(host).Wait(ctx); err != nil {
		return "", fmt.Errorf("context: rate limiter: %w", err)
	}

	conn, err := net.DialTimeout("tcp", host+":"+c.port, c.dialTimeout)
	if err != nil {
		return "", fmt.Errorf("context: dialing whois server %s: %w", host, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return "", fmt.Errorf("context: setting deadline: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s\r\n", fqdn); err != nil {
		return "", fmt.Errorf("context: sending whois query: %w", err)
	}

	limited := io.LimitReader(conn, maxBodyBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("context: reading whois response: %w", err)
	}
	if len(raw) > maxBodyBytes {
		return "", fmt.Errorf("context: %w: %d bytes", errResponseTooLarge, maxBodyBytes)
	}

	return toUTF8Lossy(raw), nil
}

func toUTF8Lossy(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
			i++
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

func lastLabel(fqdn string) string {
	idx := strings.LastIndexByte(fqdn, '.')
	if idx < 0 {
		return fqdn
	}
	return fqdn[idx+1:]
}

func sameHost(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
