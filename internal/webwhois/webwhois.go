// Package webwhois is the second-tier textual-protocol fallback: a small
// set of ccTLD registries publish no port-43 service but do publish a
// browsable WHOIS form. This client issues an HTTPS GET against that
// form's query URL and scrapes the result text out of the response page,
// then classifies it with the same ordered-precedence rules the port-43
// client uses.
package webwhois

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/domaincheck/internal/core"
	"github.com/FranksOps/domaincheck/internal/whois"
)

// maxBodyBytes caps how much of a web-WHOIS response page is read, matching
// the hard cap used by the other two protocol clients.
const maxBodyBytes = 1 << 20 // 1 MiB

// Result is the outcome of a single web-WHOIS attempt.
type Result struct {
	Outcome  core.AttemptOutcome
	Metadata core.Metadata
	Err      *core.Error
}

// Client performs web-WHOIS lookups over a shared *http.Client.
type Client struct {
	http      *http.Client
	userAgent string
}

// New builds a Client. httpClient is expected to be the same shared client
// used by internal/rdap, so connections are reused across workers.
func New(httpClient *http.Client, userAgent string) *Client {
	return &Client{http: httpClient, userAgent: userAgent}
}

// Lookup fetches fqdn's TLD entry from the web-WHOIS table and scrapes the
// result text out of the response body selector.
func (c *Client) Lookup(ctx context.Context, fqdn string) Result {
	tld := lastLabel(fqdn)
	entry, ok := tableFor(tld)
	if !ok {
		return Result{Outcome: core.OutcomeError, Err: core.NoTextualServer(tld)}
	}

	url := strings.ReplaceAll(entry.QueryURLTemplate, "{domain}", fqdn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Outcome: core.OutcomeError, Err: core.InternalError("building web-whois request: " + err.Error())}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{Outcome: core.OutcomeError, Err: core.TimeoutError("web-whois lookup", 0)}
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return Result{Outcome: core.OutcomeError, Err: core.CancelledError()}
		}
		return Result{Outcome: core.OutcomeError, Err: core.NetworkError(true, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Outcome: core.OutcomeError, Err: core.NetworkError(true, fmt.Errorf("web-whois returned HTTP %d", resp.StatusCode))}
	}

	body, err := readCapped(resp.Body, maxBodyBytes)
	if err != nil {
		return Result{Outcome: core.OutcomeError, Err: core.ResponseTooLargeError("web-whois", maxBodyBytes)}
	}

	text, err := extractText(body, entry.ResultSelector)
	if err != nil {
		return Result{Outcome: core.OutcomeError, Err: core.ParseErrorFrom("web-whois", "unparseable result page", err)}
	}

	outcome, meta, classErr := whois.ClassifyText(tld, text)
	return Result{Outcome: outcome, Metadata: meta, Err: classErr}
}

// extractText parses body as HTML and returns the combined, untrimmed text
// contents of every element matched by selector. An empty selector, or one
// that matches nothing, falls back to the whole document's text.
func extractText(body []byte, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if selector == "" {
		return doc.Text(), nil
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return doc.Text(), nil
	}
	return sel.Text(), nil
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(r, limit+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("context: response exceeded %d bytes", limit)
	}
	return body, nil
}

func lastLabel(fqdn string) string {
	idx := strings.LastIndexByte(fqdn, '.')
	if idx < 0 {
		return fqdn
	}
	return fqdn[idx+1:]
}
