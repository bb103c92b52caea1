// Package rdap implements the structured-protocol client: an HTTPS/JSON
// registry lookup interpreted per status code, with best-effort extraction
// of registrar, dates, status codes, and name servers from the RDAP object
// model.
package rdap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/domaincheck/internal/core"
	"github.com/FranksOps/domaincheck/pkg/httpclient"
)

// maxBodyBytes caps how much of an RDAP response body is read, mirroring
// the textual client's hard cap so a misbehaving registry cannot exhaust
// memory across many concurrent lookups.
const maxBodyBytes = 1 << 20 // 1 MiB

// Result is the outcome of a single structured-protocol attempt.
type Result struct {
	Outcome    core.AttemptOutcome
	Metadata   core.Metadata
	Err        *core.Error
	RetryAfter time.Duration
}

// Client performs RDAP lookups over a shared *http.Client with connection
// reuse across workers, per the concurrency & resource model.
type Client struct {
	http      *http.Client
	userAgent string
}

// New builds a Client. The supplied http.Client is expected to enforce
// TLS 1.2+ and a redirect cap via its Transport/CheckRedirect — see
// NewHTTPClient for the default construction used by the engine.
func New(httpClient *http.Client, userAgent string) *Client {
	return &Client{http: httpClient, userAgent: userAgent}
}

// NewHTTPClient builds the shared *http.Client used for both RDAP and
// web-WHOIS lookups, through pkg/httpclient.NewRegistryClient.
func NewHTTPClient(timeout time.Duration) *http.Client {
	hc, err := httpclient.NewRegistryClient(timeout)
	if err != nil {
		// NewRegistryClient only errors constructing a cookie jar, which it
		// never requests.
		panic(err)
	}
	return hc
}

// Lookup performs one attempt against the given RDAP base URL template
// (with the literal placeholder "{domain}") for fqdn.
func (c *Client) Lookup(ctx context.Context, urlTemplate, fqdn string) Result {
	url := strings.ReplaceAll(urlTemplate, "{domain}", fqdn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Outcome: core.OutcomeError, Err: core.InternalError("building rdap request: " + err.Error())}
	}
	req.Header.Set("Accept", "application/rdap+json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{Outcome: core.OutcomeError, Err: core.TimeoutError("rdap lookup", 0)}
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return Result{Outcome: core.OutcomeError, Err: core.CancelledError()}
		}
		return Result{Outcome: core.OutcomeError, Err: core.NetworkError(true, err)}
	}
	defer resp.Body.Close()

	return c.interpret(resp)
}

func (c *Client) interpret(resp *http.Response) Result {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Result{Outcome: core.OutcomeAvailable}

	case resp.StatusCode == http.StatusOK:
		body, err := readCapped(resp.Body, maxBodyBytes)
		if err != nil {
			return Result{Outcome: core.OutcomeError, Err: core.ResponseTooLargeError("structured", maxBodyBytes)}
		}
		meta, err := parseRDAP(body)
		if err != nil {
			// A 200 with an unparseable body: partial metadata (if any
			// was salvaged) is still kept by the caller, classified as
			// an inconclusive attempt so the orchestrator can fall back.
			return Result{Outcome: core.OutcomeInconclive, Metadata: meta, Err: core.ParseErrorFrom("structured", "unparseable rdap body", err)}
		}
		return Result{Outcome: core.OutcomeTaken, Metadata: meta}

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return Result{Outcome: core.OutcomeError, Err: core.RateLimitedError(retryAfter), RetryAfter: retryAfter}

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return Result{Outcome: core.OutcomeError, Err: core.BadQueryError(fmt.Sprintf("rdap returned HTTP %d", resp.StatusCode))}

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Result{Outcome: core.OutcomeInconclive, Err: core.ParseErrorFrom("structured", fmt.Sprintf("unexpected HTTP %d", resp.StatusCode), nil)}

	case resp.StatusCode >= 500:
		err := core.NetworkError(true, fmt.Errorf("rdap returned HTTP %d", resp.StatusCode))
		err.Retryable = true
		return Result{Outcome: core.OutcomeError, Err: err}

	default:
		return Result{Outcome: core.OutcomeInconclive, Err: core.ParseErrorFrom("structured", fmt.Sprintf("unexpected HTTP %d", resp.StatusCode), nil)}
	}
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

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}

// rdapDoc is the subset of the RDAP domain object model this client
// understands. Unrecognized fields are ignored; missing fields are
// tolerated (best-effort extraction per the component design).
type rdapDoc struct {
	LDHName string   `json:"ldhName"`
	Status  []string `json:"status"`
	Events  []struct {
		Action string `json:"eventAction"`
		Date   string `json:"eventDate"`
	} `json:"events"`
	Entities []struct {
		Roles      []string    `json:"roles"`
		VCardArray interface{} `json:"vcardArray"`
	} `json:"entities"`
	Nameservers []struct {
		LDHName string `json:"ldhName"`
	} `json:"nameservers"`
}

func parseRDAP(body []byte) (core.Metadata, error) {
	var doc rdapDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return core.Metadata{}, err
	}

	var meta core.Metadata
	meta.StatusCodes = append(meta.StatusCodes, doc.Status...)

	for _, ev := range doc.Events {
		switch ev.Action {
		case "registration":
			meta.CreationDate = ev.Date
		case "expiration":
			meta.ExpiryDate = ev.Date
		case "last changed":
			meta.UpdatedDate = ev.Date
		}
	}

	for _, entity := range doc.Entities {
		for _, role := range entity.Roles {
			if role == "registrar" {
				if fn := extractVCardFN(entity.VCardArray); fn != "" {
					meta.Registrar = fn
				}
			}
		}
	}

	for _, ns := range doc.Nameservers {
		if ns.LDHName != "" {
			meta.NameServers = append(meta.NameServers, ns.LDHName)
		}
	}

	return meta, nil
}

// extractVCardFN pulls the "fn" (full name) property out of a jCard-style
// vcardArray: ["vcard", [[prop, params, type, value], ...]].
func extractVCardFN(vc interface{}) string {
	arr, ok := vc.([]interface{})
	if !ok || len(arr) < 2 {
		return ""
	}
	props, ok := arr[1].([]interface{})
	if !ok {
		return ""
	}
	for _, p := range props {
		prop, ok := p.([]interface{})
		if !ok || len(prop) < 4 {
			continue
		}
		name, ok := prop[0].(string)
		if !ok || name != "fn" {
			continue
		}
		if val, ok := prop[3].(string); ok {
			return val
		}
	}
	return ""
}
