package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies the cause of a failed or inconclusive lookup attempt.
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "invalid_input"
	KindEndpointUnavailable ErrorKind = "endpoint_unavailable"
	KindNoTextualServer     ErrorKind = "no_textual_server"
	KindNetwork             ErrorKind = "network"
	KindTimeout             ErrorKind = "timeout"
	KindRateLimited         ErrorKind = "rate_limited"
	KindParseError          ErrorKind = "parse_error"
	KindResponseTooLarge    ErrorKind = "response_too_large"
	KindBadQuery            ErrorKind = "bad_query"
	KindCancelled           ErrorKind = "cancelled"
	KindInternal            ErrorKind = "internal"
)

// Error is the structured error type surfaced on DomainResult.Error and on
// individual Attempt records. It wraps an underlying cause (if any) so
// callers can still use errors.Is / errors.As against it.
type Error struct {
	Kind ErrorKind
	// Detail is a short, human-readable description of what went wrong.
	Detail string
	// RetryAfter, when set, overrides computed backoff for the next attempt.
	RetryAfter time.Duration
	// Retryable reports whether the orchestrator may retry the same
	// protocol for this error.
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, &Error{Kind: KindX}) to match on Kind alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, detail string, retryable bool, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Retryable: retryable, Err: cause}
}

// InvalidInput reports that a label failed validation before any lookup
// was attempted.
func InvalidInput(reason string) *Error {
	return newError(KindInvalidInput, reason, false, nil)
}

// EndpointUnavailable reports that no structured-protocol endpoint could be
// resolved for the TLD, either statically or via bootstrap.
func EndpointUnavailable(tld string) *Error {
	return newError(KindEndpointUnavailable, fmt.Sprintf("no rdap endpoint for %q", tld), false, nil)
}

// NoTextualServer reports that no textual-protocol (WHOIS) server mapping
// exists for the TLD.
func NoTextualServer(tld string) *Error {
	return newError(KindNoTextualServer, fmt.Sprintf("no whois server for %q", tld), false, nil)
}

// NetworkError wraps a connect/read/TLS failure. Transient failures are
// retry-eligible; terminal ones are not.
func NetworkError(transient bool, cause error) *Error {
	return newError(KindNetwork, "network failure", transient, cause)
}

// TimeoutError reports that an attempt exceeded its per-attempt timeout.
func TimeoutError(operation string, d time.Duration) *Error {
	return newError(KindTimeout, fmt.Sprintf("%s exceeded %s", operation, d), true, nil)
}

// RateLimitedError reports an explicit server-side throttling signal.
func RateLimitedError(retryAfter time.Duration) *Error {
	e := newError(KindRateLimited, "rate limited", true, nil)
	e.RetryAfter = retryAfter
	return e
}

// ParseErrorFrom reports a response that did not match any known shape.
func ParseErrorFrom(protocol, detail string, cause error) *Error {
	return newError(KindParseError, fmt.Sprintf("%s: %s", protocol, detail), false, cause)
}

// ResponseTooLargeError reports a body exceeding the hard cap for a protocol.
func ResponseTooLargeError(protocol string, limit int) *Error {
	return newError(KindResponseTooLarge, fmt.Sprintf("%s response exceeded %d bytes", protocol, limit), false, nil)
}

// BadQueryError reports that the registry rejected the query as malformed.
func BadQueryError(detail string) *Error {
	return newError(KindBadQuery, detail, false, nil)
}

// CancelledError reports that a cancellation signal was observed.
func CancelledError() *Error {
	return newError(KindCancelled, "cancelled", false, nil)
}

// InternalError reports an invariant violation — a bug, not a registry or
// network condition.
func InternalError(detail string) *Error {
	return newError(KindInternal, detail, false, nil)
}

// CombinedError merges the terminal errors left behind when every
// attempted protocol fell through without a definitive outcome, so the
// single error surfaced on a DomainResult lists every contributing kind
// (e.g. a TLD with no structured endpoint and no textual server reports
// both EndpointUnavailable and NoTextualServer) instead of dropping all
// but one. A single error is returned unchanged.
func CombinedError(errs ...*Error) *Error {
	var present []*Error
	for _, e := range errs {
		if e != nil {
			present = append(present, e)
		}
	}
	if len(present) == 1 {
		return present[0]
	}

	kinds := make([]string, len(present))
	details := make([]string, len(present))
	var retryable bool
	for i, e := range present {
		kinds[i] = string(e.Kind)
		details[i] = e.Error()
		retryable = retryable || e.Retryable
	}
	return &Error{
		Kind:      ErrorKind(strings.Join(kinds, "+")),
		Detail:    strings.Join(details, "; "),
		Retryable: retryable,
	}
}
