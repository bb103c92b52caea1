package domaincheck

import (
	"time"

	"github.com/FranksOps/domaincheck/internal/core"
)

// Constructors for the public Error taxonomy. Each mirrors the constructor
// in internal/core whose name is this one without the "New" prefix; kept here so callers outside this
// module can build matching errors for errors.Is comparisons without
// reaching into internal packages.

func NewInvalidInput(reason string) *Error               { return core.InvalidInput(reason) }
func NewEndpointUnavailable(tld string) *Error            { return core.EndpointUnavailable(tld) }
func NewNoTextualServer(tld string) *Error                { return core.NoTextualServer(tld) }
func NewNetworkError(transient bool, cause error) *Error  { return core.NetworkError(transient, cause) }
func NewTimeoutError(op string, d time.Duration) *Error   { return core.TimeoutError(op, d) }
func NewRateLimitedError(retryAfter time.Duration) *Error { return core.RateLimitedError(retryAfter) }
func NewCancelledError() *Error                           { return core.CancelledError() }
func NewInternalError(detail string) *Error               { return core.InternalError(detail) }
