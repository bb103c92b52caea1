package core

import "time"

// Availability is the outcome of a domain availability check.
type Availability string

const (
	Available Availability = "available"
	Taken     Availability = "taken"
	Unknown   Availability = "unknown"
)

// Protocol identifies which wire protocol produced an attempt or a result.
type Protocol string

const (
	ProtocolStructured Protocol = "structured"
	ProtocolTextual    Protocol = "textual"
	ProtocolCached     Protocol = "cached"
	ProtocolNone       Protocol = "none"
)

// AttemptOutcome is the classification of a single protocol attempt,
// independent of the eventual DomainResult.Availability.
type AttemptOutcome string

const (
	OutcomeAvailable  AttemptOutcome = "available"
	OutcomeTaken      AttemptOutcome = "taken"
	OutcomeInconclive AttemptOutcome = "inconclusive"
	OutcomeError      AttemptOutcome = "error"
)

// Attempt records one protocol attempt made while resolving a single
// domain, in the order they were executed.
type Attempt struct {
	ID       string         `json:"id"`
	Protocol Protocol       `json:"protocol"`
	Outcome  AttemptOutcome `json:"outcome"`
	Elapsed  time.Duration  `json:"elapsed"`
	Error    *Error         `json:"error,omitempty"`
}

// DomainResult is the uniform record describing a single domain's outcome.
// Exactly one DomainResult is constructed per input FQDN and it is never
// mutated after it is emitted.
type DomainResult struct {
	FQDN         string       `json:"fqdn"`
	Availability Availability `json:"availability"`
	MethodUsed   Protocol     `json:"method_used"`

	Registrar    string    `json:"registrar,omitempty"`
	CreationDate string    `json:"creation_date,omitempty"`
	ExpiryDate   string    `json:"expiry_date,omitempty"`
	UpdatedDate  string    `json:"updated_date,omitempty"`
	StatusCodes  []string  `json:"status_codes,omitempty"`
	NameServers  []string  `json:"name_servers,omitempty"`

	Error    *Error    `json:"error,omitempty"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// WithMetadata returns a copy of r with the given metadata's fields copied
// onto the corresponding DomainResult fields. Availability=Available must
// never carry metadata (see invariants), so callers only call this for
// Taken results.
func (r DomainResult) WithMetadata(m Metadata) DomainResult {
	r.Registrar = m.Registrar
	r.CreationDate = m.CreationDate
	r.ExpiryDate = m.ExpiryDate
	r.UpdatedDate = m.UpdatedDate
	r.StatusCodes = m.StatusCodes
	r.NameServers = m.NameServers
	return r
}

// Metadata carries registry fields extracted mid-flight, before a final
// Availability classification is known. It is the unit the orchestrator
// merges between structured and textual attempts.
type Metadata struct {
	Registrar    string
	CreationDate string
	ExpiryDate   string
	UpdatedDate  string
	StatusCodes  []string
	NameServers  []string
}

// IsZero reports whether no metadata field was populated.
func (m Metadata) IsZero() bool {
	return m.Registrar == "" && m.CreationDate == "" && m.ExpiryDate == "" &&
		m.UpdatedDate == "" && len(m.StatusCodes) == 0 && len(m.NameServers) == 0
}

// MergeOverlay applies last-writer-wins for scalar fields and set-union for
// set-valued fields, per the result-merging policy: base is kept unless
// overlay provides a non-empty value; sets are unioned.
func MergeOverlay(base, overlay Metadata) Metadata {
	out := base
	if overlay.Registrar != "" {
		out.Registrar = overlay.Registrar
	}
	if overlay.CreationDate != "" {
		out.CreationDate = overlay.CreationDate
	}
	if overlay.ExpiryDate != "" {
		out.ExpiryDate = overlay.ExpiryDate
	}
	if overlay.UpdatedDate != "" {
		out.UpdatedDate = overlay.UpdatedDate
	}
	out.StatusCodes = unionStrings(out.StatusCodes, overlay.StatusCodes)
	out.NameServers = unionStrings(out.NameServers, overlay.NameServers)
	return out
}

func unionStrings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// EndpointSource records where an EndpointEntry came from.
type EndpointSource string

const (
	SourceStatic    EndpointSource = "static"
	SourceBootstrap EndpointSource = "bootstrap"
	SourceNegative  EndpointSource = "negative"
)

// EndpointEntry maps a TLD to its structured-protocol endpoint. The
// URLTemplate uses the literal placeholder "{domain}".
type EndpointEntry struct {
	TLD         string
	URLTemplate string
	Source      EndpointSource
	FetchedAt   time.Time
	ExpiresAt   time.Time
}

func (e EndpointEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}
