package whois

import (
	"strings"

	"github.com/FranksOps/domaincheck/internal/core"
)

// classification is the result of running a WHOIS response body through
// the ordered-precedence interpretation rules in §4.4.
type classification struct {
	Outcome  core.AttemptOutcome
	Metadata core.Metadata
	Err      *core.Error
}

// ClassifyText applies the same ordered-precedence interpretation rules
// used for port-43 responses to a free-form WHOIS-shaped body obtained by
// other means (e.g. scraped from a web form by internal/webwhois). It lets
// that fallback client reuse the signature tables instead of duplicating
// them.
func ClassifyText(tld, body string) (core.AttemptOutcome, core.Metadata, *core.Error) {
	cl := classify(tld, body)
	return cl.Outcome, cl.Metadata, cl.Err
}

// classify interprets a WHOIS response body for tld per the ordered
// precedence: not-found signature, then registered markers, then
// rate-limit signature, else unknown.
func classify(tld, body string) classification {
	lower := strings.ToLower(body)

	if ok, pattern := matchesAny(lower, signatures.notFoundPatterns(tld)); ok {
		_ = pattern
		return classification{Outcome: core.OutcomeAvailable}
	}

	if hasAny(lower, registeredMarkers) {
		return classification{Outcome: core.OutcomeTaken, Metadata: extractMetadata(body)}
	}

	if ok, _ := matchesAny(lower, signatures.rateLimitPatterns(tld)); ok {
		return classification{
			Outcome: core.OutcomeError,
			Err:     core.RateLimitedError(0),
		}
	}

	return classification{Outcome: core.OutcomeInconclive}
}

func hasAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// extractMetadata does line-oriented key/value parsing of a WHOIS body:
// "key: value", trimmed; multi-value keys (status, name servers)
// accumulate into sets.
func extractMetadata(body string) core.Metadata {
	var meta core.Metadata
	statusSeen := map[string]struct{}{}
	nsSeen := map[string]struct{}{}

	for _, line := range strings.Split(body, "\n") {
		key, value, ok := splitKV(line)
		if !ok {
			continue
		}
		lowerKey := strings.ToLower(key)

		switch lowerKey {
		case "registrar":
			if meta.Registrar == "" {
				meta.Registrar = value
			}
		case "creation date", "registered on", "registration date":
			if meta.CreationDate == "" {
				meta.CreationDate = value
			}
		case "registry expiry date", "expiry date", "expiration date", "paid-till":
			if meta.ExpiryDate == "" {
				meta.ExpiryDate = value
			}
		case "updated date", "last updated", "changed":
			if meta.UpdatedDate == "" {
				meta.UpdatedDate = value
			}
		case "domain status", "status":
			if _, dup := statusSeen[value]; !dup && value != "" {
				statusSeen[value] = struct{}{}
				meta.StatusCodes = append(meta.StatusCodes, value)
			}
		case "name server", "nserver":
			if _, dup := nsSeen[value]; !dup && value != "" {
				nsSeen[value] = struct{}{}
				meta.NameServers = append(meta.NameServers, value)
			}
		}
	}
	return meta
}

func splitKV(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "%") || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	idx := strings.Index(trimmed, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(trimmed[:idx])
	value = strings.TrimSpace(trimmed[idx+1:])
	return key, value, true
}

// findReferral looks for a "Registrar WHOIS Server: {host}" line (or
// case-insensitive synonyms) in body, returning the referred host.
func findReferral(body string) (string, bool) {
	synonyms := []string{
		"registrar whois server",
		"whois server",
		"refer",
	}
	for _, line := range strings.Split(body, "\n") {
		key, value, ok := splitKV(line)
		if !ok || value == "" {
			continue
		}
		lowerKey := strings.ToLower(key)
		for _, syn := range synonyms {
			if lowerKey == syn {
				return value, true
			}
		}
	}
	return "", false
}
