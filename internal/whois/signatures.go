package whois

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
)

// signatureTable is data, not code: per-TLD "not found" and "rate limit"
// substring patterns (case-insensitive), checked together with a generic
// default set that applies to every TLD. It is intentionally mutable at runtime
// via LoadSignatureFile so new TLDs can be taught to the textual client
// without a code change.
type signatureTable struct {
	mu        sync.RWMutex
	notFound  map[string][]string
	rateLimit map[string][]string
}

var signatures = &signatureTable{
	notFound: map[string][]string{
		"de": {"status: free"},
	},
	rateLimit: map[string][]string{},
}

// defaultNotFoundPatterns apply to every TLD in addition to any per-TLD
// override.
var defaultNotFoundPatterns = []string{
	"no match for",
	"not found",
	"no entries found",
	"no data found",
	"object does not exist",
	"no objects found",
	"domain not found",
	"available for registration",
	"this domain name has not been registered",
	"is free",
}

// defaultRateLimitPatterns apply to every TLD in addition to any per-TLD
// override.
var defaultRateLimitPatterns = []string{
	"exceeded the rate limit",
	"too many requests",
	"quota exceeded",
	"query rate limit",
	"please try again later",
}

// registeredMarkers is the global, protocol-wide set of field prefixes
// that indicate an active registration (§4.4, ordered precedence item 2).
var registeredMarkers = []string{
	"domain name:",
	"registrar:",
	"creation date:",
	"registered on:",
	"domain status:",
	"registrant:",
	"registry domain id:",
	"nserver:",
}

func (s *signatureTable) notFoundPatterns(tld string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(append([]string{}, defaultNotFoundPatterns...), s.notFound[tld]...)
}

func (s *signatureTable) rateLimitPatterns(tld string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(append([]string{}, defaultRateLimitPatterns...), s.rateLimit[tld]...)
}

// signatureFile is the on-disk shape consulted by LoadSignatureFile.
type signatureFile struct {
	NotFound  map[string][]string `json:"not_found"`
	RateLimit map[string][]string `json:"rate_limit"`
}

// LoadSignatureFile replaces the per-TLD signature overrides from a JSON
// file, so operators can extend textual-protocol parsing to new TLDs
// without recompiling the client.
func LoadSignatureFile(path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f signatureFile
	if err := json.Unmarshal(body, &f); err != nil {
		return err
	}
	signatures.mu.Lock()
	defer signatures.mu.Unlock()
	if f.NotFound != nil {
		signatures.notFound = f.NotFound
	}
	if f.RateLimit != nil {
		signatures.rateLimit = f.RateLimit
	}
	return nil
}

func matchesAny(lower string, patterns []string) (bool, string) {
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true, p
		}
	}
	return false, ""
}
