package core

import (
	"fmt"
	"time"
)

// ProtocolOrder controls which wire protocol the orchestrator tries first,
// and whether it falls back to the other.
type ProtocolOrder string

const (
	StructuredOnly         ProtocolOrder = "structured-only"
	TextualOnly            ProtocolOrder = "textual-only"
	StructuredThenTextual  ProtocolOrder = "structured-then-textual"
	TextualThenStructured  ProtocolOrder = "textual-then-structured"
)

// Preset names a curated, named TLD set.
type Preset string

const (
	PresetStartup    Preset = "startup"
	PresetEnterprise Preset = "enterprise"
	PresetCountry    Preset = "country"
)

// presetTLDs are the named TLD sets referenced by Configuration.Preset.
var presetTLDs = map[Preset][]string{
	PresetStartup:    {"com", "io", "ai", "app", "dev", "co"},
	PresetEnterprise: {"com", "net", "org", "co", "inc", "llc"},
	PresetCountry:    {"us", "uk", "de", "fr", "jp", "ca", "au"},
}

// Configuration holds every knob recognized by the engine. Values not set
// by the caller take the documented defaults in DefaultConfiguration.
type Configuration struct {
	Concurrency       int
	PerAttemptTimeout time.Duration
	Retries           int
	RetryBaseDelay    time.Duration

	TLDs    []string
	Preset  Preset
	AllTLDs bool

	ProtocolOrder ProtocolOrder

	Bootstrap                bool
	BootstrapRefreshInterval time.Duration
	NegativeCacheTTL         time.Duration

	// WhoisQueriesPerSecond caps textual-protocol queries per port-43
	// server, since most registries throttle or temporarily block clients
	// that query too fast. <=0 disables throttling entirely.
	WhoisQueriesPerSecond float64

	UserAgent string

	// BootstrapURL overrides the default IANA bootstrap document URL; used
	// in tests to point at a local httptest.Server.
	BootstrapURL string
}

// DefaultConfiguration returns a Configuration populated with the defaults
// documented in spec §3.
func DefaultConfiguration() Configuration {
	return Configuration{
		Concurrency:              10,
		PerAttemptTimeout:        30 * time.Second,
		Retries:                  0,
		RetryBaseDelay:           500 * time.Millisecond,
		ProtocolOrder:            StructuredThenTextual,
		Bootstrap:                true,
		BootstrapRefreshInterval: 24 * time.Hour,
		NegativeCacheTTL:         1 * time.Hour,
		WhoisQueriesPerSecond:    5,
		UserAgent:                "domaincheck/1.0",
		BootstrapURL:             "https://data.iana.org/rdap/dns.json",
	}
}

// EffectiveTLDs resolves the TLD set to use for bare-label expansion: it
// merges explicit TLDs with the named preset (if any), preserving first
// occurrence, and further expands to allKnown when AllTLDs is set.
func (c Configuration) EffectiveTLDs(allKnown []string) []string {
	if c.AllTLDs {
		return dedupeTLDs(allKnown)
	}
	var merged []string
	merged = append(merged, c.TLDs...)
	if c.Preset != "" {
		merged = append(merged, presetTLDs[c.Preset]...)
	}
	return dedupeTLDs(merged)
}

func dedupeTLDs(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Validate checks that a Configuration is internally consistent, applying
// defaults for zero-valued fields. It never mutates the caller's value.
func (c Configuration) Validate() (Configuration, error) {
	out := c
	if out.Concurrency <= 0 {
		out.Concurrency = DefaultConfiguration().Concurrency
	}
	if out.PerAttemptTimeout <= 0 {
		out.PerAttemptTimeout = DefaultConfiguration().PerAttemptTimeout
	}
	if out.Retries < 0 {
		return out, fmt.Errorf("context: retries must be >= 0, got %d", out.Retries)
	}
	if out.RetryBaseDelay <= 0 {
		out.RetryBaseDelay = DefaultConfiguration().RetryBaseDelay
	}
	switch out.ProtocolOrder {
	case "":
		out.ProtocolOrder = StructuredThenTextual
	case StructuredOnly, TextualOnly, StructuredThenTextual, TextualThenStructured:
	default:
		return out, fmt.Errorf("context: unrecognized protocol_order %q", out.ProtocolOrder)
	}
	if out.BootstrapRefreshInterval <= 0 {
		out.BootstrapRefreshInterval = DefaultConfiguration().BootstrapRefreshInterval
	}
	if out.NegativeCacheTTL <= 0 {
		out.NegativeCacheTTL = DefaultConfiguration().NegativeCacheTTL
	}
	if out.UserAgent == "" {
		out.UserAgent = DefaultConfiguration().UserAgent
	}
	if out.BootstrapURL == "" {
		out.BootstrapURL = DefaultConfiguration().BootstrapURL
	}
	if out.Preset != "" {
		if _, ok := presetTLDs[out.Preset]; !ok {
			return out, fmt.Errorf("context: unrecognized preset %q", out.Preset)
		}
	}
	return out, nil
}
