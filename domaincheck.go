// Package domaincheck determines whether internet domain names are
// registered by interrogating authoritative registry services — an RDAP
// (structured, JSON-over-HTTPS) client with a WHOIS (textual, port-43)
// fallback — and returns structured results suitable for pipelines, bulk
// workflows, and machine consumption.
//
// The public surface is intentionally small: build a Configuration, hand
// Engine a list of labels, and consume either a streamed or batched
// sequence of DomainResult values. Everything else — flag parsing, config
// file loading, pretty-printing — is the caller's job; see cmd/domaincheck
// for a reference implementation of that contract.
package domaincheck

import "github.com/FranksOps/domaincheck/internal/core"

// Re-exported result and configuration types. Aliasing keeps the engine
// logic and all internal packages sharing one set of types without the
// public package importing back into internal/orchestrator et al.
type (
	Availability   = core.Availability
	Protocol       = core.Protocol
	AttemptOutcome = core.AttemptOutcome
	Attempt        = core.Attempt
	DomainResult   = core.DomainResult
	EndpointEntry  = core.EndpointEntry
	EndpointSource = core.EndpointSource

	Configuration = core.Configuration
	ProtocolOrder = core.ProtocolOrder
	Preset        = core.Preset

	ErrorKind = core.ErrorKind
	Error     = core.Error
)

const (
	Available = core.Available
	Taken     = core.Taken
	Unknown   = core.Unknown

	ProtocolStructured = core.ProtocolStructured
	ProtocolTextual    = core.ProtocolTextual
	ProtocolCached     = core.ProtocolCached
	ProtocolNone       = core.ProtocolNone

	StructuredOnly        = core.StructuredOnly
	TextualOnly           = core.TextualOnly
	StructuredThenTextual = core.StructuredThenTextual
	TextualThenStructured = core.TextualThenStructured

	PresetStartup    = core.PresetStartup
	PresetEnterprise = core.PresetEnterprise
	PresetCountry    = core.PresetCountry

	KindInvalidInput        = core.KindInvalidInput
	KindEndpointUnavailable = core.KindEndpointUnavailable
	KindNoTextualServer     = core.KindNoTextualServer
	KindNetwork             = core.KindNetwork
	KindTimeout             = core.KindTimeout
	KindRateLimited         = core.KindRateLimited
	KindParseError          = core.KindParseError
	KindResponseTooLarge    = core.KindResponseTooLarge
	KindBadQuery            = core.KindBadQuery
	KindCancelled           = core.KindCancelled
	KindInternal            = core.KindInternal
)

// DefaultConfiguration returns a Configuration populated with the defaults
// documented in the data model.
func DefaultConfiguration() Configuration { return core.DefaultConfiguration() }
