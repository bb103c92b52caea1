// Package normalize validates and canonicalizes domain labels, and expands
// bare labels into fully-qualified domain names across a TLD set.
package normalize

import (
	"strings"

	"golang.org/x/net/idna"
)

// kind classifies a validated input as either already-qualified or bare.
type kind int

const (
	kindInvalid kind = iota
	kindFQDN
	kindBareLabel
)

const maxFQDNLength = 253
const maxLabelLength = 63

// idnaProfile performs UTS-46 normalization and converts U-labels to their
// ASCII A-label form, resolving the IDNA policy left open by the design
// notes in favor of IDNA2008/UTS-46.
var idnaProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.ValidateLabels(true),
)

// Classified is the result of validating a single textual input.
type Classified struct {
	Kind    kind
	Value   string // canonicalized FQDN or bare label
	Invalid string // reason, set only when Kind == kindInvalid
}

// IsInvalid reports whether the input failed validation.
func (c Classified) IsInvalid() bool { return c.Kind == kindInvalid }

// IsFQDN reports whether the input was already a fully-qualified domain
// name (contained at least one internal dot).
func (c Classified) IsFQDN() bool { return c.Kind == kindFQDN }

// Validate canonicalizes and validates a single textual input per the
// label rules: strip whitespace, lowercase ASCII, reject empty,
// leading/trailing dot, consecutive dots, invalid characters, or length
// overflow. Internationalized input is converted to A-label form first.
func Validate(input string) Classified {
	s := strings.TrimSpace(input)
	if s == "" {
		return Classified{Kind: kindInvalid, Invalid: "empty input"}
	}

	converted, err := idnaProfile.ToASCII(s)
	if err == nil {
		s = converted
	}
	// If idna conversion fails, fall through and validate the original
	// string as-is; plain ASCII input that idna rejects (e.g. a bare
	// label with no dots is still valid under the label rules below even
	// though it isn't a meaningful idna lookup name).
	s = strings.ToLower(s)

	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return Classified{Kind: kindInvalid, Invalid: "leading or trailing dot"}
	}
	if strings.Contains(s, "..") {
		return Classified{Kind: kindInvalid, Invalid: "consecutive dots"}
	}
	if len(s) > maxFQDNLength {
		return Classified{Kind: kindInvalid, Invalid: "fqdn exceeds 253 octets"}
	}

	labels := strings.Split(s, ".")
	for _, l := range labels {
		if reason := validateLabel(l); reason != "" {
			return Classified{Kind: kindInvalid, Invalid: reason}
		}
	}

	if len(labels) > 1 {
		return Classified{Kind: kindFQDN, Value: s}
	}
	return Classified{Kind: kindBareLabel, Value: s}
}

func validateLabel(l string) string {
	if l == "" {
		return "empty label"
	}
	if len(l) > maxLabelLength {
		return "label exceeds 63 octets"
	}
	if l[0] == '-' || l[len(l)-1] == '-' {
		return "label has leading or trailing hyphen"
	}
	for _, r := range l {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return "invalid character in label"
		}
	}
	return ""
}

// Expansion is one fully expanded FQDN produced from an original input.
type Expansion struct {
	FQDN         string
	OriginalInput string
	Err          string // non-empty if the original input was invalid
}

// Expand validates every input and, for bare labels, emits one Expansion
// per TLD in tldSet (in tldSet order), for each input in user order.
// Already-qualified inputs are passed through without expansion. The
// overall sequence is deduplicated globally, keeping first occurrence.
func Expand(inputs []string, tldSet []string) []Expansion {
	seen := make(map[string]struct{})
	out := make([]Expansion, 0, len(inputs))

	for _, in := range inputs {
		c := Validate(in)
		if c.IsInvalid() {
			out = append(out, Expansion{OriginalInput: in, Err: c.Invalid})
			continue
		}
		if c.IsFQDN() {
			if _, dup := seen[c.Value]; dup {
				continue
			}
			seen[c.Value] = struct{}{}
			out = append(out, Expansion{FQDN: c.Value, OriginalInput: in})
			continue
		}
		for _, tld := range tldSet {
			fqdn := c.Value + "." + tld
			if _, dup := seen[fqdn]; dup {
				continue
			}
			seen[fqdn] = struct{}{}
			out = append(out, Expansion{FQDN: fqdn, OriginalInput: in})
		}
	}
	return out
}
