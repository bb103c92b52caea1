// Package orchestrator implements the per-domain strategy state machine:
// it picks an initial protocol, falls back on inconclusive or failing
// outcomes, retries retryable errors with backoff, and merges partial
// metadata across attempts into a single DomainResult.
package orchestrator

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/domaincheck/internal/bootstrap"
	"github.com/FranksOps/domaincheck/internal/core"
	"github.com/FranksOps/domaincheck/internal/metrics"
	"github.com/FranksOps/domaincheck/internal/rdap"
	"github.com/FranksOps/domaincheck/internal/webwhois"
	"github.com/FranksOps/domaincheck/internal/whois"
)

// maxBackoff caps computed retry backoff regardless of attempt count.
const maxBackoff = 10 * time.Second

// Config configures an Orchestrator.
type Config struct {
	ProtocolOrder     core.ProtocolOrder
	Retries           int
	RetryBaseDelay    time.Duration
	PerAttemptTimeout time.Duration
	Logger            *slog.Logger
}

// Orchestrator resolves a single FQDN by driving the structured, textual,
// and web-WHOIS clients against the policy in Config.
type Orchestrator struct {
	cfg      Config
	registry *bootstrap.Registry
	rdap     *rdap.Client
	whois    *whois.Client
	webwhois *webwhois.Client
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// New builds an Orchestrator. registry, rdap, and whois must be non-nil;
// webwhois may be nil, in which case the web-WHOIS fallback is skipped.
func New(cfg Config, registry *bootstrap.Registry, rdapClient *rdap.Client, whoisClient *whois.Client, webwhoisClient *webwhois.Client) *Orchestrator {
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.PerAttemptTimeout <= 0 {
		cfg.PerAttemptTimeout = 30 * time.Second
	}
	if cfg.ProtocolOrder == "" {
		cfg.ProtocolOrder = core.StructuredThenTextual
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		registry: registry,
		rdap:     rdapClient,
		whois:    whoisClient,
		webwhois: webwhoisClient,
		logger:   cfg.Logger,
		now:      time.Now,
		sleep:    ctxSleep,
	}
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// protocolSequence returns the ordered list of wire protocols to attempt
// for the configured ProtocolOrder.
func (o *Orchestrator) protocolSequence() []core.Protocol {
	switch o.cfg.ProtocolOrder {
	case core.StructuredOnly:
		return []core.Protocol{core.ProtocolStructured}
	case core.TextualOnly:
		return []core.Protocol{core.ProtocolTextual}
	case core.TextualThenStructured:
		return []core.Protocol{core.ProtocolTextual, core.ProtocolStructured}
	default:
		return []core.Protocol{core.ProtocolStructured, core.ProtocolTextual}
	}
}

// Resolve drives the full state machine for one FQDN and returns the final
// DomainResult. It never panics and never returns an error: every failure
// mode is captured in the returned result.
func (o *Orchestrator) Resolve(ctx context.Context, fqdn string) core.DomainResult {
	result := core.DomainResult{FQDN: fqdn}
	var metaAccum core.Metadata
	var metaSeeded bool
	var protocolErrors []*core.Error

	for _, proto := range o.protocolSequence() {
		if ctx.Err() != nil {
			return o.cancelled(result)
		}

		outcome, meta, attemptErr, fellThrough := o.tryProtocol(ctx, proto, fqdn, &result)
		if !meta.IsZero() {
			if metaSeeded {
				metaAccum = core.MergeOverlay(metaAccum, meta)
			} else {
				metaAccum = meta
				metaSeeded = true
			}
		}

		switch outcome {
		case core.OutcomeAvailable:
			result.Availability = core.Available
			result.MethodUsed = proto
			return result
		case core.OutcomeTaken:
			result.Availability = core.Taken
			result.MethodUsed = proto
			result = result.WithMetadata(metaAccum)
			return result
		}

		if !fellThrough {
			result.Error = attemptErr
			break
		}

		if attemptErr != nil {
			protocolErrors = append(protocolErrors, attemptErr)
		}
		o.logger.Debug("falling back", "fqdn", fqdn, "from", proto, "outcome", outcome)
	}

	if webResult, tried := o.tryWebWHOIS(ctx, fqdn, &result); tried {
		if !webResult.Metadata.IsZero() {
			if metaSeeded {
				metaAccum = core.MergeOverlay(metaAccum, webResult.Metadata)
			} else {
				metaAccum = webResult.Metadata
			}
		}
		switch webResult.Outcome {
		case core.OutcomeAvailable:
			result.Availability = core.Available
			result.MethodUsed = core.ProtocolTextual
			return result
		case core.OutcomeTaken:
			result.Availability = core.Taken
			result.MethodUsed = core.ProtocolTextual
			return result.WithMetadata(metaAccum)
		}
		if webResult.Err != nil {
			protocolErrors = append(protocolErrors, webResult.Err)
		}
	}

	result.Availability = core.Unknown
	if result.MethodUsed == "" {
		result.MethodUsed = core.ProtocolNone
	}
	if result.Error == nil && len(protocolErrors) > 0 {
		result.Error = core.CombinedError(protocolErrors...)
	}
	return result
}

// tryProtocol runs the retry loop for one protocol and records every
// attempt on result.Attempts. It returns whether the caller should fall
// back to the next protocol in sequence.
func (o *Orchestrator) tryProtocol(ctx context.Context, proto core.Protocol, fqdn string, result *core.DomainResult) (core.AttemptOutcome, core.Metadata, *core.Error, bool) {
	var lastOutcome core.AttemptOutcome
	var lastMeta core.Metadata
	var lastErr *core.Error

	attempts := o.cfg.Retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return core.OutcomeError, core.Metadata{}, core.CancelledError(), false
		}

		start := o.now()
		outcome, meta, attemptErr := o.attempt(ctx, proto, fqdn)
		elapsed := o.now().Sub(start)

		metrics.RecordAttempt(string(proto), string(outcome), elapsed)
		result.Attempts = append(result.Attempts, core.Attempt{
			ID:       uuid.New().String(),
			Protocol: proto,
			Outcome:  outcome,
			Elapsed:  elapsed,
			Error:    attemptErr,
		})

		lastOutcome, lastMeta, lastErr = outcome, meta, attemptErr

		if outcome == core.OutcomeAvailable || outcome == core.OutcomeTaken {
			return outcome, meta, nil, false
		}

		if attemptErr != nil && attemptErr.Retryable && attempt < attempts {
			delay := backoffFor(o.cfg.RetryBaseDelay, attempt)
			if attemptErr.RetryAfter > 0 {
				delay = attemptErr.RetryAfter
			}
			if err := o.sleep(ctx, delay); err != nil {
				return core.OutcomeError, meta, core.CancelledError(), false
			}
			continue
		}

		break
	}

	return lastOutcome, lastMeta, lastErr, true
}

func (o *Orchestrator) attempt(ctx context.Context, proto core.Protocol, fqdn string) (core.AttemptOutcome, core.Metadata, *core.Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.PerAttemptTimeout)
	defer cancel()

	switch proto {
	case core.ProtocolStructured:
		tld := tldOf(fqdn)
		entry, err := o.registry.Lookup(attemptCtx, tld)
		if err != nil {
			return core.OutcomeError, core.Metadata{}, err.(*core.Error)
		}
		res := o.rdap.Lookup(attemptCtx, entry.URLTemplate, fqdn)
		return res.Outcome, res.Metadata, withRetryAfter(res.Err, res.RetryAfter)

	case core.ProtocolTextual:
		res := o.whois.Lookup(attemptCtx, fqdn)
		return res.Outcome, res.Metadata, res.Err

	default:
		return core.OutcomeError, core.Metadata{}, core.InternalError("unknown protocol " + string(proto))
	}
}

func (o *Orchestrator) tryWebWHOIS(ctx context.Context, fqdn string, result *core.DomainResult) (webwhois.Result, bool) {
	if o.webwhois == nil {
		return webwhois.Result{}, false
	}
	last := len(result.Attempts) - 1
	if last < 0 || result.Attempts[last].Protocol != core.ProtocolTextual {
		return webwhois.Result{}, false
	}
	if result.Attempts[last].Error == nil || result.Attempts[last].Error.Kind != core.KindNoTextualServer {
		return webwhois.Result{}, false
	}

	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.PerAttemptTimeout)
	defer cancel()

	start := o.now()
	res := o.webwhois.Lookup(attemptCtx, fqdn)
	elapsed := o.now().Sub(start)

	metrics.RecordAttempt(string(core.ProtocolTextual), string(res.Outcome), elapsed)
	result.Attempts = append(result.Attempts, core.Attempt{
		ID:       uuid.New().String(),
		Protocol: core.ProtocolTextual,
		Outcome:  res.Outcome,
		Elapsed:  elapsed,
		Error:    res.Err,
	})
	return res, true
}

func (o *Orchestrator) cancelled(result core.DomainResult) core.DomainResult {
	result.Availability = core.Unknown
	result.MethodUsed = core.ProtocolNone
	result.Error = core.CancelledError()
	return result
}

// backoffFor computes retry_base_delay * 2^(attempt-1) with +/-20% jitter,
// capped at maxBackoff.
func backoffFor(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	jitter := 1 + (rand.Float64()*0.4 - 0.2)
	out := time.Duration(float64(d) * jitter)
	if out > maxBackoff {
		out = maxBackoff
	}
	return out
}

func withRetryAfter(err *core.Error, retryAfter time.Duration) *core.Error {
	if err == nil {
		return nil
	}
	if retryAfter > 0 {
		err.RetryAfter = retryAfter
	}
	return err
}

func tldOf(fqdn string) string {
	idx := -1
	for i := len(fqdn) - 1; i >= 0; i-- {
		if fqdn[i] == '.' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fqdn
	}
	return fqdn[idx+1:]
}
