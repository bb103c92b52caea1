package domaincheck

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FranksOps/domaincheck/internal/bootstrap"
	"github.com/FranksOps/domaincheck/internal/bootstrapstore"
	"github.com/FranksOps/domaincheck/internal/core"
	"github.com/FranksOps/domaincheck/internal/metrics"
	"github.com/FranksOps/domaincheck/internal/normalize"
	"github.com/FranksOps/domaincheck/internal/orchestrator"
	"github.com/FranksOps/domaincheck/internal/rdap"
	"github.com/FranksOps/domaincheck/internal/scheduler"
	"github.com/FranksOps/domaincheck/internal/webwhois"
	"github.com/FranksOps/domaincheck/internal/whois"
)

// Engine ties the Input Normalizer, Endpoint Registry, protocol clients,
// Strategy Orchestrator, and Concurrency Scheduler into the single public
// entry point: build one with New, then call Stream or Batch for every
// batch of labels a caller wants resolved.
type Engine struct {
	cfg       Configuration
	registry  *bootstrap.Registry
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// Option customizes Engine construction beyond what Configuration exposes.
type Option func(*engineOptions)

type engineOptions struct {
	logger *slog.Logger
	store  bootstrapstore.Store
}

// WithLogger sets the *slog.Logger every internal component logs through.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// WithBootstrapStore attaches a persisted bootstrap-cache backend (see
// internal/bootstrapstore/postgres and .../sqlite). The Engine warms its
// in-memory cache from it once during New and writes every successful
// bootstrap-document fetch back through it.
func WithBootstrapStore(store bootstrapstore.Store) Option {
	return func(o *engineOptions) { o.store = store }
}

// New validates cfg and wires every component. It returns an error if cfg
// is invalid; a failure to warm from the bootstrap store (if any) is logged
// as a warning and does not fail construction.
func New(cfg Configuration, opts ...Option) (*Engine, error) {
	valid, err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("context: invalid configuration: %w", err)
	}
	cfg = valid

	options := engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := rdap.NewHTTPClient(cfg.PerAttemptTimeout)

	registry := bootstrap.New(bootstrap.Config{
		Enabled:          cfg.Bootstrap,
		BootstrapURL:     cfg.BootstrapURL,
		RefreshInterval:  cfg.BootstrapRefreshInterval,
		NegativeCacheTTL: cfg.NegativeCacheTTL,
		HTTPClient:       httpClient,
		Logger:           options.logger,
		Store:            options.store,
	})
	if options.store != nil {
		if err := registry.WarmFromStore(context.Background()); err != nil {
			options.logger.Warn("failed to warm bootstrap cache from store", "error", err)
		}
	}

	rdapClient := rdap.New(httpClient, cfg.UserAgent)
	whoisClient := whois.New(cfg.PerAttemptTimeout, cfg.WhoisQueriesPerSecond)
	webwhoisClient := webwhois.New(httpClient, cfg.UserAgent)

	orch := orchestrator.New(orchestrator.Config{
		ProtocolOrder:     cfg.ProtocolOrder,
		Retries:           cfg.Retries,
		RetryBaseDelay:    cfg.RetryBaseDelay,
		PerAttemptTimeout: cfg.PerAttemptTimeout,
		Logger:            options.logger,
	}, registry, rdapClient, whoisClient, webwhoisClient)

	sched := scheduler.New(cfg.Concurrency, orch, options.logger)

	return &Engine{cfg: cfg, registry: registry, scheduler: sched, logger: options.logger}, nil
}

// indexedResult tags a pre-resolved DomainResult with the slot it occupies
// in the overall expansion sequence, so it can be merged back into place.
type indexedResult struct {
	index  int
	result DomainResult
}

// expand resolves the caller's raw inputs into FQDNs via the Input
// Normalizer. positions[i] gives the slot fqdns[i] occupies in the full,
// input-ordered expansion sequence (length total); invalid holds the
// results already determined for inputs that never reach the scheduler,
// each tagged with its own slot.
func (e *Engine) expand(inputs []string) (fqdns []string, positions []int, invalid []indexedResult, total int) {
	tldSet := e.cfg.EffectiveTLDs(whois.KnownTLDs())
	expansions := normalize.Expand(inputs, tldSet)

	fqdns = make([]string, 0, len(expansions))
	positions = make([]int, 0, len(expansions))
	for i, exp := range expansions {
		if exp.Err != "" {
			invalid = append(invalid, indexedResult{index: i, result: DomainResult{
				FQDN:         exp.OriginalInput,
				Availability: Unknown,
				MethodUsed:   ProtocolNone,
				Error:        core.InvalidInput(exp.Err),
			}})
			continue
		}
		fqdns = append(fqdns, exp.FQDN)
		positions = append(positions, i)
	}
	return fqdns, positions, invalid, len(expansions)
}

// Batch resolves every input and returns one DomainResult per input, in
// the same input order the Input Normalizer produces (user order, then
// per-input TLD order), including a result for every input rejected by
// validation.
func (e *Engine) Batch(ctx context.Context, inputs []string) []DomainResult {
	fqdns, positions, invalid, total := e.expand(inputs)

	results := make([]DomainResult, total)
	for _, ir := range invalid {
		results[ir.index] = ir.result
	}
	resolved := e.scheduler.Batch(ctx, fqdns)
	for i, r := range resolved {
		results[positions[i]] = r
	}
	return results
}

// Stream resolves every input and returns a channel of DomainResult in
// completion order. Invalid inputs are sent first, synchronously, before
// the channel is handed back, since they require no network round trip.
func (e *Engine) Stream(ctx context.Context, inputs []string) <-chan DomainResult {
	fqdns, _, invalid, _ := e.expand(inputs)

	out := make(chan DomainResult, len(invalid)+e.cfg.Concurrency)
	for _, ir := range invalid {
		out <- ir.result
	}
	go func() {
		defer close(out)
		for r := range e.scheduler.Stream(ctx, fqdns) {
			out <- r
		}
	}()
	return out
}

// MetricsServer starts a Prometheus /metrics HTTP server on port. Callers
// that don't want metrics exposition simply never call this.
func MetricsServer(port int) *metrics.Server { return metrics.Start(port) }
