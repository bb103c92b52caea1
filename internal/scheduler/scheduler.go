// Package scheduler implements the bounded-concurrency fan-out over a
// sequence of FQDNs: a producer feeds a backpressured job queue, a fixed
// pool of workers drains it through a Resolver, and results are emitted
// either in completion order (streaming) or re-sorted to input order
// (batch), with cooperative cancellation.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/domaincheck/internal/core"
	"github.com/FranksOps/domaincheck/internal/metrics"
)

// Resolver is the capability the scheduler drives per domain. The real
// implementation is *orchestrator.Orchestrator; tests may supply a fake.
type Resolver interface {
	Resolve(ctx context.Context, fqdn string) core.DomainResult
}

// Scheduler fans a sequence of FQDNs out across a fixed worker pool.
type Scheduler struct {
	concurrency int
	resolver    Resolver
	logger      *slog.Logger
}

// New builds a Scheduler. concurrency <= 0 is treated as 1.
func New(concurrency int, resolver Resolver, logger *slog.Logger) *Scheduler {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{concurrency: concurrency, resolver: resolver, logger: logger}
}

type job struct {
	index int
	fqdn  string
}

// Stream runs the scheduler and returns a channel that receives one
// DomainResult per input fqdn in completion order. The channel is closed
// once every input has been accounted for, including cancellation.
func (s *Scheduler) Stream(ctx context.Context, fqdns []string) <-chan core.DomainResult {
	out := make(chan core.DomainResult, s.concurrency)
	go func() {
		defer close(out)
		s.run(ctx, fqdns, func(_ int, result core.DomainResult) {
			out <- result
		})
	}()
	return out
}

// Batch runs the scheduler to completion and returns every DomainResult
// re-sorted to match the order of fqdns.
func (s *Scheduler) Batch(ctx context.Context, fqdns []string) []core.DomainResult {
	results := make([]core.DomainResult, len(fqdns))
	var mu sync.Mutex
	s.run(ctx, fqdns, func(index int, result core.DomainResult) {
		mu.Lock()
		results[index] = result
		mu.Unlock()
	})
	return results
}

// run drives the producer/worker pipeline over an errgroup, the same way
// the crawler's worker pool is supervised: one goroutine per worker plus
// the producer, all joined by g.Wait. emit is called exactly once per
// input index, from either the producer goroutine (for domains that never
// reached a worker before cancellation) or a worker goroutine; both
// Stream's and Batch's emit closures are already safe for concurrent
// calls, so run itself needs no extra synchronization around them.
func (s *Scheduler) run(ctx context.Context, fqdns []string, emit func(index int, result core.DomainResult)) {
	jobs := make(chan job, 2*s.concurrency)

	g := new(errgroup.Group)

	g.Go(func() error {
		defer close(jobs)
		for i, fqdn := range fqdns {
			select {
			case jobs <- job{index: i, fqdn: fqdn}:
			case <-ctx.Done():
				for j := i; j < len(fqdns); j++ {
					emit(j, cancelledResult(fqdns[j]))
				}
				return nil
			}
		}
		return nil
	})

	for w := 0; w < s.concurrency; w++ {
		g.Go(func() error {
			for j := range jobs {
				metrics.InFlight.Inc()
				result := s.resolver.Resolve(ctx, j.fqdn)
				metrics.InFlight.Dec()
				metrics.RecordResult(string(result.Availability), string(result.MethodUsed))
				emit(j.index, result)
			}
			return nil
		})
	}

	_ = g.Wait()
}

func cancelledResult(fqdn string) core.DomainResult {
	return core.DomainResult{
		FQDN:         fqdn,
		Availability: core.Unknown,
		MethodUsed:   core.ProtocolNone,
		Error:        core.CancelledError(),
	}
}
