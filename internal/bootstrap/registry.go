// Package bootstrap implements the Endpoint Registry: it maps a TLD to its
// RDAP base URL, consulting an in-memory cache, a compiled-in static table,
// and — on cache miss, if enabled — the IANA RDAP bootstrap document.
// Concurrent lookups that would each trigger a bootstrap fetch instead
// coalesce onto a single in-flight fetch via golang.org/x/sync/singleflight,
// the same coalescing primitive the pack uses for de-duplicating concurrent
// work.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/FranksOps/domaincheck/internal/bootstrapstore"
	"github.com/FranksOps/domaincheck/internal/core"
	"github.com/FranksOps/domaincheck/internal/metrics"
)

// Config configures a Registry.
type Config struct {
	Enabled          bool
	BootstrapURL     string
	RefreshInterval  time.Duration
	NegativeCacheTTL time.Duration
	HTTPClient       *http.Client
	Logger           *slog.Logger

	// Store, if set, persists fetched bootstrap entries across restarts.
	// WarmFromStore must be called explicitly to load them back in; New
	// never touches the store itself so construction stays synchronous
	// and side-effect free.
	Store bootstrapstore.Store
}

// Registry is the Endpoint Registry / Bootstrap Cache described in the
// component design: a TLD -> EndpointEntry map that is read-mostly after
// the first lookup for a given TLD, written only through the coalesced
// bootstrap fetch path.
type Registry struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]core.EndpointEntry

	sf         singleflight.Group
	fetchCount int64 // instrumentation: total bootstrap document fetches issued
	fetchMu    sync.Mutex
}

// New creates a Registry. A nil HTTPClient falls back to a client with a
// conservative default timeout so a stalled bootstrap fetch cannot hang a
// lookup indefinitely.
func New(cfg Config) *Registry {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 24 * time.Hour
	}
	if cfg.NegativeCacheTTL <= 0 {
		cfg.NegativeCacheTTL = 1 * time.Hour
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Registry{
		cfg:    cfg,
		client: cfg.HTTPClient,
		logger: cfg.Logger,
		now:    time.Now,
		cache:  make(map[string]core.EndpointEntry),
	}
}

// WarmFromStore loads persisted entries from cfg.Store into the in-memory
// cache, letting a freshly started process skip an immediate bootstrap
// fetch for TLDs it already resolved in a prior run. It is a no-op if no
// Store was configured.
func (r *Registry) WarmFromStore(ctx context.Context) error {
	if r.cfg.Store == nil {
		return nil
	}
	entries, err := r.cfg.Store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("context: warming bootstrap cache: %w", err)
	}
	now := r.now()
	for _, e := range entries {
		if e.Expired(now) {
			continue
		}
		r.cacheSet(e.TLD, e)
	}
	return nil
}

// FetchCount reports how many times the bootstrap document has actually
// been fetched over the network. Exposed for tests verifying coalescing.
func (r *Registry) FetchCount() int64 {
	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()
	return r.fetchCount
}

// Lookup resolves tld to an EndpointEntry, consulting the cache, the
// static table, and — on miss, if enabled — the bootstrap document.
func (r *Registry) Lookup(ctx context.Context, tld string) (core.EndpointEntry, error) {
	tld = strings.ToLower(tld)

	switch entry, hit := r.cacheGet(tld); hit {
	case cacheHitPositive:
		return entry, nil
	case cacheHitNegative:
		return core.EndpointEntry{}, core.EndpointUnavailable(tld)
	}

	if template, ok := staticURLTemplate(tld); ok {
		entry := core.EndpointEntry{
			TLD:         tld,
			URLTemplate: template,
			Source:      core.SourceStatic,
			FetchedAt:   r.now(),
		}
		r.cacheSet(tld, entry)
		return entry, nil
	}

	if !r.cfg.Enabled {
		return core.EndpointEntry{}, core.EndpointUnavailable(tld)
	}

	if err := r.ensureBootstrap(ctx); err != nil {
		r.logger.Warn("bootstrap fetch failed", "error", err)
		return core.EndpointEntry{}, core.EndpointUnavailable(tld)
	}

	if entry, hit := r.cacheGet(tld); hit == cacheHitPositive {
		return entry, nil
	}

	// Not present anywhere: store a negative entry with a short TTL so a
	// later run (or a later refresh) can recover without re-hitting the
	// network on every single call.
	neg := core.EndpointEntry{
		TLD:       tld,
		Source:    core.SourceNegative,
		FetchedAt: r.now(),
		ExpiresAt: r.now().Add(r.cfg.NegativeCacheTTL),
	}
	r.cacheSet(tld, neg)
	return core.EndpointEntry{}, core.EndpointUnavailable(tld)
}

type cacheHit int

const (
	cacheMiss cacheHit = iota
	cacheHitPositive
	cacheHitNegative
)

func (r *Registry) cacheGet(tld string) (core.EndpointEntry, cacheHit) {
	r.mu.RLock()
	entry, ok := r.cache[tld]
	r.mu.RUnlock()
	if !ok {
		return core.EndpointEntry{}, cacheMiss
	}
	if entry.Expired(r.now()) {
		return core.EndpointEntry{}, cacheMiss
	}
	if entry.Source == core.SourceNegative {
		return core.EndpointEntry{}, cacheHitNegative
	}
	return entry, cacheHitPositive
}

func (r *Registry) cacheSet(tld string, entry core.EndpointEntry) {
	r.mu.Lock()
	r.cache[tld] = entry
	r.mu.Unlock()
}

// ensureBootstrap fetches and parses the IANA RDAP bootstrap document
// exactly once for any number of concurrent callers racing to populate the
// same TLD, via singleflight. A failed fetch does not poison the cache —
// callers simply receive EndpointUnavailable and the orchestrator falls
// back to the textual protocol.
func (r *Registry) ensureBootstrap(ctx context.Context) error {
	_, err, _ := r.sf.Do("bootstrap-document", func() (interface{}, error) {
		return nil, r.fetchBootstrap(ctx)
	})
	return err
}

// RefreshBootstrap forces a re-fetch of the bootstrap document regardless
// of cache state, coalesced the same way as an organic miss.
func (r *Registry) RefreshBootstrap(ctx context.Context) error {
	return r.ensureBootstrap(ctx)
}

type bootstrapDoc struct {
	Services [][][]string `json:"services"`
}

func (r *Registry) fetchBootstrap(ctx context.Context) error {
	r.fetchMu.Lock()
	r.fetchCount++
	r.fetchMu.Unlock()
	metrics.BootstrapFetchesTotal.Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BootstrapURL, nil)
	if err != nil {
		return fmt.Errorf("context: building bootstrap request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("context: fetching bootstrap document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("context: bootstrap document returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("context: reading bootstrap document: %w", err)
	}

	var doc bootstrapDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("context: parsing bootstrap document: %w", err)
	}

	now := r.now()
	expires := now.Add(r.cfg.RefreshInterval)

	var fetched []core.EndpointEntry
	for _, svc := range doc.Services {
		if len(svc) < 2 {
			continue
		}
		tlds, urls := svc[0], svc[1]
		base := preferredURL(urls)
		if base == "" {
			continue
		}
		template := strings.TrimSuffix(base, "/") + "/domain/{domain}"
		for _, tld := range tlds {
			entry := core.EndpointEntry{
				TLD:         strings.ToLower(tld),
				URLTemplate: template,
				Source:      core.SourceBootstrap,
				FetchedAt:   now,
				ExpiresAt:   expires,
			}
			r.cacheSet(entry.TLD, entry)
			fetched = append(fetched, entry)
		}
	}

	if r.cfg.Store != nil && len(fetched) > 0 {
		if err := r.cfg.Store.SaveAll(ctx, fetched); err != nil {
			r.logger.Warn("failed to persist bootstrap entries", "error", err)
		}
	}
	return nil
}

// preferredURL picks the first https:// URL in the list, or the first URL
// at all if none use https.
func preferredURL(urls []string) string {
	for _, u := range urls {
		if strings.HasPrefix(u, "https://") {
			return u
		}
	}
	if len(urls) > 0 {
		return urls[0]
	}
	return ""
}
