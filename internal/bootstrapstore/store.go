// Package bootstrapstore persists the Endpoint Registry's bootstrap cache
// across process restarts: one small interface, swappable SQL backends
// underneath.
package bootstrapstore

import (
	"context"

	"github.com/FranksOps/domaincheck/internal/core"
)

// Store persists and restores EndpointEntry rows for the bootstrap cache.
// A Registry configured with a Store warms its in-memory cache from it when
// its WarmFromStore method is called (Engine.New does so once) and writes
// every successful bootstrap-document fetch back through it, so a restart
// does not force an immediate re-fetch.
type Store interface {
	LoadAll(ctx context.Context) ([]core.EndpointEntry, error)
	SaveAll(ctx context.Context, entries []core.EndpointEntry) error
	Close() error
}
