package ports

import (
	"context"

	"station-cargo-service/internal/domain"
)

// Port: a cache for rendered cargo view snapshots, keyed by station and a
// caller-chosen view variant (grouping/sort/mode configuration).
type ViewCache interface {
	// Get returns a cached snapshot. The second return value is false on a
	// cache miss.
	Get(ctx context.Context, station domain.StationID, variant string) ([]byte, bool, error)

	// Put stores a snapshot.
	Put(ctx context.Context, station domain.StationID, variant string, payload []byte) error

	// Drop removes every cached snapshot for a station.
	Drop(ctx context.Context, station domain.StationID) error
}
