package ports

import (
	"context"

	"station-cargo-service/internal/domain"
)

// Port: a boundary for loading a station network snapshot from a data source.
type NetworkRepository interface {
	// LoadNetwork returns the current network snapshot.
	LoadNetwork(ctx context.Context) (*domain.Network, error)
}
