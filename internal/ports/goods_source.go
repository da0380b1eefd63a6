package ports

import "station-cargo-service/internal/domain"

// GoodsSource provides the per-station cargo knowledge a view is built
// from: waiting-cargo records, flow-share tables, routing modes and station
// names.
type GoodsSource interface {
	domain.StationNamer

	// Cargoes lists the tracked cargo types.
	Cargoes() []domain.CargoType

	// RoutingMode reports how cargo of the given type is distributed.
	RoutingMode(c domain.CargoType) domain.RoutingMode

	// Goods returns a station's knowledge about one cargo type. The second
	// return value is false when nothing is tracked for the pair.
	Goods(st domain.StationID, c domain.CargoType) (domain.GoodsData, bool)
}
