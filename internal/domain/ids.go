package domain

// StationID is a small integer handle for a station.
type StationID uint16

const (
	// InvalidStation marks an unknown or "any" station. Cargo whose final
	// destination cannot be determined from the available flow data is
	// accounted under this sentinel.
	InvalidStation StationID = 0xFFFF

	// PendingStation marks cargo that has been reserved for loading but is
	// not yet assigned to a real station.
	PendingStation StationID = 0xFFFE
)

// CargoType is a small integer handle for a kind of cargo.
type CargoType uint8

// InvalidCargo marks the absence of a cargo type.
const InvalidCargo CargoType = 0xFF

// RoutingMode describes how cargo of a given type is distributed.
type RoutingMode uint8

const (
	// RoutingAuto: next hops and destinations are tracked per unit of cargo.
	RoutingAuto RoutingMode = iota
	// RoutingManual: no flow data is tracked; via/destination groupings must
	// never fabricate branches for such cargo.
	RoutingManual
)

// StationNamer resolves a station id to its display name. The second return
// value reports whether the id refers to a tracked, valid station; sentinel
// ids always resolve to false.
type StationNamer interface {
	StationName(id StationID) (string, bool)
}
