package services

import (
	"fmt"

	"station-cargo-service/internal/domain"
	"station-cargo-service/internal/ports"
)

// Grouping is the key a view column groups entries by.
type Grouping uint8

const (
	GroupSource Grouping = iota
	GroupNext
	GroupDestination
	GroupCargo
)

func (g Grouping) String() string {
	switch g {
	case GroupSource:
		return "source"
	case GroupNext:
		return "next"
	case GroupDestination:
		return "destination"
	case GroupCargo:
		return "cargo"
	default:
		return "unknown"
	}
}

// ParseGrouping maps a column name to its Grouping. The cargo column is not
// selectable; it is always column zero.
func ParseGrouping(s string) (Grouping, error) {
	switch s {
	case "source":
		return GroupSource, nil
	case "next":
		return GroupNext, nil
	case "destination":
		return GroupDestination, nil
	default:
		return 0, fmt.Errorf("parse grouping: unknown column %q", s)
	}
}

// Mode selects what the view aggregates.
type Mode uint8

const (
	// ModeWaiting aggregates cargo physically waiting at the station.
	ModeWaiting Mode = iota
	// ModePlanned aggregates cargo planned to pass through the station.
	ModePlanned
)

func (m Mode) String() string {
	if m == ModePlanned {
		return "planned"
	}
	return "waiting"
}

// numColumns is the depth of the grouping pipeline: cargo plus the three
// station columns.
const numColumns = 4

// Config is the explicit presentation state of a cargo view. It is passed
// in at construction and on reconfiguration rather than living as hidden
// shared state.
type Config struct {
	// Groupings orders columns 1-3; it must be a permutation of
	// {GroupSource, GroupNext, GroupDestination}. Column 0 is always cargo.
	Groupings [numColumns - 1]Grouping
	// SortByCount sorts station columns by aggregated count instead of the
	// grouping's own order.
	SortByCount bool
	SortOrder   domain.SortOrder
	Mode        Mode
}

// DefaultConfig mirrors the initial presentation state: group by
// source/next/destination, sort ascending by grouping, show waiting cargo.
func DefaultConfig() Config {
	return Config{
		Groupings: [numColumns - 1]Grouping{GroupSource, GroupNext, GroupDestination},
		SortOrder: domain.Ascending,
		Mode:      ModeWaiting,
	}
}

// Validate checks that the grouping columns form a permutation of the three
// station groupings.
func (c Config) Validate() error {
	var seen [3]bool
	for _, g := range c.Groupings {
		if g > GroupDestination {
			return fmt.Errorf("view config: column grouping %d out of range", g)
		}
		if seen[g] {
			return fmt.Errorf("view config: duplicate grouping %q", g)
		}
		seen[g] = true
	}
	return nil
}

// CargoView builds the grouped cargo summary for one station. The
// destination-estimate cache is the only state that outlives a rebuild; it
// persists until explicitly invalidated. A view is confined to a single
// logical thread.
type CargoView struct {
	station domain.StationID
	cfg     Config
	cached  *domain.CargoEntry
}

func NewCargoView(station domain.StationID, cfg Config) (*CargoView, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CargoView{
		station: station,
		cfg:     cfg,
		cached:  domain.NewCargoEntry(),
	}, nil
}

// Station returns the station this view aggregates for.
func (v *CargoView) Station() domain.StationID { return v.station }

// Config returns the current presentation configuration.
func (v *CargoView) Config() Config { return v.cfg }

// Configure replaces the presentation configuration. The destination cache
// is kept; it does not depend on grouping, sorting or mode.
func (v *CargoView) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	v.cfg = cfg
	return nil
}

// Invalidate drops the cached destination estimates for one cargo type.
// They are recomputed on the next rebuild.
func (v *CargoView) Invalidate(cargo domain.CargoType) {
	v.cached.RemoveCargo(cargo)
}

// InvalidateAll drops all cached destination estimates.
func (v *CargoView) InvalidateAll() {
	v.cached.Clear()
}

// Rebuild constructs the aggregation tree for the current configuration from
// scratch. Destination estimates are computed per cargo type on first use
// and reused across rebuilds until invalidated.
func (v *CargoView) Rebuild(src ports.GoodsSource) *domain.CargoEntry {
	root := domain.NewCargoEntry()
	est := NewDestinationEstimator(src)

	for _, cargo := range src.Cargoes() {
		if v.cached.RetrieveCargo(cargo) == nil {
			est.Recalc(v.cached, v.station, cargo)
		}

		gd, ok := src.Goods(v.station, cargo)
		if !ok {
			continue
		}

		if v.cfg.Mode == ModeWaiting {
			v.buildWaitingList(root, src, cargo, gd)
		} else {
			v.buildFlowList(root, src, cargo, gd.Flows)
		}
	}

	v.applySort(root, src, 0, domain.InvalidCargo)
	return root
}

// groupingAt returns the grouping of a column; column 0 is always cargo.
func (v *CargoView) groupingAt(column int) Grouping {
	if column == 0 {
		return GroupCargo
	}
	return v.cfg.Groupings[column-1]
}

// showCargo inserts one (cargo, source, next, destination, count) tuple into
// the tree along the configured grouping pipeline. Manually routed cargo
// never fabricates via/destination branches, and its source column is
// skipped for locally originating cargo.
func (v *CargoView) showCargo(root *domain.CargoEntry, src ports.GoodsSource, cargo domain.CargoType, source, next, dest domain.StationID, count uint) {
	if count == 0 {
		return
	}
	autoDistributed := src.RoutingMode(cargo) != domain.RoutingManual

	data := root
	for i := 0; i < numColumns; i++ {
		switch v.groupingAt(i) {
		case GroupCargo:
			data = data.InsertOrRetrieveCargo(cargo)
			data.SetTransfers(source != v.station)
		case GroupSource:
			if autoDistributed || source != v.station {
				data = data.InsertOrRetrieveStation(source)
			}
		case GroupNext:
			if autoDistributed {
				data = data.InsertOrRetrieveStation(next)
			}
		case GroupDestination:
			if autoDistributed {
				data = data.InsertOrRetrieveStation(dest)
			}
		}
	}
	data.Update(count)
}

// buildWaitingList aggregates literal waiting-cargo records, splitting each
// record's count across its cached destination distribution. The last
// destination in iteration order absorbs whatever rounding left over, so the
// displayed total always equals the true waiting count.
func (v *CargoView) buildWaitingList(root *domain.CargoEntry, src ports.GoodsSource, cargo domain.CargoType, gd domain.GoodsData) {
	sourceDest := v.cached.RetrieveCargo(cargo)

	for _, rec := range gd.Waiting {
		var viaEntry *domain.CargoEntry
		if sourceDest != nil {
			if sourceEntry := sourceDest.RetrieveStation(rec.Source); sourceEntry != nil {
				viaEntry = sourceEntry.RetrieveStation(rec.Next)
			}
		}
		if viaEntry == nil {
			v.showCargo(root, src, cargo, rec.Source, rec.Next, domain.InvalidStation, rec.Count)
			continue
		}

		remaining := rec.Count
		children := viaEntry.Children()
		for i, destEntry := range children {
			var val uint
			if i == len(children)-1 {
				// Allocate all remaining cargo to the last destination so
				// nothing is lost to rounding.
				val = remaining
			} else {
				val = divideApprox(rec.Count*destEntry.Count(), viaEntry.Count())
				if val > remaining {
					val = remaining
				}
				remaining -= val
			}
			v.showCargo(root, src, cargo, rec.Source, rec.Next, destEntry.Station(), val)
		}
	}

	// Reserved cargo has not been assigned to a real station yet.
	v.showCargo(root, src, cargo, domain.PendingStation, domain.PendingStation, domain.PendingStation, gd.Reserved)
}

// buildFlowList aggregates planned flows directly from the share tables,
// multiplying the top-level weights through the cached destination
// distributions.
func (v *CargoView) buildFlowList(root *domain.CargoEntry, src ports.GoodsSource, cargo domain.CargoType, flows domain.FlowShareMap) {
	sourceDest := v.cached.RetrieveCargo(cargo)
	if sourceDest == nil {
		return
	}

	for _, from := range sortedSources(flows) {
		sourceEntry := sourceDest.RetrieveStation(from)
		if sourceEntry == nil {
			continue
		}
		for _, share := range flows[from] {
			viaEntry := sourceEntry.RetrieveStation(share.Via)
			if viaEntry == nil {
				continue
			}
			for _, destEntry := range viaEntry.Children() {
				v.showCargo(root, src, cargo, from, share.Via, destEntry.Station(), destEntry.Count())
			}
		}
	}
}

// applySort orders each level of the built tree: station columns sorted as
// their grouping (natural station name) or by count, the cargo column kept
// in cargo type order. Manually routed cargo has no levels below source.
func (v *CargoView) applySort(entry *domain.CargoEntry, src ports.GoodsSource, column int, cargo domain.CargoType) {
	if v.cfg.SortByCount && column > 0 {
		entry.Resort(domain.SortByCount, v.cfg.SortOrder, src)
	} else if v.groupingAt(column) != GroupCargo {
		entry.Resort(domain.SortByStationName, v.cfg.SortOrder, src)
	}

	for _, child := range entry.Children() {
		c := cargo
		if v.groupingAt(column) == GroupCargo {
			c = child.Cargo()
		}
		autoDistributed := src.RoutingMode(c) != domain.RoutingManual
		if (autoDistributed || column == 0) && column < numColumns-1 {
			v.applySort(child, src, column+1, c)
		}
	}
}
