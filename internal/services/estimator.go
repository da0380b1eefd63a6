package services

import (
	"sort"

	"station-cargo-service/internal/domain"
	"station-cargo-service/internal/ports"
)

// divideApprox divides a by b rounding to the nearest integer. A zero
// divisor yields zero so proportional splits over an empty total degrade to
// "everything goes to the remainder branch".
func divideApprox(a, b uint) uint {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// sortedSources returns the source station ids of a flow share map in
// ascending order, for deterministic iteration.
func sortedSources(flows domain.FlowShareMap) []domain.StationID {
	srcs := make([]domain.StationID, 0, len(flows))
	for s := range flows {
		srcs = append(srcs, s)
	}
	sort.Slice(srcs, func(i, j int) bool { return srcs[i] < srcs[j] })
	return srcs
}

// DestinationEstimator derives per-destination cargo distributions from
// hop-to-hop flow shares. Only the next hop is tracked per unit of cargo, so
// final destinations are estimated by recursively subdividing the forwarding
// tables of the hops themselves.
type DestinationEstimator struct {
	src ports.GoodsSource
}

func NewDestinationEstimator(src ports.GoodsSource) *DestinationEstimator {
	return &DestinationEstimator{src: src}
}

// Recalc rebuilds the cached destination subtree for one cargo type at the
// viewed station. The resulting subtree under cache maps
// cargo -> source -> next hop -> final destination distribution.
func (e *DestinationEstimator) Recalc(cache *domain.CargoEntry, station domain.StationID, cargo domain.CargoType) {
	entry := cache.InsertOrRetrieveCargo(cargo)
	entry.Clear()

	gd, ok := e.src.Goods(station, cargo)
	if !ok {
		return
	}

	for _, from := range sortedSources(gd.Flows) {
		sourceEntry := entry.InsertOrRetrieveStation(from)
		prev := uint(0)
		for _, share := range gd.Flows[from] {
			via := share.Via
			viaEntry := sourceEntry.InsertOrRetrieveStation(via)
			if via == station {
				// Cargo terminating here needs no estimation.
				viaEntry.InsertOrRetrieveStation(via).Update(share.Threshold - prev)
			} else {
				e.Estimate(cargo, from, via, share.Threshold-prev, viaEntry)
			}
			prev = share.Threshold
		}
	}
}

// Estimate distributes count units of cargo from source over final
// destinations, starting at the intermediate hop next, and accumulates the
// result as children of dest. The produced destination buckets always sum to
// exactly count; rounding residue is absorbed deterministically and a share
// pointing back at the hop itself is treated as terminal.
func (e *DestinationEstimator) Estimate(cargo domain.CargoType, source, next domain.StationID, count uint, dest *domain.CargoEntry) {
	if _, ok := e.src.StationName(next); !ok {
		dest.InsertOrRetrieveStation(domain.InvalidStation).Update(count)
		return
	}
	if _, ok := e.src.StationName(source); !ok {
		dest.InsertOrRetrieveStation(domain.InvalidStation).Update(count)
		return
	}

	// Decompose the hop's own forwarding table for this source into
	// discrete weights.
	tmp := domain.NewCargoEntry()
	if gd, ok := e.src.Goods(next, cargo); ok {
		prev := uint(0)
		for _, share := range gd.Flows[source] {
			tmp.InsertOrRetrieveStation(share.Via).Update(share.Threshold - prev)
			prev = share.Threshold
		}
	}

	if tmp.Count() == 0 {
		// The hop has no forwarding data for this source; the destination
		// cannot be narrowed down any further.
		dest.InsertOrRetrieveStation(domain.InvalidStation).Update(count)
		return
	}

	sum := uint(0)
	for sum < count {
		for _, child := range tmp.Children() {
			if sum >= count {
				break
			}

			estimate := divideApprox(child.Count()*count, tmp.Count())
			if estimate == 0 {
				// A nonzero share must never vanish from the estimate.
				estimate = 1
			}

			sum += estimate
			if sum > count {
				estimate -= sum - count
				sum = count
			}

			if estimate > 0 {
				if child.Station() == next {
					dest.InsertOrRetrieveStation(next).Update(estimate)
				} else {
					e.Estimate(cargo, source, child.Station(), estimate, dest)
				}
			}
		}
	}
}
