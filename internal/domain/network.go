package domain

import "sort"

type goodsKey struct {
	station StationID
	cargo   CargoType
}

// Network is an in-memory snapshot of the station network: station names,
// cargo routing modes and per-(station, cargo) goods knowledge. The view
// engine runs against a Network; repositories and feeds produce one.
type Network struct {
	stations map[StationID]string
	modes    map[CargoType]RoutingMode
	goods    map[goodsKey]*GoodsData
}

func NewNetwork() *Network {
	return &Network{
		stations: make(map[StationID]string),
		modes:    make(map[CargoType]RoutingMode),
		goods:    make(map[goodsKey]*GoodsData),
	}
}

// AddStation registers a station. Sentinel ids are ignored.
func (n *Network) AddStation(id StationID, name string) {
	if id == InvalidStation || id == PendingStation {
		return
	}
	n.stations[id] = name
}

// AddCargo registers a cargo type with its routing mode.
func (n *Network) AddCargo(c CargoType, mode RoutingMode) {
	n.modes[c] = mode
}

func (n *Network) ensureGoods(st StationID, c CargoType) *GoodsData {
	k := goodsKey{station: st, cargo: c}
	gd, ok := n.goods[k]
	if !ok {
		gd = &GoodsData{Flows: make(FlowShareMap)}
		n.goods[k] = gd
	}
	return gd
}

// AddWaiting appends one waiting-cargo record at a station.
func (n *Network) AddWaiting(st StationID, c CargoType, rec WaitingCargo) {
	gd := n.ensureGoods(st, c)
	gd.Waiting = append(gd.Waiting, rec)
}

// SetReserved records the amount of cargo reserved for loading at a station.
func (n *Network) SetReserved(st StationID, c CargoType, count uint) {
	n.ensureGoods(st, c).Reserved = count
}

// SetFlow records the cumulative flow shares for one source at a station.
func (n *Network) SetFlow(st StationID, c CargoType, source StationID, shares FlowShares) {
	n.ensureGoods(st, c).Flows[source] = shares
}

// StationName resolves a station id to its name. Unknown and sentinel ids
// report false.
func (n *Network) StationName(id StationID) (string, bool) {
	name, ok := n.stations[id]
	return name, ok
}

// StationIDs returns all registered station ids in ascending order.
func (n *Network) StationIDs() []StationID {
	ids := make([]StationID, 0, len(n.stations))
	for id := range n.stations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Cargoes returns all registered cargo types in ascending order.
func (n *Network) Cargoes() []CargoType {
	cs := make([]CargoType, 0, len(n.modes))
	for c := range n.modes {
		cs = append(cs, c)
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
	return cs
}

// RoutingMode returns the routing mode of a cargo type. Unregistered cargo
// defaults to automatic routing.
func (n *Network) RoutingMode(c CargoType) RoutingMode {
	return n.modes[c]
}

// Goods returns a station's knowledge about one cargo type. The second
// return value reports whether any data is tracked for the pair.
func (n *Network) Goods(st StationID, c CargoType) (GoodsData, bool) {
	gd, ok := n.goods[goodsKey{station: st, cargo: c}]
	if !ok {
		return GoodsData{}, false
	}
	return *gd, true
}
