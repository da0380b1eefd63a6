package domain

// FlowShare is one cumulative slice of a source's historical routing split.
// The discrete weight of the slice is the difference between its threshold
// and the previous slice's threshold.
type FlowShare struct {
	Threshold uint
	Via       StationID
}

// FlowShares is an ordered sequence of cumulative (threshold, via) pairs.
// Thresholds are strictly increasing; the last threshold equals the total
// historical volume routed through the source.
type FlowShares []FlowShare

// FlowShareMap holds the flow shares of one cargo type at one station,
// keyed by source station.
type FlowShareMap map[StationID]FlowShares

// WaitingCargo is one batch of cargo waiting at a station.
type WaitingCargo struct {
	Source StationID
	Next   StationID
	Count  uint
}

// GoodsData is everything a station knows about one cargo type.
type GoodsData struct {
	Waiting  []WaitingCargo
	Reserved uint
	Flows    FlowShareMap
}
