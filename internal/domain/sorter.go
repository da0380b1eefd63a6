package domain

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOrder is the direction of a sort.
type SortOrder uint8

const (
	Ascending SortOrder = iota
	Descending
)

// SortType selects one of the total orders a CargoSorter can apply.
type SortType uint8

const (
	// SortByStationID compares station ids numerically.
	SortByStationID SortType = iota
	// SortByCargoType compares cargo type ids numerically.
	SortByCargoType
	// SortByCount compares aggregated counts, breaking ties by natural
	// station name.
	SortByCount
	// SortByStationName compares natural station names, breaking ties by
	// station id.
	SortByStationName
)

// Natural ordering: case-insensitive and aware of numeric substrings, so
// "Platform 2" sorts before "Platform 10".
var naturalCollator = collate.New(language.English, collate.Numeric, collate.IgnoreCase)

// CargoSorter is a pluggable comparator over cargo entries. Name-based
// orders resolve station names through Names; a nil Names treats every
// station as invalid, falling back to id comparison.
type CargoSorter struct {
	Type  SortType
	Order SortOrder
	Names StationNamer
}

// Less reports whether a sorts before b under this comparator.
func (s CargoSorter) Less(a, b *CargoEntry) bool {
	switch s.Type {
	case SortByStationID:
		return s.lessID(uint32(a.Station()), uint32(b.Station()))
	case SortByCargoType:
		return s.lessID(uint32(a.Cargo()), uint32(b.Cargo()))
	case SortByCount:
		return s.lessCount(a, b)
	case SortByStationName:
		return s.lessStation(a.Station(), b.Station())
	default:
		return false
	}
}

func (s CargoSorter) lessID(a, b uint32) bool {
	if s.Order == Ascending {
		return a < b
	}
	return b < a
}

func (s CargoSorter) lessCount(a, b *CargoEntry) bool {
	c1, c2 := a.Count(), b.Count()
	if c1 == c2 {
		return s.lessStation(a.Station(), b.Station())
	}
	if s.Order == Ascending {
		return c1 < c2
	}
	return c2 < c1
}

// lessStation orders stations by natural name. An invalid id is treated as
// the greatest key, so it sorts after any valid id in ascending order; two
// invalid ids fall back to id comparison.
func (s CargoSorter) lessStation(a, b StationID) bool {
	nameA, okA := s.name(a)
	nameB, okB := s.name(b)
	if !okA {
		if okB {
			return s.Order == Descending
		}
		return s.lessID(uint32(a), uint32(b))
	}
	if !okB {
		return s.Order == Ascending
	}

	res := naturalCollator.CompareString(nameA, nameB)
	if res == 0 {
		return s.lessID(uint32(a), uint32(b))
	}
	if s.Order == Ascending {
		return res < 0
	}
	return res > 0
}

func (s CargoSorter) name(id StationID) (string, bool) {
	if s.Names == nil {
		return "", false
	}
	return s.Names.StationName(id)
}
