package dto

import (
	"fmt"

	"station-cargo-service/internal/domain"
)

// CargoNode is one row of the grouped cargo tree. The top level holds cargo
// types; every level below holds stations of the configured grouping.
type CargoNode struct {
	Kind      string      `json:"kind"`
	ID        uint16      `json:"id"`
	Name      string      `json:"name,omitempty"`
	Count     uint        `json:"count"`
	Transfers bool        `json:"transfers,omitempty"`
	Children  []CargoNode `json:"children,omitempty"`
}

type CargoViewResponse struct {
	Station uint16      `json:"station"`
	Mode    string      `json:"mode"`
	Rows    uint        `json:"rows"`
	Total   uint        `json:"total"`
	Entries []CargoNode `json:"entries"`
}

// BuildCargoView flattens a built aggregation tree into the response shape.
// Rows carries the tree's structural insertion counter, which only grows for
// a given station until its estimates are invalidated.
func BuildCargoView(station domain.StationID, mode string, root *domain.CargoEntry, names domain.StationNamer) CargoViewResponse {
	return CargoViewResponse{
		Station: uint16(station),
		Mode:    mode,
		Rows:    root.Insertions(),
		Total:   root.Count(),
		Entries: buildNodes(root, names, 0),
	}
}

func buildNodes(entry *domain.CargoEntry, names domain.StationNamer, depth int) []CargoNode {
	if entry.Len() == 0 {
		return nil
	}
	nodes := make([]CargoNode, 0, entry.Len())
	for _, child := range entry.Children() {
		var node CargoNode
		if depth == 0 {
			node = CargoNode{
				Kind:      "cargo",
				ID:        uint16(child.Cargo()),
				Count:     child.Count(),
				Transfers: child.HasTransfers(),
			}
		} else {
			node = CargoNode{
				Kind:  "station",
				ID:    uint16(child.Station()),
				Name:  stationLabel(child.Station(), names),
				Count: child.Count(),
			}
		}
		node.Children = buildNodes(child, names, depth+1)
		nodes = append(nodes, node)
	}
	return nodes
}

func stationLabel(id domain.StationID, names domain.StationNamer) string {
	switch id {
	case domain.InvalidStation:
		return "unknown"
	case domain.PendingStation:
		return "reserved"
	}
	if name, ok := names.StationName(id); ok {
		return name
	}
	return fmt.Sprintf("station %d", id)
}
