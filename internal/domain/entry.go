package domain

import "sort"

type keyKind uint8

const (
	keyNone keyKind = iota
	keyStation
	keyCargo
)

type childKey struct {
	kind keyKind
	id   uint32
}

// CargoEntry is one node of the cargo aggregation tree. Entries are keyed by
// either a station id or a cargo type depending on their position in the
// tree, and every parent keeps track of the sum of its children's counts.
//
// Each entry exclusively owns its children and holds a non-owning reference
// to its parent for upward count propagation. The tree is not safe for
// concurrent use; all access is expected to happen on a single logical
// thread per the rebuild cycle of the view.
type CargoEntry struct {
	parent    *CargoEntry
	kind      keyKind
	station   StationID
	cargo     CargoType
	transfers bool

	count      uint
	insertions uint

	sorter CargoSorter
	byKey  map[childKey]*CargoEntry
	order  []*CargoEntry
}

// NewCargoEntry returns an empty root entry. Its direct children are kept in
// cargo type order; deeper levels default to station id order until resorted.
func NewCargoEntry() *CargoEntry {
	return &CargoEntry{
		kind:    keyNone,
		station: InvalidStation,
		cargo:   InvalidCargo,
		sorter:  CargoSorter{Type: SortByCargoType, Order: Ascending},
	}
}

func (e *CargoEntry) key() childKey {
	switch e.kind {
	case keyStation:
		return childKey{kind: keyStation, id: uint32(e.station)}
	case keyCargo:
		return childKey{kind: keyCargo, id: uint32(e.cargo)}
	default:
		return childKey{}
	}
}

// InsertOrRetrieveStation returns the child keyed by the given station,
// creating a zero-count child if none exists yet. Repeated calls with the
// same id return the same entry; only the first call counts as a structural
// insertion.
func (e *CargoEntry) InsertOrRetrieveStation(id StationID) *CargoEntry {
	k := childKey{kind: keyStation, id: uint32(id)}
	if child, ok := e.byKey[k]; ok {
		return child
	}
	child := &CargoEntry{
		parent:  e,
		kind:    keyStation,
		station: id,
		cargo:   InvalidCargo,
		sorter:  CargoSorter{Type: SortByStationID, Order: Ascending},
	}
	e.insert(k, child)
	return child
}

// InsertOrRetrieveCargo is InsertOrRetrieveStation for cargo-keyed children.
func (e *CargoEntry) InsertOrRetrieveCargo(c CargoType) *CargoEntry {
	k := childKey{kind: keyCargo, id: uint32(c)}
	if child, ok := e.byKey[k]; ok {
		return child
	}
	child := &CargoEntry{
		parent:  e,
		kind:    keyCargo,
		station: InvalidStation,
		cargo:   c,
		sorter:  CargoSorter{Type: SortByStationID, Order: Ascending},
	}
	e.insert(k, child)
	return child
}

func (e *CargoEntry) insert(k childKey, child *CargoEntry) {
	if e.byKey == nil {
		e.byKey = make(map[childKey]*CargoEntry)
	}
	e.byKey[k] = child

	// Keep the ordered view sorted under the active comparator. Ties go
	// after existing entries, keeping insertion order stable.
	idx := sort.Search(len(e.order), func(i int) bool {
		return e.sorter.Less(child, e.order[i])
	})
	e.order = append(e.order, nil)
	copy(e.order[idx+1:], e.order[idx:])
	e.order[idx] = child

	e.incrementInsertions()
}

// The structural insertion counter is a high-water mark: it is propagated up
// on creation and never decremented by Remove.
func (e *CargoEntry) incrementInsertions() {
	e.insertions++
	if e.parent != nil {
		e.parent.incrementInsertions()
	}
}

// RetrieveStation returns the child keyed by the given station, or nil.
func (e *CargoEntry) RetrieveStation(id StationID) *CargoEntry {
	return e.byKey[childKey{kind: keyStation, id: uint32(id)}]
}

// RetrieveCargo returns the child keyed by the given cargo type, or nil.
func (e *CargoEntry) RetrieveCargo(c CargoType) *CargoEntry {
	return e.byKey[childKey{kind: keyCargo, id: uint32(c)}]
}

// Update adds amount to this entry's count and to every ancestor's count.
func (e *CargoEntry) Update(amount uint) {
	e.count += amount
	if e.parent != nil {
		e.parent.Update(amount)
	}
}

func (e *CargoEntry) subtract(amount uint) {
	e.count -= amount
	if e.parent != nil {
		e.parent.subtract(amount)
	}
}

// RemoveStation erases the child keyed by the given station, subtracting its
// count from this entry and all ancestors. Removing an absent key is a no-op.
func (e *CargoEntry) RemoveStation(id StationID) {
	e.remove(childKey{kind: keyStation, id: uint32(id)})
}

// RemoveCargo is RemoveStation for cargo-keyed children.
func (e *CargoEntry) RemoveCargo(c CargoType) {
	e.remove(childKey{kind: keyCargo, id: uint32(c)})
}

func (e *CargoEntry) remove(k childKey) {
	child, ok := e.byKey[k]
	if !ok {
		return
	}
	delete(e.byKey, k)
	for i, c := range e.order {
		if c == child {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	child.parent = nil
	e.subtract(child.count)
}

// Clear removes all children, subtracts this entry's count from its
// ancestors and resets both the count and the insertion counter.
func (e *CargoEntry) Clear() {
	for _, child := range e.order {
		child.parent = nil
	}
	e.byKey = nil
	e.order = nil
	if e.parent != nil {
		e.parent.subtract(e.count)
	}
	e.count = 0
	e.insertions = 0
}

// Resort rebuilds the child ordering under a new comparator. Node identity
// and counts are preserved; only iteration order changes. The sort is stable
// with respect to ties.
func (e *CargoEntry) Resort(t SortType, o SortOrder, names StationNamer) {
	e.sorter = CargoSorter{Type: t, Order: o, Names: names}
	sort.SliceStable(e.order, func(i, j int) bool {
		return e.sorter.Less(e.order[i], e.order[j])
	})
}

// Count returns the aggregated cargo count of this entry.
func (e *CargoEntry) Count() uint { return e.count }

// Station returns the station id this entry is keyed by, or InvalidStation
// for cargo-keyed and root entries.
func (e *CargoEntry) Station() StationID { return e.station }

// Cargo returns the cargo type this entry is keyed by, or InvalidCargo for
// station-keyed and root entries.
func (e *CargoEntry) Cargo() CargoType { return e.cargo }

// Parent returns the owning entry, or nil for a root.
func (e *CargoEntry) Parent() *CargoEntry { return e.parent }

// Len returns the number of live children.
func (e *CargoEntry) Len() int { return len(e.order) }

// Insertions returns the monotonically increasing count of structural
// insertions below this entry. It reflects peak tree size, not live size.
func (e *CargoEntry) Insertions() uint { return e.insertions }

// Children returns the children in current sort order. The returned slice
// must not be modified.
func (e *CargoEntry) Children() []*CargoEntry { return e.order }

// HasTransfers reports the transfer flag. Only meaningful on cargo-keyed
// entries.
func (e *CargoEntry) HasTransfers() bool { return e.transfers }

// SetTransfers sets the transfer flag.
func (e *CargoEntry) SetTransfers(v bool) { e.transfers = v }
