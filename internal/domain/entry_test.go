package domain

import "testing"

// checkInvariant verifies that every entry with children counts exactly the
// sum of its children's counts.
func checkInvariant(t *testing.T, e *CargoEntry) {
	t.Helper()
	if e.Len() == 0 {
		return
	}
	sum := uint(0)
	for _, child := range e.Children() {
		sum += child.Count()
		checkInvariant(t, child)
	}
	if e.Count() != sum {
		t.Errorf("entry count = %d, children sum to %d", e.Count(), sum)
	}
}

func TestCargoEntryInsertOrRetrieveIdempotent(t *testing.T) {
	root := NewCargoEntry()

	first := root.InsertOrRetrieveCargo(3)
	second := root.InsertOrRetrieveCargo(3)
	if first != second {
		t.Fatalf("expected identical entry for repeated insert, got distinct entries")
	}
	if root.Insertions() != 1 {
		t.Fatalf("insertions = %d, want 1 (second insert must not count)", root.Insertions())
	}

	station := first.InsertOrRetrieveStation(7)
	if got := first.RetrieveStation(7); got != station {
		t.Fatalf("retrieve returned different entry than insert")
	}
	if root.Insertions() != 2 {
		t.Fatalf("insertions = %d, want 2 after grandchild insert", root.Insertions())
	}
}

func TestCargoEntryRetrieveAbsentReturnsNil(t *testing.T) {
	root := NewCargoEntry()
	if got := root.RetrieveCargo(5); got != nil {
		t.Fatalf("expected nil for absent cargo, got %v", got)
	}
	if got := root.RetrieveStation(5); got != nil {
		t.Fatalf("expected nil for absent station, got %v", got)
	}
}

func TestCargoEntryUpdatePropagatesToAncestors(t *testing.T) {
	root := NewCargoEntry()
	cargo := root.InsertOrRetrieveCargo(0)
	via := cargo.InsertOrRetrieveStation(2)
	dest := via.InsertOrRetrieveStation(4)

	dest.Update(30)
	dest.Update(12)

	if dest.Count() != 42 {
		t.Fatalf("leaf count = %d, want 42", dest.Count())
	}
	for _, e := range []*CargoEntry{via, cargo, root} {
		if e.Count() != 42 {
			t.Errorf("ancestor count = %d, want 42", e.Count())
		}
	}
	checkInvariant(t, root)
}

func TestCargoEntryRemoveSubtractsFromAllAncestors(t *testing.T) {
	root := NewCargoEntry()
	cargo := root.InsertOrRetrieveCargo(0)
	cargo.InsertOrRetrieveStation(1).Update(10)
	cargo.InsertOrRetrieveStation(2).Update(25)

	cargo.RemoveStation(2)

	if cargo.Len() != 1 {
		t.Fatalf("children = %d, want 1 after remove", cargo.Len())
	}
	if cargo.Count() != 10 {
		t.Errorf("cargo count = %d, want 10", cargo.Count())
	}
	if root.Count() != 10 {
		t.Errorf("root count = %d, want 10 (removal must cascade)", root.Count())
	}
	checkInvariant(t, root)

	// Removing an absent key is a no-op.
	cargo.RemoveStation(99)
	if cargo.Count() != 10 || cargo.Len() != 1 {
		t.Errorf("remove of absent key changed the entry: count=%d len=%d", cargo.Count(), cargo.Len())
	}
}

func TestCargoEntryRemoveThenReinsertStartsAtZero(t *testing.T) {
	root := NewCargoEntry()
	cargo := root.InsertOrRetrieveCargo(0)
	cargo.InsertOrRetrieveStation(5).Update(100)

	cargo.RemoveStation(5)
	fresh := cargo.InsertOrRetrieveStation(5)

	if fresh.Count() != 0 {
		t.Fatalf("reinserted entry count = %d, want 0", fresh.Count())
	}
	if cargo.Count() != 0 {
		t.Fatalf("parent count = %d, want 0", cargo.Count())
	}
}

func TestCargoEntryClear(t *testing.T) {
	root := NewCargoEntry()
	cargo := root.InsertOrRetrieveCargo(1)
	cargo.InsertOrRetrieveStation(1).Update(7)
	cargo.InsertOrRetrieveStation(2).Update(8)

	cargo.Clear()

	if cargo.Len() != 0 {
		t.Errorf("children = %d, want 0 after clear", cargo.Len())
	}
	if cargo.Count() != 0 {
		t.Errorf("count = %d, want 0 after clear", cargo.Count())
	}
	if cargo.Insertions() != 0 {
		t.Errorf("insertions = %d, want 0 after clear", cargo.Insertions())
	}
	if root.Count() != 0 {
		t.Errorf("root count = %d, want 0 after child clear", root.Count())
	}
}

func TestCargoEntryInsertionsAreMonotonic(t *testing.T) {
	root := NewCargoEntry()
	cargo := root.InsertOrRetrieveCargo(0)
	cargo.InsertOrRetrieveStation(1)
	cargo.InsertOrRetrieveStation(2)

	before := root.Insertions()
	cargo.RemoveStation(1)
	if root.Insertions() != before {
		t.Fatalf("insertions changed on remove: %d -> %d", before, root.Insertions())
	}

	// Reinserting the same key is a new structural insertion.
	cargo.InsertOrRetrieveStation(1)
	if root.Insertions() != before+1 {
		t.Fatalf("insertions = %d, want %d after reinsert", root.Insertions(), before+1)
	}
}

func TestCargoEntryResortPreservesEntriesAndCounts(t *testing.T) {
	names := mapNamer{1: "Ashdale", 2: "Brookfield", 3: "Carlin Heath"}

	root := NewCargoEntry()
	cargo := root.InsertOrRetrieveCargo(0)
	cargo.InsertOrRetrieveStation(1).Update(5)
	cargo.InsertOrRetrieveStation(2).Update(50)
	cargo.InsertOrRetrieveStation(3).Update(20)

	cargo.Resort(SortByCount, Descending, names)

	if cargo.Count() != 75 {
		t.Fatalf("count = %d, want 75 after resort", cargo.Count())
	}
	got := make([]StationID, 0, 3)
	for _, child := range cargo.Children() {
		got = append(got, child.Station())
	}
	want := []StationID{2, 3, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order after count resort = %v, want %v", got, want)
		}
	}

	// Same entry identities survive the resort.
	if cargo.RetrieveStation(2).Count() != 50 {
		t.Errorf("entry for station 2 lost its count after resort")
	}
}

func TestCargoEntryChildrenFollowInsertSorter(t *testing.T) {
	root := NewCargoEntry()
	root.InsertOrRetrieveCargo(4)
	root.InsertOrRetrieveCargo(1)
	root.InsertOrRetrieveCargo(3)

	got := make([]CargoType, 0, 3)
	for _, child := range root.Children() {
		got = append(got, child.Cargo())
	}
	want := []CargoType{1, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("root children order = %v, want %v", got, want)
		}
	}
}
