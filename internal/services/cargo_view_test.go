package services

import (
	"testing"

	"station-cargo-service/internal/domain"
)

func mustView(t *testing.T, station domain.StationID, cfg Config) *CargoView {
	t.Helper()
	v, err := NewCargoView(station, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.Groupings = [3]Grouping{GroupSource, GroupSource, GroupNext}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate grouping")
	}

	cfg.Groupings = [3]Grouping{GroupSource, GroupCargo, GroupNext}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for cargo in a station column")
	}
}

func TestRebuildWaitingSplitsAcrossCachedDestinations(t *testing.T) {
	// Station 1 holds 10 waiting units from source 2 headed via station 3.
	// Station 3 forwards source-2 cargo 1:2 to stations 4 and 5, which both
	// consume what they receive.
	net := domain.NewNetwork()
	net.AddStation(1, "Appleford")
	net.AddStation(2, "Brookfield")
	net.AddStation(3, "Carlin Heath")
	net.AddStation(4, "Dell")
	net.AddStation(5, "Emsworth")
	net.AddCargo(coal, domain.RoutingAuto)
	net.AddWaiting(1, coal, domain.WaitingCargo{Source: 2, Next: 3, Count: 10})
	net.SetFlow(1, coal, 2, domain.FlowShares{{Threshold: 3, Via: 3}})
	net.SetFlow(3, coal, 2, domain.FlowShares{{Threshold: 1, Via: 4}, {Threshold: 3, Via: 5}})
	net.SetFlow(4, coal, 2, domain.FlowShares{{Threshold: 1, Via: 4}})
	net.SetFlow(5, coal, 2, domain.FlowShares{{Threshold: 2, Via: 5}})

	view := mustView(t, 1, DefaultConfig())
	root := view.Rebuild(net)

	if root.Count() != 10 {
		t.Fatalf("root total = %d, want 10 (displayed total must match waiting count)", root.Count())
	}

	next := root.RetrieveCargo(coal).RetrieveStation(2).RetrieveStation(3)
	if next == nil {
		t.Fatal("expected cargo/source/next path in tree")
	}
	if got := next.RetrieveStation(4).Count(); got != 3 {
		t.Errorf("destination 4 = %d, want 3 (round(10/3))", got)
	}
	if got := next.RetrieveStation(5).Count(); got != 7 {
		t.Errorf("destination 5 = %d, want 7 (last child absorbs remainder)", got)
	}
}

func TestRebuildWaitingLoneZeroWeightChildAbsorbsAll(t *testing.T) {
	// The cached destination set for (source 5, next 7) degenerates to a
	// single zero-weight child; the full packet count must land on it.
	net := domain.NewNetwork()
	net.AddStation(5, "Dell")
	net.AddStation(7, "Farley")
	net.AddStation(9, "Appleford")
	net.AddCargo(coal, domain.RoutingAuto)
	net.AddWaiting(9, coal, domain.WaitingCargo{Source: 5, Next: 7, Count: 7})
	net.SetFlow(9, coal, 5, domain.FlowShares{{Threshold: 0, Via: 7}})

	view := mustView(t, 9, DefaultConfig())
	root := view.Rebuild(net)

	if root.Count() != 7 {
		t.Fatalf("root total = %d, want 7", root.Count())
	}
	next := root.RetrieveCargo(coal).RetrieveStation(5).RetrieveStation(7)
	if next == nil {
		t.Fatal("expected cargo/source/next path in tree")
	}
	if next.Len() != 1 {
		t.Fatalf("expected a single destination child, got %d", next.Len())
	}
	if got := next.Children()[0].Count(); got != 7 {
		t.Errorf("lone destination = %d, want all 7 units", got)
	}
}

func TestRebuildWaitingWithoutCacheEntryUsesUnknownBucket(t *testing.T) {
	// No flow data at all: the record's destination cannot be estimated.
	net := domain.NewNetwork()
	net.AddStation(1, "Appleford")
	net.AddStation(2, "Brookfield")
	net.AddStation(3, "Carlin Heath")
	net.AddCargo(coal, domain.RoutingAuto)
	net.AddWaiting(1, coal, domain.WaitingCargo{Source: 2, Next: 3, Count: 12})

	view := mustView(t, 1, DefaultConfig())
	root := view.Rebuild(net)

	dest := root.RetrieveCargo(coal).RetrieveStation(2).RetrieveStation(3).RetrieveStation(domain.InvalidStation)
	if dest == nil || dest.Count() != 12 {
		t.Fatalf("expected 12 units in the unknown destination bucket")
	}
}

func TestRebuildWaitingAppendsReservedRow(t *testing.T) {
	net := domain.NewNetwork()
	net.AddStation(1, "Appleford")
	net.AddCargo(coal, domain.RoutingAuto)
	net.AddWaiting(1, coal, domain.WaitingCargo{Source: 1, Next: 1, Count: 4})
	net.SetReserved(1, coal, 5)

	view := mustView(t, 1, DefaultConfig())
	root := view.Rebuild(net)

	pending := root.RetrieveCargo(coal).RetrieveStation(domain.PendingStation)
	if pending == nil {
		t.Fatal("expected reserved cargo under the pending sentinel")
	}
	if pending.Count() != 5 {
		t.Errorf("reserved = %d, want 5", pending.Count())
	}
	if root.Count() != 9 {
		t.Errorf("root total = %d, want 9 (waiting plus reserved)", root.Count())
	}
}

func TestRebuildManualCargoSkipsViaAndDestinationColumns(t *testing.T) {
	net := domain.NewNetwork()
	net.AddStation(1, "Appleford")
	net.AddStation(2, "Brookfield")
	net.AddCargo(coal, domain.RoutingManual)
	net.AddWaiting(1, coal, domain.WaitingCargo{Source: 2, Next: 1, Count: 20})

	cfg := DefaultConfig()
	cfg.Groupings = [3]Grouping{GroupSource, GroupDestination, GroupNext}
	view := mustView(t, 1, cfg)
	root := view.Rebuild(net)

	cargoEntry := root.RetrieveCargo(coal)
	if cargoEntry == nil || cargoEntry.Count() != 20 {
		t.Fatal("expected cargo entry with the full count")
	}
	source := cargoEntry.RetrieveStation(2)
	if source == nil {
		t.Fatal("expected source level for foreign cargo")
	}
	if source.Len() != 0 {
		t.Errorf("manual cargo fabricated %d via/destination children", source.Len())
	}

	// Locally originating manual cargo collapses onto the cargo row itself.
	net.AddWaiting(1, coal, domain.WaitingCargo{Source: 1, Next: 1, Count: 3})
	root = view.Rebuild(net)
	if got := root.RetrieveCargo(coal).Count(); got != 23 {
		t.Errorf("cargo total = %d, want 23", got)
	}
	if got := root.RetrieveCargo(coal).RetrieveStation(1); got != nil {
		t.Errorf("local source must not appear as a child for manual cargo")
	}
}

func TestRebuildPlannedModeUsesFlowShares(t *testing.T) {
	net := domain.NewNetwork()
	net.AddStation(1, "Appleford")
	net.AddStation(2, "Brookfield")
	net.AddStation(3, "Carlin Heath")
	net.AddStation(4, "Dell")
	net.AddStation(5, "Emsworth")
	net.AddCargo(coal, domain.RoutingAuto)
	net.SetFlow(1, coal, 2, domain.FlowShares{{Threshold: 3, Via: 3}})
	net.SetFlow(3, coal, 2, domain.FlowShares{{Threshold: 1, Via: 4}, {Threshold: 3, Via: 5}})
	net.SetFlow(4, coal, 2, domain.FlowShares{{Threshold: 1, Via: 4}})
	net.SetFlow(5, coal, 2, domain.FlowShares{{Threshold: 2, Via: 5}})

	cfg := DefaultConfig()
	cfg.Mode = ModePlanned
	view := mustView(t, 1, cfg)
	root := view.Rebuild(net)

	if root.Count() != 3 {
		t.Fatalf("planned total = %d, want 3", root.Count())
	}
	next := root.RetrieveCargo(coal).RetrieveStation(2).RetrieveStation(3)
	if next == nil {
		t.Fatal("expected cargo/source/next path in tree")
	}
	if got := next.RetrieveStation(4).Count(); got != 1 {
		t.Errorf("planned destination 4 = %d, want 1", got)
	}
	if got := next.RetrieveStation(5).Count(); got != 2 {
		t.Errorf("planned destination 5 = %d, want 2", got)
	}
}

func TestCacheSurvivesRebuildUntilInvalidated(t *testing.T) {
	net := domain.NewNetwork()
	net.AddStation(1, "Appleford")
	net.AddStation(2, "Brookfield")
	net.AddStation(3, "Carlin Heath")
	net.AddStation(4, "Dell")
	net.AddCargo(coal, domain.RoutingAuto)
	net.AddWaiting(1, coal, domain.WaitingCargo{Source: 2, Next: 3, Count: 6})
	net.SetFlow(1, coal, 2, domain.FlowShares{{Threshold: 6, Via: 3}})
	net.SetFlow(3, coal, 2, domain.FlowShares{{Threshold: 6, Via: 3}})

	view := mustView(t, 1, DefaultConfig())
	root := view.Rebuild(net)
	if got := root.RetrieveCargo(coal).RetrieveStation(2).RetrieveStation(3).RetrieveStation(3).Count(); got != 6 {
		t.Fatalf("initial destination = %d, want 6 at station 3", got)
	}

	// The hop's flow data changes, but the cached estimate keeps serving.
	net.SetFlow(3, coal, 2, domain.FlowShares{{Threshold: 6, Via: 4}})
	net.SetFlow(4, coal, 2, domain.FlowShares{{Threshold: 6, Via: 4}})
	root = view.Rebuild(net)
	if got := root.RetrieveCargo(coal).RetrieveStation(2).RetrieveStation(3).RetrieveStation(3); got == nil {
		t.Fatal("stale cache expected to keep the old destination until invalidated")
	}

	view.Invalidate(coal)
	root = view.Rebuild(net)
	next := root.RetrieveCargo(coal).RetrieveStation(2).RetrieveStation(3)
	if got := next.RetrieveStation(4); got == nil || got.Count() != 6 {
		t.Fatal("expected fresh estimate at station 4 after invalidation")
	}
	if got := next.RetrieveStation(3); got != nil {
		t.Errorf("old destination still present after invalidation")
	}
}

func TestRebuildAppliesConfiguredSort(t *testing.T) {
	// Two sources with counts that reverse under count sorting.
	net := domain.NewNetwork()
	net.AddStation(1, "Appleford")
	net.AddStation(2, "Brookfield")
	net.AddStation(3, "Carlin Heath")
	net.AddCargo(coal, domain.RoutingAuto)
	net.AddWaiting(1, coal, domain.WaitingCargo{Source: 2, Next: 1, Count: 5})
	net.AddWaiting(1, coal, domain.WaitingCargo{Source: 3, Next: 1, Count: 9})

	cfg := DefaultConfig()
	cfg.SortByCount = true
	cfg.SortOrder = domain.Descending
	view := mustView(t, 1, cfg)
	root := view.Rebuild(net)

	sources := root.RetrieveCargo(coal).Children()
	if len(sources) != 2 {
		t.Fatalf("expected 2 source entries, got %d", len(sources))
	}
	if sources[0].Station() != 3 || sources[1].Station() != 2 {
		t.Errorf("count-descending order = [%d %d], want [3 2]",
			sources[0].Station(), sources[1].Station())
	}

	// As-grouping sorts station columns by natural name.
	cfg.SortByCount = false
	cfg.SortOrder = domain.Ascending
	if err := view.Configure(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root = view.Rebuild(net)
	sources = root.RetrieveCargo(coal).Children()
	if sources[0].Station() != 2 || sources[1].Station() != 3 {
		t.Errorf("name-ascending order = [%d %d], want [2 3]",
			sources[0].Station(), sources[1].Station())
	}
}

func TestRebuildSetsTransferFlag(t *testing.T) {
	net := domain.NewNetwork()
	net.AddStation(1, "Appleford")
	net.AddStation(2, "Brookfield")
	net.AddCargo(coal, domain.RoutingAuto)
	net.AddWaiting(1, coal, domain.WaitingCargo{Source: 2, Next: 1, Count: 3})

	view := mustView(t, 1, DefaultConfig())
	root := view.Rebuild(net)
	if !root.RetrieveCargo(coal).HasTransfers() {
		t.Errorf("foreign-sourced cargo must set the transfer flag")
	}

	local := domain.NewNetwork()
	local.AddStation(1, "Appleford")
	local.AddCargo(coal, domain.RoutingAuto)
	local.AddWaiting(1, coal, domain.WaitingCargo{Source: 1, Next: 1, Count: 3})

	view = mustView(t, 1, DefaultConfig())
	root = view.Rebuild(local)
	if root.RetrieveCargo(coal).HasTransfers() {
		t.Errorf("locally sourced cargo must not set the transfer flag")
	}
}
