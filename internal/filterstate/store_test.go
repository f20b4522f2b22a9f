package filterstate

import (
	"testing"
	"time"

	"github.com/emsdir/searchd/internal/filters"
)

func drain(ch <-chan Snapshot) Snapshot {
	var last Snapshot
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return last
			}
			last = s
		default:
			return last
		}
	}
}

func waitFor(t *testing.T, ch <-chan Snapshot, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				t.Fatal("channel closed before condition")
			}
			if cond(s) {
				return s
			}
		case <-deadline:
			t.Fatal("condition not reached")
		}
	}
}

func TestSubscribe_DeliversCurrentState(t *testing.T) {
	s := New(filters.Set{States: []string{"TX"}}, time.Millisecond)
	defer s.Close()

	ch, cancel := s.Subscribe(4)
	defer cancel()

	snap := <-ch
	if len(snap.Filters.States) != 1 || snap.Filters.States[0] != "TX" {
		t.Fatalf("initial snapshot=%+v", snap.Filters)
	}
	if snap.Generation != 0 {
		t.Fatalf("generation=%d want 0", snap.Generation)
	}
}

func TestUpdateFilter_NotifiesImmediately(t *testing.T) {
	s := New(filters.Set{}, time.Hour) // a pending debounce must not delay listing updates
	defer s.Close()

	ch, cancel := s.Subscribe(4)
	defer cancel()
	<-ch // initial

	s.UpdateFilter(DimStates, []string{"TX", "CA"})
	snap := waitFor(t, ch, func(sn Snapshot) bool { return sn.Generation == 1 })
	if got := snap.Filters.States; len(got) != 2 || got[0] != "CA" || got[1] != "TX" {
		t.Fatalf("states=%v want [CA TX]", got)
	}
	if got, want := s.Encode(), snap.Filters.Encode(); got != want {
		t.Fatalf("Encode()=%q want %q", got, want)
	}
}

func TestSetQuery_DebouncedLastWriteWins(t *testing.T) {
	s := New(filters.Set{}, 20*time.Millisecond)
	defer s.Close()

	ch, cancel := s.Subscribe(8)
	defer cancel()
	<-ch

	s.SetQuery("p")
	s.SetQuery("po")
	s.SetQuery("power")

	snap := waitFor(t, ch, func(sn Snapshot) bool { return sn.Filters.Query != "" })
	if snap.Filters.Query != "power" {
		t.Fatalf("query=%q want power", snap.Filters.Query)
	}
	if snap.Generation != 1 {
		t.Fatalf("generation=%d want 1 (one flush for three keystrokes)", snap.Generation)
	}
}

func TestSetFilteredCount_RejectsStaleGeneration(t *testing.T) {
	s := New(filters.Set{}, time.Millisecond)
	defer s.Close()

	s.UpdateFilter(DimStates, []string{"TX"})
	gen := s.Generation()

	if ok := s.SetFilteredCount(gen-1, 99); ok {
		t.Fatal("stale generation accepted")
	}
	if ok := s.SetFilteredCount(gen, 3); !ok {
		t.Fatal("current generation rejected")
	}

	ch, cancel := s.Subscribe(1)
	defer cancel()
	snap := <-ch
	if snap.FilteredCount != 3 {
		t.Fatalf("filteredCount=%d want 3", snap.FilteredCount)
	}
}

func TestClearFilters_DropsPendingQuery(t *testing.T) {
	s := New(filters.Set{States: []string{"TX"}}, 20*time.Millisecond)
	defer s.Close()

	s.SetQuery("power")
	s.ClearFilters()

	time.Sleep(60 * time.Millisecond)
	got := s.Filters()
	if !got.IsZero() {
		t.Fatalf("filters=%+v want zero after clear", got)
	}
}

func TestClose_FlushesPendingQuery(t *testing.T) {
	s := New(filters.Set{}, time.Hour)

	s.SetQuery("connectors")
	s.Close()

	if got := s.Filters().Query; got != "connectors" {
		t.Fatalf("query=%q want connectors flushed on close", got)
	}
}

func TestUpdateFilter_DropsInvalidEnumValues(t *testing.T) {
	s := New(filters.Set{}, time.Millisecond)
	defer s.Close()

	s.UpdateFilter(DimCapabilities, []string{"smt", "soldering"})
	got := s.Filters()
	if len(got.Capabilities) != 1 || got.Capabilities[0] != filters.CapSMT {
		t.Fatalf("capabilities=%v want [smt]", got.Capabilities)
	}

	s.UpdateFilter(DimVolume, []string{"ultra", "high"})
	if got := s.Filters().ProductionVolume; got != filters.VolumeHigh {
		t.Fatalf("volume=%q want high", got)
	}
}
