// Package filterstate keeps the live filter selection for one directory
// session and fans out snapshots to subscribers. Listing updates apply
// immediately; free-text query edits are debounced so a keystroke burst
// produces one search.
package filterstate

import (
	"sync"
	"time"

	"github.com/emsdir/searchd/internal/filters"
)

// DefaultDebounce matches the pause a user takes between typing and
// expecting results.
const DefaultDebounce = 200 * time.Millisecond

// Dimension names one updatable filter slot.
type Dimension string

const (
	DimCountries      Dimension = "countries"
	DimStates         Dimension = "states"
	DimCapabilities   Dimension = "capabilities"
	DimVolume         Dimension = "volume"
	DimEmployeeRanges Dimension = "employees"
)

// Snapshot is one observed state. Generation increases on every filter
// change, so results computed for an older generation can be rejected.
type Snapshot struct {
	Filters       filters.Set
	FilteredCount int
	Generation    uint64
}

type Store struct {
	mu       sync.Mutex
	current  filters.Set
	count    int
	gen      uint64
	debounce time.Duration

	pendingQuery string
	timer        *time.Timer

	subs   map[int]chan Snapshot
	nextID int
	closed bool
}

func New(initial filters.Set, debounce time.Duration) *Store {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Store{
		current:  initial.Canonical(),
		debounce: debounce,
		subs:     make(map[int]chan Snapshot),
	}
}

// Subscribe returns a channel of snapshots and a cancel func. The current
// state is delivered immediately; later updates are dropped for slow
// consumers rather than blocking the store.
func (s *Store) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, buffer)
	s.subs[id] = ch
	ch <- s.snapshotLocked()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Filters returns the current canonical selection.
func (s *Store) Filters() filters.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Encode returns the current selection in its canonical URL form, the
// string that belongs in the address bar for this state.
func (s *Store) Encode() string {
	return s.Filters().Encode()
}

// FilteredCount returns the last accepted result count for the current
// filter generation.
func (s *Store) FilteredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// UpdateFilter replaces one dimension's selection and notifies
// subscribers immediately.
func (s *Store) UpdateFilter(dim Dimension, values []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	next := s.current
	switch dim {
	case DimCountries:
		next.Countries = values
	case DimStates:
		next.States = values
	case DimCapabilities:
		next.Capabilities = nil
		for _, v := range values {
			if slug := filters.ParseCapability(v); slug != "" {
				next.Capabilities = append(next.Capabilities, slug)
			}
		}
	case DimVolume:
		next.ProductionVolume = ""
		for _, v := range values {
			if level := filters.ParseVolume(v); level != "" {
				next.ProductionVolume = level
				break
			}
		}
	case DimEmployeeRanges:
		next.EmployeeRanges = values
	default:
		return
	}
	s.applyLocked(next.Canonical())
}

// SetQuery schedules a debounced query update. Each call restarts the
// timer; only the last value within the window is applied.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pendingQuery = filters.SanitizeQuery(q)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flushQuery)
}

func (s *Store) flushQuery() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.timer == nil {
		return
	}
	s.timer = nil
	next := s.current
	next.Query = s.pendingQuery
	if next.Query == s.current.Query {
		return
	}
	s.applyLocked(next.Canonical())
}

// ClearFilters drops every selection, including a pending query edit.
func (s *Store) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pendingQuery = ""
	s.applyLocked(filters.Set{})
}

// SetFilteredCount records the result count for a search that ran at gen.
// Counts from an older generation are ignored: a newer filter change is
// already in flight.
func (s *Store) SetFilteredCount(gen uint64, count int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return false
	}
	s.count = count
	s.notifyLocked()
	return true
}

// Close flushes any pending query edit and closes all subscriptions.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		next := s.current
		next.Query = s.pendingQuery
		if next.Query != s.current.Query {
			s.applyLocked(next.Canonical())
		}
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store) applyLocked(next filters.Set) {
	s.current = next
	s.gen++
	s.count = 0
	s.notifyLocked()
}

func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Filters: s.current, FilteredCount: s.count, Generation: s.gen}
}
