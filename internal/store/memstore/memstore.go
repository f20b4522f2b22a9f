// Package memstore is an in-memory search.Store over a fixed company
// slice. The directory is small enough that linear scans are fine; the
// store exists for tests and for serving a static snapshot without a
// database.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/emsdir/searchd/internal/filters"
	"github.com/emsdir/searchd/internal/location"
	"github.com/emsdir/searchd/internal/model"
	"github.com/emsdir/searchd/internal/search"
)

type Store struct {
	mu        sync.RWMutex
	companies []model.Company // active rows only, sorted by (lower(name), id)
}

// New copies the given companies, drops inactive rows, and sorts the rest
// into pagination order.
func New(companies []model.Company) *Store {
	s := &Store{}
	s.Replace(companies)
	return s
}

// Replace swaps the whole snapshot, e.g. after a directory re-import.
func (s *Store) Replace(companies []model.Company) {
	rows := make([]model.Company, 0, len(companies))
	for _, c := range companies {
		if c.IsActive {
			rows = append(rows, c)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return lessCompany(rows[i], rows[j])
	})
	s.mu.Lock()
	s.companies = rows
	s.mu.Unlock()
}

func lessCompany(a, b model.Company) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.ID < b.ID
}

// afterCursor reports whether the company sorts strictly after the cursor
// key, matching the keyset predicate used by the SQL store.
func afterCursor(c model.Company, cur *search.Cursor) bool {
	if cur == nil {
		return true
	}
	cn, kn := strings.ToLower(c.Name), strings.ToLower(cur.Name)
	if cn != kn {
		return cn > kn
	}
	return c.ID > cur.ID
}

func (s *Store) matchIDs(match func(model.Company) bool) search.IDSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(search.IDSet)
	for _, c := range s.companies {
		if match(c) {
			out[c.ID] = struct{}{}
		}
	}
	return out
}

func (s *Store) AllCompanyIDs(_ context.Context) (search.IDSet, error) {
	return s.matchIDs(func(model.Company) bool { return true }), nil
}

func (s *Store) CompanyIDsForCountries(_ context.Context, countries []string) (search.IDSet, error) {
	want := stringSet(countries)
	return s.matchIDs(func(c model.Company) bool {
		for _, f := range c.Facilities {
			if _, ok := want[location.FacilityCountryCode(f)]; ok {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) CompanyIDsForStates(_ context.Context, states []string) (search.IDSet, error) {
	want := stringSet(states)
	return s.matchIDs(func(c model.Company) bool {
		for _, f := range c.Facilities {
			if _, ok := want[location.FacilityStateKey(f)]; ok {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) CompanyIDsForCapabilities(_ context.Context, caps []filters.CapabilitySlug) (search.IDSet, error) {
	return s.matchIDs(func(c model.Company) bool {
		for _, row := range c.Capabilities {
			for _, slug := range caps {
				if search.CapabilityFlag(row, slug) {
					return true
				}
			}
		}
		return false
	}), nil
}

func (s *Store) CompanyIDsForVolume(_ context.Context, level filters.ProductionVolume) (search.IDSet, error) {
	return s.matchIDs(func(c model.Company) bool {
		for _, row := range c.Capabilities {
			if search.VolumeFlag(row, level) {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) CompanyIDsForEmployeeRanges(_ context.Context, ranges []string) (search.IDSet, error) {
	want := stringSet(ranges)
	return s.matchIDs(func(c model.Company) bool {
		_, ok := want[c.EmployeeCountRange]
		return ok
	}), nil
}

func (s *Store) CompanyIDsForQuery(_ context.Context, query string) (search.IDSet, error) {
	q := strings.ToLower(query)
	return s.matchIDs(func(c model.Company) bool {
		return strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.DBAName), q) ||
			strings.Contains(strings.ToLower(c.Description), q)
	}), nil
}

func (s *Store) CompanyIDsForCertification(_ context.Context, certType string) (search.IDSet, error) {
	return s.matchIDs(func(c model.Company) bool {
		for _, cert := range c.Certifications {
			if strings.EqualFold(cert.CertificationType, certType) {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) CompaniesPage(_ context.Context, ids search.IDSet, cursor *search.Cursor, limit int) ([]model.Company, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	out := make([]model.Company, 0, limit)
	for _, c := range s.companies {
		if _, ok := ids[c.ID]; !ok {
			continue
		}
		total++
		if len(out) < limit && afterCursor(c, cursor) {
			out = append(out, c)
		}
	}
	return out, total, nil
}

func (s *Store) PreviousRow(_ context.Context, ids search.IDSet, before search.Cursor) (*search.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prev *search.Cursor
	for _, c := range s.companies {
		if _, ok := ids[c.ID]; !ok {
			continue
		}
		if afterCursor(c, &before) || (strings.EqualFold(c.Name, before.Name) && c.ID == before.ID) {
			break
		}
		prev = &search.Cursor{Name: c.Name, ID: c.ID}
	}
	return prev, nil
}

func (s *Store) FacilityStateKeysByCompany(_ context.Context, ids search.IDSet) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string)
	for _, c := range s.companies {
		if _, ok := ids[c.ID]; !ok {
			continue
		}
		for _, f := range c.Facilities {
			if key := location.FacilityStateKey(f); key != "" {
				out[c.ID] = append(out[c.ID], key)
			}
		}
	}
	return out, nil
}

func (s *Store) CapabilitiesByCompany(_ context.Context, ids search.IDSet) (map[string]model.Capability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.Capability)
	for _, c := range s.companies {
		if _, ok := ids[c.ID]; !ok {
			continue
		}
		if row := c.PrimaryCapability(); row != nil {
			out[c.ID] = *row
		}
	}
	return out, nil
}

func stringSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
