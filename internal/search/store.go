package search

import (
	"context"

	"github.com/emsdir/searchd/internal/filters"
	"github.com/emsdir/searchd/internal/model"
)

// IDSet is a set of company ids.
type IDSet map[string]struct{}

// Intersect returns base ∩ next. A nil set means "dimension not active" and
// intersects as the identity.
func Intersect(base, next IDSet) IDSet {
	if next == nil {
		return base
	}
	if base == nil {
		out := make(IDSet, len(next))
		for id := range next {
			out[id] = struct{}{}
		}
		return out
	}
	out := make(IDSet)
	for id := range base {
		if _, ok := next[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Store is the read contract the engine depends on. Implementations return
// only companies with is_active = true; the engine never sees inactive rows.
// All fetches are read-only and may run concurrently.
type Store interface {
	// Per-dimension matches. Each returns the set of company ids with at
	// least one matching associated row.
	CompanyIDsForCountries(ctx context.Context, countries []string) (IDSet, error)
	CompanyIDsForStates(ctx context.Context, states []string) (IDSet, error)
	CompanyIDsForCapabilities(ctx context.Context, caps []filters.CapabilitySlug) (IDSet, error)
	CompanyIDsForVolume(ctx context.Context, level filters.ProductionVolume) (IDSet, error)
	CompanyIDsForEmployeeRanges(ctx context.Context, ranges []string) (IDSet, error)
	CompanyIDsForQuery(ctx context.Context, query string) (IDSet, error)
	CompanyIDsForCertification(ctx context.Context, certType string) (IDSet, error)

	// AllCompanyIDs is the unfiltered active-company universe.
	AllCompanyIDs(ctx context.Context) (IDSet, error)

	// CompaniesPage returns up to limit companies from ids, ordered by
	// lower(company_name) then id, strictly after the cursor key, plus the
	// total count of ids ignoring pagination.
	CompaniesPage(ctx context.Context, ids IDSet, cursor *Cursor, limit int) ([]model.Company, int, error)

	// PreviousRow returns the sort key of the row immediately before the
	// given key within ids, or nil when the page is the first.
	PreviousRow(ctx context.Context, ids IDSet, before Cursor) (*Cursor, error)

	// Facet row fetches, restricted to ids.
	FacilityStateKeysByCompany(ctx context.Context, ids IDSet) (map[string][]string, error)
	CapabilitiesByCompany(ctx context.Context, ids IDSet) (map[string]model.Capability, error)
}
