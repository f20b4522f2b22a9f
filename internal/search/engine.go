// Package search executes filtered company queries with cursor pagination
// and facet counting on top of a read-only Store.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emsdir/searchd/internal/filters"
	"github.com/emsdir/searchd/internal/model"
	"github.com/emsdir/searchd/internal/observability"
)

const DefaultPageSize = 9

// certification landing pages pass a route-default slug
var certificationSlugs = map[string]string{
	"iso-9001":   "ISO 9001",
	"iso-13485":  "ISO 13485",
	"as9100":     "AS9100",
	"iatf-16949": "IATF 16949",
	"itar":       "ITAR",
}

// ResolveCertificationSlug maps a landing-page slug to the stored
// certification type, "" for unknown slugs.
func ResolveCertificationSlug(slug string) string {
	return certificationSlugs[strings.ToLower(strings.TrimSpace(slug))]
}

type Request struct {
	Filters       filters.Set
	CertSlug      string // route default from certification landing pages
	Cursor        *Cursor
	PageSize      int
	IncludeFacets bool
}

type Result struct {
	Companies     []model.Company    `json:"companies"`
	FilteredCount int                `json:"filteredCount"`
	PageInfo      model.PageInfo     `json:"pageInfo"`
	FacetCounts   *model.FacetCounts `json:"facetCounts,omitempty"`
	// Filters echoes the canonical selection so the render layer can emit
	// canonical URLs without re-parsing.
	Filters filters.Set `json:"filters"`
}

type Engine struct {
	store  Store
	logger *slog.Logger
}

func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// dimensionSets holds the per-dimension company-id sets for one request.
// nil means the dimension is not active.
type dimensionSets struct {
	countries IDSet
	states    IDSet
	caps      IDSet
	volume    IDSet
	employees IDSet
	query     IDSet
	cert      IDSet
}

type skipDims struct {
	states bool
	caps   bool
	volume bool
}

// combined intersects every active dimension except the skipped ones.
// nil result means "no filter active": the whole universe.
func (d dimensionSets) combined(skip skipDims) IDSet {
	var out IDSet
	if !skip.states {
		out = Intersect(out, d.states)
	}
	if !skip.caps {
		out = Intersect(out, d.caps)
	}
	if !skip.volume {
		out = Intersect(out, d.volume)
	}
	out = Intersect(out, d.countries)
	out = Intersect(out, d.employees)
	out = Intersect(out, d.query)
	out = Intersect(out, d.cert)
	return out
}

// Search runs the filtered query. Store failures are logged and converted
// into an empty-but-valid result so the page always renders.
func (e *Engine) Search(ctx context.Context, req Request) Result {
	start := time.Now()
	f := req.Filters.Canonical()
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	res, err := e.search(ctx, f, req, pageSize)
	observability.ObserveSearch(err, time.Since(start).Seconds())
	if err != nil {
		e.logger.Error("company search failed, serving empty result",
			"err", err, "filters", f.Encode())
		return Result{
			Companies:     []model.Company{},
			FilteredCount: 0,
			PageInfo:      model.PageInfo{PageSize: pageSize},
			Filters:       f,
		}
	}
	return res
}

func (e *Engine) search(ctx context.Context, f filters.Set, req Request, pageSize int) (Result, error) {
	sets, err := e.gatherDimensionSets(ctx, f, req.CertSlug)
	if err != nil {
		return Result{}, err
	}

	matched, err := e.resolve(ctx, sets.combined(skipDims{}))
	if err != nil {
		return Result{}, err
	}

	rows, total, err := e.store.CompaniesPage(ctx, matched, req.Cursor, pageSize+1)
	if err != nil {
		return Result{}, err
	}

	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}

	pageInfo := model.PageInfo{
		HasNextPage: hasNext,
		PageSize:    pageSize,
	}
	if len(rows) > 0 {
		first, last := rows[0], rows[len(rows)-1]
		pageInfo.StartCursor = EncodeCursor(&Cursor{Name: first.Name, ID: first.ID})
		pageInfo.EndCursor = EncodeCursor(&Cursor{Name: last.Name, ID: last.ID})
		if hasNext {
			pageInfo.NextCursor = pageInfo.EndCursor
		}
	}

	// Probe for a previous row only when a cursor was supplied; the first
	// page trivially has no predecessor.
	if req.Cursor != nil && len(rows) > 0 {
		prev, err := e.store.PreviousRow(ctx, matched, Cursor{Name: rows[0].Name, ID: rows[0].ID})
		if err != nil {
			e.logger.Warn("previous-row probe failed", "err", err)
		} else if prev != nil {
			pageInfo.PrevCursor = EncodeCursor(prev)
			pageInfo.HasPreviousPage = true
		}
	}

	res := Result{
		Companies:     rows,
		FilteredCount: total,
		PageInfo:      pageInfo,
		Filters:       f,
	}
	if req.IncludeFacets {
		res.FacetCounts = e.facetCounts(ctx, f, sets)
	}
	return res, nil
}

// resolve expands the nil "no filter" sentinel into the full universe.
func (e *Engine) resolve(ctx context.Context, set IDSet) (IDSet, error) {
	if set != nil {
		return set, nil
	}
	return e.store.AllCompanyIDs(ctx)
}

// gatherDimensionSets fetches the per-dimension id sets concurrently. The
// fetches are read-only and commute, so they share an errgroup.
func (e *Engine) gatherDimensionSets(ctx context.Context, f filters.Set, certSlug string) (dimensionSets, error) {
	var sets dimensionSets
	g, gctx := errgroup.WithContext(ctx)

	if len(f.Countries) > 0 {
		g.Go(func() error {
			var err error
			sets.countries, err = e.store.CompanyIDsForCountries(gctx, f.Countries)
			return err
		})
	}
	if len(f.States) > 0 {
		g.Go(func() error {
			var err error
			sets.states, err = e.store.CompanyIDsForStates(gctx, f.States)
			return err
		})
	}
	if len(f.Capabilities) > 0 {
		g.Go(func() error {
			var err error
			sets.caps, err = e.store.CompanyIDsForCapabilities(gctx, f.Capabilities)
			return err
		})
	}
	if f.ProductionVolume != "" {
		g.Go(func() error {
			var err error
			sets.volume, err = e.store.CompanyIDsForVolume(gctx, f.ProductionVolume)
			return err
		})
	}
	if len(f.EmployeeRanges) > 0 {
		g.Go(func() error {
			var err error
			sets.employees, err = e.store.CompanyIDsForEmployeeRanges(gctx, f.EmployeeRanges)
			return err
		})
	}
	if f.Query != "" {
		g.Go(func() error {
			var err error
			sets.query, err = e.store.CompanyIDsForQuery(gctx, f.Query)
			return err
		})
	}
	if cert := ResolveCertificationSlug(certSlug); cert != "" {
		g.Go(func() error {
			var err error
			sets.cert, err = e.store.CompanyIDsForCertification(gctx, cert)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return dimensionSets{}, err
	}
	return sets, nil
}
