// Package router parses search requests and serves them through the
// engine and the response cache.
package router

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emsdir/searchd/internal/cache"
	"github.com/emsdir/searchd/internal/config"
	"github.com/emsdir/searchd/internal/filters"
	"github.com/emsdir/searchd/internal/geo"
	"github.com/emsdir/searchd/internal/observability"
	"github.com/emsdir/searchd/internal/search"
)

// SearchParams is the validated request state. Parsing is lenient by
// contract: junk parameters drop out, they never produce an error page.
type SearchParams struct {
	Filters     filters.Set
	Cursor      *search.Cursor
	CursorToken string
	PageSize    int
	CertSlug    string
}

// ParseSearchParams reads filters, cursor and page size from the query
// string. A malformed cursor falls back to the first page.
func ParseSearchParams(r *http.Request, defaultPageSize, maxPageSize int) SearchParams {
	q := r.URL.Query()

	p := SearchParams{
		Filters:  filters.Parse(q),
		PageSize: defaultPageSize,
	}
	if raw := strings.TrimSpace(q.Get("pageSize")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.PageSize = n
		}
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	token := strings.TrimSpace(q.Get("cursor"))
	if token == "" {
		// historical URL shape carried the token under page
		token = strings.TrimSpace(q.Get("page"))
	}
	if token != "" {
		p.CursorToken = token
		p.Cursor = search.DecodeCursor(token)
	}
	// cert is a filter param here; unknown slugs drop out like any other
	// junk value instead of erroring
	if slug := strings.TrimSpace(q.Get("cert")); slug != "" && search.ResolveCertificationSlug(slug) != "" {
		p.CertSlug = strings.ToLower(slug)
	}
	return p
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// HandleSearch serves the directory listing. With certRoute set, the
// {slug} path segment applies as a route-default certification filter and
// unknown slugs 404.
func HandleSearch(logger *slog.Logger, cfg config.Config, eng *search.Engine, rc *cache.ResponseCache, certRoute bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		p := ParseSearchParams(r, cfg.PageSize, cfg.MaxPageSize)
		certSlug := p.CertSlug
		routeLabel := "/search"
		if certRoute {
			certSlug = chi.URLParam(r, "slug")
			routeLabel = "/certifications/{slug}"
			if search.ResolveCertificationSlug(certSlug) == "" {
				http.NotFound(sw, r)
				observability.ObserveHTTP(r.Method, routeLabel, sw.code, time.Since(start).Seconds())
				return
			}
		}

		canonical := p.Filters.Canonical().Encode()
		key := cache.Key(routeLabel+certSlug, canonical, p.CursorToken, p.PageSize)
		if body := rc.Lookup(r.Context(), key); body != nil {
			sw.Header().Set("Content-Type", "application/json")
			sw.Header().Set("X-Cache", "hit")
			_, _ = sw.Write(body)
			observability.ObserveHTTP(r.Method, routeLabel, sw.code, time.Since(start).Seconds())
			return
		}

		res := eng.Search(r.Context(), search.Request{
			Filters:       p.Filters,
			CertSlug:      certSlug,
			Cursor:        p.Cursor,
			PageSize:      p.PageSize,
			IncludeFacets: true,
		})

		body, err := json.Marshal(res)
		if err != nil {
			logger.Error("search response encode failed", "err", err)
			http.Error(sw, "internal server error", http.StatusInternalServerError)
			observability.ObserveHTTP(r.Method, routeLabel, sw.code, time.Since(start).Seconds())
			return
		}
		rc.Store(r.Context(), key, body)

		sw.Header().Set("Content-Type", "application/json")
		sw.Header().Set("X-Cache", "miss")
		_, _ = sw.Write(body)
		observability.ObserveHTTP(r.Method, routeLabel, sw.code, time.Since(start).Seconds())
	}
}

// parseBBox reads "minLng,minLat,maxLng,maxLat". Malformed viewports drop
// out like any other junk parameter.
func parseBBox(raw string) (geo.BBox, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != 4 {
		return geo.BBox{}, false
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.BBox{}, false
		}
		vals[i] = f
	}
	b := geo.BBox{MinLng: vals[0], MinLat: vals[1], MaxLng: vals[2], MaxLat: vals[3]}
	if b.MinLng > b.MaxLng || b.MinLat > b.MaxLat {
		return geo.BBox{}, false
	}
	return b, true
}

type mapResponse struct {
	Clusters []geo.Cluster `json:"clusters"`
	Pins     []geo.Pin     `json:"pins"`
	Res      int           `json:"res"`
}

// HandleMap serves clustered facility pins for the current filter state.
func HandleMap(logger *slog.Logger, cfg config.Config, eng *search.Engine) http.HandlerFunc {
	// covers the whole directory; map views are not paginated
	const mapPageSize = 1000

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		p := ParseSearchParams(r, mapPageSize, mapPageSize)
		zoom := 4
		if raw := strings.TrimSpace(r.URL.Query().Get("zoom")); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
				zoom = n
			}
		}
		res := geo.ZoomToRes(zoom, cfg.MapResMin, cfg.MapResMax)

		result := eng.Search(r.Context(), search.Request{
			Filters:  p.Filters,
			PageSize: mapPageSize,
		})

		pins := geo.PinsForCompanies(result.Companies)
		if bbox, ok := parseBBox(r.URL.Query().Get("bbox")); ok {
			pins = geo.FilterBBox(pins, bbox)
		}
		clusters, leaves, err := geo.ClusterPins(pins, res)
		if err != nil {
			logger.Error("map clustering failed", "err", err)
			http.Error(sw, "internal server error", http.StatusInternalServerError)
			observability.ObserveHTTP(r.Method, "/map", sw.code, time.Since(start).Seconds())
			return
		}
		if clusters == nil {
			clusters = []geo.Cluster{}
		}
		if leaves == nil {
			leaves = []geo.Pin{}
		}

		sw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(sw).Encode(mapResponse{Clusters: clusters, Pins: leaves, Res: res})
		observability.ObserveHTTP(r.Method, "/map", sw.code, time.Since(start).Seconds())
	}
}
