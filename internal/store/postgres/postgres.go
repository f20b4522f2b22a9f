// Package postgres implements search.Store against the directory schema.
//
// Facility state and country columns hold free-text admin input, so the
// location dimensions fetch the raw rows and normalize in Go; every other
// dimension filters in SQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/emsdir/searchd/internal/filters"
	"github.com/emsdir/searchd/internal/location"
	"github.com/emsdir/searchd/internal/model"
	"github.com/emsdir/searchd/internal/observability"
	"github.com/emsdir/searchd/internal/search"
)

type Store struct {
	db *sql.DB
}

// Open connects with pool settings sized for a handful of concurrent
// dimension fetches per request.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) idQuery(ctx context.Context, name, query string, args ...any) (search.IDSet, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	observability.ObserveStoreQuery(name, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer rows.Close()

	out := make(search.IDSet)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s scan: %w", name, err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (s *Store) AllCompanyIDs(ctx context.Context) (search.IDSet, error) {
	return s.idQuery(ctx, "all_company_ids",
		`SELECT id FROM companies WHERE is_active = TRUE`)
}

// facilityLoc is one facility row for Go-side location matching.
type facilityLoc struct {
	companyID string
	fac       model.Facility
}

func (s *Store) facilityLocations(ctx context.Context) ([]facilityLoc, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.company_id, f.state, f.state_code, f.state_province, f.country, f.country_code
		FROM facilities f
		JOIN companies c ON c.id = f.company_id
		WHERE c.is_active = TRUE`)
	observability.ObserveStoreQuery("facility_locations", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("facility_locations: %w", err)
	}
	defer rows.Close()

	var out []facilityLoc
	for rows.Next() {
		var loc facilityLoc
		var state, stateCode, stateProvince, country, countryCode sql.NullString
		if err := rows.Scan(&loc.companyID, &state, &stateCode, &stateProvince, &country, &countryCode); err != nil {
			return nil, fmt.Errorf("facility_locations scan: %w", err)
		}
		loc.fac.State = state.String
		loc.fac.StateCode = stateCode.String
		loc.fac.StateProvince = stateProvince.String
		loc.fac.Country = country.String
		loc.fac.CountryCode = countryCode.String
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *Store) CompanyIDsForCountries(ctx context.Context, countries []string) (search.IDSet, error) {
	locs, err := s.facilityLocations(ctx)
	if err != nil {
		return nil, err
	}
	want := stringSet(countries)
	out := make(search.IDSet)
	for _, loc := range locs {
		if _, ok := want[location.FacilityCountryCode(loc.fac)]; ok {
			out[loc.companyID] = struct{}{}
		}
	}
	return out, nil
}

func (s *Store) CompanyIDsForStates(ctx context.Context, states []string) (search.IDSet, error) {
	locs, err := s.facilityLocations(ctx)
	if err != nil {
		return nil, err
	}
	want := stringSet(states)
	out := make(search.IDSet)
	for _, loc := range locs {
		if _, ok := want[location.FacilityStateKey(loc.fac)]; ok {
			out[loc.companyID] = struct{}{}
		}
	}
	return out, nil
}

// capabilityColumns maps filter slugs to capability flag columns. Values
// are compiled-in identifiers, never user input.
var capabilityColumns = map[filters.CapabilitySlug]string{
	filters.CapSMT:          "pcb_assembly_smt",
	filters.CapThroughHole:  "pcb_assembly_through_hole",
	filters.CapMixed:        "pcb_assembly_mixed",
	filters.CapFinePitch:    "pcb_assembly_fine_pitch",
	filters.CapCableHarness: "cable_harness_assembly",
	filters.CapBoxBuild:     "box_build_assembly",
	filters.CapPrototyping:  "prototyping",
}

var volumeColumns = map[filters.ProductionVolume]string{
	filters.VolumeLow:    "low_volume_production",
	filters.VolumeMedium: "medium_volume_production",
	filters.VolumeHigh:   "high_volume_production",
}

func (s *Store) CompanyIDsForCapabilities(ctx context.Context, caps []filters.CapabilitySlug) (search.IDSet, error) {
	cols := make([]string, 0, len(caps))
	for _, slug := range caps {
		if col, ok := capabilityColumns[slug]; ok {
			cols = append(cols, col+" = TRUE")
		}
	}
	if len(cols) == 0 {
		return search.IDSet{}, nil
	}
	q := fmt.Sprintf(`
		SELECT DISTINCT cap.company_id
		FROM capabilities cap
		JOIN companies c ON c.id = cap.company_id
		WHERE c.is_active = TRUE AND (%s)`, strings.Join(cols, " OR "))
	return s.idQuery(ctx, "ids_for_capabilities", q)
}

func (s *Store) CompanyIDsForVolume(ctx context.Context, level filters.ProductionVolume) (search.IDSet, error) {
	col, ok := volumeColumns[level]
	if !ok {
		return search.IDSet{}, nil
	}
	q := fmt.Sprintf(`
		SELECT DISTINCT cap.company_id
		FROM capabilities cap
		JOIN companies c ON c.id = cap.company_id
		WHERE c.is_active = TRUE AND cap.%s = TRUE`, col)
	return s.idQuery(ctx, "ids_for_volume", q)
}

func (s *Store) CompanyIDsForEmployeeRanges(ctx context.Context, ranges []string) (search.IDSet, error) {
	return s.idQuery(ctx, "ids_for_employee_ranges", `
		SELECT id FROM companies
		WHERE is_active = TRUE AND employee_count_range = ANY($1)`,
		pq.Array(ranges))
}

func (s *Store) CompanyIDsForQuery(ctx context.Context, query string) (search.IDSet, error) {
	pattern := "%" + escapeLike(query) + "%"
	return s.idQuery(ctx, "ids_for_query", `
		SELECT id FROM companies
		WHERE is_active = TRUE
		  AND (company_name ILIKE $1 OR dba_name ILIKE $1 OR description ILIKE $1)`,
		pattern)
}

func (s *Store) CompanyIDsForCertification(ctx context.Context, certType string) (search.IDSet, error) {
	return s.idQuery(ctx, "ids_for_certification", `
		SELECT DISTINCT cert.company_id
		FROM certifications cert
		JOIN companies c ON c.id = cert.company_id
		WHERE c.is_active = TRUE AND LOWER(cert.certification_type) = LOWER($1)`,
		certType)
}

func (s *Store) CompaniesPage(ctx context.Context, ids search.IDSet, cursor *search.Cursor, limit int) ([]model.Company, int, error) {
	idList := idSlice(ids)

	var total int
	start := time.Now()
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM companies WHERE id = ANY($1)`,
		pq.Array(idList)).Scan(&total)
	observability.ObserveStoreQuery("companies_count", time.Since(start).Seconds())
	if err != nil {
		return nil, 0, fmt.Errorf("companies_count: %w", err)
	}

	q := `
		SELECT id, slug, company_name, dba_name, description, website_url,
		       employee_count_range, is_verified, created_at, updated_at
		FROM companies
		WHERE id = ANY($1)`
	args := []any{pq.Array(idList)}
	if cursor != nil {
		q += ` AND (LOWER(company_name), id) > (LOWER($2), $3)`
		args = append(args, cursor.Name, cursor.ID)
	}
	q += fmt.Sprintf(` ORDER BY LOWER(company_name), id LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	start = time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	observability.ObserveStoreQuery("companies_page", time.Since(start).Seconds())
	if err != nil {
		return nil, 0, fmt.Errorf("companies_page: %w", err)
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var c model.Company
		var dba, desc, website, employees sql.NullString
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &dba, &desc, &website,
			&employees, &c.IsVerified, &createdAt, &updatedAt); err != nil {
			return nil, 0, fmt.Errorf("companies_page scan: %w", err)
		}
		c.DBAName = dba.String
		c.Description = desc.String
		c.WebsiteURL = website.String
		c.EmployeeCountRange = employees.String
		c.CreatedAt = createdAt.Time
		c.UpdatedAt = updatedAt.Time
		c.IsActive = true
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := s.attachRelations(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) PreviousRow(ctx context.Context, ids search.IDSet, before search.Cursor) (*search.Cursor, error) {
	start := time.Now()
	row := s.db.QueryRowContext(ctx, `
		SELECT company_name, id FROM companies
		WHERE id = ANY($1) AND (LOWER(company_name), id) < (LOWER($2), $3)
		ORDER BY LOWER(company_name) DESC, id DESC
		LIMIT 1`,
		pq.Array(idSlice(ids)), before.Name, before.ID)
	var prev search.Cursor
	err := row.Scan(&prev.Name, &prev.ID)
	observability.ObserveStoreQuery("previous_row", time.Since(start).Seconds())
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("previous_row: %w", err)
	}
	return &prev, nil
}

func (s *Store) FacilityStateKeysByCompany(ctx context.Context, ids search.IDSet) (map[string][]string, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id, state, state_code, state_province
		FROM facilities
		WHERE company_id = ANY($1)`,
		pq.Array(idSlice(ids)))
	observability.ObserveStoreQuery("facet_state_keys", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("facet_state_keys: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var companyID string
		var state, stateCode, stateProvince sql.NullString
		if err := rows.Scan(&companyID, &state, &stateCode, &stateProvince); err != nil {
			return nil, fmt.Errorf("facet_state_keys scan: %w", err)
		}
		f := model.Facility{
			State:         state.String,
			StateCode:     stateCode.String,
			StateProvince: stateProvince.String,
		}
		if key := location.FacilityStateKey(f); key != "" {
			out[companyID] = append(out[companyID], key)
		}
	}
	return out, rows.Err()
}

func (s *Store) CapabilitiesByCompany(ctx context.Context, ids search.IDSet) (map[string]model.Capability, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (company_id)
		       id, company_id, pcb_assembly_smt, pcb_assembly_through_hole,
		       pcb_assembly_mixed, pcb_assembly_fine_pitch, cable_harness_assembly,
		       box_build_assembly, prototyping, low_volume_production,
		       medium_volume_production, high_volume_production,
		       testing_services, design_services, turnkey_services
		FROM capabilities
		WHERE company_id = ANY($1)
		ORDER BY company_id, id`,
		pq.Array(idSlice(ids)))
	observability.ObserveStoreQuery("facet_capabilities", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("facet_capabilities: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.Capability)
	for rows.Next() {
		var c model.Capability
		if err := rows.Scan(&c.ID, &c.CompanyID,
			&c.PCBAssemblySMT, &c.PCBAssemblyThroughHole, &c.PCBAssemblyMixed,
			&c.PCBAssemblyFinePitch, &c.CableHarnessAssembly, &c.BoxBuildAssembly,
			&c.Prototyping, &c.LowVolumeProduction, &c.MediumVolumeProduction,
			&c.HighVolumeProduction, &c.Testing, &c.DesignServices,
			&c.TurnkeyServices); err != nil {
			return nil, fmt.Errorf("facet_capabilities scan: %w", err)
		}
		out[c.CompanyID] = c
	}
	return out, rows.Err()
}

// attachRelations loads facilities, capabilities, certifications and
// industries for the page's companies in one query each.
func (s *Store) attachRelations(ctx context.Context, companies []model.Company) error {
	if len(companies) == 0 {
		return nil
	}
	idx := make(map[string]*model.Company, len(companies))
	ids := make([]string, 0, len(companies))
	for i := range companies {
		idx[companies[i].ID] = &companies[i]
		ids = append(ids, companies[i].ID)
	}

	if err := s.attachFacilities(ctx, idx, ids); err != nil {
		return err
	}
	if err := s.attachCapabilities(ctx, idx, ids); err != nil {
		return err
	}
	if err := s.attachCertifications(ctx, idx, ids); err != nil {
		return err
	}
	return s.attachIndustries(ctx, idx, ids)
}

func (s *Store) attachFacilities(ctx context.Context, idx map[string]*model.Company, ids []string) error {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, facility_type, street_address, city,
		       state, state_code, state_province, zip_code,
		       country, country_code, latitude, longitude, is_primary
		FROM facilities
		WHERE company_id = ANY($1)
		ORDER BY company_id, is_primary DESC, id`,
		pq.Array(ids))
	observability.ObserveStoreQuery("page_facilities", time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("page_facilities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f model.Facility
		var ftype, street, city, state, stateCode, stateProvince, zip, country, countryCode sql.NullString
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&f.ID, &f.CompanyID, &ftype, &street, &city,
			&state, &stateCode, &stateProvince, &zip,
			&country, &countryCode, &lat, &lng, &f.IsPrimary); err != nil {
			return fmt.Errorf("page_facilities scan: %w", err)
		}
		f.FacilityType = ftype.String
		f.StreetAddress = street.String
		f.City = city.String
		f.State = state.String
		f.StateCode = stateCode.String
		f.StateProvince = stateProvince.String
		f.ZipCode = zip.String
		f.Country = country.String
		f.CountryCode = countryCode.String
		if lat.Valid {
			v := lat.Float64
			f.Latitude = &v
		}
		if lng.Valid {
			v := lng.Float64
			f.Longitude = &v
		}
		if c, ok := idx[f.CompanyID]; ok {
			c.Facilities = append(c.Facilities, f)
		}
	}
	return rows.Err()
}

func (s *Store) attachCapabilities(ctx context.Context, idx map[string]*model.Company, ids []string) error {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, pcb_assembly_smt, pcb_assembly_through_hole,
		       pcb_assembly_mixed, pcb_assembly_fine_pitch, cable_harness_assembly,
		       box_build_assembly, prototyping, low_volume_production,
		       medium_volume_production, high_volume_production,
		       testing_services, design_services, turnkey_services
		FROM capabilities
		WHERE company_id = ANY($1)
		ORDER BY company_id, id`,
		pq.Array(ids))
	observability.ObserveStoreQuery("page_capabilities", time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("page_capabilities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Capability
		if err := rows.Scan(&c.ID, &c.CompanyID,
			&c.PCBAssemblySMT, &c.PCBAssemblyThroughHole, &c.PCBAssemblyMixed,
			&c.PCBAssemblyFinePitch, &c.CableHarnessAssembly, &c.BoxBuildAssembly,
			&c.Prototyping, &c.LowVolumeProduction, &c.MediumVolumeProduction,
			&c.HighVolumeProduction, &c.Testing, &c.DesignServices,
			&c.TurnkeyServices); err != nil {
			return fmt.Errorf("page_capabilities scan: %w", err)
		}
		if co, ok := idx[c.CompanyID]; ok {
			co.Capabilities = append(co.Capabilities, c)
		}
	}
	return rows.Err()
}

func (s *Store) attachCertifications(ctx context.Context, idx map[string]*model.Company, ids []string) error {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, certification_type
		FROM certifications
		WHERE company_id = ANY($1)
		ORDER BY company_id, id`,
		pq.Array(ids))
	observability.ObserveStoreQuery("page_certifications", time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("page_certifications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Certification
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.CertificationType); err != nil {
			return fmt.Errorf("page_certifications scan: %w", err)
		}
		if co, ok := idx[c.CompanyID]; ok {
			co.Certifications = append(co.Certifications, c)
		}
	}
	return rows.Err()
}

func (s *Store) attachIndustries(ctx context.Context, idx map[string]*model.Company, ids []string) error {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, industry_name
		FROM industries
		WHERE company_id = ANY($1)
		ORDER BY company_id, id`,
		pq.Array(ids))
	observability.ObserveStoreQuery("page_industries", time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("page_industries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ind model.Industry
		if err := rows.Scan(&ind.ID, &ind.CompanyID, &ind.IndustryName); err != nil {
			return fmt.Errorf("page_industries scan: %w", err)
		}
		if co, ok := idx[ind.CompanyID]; ok {
			co.Industries = append(co.Industries, ind)
		}
	}
	return rows.Err()
}

func idSlice(ids search.IDSet) []string {
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

func stringSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
