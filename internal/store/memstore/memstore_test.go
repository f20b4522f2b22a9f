package memstore

import (
	"context"
	"testing"

	"github.com/emsdir/searchd/internal/filters"
	"github.com/emsdir/searchd/internal/model"
	"github.com/emsdir/searchd/internal/search"
)

func fixture() []model.Company {
	return []model.Company{
		{
			ID: "c-1", Name: "Alpha Assembly", IsActive: true,
			EmployeeCountRange: "<50",
			Facilities:         []model.Facility{{StateCode: "TX"}},
			Capabilities:       []model.Capability{{PCBAssemblySMT: true, LowVolumeProduction: true}},
		},
		{
			ID: "c-2", Name: "beta boards", IsActive: true,
			EmployeeCountRange: "150-500",
			Facilities:         []model.Facility{{State: "Ontario"}},
			Capabilities:       []model.Capability{{BoxBuildAssembly: true, HighVolumeProduction: true}},
		},
		{
			ID: "c-3", Name: "Gamma Gear", IsActive: false,
			Facilities:   []model.Facility{{StateCode: "TX"}},
			Capabilities: []model.Capability{{PCBAssemblySMT: true}},
		},
	}
}

func TestNew_DropsInactive(t *testing.T) {
	s := New(fixture())
	ids, err := s.AllCompanyIDs(context.Background())
	if err != nil {
		t.Fatalf("AllCompanyIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("len(ids)=%d want 2", len(ids))
	}
	if _, ok := ids["c-3"]; ok {
		t.Fatal("inactive company leaked")
	}
}

func TestCompanyIDsForStates_Normalized(t *testing.T) {
	s := New(fixture())
	ids, err := s.CompanyIDsForStates(context.Background(), []string{"ON"})
	if err != nil {
		t.Fatalf("CompanyIDsForStates: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("ids=%v want only c-2", ids)
	}
	if _, ok := ids["c-2"]; !ok {
		t.Fatalf("ids=%v want c-2", ids)
	}
}

func TestCompanyIDsForCountries_Inferred(t *testing.T) {
	s := New(fixture())
	ids, err := s.CompanyIDsForCountries(context.Background(), []string{"CA"})
	if err != nil {
		t.Fatalf("CompanyIDsForCountries: %v", err)
	}
	// Ontario infers country CA even with no country column set
	if _, ok := ids["c-2"]; !ok || len(ids) != 1 {
		t.Fatalf("ids=%v want c-2", ids)
	}
}

func TestCompanyIDsForEmployeeRanges(t *testing.T) {
	s := New(fixture())
	ids, err := s.CompanyIDsForEmployeeRanges(context.Background(), []string{"<50", "1000+"})
	if err != nil {
		t.Fatalf("CompanyIDsForEmployeeRanges: %v", err)
	}
	if _, ok := ids["c-1"]; !ok || len(ids) != 1 {
		t.Fatalf("ids=%v want c-1", ids)
	}
}

func TestCompaniesPage_CaseInsensitiveOrder(t *testing.T) {
	s := New(fixture())
	ids, _ := s.AllCompanyIDs(context.Background())
	rows, total, err := s.CompaniesPage(context.Background(), ids, nil, 10)
	if err != nil {
		t.Fatalf("CompaniesPage: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("total=%d len=%d want 2/2", total, len(rows))
	}
	// lower("beta boards") sorts after lower("Alpha Assembly")
	if rows[0].ID != "c-1" || rows[1].ID != "c-2" {
		t.Fatalf("order=%s,%s want c-1,c-2", rows[0].ID, rows[1].ID)
	}
}

func TestPreviousRow(t *testing.T) {
	s := New(fixture())
	ids, _ := s.AllCompanyIDs(context.Background())

	prev, err := s.PreviousRow(context.Background(), ids, search.Cursor{Name: "beta boards", ID: "c-2"})
	if err != nil {
		t.Fatalf("PreviousRow: %v", err)
	}
	if prev == nil || prev.ID != "c-1" {
		t.Fatalf("prev=%+v want c-1", prev)
	}

	prev, err = s.PreviousRow(context.Background(), ids, search.Cursor{Name: "Alpha Assembly", ID: "c-1"})
	if err != nil {
		t.Fatalf("PreviousRow: %v", err)
	}
	if prev != nil {
		t.Fatalf("prev=%+v want nil for first row", prev)
	}
}

func TestCompanyIDsForCapabilities(t *testing.T) {
	s := New(fixture())
	ids, err := s.CompanyIDsForCapabilities(context.Background(),
		[]filters.CapabilitySlug{filters.CapBoxBuild})
	if err != nil {
		t.Fatalf("CompanyIDsForCapabilities: %v", err)
	}
	if _, ok := ids["c-2"]; !ok || len(ids) != 1 {
		t.Fatalf("ids=%v want c-2", ids)
	}
}
