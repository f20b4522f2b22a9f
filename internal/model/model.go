// Package model defines core domain types shared across the service.
package model

import "time"

// Company is a read-only projection of a directory listing. Rows are
// created and edited by the admin CMS; the search core never mutates them.
type Company struct {
	ID                 string          `json:"id"`
	Slug               string          `json:"slug"`
	Name               string          `json:"company_name"`
	DBAName            string          `json:"dba_name,omitempty"`
	Description        string          `json:"description,omitempty"`
	WebsiteURL         string          `json:"website_url,omitempty"`
	EmployeeCountRange string          `json:"employee_count_range,omitempty"`
	IsActive           bool            `json:"is_active"`
	IsVerified         bool            `json:"is_verified"`
	CreatedAt          time.Time       `json:"created_at,omitzero"`
	UpdatedAt          time.Time       `json:"updated_at,omitzero"`
	Facilities         []Facility      `json:"facilities"`
	Capabilities       []Capability    `json:"capabilities"`
	Certifications     []Certification `json:"certifications"`
	Industries         []Industry      `json:"industries"`
}

// PrimaryCapability returns the first capability row. The schema allows
// several rows per company but the directory treats the first as canonical.
func (c Company) PrimaryCapability() *Capability {
	if len(c.Capabilities) == 0 {
		return nil
	}
	return &c.Capabilities[0]
}

// PrimaryFacility prefers the row flagged is_primary, else the first.
func (c Company) PrimaryFacility() *Facility {
	for i := range c.Facilities {
		if c.Facilities[i].IsPrimary {
			return &c.Facilities[i]
		}
	}
	if len(c.Facilities) == 0 {
		return nil
	}
	return &c.Facilities[0]
}

// Facility location fields arrive through free-text admin entry, so state
// and country may hold codes, full names, or noise. Normalization lives in
// internal/location.
type Facility struct {
	ID            string   `json:"id"`
	CompanyID     string   `json:"company_id"`
	FacilityType  string   `json:"facility_type,omitempty"`
	StreetAddress string   `json:"street_address,omitempty"`
	City          string   `json:"city,omitempty"`
	State         string   `json:"state,omitempty"`
	StateCode     string   `json:"state_code,omitempty"`
	StateProvince string   `json:"state_province,omitempty"`
	ZipCode       string   `json:"zip_code,omitempty"`
	Country       string   `json:"country,omitempty"`
	CountryCode   string   `json:"country_code,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	IsPrimary     bool     `json:"is_primary"`
}

// Capability is a flat set of boolean feature flags per company.
type Capability struct {
	ID                     string `json:"id"`
	CompanyID              string `json:"company_id"`
	PCBAssemblySMT         bool   `json:"pcb_assembly_smt"`
	PCBAssemblyThroughHole bool   `json:"pcb_assembly_through_hole"`
	PCBAssemblyMixed       bool   `json:"pcb_assembly_mixed"`
	PCBAssemblyFinePitch   bool   `json:"pcb_assembly_fine_pitch"`
	CableHarnessAssembly   bool   `json:"cable_harness_assembly"`
	BoxBuildAssembly       bool   `json:"box_build_assembly"`
	Prototyping            bool   `json:"prototyping"`
	LowVolumeProduction    bool   `json:"low_volume_production"`
	MediumVolumeProduction bool   `json:"medium_volume_production"`
	HighVolumeProduction   bool   `json:"high_volume_production"`
	Testing                bool   `json:"testing_services"`
	DesignServices         bool   `json:"design_services"`
	TurnkeyServices        bool   `json:"turnkey_services"`
}

type Certification struct {
	ID                string `json:"id"`
	CompanyID         string `json:"company_id"`
	CertificationType string `json:"certification_type"`
}

type Industry struct {
	ID           string `json:"id"`
	CompanyID    string `json:"company_id"`
	IndustryName string `json:"industry_name"`
}

// PageInfo describes the cursor window around a result page.
type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	NextCursor      string `json:"nextCursor,omitempty"`
	PrevCursor      string `json:"prevCursor,omitempty"`
	StartCursor     string `json:"startCursor,omitempty"`
	EndCursor       string `json:"endCursor,omitempty"`
	PageSize        int    `json:"pageSize"`
}

// FacetCount pairs one facet value with the number of companies that would
// remain if that value were also selected.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FacetCounts is recomputed per request, never persisted.
type FacetCounts struct {
	States           []FacetCount `json:"states"`
	Capabilities     []FacetCount `json:"capabilities"`
	ProductionVolume []FacetCount `json:"productionVolume"`
}
