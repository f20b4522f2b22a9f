// Package geo buckets facility pins into H3 cells for the directory map.
// The map view sends its zoom level; pins sharing a cell at the matching
// resolution collapse into one cluster marker.
package geo

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/emsdir/searchd/internal/location"
	"github.com/emsdir/searchd/internal/model"
)

// Pin is one mappable facility.
type Pin struct {
	CompanyID string  `json:"companyId"`
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	Label     string  `json:"label,omitempty"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// Cluster is two or more pins sharing an H3 cell. Lat/Lng is the member
// centroid, not the cell center, so sparse clusters sit on their pins.
type Cluster struct {
	Cell  string  `json:"cell"`
	Count int     `json:"count"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// PinsForCompanies extracts one pin per geocoded facility.
func PinsForCompanies(companies []model.Company) []Pin {
	var out []Pin
	for _, c := range companies {
		for i := range c.Facilities {
			f := &c.Facilities[i]
			if f.Latitude == nil || f.Longitude == nil {
				continue
			}
			out = append(out, Pin{
				CompanyID: c.ID,
				Slug:      c.Slug,
				Name:      c.Name,
				Label:     location.FacilityLocationLabel(f),
				Lat:       *f.Latitude,
				Lng:       *f.Longitude,
			})
		}
	}
	return out
}

// BBox is a map viewport in lng/lat order, matching the
// "minLng,minLat,maxLng,maxLat" query form.
type BBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

func (b BBox) contains(p Pin) bool {
	return p.Lng >= b.MinLng && p.Lng <= b.MaxLng &&
		p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// FilterBBox keeps only pins inside the viewport.
func FilterBBox(pins []Pin, b BBox) []Pin {
	var out []Pin
	for _, p := range pins {
		if b.contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// ZoomToRes maps a web-map zoom level onto an H3 resolution clamped to
// [minRes, maxRes]. Roughly every two zoom steps halve the cell edge.
func ZoomToRes(zoom, minRes, maxRes int) int {
	res := zoom/2 + 1
	if res < minRes {
		res = minRes
	}
	if res > maxRes {
		res = maxRes
	}
	return res
}

// Cluster groups pins at the given resolution. Cells holding a single pin
// stay individual pins; the rest become clusters. Both slices come back in
// stable order.
func ClusterPins(pins []Pin, res int) ([]Cluster, []Pin, error) {
	buckets := make(map[string][]Pin)
	for _, p := range pins {
		cell, err := h3.LatLngToCell(h3.LatLng{Lat: p.Lat, Lng: p.Lng}, res)
		if err != nil {
			return nil, nil, fmt.Errorf("h3 cell for pin %s: %w", p.CompanyID, err)
		}
		key := cell.String()
		buckets[key] = append(buckets[key], p)
	}

	var clusters []Cluster
	var leaves []Pin
	for cell, members := range buckets {
		if len(members) < 2 {
			leaves = append(leaves, members...)
			continue
		}
		var lat, lng float64
		for _, m := range members {
			lat += m.Lat
			lng += m.Lng
		}
		n := float64(len(members))
		clusters = append(clusters, Cluster{
			Cell:  cell,
			Count: len(members),
			Lat:   lat / n,
			Lng:   lng / n,
		})
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Cell < clusters[j].Cell })
	sort.Slice(leaves, func(i, j int) bool {
		if leaves[i].CompanyID != leaves[j].CompanyID {
			return leaves[i].CompanyID < leaves[j].CompanyID
		}
		return leaves[i].Lat < leaves[j].Lat
	})
	return clusters, leaves, nil
}
