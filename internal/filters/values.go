// Package filters holds the URL-serializable filter model. Parsing is
// lenient by design: a stale or hand-edited URL degrades to "no filter"
// instead of erroring the page.
package filters

import "strings"

type CapabilitySlug string

const (
	CapSMT          CapabilitySlug = "smt"
	CapThroughHole  CapabilitySlug = "through_hole"
	CapCableHarness CapabilitySlug = "cable_harness"
	CapBoxBuild     CapabilitySlug = "box_build"
	CapPrototyping  CapabilitySlug = "prototyping"
	CapMixed        CapabilitySlug = "mixed"
	CapFinePitch    CapabilitySlug = "fine_pitch"
)

// CapabilitySlugs is the declared order used for facet output.
var CapabilitySlugs = []CapabilitySlug{
	CapSMT,
	CapThroughHole,
	CapCableHarness,
	CapBoxBuild,
	CapPrototyping,
	CapMixed,
	CapFinePitch,
}

var capabilitySet = func() map[CapabilitySlug]struct{} {
	m := make(map[CapabilitySlug]struct{}, len(CapabilitySlugs))
	for _, s := range CapabilitySlugs {
		m[s] = struct{}{}
	}
	return m
}()

// ParseCapability returns the canonical slug or "" for unknown tokens.
func ParseCapability(v string) CapabilitySlug {
	s := CapabilitySlug(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := capabilitySet[s]; ok {
		return s
	}
	return ""
}

type ProductionVolume string

const (
	VolumeLow    ProductionVolume = "low"
	VolumeMedium ProductionVolume = "medium"
	VolumeHigh   ProductionVolume = "high"
)

var ProductionVolumes = []ProductionVolume{VolumeLow, VolumeMedium, VolumeHigh}

func ParseVolume(v string) ProductionVolume {
	switch ProductionVolume(strings.ToLower(strings.TrimSpace(v))) {
	case VolumeLow:
		return VolumeLow
	case VolumeMedium:
		return VolumeMedium
	case VolumeHigh:
		return VolumeHigh
	}
	return ""
}

// EmployeeRanges are the bucket labels stored on companies verbatim.
var EmployeeRanges = []string{"<50", "50-150", "150-500", "500-1000", "1000+"}

var employeeRangeSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(EmployeeRanges))
	for _, r := range EmployeeRanges {
		m[r] = struct{}{}
	}
	return m
}()

func ParseEmployeeRange(v string) string {
	s := strings.TrimSpace(v)
	if _, ok := employeeRangeSet[s]; ok {
		return s
	}
	return ""
}
