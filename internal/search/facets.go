package search

import (
	"context"
	"sort"

	"github.com/emsdir/searchd/internal/filters"
	"github.com/emsdir/searchd/internal/model"
	"github.com/emsdir/searchd/internal/observability"
)

// facetCounts computes per-value counts for each facet dimension. Each
// dimension's counts are taken over the company set filtered by every OTHER
// active dimension but not itself; counting over the fully filtered set
// would collapse the dimension's remaining options to zero, counting over
// the unfiltered set would ignore the other filters entirely.
//
// A failed dimension degrades to zero counts for that dimension only.
func (e *Engine) facetCounts(ctx context.Context, f filters.Set, sets dimensionSets) *model.FacetCounts {
	out := &model.FacetCounts{
		States:           []model.FacetCount{},
		Capabilities:     zeroCapabilityCounts(),
		ProductionVolume: zeroVolumeCounts(),
	}

	if states, err := e.stateFacetCounts(ctx, f, sets); err != nil {
		e.logger.Warn("state facet counts failed", "err", err)
		observability.IncFacetFailure("states")
		out.States = selectedStatesZeroed(f.States)
	} else {
		out.States = states
	}

	if caps, err := e.capabilityFacetCounts(ctx, sets); err != nil {
		e.logger.Warn("capability facet counts failed", "err", err)
		observability.IncFacetFailure("capabilities")
	} else {
		out.Capabilities = caps
	}

	if volumes, err := e.volumeFacetCounts(ctx, sets); err != nil {
		e.logger.Warn("volume facet counts failed", "err", err)
		observability.IncFacetFailure("volume")
	} else {
		out.ProductionVolume = volumes
	}

	return out
}

// stateFacetCounts counts distinct companies per normalized state key over
// the base set that excludes the state dimension itself. Zero-count entries
// survive only for states the user has actively selected, so a selected
// chip never vanishes from the sidebar.
func (e *Engine) stateFacetCounts(ctx context.Context, f filters.Set, sets dimensionSets) ([]model.FacetCount, error) {
	base, err := e.resolve(ctx, sets.combined(skipDims{states: true}))
	if err != nil {
		return nil, err
	}
	stateKeys, err := e.store.FacilityStateKeysByCompany(ctx, base)
	if err != nil {
		return nil, err
	}

	companies := make(map[string]IDSet)
	for companyID, keys := range stateKeys {
		for _, key := range keys {
			if key == "" {
				continue
			}
			bucket := companies[key]
			if bucket == nil {
				bucket = make(IDSet)
				companies[key] = bucket
			}
			bucket[companyID] = struct{}{}
		}
	}

	selected := make(map[string]struct{}, len(f.States))
	for _, s := range f.States {
		selected[s] = struct{}{}
		if _, ok := companies[s]; !ok {
			companies[s] = IDSet{}
		}
	}

	out := make([]model.FacetCount, 0, len(companies))
	for key, bucket := range companies {
		_, isSelected := selected[key]
		if len(bucket) == 0 && !isSelected {
			continue
		}
		out = append(out, model.FacetCount{Value: key, Count: len(bucket)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

// capabilityFacetCounts counts per capability flag over the base set that
// excludes the capability dimension, in declared enum order.
func (e *Engine) capabilityFacetCounts(ctx context.Context, sets dimensionSets) ([]model.FacetCount, error) {
	base, err := e.resolve(ctx, sets.combined(skipDims{caps: true}))
	if err != nil {
		return nil, err
	}
	rows, err := e.store.CapabilitiesByCompany(ctx, base)
	if err != nil {
		return nil, err
	}

	counts := make(map[filters.CapabilitySlug]int, len(filters.CapabilitySlugs))
	for _, row := range rows {
		for _, slug := range filters.CapabilitySlugs {
			if CapabilityFlag(row, slug) {
				counts[slug]++
			}
		}
	}

	out := make([]model.FacetCount, 0, len(filters.CapabilitySlugs))
	for _, slug := range filters.CapabilitySlugs {
		out = append(out, model.FacetCount{Value: string(slug), Count: counts[slug]})
	}
	return out, nil
}

// volumeFacetCounts counts per volume tier over the base set that excludes
// the volume dimension, in declared enum order.
func (e *Engine) volumeFacetCounts(ctx context.Context, sets dimensionSets) ([]model.FacetCount, error) {
	base, err := e.resolve(ctx, sets.combined(skipDims{volume: true}))
	if err != nil {
		return nil, err
	}
	rows, err := e.store.CapabilitiesByCompany(ctx, base)
	if err != nil {
		return nil, err
	}

	counts := make(map[filters.ProductionVolume]int, len(filters.ProductionVolumes))
	for _, row := range rows {
		for _, level := range filters.ProductionVolumes {
			if VolumeFlag(row, level) {
				counts[level]++
			}
		}
	}

	out := make([]model.FacetCount, 0, len(filters.ProductionVolumes))
	for _, level := range filters.ProductionVolumes {
		out = append(out, model.FacetCount{Value: string(level), Count: counts[level]})
	}
	return out, nil
}

// CapabilityFlag reports whether the capability row carries the flag the
// slug filters on.
func CapabilityFlag(c model.Capability, slug filters.CapabilitySlug) bool {
	switch slug {
	case filters.CapSMT:
		return c.PCBAssemblySMT
	case filters.CapThroughHole:
		return c.PCBAssemblyThroughHole
	case filters.CapMixed:
		return c.PCBAssemblyMixed
	case filters.CapFinePitch:
		return c.PCBAssemblyFinePitch
	case filters.CapCableHarness:
		return c.CableHarnessAssembly
	case filters.CapBoxBuild:
		return c.BoxBuildAssembly
	case filters.CapPrototyping:
		return c.Prototyping
	}
	return false
}

func VolumeFlag(c model.Capability, level filters.ProductionVolume) bool {
	switch level {
	case filters.VolumeLow:
		return c.LowVolumeProduction
	case filters.VolumeMedium:
		return c.MediumVolumeProduction
	case filters.VolumeHigh:
		return c.HighVolumeProduction
	}
	return false
}

func zeroCapabilityCounts() []model.FacetCount {
	out := make([]model.FacetCount, 0, len(filters.CapabilitySlugs))
	for _, slug := range filters.CapabilitySlugs {
		out = append(out, model.FacetCount{Value: string(slug)})
	}
	return out
}

func zeroVolumeCounts() []model.FacetCount {
	out := make([]model.FacetCount, 0, len(filters.ProductionVolumes))
	for _, level := range filters.ProductionVolumes {
		out = append(out, model.FacetCount{Value: string(level)})
	}
	return out
}

func selectedStatesZeroed(states []string) []model.FacetCount {
	out := make([]model.FacetCount, 0, len(states))
	for _, s := range states {
		out = append(out, model.FacetCount{Value: s})
	}
	return out
}
