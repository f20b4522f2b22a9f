// Package location maps heterogeneous facility location data onto canonical
// state and country keys. Normalization is deterministic and idempotent:
// already-canonical input is a fixed point, so facet grouping is stable no
// matter which text format a row arrived in.
package location

import (
	"regexp"
	"strings"

	"github.com/emsdir/searchd/internal/model"
)

// IsUSStateCode reports whether v is a known 2-letter US state code
// (upper case expected).
func IsUSStateCode(v string) bool {
	_, ok := usStateNames[v]
	return ok
}

// KnownCountryCode reports whether v is a country code the directory has a
// display name for.
func KnownCountryCode(v string) bool {
	_, ok := countryNames[v]
	return ok
}

// NormalizeCountryCode resolves ISO3166 alpha-3 codes, full country names
// and known aliases down to an alpha-2 code. Unknown 2-letter tokens pass
// through uppercased as a best-effort code; any other unknown token is
// returned uppercased rather than dropped, so callers can decide. Empty
// input returns "".
func NormalizeCountryCode(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	upper := strings.ToUpper(trimmed)
	collapsed := collapseUpper(trimmed)

	if code, ok := iso3ToISO2[upper]; ok {
		return code
	}
	if code, ok := iso3ToISO2[collapsed]; ok {
		return code
	}
	if code, ok := countryAliases[upper]; ok {
		return code
	}
	if code, ok := countryAliases[collapsed]; ok {
		return code
	}
	if code, ok := countryNameToCode[upper]; ok {
		return code
	}
	if code, ok := countryNameToCode[collapsed]; ok {
		return code
	}
	return upper
}

var (
	spacesRe      = regexp.MustCompile(`\s+`)
	commaSpacesRe = regexp.MustCompile(`\s*,\s*`)
	postalTailRe  = regexp.MustCompile(`(?i)(?:,\s*)?(?:[A-Z]{1,2}\d[A-Z\d ]{2,}|\d{4,})$`)
	strayCommaRe  = regexp.MustCompile(`,\s*,`)
)

// stripTrailingCountryOrPostal removes trailing country-name tokens and
// postal codes left behind by free-text entry ("Yorkshire, UK", "CA 94088").
func stripTrailingCountryOrPostal(value string) string {
	result := strings.TrimSpace(value)
	// Strip to a fixpoint: a string can end in both a postal code and a
	// country token ("Texas, USA 78701").
	for {
		next := stripOnce(result)
		if next == result {
			return result
		}
		result = next
	}
}

func stripOnce(value string) string {
	result := strings.TrimSpace(postalTailRe.ReplaceAllString(value, ""))

	lower := strings.ToLower(result)
	for _, token := range countryNameTokens {
		if !strings.HasSuffix(lower, token) {
			continue
		}
		head := result[:len(result)-len(token)]
		// require a comma or word boundary before the token
		if !endsWithBoundary(head) {
			continue
		}
		result = strings.TrimSpace(head)
		result = strings.TrimSpace(strings.TrimSuffix(result, ","))
		lower = strings.ToLower(result)
	}

	result = strayCommaRe.ReplaceAllString(result, ", ")
	return strings.TrimSpace(strings.TrimSuffix(result, ","))
}

func endsWithBoundary(head string) bool {
	if head == "" {
		return true
	}
	last := head[len(head)-1]
	return last == ' ' || last == ','
}

// NormalizeStateKey maps a freeform "state" string to a canonical facet key:
// a US state code, an extra-region code (Canadian provinces, UK regions, US
// territories), or a lower-cased freeform fallback. Returns "" for empty
// input. Idempotent for all inputs.
func NormalizeStateKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	normalized := spacesRe.ReplaceAllString(commaSpacesRe.ReplaceAllString(trimmed, ", "), " ")
	normalized = stripTrailingCountryOrPostal(normalized)
	if normalized == "" {
		normalized = trimmed
	}

	upper := strings.ToUpper(normalized)
	if IsUSStateCode(upper) {
		return upper
	}
	if _, ok := extraRegionNames[upper]; ok {
		return upper
	}
	lower := strings.ToLower(normalized)
	if code, ok := extraRegionNameToCode[lower]; ok {
		return code
	}
	if name, ok := usStateNameToCode[collapseUpper(normalized)]; ok {
		return name
	}
	return lower
}

// FacilityStateKey resolves the canonical state key from a facility's three
// location fields in fixed precedence: explicit code, then province name,
// then the raw state field.
func FacilityStateKey(f model.Facility) string {
	if key := NormalizeStateKey(f.StateCode); key != "" {
		return key
	}
	if key := NormalizeStateKey(f.StateProvince); key != "" {
		return key
	}
	return NormalizeStateKey(f.State)
}

// FacilityCountryCode resolves the facility country, inferring it from the
// state key when the country fields are absent (state "TX" implies "US").
func FacilityCountryCode(f model.Facility) string {
	raw := f.CountryCode
	if raw == "" {
		raw = f.Country
	}
	if code := NormalizeCountryCode(raw); code != "" {
		return code
	}
	return inferCountryFromStateKey(FacilityStateKey(f))
}

func inferCountryFromStateKey(key string) string {
	if key == "" {
		return ""
	}
	upper := strings.ToUpper(key)
	if IsUSStateCode(upper) {
		return "US"
	}
	if code, ok := extraRegionCountry[upper]; ok {
		return code
	}
	if alias, ok := extraRegionNameToCode[strings.ToLower(key)]; ok {
		if IsUSStateCode(alias) {
			return "US"
		}
		if code, ok := extraRegionCountry[alias]; ok {
			return code
		}
	}
	return ""
}

// InferCountryCodeFromState normalizes then infers, for callers holding a
// raw state string instead of a key.
func InferCountryCodeFromState(state string) string {
	return inferCountryFromStateKey(NormalizeStateKey(state))
}

// StateLabel maps a canonical state key back to a display label.
func StateLabel(key string) string {
	if key == "" {
		return "Unknown Region"
	}
	normalized := spacesRe.ReplaceAllString(strings.TrimSpace(key), " ")
	upper := strings.ToUpper(normalized)
	if name, ok := usStateNames[upper]; ok {
		return name
	}
	if name, ok := extraRegionNames[upper]; ok {
		return name
	}
	return titleCase(normalized)
}

// CountryLabel maps a country code or name to a display label.
func CountryLabel(code string) string {
	if code == "" {
		return "Unknown Country"
	}
	normalized := NormalizeCountryCode(code)
	if name, ok := countryNames[normalized]; ok {
		return name
	}
	if len(normalized) > 2 {
		return titleCase(strings.ToLower(normalized))
	}
	return normalized
}

// FacilityLocationLabel builds the "City, Region, Country" display string.
func FacilityLocationLabel(f *model.Facility) string {
	if f == nil {
		return "Multiple"
	}
	var parts []string
	if city := strings.TrimSpace(f.City); city != "" {
		parts = append(parts, city)
	}
	if key := FacilityStateKey(*f); key != "" {
		parts = append(parts, StateLabel(key))
	}
	if code := FacilityCountryCode(*f); code != "" {
		parts = append(parts, CountryLabel(code))
	} else if country := strings.TrimSpace(f.Country); country != "" {
		parts = append(parts, country)
	}
	if len(parts) == 0 {
		return "Multiple"
	}
	return strings.Join(parts, ", ")
}

// USStateCodes returns the known state codes, for parsers that need the set.
func USStateCodes() []string {
	out := make([]string, 0, len(usStateNames))
	for code := range usStateNames {
		out = append(out, code)
	}
	return out
}

func collapseUpper(s string) string {
	upper := strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if r == '.' || r == ' ' {
			return -1
		}
		return r
	}, upper)
}

var wordRe = regexp.MustCompile(`\w\S*`)

func titleCase(s string) string {
	return wordRe.ReplaceAllStringFunc(s, func(w string) string {
		return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	})
}
