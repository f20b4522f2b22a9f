package filters

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/emsdir/searchd/internal/location"
)

// Set is the parsed filter state for one request. A Set produced by Parse
// is always canonical: multi-value fields sorted and deduped, enum fields
// validated, query sanitized.
type Set struct {
	Countries        []string         `json:"countries"`
	States           []string         `json:"states"`
	Capabilities     []CapabilitySlug `json:"capabilities"`
	ProductionVolume ProductionVolume `json:"productionVolume,omitempty"`
	EmployeeRanges   []string         `json:"employeeRanges"`
	Query            string           `json:"q,omitempty"`
}

func (s Set) IsZero() bool {
	return len(s.Countries) == 0 && len(s.States) == 0 && len(s.Capabilities) == 0 &&
		s.ProductionVolume == "" && len(s.EmployeeRanges) == 0 && s.Query == ""
}

// Param key spellings accepted for each field. Several historical URL shapes
// are still bookmarked and indexed, so both singular and plural survive.
var (
	countryKeys  = []string{"country", "countries"}
	stateKeys    = []string{"state", "states"}
	capKeys      = []string{"capability", "capabilities"}
	volumeKeys   = []string{"volume"}
	employeeKeys = []string{"employees", "employee_range", "employee_ranges"}
	queryKeys    = []string{"q", "query", "search"}
)

// Parse builds a canonical Set from raw query parameters. Unknown or
// malformed values are dropped, never surfaced as errors.
func Parse(params url.Values) Set {
	var s Set

	for _, v := range collect(params, countryKeys) {
		if code := normalizeCountry(v); code != "" {
			s.Countries = append(s.Countries, code)
		}
	}
	for _, v := range collect(params, stateKeys) {
		if code := normalizeState(v); code != "" {
			s.States = append(s.States, code)
		}
	}
	for _, v := range collect(params, capKeys) {
		if slug := ParseCapability(v); slug != "" {
			s.Capabilities = append(s.Capabilities, slug)
		}
	}
	for _, v := range collect(params, volumeKeys) {
		if vol := ParseVolume(v); vol != "" {
			s.ProductionVolume = vol
			break // single-select: first valid token wins
		}
	}
	for _, v := range collect(params, employeeKeys) {
		if r := ParseEmployeeRange(v); r != "" {
			s.EmployeeRanges = append(s.EmployeeRanges, r)
		}
	}
	for _, key := range queryKeys {
		if raw := params.Get(key); raw != "" {
			s.Query = SanitizeQuery(raw)
			break
		}
	}

	s.Countries = uniqueSorted(s.Countries)
	s.States = uniqueSorted(s.States)
	s.Capabilities = uniqueSortedSlugs(s.Capabilities)
	s.EmployeeRanges = uniqueSorted(s.EmployeeRanges)
	return s
}

// ParseQuery is Parse over a raw query string. A string that does not parse
// yields the zero Set.
func ParseQuery(rawQuery string) Set {
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return Set{}
	}
	return Parse(params)
}

// Values re-normalizes every field and serializes with stable key order and
// sorted multi-values, so equal filter states always produce byte-identical
// query strings. It never trusts an in-memory Set to be canonical.
func (s Set) Values() url.Values {
	params := url.Values{}

	for _, v := range uniqueSorted(mapNonEmpty(s.Countries, normalizeCountry)) {
		params.Add("country", v)
	}
	for _, v := range uniqueSorted(mapNonEmpty(s.States, normalizeState)) {
		params.Add("state", v)
	}
	caps := make([]CapabilitySlug, 0, len(s.Capabilities))
	for _, c := range s.Capabilities {
		if slug := ParseCapability(string(c)); slug != "" {
			caps = append(caps, slug)
		}
	}
	for _, c := range uniqueSortedSlugs(caps) {
		params.Add("capability", string(c))
	}
	if vol := ParseVolume(string(s.ProductionVolume)); vol != "" {
		params.Add("volume", string(vol))
	}
	for _, v := range uniqueSorted(mapNonEmpty(s.EmployeeRanges, ParseEmployeeRange)) {
		params.Add("employees", v)
	}
	if q := SanitizeQuery(s.Query); q != "" {
		params.Add("q", q)
	}
	return params
}

// Encode returns the canonical query string, usable as a cache key and as
// the canonical-URL tag value.
func (s Set) Encode() string {
	return s.Values().Encode()
}

// Canonical returns the fully normalized form of s.
func (s Set) Canonical() Set {
	return Parse(s.Values())
}

const maxQueryLen = 200

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	jsSchemeRe  = regexp.MustCompile(`(?i)javascript:`)
	onHandlerRe = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// SanitizeQuery strips markup and control bytes from free-text search input
// and bounds its length. Oversize input is truncated, not rejected.
func SanitizeQuery(q string) string {
	q = htmlTagRe.ReplaceAllString(q, "")
	q = jsSchemeRe.ReplaceAllString(q, "")
	q = onHandlerRe.ReplaceAllString(q, "")

	var b strings.Builder
	b.Grow(len(q))
	for _, r := range q {
		if r < 0x20 && r != '\t' && r != '\n' {
			continue
		}
		if r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if len(out) > maxQueryLen {
		// cut on a rune boundary so truncation never leaves invalid UTF-8
		cut := maxQueryLen
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimSpace(out[:cut])
	}
	return out
}

func normalizeCountry(v string) string {
	code := location.NormalizeCountryCode(v)
	if code == "" {
		return ""
	}
	// Unrecognized tokens only pass through when they look like a code.
	if !location.KnownCountryCode(code) && len(code) != 2 {
		return ""
	}
	return code
}

func normalizeState(v string) string {
	upper := strings.ToUpper(strings.TrimSpace(v))
	if location.IsUSStateCode(upper) {
		return upper
	}
	return ""
}

// collect gathers values for every accepted key spelling, splitting
// comma-joined entries.
func collect(params url.Values, keys []string) []string {
	var out []string
	for _, key := range keys {
		for _, entry := range params[key] {
			for _, v := range strings.Split(entry, ",") {
				if v = strings.TrimSpace(v); v != "" {
					out = append(out, v)
				}
			}
		}
	}
	return out
}

func uniqueSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func uniqueSortedSlugs(values []CapabilitySlug) []CapabilitySlug {
	if len(values) == 0 {
		return nil
	}
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = string(v)
	}
	sorted := uniqueSorted(strs)
	out := make([]CapabilitySlug, len(sorted))
	for i, v := range sorted {
		out[i] = CapabilitySlug(v)
	}
	return out
}

func mapNonEmpty(values []string, f func(string) string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if m := f(v); m != "" {
			out = append(out, m)
		}
	}
	return out
}
