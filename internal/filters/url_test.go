package filters

import (
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParse_EquivalentSpellingsProduceSameSet(t *testing.T) {
	variants := []string{
		"state=TX&state=CA&capability=smt&volume=low",
		"states=CA,TX&capabilities=smt&volume=low",
		"state=tx&states=ca&capability=SMT&volume=LOW",
		"state=TX,CA&state=TX&capability=smt,smt&volume=low",
	}

	want := ParseQuery(variants[0]).Encode()
	for _, raw := range variants[1:] {
		if got := ParseQuery(raw).Encode(); got != want {
			t.Fatalf("ParseQuery(%q).Encode()=%q want %q", raw, got, want)
		}
	}
}

func TestParse_RoundTripIsIdempotent(t *testing.T) {
	raws := []string{
		"",
		"state=TX",
		"country=USA&state=TX&capability=box_build&capability=smt&volume=medium&employees=50-150&q=power+supply",
		"countries=SWE,deu&states=WA,OR&capabilities=prototyping",
	}
	for _, raw := range raws {
		first := ParseQuery(raw).Encode()
		second := ParseQuery(first).Encode()
		if first != second {
			t.Fatalf("round trip not idempotent for %q: %q -> %q", raw, first, second)
		}
	}
}

func TestParse_DropsUnknownValues(t *testing.T) {
	s := ParseQuery("state=TX&state=XX&state=Texasish&capability=smt&capability=soldering&volume=ultra&employees=42")
	if got, want := strings.Join(s.States, ","), "TX"; got != want {
		t.Fatalf("states=%q want %q", got, want)
	}
	if len(s.Capabilities) != 1 || s.Capabilities[0] != CapSMT {
		t.Fatalf("capabilities=%v want [smt]", s.Capabilities)
	}
	if s.ProductionVolume != "" {
		t.Fatalf("volume=%q want empty", s.ProductionVolume)
	}
	if len(s.EmployeeRanges) != 0 {
		t.Fatalf("employeeRanges=%v want empty", s.EmployeeRanges)
	}
}

func TestParse_VolumeFirstValidWins(t *testing.T) {
	s := ParseQuery("volume=bogus&volume=high&volume=low")
	if s.ProductionVolume != VolumeHigh {
		t.Fatalf("volume=%q want high", s.ProductionVolume)
	}
}

func TestParse_CountryNormalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"country=USA", "US"},
		{"country=united+states", "US"},
		{"country=SWE", "SE"},
		{"country=sweden", "SE"},
		{"country=de", "DE"},
		{"country=NotACountry", ""},
	}
	for _, tc := range cases {
		s := ParseQuery(tc.in)
		if tc.want == "" {
			if len(s.Countries) != 0 {
				t.Fatalf("%q: countries=%v want empty", tc.in, s.Countries)
			}
			continue
		}
		if len(s.Countries) != 1 || s.Countries[0] != tc.want {
			t.Fatalf("%q: countries=%v want [%s]", tc.in, s.Countries, tc.want)
		}
	}
}

func TestParse_QueryKeyAliases(t *testing.T) {
	for _, raw := range []string{"q=inverter", "query=inverter", "search=inverter"} {
		if got := ParseQuery(raw).Query; got != "inverter" {
			t.Fatalf("ParseQuery(%q).Query=%q want inverter", raw, got)
		}
	}
}

func TestParseQuery_MalformedQueryString(t *testing.T) {
	s := ParseQuery("state=TX&%zz=;bad")
	if !s.IsZero() {
		t.Fatalf("malformed raw query should yield zero Set, got %+v", s)
	}
}

func TestValues_StableKeyOrder(t *testing.T) {
	s := Set{
		States:           []string{"TX", "CA"},
		Countries:        []string{"sweden", "USA"},
		Capabilities:     []CapabilitySlug{CapBoxBuild, CapSMT},
		ProductionVolume: VolumeLow,
		EmployeeRanges:   []string{"50-150", "<50"},
		Query:            "  sensors  ",
	}
	got := s.Encode()
	want := url.Values{
		"country":    {"SE", "US"},
		"state":      {"CA", "TX"},
		"capability": {"box_build", "smt"},
		"volume":     {"low"},
		"employees":  {"50-150", "<50"},
		"q":          {"sensors"},
	}.Encode()
	if got != want {
		t.Fatalf("Encode()=%q want %q", got, want)
	}
}

func TestCanonical_NormalizesDirtySet(t *testing.T) {
	dirty := Set{
		States:       []string{"tx", "TX", "nope"},
		Capabilities: []CapabilitySlug{"SMT", "smt", "welding"},
	}
	got := dirty.Canonical()
	if len(got.States) != 1 || got.States[0] != "TX" {
		t.Fatalf("states=%v want [TX]", got.States)
	}
	if len(got.Capabilities) != 1 || got.Capabilities[0] != CapSMT {
		t.Fatalf("capabilities=%v want [smt]", got.Capabilities)
	}
}

func TestSanitizeQuery(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<script>alert(1)</script>hi", "alert(1)hi"},
		{"javascript:alert(1)", "alert(1)"},
		{`x" onclick= y`, `x"  y`},
		{"a\x00b\x08c", "abc"},
		{"  padded  ", "padded"},
	}
	for _, tc := range cases {
		if got := SanitizeQuery(tc.in); got != tc.want {
			t.Fatalf("SanitizeQuery(%q)=%q want %q", tc.in, got, tc.want)
		}
	}

	long := strings.Repeat("a", 500)
	if got := SanitizeQuery(long); len(got) != maxQueryLen {
		t.Fatalf("len=%d want %d", len(got), maxQueryLen)
	}
}

func TestSanitizeQuery_TruncatesOnRuneBoundary(t *testing.T) {
	// é starts at byte 199 and would be split by a byte-offset cut
	in := strings.Repeat("a", 199) + "éé"
	got := SanitizeQuery(in)
	if !utf8.ValidString(got) {
		t.Fatalf("SanitizeQuery produced invalid UTF-8: %q", got)
	}
	if len(got) > maxQueryLen {
		t.Fatalf("len=%d want <= %d", len(got), maxQueryLen)
	}
	if got != strings.Repeat("a", 199) {
		t.Fatalf("got=%q want the split rune dropped whole", got)
	}

	// truncated queries must still be a codec fixed point
	first := Parse(url.Values{"q": {in}})
	second := first.Canonical()
	if second.Query != first.Query {
		t.Fatalf("round trip changed query: %q vs %q", second.Query, first.Query)
	}
}

func TestParseEnumHelpers(t *testing.T) {
	if got := ParseCapability(" Through_Hole "); got != CapThroughHole {
		t.Fatalf("ParseCapability=%q want through_hole", got)
	}
	if got := ParseCapability("reflow"); got != "" {
		t.Fatalf("ParseCapability(reflow)=%q want empty", got)
	}
	if got := ParseVolume("MEDIUM"); got != VolumeMedium {
		t.Fatalf("ParseVolume=%q want medium", got)
	}
	if got := ParseEmployeeRange("1000+"); got != "1000+" {
		t.Fatalf("ParseEmployeeRange=%q want 1000+", got)
	}
	if got := ParseEmployeeRange("1000"); got != "" {
		t.Fatalf("ParseEmployeeRange(1000)=%q want empty", got)
	}
}
