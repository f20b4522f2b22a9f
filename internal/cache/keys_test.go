package cache

import (
	"strings"
	"testing"
)

func TestKey_DeterministicForSameState(t *testing.T) {
	a := Key("/search", "state=TX&volume=low", "", 9)
	b := Key("/search", "state=TX&volume=low", "", 9)
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
}

func TestKey_DiffersByComponent(t *testing.T) {
	base := Key("/search", "state=TX", "", 9)
	if got := Key("/search", "state=CA", "", 9); got == base {
		t.Fatal("different filters share a key")
	}
	if got := Key("/search", "state=TX", "abc", 9); got == base {
		t.Fatal("different cursors share a key")
	}
	if got := Key("/search", "state=TX", "", 18); got == base {
		t.Fatal("different page sizes share a key")
	}
	if got := Key("/certifications/iso-9001", "state=TX", "", 9); got == base {
		t.Fatal("different routes share a key")
	}
}

func TestKey_Prefix(t *testing.T) {
	if got := Key("/search", "", "", 9); !strings.HasPrefix(got, KeyPrefix) {
		t.Fatalf("key %q missing prefix %q", got, KeyPrefix)
	}
}

func TestKey_SanitizesAndBoundsFilterText(t *testing.T) {
	long := strings.Repeat("state=TX&", 60)
	key := Key("/search", long, "", 9)
	if strings.Contains(key, " ") {
		t.Fatalf("key contains whitespace: %q", key)
	}
	if len(key) > 300 {
		t.Fatalf("key too long: %d", len(key))
	}

	dirty := Key("/search", "q=café au lait/<x>", "", 9)
	for _, r := range dirty {
		if r == ' ' || r == '<' || r == '>' || r == '/' {
			t.Fatalf("unsanitized rune %q in key %q", r, dirty)
		}
	}
}
