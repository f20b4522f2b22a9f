package search

import (
	"encoding/base64"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	c := &Cursor{Name: "Acme Circuits", ID: "c-42"}
	token := EncodeCursor(c)
	if token == "" {
		t.Fatal("empty token")
	}
	got := DecodeCursor(token)
	if got == nil || got.Name != c.Name || got.ID != c.ID {
		t.Fatalf("round trip got %+v want %+v", got, c)
	}
}

func TestDecodeCursor_PaddedToken(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte(`{"name":"Acme","id":"c-1"}`))
	got := DecodeCursor(padded)
	if got == nil || got.ID != "c-1" {
		t.Fatalf("padded token not accepted: %+v", got)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	for _, token := range []string{"", "   ", "not-base64!", "aGVsbG8", base64.RawURLEncoding.EncodeToString([]byte(`{}`))} {
		if got := DecodeCursor(token); got != nil {
			t.Fatalf("DecodeCursor(%q)=%+v want nil", token, got)
		}
	}
}

func TestEncodeCursor_Nil(t *testing.T) {
	if got := EncodeCursor(nil); got != "" {
		t.Fatalf("EncodeCursor(nil)=%q want empty", got)
	}
}
