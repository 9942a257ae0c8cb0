package identity

import (
	"testing"

	"propwatch/models"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123 Main Street", "123 main st"},
		{"123 MAIN ST.", "123 main st"},
		{"  456 Oak Avenue  ", "456 oak ave"},
		{"789 North Elm Boulevard", "789 n elm blvd"},
		{"12 West 4th Street, Apartment 5", "12 w 4th st apt 5"},
		// Abbreviation rewrites are per token, so words that merely contain a
		// direction or suffix are left alone.
		{"10 Western Ave", "10 western ave"},
		{"22 Streetman Drive", "22 streetman dr"},
		{"CHARLOTTE", "charlotte"},
	}

	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeyForCollapsesVariants(t *testing.T) {
	a := &models.NormalizedListing{AddressLine: "123 Main Street", City: "Charlotte", PostalCode: "28202"}
	b := &models.NormalizedListing{AddressLine: "123 MAIN ST", City: "charlotte", PostalCode: " 28202 "}

	if KeyFor(a) != KeyFor(b) {
		t.Errorf("keys differ: %+v vs %+v", KeyFor(a), KeyFor(b))
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy(""); err != nil || s != StrategyAddress {
		t.Errorf("empty: got %v, %v", s, err)
	}
	if s, err := ParseStrategy("source"); err != nil || s != StrategySource {
		t.Errorf("source: got %v, %v", s, err)
	}
	if _, err := ParseStrategy("bogus"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
