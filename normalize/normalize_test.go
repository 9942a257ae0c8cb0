package normalize

import (
	"errors"
	"testing"
	"time"

	"propwatch/models"
)

func strPtr(s string) *string { return &s }
func intPtr(v int64) *int64   { return &v }
func boolPtr(v bool) *bool    { return &v }

func validPayload() *models.RawPayload {
	return &models.RawPayload{
		Source: models.PayloadSource{
			Name:      strPtr("realtor"),
			ListingID: strPtr("L-100"),
		},
		Location: models.PayloadLocation{
			Address: &models.PayloadAddress{
				Line:       strPtr("123 Main St"),
				City:       strPtr("Charlotte"),
				StateCode:  strPtr("NC"),
				PostalCode: strPtr("28202"),
			},
			County: &models.PayloadCounty{Name: strPtr("Mecklenburg")},
		},
		Status:    strPtr("for_sale"),
		ListPrice: intPtr(350000),
		Flags: &models.PayloadFlags{
			IsPending: boolPtr(false),
		},
	}
}

func TestListing(t *testing.T) {
	l, err := Listing(validPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if l.SourceName != "realtor" || l.SourceListingID != "L-100" {
		t.Errorf("source: got %s/%s", l.SourceName, l.SourceListingID)
	}
	if l.AddressLine != "123 Main St" || l.City != "Charlotte" || l.PostalCode != "28202" {
		t.Errorf("address: got %s, %s %s", l.AddressLine, l.City, l.PostalCode)
	}
	if l.StateAbbr == nil || *l.StateAbbr != "NC" {
		t.Errorf("state: got %v", l.StateAbbr)
	}
	if l.CountyName == nil || *l.CountyName != "Mecklenburg" {
		t.Errorf("county: got %v", l.CountyName)
	}
	if l.Status == nil || *l.Status != "for_sale" {
		t.Errorf("status: got %v", l.Status)
	}
	if l.ListPrice == nil || *l.ListPrice != 350000 {
		t.Errorf("list_price: got %v", l.ListPrice)
	}
	if l.IsPending == nil || *l.IsPending {
		t.Errorf("is_pending: got %v", l.IsPending)
	}
	// Fields the payload never carried stay absent.
	if l.SoldPrice != nil || l.SoldDate != nil || l.IsContingent != nil {
		t.Errorf("absent fields must stay nil: %v %v %v", l.SoldPrice, l.SoldDate, l.IsContingent)
	}
}

func TestListingMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.RawPayload)
		wantField string
	}{
		{"no address", func(p *models.RawPayload) { p.Location.Address = nil }, "address"},
		{"no line", func(p *models.RawPayload) { p.Location.Address.Line = nil }, "address_line"},
		{"blank line", func(p *models.RawPayload) { p.Location.Address.Line = strPtr("   ") }, "address_line"},
		{"no city", func(p *models.RawPayload) { p.Location.Address.City = nil }, "city"},
		{"no postal", func(p *models.RawPayload) { p.Location.Address.PostalCode = nil }, "postal_code"},
		{"no listing id", func(p *models.RawPayload) { p.Source.ListingID = nil }, "source_listing_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)

			_, err := Listing(p)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("got field %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestListingSourceNameFallback(t *testing.T) {
	p := validPayload()
	p.Source.Name = nil

	l, err := Listing(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.SourceName != "unknown" {
		t.Errorf("got %q, want unknown", l.SourceName)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2023-10-01T12:30:00Z", timePtr(time.Date(2023, 10, 1, 12, 30, 0, 0, time.UTC))},
		{"2023-10-01T12:30:00", timePtr(time.Date(2023, 10, 1, 12, 30, 0, 0, time.UTC))},
		{"2023-10-01 12:30:00", timePtr(time.Date(2023, 10, 1, 12, 30, 0, 0, time.UTC))},
		{"2023-10-01", timePtr(time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC))},
		{"not a date", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := ParseDate(strPtr(tt.in))
		if (got == nil) != (tt.want == nil) {
			t.Errorf("ParseDate(%q): got %v, want %v", tt.in, got, tt.want)
			continue
		}
		if got != nil && !got.Equal(*tt.want) {
			t.Errorf("ParseDate(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}

	if got := ParseDate(nil); got != nil {
		t.Errorf("ParseDate(nil): got %v", got)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
