// Package normalize flattens raw scrape payloads into validated listings.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"propwatch/models"
)

// ValidationError names the first required field missing from a payload.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Listing converts one raw payload into a NormalizedListing. Address line,
// city, postal code, and source listing id are required; everything else is
// optional and stays absent when missing. Unparseable dates become absent
// rather than failing the record.
func Listing(raw *models.RawPayload) (*models.NormalizedListing, error) {
	addr := raw.Location.Address
	if addr == nil {
		return nil, &ValidationError{Field: "address"}
	}

	line, ok := requiredText(addr.Line)
	if !ok {
		return nil, &ValidationError{Field: "address_line"}
	}
	city, ok := requiredText(addr.City)
	if !ok {
		return nil, &ValidationError{Field: "city"}
	}
	postal, ok := requiredText(addr.PostalCode)
	if !ok {
		return nil, &ValidationError{Field: "postal_code"}
	}
	listingID, ok := requiredText(raw.Source.ListingID)
	if !ok {
		return nil, &ValidationError{Field: "source_listing_id"}
	}

	sourceName := "unknown"
	if raw.Source.Name != nil && *raw.Source.Name != "" {
		sourceName = *raw.Source.Name
	}

	l := &models.NormalizedListing{
		SourceName:      sourceName,
		SourceListingID: listingID,
		AddressLine:     line,
		City:            city,
		PostalCode:      postal,
		StateAbbr:       addr.StateCode,
		Status:          raw.Status,
		ListPrice:       raw.ListPrice,
		SoldPrice:       raw.SoldPrice,
	}

	if raw.Location.County != nil {
		l.CountyName = raw.Location.County.Name
	}
	if raw.Description != nil {
		l.SoldDate = ParseDate(raw.Description.SoldDate)
	}
	if raw.Flags != nil {
		l.IsPending = raw.Flags.IsPending
		l.IsContingent = raw.Flags.IsContingent
		l.IsNewListing = raw.Flags.IsNewListing
		l.IsForeclosure = raw.Flags.IsForeclosure
		l.IsPriceReduced = raw.Flags.IsPriceReduced
		l.IsComingSoon = raw.Flags.IsComingSoon
	}

	return l, nil
}

// dateLayouts are tried in order after RFC 3339. Sources are inconsistent
// about timestamps, so a failed parse means "absent", never an error.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a flexible timestamp representation into UTC.
func ParseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		utc := t.UTC()
		return &utc
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

func requiredText(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return "", false
	}
	return s, true
}
