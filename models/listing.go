package models

import "time"

// NormalizedListing is one scrape payload flattened and validated, ready for
// identity resolution and diffing. It lives only for the duration of a batch.
//
// Tracked fields are pointers: a nil field means the scrape did not carry it,
// which the diff engine must keep distinct from "present but false/zero".
type NormalizedListing struct {
	SourceName      string
	SourceListingID string

	AddressLine string
	City        string
	PostalCode  string
	StateAbbr   *string
	CountyName  *string

	Status         *string
	ListPrice      *int64
	SoldPrice      *int64
	SoldDate       *time.Time
	IsPending      *bool
	IsContingent   *bool
	IsNewListing   *bool
	IsForeclosure  *bool
	IsPriceReduced *bool
	IsComingSoon   *bool
}
