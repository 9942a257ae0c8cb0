package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackedProperty is the durable current-state row for one physical property.
// One row per distinct (address_line, city, postal_code) triple; never deleted.
type TrackedProperty struct {
	ID uuid.UUID `json:"id" db:"id"`

	AddressLine string  `json:"address_line" db:"address_line"`
	City        string  `json:"city" db:"city"`
	PostalCode  string  `json:"postal_code" db:"postal_code"`
	StateAbbr   *string `json:"state_abbr" db:"state_abbr"`
	CountyName  *string `json:"county_name" db:"county_name"`

	Status         *string    `json:"status" db:"status"`
	ListPrice      *int64     `json:"list_price" db:"list_price"`
	SoldPrice      *int64     `json:"sold_price" db:"sold_price"`
	SoldDate       *time.Time `json:"sold_date" db:"sold_date"`
	IsPending      *bool      `json:"is_pending" db:"is_pending"`
	IsContingent   *bool      `json:"is_contingent" db:"is_contingent"`
	IsNewListing   *bool      `json:"is_new_listing" db:"is_new_listing"`
	IsForeclosure  *bool      `json:"is_foreclosure" db:"is_foreclosure"`
	IsPriceReduced *bool      `json:"is_price_reduced" db:"is_price_reduced"`
	IsComingSoon   *bool      `json:"is_coming_soon" db:"is_coming_soon"`

	FirstSeenAt time.Time `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at" db:"last_seen_at"`
}

// ApplyListing copies the tracked fields (and address context that may have
// been missing on first sight) from a normalized listing onto the row.
func (p *TrackedProperty) ApplyListing(l *NormalizedListing) {
	if l.StateAbbr != nil {
		p.StateAbbr = l.StateAbbr
	}
	if l.CountyName != nil {
		p.CountyName = l.CountyName
	}
	p.Status = l.Status
	p.ListPrice = l.ListPrice
	p.SoldPrice = l.SoldPrice
	p.SoldDate = l.SoldDate
	p.IsPending = l.IsPending
	p.IsContingent = l.IsContingent
	p.IsNewListing = l.IsNewListing
	p.IsForeclosure = l.IsForeclosure
	p.IsPriceReduced = l.IsPriceReduced
	p.IsComingSoon = l.IsComingSoon
}

// PropertyChange is one detected field transition, produced by the diff engine
// and consumed immediately by the persister. Its durable form is a
// property_history row.
type PropertyChange struct {
	PropertyID    uuid.UUID `json:"property_id"`
	FieldName     string    `json:"field_name"`
	PreviousValue *string   `json:"previous_value"`
	CurrentValue  string    `json:"current_value"`
}

// PropertyHistoryEntry is the append-only system of record for "what changed
// when". Immutable once written.
type PropertyHistoryEntry struct {
	ID            int64     `json:"id" db:"id"`
	PropertyID    uuid.UUID `json:"property_id" db:"property_id"`
	ObservedAt    time.Time `json:"observed_at" db:"observed_at"`
	FieldName     string    `json:"field_name" db:"field_name"`
	PreviousValue *string   `json:"previous_value" db:"previous_value"`
	CurrentValue  string    `json:"current_value" db:"current_value"`
}

// PropertySource links a tracked property to the source listing it was seen
// under. Unique per (source_name, source_listing_id); last writer wins on the
// property link.
type PropertySource struct {
	PropertyID      uuid.UUID `json:"property_id" db:"property_id"`
	SourceName      string    `json:"source_name" db:"source_name"`
	SourceListingID string    `json:"source_listing_id" db:"source_listing_id"`
	FirstSeenAt     time.Time `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt      time.Time `json:"last_seen_at" db:"last_seen_at"`
}
