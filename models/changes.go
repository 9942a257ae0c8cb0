package models

import "time"

// Change types surfaced in reports.
const (
	ChangeTypeStatus = "Status Change"
	ChangeTypePrice  = "Price Change"
)

// ChangeEventRow is one history entry joined with the owning property's
// current state, as read back for reporting. The flag and status columns are
// the property's *current* values, not a replay of history.
type ChangeEventRow struct {
	ObservedAt    time.Time
	FieldName     string
	PreviousValue *string
	CurrentValue  string

	AddressLine string
	City        string
	PostalCode  string
	StateAbbr   *string
	CountyName  *string

	ListPrice *int64
	SoldDate  *time.Time
	RawStatus *string

	IsPending      *bool
	IsContingent   *bool
	IsComingSoon   *bool
	IsNewListing   *bool
	IsPriceReduced *bool
	IsForeclosure  *bool
}

// ChangeViewModel is one reportable change event (status or price), enriched
// with property context. Computed on demand, never persisted.
type ChangeViewModel struct {
	ChangeDate    time.Time `json:"change_date"`
	ChangeType    string    `json:"change_type"`
	PreviousValue string    `json:"previous_value"`
	CurrentValue  string    `json:"current_value"`

	AddressFull string  `json:"address_full"`
	AddressLine string  `json:"address_line"`
	City        string  `json:"city"`
	CountyName  *string `json:"county_name"`
	StateAbbr   *string `json:"state_abbr"`
	PostalCode  string  `json:"postal_code"`

	Price           *int64 `json:"price"`
	CanonicalStatus string `json:"canonical_status"`

	IsReadyToBuild bool `json:"is_ready_to_build"`
	IsNewListing   bool `json:"is_new_listing"`
	IsPriceReduced bool `json:"is_price_reduced"`
	IsForeclosure  bool `json:"is_foreclosure"`

	// PriceReduction is previous minus current, set only when both sides of a
	// price change parse as integers.
	PriceReduction *int64 `json:"price_reduction"`
}
