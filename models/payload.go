package models

// RawPayload mirrors one property record as embedded in a scraped results page.
//
// payload
//  ├── source
//  │    ├── name
//  │    ├── id
//  │    └── listing_id
//  ├── location
//  │    ├── address { line, city, state_code, postal_code, country }
//  │    ├── county  { name, fips_code }
//  │    └── coordinate { lat, lon }
//  ├── description { beds, baths, lot_sqft, type, sold_date }
//  └── flags { is_pending, is_contingent, ... }
type RawPayload struct {
	Source      PayloadSource       `json:"source"`
	Location    PayloadLocation     `json:"location"`
	Description *PayloadDescription `json:"description"`

	Status    *string `json:"status"`
	ListPrice *int64  `json:"list_price"`
	SoldPrice *int64  `json:"sold_price"`

	Flags *PayloadFlags `json:"flags"`
}

type PayloadSource struct {
	Name      *string `json:"name"`
	ID        *string `json:"id"`
	ListingID *string `json:"listing_id"`
}

type PayloadLocation struct {
	Address    *PayloadAddress    `json:"address"`
	County     *PayloadCounty     `json:"county"`
	Coordinate *PayloadCoordinate `json:"coordinate"`
}

type PayloadAddress struct {
	Line       *string `json:"line"`
	City       *string `json:"city"`
	StateCode  *string `json:"state_code"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}

type PayloadCounty struct {
	Name     *string `json:"name"`
	FIPSCode *int64  `json:"fips_code"`
}

type PayloadCoordinate struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type PayloadDescription struct {
	Beds         *int64  `json:"beds"`
	Baths        *int64  `json:"baths"`
	LotSqFt      *int64  `json:"lot_sqft"`
	PropertyType *string `json:"type"`
	SoldDate     *string `json:"sold_date"`
}

type PayloadFlags struct {
	IsComingSoon   *bool `json:"is_coming_soon"`
	IsContingent   *bool `json:"is_contingent"`
	IsForeclosure  *bool `json:"is_foreclosure"`
	IsNewListing   *bool `json:"is_new_listing"`
	IsPending      *bool `json:"is_pending"`
	IsPriceReduced *bool `json:"is_price_reduced"`
}
