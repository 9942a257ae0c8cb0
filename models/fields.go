package models

import (
	"strconv"
	"time"
)

// FieldTimeLayout is how date-valued tracked fields are rendered into history
// rows. Second precision; matches what the diff engine compares on.
const FieldTimeLayout = "2006-01-02 15:04:05"

// TrackedField describes one of the ten tracked attributes. Both accessors
// return the field rendered as history text plus whether it is present, so the
// same table drives the diff engine and the initial-state seeder.
type TrackedField struct {
	Name        string
	FromTracked func(*TrackedProperty) (string, bool)
	FromListing func(*NormalizedListing) (string, bool)
}

// TrackedFields is the canonical field list. The order is fixed: it determines
// the order of history entries within a single observation.
var TrackedFields = []TrackedField{
	{
		Name:        "status",
		FromTracked: func(p *TrackedProperty) (string, bool) { return strVal(p.Status) },
		FromListing: func(l *NormalizedListing) (string, bool) { return strVal(l.Status) },
	},
	{
		Name:        "list_price",
		FromTracked: func(p *TrackedProperty) (string, bool) { return intVal(p.ListPrice) },
		FromListing: func(l *NormalizedListing) (string, bool) { return intVal(l.ListPrice) },
	},
	{
		Name:        "sold_price",
		FromTracked: func(p *TrackedProperty) (string, bool) { return intVal(p.SoldPrice) },
		FromListing: func(l *NormalizedListing) (string, bool) { return intVal(l.SoldPrice) },
	},
	{
		Name:        "sold_date",
		FromTracked: func(p *TrackedProperty) (string, bool) { return timeVal(p.SoldDate) },
		FromListing: func(l *NormalizedListing) (string, bool) { return timeVal(l.SoldDate) },
	},
	{
		Name:        "is_pending",
		FromTracked: func(p *TrackedProperty) (string, bool) { return boolVal(p.IsPending) },
		FromListing: func(l *NormalizedListing) (string, bool) { return boolVal(l.IsPending) },
	},
	{
		Name:        "is_contingent",
		FromTracked: func(p *TrackedProperty) (string, bool) { return boolVal(p.IsContingent) },
		FromListing: func(l *NormalizedListing) (string, bool) { return boolVal(l.IsContingent) },
	},
	{
		Name:        "is_new_listing",
		FromTracked: func(p *TrackedProperty) (string, bool) { return boolVal(p.IsNewListing) },
		FromListing: func(l *NormalizedListing) (string, bool) { return boolVal(l.IsNewListing) },
	},
	{
		Name:        "is_foreclosure",
		FromTracked: func(p *TrackedProperty) (string, bool) { return boolVal(p.IsForeclosure) },
		FromListing: func(l *NormalizedListing) (string, bool) { return boolVal(l.IsForeclosure) },
	},
	{
		Name:        "is_price_reduced",
		FromTracked: func(p *TrackedProperty) (string, bool) { return boolVal(p.IsPriceReduced) },
		FromListing: func(l *NormalizedListing) (string, bool) { return boolVal(l.IsPriceReduced) },
	},
	{
		Name:        "is_coming_soon",
		FromTracked: func(p *TrackedProperty) (string, bool) { return boolVal(p.IsComingSoon) },
		FromListing: func(l *NormalizedListing) (string, bool) { return boolVal(l.IsComingSoon) },
	},
}

func strVal(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	return *v, true
}

func intVal(v *int64) (string, bool) {
	if v == nil {
		return "", false
	}
	return strconv.FormatInt(*v, 10), true
}

func boolVal(v *bool) (string, bool) {
	if v == nil {
		return "", false
	}
	return strconv.FormatBool(*v), true
}

func timeVal(v *time.Time) (string, bool) {
	if v == nil {
		return "", false
	}
	return v.Format(FieldTimeLayout), true
}
