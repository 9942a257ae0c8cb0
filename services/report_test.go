package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"propwatch/models"
)

func statusRow() models.ChangeEventRow {
	return models.ChangeEventRow{
		ObservedAt:    time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
		FieldName:     "status",
		PreviousValue: strPtr("for_sale"),
		CurrentValue:  "pending",

		AddressLine: "123 Main St",
		City:        "Charlotte",
		PostalCode:  "28202",
		StateAbbr:   strPtr("NC"),
		CountyName:  strPtr("Mecklenburg"),

		ListPrice: intPtr(450000),
		RawStatus: strPtr("pending"),
		IsPending: boolPtr(true),
	}
}

func TestBuildChangeViewStatus(t *testing.T) {
	row := statusRow()
	view := BuildChangeView(&row)

	assert.Equal(t, models.ChangeTypeStatus, view.ChangeType)
	// Raw values are replaced by derived canonical statuses.
	assert.Equal(t, StatusActive, view.PreviousValue)
	assert.Equal(t, StatusPending, view.CurrentValue)
	assert.Equal(t, StatusPending, view.CanonicalStatus)

	assert.Equal(t, "123 Main St, Charlotte, NC 28202", view.AddressFull)
	require.NotNil(t, view.Price)
	assert.Equal(t, int64(450000), *view.Price)
	assert.Nil(t, view.PriceReduction)
}

func TestBuildChangeViewPrice(t *testing.T) {
	row := statusRow()
	row.FieldName = "list_price"
	row.PreviousValue = strPtr("500000")
	row.CurrentValue = "495000"
	row.IsPending = nil
	row.RawStatus = strPtr("for_sale")
	row.IsPriceReduced = boolPtr(true)

	view := BuildChangeView(&row)

	assert.Equal(t, models.ChangeTypePrice, view.ChangeType)
	// Price rows keep the raw numbers.
	assert.Equal(t, "500000", view.PreviousValue)
	assert.Equal(t, "495000", view.CurrentValue)
	require.NotNil(t, view.PriceReduction)
	assert.Equal(t, int64(5000), *view.PriceReduction)
	assert.True(t, view.IsPriceReduced)
	assert.Equal(t, StatusActive, view.CanonicalStatus)
}

func TestBuildChangeViewPriceNoPrevious(t *testing.T) {
	row := statusRow()
	row.FieldName = "list_price"
	row.PreviousValue = nil
	row.CurrentValue = "495000"

	view := BuildChangeView(&row)

	assert.Equal(t, "", view.PreviousValue)
	assert.Nil(t, view.PriceReduction, "no reduction when one side is missing")
}

func TestBuildChangeViewMissingState(t *testing.T) {
	row := statusRow()
	row.StateAbbr = nil

	view := BuildChangeView(&row)
	assert.Equal(t, "123 Main St, Charlotte,  28202", view.AddressFull)
	assert.Nil(t, view.StateAbbr)
}

func TestBuildChangeViewReadyToBuild(t *testing.T) {
	row := statusRow()
	row.IsPending = nil
	row.RawStatus = strPtr("ready_to_build")
	row.PreviousValue = strPtr("ready_to_build")
	row.CurrentValue = "ready_to_build"

	view := BuildChangeView(&row)
	assert.True(t, view.IsReadyToBuild)
	assert.Equal(t, StatusActive, view.CanonicalStatus)
}

func TestBuildChangeViewSoldOverridesPrevious(t *testing.T) {
	// The flags and sold_date on the row are the property's current values, so
	// a sold property reports Sold on both sides of its status change.
	row := statusRow()
	sold := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	row.SoldDate = &sold
	row.IsPending = nil
	row.RawStatus = strPtr("sold")

	view := BuildChangeView(&row)
	assert.Equal(t, StatusSold, view.PreviousValue)
	assert.Equal(t, StatusSold, view.CurrentValue)
}
