package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"propwatch/models"
	"propwatch/storage"
)

// ReportService builds change reports from persisted history.
type ReportService struct {
	store storage.Store
}

// NewReportService creates a new ReportService
func NewReportService(store storage.Store) *ReportService {
	return &ReportService{store: store}
}

// ChangeEvents returns the status and price change events for a state and
// year, newest first, enriched with current property context.
func (s *ReportService) ChangeEvents(ctx context.Context, stateAbbr string, year int) ([]models.ChangeViewModel, error) {
	rows, err := s.store.ChangeEventRows(ctx, stateAbbr, year)
	if err != nil {
		return nil, fmt.Errorf("load change events: %w", err)
	}

	views := make([]models.ChangeViewModel, 0, len(rows))
	for i := range rows {
		views = append(views, BuildChangeView(&rows[i]))
	}
	return views, nil
}

// RecentChanges returns the newest change events across the current year,
// limited to the last `days` days and capped at 15 entries for the preview.
func (s *ReportService) RecentChanges(ctx context.Context, stateAbbr string, days int) ([]models.ChangeViewModel, error) {
	now := time.Now().UTC()
	all, err := s.ChangeEvents(ctx, stateAbbr, now.Year())
	if err != nil {
		return nil, err
	}

	cutoff := now.AddDate(0, 0, -days)
	recent := make([]models.ChangeViewModel, 0, 15)
	for _, c := range all {
		if c.ChangeDate.Before(cutoff) {
			continue
		}
		recent = append(recent, c)
		if len(recent) == 15 {
			break
		}
	}
	return recent, nil
}

// Years lists the years for which history exists, newest first.
func (s *ReportService) Years(ctx context.Context) ([]string, error) {
	return s.store.DistinctChangeYears(ctx)
}

// BuildChangeView maps one joined history row to its report view. Status rows
// get their raw values replaced by derived canonical statuses; price rows keep
// the raw numbers and compute the reduction when both sides parse.
//
// The previous status is derived from the row's current flag values zeroed
// out: the flags are not versioned in history, so only the raw status itself
// is replayed.
func BuildChangeView(r *models.ChangeEventRow) models.ChangeViewModel {
	currentStatus := DeriveStatus(
		r.SoldDate,
		boolOr(r.IsPending, false),
		boolOr(r.IsContingent, false),
		boolOr(r.IsComingSoon, false),
		r.RawStatus,
	)

	var changeType, previous, current string
	var priceReduction *int64

	if r.FieldName == "status" {
		changeType = models.ChangeTypeStatus
		previous = DeriveStatus(r.SoldDate, false, false, false, r.PreviousValue)
		current = currentStatus
	} else {
		changeType = models.ChangeTypePrice
		if r.PreviousValue != nil {
			previous = *r.PreviousValue
		}
		current = r.CurrentValue

		prev, prevErr := strconv.ParseInt(previous, 10, 64)
		curr, currErr := strconv.ParseInt(current, 10, 64)
		if prevErr == nil && currErr == nil {
			d := prev - curr
			priceReduction = &d
		}
	}

	stateAbbr := ""
	if r.StateAbbr != nil {
		stateAbbr = *r.StateAbbr
	}

	return models.ChangeViewModel{
		ChangeDate:    r.ObservedAt,
		ChangeType:    changeType,
		PreviousValue: previous,
		CurrentValue:  current,

		AddressFull: fmt.Sprintf("%s, %s, %s %s", r.AddressLine, r.City, stateAbbr, r.PostalCode),
		AddressLine: r.AddressLine,
		City:        r.City,
		CountyName:  r.CountyName,
		StateAbbr:   r.StateAbbr,
		PostalCode:  r.PostalCode,

		Price:           r.ListPrice,
		CanonicalStatus: currentStatus,

		IsReadyToBuild: r.RawStatus != nil && *r.RawStatus == "ready_to_build",
		IsNewListing:   boolOr(r.IsNewListing, false),
		IsPriceReduced: boolOr(r.IsPriceReduced, false),
		IsForeclosure:  boolOr(r.IsForeclosure, false),

		PriceReduction: priceReduction,
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
