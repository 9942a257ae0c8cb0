package storage

import (
	"context"
	"time"

	"propwatch/identity"
	"propwatch/models"
)

// Store is the durable backend. Writes happen only through a Batch so that one
// page of records commits or rolls back as a unit; the read path takes no
// locks and never mutates.
type Store interface {
	// Begin opens one transactional batch. The returned handle is passed into
	// every pipeline stage and holds the connection only for the batch's
	// lifetime.
	Begin(ctx context.Context) (Batch, error)

	// ChangeEventRows returns status/list_price history entries for a state
	// and year, joined with current property context, newest first.
	ChangeEventRows(ctx context.Context, stateAbbr string, year int) ([]models.ChangeEventRow, error)
	// DistinctChangeYears lists the years present in history, newest first.
	DistinctChangeYears(ctx context.Context) ([]string, error)

	CreateRun(ctx context.Context, run *models.IngestRun) error
	UpdateRun(ctx context.Context, run *models.IngestRun) error
	AppendRunLog(ctx context.Context, runID *int64, level models.LogLevel, message, target string) error

	Close() error
}

// Batch is the transaction-scoped handle for one ingest batch. Commit makes
// every write visible at once; Rollback discards all of them. Rollback after
// Commit is a no-op, so callers may defer it.
type Batch interface {
	FindPropertyByAddressKey(ctx context.Context, key identity.Key) (*models.TrackedProperty, error)
	FindPropertyBySource(ctx context.Context, sourceName, sourceListingID string) (*models.TrackedProperty, error)

	InsertProperty(ctx context.Context, p *models.TrackedProperty) error
	UpdateTrackedFields(ctx context.Context, p *models.TrackedProperty) error

	AppendHistory(ctx context.Context, observedAt time.Time, changes []models.PropertyChange) error

	UpsertSource(ctx context.Context, src *models.PropertySource) error
	TouchSource(ctx context.Context, sourceName, sourceListingID string, lastSeen time.Time) error

	Commit() error
	Rollback() error
}
