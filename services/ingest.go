package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"propwatch/identity"
	"propwatch/models"
	"propwatch/normalize"
	"propwatch/storage"
)

// IngestService runs the normalize -> resolve -> diff -> persist pipeline for
// batches of raw payloads.
type IngestService struct {
	store    storage.Store
	strategy identity.Strategy
	now      func() time.Time
}

// NewIngestService creates a new IngestService
func NewIngestService(store storage.Store, strategy identity.Strategy) *IngestService {
	return &IngestService{
		store:    store,
		strategy: strategy,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// BatchResult contains the outcome of processing one batch
type BatchResult struct {
	RecordsSeen       int
	RecordsSkipped    int
	PropertiesNew     int
	PropertiesUpdated int
	ChangesLogged     int
}

// ProcessBatch runs one batch of raw payloads through the pipeline inside a
// single transaction. Records that fail validation are skipped and counted;
// any storage error rolls back the whole batch so the current-state table and
// the history log never drift apart.
func (s *IngestService) ProcessBatch(ctx context.Context, payloads []models.RawPayload) (*BatchResult, error) {
	result := &BatchResult{RecordsSeen: len(payloads)}

	listings := make([]*models.NormalizedListing, 0, len(payloads))
	for i := range payloads {
		l, err := normalize.Listing(&payloads[i])
		if err != nil {
			log.Printf("Skipping record: %v", err)
			result.RecordsSkipped++
			continue
		}
		listings = append(listings, l)
	}

	if len(listings) == 0 {
		return result, nil
	}

	batch, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer batch.Rollback()

	for _, l := range listings {
		if err := s.processOne(ctx, batch, l, result); err != nil {
			return nil, fmt.Errorf("process %s, %s: %w", l.AddressLine, l.City, err)
		}
	}

	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return result, nil
}

func (s *IngestService) processOne(ctx context.Context, batch storage.Batch, l *models.NormalizedListing, result *BatchResult) error {
	now := s.now()

	existing, err := s.resolve(ctx, batch, l)
	if err != nil {
		return fmt.Errorf("resolve property: %w", err)
	}

	if existing == nil {
		// First sighting: create the row and seed its history.
		p := &models.TrackedProperty{
			ID:          uuid.New(),
			AddressLine: l.AddressLine,
			City:        l.City,
			PostalCode:  l.PostalCode,
			FirstSeenAt: now,
			LastSeenAt:  now,
		}
		p.ApplyListing(l)

		if err := batch.InsertProperty(ctx, p); err != nil {
			return fmt.Errorf("insert property: %w", err)
		}

		seed := models.InitialChanges(p.ID, l)
		if err := batch.AppendHistory(ctx, now, seed); err != nil {
			return fmt.Errorf("log initial state: %w", err)
		}

		src := &models.PropertySource{
			PropertyID:      p.ID,
			SourceName:      l.SourceName,
			SourceListingID: l.SourceListingID,
			FirstSeenAt:     now,
			LastSeenAt:      now,
		}
		if err := batch.UpsertSource(ctx, src); err != nil {
			return fmt.Errorf("upsert source: %w", err)
		}

		result.PropertiesNew++
		result.ChangesLogged += len(seed)
		return nil
	}

	changes := existing.Diff(l)
	if len(changes) > 0 {
		if err := batch.AppendHistory(ctx, now, changes); err != nil {
			return fmt.Errorf("log changes: %w", err)
		}
		existing.ApplyListing(l)
		existing.LastSeenAt = now
		if err := batch.UpdateTrackedFields(ctx, existing); err != nil {
			return fmt.Errorf("update property: %w", err)
		}
		result.PropertiesUpdated++
		result.ChangesLogged += len(changes)
	}

	// The source link's last_seen_at is refreshed on every sighting, changed
	// or not.
	if err := batch.TouchSource(ctx, l.SourceName, l.SourceListingID, now); err != nil {
		return fmt.Errorf("touch source: %w", err)
	}
	return nil
}

// resolve looks up the tracked property this listing refers to, or nil when it
// is new. The source strategy trusts the (source_name, source_listing_id) link
// first and falls back to the address key for listings not seen before.
func (s *IngestService) resolve(ctx context.Context, batch storage.Batch, l *models.NormalizedListing) (*models.TrackedProperty, error) {
	if s.strategy == identity.StrategySource {
		p, err := batch.FindPropertyBySource(ctx, l.SourceName, l.SourceListingID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return batch.FindPropertyByAddressKey(ctx, identity.KeyFor(l))
}
