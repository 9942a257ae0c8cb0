package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"propwatch/identity"
	"propwatch/models"
	"propwatch/storage"
)

// fakeStore is an in-memory Store whose batches write straight through.
// Commit and rollback are recorded so tests can assert on batch lifecycle.
type fakeStore struct {
	properties map[identity.Key]*models.TrackedProperty
	sources    map[string]*models.PropertySource
	history    []models.PropertyChange

	batches   []*fakeBatch
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		properties: make(map[identity.Key]*models.TrackedProperty),
		sources:    make(map[string]*models.PropertySource),
	}
}

func (s *fakeStore) Begin(ctx context.Context) (storage.Batch, error) {
	b := &fakeBatch{store: s}
	s.batches = append(s.batches, b)
	return b, nil
}

func (s *fakeStore) ChangeEventRows(ctx context.Context, stateAbbr string, year int) ([]models.ChangeEventRow, error) {
	return nil, nil
}

func (s *fakeStore) DistinctChangeYears(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *fakeStore) CreateRun(ctx context.Context, run *models.IngestRun) error {
	return nil
}

func (s *fakeStore) UpdateRun(ctx context.Context, run *models.IngestRun) error {
	return nil
}

func (s *fakeStore) AppendRunLog(ctx context.Context, runID *int64, level models.LogLevel, message, target string) error {
	return nil
}

func (s *fakeStore) Close() error {
	return nil
}

type fakeBatch struct {
	store      *fakeStore
	committed  bool
	rolledBack bool
}

func (b *fakeBatch) FindPropertyByAddressKey(ctx context.Context, key identity.Key) (*models.TrackedProperty, error) {
	if p, ok := b.store.properties[key]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (b *fakeBatch) FindPropertyBySource(ctx context.Context, sourceName, sourceListingID string) (*models.TrackedProperty, error) {
	src, ok := b.store.sources[sourceName+"|"+sourceListingID]
	if !ok {
		return nil, nil
	}
	for _, p := range b.store.properties {
		if p.ID == src.PropertyID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (b *fakeBatch) InsertProperty(ctx context.Context, p *models.TrackedProperty) error {
	if b.store.insertErr != nil {
		return b.store.insertErr
	}
	cp := *p
	b.store.properties[identity.KeyForProperty(p)] = &cp
	return nil
}

func (b *fakeBatch) UpdateTrackedFields(ctx context.Context, p *models.TrackedProperty) error {
	cp := *p
	b.store.properties[identity.KeyForProperty(p)] = &cp
	return nil
}

func (b *fakeBatch) AppendHistory(ctx context.Context, observedAt time.Time, changes []models.PropertyChange) error {
	b.store.history = append(b.store.history, changes...)
	return nil
}

func (b *fakeBatch) UpsertSource(ctx context.Context, src *models.PropertySource) error {
	cp := *src
	b.store.sources[src.SourceName+"|"+src.SourceListingID] = &cp
	return nil
}

func (b *fakeBatch) TouchSource(ctx context.Context, sourceName, sourceListingID string, lastSeen time.Time) error {
	if src, ok := b.store.sources[sourceName+"|"+sourceListingID]; ok {
		src.LastSeenAt = lastSeen
	}
	return nil
}

func (b *fakeBatch) Commit() error {
	b.committed = true
	return nil
}

func (b *fakeBatch) Rollback() error {
	if !b.committed {
		b.rolledBack = true
	}
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(v int64) *int64   { return &v }
func boolPtr(v bool) *bool    { return &v }

func payload(listingID, line, city, postal string, price int64) models.RawPayload {
	return models.RawPayload{
		Source: models.PayloadSource{
			Name:      strPtr("realtor"),
			ListingID: strPtr(listingID),
		},
		Location: models.PayloadLocation{
			Address: &models.PayloadAddress{
				Line:       strPtr(line),
				City:       strPtr(city),
				StateCode:  strPtr("NC"),
				PostalCode: strPtr(postal),
			},
		},
		Status:    strPtr("for_sale"),
		ListPrice: intPtr(price),
		Flags: &models.PayloadFlags{
			IsPending: boolPtr(false),
		},
	}
}

func TestProcessBatchNewProperty(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store, identity.StrategyAddress)

	result, err := svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-1", "123 Main St", "Charlotte", "28202", 450000),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RecordsSeen)
	assert.Equal(t, 0, result.RecordsSkipped)
	assert.Equal(t, 1, result.PropertiesNew)
	assert.Equal(t, 0, result.PropertiesUpdated)

	require.Len(t, store.properties, 1)
	require.Len(t, store.sources, 1)

	// Initial state is seeded: status, list_price, is_pending were present.
	assert.Equal(t, 3, result.ChangesLogged)
	require.Len(t, store.history, 3)
	for _, c := range store.history {
		assert.Nil(t, c.PreviousValue, "seeded entries carry no previous value")
	}

	require.Len(t, store.batches, 1)
	assert.True(t, store.batches[0].committed)
	assert.False(t, store.batches[0].rolledBack)
}

func TestProcessBatchIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store, identity.StrategyAddress)
	batch := []models.RawPayload{payload("L-1", "123 Main St", "Charlotte", "28202", 450000)}

	_, err := svc.ProcessBatch(context.Background(), batch)
	require.NoError(t, err)

	seeded := len(store.history)
	result, err := svc.ProcessBatch(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, 0, result.PropertiesNew, "second sighting must not create a property")
	assert.Equal(t, 0, result.PropertiesUpdated)
	assert.Equal(t, 0, result.ChangesLogged)
	assert.Len(t, store.properties, 1)
	assert.Len(t, store.history, seeded, "identical data must not append history")
}

func TestProcessBatchDetectsChange(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store, identity.StrategyAddress)

	_, err := svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-1", "123 Main St", "Charlotte", "28202", 500000),
	})
	require.NoError(t, err)
	seeded := len(store.history)

	result, err := svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-1", "123 Main St", "Charlotte", "28202", 495000),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.PropertiesUpdated)
	assert.Equal(t, 1, result.ChangesLogged)
	require.Len(t, store.history, seeded+1)

	change := store.history[len(store.history)-1]
	assert.Equal(t, "list_price", change.FieldName)
	require.NotNil(t, change.PreviousValue)
	assert.Equal(t, "500000", *change.PreviousValue)
	assert.Equal(t, "495000", change.CurrentValue)

	// Current state reflects the new price.
	p := store.properties[identity.Key{AddressLine: "123 main st", City: "charlotte", PostalCode: "28202"}]
	require.NotNil(t, p)
	require.NotNil(t, p.ListPrice)
	assert.Equal(t, int64(495000), *p.ListPrice)
}

func TestProcessBatchAddressVariantsCollapse(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store, identity.StrategyAddress)

	_, err := svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-1", "123 Main Street", "Charlotte", "28202", 450000),
	})
	require.NoError(t, err)

	result, err := svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-2", "123 MAIN ST", "charlotte", "28202", 450000),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.PropertiesNew, "address variants must resolve to one property")
	assert.Len(t, store.properties, 1)
}

func TestProcessBatchSkipsInvalidRecords(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store, identity.StrategyAddress)

	bad := payload("L-2", "9 Oak Ave", "Charlotte", "28205", 300000)
	bad.Location.Address.PostalCode = nil

	result, err := svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-1", "123 Main St", "Charlotte", "28202", 450000),
		bad,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RecordsSeen)
	assert.Equal(t, 1, result.RecordsSkipped)
	assert.Equal(t, 1, result.PropertiesNew)
	assert.Len(t, store.properties, 1)
}

func TestProcessBatchAllInvalid(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store, identity.StrategyAddress)

	bad := payload("L-1", "123 Main St", "Charlotte", "28202", 450000)
	bad.Location.Address = nil

	result, err := svc.ProcessBatch(context.Background(), []models.RawPayload{bad})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RecordsSkipped)
	assert.Empty(t, store.batches, "no transaction when nothing survives validation")
}

func TestProcessBatchRollsBackOnStorageError(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("disk full")
	svc := NewIngestService(store, identity.StrategyAddress)

	_, err := svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-1", "123 Main St", "Charlotte", "28202", 450000),
	})
	require.Error(t, err)

	require.Len(t, store.batches, 1)
	assert.True(t, store.batches[0].rolledBack)
	assert.False(t, store.batches[0].committed)
}

func TestProcessBatchSourceLinkFollowsLatestMatch(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store, identity.StrategyAddress)

	// The same source listing resolves to two different properties over time
	// (a relist at a new address, say). The link must end up on the later one.
	_, err := svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-1", "123 Main St", "Charlotte", "28202", 450000),
	})
	require.NoError(t, err)

	_, err = svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-1", "77 Pine Rd", "Charlotte", "28205", 390000),
	})
	require.NoError(t, err)

	require.Len(t, store.properties, 2)
	require.Len(t, store.sources, 1, "one row per (source_name, source_listing_id)")

	second := store.properties[identity.Key{AddressLine: "77 pine rd", City: "charlotte", PostalCode: "28205"}]
	require.NotNil(t, second)
	assert.Equal(t, second.ID, store.sources["realtor|L-1"].PropertyID)
}

func TestProcessBatchSourceStrategy(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store, identity.StrategySource)

	_, err := svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-1", "123 Main St", "Charlotte", "28202", 450000),
	})
	require.NoError(t, err)

	// Same listing id, address drifted: the source link still resolves it.
	result, err := svc.ProcessBatch(context.Background(), []models.RawPayload{
		payload("L-1", "123 Main St Unit A", "Charlotte", "28202", 450000),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.PropertiesNew)
	assert.Len(t, store.properties, 1)
}
