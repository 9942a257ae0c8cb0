package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"propwatch/identity"
	"propwatch/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// =============================================================================
// Batch
// =============================================================================

type pgBatch struct {
	tx   pgx.Tx
	done bool
}

func (s *PostgresStore) Begin(ctx context.Context) (Batch, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	return &pgBatch{tx: tx}, nil
}

func (b *pgBatch) Commit() error {
	b.done = true
	return b.tx.Commit(context.Background())
}

func (b *pgBatch) Rollback() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.tx.Rollback(context.Background())
}

func scanPgProperty(row pgx.Row) (*models.TrackedProperty, error) {
	var p models.TrackedProperty
	err := row.Scan(
		&p.ID, &p.AddressLine, &p.City, &p.PostalCode, &p.StateAbbr, &p.CountyName,
		&p.Status, &p.ListPrice, &p.SoldPrice, &p.SoldDate, &p.IsPending, &p.IsContingent,
		&p.IsNewListing, &p.IsForeclosure, &p.IsPriceReduced, &p.IsComingSoon,
		&p.FirstSeenAt, &p.LastSeenAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (b *pgBatch) FindPropertyByAddressKey(ctx context.Context, key identity.Key) (*models.TrackedProperty, error) {
	row := b.tx.QueryRow(ctx, `
		SELECT `+propertyColumns+`
		FROM tracked_properties
		WHERE address_key = $1 AND city_key = $2 AND postal_key = $3`,
		key.AddressLine, key.City, key.PostalCode)
	return scanPgProperty(row)
}

func (b *pgBatch) FindPropertyBySource(ctx context.Context, sourceName, sourceListingID string) (*models.TrackedProperty, error) {
	row := b.tx.QueryRow(ctx, `
		SELECT `+propertyJoinColumns+`
		FROM tracked_properties p
		JOIN property_sources s ON s.property_id = p.id
		WHERE s.source_name = $1 AND s.source_listing_id = $2`,
		sourceName, sourceListingID)
	return scanPgProperty(row)
}

func (b *pgBatch) InsertProperty(ctx context.Context, p *models.TrackedProperty) error {
	key := identity.KeyForProperty(p)
	_, err := b.tx.Exec(ctx, `
		INSERT INTO tracked_properties (
			id, address_line, city, postal_code, address_key, city_key, postal_key,
			state_abbr, county_name,
			status, list_price, sold_price, sold_date, is_pending, is_contingent,
			is_new_listing, is_foreclosure, is_price_reduced, is_coming_soon,
			first_seen_at, last_seen_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		p.ID, p.AddressLine, p.City, p.PostalCode, key.AddressLine, key.City, key.PostalCode,
		p.StateAbbr, p.CountyName,
		p.Status, p.ListPrice, p.SoldPrice, p.SoldDate, p.IsPending, p.IsContingent,
		p.IsNewListing, p.IsForeclosure, p.IsPriceReduced, p.IsComingSoon,
		p.FirstSeenAt, p.LastSeenAt,
	)
	return err
}

func (b *pgBatch) UpdateTrackedFields(ctx context.Context, p *models.TrackedProperty) error {
	_, err := b.tx.Exec(ctx, `
		UPDATE tracked_properties SET
			state_abbr = $2, county_name = $3,
			status = $4, list_price = $5, sold_price = $6, sold_date = $7,
			is_pending = $8, is_contingent = $9, is_new_listing = $10, is_foreclosure = $11,
			is_price_reduced = $12, is_coming_soon = $13, last_seen_at = $14
		WHERE id = $1`,
		p.ID, p.StateAbbr, p.CountyName,
		p.Status, p.ListPrice, p.SoldPrice, p.SoldDate,
		p.IsPending, p.IsContingent, p.IsNewListing, p.IsForeclosure,
		p.IsPriceReduced, p.IsComingSoon, p.LastSeenAt,
	)
	return err
}

func (b *pgBatch) AppendHistory(ctx context.Context, observedAt time.Time, changes []models.PropertyChange) error {
	for _, c := range changes {
		_, err := b.tx.Exec(ctx, `
			INSERT INTO property_history (property_id, observed_at, field_name, previous_value, current_value)
			VALUES ($1, $2, $3, $4, $5)`,
			c.PropertyID, observedAt, c.FieldName, c.PreviousValue, c.CurrentValue)
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *pgBatch) UpsertSource(ctx context.Context, src *models.PropertySource) error {
	_, err := b.tx.Exec(ctx, `
		INSERT INTO property_sources (property_id, source_name, source_listing_id, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_name, source_listing_id) DO UPDATE SET
			property_id = EXCLUDED.property_id,
			last_seen_at = EXCLUDED.last_seen_at`,
		src.PropertyID, src.SourceName, src.SourceListingID, src.FirstSeenAt, src.LastSeenAt,
	)
	return err
}

func (b *pgBatch) TouchSource(ctx context.Context, sourceName, sourceListingID string, lastSeen time.Time) error {
	_, err := b.tx.Exec(ctx, `
		UPDATE property_sources SET last_seen_at = $1
		WHERE source_name = $2 AND source_listing_id = $3`,
		lastSeen, sourceName, sourceListingID,
	)
	return err
}

// =============================================================================
// Change report reads
// =============================================================================

func (s *PostgresStore) ChangeEventRows(ctx context.Context, stateAbbr string, year int) ([]models.ChangeEventRow, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	rows, err := s.pool.Query(ctx, `
		SELECT
			h.observed_at, h.field_name, h.previous_value, h.current_value,
			p.address_line, p.city, p.postal_code, p.state_abbr, p.county_name,
			p.list_price, p.sold_date, p.status,
			p.is_pending, p.is_contingent, p.is_coming_soon,
			p.is_new_listing, p.is_price_reduced, p.is_foreclosure
		FROM property_history h
		JOIN tracked_properties p ON h.property_id = p.id
		WHERE p.state_abbr = $1
			AND h.observed_at >= $2 AND h.observed_at < $3
			AND h.field_name IN ('status', 'list_price')
		ORDER BY h.observed_at DESC`,
		stateAbbr, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ChangeEventRow
	for rows.Next() {
		var r models.ChangeEventRow
		if err := rows.Scan(
			&r.ObservedAt, &r.FieldName, &r.PreviousValue, &r.CurrentValue,
			&r.AddressLine, &r.City, &r.PostalCode, &r.StateAbbr, &r.CountyName,
			&r.ListPrice, &r.SoldDate, &r.RawStatus,
			&r.IsPending, &r.IsContingent, &r.IsComingSoon,
			&r.IsNewListing, &r.IsPriceReduced, &r.IsForeclosure,
		); err != nil {
			return nil, err
		}
		events = append(events, r)
	}
	return events, rows.Err()
}

func (s *PostgresStore) DistinctChangeYears(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT to_char(observed_at, 'YYYY') AS year
		FROM property_history
		ORDER BY year DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var years []string
	for rows.Next() {
		var year string
		if err := rows.Scan(&year); err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

// =============================================================================
// Runs and logs
// =============================================================================

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.IngestRun) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO ingest_runs (target, started_at, status)
		VALUES ($1, $2, $3)
		RETURNING id`,
		run.Target, run.StartedAt, run.Status,
	).Scan(&run.ID)
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *models.IngestRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE ingest_runs SET
			finished_at = $2, status = $3, pages_fetched = $4, pages_failed = $5,
			records_seen = $6, records_skipped = $7, properties_new = $8,
			changes_logged = $9, error_message = $10
		WHERE id = $1`,
		run.ID, run.FinishedAt, run.Status, run.PagesFetched, run.PagesFailed,
		run.RecordsSeen, run.RecordsSkipped, run.PropertiesNew,
		run.ChangesLogged, run.ErrorMessage)
	return err
}

func (s *PostgresStore) AppendRunLog(ctx context.Context, runID *int64, level models.LogLevel, message, target string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_logs (run_id, timestamp, level, message, target)
		VALUES ($1, $2, $3, $4, $5)`,
		runID, time.Now().UTC(), level, message, target)
	return err
}
