package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"propwatch/identity"
	"propwatch/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracked_properties (
		id TEXT PRIMARY KEY,
		address_line TEXT NOT NULL,
		city TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		address_key TEXT NOT NULL,
		city_key TEXT NOT NULL,
		postal_key TEXT NOT NULL,
		state_abbr TEXT,
		county_name TEXT,
		status TEXT,
		list_price INTEGER,
		sold_price INTEGER,
		sold_date DATETIME,
		is_pending BOOLEAN,
		is_contingent BOOLEAN,
		is_new_listing BOOLEAN,
		is_foreclosure BOOLEAN,
		is_price_reduced BOOLEAN,
		is_coming_soon BOOLEAN,
		first_seen_at DATETIME NOT NULL,
		last_seen_at DATETIME NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_tracked_properties_key
		ON tracked_properties(address_key, city_key, postal_key);

	CREATE TABLE IF NOT EXISTS property_history (
		id INTEGER PRIMARY KEY,
		property_id TEXT NOT NULL,
		observed_at DATETIME NOT NULL,
		field_name TEXT NOT NULL,
		previous_value TEXT,
		current_value TEXT NOT NULL,
		FOREIGN KEY (property_id) REFERENCES tracked_properties(id)
	);
	CREATE INDEX IF NOT EXISTS idx_property_history_observed
		ON property_history(observed_at);

	CREATE TABLE IF NOT EXISTS property_sources (
		property_id TEXT NOT NULL,
		source_name TEXT NOT NULL,
		source_listing_id TEXT NOT NULL,
		first_seen_at DATETIME NOT NULL,
		last_seen_at DATETIME NOT NULL,
		UNIQUE(source_name, source_listing_id),
		FOREIGN KEY (property_id) REFERENCES tracked_properties(id)
	);

	CREATE TABLE IF NOT EXISTS ingest_runs (
		id INTEGER PRIMARY KEY,
		target TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		pages_fetched INTEGER DEFAULT 0,
		pages_failed INTEGER DEFAULT 0,
		records_seen INTEGER DEFAULT 0,
		records_skipped INTEGER DEFAULT 0,
		properties_new INTEGER DEFAULT 0,
		changes_logged INTEGER DEFAULT 0,
		error_message TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS ingest_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		target TEXT
	);`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Batch (one transaction per page of records)
// =============================================================================

type sqliteBatch struct {
	tx   *sql.Tx
	done bool
}

func (s *SQLiteStore) Begin(ctx context.Context) (Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	return &sqliteBatch{tx: tx}, nil
}

func (b *sqliteBatch) Commit() error {
	b.done = true
	return b.tx.Commit()
}

func (b *sqliteBatch) Rollback() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.tx.Rollback()
}

const propertyColumns = `
	id, address_line, city, postal_code, state_abbr, county_name,
	status, list_price, sold_price, sold_date, is_pending, is_contingent,
	is_new_listing, is_foreclosure, is_price_reduced, is_coming_soon,
	first_seen_at, last_seen_at`

// propertyJoinColumns is the same list qualified with the tracked_properties
// alias, for queries that join property_sources (both tables carry
// first_seen_at/last_seen_at).
const propertyJoinColumns = `
	p.id, p.address_line, p.city, p.postal_code, p.state_abbr, p.county_name,
	p.status, p.list_price, p.sold_price, p.sold_date, p.is_pending, p.is_contingent,
	p.is_new_listing, p.is_foreclosure, p.is_price_reduced, p.is_coming_soon,
	p.first_seen_at, p.last_seen_at`

func scanProperty(row *sql.Row) (*models.TrackedProperty, error) {
	var p models.TrackedProperty
	err := row.Scan(
		&p.ID, &p.AddressLine, &p.City, &p.PostalCode, &p.StateAbbr, &p.CountyName,
		&p.Status, &p.ListPrice, &p.SoldPrice, &p.SoldDate, &p.IsPending, &p.IsContingent,
		&p.IsNewListing, &p.IsForeclosure, &p.IsPriceReduced, &p.IsComingSoon,
		&p.FirstSeenAt, &p.LastSeenAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (b *sqliteBatch) FindPropertyByAddressKey(ctx context.Context, key identity.Key) (*models.TrackedProperty, error) {
	row := b.tx.QueryRowContext(ctx, `
		SELECT `+propertyColumns+`
		FROM tracked_properties
		WHERE address_key = ? AND city_key = ? AND postal_key = ?`,
		key.AddressLine, key.City, key.PostalCode)
	return scanProperty(row)
}

func (b *sqliteBatch) FindPropertyBySource(ctx context.Context, sourceName, sourceListingID string) (*models.TrackedProperty, error) {
	row := b.tx.QueryRowContext(ctx, `
		SELECT `+propertyJoinColumns+`
		FROM tracked_properties p
		JOIN property_sources s ON s.property_id = p.id
		WHERE s.source_name = ? AND s.source_listing_id = ?`,
		sourceName, sourceListingID)
	return scanProperty(row)
}

func (b *sqliteBatch) InsertProperty(ctx context.Context, p *models.TrackedProperty) error {
	key := identity.KeyForProperty(p)
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO tracked_properties (
			id, address_line, city, postal_code, address_key, city_key, postal_key,
			state_abbr, county_name,
			status, list_price, sold_price, sold_date, is_pending, is_contingent,
			is_new_listing, is_foreclosure, is_price_reduced, is_coming_soon,
			first_seen_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AddressLine, p.City, p.PostalCode, key.AddressLine, key.City, key.PostalCode,
		p.StateAbbr, p.CountyName,
		p.Status, p.ListPrice, p.SoldPrice, p.SoldDate, p.IsPending, p.IsContingent,
		p.IsNewListing, p.IsForeclosure, p.IsPriceReduced, p.IsComingSoon,
		p.FirstSeenAt, p.LastSeenAt,
	)
	return err
}

func (b *sqliteBatch) UpdateTrackedFields(ctx context.Context, p *models.TrackedProperty) error {
	_, err := b.tx.ExecContext(ctx, `
		UPDATE tracked_properties SET
			state_abbr = ?, county_name = ?,
			status = ?, list_price = ?, sold_price = ?, sold_date = ?,
			is_pending = ?, is_contingent = ?, is_new_listing = ?, is_foreclosure = ?,
			is_price_reduced = ?, is_coming_soon = ?, last_seen_at = ?
		WHERE id = ?`,
		p.StateAbbr, p.CountyName,
		p.Status, p.ListPrice, p.SoldPrice, p.SoldDate,
		p.IsPending, p.IsContingent, p.IsNewListing, p.IsForeclosure,
		p.IsPriceReduced, p.IsComingSoon, p.LastSeenAt,
		p.ID,
	)
	return err
}

func (b *sqliteBatch) AppendHistory(ctx context.Context, observedAt time.Time, changes []models.PropertyChange) error {
	stmt, err := b.tx.PrepareContext(ctx, `
		INSERT INTO property_history (property_id, observed_at, field_name, previous_value, current_value)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx, c.PropertyID, observedAt, c.FieldName, c.PreviousValue, c.CurrentValue); err != nil {
			return err
		}
	}
	return nil
}

func (b *sqliteBatch) UpsertSource(ctx context.Context, src *models.PropertySource) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO property_sources (property_id, source_name, source_listing_id, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_name, source_listing_id) DO UPDATE SET
			property_id = excluded.property_id,
			last_seen_at = excluded.last_seen_at`,
		src.PropertyID, src.SourceName, src.SourceListingID, src.FirstSeenAt, src.LastSeenAt,
	)
	return err
}

func (b *sqliteBatch) TouchSource(ctx context.Context, sourceName, sourceListingID string, lastSeen time.Time) error {
	_, err := b.tx.ExecContext(ctx, `
		UPDATE property_sources SET last_seen_at = ?
		WHERE source_name = ? AND source_listing_id = ?`,
		lastSeen, sourceName, sourceListingID,
	)
	return err
}

// =============================================================================
// Change report reads
// =============================================================================

func (s *SQLiteStore) ChangeEventRows(ctx context.Context, stateAbbr string, year int) ([]models.ChangeEventRow, error) {
	// Year bounds as a half-open range so the observed_at index stays usable.
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			h.observed_at, h.field_name, h.previous_value, h.current_value,
			p.address_line, p.city, p.postal_code, p.state_abbr, p.county_name,
			p.list_price, p.sold_date, p.status,
			p.is_pending, p.is_contingent, p.is_coming_soon,
			p.is_new_listing, p.is_price_reduced, p.is_foreclosure
		FROM property_history h
		JOIN tracked_properties p ON h.property_id = p.id
		WHERE p.state_abbr = ?
			AND h.observed_at >= ? AND h.observed_at < ?
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

func (s *SQLiteStore) DistinctChangeYears(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT strftime('%Y', observed_at) AS year
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

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.IngestRun) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (target, started_at, status)
		VALUES (?, ?, ?)`,
		run.Target, run.StartedAt, run.Status)
	if err != nil {
		return err
	}
	run.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *models.IngestRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ingest_runs SET
			finished_at = ?, status = ?, pages_fetched = ?, pages_failed = ?,
			records_seen = ?, records_skipped = ?, properties_new = ?,
			changes_logged = ?, error_message = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.PagesFetched, run.PagesFailed,
		run.RecordsSeen, run.RecordsSkipped, run.PropertiesNew,
		run.ChangesLogged, run.ErrorMessage, run.ID)
	return err
}

func (s *SQLiteStore) AppendRunLog(ctx context.Context, runID *int64, level models.LogLevel, message, target string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_logs (run_id, timestamp, level, message, target)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), level, message, target)
	return err
}
