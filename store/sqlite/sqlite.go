/*
Package sqlite persists resort data, settings profiles and quote history.

PURPOSE:
  The engine itself is stateless; this store is the Calendar Model provider
  and the home of everything the surrounding service keeps between calls.
  Resort documents are stored whole (as JSON) and rebuilt into a validated
  calendar.Model on demand through the factory.

KEY TABLES:
  resort_documents:  One row per resort, document JSON in the factory schema
  global_holidays:   Shared holiday dates, referenced by resort holidays
  settings_profiles: Saved owner/renter settings documents
  quotes:            Recorded quote results (append-only)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/stay.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  model, err := store.LoadCalendar(ctx)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - factory/resorts.go: document schema and model building
  - factory/settings.go: settings documents
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/factory"
	"github.com/warp/stay-engine/generic"
)

// Store persists documents, profiles and quotes in SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.ResortFactory
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, factory: factory.NewResortFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Resort documents (factory schema, one resort per row)
	CREATE TABLE IF NOT EXISTS resort_documents (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		doc_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Shared holiday dates
	CREATE TABLE IF NOT EXISTS global_holidays (
		year INTEGER NOT NULL,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		regions_json TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (year, name)
	);

	-- Saved settings
	CREATE TABLE IF NOT EXISTS settings_profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		settings_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_settings_profiles_name
		ON settings_profiles(name);

	-- Quote history (append-only)
	CREATE TABLE IF NOT EXISTS quotes (
		id TEXT PRIMARY KEY,
		resort_id TEXT NOT NULL,
		room_type TEXT NOT NULL,
		check_in TEXT NOT NULL,
		nights INTEGER NOT NULL,
		adjusted_check_in TEXT NOT NULL,
		adjusted_nights INTEGER NOT NULL,
		mode TEXT NOT NULL,
		total_points TEXT NOT NULL,
		net_cost TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quotes_resort_created
		ON quotes(resort_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RESORT DOCUMENTS
// =============================================================================

// ResortRecord is a stored resort document.
type ResortRecord struct {
	ID          string
	DisplayName string
	Doc         factory.ResortDoc
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SaveResortDocument inserts or replaces one resort.
func (s *Store) SaveResortDocument(ctx context.Context, doc factory.ResortDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveResort(ctx, s.db, doc)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveResort(ctx context.Context, db execer, doc factory.ResortDoc) error {
	if doc.ID == "" {
		return &generic.DocumentError{Path: "id", Message: "resort id is required"}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode resort %q: %w", doc.ID, err)
	}

	query := `
		INSERT INTO resort_documents (id, display_name, doc_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			doc_json = excluded.doc_json,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = db.ExecContext(ctx, query, doc.ID, doc.DisplayName, string(raw), now, now)
	return err
}

// GetResortDocument retrieves one resort by ID.
func (s *Store) GetResortDocument(ctx context.Context, id string) (*ResortRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, display_name, doc_json, created_at, updated_at FROM resort_documents WHERE id = ?", id)
	rec, err := scanResort(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &generic.UnknownResortError{ResortID: id}
	}
	return rec, err
}

// ListResortDocuments returns all resorts in insertion order.
func (s *Store) ListResortDocuments(ctx context.Context) ([]ResortRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listResorts(ctx)
}

func (s *Store) listResorts(ctx context.Context) ([]ResortRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, display_name, doc_json, created_at, updated_at FROM resort_documents ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResortRecord
	for rows.Next() {
		rec, err := scanResort(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResort(row scanner) (*ResortRecord, error) {
	var rec ResortRecord
	var raw, createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.DisplayName, &raw, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &rec.Doc); err != nil {
		return nil, fmt.Errorf("corrupt resort document %q: %w", rec.ID, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

// DeleteResortDocument removes a resort.
func (s *Store) DeleteResortDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM resort_documents WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.UnknownResortError{ResortID: id}
	}
	return nil
}

// =============================================================================
// GLOBAL HOLIDAYS
// =============================================================================

// SaveGlobalHoliday inserts or replaces the dates of a shared holiday.
func (s *Store) SaveGlobalHoliday(ctx context.Context, year int, name string, h factory.GlobalHolidayDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveGlobalHoliday(ctx, s.db, year, name, h)
}

func saveGlobalHoliday(ctx context.Context, db execer, year int, name string, h factory.GlobalHolidayDoc) error {
	if _, err := generic.ParseDate(h.StartDate); err != nil {
		return &generic.DocumentError{Path: fmt.Sprintf("global_holidays.%d.%s.start_date", year, name), Message: err.Error()}
	}
	if _, err := generic.ParseDate(h.EndDate); err != nil {
		return &generic.DocumentError{Path: fmt.Sprintf("global_holidays.%d.%s.end_date", year, name), Message: err.Error()}
	}
	regions, err := json.Marshal(h.Regions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO global_holidays (year, name, start_date, end_date, type, regions_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(year, name) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			type = excluded.type,
			regions_json = excluded.regions_json
	`
	_, err = db.ExecContext(ctx, query, year, name, h.StartDate, h.EndDate, h.Type, string(regions))
	return err
}

// ListGlobalHolidays returns every shared holiday keyed by year then name.
func (s *Store) ListGlobalHolidays(ctx context.Context) (factory.GlobalHolidays, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listGlobalHolidays(ctx)
}

func (s *Store) listGlobalHolidays(ctx context.Context) (factory.GlobalHolidays, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT year, name, start_date, end_date, type, regions_json FROM global_holidays ORDER BY year, start_date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(factory.GlobalHolidays)
	for rows.Next() {
		var year int
		var name, regions string
		var h factory.GlobalHolidayDoc
		if err := rows.Scan(&year, &name, &h.StartDate, &h.EndDate, &h.Type, &regions); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(regions), &h.Regions)

		key := strconv.Itoa(year)
		if out[key] == nil {
			out[key] = make(map[string]factory.GlobalHolidayDoc)
		}
		out[key][name] = h
	}
	return out, rows.Err()
}

// =============================================================================
// CALENDAR PROVIDER
// =============================================================================

// ImportDocument stores every resort and global holiday of a data document
// in one transaction. The document is validated first: nothing is written
// if it cannot be built into a calendar together with the stored data.
func (s *Store) ImportDocument(ctx context.Context, doc *factory.DataDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := s.mergedDocument(ctx, doc)
	if err != nil {
		return err
	}
	if _, err := s.factory.Build(merged); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for year, holidays := range doc.GlobalHolidays {
		y, err := strconv.Atoi(year)
		if err != nil {
			return &generic.DocumentError{Path: "global_holidays." + year, Message: "year key must be a number"}
		}
		for name, h := range holidays {
			if err := saveGlobalHoliday(ctx, tx, y, name, h); err != nil {
				return err
			}
		}
	}
	for _, rd := range doc.Resorts {
		if err := saveResort(ctx, tx, rd); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// mergedDocument overlays doc on the stored data, replacing resorts by id.
func (s *Store) mergedDocument(ctx context.Context, doc *factory.DataDocument) (*factory.DataDocument, error) {
	current, err := s.loadDocument(ctx)
	if err != nil {
		return nil, err
	}

	for year, holidays := range doc.GlobalHolidays {
		if current.GlobalHolidays[year] == nil {
			current.GlobalHolidays[year] = make(map[string]factory.GlobalHolidayDoc)
		}
		for name, h := range holidays {
			current.GlobalHolidays[year][name] = h
		}
	}

	index := make(map[string]int, len(current.Resorts))
	for i, rd := range current.Resorts {
		index[rd.ID] = i
	}
	for _, rd := range doc.Resorts {
		if i, ok := index[rd.ID]; ok {
			current.Resorts[i] = rd
			continue
		}
		index[rd.ID] = len(current.Resorts)
		current.Resorts = append(current.Resorts, rd)
	}
	return current, nil
}

// LoadDocument assembles the stored resorts and holidays into one document.
func (s *Store) LoadDocument(ctx context.Context) (*factory.DataDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadDocument(ctx)
}

func (s *Store) loadDocument(ctx context.Context) (*factory.DataDocument, error) {
	holidays, err := s.listGlobalHolidays(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.listResorts(ctx)
	if err != nil {
		return nil, err
	}

	doc := &factory.DataDocument{SchemaVersion: factory.SchemaVersion, GlobalHolidays: holidays}
	for _, rec := range records {
		doc.Resorts = append(doc.Resorts, rec.Doc)
	}
	return doc, nil
}

// LoadCalendar rebuilds a validated calendar from the stored documents.
func (s *Store) LoadCalendar(ctx context.Context) (*calendar.Model, error) {
	doc, err := s.LoadDocument(ctx)
	if err != nil {
		return nil, err
	}
	return s.factory.Build(doc)
}

// =============================================================================
// SETTINGS PROFILES
// =============================================================================

// ProfileRecord is a named, saved settings document.
type ProfileRecord struct {
	ID        string
	Name      string
	Settings  factory.SettingsDoc
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveProfile inserts or updates a profile.
func (s *Store) SaveProfile(ctx context.Context, p ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	query := `
		INSERT INTO settings_profiles (id, name, settings_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			settings_json = excluded.settings_json,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query, p.ID, p.Name, string(raw), now, now)
	return err
}

// GetProfile retrieves a profile by ID.
func (s *Store) GetProfile(ctx context.Context, id string) (*ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, settings_json, created_at, updated_at FROM settings_profiles WHERE id = ?", id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %q: %w", id, generic.ErrProfileNotFound)
	}
	return p, err
}

// ListProfiles returns all profiles ordered by name.
func (s *Store) ListProfiles(ctx context.Context) ([]ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, settings_json, created_at, updated_at FROM settings_profiles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProfileRecord
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProfile(row scanner) (*ProfileRecord, error) {
	var p ProfileRecord
	var raw, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &raw, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	settings, err := factory.ParseSettings([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("corrupt settings profile %q: %w", p.ID, err)
	}
	p.Settings = settings
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// DeleteProfile removes a profile.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM settings_profiles WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %q: %w", id, generic.ErrProfileNotFound)
	}
	return nil
}

// =============================================================================
// QUOTE HISTORY
// =============================================================================

// QuoteRecord summarizes a computed quote.
type QuoteRecord struct {
	ID              string
	ResortID        string
	RoomType        string
	CheckIn         generic.TimePoint
	Nights          int
	AdjustedCheckIn generic.TimePoint
	AdjustedNights  int
	Mode            string
	TotalPoints     decimal.Decimal
	NetCost         decimal.Decimal
	CreatedAt       time.Time
}

// SaveQuote appends a quote. Quotes are never updated.
func (s *Store) SaveQuote(ctx context.Context, q QuoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO quotes (id, resort_id, room_type, check_in, nights, adjusted_check_in,
			adjusted_nights, mode, total_points, net_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		q.ID, q.ResortID, q.RoomType,
		q.CheckIn.String(), q.Nights,
		q.AdjustedCheckIn.String(), q.AdjustedNights,
		q.Mode, q.TotalPoints.String(), q.NetCost.String(),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

const quoteColumns = `id, resort_id, room_type, check_in, nights, adjusted_check_in,
	adjusted_nights, mode, total_points, net_cost, created_at`

// GetQuote retrieves a quote by ID.
func (s *Store) GetQuote(ctx context.Context, id string) (*QuoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+quoteColumns+" FROM quotes WHERE id = ?", id)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quote %q: %w", id, generic.ErrQuoteNotFound)
	}
	return q, err
}

// ListQuotes returns the most recent quotes first. limit <= 0 means 100.
func (s *Store) ListQuotes(ctx context.Context, limit int) ([]QuoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+quoteColumns+" FROM quotes ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuoteRecord
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func scanQuote(row scanner) (*QuoteRecord, error) {
	var q QuoteRecord
	var checkIn, adjusted, points, cost, createdAt string
	err := row.Scan(&q.ID, &q.ResortID, &q.RoomType, &checkIn, &q.Nights, &adjusted,
		&q.AdjustedNights, &q.Mode, &points, &cost, &createdAt)
	if err != nil {
		return nil, err
	}
	q.CheckIn, _ = generic.ParseDate(checkIn)
	q.AdjustedCheckIn, _ = generic.ParseDate(adjusted)
	q.TotalPoints = generic.MustParseDecimal(points)
	q.NetCost = generic.MustParseDecimal(cost)
	q.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &q, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"quotes", "settings_profiles", "resort_documents", "global_holidays"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
