package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/wtsks/propsync/internal/model"
)

// DBFileName is the SQLite file created inside the database directory.
const DBFileName = "propsync.db"

// markerValue is stored under a profile's marker key once a listing is evaluated.
const markerValue = "1"

// runTimeLayout keeps started_at sortable as text.
const runTimeLayout = "2006-01-02 15:04:05.000000000"

// Store provides SQLite-based storage for entities, listings and sync runs.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers don't block on the writer.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Taxonomy entities: builders and communities
	CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		alternate_title TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'publish',
		address TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind, status, title);

	-- Listings imported from the MLS
	CREATE TABLE IF NOT EXISTS listings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'publish',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Single-valued listing meta fields
	CREATE TABLE IF NOT EXISTS listing_meta (
		listing_id INTEGER NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		meta_key TEXT NOT NULL,
		meta_value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (listing_id, meta_key)
	);

	CREATE INDEX IF NOT EXISTS idx_meta_key ON listing_meta(meta_key);

	-- Batch-sync runs
	CREATE TABLE IF NOT EXISTS sync_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		processed INTEGER NOT NULL DEFAULT 0,
		summary TEXT,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON sync_runs(started_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertEntity inserts e when e.ID is zero, or replaces the stored entity
// with the same ID. It returns the entity's ID.
func (s *Store) UpsertEntity(ctx context.Context, e *model.Entity) (int64, error) {
	if !e.Kind.Valid() {
		return 0, fmt.Errorf("failed to upsert entity %q: %w", e.Title, model.ErrUnknownKind)
	}
	status := e.Status
	if status == "" {
		status = model.StatusPublish
	}

	if e.ID == 0 {
		result, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (kind, title, alternate_title, status, address)
		VALUES (?, ?, ?, ?, ?)
		`, e.Kind.String(), e.Title, e.AlternateTitle, status, e.Address)
		if err != nil {
			return 0, fmt.Errorf("failed to insert entity: %w", err)
		}
		return result.LastInsertId()
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO entities (id, kind, title, alternate_title, status, address)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		title = excluded.title,
		alternate_title = excluded.alternate_title,
		status = excluded.status,
		address = excluded.address,
		updated_at = CURRENT_TIMESTAMP
	`, e.ID, e.Kind.String(), e.Title, e.AlternateTitle, status, e.Address)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert entity: %w", err)
	}
	return e.ID, nil
}

// GetEntity retrieves an entity by ID. It returns (nil, nil) when absent.
func (s *Store) GetEntity(ctx context.Context, id int64) (*model.Entity, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, kind, title, alternate_title, status, address
	FROM entities WHERE id = ?
	`, id)

	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return e, nil
}

// FindEntityByTitle returns the entity of kind with exactly this title, or
// (nil, nil). Importers use it to update rather than duplicate entities.
func (s *Store) FindEntityByTitle(ctx context.Context, kind model.Kind, title string) (*model.Entity, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, kind, title, alternate_title, status, address
	FROM entities WHERE kind = ? AND title = ?
	ORDER BY id LIMIT 1
	`, kind.String(), title)

	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find entity: %w", err)
	}
	return e, nil
}

// ListEntities returns every entity of kind regardless of status, ordered
// by title then ID.
func (s *Store) ListEntities(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	return s.queryEntities(ctx, `
	SELECT id, kind, title, alternate_title, status, address
	FROM entities WHERE kind = ?
	ORDER BY title ASC, id ASC
	`, kind.String())
}

// ListPublishedEntities returns the published entities of kind ordered by
// title then ID. This order makes label-map collisions deterministic.
func (s *Store) ListPublishedEntities(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	return s.queryEntities(ctx, `
	SELECT id, kind, title, alternate_title, status, address
	FROM entities WHERE kind = ? AND status = ?
	ORDER BY title ASC, id ASC
	`, kind.String(), model.StatusPublish)
}

// DeleteEntity removes an entity. Deleting a missing entity is not an error.
func (s *Store) DeleteEntity(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entities WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	return nil
}

func (s *Store) queryEntities(ctx context.Context, query string, args ...any) ([]model.Entity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	results := make([]model.Entity, 0)
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		results = append(results, *e)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (*model.Entity, error) {
	var e model.Entity
	var kind string
	if err := row.Scan(&e.ID, &kind, &e.Title, &e.AlternateTitle, &e.Status, &e.Address); err != nil {
		return nil, err
	}
	e.Kind = model.Kind(kind)
	return &e, nil
}

// UpsertListing stores the listing row and sets every field in l.Fields.
// Fields not present in l.Fields are left untouched. It returns the
// listing's ID, assigning one when l.ID is zero.
func (s *Store) UpsertListing(ctx context.Context, l *model.Listing) (int64, error) {
	status := l.Status
	if status == "" {
		status = model.StatusPublish
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := l.ID
	if id == 0 {
		result, err := tx.ExecContext(ctx, "INSERT INTO listings (title, status) VALUES (?, ?)", l.Title, status)
		if err != nil {
			return 0, fmt.Errorf("failed to insert listing: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to read listing id: %w", err)
		}
	} else {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO listings (id, title, status) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
		`, id, l.Title, status)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert listing: %w", err)
		}
	}

	for key, value := range l.Fields {
		if err := setMeta(ctx, tx, id, key, value); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit listing: %w", err)
	}
	return id, nil
}

// GetListing retrieves a listing with all its fields. It returns (nil, nil)
// when absent.
func (s *Store) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	var l model.Listing
	err := s.db.QueryRowContext(ctx, "SELECT id, title, status FROM listings WHERE id = ?", id).
		Scan(&l.ID, &l.Title, &l.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	fields, err := s.loadFields(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Fields = fields
	return &l, nil
}

// ListListings returns up to limit listings starting after offset, ordered
// by ID, with their fields.
func (s *Store) ListListings(ctx context.Context, limit, offset int) ([]model.Listing, error) {
	return s.queryListings(ctx, `
	SELECT id, title, status FROM listings
	ORDER BY id ASC
	LIMIT ? OFFSET ?
	`, limit, offset)
}

// NextUnprocessed returns up to limit published listings that carry no
// markerKey meta, in ID order.
func (s *Store) NextUnprocessed(ctx context.Context, markerKey string, limit int) ([]model.Listing, error) {
	return s.queryListings(ctx, `
	SELECT l.id, l.title, l.status FROM listings l
	WHERE l.status = ?
	AND NOT EXISTS (
		SELECT 1 FROM listing_meta m
		WHERE m.listing_id = l.id AND m.meta_key = ?
	)
	ORDER BY l.id ASC
	LIMIT ?
	`, model.StatusPublish, markerKey, limit)
}

// CountUnprocessed returns how many published listings carry no markerKey meta.
func (s *Store) CountUnprocessed(ctx context.Context, markerKey string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM listings l
	WHERE l.status = ?
	AND NOT EXISTS (
		SELECT 1 FROM listing_meta m
		WHERE m.listing_id = l.id AND m.meta_key = ?
	)
	`, model.StatusPublish, markerKey).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unprocessed listings: %w", err)
	}
	return n, nil
}

func (s *Store) queryListings(ctx context.Context, query string, args ...any) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	results := make([]model.Listing, 0)
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(&l.ID, &l.Title, &l.Status); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// The single pooled connection must be free before loading fields.
	_ = rows.Close()

	for i := range results {
		fields, err := s.loadFields(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Fields = fields
	}
	return results, nil
}

func (s *Store) loadFields(ctx context.Context, listingID int64) (model.Fields, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT meta_key, meta_value FROM listing_meta WHERE listing_id = ?", listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listing meta: %w", err)
	}
	defer rows.Close()

	fields := make(model.Fields)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan listing meta: %w", err)
		}
		fields[k] = v
	}
	return fields, rows.Err()
}

// SetMeta sets one meta field on a listing.
func (s *Store) SetMeta(ctx context.Context, listingID int64, key, value string) error {
	return setMeta(ctx, s.db, listingID, key, value)
}

// GetMeta returns one meta field and whether it exists.
func (s *Store) GetMeta(ctx context.Context, listingID int64, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		"SELECT meta_value FROM listing_meta WHERE listing_id = ? AND meta_key = ?", listingID, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get meta %q: %w", key, err)
	}
	return v, true, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setMeta(ctx context.Context, db execer, listingID int64, key, value string) error {
	_, err := db.ExecContext(ctx, `
	INSERT INTO listing_meta (listing_id, meta_key, meta_value) VALUES (?, ?, ?)
	ON CONFLICT(listing_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value
	`, listingID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set meta %q: %w", key, err)
	}
	return nil
}

// CompleteSync writes the given meta values and the processed marker for
// one listing in a single transaction. The marker is written even when
// writes is empty.
func (s *Store) CompleteSync(ctx context.Context, listingID int64, markerKey string, writes map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range writes {
		if err := setMeta(ctx, tx, listingID, key, value); err != nil {
			return err
		}
	}
	if err := setMeta(ctx, tx, listingID, markerKey, markerValue); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync of listing %d: %w", listingID, err)
	}
	return nil
}

// RunMetadata contains summary information about a stored sync run.
type RunMetadata struct {
	ID        string         `json:"id"`
	Kind      model.Kind     `json:"kind"`
	StartedAt time.Time      `json:"started_at"`
	Processed int            `json:"processed"`
	Summary   map[string]int `json:"summary"`
}

// SaveRun stores a sync run with its item results.
func (s *Store) SaveRun(ctx context.Context, run *model.BatchResult) error {
	resultJSON, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}
	summaryJSON, err := json.Marshal(run.Summary())
	if err != nil {
		return fmt.Errorf("failed to serialize run summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO sync_runs (id, kind, started_at, processed, summary, result_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`, run.RunID, run.Kind.String(), run.StartedAt.UTC().Format(runTimeLayout),
		len(run.Items), string(summaryJSON), string(resultJSON))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// ListRuns returns run metadata, newest first. An empty kind lists every
// kind; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, kind model.Kind, limit int) ([]RunMetadata, error) {
	var query strings.Builder
	query.WriteString("SELECT id, kind, started_at, processed, summary FROM sync_runs WHERE 1=1")
	args := make([]any, 0, 2)

	if kind != "" {
		query.WriteString(" AND kind = ?")
		args = append(args, kind.String())
	}
	query.WriteString(" ORDER BY started_at DESC")
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunMetadata, 0)
	for rows.Next() {
		var meta RunMetadata
		var kindStr, timestamp string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &kindStr, &timestamp, &meta.Processed, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.Kind = model.Kind(kindStr)
		meta.StartedAt = parseTimestamp(timestamp)

		meta.Summary = make(map[string]int)
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.Summary); err != nil {
				meta.Summary = make(map[string]int)
			}
		}

		results = append(results, meta)
	}
	return results, rows.Err()
}

// GetRun retrieves a full sync run by ID. It returns (nil, nil) when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*model.BatchResult, error) {
	var resultJSON string
	err := s.db.QueryRowContext(ctx, "SELECT result_json FROM sync_runs WHERE id = ?", id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run model.BatchResult
	if err := json.Unmarshal([]byte(resultJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &run, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
