package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	closed bool
}

// NewSQLiteStore opens or creates the journal database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Runs are sequential; one connection avoids SQLITE_BUSY entirely
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS objects (
		run_id TEXT NOT NULL,
		key TEXT NOT NULL,
		tier TEXT NOT NULL,
		status TEXT NOT NULL,
		last_error TEXT,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (run_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_objects_status ON objects(run_id, status);
	`

	_, err := s.db.Exec(query)
	return err
}

// GetObject retrieves an object record, or nil if the run never saw key
func (s *SQLiteStore) GetObject(runID, key string) (*ObjectRecord, error) {
	if s.closed {
		return nil, fmt.Errorf("database store is closed")
	}

	query := `
	SELECT run_id, key, tier, status, last_error, updated_at
	FROM objects WHERE run_id = ? AND key = ?
	`

	record, err := scanRecord(s.db.QueryRow(query, runID, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// SaveObject saves or updates an object record
func (s *SQLiteStore) SaveObject(record *ObjectRecord) error {
	if s.closed {
		return fmt.Errorf("database store is closed")
	}

	record.UpdatedAt = time.Now()

	query := `
	INSERT INTO objects
	(run_id, key, tier, status, last_error, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, key) DO UPDATE SET
		tier = excluded.tier,
		status = excluded.status,
		last_error = excluded.last_error,
		updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(query,
		record.RunID,
		record.Key,
		record.Tier,
		record.Status,
		record.LastError,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save object %s: %w", record.Key, err)
	}
	return nil
}

// ListByStatus returns the records of a run with the given status
func (s *SQLiteStore) ListByStatus(runID string, status Status) ([]*ObjectRecord, error) {
	if s.closed {
		return nil, fmt.Errorf("database store is closed")
	}

	query := `
	SELECT run_id, key, tier, status, last_error, updated_at
	FROM objects WHERE run_id = ? AND status = ?
	ORDER BY updated_at ASC, key ASC
	`

	rows, err := s.db.Query(query, runID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ObjectRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*ObjectRecord, error) {
	var record ObjectRecord
	var lastError sql.NullString

	err := row.Scan(
		&record.RunID,
		&record.Key,
		&record.Tier,
		&record.Status,
		&lastError,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastError.Valid {
		record.LastError = lastError.String
	}
	return &record, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.closed = true
	return s.db.Close()
}
