// Package store persists process snapshots, movements and the master process
// index in a single-file SQLite database. The process and movement tables are
// append-only; deduplication happens at read time through window-function
// queries, and the index table carries the only uniqueness constraint.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"juristrack/internal/process/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS processes (
	external_id TEXT,
	court TEXT,
	process_number TEXT NOT NULL,
	degree TEXT,
	filing_date TEXT,
	confidentiality_level INTEGER,
	class_code INTEGER,
	class_name TEXT,
	format_code INTEGER,
	format_name TEXT,
	system_code INTEGER,
	system_name TEXT,
	body_code INTEGER,
	body_name TEXT,
	body_municipality INTEGER,
	last_updated_at TEXT,
	indexed_at TEXT
);

CREATE TABLE IF NOT EXISTS movements (
	process_number TEXT NOT NULL,
	code INTEGER,
	name TEXT,
	occurred_at TEXT,
	body_code INTEGER,
	body_name TEXT
);

CREATE TABLE IF NOT EXISTS process_index (
	process_number TEXT PRIMARY KEY,
	first_court TEXT,
	first_included_at TEXT NOT NULL,
	last_updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS ix_processes_number ON processes (process_number);
CREATE INDEX IF NOT EXISTS ix_movements_number ON movements (process_number);
`

// Store wraps the SQLite database. SQLite supports one writer at a time, so
// the pool is capped at a single connection and each operation runs in its
// own short transaction.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path. The view cache stats it to detect
// staleness.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return s.db.Close() }

// AppendProcesses inserts snapshot rows in one transaction. No uniqueness is
// enforced here; history accumulates and reads collapse it.
func (s *Store) AppendProcesses(ctx context.Context, recs []models.ProcessRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append processes: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO processes (
			external_id, court, process_number, degree, filing_date,
			confidentiality_level, class_code, class_name, format_code,
			format_name, system_code, system_name, body_code, body_name,
			body_municipality, last_updated_at, indexed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append processes: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		_, err := stmt.ExecContext(ctx,
			r.ExternalID, r.Court, r.Number, r.Degree, r.FilingDate,
			r.ConfidentialityLevel, r.ClassCode, r.ClassName, r.FormatCode,
			r.FormatName, r.SystemCode, r.SystemName, r.BodyCode, r.BodyName,
			r.BodyMunicipality, r.LastUpdatedAt, r.IndexedAt)
		if err != nil {
			return fmt.Errorf("append process %s: %w", r.Number, err)
		}
	}
	return tx.Commit()
}

// AppendMovements inserts movement rows in one transaction.
func (s *Store) AppendMovements(ctx context.Context, recs []models.MovementRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append movements: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO movements (process_number, code, name, occurred_at, body_code, body_name)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append movements: %w", err)
	}
	defer stmt.Close()

	for _, m := range recs {
		_, err := stmt.ExecContext(ctx, m.Number, m.Code, m.Name, m.OccurredAt, m.BodyCode, m.BodyName)
		if err != nil {
			return fmt.Errorf("append movement for %s: %w", m.Number, err)
		}
	}
	return tx.Commit()
}

// UpsertIndexEntry registers a process number in the master index. First
// sight records the court and inclusion time; later sights update only the
// last-update timestamp.
func (s *Store) UpsertIndexEntry(ctx context.Context, number, court string, now time.Time) error {
	stamp := now.UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO process_index (process_number, first_court, first_included_at, last_updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(process_number) DO UPDATE SET last_updated_at = excluded.last_updated_at`,
		number, court, stamp, stamp)
	if err != nil {
		return fmt.Errorf("upsert index entry %s: %w", number, err)
	}
	return nil
}

// LatestProcesses returns exactly one row per distinct process number: the
// snapshot with the maximum last-update timestamp. Ties on the timestamp go
// to the most recently inserted row (highest rowid).
func (s *Store) LatestProcesses(ctx context.Context) ([]models.ReconciledRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH ranked AS (
			SELECT
				process_number, court, system_name, last_updated_at,
				ROW_NUMBER() OVER (
					PARTITION BY process_number
					ORDER BY last_updated_at DESC, rowid DESC
				) AS rn
			FROM processes
		)
		SELECT process_number, court, system_name, last_updated_at
		FROM ranked WHERE rn = 1`)
	if err != nil {
		return nil, fmt.Errorf("query latest processes: %w", err)
	}
	defer rows.Close()

	var out []models.ReconciledRow
	for rows.Next() {
		var r models.ReconciledRow
		var court, system, updated sql.NullString
		if err := rows.Scan(&r.Number, &court, &system, &updated); err != nil {
			return nil, fmt.Errorf("scan latest process: %w", err)
		}
		r.Court = strPtr(court)
		r.SystemName = strPtr(system)
		r.LastUpdatedAt = strPtr(updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestMovements returns, per process number, the name of the movement with
// the maximum timestamp. Movements without a timestamp are never candidates.
func (s *Store) LatestMovements(ctx context.Context) (map[string]*string, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH ranked AS (
			SELECT
				process_number, name,
				ROW_NUMBER() OVER (
					PARTITION BY process_number
					ORDER BY occurred_at DESC, rowid DESC
				) AS rn
			FROM movements
			WHERE occurred_at IS NOT NULL
		)
		SELECT process_number, name FROM ranked WHERE rn = 1`)
	if err != nil {
		return nil, fmt.Errorf("query latest movements: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*string)
	for rows.Next() {
		var number string
		var name sql.NullString
		if err := rows.Scan(&number, &name); err != nil {
			return nil, fmt.Errorf("scan latest movement: %w", err)
		}
		out[number] = strPtr(name)
	}
	return out, rows.Err()
}

// ProcessFilter narrows raw process queries.
type ProcessFilter struct {
	Number string
	Court  string
}

// Processes returns raw history rows, newest first, plus the total count
// before pagination.
func (s *Store) Processes(ctx context.Context, f ProcessFilter, limit, offset int) ([]models.ProcessRecord, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if f.Number != "" {
		where += " AND process_number = ?"
		args = append(args, f.Number)
	}
	if f.Court != "" {
		where += " AND court = ?"
		args = append(args, f.Court)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM processes "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count processes: %w", err)
	}

	query := `
		SELECT external_id, court, process_number, degree, filing_date,
			confidentiality_level, class_code, class_name, format_code,
			format_name, system_code, system_name, body_code, body_name,
			body_municipality, last_updated_at, indexed_at
		FROM processes ` + where + `
		ORDER BY last_updated_at DESC, rowid DESC
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query processes: %w", err)
	}
	defer rows.Close()

	var out []models.ProcessRecord
	for rows.Next() {
		rec, err := scanProcess(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// ProcessHistory returns every snapshot row for one process number, newest
// first.
func (s *Store) ProcessHistory(ctx context.Context, number string) ([]models.ProcessRecord, error) {
	recs, _, err := s.Processes(ctx, ProcessFilter{Number: number}, -1, 0)
	return recs, err
}

// MovementsByProcess returns movement rows for one process, newest first,
// plus the total count before pagination.
func (s *Store) MovementsByProcess(ctx context.Context, number string, limit, offset int) ([]models.MovementRecord, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM movements WHERE process_number = ?", number).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT process_number, code, name, occurred_at, body_code, body_name
		FROM movements
		WHERE process_number = ?
		ORDER BY occurred_at DESC, rowid DESC
		LIMIT ? OFFSET ?`, number, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var out []models.MovementRecord
	for rows.Next() {
		var m models.MovementRecord
		var code, bodyCode sql.NullInt64
		var name, occurredAt, bodyName sql.NullString
		if err := rows.Scan(&m.Number, &code, &name, &occurredAt, &bodyCode, &bodyName); err != nil {
			return nil, 0, fmt.Errorf("scan movement: %w", err)
		}
		m.Code = intPtr(code)
		m.Name = strPtr(name)
		m.OccurredAt = strPtr(occurredAt)
		m.BodyCode = intPtr(bodyCode)
		m.BodyName = strPtr(bodyName)
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// IndexEntries returns master index rows ordered by most recent update, plus
// the total count before pagination.
func (s *Store) IndexEntries(ctx context.Context, limit, offset int) ([]models.IndexEntry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM process_index").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count index entries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT process_number, COALESCE(first_court, ''), first_included_at, last_updated_at
		FROM process_index
		ORDER BY last_updated_at DESC, process_number
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query index entries: %w", err)
	}
	defer rows.Close()

	var out []models.IndexEntry
	for rows.Next() {
		var e models.IndexEntry
		if err := rows.Scan(&e.Number, &e.FirstCourt, &e.FirstIncludedAt, &e.LastUpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan index entry: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// IndexEntry returns one master index row, or sql.ErrNoRows.
func (s *Store) IndexEntry(ctx context.Context, number string) (models.IndexEntry, error) {
	var e models.IndexEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT process_number, COALESCE(first_court, ''), first_included_at, last_updated_at
		FROM process_index WHERE process_number = ?`, number).
		Scan(&e.Number, &e.FirstCourt, &e.FirstIncludedAt, &e.LastUpdatedAt)
	return e, err
}

// DistinctCourts lists courts present in the process table, sorted.
func (s *Store) DistinctCourts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT court FROM processes WHERE court IS NOT NULL ORDER BY court")
	if err != nil {
		return nil, fmt.Errorf("query distinct courts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan court: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DistinctNumbers lists distinct process numbers present in the process
// table.
func (s *Store) DistinctNumbers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT process_number FROM processes")
	if err != nil {
		return nil, fmt.Errorf("query distinct numbers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan number: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Counts reports table sizes for health reporting.
func (s *Store) Counts(ctx context.Context) (processes, movements, indexed int, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM processes").Scan(&processes); err != nil {
		return 0, 0, 0, fmt.Errorf("count processes: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movements").Scan(&movements); err != nil {
		return 0, 0, 0, fmt.Errorf("count movements: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM process_index").Scan(&indexed); err != nil {
		return 0, 0, 0, fmt.Errorf("count index entries: %w", err)
	}
	return processes, movements, indexed, nil
}

// Clear wipes all three tables in one transaction. Used before a full
// re-ingestion from the master list.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()
	for _, table := range []string{"processes", "movements", "process_index"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func scanProcess(rows *sql.Rows) (models.ProcessRecord, error) {
	var r models.ProcessRecord
	var externalID, court, degree, filingDate sql.NullString
	var className, formatName, systemName, bodyName sql.NullString
	var lastUpdatedAt, indexedAt sql.NullString
	var confidentiality, classCode, formatCode, systemCode, bodyCode, municipality sql.NullInt64
	err := rows.Scan(&externalID, &court, &r.Number, &degree, &filingDate,
		&confidentiality, &classCode, &className, &formatCode, &formatName,
		&systemCode, &systemName, &bodyCode, &bodyName, &municipality,
		&lastUpdatedAt, &indexedAt)
	if err != nil {
		return r, fmt.Errorf("scan process: %w", err)
	}
	r.ExternalID = strPtr(externalID)
	r.Court = strPtr(court)
	r.Degree = strPtr(degree)
	r.FilingDate = strPtr(filingDate)
	r.ConfidentialityLevel = intPtr(confidentiality)
	r.ClassCode = intPtr(classCode)
	r.ClassName = strPtr(className)
	r.FormatCode = intPtr(formatCode)
	r.FormatName = strPtr(formatName)
	r.SystemCode = intPtr(systemCode)
	r.SystemName = strPtr(systemName)
	r.BodyCode = intPtr(bodyCode)
	r.BodyName = strPtr(bodyName)
	r.BodyMunicipality = intPtr(municipality)
	r.LastUpdatedAt = strPtr(lastUpdatedAt)
	r.IndexedAt = strPtr(indexedAt)
	return r, nil
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
