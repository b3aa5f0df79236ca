// Package store indexes finished guides in a local SQLite database so the
// CLI can list and prune recordings without scanning every session
// directory. The guide documents themselves stay on disk as JSON; the
// index only carries summary rows.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const dbFile = "index.db"

// GuideRecord is one indexed recording.
type GuideRecord struct {
	// ID is the auto-increment primary key (assigned on insert).
	ID int64

	// SessionID is the recording's session identifier and directory name.
	SessionID string

	// Title is the user-supplied guide title, possibly empty.
	Title string

	// Steps is the step count at save time.
	Steps int

	// Root is the absolute session directory path.
	Root string

	// StartedAt / StoppedAt bound the recording.
	StartedAt time.Time
	StoppedAt time.Time

	// UpdatedAt is the last time the row was written.
	UpdatedAt time.Time
}

// Index is the SQLite-backed guide index.
type Index struct {
	db *sql.DB
}

// Open creates or opens the index inside the guides directory.
func Open(guidesDir string) (*Index, error) {
	return OpenAt(filepath.Join(guidesDir, dbFile))
}

// OpenAt creates or opens a SQLite database at the given path. The parent
// directory is created if it does not exist.
func OpenAt(path string) (*Index, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS guides (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT    NOT NULL UNIQUE,
			title      TEXT    NOT NULL DEFAULT '',
			steps      INTEGER NOT NULL DEFAULT 0,
			root       TEXT    NOT NULL DEFAULT '',
			started_at TEXT    NOT NULL DEFAULT '',
			stopped_at TEXT    NOT NULL DEFAULT '',
			updated_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_guides_started ON guides(started_at);
	`
	if _, err := i.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migration failed: %w", err)
	}
	return nil
}

// Save upserts the record keyed by session id and fills in its ID.
func (i *Index) Save(r *GuideRecord) error {
	r.UpdatedAt = time.Now().UTC()
	_, err := i.db.Exec(`
		INSERT INTO guides (session_id, title, steps, root, started_at, stopped_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			title=excluded.title, steps=excluded.steps, root=excluded.root,
			started_at=excluded.started_at, stopped_at=excluded.stopped_at,
			updated_at=excluded.updated_at`,
		r.SessionID, r.Title, r.Steps, r.Root,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.StoppedAt.UTC().Format(time.RFC3339Nano),
		r.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store: save failed: %w", err)
	}

	row := i.db.QueryRow(`SELECT id FROM guides WHERE session_id = ?`, r.SessionID)
	if err := row.Scan(&r.ID); err != nil {
		return fmt.Errorf("store: read back id: %w", err)
	}
	return nil
}

// Get retrieves one record by session id, or nil when absent.
func (i *Index) Get(sessionID string) (*GuideRecord, error) {
	row := i.db.QueryRow(`
		SELECT id, session_id, title, steps, root, started_at, stopped_at, updated_at
		FROM guides WHERE session_id = ?`, sessionID)

	r, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: query failed: %w", err)
	}
	return r, nil
}

// List returns the most recent n guides, newest first.
func (i *Index) List(n int) ([]GuideRecord, error) {
	rows, err := i.db.Query(`
		SELECT id, session_id, title, steps, root, started_at, stopped_at, updated_at
		FROM guides ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("store: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Delete removes the index row for a session. It does not touch the
// session directory.
func (i *Index) Delete(sessionID string) error {
	result, err := i.db.Exec(`DELETE FROM guides WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("store: delete failed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: no guide indexed for session %q", sessionID)
	}
	return nil
}

// PruneMissing drops rows whose session directory no longer exists and
// returns the removed session ids.
func (i *Index) PruneMissing() ([]string, error) {
	records, err := i.List(1 << 20)
	if err != nil {
		return nil, err
	}
	var pruned []string
	for _, r := range records {
		if _, statErr := os.Stat(r.Root); os.IsNotExist(statErr) {
			if err := i.Delete(r.SessionID); err != nil {
				return pruned, err
			}
			pruned = append(pruned, r.SessionID)
		}
	}
	return pruned, nil
}

// Close releases database resources.
func (i *Index) Close() error {
	return i.db.Close()
}

func scanRow(row *sql.Row) (*GuideRecord, error) {
	var r GuideRecord
	var startedStr, stoppedStr, updatedStr string
	err := row.Scan(&r.ID, &r.SessionID, &r.Title, &r.Steps, &r.Root, &startedStr, &stoppedStr, &updatedStr)
	if err != nil {
		return nil, err
	}
	r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	r.StoppedAt, _ = time.Parse(time.RFC3339Nano, stoppedStr)
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
	return &r, nil
}

func scanRows(rows *sql.Rows) ([]GuideRecord, error) {
	var records []GuideRecord
	for rows.Next() {
		var r GuideRecord
		var startedStr, stoppedStr, updatedStr string
		err := rows.Scan(&r.ID, &r.SessionID, &r.Title, &r.Steps, &r.Root, &startedStr, &stoppedStr, &updatedStr)
		if err != nil {
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		r.StoppedAt, _ = time.Parse(time.RFC3339Nano, stoppedStr)
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		records = append(records, r)
	}
	return records, rows.Err()
}
