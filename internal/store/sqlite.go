// Package store provides SQLite-backed persistence for the navigation
// graph and its vector collections. The engine runs fully in memory; this
// layer snapshots that state to disk and restores it on startup.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/navikit/navgraph/pkg/graph"
	"github.com/navikit/navgraph/pkg/schema"
	"github.com/navikit/navgraph/pkg/vector"
)

// SQLiteStore is the SQLite-backed snapshot store.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// ddl defines the snapshot tables. Entity payloads are stored as JSON
// beside the columns needed for keying and filtering; no foreign keys,
// referential integrity is the engine's concern.
const ddl = `
CREATE TABLE IF NOT EXISTS apps (
    app_id TEXT PRIMARY KEY,
    payload TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
    page_id TEXT PRIMARY KEY,
    app_id TEXT NOT NULL,
    page_name TEXT NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pages_app ON pages(app_id);

CREATE TABLE IF NOT EXISTS transitions (
    transition_id TEXT PRIMARY KEY,
    source_page_id TEXT NOT NULL,
    target_page_id TEXT NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transitions_source ON transitions(source_page_id);
CREATE INDEX IF NOT EXISTS idx_transitions_target ON transitions(target_page_id);

CREATE TABLE IF NOT EXISTS vectors (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    embedding BLOB NOT NULL,
    metadata TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);
`

// NewSQLiteStore creates an in-memory SQLite store, mainly for tests.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ============================================================================
// Graph snapshot
// ============================================================================

// SaveGraph replaces the stored graph snapshot with snap, atomically.
func (s *SQLiteStore) SaveGraph(snap *graph.Export) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"apps", "pages", "transitions"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	for i := range snap.Apps {
		app := &snap.Apps[i]
		payload, err := json.Marshal(app)
		if err != nil {
			return fmt.Errorf("marshal app %s: %w", app.AppID, err)
		}
		if _, err := tx.Exec(`INSERT INTO apps (app_id, payload) VALUES (?, ?)`,
			app.AppID, string(payload)); err != nil {
			return err
		}
	}
	for i := range snap.Pages {
		page := &snap.Pages[i]
		payload, err := json.Marshal(page)
		if err != nil {
			return fmt.Errorf("marshal page %s: %w", page.PageID, err)
		}
		if _, err := tx.Exec(`INSERT INTO pages (page_id, app_id, page_name, payload) VALUES (?, ?, ?, ?)`,
			page.PageID, page.AppID, page.PageName, string(payload)); err != nil {
			return err
		}
	}
	for i := range snap.Transitions {
		t := &snap.Transitions[i]
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal transition %s: %w", t.TransitionID, err)
		}
		if _, err := tx.Exec(`INSERT INTO transitions (transition_id, source_page_id, target_page_id, payload) VALUES (?, ?, ?, ?)`,
			t.TransitionID, t.SourcePageID, t.TargetPageID, string(payload)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadGraph reads the stored snapshot. An empty database yields an empty
// export, not an error.
func (s *SQLiteStore) LoadGraph() (*graph.Export, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &graph.Export{}

	rows, err := s.db.Query(`SELECT payload FROM apps ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var app schema.App
		if err := json.Unmarshal([]byte(payload), &app); err != nil {
			return nil, fmt.Errorf("unmarshal app: %w", err)
		}
		snap.Apps = append(snap.Apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pageRows, err := s.db.Query(`SELECT payload FROM pages ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer pageRows.Close()
	for pageRows.Next() {
		var payload string
		if err := pageRows.Scan(&payload); err != nil {
			return nil, err
		}
		var page schema.Page
		if err := json.Unmarshal([]byte(payload), &page); err != nil {
			return nil, fmt.Errorf("unmarshal page: %w", err)
		}
		snap.Pages = append(snap.Pages, page)
	}
	if err := pageRows.Err(); err != nil {
		return nil, err
	}

	transRows, err := s.db.Query(`SELECT payload FROM transitions ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer transRows.Close()
	for transRows.Next() {
		var payload string
		if err := transRows.Scan(&payload); err != nil {
			return nil, err
		}
		var t schema.Transition
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return nil, fmt.Errorf("unmarshal transition: %w", err)
		}
		snap.Transitions = append(snap.Transitions, t)
	}
	return snap, transRows.Err()
}

// ============================================================================
// Vector snapshot
// ============================================================================

// SaveVectors replaces the stored embeddings with the manager's current
// collections.
func (s *SQLiteStore) SaveVectors(m *vector.Manager) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM vectors"); err != nil {
		return err
	}
	for _, name := range m.Names() {
		for _, entry := range m.Collection(name).Entries() {
			meta, err := json.Marshal(entry.Meta)
			if err != nil {
				return fmt.Errorf("marshal metadata for %s/%s: %w", name, entry.ID, err)
			}
			if _, err := tx.Exec(`INSERT INTO vectors (collection, id, embedding, metadata) VALUES (?, ?, ?, ?)`,
				name, entry.ID, encodeVector(entry.Vec), string(meta)); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// LoadVectors restores stored embeddings into the manager's collections.
// Stored vectors are already normalized, so re-insertion is idempotent.
func (s *SQLiteStore) LoadVectors(m *vector.Manager) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT collection, id, embedding, metadata FROM vectors ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var collection, id, meta string
		var blob []byte
		if err := rows.Scan(&collection, &id, &blob, &meta); err != nil {
			return err
		}
		var metadata vector.Metadata
		if err := json.Unmarshal([]byte(meta), &metadata); err != nil {
			return fmt.Errorf("unmarshal metadata for %s/%s: %w", collection, id, err)
		}
		m.Collection(collection).Insert(id, decodeVector(blob), metadata)
	}
	return rows.Err()
}

// Counts reports stored row counts, for startup logging.
func (s *SQLiteStore) Counts() (pages, transitions, vectors int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err = s.db.QueryRow("SELECT COUNT(*) FROM pages").Scan(&pages); err != nil {
		return
	}
	if err = s.db.QueryRow("SELECT COUNT(*) FROM transitions").Scan(&transitions); err != nil {
		return
	}
	err = s.db.QueryRow("SELECT COUNT(*) FROM vectors").Scan(&vectors)
	return
}
