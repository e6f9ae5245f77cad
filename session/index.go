package session

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Index is a small sqlite-backed catalog of persisted session files, per
// SPEC_FULL.md's supplemental "session.Index" component: it lets a host
// enumerate and prune old sessions without re-parsing every JSON file on
// disk. The sessions themselves remain the atomic-write JSON files
// mandated by spec.md §6.4; this index stores only path + metadata.
type Index struct {
	db *sql.DB
}

// IndexEntry is one catalog row.
type IndexEntry struct {
	ID        string
	Path      string
	UpdatedAt time.Time
	SizeBytes int64
}

// OpenIndex opens (creating if needed) a sqlite database at path and
// ensures its schema exists.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open index: %w", err)
	}
	idx := &Index{db: db}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) migrate() error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			path       TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			size_bytes INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("session: migrate index: %w", err)
	}
	return nil
}

// Upsert records or updates a session's catalog entry.
func (idx *Index) Upsert(e IndexEntry) error {
	_, err := idx.db.Exec(`
		INSERT INTO sessions (id, path, updated_at, size_bytes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET path=excluded.path, updated_at=excluded.updated_at, size_bytes=excluded.size_bytes`,
		e.ID, e.Path, e.UpdatedAt.Unix(), e.SizeBytes)
	if err != nil {
		return fmt.Errorf("session: upsert index entry: %w", err)
	}
	return nil
}

// Remove drops a session's catalog entry (not the file itself).
func (idx *Index) Remove(id string) error {
	_, err := idx.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("session: remove index entry: %w", err)
	}
	return nil
}

// List returns all catalog entries ordered by most-recently-updated
// first, the order a host would use to decide what to prune.
func (idx *Index) List() ([]IndexEntry, error) {
	rows, err := idx.db.Query(`SELECT id, path, updated_at, size_bytes FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("session: list index: %w", err)
	}
	defer rows.Close()

	var out []IndexEntry
	for rows.Next() {
		var e IndexEntry
		var updatedUnix int64
		if err := rows.Scan(&e.ID, &e.Path, &updatedUnix, &e.SizeBytes); err != nil {
			return nil, fmt.Errorf("session: scan index row: %w", err)
		}
		e.UpdatedAt = time.Unix(updatedUnix, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneOlderThan removes (and returns the ids of) catalog entries whose
// updated_at precedes cutoff. It does not delete the underlying files;
// callers should remove those themselves before or after calling this.
func (idx *Index) PruneOlderThan(cutoff time.Time) ([]string, error) {
	rows, err := idx.db.Query(`SELECT id FROM sessions WHERE updated_at < ?`, cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("session: query prune candidates: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()

	if _, err := idx.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff.Unix()); err != nil {
		return nil, fmt.Errorf("session: prune index: %w", err)
	}
	return ids, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}
