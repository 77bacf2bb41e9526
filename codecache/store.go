// Package codecache persists finalized code artifacts in a
// content-addressed SQLite store, keyed by their SHA-256 hash.
package codecache

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/arctany/ember/blob"
)

// ErrArtifactNotFound indicates the requested artifact doesn't exist.
var ErrArtifactNotFound = errors.New("artifact not found")

// Store is a SQLite-backed artifact cache. Safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Create table if needed
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS artifacts (
		hash TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores an artifact, replacing any previous artifact with the same
// content hash.
func (s *Store) Put(a *blob.Artifact) error {
	data, err := blob.MarshalArtifact(a)
	if err != nil {
		return fmt.Errorf("encoding artifact %s: %w", a.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO artifacts (hash, name, data) VALUES (?, ?, ?)`,
		hex.EncodeToString(a.Hash), a.Name, data)
	if err != nil {
		return fmt.Errorf("storing artifact %s: %w", a.Name, err)
	}
	return nil
}

// Get returns the artifact with the given content hash, or
// ErrArtifactNotFound.
func (s *Store) Get(hash [32]byte) (*blob.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow(
		`SELECT data FROM artifacts WHERE hash = ?`,
		hex.EncodeToString(hash[:])).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading artifact: %w", err)
	}
	return blob.UnmarshalArtifact(data)
}

// Has returns true if an artifact with the given hash is stored.
func (s *Store) Has(hash [32]byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM artifacts WHERE hash = ?`,
		hex.EncodeToString(hash[:])).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probing artifact: %w", err)
	}
	return true, nil
}

// Hashes returns the content hashes of all stored artifacts.
func (s *Store) Hashes() ([][32]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT hash FROM artifacts`)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	defer rows.Close()

	var hashes [][32]byte
	for rows.Next() {
		var hexHash string
		if err := rows.Scan(&hexHash); err != nil {
			return nil, fmt.Errorf("listing artifacts: %w", err)
		}
		raw, err := hex.DecodeString(hexHash)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("corrupt artifact hash %q", hexHash)
		}
		var h [32]byte
		copy(h[:], raw)
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// Count returns the number of stored artifacts.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM artifacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting artifacts: %w", err)
	}
	return n, nil
}
