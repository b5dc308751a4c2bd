package spacetravel

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoSnapshot is returned when no snapshot exists for a route.
var ErrNoSnapshot = sql.ErrNoRows

// Snapshot is one generated page, persisted so previously generated output
// keeps serving across restarts and while a regeneration is pending. Props
// is the JSON-encoded page props. NotFound marks a route whose generation
// resolved to a missing document.
type Snapshot struct {
	Route       string    `json:"route"`
	Props       []byte    `json:"props"`
	GeneratedAt time.Time `json:"generated_at"`
	NotFound    bool      `json:"not_found,omitempty"`
}

// Fresh reports whether the snapshot is still inside the freshness window.
func (s Snapshot) Fresh(window time.Duration) bool {
	return time.Since(s.GeneratedAt) < window
}

// SnapshotStore persists generated pages keyed by route.
type SnapshotStore interface {
	Get(route string) (Snapshot, error)
	Put(s Snapshot) error
	Delete(route string) error
	Close() error
}

// Store is the default SnapshotStore, backed by a local SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and
	// avoid an fsync per write; synchronous=NORMAL is safe with WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
    route TEXT PRIMARY KEY,
    props TEXT NOT NULL,
    generated_at INTEGER NOT NULL,
    not_found INTEGER NOT NULL DEFAULT 0
);
`)
	return err
}

// Get returns the snapshot for route, or ErrNoSnapshot.
func (s *Store) Get(route string) (Snapshot, error) {
	var props []byte
	var generatedAt int64
	var notFound int
	err := s.db.QueryRow(`SELECT props, generated_at, not_found FROM snapshots WHERE route = ?`, route).
		Scan(&props, &generatedAt, &notFound)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Route:       route,
		Props:       props,
		GeneratedAt: time.Unix(generatedAt, 0),
		NotFound:    notFound == 1,
	}, nil
}

// Put upserts a snapshot.
func (s *Store) Put(snap Snapshot) error {
	notFound := 0
	if snap.NotFound {
		notFound = 1
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO snapshots (route, props, generated_at, not_found) VALUES (?, ?, ?, ?)`,
		snap.Route, snap.Props, snap.GeneratedAt.Unix(), notFound)
	return err
}

// Delete removes a snapshot by route.
func (s *Store) Delete(route string) error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE route = ?`, route)
	return err
}
