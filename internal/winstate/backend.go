package winstate

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Mavwarf/teamsdesk/internal/paths"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by a Backend that has no record for a namespace.
var ErrNotFound = errors.New("winstate: no stored state")

// Backend is the durable key-value record behind a Store.
type Backend interface {
	Read(namespace string) (State, error)
	Write(namespace string, st State) error
	Close() error
}

// Open returns the backend of the given kind ("file" or "sqlite") rooted
// in dir.
func Open(kind, dir string) (Backend, error) {
	switch kind {
	case "", "file":
		return NewFileBackend(filepath.Join(dir, paths.WindowStateFileName)), nil
	case "sqlite":
		return NewSQLiteBackend(filepath.Join(dir, paths.WindowStateDBName))
	default:
		return nil, fmt.Errorf("winstate: unknown storage %q", kind)
	}
}

// FileBackend keeps every namespace in one JSON document.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Read(namespace string) (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.load()
	if err != nil {
		return State{}, err
	}
	st, ok := all[namespace]
	if !ok {
		return State{}, ErrNotFound
	}
	return st, nil
}

func (b *FileBackend) Write(namespace string, st State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.load()
	if err != nil {
		all = make(map[string]State) // corrupt; overwrite
	}
	all[namespace] = st

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	return paths.AtomicWrite(b.path, data)
}

func (b *FileBackend) Close() error { return nil }

func (b *FileBackend) load() (map[string]State, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]State), nil
	}
	if err != nil {
		return nil, err
	}
	all := make(map[string]State)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("winstate: parsing %s: %w", b.path, err)
	}
	return all, nil
}

// SQLiteBackend stores one row per namespace.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), paths.DirPerm); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS window_state (
    namespace  TEXT    PRIMARY KEY,
    x          INTEGER NOT NULL,
    y          INTEGER NOT NULL,
    width      INTEGER NOT NULL,
    height     INTEGER NOT NULL,
    updated_at TEXT    NOT NULL
);
`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Read(namespace string) (State, error) {
	var st State
	err := b.db.QueryRow(
		`SELECT x, y, width, height FROM window_state WHERE namespace = ?`, namespace,
	).Scan(&st.X, &st.Y, &st.Width, &st.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, err
	}
	return st, nil
}

func (b *SQLiteBackend) Write(namespace string, st State) error {
	_, err := b.db.Exec(
		`INSERT INTO window_state (namespace, x, y, width, height, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(namespace) DO UPDATE SET
		     x = excluded.x, y = excluded.y,
		     width = excluded.width, height = excluded.height,
		     updated_at = excluded.updated_at`,
		namespace, st.X, st.Y, st.Width, st.Height, time.Now().Format(time.RFC3339),
	)
	return err
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// nullBackend stands in when the real backend could not be opened.
type nullBackend struct{ err error }

func (n nullBackend) Read(string) (State, error) { return State{}, n.err }
func (n nullBackend) Write(string, State) error { return n.err }
func (n nullBackend) Close() error { return nil }
