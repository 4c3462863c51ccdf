package palette

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS group_colors (
	group_name TEXT PRIMARY KEY,
	color      TEXT NOT NULL,
	first_seen TEXT NOT NULL
)`

// Store persists group colors so the same group name keeps its color across
// loads and runs.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the palette database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating palette dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open palette database: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating palette schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load returns every stored group color.
func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT group_name, color FROM group_colors`)
	if err != nil {
		return nil, fmt.Errorf("querying group colors: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var g, c string
		if err := rows.Scan(&g, &c); err != nil {
			return nil, fmt.Errorf("scanning group color: %w", err)
		}
		out[g] = c
	}
	return out, rows.Err()
}

// Remember stores colors for groups not seen before. Existing rows win.
func (s *Store) Remember(ctx context.Context, colors map[string]string) error {
	if len(colors) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO group_colors (group_name, color, first_seen) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for g, c := range colors {
		if _, err := stmt.ExecContext(ctx, g, c, now); err != nil {
			return fmt.Errorf("storing color for %q: %w", g, err)
		}
	}
	return tx.Commit()
}

// Assigner builds an Assigner that pins every stored color and records the
// colors of groups seen for the first time.
func (s *Store) Assigner(ctx context.Context, groups []string, opts ...Option) (*Assigner, error) {
	stored, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	all := append([]Option{}, opts...)
	a := New(append(all, WithPinned(stored), WithGroups(groups...))...)

	fresh := make(map[string]string)
	for _, g := range groups {
		if _, ok := a.Pinned(g); !ok {
			fresh[g] = a.ColorFor(g)
		}
	}
	if err := s.Remember(ctx, fresh); err != nil {
		return nil, err
	}
	return a, nil
}
