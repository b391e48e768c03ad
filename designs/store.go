// Package designs persists page designs in SQLite. A stored design is the
// stripped markup document — element identifiers are an editor-internal
// concern and never reach the database. Load re-tags the document so callers
// always receive an editable, fully identified copy.
//
// There is no revision history here: the store keeps exactly one current
// document per design. Undo/redo lives in the editor session, in memory.
package designs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/buildflow/buildflow/idgen"
	"github.com/buildflow/buildflow/markup"
)

// ErrNotFound is returned when a design ID matches no row.
var ErrNotFound = errors.New("designs: not found")

// Schema is the DDL for the designs table, applied via dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS designs (
	design_id  TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	document   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_designs_updated ON designs(updated_at DESC);
`

// Design is one stored page design. Document is stripped (no element
// identifiers) at rest; Load returns it re-tagged.
type Design struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Document  string `json:"document,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Store reads and writes designs.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator sets a custom design ID generator.
func WithIDGenerator(gen idgen.Generator) StoreOption {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates a Store over db. The designs table must exist.
func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{db: db, newID: idgen.Prefixed("dsn_", idgen.Default)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create stores a new design and returns its ID. The document is stripped of
// element identifiers before it is written.
func (s *Store) Create(ctx context.Context, name, doc string) (string, error) {
	id := s.newID()
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO designs (design_id, name, document, created_at, updated_at)
		VALUES (?,?,?,?,?)`,
		id, name, markup.StripIdentifiers(doc), now, now)
	if err != nil {
		return "", fmt.Errorf("designs: create: %w", err)
	}
	return id, nil
}

// Save replaces a design's document. The document is stripped first; saving
// an unknown ID returns ErrNotFound.
func (s *Store) Save(ctx context.Context, id, doc string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE designs SET document = ?, updated_at = ? WHERE design_id = ?`,
		markup.StripIdentifiers(doc), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("designs: save %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("designs: save %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Load returns a design with its document re-tagged for editing. Every call
// produces fresh random identifiers; callers must not assume identifiers are
// stable across loads.
func (s *Store) Load(ctx context.Context, id string) (Design, error) {
	var d Design
	err := s.db.QueryRowContext(ctx, `
		SELECT design_id, name, document, created_at, updated_at
		FROM designs WHERE design_id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Document, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Design{}, ErrNotFound
	}
	if err != nil {
		return Design{}, fmt.Errorf("designs: load %s: %w", id, err)
	}
	d.Document = markup.TagRandom(d.Document)
	return d, nil
}

// LoadRaw returns a design exactly as stored (stripped), for export paths
// that must not contain editor identifiers.
func (s *Store) LoadRaw(ctx context.Context, id string) (Design, error) {
	var d Design
	err := s.db.QueryRowContext(ctx, `
		SELECT design_id, name, document, created_at, updated_at
		FROM designs WHERE design_id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Document, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Design{}, ErrNotFound
	}
	if err != nil {
		return Design{}, fmt.Errorf("designs: load %s: %w", id, err)
	}
	return d, nil
}

// List returns all designs, newest first, without documents.
func (s *Store) List(ctx context.Context) ([]Design, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT design_id, name, created_at, updated_at
		FROM designs ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("designs: list: %w", err)
	}
	defer rows.Close()

	var out []Design
	for rows.Next() {
		var d Design
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("designs: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Rename changes a design's display name.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE designs SET name = ?, updated_at = ? WHERE design_id = ?`,
		name, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("designs: rename %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a design. Deleting an unknown ID returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM designs WHERE design_id = ?`, id)
	if err != nil {
		return fmt.Errorf("designs: delete %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
