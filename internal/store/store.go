// Package store persists texts and their apparatus layers in SQLite, so
// whole corpora can be imported once and rendered repeatedly.
//
// Two drivers are supported behind build tags: the default pure Go
// modernc.org/sqlite, and mattn/go-sqlite3 with -tags cgo_sqlite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/marchetti-editions/stemma/core/apparatus"
	"github.com/marchetti-editions/stemma/core/errors"
	"github.com/marchetti-editions/stemma/core/span"
)

const schema = `
CREATE TABLE IF NOT EXISTS texts (
	id    TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	lang  TEXT NOT NULL DEFAULT '',
	body  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS spans (
	text_id       TEXT NOT NULL REFERENCES texts(id) ON DELETE CASCADE,
	pos_start     INTEGER NOT NULL,
	pos_end       INTEGER NOT NULL,
	annotation_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS fragments (
	text_id      TEXT NOT NULL REFERENCES texts(id) ON DELETE CASCADE,
	key          TEXT NOT NULL,
	entries_json TEXT NOT NULL,
	PRIMARY KEY (text_id, key)
);
CREATE INDEX IF NOT EXISTS idx_spans_text ON spans(text_id);
`

// Text is one stored text unit.
type Text struct {
	ID    string
	Title string
	Lang  string
	Body  string
}

// Store wraps a SQLite database holding texts and layers.
type Store struct {
	db *sql.DB
}

// DriverType returns "purego" or "cgo" depending on the compiled driver.
func DriverType() string {
	return driverType
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveText stores a text with its annotated spans, replacing any previous
// text with the same id.
func (s *Store) SaveText(ctx context.Context, t *Text, ranges []span.AnnotatedRange) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO texts (id, title, lang, body) VALUES (?, ?, ?, ?)`,
		t.ID, t.Title, t.Lang, t.Body); err != nil {
		return fmt.Errorf("saving text %s: %w", t.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM spans WHERE text_id = ?`, t.ID); err != nil {
		return err
	}
	for _, r := range ranges {
		for _, id := range r.AnnotationIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO spans (text_id, pos_start, pos_end, annotation_id) VALUES (?, ?, ?, ?)`,
				t.ID, r.Start, r.End, id); err != nil {
				return fmt.Errorf("saving span of %s: %w", t.ID, err)
			}
		}
	}
	return tx.Commit()
}

// LoadText loads a text and its annotated spans.
func (s *Store) LoadText(ctx context.Context, id string) (*Text, []span.AnnotatedRange, error) {
	t := &Text{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT title, lang, body FROM texts WHERE id = ?`, id).
		Scan(&t.Title, &t.Lang, &t.Body)
	if err == sql.ErrNoRows {
		return nil, nil, errors.NewNotFound("text", id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading text %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pos_start, pos_end, annotation_id FROM spans WHERE text_id = ? ORDER BY pos_start, pos_end`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading spans of %s: %w", id, err)
	}
	defer rows.Close()

	var ranges []span.AnnotatedRange
	for rows.Next() {
		var r span.AnnotatedRange
		var annotationID string
		if err := rows.Scan(&r.Start, &r.End, &annotationID); err != nil {
			return nil, nil, err
		}
		r.AnnotationIDs = []string{annotationID}
		ranges = append(ranges, r)
	}
	return t, ranges, rows.Err()
}

// SaveLayer stores a text's apparatus layer, fragment by fragment.
func (s *Store) SaveLayer(ctx context.Context, textID string, layer *apparatus.Layer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fragments WHERE text_id = ?`, textID); err != nil {
		return err
	}
	for key, frag := range layer.Fragments {
		data, err := json.Marshal(frag.Entries)
		if err != nil {
			return fmt.Errorf("encoding fragment %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fragments (text_id, key, entries_json) VALUES (?, ?, ?)`,
			textID, key, string(data)); err != nil {
			return fmt.Errorf("saving fragment %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// LoadLayer loads a text's apparatus layer. A text without fragments yields
// an empty layer, not an error.
func (s *Store) LoadLayer(ctx context.Context, textID string) (*apparatus.Layer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, entries_json FROM fragments WHERE text_id = ?`, textID)
	if err != nil {
		return nil, fmt.Errorf("loading layer of %s: %w", textID, err)
	}
	defer rows.Close()

	layer := apparatus.NewLayer()
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, err
		}
		var entries []apparatus.Entry
		if err := json.Unmarshal([]byte(data), &entries); err != nil {
			return nil, fmt.Errorf("decoding fragment %s: %w", key, err)
		}
		layer.AddFragment(&apparatus.Fragment{Key: key, Entries: entries})
	}
	return layer, rows.Err()
}

// ListTexts returns the ids of all stored texts in order.
func (s *Store) ListTexts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM texts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
