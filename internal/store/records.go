package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"valetsite/internal/content"
)

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS records (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  collection TEXT NOT NULL,
  data TEXT NOT NULL DEFAULT '{}',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS images (
  key TEXT PRIMARY KEY,
  source_url TEXT NOT NULL,
  content_type TEXT NOT NULL,
  bytes BLOB NOT NULL,
  fetched_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_records_collection
ON records(collection, seq);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_images_fetched_at
ON images(fetched_at);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

// FetchAll returns every record of a collection in insertion order.
func (d *DB) FetchAll(ctx context.Context, collection string) (content.Result, error) {
	if err := content.ValidCollection(collection); err != nil {
		return content.Result{}, fmt.Errorf("fetch %q: %w", collection, err)
	}

	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, data, created_at, updated_at
FROM records
WHERE collection = ?
ORDER BY seq ASC;
`, collection)
	if err != nil {
		return content.Result{}, fmt.Errorf("fetch %q: %w", collection, err)
	}
	defer rows.Close()

	out := content.Result{Items: []content.Record{}}
	for rows.Next() {
		var (
			r                content.Record
			data             string
			created, updated string
		)
		if err := rows.Scan(&r.ID, &data, &created, &updated); err != nil {
			return content.Result{}, err
		}
		if err := json.Unmarshal([]byte(data), &r.Fields); err != nil {
			return content.Result{}, fmt.Errorf("decode record %s: %w", r.ID, err)
		}
		r.Created, _ = time.Parse(time.RFC3339Nano, created)
		r.Updated, _ = time.Parse(time.RFC3339Nano, updated)
		out.Items = append(out.Items, r)
	}
	if err := rows.Err(); err != nil {
		return content.Result{}, err
	}
	return out, nil
}

func (d *DB) Create(ctx context.Context, collection string, payload map[string]any) (content.Record, error) {
	if err := content.ValidCollection(collection); err != nil {
		return content.Record{}, fmt.Errorf("create in %q: %w", collection, err)
	}
	if len(payload) == 0 {
		return content.Record{}, content.ErrEmptyPayload
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return content.Record{}, fmt.Errorf("encode payload: %w", err)
	}

	now := d.now().UTC()
	rec := content.Record{ID: uuid.NewString(), Created: now, Updated: now}
	stamp := now.Format(time.RFC3339Nano)

	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO records(id, collection, data, created_at, updated_at)
VALUES(?,?,?,?,?);`,
		rec.ID, collection, string(data), stamp, stamp)
	if err != nil {
		return content.Record{}, fmt.Errorf("insert into %q: %w", collection, err)
	}

	// hand back what was stored, not the caller's map
	if err := json.Unmarshal(data, &rec.Fields); err != nil {
		return content.Record{}, err
	}
	return rec, nil
}

// Count reports how many records a collection holds.
func (d *DB) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection = ?;`, collection,
	).Scan(&n)
	return n, err
}
