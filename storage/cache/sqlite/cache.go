// Package sqlitecache keeps the local copy of the planner snapshot in a SQLite file.
package sqlitecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/trezcool/cuaderno/core/planner"
	"github.com/trezcool/cuaderno/fs"
)

// MemoryPath opens a throwaway in-memory cache.
const MemoryPath = ":memory:"

// Cache stores the snapshot JSON in the state table, in the bucket planner.CacheKey.
type Cache struct {
	db *sqlx.DB
}

var _ planner.Cache = (*Cache)(nil)

func Open(ctx context.Context, path string) (*Cache, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.Wrap(err, "creating cache dir")
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	// a single connection: an in-memory database lives and dies with it
	db.SetMaxOpenConns(1)

	if err = migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	migrations, err := fs.Sub(appfs.FS, appfs.SQLiteMigrationsDir)
	if err != nil {
		return errors.Wrap(err, "reading cache migrations")
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.DB, migrations)
	if err != nil {
		return errors.Wrap(err, "preparing cache migrations")
	}
	if _, err = provider.Up(ctx); err != nil {
		return errors.Wrap(err, "migrating cache")
	}
	return nil
}

func (c *Cache) Load(ctx context.Context) (planner.Snapshot, bool, error) {
	var payload []byte
	err := c.db.GetContext(ctx, &payload, `SELECT payload FROM state WHERE bucket = ?`, planner.CacheKey)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return planner.Snapshot{}, false, nil
	case err != nil:
		return planner.Snapshot{}, false, errors.Wrap(err, "selecting snapshot")
	}
	snap, err := planner.ParseSnapshot(payload)
	if err != nil {
		return planner.Snapshot{}, false, errors.Wrap(err, "decoding snapshot")
	}
	return snap, true, nil
}

func (c *Cache) Save(ctx context.Context, snap planner.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	q := `
		INSERT INTO state (bucket, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (bucket) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err = c.db.ExecContext(ctx, q, planner.CacheKey, payload); err != nil {
		return errors.Wrap(err, "saving snapshot")
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM state WHERE bucket = ?`, planner.CacheKey); err != nil {
		return errors.Wrap(err, "clearing snapshot")
	}
	return nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
