// Copyright 2026 godepindex authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package store implements the persistent symbol index: a WAL-mode
// SQLite database with a forward-only migration ladder and an FTS5
// trigram index kept coherent with the primary items table via
// triggers.
//
// The database is never a source of truth beyond the items table
// itself — items_fts is an acceleration structure, rebuilt during
// migration and otherwise maintained only by triggers.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver, built with sqlite_fts5

	"github.com/godepindex/godepindex/internal/errtax"
	"github.com/godepindex/godepindex/internal/item"
	"github.com/godepindex/godepindex/internal/semver"
)

const currentSchemaVersion = 2

// Store owns a connection to the on-disk symbol database. Per the
// concurrency model, a Store is not shared between goroutines in the
// sense of issuing overlapping writes on one *sql.DB expecting
// serialized semantics beyond what SQLite's own file lock gives you —
// callers that need a dedicated writer should open one Store for
// writing and separate Stores for concurrent reads.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the database at path, applies the
// engine pragmas, and runs any pending migrations.
func Open(path string, busyTimeout time.Duration, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d&cache_size=-20000&_foreign_keys=on",
		path, busyTimeout.Milliseconds(),
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errtax.NewStoreIOError("cannot open index database", err.Error(), "check that the path is writable", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return errtax.NewMigrationFailureError("cannot create meta table", err.Error(), "", err)
	}

	version, err := s.schemaVersion()
	if err != nil {
		return err
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
		version = 1
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
		version = 2
	}

	s.logger.Info("store.migrate.complete", "schema_version", version)
	return nil
}

func (s *Store) schemaVersion() (int, error) {
	row := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`)
	var raw string
	err := row.Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errtax.NewStoreIOError("cannot read schema version", err.Error(), "", err)
	}
	var v int
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0, errtax.NewMigrationFailureError("corrupt schema version", raw, "", err)
	}
	return v, nil
}

func (s *Store) setSchemaVersion(tx *sql.Tx, v int) error {
	_, err := tx.Exec(`INSERT INTO meta(key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprint(v))
	return err
}

// migrateV1 creates the relational schema: packages, items, and their
// supporting indexes.
func (s *Store) migrateV1() error {
	tx, err := s.db.Begin()
	if err != nil {
		return errtax.NewMigrationFailureError("cannot start v1 migration", err.Error(), "", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE packages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			root_path TEXT NOT NULL,
			indexed_at INTEGER NOT NULL,
			UNIQUE(name, version)
		)`,
		`CREATE TABLE items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			package_id INTEGER NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			kind TEXT NOT NULL,
			signature TEXT,
			doc TEXT,
			visibility TEXT NOT NULL,
			fields_json TEXT,
			methods_json TEXT,
			traits_json TEXT,
			variants_json TEXT,
			UNIQUE(package_id, path)
		)`,
		`CREATE INDEX idx_items_path ON items(path)`,
		`CREATE INDEX idx_items_kind ON items(kind)`,
		`CREATE INDEX idx_packages_name ON packages(name)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return errtax.NewMigrationFailureError("v1 migration statement failed", err.Error(), "", err)
		}
	}
	if err := s.setSchemaVersion(tx, 1); err != nil {
		return errtax.NewMigrationFailureError("cannot record v1 schema version", err.Error(), "", err)
	}
	if err := tx.Commit(); err != nil {
		return errtax.NewMigrationFailureError("cannot commit v1 migration", err.Error(), "", err)
	}
	return nil
}

// migrateV2 adds the FTS5 trigram shadow table and the three
// coherence triggers, then performs a one-shot rebuild over any
// existing items rows.
func (s *Store) migrateV2() error {
	tx, err := s.db.Begin()
	if err != nil {
		return errtax.NewMigrationFailureError("cannot start v2 migration", err.Error(), "", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE VIRTUAL TABLE items_fts USING fts5(path, content='items', content_rowid='id', tokenize='trigram')`,
		`CREATE TRIGGER items_fts_insert AFTER INSERT ON items BEGIN
			INSERT INTO items_fts(rowid, path) VALUES (new.id, new.path);
		END`,
		`CREATE TRIGGER items_fts_delete AFTER DELETE ON items BEGIN
			INSERT INTO items_fts(items_fts, rowid, path) VALUES ('delete', old.id, old.path);
		END`,
		`CREATE TRIGGER items_fts_update AFTER UPDATE ON items BEGIN
			INSERT INTO items_fts(items_fts, rowid, path) VALUES ('delete', old.id, old.path);
			INSERT INTO items_fts(rowid, path) VALUES (new.id, new.path);
		END`,
		`INSERT INTO items_fts(rowid, path) SELECT id, path FROM items`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return errtax.NewMigrationFailureError("v2 migration statement failed", err.Error(), "", err)
		}
	}
	if err := s.setSchemaVersion(tx, 2); err != nil {
		return errtax.NewMigrationFailureError("cannot record v2 schema version", err.Error(), "", err)
	}
	if err := tx.Commit(); err != nil {
		return errtax.NewMigrationFailureError("cannot commit v2 migration", err.Error(), "", err)
	}
	return nil
}

// PackageRecord mirrors a row of the packages table.
type PackageRecord struct {
	ID        int64
	Name      string
	Version   string
	RootPath  string
	IndexedAt time.Time
}

// Stats summarizes the store's content.
type Stats struct {
	PackageCount int
	ItemCount    int
	FileSizeBytes int64
}

// IsIndexed reports whether (name, version) already has a package row.
func (s *Store) IsIndexed(ctx context.Context, name, version string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM packages WHERE name = ? AND version = ?`, name, version)
	var x int
	err := row.Scan(&x)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errtax.NewStoreIOError("cannot check indexed state", err.Error(), "", err)
	}
	return true, nil
}

// IndexedSet returns the set of (name, version) pairs already indexed.
func (s *Store) IndexedSet(ctx context.Context) (map[item.PackageRef]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, version, root_path FROM packages`)
	if err != nil {
		return nil, errtax.NewStoreIOError("cannot list indexed packages", err.Error(), "", err)
	}
	defer rows.Close()

	set := make(map[item.PackageRef]bool)
	for rows.Next() {
		var ref item.PackageRef
		if err := rows.Scan(&ref.Name, &ref.Version, &ref.RootPath); err != nil {
			return nil, errtax.NewStoreIOError("cannot scan package row", err.Error(), "", err)
		}
		set[item.PackageRef{Name: ref.Name, Version: ref.Version}] = true
	}
	return set, rows.Err()
}

// ListPackages returns every package row, ordered by name then
// version.
func (s *Store) ListPackages(ctx context.Context) ([]PackageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, version, root_path, indexed_at FROM packages ORDER BY name, version`)
	if err != nil {
		return nil, errtax.NewStoreIOError("cannot list packages", err.Error(), "", err)
	}
	defer rows.Close()

	var out []PackageRecord
	for rows.Next() {
		var rec PackageRecord
		var indexedAtUnix int64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Version, &rec.RootPath, &indexedAtUnix); err != nil {
			return nil, errtax.NewStoreIOError("cannot scan package row", err.Error(), "", err)
		}
		rec.IndexedAt = time.Unix(indexedAtUnix, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PackageLatest returns the latest version of name already indexed,
// using a proper semantic-version comparison rather than the
// lexicographic comparison the original implementation used (see
// internal/semver).
func (s *Store) PackageLatest(ctx context.Context, name string) (string, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM packages WHERE name = ?`, name)
	if err != nil {
		return "", false, errtax.NewStoreIOError("cannot query package versions", err.Error(), "", err)
	}
	defer rows.Close()

	var latest string
	found := false
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return "", false, errtax.NewStoreIOError("cannot scan version row", err.Error(), "", err)
		}
		if !found {
			latest, found = v, true
			continue
		}
		latest = semver.Max(latest, v)
	}
	return latest, found, rows.Err()
}

// Stats reports package count, item count, and on-disk file size.
func (s *Store) Stats(ctx context.Context, dbPath string) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM packages`).Scan(&stats.PackageCount); err != nil {
		return stats, errtax.NewStoreIOError("cannot count packages", err.Error(), "", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&stats.ItemCount); err != nil {
		return stats, errtax.NewStoreIOError("cannot count items", err.Error(), "", err)
	}
	if fi, err := os.Stat(dbPath); err == nil {
		stats.FileSizeBytes = fi.Size()
	}
	return stats, nil
}

// Clear removes every package and item, leaving the schema and schema
// version intact.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errtax.NewStoreIOError("cannot start clear transaction", err.Error(), "", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return errtax.NewStoreIOError("cannot clear items", err.Error(), "", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM packages`); err != nil {
		return errtax.NewStoreIOError("cannot clear packages", err.Error(), "", err)
	}
	if err := tx.Commit(); err != nil {
		return errtax.NewStoreIOError("cannot commit clear", err.Error(), "", err)
	}
	return nil
}
