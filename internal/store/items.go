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

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/godepindex/godepindex/internal/errtax"
	"github.com/godepindex/godepindex/internal/item"
)

// Batch is one package's worth of extracted items, the unit the
// pipeline's writer commits atomically.
type Batch struct {
	Package item.PackageRef
	Items   []item.Item
}

// WriteBatches commits a slice of Batches in a single transaction: for
// each package, upsert the package row, delete its existing items, and
// insert the new ones. The unique (package_id, path) key absorbs
// intra-batch duplicates via insert-or-replace, which is expected and
// normal when a symbol is re-exported through two module paths.
func (s *Store) WriteBatches(ctx context.Context, batches []Batch, indexedAt time.Time) (itemsWritten int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errtax.NewStoreIOError("cannot start batch transaction", err.Error(), "", err)
	}
	defer tx.Rollback()

	for _, b := range batches {
		pkgID, err := upsertPackage(ctx, tx, b.Package, indexedAt)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE package_id = ?`, pkgID); err != nil {
			return 0, errtax.NewStoreIOError("cannot clear existing items", err.Error(), "", err)
		}
		for _, it := range b.Items {
			if err := insertItem(ctx, tx, pkgID, it); err != nil {
				return 0, err
			}
			itemsWritten++
		}
	}

	if err := tx.Commit(); err != nil {
		if isBusyError(err) {
			return 0, errtax.NewContentionTimeoutError("batch commit timed out", err.Error(), "retry, or raise busy_timeout_seconds", err)
		}
		return 0, errtax.NewStoreIOError("cannot commit batch", err.Error(), "", err)
	}
	return itemsWritten, nil
}

func isBusyError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "busy") || strings.Contains(strings.ToLower(err.Error()), "locked")
}

func upsertPackage(ctx context.Context, tx *sql.Tx, ref item.PackageRef, indexedAt time.Time) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO packages(name, version, root_path, indexed_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name, version) DO UPDATE SET root_path = excluded.root_path, indexed_at = excluded.indexed_at
	`, ref.Name, ref.Version, ref.RootPath, indexedAt.Unix())
	if err != nil {
		return 0, errtax.NewStoreIOError("cannot upsert package", err.Error(), "", err)
	}

	row := tx.QueryRowContext(ctx, `SELECT id FROM packages WHERE name = ? AND version = ?`, ref.Name, ref.Version)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, errtax.NewStoreIOError("cannot read package id", err.Error(), "", err)
	}
	return id, nil
}

func insertItem(ctx context.Context, tx *sql.Tx, pkgID int64, it item.Item) error {
	fieldsJSON, err := marshalOrEmpty(it.Fields)
	if err != nil {
		return err
	}
	methodsJSON, err := marshalOrEmpty(it.Methods)
	if err != nil {
		return err
	}
	traitsJSON, err := marshalOrEmpty(it.Traits)
	if err != nil {
		return err
	}
	variantsJSON, err := marshalOrEmpty(it.Variants)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO items(package_id, path, kind, signature, doc, visibility, fields_json, methods_json, traits_json, variants_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(package_id, path) DO UPDATE SET
			kind = excluded.kind, signature = excluded.signature, doc = excluded.doc,
			visibility = excluded.visibility, fields_json = excluded.fields_json,
			methods_json = excluded.methods_json, traits_json = excluded.traits_json,
			variants_json = excluded.variants_json
	`, pkgID, it.Path, string(it.Kind), it.Signature, it.Doc, string(it.Visibility),
		fieldsJSON, methodsJSON, traitsJSON, variantsJSON)
	if err != nil {
		return errtax.NewStoreIOError("cannot insert item", err.Error(), "", err)
	}
	return nil
}

func marshalOrEmpty(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errtax.NewStoreIOError("cannot marshal item field", err.Error(), "", err)
	}
	return string(data), nil
}

// ItemRow is a persisted Item joined with the package it belongs to.
type ItemRow struct {
	item.Item
	PackageName    string
	PackageVersion string
}

// ItemsByPackage returns one page (limit, offset; ordered by path) of
// the items belonging to (name, version), restricted to kind when kind
// is non-empty, together with the total count of matching items before
// pagination. If version is empty, the latest version by
// semantic-version comparison is used.
func (s *Store) ItemsByPackage(ctx context.Context, name, version string, kind item.Kind, limit, offset int) ([]ItemRow, int, error) {
	if version == "" {
		latest, ok, err := s.PackageLatest(ctx, name)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, nil
		}
		version = latest
	}

	where := `p.name = ? AND p.version = ?`
	args := []any{name, version}
	if kind != "" {
		where += ` AND i.kind = ?`
		args = append(args, string(kind))
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM items i JOIN packages p ON p.id = i.package_id WHERE %s`, where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errtax.NewStoreIOError("cannot count items", err.Error(), "", err)
	}

	query := fmt.Sprintf(`
		SELECT i.path, i.kind, i.signature, i.doc, i.visibility, i.fields_json, i.methods_json, i.traits_json, i.variants_json, p.name, p.version
		FROM items i JOIN packages p ON p.id = i.package_id
		WHERE %s ORDER BY i.path LIMIT ? OFFSET ?`, where)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errtax.NewStoreIOError("cannot query items by package", err.Error(), "", err)
	}
	defer rows.Close()

	out, err := scanItemRows(rows)
	return out, total, err
}

// SearchSubstring runs a trigram FTS match of query against item
// paths, joined back to items and packages, ordered by
// (package.name, package.version, path).
func (s *Store) SearchSubstring(ctx context.Context, query string) ([]ItemRow, error) {
	escaped := strings.ReplaceAll(query, `"`, `""`)
	phrase := fmt.Sprintf(`"%s"`, escaped)

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.path, i.kind, i.signature, i.doc, i.visibility, i.fields_json, i.methods_json, i.traits_json, i.variants_json, p.name, p.version
		FROM items_fts f
		JOIN items i ON i.id = f.rowid
		JOIN packages p ON p.id = i.package_id
		WHERE items_fts MATCH ?
		ORDER BY p.name, p.version, i.path
	`, phrase)
	if err != nil {
		return nil, errtax.NewStoreIOError("cannot run substring search", err.Error(), "", err)
	}
	defer rows.Close()

	return scanItemRows(rows)
}

func scanItemRows(rows *sql.Rows) ([]ItemRow, error) {
	var out []ItemRow
	for rows.Next() {
		var r ItemRow
		var kind, visibility, fieldsJSON, methodsJSON, traitsJSON, variantsJSON string
		var signature, doc sql.NullString
		if err := rows.Scan(&r.Path, &kind, &signature, &doc, &visibility, &fieldsJSON, &methodsJSON, &traitsJSON, &variantsJSON, &r.PackageName, &r.PackageVersion); err != nil {
			return nil, errtax.NewStoreIOError("cannot scan item row", err.Error(), "", err)
		}
		r.Kind = item.Kind(kind)
		r.Signature = signature.String
		r.Doc = doc.String
		r.Visibility = item.Visibility(visibility)
		if err := json.Unmarshal([]byte(fieldsJSON), &r.Fields); err != nil {
			return nil, errtax.NewStoreIOError("cannot unmarshal fields", err.Error(), "", err)
		}
		if err := json.Unmarshal([]byte(methodsJSON), &r.Methods); err != nil {
			return nil, errtax.NewStoreIOError("cannot unmarshal methods", err.Error(), "", err)
		}
		if err := json.Unmarshal([]byte(traitsJSON), &r.Traits); err != nil {
			return nil, errtax.NewStoreIOError("cannot unmarshal traits", err.Error(), "", err)
		}
		if err := json.Unmarshal([]byte(variantsJSON), &r.Variants); err != nil {
			return nil, errtax.NewStoreIOError("cannot unmarshal variants", err.Error(), "", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
