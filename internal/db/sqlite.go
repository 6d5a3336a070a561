// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"

	"github.com/uptrace/bun"
)

// SqliteStore is the SQLite-backed Store. This is the default backend: a
// single local file, no server, connections capped at one writer.
type SqliteStore struct {
	bunStore
}

// NewSqliteStore wraps an open SQLite handle in a Store.
func NewSqliteStore(sqldb *sql.DB, bdb *bun.DB) *SqliteStore {
	return &SqliteStore{bunStore{db: sqldb, bun: bdb}}
}
