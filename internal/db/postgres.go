// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"

	"github.com/uptrace/bun"
)

// PostgresStore is the PostgreSQL-backed Store, opened through the pgx
// stdlib driver.
type PostgresStore struct {
	bunStore
}

// NewPostgresStore wraps an open PostgreSQL handle in a Store.
func NewPostgresStore(sqldb *sql.DB, bdb *bun.DB) *PostgresStore {
	return &PostgresStore{bunStore{db: sqldb, bun: bdb}}
}
