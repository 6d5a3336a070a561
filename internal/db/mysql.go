// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"

	"github.com/uptrace/bun"
)

// MySQLStore is the MySQL/MariaDB-backed Store.
type MySQLStore struct {
	bunStore
}

// NewMySQLStore wraps an open MySQL handle in a Store.
func NewMySQLStore(sqldb *sql.DB, bdb *bun.DB) *MySQLStore {
	return &MySQLStore{bunStore{db: sqldb, bun: bdb}}
}
