// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
)

// execRawProvider is the minimal surface of *bun.DB and bun.Tx needed by the
// raw-SQL helpers below, so the same helpers work inside and outside of a
// transaction.
type execRawProvider interface {
	NewRaw(query string, args ...interface{}) *bun.RawQuery
}

// ExecRaw executes a raw SQL statement that returns no rows.
func ExecRaw(ctx context.Context, db execRawProvider, query string, args ...interface{}) error {
	_, err := db.NewRaw(query, args...).Exec(ctx)
	return err
}

// QueryRawInto runs a raw SQL query and scans the result set into dest, which
// must be a pointer to a slice or struct supported by bun's scanner.
func QueryRawInto(ctx context.Context, db execRawProvider, dest interface{}, query string, args ...interface{}) error {
	return db.NewRaw(query, args...).Scan(ctx, dest)
}

// WithTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error or panics, and committed otherwise.
func WithTx(ctx context.Context, bdb *bun.DB, fn func(ctx context.Context, tx bun.Tx) error) error {
	tx, err := bdb.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	done = true
	return nil
}
