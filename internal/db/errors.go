// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"strings"
)

// ErrDuplicate indicates a uniqueness violation (duplicate username, email
// or entry id). Callers can match it with errors.Is.
var ErrDuplicate = errors.New("duplicate record")

// ErrNotFound indicates that a lookup by id or key matched no row.
var ErrNotFound = errors.New("record not found")

// MapDBError converts driver-specific error messages into package sentinels
// where possible. Unknown errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	// sqlite: "UNIQUE constraint failed", postgres: SQLSTATE 23505,
	// mysql: error 1062 / "duplicate entry".
	if strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "23505") ||
		strings.Contains(msg, "1062") {
		return ErrDuplicate
	}
	return err
}
