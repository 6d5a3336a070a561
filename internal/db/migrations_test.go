// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"testing"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		// InitDB already ran the migrations once; a second run must be a
		// no-op rather than an error.
		if err := RunMigrations(s.db, "sqlite"); err != nil {
			t.Fatalf("second RunMigrations failed: %v", err)
		}

		var count int
		row := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", "001_init")
		if err := row.Scan(&count); err != nil {
			t.Fatalf("query schema_migrations: %v", err)
		}
		if count != 1 {
			t.Errorf("001_init recorded %d times, want 1", count)
		}
	})
}

func TestMigrationsCreateAllTables(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		for _, table := range []string{
			"master_identities", "credential_entries", "retired_entry_ids", "audit_log",
		} {
			var name string
			row := s.db.QueryRow(
				"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
			if err := row.Scan(&name); err != nil {
				t.Errorf("table %s missing: %v", table, err)
			}
		}
	})
}

func TestEnsureSchemaMigrationsUpgradesLegacyTable(t *testing.T) {
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	sqldb, err := sqlOpenFunc("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer sqldb.Close()
	sqldb.SetMaxOpenConns(1)

	// Simulate a database created before the applied_at column existed.
	if _, err := sqldb.Exec("CREATE TABLE schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}

	if err := ensureSchemaMigrationsTable(sqldb, "sqlite"); err != nil {
		t.Fatalf("ensureSchemaMigrationsTable failed: %v", err)
	}

	rows, err := sqldb.Query("PRAGMA table_info(schema_migrations)")
	if err != nil {
		t.Fatalf("table_info: %v", err)
	}
	defer rows.Close()
	found := false
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan table_info: %v", err)
		}
		if name == "applied_at" {
			found = true
		}
	}
	if !found {
		t.Errorf("applied_at column was not added")
	}
}

func TestNewStoreFromDSNRejectsUnknownType(t *testing.T) {
	if _, err := NewStoreFromDSN("oracle", "whatever"); err == nil {
		t.Errorf("expected error for unsupported database type")
	}
}
