// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/strongroom-io/strongroom/internal/model"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// store is the package-level Store installed by InitDB (or New in tests).
var store Store

//go:embed migrations
var embeddedMigrations embed.FS

// sqlOpenFunc lets tests intercept database opening.
var sqlOpenFunc = sql.Open

// InitDB opens the database, applies pending migrations and installs the
// resulting Store as the package-level default.
func InitDB(dbType string, dsn string) error {
	s, err := NewStoreFromDSN(dbType, dsn)
	if err != nil {
		return err
	}
	store = s
	return nil
}

// IsInitialized reports whether a package-level Store is available.
func IsInitialized() bool { return store != nil }

// CloseDB closes and clears the package-level Store. Safe to call when no
// store is installed.
func CloseDB() error {
	if store == nil {
		return nil
	}
	err := store.Close()
	store = nil
	return err
}

// NewStoreFromDSN opens a database connection for the given backend type
// ("sqlite", "postgres" or "mysql"), configures the connection pool, runs
// migrations and returns a ready Store.
func NewStoreFromDSN(dbType string, dsn string) (Store, error) {
	start := time.Now()

	driver := dbType
	if dbType == "postgres" {
		driver = "pgx"
	}
	sqldb, err := sqlOpenFunc(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dbType, err)
	}

	maxOpen := envInt("STRONGROOM_DB_MAX_OPEN_CONNS", 25)
	maxIdle := envInt("STRONGROOM_DB_MAX_IDLE_CONNS", 25)
	maxLifetime := envDuration("STRONGROOM_DB_CONN_MAX_LIFETIME", 5*time.Minute)
	maxIdleTime := envDuration("STRONGROOM_DB_CONN_MAX_IDLE_TIME", 60*time.Second)
	if dbType == "sqlite" {
		// A single writer avoids SQLITE_BUSY under concurrent vault
		// operations; serialization happens at the pool.
		maxOpen, maxIdle = 1, 1
	}
	sqldb.SetMaxOpenConns(maxOpen)
	sqldb.SetMaxIdleConns(maxIdle)
	sqldb.SetConnMaxLifetime(maxLifetime)
	sqldb.SetConnMaxIdleTime(maxIdleTime)

	dbLogf("opened %s database in %s", dbType, time.Since(start))

	if err := RunMigrations(sqldb, dbType); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return createBunDB(sqldb, dbType)
}

func createBunDB(sqldb *sql.DB, dbType string) (Store, error) {
	switch dbType {
	case "sqlite":
		return NewSqliteStore(sqldb, bun.NewDB(sqldb, sqlitedialect.New())), nil
	case "postgres":
		return NewPostgresStore(sqldb, bun.NewDB(sqldb, pgdialect.New())), nil
	case "mysql":
		return NewMySQLStore(sqldb, bun.NewDB(sqldb, mysqldialect.New())), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// RunMigrations applies the embedded migrations for the given backend that
// have not been recorded in schema_migrations yet. Files are applied in
// lexical order; each file runs in its own transaction.
func RunMigrations(sqldb *sql.DB, dbType string) error {
	start := time.Now()
	if err := ensureSchemaMigrationsTable(sqldb, dbType); err != nil {
		return err
	}

	dir := "migrations/" + dbType
	entries, err := fs.ReadDir(embeddedMigrations, dir)
	if errors.Is(err, fs.ErrNotExist) {
		dbLogf("no migrations for %s", dbType)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read migrations for %s: %w", dbType, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	placeholder := "?"
	if dbType == "postgres" {
		placeholder = "$1"
	}

	for _, name := range files {
		version := strings.TrimSuffix(name, ".up.sql")

		var count int
		row := sqldb.QueryRow(
			"SELECT COUNT(*) FROM schema_migrations WHERE version = "+placeholder, version)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if count > 0 {
			continue
		}

		content, err := fs.ReadFile(embeddedMigrations, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if err := applyMigration(sqldb, dbType, version, string(content)); err != nil {
			return err
		}
		dbLogf("applied migration %s", version)
	}

	dbLogf("migrations for %s completed in %s", dbType, time.Since(start))
	return nil
}

// applyMigration runs one migration file inside a transaction and records it.
// Statements are split on semicolons; none of our migrations contain bodies
// with embedded semicolons.
func applyMigration(sqldb *sql.DB, dbType string, version string, content string) error {
	tx, err := sqldb.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range strings.Split(content, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
	}

	insert := "INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)"
	if dbType == "postgres" {
		insert = "INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)"
	}
	if _, err := tx.Exec(insert, version, time.Now().UTC()); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}

// ensureSchemaMigrationsTable creates the bookkeeping table when missing and
// upgrades older layouts that lack the applied_at column.
func ensureSchemaMigrationsTable(sqldb *sql.DB, dbType string) error {
	create := "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"
	if dbType == "mysql" {
		// TEXT cannot be a primary key on MySQL; 191 keeps the index within
		// utf8mb4 key-length limits.
		create = "CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(191) PRIMARY KEY)"
	}
	if _, err := sqldb.Exec(create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	hasColumn := false
	switch dbType {
	case "sqlite":
		rows, err := sqldb.Query("PRAGMA table_info(schema_migrations)")
		if err != nil {
			return fmt.Errorf("inspect schema_migrations: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var cid int
			var name, ctype string
			var notnull int
			var dflt sql.NullString
			var pk int
			if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
				return fmt.Errorf("inspect schema_migrations: %w", err)
			}
			if name == "applied_at" {
				hasColumn = true
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("inspect schema_migrations: %w", err)
		}
	case "postgres":
		row := sqldb.QueryRow(
			"SELECT COUNT(*) FROM information_schema.columns WHERE table_name = 'schema_migrations' AND column_name = 'applied_at'")
		var count int
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("inspect schema_migrations: %w", err)
		}
		hasColumn = count > 0
	case "mysql":
		row := sqldb.QueryRow(
			"SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = 'schema_migrations' AND column_name = 'applied_at'")
		var count int
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("inspect schema_migrations: %w", err)
		}
		hasColumn = count > 0
	default:
		return fmt.Errorf("unsupported database type: %s", dbType)
	}

	if !hasColumn {
		alter := "ALTER TABLE schema_migrations ADD COLUMN applied_at TEXT"
		switch dbType {
		case "postgres":
			alter = "ALTER TABLE schema_migrations ADD COLUMN applied_at TIMESTAMPTZ"
		case "mysql":
			alter = "ALTER TABLE schema_migrations ADD COLUMN applied_at TIMESTAMP NULL"
		}
		if _, err := sqldb.Exec(alter); err != nil {
			return fmt.Errorf("add applied_at to schema_migrations: %w", err)
		}
	}
	return nil
}

// RunDBMaintenance compacts and checks the database behind the package-level
// Store. SQLite gets a VACUUM plus an integrity check; server backends get
// their native equivalents.
func RunDBMaintenance() error {
	if store == nil {
		return fmt.Errorf("database not initialized; call InitDB first")
	}
	bdb := store.BunDB()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch store.(type) {
	case *SqliteStore:
		if err := ExecRaw(ctx, bdb, "PRAGMA optimize"); err != nil {
			dbLogf("PRAGMA optimize failed: %v", err)
		}
		if err := ExecRaw(ctx, bdb, "VACUUM"); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
		// Harmless when the database is not in WAL mode.
		_ = ExecRaw(ctx, bdb, "PRAGMA wal_checkpoint(TRUNCATE)")
		var result string
		if err := QueryRawInto(ctx, bdb, &result, "PRAGMA integrity_check"); err != nil {
			return fmt.Errorf("integrity check: %w", err)
		}
		if result != "ok" {
			return fmt.Errorf("integrity check failed: %s", result)
		}
	case *PostgresStore:
		if err := ExecRaw(ctx, bdb, "VACUUM ANALYZE"); err != nil {
			return fmt.Errorf("vacuum analyze: %w", err)
		}
	case *MySQLStore:
		var tables []string
		if err := QueryRawInto(ctx, bdb, &tables, "SHOW TABLES"); err != nil {
			return fmt.Errorf("list tables: %w", err)
		}
		for _, table := range tables {
			if err := ExecRaw(ctx, bdb, "OPTIMIZE TABLE "+table); err != nil {
				dbLogf("optimize %s failed: %v", table, err)
			}
		}
	default:
		return fmt.Errorf("maintenance not supported for this store")
	}
	return nil
}

// --- package-level wrappers over the default store ---

func errNotInitialized() error {
	return fmt.Errorf("database not initialized; call InitDB first")
}

// SaveMasterIdentity delegates to the package-level Store.
func SaveMasterIdentity(identity *model.MasterIdentity) (int, error) {
	if store == nil {
		return 0, errNotInitialized()
	}
	return store.SaveMasterIdentity(identity)
}

// GetMasterIdentity delegates to the package-level Store.
func GetMasterIdentity(username string) (*model.MasterIdentity, error) {
	if store == nil {
		return nil, errNotInitialized()
	}
	return store.GetMasterIdentity(username)
}

// GetMasterIdentityByEmail delegates to the package-level Store.
func GetMasterIdentityByEmail(email string) (*model.MasterIdentity, error) {
	if store == nil {
		return nil, errNotInitialized()
	}
	return store.GetMasterIdentityByEmail(email)
}

// GetAnyMasterIdentity delegates to the package-level Store.
func GetAnyMasterIdentity() (*model.MasterIdentity, error) {
	if store == nil {
		return nil, errNotInitialized()
	}
	return store.GetAnyMasterIdentity()
}

// UpdateMasterIdentity delegates to the package-level Store.
func UpdateMasterIdentity(identity *model.MasterIdentity) error {
	if store == nil {
		return errNotInitialized()
	}
	return store.UpdateMasterIdentity(identity)
}

// InsertEntry delegates to the package-level Store.
func InsertEntry(entry *model.CredentialEntry) error {
	if store == nil {
		return errNotInitialized()
	}
	return store.InsertEntry(entry)
}

// GetEntry delegates to the package-level Store.
func GetEntry(id string) (*model.CredentialEntry, error) {
	if store == nil {
		return nil, errNotInitialized()
	}
	return store.GetEntry(id)
}

// UpdateEntry delegates to the package-level Store.
func UpdateEntry(entry *model.CredentialEntry) error {
	if store == nil {
		return errNotInitialized()
	}
	return store.UpdateEntry(entry)
}

// DeleteEntry delegates to the package-level Store.
func DeleteEntry(id string) error {
	if store == nil {
		return errNotInitialized()
	}
	return store.DeleteEntry(id)
}

// ListEntryIDs delegates to the package-level Store.
func ListEntryIDs() ([]string, error) {
	if store == nil {
		return nil, errNotInitialized()
	}
	return store.ListEntryIDs()
}

// ListEntryMetadata delegates to the package-level Store.
func ListEntryMetadata() ([]model.EntryMetadata, error) {
	if store == nil {
		return nil, errNotInitialized()
	}
	return store.ListEntryMetadata()
}

// GetAllEntries delegates to the package-level Store.
func GetAllEntries() ([]model.CredentialEntry, error) {
	if store == nil {
		return nil, errNotInitialized()
	}
	return store.GetAllEntries()
}

// ReplaceAllEntries delegates to the package-level Store.
func ReplaceAllEntries(identity *model.MasterIdentity, entries []model.CredentialEntry) error {
	if store == nil {
		return errNotInitialized()
	}
	return store.ReplaceAllEntries(identity, entries)
}

// GetAllAuditLogEntries delegates to the package-level Store.
func GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	if store == nil {
		return nil, errNotInitialized()
	}
	return store.GetAllAuditLogEntries()
}

// LogAction writes an audit event through the default AuditWriter, which
// tests may override via SetDefaultAuditWriter.
func LogAction(action string, details string) error {
	if w := DefaultAuditWriter(); w != nil {
		return w.LogAction(action, details)
	}
	return errNotInitialized()
}

// ExportDataForBackup delegates to the package-level Store.
func ExportDataForBackup() (*model.BackupData, error) {
	if store == nil {
		return nil, errNotInitialized()
	}
	return store.ExportDataForBackup()
}

// ImportDataFromBackup delegates to the package-level Store.
func ImportDataFromBackup(backup *model.BackupData) error {
	if store == nil {
		return errNotInitialized()
	}
	return store.ImportDataFromBackup(backup)
}

// --- env helpers ---

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
