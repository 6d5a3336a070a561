// Package db contains the data-access layer for the vault.
//
// The layer only ever handles envelope ciphertext: encryption and decryption
// happen in internal/vault before data reaches a Store, so a database dump
// never contains plaintext secrets.
//
// Layout
//   - `Store` is the full interface; `InitDB` opens a backend (SQLite by
//     default, PostgreSQL and MySQL supported), runs the embedded migrations
//     and installs a package-level Store that the package-level wrapper
//     functions delegate to.
//   - Low-level Bun helpers (one function per query) live in bun_adapter.go.
//     The shared `bunStore` in bun_store.go composes them into the Store
//     interface and adds audit logging; the per-dialect types only pick the
//     Bun dialect.
//   - `AuditWriter` is a one-method interface for appending audit events.
//     `DefaultAuditWriter()` resolves a test override first, then the
//     package-level Store, so callers can log without threading a Store
//     through every signature.
//
// Testing notes
//   - Prefer `db.InitDB("sqlite", "file:NAME?mode=memory&cache=shared")` in
//     tests that need real DB semantics and migrations.
//   - For unit tests that only need auditing, inject a fake via
//     `SetDefaultAuditWriter` / `ClearDefaultAuditWriter`.
package db
