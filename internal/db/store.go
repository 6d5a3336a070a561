// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"github.com/strongroom-io/strongroom/internal/model"
	"github.com/uptrace/bun"
)

// Store defines the interface for all database operations. Implementations
// only ever see envelope ciphertext; plaintext secrets never reach this layer.
type Store interface {
	// --- Master identity methods ---

	// SaveMasterIdentity inserts a new master identity and returns its id.
	// Returns ErrDuplicate when the username or email is already taken.
	SaveMasterIdentity(identity *model.MasterIdentity) (int, error)
	// GetMasterIdentity looks up an identity by username. Returns ErrNotFound
	// when no such identity exists.
	GetMasterIdentity(username string) (*model.MasterIdentity, error)
	// GetMasterIdentityByEmail looks up an identity by email. Returns
	// ErrNotFound when no such identity exists.
	GetMasterIdentityByEmail(email string) (*model.MasterIdentity, error)
	// GetAnyMasterIdentity returns an arbitrary registered identity, or
	// (nil, nil) when the vault has none yet. Used as an existence probe.
	GetAnyMasterIdentity() (*model.MasterIdentity, error)
	// UpdateMasterIdentity rewrites the salt, verifier and KDF parameters of
	// an existing identity.
	UpdateMasterIdentity(identity *model.MasterIdentity) error

	// --- Credential entry methods ---

	// InsertEntry stores a new encrypted entry. Returns ErrDuplicate when the
	// id is already present or has been retired by an earlier delete.
	InsertEntry(entry *model.CredentialEntry) error
	// GetEntry fetches one encrypted entry by id. Returns ErrNotFound when
	// the id is unknown.
	GetEntry(id string) (*model.CredentialEntry, error)
	// UpdateEntry rewrites an existing entry. Returns ErrNotFound when the id
	// is unknown.
	UpdateEntry(entry *model.CredentialEntry) error
	// DeleteEntry removes an entry and retires its id so it can never be
	// assigned again. Returns ErrNotFound when the id is unknown.
	DeleteEntry(id string) error
	// ListEntryIDs returns all entry ids in stable order.
	ListEntryIDs() ([]string, error)
	// ListEntryMetadata returns the plaintext metadata (id, app name,
	// timestamps) of all entries without touching any envelope.
	ListEntryMetadata() ([]model.EntryMetadata, error)
	// GetAllEntries returns every encrypted entry.
	GetAllEntries() ([]model.CredentialEntry, error)
	// ReplaceAllEntries atomically rewrites the master identity record and
	// the envelopes of the given entries. Used when the passphrase changes;
	// either everything is re-keyed or nothing is.
	ReplaceAllEntries(identity *model.MasterIdentity, entries []model.CredentialEntry) error

	// --- Audit log methods ---

	// LogAction records an audit event attributed to the current OS user.
	LogAction(action string, details string) error
	// GetAllAuditLogEntries returns the audit trail, newest first.
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)

	// --- Backup and restore methods ---

	// ExportDataForBackup reads a consistent snapshot of all tables.
	ExportDataForBackup() (*model.BackupData, error)
	// ImportDataFromBackup wipes the database and loads the snapshot.
	ImportDataFromBackup(backup *model.BackupData) error

	// --- Lifecycle ---

	// BunDB exposes the underlying bun handle for maintenance tasks and the
	// low-level helpers in this package.
	BunDB() *bun.DB
	// Close releases the underlying database connections.
	Close() error
}
