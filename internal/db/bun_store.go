// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/strongroom-io/strongroom/internal/model"
)

// bunStore implements Store on top of the Bun helpers in bun_adapter.go and
// is shared by all dialect stores. Mutating operations append to the audit
// log on success; an audit failure never fails the operation itself.
type bunStore struct {
	db  *sql.DB
	bun *bun.DB
}

func (s *bunStore) BunDB() *bun.DB { return s.bun }

func (s *bunStore) Close() error { return s.bun.Close() }

// --- master identity methods ---

func (s *bunStore) SaveMasterIdentity(identity *model.MasterIdentity) (int, error) {
	id, err := SaveMasterIdentityBun(context.Background(), s.bun, identity)
	if err != nil {
		return 0, err
	}
	_ = s.LogAction("REGISTER_IDENTITY", fmt.Sprintf("username: %s", identity.Username))
	return id, nil
}

func (s *bunStore) GetMasterIdentity(username string) (*model.MasterIdentity, error) {
	return GetMasterIdentityBun(context.Background(), s.bun, username)
}

func (s *bunStore) GetMasterIdentityByEmail(email string) (*model.MasterIdentity, error) {
	return GetMasterIdentityByEmailBun(context.Background(), s.bun, email)
}

func (s *bunStore) GetAnyMasterIdentity() (*model.MasterIdentity, error) {
	return GetAnyMasterIdentityBun(context.Background(), s.bun)
}

func (s *bunStore) UpdateMasterIdentity(identity *model.MasterIdentity) error {
	return UpdateMasterIdentityBun(context.Background(), s.bun, identity)
}

// --- credential entry methods ---

func (s *bunStore) InsertEntry(entry *model.CredentialEntry) error {
	if err := InsertEntryBun(context.Background(), s.bun, entry); err != nil {
		return err
	}
	_ = s.LogAction("ADD_ENTRY", fmt.Sprintf("entry: %s (%s)", entry.ID, entry.AppName))
	return nil
}

func (s *bunStore) GetEntry(id string) (*model.CredentialEntry, error) {
	return GetEntryBun(context.Background(), s.bun, id)
}

func (s *bunStore) UpdateEntry(entry *model.CredentialEntry) error {
	if err := UpdateEntryBun(context.Background(), s.bun, entry); err != nil {
		return err
	}
	_ = s.LogAction("UPDATE_ENTRY", fmt.Sprintf("entry: %s (%s)", entry.ID, entry.AppName))
	return nil
}

func (s *bunStore) DeleteEntry(id string) error {
	if err := DeleteEntryBun(context.Background(), s.bun, id, time.Now().UTC()); err != nil {
		return err
	}
	_ = s.LogAction("DELETE_ENTRY", fmt.Sprintf("entry: %s", id))
	return nil
}

func (s *bunStore) ListEntryIDs() ([]string, error) {
	return ListEntryIDsBun(context.Background(), s.bun)
}

func (s *bunStore) ListEntryMetadata() ([]model.EntryMetadata, error) {
	return ListEntryMetadataBun(context.Background(), s.bun)
}

func (s *bunStore) GetAllEntries() ([]model.CredentialEntry, error) {
	return GetAllEntriesBun(context.Background(), s.bun)
}

func (s *bunStore) ReplaceAllEntries(identity *model.MasterIdentity, entries []model.CredentialEntry) error {
	if err := ReplaceAllEntriesBun(context.Background(), s.bun, identity, entries); err != nil {
		return err
	}
	_ = s.LogAction("CHANGE_PASSPHRASE", fmt.Sprintf("re-keyed %d entries", len(entries)))
	return nil
}

// --- audit log methods ---

func (s *bunStore) LogAction(action string, details string) error {
	return LogActionBun(context.Background(), s.bun, action, details)
}

func (s *bunStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(context.Background(), s.bun)
}

// --- backup and restore methods ---

func (s *bunStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(context.Background(), s.bun)
}

func (s *bunStore) ImportDataFromBackup(backup *model.BackupData) error {
	if err := ImportDataFromBackupBun(context.Background(), s.bun, backup); err != nil {
		return err
	}
	// Logged after the import so the event lands in the restored audit trail.
	_ = s.LogAction("RESTORE_BACKUP", fmt.Sprintf("restored %d entries, %d identities",
		len(backup.Entries), len(backup.MasterIdentities)))
	return nil
}
