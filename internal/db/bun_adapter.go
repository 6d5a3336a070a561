// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Low-level Bun helpers for the vault schema. The functions in this file
// operate on an explicit *bun.DB (or bun.Tx via WithTx) and contain no audit
// logging; the Store implementations layer auditing on top.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/strongroom-io/strongroom/internal/model"
)

// MasterIdentityModel is the bun representation of the master_identities
// table. Salt and verifier are opaque bytes; the KDF parameters travel as the
// encoded string produced by kdf.Params.String.
type MasterIdentityModel struct {
	bun.BaseModel `bun:"table:master_identities"`

	ID        int       `bun:"id,pk,autoincrement"`
	Username  string    `bun:"username"`
	Email     string    `bun:"email"`
	Salt      []byte    `bun:"salt"`
	Verifier  []byte    `bun:"verifier"`
	KDFParams string    `bun:"kdf_params"`
	CreatedAt time.Time `bun:"created_at"`
	UpdatedAt time.Time `bun:"updated_at"`
}

// CredentialEntryModel is the bun representation of the credential_entries
// table. All *_envelope columns hold marshalled envelopes; the contact
// envelope is NULL when the entry has no contact field.
type CredentialEntryModel struct {
	bun.BaseModel `bun:"table:credential_entries"`

	ID               string    `bun:"id,pk"`
	AppName          string    `bun:"app_name"`
	UsernameEnvelope []byte    `bun:"username_envelope"`
	ContactEnvelope  []byte    `bun:"contact_envelope,nullzero"`
	SecretEnvelope   []byte    `bun:"secret_envelope"`
	CreatedAt        time.Time `bun:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at"`
}

// RetiredIDModel is the bun representation of the retired_entry_ids table,
// which keeps ids of deleted entries so they are never handed out again.
type RetiredIDModel struct {
	bun.BaseModel `bun:"table:retired_entry_ids"`

	ID        string    `bun:"id,pk"`
	RetiredAt time.Time `bun:"retired_at"`
}

// AuditLogModel is the bun representation of the audit_log table. The
// timestamp stays a string so the same model scans cleanly on all dialects.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`

	ID        int    `bun:"id,pk,autoincrement"`
	Timestamp string `bun:"timestamp"`
	Username  string `bun:"username"`
	Action    string `bun:"action"`
	Details   string `bun:"details"`
}

// --- mapping helpers ---

func toMasterIdentity(mm *MasterIdentityModel) *model.MasterIdentity {
	return &model.MasterIdentity{
		ID:        mm.ID,
		Username:  mm.Username,
		Email:     mm.Email,
		Salt:      mm.Salt,
		Verifier:  mm.Verifier,
		KDFParams: mm.KDFParams,
		CreatedAt: mm.CreatedAt,
		UpdatedAt: mm.UpdatedAt,
	}
}

func toMasterIdentityModel(m *model.MasterIdentity) *MasterIdentityModel {
	return &MasterIdentityModel{
		ID:        m.ID,
		Username:  m.Username,
		Email:     m.Email,
		Salt:      m.Salt,
		Verifier:  m.Verifier,
		KDFParams: m.KDFParams,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toCredentialEntry(em *CredentialEntryModel) *model.CredentialEntry {
	return &model.CredentialEntry{
		ID:               em.ID,
		AppName:          em.AppName,
		UsernameEnvelope: em.UsernameEnvelope,
		ContactEnvelope:  em.ContactEnvelope,
		SecretEnvelope:   em.SecretEnvelope,
		CreatedAt:        em.CreatedAt,
		UpdatedAt:        em.UpdatedAt,
	}
}

func toCredentialEntryModel(e *model.CredentialEntry) *CredentialEntryModel {
	return &CredentialEntryModel{
		ID:               e.ID,
		AppName:          e.AppName,
		UsernameEnvelope: e.UsernameEnvelope,
		ContactEnvelope:  e.ContactEnvelope,
		SecretEnvelope:   e.SecretEnvelope,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func toAuditLogEntry(am *AuditLogModel) model.AuditLogEntry {
	return model.AuditLogEntry{
		ID:        am.ID,
		Timestamp: am.Timestamp,
		Username:  am.Username,
		Action:    am.Action,
		Details:   am.Details,
	}
}

// --- master identity operations ---

// SaveMasterIdentityBun inserts a new master identity and fills in the
// generated id. Uses Returning so the same code works on Postgres and
// falls back to LastInsertId on MySQL.
func SaveMasterIdentityBun(ctx context.Context, bdb *bun.DB, m *model.MasterIdentity) (int, error) {
	mm := toMasterIdentityModel(m)
	_, err := bdb.NewInsert().Model(mm).
		Column("username", "email", "salt", "verifier", "kdf_params", "created_at", "updated_at").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, MapDBError(err)
	}
	m.ID = mm.ID
	return mm.ID, nil
}

// GetMasterIdentityBun fetches an identity by username.
func GetMasterIdentityBun(ctx context.Context, bdb *bun.DB, username string) (*model.MasterIdentity, error) {
	var mm MasterIdentityModel
	err := bdb.NewSelect().Model(&mm).Where("username = ?", username).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("master identity: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toMasterIdentity(&mm), nil
}

// GetMasterIdentityByEmailBun fetches an identity by email.
func GetMasterIdentityByEmailBun(ctx context.Context, bdb *bun.DB, email string) (*model.MasterIdentity, error) {
	var mm MasterIdentityModel
	err := bdb.NewSelect().Model(&mm).Where("email = ?", email).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("master identity: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toMasterIdentity(&mm), nil
}

// GetAnyMasterIdentityBun returns an arbitrary identity or (nil, nil) when
// none is registered yet.
func GetAnyMasterIdentityBun(ctx context.Context, bdb *bun.DB) (*model.MasterIdentity, error) {
	var mm MasterIdentityModel
	err := bdb.NewSelect().Model(&mm).OrderExpr("id ASC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toMasterIdentity(&mm), nil
}

// UpdateMasterIdentityBun rewrites the mutable columns of an identity row.
func UpdateMasterIdentityBun(ctx context.Context, bdb *bun.DB, m *model.MasterIdentity) error {
	mm := toMasterIdentityModel(m)
	res, err := bdb.NewUpdate().Model(mm).
		Column("email", "salt", "verifier", "kdf_params", "updated_at").
		Where("id = ?", mm.ID).
		Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("master identity %d: %w", mm.ID, ErrNotFound)
	}
	return nil
}

// --- credential entry operations ---

// InsertEntryBun stores a new entry. The insert and the retired-id check run
// in one transaction so a concurrent delete cannot open a reuse window.
func InsertEntryBun(ctx context.Context, bdb *bun.DB, entry *model.CredentialEntry) error {
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		retired, err := tx.NewSelect().Model((*RetiredIDModel)(nil)).
			Where("id = ?", entry.ID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check retired ids: %w", err)
		}
		if retired {
			return fmt.Errorf("entry id %s was retired: %w", entry.ID, ErrDuplicate)
		}
		if _, err := tx.NewInsert().Model(toCredentialEntryModel(entry)).Exec(ctx); err != nil {
			return MapDBError(err)
		}
		return nil
	})
}

// GetEntryBun fetches one entry by id.
func GetEntryBun(ctx context.Context, bdb *bun.DB, id string) (*model.CredentialEntry, error) {
	var em CredentialEntryModel
	err := bdb.NewSelect().Model(&em).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toCredentialEntry(&em), nil
}

// UpdateEntryBun rewrites the mutable columns of an entry row.
func UpdateEntryBun(ctx context.Context, bdb *bun.DB, entry *model.CredentialEntry) error {
	em := toCredentialEntryModel(entry)
	res, err := bdb.NewUpdate().Model(em).
		Column("app_name", "username_envelope", "contact_envelope", "secret_envelope", "updated_at").
		Where("id = ?", em.ID).
		Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("entry %s: %w", em.ID, ErrNotFound)
	}
	return nil
}

// DeleteEntryBun removes an entry and records its id in retired_entry_ids in
// the same transaction, so the id stays burned even if the process dies
// between the two statements.
func DeleteEntryBun(ctx context.Context, bdb *bun.DB, id string, retiredAt time.Time) error {
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*CredentialEntryModel)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		if _, err := tx.NewInsert().Model(&RetiredIDModel{ID: id, RetiredAt: retiredAt}).Exec(ctx); err != nil {
			return MapDBError(err)
		}
		return nil
	})
}

// ListEntryIDsBun returns all entry ids ordered by id.
func ListEntryIDsBun(ctx context.Context, bdb *bun.DB) ([]string, error) {
	var ids []string
	err := bdb.NewSelect().Model((*CredentialEntryModel)(nil)).
		Column("id").
		OrderExpr("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListEntryMetadataBun returns the plaintext columns of all entries ordered
// by application name, then id.
func ListEntryMetadataBun(ctx context.Context, bdb *bun.DB) ([]model.EntryMetadata, error) {
	var ems []CredentialEntryModel
	err := bdb.NewSelect().Model(&ems).
		Column("id", "app_name", "created_at", "updated_at").
		OrderExpr("app_name ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.EntryMetadata, 0, len(ems))
	for i := range ems {
		out = append(out, model.EntryMetadata{
			ID:        ems[i].ID,
			AppName:   ems[i].AppName,
			CreatedAt: ems[i].CreatedAt,
			UpdatedAt: ems[i].UpdatedAt,
		})
	}
	return out, nil
}

// GetAllEntriesBun returns every entry ordered by id.
func GetAllEntriesBun(ctx context.Context, bdb *bun.DB) ([]model.CredentialEntry, error) {
	var ems []CredentialEntryModel
	err := bdb.NewSelect().Model(&ems).OrderExpr("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.CredentialEntry, 0, len(ems))
	for i := range ems {
		out = append(out, *toCredentialEntry(&ems[i]))
	}
	return out, nil
}

// ReplaceAllEntriesBun rewrites the identity row and the envelopes of the
// given entries in a single transaction. A passphrase change must land as one
// atomic switch: a partially re-keyed vault would be unreadable.
func ReplaceAllEntriesBun(ctx context.Context, bdb *bun.DB, identity *model.MasterIdentity, entries []model.CredentialEntry) error {
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		mm := toMasterIdentityModel(identity)
		res, err := tx.NewUpdate().Model(mm).
			Column("email", "salt", "verifier", "kdf_params", "updated_at").
			Where("id = ?", mm.ID).
			Exec(ctx)
		if err != nil {
			return MapDBError(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("master identity %d: %w", mm.ID, ErrNotFound)
		}
		for i := range entries {
			em := toCredentialEntryModel(&entries[i])
			res, err := tx.NewUpdate().Model(em).
				Column("app_name", "username_envelope", "contact_envelope", "secret_envelope", "updated_at").
				Where("id = ?", em.ID).
				Exec(ctx)
			if err != nil {
				return MapDBError(err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("entry %s: %w", em.ID, ErrNotFound)
			}
		}
		return nil
	})
}

// --- audit log operations ---

// LogActionBun records an audit event attributed to the current OS user. The
// timestamp column is filled by the database.
func LogActionBun(ctx context.Context, bdb *bun.DB, action string, details string) error {
	username := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
		// Windows reports DOMAIN\user; keep the bare user name.
		if parts := strings.SplitN(username, `\`, 2); len(parts) == 2 {
			username = parts[1]
		}
	}
	return ExecRaw(ctx, bdb,
		"INSERT INTO audit_log (username, action, details) VALUES (?, ?, ?)",
		username, action, details)
}

// GetAllAuditLogEntriesBun returns the audit trail newest first. Ordered by
// id rather than timestamp so events within the same second keep their
// insertion order.
func GetAllAuditLogEntriesBun(ctx context.Context, bdb *bun.DB) ([]model.AuditLogEntry, error) {
	var rows []AuditLogModel
	err := bdb.NewSelect().Model(&rows).OrderExpr("id DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(rows))
	for i := range rows {
		out = append(out, toAuditLogEntry(&rows[i]))
	}
	return out, nil
}

// --- backup and restore operations ---

// ExportDataForBackupBun reads all four tables inside one transaction so the
// snapshot is internally consistent.
func ExportDataForBackupBun(ctx context.Context, bdb *bun.DB) (*model.BackupData, error) {
	backup := &model.BackupData{SchemaVersion: model.BackupSchemaVersion}
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		var masters []MasterIdentityModel
		if err := tx.NewSelect().Model(&masters).OrderExpr("id ASC").Scan(ctx); err != nil {
			return fmt.Errorf("export master identities: %w", err)
		}
		for i := range masters {
			backup.MasterIdentities = append(backup.MasterIdentities, *toMasterIdentity(&masters[i]))
		}

		var entries []CredentialEntryModel
		if err := tx.NewSelect().Model(&entries).OrderExpr("id ASC").Scan(ctx); err != nil {
			return fmt.Errorf("export entries: %w", err)
		}
		for i := range entries {
			backup.Entries = append(backup.Entries, *toCredentialEntry(&entries[i]))
		}

		var retired []string
		if err := tx.NewSelect().Model((*RetiredIDModel)(nil)).
			Column("id").
			OrderExpr("id ASC").
			Scan(ctx, &retired); err != nil {
			return fmt.Errorf("export retired ids: %w", err)
		}
		backup.RetiredEntryIDs = retired

		var audit []AuditLogModel
		if err := tx.NewSelect().Model(&audit).OrderExpr("id ASC").Scan(ctx); err != nil {
			return fmt.Errorf("export audit log: %w", err)
		}
		for i := range audit {
			backup.AuditLogEntries = append(backup.AuditLogEntries, toAuditLogEntry(&audit[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return backup, nil
}

// ImportDataFromBackupBun wipes the vault and loads the snapshot in one
// transaction. Entry ids and retired ids are preserved verbatim so a restored
// vault keeps refusing id reuse.
func ImportDataFromBackupBun(ctx context.Context, bdb *bun.DB, backup *model.BackupData) error {
	if backup == nil {
		return fmt.Errorf("nil backup data")
	}
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		for _, table := range []string{"credential_entries", "retired_entry_ids", "audit_log", "master_identities"} {
			if err := ExecRaw(ctx, tx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("wipe %s: %w", table, err)
			}
		}

		for i := range backup.MasterIdentities {
			mm := toMasterIdentityModel(&backup.MasterIdentities[i])
			if _, err := tx.NewInsert().Model(mm).Exec(ctx); err != nil {
				return fmt.Errorf("restore master identity %s: %w", mm.Username, MapDBError(err))
			}
		}
		for i := range backup.Entries {
			em := toCredentialEntryModel(&backup.Entries[i])
			if _, err := tx.NewInsert().Model(em).Exec(ctx); err != nil {
				return fmt.Errorf("restore entry %s: %w", em.ID, MapDBError(err))
			}
		}
		for _, id := range backup.RetiredEntryIDs {
			rm := &RetiredIDModel{ID: id, RetiredAt: time.Now().UTC()}
			if _, err := tx.NewInsert().Model(rm).Exec(ctx); err != nil {
				return fmt.Errorf("restore retired id %s: %w", id, MapDBError(err))
			}
		}
		for i := range backup.AuditLogEntries {
			ae := backup.AuditLogEntries[i]
			if err := ExecRaw(ctx, tx,
				"INSERT INTO audit_log (timestamp, username, action, details) VALUES (?, ?, ?, ?)",
				ae.Timestamp, ae.Username, ae.Action, ae.Details); err != nil {
				return fmt.Errorf("restore audit entry: %w", err)
			}
		}
		return nil
	})
}
