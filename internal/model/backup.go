// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.
package model

// BackupSchemaVersion identifies the layout of BackupData payloads. Bump it
// when the exported shape changes so restore can refuse what it cannot read.
const BackupSchemaVersion = 1

// BackupData is the container for everything exported in a vault backup.
// Entries stay sealed exactly as stored; retired ids travel along so a
// restored vault keeps refusing to reuse them.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version"`

	// Data from each table.
	MasterIdentities []MasterIdentity  `json:"master_identities"`
	Entries          []CredentialEntry `json:"credential_entries"`
	RetiredEntryIDs  []string          `json:"retired_entry_ids"`
	AuditLogEntries  []AuditLogEntry   `json:"audit_log_entries"`
}
