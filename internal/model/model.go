package model

import (
	"time"

	"github.com/strongroom-io/strongroom/internal/security"
)

// MasterIdentity is the registered owner of a vault. The passphrase itself
// is never stored: Salt, Verifier and KDFParams together let the
// authenticator check a supplied passphrase and re-derive the encryption
// key, and nothing else.
type MasterIdentity struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Salt      []byte    `json:"salt"`
	Verifier  []byte    `json:"verifier"`
	KDFParams string    `json:"kdf_params"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CredentialEntry is one stored credential in its persisted form: the
// application name in plaintext for listing, everything sensitive sealed
// into envelopes. ContactEnvelope is empty for entries without a contact.
type CredentialEntry struct {
	ID               string    `json:"id"`
	AppName          string    `json:"app_name"`
	UsernameEnvelope []byte    `json:"username_envelope"`
	ContactEnvelope  []byte    `json:"contact_envelope,omitempty"`
	SecretEnvelope   []byte    `json:"secret_envelope"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasContact reports whether the entry carries an optional contact field.
func (e CredentialEntry) HasContact() bool {
	return len(e.ContactEnvelope) > 0
}

// EntryMetadata is the listing projection of an entry. Nothing in it
// requires decryption.
type EntryMetadata struct {
	ID        string
	AppName   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryView is a decrypted entry as handed to a front end. The secret stays
// wrapped so formatting or logging a view cannot leak it.
type EntryView struct {
	ID       string
	AppName  string
	Username string
	Contact  string
	Secret   security.Secret
}

// AuditLogEntry records one vault operation: who did what, when, to which
// entry. Details never contain secret material.
type AuditLogEntry struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}
