// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/model"
	"github.com/strongroom-io/strongroom/internal/random"
	"github.com/strongroom-io/strongroom/internal/security"
)

const (
	backupEncryptionMethod = "pbkdf2-sha256+chacha20poly1305"
	backupKDFIterations    = 100_000
)

// BackupContainer is the self-describing encrypted form of a vault snapshot.
// The payload pipeline is JSON, then zstd, then AEAD under a key stretched
// from an independent backup passphrase; the container itself is plain JSON
// and safe to copy anywhere.
type BackupContainer struct {
	BackupID         string    `json:"backup_id"`
	CreatedAt        time.Time `json:"created_at"`
	SchemaVersion    int       `json:"schema_version"`
	EncryptionMethod string    `json:"encryption_method"`
	// Checksum is the SHA-256 of the uncompressed JSON payload, verified
	// after decryption.
	Checksum string `json:"checksum"`
	// EncryptedData is base64(salt || nonce || ciphertext).
	EncryptedData string `json:"encrypted_data"`
}

// EncodeBackup seals a snapshot under a backup passphrase. The passphrase is
// independent of the master passphrase, so a backup can outlive a passphrase
// change.
func EncodeBackup(data *model.BackupData, passphrase []byte) (*BackupContainer, error) {
	if data == nil {
		return nil, fmt.Errorf("nil backup data")
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("backup passphrase required")
	}

	plain, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode backup payload: %w", err)
	}
	sum := sha256.Sum256(plain)

	compressed, err := compress(plain)
	if err != nil {
		return nil, fmt.Errorf("compress backup payload: %w", err)
	}

	salt := random.Salt()
	key := pbkdf2.Key(passphrase, salt, backupKDFIterations, chacha20poly1305.KeySize, sha256.New)
	defer security.WipeBytes(key)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("init backup cipher: %w", err)
	}
	nonce := random.Nonce(chacha20poly1305.NonceSize)
	ct := aead.Seal(nil, nonce, compressed, nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(ct))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ct...)

	return &BackupContainer{
		BackupID:         uuid.NewString(),
		CreatedAt:        defaultClock.Now().UTC(),
		SchemaVersion:    data.SchemaVersion,
		EncryptionMethod: backupEncryptionMethod,
		Checksum:         hex.EncodeToString(sum[:]),
		EncryptedData:    base64.StdEncoding.EncodeToString(blob),
	}, nil
}

// DecodeBackup opens a container with the backup passphrase and verifies the
// payload checksum. A wrong passphrase and a tampered container are
// indistinguishable; both return ErrBackupCorrupt.
func DecodeBackup(container *BackupContainer, passphrase []byte) (*model.BackupData, error) {
	if container == nil {
		return nil, fmt.Errorf("nil backup container")
	}
	if container.EncryptionMethod != backupEncryptionMethod {
		return nil, fmt.Errorf("unsupported backup encryption method %q", container.EncryptionMethod)
	}

	blob, err := base64.StdEncoding.DecodeString(container.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed payload", ErrBackupCorrupt)
	}
	minLen := random.SaltSize + chacha20poly1305.NonceSize + chacha20poly1305.Overhead
	if len(blob) < minLen {
		return nil, fmt.Errorf("%w: truncated payload", ErrBackupCorrupt)
	}
	salt := blob[:random.SaltSize]
	nonce := blob[random.SaltSize : random.SaltSize+chacha20poly1305.NonceSize]
	ct := blob[random.SaltSize+chacha20poly1305.NonceSize:]

	key := pbkdf2.Key(passphrase, salt, backupKDFIterations, chacha20poly1305.KeySize, sha256.New)
	defer security.WipeBytes(key)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("init backup cipher: %w", err)
	}
	compressed, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong passphrase or tampered data", ErrBackupCorrupt)
	}

	plain, err := decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: payload does not decompress", ErrBackupCorrupt)
	}
	sum := sha256.Sum256(plain)
	if hex.EncodeToString(sum[:]) != container.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrBackupCorrupt)
	}

	var data model.BackupData
	if err := json.Unmarshal(plain, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed backup payload", ErrBackupCorrupt)
	}
	if data.SchemaVersion > model.BackupSchemaVersion {
		return nil, fmt.Errorf("backup schema version %d is newer than supported version %d",
			data.SchemaVersion, model.BackupSchemaVersion)
	}
	return &data, nil
}

// ExportBackup snapshots the vault and seals it under the given backup
// passphrase. Requires an unlocked session even though the snapshot contains
// only ciphertext.
func (s *Session) ExportBackup(passphrase []byte) (*BackupContainer, error) {
	s.rekeyGate.RLock()
	defer s.rekeyGate.RUnlock()
	if _, err := s.sessionKey(); err != nil {
		return nil, err
	}
	s.resetIdle()

	data, err := s.store.ExportDataForBackup()
	if err != nil {
		return nil, err
	}
	container, err := EncodeBackup(data, passphrase)
	if err != nil {
		return nil, err
	}
	_ = s.store.LogAction("EXPORT_BACKUP", fmt.Sprintf("backup id: %s", container.BackupID))
	return container, nil
}

// RestoreBackup decrypts a container and replaces the vault contents with
// the snapshot. Deliberately works without a session: restoring is how you
// recover a vault you can no longer unlock.
func RestoreBackup(store db.Store, container *BackupContainer, passphrase []byte) error {
	data, err := DecodeBackup(container, passphrase)
	if err != nil {
		return err
	}
	return store.ImportDataFromBackup(data)
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	out := enc.EncodeAll(data, nil)
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
