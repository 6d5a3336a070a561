// Package vault implements the credential vault core: master identity
// registration and verification, the locked/unlocked session state machine,
// per-entry envelope encryption, passphrase changes and encrypted backups.
//
// Key custody rules enforced here:
//   - the master passphrase is never persisted; only a purpose-separated
//     slow-KDF verifier is stored,
//   - the encryption key exists only inside a security.SessionKey enclave
//     while a Session is Unlocked, and is destroyed on Lock, Close and idle
//     timeout,
//   - plaintext credential fields cross this package boundary only inside
//     an AddEntryRequest/UpdateEntryRequest or an EntryView; the storage
//     layer below sees envelope ciphertext exclusively.
package vault
