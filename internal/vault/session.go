// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/envelope"
	"github.com/strongroom-io/strongroom/internal/model"
	"github.com/strongroom-io/strongroom/internal/random"
	"github.com/strongroom-io/strongroom/internal/security"
)

// Field labels bound into envelope associated data. Changing one would
// invalidate every stored envelope for that field.
const (
	fieldUsername = "username"
	fieldContact  = "contact"
	fieldSecret   = "secret"
)

// State is the lifecycle state of a Session.
type State int

const (
	// Locked means no key material is resident; every credential operation
	// is refused.
	Locked State = iota
	// Unlocked means the encryption key is held in a SessionKey enclave.
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// Session mediates every credential operation. It starts Locked, holds the
// encryption key only while Unlocked, and zeroizes the key on Lock, Close
// and idle timeout. All methods are safe for concurrent use.
type Session struct {
	store db.Store
	auth  *Authenticator
	clock Clock

	mu       sync.RWMutex
	state    State
	key      *security.SessionKey
	identity *model.MasterIdentity

	// rekeyGate lets entry operations run concurrently with each other but
	// never concurrently with a passphrase change or restore-style rewrite.
	rekeyGate sync.RWMutex
	locks     entryLocks

	idleTimeout time.Duration
	idleMu      sync.Mutex
	idleTimer   *time.Timer
}

// NewSession returns a locked session over the given store. An idleTimeout
// of zero disables automatic locking.
func NewSession(store db.Store, auth *Authenticator, idleTimeout time.Duration) *Session {
	return &Session{
		store:       store,
		auth:        auth,
		clock:       defaultClock,
		state:       Locked,
		idleTimeout: idleTimeout,
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the identity the session was unlocked with, or nil while
// locked.
func (s *Session) Identity() *model.MasterIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Unlock verifies the passphrase and installs the derived encryption key.
// Returns ErrAlreadyUnlocked when the session already holds a key and
// ErrAuthFailed when verification fails.
func (s *Session) Unlock(ctx context.Context, username string, passphrase []byte) error {
	s.mu.RLock()
	unlocked := s.state == Unlocked
	s.mu.RUnlock()
	if unlocked {
		return ErrAlreadyUnlocked
	}

	key, identity, err := s.auth.Verify(ctx, username, passphrase)
	if err != nil {
		if errors.Is(err, ErrAuthFailed) {
			_ = s.store.LogAction("UNLOCK_FAILED", fmt.Sprintf("username: %s", strings.TrimSpace(username)))
		}
		return err
	}

	s.mu.Lock()
	if s.state == Unlocked {
		// Lost the race against a concurrent Unlock.
		s.mu.Unlock()
		key.Destroy()
		return ErrAlreadyUnlocked
	}
	s.key = key
	s.identity = identity
	s.state = Unlocked
	s.mu.Unlock()

	s.resetIdle()
	_ = s.store.LogAction("UNLOCK_VAULT", fmt.Sprintf("username: %s", identity.Username))
	return nil
}

// Lock zeroizes the key material and returns the session to Locked. Locking
// a locked session is a no-op.
func (s *Session) Lock() {
	if s.lockInternal() {
		_ = s.store.LogAction("LOCK_VAULT", "")
	}
}

// Close tears the session down, destroying any resident key material. Safe
// on a locked session.
func (s *Session) Close() { s.Lock() }

// lockInternal transitions to Locked and reports whether a transition
// happened.
func (s *Session) lockInternal() bool {
	s.mu.Lock()
	if s.state == Locked {
		s.mu.Unlock()
		return false
	}
	if s.key != nil {
		s.key.Destroy()
		s.key = nil
	}
	s.identity = nil
	s.state = Locked
	s.mu.Unlock()

	s.stopIdle()
	return true
}

func (s *Session) lockIdle() {
	if s.lockInternal() {
		_ = s.store.LogAction("LOCK_VAULT", "idle timeout")
	}
}

func (s *Session) resetIdle() {
	if s.idleTimeout <= 0 {
		return
	}
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(s.idleTimeout, s.lockIdle)
}

func (s *Session) stopIdle() {
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
}

// sessionKey returns the live key handle or ErrVaultLocked. The handle stays
// valid for in-flight use even if the session locks concurrently; the
// enclave read then fails and the operation reports ErrVaultLocked.
func (s *Session) sessionKey() (*security.SessionKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Unlocked || s.key == nil {
		return nil, ErrVaultLocked
	}
	return s.key, nil
}

// withEntry runs fn with the session key while holding the per-entry lock
// for id. The state gate runs before fn, so no crypto or storage work
// happens on a locked session.
func (s *Session) withEntry(id string, fn func(key *security.SessionKey) error) error {
	s.rekeyGate.RLock()
	defer s.rekeyGate.RUnlock()

	key, err := s.sessionKey()
	if err != nil {
		return err
	}
	s.resetIdle()

	unlock := s.locks.acquire(id)
	defer unlock()

	if err := fn(key); err != nil {
		if errors.Is(err, security.ErrNoKey) {
			return ErrVaultLocked
		}
		return err
	}
	return nil
}

// AddEntryRequest carries the plaintext fields of a new credential entry.
type AddEntryRequest struct {
	AppName  string
	Username string
	// Contact is an optional second identifier (email address, phone
	// number) tied to the credential.
	Contact string
	Secret  security.Secret
}

// AddEntry encrypts the request fields and stores a new entry under a fresh
// random id. Returns the plaintext metadata of the stored entry.
func (s *Session) AddEntry(req AddEntryRequest) (*model.EntryMetadata, error) {
	req.AppName = strings.TrimSpace(req.AppName)
	req.Username = strings.TrimSpace(req.Username)
	req.Contact = strings.TrimSpace(req.Contact)
	if req.AppName == "" {
		return nil, fmt.Errorf("application name required")
	}
	if req.Username == "" {
		return nil, fmt.Errorf("username required")
	}
	if req.Secret.Len() == 0 {
		return nil, fmt.Errorf("secret required")
	}

	id := random.TokenID()
	var meta *model.EntryMetadata
	err := s.withEntry(id, func(key *security.SessionKey) error {
		return key.WithKey(func(raw []byte) error {
			userEnv, err := envelope.SealBytes(raw, []byte(req.Username), envelope.AD(id, fieldUsername))
			if err != nil {
				return err
			}
			var contactEnv []byte
			if req.Contact != "" {
				contactEnv, err = envelope.SealBytes(raw, []byte(req.Contact), envelope.AD(id, fieldContact))
				if err != nil {
					return err
				}
			}
			var secretEnv []byte
			if err := req.Secret.Use(func(b []byte) error {
				var serr error
				secretEnv, serr = envelope.SealBytes(raw, b, envelope.AD(id, fieldSecret))
				return serr
			}); err != nil {
				return err
			}

			now := s.clock.Now().UTC()
			entry := &model.CredentialEntry{
				ID:               id,
				AppName:          req.AppName,
				UsernameEnvelope: userEnv,
				ContactEnvelope:  contactEnv,
				SecretEnvelope:   secretEnv,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := s.store.InsertEntry(entry); err != nil {
				return err
			}
			meta = &model.EntryMetadata{ID: id, AppName: req.AppName, CreatedAt: now, UpdatedAt: now}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// RevealEntry decrypts and returns one entry. Decryption failures surface as
// envelope.ErrAuthentication and leave nothing behind.
func (s *Session) RevealEntry(id string) (*model.EntryView, error) {
	var view *model.EntryView
	err := s.withEntry(id, func(key *security.SessionKey) error {
		entry, err := s.store.GetEntry(id)
		if err != nil {
			return err
		}
		return key.WithKey(func(raw []byte) error {
			username, err := envelope.OpenBytes(raw, entry.UsernameEnvelope, envelope.AD(id, fieldUsername))
			if err != nil {
				return err
			}
			defer security.WipeBytes(username)

			var contact []byte
			if entry.HasContact() {
				contact, err = envelope.OpenBytes(raw, entry.ContactEnvelope, envelope.AD(id, fieldContact))
				if err != nil {
					return err
				}
				defer security.WipeBytes(contact)
			}

			secret, err := envelope.OpenBytes(raw, entry.SecretEnvelope, envelope.AD(id, fieldSecret))
			if err != nil {
				return err
			}
			defer security.WipeBytes(secret)

			view = &model.EntryView{
				ID:       id,
				AppName:  entry.AppName,
				Username: string(username),
				Contact:  string(contact),
				Secret:   security.FromBytes(secret),
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	_ = s.store.LogAction("REVEAL_ENTRY", fmt.Sprintf("entry: %s (%s)", id, view.AppName))
	return view, nil
}

// UpdateEntryRequest describes a partial update. Nil fields are left
// untouched; a non-nil empty Contact clears the contact field.
type UpdateEntryRequest struct {
	AppName  *string
	Username *string
	Contact  *string
	Secret   *security.Secret
}

func (r UpdateEntryRequest) isEmpty() bool {
	return r.AppName == nil && r.Username == nil && r.Contact == nil && r.Secret == nil
}

// UpdateEntry re-encrypts the changed fields of an existing entry. The entry
// keeps its id, so unchanged envelopes stay valid.
func (s *Session) UpdateEntry(id string, req UpdateEntryRequest) error {
	if req.isEmpty() {
		return nil
	}
	return s.withEntry(id, func(key *security.SessionKey) error {
		entry, err := s.store.GetEntry(id)
		if err != nil {
			return err
		}
		return key.WithKey(func(raw []byte) error {
			if req.AppName != nil {
				name := strings.TrimSpace(*req.AppName)
				if name == "" {
					return fmt.Errorf("application name required")
				}
				entry.AppName = name
			}
			if req.Username != nil {
				username := strings.TrimSpace(*req.Username)
				if username == "" {
					return fmt.Errorf("username required")
				}
				env, err := envelope.SealBytes(raw, []byte(username), envelope.AD(id, fieldUsername))
				if err != nil {
					return err
				}
				entry.UsernameEnvelope = env
			}
			if req.Contact != nil {
				contact := strings.TrimSpace(*req.Contact)
				if contact == "" {
					entry.ContactEnvelope = nil
				} else {
					env, err := envelope.SealBytes(raw, []byte(contact), envelope.AD(id, fieldContact))
					if err != nil {
						return err
					}
					entry.ContactEnvelope = env
				}
			}
			if req.Secret != nil {
				if req.Secret.Len() == 0 {
					return fmt.Errorf("secret required")
				}
				if err := req.Secret.Use(func(b []byte) error {
					env, serr := envelope.SealBytes(raw, b, envelope.AD(id, fieldSecret))
					if serr != nil {
						return serr
					}
					entry.SecretEnvelope = env
					return nil
				}); err != nil {
					return err
				}
			}
			entry.UpdatedAt = s.clock.Now().UTC()
			return s.store.UpdateEntry(entry)
		})
	})
}

// RemoveEntry deletes an entry. Its id is retired and never reused.
func (s *Session) RemoveEntry(id string) error {
	return s.withEntry(id, func(*security.SessionKey) error {
		return s.store.DeleteEntry(id)
	})
}

// ListEntries returns the plaintext metadata of all entries. Listing is
// gated like every other operation even though it touches no envelope.
func (s *Session) ListEntries() ([]model.EntryMetadata, error) {
	s.rekeyGate.RLock()
	defer s.rekeyGate.RUnlock()
	if _, err := s.sessionKey(); err != nil {
		return nil, err
	}
	s.resetIdle()
	return s.store.ListEntryMetadata()
}
