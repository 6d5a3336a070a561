// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"bytes"
	"errors"
	"testing"

	"github.com/strongroom-io/strongroom/internal/model"
)

func TestSaveAndGetMasterIdentity(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		want := testIdentity("alice", "alice@example.com")
		id, err := s.SaveMasterIdentity(want)
		if err != nil {
			t.Fatalf("SaveMasterIdentity failed: %v", err)
		}
		if id == 0 {
			t.Fatalf("expected a generated id, got 0")
		}
		if want.ID != id {
			t.Errorf("SaveMasterIdentity did not backfill ID: got %d, want %d", want.ID, id)
		}

		got, err := s.GetMasterIdentity("alice")
		if err != nil {
			t.Fatalf("GetMasterIdentity failed: %v", err)
		}
		if got.Username != "alice" || got.Email != "alice@example.com" {
			t.Errorf("unexpected identity: %q / %q", got.Username, got.Email)
		}
		if !bytes.Equal(got.Salt, want.Salt) {
			t.Errorf("salt did not round-trip")
		}
		if !bytes.Equal(got.Verifier, want.Verifier) {
			t.Errorf("verifier did not round-trip")
		}
		if got.KDFParams != want.KDFParams {
			t.Errorf("kdf params = %q, want %q", got.KDFParams, want.KDFParams)
		}

		byEmail, err := s.GetMasterIdentityByEmail("alice@example.com")
		if err != nil {
			t.Fatalf("GetMasterIdentityByEmail failed: %v", err)
		}
		if byEmail.ID != got.ID {
			t.Errorf("lookup by email found a different identity")
		}

		any, err := s.GetAnyMasterIdentity()
		if err != nil {
			t.Fatalf("GetAnyMasterIdentity failed: %v", err)
		}
		if any == nil || any.Username != "alice" {
			t.Errorf("GetAnyMasterIdentity = %+v, want alice", any)
		}
	})
}

func TestMasterIdentityNotFound(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		if _, err := s.GetMasterIdentity("nobody"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetMasterIdentity error = %v, want ErrNotFound", err)
		}
		if _, err := s.GetMasterIdentityByEmail("nobody@example.com"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetMasterIdentityByEmail error = %v, want ErrNotFound", err)
		}
		any, err := s.GetAnyMasterIdentity()
		if err != nil {
			t.Fatalf("GetAnyMasterIdentity failed: %v", err)
		}
		if any != nil {
			t.Errorf("GetAnyMasterIdentity on empty vault = %+v, want nil", any)
		}
	})
}

func TestSaveMasterIdentityDuplicates(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		if _, err := s.SaveMasterIdentity(testIdentity("alice", "alice@example.com")); err != nil {
			t.Fatalf("SaveMasterIdentity failed: %v", err)
		}
		if _, err := s.SaveMasterIdentity(testIdentity("alice", "other@example.com")); !errors.Is(err, ErrDuplicate) {
			t.Errorf("duplicate username error = %v, want ErrDuplicate", err)
		}
		if _, err := s.SaveMasterIdentity(testIdentity("bob", "alice@example.com")); !errors.Is(err, ErrDuplicate) {
			t.Errorf("duplicate email error = %v, want ErrDuplicate", err)
		}
	})
}

func TestUpdateMasterIdentity(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		identity := testIdentity("alice", "alice@example.com")
		if _, err := s.SaveMasterIdentity(identity); err != nil {
			t.Fatalf("SaveMasterIdentity failed: %v", err)
		}

		identity.Salt = []byte("fedcba9876543210fedcba9876543210")
		identity.Verifier = []byte("new-verifier")
		identity.KDFParams = "argon2id:t=4,m=131072,p=2,l=32"
		if err := s.UpdateMasterIdentity(identity); err != nil {
			t.Fatalf("UpdateMasterIdentity failed: %v", err)
		}

		got, err := s.GetMasterIdentity("alice")
		if err != nil {
			t.Fatalf("GetMasterIdentity failed: %v", err)
		}
		if !bytes.Equal(got.Salt, identity.Salt) || !bytes.Equal(got.Verifier, identity.Verifier) {
			t.Errorf("update did not persist salt/verifier")
		}
		if got.KDFParams != identity.KDFParams {
			t.Errorf("kdf params = %q, want %q", got.KDFParams, identity.KDFParams)
		}

		missing := testIdentity("ghost", "ghost@example.com")
		missing.ID = 9999
		if err := s.UpdateMasterIdentity(missing); !errors.Is(err, ErrNotFound) {
			t.Errorf("update of missing identity = %v, want ErrNotFound", err)
		}
	})
}

func TestEntryCRUD(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		entry := testEntry("00112233445566778899aabbccddeeff", "github")
		entry.ContactEnvelope = []byte("contact-envelope")
		if err := s.InsertEntry(entry); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}

		got, err := s.GetEntry(entry.ID)
		if err != nil {
			t.Fatalf("GetEntry failed: %v", err)
		}
		if got.AppName != "github" {
			t.Errorf("app name = %q, want github", got.AppName)
		}
		if !bytes.Equal(got.UsernameEnvelope, entry.UsernameEnvelope) ||
			!bytes.Equal(got.ContactEnvelope, entry.ContactEnvelope) ||
			!bytes.Equal(got.SecretEnvelope, entry.SecretEnvelope) {
			t.Errorf("envelopes did not round-trip")
		}

		got.AppName = "github.com"
		got.SecretEnvelope = []byte("rotated-secret-envelope")
		got.ContactEnvelope = nil
		if err := s.UpdateEntry(got); err != nil {
			t.Fatalf("UpdateEntry failed: %v", err)
		}
		updated, err := s.GetEntry(entry.ID)
		if err != nil {
			t.Fatalf("GetEntry after update failed: %v", err)
		}
		if updated.AppName != "github.com" {
			t.Errorf("app name after update = %q", updated.AppName)
		}
		if !bytes.Equal(updated.SecretEnvelope, []byte("rotated-secret-envelope")) {
			t.Errorf("secret envelope not rewritten")
		}
		if updated.HasContact() {
			t.Errorf("contact envelope should have been cleared")
		}

		if err := s.DeleteEntry(entry.ID); err != nil {
			t.Fatalf("DeleteEntry failed: %v", err)
		}
		if _, err := s.GetEntry(entry.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetEntry after delete = %v, want ErrNotFound", err)
		}
	})
}

func TestEntryNotFound(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		if _, err := s.GetEntry("ffffffffffffffffffffffffffffffff"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetEntry = %v, want ErrNotFound", err)
		}
		if err := s.UpdateEntry(testEntry("ffffffffffffffffffffffffffffffff", "x")); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateEntry = %v, want ErrNotFound", err)
		}
		if err := s.DeleteEntry("ffffffffffffffffffffffffffffffff"); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteEntry = %v, want ErrNotFound", err)
		}
	})
}

func TestDeleteEntryRetiresID(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		entry := testEntry("00112233445566778899aabbccddeeff", "github")
		if err := s.InsertEntry(entry); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}
		if err := s.DeleteEntry(entry.ID); err != nil {
			t.Fatalf("DeleteEntry failed: %v", err)
		}

		// The id is burned: re-inserting it must fail even though the row
		// itself is gone.
		if err := s.InsertEntry(testEntry(entry.ID, "other-app")); !errors.Is(err, ErrDuplicate) {
			t.Errorf("re-insert of retired id = %v, want ErrDuplicate", err)
		}

		ids, err := s.ListEntryIDs()
		if err != nil {
			t.Fatalf("ListEntryIDs failed: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("ListEntryIDs = %v, want empty", ids)
		}
	})
}

func TestInsertEntryDuplicateID(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		entry := testEntry("00112233445566778899aabbccddeeff", "github")
		if err := s.InsertEntry(entry); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}
		if err := s.InsertEntry(testEntry(entry.ID, "github")); !errors.Is(err, ErrDuplicate) {
			t.Errorf("duplicate insert = %v, want ErrDuplicate", err)
		}
	})
}

func TestListEntryMetadata(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		for _, e := range []struct{ id, app string }{
			{"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "mail"},
			{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "bank"},
			{"cccccccccccccccccccccccccccccccc", "vpn"},
		} {
			if err := s.InsertEntry(testEntry(e.id, e.app)); err != nil {
				t.Fatalf("InsertEntry(%s) failed: %v", e.app, err)
			}
		}

		meta, err := s.ListEntryMetadata()
		if err != nil {
			t.Fatalf("ListEntryMetadata failed: %v", err)
		}
		if len(meta) != 3 {
			t.Fatalf("got %d metadata rows, want 3", len(meta))
		}
		wantOrder := []string{"bank", "mail", "vpn"}
		for i, want := range wantOrder {
			if meta[i].AppName != want {
				t.Errorf("meta[%d].AppName = %q, want %q", i, meta[i].AppName, want)
			}
		}

		ids, err := s.ListEntryIDs()
		if err != nil {
			t.Fatalf("ListEntryIDs failed: %v", err)
		}
		if len(ids) != 3 || ids[0] != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
			t.Errorf("ListEntryIDs = %v", ids)
		}
	})
}

func TestReplaceAllEntriesIsAtomic(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		identity := testIdentity("alice", "alice@example.com")
		if _, err := s.SaveMasterIdentity(identity); err != nil {
			t.Fatalf("SaveMasterIdentity failed: %v", err)
		}
		first := testEntry("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "bank")
		second := testEntry("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "mail")
		for _, e := range []*model.CredentialEntry{first, second} {
			if err := s.InsertEntry(e); err != nil {
				t.Fatalf("InsertEntry failed: %v", err)
			}
		}

		// A batch naming an unknown entry must change nothing at all.
		rekeyedFirst := *first
		rekeyedFirst.SecretEnvelope = []byte("rekeyed-a")
		ghost := *testEntry("cccccccccccccccccccccccccccccccc", "ghost")
		identity.Verifier = []byte("new-verifier")
		err := s.ReplaceAllEntries(identity, []model.CredentialEntry{rekeyedFirst, ghost})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("ReplaceAllEntries with unknown id = %v, want ErrNotFound", err)
		}
		got, err := s.GetEntry(first.ID)
		if err != nil {
			t.Fatalf("GetEntry failed: %v", err)
		}
		if !bytes.Equal(got.SecretEnvelope, first.SecretEnvelope) {
			t.Errorf("failed replace leaked a partial write")
		}

		// A valid batch lands everywhere.
		rekeyedSecond := *second
		rekeyedSecond.SecretEnvelope = []byte("rekeyed-b")
		if err := s.ReplaceAllEntries(identity, []model.CredentialEntry{rekeyedFirst, rekeyedSecond}); err != nil {
			t.Fatalf("ReplaceAllEntries failed: %v", err)
		}
		gotFirst, _ := s.GetEntry(first.ID)
		gotSecond, _ := s.GetEntry(second.ID)
		if !bytes.Equal(gotFirst.SecretEnvelope, []byte("rekeyed-a")) ||
			!bytes.Equal(gotSecond.SecretEnvelope, []byte("rekeyed-b")) {
			t.Errorf("replace did not rewrite all envelopes")
		}
		gotIdentity, _ := s.GetMasterIdentity("alice")
		if !bytes.Equal(gotIdentity.Verifier, []byte("new-verifier")) {
			t.Errorf("replace did not rewrite the identity")
		}
	})
}

func TestAuditLogRecordsStoreActions(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		entry := testEntry("00112233445566778899aabbccddeeff", "github")
		if err := s.InsertEntry(entry); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}
		if err := s.DeleteEntry(entry.ID); err != nil {
			t.Fatalf("DeleteEntry failed: %v", err)
		}

		log, err := s.GetAllAuditLogEntries()
		if err != nil {
			t.Fatalf("GetAllAuditLogEntries failed: %v", err)
		}
		if len(log) != 2 {
			t.Fatalf("got %d audit entries, want 2", len(log))
		}
		// Newest first.
		if log[0].Action != "DELETE_ENTRY" || log[1].Action != "ADD_ENTRY" {
			t.Errorf("audit actions = %q, %q", log[0].Action, log[1].Action)
		}
		for _, e := range log {
			if e.Username == "" {
				t.Errorf("audit entry %d has no username", e.ID)
			}
			if e.Timestamp == "" {
				t.Errorf("audit entry %d has no timestamp", e.ID)
			}
		}
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		identity := testIdentity("alice", "alice@example.com")
		if _, err := s.SaveMasterIdentity(identity); err != nil {
			t.Fatalf("SaveMasterIdentity failed: %v", err)
		}
		kept := testEntry("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "bank")
		if err := s.InsertEntry(kept); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}
		retired := testEntry("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "old")
		if err := s.InsertEntry(retired); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}
		if err := s.DeleteEntry(retired.ID); err != nil {
			t.Fatalf("DeleteEntry failed: %v", err)
		}

		backup, err := s.ExportDataForBackup()
		if err != nil {
			t.Fatalf("ExportDataForBackup failed: %v", err)
		}
		if backup.SchemaVersion != model.BackupSchemaVersion {
			t.Errorf("schema version = %d", backup.SchemaVersion)
		}
		if len(backup.MasterIdentities) != 1 || len(backup.Entries) != 1 {
			t.Fatalf("backup holds %d identities, %d entries",
				len(backup.MasterIdentities), len(backup.Entries))
		}
		if len(backup.RetiredEntryIDs) != 1 || backup.RetiredEntryIDs[0] != retired.ID {
			t.Errorf("retired ids = %v", backup.RetiredEntryIDs)
		}

		// Mutate after the snapshot, then restore it.
		if err := s.InsertEntry(testEntry("cccccccccccccccccccccccccccccccc", "later")); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}
		if err := s.ImportDataFromBackup(backup); err != nil {
			t.Fatalf("ImportDataFromBackup failed: %v", err)
		}

		ids, err := s.ListEntryIDs()
		if err != nil {
			t.Fatalf("ListEntryIDs failed: %v", err)
		}
		if len(ids) != 1 || ids[0] != kept.ID {
			t.Errorf("entries after restore = %v", ids)
		}
		got, err := s.GetEntry(kept.ID)
		if err != nil {
			t.Fatalf("GetEntry after restore failed: %v", err)
		}
		if !bytes.Equal(got.SecretEnvelope, kept.SecretEnvelope) {
			t.Errorf("restored envelope differs")
		}

		// Retired ids survive the restore.
		if err := s.InsertEntry(testEntry(retired.ID, "reborn")); !errors.Is(err, ErrDuplicate) {
			t.Errorf("insert of retired id after restore = %v, want ErrDuplicate", err)
		}

		log, err := s.GetAllAuditLogEntries()
		if err != nil {
			t.Fatalf("GetAllAuditLogEntries failed: %v", err)
		}
		if len(log) == 0 || log[0].Action != "RESTORE_BACKUP" {
			t.Errorf("newest audit action after restore = %v", log)
		}
	})
}
