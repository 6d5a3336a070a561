// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"testing"
	"time"

	"github.com/strongroom-io/strongroom/internal/model"
)

// WithTestStore initializes an in-memory sqlite Store for the duration of the
// provided function and restores package-level globals afterwards.
func WithTestStore(t *testing.T, fn func(s *SqliteStore)) {
	t.Helper()

	prevStore := store
	prevAuditWriter := defaultAuditWriter

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	s, ok := store.(*SqliteStore)
	if !ok {
		t.Fatalf("store is not *SqliteStore")
	}

	defer func() {
		_ = s.Close()
		store = prevStore
		defaultAuditWriter = prevAuditWriter
	}()

	fn(s)
}

// WithAuditWriter temporarily sets the package-level AuditWriter for the
// duration of fn and restores the previous writer afterwards.
func WithAuditWriter(t *testing.T, w AuditWriter, fn func()) {
	t.Helper()
	prev := defaultAuditWriter
	defaultAuditWriter = w
	defer func() { defaultAuditWriter = prev }()
	fn()
}

func testIdentity(username, email string) *model.MasterIdentity {
	now := time.Now().UTC()
	return &model.MasterIdentity{
		Username:  username,
		Email:     email,
		Salt:      []byte("0123456789abcdef0123456789abcdef"),
		Verifier:  []byte("verifier-bytes-for-" + username),
		KDFParams: "argon2id:t=1,m=8192,p=1,l=32",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testEntry(id, appName string) *model.CredentialEntry {
	now := time.Now().UTC()
	return &model.CredentialEntry{
		ID:               id,
		AppName:          appName,
		UsernameEnvelope: []byte("username-envelope-" + id),
		SecretEnvelope:   []byte("secret-envelope-" + id),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
