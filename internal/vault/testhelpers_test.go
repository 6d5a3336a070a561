// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/kdf"
	"github.com/strongroom-io/strongroom/internal/security"
)

// testKDFParams keeps derivation fast; correctness tests do not need a slow
// work factor.
func testKDFParams() kdf.Params {
	return kdf.Params{Time: 1, MemoryKiB: 8 * 1024, Threads: 1, KeyLen: 32}
}

// storeSeq makes every test store's shared-cache name unique, so tests that
// open two stores really get two databases.
var storeSeq atomic.Int64

func newTestStore(t *testing.T) db.Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, storeSeq.Add(1))
	s, err := db.NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestSession(t *testing.T, store db.Store, idleTimeout time.Duration) *Session {
	t.Helper()
	auth := NewAuthenticator(store, testKDFParams())
	s := NewSession(store, auth, idleTimeout)
	t.Cleanup(s.Close)
	return s
}

func mustRegister(t *testing.T, store db.Store, username, email, passphrase string) {
	t.Helper()
	auth := NewAuthenticator(store, testKDFParams())
	if _, err := auth.Register(context.Background(), username, email, []byte(passphrase)); err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}

func mustUnlock(t *testing.T, s *Session, username, passphrase string) {
	t.Helper()
	if err := s.Unlock(context.Background(), username, []byte(passphrase)); err != nil {
		t.Fatalf("unlock as %s: %v", username, err)
	}
}

func mustAddEntry(t *testing.T, s *Session, appName, username, contact, secret string) string {
	t.Helper()
	meta, err := s.AddEntry(AddEntryRequest{
		AppName:  appName,
		Username: username,
		Contact:  contact,
		Secret:   security.FromString(secret),
	})
	if err != nil {
		t.Fatalf("add entry %s: %v", appName, err)
	}
	return meta.ID
}

// waitForState polls until the session reaches want or the deadline expires.
func waitForState(t *testing.T, s *Session, want State, deadline time.Duration) {
	t.Helper()
	stop := time.Now().Add(deadline)
	for time.Now().Before(stop) {
		if s.State() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session never reached state %v", want)
}
