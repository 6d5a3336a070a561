// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil holds small test doubles shared across packages.
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/strongroom-io/strongroom/internal/db"
)

var storeSeq atomic.Int64

// NewTestStore opens a uniquely named in-memory sqlite store with all
// migrations applied and closes it when the test finishes.
func NewTestStore(t *testing.T) db.Store {
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

// FixedClock is a vault.Clock whose time only moves when the test says so.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock returns a clock pinned to the given instant.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Now returns the clock's current instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FakeAuditWriter records audit events in memory. Install it with
// db.SetDefaultAuditWriter to observe auditing without a database.
type FakeAuditWriter struct {
	mu     sync.Mutex
	Events []AuditEvent
}

// AuditEvent is one recorded LogAction call.
type AuditEvent struct {
	Action  string
	Details string
}

// LogAction implements db.AuditWriter.
func (f *FakeAuditWriter) LogAction(action string, details string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = append(f.Events, AuditEvent{Action: action, Details: details})
	return nil
}

// Actions returns the recorded action names in order.
func (f *FakeAuditWriter) Actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Events))
	for i, e := range f.Events {
		out[i] = e.Action
	}
	return out
}
