// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// AuditWriter records audit events. The vault and CLI layers depend on this
// interface rather than on the Store so tests can inject a fake.
type AuditWriter interface {
	LogAction(action string, details string) error
}

// BunAuditWriter writes audit events through a bun handle.
type BunAuditWriter struct {
	bdb *bun.DB
}

// NewBunAuditWriter returns an AuditWriter backed by the given bun handle.
func NewBunAuditWriter(bdb *bun.DB) *BunAuditWriter {
	return &BunAuditWriter{bdb: bdb}
}

// LogAction implements AuditWriter.
func (w *BunAuditWriter) LogAction(action string, details string) error {
	if w == nil || w.bdb == nil {
		return fmt.Errorf("audit writer not initialized")
	}
	return LogActionBun(context.Background(), w.bdb, action, details)
}

// NewAuditWriterFromStore adapts a Store into an AuditWriter.
func NewAuditWriterFromStore(s Store) AuditWriter {
	if s == nil {
		return nil
	}
	return NewBunAuditWriter(s.BunDB())
}

// defaultAuditWriter is a package-level override used by tests.
var defaultAuditWriter AuditWriter

// DefaultAuditWriter returns the injected AuditWriter when one has been set,
// falling back to a writer over the package-level store. Returns nil when
// neither is available.
func DefaultAuditWriter() AuditWriter {
	if defaultAuditWriter != nil {
		return defaultAuditWriter
	}
	if store == nil {
		return nil
	}
	return NewAuditWriterFromStore(store)
}

// SetDefaultAuditWriter installs a package-level AuditWriter override.
func SetDefaultAuditWriter(w AuditWriter) { defaultAuditWriter = w }

// ClearDefaultAuditWriter removes a previously installed override.
func ClearDefaultAuditWriter() { defaultAuditWriter = nil }
