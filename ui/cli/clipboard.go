// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

// Package-level variables so tests can inject mock implementations.
var (
	writeClipboard = clipboard.WriteAll
	readClipboard  = clipboard.ReadAll
)

// clipboardGuard places a secret on the clipboard and clears it again after
// a delay. The clear only fires if the clipboard still holds what we put
// there, so it never destroys something the user copied in the meantime.
type clipboardGuard struct {
	mu    sync.Mutex
	value string
	timer *time.Timer
}

// copy writes value to the clipboard and schedules a clear after clearAfter.
func (g *clipboardGuard) copy(value string, clearAfter time.Duration) error {
	if err := writeClipboard(value); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = value
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(clearAfter, g.clear)
	return nil
}

// clear wipes the clipboard if it still holds the copied value. Safe to call
// multiple times and with no pending copy.
func (g *clipboardGuard) clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.value == "" {
		return
	}
	if current, err := readClipboard(); err == nil && current == g.value {
		_ = writeClipboard("")
	}
	g.value = ""
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
