// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.
package random

import (
	"encoding/hex"
	"testing"
)

func TestBytesLength(t *testing.T) {
	for _, n := range []int{0, 1, 16, 32, 64} {
		if got := len(Bytes(n)); got != n {
			t.Errorf("Bytes(%d) returned %d bytes", n, got)
		}
	}
}

func TestTokenIDShape(t *testing.T) {
	id := TokenID()
	if len(id) != 32 {
		t.Fatalf("TokenID length = %d, want 32 hex chars", len(id))
	}
	raw, err := hex.DecodeString(id)
	if err != nil {
		t.Fatalf("TokenID is not valid hex: %v", err)
	}
	if len(raw) != 16 {
		t.Fatalf("TokenID decodes to %d bytes, want 16", len(raw))
	}
}

func TestTokenIDUniqueness(t *testing.T) {
	const draws = 10000
	seen := make(map[string]struct{}, draws)
	for i := 0; i < draws; i++ {
		id := TokenID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d draws: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestSaltAndNonceSizes(t *testing.T) {
	if got := len(Salt()); got != SaltSize {
		t.Fatalf("Salt length = %d, want %d", got, SaltSize)
	}
	if got := len(Nonce(12)); got != 12 {
		t.Fatalf("Nonce(12) length = %d", got)
	}

	// Two salts agreeing would mean the source is not random at all.
	a, b := Salt(), Salt()
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("two generated salts are identical")
	}
}
