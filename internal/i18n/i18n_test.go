// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.
package i18n

import (
	"testing"
)

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")

	if got := T("prompt.empty"); got != "Input must not be empty" {
		t.Fatalf("unexpected translation: %q", got)
	}

	// fmt-style formatting via template args
	got := T("entry.not_found", "abc123")
	if got != "No entry with id abc123" {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	// prompt labels keep their trailing space through YAML parsing
	if got := T("entry.prompt_app"); got != "Application: " {
		t.Fatalf("prompt label lost its trailing space: %q", got)
	}

	// switch language to German
	SetLang("de")
	if got := T("prompt.empty"); got != "Eingabe darf nicht leer sein" {
		t.Fatalf("expected German translation, got %q", got)
	}
	SetLang("en")
}

func TestT_UnknownIDFallsBackToID(t *testing.T) {
	Init("en")
	if got := T("does.not.exist"); got != "does.not.exist" {
		t.Fatalf("expected the id itself for a missing message, got %q", got)
	}
}

func TestT_MissingLanguageFallsBackToEnglish(t *testing.T) {
	Init("fr")
	if got := T("prompt.empty"); got != "Input must not be empty" {
		t.Fatalf("expected English fallback, got %q", got)
	}
	Init("en")
}
