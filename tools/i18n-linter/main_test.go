package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLocaleFlattensNestedKeys(t *testing.T) {
	dir := t.TempDir()
	yaml := "entry:\n  added: \"Stored entry for %s (id %s)\"\n  prompt_app: \"Application: \"\nprompt:\n  empty: \"Input must not be empty\"\n"
	path := filepath.Join(dir, "en.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	catalog, err := loadLocale(path)
	if err != nil {
		t.Fatalf("loadLocale failed: %v", err)
	}
	if got := catalog["entry.added"]; got != "Stored entry for %s (id %s)" {
		t.Fatalf("entry.added = %q", got)
	}
	if got := catalog["prompt.empty"]; got != "Input must not be empty" {
		t.Fatalf("prompt.empty = %q", got)
	}
	if _, ok := catalog["entry"]; ok {
		t.Fatalf("non-leaf key entry should not appear in catalog")
	}
}

func TestFindUsedIDs(t *testing.T) {
	dir := t.TempDir()
	src := `package foo

func f() {
	_ = i18n.T("entry.added")
	keys := []string{"shell.goodbye"}
	_ = keys
	v.SetDefault("database.type", "sqlite")
}
`
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "a.go"), []byte(src), 0o644); err != nil {
		t.Fatalf("write go: %v", err)
	}

	used, err := findUsedIDs(dir)
	if err != nil {
		t.Fatalf("findUsedIDs failed: %v", err)
	}

	direct, ok := used["entry.added"]
	if !ok || !direct.direct {
		t.Fatalf("expected entry.added as direct reference, got %+v", used["entry.added"])
	}
	loose, ok := used["shell.goodbye"]
	if !ok || loose.direct {
		t.Fatalf("expected shell.goodbye as loose reference, got %+v", used["shell.goodbye"])
	}
	if viperKey, ok := used["database.type"]; !ok || viperKey.direct {
		t.Fatalf("expected database.type collected as loose only, got %+v", used["database.type"])
	}
	if len(direct.locations) == 0 || direct.locations[0].line != 4 {
		t.Fatalf("unexpected location for entry.added: %+v", direct.locations)
	}
}

func TestFindSuspectLiterals(t *testing.T) {
	dir := t.TempDir()
	src := `package foo

func f() {
	_ = i18n.T("entry.added")
	warn("Visible message for users")
	mark("ok")
	probe("file:test?mode=memory")
	header("ID\tAPPLICATION")
	layout("2006-01-02 15:04")
}
`
	if err := os.WriteFile(filepath.Join(dir, "a.go"), []byte(src), 0o644); err != nil {
		t.Fatalf("write go: %v", err)
	}

	known := map[string]string{"entry.added": "Stored entry for %s (id %s)"}
	suspects, err := findSuspectLiterals(dir, known)
	if err != nil {
		t.Fatalf("findSuspectLiterals failed: %v", err)
	}

	if _, ok := suspects["Visible message for users"]; !ok {
		t.Fatalf("expected prose literal to be flagged, got %v", suspects)
	}
	for _, skipped := range []string{"ok", "file:test?mode=memory", `ID\tAPPLICATION`, "2006-01-02 15:04", "entry.added"} {
		if _, ok := suspects[skipped]; ok {
			t.Fatalf("did not expect %q to be flagged", skipped)
		}
	}
}

func TestPlaceholderSignature(t *testing.T) {
	cases := []struct {
		template string
		want     string
	}{
		{"Stored entry for %s (id %s)", "%s %s"},
		{"Clipboard cleared after %v", "%v"},
		{"100%% done", ""},
		{"Unknown command %q, type 'help'", "%q"},
		{"no placeholders", ""},
	}
	for _, tc := range cases {
		if got := placeholderSignature(tc.template); got != tc.want {
			t.Errorf("placeholderSignature(%q) = %q, want %q", tc.template, got, tc.want)
		}
	}

	en := "Backup written to %s (backup id %s)"
	de := "Sicherung nach %s geschrieben (Sicherungs-ID %s)"
	if placeholderSignature(en) != placeholderSignature(de) {
		t.Fatalf("expected matching signatures, got %q vs %q", placeholderSignature(en), placeholderSignature(de))
	}
	drifted := "Sicherung nach %s geschrieben (%d)"
	if placeholderSignature(en) == placeholderSignature(drifted) {
		t.Fatalf("expected signature drift to be detected")
	}
}
