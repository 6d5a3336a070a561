// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter cross-checks the translation catalogs against the source tree.
// It collects the message ids referenced through i18n.T, compares them with
// the keys of every locale file, and verifies that the fmt placeholders of a
// translation agree across locales. T applies its arguments with fmt.Sprintf
// no matter which language is active, so a placeholder drift in one catalog
// garbles output only for speakers of that language.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/strongroom-io/strongroom/util/mapst"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
)

type location struct {
	file string
	line int
}

func main() {
	usedIDs, err := findUsedIDs(".")
	if err != nil {
		fmt.Printf("✗ scanning source: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ %d translation ids referenced in source\n", len(usedIDs))

	primary, err := loadLocale(filepath.Join(localesDir, primaryLocale))
	if err != nil {
		fmt.Printf("✗ loading %s: %v\n", primaryLocale, err)
		os.Exit(1)
	}
	fmt.Printf("✓ %d ids in %s\n", len(primary), primaryLocale)

	failed := false

	// Ids the catalog defines but no source file references.
	orphans := mapst.Keys(mapst.Filter(primary, func(id, _ string) bool {
		_, used := usedIDs[id]
		return !used
	}))
	sort.Strings(orphans)
	if len(orphans) > 0 {
		fmt.Printf("\n! %d orphaned ids in %s:\n", len(orphans), primaryLocale)
		for _, id := range orphans {
			fmt.Printf("    %s\n", id)
		}
	}

	// Ids passed to i18n.T that the primary catalog does not define. These
	// surface as raw ids at runtime, so they fail the lint. Bare dotted
	// literals are too ambiguous to fail on; they only suppress orphans.
	undefined := mapst.Keys(mapst.Filter(usedIDs, func(id string, u usage) bool {
		_, defined := primary[id]
		return u.direct && !defined
	}))
	sort.Strings(undefined)
	if len(undefined) > 0 {
		failed = true
		fmt.Printf("\n✗ %d ids referenced but missing from %s:\n", len(undefined), primaryLocale)
		for _, id := range undefined {
			loc := usedIDs[id].locations[0]
			fmt.Printf("    %s (%s:%d)\n", id, loc.file, loc.line)
		}
	}

	// Every other catalog must define the same ids with the same placeholders.
	others, err := filepath.Glob(filepath.Join(localesDir, "*.yaml"))
	if err != nil {
		fmt.Printf("✗ listing locale files: %v\n", err)
		os.Exit(1)
	}
	for _, file := range others {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		if ok := checkSecondary(file, primary); !ok {
			failed = true
		}
	}

	// Literal prose in source that probably belongs in the catalogs. Kept as
	// a warning: the heuristic cannot tell a log line from a user message.
	suspects, err := findSuspectLiterals(".", primary)
	if err != nil {
		fmt.Printf("✗ scanning for untranslated strings: %v\n", err)
		os.Exit(1)
	}
	if len(suspects) > 0 {
		literals := mapst.Keys(suspects)
		sort.Strings(literals)
		fmt.Printf("\n! %d possibly untranslated strings:\n", len(literals))
		for _, lit := range literals {
			loc := suspects[lit][0]
			fmt.Printf("    %q (%s:%d)\n", lit, loc.file, loc.line)
		}
	}

	if failed {
		fmt.Println("\n✗ catalogs are inconsistent")
		os.Exit(1)
	}
	fmt.Println("\n✓ catalogs are consistent")
}

// checkSecondary reports whether file defines every primary id with matching
// placeholders. Extra ids in a secondary catalog are harmless and ignored.
func checkSecondary(file string, primary map[string]string) bool {
	catalog, err := loadLocale(file)
	if err != nil {
		fmt.Printf("\n✗ loading %s: %v\n", file, err)
		return false
	}

	ok := true
	missing := mapst.Keys(mapst.Filter(primary, func(id, _ string) bool {
		_, defined := catalog[id]
		return !defined
	}))
	sort.Strings(missing)
	if len(missing) > 0 {
		ok = false
		fmt.Printf("\n✗ %d ids missing from %s:\n", len(missing), filepath.Base(file))
		for _, id := range missing {
			fmt.Printf("    %s\n", id)
		}
	}

	var drifted []string
	for id, template := range catalog {
		reference, defined := primary[id]
		if !defined {
			continue
		}
		if placeholderSignature(template) != placeholderSignature(reference) {
			drifted = append(drifted, id)
		}
	}
	sort.Strings(drifted)
	if len(drifted) > 0 {
		ok = false
		fmt.Printf("\n✗ %d placeholder mismatches in %s:\n", len(drifted), filepath.Base(file))
		for _, id := range drifted {
			fmt.Printf("    %s: %q vs %q\n", id, placeholderSignature(primary[id]), placeholderSignature(catalog[id]))
		}
	}
	return ok
}

var verbPattern = regexp.MustCompile(`%[#+\-0 ]?[\d.]*[a-zA-Z%]`)

// placeholderSignature reduces a template to the ordered list of its fmt
// verbs, with literal %% stripped.
func placeholderSignature(template string) string {
	verbs := verbPattern.FindAllString(template, -1)
	var kept []string
	for _, v := range verbs {
		if strings.HasSuffix(v, "%") {
			continue
		}
		kept = append(kept, v)
	}
	return strings.Join(kept, " ")
}

// idPattern matches both direct i18n.T("some.id") calls and bare dotted
// lowercase literals, which cover ids kept in tables or passed indirectly.
var idPattern = regexp.MustCompile(`i18n\.T\("([^"]+)"|"([a-z]+\.[a-z\._]+)"`)

// usage records where a translation id is referenced and whether any of the
// references is a direct i18n.T call rather than a bare literal.
type usage struct {
	locations []location
	direct    bool
}

// findUsedIDs walks the source tree and collects every translation id a
// non-test Go file references.
func findUsedIDs(root string) (map[string]usage, error) {
	ids := make(map[string]usage)
	err := walkSource(root, func(path string, lines []string) {
		for i, line := range lines {
			for _, match := range idPattern.FindAllStringSubmatch(line, -1) {
				id, direct := match[1], true
				if id == "" {
					id, direct = match[2], false
				}
				if id == "" {
					continue
				}
				u := ids[id]
				u.locations = append(u.locations, location{file: path, line: i + 1})
				u.direct = u.direct || direct
				ids[id] = u
			}
		}
	})
	return ids, err
}

var callPattern = regexp.MustCompile(`([a-zA-Z0-9_]+\.)?([a-zA-Z0-9_]+)\("([^"]+)"`)

// Functions whose literal arguments are never user prose, or are allowed to
// print already translated text.
var ignoredCalls = map[string]struct{}{
	"Print": {}, "Println": {}, "Printf": {},
	"Fatal": {}, "Fatalf": {}, "WriteString": {},
}

// findSuspectLiterals scans for string literals passed directly to calls that
// look like user-facing prose but are not translation ids.
func findSuspectLiterals(root string, known map[string]string) (map[string][]location, error) {
	suspects := make(map[string][]location)
	err := walkSource(root, func(path string, lines []string) {
		for i, line := range lines {
			for _, match := range callPattern.FindAllStringSubmatch(line, -1) {
				call, literal := match[2], match[3]
				if _, skip := ignoredCalls[call]; skip {
					continue
				}
				if _, defined := known[literal]; defined {
					continue
				}
				if !looksLikeProse(literal) {
					continue
				}
				suspects[literal] = append(suspects[literal], location{file: path, line: i + 1})
			}
		}
	})
	return suspects, err
}

var (
	idLikePattern = regexp.MustCompile(`^[a-z_]+\.[a-z\._]+$`)
	actionPattern = regexp.MustCompile(`^[A-Z_]+$`)
)

// looksLikeProse filters the literal down to things a user might actually
// read: long enough, contains a space, and not one of the structured string
// shapes the code legitimately keeps in English.
func looksLikeProse(literal string) bool {
	if len(literal) < 4 || !strings.Contains(literal, " ") {
		return false
	}
	if idLikePattern.MatchString(literal) || actionPattern.MatchString(literal) {
		return false
	}
	// SQL fragments, DSNs, URLs and time layouts stay literal.
	upper := strings.ToUpper(literal)
	for _, kw := range []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "PRAGMA ", "CREATE ", "ALTER ", "DROP "} {
		if strings.HasPrefix(upper, kw) {
			return false
		}
	}
	if strings.HasPrefix(literal, "file:") || strings.HasPrefix(literal, "http") || strings.HasPrefix(literal, "2006-") {
		return false
	}
	// Tab separated table headers are deliberate.
	if strings.Contains(literal, `\t`) {
		return false
	}
	return true
}

// walkSource visits every non-test Go file under root, skipping hidden
// directories, the tools tree and anything the Go toolchain itself ignores.
func walkSource(root string, visit func(path string, lines []string)) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "tools") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		visit(path, strings.Split(string(content), "\n"))
		return nil
	})
}

// loadLocale flattens a nested YAML catalog into dot-joined ids mapped to
// their templates.
func loadLocale(path string) (map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(content, &tree); err != nil {
		return nil, err
	}
	catalog := make(map[string]string)
	flattenCatalog("", tree, catalog)
	return catalog, nil
}

// flattenCatalog converts a nested map into dot-joined leaf keys.
func flattenCatalog(prefix string, node any, catalog map[string]string) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			joined := key
			if prefix != "" {
				joined = prefix + "." + key
			}
			flattenCatalog(joined, child, catalog)
		}
	default:
		if prefix != "" {
			catalog[prefix] = fmt.Sprintf("%v", v)
		}
	}
}
