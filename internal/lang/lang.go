// Package lang provides a registry of route-bearing file kinds, mapping file
// suffixes to the extractor that understands them.
package lang

import (
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/routeaudit/internal/model"
)

// Language describes one kind of route-bearing source file.
type Language struct {
	Name string
	// Suffixes are matched case-insensitively against the file name, so
	// compound suffixes such as ".razor.cs" are supported.
	Suffixes []string
	lang     *sitter.Language

	// Extract returns the routes and authorization declared in source.
	Extract func(l *Language, source []byte) model.Page
}

// GetLanguage returns the tree-sitter Language pointer, or nil for kinds
// handled by pattern matching alone.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	if l.lang == nil {
		return nil
	}
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

type suffixEntry struct {
	suffix string
	name   string
}

// suffixTable is built lazily after all init() functions have run, longest
// suffix first.
var suffixTable []suffixEntry
var suffixOnce sync.Once

func getSuffixTable() []suffixEntry {
	suffixOnce.Do(func() {
		for _, l := range Languages {
			for _, s := range l.Suffixes {
				suffixTable = append(suffixTable, suffixEntry{strings.ToLower(s), l.Name})
			}
		}
		sort.Slice(suffixTable, func(i, j int) bool {
			if len(suffixTable[i].suffix) != len(suffixTable[j].suffix) {
				return len(suffixTable[i].suffix) > len(suffixTable[j].suffix)
			}
			return suffixTable[i].suffix < suffixTable[j].suffix
		})
	})
	return suffixTable
}

// ForPath returns the language name for a file path, or "" if the file does
// not declare routes. The longest matching suffix wins.
func ForPath(path string) string {
	lower := strings.ToLower(path)
	for _, e := range getSuffixTable() {
		if strings.HasSuffix(lower, e.suffix) {
			return e.name
		}
	}
	return ""
}

// Names returns the registered language names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Languages))
	for n := range Languages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HasSuffix reports whether path ends with one of suffixes, ignoring case.
func HasSuffix(path string, suffixes []string) bool {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
