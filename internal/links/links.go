// Package links finds outbound link and navigation destinations and
// classifies them against the known routes.
package links

import (
	"regexp"
	"strings"

	"github.com/phobologic/routeaudit/internal/model"
	"github.com/phobologic/routeaudit/internal/routes"
)

var (
	hrefRe     = regexp.MustCompile(`\bhref\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	navigateRe = regexp.MustCompile(`\bNavigateTo\s*\(\s*(?:"([^"]*)"|'([^']*)')`)

	externalPrefixes = []string{"http://", "https://", "//", "mailto:", "tel:"}
)

// Scan returns a classified link record for every destination found in
// lines. Line numbers are 1-based. Within a line, href matches precede
// NavigateTo matches.
func Scan(file string, lines []string, patterns *routes.Set) []model.LinkRecord {
	var out []model.LinkRecord
	for i, line := range lines {
		out = appendMatches(out, file, i+1, line, hrefRe, model.Href, patterns)
		out = appendMatches(out, file, i+1, line, navigateRe, model.Navigate, patterns)
	}
	return out
}

func appendMatches(out []model.LinkRecord, file string, lineNo int, line string, re *regexp.Regexp, method model.Method, patterns *routes.Set) []model.LinkRecord {
	for _, m := range re.FindAllStringSubmatch(line, -1) {
		dest := m[1]
		if dest == "" {
			dest = m[2]
		}
		dest = strings.TrimSpace(dest)
		class, route := Classify(dest, patterns)
		out = append(out, model.LinkRecord{
			SourceFile:     file,
			LineNumber:     lineNo,
			Destination:    dest,
			Method:         method,
			Scheme:         Scheme(dest),
			Classification: class,
			Route:          route,
		})
	}
	return out
}

// Scheme returns the scheme prefix of dest: "//" for protocol-relative
// destinations, the lower-cased text before a colon that precedes any '/',
// or "relative".
func Scheme(dest string) string {
	dest = strings.TrimSpace(dest)
	if strings.HasPrefix(dest, "//") {
		return model.SchemeProtocolRelative
	}
	colon := strings.IndexByte(dest, ':')
	if colon < 0 {
		return model.SchemeRelative
	}
	slash := strings.IndexByte(dest, '/')
	if slash < 0 || colon < slash {
		return strings.ToLower(dest[:colon])
	}
	return model.SchemeRelative
}

// Classify decides whether dest is external, matches one of patterns, or is
// unknown. For matched destinations the matching template is returned.
func Classify(dest string, patterns *routes.Set) (model.Classification, string) {
	if IsExternal(dest) {
		return model.External, ""
	}
	if p, ok := patterns.Match(Path(dest)); ok {
		return model.Matched, p.Template
	}
	return model.Unknown, ""
}

// IsExternal reports whether dest starts with an external prefix, ignoring
// case. The test runs on the destination before any query or fragment is
// removed.
func IsExternal(dest string) bool {
	lower := strings.ToLower(dest)
	for _, p := range externalPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// Path strips any query and fragment from dest and roots it at '/'.
func Path(dest string) string {
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	if !strings.HasPrefix(dest, "/") {
		dest = "/" + dest
	}
	return dest
}
