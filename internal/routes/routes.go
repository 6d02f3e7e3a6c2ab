// Package routes compiles declared route templates into path matchers.
package routes

import (
	"regexp"
	"strings"

	"github.com/phobologic/routeaudit/internal/model"
)

// Pattern is a compiled route template.
type Pattern struct {
	Template string
	re       *regexp.Regexp
}

// Match reports whether path is reachable through the pattern's template.
func (p *Pattern) Match(path string) bool {
	return p.re.MatchString(path)
}

// String returns the regular expression the template compiled to.
func (p *Pattern) String() string {
	return p.re.String()
}

// Set is the immutable collection of patterns used to classify links.
type Set struct {
	patterns []*Pattern
}

// Compile builds a pattern for every distinct template carried by at least
// one active record. Templates are compared case-insensitively and the first
// active spelling is kept.
func Compile(records []model.RouteRecord) *Set {
	seen := make(map[string]struct{})
	s := &Set{}
	for i := range records {
		rec := &records[i]
		if !rec.Active {
			continue
		}
		key := strings.ToLower(rec.Route)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		s.patterns = append(s.patterns, CompileTemplate(rec.Route))
	}
	return s
}

// Len returns the number of compiled patterns.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// Templates returns the templates in compilation order.
func (s *Set) Templates() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = p.Template
	}
	return out
}

// Match returns the first pattern matching path. Matching is existential;
// callers must not rely on which of several matching patterns is returned.
func (s *Set) Match(path string) (*Pattern, bool) {
	if s == nil {
		return nil, false
	}
	for _, p := range s.patterns {
		if p.Match(path) {
			return p, true
		}
	}
	return nil, false
}

// CompileTemplate turns one route template into an anchored matcher.
//
// {name}, {name:constraint} and {name?} match one or more characters other
// than '/'. {*name} and {**name} match one or more of any character,
// including '/'. Everything else matches literally. A trailing '/' on the
// matched path is tolerated.
func CompileTemplate(template string) *Pattern {
	t := template
	if !strings.HasPrefix(t, "/") {
		t = "/" + t
	}

	var b strings.Builder
	b.WriteString("(?i)^")
	for len(t) > 0 {
		open := strings.IndexByte(t, '{')
		if open < 0 {
			b.WriteString(regexp.QuoteMeta(t))
			break
		}
		end := strings.IndexByte(t[open:], '}')
		if end < 0 {
			b.WriteString(regexp.QuoteMeta(t))
			break
		}
		end += open

		b.WriteString(regexp.QuoteMeta(t[:open]))
		b.WriteString(segmentPattern(t[open+1 : end]))
		t = t[end+1:]
	}
	b.WriteString("/?$")

	return &Pattern{Template: template, re: regexp.MustCompile(b.String())}
}

func segmentPattern(inner string) string {
	if strings.HasPrefix(inner, "*") {
		return ".+"
	}
	return "[^/]+"
}
