// Package parse extracts route declarations and authorization markers from
// component source files.
package parse

import (
	"regexp"
	"sort"
	"strings"

	"github.com/phobologic/routeaudit/internal/model"
)

var (
	// Razor comments and markup comments. Non-greedy so adjacent comments
	// produce separate ranges.
	commentRe = regexp.MustCompile(`(?s)@\*.*?\*@|<!--.*?-->`)

	pageRe = regexp.MustCompile(`@page\s+(?:"([^"]*)"|'([^']*)')`)

	// Both the directive form (@attribute [Authorize(...)]) and the bare
	// attribute form ([Authorize(...)]) match; group 1 holds the arguments.
	authorizeRe = regexp.MustCompile(`(?i)(?:@attribute\s+)?\[\s*(?:[\w.]+\.)?Authorize(?:Attribute)?\s*(?:\(([^)]*)\))?\s*\]`)
	anonymousRe = regexp.MustCompile(`(?i)(?:@attribute\s+)?\[\s*(?:[\w.]+\.)?AllowAnonymous(?:Attribute)?\s*(?:\([^)]*\))?\s*\]`)

	roleRe = regexp.MustCompile(`(?i)\broles?\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// Razor extracts the routes and authorization outcome of a .razor file.
func Razor(source []byte) model.Page {
	text := string(source)
	return model.Page{
		Routes: Routes(text),
		Auth:   Authorization(text),
	}
}

// CommentRanges returns the comment spans of text in text order.
// Range bounds are inclusive.
func CommentRanges(text string) []model.CommentRange {
	idx := commentRe.FindAllStringIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}
	ranges := make([]model.CommentRange, len(idx))
	for i, m := range idx {
		ranges[i] = model.CommentRange{Start: m[0], End: m[1] - 1}
	}
	return ranges
}

// InComment reports whether offset falls within any of ranges.
func InComment(ranges []model.CommentRange, offset int) bool {
	for _, r := range ranges {
		if offset >= r.Start && offset <= r.End {
			return true
		}
	}
	return false
}

// Routes returns every @page declaration in text. Declarations inside a
// comment are kept but marked inactive.
func Routes(text string) []model.RouteDecl {
	matches := pageRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	comments := CommentRanges(text)

	decls := make([]model.RouteDecl, 0, len(matches))
	for _, m := range matches {
		decls = append(decls, model.RouteDecl{
			Template: quotedGroup(text, m),
			Offset:   m[0],
			Active:   !InComment(comments, m[0]),
		})
	}
	return decls
}

// Authorization reports the file-level authorization outcome of text.
// An AllowAnonymous marker anywhere wins over any number of Authorize markers.
func Authorization(text string) model.AuthInfo {
	matches := authorizeRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 || anonymousRe.MatchString(text) {
		return model.AuthInfo{}
	}

	roles := newRoleSet()
	for _, m := range matches {
		roles.addArgs(m[1])
	}
	return model.AuthInfo{Authorized: true, Roles: roles.sorted()}
}

// quotedGroup returns whichever of the two alternative quote groups matched.
func quotedGroup(text string, m []int) string {
	if m[2] >= 0 {
		return text[m[2]:m[3]]
	}
	if len(m) > 5 && m[4] >= 0 {
		return text[m[4]:m[5]]
	}
	return ""
}

// roleSet collects role names case-insensitively in canonical lower case.
type roleSet map[string]struct{}

func newRoleSet() roleSet {
	return make(roleSet)
}

// addArgs adds every role listed in the argument text of an Authorize marker.
func (s roleSet) addArgs(args string) {
	if strings.TrimSpace(args) == "" {
		return
	}
	for _, m := range roleRe.FindAllStringSubmatch(args, -1) {
		value := m[1]
		if value == "" {
			value = m[2]
		}
		s.addList(value)
	}
}

// addList splits a comma or semicolon separated role list.
func (s roleSet) addList(value string) {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	})
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		s[strings.ToLower(p)] = struct{}{}
	}
}

func (s roleSet) sorted() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
