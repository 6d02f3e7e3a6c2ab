// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// audit results.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/routeaudit/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts an audit result into TOON format.
func Encode(res *model.Result) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(res.Root)))

	roleCols := make([]string, len(res.Roles))
	for i, r := range res.Roles {
		roleCols[i] = encodeValue(r)
	}
	parts = append(parts, fmt.Sprintf("roles[%d]: %s", len(res.Roles), strings.Join(roleCols, ",")))

	var routeRows [][]any
	for i := range res.Routes {
		r := &res.Routes[i]
		routeRows = append(routeRows, []any{
			r.Route,
			r.Active,
			r.Authorized,
			strings.Join(r.Roles, " "),
			r.SourceFile,
		})
	}
	parts = append(parts, formatTabular("routes", []string{"route", "active", "authorized", "roles", "file"}, routeRows))

	var linkRows [][]any
	for i := range res.Links {
		l := &res.Links[i]
		linkRows = append(linkRows, []any{
			l.SourceFile,
			l.LineNumber,
			string(l.Method),
			l.Scheme,
			l.Destination,
			string(l.Classification),
			l.Route,
		})
	}
	parts = append(parts, formatTabular("links", []string{"file", "line", "method", "scheme", "destination", "status", "route"}, linkRows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeCell(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeCell(cell any) string {
	switch v := cell.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case string:
		return encodeValue(v)
	}
	return encodeValue(fmt.Sprint(cell))
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
