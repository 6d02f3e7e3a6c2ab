// Package report renders audit results as Markdown, HTML, CSV and YAML.
package report

import (
	"fmt"
	"strings"

	"github.com/phobologic/routeaudit/internal/model"
)

// Style maps a classification to its presentation.
type Style interface {
	Status(c model.Classification) string
	Check(ok bool) string
}

// MarkdownStyle decorates statuses with emoji badges.
type MarkdownStyle struct{}

func (MarkdownStyle) Status(c model.Classification) string {
	switch c {
	case model.External:
		return "🌐 external"
	case model.Matched:
		return "✅ matched"
	case model.Unknown:
		return "❌ unknown"
	}
	return string(c)
}

func (MarkdownStyle) Check(ok bool) string {
	if ok {
		return "✔"
	}
	return ""
}

// PlainStyle renders bare labels.
type PlainStyle struct{}

func (PlainStyle) Status(c model.Classification) string { return string(c) }

func (PlainStyle) Check(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

// StyleByName returns the style registered under name.
func StyleByName(name string) (Style, error) {
	switch strings.ToLower(name) {
	case "", "markdown":
		return MarkdownStyle{}, nil
	case "plain":
		return PlainStyle{}, nil
	}
	return nil, fmt.Errorf("unknown style %q", name)
}

// Builder assembles a Markdown report from a result.
type Builder struct {
	res   *model.Result
	style Style
}

// NewBuilder returns a builder using MarkdownStyle.
func NewBuilder(res *model.Result) *Builder {
	return &Builder{res: res, style: MarkdownStyle{}}
}

// WithStyle replaces the status style.
func (b *Builder) WithStyle(s Style) *Builder {
	b.style = s
	return b
}

// Markdown renders the full report. Output depends only on the result.
func (b *Builder) Markdown() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("# Route audit: %s", b.res.Root))
	parts = append(parts, b.summary())
	parts = append(parts, b.routesTable())
	parts = append(parts, b.linksTable())
	parts = append(parts, b.unknownSection())
	parts = append(parts, b.domainsSection())
	return strings.Join(parts, "\n\n") + "\n"
}

func (b *Builder) summary() string {
	active, protected := 0, 0
	for i := range b.res.Routes {
		r := &b.res.Routes[i]
		if r.Active {
			active++
		}
		if r.Authorized {
			protected++
		}
	}
	rows := [][]string{
		{"Routes", fmt.Sprintf("%d", len(b.res.Routes))},
		{"Active routes", fmt.Sprintf("%d", active)},
		{"Authorized routes", fmt.Sprintf("%d", protected)},
		{"Roles", fmt.Sprintf("%d", len(b.res.Roles))},
		{"Links", fmt.Sprintf("%d", len(b.res.Links))},
		{b.style.Status(model.External), fmt.Sprintf("%d", b.res.Count(model.External))},
		{b.style.Status(model.Matched), fmt.Sprintf("%d", b.res.Count(model.Matched))},
		{b.style.Status(model.Unknown), fmt.Sprintf("%d", b.res.Count(model.Unknown))},
	}
	return "## Summary\n\n" + table([]string{"Metric", "Count"}, rows)
}

func (b *Builder) routesTable() string {
	header := []string{"Route", "Active", "Authorized"}
	header = append(header, b.res.Roles...)
	header = append(header, "Source")

	rows := make([][]string, 0, len(b.res.Routes))
	for i := range b.res.Routes {
		r := &b.res.Routes[i]
		row := []string{code(r.Route), b.style.Check(r.Active), b.style.Check(r.Authorized)}
		for _, role := range b.res.Roles {
			row = append(row, b.style.Check(r.HasRole(role)))
		}
		row = append(row, r.SourceFile)
		rows = append(rows, row)
	}
	return "## Routes\n\n" + table(header, rows)
}

func (b *Builder) linksTable() string {
	rows := make([][]string, 0, len(b.res.Links))
	for i := range b.res.Links {
		l := &b.res.Links[i]
		rows = append(rows, []string{
			l.SourceFile,
			fmt.Sprintf("%d", l.LineNumber),
			string(l.Method),
			l.Scheme,
			code(l.Destination),
			b.style.Status(l.Classification),
		})
	}
	return "## Links\n\n" + table([]string{"File", "Line", "Method", "Scheme", "Destination", "Status"}, rows)
}

func (b *Builder) unknownSection() string {
	var lines []string
	for i := range b.res.Links {
		l := &b.res.Links[i]
		if l.Classification == model.Unknown {
			lines = append(lines, fmt.Sprintf("- %s (%s:%d)", code(l.Destination), l.SourceFile, l.LineNumber))
		}
	}
	if len(lines) == 0 {
		return "## Unknown destinations\n\nNone."
	}
	return "## Unknown destinations\n\n" + strings.Join(lines, "\n")
}

func (b *Builder) domainsSection() string {
	counts := ExternalDomains(b.res.Links)
	if len(counts) == 0 {
		return "## External domains\n\nNone."
	}
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Domain, fmt.Sprintf("%d", c.Links)}
	}
	return "## External domains\n\n" + table([]string{"Domain", "Links"}, rows)
}

func table(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(escapeRow(header), " | ") + " |\n")
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString("|" + strings.Join(seps, "|") + "|")
	for _, row := range rows {
		b.WriteString("\n| " + strings.Join(escapeRow(row), " | ") + " |")
	}
	return b.String()
}

func escapeRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		cell = strings.ReplaceAll(cell, "|", `\|`)
		out[i] = strings.ReplaceAll(cell, "\n", " ")
	}
	return out
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}
