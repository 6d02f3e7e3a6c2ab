package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/routeaudit/internal/model"
)

// RoutesCSV renders route records with one yes/no column per role.
func RoutesCSV(res *model.Result) ([]byte, error) {
	header := []string{"route", "active", "authorized"}
	header = append(header, res.Roles...)
	header = append(header, "source_file")

	rows := [][]string{header}
	for i := range res.Routes {
		r := &res.Routes[i]
		row := []string{r.Route, strconv.FormatBool(r.Active), strconv.FormatBool(r.Authorized)}
		for _, role := range res.Roles {
			row = append(row, strconv.FormatBool(r.HasRole(role)))
		}
		row = append(row, r.SourceFile)
		rows = append(rows, row)
	}
	return writeCSV(rows)
}

// LinksCSV renders link records.
func LinksCSV(res *model.Result) ([]byte, error) {
	rows := [][]string{{"source_file", "line", "method", "scheme", "destination", "classification", "route"}}
	for i := range res.Links {
		l := &res.Links[i]
		rows = append(rows, []string{
			l.SourceFile,
			strconv.Itoa(l.LineNumber),
			string(l.Method),
			l.Scheme,
			l.Destination,
			string(l.Classification),
			l.Route,
		})
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes routes.csv and links.csv into dir.
func WriteCSV(dir string, res *model.Result) error {
	routes, err := RoutesCSV(res)
	if err != nil {
		return fmt.Errorf("encoding routes: %w", err)
	}
	links, err := LinksCSV(res)
	if err != nil {
		return fmt.Errorf("encoding links: %w", err)
	}
	if err := WriteFileAtomic(filepath.Join(dir, "routes.csv"), routes); err != nil {
		return err
	}
	return WriteFileAtomic(filepath.Join(dir, "links.csv"), links)
}

// YAML renders the full result.
func YAML(res *model.Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HTML renders a Markdown report as a standalone HTML page.
func HTML(title, markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", htmlEscape(title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String()), nil
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// WriteFileAtomic writes data to a temp file then renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if runtime.GOOS == "windows" {
		_ = os.Remove(path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
