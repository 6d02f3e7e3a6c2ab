// Package audit runs the two-pass route and link analysis over a tree.
package audit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phobologic/routeaudit/internal/discover"
	"github.com/phobologic/routeaudit/internal/lang"
	"github.com/phobologic/routeaudit/internal/links"
	"github.com/phobologic/routeaudit/internal/logging"
	"github.com/phobologic/routeaudit/internal/model"
	"github.com/phobologic/routeaudit/internal/routes"
)

// ErrRootNotFound is returned when the audited root does not exist or is not
// a directory.
var ErrRootNotFound = errors.New("root path not found")

// DefaultScanSuffixes is the link-scan file filter. It is a superset of
// the route-bearing languages.
var DefaultScanSuffixes = []string{".razor", ".cs", ".cshtml", ".html", ".htm", ".js", ".ts"}

// Options configures a run.
type Options struct {
	// Languages restricts route discovery to these registered languages.
	// Empty means all of them.
	Languages    []string
	ScanSuffixes []string
	SkipDirs     []string
	Gitignore    bool
	MaxFileSize  int64
}

// Run audits the tree under root.
func Run(root string, opts Options) (*model.Result, error) {
	routeFiles, scanFiles, err := Discover(root, opts)
	if err != nil {
		return nil, err
	}

	records, roles := DiscoverRoutes(readAll(root, routeFiles))
	patterns := routes.Compile(records)
	logging.Log.Debugf("compiled %d route patterns", patterns.Len())
	linkRecords := ScanLinks(readAll(root, scanFiles), patterns)

	return &model.Result{
		Root:   filepath.Base(root),
		Routes: records,
		Roles:  roles,
		Links:  linkRecords,
	}, nil
}

// Discover selects the route-bearing files and the link-scan files under
// root. The scan selection always includes the route-bearing suffixes.
func Discover(root string, opts Options) (routeFiles, scanFiles []discover.FileEntry, err error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	routeSuffixes, err := languageSuffixes(opts.Languages)
	if err != nil {
		return nil, nil, err
	}
	scanSuffixes := opts.ScanSuffixes
	if len(scanSuffixes) == 0 {
		scanSuffixes = DefaultScanSuffixes
	}
	scanSuffixes = union(scanSuffixes, routeSuffixes)

	routeFiles, err = discover.Files(root, discover.Options{
		Suffixes:    routeSuffixes,
		SkipDirs:    opts.SkipDirs,
		Gitignore:   opts.Gitignore,
		MaxFileSize: opts.MaxFileSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("discovering route files: %w", err)
	}
	scanFiles, err = discover.Files(root, discover.Options{
		Suffixes:    scanSuffixes,
		SkipDirs:    opts.SkipDirs,
		Gitignore:   opts.Gitignore,
		MaxFileSize: opts.MaxFileSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("discovering scan files: %w", err)
	}
	logging.Log.Debugf("discovered %d route files, %d scan files", len(routeFiles), len(scanFiles))
	return routeFiles, scanFiles, nil
}

// union appends the entries of extra missing from base, ignoring case.
func union(base, extra []string) []string {
	out := append([]string(nil), base...)
	seen := make(map[string]struct{}, len(out))
	for _, s := range out {
		seen[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range extra {
		if _, ok := seen[strings.ToLower(s)]; !ok {
			seen[strings.ToLower(s)] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func readAll(root string, entries []discover.FileEntry) []discover.Source {
	sources := make([]discover.Source, 0, len(entries))
	for _, e := range entries {
		src, ok := discover.Read(root, e)
		if !ok {
			logging.Log.Debugf("%s: unreadable, skipped", e.Path)
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

// RouteSuffixes returns the file suffixes of every registered route-bearing
// language.
func RouteSuffixes() []string {
	s, _ := languageSuffixes(nil)
	return s
}

func languageSuffixes(names []string) ([]string, error) {
	if len(names) == 0 {
		names = lang.Names()
	}
	var suffixes []string
	for _, name := range names {
		l, ok := lang.Languages[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unsupported language %q", name)
		}
		suffixes = append(suffixes, l.Suffixes...)
	}
	return suffixes, nil
}

// DiscoverRoutes is pass 1. It extracts route records from every
// route-bearing source and returns them sorted by route then file, with the
// sorted vocabulary of roles that gate any of them.
func DiscoverRoutes(sources []discover.Source) ([]model.RouteRecord, []string) {
	var records []model.RouteRecord
	vocab := make(map[string]struct{})

	for _, src := range sources {
		name := src.Language
		if name == "" {
			name = lang.ForPath(src.Path)
		}
		l, ok := lang.Languages[name]
		if !ok {
			continue
		}
		page := l.Extract(l, src.Text)
		for _, decl := range page.Routes {
			rec := model.RouteRecord{
				Route:      decl.Template,
				Active:     decl.Active,
				Authorized: page.Auth.Authorized,
				SourceFile: src.Path,
			}
			if page.Auth.Authorized && len(page.Auth.Roles) > 0 {
				rec.Roles = append([]string(nil), page.Auth.Roles...)
				for _, r := range rec.Roles {
					vocab[r] = struct{}{}
				}
			}
			records = append(records, rec)
		}
	}

	SortRoutes(records)

	roles := make([]string, 0, len(vocab))
	for r := range vocab {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return records, roles
}

// ScanLinks is pass 2. It classifies every destination in sources against
// patterns and returns the records sorted by file then line.
func ScanLinks(sources []discover.Source, patterns *routes.Set) []model.LinkRecord {
	var out []model.LinkRecord
	for _, src := range sources {
		out = append(out, links.Scan(src.Path, src.Lines(), patterns)...)
	}
	SortLinks(out)
	return out
}

// SortRoutes orders records by route text (case-insensitive) then source
// file. Records from the same file keep declaration order.
func SortRoutes(records []model.RouteRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := strings.ToLower(records[i].Route), strings.ToLower(records[j].Route)
		if a != b {
			return a < b
		}
		if records[i].Route != records[j].Route {
			return records[i].Route < records[j].Route
		}
		return records[i].SourceFile < records[j].SourceFile
	})
}

// SortLinks orders records by source file then line. Records on the same
// line keep discovery order.
func SortLinks(records []model.LinkRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].SourceFile != records[j].SourceFile {
			return records[i].SourceFile < records[j].SourceFile
		}
		return records[i].LineNumber < records[j].LineNumber
	})
}
