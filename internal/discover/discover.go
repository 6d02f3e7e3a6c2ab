// Package discover finds auditable source files under a root directory.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/routeaudit/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to root, slash-separated
	Language string // Route-bearing language, "" for scan-only files
}

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{
	"node_modules",
	".git",
	".hg",
	".svn",
	".vs",
	".vscode",
	".idea",
	"bin",
	"obj",
	"dist",
	"packages",
	"TestResults",
}

// Options selects which files Files returns.
type Options struct {
	// Suffixes restricts results to files whose name ends with one of them
	// (case-insensitive). Empty means every file.
	Suffixes []string
	// SkipDirs overrides DefaultSkipDirs when non-nil.
	SkipDirs []string
	// Gitignore excludes files ignored by git or the root .gitignore.
	Gitignore bool
	// MaxFileSize skips files larger than this many bytes when > 0.
	MaxFileSize int64
}

// Files discovers files under root matching opts, sorted by path.
func Files(root string, opts Options) ([]FileEntry, error) {
	skipDirs := opts.SkipDirs
	if skipDirs == nil {
		skipDirs = DefaultSkipDirs
	}
	skip := make(map[string]struct{}, len(skipDirs))
	for _, d := range skipDirs {
		skip[strings.ToLower(d)] = struct{}{}
	}

	var gitFiles map[string]struct{}
	var gi *ignore.GitIgnore
	if opts.Gitignore {
		gitFiles = gitLsFiles(root)
		if gitFiles == nil {
			gi = loadGitignore(root)
		}
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, ok := skip[strings.ToLower(name)]; ok || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if len(opts.Suffixes) > 0 && !lang.HasSuffix(name, opts.Suffixes) {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[rel]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		if opts.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil || info.Size() > opts.MaxFileSize {
				return nil
			}
		}

		results = append(results, FileEntry{Path: rel, Language: lang.ForPath(name)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// Source is the content of one readable file.
type Source struct {
	Path     string
	Language string
	Text     []byte
}

// Lines splits the text into lines without their terminators.
func (s Source) Lines() []string {
	text := strings.ReplaceAll(string(s.Text), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Read loads a discovered file. ok is false when the file cannot be read for
// any reason; such files are treated as absent.
func Read(root string, e FileEntry) (src Source, ok bool) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(e.Path)))
	if err != nil {
		return Source{}, false
	}
	return Source{Path: e.Path, Language: e.Language, Text: stripBOM(data)}, true
}

func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
