package discover

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func paths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestDiscoverSuffixFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "Pages/Index.razor", "@page \"/\"")
	writeFile(t, dir, "Pages/Index.razor.cs", "partial class Index {}")
	writeFile(t, dir, "Shared/Nav.RAZOR", "<a href=\"/\">")
	writeFile(t, dir, "wwwroot/app.js", "")
	writeFile(t, dir, "readme.txt", "hello")
	writeFile(t, dir, ".hidden.razor", "secret")

	entries, err := Files(dir, Options{Suffixes: []string{".razor", ".razor.cs"}})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	want := []string{"Pages/Index.razor", "Pages/Index.razor.cs", "Shared/Nav.RAZOR"}
	if got := paths(entries); !reflect.DeepEqual(got, want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
	if entries[0].Language != "razor" || entries[1].Language != "csharp" {
		t.Errorf("languages = %q, %q", entries[0].Language, entries[1].Language)
	}

	all, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("expected 5 entries without a filter, got %v", paths(all))
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "App.razor", "x")
	writeFile(t, dir, "node_modules/pkg/a.razor", "x")
	writeFile(t, dir, "bin/Debug/b.razor", "x")
	writeFile(t, dir, "obj/c.razor", "x")
	writeFile(t, dir, ".hidden/d.razor", "x")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if got := paths(entries); !reflect.DeepEqual(got, []string{"App.razor"}) {
		t.Errorf("paths = %v", got)
	}

	entries, err = Files(dir, Options{SkipDirs: []string{}})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("explicit empty skip list should only skip hidden dirs, got %v", paths(entries))
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated/\n")
	writeFile(t, dir, "App.razor", "x")
	writeFile(t, dir, "generated/Gen.razor", "x")

	entries, err := Files(dir, Options{Gitignore: true})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if got := paths(entries); !reflect.DeepEqual(got, []string{"App.razor"}) {
		t.Errorf("paths = %v", got)
	}

	entries, err = Files(dir, Options{Gitignore: false})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("gitignore disabled: got %v", paths(entries))
	}
}

func TestDiscoverMaxFileSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "small.razor", "x")
	writeFile(t, dir, "big.razor", "0123456789")

	entries, err := Files(dir, Options{MaxFileSize: 5})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if got := paths(entries); !reflect.DeepEqual(got, []string{"small.razor"}) {
		t.Errorf("paths = %v", got)
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.razor", "x")

	err := os.Symlink(filepath.Join(dir, "real.razor"), filepath.Join(dir, "link.razor"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if got := paths(entries); !reflect.DeepEqual(got, []string{"real.razor"}) {
		t.Errorf("paths = %v", got)
	}
}

func TestReadAndLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.razor", "\xEF\xBB\xBFone\r\ntwo\n")

	src, ok := Read(dir, FileEntry{Path: "a.razor", Language: "razor"})
	if !ok {
		t.Fatal("expected readable file")
	}
	if got := src.Lines(); !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Errorf("lines = %q", got)
	}

	if _, ok := Read(dir, FileEntry{Path: "missing.razor"}); ok {
		t.Error("missing file should not be readable")
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
