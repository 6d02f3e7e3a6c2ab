package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phobologic/routeaudit/internal/audit"
)

func writeTestFile(t *testing.T, root, rel, content string) {
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

func createSampleApp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "Pages/Admin.razor", `@page "/admin"
@attribute [Authorize(Roles="Admin")]
<h1>Admin</h1>
`)
	writeTestFile(t, dir, "Pages/Index.razor", `@page "/"
<a href="/admin">Go</a>
<a href="https://learn.microsoft.com/aspnet">Docs</a>
`)
	return dir
}

func TestRunBasic(t *testing.T) {
	dir := createSampleApp(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--loglevel", "error", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"# Route audit: " + filepath.Base(dir),
		"| `/admin` | ✔ | ✔ | ✔ | Pages/Admin.razor |",
		"| Pages/Index.razor | 2 | href | relative | `/admin` | ✅ matched |",
		"| microsoft.com | 1 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRunIdempotent(t *testing.T) {
	dir := createSampleApp(t)

	var a, b, stderr bytes.Buffer
	if err := run([]string{"-l", "error", dir}, &a, &stderr); err != nil {
		t.Fatal(err)
	}
	if err := run([]string{"-l", "error", dir}, &b, &stderr); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Error("two runs produced different reports")
	}
}

func TestRunPlainStyle(t *testing.T) {
	dir := createSampleApp(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-l", "error", "--style", "plain", dir}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "| `/admin` | matched |") {
		t.Errorf("plain status missing:\n%s", stdout.String())
	}
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"-V"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "routeaudit") {
		t.Errorf("version output: %q", stdout.String())
	}
}

func TestRunRootNotFound(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{filepath.Join(t.TempDir(), "missing")}, &stdout, &stderr)
	if !errors.Is(err, audit.ErrRootNotFound) {
		t.Fatalf("err = %v, want ErrRootNotFound", err)
	}
	if exitCode(err) != 2 {
		t.Errorf("exit code = %d, want 2", exitCode(err))
	}
	if stdout.Len() != 0 {
		t.Errorf("no report expected, got:\n%s", stdout.String())
	}
}

func TestRunExports(t *testing.T) {
	dir := createSampleApp(t)
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run([]string{
		"-l", "error",
		"--out", filepath.Join(out, "ROUTES.md"),
		"--csv", filepath.Join(out, "csv"),
		"--html", filepath.Join(out, "report.html"),
		"--toon", filepath.Join(out, "report.toon"),
		"--yaml", filepath.Join(out, "report.yaml"),
		dir,
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("--out should suppress stdout, got:\n%s", stdout.String())
	}

	for _, name := range []string{"ROUTES.md", "csv/routes.csv", "csv/links.csv", "report.html", "report.toon", "report.yaml"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	toonData, _ := os.ReadFile(filepath.Join(out, "report.toon"))
	if !strings.Contains(string(toonData), "routes[2]{") {
		t.Errorf("toon output:\n%s", toonData)
	}
}

func TestRunCache(t *testing.T) {
	dir := createSampleApp(t)
	cachePath := filepath.Join(t.TempDir(), "routes.cache")

	var stdout1, stderr bytes.Buffer
	if err := run([]string{"-l", "error", "--cache", cachePath, dir}, &stdout1, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	cacheData, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatalf("cache not created: %v", err)
	}
	if string(cacheData) != stdout1.String() {
		t.Errorf("cache should hold the report:\ncache:\n%s\nstdout:\n%s", cacheData, stdout1.String())
	}

	// A fresh cache is emitted as is, without auditing.
	if err := os.WriteFile(cachePath, []byte("cached report\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var stdout2 bytes.Buffer
	if err := run([]string{"-l", "error", "--cache", cachePath, dir}, &stdout2, &stderr); err != nil {
		t.Fatal(err)
	}
	if stdout2.String() != "cached report\n" {
		t.Errorf("expected cached output, got:\n%s", stdout2.String())
	}

	// A source newer than the cache forces a new audit.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "Pages", "Index.razor"), future, future); err != nil {
		t.Fatal(err)
	}
	var stdout3 bytes.Buffer
	if err := run([]string{"-l", "error", "--cache", cachePath, dir}, &stdout3, &stderr); err != nil {
		t.Fatal(err)
	}
	if stdout3.String() != stdout1.String() {
		t.Errorf("stale cache should be regenerated, got:\n%s", stdout3.String())
	}
}

func TestRunCacheBypassedForRecordExports(t *testing.T) {
	dir := createSampleApp(t)
	cachePath := filepath.Join(t.TempDir(), "routes.cache")
	if err := os.WriteFile(cachePath, []byte("cached report\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	for _, rel := range []string{"Pages/Admin.razor", "Pages/Index.razor"} {
		if err := os.Chtimes(filepath.Join(dir, rel), past, past); err != nil {
			t.Fatal(err)
		}
	}
	yamlPath := filepath.Join(t.TempDir(), "report.yaml")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-l", "error", "--cache", cachePath, "--yaml", yamlPath, dir}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(stdout.String(), "cached report") {
		t.Error("record exports need a real audit")
	}
	if _, err := os.Stat(yamlPath); err != nil {
		t.Errorf("yaml not written: %v", err)
	}
}

func TestCacheIsFresh(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "A.razor")
	cachePath := filepath.Join(dir, "cache")
	writeTestFile(t, dir, "A.razor", `@page "/a"`)
	writeTestFile(t, dir, "cache", "x")

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(src, past, past); err != nil {
		t.Fatal(err)
	}
	if !cacheIsFresh(cachePath, []string{src}) {
		t.Error("older source should leave the cache fresh")
	}
	if cacheIsFresh(filepath.Join(dir, "missing"), []string{src}) {
		t.Error("missing cache is never fresh")
	}
	if cacheIsFresh(cachePath, []string{filepath.Join(dir, "gone.razor")}) {
		t.Error("missing source makes the cache stale")
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(src, future, future); err != nil {
		t.Fatal(err)
	}
	if cacheIsFresh(cachePath, []string{src}) {
		t.Error("newer source should make the cache stale")
	}
}

func TestRunCheck(t *testing.T) {
	dir := createSampleApp(t)
	reportPath := filepath.Join(t.TempDir(), "ROUTES.md")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-l", "error", "--out", reportPath, dir}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}

	stdout.Reset()
	if err := run([]string{"-l", "error", "--check", reportPath, dir}, &stdout, &stderr); err != nil {
		t.Fatalf("unchanged tree should pass --check: %v\n%s", err, stdout.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no output, got:\n%s", stdout.String())
	}

	writeTestFile(t, dir, "Pages/New.razor", `@page "/new"`)
	stdout.Reset()
	err := run([]string{"-l", "error", "--check", reportPath, dir}, &stdout, &stderr)
	if !errors.Is(err, errDrift) {
		t.Fatalf("err = %v, want errDrift", err)
	}
	if exitCode(err) != 3 {
		t.Errorf("exit code = %d", exitCode(err))
	}
	if !strings.Contains(stdout.String(), "+| `/new`") {
		t.Errorf("diff missing new route:\n%s", stdout.String())
	}
}

func TestRunFailOnUnknown(t *testing.T) {
	dir := createSampleApp(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-l", "error", "--fail-on-unknown", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("no unknown links expected: %v", err)
	}

	writeTestFile(t, dir, "Shared/Nav.razor", `<a href="/missing">x</a>`)
	err := run([]string{"-l", "error", "--fail-on-unknown", dir}, &stdout, &stderr)
	if !errors.Is(err, errUnknownLinks) {
		t.Fatalf("err = %v, want errUnknownLinks", err)
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := createSampleApp(t)
	writeTestFile(t, dir, "wwwroot/index.html", `<a href="/nowhere">x</a>`)
	writeTestFile(t, dir, ".routeaudit.yaml", "scan_extensions: [.razor]\nstyle: plain\n")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-l", "error", dir}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	out := stdout.String()
	if strings.Contains(out, "/nowhere") {
		t.Error("html files should be excluded by the config file")
	}
	if strings.Contains(out, "✅") {
		t.Error("style from the config file should apply")
	}
}

func TestRunBadLogLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-l", "loud", t.TempDir()}, &stdout, &stderr); err == nil {
		t.Fatal("expected error for bad log level")
	}
}

func TestWatchFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	own := filepath.Join(dir, "report.html")
	accept := watchFilter([]string{".razor", ".html"}, own)

	if !accept(filepath.Join(dir, "Pages", "A.razor")) {
		t.Error("razor file should trigger")
	}
	if accept(own) {
		t.Error("own output should not trigger")
	}
	if accept(filepath.Join(dir, "x.html.tmp.123")) {
		t.Error("temp files should not trigger")
	}
	if accept(filepath.Join(dir, "notes.txt")) {
		t.Error("unscanned files should not trigger")
	}
}
