package diffcheck

import (
	"strings"
	"testing"
)

func TestUnifiedEqual(t *testing.T) {
	t.Parallel()

	d, err := Unified("a", "b", "x\ny\n", "x\ny\n")
	if err != nil {
		t.Fatal(err)
	}
	if d != "" {
		t.Errorf("expected empty diff, got:\n%s", d)
	}
}

func TestUnifiedChanged(t *testing.T) {
	t.Parallel()

	d, err := Unified("ROUTES.md", "generated", "# r\n| `/a` |\n", "# r\n| `/b` |\n")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"--- ROUTES.md", "+++ generated", "-| `/a` |", "+| `/b` |"} {
		if !strings.Contains(d, want) {
			t.Errorf("diff missing %q:\n%s", want, d)
		}
	}
}
