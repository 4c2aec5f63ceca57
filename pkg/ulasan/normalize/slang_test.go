package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

func TestDefaultSlangTable(t *testing.T) {
	table := DefaultSlangTable()
	if table.Len() != 16 {
		t.Errorf("Expected 16 variants, got %d", table.Len())
	}
	if c, ok := table.Lookup("bgt"); !ok || c != "banget" {
		t.Errorf("Lookup(bgt) = %q, %v", c, ok)
	}
	if _, ok := table.Lookup("banget"); ok {
		t.Error("canonical forms should not be variants")
	}
	pairs := table.Pairs()
	for i := 1; i < len(pairs); i++ {
		if pairs[i-1][0] >= pairs[i][0] {
			t.Fatalf("Pairs not sorted at %d: %v", i, pairs)
		}
	}
}

func TestLoadSlangTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slang.yaml")
	content := `
slang:
  - canonical: Terima Kasih
    variants: [Makasih, mksh]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadSlangTable(path)
	if err != nil {
		t.Fatalf("LoadSlangTable: %v", err)
	}
	if got := New(table).Clean("MAKASIH gan"); got != "terima kasih gan" {
		t.Errorf("Clean = %q", got)
	}
}

func TestLoadSlangTableMissing(t *testing.T) {
	if _, err := LoadSlangTable(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParseSlangTableRejects(t *testing.T) {
	tests := map[string]string{
		"bad yaml":            "slang: [",
		"multiword variant":   "slang:\n  - canonical: ok\n    variants: [\"o k\"]\n",
		"punctuated variant":  "slang:\n  - canonical: ok\n    variants: [\"ok!\"]\n",
		"elongated variant":   "slang:\n  - canonical: ok\n    variants: [okkk]\n",
		"canonical is slang":  "slang:\n  - canonical: ga\n    variants: [gk]\n  - canonical: tidak\n    variants: [ga]\n",
		"conflicting variant": "slang:\n  - canonical: a\n    variants: [x]\n  - canonical: b\n    variants: [x]\n",
		"empty canonical":     "slang:\n  - canonical: \"\"\n    variants: [x]\n",
		"url canonical":       "slang:\n  - canonical: wwwsite\n    variants: [x]\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSlangTable([]byte(content))
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
