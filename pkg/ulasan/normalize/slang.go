package normalize

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

//go:embed slang.yaml
var defaultSlangYAML []byte

// SlangTable maps informal tokens to their standard form.
//
// File format:
//
//	slang:
//	  - canonical: tidak
//	    variants: [gak, ga, nggak]
//	  - canonical: ya sudah
//	    variants: [yaudah]
//
// The table is configuration data: it is never learned, only loaded.
type SlangTable struct {
	// canonical -> variants, in file order
	groups map[string][]string
	// variant -> canonical
	reverseIndex map[string]string
}

type slangFile struct {
	Slang []struct {
		Canonical string   `yaml:"canonical"`
		Variants  []string `yaml:"variants"`
	} `yaml:"slang"`
}

// NewSlangTable returns an empty table.
func NewSlangTable() *SlangTable {
	return &SlangTable{
		groups:       make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// DefaultSlangTable parses the embedded table.
func DefaultSlangTable() *SlangTable {
	t, err := ParseSlangTable(defaultSlangYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded slang table: %v", err))
	}
	return t
}

// LoadSlangTable reads a table from a YAML file.
func LoadSlangTable(path string) (*SlangTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read slang table %s: %w", path, err)
	}
	t, err := ParseSlangTable(data)
	if err != nil {
		return nil, fmt.Errorf("slang table %s: %w", path, err)
	}
	return t, nil
}

// ParseSlangTable decodes and validates a YAML table.
func ParseSlangTable(data []byte) (*SlangTable, error) {
	var f slangFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}

	t := NewSlangTable()
	for _, g := range f.Slang {
		if err := t.Add(g.Canonical, g.Variants...); err != nil {
			return nil, err
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Add registers variants for a canonical form. Entries are lower-cased.
// A variant already bound to a different canonical form is rejected.
func (t *SlangTable) Add(canonical string, variants ...string) error {
	canonical = strings.Join(strings.Fields(strings.ToLower(canonical)), " ")
	if canonical == "" {
		return fmt.Errorf("%w: slang group with empty canonical form", internalerr.ErrInvalidConfig)
	}
	for _, v := range variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || v == canonical {
			continue
		}
		if prev, ok := t.reverseIndex[v]; ok && prev != canonical {
			return fmt.Errorf("%w: slang variant %q maps to both %q and %q", internalerr.ErrInvalidConfig, v, prev, canonical)
		}
		if _, ok := t.reverseIndex[v]; !ok {
			t.groups[canonical] = append(t.groups[canonical], v)
		}
		t.reverseIndex[v] = canonical
	}
	return nil
}

// Validate checks that substitution is a fixed point of normalization:
// variants are single normalized tokens and canonical forms are already
// normalized and contain no variant.
func (t *SlangTable) Validate() error {
	for v, canonical := range t.reverseIndex {
		if strings.ContainsAny(v, " \t") || basicClean(v) != v {
			return fmt.Errorf("%w: slang variant %q is not a single normalized token", internalerr.ErrInvalidConfig, v)
		}
		if basicClean(canonical) != canonical {
			return fmt.Errorf("%w: canonical form %q is not normalized", internalerr.ErrInvalidConfig, canonical)
		}
		for _, tok := range strings.Fields(canonical) {
			if _, ok := t.reverseIndex[tok]; ok {
				return fmt.Errorf("%w: canonical form %q contains slang variant %q", internalerr.ErrInvalidConfig, canonical, tok)
			}
		}
	}
	return nil
}

// Lookup returns the canonical form of a token.
func (t *SlangTable) Lookup(token string) (string, bool) {
	c, ok := t.reverseIndex[token]
	return c, ok
}

// Len returns the number of variants.
func (t *SlangTable) Len() int {
	return len(t.reverseIndex)
}

// Pairs returns variant -> canonical pairs sorted by variant, for auditing.
func (t *SlangTable) Pairs() [][2]string {
	out := make([][2]string, 0, len(t.reverseIndex))
	for v, c := range t.reverseIndex {
		out = append(out, [2]string{v, c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
