// Package normalize turns raw review text into the clean form consumed by
// the vectorizer. Cleaning is pure and idempotent.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// urlPattern matches http(s) and www tokens up to the next separator.
var urlPattern = regexp.MustCompile(`(?:http|www)[^\s\pZ]+`)

// Normalizer applies the cleaning steps with a fixed slang table.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	slang *SlangTable
}

// New creates a normalizer. A nil table disables slang substitution.
func New(slang *SlangTable) *Normalizer {
	if slang == nil {
		slang = NewSlangTable()
	}
	return &Normalizer{slang: slang}
}

var defaultNormalizer = New(DefaultSlangTable())

// Default returns the normalizer backed by the embedded slang table.
func Default() *Normalizer {
	return defaultNormalizer
}

// Clean normalizes text with the default table.
func Clean(text string) string {
	return defaultNormalizer.Clean(text)
}

// CleanValue normalizes text with the default table; see Normalizer.CleanValue.
func CleanValue(v any) (string, bool) {
	return defaultNormalizer.CleanValue(v)
}

// Clean lowercases, strips URLs, collapses elongations, drops symbols, maps
// slang and squeezes whitespace, in that order.
func (n *Normalizer) Clean(text string) string {
	text = basicClean(text)
	if text == "" {
		return ""
	}

	tokens := strings.Fields(text)
	for i, tok := range tokens {
		if canonical, ok := n.slang.Lookup(tok); ok {
			tokens[i] = canonical
		}
	}
	return strings.Join(tokens, " ")
}

// CleanValue accepts loosely typed input such as a decoded JSON field or a
// missing CSV cell. Non-text input yields "" and ok=false; it is never an
// error.
func (n *Normalizer) CleanValue(v any) (clean string, ok bool) {
	switch s := v.(type) {
	case string:
		return n.Clean(s), true
	case []byte:
		return n.Clean(string(s)), true
	case *string:
		if s == nil {
			return "", false
		}
		return n.Clean(*s), true
	default:
		return "", false
	}
}

// Slang exposes the table in use.
func (n *Normalizer) Slang() *SlangTable {
	return n.slang
}

// basicClean runs every step except slang substitution.
func basicClean(text string) string {
	if text == "" {
		return ""
	}
	// Casers carry state; one per call keeps Clean goroutine-safe.
	text = cases.Lower(language.Und).String(text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = collapseRepeats(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

// collapseRepeats reduces any run of three or more identical runes to one
// ("baguuuus" -> "bagus"); runs of two are kept.
func collapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if j-i >= 3 {
			b.WriteRune(runes[i])
		} else {
			for k := i; k < j; k++ {
				b.WriteRune(runes[k])
			}
		}
		i = j
	}
	return b.String()
}
