package corpus

import "github.com/cognicore/ulasan/pkg/ulasan/normalize"

// Document pairs raw review text with its normalized form. The clean form
// is always derived from the raw text; the zero Document is empty text.
type Document struct {
	raw   string
	clean string
}

// NewDocument normalizes raw with n (the default normalizer when nil).
func NewDocument(raw string, n *normalize.Normalizer) Document {
	if n == nil {
		n = normalize.Default()
	}
	return Document{raw: raw, clean: n.Clean(raw)}
}

// Raw returns the text as read from the table.
func (d Document) Raw() string { return d.raw }

// Clean returns the normalized text.
func (d Document) Clean() string { return d.clean }

// WithRaw returns a new document for changed text; Clean is recomputed.
func (d Document) WithRaw(raw string, n *normalize.Normalizer) Document {
	return NewDocument(raw, n)
}
