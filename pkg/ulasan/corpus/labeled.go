package corpus

import (
	"fmt"
	"strings"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
	"github.com/cognicore/ulasan/pkg/ulasan/label"
	"github.com/cognicore/ulasan/pkg/ulasan/normalize"
)

// Example is one labeled training document.
type Example struct {
	Row   int // zero-based data row in the source table
	Doc   Document
	Label label.Label
}

// LabelOptions controls how a table becomes labeled examples.
type LabelOptions struct {
	TextColumn  string
	LabelColumn string
	StripHTML   bool
	Normalizer  *normalize.Normalizer
}

// Labeled validates a training table and converts it to examples. The text
// and label columns must exist and every label must parse; the first
// violation is returned as ErrDataFormat naming the row and value. A missing
// or non-text review cell becomes an empty document.
func Labeled(t *Table, opts LabelOptions) ([]Example, error) {
	if t == nil || len(t.Header) == 0 {
		return nil, fmt.Errorf("%w: corpus has no header", internalerr.ErrDataFormat)
	}
	textCol := t.Column(opts.TextColumn)
	if textCol < 0 {
		return nil, fmt.Errorf("%w: text column %q missing (columns: %s)",
			internalerr.ErrDataFormat, opts.TextColumn, strings.Join(t.Header, ", "))
	}
	labelCol := t.Column(opts.LabelColumn)
	if labelCol < 0 {
		return nil, fmt.Errorf("%w: label column %q missing (columns: %s)",
			internalerr.ErrDataFormat, opts.LabelColumn, strings.Join(t.Header, ", "))
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: corpus has no rows", internalerr.ErrDataInsufficient)
	}

	n := opts.Normalizer
	if n == nil {
		n = normalize.Default()
	}

	out := make([]Example, 0, t.Len())
	for r := range t.Rows {
		raw, ok := t.Cell(r, labelCol)
		if !ok {
			return nil, fmt.Errorf("%w: row %d: label column %q is empty", internalerr.ErrDataFormat, r+1, opts.LabelColumn)
		}
		l, err := label.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: label column %q: %w", r+1, opts.LabelColumn, err)
		}

		text, _ := t.Cell(r, textCol)
		if opts.StripHTML {
			text = StripMarkup(text)
		}
		out = append(out, Example{Row: r, Doc: NewDocument(text, n), Label: l})
	}
	return out, nil
}

// Texts returns the clean texts of the examples at idx.
func Texts(examples []Example, idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = examples[i].Doc.Clean()
	}
	return out
}

// Labels returns the labels of the examples at idx.
func Labels(examples []Example, idx []int) []label.Label {
	out := make([]label.Label, len(idx))
	for k, i := range idx {
		out[k] = examples[i].Label
	}
	return out
}

// AllLabels returns every example's label in order.
func AllLabels(examples []Example) []label.Label {
	out := make([]label.Label, len(examples))
	for i, e := range examples {
		out[i] = e.Label
	}
	return out
}
