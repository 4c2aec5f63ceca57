package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/ulasan/pkg/ulasan/corpus"
	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

// Columns added by PredictTable.
const (
	CleanColumn = "clean_text"
	LabelColumn = "predicted_label"
)

// PredictTable classifies every row's text column and returns a copy of t
// with clean_text and predicted_label set, appending the columns when t
// lacks them. Short rows and non-text cells are classified as empty text;
// cells beyond the header width are dropped.
// On cancellation the copy is returned with unfinished rows left unlabeled.
func (s *Service) PredictTable(ctx context.Context, t *corpus.Table, column string) (*corpus.Table, error) {
	src := t.Column(column)
	if src < 0 {
		return nil, fmt.Errorf("%w: column %q missing (columns: %s)",
			internalerr.ErrDataFormat, column, strings.Join(t.Header, ", "))
	}

	out := &corpus.Table{Header: append([]string(nil), t.Header...)}
	cleanCol := out.Column(CleanColumn)
	if cleanCol < 0 {
		cleanCol = len(out.Header)
		out.Header = append(out.Header, CleanColumn)
	}
	labelCol := out.Column(LabelColumn)
	if labelCol < 0 {
		labelCol = len(out.Header)
		out.Header = append(out.Header, LabelColumn)
	}

	values := make([]any, t.Len())
	for r := range values {
		values[r] = t.Value(r, src)
	}
	preds, err := s.PredictValues(ctx, values)

	out.Rows = make([][]string, t.Len())
	for r, row := range t.Rows {
		wide := make([]string, len(out.Header))
		copy(wide, row[:min(len(row), len(t.Header))])
		if p := preds[r]; p.Status == StatusDone {
			wide[cleanCol] = p.Clean
			wide[labelCol] = p.Label.String()
		}
		out.Rows[r] = wide
	}
	return out, err
}
