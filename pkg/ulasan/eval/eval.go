// Package eval scores predictions against held-out labels.
package eval

import (
	"fmt"
	"strings"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
	"github.com/cognicore/ulasan/pkg/ulasan/label"
)

// ClassMetrics holds per-label precision, recall and F1.
type ClassMetrics struct {
	Label     label.Label `json:"label"`
	Precision float64     `json:"precision"`
	Recall    float64     `json:"recall"`
	F1        float64     `json:"f1"`
	Support   int         `json:"support"`
}

// Average is an aggregate over the three classes.
type Average struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Report is the evaluation of one test split. Confusion rows are true
// labels and columns predicted labels, both in POSITIVE, NEUTRAL, NEGATIVE
// order.
type Report struct {
	Total       int                           `json:"total"`
	Accuracy    float64                       `json:"accuracy"`
	Confusion   [label.Count][label.Count]int `json:"confusion_matrix"`
	Classes     [label.Count]ClassMetrics     `json:"classes"`
	MacroAvg    Average                       `json:"macro_avg"`
	WeightedAvg Average                       `json:"weighted_avg"`
}

// Evaluate compares predictions with the truth. Undefined ratios (no
// predictions or no support for a class) are reported as 0.
func Evaluate(truth, pred []label.Label) (Report, error) {
	if len(truth) != len(pred) {
		return Report{}, fmt.Errorf("%w: %d true labels but %d predictions", internalerr.ErrInvalidInput, len(truth), len(pred))
	}
	if len(truth) == 0 {
		return Report{}, fmt.Errorf("%w: nothing to evaluate", internalerr.ErrDataInsufficient)
	}

	var r Report
	r.Total = len(truth)
	correct := 0
	for i := range truth {
		ti, pi := truth[i].Index(), pred[i].Index()
		if ti < 0 || pi < 0 {
			return Report{}, fmt.Errorf("%w: invalid label at %d (%s, %s)", internalerr.ErrInvalidInput, i, truth[i], pred[i])
		}
		r.Confusion[ti][pi]++
		if ti == pi {
			correct++
		}
	}
	r.Accuracy = float64(correct) / float64(r.Total)

	for k, l := range label.All {
		tp := r.Confusion[k][k]
		var predicted, support int
		for j := 0; j < label.Count; j++ {
			predicted += r.Confusion[j][k]
			support += r.Confusion[k][j]
		}
		m := ClassMetrics{Label: l, Support: support}
		m.Precision = ratio(tp, predicted)
		m.Recall = ratio(tp, support)
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes[k] = m

		r.MacroAvg.Precision += m.Precision / float64(label.Count)
		r.MacroAvg.Recall += m.Recall / float64(label.Count)
		r.MacroAvg.F1 += m.F1 / float64(label.Count)

		w := float64(support) / float64(r.Total)
		r.WeightedAvg.Precision += m.Precision * w
		r.WeightedAvg.Recall += m.Recall * w
		r.WeightedAvg.F1 += m.F1 * w
	}
	return r, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// String renders a plain-text classification report with four decimals.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %.4f (%d documents)\n\n", r.Accuracy, r.Total)
	fmt.Fprintf(&b, "%-12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Classes {
		fmt.Fprintf(&b, "%-12s %10.4f %10.4f %10.4f %10d\n", m.Label, m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-12s %10.4f %10.4f %10.4f %10d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.Total)
	fmt.Fprintf(&b, "%-12s %10.4f %10.4f %10.4f %10d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.Total)

	b.WriteString("\nConfusion matrix (rows true, columns predicted: POS, NET, NEG)\n")
	for k, row := range r.Confusion {
		fmt.Fprintf(&b, "%-4s %6d %6d %6d\n", label.All[k].Short(), row[0], row[1], row[2])
	}
	return b.String()
}
