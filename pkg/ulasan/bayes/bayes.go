// Package bayes implements a multinomial Naive Bayes classifier over tf-idf
// vectors with Laplace smoothing and a fixed tie-break order.
package bayes

import (
	"fmt"
	"math"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
	"github.com/cognicore/ulasan/pkg/ulasan/label"
	"github.com/cognicore/ulasan/pkg/ulasan/tfidf"
)

// DefaultAlpha is the Laplace smoothing constant.
const DefaultAlpha = 1.0

// sumTolerance bounds the drift allowed when checking that a class's
// likelihoods sum to one after a round trip through storage.
const sumTolerance = 1e-6

// ClassParameters are the learned values for one label.
type ClassParameters struct {
	Label         label.Label
	DocCount      int64
	LogPrior      float64
	LogLikelihood []float64 // one entry per vocabulary index
}

// Parameters is the complete fitted state, indexed by label.Index().
type Parameters struct {
	Alpha   float64
	Dim     int
	Classes [label.Count]ClassParameters
}

// Classifier scores feature vectors. After Fit (or FromParameters) it is
// immutable and safe for concurrent use.
type Classifier struct {
	alpha  float64
	params *Parameters
}

// New creates an unfitted classifier.
func New(alpha float64) (*Classifier, error) {
	if !(alpha > 0) || math.IsInf(alpha, 0) {
		return nil, fmt.Errorf("%w: alpha must be a positive finite number, got %v", internalerr.ErrInvalidConfig, alpha)
	}
	return &Classifier{alpha: alpha}, nil
}

// Fitted reports whether parameters are available.
func (c *Classifier) Fitted() bool { return c.params != nil }

// Alpha returns the smoothing constant.
func (c *Classifier) Alpha() float64 { return c.alpha }

// Dimension returns the vocabulary dimension the classifier was fitted on.
func (c *Classifier) Dimension() int {
	if c.params == nil {
		return 0
	}
	return c.params.Dim
}

// Fit learns priors and smoothed per-term likelihoods:
//
//	prior(c)     = n_c / N
//	P(t | c)     = (W_ct + alpha) / (W_c + alpha*|V|)
//
// where W_ct is the summed weight of term t over class-c vectors and W_c the
// summed weight of all terms. Every label needs at least one document.
func (c *Classifier) Fit(vectors []tfidf.Vector, labels []label.Label) error {
	if c.params != nil {
		return fmt.Errorf("%w: classifier already fitted", internalerr.ErrInvalidInput)
	}
	if len(vectors) != len(labels) {
		return fmt.Errorf("%w: %d vectors but %d labels", internalerr.ErrDataFormat, len(vectors), len(labels))
	}
	if len(vectors) == 0 {
		return fmt.Errorf("%w: no training documents", internalerr.ErrDataInsufficient)
	}

	dim := vectors[0].Dim
	if dim <= 0 {
		return fmt.Errorf("%w: vectors have dimension %d", internalerr.ErrDataFormat, dim)
	}

	var (
		docCounts [label.Count]int64
		weights   [label.Count][]float64
		totals    [label.Count]float64
	)
	for k := range weights {
		weights[k] = make([]float64, dim)
	}

	for i, v := range vectors {
		if v.Dim != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d", internalerr.ErrDataFormat, i, v.Dim, dim)
		}
		k := labels[i].Index()
		if k < 0 {
			return fmt.Errorf("%w: document %d has invalid label %s", internalerr.ErrDataFormat, i, labels[i])
		}
		docCounts[k]++
		for j, idx := range v.Indices {
			w := v.Values[j]
			if w < 0 || idx < 0 || idx >= dim {
				return fmt.Errorf("%w: vector %d has entry %d=%v", internalerr.ErrDataFormat, i, idx, w)
			}
			weights[k][idx] += w
			totals[k] += w
		}
	}

	for k, l := range label.All {
		if docCounts[k] == 0 {
			return fmt.Errorf("%w: class %s has no training documents", internalerr.ErrDataInsufficient, l)
		}
	}

	p := &Parameters{Alpha: c.alpha, Dim: dim}
	n := float64(len(vectors))
	for k, l := range label.All {
		denom := math.Log(totals[k] + c.alpha*float64(dim))
		ll := make([]float64, dim)
		for t := range ll {
			ll[t] = math.Log(weights[k][t]+c.alpha) - denom
		}
		p.Classes[k] = ClassParameters{
			Label:         l,
			DocCount:      docCounts[k],
			LogPrior:      math.Log(float64(docCounts[k]) / n),
			LogLikelihood: ll,
		}
	}
	c.params = p
	return nil
}

// Scores returns the joint log score of each label, indexed by label.Index().
func (c *Classifier) Scores(v tfidf.Vector) ([label.Count]float64, error) {
	var scores [label.Count]float64
	if c.params == nil {
		return scores, fmt.Errorf("%w: classifier has not been fitted or loaded", internalerr.ErrNotReady)
	}
	if v.Dim != c.params.Dim {
		return scores, fmt.Errorf("%w: vector dimension %d, classifier dimension %d", internalerr.ErrInvalidInput, v.Dim, c.params.Dim)
	}
	for k := range c.params.Classes {
		cp := &c.params.Classes[k]
		s := cp.LogPrior
		for j, idx := range v.Indices {
			s += v.Values[j] * cp.LogLikelihood[idx]
		}
		scores[k] = s
	}
	return scores, nil
}

// Predict returns the label with the highest score. Exact ties go to the
// label with the higher prior, then to the first of POSITIVE, NEUTRAL,
// NEGATIVE.
func (c *Classifier) Predict(v tfidf.Vector) (label.Label, error) {
	scores, err := c.Scores(v)
	if err != nil {
		return 0, err
	}
	best := 0
	for k := 1; k < label.Count; k++ {
		switch {
		case scores[k] > scores[best]:
			best = k
		case scores[k] == scores[best] && c.params.Classes[k].LogPrior > c.params.Classes[best].LogPrior:
			best = k
		}
	}
	return label.All[best], nil
}

// PredictBatch applies Predict to each vector, preserving order.
func (c *Classifier) PredictBatch(vs []tfidf.Vector) ([]label.Label, error) {
	out := make([]label.Label, len(vs))
	for i, v := range vs {
		l, err := c.Predict(v)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		out[i] = l
	}
	return out, nil
}

// Parameters returns a deep copy of the fitted state.
func (c *Classifier) Parameters() (Parameters, error) {
	if c.params == nil {
		return Parameters{}, fmt.Errorf("%w: classifier has not been fitted", internalerr.ErrNotReady)
	}
	out := *c.params
	for k := range out.Classes {
		out.Classes[k].LogLikelihood = append([]float64(nil), c.params.Classes[k].LogLikelihood...)
	}
	return out, nil
}

// FromParameters rebuilds a fitted classifier from persisted parameters,
// checking that priors and each class's likelihoods are distributions.
func FromParameters(p Parameters) (*Classifier, error) {
	if !(p.Alpha > 0) {
		return nil, fmt.Errorf("%w: alpha %v", internalerr.ErrInvalidInput, p.Alpha)
	}
	if p.Dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", internalerr.ErrInvalidInput, p.Dim)
	}

	var priorSum float64
	own := Parameters{Alpha: p.Alpha, Dim: p.Dim}
	for k, l := range label.All {
		cp := p.Classes[k]
		if cp.Label != l {
			return nil, fmt.Errorf("%w: class slot %d holds %s, expected %s", internalerr.ErrInvalidInput, k, cp.Label, l)
		}
		if len(cp.LogLikelihood) != p.Dim {
			return nil, fmt.Errorf("%w: class %s has %d likelihoods, expected %d",
				internalerr.ErrInvalidInput, l, len(cp.LogLikelihood), p.Dim)
		}
		if math.IsNaN(cp.LogPrior) || cp.LogPrior > 0 {
			return nil, fmt.Errorf("%w: class %s log prior %v", internalerr.ErrInvalidInput, l, cp.LogPrior)
		}
		priorSum += math.Exp(cp.LogPrior)

		var sum float64
		for _, x := range cp.LogLikelihood {
			if math.IsNaN(x) || x > 0 {
				return nil, fmt.Errorf("%w: class %s has log likelihood %v", internalerr.ErrInvalidInput, l, x)
			}
			sum += math.Exp(x)
		}
		if math.Abs(sum-1) > sumTolerance {
			return nil, fmt.Errorf("%w: class %s likelihoods sum to %v", internalerr.ErrInvalidInput, l, sum)
		}

		cp.LogLikelihood = append([]float64(nil), cp.LogLikelihood...)
		own.Classes[k] = cp
	}
	if math.Abs(priorSum-1) > sumTolerance {
		return nil, fmt.Errorf("%w: priors sum to %v", internalerr.ErrInvalidInput, priorSum)
	}

	return &Classifier{alpha: p.Alpha, params: &own}, nil
}
