// Package tfidf learns a unigram/bigram vocabulary with smoothed inverse
// document frequencies and maps clean text to L2-normalized sparse vectors.
package tfidf

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

// parallelFitThreshold is the corpus size above which document frequencies
// are counted in parallel chunks.
const parallelFitThreshold = 4096

// Options configures vocabulary pruning and n-gram extraction.
type Options struct {
	MinDF    int     // minimum number of documents containing a term
	MaxDF    float64 // maximum fraction of documents containing a term, (0,1]
	NGramMin int
	NGramMax int
}

// DefaultOptions mirrors the production training run: unigrams and bigrams,
// min_df=3, max_df=0.9.
func DefaultOptions() Options {
	return Options{MinDF: 3, MaxDF: 0.9, NGramMin: 1, NGramMax: 2}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MinDF < 1 {
		return fmt.Errorf("%w: min_df must be >= 1, got %d", internalerr.ErrInvalidConfig, o.MinDF)
	}
	if o.MaxDF <= 0 || o.MaxDF > 1 || math.IsNaN(o.MaxDF) {
		return fmt.Errorf("%w: max_df must be in (0,1], got %v", internalerr.ErrInvalidConfig, o.MaxDF)
	}
	if o.NGramMin < 1 || o.NGramMax < o.NGramMin {
		return fmt.Errorf("%w: invalid ngram range (%d,%d)", internalerr.ErrInvalidConfig, o.NGramMin, o.NGramMax)
	}
	return nil
}

// Vectorizer holds options and, once fitted, a vocabulary. After Fit it is
// read-only and safe for concurrent Transform calls.
type Vectorizer struct {
	opts  Options
	vocab *Vocabulary
}

// New creates an unfitted vectorizer.
func New(opts Options) (*Vectorizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Vectorizer{opts: opts}, nil
}

// FromVocabulary creates a fitted vectorizer from a persisted vocabulary.
func FromVocabulary(opts Options, vocab *Vocabulary) (*Vectorizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if vocab == nil || vocab.Len() == 0 {
		return nil, fmt.Errorf("%w: vectorizer needs a non-empty vocabulary", internalerr.ErrInvalidInput)
	}
	return &Vectorizer{opts: opts, vocab: vocab}, nil
}

// Options returns the configuration.
func (v *Vectorizer) Options() Options { return v.opts }

// Fitted reports whether a vocabulary is available.
func (v *Vectorizer) Fitted() bool { return v.vocab != nil }

// Vocabulary returns the fitted vocabulary, or nil.
func (v *Vectorizer) Vocabulary() *Vocabulary { return v.vocab }

// Dimension returns the vocabulary size (0 before Fit).
func (v *Vectorizer) Dimension() int {
	if v.vocab == nil {
		return 0
	}
	return v.vocab.Len()
}

// Fit builds the vocabulary from the training split. It may be called once;
// the vocabulary is then frozen.
func (v *Vectorizer) Fit(ctx context.Context, corpus []string) error {
	if v.vocab != nil {
		return fmt.Errorf("%w: vectorizer already fitted", internalerr.ErrInvalidInput)
	}
	if len(corpus) == 0 {
		return fmt.Errorf("%w: cannot fit vectorizer on an empty corpus", internalerr.ErrDataInsufficient)
	}
	if len(corpus) < v.opts.MinDF {
		return fmt.Errorf("%w: corpus has %d documents, fewer than min_df=%d",
			internalerr.ErrDataInsufficient, len(corpus), v.opts.MinDF)
	}

	maxDocs := v.opts.MaxDF * float64(len(corpus))
	if maxDocs < float64(v.opts.MinDF) {
		return fmt.Errorf("%w: max_df=%v of %d documents allows fewer documents than min_df=%d",
			internalerr.ErrDataInsufficient, v.opts.MaxDF, len(corpus), v.opts.MinDF)
	}

	counter, err := v.count(ctx, corpus)
	if err != nil {
		return err
	}

	terms := make([]string, 0, counter.UniqueTerms())
	for t, df := range counter.DF {
		if df >= int64(v.opts.MinDF) && float64(df) <= maxDocs {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return fmt.Errorf("%w: no terms remain after pruning with min_df=%d max_df=%v",
			internalerr.ErrDataInsufficient, v.opts.MinDF, v.opts.MaxDF)
	}
	sort.Strings(terms)

	n := float64(counter.TotalDocs())
	idf := make([]float64, len(terms))
	df := make([]int64, len(terms))
	for i, t := range terms {
		df[i] = counter.TermCount(t)
		idf[i] = math.Log((1+n)/(1+float64(df[i]))) + 1
	}

	vocab, err := NewVocabulary(terms, idf, df, counter.TotalDocs())
	if err != nil {
		return err
	}
	v.vocab = vocab
	return nil
}

// count accumulates document frequencies, in parallel chunks for large
// corpora.
func (v *Vectorizer) count(ctx context.Context, corpus []string) (*Counter, error) {
	if len(corpus) < parallelFitThreshold {
		c := NewCounter()
		for i, doc := range corpus {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			c.AddDocument(Terms(doc, v.opts.NGramMin, v.opts.NGramMax))
		}
		return c, nil
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(corpus) + workers - 1) / workers
	partials := make([]*Counter, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		lo := w * chunk
		if lo >= len(corpus) {
			break
		}
		hi := min(lo+chunk, len(corpus))
		g.Go(func() error {
			c := NewCounter()
			for _, doc := range corpus[lo:hi] {
				if err := gctx.Err(); err != nil {
					return err
				}
				c.AddDocument(Terms(doc, v.opts.NGramMin, v.opts.NGramMax))
			}
			partials[w] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := NewCounter()
	for _, c := range partials {
		if c != nil {
			total.Merge(c)
		}
	}
	return total, nil
}

// Transform maps clean text to its tf-idf vector. Unknown terms are dropped;
// a text with no known terms yields the zero vector.
func (v *Vectorizer) Transform(clean string) (Vector, error) {
	if v.vocab == nil {
		return Vector{}, fmt.Errorf("%w: vectorizer has not been fitted or loaded", internalerr.ErrNotReady)
	}

	counts := make(map[int]float64)
	for _, t := range Terms(clean, v.opts.NGramMin, v.opts.NGramMax) {
		if i, ok := v.vocab.Index(t); ok {
			counts[i]++
		}
	}

	vec := Vector{
		Dim:     v.vocab.Len(),
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for i := range counts {
		vec.Indices = append(vec.Indices, i)
	}
	sort.Ints(vec.Indices)

	var sum float64
	for _, i := range vec.Indices {
		w := counts[i] * v.vocab.IDF(i)
		vec.Values = append(vec.Values, w)
		sum += w * w
	}
	if sum > 0 {
		norm := math.Sqrt(sum)
		for k := range vec.Values {
			vec.Values[k] /= norm
		}
	}
	return vec, nil
}

// TransformAll transforms each text in order.
func (v *Vectorizer) TransformAll(texts []string) ([]Vector, error) {
	out := make([]Vector, len(texts))
	for i, t := range texts {
		vec, err := v.Transform(t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// TransformBatch is TransformAll spread over GOMAXPROCS workers for large
// inputs. Output order matches texts.
func (v *Vectorizer) TransformBatch(ctx context.Context, texts []string) ([]Vector, error) {
	if v.vocab == nil {
		return nil, fmt.Errorf("%w: vectorizer used before fit", internalerr.ErrNotReady)
	}
	if len(texts) < parallelFitThreshold {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return v.TransformAll(texts)
	}

	out := make([]Vector, len(texts))
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(texts) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(texts); lo += chunk {
		lo := lo
		hi := min(lo+chunk, len(texts))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				vec, err := v.Transform(texts[i])
				if err != nil {
					return err
				}
				out[i] = vec
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
