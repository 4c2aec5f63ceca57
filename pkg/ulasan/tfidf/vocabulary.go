package tfidf

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

// Vocabulary is the immutable term index learned by Fit. Terms are kept in
// lexical order and their position is their feature index.
type Vocabulary struct {
	terms   []string
	index   map[string]int
	idf     []float64
	df      []int64
	numDocs int64
}

// NewVocabulary rebuilds a vocabulary from persisted columns. Terms must be
// unique and sorted; idf weights must be finite and >= 1 (the smoothed idf
// never drops below 1).
func NewVocabulary(terms []string, idf []float64, df []int64, numDocs int64) (*Vocabulary, error) {
	if len(terms) != len(idf) || len(terms) != len(df) {
		return nil, fmt.Errorf("%w: vocabulary columns differ in length (%d terms, %d idf, %d df)",
			internalerr.ErrInvalidInput, len(terms), len(idf), len(df))
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", internalerr.ErrInvalidInput)
	}

	v := &Vocabulary{
		terms:   append([]string(nil), terms...),
		index:   make(map[string]int, len(terms)),
		idf:     append([]float64(nil), idf...),
		df:      append([]int64(nil), df...),
		numDocs: numDocs,
	}
	for i, t := range v.terms {
		if t == "" {
			return nil, fmt.Errorf("%w: empty term at index %d", internalerr.ErrInvalidInput, i)
		}
		if i > 0 && v.terms[i-1] >= t {
			return nil, fmt.Errorf("%w: terms not strictly sorted at index %d (%q)", internalerr.ErrInvalidInput, i, t)
		}
		if math.IsNaN(v.idf[i]) || math.IsInf(v.idf[i], 0) || v.idf[i] < 1 {
			return nil, fmt.Errorf("%w: invalid idf %v for %q", internalerr.ErrInvalidInput, v.idf[i], t)
		}
		v.index[t] = i
	}
	return v, nil
}

// Len returns the vocabulary dimension.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Term returns the term at index i.
func (v *Vocabulary) Term(i int) string { return v.terms[i] }

// Index looks up a term.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Contains reports whether term survived pruning.
func (v *Vocabulary) Contains(term string) bool {
	_, ok := v.index[term]
	return ok
}

// IDF returns the weight of index i.
func (v *Vocabulary) IDF(i int) float64 { return v.idf[i] }

// DF returns the training document frequency of index i.
func (v *Vocabulary) DF(i int) int64 { return v.df[i] }

// NumDocs returns the size of the corpus the vocabulary was fitted on.
func (v *Vocabulary) NumDocs() int64 { return v.numDocs }

// Terms returns a copy of the ordered term list.
func (v *Vocabulary) Terms() []string { return append([]string(nil), v.terms...) }

// IDFs returns a copy of the idf weights.
func (v *Vocabulary) IDFs() []float64 { return append([]float64(nil), v.idf...) }

// DFs returns a copy of the document frequencies.
func (v *Vocabulary) DFs() []int64 { return append([]int64(nil), v.df...) }

// Digest fingerprints the ordered term list. A classifier records the digest
// of the vocabulary it was trained against.
func (v *Vocabulary) Digest() string {
	h := sha256.New()
	for _, t := range v.terms {
		h.Write([]byte(t))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Equal reports whether two vocabularies have identical terms, weights and
// frequencies.
func (v *Vocabulary) Equal(o *Vocabulary) bool {
	if v == nil || o == nil {
		return v == o
	}
	if len(v.terms) != len(o.terms) || v.numDocs != o.numDocs {
		return false
	}
	for i := range v.terms {
		if v.terms[i] != o.terms[i] || v.idf[i] != o.idf[i] || v.df[i] != o.df[i] {
			return false
		}
	}
	return true
}
