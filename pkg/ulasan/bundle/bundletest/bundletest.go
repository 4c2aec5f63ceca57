// Package bundletest builds small fitted bundles for tests.
package bundletest

import (
	"context"
	"testing"

	"github.com/cognicore/ulasan/pkg/ulasan/bayes"
	"github.com/cognicore/ulasan/pkg/ulasan/bundle"
	"github.com/cognicore/ulasan/pkg/ulasan/label"
	"github.com/cognicore/ulasan/pkg/ulasan/tfidf"
)

// Review is a clean review text with its label.
type Review struct {
	Text  string
	Label label.Label
}

// Reviews is a tiny separable corpus.
var Reviews = []Review{
	{"barang bagus banget", label.Positive},
	{"kualitas bagus pengiriman cepat", label.Positive},
	{"mantap sesuai pesanan", label.Positive},
	{"bagus rekomendasi", label.Positive},
	{"barang biasa saja", label.Neutral},
	{"lumayan sesuai harga", label.Neutral},
	{"biasa pengiriman standar", label.Neutral},
	{"barang rusak kecewa", label.Negative},
	{"pengiriman lambat kecewa", label.Negative},
	{"jelek tidak sesuai", label.Negative},
	{"kecewa barang jelek", label.Negative},
}

// Options fits every term (min_df=1) with unigrams and bigrams.
var Options = tfidf.Options{MinDF: 1, MaxDF: 1, NGramMin: 1, NGramMax: 2}

// Build fits a bundle on reviews.
func Build(t testing.TB, reviews []Review) *bundle.Bundle {
	t.Helper()

	texts := make([]string, len(reviews))
	labels := make([]label.Label, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
		labels[i] = r.Label
	}

	vec, err := tfidf.New(Options)
	if err != nil {
		t.Fatalf("tfidf.New: %v", err)
	}
	if err := vec.Fit(context.Background(), texts); err != nil {
		t.Fatalf("Fit vectorizer: %v", err)
	}
	vs, err := vec.TransformAll(texts)
	if err != nil {
		t.Fatalf("TransformAll: %v", err)
	}
	clf, err := bayes.New(bayes.DefaultAlpha)
	if err != nil {
		t.Fatalf("bayes.New: %v", err)
	}
	if err := clf.Fit(vs, labels); err != nil {
		t.Fatalf("Fit classifier: %v", err)
	}
	b, err := bundle.New(vec, clf)
	if err != nil {
		t.Fatalf("bundle.New: %v", err)
	}
	return b
}

// Default builds a bundle on Reviews.
func Default(t testing.TB) *bundle.Bundle {
	return Build(t, Reviews)
}
