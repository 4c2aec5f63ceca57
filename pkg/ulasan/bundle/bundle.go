// Package bundle pairs a fitted vectorizer with the classifier trained on its
// vocabulary and persists the pair as a unit.
package bundle

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/ulasan/pkg/ulasan/bayes"
	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
	"github.com/cognicore/ulasan/pkg/ulasan/tfidf"
)

// Bundle is the immutable output of one training run.
type Bundle struct {
	RunID      string
	CreatedAt  time.Time
	Vectorizer *tfidf.Vectorizer
	Classifier *bayes.Classifier
}

// Store persists bundles. Load with an empty run id returns the most
// recently saved bundle.
type Store interface {
	Save(ctx context.Context, b *Bundle) error
	Load(ctx context.Context, runID string) (*Bundle, error)
	Close() error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a time-ordered unique run identifier.
func NewRunID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// New wraps a freshly fitted pair under a new run id.
func New(vec *tfidf.Vectorizer, clf *bayes.Classifier) (*Bundle, error) {
	now := time.Now().UTC()
	b := &Bundle{
		RunID:      NewRunID(now),
		CreatedAt:  now,
		Vectorizer: vec,
		Classifier: clf,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks that both halves are fitted and agree on dimension.
func (b *Bundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil bundle", internalerr.ErrBundleLoad)
	}
	if _, err := ulid.ParseStrict(b.RunID); err != nil {
		return fmt.Errorf("%w: run id %q: %v", internalerr.ErrBundleLoad, b.RunID, err)
	}
	if b.Vectorizer == nil || !b.Vectorizer.Fitted() {
		return fmt.Errorf("%w: bundle %s has no fitted vectorizer", internalerr.ErrBundleLoad, b.RunID)
	}
	if b.Classifier == nil || !b.Classifier.Fitted() {
		return fmt.Errorf("%w: bundle %s has no fitted classifier", internalerr.ErrBundleLoad, b.RunID)
	}
	if vd, cd := b.Vectorizer.Dimension(), b.Classifier.Dimension(); vd != cd {
		return fmt.Errorf("%w: bundle %s vocabulary has %d terms but classifier expects %d",
			internalerr.ErrBundleLoad, b.RunID, vd, cd)
	}
	return nil
}
