// Package inference serves predictions from a loaded bundle. A Service is
// read-only after construction and safe for concurrent use.
package inference

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/ulasan/pkg/ulasan/bundle"
	"github.com/cognicore/ulasan/pkg/ulasan/label"
	"github.com/cognicore/ulasan/pkg/ulasan/normalize"
)

const (
	defaultBatchThreshold = 512
	batchChunk            = 128
)

// Status reports whether a batch item was processed.
type Status int

const (
	StatusDone Status = iota
	StatusCancelled
)

func (s Status) String() string {
	if s == StatusDone {
		return "done"
	}
	return "cancelled"
}

// Prediction is the outcome for one input. InvalidInput marks non-text input
// that was classified as empty text.
type Prediction struct {
	Clean        string
	Label        label.Label
	Status       Status
	InvalidInput bool
}

// Option configures a Service.
type Option func(*Service)

// WithNormalizer replaces the default normalizer. It must match the one
// used during training.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) { s.normalizer = n }
}

// WithLogger sets the logger for per-item diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithWorkers bounds batch parallelism. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithBatchThreshold sets the batch size from which work is spread over
// workers.
func WithBatchThreshold(n int) Option {
	return func(s *Service) { s.threshold = n }
}

// Service composes normalizer, vectorizer and classifier.
type Service struct {
	bundle     *bundle.Bundle
	normalizer *normalize.Normalizer
	logger     *slog.Logger
	workers    int
	threshold  int
	empty      label.Label
}

// New builds a service around a validated bundle. The bundle is not copied
// and must not be mutated afterwards.
func New(b *bundle.Bundle, opts ...Option) (*Service, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	s := &Service{bundle: b, threshold: defaultBatchThreshold}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = normalize.Default()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.workers < 1 {
		s.workers = runtime.GOMAXPROCS(0)
	}

	empty, err := s.classify("")
	if err != nil {
		return nil, err
	}
	s.empty = empty
	return s, nil
}

// Open loads a bundle from store (the latest when runID is empty) and fails
// fast if it cannot serve.
func Open(ctx context.Context, store bundle.Store, runID string, opts ...Option) (*Service, error) {
	b, err := store.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	return New(b, opts...)
}

// Bundle returns the served bundle.
func (s *Service) Bundle() *bundle.Bundle { return s.bundle }

// RunID identifies the served bundle.
func (s *Service) RunID() string { return s.bundle.RunID }

// EmptyLabel is the label every empty or non-text input receives.
func (s *Service) EmptyLabel() label.Label { return s.empty }

// Clean normalizes text exactly as training did.
func (s *Service) Clean(text string) string {
	return s.normalizer.Clean(text)
}

// Predict classifies raw text.
func (s *Service) Predict(text string) label.Label {
	return s.predictClean(s.normalizer.Clean(text))
}

// PredictValue classifies loosely typed input; non-text becomes empty text.
func (s *Service) PredictValue(v any) Prediction {
	clean, ok := s.normalizer.CleanValue(v)
	if !ok {
		s.logger.Debug("non-text input treated as empty", "type", fmt.Sprintf("%T", v))
		return Prediction{Label: s.empty, InvalidInput: true}
	}
	return Prediction{Clean: clean, Label: s.predictClean(clean)}
}

// PredictBatch classifies texts independently. Results keep input order.
// If ctx ends early, every item is still returned: finished ones with
// StatusDone, the rest with StatusCancelled, together with ctx's error.
func (s *Service) PredictBatch(ctx context.Context, texts []string) ([]Prediction, error) {
	return s.batch(ctx, len(texts), func(i int) Prediction {
		clean := s.normalizer.Clean(texts[i])
		return Prediction{Clean: clean, Label: s.predictClean(clean)}
	})
}

// PredictValues is PredictBatch for loosely typed input.
func (s *Service) PredictValues(ctx context.Context, values []any) ([]Prediction, error) {
	return s.batch(ctx, len(values), func(i int) Prediction {
		return s.PredictValue(values[i])
	})
}

func (s *Service) batch(ctx context.Context, n int, at func(int) Prediction) ([]Prediction, error) {
	out := make([]Prediction, n)
	for i := range out {
		out[i].Status = StatusCancelled
	}

	if n < s.threshold || s.workers == 1 {
		for i := range out {
			if i%batchChunk == 0 {
				if err := ctx.Err(); err != nil {
					return out, err
				}
			}
			out[i] = at(i)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for lo := 0; lo < n; lo += batchChunk {
		lo := lo
		if gctx.Err() != nil {
			break
		}
		hi := min(lo+batchChunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = at(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	if err := ctx.Err(); err != nil {
		for _, p := range out {
			if p.Status == StatusCancelled {
				return out, err
			}
		}
	}
	return out, nil
}

func (s *Service) predictClean(clean string) label.Label {
	l, err := s.classify(clean)
	if err != nil {
		// Unreachable with a validated bundle.
		s.logger.Error("prediction failed", "run_id", s.bundle.RunID, "error", err)
		return s.empty
	}
	return l
}

func (s *Service) classify(clean string) (label.Label, error) {
	v, err := s.bundle.Vectorizer.Transform(clean)
	if err != nil {
		return 0, err
	}
	return s.bundle.Classifier.Predict(v)
}
