// Package train runs the offline pipeline: validate a labeled table, split
// it, fit the vectorizer and classifier on the training part, evaluate on the
// held-out part and persist the resulting bundle.
package train

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cognicore/ulasan/pkg/ulasan/bayes"
	"github.com/cognicore/ulasan/pkg/ulasan/bundle"
	"github.com/cognicore/ulasan/pkg/ulasan/config"
	"github.com/cognicore/ulasan/pkg/ulasan/corpus"
	"github.com/cognicore/ulasan/pkg/ulasan/eval"
	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
	"github.com/cognicore/ulasan/pkg/ulasan/label"
	"github.com/cognicore/ulasan/pkg/ulasan/normalize"
	"github.com/cognicore/ulasan/pkg/ulasan/tfidf"
)

// ReportSaver is implemented by stores that keep evaluation reports.
type ReportSaver interface {
	SaveReport(ctx context.Context, runID string, r eval.Report, params any) error
}

// Pipeline holds the dependencies of a training run. Store and Logger are
// optional.
type Pipeline struct {
	Config     config.Config
	Normalizer *normalize.Normalizer
	Store      bundle.Store
	Logger     *slog.Logger
}

// Result is the outcome of one run.
type Result struct {
	Bundle   *bundle.Bundle
	Report   eval.Report
	Split    corpus.Split
	Examples int
	Duration time.Duration
}

// Run trains on table. Any validation failure aborts the run before fitting.
func (p *Pipeline) Run(ctx context.Context, table *corpus.Table) (*Result, error) {
	start := time.Now()
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	examples, err := corpus.Labeled(table, corpus.LabelOptions{
		TextColumn:  cfg.Corpus.TextColumn,
		LabelColumn: cfg.Corpus.LabelColumn,
		StripHTML:   cfg.Corpus.StripHTML,
		Normalizer:  p.Normalizer,
	})
	if err != nil {
		return nil, err
	}
	labels := corpus.AllLabels(examples)
	if err := requireAllClasses(labels); err != nil {
		return nil, err
	}
	log.Info("corpus validated", "examples", len(examples))

	split, err := corpus.StratifiedSplit(labels, cfg.Split.Ratio, cfg.Split.Seed)
	if err != nil {
		return nil, err
	}
	if len(split.Test) == 0 {
		return nil, fmt.Errorf("%w: %d examples leave no held-out documents at split ratio %v",
			internalerr.ErrDataInsufficient, len(examples), cfg.Split.Ratio)
	}
	log.Info("split", "train", len(split.Train), "test", len(split.Test), "seed", cfg.Split.Seed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trainTexts := corpus.Texts(examples, split.Train)
	vec, err := tfidf.New(cfg.VectorizerOptions())
	if err != nil {
		return nil, err
	}
	if err := vec.Fit(ctx, trainTexts); err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	log.Info("vectorizer fitted", "vocabulary", vec.Dimension())

	trainVecs, err := vec.TransformBatch(ctx, trainTexts)
	if err != nil {
		return nil, err
	}
	testVecs, err := vec.TransformBatch(ctx, corpus.Texts(examples, split.Test))
	if err != nil {
		return nil, err
	}

	clf, err := bayes.New(cfg.Classifier.Alpha)
	if err != nil {
		return nil, err
	}
	if err := clf.Fit(trainVecs, corpus.Labels(examples, split.Train)); err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pred, err := clf.PredictBatch(testVecs)
	if err != nil {
		return nil, err
	}
	report, err := eval.Evaluate(corpus.Labels(examples, split.Test), pred)
	if err != nil {
		return nil, err
	}

	b, err := bundle.New(vec, clf)
	if err != nil {
		return nil, err
	}
	log.Info("evaluated", "run_id", b.RunID, "accuracy", report.Accuracy, "macro_f1", report.MacroAvg.F1)

	if p.Store != nil {
		if err := p.Store.Save(ctx, b); err != nil {
			return nil, fmt.Errorf("persist bundle: %w", err)
		}
		if err := saveReport(ctx, p.Store, b.RunID, report, cfg); err != nil {
			return nil, fmt.Errorf("persist report: %w", err)
		}
		log.Info("bundle saved", "run_id", b.RunID)
	}

	return &Result{
		Bundle:   b,
		Report:   report,
		Split:    split,
		Examples: len(examples),
		Duration: time.Since(start),
	}, nil
}

func requireAllClasses(labels []label.Label) error {
	var counts [label.Count]int
	for _, l := range labels {
		counts[l.Index()]++
	}
	for k, n := range counts {
		if n == 0 {
			return fmt.Errorf("%w: no training examples labeled %s", internalerr.ErrDataInsufficient, label.All[k])
		}
	}
	return nil
}

func saveReport(ctx context.Context, s bundle.Store, runID string, r eval.Report, cfg config.Config) error {
	if multi, ok := s.(bundle.MultiStore); ok {
		for _, inner := range multi {
			if err := saveReport(ctx, inner, runID, r, cfg); err != nil {
				return err
			}
		}
		return nil
	}
	if rs, ok := s.(ReportSaver); ok {
		return rs.SaveReport(ctx, runID, r, cfg)
	}
	return nil
}
