package train

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/ulasan/pkg/ulasan/bundle"
	"github.com/cognicore/ulasan/pkg/ulasan/bundle/sqlite"
	"github.com/cognicore/ulasan/pkg/ulasan/config"
	"github.com/cognicore/ulasan/pkg/ulasan/corpus"
	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
	"github.com/cognicore/ulasan/pkg/ulasan/label"
)

var (
	_ ReportSaver = (*bundle.DirStore)(nil)
	_ ReportSaver = (*sqlite.Store)(nil)
)

var classWords = map[label.Label][]string{
	label.Positive: {"bagus", "mantap", "puas", "cepat", "rekomendasi"},
	label.Neutral:  {"biasa", "lumayan", "standar", "cukup"},
	label.Negative: {"rusak", "kecewa", "jelek", "lambat", "retur"},
}

var commonWords = []string{"barang", "pengiriman", "produk"}

// reviewTable builds perClass rows for each label.
func reviewTable(perClass int) *corpus.Table {
	t := &corpus.Table{Header: []string{"id", "clean_text", "label"}}
	for _, l := range label.All {
		words := classWords[l]
		for i := 0; i < perClass; i++ {
			text := fmt.Sprintf("%s %s %s",
				commonWords[i%len(commonWords)],
				words[i%len(words)],
				words[(i/len(words)+1)%len(words)])
			t.Rows = append(t.Rows, []string{fmt.Sprint(len(t.Rows)), text, l.String()})
		}
	}
	return t
}

func TestRunReproducible(t *testing.T) {
	table := reviewTable(100)
	p := &Pipeline{Config: config.Default()}

	first, err := p.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := p.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if len(first.Split.Train) != 240 || len(first.Split.Test) != 60 {
		t.Errorf("split sizes = %d/%d, want 240/60", len(first.Split.Train), len(first.Split.Test))
	}
	if !reflect.DeepEqual(first.Split, second.Split) {
		t.Error("same seed must give the same split")
	}
	if first.Report != second.Report {
		t.Errorf("reports differ:\n%v\n%v", first.Report, second.Report)
	}
	if !first.Bundle.Vectorizer.Vocabulary().Equal(second.Bundle.Vectorizer.Vocabulary()) {
		t.Error("same train split must give the same vocabulary")
	}
	if first.Bundle.RunID == second.Bundle.RunID {
		t.Error("each run needs its own run id")
	}

	labels := make([]label.Label, 0, 300)
	for _, row := range table.Rows {
		l, _ := label.Parse(row[2])
		labels = append(labels, l)
	}
	train := corpus.Proportions(labels, first.Split.Train)
	test := corpus.Proportions(labels, first.Split.Test)
	for k := range train {
		if math.Abs(train[k]-test[k]) > 0.02 {
			t.Errorf("class %s: train %.3f test %.3f", label.All[k], train[k], test[k])
		}
	}
	if first.Report.Accuracy < 0.9 {
		t.Errorf("accuracy %.3f on a separable corpus", first.Report.Accuracy)
	}
}

func TestRunNoLeakage(t *testing.T) {
	table := reviewTable(20)
	cfg := config.Default()

	labels := make([]label.Label, len(table.Rows))
	for i, row := range table.Rows {
		labels[i], _ = label.Parse(row[2])
	}
	split, err := corpus.StratifiedSplit(labels, cfg.Split.Ratio, cfg.Split.Seed)
	if err != nil {
		t.Fatal(err)
	}
	for _, i := range split.Test {
		table.Rows[i][1] += " bocoran"
	}

	res, err := (&Pipeline{Config: cfg}).Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(res.Split, split) {
		t.Fatal("pipeline split differs from the precomputed one")
	}
	vocab := res.Bundle.Vectorizer.Vocabulary()
	if vocab.Contains("bocoran") {
		t.Error("held-out term leaked into the vocabulary")
	}
	if vocab.NumDocs() != int64(len(split.Train)) {
		t.Errorf("vocabulary counted %d documents, want %d", vocab.NumDocs(), len(split.Train))
	}
}

func TestRunDataFormat(t *testing.T) {
	tests := map[string]struct {
		mutate func(*corpus.Table)
		want   string
	}{
		"missing label column": {
			mutate: func(tb *corpus.Table) { tb.Header[2] = "sentiment" },
			want:   `label column "label" missing`,
		},
		"out of enum label": {
			mutate: func(tb *corpus.Table) { tb.Rows[4][2] = "MIXED" },
			want:   "MIXED",
		},
		"empty label": {
			mutate: func(tb *corpus.Table) { tb.Rows[4] = tb.Rows[4][:2] },
			want:   "row 5",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			table := reviewTable(10)
			tc.mutate(table)
			_, err := (&Pipeline{Config: config.Default()}).Run(context.Background(), table)
			if !errors.Is(err, internalerr.ErrDataFormat) {
				t.Fatalf("Expected ErrDataFormat, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestRunDataInsufficient(t *testing.T) {
	t.Run("missing class", func(t *testing.T) {
		table := reviewTable(10)
		var kept [][]string
		for _, row := range table.Rows {
			if row[2] != label.Neutral.String() {
				kept = append(kept, row)
			}
		}
		table.Rows = kept
		_, err := (&Pipeline{Config: config.Default()}).Run(context.Background(), table)
		if !errors.Is(err, internalerr.ErrDataInsufficient) || !strings.Contains(err.Error(), "NEUTRAL") {
			t.Errorf("Expected ErrDataInsufficient naming NEUTRAL, got %v", err)
		}
	})

	t.Run("no rows", func(t *testing.T) {
		table := &corpus.Table{Header: []string{"clean_text", "label"}}
		_, err := (&Pipeline{Config: config.Default()}).Run(context.Background(), table)
		if !errors.Is(err, internalerr.ErrDataInsufficient) {
			t.Errorf("Expected ErrDataInsufficient, got %v", err)
		}
	})

	t.Run("min_df above train size", func(t *testing.T) {
		cfg := config.Default()
		cfg.Vectorizer.MinDF = 50
		_, err := (&Pipeline{Config: cfg}).Run(context.Background(), reviewTable(5))
		if !errors.Is(err, internalerr.ErrDataInsufficient) {
			t.Errorf("Expected ErrDataInsufficient, got %v", err)
		}
	})
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Classifier.Alpha = -1
	_, err := (&Pipeline{Config: cfg}).Run(context.Background(), reviewTable(10))
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Pipeline{Config: config.Default()}).Run(ctx, reviewTable(10))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRunPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Bundle = config.BundleConfig{
		Dir:    filepath.Join(dir, "bundles"),
		SQLite: filepath.Join(dir, "bundles.db"),
	}
	store, err := config.OpenStores(ctx, cfg.Bundle)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	res, err := (&Pipeline{Config: cfg, Store: store}).Run(ctx, reviewTable(20))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	multi := store.(bundle.MultiStore)
	for _, s := range multi {
		b, err := s.Load(ctx, "")
		if err != nil {
			t.Fatalf("%T Load: %v", s, err)
		}
		if b.RunID != res.Bundle.RunID {
			t.Errorf("%T latest = %s, want %s", s, b.RunID, res.Bundle.RunID)
		}
	}

	db := multi[1].(*sqlite.Store)
	report, found, err := db.LoadReport(ctx, res.Bundle.RunID)
	if err != nil || !found {
		t.Fatalf("LoadReport: found=%v err=%v", found, err)
	}
	if report != res.Report {
		t.Errorf("stored report differs")
	}
}
