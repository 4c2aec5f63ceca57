package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cognicore/ulasan/internal/logging"
	"github.com/cognicore/ulasan/pkg/ulasan/analytics"
	"github.com/cognicore/ulasan/pkg/ulasan/bundle"
	"github.com/cognicore/ulasan/pkg/ulasan/bundle/sqlite"
	"github.com/cognicore/ulasan/pkg/ulasan/config"
	"github.com/cognicore/ulasan/pkg/ulasan/corpus"
	"github.com/cognicore/ulasan/pkg/ulasan/inference"
	"github.com/cognicore/ulasan/pkg/ulasan/label"
)

type options struct {
	bundleDir  string
	dbPath     string
	runID      string
	configPath string
	envFile    string
	text       string
	input      string
	column     string
	output     string
	top        int
}

type textResult struct {
	RunID     string      `json:"run_id"`
	Text      string      `json:"text"`
	CleanText string      `json:"clean_text"`
	Label     label.Label `json:"label"`
}

type batchSummary struct {
	RunID  string `json:"run_id"`
	Output string `json:"output,omitempty"`
	analytics.Summary
}

func main() {
	var opts options
	flag.StringVar(&opts.bundleDir, "bundle", "", "Bundle directory, or a store root holding LATEST")
	flag.StringVar(&opts.dbPath, "db", "", "SQLite bundle store")
	flag.StringVar(&opts.runID, "run", "", "Run id to load (default: latest)")
	flag.StringVar(&opts.configPath, "config", "", "Optional: YAML config (slang table)")
	flag.StringVar(&opts.envFile, "env", ".env", "Optional: dotenv file with ULASAN_* settings")
	flag.StringVar(&opts.text, "text", "", "Classify a single review")
	flag.StringVar(&opts.input, "input", "", "CSV or JSONL file to classify row by row")
	flag.StringVar(&opts.column, "column", "", "Review column in -input (default from config)")
	flag.StringVar(&opts.output, "output", "", "Write the labeled CSV here (default: stdout)")
	flag.IntVar(&opts.top, "top", 10, "Number of negative terms in the summary")
	flag.Parse()

	logging.Init()

	if (opts.text == "") == (opts.input == "") {
		fmt.Fprintln(os.Stderr, "exactly one of --text or --input required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		slog.Error("prediction failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	loader := config.Loader{ConfigPath: opts.configPath, EnvFile: opts.envFile}
	comp, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	defer comp.Close()

	svc, err := openService(ctx, opts, comp)
	if err != nil {
		return err
	}
	slog.Debug("bundle loaded", "run_id", svc.RunID(), "vocabulary", svc.Bundle().Vectorizer.Dimension())

	if opts.input == "" {
		return writeJSON(stdout, textResult{
			RunID:     svc.RunID(),
			Text:      opts.text,
			CleanText: svc.Clean(opts.text),
			Label:     svc.Predict(opts.text),
		})
	}

	column := opts.column
	if column == "" {
		column = comp.Config.Corpus.TextColumn
	}
	summary, err := predictFile(ctx, svc, opts.input, column, opts.output, stdout, comp.Stopwords, opts.top)
	if err != nil {
		return err
	}
	// The labeled CSV owns stdout when no -output is given.
	if opts.output == "" {
		return writeJSON(stderr, summary)
	}
	return writeJSON(stdout, summary)
}

// openService loads the bundle from -db, -bundle, or the stores named in
// the config, in that order.
func openService(ctx context.Context, opts options, comp *config.Components) (*inference.Service, error) {
	svcOpts := []inference.Option{inference.WithNormalizer(comp.Normalizer)}

	switch {
	case opts.dbPath != "":
		if _, err := os.Stat(opts.dbPath); err != nil {
			return nil, fmt.Errorf("bundle db: %w", err)
		}
		db, err := sqlite.Open(ctx, opts.dbPath)
		if err != nil {
			return nil, err
		}
		// The bundle is fully decoded by Open.
		defer db.Close()
		return inference.Open(ctx, db, opts.runID, svcOpts...)

	case opts.bundleDir != "":
		if _, err := os.Stat(filepath.Join(opts.bundleDir, bundle.VectorizerFileName)); err == nil {
			b, err := bundle.ReadDir(opts.bundleDir)
			if err != nil {
				return nil, err
			}
			if opts.runID != "" && opts.runID != b.RunID {
				return nil, fmt.Errorf("%s holds run %s, not %s", opts.bundleDir, b.RunID, opts.runID)
			}
			return inference.New(b, svcOpts...)
		}
		st, err := bundle.NewDirStore(opts.bundleDir)
		if err != nil {
			return nil, err
		}
		return inference.Open(ctx, st, opts.runID, svcOpts...)

	case comp.Store != nil:
		return inference.Open(ctx, comp.Store, opts.runID, svcOpts...)
	}
	return nil, errors.New("no bundle source: pass -bundle or -db, or set bundle.dir or bundle.sqlite in the config")
}

func predictFile(ctx context.Context, svc *inference.Service, input, column, output string, stdout io.Writer, stopwords []string, top int) (*batchSummary, error) {
	table, err := corpus.Load(input)
	if err != nil {
		return nil, fmt.Errorf("load input: %w", err)
	}
	labeled, predErr := svc.PredictTable(ctx, table, column)
	if labeled == nil {
		return nil, predErr
	}

	// Interrupted batches still write every row; unfinished rows stay unlabeled.
	if output == "" {
		if err := labeled.WriteCSV(stdout); err != nil {
			return nil, err
		}
	} else if err := writeCSVFile(output, labeled); err != nil {
		return nil, err
	}
	if predErr != nil {
		return nil, fmt.Errorf("prediction interrupted, partial output written: %w", predErr)
	}

	return &batchSummary{
		RunID:   svc.RunID(),
		Output:  output,
		Summary: summarize(labeled, stopwords, top),
	}, nil
}

func summarize(t *corpus.Table, stopwords []string, top int) analytics.Summary {
	cleanCol := t.Column(inference.CleanColumn)
	labelCol := t.Column(inference.LabelColumn)

	a := analytics.NewAnalyzerWith(stopwords, analytics.DefaultMinTermLen)
	for r := range t.Rows {
		raw, _ := t.Cell(r, labelCol)
		l, err := label.Parse(raw)
		if err != nil {
			continue
		}
		clean, _ := t.Cell(r, cleanCol)
		a.Process(clean, l)
	}
	return a.Snapshot().Summarize(top)
}

func writeCSVFile(path string, t *corpus.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return t.WriteCSV(f)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

