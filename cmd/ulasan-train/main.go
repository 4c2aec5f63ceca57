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
	"syscall"

	"github.com/cognicore/ulasan/internal/logging"
	"github.com/cognicore/ulasan/pkg/ulasan/config"
	"github.com/cognicore/ulasan/pkg/ulasan/corpus"
	"github.com/cognicore/ulasan/pkg/ulasan/eval"
	"github.com/cognicore/ulasan/pkg/ulasan/train"
)

type options struct {
	input       string
	configPath  string
	envFile     string
	outDir      string
	dbPath      string
	textColumn  string
	labelColumn string
	format      string
}

type trainReport struct {
	RunID          string      `json:"run_id"`
	Examples       int         `json:"examples"`
	TrainSize      int         `json:"train_size"`
	TestSize       int         `json:"test_size"`
	VocabularySize int         `json:"vocabulary_size"`
	DurationMS     int64       `json:"duration_ms"`
	Report         eval.Report `json:"report"`
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "input", "", "Labeled CSV or JSONL corpus (required)")
	flag.StringVar(&opts.configPath, "config", "", "Optional: YAML training config")
	flag.StringVar(&opts.envFile, "env", ".env", "Optional: dotenv file with ULASAN_* settings")
	flag.StringVar(&opts.outDir, "out", "", "Directory to store the bundle in")
	flag.StringVar(&opts.dbPath, "db", "", "SQLite file to store the bundle and report in")
	flag.StringVar(&opts.textColumn, "text-column", "", "Review text column (default from config: clean_text)")
	flag.StringVar(&opts.labelColumn, "label-column", "", "Label column (default from config: label)")
	flag.StringVar(&opts.format, "format", "json", "Report format: json or text")
	flag.Parse()

	logging.Init()

	if opts.input == "" {
		fmt.Fprintln(os.Stderr, "--input required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	if opts.format != "json" && opts.format != "text" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	loader := config.Loader{
		ConfigPath: opts.configPath,
		EnvFile:    opts.envFile,
		Override:   opts.apply,
	}
	comp, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	defer comp.Close()

	if comp.Store == nil {
		slog.Warn("no -out or -db given, the bundle will not be saved")
	}

	table, err := corpus.Load(opts.input)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	slog.Info("corpus loaded", "path", opts.input, "rows", table.Len())

	p := &train.Pipeline{
		Config:     comp.Config,
		Normalizer: comp.Normalizer,
		Store:      comp.Store,
	}
	res, err := p.Run(ctx, table)
	if err != nil {
		return err
	}
	return writeReport(stdout, opts.format, res)
}

func (o options) apply(c *config.Config) {
	if o.outDir != "" {
		c.Bundle.Dir = o.outDir
	}
	if o.dbPath != "" {
		c.Bundle.SQLite = o.dbPath
	}
	if o.textColumn != "" {
		c.Corpus.TextColumn = o.textColumn
	}
	if o.labelColumn != "" {
		c.Corpus.LabelColumn = o.labelColumn
	}
}

func writeReport(w io.Writer, format string, res *train.Result) error {
	if res == nil || res.Bundle == nil {
		return errors.New("empty training result")
	}
	if format == "text" {
		_, err := fmt.Fprintf(w, "run %s\n\n%s", res.Bundle.RunID, res.Report)
		return err
	}

	out, err := json.MarshalIndent(trainReport{
		RunID:          res.Bundle.RunID,
		Examples:       res.Examples,
		TrainSize:      len(res.Split.Train),
		TestSize:       len(res.Split.Test),
		VocabularySize: res.Bundle.Vectorizer.Dimension(),
		DurationMS:     res.Duration.Milliseconds(),
		Report:         res.Report,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
