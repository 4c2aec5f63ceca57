package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/ulasan/pkg/ulasan/bundle"
	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

// writeCorpus writes a labeled CSV with perClass raw reviews per label.
func writeCorpus(t *testing.T, dir string, perClass int) string {
	t.Helper()
	words := map[string][]string{
		"POSITIVE": {"Bagusss", "mantul", "puas", "recomended"},
		"NEUTRAL":  {"biasa", "lumayan", "standar"},
		"NEGATIVE": {"rusak", "kecewa", "jelek", "lemot"},
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"review", "label"})
	for _, l := range []string{"POSITIVE", "NEUTRAL", "NEGATIVE"} {
		ws := words[l]
		for i := 0; i < perClass; i++ {
			text := fmt.Sprintf("Barangnya %s, %s!!", ws[i%len(ws)], ws[(i+1)%len(ws)])
			w.Write([]string{text, l})
		}
	}
	w.Flush()

	path := filepath.Join(dir, "train.csv")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunWritesReportAndBundle(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		input:      writeCorpus(t, dir, 30),
		outDir:     filepath.Join(dir, "bundles"),
		dbPath:     filepath.Join(dir, "bundles.db"),
		textColumn: "review",
		format:     "json",
	}

	var stdout bytes.Buffer
	if err := run(context.Background(), opts, &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}

	var rep trainReport
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, stdout.String())
	}
	if rep.Examples != 90 || rep.TrainSize != 72 || rep.TestSize != 18 {
		t.Errorf("sizes = %d/%d/%d, want 90/72/18", rep.Examples, rep.TrainSize, rep.TestSize)
	}
	if rep.Report.Accuracy <= 0 || rep.VocabularySize == 0 {
		t.Errorf("unexpected report %+v", rep)
	}
	if !strings.Contains(stdout.String(), `"confusion_matrix"`) {
		t.Error("report should carry the confusion matrix")
	}

	st, _ := bundle.NewDirStore(opts.outDir)
	b, err := st.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("bundle not saved: %v", err)
	}
	if b.RunID != rep.RunID {
		t.Errorf("saved run %s, reported %s", b.RunID, rep.RunID)
	}
	if _, err := os.Stat(opts.dbPath); err != nil {
		t.Errorf("sqlite store not created: %v", err)
	}
}

func TestRunTextFormat(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	err := run(context.Background(), options{input: writeCorpus(t, dir, 20), textColumn: "review", format: "text"}, &stdout)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"Accuracy", "POSITIVE", "macro avg"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("text report missing %q:\n%s", want, stdout.String())
		}
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeCorpus(t, dir, 20)

	err := run(context.Background(), options{input: input, format: "json"}, &bytes.Buffer{})
	if !errors.Is(err, internalerr.ErrDataFormat) {
		t.Errorf("default text column is absent: expected ErrDataFormat, got %v", err)
	}

	err = run(context.Background(), options{input: input, textColumn: "review", format: "xml"}, &bytes.Buffer{})
	if err == nil {
		t.Error("unknown format should fail")
	}

	err = run(context.Background(), options{input: filepath.Join(dir, "none.csv"), format: "json"}, &bytes.Buffer{})
	if err == nil {
		t.Error("missing input should fail")
	}

	broken := filepath.Join(dir, "broken.jsonl")
	jsonl := "{\"clean_text\":\"bagus\",\"label\":\"POS\"}\n{\"clean_text\":\"rusak\",\"label\":\"NEG\"\n"
	if err := os.WriteFile(broken, []byte(jsonl), 0o644); err != nil {
		t.Fatal(err)
	}
	err = run(context.Background(), options{input: broken, format: "json"}, &bytes.Buffer{})
	if !errors.Is(err, internalerr.ErrDataFormat) {
		t.Errorf("malformed JSONL row: expected ErrDataFormat, got %v", err)
	}
}
