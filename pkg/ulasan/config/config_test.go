package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/ulasan/pkg/ulasan/bundle"
	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
	"github.com/cognicore/ulasan/pkg/ulasan/tfidf"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultMatchesReferenceRun(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	want := tfidf.Options{MinDF: 3, MaxDF: 0.9, NGramMin: 1, NGramMax: 2}
	if got := cfg.VectorizerOptions(); got != want {
		t.Errorf("VectorizerOptions = %+v, want %+v", got, want)
	}
	if cfg.Classifier.Alpha != 1 || cfg.Split.Ratio != 0.8 || cfg.Split.Seed != 42 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Corpus.TextColumn != "clean_text" || cfg.Corpus.LabelColumn != "label" {
		t.Errorf("unexpected columns: %+v", cfg.Corpus)
	}
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
vectorizer:
  min_df: 1
  ngram_range: [1, 3]
split:
  seed: 7
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Vectorizer.MinDF != 1 || cfg.Vectorizer.MaxDF != 0.9 {
		t.Errorf("vectorizer = %+v", cfg.Vectorizer)
	}
	if got := cfg.VectorizerOptions(); got.NGramMin != 1 || got.NGramMax != 3 {
		t.Errorf("ngram = (%d,%d), want (1,3)", got.NGramMin, got.NGramMax)
	}
	if cfg.Split.Seed != 7 || cfg.Split.Ratio != 0.8 {
		t.Errorf("split = %+v", cfg.Split)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if cfg.Vectorizer.MinDF != Default().Vectorizer.MinDF {
		t.Error("empty document should yield defaults")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("vectoriser:\n  min_df: 2\n"))
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"min_df zero":      func(c *Config) { c.Vectorizer.MinDF = 0 },
		"max_df above one": func(c *Config) { c.Vectorizer.MaxDF = 1.5 },
		"ngram one value":  func(c *Config) { c.Vectorizer.NGramRange = []int{1} },
		"ngram reversed":   func(c *Config) { c.Vectorizer.NGramRange = []int{2, 1} },
		"alpha zero":       func(c *Config) { c.Classifier.Alpha = 0 },
		"ratio one":        func(c *Config) { c.Split.Ratio = 1 },
		"no text column":   func(c *Config) { c.Corpus.TextColumn = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"ULASAN_MIN_DF":       "2",
		"ULASAN_ALPHA":        "0.5",
		"ULASAN_SEED":         "9",
		"ULASAN_STRIP_HTML":   "true",
		"ULASAN_TEXT_COLUMN":  "review",
		"ULASAN_BUNDLE_DIR":   "/tmp/bundles",
		"ULASAN_LABEL_COLUMN": "",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Vectorizer.MinDF != 2 || cfg.Classifier.Alpha != 0.5 || cfg.Split.Seed != 9 {
		t.Errorf("numeric overrides not applied: %+v", cfg)
	}
	if !cfg.Corpus.StripHTML || cfg.Corpus.TextColumn != "review" || cfg.Bundle.Dir != "/tmp/bundles" {
		t.Errorf("string overrides not applied: %+v", cfg)
	}
	if cfg.Corpus.LabelColumn != "label" {
		t.Errorf("empty variable should not override, got %q", cfg.Corpus.LabelColumn)
	}

	bad := Default()
	err = bad.ApplyEnv(envMap(map[string]string{"ULASAN_MAX_DF": "lots"}))
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoaderDefaults(t *testing.T) {
	l := Loader{Lookup: envMap(nil)}
	comp, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}
	defer comp.Close()

	if comp.Normalizer == nil {
		t.Error("Should have default normalizer")
	}
	if comp.Store != nil {
		t.Errorf("No store configured, got %T", comp.Store)
	}
	if len(comp.Stopwords) == 0 {
		t.Error("Should fall back to default stopwords")
	}
}

func TestLoaderBuildsComponents(t *testing.T) {
	dir := t.TempDir()
	slangPath := filepath.Join(dir, "slang.yaml")
	os.WriteFile(slangPath, []byte("slang:\n  - canonical: tidak\n    variants: [gk, ga]\n"), 0o644)

	cfgPath := filepath.Join(dir, "train.yaml")
	os.WriteFile(cfgPath, []byte("slang_path: "+slangPath+"\nbundle:\n  dir: "+filepath.Join(dir, "bundles")+"\n"), 0o644)

	l := Loader{
		ConfigPath: cfgPath,
		EnvFile:    filepath.Join(dir, "missing.env"),
		Lookup:     envMap(map[string]string{"ULASAN_BUNDLE_DB": filepath.Join(dir, "bundles.db")}),
	}
	comp, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer comp.Close()

	if got := comp.Normalizer.Clean("GK bagus"); got != "tidak bagus" {
		t.Errorf("Clean = %q, want %q", got, "tidak bagus")
	}
	multi, ok := comp.Store.(bundle.MultiStore)
	if !ok || len(multi) != 2 {
		t.Fatalf("Store = %T, want MultiStore of 2", comp.Store)
	}
}

func TestLoaderInvalidSlang(t *testing.T) {
	l := Loader{
		Lookup: envMap(map[string]string{"ULASAN_SLANG_PATH": filepath.Join(t.TempDir(), "none.yaml")}),
	}
	if _, err := l.Load(context.Background()); err == nil {
		t.Error("missing slang table should fail")
	}
}

func TestLoaderOverrideWinsOverEnv(t *testing.T) {
	l := Loader{
		Lookup:   envMap(map[string]string{"ULASAN_TEXT_COLUMN": "from_env"}),
		Override: func(c *Config) { c.Corpus.TextColumn = "from_flag" },
	}
	comp, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer comp.Close()
	if comp.Config.Corpus.TextColumn != "from_flag" {
		t.Errorf("TextColumn = %q, want from_flag", comp.Config.Corpus.TextColumn)
	}
}

func TestLoadStoplist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stoplist.yaml")
	content := `terms:
  - yang
  - dan
  - sih
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	l := Loader{Lookup: envMap(map[string]string{"ULASAN_STOPLIST_PATH": path})}
	comp, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer comp.Close()
	if len(comp.Stopwords) != 3 || comp.Stopwords[2] != "sih" {
		t.Errorf("Stopwords = %v", comp.Stopwords)
	}

	os.WriteFile(path, []byte("terms: [unclosed"), 0644)
	if _, err := LoadStoplist(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
