// Package config loads training and inference settings from YAML with
// ULASAN_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/ulasan/pkg/ulasan/bayes"
	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
	"github.com/cognicore/ulasan/pkg/ulasan/tfidf"
)

// Config holds every tunable of a training run.
type Config struct {
	Vectorizer   VectorizerConfig `yaml:"vectorizer" json:"vectorizer"`
	Classifier   ClassifierConfig `yaml:"classifier" json:"classifier"`
	Split        SplitConfig      `yaml:"split" json:"split"`
	Corpus       CorpusConfig     `yaml:"corpus" json:"corpus"`
	SlangPath    string           `yaml:"slang_path" json:"slang_path,omitempty"`
	StoplistPath string           `yaml:"stoplist_path" json:"stoplist_path,omitempty"` // words left out of prediction summaries
	Bundle       BundleConfig     `yaml:"bundle" json:"bundle"`
}

// VectorizerConfig configures TF-IDF fitting.
type VectorizerConfig struct {
	MinDF      int     `yaml:"min_df" json:"min_df"`
	MaxDF      float64 `yaml:"max_df" json:"max_df"`
	NGramRange []int   `yaml:"ngram_range" json:"ngram_range"`
}

// ClassifierConfig configures Naive Bayes smoothing.
type ClassifierConfig struct {
	Alpha float64 `yaml:"alpha" json:"alpha"`
}

// SplitConfig configures the train/test split. Ratio is the train fraction.
type SplitConfig struct {
	Ratio float64 `yaml:"ratio" json:"ratio"`
	Seed  int64   `yaml:"seed" json:"seed"`
}

// CorpusConfig names the input columns.
type CorpusConfig struct {
	TextColumn  string `yaml:"text_column" json:"text_column"`
	LabelColumn string `yaml:"label_column" json:"label_column"`
	StripHTML   bool   `yaml:"strip_html" json:"strip_html"`
}

// BundleConfig says where bundles are persisted. Both may be set.
type BundleConfig struct {
	Dir    string `yaml:"dir" json:"dir,omitempty"`
	SQLite string `yaml:"sqlite" json:"sqlite,omitempty"`
}

// Default returns the reference training setup.
func Default() Config {
	opts := tfidf.DefaultOptions()
	return Config{
		Vectorizer: VectorizerConfig{
			MinDF:      opts.MinDF,
			MaxDF:      opts.MaxDF,
			NGramRange: []int{opts.NGramMin, opts.NGramMax},
		},
		Classifier: ClassifierConfig{Alpha: bayes.DefaultAlpha},
		Split:      SplitConfig{Ratio: 0.8, Seed: 42},
		Corpus: CorpusConfig{
			TextColumn:  "clean_text",
			LabelColumn: "label",
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Stoplist is the stopword file format.
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return &sl, nil
}

// VectorizerOptions converts the vectorizer section.
func (c Config) VectorizerOptions() tfidf.Options {
	opts := tfidf.Options{MinDF: c.Vectorizer.MinDF, MaxDF: c.Vectorizer.MaxDF}
	if len(c.Vectorizer.NGramRange) == 2 {
		opts.NGramMin = c.Vectorizer.NGramRange[0]
		opts.NGramMax = c.Vectorizer.NGramRange[1]
	}
	return opts
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if n := len(c.Vectorizer.NGramRange); n != 2 {
		return fmt.Errorf("%w: ngram_range needs 2 values, got %d", internalerr.ErrInvalidConfig, n)
	}
	if err := c.VectorizerOptions().Validate(); err != nil {
		return err
	}
	if c.Classifier.Alpha <= 0 {
		return fmt.Errorf("%w: alpha must be positive, got %g", internalerr.ErrInvalidConfig, c.Classifier.Alpha)
	}
	if c.Split.Ratio <= 0 || c.Split.Ratio >= 1 {
		return fmt.Errorf("%w: split ratio must be in (0,1), got %g", internalerr.ErrInvalidConfig, c.Split.Ratio)
	}
	if c.Corpus.TextColumn == "" || c.Corpus.LabelColumn == "" {
		return fmt.Errorf("%w: text_column and label_column are required", internalerr.ErrInvalidConfig)
	}
	return nil
}

// ApplyEnv overrides settings from ULASAN_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, parse func(string) error) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		if err := parse(v); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q: %v", internalerr.ErrInvalidConfig, key, v, err))
		}
	}

	num("ULASAN_MIN_DF", func(v string) (err error) {
		c.Vectorizer.MinDF, err = strconv.Atoi(v)
		return
	})
	num("ULASAN_MAX_DF", func(v string) (err error) {
		c.Vectorizer.MaxDF, err = strconv.ParseFloat(v, 64)
		return
	})
	num("ULASAN_ALPHA", func(v string) (err error) {
		c.Classifier.Alpha, err = strconv.ParseFloat(v, 64)
		return
	})
	num("ULASAN_SPLIT_RATIO", func(v string) (err error) {
		c.Split.Ratio, err = strconv.ParseFloat(v, 64)
		return
	})
	num("ULASAN_SEED", func(v string) (err error) {
		c.Split.Seed, err = strconv.ParseInt(v, 10, 64)
		return
	})
	num("ULASAN_STRIP_HTML", func(v string) (err error) {
		c.Corpus.StripHTML, err = strconv.ParseBool(v)
		return
	})
	str("ULASAN_TEXT_COLUMN", &c.Corpus.TextColumn)
	str("ULASAN_LABEL_COLUMN", &c.Corpus.LabelColumn)
	str("ULASAN_SLANG_PATH", &c.SlangPath)
	str("ULASAN_STOPLIST_PATH", &c.StoplistPath)
	str("ULASAN_BUNDLE_DIR", &c.Bundle.Dir)
	str("ULASAN_BUNDLE_DB", &c.Bundle.SQLite)

	return errors.Join(errs...)
}
