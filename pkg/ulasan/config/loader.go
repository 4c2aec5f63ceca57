package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/subosito/gotenv"

	"github.com/cognicore/ulasan/pkg/ulasan/analytics"
	"github.com/cognicore/ulasan/pkg/ulasan/bundle"
	"github.com/cognicore/ulasan/pkg/ulasan/bundle/sqlite"
	"github.com/cognicore/ulasan/pkg/ulasan/normalize"
)

// Loader reads the configuration and constructs components
type Loader struct {
	ConfigPath string
	EnvFile    string
	// Lookup overrides os.LookupEnv, mainly for tests.
	Lookup func(string) (string, bool)
	// Override runs after environment overrides, for command-line flags.
	Override func(*Config)
}

// Components holds everything a command needs after loading
type Components struct {
	Config     Config
	Normalizer *normalize.Normalizer
	Stopwords  []string
	Store      bundle.Store
}

// Close releases the bundle stores.
func (c *Components) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// LoadEnv loads a dotenv file without overriding variables already set.
// A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no env file, using process environment", "path", path)
			return nil
		}
		return fmt.Errorf("load env %s: %w", path, err)
	}
	return nil
}

// Load resolves env, file and overrides, validates, then builds components
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	if err := LoadEnv(l.EnvFile); err != nil {
		return nil, err
	}

	cfg := Default()
	if l.ConfigPath != "" {
		var err error
		if cfg, err = Load(l.ConfigPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(l.Lookup); err != nil {
		return nil, err
	}
	if l.Override != nil {
		l.Override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comp := &Components{Config: cfg}

	if cfg.SlangPath != "" {
		slang, err := normalize.LoadSlangTable(cfg.SlangPath)
		if err != nil {
			return nil, fmt.Errorf("load slang table: %w", err)
		}
		comp.Normalizer = normalize.New(slang)
	} else {
		comp.Normalizer = normalize.Default()
	}

	if cfg.StoplistPath != "" {
		sl, err := LoadStoplist(cfg.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stopwords = sl.Terms
	} else {
		comp.Stopwords = analytics.DefaultStopwords
	}

	store, err := OpenStores(ctx, cfg.Bundle)
	if err != nil {
		return nil, err
	}
	comp.Store = store
	return comp, nil
}

// OpenStores opens the configured bundle stores. It returns nil when none
// is configured.
func OpenStores(ctx context.Context, bc BundleConfig) (bundle.Store, error) {
	var stores bundle.MultiStore
	if bc.Dir != "" {
		ds, err := bundle.NewDirStore(bc.Dir)
		if err != nil {
			return nil, err
		}
		stores = append(stores, ds)
	}
	if bc.SQLite != "" {
		db, err := sqlite.Open(ctx, bc.SQLite)
		if err != nil {
			stores.Close()
			return nil, fmt.Errorf("open bundle db %s: %w", bc.SQLite, err)
		}
		stores = append(stores, db)
	}

	switch len(stores) {
	case 0:
		return nil, nil
	case 1:
		return stores[0], nil
	}
	return stores, nil
}
