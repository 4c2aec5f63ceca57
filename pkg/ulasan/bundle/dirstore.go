package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/ulasan/pkg/ulasan/eval"
	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

// File names inside a bundle directory.
const (
	VectorizerFileName = "vectorizer.json"
	ClassifierFileName = "classifier.json"
	ReportFileName     = "report.json"
	latestFileName     = "LATEST"
)

// DirStore keeps each bundle in <Root>/<run id>/ as two JSON files and
// records the last saved run in <Root>/LATEST.
type DirStore struct {
	Root string
}

// NewDirStore creates the root directory if needed.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create bundle root %s: %w", root, err)
	}
	return &DirStore{Root: root}, nil
}

// Close implements Store.
func (s *DirStore) Close() error { return nil }

// Save writes both halves, then points LATEST at the run.
func (s *DirStore) Save(ctx context.Context, b *Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(s.Root, b.RunID)
	if err := WriteDir(dir, b); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.Root, latestFileName), []byte(b.RunID+"\n"))
}

// Load reads a run, or the latest run when runID is empty.
func (s *DirStore) Load(ctx context.Context, runID string) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		data, err := os.ReadFile(filepath.Join(s.Root, latestFileName))
		if err != nil {
			return nil, fmt.Errorf("%w: no latest bundle under %s: %v", internalerr.ErrBundleLoad, s.Root, err)
		}
		runID = strings.TrimSpace(string(data))
	}
	if runID == "" || strings.ContainsAny(runID, `/\`) {
		return nil, fmt.Errorf("%w: invalid run id %q", internalerr.ErrBundleLoad, runID)
	}

	b, err := ReadDir(filepath.Join(s.Root, runID))
	if err != nil {
		return nil, err
	}
	if b.RunID != runID {
		return nil, fmt.Errorf("%w: directory %s holds run %s", internalerr.ErrBundleLoad, runID, b.RunID)
	}
	return b, nil
}

// SaveReport writes report.json next to a saved run.
func (s *DirStore) SaveReport(ctx context.Context, runID string, r eval.Report, params any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(s.Root, runID)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%w: run %s: %v", internalerr.ErrNotFound, runID, err)
	}
	data, err := json.MarshalIndent(struct {
		RunID  string      `json:"run_id"`
		Report eval.Report `json:"report"`
		Params any         `json:"params,omitempty"`
	}{runID, r, params}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, ReportFileName), data)
}

// WriteDir writes the two bundle files into dir.
func WriteDir(dir string, b *Bundle) error {
	vec, clf, err := Marshal(b)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir %s: %w", dir, err)
	}
	if err := writeFileAtomic(filepath.Join(dir, VectorizerFileName), vec); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, ClassifierFileName), clf)
}

// ReadDir loads the bundle stored in dir. Both files must be present.
func ReadDir(dir string) (*Bundle, error) {
	vec, err := os.ReadFile(filepath.Join(dir, VectorizerFileName))
	if err != nil {
		return nil, missing(dir, VectorizerFileName, err)
	}
	clf, err := os.ReadFile(filepath.Join(dir, ClassifierFileName))
	if err != nil {
		return nil, missing(dir, ClassifierFileName, err)
	}
	b, err := Unmarshal(vec, clf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return b, nil
}

func missing(dir, name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s missing in %s", internalerr.ErrBundleLoad, name, dir)
	}
	return fmt.Errorf("%w: read %s: %v", internalerr.ErrBundleLoad, filepath.Join(dir, name), err)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
