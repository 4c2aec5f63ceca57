// Package corpus loads review tables, validates labeled corpora and splits
// them for training.
package corpus

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

// Table is an arbitrary-width text table with a header row. Rows may be
// shorter than the header; missing cells and cells marked null read as
// absent.
type Table struct {
	Header []string
	Rows   [][]string

	nulls map[cell]struct{}
}

type cell struct{ r, c int }

// MarkNull records that a cell held a non-text value.
func (t *Table) MarkNull(r, c int) {
	if t.nulls == nil {
		t.nulls = make(map[cell]struct{})
	}
	t.nulls[cell{r, c}] = struct{}{}
}

// Column returns the index of a header name, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Cell returns row r, column c and whether the cell holds text.
func (t *Table) Cell(r, c int) (string, bool) {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return "", false
	}
	if _, null := t.nulls[cell{r, c}]; null {
		return "", false
	}
	return t.Rows[r][c], true
}

// Value returns the cell as an untyped value: its text, or nil when absent.
func (t *Table) Value(r, c int) any {
	s, ok := t.Cell(r, c)
	if !ok {
		return nil
	}
	return s
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// ReadCSV parses a CSV stream whose first record is the header. Records may
// have varying widths.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV, header row required", internalerr.ErrDataFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read CSV header: %v", internalerr.ErrDataFormat, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read CSV: %v", internalerr.ErrDataFormat, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// LoadCSV reads a CSV file.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteCSV writes the header and rows.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// LoadJSONL reads one JSON object per line. The header is the sorted union
// of keys. String values are kept; numbers and objects are rendered as JSON
// text but marked null, and JSON nulls are marked null, so a non-text review
// field is treated as absent downstream. A malformed line fails the whole
// load with ErrDataFormat naming the line.
func LoadJSONL(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var objects []map[string]json.RawMessage
	keys := make(map[string]struct{})
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", internalerr.ErrDataFormat, path, i+1, err)
		}
		for k := range obj {
			keys[k] = struct{}{}
		}
		objects = append(objects, obj)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: no valid records found in %s", internalerr.ErrDataFormat, path)
	}

	t := &Table{Header: make([]string, 0, len(keys))}
	for k := range keys {
		t.Header = append(t.Header, k)
	}
	sort.Strings(t.Header)

	for r, obj := range objects {
		row := make([]string, len(t.Header))
		for c, k := range t.Header {
			raw, ok := obj[k]
			if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				t.MarkNull(r, c)
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				row[c] = string(raw)
				t.MarkNull(r, c)
				continue
			}
			row[c] = s
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Load picks the reader from the file extension (.jsonl/.ndjson or CSV).
func Load(path string) (*Table, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".jsonl") || strings.HasSuffix(lower, ".ndjson") {
		return LoadJSONL(path)
	}
	return LoadCSV(path)
}
