package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/texture.report/internal/fsutil"
)

// ErrEmptyTable is returned when a CSV has no header row.
var ErrEmptyTable = errors.New("tabular: no header row")

// ReadCSV parses a CSV with a header row into a Table. Empty cells at the
// end of a column shorten it; an empty cell followed by values reads as
// NaN.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("tabular: read header: %w", err)
	}

	cols := make([][]float64, len(header))
	last := make([]int, len(header))
	for row := 1; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tabular: read row %d: %w", row, err)
		}
		for i := range header {
			cell := ""
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			if cell == "" {
				cols[i] = append(cols[i], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("tabular: row %d column %q: %w", row, header[i], err)
			}
			cols[i] = append(cols[i], v)
			last[i] = len(cols[i])
		}
	}

	t := NewTable()
	for i, name := range header {
		t.Set(strings.TrimSpace(name), cols[i][:last[i]])
	}
	return t, nil
}

// WriteCSV writes t with a header row. Short columns are padded with empty
// cells; NaN is written as an empty cell.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	names := t.Names()
	if err := cw.Write(names); err != nil {
		return err
	}
	record := make([]string, len(names))
	for row := 0; row < t.Rows(); row++ {
		for i, name := range names {
			col := t.values[name]
			if row >= len(col) || math.IsNaN(col[row]) {
				record[i] = ""
				continue
			}
			record[i] = strconv.FormatFloat(col[row], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFile reads a CSV table from fsys.
func ReadFile(fsys fsutil.FileSystem, path string) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteFile writes t as CSV to path on fsys.
func WriteFile(fsys fsutil.FileSystem, path string, t *Table) error {
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
