package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadCSVTable reads a CSV export into a Table. The first record is the
// header; short records are padded so ragged exports do not fail the
// whole file.
func LoadCSVTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	table, err := ReadCSVTable(name, f)
	if err != nil {
		return Table{}, fmt.Errorf("read table %s: %w", path, err)
	}
	return table, nil
}

// ReadCSVTable parses CSV content from r into a named Table.
func ReadCSVTable(name string, r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Table{}, fmt.Errorf("%w: empty table %q", ErrDataFormat, name)
	}
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrDataFormat, err)
	}

	table := Table{Name: name, Columns: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("%w: %v", ErrDataFormat, err)
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
