// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/pdiddy/financeflow/internal/formats"
)

// decodeCSV parses RFC 4180 content into a table. Rows may have different
// lengths; the table pads them. Blank lines are skipped.
func decodeCSV(name string, content []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(formats.StripBOM(content)))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &ParseError{Name: name, Line: pe.Line, Err: pe.Err}
		}
		return nil, &ParseError{Name: name, Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Name: name, Err: errors.New("document has no rows")}
	}
	return newTable(rows), nil
}

// encodeCSV renders the table as CSV, quoting fields where needed.
func encodeCSV(t *Table) ([]byte, error) {
	if len(t.Rows) == 0 {
		return nil, &EncodeError{Format: "csv", Err: errors.New("table has no rows")}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, &EncodeError{Format: "csv", Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, &EncodeError{Format: "csv", Err: err}
	}
	return buf.Bytes(), nil
}
