// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/financeflow/internal/formats"
)

// sheetName is the name of the single sheet written to workbooks.
const sheetName = "Sheet1"

// errLegacyXLS explains why binary BIFF workbooks are rejected.
var errLegacyXLS = errors.New("legacy binary .xls workbooks are not supported; save as .xlsx")

// decodeXLSX reads the first sheet of a workbook. Other sheets are ignored.
// Cell values come back as their formatted text.
func decodeXLSX(name string, content []byte) (*Table, error) {
	if formats.IsOLE2(content) {
		return nil, &ParseError{Name: name, Err: errLegacyXLS}
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("opening workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Name: name, Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("reading sheet %q: %w", sheets[0], err)}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("sheet %q has no rows", sheets[0])}
	}

	// GetRows trims trailing empty cells and rows; the recorded used range
	// restores them.
	dim, err := f.GetSheetDimension(sheets[0])
	if err != nil {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("reading sheet %q dimension: %w", sheets[0], err)}
	}
	return padToDimension(newTable(rows), dim), nil
}

// padToDimension widens t to cover the range reference dim ("A1:C4" or a
// single cell). An unparseable or smaller range leaves t unchanged.
func padToDimension(t *Table, dim string) *Table {
	if dim == "" {
		return t
	}
	last := dim
	if i := strings.LastIndexByte(dim, ':'); i >= 0 {
		last = dim[i+1:]
	}
	cols, rows, err := excelize.CellNameToCoordinates(last)
	if err != nil {
		return t
	}
	if w := t.Width(); w > cols {
		cols = w
	}
	for i, r := range t.Rows {
		if len(r) < cols {
			padded := make([]string, cols)
			copy(padded, r)
			t.Rows[i] = padded
		}
	}
	for len(t.Rows) < rows {
		t.Rows = append(t.Rows, make([]string, cols))
	}
	return t
}

// encodeXLSX writes the table into a one-sheet workbook. Every cell is
// stored as a string so text survives a round trip unchanged.
func encodeXLSX(t *Table) ([]byte, error) {
	if len(t.Rows) == 0 {
		return nil, &EncodeError{Format: "xlsx", Err: errors.New("table has no rows")}
	}
	if len(t.Rows) > excelize.TotalRows {
		return nil, &EncodeError{Format: "xlsx", Err: fmt.Errorf("%d rows exceed the sheet limit of %d", len(t.Rows), excelize.TotalRows)}
	}
	if t.Width() > excelize.MaxColumns {
		return nil, &EncodeError{Format: "xlsx", Err: fmt.Errorf("%d columns exceed the sheet limit of %d", t.Width(), excelize.MaxColumns)}
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			if utf8.RuneCountInString(v) > excelize.TotalCellChars {
				return nil, &EncodeError{Format: "xlsx", Err: fmt.Errorf("cell at row %d column %d exceeds %d characters", i+1, j+1, excelize.TotalCellChars)}
			}
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, &EncodeError{Format: "xlsx", Err: err}
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return nil, &EncodeError{Format: "xlsx", Err: fmt.Errorf("writing row %d: %w", i+1, err)}
		}
	}

	last, err := excelize.CoordinatesToCellName(t.Width(), len(t.Rows))
	if err != nil {
		return nil, &EncodeError{Format: "xlsx", Err: err}
	}
	if err := f.SetSheetDimension(sheetName, "A1:"+last); err != nil {
		return nil, &EncodeError{Format: "xlsx", Err: fmt.Errorf("setting used range: %w", err)}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &EncodeError{Format: "xlsx", Err: err}
	}
	return buf.Bytes(), nil
}
