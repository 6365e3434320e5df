// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

// Table is the canonical row/column form every tabular conversion passes
// through. Rows keep source order. When Header is set the first row holds
// column names.
type Table struct {
	Header bool
	Rows   [][]string
}

// newTable builds a header-first table from parsed rows and pads every row
// to the widest one so the table is rectangular.
func newTable(rows [][]string) *Table {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	for i, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		}
	}
	return &Table{Header: len(rows) > 0, Rows: rows}
}

// Width returns the number of columns.
func (t *Table) Width() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// Columns returns the header row, or nil when the table has none.
func (t *Table) Columns() []string {
	if !t.Header || len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// Records returns the data rows, skipping the header.
func (t *Table) Records() [][]string {
	if t.Header && len(t.Rows) > 0 {
		return t.Rows[1:]
	}
	return t.Rows
}
