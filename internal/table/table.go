package table

import (
	"fmt"

	"github.com/tcossen/data-transform/internal/domain"
)

// Table is a shaped view of CSV data: Rows[r][i] is the value of Headers[i]
// in the row named r.
type Table struct {
	Headers []string
	Rows    map[string][]string
}

// Value returns the cell at rowName/columnName. ok is false when either the
// column or the row is unknown, or the row is shorter than the column index.
func (t *Table) Value(rowName, columnName string) (value string, ok bool) {
	idx := -1
	for i, h := range t.Headers {
		if h == columnName {
			idx = i
			break
		}
	}
	if idx == -1 {
		return "", false
	}

	row, found := t.Rows[rowName]
	if !found || idx >= len(row) {
		return "", false
	}
	return row[idx], true
}

// Shape builds a Table from records, naming each row by its rowKey column.
// A later record with the same row name replaces the earlier one.
func Shape(headers []string, records []domain.Record, rowKey string) (*Table, error) {
	found := false
	for _, h := range headers {
		if h == rowKey {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("row key column %q not in headers", rowKey)
	}

	t := &Table{
		Headers: headers,
		Rows:    make(map[string][]string, len(records)),
	}
	for _, rec := range records {
		name, ok := rec[rowKey]
		if !ok {
			continue
		}
		values := make([]string, len(headers))
		for i, h := range headers {
			values[i] = rec[h]
		}
		t.Rows[name] = values
	}
	return t, nil
}

// MergeHeaders returns the union of the sheets' headers in first-seen order.
func MergeHeaders(sheets []Sheet) []string {
	seen := make(map[string]bool)
	var headers []string
	for _, s := range sheets {
		for _, h := range s.Headers {
			if !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
		}
	}
	return headers
}
