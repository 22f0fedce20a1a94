package export

import "fmt"

// Column describes one exported field. Width is a PDF weight; zero means an
// even share of the page.
type Column struct {
	Header string
	Width  float64
}

// Table is the tabular content rendered by the exporters. Each row must have
// one cell per column.
type Table struct {
	Title    string
	Subtitle string
	Columns  []Column
	Rows     [][]string
}

// Headers returns the column headers in order.
func (t Table) Headers() []string {
	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = col.Header
	}
	return headers
}

func (t Table) validate(format string) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("%s requires at least one column", format)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%s row %d has %d cells, want %d", format, i, len(row), len(t.Columns))
		}
	}
	return nil
}
