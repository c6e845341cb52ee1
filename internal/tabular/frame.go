package tabular

import (
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

// Frame is an in-memory batch of rows under the session schema.
type Frame struct {
	Rows    []Row
	BatchID string
	Source  string

	columns []string
}

func (s *Session) newFrame(rows []Row, batchID, source string) *Frame {
	return &Frame{Rows: rows, BatchID: batchID, Source: source, columns: s.columns}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Columns returns the column names in schema order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Table renders the first n rows as strings, header first. Nulls print as
// "null". n <= 0 renders every row.
func (f *Frame) Table(n int) ([][]string, error) {
	if n <= 0 || n > len(f.Rows) {
		n = len(f.Rows)
	}

	out := make([][]string, 0, n+1)
	out = append(out, f.Columns())
	for _, row := range f.Rows[:n] {
		values := make(map[string]any, len(f.columns))
		if err := mapstructure.Decode(row, &values); err != nil {
			return nil, err
		}
		line := make([]string, len(f.columns))
		for i, col := range f.columns {
			line[i] = formatCell(values[col])
		}
		out = append(out, line)
	}
	return out, nil
}

func formatCell(v any) string {
	switch c := v.(type) {
	case *string:
		if c != nil {
			return *c
		}
	case *float64:
		if c != nil {
			return strconv.FormatFloat(*c, 'f', -1, 64)
		}
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	}
	return "null"
}
