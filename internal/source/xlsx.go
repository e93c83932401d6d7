package source

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads the table from the first sheet of a local spreadsheet,
// the shape the upstream system's manual export produces. The first row is
// the header row; every following row is data.
type XLSXSource struct {
	path string
}

// NewXLSXSource creates a source for the given .xlsx file path.
func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{path: path}
}

// Name implements the Source interface.
func (s *XLSXSource) Name() string {
	return s.path
}

// Fetch implements the Source interface. All cells come back as strings;
// the schema layer handles numeric parsing.
func (s *XLSXSource) Fetch(ctx context.Context) (*RawTable, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, &FetchError{Source: s.path, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &FetchError{Source: s.path, Err: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &FetchError{Source: s.path, Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return nil, &FetchError{Source: s.path, Err: fmt.Errorf("sheet %q is empty", sheet)}
	}

	table := &RawTable{Headers: rows[0]}
	for _, row := range rows[1:] {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		table.Rows = append(table.Rows, cells)
	}

	return table, nil
}

// Ensure XLSXSource implements the Source interface.
var _ Source = (*XLSXSource)(nil)
