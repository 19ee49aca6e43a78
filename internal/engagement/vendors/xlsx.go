package vendors

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads the vendor dataset from a workbook. Sheet defaults to the
// first sheet.
type XLSXSource struct {
	Path  string
	Sheet string
}

func (s XLSXSource) Load(ctx context.Context) (*Dataset, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDatasetUnavailable, s.Path, err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s has no sheets", ErrDatasetUnavailable, s.Path)
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrDatasetUnavailable, sheet, err)
	}

	rows, err := rowsFromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDatasetUnavailable, s.Path, err)
	}
	return NewDataset(s.Path+"#"+sheet, rows), nil
}
