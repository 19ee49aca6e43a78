package vendors

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
)

// CSVSource reads the vendor dataset from a CSV file with a header row.
type CSVSource struct {
	Path string
}

func (s CSVSource) Load(ctx context.Context) (*Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDatasetUnavailable, s.Path, err)
	}

	rows, err := rowsFromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDatasetUnavailable, s.Path, err)
	}
	return NewDataset(s.Path, rows), nil
}
