// Package vendors loads the vendor dataset and resolves a vendor from a
// partial name.
package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDatasetUnavailable = errors.New("DATASET_UNAVAILABLE")
	ErrMissingColumn      = errors.New("MISSING_COLUMN")
)

// Row is one vendor as stored in the dataset. Region is optional.
type Row struct {
	First   string `db:"first" json:"First"`
	Last    string `db:"last" json:"Last"`
	Company string `db:"company" json:"Company"`
	Email   string `db:"email" json:"Email"`
	Type    string `db:"type" json:"Type"`
	Region  string `db:"region" json:"Region,omitempty"`
}

// Dataset is an immutable snapshot of vendor rows.
type Dataset struct {
	rows   []Row
	source string
}

// NewDataset copies rows into a new snapshot.
func NewDataset(source string, rows []Row) *Dataset {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return &Dataset{rows: cp, source: source}
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// Rows returns a copy of the rows.
func (d *Dataset) Rows() []Row {
	if d == nil {
		return nil
	}
	cp := make([]Row, len(d.rows))
	copy(cp, d.rows)
	return cp
}

// Source describes where the snapshot came from.
func (d *Dataset) Source() string {
	if d == nil {
		return ""
	}
	return d.source
}

// Source loads a dataset snapshot.
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
}

// Column names, matched case-insensitively.
const (
	ColFirst   = "First"
	ColLast    = "Last"
	ColCompany = "Company"
	ColEmail   = "Email"
	ColType    = "Type"
	ColRegion  = "Region"
)

var requiredColumns = []string{ColFirst, ColLast, ColCompany, ColEmail, ColType}

// columnIndex maps a header row to column positions.
type columnIndex map[string]int

func indexHeader(header []string) (columnIndex, error) {
	idx := columnIndex{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			return nil, errMissingColumn(col)
		}
	}
	return idx, nil
}

func errMissingColumn(col string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumn, col)
}

func (idx columnIndex) get(record []string, col string) string {
	i, ok := idx[strings.ToLower(col)]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (idx columnIndex) row(record []string) Row {
	return Row{
		First:   idx.get(record, ColFirst),
		Last:    idx.get(record, ColLast),
		Company: idx.get(record, ColCompany),
		Email:   idx.get(record, ColEmail),
		Type:    idx.get(record, ColType),
		Region:  idx.get(record, ColRegion),
	}
}

// rowsFromRecords turns a header row plus data rows into Rows, skipping
// entirely blank lines.
func rowsFromRecords(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, errMissingColumn(ColFirst)
	}
	idx, err := indexHeader(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		rows = append(rows, idx.row(rec))
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
