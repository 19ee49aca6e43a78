package vendors

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLSource reads the vendor dataset from a table with columns first, last,
// company, email, type and an optional region.
type SQLSource struct {
	DB    *sqlx.DB
	Table string
}

func (s SQLSource) Load(ctx context.Context) (*Dataset, error) {
	if !tableName.MatchString(s.Table) {
		return nil, fmt.Errorf("%w: invalid table name %q", ErrDatasetUnavailable, s.Table)
	}

	query := fmt.Sprintf(
		"SELECT first, last, company, email, type, COALESCE(region, '') AS region FROM %s", s.Table)

	var rows []Row
	if err := s.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrDatasetUnavailable, s.Table, err)
	}
	return NewDataset(s.DB.DriverName()+":"+s.Table, rows), nil
}
