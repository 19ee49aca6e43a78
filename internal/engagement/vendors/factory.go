package vendors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"engagement-letters/internal/common/config"
	"engagement-letters/internal/common/database"
	"engagement-letters/internal/common/logger"
)

// NewSource builds the configured dataset source, wrapped in the redis cache
// when enabled. The returned closer releases any connections it opened.
func NewSource(cfg *config.Config, log logger.Logger) (Source, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	var src Source
	switch cfg.Vendors.Source {
	case config.VendorSourceCSV:
		src = CSVSource{Path: cfg.Vendors.Path}
	case config.VendorSourceXLSX:
		src = XLSXSource{Path: cfg.Vendors.Path}
	case config.VendorSourceSQL:
		client, err := database.OpenSQL(cfg.Vendors.SQL.Driver, cfg.Database, cfg.Vendors.Path)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, client.Close)
		src = SQLSource{DB: client.DB, Table: cfg.Vendors.SQL.Table}
	case config.VendorSourceElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		src = ElasticsearchSource{Client: es, Index: cfg.Vendors.Elasticsearch.Index, Size: cfg.Vendors.Elasticsearch.Size}
	default:
		return nil, nil, fmt.Errorf("unknown vendor source %q", cfg.Vendors.Source)
	}

	if cfg.Vendors.Cache.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		closers = append(closers, rdb.Close)
		src = CachedSource{
			Inner:  src,
			Client: rdb.Client,
			Key:    cfg.Vendors.Cache.Key,
			TTL:    time.Duration(cfg.Vendors.Cache.TTL) * time.Second,
			Logger: log,
		}
	}

	return src, closeAll, nil
}

// SourceForPath picks a file source from the extension: .xlsx and .xlsm
// open as workbooks, .db/.sqlite as SQLite, anything else as CSV.
func SourceForPath(path string) (Source, func() error, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xlsm"):
		return XLSXSource{Path: path}, noClose, nil
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		client, err := database.NewSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return SQLSource{DB: client.DB, Table: "vendors"}, client.Close, nil
	default:
		return CSVSource{Path: path}, noClose, nil
	}
}

func noClose() error { return nil }

// LoadDataset loads a snapshot, logging rather than failing when the source
// is unavailable: callers fall back to manual entry with a nil dataset.
func LoadDataset(ctx context.Context, src Source, log logger.Logger) *Dataset {
	ds, err := src.Load(ctx)
	if err != nil {
		log.Warn("Vendor dataset unavailable; lookups will fall back to manual entry", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	log.Info("Vendor dataset loaded", map[string]interface{}{"source": ds.Source(), "rows": ds.Len()})
	return ds
}
