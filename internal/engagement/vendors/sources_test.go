package vendors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"engagement-letters/internal/common/config"
	"engagement-letters/internal/common/database"
	"engagement-letters/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestCSVSource_Load(t *testing.T) {
	path := writeFile(t, "vendors.csv", "first,LAST,Company,Email,Type\n"+
		"Mark,Prottas,CBRE,mark@cbre.com,App\n"+
		"\n"+
		"Darrin,Domingo,EnviroCo,darrin@enviro.co,Env\n")

	ds, err := CSVSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, Row{First: "Mark", Last: "Prottas", Company: "CBRE", Email: "mark@cbre.com", Type: "App"}, ds.Rows()[0])
	assert.Equal(t, path, ds.Source())
}

func TestCSVSource_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := CSVSource{Path: filepath.Join(t.TempDir(), "nope.csv")}.Load(context.Background())
		assert.ErrorIs(t, err, ErrDatasetUnavailable)
	})

	t.Run("missing required column", func(t *testing.T) {
		path := writeFile(t, "vendors.csv", "First,Last,Company,Type\nA,B,C,App\n")
		_, err := CSVSource{Path: path}.Load(context.Background())
		assert.ErrorIs(t, err, ErrDatasetUnavailable)
		assert.ErrorIs(t, err, ErrMissingColumn)
		assert.Contains(t, err.Error(), "Email")
	})
}

func TestXLSXSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendors.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"First", "Last", "Company", "Email", "Type", "Region"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Mark", "Prottas", "CBRE", "mark@cbre.com", "App", "Bay Area"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Darrin", "Domingo", "EnviroCo", "darrin@enviro.co", "Env"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := XLSXSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "Bay Area", ds.Rows()[0].Region)
	assert.Equal(t, "", ds.Rows()[1].Region)
}

func TestSQLSource_SQLite(t *testing.T) {
	client, err := database.NewSQLite(filepath.Join(t.TempDir(), "vendors.db"))
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	client.DB.MustExecContext(ctx, `CREATE TABLE vendors (first TEXT, last TEXT, company TEXT, email TEXT, type TEXT, region TEXT)`)
	client.DB.MustExecContext(ctx, `INSERT INTO vendors VALUES ('Mark','Prottas','CBRE','mark@cbre.com','App','Bay Area')`)
	client.DB.MustExecContext(ctx, `INSERT INTO vendors VALUES ('Darrin','Domingo','EnviroCo','darrin@enviro.co','Env',NULL)`)

	ds, err := SQLSource{DB: client.DB, Table: "vendors"}.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "", ds.Rows()[1].Region)

	r := NewResolver(ds, nil)
	v, err := r.Resolve(Query{VendorType: "ENV", FirstName: "Darrin"})
	require.NoError(t, err)
	assert.Equal(t, "N/A", v.Region)
}

func TestSQLSource_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT first, last, company, email, type, COALESCE\(region, ''\) AS region FROM public\.vendors`).
		WillReturnRows(sqlmock.NewRows([]string{"first", "last", "company", "email", "type", "region"}).
			AddRow("Mark", "Prottas", "CBRE", "mark@cbre.com", "App", "Bay Area"))

	client := database.NewSQLFromDB(db, database.DriverPostgres)
	ds, err := SQLSource{DB: client.DB, Table: "public.vendors"}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
	assert.Equal(t, "postgres:public.vendors", ds.Source())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSource_Errors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	client := database.NewSQLFromDB(db, database.DriverPostgres)

	_, err = SQLSource{DB: client.DB, Table: "vendors; DROP TABLE x"}.Load(context.Background())
	assert.ErrorIs(t, err, ErrDatasetUnavailable)

	mock.ExpectQuery(`SELECT .* FROM vendors`).WillReturnError(errors.New("connection reset"))
	_, err = SQLSource{DB: client.DB, Table: "vendors"}.Load(context.Background())
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestElasticsearchSource_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasPrefix(r.URL.Path, "/vendors/_search") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "50", r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_source":{"First":"Mark","Last":"Prottas","Company":"CBRE","Email":"mark@cbre.com","Type":"App"}},
			{"_source":{"First":"Darrin","Last":"Domingo","Company":"EnviroCo","Email":"darrin@enviro.co","Type":"Env","Region":"South"}}
		]}}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	ds, err := ElasticsearchSource{Client: es, Index: "vendors", Size: 50}.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "South", ds.Rows()[1].Region)

	_, err = ElasticsearchSource{Client: es, Index: "missing"}.Load(context.Background())
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
}

type countingSource struct {
	calls int
	ds    *Dataset
	err   error
}

func (c *countingSource) Load(context.Context) (*Dataset, error) {
	c.calls++
	return c.ds, c.err
}

func TestCachedSource_MissThenHit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	inner := &countingSource{ds: testDataset()}
	src := CachedSource{Inner: inner, Client: rdb, Key: "vendors", TTL: time.Minute, Logger: logger.NewTestLogger(t)}

	first, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.True(t, mr.Exists("vendors"))
	assert.Equal(t, time.Minute, mr.TTL("vendors"))

	second, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first.Rows(), second.Rows())
	assert.Equal(t, "test", second.Source())
}

func TestCachedSource_CorruptEntryReloads(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("vendors", "{not json"))
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	inner := &countingSource{ds: testDataset()}
	src := CachedSource{Inner: inner, Client: rdb, Key: "vendors", TTL: time.Minute}

	ds, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 5, ds.Len())

	raw, err := mr.Get("vendors")
	require.NoError(t, err)
	var snap snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Len(t, snap.Rows, 5)
}

func TestCachedSource_RedisDownFallsBack(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("vendors").SetErr(errors.New("connection refused"))

	inner := &countingSource{ds: testDataset()}
	src := CachedSource{Inner: inner, Client: rdb, Key: "vendors", TTL: time.Minute, Logger: logger.NewTestLogger(t)}

	ds, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSource_InnerErrorPropagates(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	inner := &countingSource{err: ErrDatasetUnavailable}
	_, err := CachedSource{Inner: inner, Client: rdb, Key: "vendors", TTL: time.Minute}.Load(context.Background())
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
	assert.False(t, mr.Exists("vendors"))
}

func TestNewSource_CSVWithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	path := writeFile(t, "vendors.csv", "First,Last,Company,Email,Type\nMark,Prottas,CBRE,mark@cbre.com,App\n")

	cfg := &config.Config{}
	cfg.Vendors.Source = config.VendorSourceCSV
	cfg.Vendors.Path = path
	cfg.Vendors.Cache.Enabled = true
	cfg.Vendors.Cache.Key = "letters:vendors"
	cfg.Vendors.Cache.TTL = 60
	cfg.Database.Redis.Address = mr.Addr()

	src, closeFn, err := NewSource(cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer closeFn()

	_, ok := src.(CachedSource)
	require.True(t, ok)

	ds := LoadDataset(context.Background(), src, logger.NewTestLogger(t))
	require.NotNil(t, ds)
	assert.Equal(t, 1, ds.Len())
	assert.True(t, mr.Exists("letters:vendors"))
}

func TestLoadDataset_UnavailableReturnsNil(t *testing.T) {
	ds := LoadDataset(context.Background(), CSVSource{Path: "/does/not/exist.csv"}, logger.NewTestLogger(t))
	assert.Nil(t, ds)
}

func TestSourceForPath(t *testing.T) {
	src, closeFn, err := SourceForPath("Vendors.XLSX")
	require.NoError(t, err)
	assert.IsType(t, XLSXSource{}, src)
	require.NoError(t, closeFn())

	src, closeFn, err = SourceForPath("vendors.csv")
	require.NoError(t, err)
	assert.IsType(t, CSVSource{}, src)
	require.NoError(t, closeFn())

	src, closeFn, err = SourceForPath(filepath.Join(t.TempDir(), "vendors.db"))
	require.NoError(t, err)
	assert.IsType(t, SQLSource{}, src)
	require.NoError(t, closeFn())
}
