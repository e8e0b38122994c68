package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kisanmitra/agri-advisor/internal/logger"
)

const priceCSV = `State,District,Market,Commodity,Variety,Grade,Arrival_Date,Min_x0020_Price,Max_x0020_Price,Modal_x0020_Price
Punjab,Ludhiana,Khanna,Wheat,Dara,FAQ,01/06/2025,"2,200",2400,2300
Punjab,Ludhiana,Khanna,Wheat,Dara,FAQ,02/06/2025,2250,2450,2350
Haryana,Karnal,Karnal,Paddy(Dhan)(Common),Common,FAQ,02/06/2025,2100,2300,2200
Punjab,Ludhiana,Jagraon,Wheat,Other,FAQ,31/05/2025,abc,2400,2300
`

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "agri.db"), 3, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Min_x0020_Price":           "min_price",
		"Arrival_Date":              "arrival_date",
		"Modal Price (Rs./Quintal)": "modal_price",
		" District Name ":           "district_name",
		"N (kg/ha)":                 "n",
		"pH":                        "ph",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestParsePriceRows_RequiresColumns(t *testing.T) {
	_, _, err := ParsePriceRows([]string{"State", "Market"}, nil)
	assert.ErrorContains(t, err, "commodity")
}

func TestIngestPricesCSV(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.IngestPrices(ctx, writeFile(t, "prices.csv", priceCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := s.LatestPrices(ctx, "wheat", "ludhiana", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-06-02", rows[0].ArrivalDate)
	assert.Equal(t, 2350.0, rows[0].ModalPrice)
	assert.Equal(t, 2200.0, rows[1].MinPrice)

	// A second load replaces the table rather than appending.
	n, err = s.IngestPrices(ctx, writeFile(t, "prices.csv", priceCSV))
	require.NoError(t, err)
	res, err := s.Query(ctx, "SELECT COUNT(*) FROM mandi_prices", 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"3"}}, res.Rows)
	assert.Equal(t, 3, n)
}

func TestLoadPriceFileXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Commodity", "Market", "Modal Price (Rs./Quintal)", "Arrival_Date"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Onion", "Lasalgaon", "1400", "2025-06-01"}))
	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, skipped, err := LoadPriceFile(path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, PriceRecord{Commodity: "Onion", Market: "Lasalgaon", ModalPrice: 1400, ArrivalDate: "2025-06-01"}, records[0])
}

func TestLatestPrices_SQLMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewSQLiteStoreFromDB(db, 3, nil)

	cols := []string{"state", "district", "market", "commodity", "variety", "grade", "arrival_date", "min_price", "max_price", "modal_price"}
	mock.ExpectQuery("SELECT state, district, market").
		WithArgs("%Onion%", "%Nashik%", "%Nashik%", "%Nashik%", 5).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("Maharashtra", nil, "Lasalgaon", "Onion", "Red", nil, "2025-06-01", 1200.0, 1600.0, 1400.0))

	rows, err := s.LatestPrices(context.Background(), "Onion", "Nashik", 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].District)
	assert.Equal(t, 1400.0, rows[0].ModalPrice)

	mock.ExpectQuery("SELECT state").WillReturnError(errors.New("disk I/O error"))
	_, err = s.LatestPrices(context.Background(), "Onion", "", 0)
	assert.ErrorContains(t, err, "failed to query prices")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckReadOnly(t *testing.T) {
	ok := []string{
		"SELECT * FROM mandi_prices;",
		"  select modal_price from mandi_prices where commodity like '%wheat%'  ",
		"WITH t AS (SELECT 1 AS x) SELECT x FROM t",
		"SELECT created_at FROM t -- latest\n",
		"SELECT replace(commodity, '(', ' ') FROM mandi_prices",
	}
	for _, q := range ok {
		_, err := CheckReadOnly(q)
		assert.NoError(t, err, q)
	}

	bad := []string{
		"",
		"DELETE FROM mandi_prices",
		"SELECT 1; DROP TABLE mandi_prices",
		"UPDATE mandi_prices SET modal_price = 0",
		"SELECT * FROM mandi_prices WHERE 1 = 1 /* */ ; ATTACH DATABASE 'x' AS y",
		"PRAGMA table_info(mandi_prices)",
		"WITH x AS (SELECT 1) REPLACE INTO mandi_prices (commodity) SELECT 'x' FROM x",
		"WITH x AS (SELECT 1) INSERT OR REPLACE INTO mandi_prices (commodity) SELECT 'x' FROM x",
	}
	for _, q := range bad {
		_, err := CheckReadOnly(q)
		assert.ErrorIs(t, err, ErrNotReadOnly, q)
	}

	q, err := CheckReadOnly("SELECT 1;")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", q)
}

func TestQueryAndIntrospection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.IngestPrices(ctx, writeFile(t, "prices.csv", priceCSV))
	require.NoError(t, err)

	res, err := s.Query(ctx, "SELECT commodity, modal_price FROM mandi_prices ORDER BY modal_price DESC", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"commodity", "modal_price"}, res.Columns)
	assert.Equal(t, [][]string{{"Wheat", "2350"}, {"Wheat", "2300"}}, res.Rows)
	assert.True(t, res.Truncated)

	_, err = s.Query(ctx, "DELETE FROM mandi_prices", 0)
	assert.ErrorIs(t, err, ErrNotReadOnly)

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mandi_prices", "policy_chunks"}, tables)

	ddl, err := s.Schema(ctx, "mandi_prices")
	require.NoError(t, err)
	assert.Contains(t, ddl, "modal_price")

	_, err = s.Schema(ctx, "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestQueryTables_EnforcesAllowlist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.IngestPrices(ctx, writeFile(t, "prices.csv", priceCSV))
	require.NoError(t, err)
	_, err = s.IngestSoil(ctx, writeFile(t, "soil.csv", "District,pH\nLudhiana,7.2\n"))
	require.NoError(t, err)
	only := []string{PriceTable}

	res, err := s.QueryTables(ctx, "SELECT market, replace(commodity, 'Wheat', 'Gehun') FROM mandi_prices WHERE market = 'Khanna' ORDER BY arrival_date", 0, only)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Khanna", "Gehun"}, {"Khanna", "Gehun"}}, res.Rows)

	res, err = s.QueryTables(ctx, "WITH recent AS (SELECT * FROM mandi_prices WHERE arrival_date >= '2025-06-02') SELECT COUNT(*) FROM recent", 0, only)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2"}}, res.Rows)

	denied := []string{
		"SELECT * FROM mandi_prices, soil_health",
		"SELECT COUNT(*) FROM soil_health",
		"SELECT name FROM sqlite_master",
		"SELECT market FROM mandi_prices WHERE district IN (SELECT district FROM soil_health)",
	}
	for _, q := range denied {
		_, err := s.QueryTables(ctx, q, 0, only)
		assert.ErrorIs(t, err, ErrTableNotAllowed, q)
	}

	// The connection goes back to the pool without the restriction.
	res, err = s.Query(ctx, "SELECT district FROM soil_health", 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Ludhiana"}}, res.Rows)
}

func TestIngestSoil(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	csvText := "Sample ID,District,pH,N (kg/ha),Organic Carbon\nS1,Ludhiana,7.2,280,0.5\n,,,,\nS2,Patiala,8.1,210\n"

	n, err := s.IngestSoil(ctx, writeFile(t, "soil.csv", csvText))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := s.Query(ctx, "SELECT district, ph, organic_carbon FROM soil_health ORDER BY id", 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Ludhiana", "7.2", "0.5"}, {"Patiala", "8.1", ""}}, res.Rows)

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "soil_health")
}

func TestSoilColumns(t *testing.T) {
	assert.Equal(t, []string{"column_1", "ph", "ph_2", "column_4"}, soilColumns([]string{"id", "pH", "pH", ""}))
}

func TestPolicySections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sections := []*PolicySection{
		{Source: "pmkisan.txt", Position: 0, Content: "PM-KISAN pays 6000 rupees a year", Embedding: []float32{1, 0, 0}},
		{Source: "pmfby.txt", Position: 0, Content: "Crop insurance premium is 2 percent for kharif", Embedding: []float32{0, 1, 0}},
		{Source: "pmkisan.txt", Position: 1, Content: "Installments are paid every four months", Embedding: []float32{0.9, 0.1, 0}},
	}
	for _, sec := range sections {
		require.NoError(t, s.InsertPolicySection(ctx, sec))
		assert.NotZero(t, sec.ID)
	}

	n, err := s.CountPolicySections(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	matches, err := s.SearchPolicySections(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, sections[0].ID, matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-4)
	assert.Equal(t, sections[2].ID, matches[1].ID)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)

	_, err = s.SearchPolicySections(ctx, []float32{1, 0}, 2)
	assert.Error(t, err)
	assert.Error(t, s.InsertPolicySection(ctx, &PolicySection{Source: "x", Content: "y", Embedding: []float32{1}}))

	require.NoError(t, s.ClearPolicySections(ctx))
	n, err = s.CountPolicySections(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChunkText(t *testing.T) {
	assert.Equal(t, []string{"one two three four"}, ChunkText("one two\n\nthree   four\n", 100, 10))
	assert.Equal(t, []string{"aaa bbb", "ccc ddd"}, ChunkText("aaa bbb\n\nccc ddd", 8, 0))
	assert.Equal(t, []string{"aaa bbb", "bbb ccc", "ccc ddd"}, ChunkText("aaa bbb\n\nccc ddd", 8, 3))
	assert.Empty(t, ChunkText(" \n\n ", 100, 0))

	for _, c := range ChunkText(strings.Repeat("किसान योजना ", 200), 120, 20) {
		assert.LessOrEqual(t, len([]rune(c)), 120)
	}
}

func TestIngestPolicies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	a := filepath.Join(dir, "pmkisan.md")
	b := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(a, []byte("PM kisan gives income support.\n\nThis paragraph will fail to embed."), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("Soil health cards are free."), 0o644))

	embed := func(_ context.Context, text string) ([]float32, error) {
		switch {
		case strings.Contains(text, "fail"):
			return nil, errors.New("quota exceeded")
		case strings.Contains(strings.ToLower(text), "kisan"):
			return []float32{1, 0, 0}, nil
		default:
			return []float32{0, 1, 0}, nil
		}
	}

	n, err := s.IngestPolicies(ctx, []string{a, b}, embed, IngestOptions{ChunkSize: 40, Interval: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	matches, err := s.SearchPolicySections(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "pmkisan.md", matches[0].Source)
	assert.Equal(t, "PM kisan gives income support.", matches[0].Content)
}

func TestIngestPolicies_Cancelled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := writeFile(t, "p.txt", "some policy text")

	_, err := s.IngestPolicies(ctx, []string{path}, func(context.Context, string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}, IngestOptions{Interval: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestPolicies_KeepsIndexWhenNothingEmbeds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	path := writeFile(t, "pmkisan.txt", "PM kisan gives income support.\n\nInstallments arrive every four months.")
	opts := IngestOptions{ChunkSize: 40, Interval: time.Millisecond}

	n, err := s.IngestPolicies(ctx, []string{path}, func(context.Context, string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}, opts)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = s.IngestPolicies(ctx, []string{path}, func(context.Context, string) ([]float32, error) {
		return nil, errors.New("quota exceeded")
	}, opts)
	assert.ErrorIs(t, err, ErrNothingEmbedded)
	assert.Zero(t, n)

	n, err = s.IngestPolicies(ctx, []string{path}, func(context.Context, string) ([]float32, error) {
		return []float32{1, 0}, nil
	}, opts)
	assert.ErrorIs(t, err, ErrNothingEmbedded)
	assert.Zero(t, n)

	count, err := s.CountPolicySections(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	matches, err := s.SearchPolicySections(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestReplacePolicySections_RejectsBadBatchAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertPolicySection(ctx, &PolicySection{Source: "a.txt", Content: "old", Embedding: []float32{1, 0, 0}}))

	err := s.ReplacePolicySections(ctx, []*PolicySection{
		{Source: "b.txt", Content: "new", Embedding: []float32{0, 1, 0}},
		{Source: "b.txt", Position: 1, Content: "short", Embedding: []float32{1}},
	})
	assert.Error(t, err)

	matches, err := s.SearchPolicySections(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "old", matches[0].Content)
}
