package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	headerEscape = regexp.MustCompile(`_x[0-9a-fA-F]{4}_`)
	headerJunk   = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeHeader turns spreadsheet headers such as "Min_x0020_Price" or
// "Modal Price (Rs./Quintal)" into snake_case column names.
func NormalizeHeader(h string) string {
	h = headerEscape.ReplaceAllString(h, "_")
	if i := strings.IndexAny(h, "(["); i > 0 {
		h = h[:i]
	}
	h = headerJunk.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), "_")
	return strings.Trim(h, "_")
}

var priceColumnAliases = map[string]string{
	"state":         "state",
	"district":      "district",
	"district_name": "district",
	"market":        "market",
	"market_name":   "market",
	"mandi":         "market",
	"commodity":     "commodity",
	"crop":          "commodity",
	"variety":       "variety",
	"grade":         "grade",
	"arrival_date":  "arrival_date",
	"date":          "arrival_date",
	"price_date":    "arrival_date",
	"min_price":     "min_price",
	"minimum_price": "min_price",
	"max_price":     "max_price",
	"maximum_price": "max_price",
	"modal_price":   "modal_price",
	"price":         "modal_price",
}

var arrivalLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "2/1/2006", "02-Jan-2006", "2006/01/02"}

func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range arrivalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func parsePrice(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// ParsePriceRows maps a header plus data rows onto price records. Rows with an
// unparseable price or no commodity are skipped and counted.
func ParsePriceRows(header []string, rows [][]string) ([]PriceRecord, int, error) {
	idx := make(map[string]int)
	for i, h := range header {
		if col, ok := priceColumnAliases[NormalizeHeader(h)]; ok {
			if _, seen := idx[col]; !seen {
				idx[col] = i
			}
		}
	}
	for _, required := range []string{"commodity", "modal_price"} {
		if _, ok := idx[required]; !ok {
			return nil, 0, fmt.Errorf("price file has no %s column (header: %s)", required, strings.Join(header, ", "))
		}
	}

	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []PriceRecord
	skipped := 0
	for _, row := range rows {
		rec := PriceRecord{
			State:       get(row, "state"),
			District:    get(row, "district"),
			Market:      get(row, "market"),
			Commodity:   get(row, "commodity"),
			Variety:     get(row, "variety"),
			Grade:       get(row, "grade"),
			ArrivalDate: normalizeDate(get(row, "arrival_date")),
		}
		var errMin, errMax, errModal error
		rec.MinPrice, errMin = parsePrice(get(row, "min_price"))
		rec.MaxPrice, errMax = parsePrice(get(row, "max_price"))
		rec.ModalPrice, errModal = parsePrice(get(row, "modal_price"))
		if rec.Commodity == "" || errMin != nil || errMax != nil || errModal != nil {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, skipped, nil
}

// LoadPriceFile reads a CSV or XLSX price sheet. For workbooks the first sheet is used.
func LoadPriceFile(path string) ([]PriceRecord, int, error) {
	var table [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to open workbook %s: %w", path, err)
		}
		defer f.Close()
		table, err = f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read rows from %s: %w", path, err)
		}
	default:
		file, err := os.Open(path)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to open price file %s: %w", path, err)
		}
		defer file.Close()
		table, err = readCSV(file)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read csv %s: %w", path, err)
		}
	}
	if len(table) == 0 {
		return nil, 0, fmt.Errorf("price file %s is empty", path)
	}
	return ParsePriceRows(table[0], table[1:])
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

// ReplacePrices swaps the whole price table for records in one transaction.
func (s *SQLiteStore) ReplacePrices(ctx context.Context, records []PriceRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM mandi_prices"); err != nil {
		return 0, fmt.Errorf("failed to clear prices: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO mandi_prices
		(state, district, market, commodity, variety, grade, arrival_date, min_price, max_price, modal_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare price insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, r.State, r.District, r.Market, r.Commodity, r.Variety, r.Grade,
			r.ArrivalDate, r.MinPrice, r.MaxPrice, r.ModalPrice); err != nil {
			return 0, fmt.Errorf("failed to insert price row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prices: %w", err)
	}
	return len(records), nil
}

// IngestPrices loads a price sheet into mandi_prices, replacing earlier data.
func (s *SQLiteStore) IngestPrices(ctx context.Context, path string) (int, error) {
	records, skipped, err := LoadPriceFile(path)
	if err != nil {
		return 0, err
	}
	if skipped > 0 {
		s.log.Warn("skipped malformed price rows", map[string]interface{}{"file": path, "skipped": skipped})
	}
	n, err := s.ReplacePrices(ctx, records)
	if err != nil {
		return 0, err
	}
	s.log.Info("price table loaded", map[string]interface{}{"file": path, "rows": n})
	return n, nil
}

// LatestPrices returns the most recent rows for a commodity, optionally narrowed
// to a state, district or market. Matching is case-insensitive and partial.
func (s *SQLiteStore) LatestPrices(ctx context.Context, commodity, location string, limit int) ([]PriceRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT state, district, market, commodity, variety, grade, arrival_date, min_price, max_price, modal_price
		FROM mandi_prices WHERE commodity LIKE ?`
	args := []interface{}{"%" + commodity + "%"}
	if location != "" {
		query += " AND (state LIKE ? OR district LIKE ? OR market LIKE ?)"
		like := "%" + location + "%"
		args = append(args, like, like, like)
	}
	query += " ORDER BY arrival_date DESC, modal_price DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var out []PriceRecord
	for rows.Next() {
		var r PriceRecord
		var state, district, market, variety, grade, date nullString
		if err := rows.Scan(&state, &district, &market, &r.Commodity, &variety, &grade, &date,
			&r.MinPrice, &r.MaxPrice, &r.ModalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		r.State, r.District, r.Market = string(state), string(district), string(market)
		r.Variety, r.Grade, r.ArrivalDate = string(variety), string(grade), string(date)
		out = append(out, r)
	}
	return out, rows.Err()
}

// nullString scans NULL as the empty string.
type nullString string

func (n *nullString) Scan(v interface{}) error {
	switch x := v.(type) {
	case nil:
		*n = ""
	case []byte:
		*n = nullString(x)
	case string:
		*n = nullString(x)
	default:
		*n = nullString(fmt.Sprint(x))
	}
	return nil
}
