package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kisanmitra/agri-advisor/internal/logger"
	"github.com/kisanmitra/agri-advisor/internal/store"
)

// PriceStore is the read side of the mandi price table.
type PriceStore interface {
	QueryTables(ctx context.Context, query string, limit int, tables []string) (*store.QueryResult, error)
	LatestPrices(ctx context.Context, commodity, location string, limit int) ([]store.PriceRecord, error)
}

// PriceLookup is the outcome of a price question.
type PriceLookup struct {
	SQL       string             `json:"sql,omitempty"`
	Generated bool               `json:"generated"`
	Result    *store.QueryResult `json:"result"`
}

// Empty reports whether the lookup found no rows.
func (p *PriceLookup) Empty() bool { return p == nil || p.Result == nil || len(p.Result.Rows) == 0 }

type PriceService struct {
	store   PriceStore
	llm     Completer
	log     logger.Logger
	maxRows int
}

// NewPriceService builds the responder. llm may be nil, in which case only the
// entity-based query is used.
func NewPriceService(s PriceStore, llm Completer, log logger.Logger) *PriceService {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &PriceService{store: s, llm: llm, log: log, maxRows: 20}
}

const sqlSystemPrompt = `You translate farmers' questions about mandi (market) prices into a single SQLite SELECT statement.
Rules:
- Query only the table described below. Never modify data.
- Match commodity, state, district and market with LIKE '%...%' so partial and case-insensitive names match.
- Prefer the latest arrival_date and order results usefully. Always add LIMIT 20 or less.
- Return only the SQL statement, with no explanation and no code fences.`

// Lookup answers a price question. crop and location are the extracted entities
// used when the generated SQL is unavailable, unsafe or fails.
func (s *PriceService) Lookup(ctx context.Context, question, crop, location string) (*PriceLookup, error) {
	if s.llm != nil {
		lookup, err := s.generated(ctx, question)
		if err == nil {
			return lookup, nil
		}
		s.log.Warn("generated price query failed, using entity query", map[string]interface{}{"error": err.Error()})
	}
	return s.fallback(ctx, crop, location)
}

func (s *PriceService) generated(ctx context.Context, question string) (*PriceLookup, error) {
	prompt := fmt.Sprintf("Table:\n%s\n\nQuestion: %s\nSQL:", store.PriceTableSchema, question)
	raw, err := s.llm.Complete(ctx, sqlSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL: %w", err)
	}
	query, err := ValidatePriceSQL(extractSQL(raw))
	if err != nil {
		return nil, err
	}
	res, err := s.store.QueryTables(ctx, query, s.maxRows, []string{store.PriceTable})
	if err != nil {
		return nil, fmt.Errorf("failed to run generated SQL: %w", err)
	}
	return &PriceLookup{SQL: query, Generated: true, Result: res}, nil
}

func (s *PriceService) fallback(ctx context.Context, crop, location string) (*PriceLookup, error) {
	records, err := s.store.LatestPrices(ctx, crop, location, 10)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("latest prices for commodity %q", crop)
	if location != "" {
		sql += fmt.Sprintf(" in %q", location)
	}
	return &PriceLookup{SQL: sql, Result: recordsToResult(records)}, nil
}

var priceColumns = []string{"state", "district", "market", "commodity", "variety", "arrival_date", "min_price", "max_price", "modal_price"}

func recordsToResult(records []store.PriceRecord) *store.QueryResult {
	res := &store.QueryResult{Columns: priceColumns, Rows: [][]string{}}
	for _, r := range records {
		res.Rows = append(res.Rows, []string{
			r.State, r.District, r.Market, r.Commodity, r.Variety, r.ArrivalDate,
			formatRupees(r.MinPrice), formatRupees(r.MaxPrice), formatRupees(r.ModalPrice),
		})
	}
	return res
}

func formatRupees(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

var (
	sqlFence  = regexp.MustCompile("(?s)```(?:sql|sqlite)?\\s*(.*?)```")
	fromWord  = regexp.MustCompile(`(?i)\bfrom\b`)
	cteName   = regexp.MustCompile(`(?i)(?:\bwith\s+(?:recursive\s+)?|,\s*)([A-Za-z_]\w*)\s+as\s*\(`)
	sqlPrefix = regexp.MustCompile(`(?i)^\s*sql\s*:\s*`)
)

func extractSQL(raw string) string {
	if m := sqlFence.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	return strings.TrimSpace(sqlPrefix.ReplaceAllString(strings.TrimSpace(raw), ""))
}

// ValidatePriceSQL accepts a single read-only statement that reads only the
// price table or CTEs defined in the statement itself.
func ValidatePriceSQL(query string) (string, error) {
	q, err := store.CheckReadOnly(query)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsafeSQL, err)
	}
	allowed := map[string]bool{store.PriceTable: true}
	for _, m := range cteName.FindAllStringSubmatch(q, -1) {
		allowed[strings.ToLower(m[1])] = true
	}
	refs := referencedTables(q)
	if len(refs) == 0 {
		return "", fmt.Errorf("%w: no table referenced", ErrUnsafeSQL)
	}
	for _, ref := range refs {
		name := strings.ToLower(ref)
		if !allowed[name] {
			return "", fmt.Errorf("%w: table %q is not allowed", ErrUnsafeSQL, name)
		}
	}
	return q, nil
}

// fromListEnd holds the keywords that close a FROM clause.
var fromListEnd = map[string]bool{
	"where": true, "group": true, "order": true, "limit": true, "having": true,
	"union": true, "except": true, "intersect": true, "window": true,
}

// referencedTables returns the first name of every item of every FROM list,
// comma-separated or joined. Parenthesised items are skipped; their own FROM
// clauses are visited separately. Qualified names yield the schema name, which
// is never allowed.
func referencedTables(q string) []string {
	var names []string
	for _, loc := range fromWord.FindAllStringIndex(q, -1) {
		depth := 0
		expectTable := true
		i := loc[1]
	scan:
		for i < len(q) {
			c := q[i]
			switch {
			case c == '(':
				depth++
				expectTable = false
				i++
			case c == ')':
				if depth == 0 {
					break scan
				}
				depth--
				i++
			case c == ',' && depth == 0:
				expectTable = true
				i++
			case c == '\'':
				end := strings.IndexByte(q[i+1:], '\'')
				if end < 0 {
					break scan
				}
				i += end + 2
			case isIdentStart(c):
				word, n := readIdent(q[i:])
				i += n
				if depth > 0 {
					continue
				}
				lower := strings.ToLower(word)
				switch {
				case c != '"' && c != '`' && c != '[' && fromListEnd[lower]:
					break scan
				case c != '"' && c != '`' && c != '[' && lower == "join":
					expectTable = true
				case expectTable:
					names = append(names, word)
					expectTable = false
				}
			default:
				i++
			}
		}
	}
	return names
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '"' || c == '`' || c == '[' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

// readIdent reads a bare or quoted identifier and returns it unquoted with the
// number of bytes consumed.
func readIdent(s string) (string, int) {
	closer := map[byte]byte{'"': '"', '`': '`', '[': ']'}
	if end, quoted := closer[s[0]]; quoted {
		j := strings.IndexByte(s[1:], end)
		if j < 0 {
			return s[1:], len(s)
		}
		return s[1 : j+1], j + 2
	}
	n := 0
	for n < len(s) {
		c := s[n]
		if c == '_' || c == '$' || c >= 0x80 || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			n++
			continue
		}
		break
	}
	return s[:n], n
}

// RenderTable formats query rows as aligned plain text.
func RenderTable(res *store.QueryResult) string {
	if res == nil || len(res.Rows) == 0 {
		return "No rows."
	}
	widths := make([]int, len(res.Columns))
	for i, c := range res.Columns {
		widths[i] = len([]rune(c))
	}
	for _, row := range res.Rows {
		for i, v := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], len([]rune(v)))
			}
		}
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		for i, v := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(v)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(v))))
			}
		}
		b.WriteString("\n")
	}
	writeRow(res.Columns)
	for _, row := range res.Rows {
		writeRow(row)
	}
	if res.Truncated {
		b.WriteString("(more rows omitted)\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// IsUnsafeSQL reports whether err came from SQL validation.
func IsUnsafeSQL(err error) bool { return errors.Is(err, ErrUnsafeSQL) }
