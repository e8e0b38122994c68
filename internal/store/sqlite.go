package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/kisanmitra/agri-advisor/internal/logger"
)

func init() {
	sqlite_vec.Auto()
}

// ErrNotReadOnly is returned for anything but a single SELECT statement.
var ErrNotReadOnly = errors.New("only a single read-only SELECT statement is allowed")

type SQLiteStore struct {
	db           *sql.DB
	embeddingDim int
	log          logger.Logger
}

func NewSQLiteStore(dataSourceName string, embeddingDim int, log logger.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dataSourceName); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dataSourceName+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err = db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return NewSQLiteStoreFromDB(db, embeddingDim, log), nil
}

// NewSQLiteStoreFromDB wraps an already opened database without touching its schema.
func NewSQLiteStoreFromDB(db *sql.DB, embeddingDim int, log logger.Logger) *SQLiteStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &SQLiteStore{db: db, embeddingDim: embeddingDim, log: log}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) EmbeddingDim() int { return s.embeddingDim }

var (
	forbiddenSQL = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|create|alter|attach|detach|pragma|vacuum|reindex|truncate|grant|load_extension)\b|\breplace\s+into\b`)
	sqlComment   = regexp.MustCompile(`(?s)--[^\n]*|/\*.*?\*/`)
)

// CheckReadOnly accepts a single SELECT or WITH statement and returns it trimmed
// of comments and a trailing semicolon.
func CheckReadOnly(query string) (string, error) {
	q := strings.TrimSpace(sqlComment.ReplaceAllString(query, " "))
	q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	if q == "" {
		return "", fmt.Errorf("%w: empty query", ErrNotReadOnly)
	}
	if strings.Contains(q, ";") {
		return "", fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}
	head := strings.ToLower(strings.Fields(q)[0])
	if head != "select" && head != "with" {
		return "", fmt.Errorf("%w: starts with %q", ErrNotReadOnly, head)
	}
	if kw := forbiddenSQL.FindString(q); kw != "" {
		return "", fmt.Errorf("%w: contains %q", ErrNotReadOnly, strings.ToLower(kw))
	}
	return q, nil
}

// ErrTableNotAllowed is returned when a restricted query reads a table outside its allowlist.
var ErrTableNotAllowed = errors.New("query reads a table that is not allowed")

// authRecursive is SQLITE_RECURSIVE, which the driver does not export.
const authRecursive = 33

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Query runs a checked read-only statement and renders at most limit rows as text.
func (s *SQLiteStore) Query(ctx context.Context, query string, limit int, args ...interface{}) (*QueryResult, error) {
	q, err := CheckReadOnly(query)
	if err != nil {
		return nil, err
	}
	return collectRows(ctx, s.db, q, limit, args...)
}

// QueryTables is Query for untrusted statements: SQLite itself refuses, while
// preparing the statement, any read of a table not in tables and anything but
// plain selects and function calls.
func (s *SQLiteStore) QueryTables(ctx context.Context, query string, limit int, tables []string) (*QueryResult, error) {
	q, err := CheckReadOnly(query)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(tables))
	for _, t := range tables {
		allowed[strings.ToLower(t)] = true
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var denied []string
	authorize := func(op int, arg1, _, _ string) int {
		switch op {
		case sqlite3.SQLITE_SELECT, sqlite3.SQLITE_FUNCTION, authRecursive:
			return sqlite3.SQLITE_OK
		case sqlite3.SQLITE_READ:
			if allowed[strings.ToLower(arg1)] {
				return sqlite3.SQLITE_OK
			}
			denied = append(denied, arg1)
		}
		return sqlite3.SQLITE_DENY
	}
	if err := setAuthorizer(conn, authorize); err != nil {
		return nil, err
	}
	defer func() {
		if err := setAuthorizer(conn, nil); err != nil {
			s.log.Warn("failed to clear query authorizer", map[string]interface{}{"error": err.Error()})
		}
	}()

	res, err := collectRows(ctx, conn, q, limit)
	if err != nil && len(denied) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotAllowed, strings.Join(denied, ", "))
	}
	return res, err
}

func setAuthorizer(conn *sql.Conn, fn func(int, string, string, string) int) error {
	return conn.Raw(func(driverConn interface{}) error {
		c, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("table restrictions need a sqlite3 connection, got %T", driverConn)
		}
		c.RegisterAuthorizer(fn)
		return nil
	})
}

func collectRows(ctx context.Context, db querier, q string, limit int, args ...interface{}) (*QueryResult, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	res := &QueryResult{Columns: cols, Rows: [][]string{}}
	for rows.Next() {
		if len(res.Rows) == limit {
			res.Truncated = true
			break
		}
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		res.Rows = append(res.Rows, row)
	}
	return res, rows.Err()
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", x), "0"), ".")
	default:
		return fmt.Sprint(x)
	}
}

// Tables lists user tables, hiding SQLite internals and vector index shadow tables.
func (s *SQLiteStore) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name NOT LIKE 'vec_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Schema returns the CREATE statement of a table.
func (s *SQLiteStore) Schema(ctx context.Context, table string) (string, error) {
	var ddl string
	err := s.db.QueryRowContext(ctx, "SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("table %q not found", table)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	return ddl, nil
}
