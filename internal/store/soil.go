package store

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// IngestSoil loads a soil health card CSV into soil_health. The table is rebuilt
// from the file header; every column is stored as text.
func (s *SQLiteStore) IngestSoil(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open soil file %s: %w", path, err)
	}
	defer file.Close()

	table, err := readCSV(file)
	if err != nil {
		return 0, fmt.Errorf("failed to read csv %s: %w", path, err)
	}
	if len(table) == 0 {
		return 0, fmt.Errorf("soil file %s is empty", path)
	}

	cols := soilColumns(table[0])
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `" TEXT`
		marks[i] = "?"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+SoilTable); err != nil {
		return 0, fmt.Errorf("failed to drop %s: %w", SoilTable, err)
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (id INTEGER PRIMARY KEY AUTOINCREMENT, %s)", SoilTable, strings.Join(quoted, ", "))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", SoilTable, err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s ("%s") VALUES (%s)`, SoilTable, strings.Join(cols, `", "`), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare soil insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, row := range table[1:] {
		args := make([]interface{}, len(cols))
		empty := true
		for i := range cols {
			v := ""
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			if v != "" {
				empty = false
			}
			args[i] = v
		}
		if empty {
			continue
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert soil row %d: %w", count+1, err)
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit soil rows: %w", err)
	}
	s.log.Info("soil table loaded", map[string]interface{}{"file": path, "rows": count, "columns": len(cols)})
	return count, nil
}

// soilColumns normalizes headers and makes them unique and non-empty.
func soilColumns(header []string) []string {
	cols := make([]string, len(header))
	seen := make(map[string]int)
	for i, h := range header {
		c := NormalizeHeader(h)
		if c == "" || c == "id" {
			c = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[c]; n > 0 {
			seen[c]++
			c = fmt.Sprintf("%s_%d", c, n+1)
		} else {
			seen[c] = 1
		}
		cols[i] = c
	}
	return cols
}
