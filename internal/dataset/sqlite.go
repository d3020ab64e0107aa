package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"retail-insights/internal/models"
)

func readSQLite(ctx context.Context, path, table string) (models.RawTable, error) {
	// sql.Open would silently create a missing database file.
	if _, err := os.Stat(path); err != nil {
		return models.RawTable{}, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if table == "" {
		table, err = firstUserTable(ctx, db)
	} else {
		err = tableExists(ctx, db, table)
	}
	if err != nil {
		return models.RawTable{}, err
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return models.RawTable{}, fmt.Errorf("query %q: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return models.RawTable{}, err
	}

	out := models.RawTable{Header: cols}
	values := make([]any, len(cols))
	scans := make([]any, len(cols))
	for i := range values {
		scans[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scans...); err != nil {
			return models.RawTable{}, fmt.Errorf("scan %q: %w", table, err)
		}
		record := make([]string, len(cols))
		for i, v := range values {
			record[i] = stringValue(v)
		}
		out.Rows = append(out.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return models.RawTable{}, err
	}
	return out, nil
}

func firstUserTable(ctx context.Context, db *sql.DB) (string, error) {
	const q = `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name LIMIT 1`
	var name string
	if err := db.QueryRowContext(ctx, q).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrEmpty
		}
		return "", err
	}
	return name, nil
}

func tableExists(ctx context.Context, db *sql.DB, table string) error {
	const q = `SELECT 1 FROM sqlite_master WHERE type IN ('table','view') AND name = ?`
	var one int
	if err := db.QueryRowContext(ctx, q, table).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("table %q not found", table)
		}
		return err
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(sheetTimestampLayout)
	default:
		return fmt.Sprint(t)
	}
}
