package schemacheck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/conduit-lang/ormbind/internal/orm/mapping"
)

// dialect reads the lowercase column names of a table; an empty set means
// the table does not exist
type dialect interface {
	columns(ctx context.Context, db *sql.DB, table *mapping.Table) (map[string]bool, error)
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return postgresDialect{}, nil
	case "sqlite3":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q (expected pgx, postgres or sqlite3)", driver)
	}
}

type postgresDialect struct{}

const postgresColumnsQuery = `SELECT column_name FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
AND lower(table_name) = lower($2)`

func (postgresDialect) columns(ctx context.Context, db *sql.DB, table *mapping.Table) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, postgresColumnsQuery, table.Schema, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows, 1, 0)
}

type sqliteDialect struct{}

func (sqliteDialect) columns(ctx context.Context, db *sql.DB, table *mapping.Table) (map[string]bool, error) {
	name := `"` + strings.ReplaceAll(table.Name, `"`, `""`) + `"`
	if table.Schema != "" {
		name = `"` + strings.ReplaceAll(table.Schema, `"`, `""`) + `".` + name
	}
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+name+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	// cid, name, type, notnull, dflt_value, pk
	return scanNames(rows, 6, 1)
}

// scanNames collects column index nameAt of rows that have width columns
func scanNames(rows *sql.Rows, width, nameAt int) (map[string]bool, error) {
	names := make(map[string]bool)
	values := make([]interface{}, width)
	for i := range values {
		values[i] = new(sql.RawBytes)
	}
	for rows.Next() {
		if err := rows.Scan(values...); err != nil {
			return nil, err
		}
		names[strings.ToLower(string(*values[nameAt].(*sql.RawBytes)))] = true
	}
	return names, rows.Err()
}
