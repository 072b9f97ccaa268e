// Package schemacheck compares the tables produced by a bootstrap run with the
// catalogue of a live database and reports what is missing.
package schemacheck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver "pgx"
	_ "github.com/lib/pq"              // PostgreSQL driver "postgres"
	_ "github.com/mattn/go-sqlite3"    // SQLite driver "sqlite3"
	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/orm/mapping"
)

// MissingColumn is a bound column absent from an existing table
type MissingColumn struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Result lists the differences found by Check
type Result struct {
	Checked        int             `json:"checked"`
	MissingTables  []string        `json:"missing_tables"`
	MissingColumns []MissingColumn `json:"missing_columns"`
}

// OK reports whether every checked table and column exists
func (r *Result) OK() bool {
	return len(r.MissingTables) == 0 && len(r.MissingColumns) == 0
}

// Checker inspects one database
type Checker struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

// Open connects to the database with the given driver ("pgx", "postgres" or
// "sqlite3") and verifies the connection
func Open(ctx context.Context, driver, url string, logger *zap.Logger) (*Checker, error) {
	if _, err := dialectFor(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, driver, logger)
}

// New creates a checker over an open database
func New(db *sql.DB, driver string, logger *zap.Logger) (*Checker, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{db: db, dialect: d, logger: logger.Named("schemacheck")}, nil
}

// Close closes the underlying database
func (c *Checker) Close() error {
	return c.db.Close()
}

// Check looks up every concrete table and its columns. Abstract tables are
// skipped; union subclass tables are checked for their inherited columns too.
func (c *Checker) Check(ctx context.Context, tables []*mapping.Table) (*Result, error) {
	result := &Result{MissingTables: []string{}, MissingColumns: []MissingColumn{}}

	for _, table := range tables {
		if table.Abstract {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		columns, err := c.dialect.columns(ctx, c.db, table)
		if err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", table.QualifiedName(), err)
		}
		result.Checked++

		if len(columns) == 0 {
			result.MissingTables = append(result.MissingTables, table.QualifiedName())
			continue
		}
		for _, col := range table.AllColumns() {
			if !columns[strings.ToLower(col.Name)] {
				result.MissingColumns = append(result.MissingColumns, MissingColumn{
					Table:  table.QualifiedName(),
					Column: col.Name,
				})
			}
		}
	}

	c.logger.Info("schema checked",
		zap.Int("tables", result.Checked),
		zap.Int("missing_tables", len(result.MissingTables)),
		zap.Int("missing_columns", len(result.MissingColumns)),
	)
	return result, nil
}
