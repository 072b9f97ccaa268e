// Package mapping defines the mapping model produced by the binder: tables,
// columns, properties and persistent-class records, plus the Collector that
// registers them as they are produced.
package mapping

import (
	"fmt"
	"strings"
)

// SQLType is a JDBC type code
type SQLType int

// JDBC type codes used by the binder
const (
	TypeBit       SQLType = -7
	TypeTinyInt   SQLType = -6
	TypeSmallInt  SQLType = 5
	TypeInteger   SQLType = 4
	TypeBigInt    SQLType = -5
	TypeFloat     SQLType = 6
	TypeReal      SQLType = 7
	TypeDouble    SQLType = 8
	TypeNumeric   SQLType = 2
	TypeDecimal   SQLType = 3
	TypeChar      SQLType = 1
	TypeVarchar   SQLType = 12
	TypeClob      SQLType = 2005
	TypeDate      SQLType = 91
	TypeTime      SQLType = 92
	TypeTimestamp SQLType = 93
	TypeBinary    SQLType = -2
	TypeVarbinary SQLType = -3
	TypeBlob      SQLType = 2004
	TypeBoolean   SQLType = 16
	TypeUUID      SQLType = 3000
	TypeOther     SQLType = 1111
)

// String returns the SQL name of the type code
func (t SQLType) String() string {
	switch t {
	case TypeBit:
		return "BIT"
	case TypeTinyInt:
		return "TINYINT"
	case TypeSmallInt:
		return "SMALLINT"
	case TypeInteger:
		return "INTEGER"
	case TypeBigInt:
		return "BIGINT"
	case TypeFloat:
		return "FLOAT"
	case TypeReal:
		return "REAL"
	case TypeDouble:
		return "DOUBLE"
	case TypeNumeric:
		return "NUMERIC"
	case TypeDecimal:
		return "DECIMAL"
	case TypeChar:
		return "CHAR"
	case TypeVarchar:
		return "VARCHAR"
	case TypeClob:
		return "CLOB"
	case TypeDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeBinary:
		return "BINARY"
	case TypeVarbinary:
		return "VARBINARY"
	case TypeBlob:
		return "BLOB"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeUUID:
		return "UUID"
	default:
		return "OTHER"
	}
}

// Column defaults applied when a directive leaves a value unset
const (
	DefaultLength    = 255
	DefaultPrecision = 0
	DefaultScale     = 0
)

// Column is one physical column
type Column struct {
	Name      string
	Nullable  bool
	Unique    bool
	Length    int
	Precision int
	Scale     int
	SQLType   SQLType
}

// Definition renders the column type as it would appear in DDL
func (c *Column) Definition() string {
	switch c.SQLType {
	case TypeVarchar, TypeChar, TypeVarbinary, TypeBinary:
		return fmt.Sprintf("%s(%d)", c.SQLType, c.Length)
	case TypeNumeric, TypeDecimal:
		if c.Precision > 0 {
			return fmt.Sprintf("%s(%d,%d)", c.SQLType, c.Precision, c.Scale)
		}
	}
	return c.SQLType.String()
}

// PrimaryKey is the primary key of a table
type PrimaryKey struct {
	Name    string
	Columns []*Column
}

// Table is one physical table
type Table struct {
	Schema   string
	Catalog  string
	Name     string
	Abstract bool

	// IncludedTable is set for the denormalized tables of table-per-class subclasses
	IncludedTable *Table

	PrimaryKey *PrimaryKey

	columns     []*Column
	columnIndex map[string]*Column
}

func newTable(schema, catalog, name string, abstract bool) *Table {
	return &Table{
		Schema:      schema,
		Catalog:     catalog,
		Name:        name,
		Abstract:    abstract,
		columnIndex: make(map[string]*Column),
	}
}

// QualifiedName returns catalog.schema.name with empty parts omitted
func (t *Table) QualifiedName() string {
	return QualifyTableName(t.Schema, t.Catalog, t.Name)
}

// QualifyTableName builds the registration key of a table
func QualifyTableName(schema, catalog, name string) string {
	parts := make([]string, 0, 3)
	if catalog != "" {
		parts = append(parts, catalog)
	}
	if schema != "" {
		parts = append(parts, schema)
	}
	parts = append(parts, name)
	return strings.Join(parts, ".")
}

// AddColumn adds a column; a column with the same name already present is returned instead
func (t *Table) AddColumn(c *Column) *Column {
	key := strings.ToLower(c.Name)
	if existing, exists := t.columnIndex[key]; exists {
		return existing
	}
	t.columns = append(t.columns, c)
	t.columnIndex[key] = c
	return c
}

// Column returns the column with the given name, case-insensitively
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.columnIndex[strings.ToLower(name)]
	return c, ok
}

// Columns returns the table's own columns in insertion order
func (t *Table) Columns() []*Column {
	return t.columns
}

// AllColumns returns the included table's columns followed by the table's own
func (t *Table) AllColumns() []*Column {
	if t.IncludedTable == nil {
		return t.columns
	}
	all := append([]*Column{}, t.IncludedTable.AllColumns()...)
	for _, c := range t.columns {
		if _, dup := t.IncludedTable.Column(c.Name); !dup {
			all = append(all, c)
		}
	}
	return all
}

// SetPrimaryKey builds the primary key from the given columns
func (t *Table) SetPrimaryKey(columns ...*Column) {
	t.PrimaryKey = &PrimaryKey{
		Name:    "PK_" + strings.ToUpper(t.Name),
		Columns: columns,
	}
}
