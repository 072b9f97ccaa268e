// Package naming provides the implicit and physical naming strategies used
// whenever a mapping directive leaves a name unset.
package naming

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
)

// DiscriminatorColumnName is the implicit discriminator column name
const DiscriminatorColumnName = "DTYPE"

// EntityNamingSource describes an entity for implicit table naming
type EntityNamingSource struct {
	ClassName     string
	EntityName    string
	JPAEntityName string
}

// ImplicitNamingStrategy derives logical names when no explicit name is given
type ImplicitNamingStrategy interface {
	// PrimaryTableName returns the logical table name of an entity
	PrimaryTableName(source EntityNamingSource) string
	// BasicColumnName returns the logical column name of an attribute path ("address.city")
	BasicColumnName(attributePath string) string
	// DiscriminatorColumnName returns the logical discriminator column name
	DiscriminatorColumnName() string
	// PrimaryKeyJoinColumnName returns the key column of a joined subclass table
	PrimaryKeyJoinColumnName(referencedColumn string) string
}

// PhysicalNamingStrategy maps logical names to database names
type PhysicalNamingStrategy interface {
	TableName(logical string) string
	ColumnName(logical string) string
	SchemaName(logical string) string
	CatalogName(logical string) string
}

// JPAImplicit names tables after the JPA entity name and columns after the
// last segment of the attribute path
type JPAImplicit struct{}

// PrimaryTableName implements ImplicitNamingStrategy
func (JPAImplicit) PrimaryTableName(source EntityNamingSource) string {
	if source.JPAEntityName != "" {
		return source.JPAEntityName
	}
	return unqualify(source.EntityName)
}

// BasicColumnName implements ImplicitNamingStrategy
func (JPAImplicit) BasicColumnName(attributePath string) string {
	if idx := strings.LastIndex(attributePath, "."); idx >= 0 {
		return attributePath[idx+1:]
	}
	return attributePath
}

// DiscriminatorColumnName implements ImplicitNamingStrategy
func (JPAImplicit) DiscriminatorColumnName() string {
	return DiscriminatorColumnName
}

// PrimaryKeyJoinColumnName implements ImplicitNamingStrategy
func (JPAImplicit) PrimaryKeyJoinColumnName(referencedColumn string) string {
	return referencedColumn
}

// ComponentPathImplicit behaves like JPAImplicit but keeps the whole attribute
// path in column names, joined by underscores
type ComponentPathImplicit struct {
	JPAImplicit
}

// BasicColumnName implements ImplicitNamingStrategy
func (ComponentPathImplicit) BasicColumnName(attributePath string) string {
	return strings.ReplaceAll(attributePath, ".", "_")
}

// IdentityPhysical returns logical names unchanged
type IdentityPhysical struct{}

func (IdentityPhysical) TableName(logical string) string   { return logical }
func (IdentityPhysical) ColumnName(logical string) string  { return logical }
func (IdentityPhysical) SchemaName(logical string) string  { return logical }
func (IdentityPhysical) CatalogName(logical string) string { return logical }

// SnakeCasePhysical converts names to snake_case and pluralizes table names
type SnakeCasePhysical struct{}

// TableName implements PhysicalNamingStrategy
func (SnakeCasePhysical) TableName(logical string) string {
	if logical == "" {
		return ""
	}
	return inflection.Plural(ToSnakeCase(logical))
}

// ColumnName implements PhysicalNamingStrategy
func (SnakeCasePhysical) ColumnName(logical string) string {
	return ToSnakeCase(logical)
}

// SchemaName implements PhysicalNamingStrategy
func (SnakeCasePhysical) SchemaName(logical string) string {
	return ToSnakeCase(logical)
}

// CatalogName implements PhysicalNamingStrategy
func (SnakeCasePhysical) CatalogName(logical string) string {
	return ToSnakeCase(logical)
}

// NewImplicit returns the implicit strategy registered under name
func NewImplicit(name string) (ImplicitNamingStrategy, error) {
	switch strings.ToLower(name) {
	case "", "jpa":
		return JPAImplicit{}, nil
	case "component_path":
		return ComponentPathImplicit{}, nil
	default:
		return nil, fmt.Errorf("unknown implicit naming strategy: %s", name)
	}
}

// NewPhysical returns the physical strategy registered under name
func NewPhysical(name string) (PhysicalNamingStrategy, error) {
	switch strings.ToLower(name) {
	case "", "identity":
		return IdentityPhysical{}, nil
	case "snake_case":
		return SnakeCasePhysical{}, nil
	default:
		return nil, fmt.Errorf("unknown physical naming strategy: %s", name)
	}
}

// Naming bundles the strategies and the default schema and catalog
type Naming struct {
	Implicit       ImplicitNamingStrategy
	Physical       PhysicalNamingStrategy
	DefaultSchema  string
	DefaultCatalog string
}

// Default returns JPA implicit naming with identity physical naming
func Default() *Naming {
	return &Naming{Implicit: JPAImplicit{}, Physical: IdentityPhysical{}}
}

// Schema returns the physical schema, falling back to the default schema
func (n *Naming) Schema(explicit string) string {
	if explicit == "" {
		explicit = n.DefaultSchema
	}
	return n.Physical.SchemaName(explicit)
}

// Catalog returns the physical catalog, falling back to the default catalog
func (n *Naming) Catalog(explicit string) string {
	if explicit == "" {
		explicit = n.DefaultCatalog
	}
	return n.Physical.CatalogName(explicit)
}

// Table returns the physical name of an explicit table name
func (n *Naming) Table(logical string) string {
	return n.Physical.TableName(logical)
}

// Column returns the physical name of an explicit column name
func (n *Naming) Column(logical string) string {
	return n.Physical.ColumnName(logical)
}

// ImplicitTable returns the physical name of an entity's implicit table
func (n *Naming) ImplicitTable(source EntityNamingSource) string {
	return n.Physical.TableName(n.Implicit.PrimaryTableName(source))
}

// ImplicitColumn returns the physical name of an attribute's implicit column
func (n *Naming) ImplicitColumn(attributePath string) string {
	return n.Physical.ColumnName(n.Implicit.BasicColumnName(attributePath))
}

// ToSnakeCase converts a CamelCase name to snake_case
func ToSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			switch {
			case prev >= 'a' && prev <= 'z', prev >= '0' && prev <= '9':
				result = append(result, '_')
			case prev >= 'A' && prev <= 'Z' && i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z':
				// acronym end: "HTTPServer" -> "http_server"
				result = append(result, '_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+('a'-'A'))
		} else {
			result = append(result, r)
		}
	}

	return string(result)
}

func unqualify(name string) string {
	if idx := strings.LastIndexAny(name, ".$"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
