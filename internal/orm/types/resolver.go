// Package types resolves declared Java type names to SQL type codes for
// basic attributes.
package types

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/ormbind/internal/orm/mapping"
)

// Resolver maps declared Java type names to SQL type codes
type Resolver struct {
	mappings map[string]mapping.SQLType
	// userTypes maps a Java type to a custom basic type name registered by a directive
	userTypes map[string]string
}

// NewResolver creates a Resolver preloaded with the standard basic types
func NewResolver() *Resolver {
	r := &Resolver{
		mappings:  make(map[string]mapping.SQLType),
		userTypes: make(map[string]string),
	}

	for _, name := range []string{"java.lang.String", "String"} {
		r.mappings[name] = mapping.TypeVarchar
	}
	for _, name := range []string{"char", "java.lang.Character", "Character"} {
		r.mappings[name] = mapping.TypeChar
	}
	for _, name := range []string{"int", "java.lang.Integer", "Integer"} {
		r.mappings[name] = mapping.TypeInteger
	}
	for _, name := range []string{"long", "java.lang.Long", "Long"} {
		r.mappings[name] = mapping.TypeBigInt
	}
	for _, name := range []string{"short", "java.lang.Short", "Short"} {
		r.mappings[name] = mapping.TypeSmallInt
	}
	for _, name := range []string{"byte", "java.lang.Byte", "Byte"} {
		r.mappings[name] = mapping.TypeTinyInt
	}
	for _, name := range []string{"boolean", "java.lang.Boolean", "Boolean"} {
		r.mappings[name] = mapping.TypeBoolean
	}
	for _, name := range []string{"float", "java.lang.Float", "Float"} {
		r.mappings[name] = mapping.TypeFloat
	}
	for _, name := range []string{"double", "java.lang.Double", "Double"} {
		r.mappings[name] = mapping.TypeDouble
	}

	r.mappings["java.math.BigDecimal"] = mapping.TypeNumeric
	r.mappings["java.math.BigInteger"] = mapping.TypeNumeric
	r.mappings["java.util.UUID"] = mapping.TypeUUID
	r.mappings["java.time.LocalDate"] = mapping.TypeDate
	r.mappings["java.sql.Date"] = mapping.TypeDate
	r.mappings["java.time.LocalTime"] = mapping.TypeTime
	r.mappings["java.sql.Time"] = mapping.TypeTime
	r.mappings["java.time.LocalDateTime"] = mapping.TypeTimestamp
	r.mappings["java.time.Instant"] = mapping.TypeTimestamp
	r.mappings["java.time.OffsetDateTime"] = mapping.TypeTimestamp
	r.mappings["java.util.Date"] = mapping.TypeTimestamp
	r.mappings["java.sql.Timestamp"] = mapping.TypeTimestamp
	r.mappings["byte[]"] = mapping.TypeVarbinary
	r.mappings["java.lang.Byte[]"] = mapping.TypeVarbinary
	r.mappings["java.sql.Blob"] = mapping.TypeBlob
	r.mappings["java.sql.Clob"] = mapping.TypeClob
	r.mappings["char[]"] = mapping.TypeVarchar

	return r
}

// Register maps a Java type name to a SQL type code, replacing any existing mapping
func (r *Resolver) Register(javaType string, sqlType mapping.SQLType) {
	r.mappings[javaType] = sqlType
}

// RegisterUserType records a custom basic type for a Java type
func (r *Resolver) RegisterUserType(javaType, userType string) error {
	if existing, exists := r.userTypes[javaType]; exists && existing != userType {
		return fmt.Errorf("type %s is already registered to %s", javaType, existing)
	}
	r.userTypes[javaType] = userType
	return nil
}

// UserType returns the custom basic type registered for a Java type
func (r *Resolver) UserType(javaType string) (string, bool) {
	t, ok := r.userTypes[javaType]
	return t, ok
}

// Resolve returns the SQL type code of a Java type name. An empty type name
// resolves to VARCHAR; unknown types resolve to OTHER with ok false.
func (r *Resolver) Resolve(javaType string) (mapping.SQLType, bool) {
	javaType = strings.TrimSpace(javaType)
	if javaType == "" {
		return mapping.TypeVarchar, true
	}
	if t, ok := r.mappings[javaType]; ok {
		return t, true
	}
	return mapping.TypeOther, false
}

// TypeName returns the basic type name recorded on a value: the custom user
// type when one is registered, otherwise the Java type itself
func (r *Resolver) TypeName(javaType string) string {
	if userType, ok := r.userTypes[javaType]; ok {
		return userType
	}
	if javaType == "" {
		return "java.lang.String"
	}
	return javaType
}
