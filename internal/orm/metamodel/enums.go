// Package metamodel builds the entity-hierarchy metamodel from class
// declarations: hierarchy roots, access and inheritance strategies, caching
// policy, attributes and lifecycle callbacks.
package metamodel

import (
	"fmt"
	"strings"
)

// AccessType is how persistent state is read: via fields or via accessor methods
type AccessType int

const (
	// AccessField reads state from fields
	AccessField AccessType = iota
	// AccessProperty reads state through getter methods
	AccessProperty
)

// String returns the string representation of the access type
func (a AccessType) String() string {
	switch a {
	case AccessField:
		return "field"
	case AccessProperty:
		return "property"
	default:
		return "unknown"
	}
}

// ParseAccessType converts a directive literal to an AccessType
func ParseAccessType(s string) (AccessType, error) {
	switch strings.ToUpper(s) {
	case "FIELD":
		return AccessField, nil
	case "PROPERTY":
		return AccessProperty, nil
	default:
		return 0, fmt.Errorf("unknown access type: %s", s)
	}
}

// InheritanceType is the table layout of a hierarchy
type InheritanceType int

const (
	// SingleTable stores the whole hierarchy in the root table
	SingleTable InheritanceType = iota
	// Joined stores each subclass in its own table joined to its superclass table
	Joined
	// TablePerClass stores each concrete class in a denormalized table
	TablePerClass
)

// String returns the string representation of the inheritance type
func (i InheritanceType) String() string {
	switch i {
	case SingleTable:
		return "single_table"
	case Joined:
		return "joined"
	case TablePerClass:
		return "table_per_class"
	default:
		return "unknown"
	}
}

// ParseInheritanceType converts a directive literal to an InheritanceType
func ParseInheritanceType(s string) (InheritanceType, error) {
	switch strings.ToUpper(s) {
	case "", "SINGLE_TABLE":
		return SingleTable, nil
	case "JOINED":
		return Joined, nil
	case "TABLE_PER_CLASS":
		return TablePerClass, nil
	default:
		return 0, fmt.Errorf("unknown inheritance type: %s", s)
	}
}

// SharedCacheMode is the process-wide second-level cache mode
type SharedCacheMode int

const (
	CacheModeUnspecified SharedCacheMode = iota
	CacheModeNone
	CacheModeAll
	CacheModeEnableSelective
	CacheModeDisableSelective
)

// String returns the string representation of the cache mode
func (m SharedCacheMode) String() string {
	switch m {
	case CacheModeNone:
		return "none"
	case CacheModeAll:
		return "all"
	case CacheModeEnableSelective:
		return "enable_selective"
	case CacheModeDisableSelective:
		return "disable_selective"
	default:
		return "unspecified"
	}
}

// ParseSharedCacheMode converts a configuration literal to a SharedCacheMode
func ParseSharedCacheMode(s string) (SharedCacheMode, error) {
	switch strings.ToLower(s) {
	case "", "unspecified":
		return CacheModeUnspecified, nil
	case "none":
		return CacheModeNone, nil
	case "all":
		return CacheModeAll, nil
	case "enable_selective":
		return CacheModeEnableSelective, nil
	case "disable_selective":
		return CacheModeDisableSelective, nil
	default:
		return 0, fmt.Errorf("unknown shared cache mode: %s", s)
	}
}

// CacheConcurrency is the concurrency access kind of a cache region
type CacheConcurrency int

const (
	ConcurrencyReadWrite CacheConcurrency = iota
	ConcurrencyReadOnly
	ConcurrencyNonstrictReadWrite
	ConcurrencyTransactional
)

// String returns the string representation of the concurrency kind
func (c CacheConcurrency) String() string {
	switch c {
	case ConcurrencyReadOnly:
		return "read_only"
	case ConcurrencyNonstrictReadWrite:
		return "nonstrict_read_write"
	case ConcurrencyReadWrite:
		return "read_write"
	case ConcurrencyTransactional:
		return "transactional"
	default:
		return "unknown"
	}
}

// ParseCacheConcurrency converts a directive or configuration literal to a CacheConcurrency
func ParseCacheConcurrency(s string) (CacheConcurrency, error) {
	switch strings.ToLower(s) {
	case "read_only":
		return ConcurrencyReadOnly, nil
	case "nonstrict_read_write":
		return ConcurrencyNonstrictReadWrite, nil
	case "", "read_write":
		return ConcurrencyReadWrite, nil
	case "transactional":
		return ConcurrencyTransactional, nil
	default:
		return 0, fmt.Errorf("unknown cache concurrency: %s", s)
	}
}

// CachingPolicy is the entity caching policy of a hierarchy
type CachingPolicy struct {
	Enabled             bool
	Region              string
	Concurrency         CacheConcurrency
	CacheLazyProperties bool
}

// NaturalIDCachingPolicy is the natural-id caching policy of a hierarchy
type NaturalIDCachingPolicy struct {
	Enabled bool
	Region  string
}
