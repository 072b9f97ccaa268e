package mapping

import "strings"

// ClassKind identifies the variant of a persistent-class record
type ClassKind int

const (
	// KindRoot is the root of an entity hierarchy
	KindRoot ClassKind = iota
	// KindJoinedSubclass is a subclass with its own joined table
	KindJoinedSubclass
	// KindDiscriminatedSubclass is a subclass sharing the root table
	KindDiscriminatedSubclass
	// KindUnionSubclass is a subclass with its own denormalized table
	KindUnionSubclass
)

// String returns the string representation of the class kind
func (k ClassKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindJoinedSubclass:
		return "joined_subclass"
	case KindDiscriminatedSubclass:
		return "discriminated_subclass"
	case KindUnionSubclass:
		return "union_subclass"
	default:
		return "unknown"
	}
}

// PersistentClass is the record the binder produces for one entity
type PersistentClass interface {
	Kind() ClassKind
	EntityName() string
	JPAEntityName() string
	ClassName() string
	IsAbstract() bool

	// Table is the table holding the class's own properties
	Table() *Table
	// Superclass is the nearest persistent superclass; nil for a root
	Superclass() PersistentClass
	// Root is the hierarchy root
	Root() *RootClass

	SuperMappedSuperclass() *MappedSuperclass
	SetSuperMappedSuperclass(ms *MappedSuperclass)

	DiscriminatorValue() string
	SetDiscriminatorValue(value string)

	AddProperty(p *Property)
	Properties() []*Property
	Property(name string) (*Property, bool)

	AddJoin(j *Join)
	Joins() []*Join
	// LocateTable finds the primary or a secondary table by its logical name
	LocateTable(name string) (*Table, bool)

	AddSubclass(sub PersistentClass)
	Subclasses() []PersistentClass
}

// classBase carries the state shared by every record variant
type classBase struct {
	entityName         string
	jpaEntityName      string
	className          string
	abstract           bool
	discriminatorValue string
	superMapped        *MappedSuperclass

	properties []*Property
	joins      []*Join
	subclasses []PersistentClass
}

func (c *classBase) EntityName() string    { return c.entityName }
func (c *classBase) JPAEntityName() string { return c.jpaEntityName }
func (c *classBase) ClassName() string     { return c.className }
func (c *classBase) IsAbstract() bool      { return c.abstract }

func (c *classBase) SuperMappedSuperclass() *MappedSuperclass { return c.superMapped }

func (c *classBase) SetSuperMappedSuperclass(ms *MappedSuperclass) { c.superMapped = ms }

func (c *classBase) DiscriminatorValue() string { return c.discriminatorValue }

func (c *classBase) SetDiscriminatorValue(value string) { c.discriminatorValue = value }

func (c *classBase) AddProperty(p *Property) { c.properties = append(c.properties, p) }

func (c *classBase) Properties() []*Property { return c.properties }

func (c *classBase) Property(name string) (*Property, bool) {
	for _, p := range c.properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (c *classBase) AddJoin(j *Join) { c.joins = append(c.joins, j) }

func (c *classBase) Joins() []*Join { return c.joins }

func (c *classBase) AddSubclass(sub PersistentClass) { c.subclasses = append(c.subclasses, sub) }

func (c *classBase) Subclasses() []PersistentClass { return c.subclasses }

func (c *classBase) locateJoinTable(name string) (*Table, bool) {
	for _, j := range c.joins {
		if strings.EqualFold(j.Table.Name, name) {
			return j.Table, true
		}
	}
	return nil, false
}

// JoinForTable returns the join bound to the given table
func JoinForTable(pc PersistentClass, table *Table) (*Join, bool) {
	for current := pc; current != nil; current = current.Superclass() {
		for _, j := range current.Joins() {
			if j.Table == table {
				return j, true
			}
		}
	}
	return nil, false
}

// RootClass is the record of a hierarchy root
type RootClass struct {
	classBase

	table *Table

	Identifier    *Property
	Version       *Property
	Discriminator *BasicValue
	// InheritanceStrategy is the hierarchy's strategy name, e.g. "single_table"
	InheritanceStrategy string

	Cached                   bool
	CacheRegionName          string
	CacheConcurrencyStrategy string
	CacheLazyProperties      bool
	NaturalIDCacheRegionName string
}

// NewRootClass creates a root record
func NewRootClass(entityName, jpaEntityName, className string, abstract bool) *RootClass {
	return &RootClass{classBase: classBase{
		entityName:    entityName,
		jpaEntityName: jpaEntityName,
		className:     className,
		abstract:      abstract,
	}}
}

// Kind implements PersistentClass
func (r *RootClass) Kind() ClassKind { return KindRoot }

// Table implements PersistentClass
func (r *RootClass) Table() *Table { return r.table }

// SetTable sets the root's primary table
func (r *RootClass) SetTable(t *Table) { r.table = t }

// Superclass implements PersistentClass
func (r *RootClass) Superclass() PersistentClass { return nil }

// Root implements PersistentClass
func (r *RootClass) Root() *RootClass { return r }

// LocateTable implements PersistentClass
func (r *RootClass) LocateTable(name string) (*Table, bool) {
	if r.table != nil && strings.EqualFold(r.table.Name, name) {
		return r.table, true
	}
	return r.locateJoinTable(name)
}

// HasDiscriminator reports whether a discriminator column was synthesized
func (r *RootClass) HasDiscriminator() bool {
	return r.Discriminator != nil
}

// subclassBase is shared by the three subclass variants
type subclassBase struct {
	classBase
	super PersistentClass
}

func (s *subclassBase) Superclass() PersistentClass { return s.super }

func (s *subclassBase) Root() *RootClass { return s.super.Root() }

// DiscriminatedSubclass shares its root's table (single-table inheritance)
type DiscriminatedSubclass struct {
	subclassBase
}

// NewDiscriminatedSubclass creates a single-table subclass record
func NewDiscriminatedSubclass(super PersistentClass, entityName, jpaEntityName, className string, abstract bool) *DiscriminatedSubclass {
	return &DiscriminatedSubclass{subclassBase{
		classBase: classBase{entityName: entityName, jpaEntityName: jpaEntityName, className: className, abstract: abstract},
		super:     super,
	}}
}

// Kind implements PersistentClass
func (s *DiscriminatedSubclass) Kind() ClassKind { return KindDiscriminatedSubclass }

// Table implements PersistentClass
func (s *DiscriminatedSubclass) Table() *Table { return s.super.Table() }

// LocateTable implements PersistentClass
func (s *DiscriminatedSubclass) LocateTable(name string) (*Table, bool) {
	if t, ok := s.locateJoinTable(name); ok {
		return t, true
	}
	return s.super.LocateTable(name)
}

// JoinedSubclass has its own table joined to its superclass's by key
type JoinedSubclass struct {
	subclassBase
	table *Table
	Key   *BasicValue
}

// NewJoinedSubclass creates a joined subclass record
func NewJoinedSubclass(super PersistentClass, entityName, jpaEntityName, className string, abstract bool, table *Table) *JoinedSubclass {
	return &JoinedSubclass{
		subclassBase: subclassBase{
			classBase: classBase{entityName: entityName, jpaEntityName: jpaEntityName, className: className, abstract: abstract},
			super:     super,
		},
		table: table,
	}
}

// Kind implements PersistentClass
func (s *JoinedSubclass) Kind() ClassKind { return KindJoinedSubclass }

// Table implements PersistentClass
func (s *JoinedSubclass) Table() *Table { return s.table }

// LocateTable implements PersistentClass
func (s *JoinedSubclass) LocateTable(name string) (*Table, bool) {
	if strings.EqualFold(s.table.Name, name) {
		return s.table, true
	}
	if t, ok := s.locateJoinTable(name); ok {
		return t, true
	}
	return s.super.LocateTable(name)
}

// UnionSubclass has its own table that includes the superclass table's columns
type UnionSubclass struct {
	subclassBase
	table *Table
}

// NewUnionSubclass creates a table-per-class subclass record
func NewUnionSubclass(super PersistentClass, entityName, jpaEntityName, className string, abstract bool, table *Table) *UnionSubclass {
	return &UnionSubclass{
		subclassBase: subclassBase{
			classBase: classBase{entityName: entityName, jpaEntityName: jpaEntityName, className: className, abstract: abstract},
			super:     super,
		},
		table: table,
	}
}

// Kind implements PersistentClass
func (s *UnionSubclass) Kind() ClassKind { return KindUnionSubclass }

// Table implements PersistentClass
func (s *UnionSubclass) Table() *Table { return s.table }

// LocateTable implements PersistentClass
func (s *UnionSubclass) LocateTable(name string) (*Table, bool) {
	if strings.EqualFold(s.table.Name, name) {
		return s.table, true
	}
	if t, ok := s.locateJoinTable(name); ok {
		return t, true
	}
	return s.super.LocateTable(name)
}

// MappedSuperclass records a non-persistable ancestor between entity records
type MappedSuperclass struct {
	ClassName string

	// SuperMappedSuperclass is the next mapped superclass up the chain
	SuperMappedSuperclass *MappedSuperclass
	// SuperPersistentClass is the nearest entity record above; nil above the root
	SuperPersistentClass PersistentClass

	DeclaredIdentifier *Property
	DeclaredVersion    *Property

	declaredProperties []*Property
}

// NewMappedSuperclass creates a mapped-superclass record
func NewMappedSuperclass(className string, superMapped *MappedSuperclass, superPersistent PersistentClass) *MappedSuperclass {
	return &MappedSuperclass{
		ClassName:             className,
		SuperMappedSuperclass: superMapped,
		SuperPersistentClass:  superPersistent,
	}
}

// AddDeclaredProperty records a property declared by the mapped superclass
func (m *MappedSuperclass) AddDeclaredProperty(p *Property) {
	m.declaredProperties = append(m.declaredProperties, p)
}

// DeclaredProperties returns the declared properties in insertion order
func (m *MappedSuperclass) DeclaredProperties() []*Property {
	return m.declaredProperties
}

// HasDeclaredProperty reports whether a property with the given name was declared
func (m *MappedSuperclass) HasDeclaredProperty(name string) bool {
	for _, p := range m.declaredProperties {
		if p.Name == name {
			return true
		}
	}
	return false
}
