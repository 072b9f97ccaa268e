package mapping

import (
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
)

// GeneratorDefinition is a named identifier generator
type GeneratorDefinition struct {
	Name       string
	Strategy   string // sequence, table or the generic strategy name
	Parameters map[string]string
	Source     string
}

// NamedQueryDefinition is a named JPQL or native query
type NamedQueryDefinition struct {
	Name        string
	Query       string
	Native      bool
	ResultClass string
	Source      string
}

// TypeRegistration maps a Java type to a custom basic type
type TypeRegistration struct {
	JavaType string
	UserType string
	Source   string
}

// FilterDefinition is a named filter definition
type FilterDefinition struct {
	Name             string
	DefaultCondition string
	Parameters       map[string]string
	Source           string
}

// ConverterRegistration is an attribute converter class
type ConverterRegistration struct {
	ClassName     string
	AttributeType string
	AutoApply     bool
}

// Collector is the build session the binder writes into. It is written by a
// single binder; registrations are immediate and are not rolled back when
// binding fails, so a collector must be discarded after any binder error.
type Collector struct {
	tables     map[string]*Table
	tableOrder []string

	entities    map[string]PersistentClass
	entityOrder []string

	mappedSuperclasses map[string]*MappedSuperclass
	mappedOrder        []string

	imports map[string]string

	generators        map[string]*GeneratorDefinition
	generatorOrder    []string
	namedQueries      map[string]*NamedQueryDefinition
	namedQueryOrder   []string
	typeRegistrations []*TypeRegistration
	filterDefs        map[string]*FilterDefinition
	filterOrder       []string
	converters        []*ConverterRegistration
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		tables:             make(map[string]*Table),
		entities:           make(map[string]PersistentClass),
		mappedSuperclasses: make(map[string]*MappedSuperclass),
		imports:            make(map[string]string),
		generators:         make(map[string]*GeneratorDefinition),
		namedQueries:       make(map[string]*NamedQueryDefinition),
		filterDefs:         make(map[string]*FilterDefinition),
	}
}

// AddTable registers a table or returns the one already registered under the same
// qualified name. A concrete registration makes an existing abstract table concrete.
func (c *Collector) AddTable(schema, catalog, name string, abstract bool) *Table {
	key := QualifyTableName(schema, catalog, name)
	if existing, exists := c.tables[key]; exists {
		if !abstract {
			existing.Abstract = false
		}
		return existing
	}
	t := newTable(schema, catalog, name, abstract)
	c.tables[key] = t
	c.tableOrder = append(c.tableOrder, key)
	return t
}

// AddDenormalizedTable registers a table that includes another table's columns
func (c *Collector) AddDenormalizedTable(schema, catalog, name string, abstract bool, included *Table) (*Table, error) {
	key := QualifyTableName(schema, catalog, name)
	if _, exists := c.tables[key]; exists {
		return nil, binderrors.NewDuplicateMapping("table", key)
	}
	t := c.AddTable(schema, catalog, name, abstract)
	t.IncludedTable = included
	return t, nil
}

// Table returns a table by qualified name
func (c *Collector) Table(qualifiedName string) (*Table, bool) {
	t, ok := c.tables[qualifiedName]
	return t, ok
}

// Tables returns every table in registration order
func (c *Collector) Tables() []*Table {
	out := make([]*Table, 0, len(c.tableOrder))
	for _, key := range c.tableOrder {
		out = append(out, c.tables[key])
	}
	return out
}

// AddEntityBinding registers a persistent-class record by entity name
func (c *Collector) AddEntityBinding(pc PersistentClass) error {
	name := pc.EntityName()
	if _, exists := c.entities[name]; exists {
		return binderrors.NewDuplicateMapping("entity", name)
	}
	c.entities[name] = pc
	c.entityOrder = append(c.entityOrder, name)
	return nil
}

// EntityBinding returns a record by entity name
func (c *Collector) EntityBinding(name string) (PersistentClass, bool) {
	pc, ok := c.entities[name]
	return pc, ok
}

// EntityBindings returns every record in registration order
func (c *Collector) EntityBindings() []PersistentClass {
	out := make([]PersistentClass, 0, len(c.entityOrder))
	for _, name := range c.entityOrder {
		out = append(out, c.entities[name])
	}
	return out
}

// AddMappedSuperclass registers a mapped-superclass record by class name
func (c *Collector) AddMappedSuperclass(className string, ms *MappedSuperclass) {
	if _, exists := c.mappedSuperclasses[className]; !exists {
		c.mappedOrder = append(c.mappedOrder, className)
	}
	c.mappedSuperclasses[className] = ms
}

// MappedSuperclass returns a mapped-superclass record by class name
func (c *Collector) MappedSuperclass(className string) (*MappedSuperclass, bool) {
	ms, ok := c.mappedSuperclasses[className]
	return ms, ok
}

// MappedSuperclasses returns every mapped-superclass record in registration order
func (c *Collector) MappedSuperclasses() []*MappedSuperclass {
	out := make([]*MappedSuperclass, 0, len(c.mappedOrder))
	for _, name := range c.mappedOrder {
		out = append(out, c.mappedSuperclasses[name])
	}
	return out
}

// AddImport maps a short (JPA) entity name to the entity name
func (c *Collector) AddImport(importName, entityName string) error {
	if existing, exists := c.imports[importName]; exists && existing != entityName {
		return binderrors.NewDuplicateMapping("import", importName)
	}
	c.imports[importName] = entityName
	return nil
}

// ResolveImport returns the entity name for a short name
func (c *Collector) ResolveImport(importName string) (string, bool) {
	name, ok := c.imports[importName]
	return name, ok
}

// AddIdentifierGenerator registers a named generator
func (c *Collector) AddIdentifierGenerator(def *GeneratorDefinition) error {
	if _, exists := c.generators[def.Name]; exists {
		return binderrors.NewDuplicateMapping("generator", def.Name)
	}
	c.generators[def.Name] = def
	c.generatorOrder = append(c.generatorOrder, def.Name)
	return nil
}

// IdentifierGenerator returns a generator by name
func (c *Collector) IdentifierGenerator(name string) (*GeneratorDefinition, bool) {
	def, ok := c.generators[name]
	return def, ok
}

// IdentifierGenerators returns every generator in registration order
func (c *Collector) IdentifierGenerators() []*GeneratorDefinition {
	out := make([]*GeneratorDefinition, 0, len(c.generatorOrder))
	for _, name := range c.generatorOrder {
		out = append(out, c.generators[name])
	}
	return out
}

// AddNamedQuery registers a named query
func (c *Collector) AddNamedQuery(def *NamedQueryDefinition) error {
	if _, exists := c.namedQueries[def.Name]; exists {
		return binderrors.NewDuplicateMapping("named query", def.Name)
	}
	c.namedQueries[def.Name] = def
	c.namedQueryOrder = append(c.namedQueryOrder, def.Name)
	return nil
}

// NamedQuery returns a named query by name
func (c *Collector) NamedQuery(name string) (*NamedQueryDefinition, bool) {
	def, ok := c.namedQueries[name]
	return def, ok
}

// NamedQueries returns every named query in registration order
func (c *Collector) NamedQueries() []*NamedQueryDefinition {
	out := make([]*NamedQueryDefinition, 0, len(c.namedQueryOrder))
	for _, name := range c.namedQueryOrder {
		out = append(out, c.namedQueries[name])
	}
	return out
}

// AddTypeRegistration registers a custom basic type
func (c *Collector) AddTypeRegistration(reg *TypeRegistration) {
	c.typeRegistrations = append(c.typeRegistrations, reg)
}

// TypeRegistrations returns every type registration in registration order
func (c *Collector) TypeRegistrations() []*TypeRegistration {
	return c.typeRegistrations
}

// AddFilterDefinition registers a filter definition
func (c *Collector) AddFilterDefinition(def *FilterDefinition) error {
	if _, exists := c.filterDefs[def.Name]; exists {
		return binderrors.NewDuplicateMapping("filter definition", def.Name)
	}
	c.filterDefs[def.Name] = def
	c.filterOrder = append(c.filterOrder, def.Name)
	return nil
}

// FilterDefinition returns a filter definition by name
func (c *Collector) FilterDefinition(name string) (*FilterDefinition, bool) {
	def, ok := c.filterDefs[name]
	return def, ok
}

// FilterDefinitions returns every filter definition in registration order
func (c *Collector) FilterDefinitions() []*FilterDefinition {
	out := make([]*FilterDefinition, 0, len(c.filterOrder))
	for _, name := range c.filterOrder {
		out = append(out, c.filterDefs[name])
	}
	return out
}

// AddAttributeConverter registers a converter class
func (c *Collector) AddAttributeConverter(reg *ConverterRegistration) {
	c.converters = append(c.converters, reg)
}

// AttributeConverters returns every converter registration
func (c *Collector) AttributeConverters() []*ConverterRegistration {
	return c.converters
}

// AutoApplyConverterFor returns the auto-apply converter registered for a Java type, if any
func (c *Collector) AutoApplyConverterFor(javaType string) (string, bool) {
	for _, reg := range c.converters {
		if !reg.AutoApply {
			continue
		}
		if reg.AttributeType == javaType {
			return reg.ClassName, true
		}
	}
	return "", false
}
