// Package report builds a serializable summary of one bootstrap run: the
// discovered hierarchies, the bound entity records and tables, and the
// diagnostics the run produced.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conduit-lang/ormbind/internal/orm/binder"
	"github.com/conduit-lang/ormbind/internal/orm/mapping"
	"github.com/conduit-lang/ormbind/internal/orm/metamodel"
)

// Report is the summary of one bootstrap run
type Report struct {
	RunID              uuid.UUID          `json:"run_id"`
	CreatedAt          time.Time          `json:"created_at"`
	Hierarchies        []Hierarchy        `json:"hierarchies"`
	Entities           []Entity           `json:"entities"`
	Tables             []Table            `json:"tables"`
	MappedSuperclasses []MappedSuperclass `json:"mapped_superclasses,omitempty"`
	Contributions      Contributions      `json:"contributions"`
	Diagnostics        []Diagnostic       `json:"diagnostics"`
}

// Hierarchy summarizes one entity hierarchy
type Hierarchy struct {
	Root                 string   `json:"root"`
	Inheritance          string   `json:"inheritance"`
	Access               string   `json:"access"`
	Cached               bool     `json:"cached"`
	CacheRegion          string   `json:"cache_region,omitempty"`
	CacheConcurrency     string   `json:"cache_concurrency,omitempty"`
	NaturalIDCacheRegion string   `json:"natural_id_cache_region,omitempty"`
	Entities             []string `json:"entities"`
}

// Entity summarizes one persistent-class record
type Entity struct {
	Name               string     `json:"name"`
	JPAName            string     `json:"jpa_name"`
	Kind               string     `json:"kind"`
	Abstract           bool       `json:"abstract,omitempty"`
	Table              string     `json:"table"`
	Super              string     `json:"super,omitempty"`
	MappedSuperclass   string     `json:"mapped_superclass,omitempty"`
	DiscriminatorValue string     `json:"discriminator_value,omitempty"`
	Identifier         *Property  `json:"identifier,omitempty"`
	Version            string     `json:"version,omitempty"`
	Properties         []Property `json:"properties"`
	SecondaryTables    []string   `json:"secondary_tables,omitempty"`
	Callbacks          []Callback `json:"callbacks,omitempty"`
}

// Property summarizes one bound property
type Property struct {
	Name      string `json:"name"`
	Table     string `json:"table"`
	Column    string `json:"column"`
	Type      string `json:"type"`
	Nullable  bool   `json:"nullable"`
	Converter string `json:"converter,omitempty"`
	NaturalID bool   `json:"natural_id,omitempty"`
	Lazy      bool   `json:"lazy,omitempty"`
	Declaring string `json:"declaring_class,omitempty"`
}

// Callback is one resolved lifecycle callback in invocation order
type Callback struct {
	Event  string `json:"event"`
	Source string `json:"source"`
	Class  string `json:"class"`
	Method string `json:"method"`
}

// Table summarizes one physical table
type Table struct {
	Name       string   `json:"name"`
	Abstract   bool     `json:"abstract,omitempty"`
	Includes   string   `json:"includes,omitempty"`
	PrimaryKey []string `json:"primary_key,omitempty"`
	Columns    []Column `json:"columns"`
}

// Column summarizes one physical column
type Column struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
	Nullable   bool   `json:"nullable"`
	Unique     bool   `json:"unique,omitempty"`
}

// MappedSuperclass summarizes one mapped-superclass record
type MappedSuperclass struct {
	ClassName  string   `json:"class_name"`
	Super      string   `json:"super,omitempty"`
	Entity     string   `json:"entity,omitempty"`
	Identifier string   `json:"identifier,omitempty"`
	Version    string   `json:"version,omitempty"`
	Properties []string `json:"properties"`
}

// Contributions lists the global contributions by name
type Contributions struct {
	Generators        []string `json:"generators,omitempty"`
	NamedQueries      []string `json:"named_queries,omitempty"`
	Filters           []string `json:"filters,omitempty"`
	TypeRegistrations []string `json:"type_registrations,omitempty"`
	Converters        []string `json:"converters,omitempty"`
}

// Diagnostic is one non-fatal finding
type Diagnostic struct {
	Code      string `json:"code"`
	Class     string `json:"class,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Message   string `json:"message"`
}

// Build summarizes a binder after a successful Bind
func Build(b *binder.Binder) (*Report, error) {
	ctx := b.Context()
	collector := ctx.Collector

	r := &Report{
		RunID:     uuid.New(),
		CreatedAt: time.Now().UTC(),
	}

	callbacks := make(map[string][]Callback)
	for _, h := range b.Hierarchies() {
		r.Hierarchies = append(r.Hierarchies, buildHierarchy(h))
		for _, node := range h.Entities() {
			groups, err := node.Callbacks()
			if err != nil {
				return nil, fmt.Errorf("callbacks of %s: %w", node.ClassName(), err)
			}
			callbacks[node.EntityName()] = flattenCallbacks(groups)
		}
	}

	for _, pc := range collector.EntityBindings() {
		entity := buildEntity(pc)
		entity.Callbacks = callbacks[pc.EntityName()]
		r.Entities = append(r.Entities, entity)
	}
	for _, t := range collector.Tables() {
		r.Tables = append(r.Tables, buildTable(t))
	}
	for _, ms := range collector.MappedSuperclasses() {
		r.MappedSuperclasses = append(r.MappedSuperclasses, buildMappedSuperclass(ms))
	}

	for _, g := range collector.IdentifierGenerators() {
		r.Contributions.Generators = append(r.Contributions.Generators, g.Name)
	}
	for _, q := range collector.NamedQueries() {
		r.Contributions.NamedQueries = append(r.Contributions.NamedQueries, q.Name)
	}
	for _, f := range collector.FilterDefinitions() {
		r.Contributions.Filters = append(r.Contributions.Filters, f.Name)
	}
	for _, t := range collector.TypeRegistrations() {
		r.Contributions.TypeRegistrations = append(r.Contributions.TypeRegistrations, t.JavaType+"="+t.UserType)
	}
	for _, c := range collector.AttributeConverters() {
		r.Contributions.Converters = append(r.Contributions.Converters, c.ClassName)
	}

	r.Diagnostics = make([]Diagnostic, 0, ctx.Diagnostics.Len())
	for _, d := range ctx.Diagnostics.All() {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Code:      string(d.Code),
			Class:     d.ClassName,
			Attribute: d.Attribute,
			Message:   d.Message,
		})
	}
	return r, nil
}

func buildHierarchy(h *metamodel.EntityHierarchy) Hierarchy {
	out := Hierarchy{
		Root:        h.Root().EntityName(),
		Inheritance: h.InheritanceType().String(),
		Access:      h.AccessType().String(),
		Cached:      h.Caching().Enabled,
	}
	if out.Cached {
		out.CacheRegion = h.Caching().Region
		out.CacheConcurrency = h.Caching().Concurrency.String()
	}
	if h.NaturalIDCaching().Enabled {
		out.NaturalIDCacheRegion = h.NaturalIDCaching().Region
	}
	for _, node := range h.Entities() {
		out.Entities = append(out.Entities, node.EntityName())
	}
	return out
}

func buildEntity(pc mapping.PersistentClass) Entity {
	out := Entity{
		Name:               pc.EntityName(),
		JPAName:            pc.JPAEntityName(),
		Kind:               pc.Kind().String(),
		Abstract:           pc.IsAbstract(),
		Table:              pc.Table().QualifiedName(),
		DiscriminatorValue: pc.DiscriminatorValue(),
		Properties:         []Property{},
	}
	if super := pc.Superclass(); super != nil {
		out.Super = super.EntityName()
	}
	if ms := pc.SuperMappedSuperclass(); ms != nil {
		out.MappedSuperclass = ms.ClassName
	}
	if root, ok := pc.(*mapping.RootClass); ok {
		if root.Identifier != nil {
			id := buildProperty(root.Identifier)
			out.Identifier = &id
		}
		if root.Version != nil {
			out.Version = root.Version.Name
		}
	}
	for _, p := range pc.Properties() {
		out.Properties = append(out.Properties, buildProperty(p))
	}
	for _, j := range pc.Joins() {
		out.SecondaryTables = append(out.SecondaryTables, j.Table.QualifiedName())
		for _, p := range j.Properties() {
			out.Properties = append(out.Properties, buildProperty(p))
		}
	}
	return out
}

func buildProperty(p *mapping.Property) Property {
	out := Property{
		Name:      p.Name,
		Type:      p.Value.TypeName,
		Converter: p.Value.Converter,
		NaturalID: p.NaturalID,
		Lazy:      p.Lazy,
		Declaring: p.DeclaringClass,
	}
	if p.Value.Table != nil {
		out.Table = p.Value.Table.QualifiedName()
	}
	if c := p.Value.Column(); c != nil {
		out.Column = c.Name
		out.Nullable = c.Nullable
	}
	return out
}

func buildTable(t *mapping.Table) Table {
	out := Table{
		Name:     t.QualifiedName(),
		Abstract: t.Abstract,
		Columns:  make([]Column, 0, len(t.Columns())),
	}
	if t.IncludedTable != nil {
		out.Includes = t.IncludedTable.QualifiedName()
	}
	if t.PrimaryKey != nil {
		for _, c := range t.PrimaryKey.Columns {
			out.PrimaryKey = append(out.PrimaryKey, c.Name)
		}
	}
	for _, c := range t.AllColumns() {
		out.Columns = append(out.Columns, Column{
			Name:       c.Name,
			Definition: c.Definition(),
			Nullable:   c.Nullable,
			Unique:     c.Unique,
		})
	}
	return out
}

func buildMappedSuperclass(ms *mapping.MappedSuperclass) MappedSuperclass {
	out := MappedSuperclass{ClassName: ms.ClassName, Properties: []string{}}
	if ms.SuperMappedSuperclass != nil {
		out.Super = ms.SuperMappedSuperclass.ClassName
	}
	if ms.SuperPersistentClass != nil {
		out.Entity = ms.SuperPersistentClass.EntityName()
	}
	if ms.DeclaredIdentifier != nil {
		out.Identifier = ms.DeclaredIdentifier.Name
	}
	if ms.DeclaredVersion != nil {
		out.Version = ms.DeclaredVersion.Name
	}
	for _, p := range ms.DeclaredProperties() {
		out.Properties = append(out.Properties, p.Name)
	}
	return out
}

func flattenCallbacks(groups []*metamodel.CallbackGroup) []Callback {
	var out []Callback
	for _, g := range groups {
		for _, cb := range g.Callbacks {
			out = append(out, Callback{
				Event:  cb.Event.String(),
				Source: g.Source.String(),
				Class:  g.ClassName,
				Method: cb.Method,
			})
		}
	}
	return out
}

// Entity returns the entity summary with the given entity or JPA name
func (r *Report) Entity(name string) (Entity, bool) {
	for _, e := range r.Entities {
		if e.Name == name || e.JPAName == name {
			return e, true
		}
	}
	return Entity{}, false
}

// Table returns the table summary with the given qualified name
func (r *Report) Table(name string) (Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// JSON renders the report as indented JSON
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Parse decodes a report rendered by JSON
func Parse(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
