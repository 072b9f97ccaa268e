// Package decl provides the declaration registry consumed by the binder.
// A declaration is the read-only description of one class: its supertype,
// its members and the mapping directives (annotations) attached to them.
package decl

import (
	"fmt"
	"strings"
)

// AnnotationKind identifies a mapping directive
type AnnotationKind string

// Type-level directives
const (
	Entity                     AnnotationKind = "Entity"
	MappedSuperclass           AnnotationKind = "MappedSuperclass"
	Embeddable                 AnnotationKind = "Embeddable"
	Access                     AnnotationKind = "Access"
	Inheritance                AnnotationKind = "Inheritance"
	DiscriminatorColumn        AnnotationKind = "DiscriminatorColumn"
	DiscriminatorValue         AnnotationKind = "DiscriminatorValue"
	Table                      AnnotationKind = "Table"
	SecondaryTable             AnnotationKind = "SecondaryTable"
	PrimaryKeyJoinColumn       AnnotationKind = "PrimaryKeyJoinColumn"
	Cacheable                  AnnotationKind = "Cacheable"
	Cache                      AnnotationKind = "Cache"
	NaturalIDCache             AnnotationKind = "NaturalIdCache"
	EntityListeners            AnnotationKind = "EntityListeners"
	ExcludeDefaultListeners    AnnotationKind = "ExcludeDefaultListeners"
	ExcludeSuperclassListeners AnnotationKind = "ExcludeSuperclassListeners"
	Convert                    AnnotationKind = "Convert"
	AttributeOverride          AnnotationKind = "AttributeOverride"
	AssociationOverride        AnnotationKind = "AssociationOverride"
	Converter                  AnnotationKind = "Converter"
)

// Member-level directives
const (
	ID                AnnotationKind = "Id"
	EmbeddedID        AnnotationKind = "EmbeddedId"
	Version           AnnotationKind = "Version"
	NaturalID         AnnotationKind = "NaturalId"
	Basic             AnnotationKind = "Basic"
	Column            AnnotationKind = "Column"
	Transient         AnnotationKind = "Transient"
	OptimisticLock    AnnotationKind = "OptimisticLock"
	Embedded          AnnotationKind = "Embedded"
	Any               AnnotationKind = "Any"
	ManyToOne         AnnotationKind = "ManyToOne"
	OneToOne          AnnotationKind = "OneToOne"
	OneToMany         AnnotationKind = "OneToMany"
	ManyToMany        AnnotationKind = "ManyToMany"
	ElementCollection AnnotationKind = "ElementCollection"
	ManyToAny         AnnotationKind = "ManyToAny"
)

// Lifecycle callback directives
const (
	PrePersist  AnnotationKind = "PrePersist"
	PreRemove   AnnotationKind = "PreRemove"
	PreUpdate   AnnotationKind = "PreUpdate"
	PostLoad    AnnotationKind = "PostLoad"
	PostPersist AnnotationKind = "PostPersist"
	PostRemove  AnnotationKind = "PostRemove"
	PostUpdate  AnnotationKind = "PostUpdate"
)

// Global contribution directives
const (
	SequenceGenerator AnnotationKind = "SequenceGenerator"
	TableGenerator    AnnotationKind = "TableGenerator"
	GenericGenerator  AnnotationKind = "GenericGenerator"
	NamedQuery        AnnotationKind = "NamedQuery"
	NamedNativeQuery  AnnotationKind = "NamedNativeQuery"
	TypeRegistration  AnnotationKind = "TypeRegistration"
	FilterDef         AnnotationKind = "FilterDef"
)

// Annotation is one directive instance with its attribute values
type Annotation struct {
	Kind  AnnotationKind
	Attrs map[string]interface{}
}

// NewAnnotation creates an annotation from alternating key/value pairs
func NewAnnotation(kind AnnotationKind, kv ...interface{}) Annotation {
	a := Annotation{Kind: kind, Attrs: make(map[string]interface{})}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		a.Attrs[key] = kv[i+1]
	}
	return a
}

// Has reports whether the attribute was set explicitly
func (a Annotation) Has(name string) bool {
	_, ok := a.Attrs[name]
	return ok
}

// String returns a string attribute; ok is false when unset or empty
func (a Annotation) String(name string) (string, bool) {
	v, exists := a.Attrs[name]
	if !exists || v == nil {
		return "", false
	}
	s := fmt.Sprint(v)
	return s, s != ""
}

// StringOr returns a string attribute or the fallback
func (a Annotation) StringOr(name, fallback string) string {
	if s, ok := a.String(name); ok {
		return s
	}
	return fallback
}

// Int returns an integer attribute; nil when unset
func (a Annotation) Int(name string) (*int, error) {
	v, exists := a.Attrs[name]
	if !exists || v == nil {
		return nil, nil
	}
	var n int
	switch val := v.(type) {
	case int:
		n = val
	case int64:
		n = int(val)
	case float64:
		n = int(val)
	case string:
		if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
			return nil, fmt.Errorf("attribute %s: %q is not an integer", name, val)
		}
	default:
		return nil, fmt.Errorf("attribute %s: unsupported value %T", name, v)
	}
	return &n, nil
}

// Bool returns a boolean attribute; nil when unset
func (a Annotation) Bool(name string) (*bool, error) {
	v, exists := a.Attrs[name]
	if !exists || v == nil {
		return nil, nil
	}
	var b bool
	switch val := v.(type) {
	case bool:
		b = val
	case string:
		switch strings.ToLower(val) {
		case "true":
			b = true
		case "false":
			b = false
		default:
			return nil, fmt.Errorf("attribute %s: %q is not a boolean", name, val)
		}
	default:
		return nil, fmt.Errorf("attribute %s: unsupported value %T", name, v)
	}
	return &b, nil
}

// BoolOr returns a boolean attribute or the fallback when unset or malformed
func (a Annotation) BoolOr(name string, fallback bool) bool {
	b, err := a.Bool(name)
	if err != nil || b == nil {
		return fallback
	}
	return *b
}

// Strings returns a list attribute; a scalar value is returned as a one-element list
func (a Annotation) Strings(name string) []string {
	v, exists := a.Attrs[name]
	if !exists || v == nil {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(val)}
	}
}

// Nested returns a nested annotation attribute (e.g. the column of an attribute override)
func (a Annotation) Nested(name string, kind AnnotationKind) (Annotation, bool) {
	v, exists := a.Attrs[name]
	if !exists || v == nil {
		return Annotation{}, false
	}
	switch val := v.(type) {
	case Annotation:
		return val, true
	case map[string]interface{}:
		return Annotation{Kind: kind, Attrs: val}, true
	default:
		return Annotation{}, false
	}
}

// Annotated is implemented by anything that carries directives
type Annotated interface {
	AnnotationList() []Annotation
}

// FindAnnotation returns the first directive of the given kind
func FindAnnotation(a Annotated, kind AnnotationKind) (Annotation, bool) {
	for _, ann := range a.AnnotationList() {
		if ann.Kind == kind {
			return ann, true
		}
	}
	return Annotation{}, false
}

// FindAnnotations returns every directive of the given kind in declaration order
func FindAnnotations(a Annotated, kind AnnotationKind) []Annotation {
	var out []Annotation
	for _, ann := range a.AnnotationList() {
		if ann.Kind == kind {
			out = append(out, ann)
		}
	}
	return out
}

// MemberKind distinguishes fields from methods
type MemberKind int

const (
	// MemberField is a field member
	MemberField MemberKind = iota
	// MemberMethod is a method member
	MemberMethod
)

// String returns the string representation of the member kind
func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberMethod:
		return "method"
	default:
		return "unknown"
	}
}

// ParseMemberKind converts a string to a MemberKind
func ParseMemberKind(s string) (MemberKind, error) {
	switch strings.ToLower(s) {
	case "field", "":
		return MemberField, nil
	case "method":
		return MemberMethod, nil
	default:
		return 0, fmt.Errorf("unknown member kind: %s", s)
	}
}

// MemberDeclaration is a field or method of a class
type MemberDeclaration struct {
	Name        string
	Kind        MemberKind
	Type        string // declared type name, e.g. "java.lang.String"
	Transient   bool   // language-level transient modifier
	Annotations []Annotation

	declaring *ClassDeclaration
}

// AnnotationList implements Annotated
func (m *MemberDeclaration) AnnotationList() []Annotation {
	return m.Annotations
}

// Annotation returns the first directive of the given kind
func (m *MemberDeclaration) Annotation(kind AnnotationKind) (Annotation, bool) {
	return FindAnnotation(m, kind)
}

// HasAnnotation reports whether the member carries the directive
func (m *MemberDeclaration) HasAnnotation(kind AnnotationKind) bool {
	_, ok := FindAnnotation(m, kind)
	return ok
}

// DeclaringClass returns the class that declares the member
func (m *MemberDeclaration) DeclaringClass() *ClassDeclaration {
	return m.declaring
}

// IsGetter reports whether the member is a JavaBean-style getter
func (m *MemberDeclaration) IsGetter() bool {
	if m.Kind != MemberMethod {
		return false
	}
	return (strings.HasPrefix(m.Name, "get") && len(m.Name) > 3) ||
		(strings.HasPrefix(m.Name, "is") && len(m.Name) > 2)
}

// AttributeName returns the persistent attribute name the member exposes
func (m *MemberDeclaration) AttributeName() string {
	if m.Kind != MemberMethod {
		return m.Name
	}
	var rest string
	switch {
	case strings.HasPrefix(m.Name, "get") && len(m.Name) > 3:
		rest = m.Name[3:]
	case strings.HasPrefix(m.Name, "is") && len(m.Name) > 2:
		rest = m.Name[2:]
	default:
		return m.Name
	}
	return strings.ToLower(rest[:1]) + rest[1:]
}

// ClassDeclaration is the read-only description of a class
type ClassDeclaration struct {
	Name        string
	SuperName   string
	Abstract    bool
	Annotations []Annotation
	Members     []*MemberDeclaration

	super *ClassDeclaration
}

// NewClass creates a class declaration and links its members
func NewClass(name, superName string, annotations []Annotation, members ...*MemberDeclaration) *ClassDeclaration {
	c := &ClassDeclaration{
		Name:        name,
		SuperName:   superName,
		Annotations: annotations,
		Members:     members,
	}
	for _, m := range members {
		m.declaring = c
	}
	return c
}

// AnnotationList implements Annotated
func (c *ClassDeclaration) AnnotationList() []Annotation {
	return c.Annotations
}

// Annotation returns the first directive of the given kind declared on this class
func (c *ClassDeclaration) Annotation(kind AnnotationKind) (Annotation, bool) {
	return FindAnnotation(c, kind)
}

// AnnotationsOf returns every directive of the given kind declared on this class
func (c *ClassDeclaration) AnnotationsOf(kind AnnotationKind) []Annotation {
	return FindAnnotations(c, kind)
}

// HasAnnotation reports whether the class itself carries the directive
func (c *ClassDeclaration) HasAnnotation(kind AnnotationKind) bool {
	_, ok := FindAnnotation(c, kind)
	return ok
}

// FindAnnotationInherited looks the directive up on this class and then its supertypes
func (c *ClassDeclaration) FindAnnotationInherited(kind AnnotationKind) (Annotation, *ClassDeclaration, bool) {
	for current := c; current != nil; current = current.super {
		if ann, ok := current.Annotation(kind); ok {
			return ann, current, true
		}
	}
	return Annotation{}, nil, false
}

// Supertype returns the direct supertype, or nil at the top of the chain
func (c *ClassDeclaration) Supertype() *ClassDeclaration {
	return c.super
}

// IsEntity reports whether the class is annotated as an entity
func (c *ClassDeclaration) IsEntity() bool {
	return c.HasAnnotation(Entity)
}

// IsMappedSuperclass reports whether the class is annotated as a mapped superclass
func (c *ClassDeclaration) IsMappedSuperclass() bool {
	return c.HasAnnotation(MappedSuperclass)
}

// IsEmbeddable reports whether the class is annotated as embeddable
func (c *ClassDeclaration) IsEmbeddable() bool {
	return c.HasAnnotation(Embeddable)
}

// SimpleName returns the unqualified class name
func (c *ClassDeclaration) SimpleName() string {
	if idx := strings.LastIndexAny(c.Name, ".$"); idx >= 0 {
		return c.Name[idx+1:]
	}
	return c.Name
}

// Fields returns the field members in declaration order
func (c *ClassDeclaration) Fields() []*MemberDeclaration {
	return c.membersOf(MemberField)
}

// Methods returns the method members in declaration order
func (c *ClassDeclaration) Methods() []*MemberDeclaration {
	return c.membersOf(MemberMethod)
}

func (c *ClassDeclaration) membersOf(kind MemberKind) []*MemberDeclaration {
	var out []*MemberDeclaration
	for _, m := range c.Members {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// PackageDeclaration carries package-level directives
type PackageDeclaration struct {
	Name        string
	Annotations []Annotation
}

// AnnotationList implements Annotated
func (p *PackageDeclaration) AnnotationList() []Annotation {
	return p.Annotations
}
