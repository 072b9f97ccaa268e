package metamodel

import (
	"github.com/conduit-lang/ormbind/internal/orm/decl"
)

// NodeKind tags a metamodel node
type NodeKind int

const (
	// KindEntity is an entity node
	KindEntity NodeKind = iota
	// KindMappedSuperclass is a mapped-superclass node
	KindMappedSuperclass
)

// String returns the string representation of the node kind
func (k NodeKind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindMappedSuperclass:
		return "mapped_superclass"
	default:
		return "unknown"
	}
}

// TypeMetadata is one node of a hierarchy's metamodel tree. Nodes are owned by
// their hierarchy and are not modified once the hierarchy is built.
type TypeMetadata struct {
	kind      NodeKind
	decl      *decl.ClassDeclaration
	hierarchy *EntityHierarchy

	super    *TypeMetadata
	subtypes []*TypeMetadata

	access AccessType

	identifierMembers []*decl.MemberDeclaration
	attributes        []*AttributeMetadata

	conversionOverrides  map[string]decl.Annotation
	attributeOverrides   map[string]decl.Annotation
	associationOverrides map[string]decl.Annotation

	callbacks         []*CallbackGroup
	callbacksResolved bool
}

// Kind returns the node kind
func (t *TypeMetadata) Kind() NodeKind { return t.kind }

// IsEntity reports whether the node is an entity
func (t *TypeMetadata) IsEntity() bool { return t.kind == KindEntity }

// Declaration returns the backing class declaration
func (t *TypeMetadata) Declaration() *decl.ClassDeclaration { return t.decl }

// ClassName returns the fully-qualified class name
func (t *TypeMetadata) ClassName() string { return t.decl.Name }

// Hierarchy returns the owning hierarchy
func (t *TypeMetadata) Hierarchy() *EntityHierarchy { return t.hierarchy }

// Super returns the nearest node above, or nil at the top of the tree
func (t *TypeMetadata) Super() *TypeMetadata { return t.super }

// Subtypes returns the nodes directly below in discovery order
func (t *TypeMetadata) Subtypes() []*TypeMetadata { return t.subtypes }

// IsRoot reports whether the node is the hierarchy root
func (t *TypeMetadata) IsRoot() bool { return t.hierarchy != nil && t.hierarchy.root == t }

// IsAbstract reports whether the class is abstract
func (t *TypeMetadata) IsAbstract() bool { return t.decl.Abstract }

// AccessType returns the access type the node's attributes were collected under
func (t *TypeMetadata) AccessType() AccessType { return t.access }

// EntityName returns the entity name, which is the class name
func (t *TypeMetadata) EntityName() string { return t.decl.Name }

// JPAEntityName returns @Entity(name) or the unqualified class name
func (t *TypeMetadata) JPAEntityName() string {
	if ann, ok := t.decl.Annotation(decl.Entity); ok {
		if name, ok := ann.String("name"); ok {
			return name
		}
	}
	return t.decl.SimpleName()
}

// IdentifierMembers returns the members carrying @Id or @EmbeddedId
func (t *TypeMetadata) IdentifierMembers() []*decl.MemberDeclaration {
	return t.identifierMembers
}

// Attributes returns the non-identifier attributes in declaration order
func (t *TypeMetadata) Attributes() []*AttributeMetadata {
	return t.attributes
}

// Attribute returns the attribute with the given name
func (t *TypeMetadata) Attribute(name string) (*AttributeMetadata, bool) {
	for _, a := range t.attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// ConversionOverride returns the @Convert applying to an attribute path
func (t *TypeMetadata) ConversionOverride(path string) (decl.Annotation, bool) {
	ann, ok := t.conversionOverrides[path]
	return ann, ok
}

// AttributeOverride returns the @AttributeOverride applying to an attribute path
func (t *TypeMetadata) AttributeOverride(path string) (decl.Annotation, bool) {
	ann, ok := t.attributeOverrides[path]
	return ann, ok
}

// AssociationOverride returns the @AssociationOverride applying to an attribute path
func (t *TypeMetadata) AssociationOverride(path string) (decl.Annotation, bool) {
	ann, ok := t.associationOverrides[path]
	return ann, ok
}

// Callbacks returns the ordered lifecycle callback groups of the node. They
// are resolved on first use and cached for the node's lifetime.
func (t *TypeMetadata) Callbacks() ([]*CallbackGroup, error) {
	if t.callbacksResolved {
		return t.callbacks, nil
	}
	groups, err := t.hierarchy.callbacks.collect(t)
	if err != nil {
		return nil, err
	}
	t.callbacks = groups
	t.callbacksResolved = true
	return groups, nil
}

// NearestEntitySuper walks up past mapped superclasses to the nearest entity
// node. The mapped superclasses passed on the way are returned nearest first.
func (t *TypeMetadata) NearestEntitySuper() (*TypeMetadata, []*TypeMetadata) {
	var passed []*TypeMetadata
	for current := t.super; current != nil; current = current.super {
		if current.IsEntity() {
			return current, passed
		}
		passed = append(passed, current)
	}
	return nil, passed
}

func (t *TypeMetadata) addSubtype(sub *TypeMetadata) {
	sub.super = t
	t.subtypes = append(t.subtypes, sub)
}

// inheritOverrides seeds the override maps from the node above and then adds
// the node's own entries where no ancestor registered one
func (t *TypeMetadata) inheritOverrides() {
	t.conversionOverrides = make(map[string]decl.Annotation)
	t.attributeOverrides = make(map[string]decl.Annotation)
	t.associationOverrides = make(map[string]decl.Annotation)

	if t.super != nil {
		for k, v := range t.super.conversionOverrides {
			t.conversionOverrides[k] = v
		}
		for k, v := range t.super.attributeOverrides {
			t.attributeOverrides[k] = v
		}
		for k, v := range t.super.associationOverrides {
			t.associationOverrides[k] = v
		}
	}

	putIfAbsent := func(m map[string]decl.Annotation, key string, ann decl.Annotation) {
		if key == "" {
			return
		}
		if _, exists := m[key]; !exists {
			m[key] = ann
		}
	}

	for _, ann := range t.decl.AnnotationsOf(decl.Convert) {
		putIfAbsent(t.conversionOverrides, ann.StringOr("attributeName", ""), ann)
	}
	for _, ann := range t.decl.AnnotationsOf(decl.AttributeOverride) {
		putIfAbsent(t.attributeOverrides, ann.StringOr("name", ""), ann)
	}
	for _, ann := range t.decl.AnnotationsOf(decl.AssociationOverride) {
		putIfAbsent(t.associationOverrides, ann.StringOr("name", ""), ann)
	}

	for _, m := range t.decl.Members {
		name := m.AttributeName()
		for _, ann := range decl.FindAnnotations(m, decl.Convert) {
			path := name
			if sub, ok := ann.String("attributeName"); ok {
				path = name + "." + sub
			}
			putIfAbsent(t.conversionOverrides, path, ann)
		}
	}
}
