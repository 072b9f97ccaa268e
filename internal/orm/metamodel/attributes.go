package metamodel

import (
	"github.com/conduit-lang/ormbind/internal/orm/decl"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
)

// AttributeNature classifies a persistent attribute
type AttributeNature int

const (
	NatureBasic AttributeNature = iota
	NatureEmbedded
	NatureAny
	NatureToOne
	NaturePlural
)

// String returns the string representation of the nature
func (n AttributeNature) String() string {
	switch n {
	case NatureBasic:
		return "basic"
	case NatureEmbedded:
		return "embedded"
	case NatureAny:
		return "any"
	case NatureToOne:
		return "to_one"
	case NaturePlural:
		return "plural"
	default:
		return "unknown"
	}
}

// AttributeMetadata is one non-identifier persistent attribute of a node
type AttributeMetadata struct {
	Name   string
	Nature AttributeNature
	Member *decl.MemberDeclaration
	// Access is the access type the attribute was collected under
	Access AccessType
}

// IsVersion reports whether the attribute is the optimistic-lock version
func (a *AttributeMetadata) IsVersion() bool {
	return a.Member.HasAnnotation(decl.Version)
}

// IsNaturalID reports whether the attribute is part of the natural id
func (a *AttributeMetadata) IsNaturalID() bool {
	return a.Member.HasAnnotation(decl.NaturalID)
}

// isIdentifier reports whether the member carries an identifier directive
func isIdentifier(m *decl.MemberDeclaration) bool {
	return m.HasAnnotation(decl.ID) || m.HasAnnotation(decl.EmbeddedID)
}

// isTransient reports whether the member is excluded from persistence
func isTransient(m *decl.MemberDeclaration) bool {
	return m.Transient || m.HasAnnotation(decl.Transient)
}

// memberAccess returns the explicit member-level access override, if any
func memberAccess(m *decl.MemberDeclaration) (AccessType, bool, error) {
	ann, ok := m.Annotation(decl.Access)
	if !ok {
		return 0, false, nil
	}
	access, err := ParseAccessType(ann.StringOr("value", ""))
	if err != nil {
		return 0, false, binderrors.NewInvalidDirective(m.DeclaringClass().Name, string(decl.Access), err.Error()).
			WithAttribute(m.AttributeName())
	}
	return access, true, nil
}

// collectMembers splits a class's declared members into identifier members and
// persistent attributes, in declaration order. Members carrying an explicit
// access override are collected regardless of the class access type and
// replace an implicit member exposing the same attribute name.
func collectMembers(c *decl.ClassDeclaration, classAccess AccessType) (ids []*decl.MemberDeclaration, attrs []*decl.MemberDeclaration, accesses map[*decl.MemberDeclaration]AccessType, err error) {
	accesses = make(map[*decl.MemberDeclaration]AccessType)
	explicit := make(map[string]bool)

	for _, m := range c.Members {
		access, ok, err := memberAccess(m)
		if err != nil {
			return nil, nil, nil, err
		}
		if ok && access != classAccess {
			explicit[m.AttributeName()] = true
		}
	}

	for _, m := range c.Members {
		if isTransient(m) {
			continue
		}
		access, hasExplicit, _ := memberAccess(m)
		if !hasExplicit {
			access = classAccess
		}

		var include bool
		switch {
		case hasExplicit && access != classAccess:
			include = memberMatchesAccess(m, access)
		case explicit[m.AttributeName()]:
			include = false
		default:
			include = memberMatchesAccess(m, classAccess)
		}
		if !include {
			continue
		}

		accesses[m] = access
		if isIdentifier(m) {
			ids = append(ids, m)
			continue
		}
		attrs = append(attrs, m)
	}
	return ids, attrs, accesses, nil
}

func memberMatchesAccess(m *decl.MemberDeclaration, access AccessType) bool {
	if access == AccessField {
		return m.Kind == decl.MemberField
	}
	return m.IsGetter()
}

// classifyNature determines the nature of an attribute from its directives and
// declared type. Conflicting directives fail with BND101.
func classifyNature(registry decl.Registry, m *decl.MemberDeclaration) (AttributeNature, error) {
	var natures []AttributeNature
	seen := make(map[AttributeNature]bool)
	add := func(n AttributeNature) {
		if !seen[n] {
			seen[n] = true
			natures = append(natures, n)
		}
	}

	if m.HasAnnotation(decl.Basic) || m.HasAnnotation(decl.Version) {
		add(NatureBasic)
	}
	if m.HasAnnotation(decl.Embedded) || m.HasAnnotation(decl.EmbeddedID) || isEmbeddableType(registry, m.Type) {
		add(NatureEmbedded)
	}
	if m.HasAnnotation(decl.Any) {
		add(NatureAny)
	}
	if m.HasAnnotation(decl.ManyToOne) || m.HasAnnotation(decl.OneToOne) {
		add(NatureToOne)
	}
	if m.HasAnnotation(decl.OneToMany) || m.HasAnnotation(decl.ManyToMany) ||
		m.HasAnnotation(decl.ElementCollection) || m.HasAnnotation(decl.ManyToAny) {
		add(NaturePlural)
	}

	switch len(natures) {
	case 0:
		return NatureBasic, nil
	case 1:
		return natures[0], nil
	default:
		names := make([]string, 0, len(natures))
		for _, n := range natures {
			names = append(names, n.String())
		}
		return 0, binderrors.NewMultipleAttributeNatures(m.DeclaringClass().Name, m.AttributeName(), names)
	}
}

func isEmbeddableType(registry decl.Registry, typeName string) bool {
	if typeName == "" {
		return false
	}
	c, err := registry.ResolveClass(typeName)
	if err != nil {
		return false
	}
	return c.IsEmbeddable()
}
