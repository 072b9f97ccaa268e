package decl

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a set of declarations
type Document struct {
	Packages []PackageDocument `yaml:"packages"`
	Classes  []ClassDocument   `yaml:"classes"`
}

// PackageDocument is the YAML form of a package declaration
type PackageDocument struct {
	Name        string               `yaml:"name"`
	Annotations []AnnotationDocument `yaml:"annotations"`
}

// ClassDocument is the YAML form of a class declaration
type ClassDocument struct {
	Name        string               `yaml:"name"`
	Super       string               `yaml:"super"`
	Abstract    bool                 `yaml:"abstract"`
	Managed     *bool                `yaml:"managed"`
	Annotations []AnnotationDocument `yaml:"annotations"`
	Members     []MemberDocument     `yaml:"members"`
}

// MemberDocument is the YAML form of a member declaration
type MemberDocument struct {
	Name        string               `yaml:"name"`
	Kind        string               `yaml:"kind"`
	Type        string               `yaml:"type"`
	Transient   bool                 `yaml:"transient"`
	Annotations []AnnotationDocument `yaml:"annotations"`
}

// AnnotationDocument is the YAML form of a directive
type AnnotationDocument struct {
	Kind  string                 `yaml:"kind"`
	Attrs map[string]interface{} `yaml:"attrs"`
}

// LoadFile loads and parses a YAML declaration document from the given path
func LoadFile(path string) (*MemoryRegistry, error) {
	registry := NewMemoryRegistry()
	if err := LoadInto(registry, path); err != nil {
		return nil, err
	}
	return registry, nil
}

// LoadFiles loads several documents into one registry
func LoadFiles(paths ...string) (*MemoryRegistry, error) {
	registry := NewMemoryRegistry()
	for _, path := range paths {
		if err := LoadInto(registry, path); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// LoadInto parses the document at path and adds its declarations to registry
func LoadInto(registry *MemoryRegistry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read declaration file %s: %w", path, err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return doc.Apply(registry)
}

// Parse parses YAML data into a new registry
func Parse(data []byte) (*MemoryRegistry, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	registry := NewMemoryRegistry()
	if err := doc.Apply(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// ParseDocument parses YAML data into a Document
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse declaration YAML: %w", err)
	}
	return &doc, nil
}

// Apply converts the document and registers its declarations
func (d *Document) Apply(registry *MemoryRegistry) error {
	for _, p := range d.Packages {
		registry.AddPackage(&PackageDeclaration{
			Name:        p.Name,
			Annotations: buildAnnotations(p.Annotations),
		})
	}

	for _, cd := range d.Classes {
		class, err := cd.build()
		if err != nil {
			return err
		}
		managed := cd.Managed == nil || *cd.Managed
		if managed {
			err = registry.AddManaged(class)
		} else {
			err = registry.Add(class)
		}
		if err != nil {
			return err
		}
	}
	return registry.Validate()
}

func (cd ClassDocument) build() (*ClassDeclaration, error) {
	if cd.Name == "" {
		return nil, fmt.Errorf("class declaration missing name")
	}
	members := make([]*MemberDeclaration, 0, len(cd.Members))
	for _, md := range cd.Members {
		kind, err := ParseMemberKind(md.Kind)
		if err != nil {
			return nil, fmt.Errorf("class %s member %s: %w", cd.Name, md.Name, err)
		}
		members = append(members, &MemberDeclaration{
			Name:        md.Name,
			Kind:        kind,
			Type:        md.Type,
			Transient:   md.Transient,
			Annotations: buildAnnotations(md.Annotations),
		})
	}
	class := NewClass(cd.Name, cd.Super, buildAnnotations(cd.Annotations), members...)
	class.Abstract = cd.Abstract
	return class, nil
}

func buildAnnotations(docs []AnnotationDocument) []Annotation {
	out := make([]Annotation, 0, len(docs))
	for _, ad := range docs {
		attrs := ad.Attrs
		if attrs == nil {
			attrs = make(map[string]interface{})
		}
		out = append(out, Annotation{Kind: AnnotationKind(ad.Kind), Attrs: attrs})
	}
	return out
}
