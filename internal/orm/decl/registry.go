package decl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSupertypeCycle reports a class that is its own ancestor
var ErrSupertypeCycle = errors.New("supertype cycle")

// ObjectClassName is the implicit top of every class chain
const ObjectClassName = "java.lang.Object"

// Registry exposes class declarations to the binder. It is borrowed read-only
// for one bootstrap run.
type Registry interface {
	// ResolveClass returns the declaration for a fully-qualified class name
	ResolveClass(name string) (*ClassDeclaration, error)
	// ForEachManagedClass visits every managed class in registration order
	ForEachManagedClass(fn func(*ClassDeclaration) error) error
	// ForEachDirectSubtype visits the known direct subtypes of a class in registration order
	ForEachDirectSubtype(name string, fn func(*ClassDeclaration) error) error
	// ForEachManagedPackage visits every managed package in registration order
	ForEachManagedPackage(fn func(*PackageDeclaration) error) error
}

// MemoryRegistry is an insertion-ordered in-memory Registry
type MemoryRegistry struct {
	classes  map[string]*ClassDeclaration
	order    []string
	managed  map[string]bool
	subtypes map[string][]string
	packages []*PackageDeclaration
	linked   bool
	linkErr  error
	// synthesized names supertypes created by link; a later declaration replaces them
	synthesized map[string]bool
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		classes:     make(map[string]*ClassDeclaration),
		managed:     make(map[string]bool),
		subtypes:    make(map[string][]string),
		synthesized: make(map[string]bool),
	}
}

// AddManaged registers classes that take part in the bootstrap
func (r *MemoryRegistry) AddManaged(classes ...*ClassDeclaration) error {
	for _, c := range classes {
		if err := r.add(c, true); err != nil {
			return err
		}
	}
	return nil
}

// Add registers classes that are resolvable but not managed (e.g. listeners, plain supertypes)
func (r *MemoryRegistry) Add(classes ...*ClassDeclaration) error {
	for _, c := range classes {
		if err := r.add(c, false); err != nil {
			return err
		}
	}
	return nil
}

// AddPackage registers a managed package
func (r *MemoryRegistry) AddPackage(pkg *PackageDeclaration) {
	r.packages = append(r.packages, pkg)
}

func (r *MemoryRegistry) add(c *ClassDeclaration, managed bool) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("class declaration must have a name")
	}
	existing, exists := r.classes[c.Name]
	if exists && existing != c && !r.synthesized[c.Name] {
		return fmt.Errorf("class %s is already registered", c.Name)
	}
	for _, m := range c.Members {
		m.declaring = c
	}
	if !exists {
		r.order = append(r.order, c.Name)
	}
	r.classes[c.Name] = c
	delete(r.synthesized, c.Name)
	if managed {
		r.managed[c.Name] = true
	}
	r.linked = false
	return nil
}

// Validate links the registry and reports a supertype cycle
func (r *MemoryRegistry) Validate() error {
	return r.link()
}

// link resolves supertypes and subtype lists. Undeclared supertypes become
// plain classes. A cycle leaves the registry unusable until it is fixed.
func (r *MemoryRegistry) link() error {
	if r.linked {
		return r.linkErr
	}
	r.subtypes = make(map[string][]string)
	// synthesized supertypes are appended to order while iterating
	for i := 0; i < len(r.order); i++ {
		c := r.classes[r.order[i]]
		superName := c.SuperName
		if superName == "" && c.Name != ObjectClassName {
			superName = ObjectClassName
		}
		if superName == "" {
			c.super = nil
			continue
		}
		super, exists := r.classes[superName]
		if !exists {
			super = &ClassDeclaration{Name: superName}
			r.classes[superName] = super
			r.order = append(r.order, superName)
			r.synthesized[superName] = true
		}
		c.super = super
		r.subtypes[superName] = append(r.subtypes[superName], c.Name)
	}
	r.linked = true
	r.linkErr = r.checkCycles()
	return r.linkErr
}

// checkCycles walks every supertype chain once
func (r *MemoryRegistry) checkCycles() error {
	done := make(map[*ClassDeclaration]bool, len(r.order))
	for _, name := range r.order {
		onPath := make(map[*ClassDeclaration]bool)
		var path []string
		for c := r.classes[name]; c != nil && !done[c]; c = c.super {
			if onPath[c] {
				path = append(path, c.Name)
				return fmt.Errorf("%w: %s", ErrSupertypeCycle, strings.Join(path, " -> "))
			}
			onPath[c] = true
			path = append(path, c.Name)
		}
		for c := range onPath {
			done[c] = true
		}
	}
	return nil
}

// ResolveClass implements Registry
func (r *MemoryRegistry) ResolveClass(name string) (*ClassDeclaration, error) {
	if err := r.link(); err != nil {
		return nil, err
	}
	c, exists := r.classes[name]
	if !exists {
		return nil, fmt.Errorf("class %s not found", name)
	}
	return c, nil
}

// ForEachManagedClass implements Registry
func (r *MemoryRegistry) ForEachManagedClass(fn func(*ClassDeclaration) error) error {
	if err := r.link(); err != nil {
		return err
	}
	for _, name := range r.order {
		if !r.managed[name] {
			continue
		}
		if err := fn(r.classes[name]); err != nil {
			return err
		}
	}
	return nil
}

// ForEachDirectSubtype implements Registry
func (r *MemoryRegistry) ForEachDirectSubtype(name string, fn func(*ClassDeclaration) error) error {
	if err := r.link(); err != nil {
		return err
	}
	for _, sub := range r.subtypes[name] {
		if err := fn(r.classes[sub]); err != nil {
			return err
		}
	}
	return nil
}

// ForEachManagedPackage implements Registry
func (r *MemoryRegistry) ForEachManagedPackage(fn func(*PackageDeclaration) error) error {
	for _, pkg := range r.packages {
		if err := fn(pkg); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of registered classes, including synthesized supertypes
func (r *MemoryRegistry) Count() int {
	_ = r.link()
	return len(r.order)
}

// IsManaged reports whether the class was registered as managed
func (r *MemoryRegistry) IsManaged(name string) bool {
	return r.managed[name]
}
