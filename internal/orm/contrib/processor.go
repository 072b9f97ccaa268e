// Package contrib scans managed classes and packages once for directives that
// do not depend on any entity hierarchy: identifier generators, named queries,
// type registrations, filter definitions and attribute converters.
package contrib

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/orm/decl"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
	"github.com/conduit-lang/ormbind/internal/orm/mapping"
	"github.com/conduit-lang/ormbind/internal/orm/types"
)

// Processor feeds global contributions into the collector
type Processor struct {
	registry  decl.Registry
	collector *mapping.Collector
	types     *types.Resolver
	logger    *zap.Logger
}

// NewProcessor creates a processor writing into collector and resolver
func NewProcessor(registry decl.Registry, collector *mapping.Collector, resolver *types.Resolver, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		registry:  registry,
		collector: collector,
		types:     resolver,
		logger:    logger,
	}
}

// Process visits every managed package, then every managed class and its members
func (p *Processor) Process() error {
	err := p.registry.ForEachManagedPackage(func(pkg *decl.PackageDeclaration) error {
		return p.processAnnotated(pkg, pkg.Name)
	})
	if err != nil {
		return err
	}

	return p.registry.ForEachManagedClass(func(c *decl.ClassDeclaration) error {
		if err := p.processAnnotated(c, c.Name); err != nil {
			return err
		}
		for _, m := range c.Members {
			if err := p.processGenerators(m, c.Name+"."+m.Name); err != nil {
				return err
			}
		}
		return p.processConverter(c)
	})
}

func (p *Processor) processAnnotated(a decl.Annotated, source string) error {
	if err := p.processGenerators(a, source); err != nil {
		return err
	}
	if err := p.processNamedQueries(a, source); err != nil {
		return err
	}
	if err := p.processTypeRegistrations(a, source); err != nil {
		return err
	}
	return p.processFilterDefinitions(a, source)
}

func (p *Processor) processGenerators(a decl.Annotated, source string) error {
	for _, ann := range decl.FindAnnotations(a, decl.SequenceGenerator) {
		params := map[string]string{}
		copyAttr(params, ann, "sequenceName", "schema", "catalog", "initialValue", "allocationSize")
		if err := p.addGenerator(ann, "sequence", params, source); err != nil {
			return err
		}
	}
	for _, ann := range decl.FindAnnotations(a, decl.TableGenerator) {
		params := map[string]string{}
		copyAttr(params, ann, "table", "schema", "catalog", "pkColumnName", "valueColumnName", "pkColumnValue", "initialValue", "allocationSize")
		if err := p.addGenerator(ann, "table", params, source); err != nil {
			return err
		}
	}
	for _, ann := range decl.FindAnnotations(a, decl.GenericGenerator) {
		strategy, ok := ann.String("strategy")
		if !ok {
			return binderrors.NewInvalidDirective(source, string(decl.GenericGenerator), "strategy is required")
		}
		if err := p.addGenerator(ann, strategy, stringMap(ann, "parameters"), source); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) addGenerator(ann decl.Annotation, strategy string, params map[string]string, source string) error {
	name, ok := ann.String("name")
	if !ok {
		return binderrors.NewInvalidDirective(source, string(ann.Kind), "name is required")
	}
	if err := p.collector.AddIdentifierGenerator(&mapping.GeneratorDefinition{
		Name:       name,
		Strategy:   strategy,
		Parameters: params,
		Source:     source,
	}); err != nil {
		return err
	}
	p.logger.Debug("registered identifier generator", zap.String("name", name), zap.String("strategy", strategy))
	return nil
}

func (p *Processor) processNamedQueries(a decl.Annotated, source string) error {
	for _, kind := range []decl.AnnotationKind{decl.NamedQuery, decl.NamedNativeQuery} {
		for _, ann := range decl.FindAnnotations(a, kind) {
			name, ok := ann.String("name")
			if !ok {
				return binderrors.NewInvalidDirective(source, string(kind), "name is required")
			}
			query, ok := ann.String("query")
			if !ok {
				return binderrors.NewInvalidDirective(source, string(kind), fmt.Sprintf("query '%s' has no query string", name))
			}
			if err := p.collector.AddNamedQuery(&mapping.NamedQueryDefinition{
				Name:        name,
				Query:       query,
				Native:      kind == decl.NamedNativeQuery,
				ResultClass: ann.StringOr("resultClass", ""),
				Source:      source,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Processor) processTypeRegistrations(a decl.Annotated, source string) error {
	for _, ann := range decl.FindAnnotations(a, decl.TypeRegistration) {
		javaType, ok := ann.String("basicClass")
		if !ok {
			return binderrors.NewInvalidDirective(source, string(decl.TypeRegistration), "basicClass is required")
		}
		userType, ok := ann.String("userType")
		if !ok {
			return binderrors.NewInvalidDirective(source, string(decl.TypeRegistration), "userType is required")
		}
		if err := p.types.RegisterUserType(javaType, userType); err != nil {
			return binderrors.NewDuplicateMapping("type registration", javaType).WithCause(err)
		}
		p.collector.AddTypeRegistration(&mapping.TypeRegistration{
			JavaType: javaType,
			UserType: userType,
			Source:   source,
		})
	}
	return nil
}

func (p *Processor) processFilterDefinitions(a decl.Annotated, source string) error {
	for _, ann := range decl.FindAnnotations(a, decl.FilterDef) {
		name, ok := ann.String("name")
		if !ok {
			return binderrors.NewInvalidDirective(source, string(decl.FilterDef), "name is required")
		}
		if err := p.collector.AddFilterDefinition(&mapping.FilterDefinition{
			Name:             name,
			DefaultCondition: ann.StringOr("defaultCondition", ""),
			Parameters:       stringMap(ann, "parameters"),
			Source:           source,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) processConverter(c *decl.ClassDeclaration) error {
	ann, ok := c.Annotation(decl.Converter)
	if !ok {
		return nil
	}
	autoApply, err := ann.Bool("autoApply")
	if err != nil {
		return binderrors.NewInvalidDirective(c.Name, string(decl.Converter), err.Error())
	}
	p.collector.AddAttributeConverter(&mapping.ConverterRegistration{
		ClassName:     c.Name,
		AttributeType: ann.StringOr("attributeType", ""),
		AutoApply:     autoApply != nil && *autoApply,
	})
	return nil
}

func copyAttr(dst map[string]string, ann decl.Annotation, names ...string) {
	for _, name := range names {
		if v, ok := ann.String(name); ok {
			dst[name] = v
		}
	}
}

// stringMap reads a map-valued attribute
func stringMap(ann decl.Annotation, name string) map[string]string {
	out := map[string]string{}
	nested, ok := ann.Nested(name, ann.Kind)
	if !ok {
		return out
	}
	for k := range nested.Attrs {
		out[k] = nested.StringOr(k, "")
	}
	return out
}
