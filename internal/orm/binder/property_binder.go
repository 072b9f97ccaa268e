package binder

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/orm/decl"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
	"github.com/conduit-lang/ormbind/internal/orm/mapping"
	"github.com/conduit-lang/ormbind/internal/orm/metamodel"
)

// bindHierarchyAttributes binds the attributes of every node once all entity
// records and their secondary tables exist
func (b *Binder) bindHierarchyAttributes(h *metamodel.EntityHierarchy) error {
	rootNode := h.Root()
	pc, ok := b.ctx.Collector.EntityBinding(rootNode.EntityName())
	if !ok {
		return binderrors.NewUnsupported(rootNode.ClassName(), "root entity has not been bound")
	}
	root := pc.Root()

	supers := h.SuperNodes()
	for i := len(supers) - 1; i >= 0; i-- {
		if err := b.bindDeclaredAttributes(root, rootNode, supers[i], false); err != nil {
			return err
		}
	}
	if err := b.bindDeclaredAttributes(root, rootNode, rootNode, false); err != nil {
		return err
	}

	forceNullable := h.InheritanceType() == metamodel.SingleTable
	for _, node := range h.Entities() {
		if node.IsRoot() {
			continue
		}
		owner, ok := b.ctx.Collector.EntityBinding(node.EntityName())
		if !ok {
			return binderrors.NewUnsupported(node.ClassName(), "subclass entity has not been bound")
		}
		_, passed := node.NearestEntitySuper()
		for i := len(passed) - 1; i >= 0; i-- {
			if err := b.bindDeclaredAttributes(owner, node, passed[i], forceNullable); err != nil {
				return err
			}
		}
		if err := b.bindDeclaredAttributes(owner, node, node, forceNullable); err != nil {
			return err
		}
	}
	return nil
}

// bindDeclaredAttributes binds the attributes declared by one node onto the
// record of entity. Attributes declared by a mapped superclass are also
// recorded on its mapped-superclass record.
func (b *Binder) bindDeclaredAttributes(owner mapping.PersistentClass, entity, declaring *metamodel.TypeMetadata, forceNullable bool) error {
	var ms *mapping.MappedSuperclass
	if !declaring.IsEntity() {
		ms, _ = b.ctx.Collector.MappedSuperclass(declaring.ClassName())
	}

	for _, attr := range declaring.Attributes() {
		prop, err := b.bindProperty(owner, entity, attr, forceNullable)
		if err != nil {
			return err
		}
		if ms != nil && !ms.HasDeclaredProperty(prop.Name) {
			ms.AddDeclaredProperty(prop)
		}

		if attr.IsVersion() {
			if owner.Kind() != mapping.KindRoot {
				return binderrors.NewUnsupported(declaring.ClassName(), "version attributes below the hierarchy root").WithAttribute(attr.Name)
			}
			owner.Root().Version = prop
			if ms != nil {
				ms.DeclaredVersion = prop
			}
		}
	}
	return nil
}

// bindProperty binds one attribute of entity onto owner. Only basic
// attributes are bound; other natures fail as unsupported.
func (b *Binder) bindProperty(owner mapping.PersistentClass, entity *metamodel.TypeMetadata, attr *metamodel.AttributeMetadata, forceNullable bool) (*mapping.Property, error) {
	if attr.Nature != metamodel.NatureBasic {
		return nil, binderrors.NewUnsupported(entity.ClassName(), fmt.Sprintf("%s attributes", attr.Nature)).WithAttribute(attr.Name)
	}

	columnAnn, present := attr.Member.Annotation(decl.Column)
	if override, ok := entity.AttributeOverride(attr.Name); ok {
		columnAnn, present = override.Nested("column", decl.Column)
	}
	spec, err := readColumnSpec(columnAnn, present, entity.ClassName(), attr.Name)
	if err != nil {
		return nil, err
	}

	table := owner.Table()
	if spec.table != nil && *spec.table != "" {
		located, ok := owner.LocateTable(b.ctx.Naming.Table(*spec.table))
		if !ok {
			return nil, binderrors.NewUnknownTable(entity.ClassName(), attr.Name, *spec.table)
		}
		table = located
	}

	nullable := true
	if basic, ok := attr.Member.Annotation(decl.Basic); ok {
		nullable = basic.BoolOr("optional", true)
	}

	prop, err := b.buildBasicProperty(entity, attr, table, spec, nullable)
	if err != nil {
		return nil, err
	}
	if forceNullable {
		prop.Value.Column().Nullable = true
	}

	if table == owner.Table() {
		owner.AddProperty(prop)
	} else {
		join, ok := mapping.JoinForTable(owner, table)
		if !ok {
			return nil, binderrors.NewUnknownTable(entity.ClassName(), attr.Name, table.Name)
		}
		join.AddProperty(prop)
	}

	b.logger.Debug("bound property",
		zap.String("entity", owner.EntityName()),
		zap.String("property", prop.Name),
		zap.String("table", table.Name),
		zap.String("column", prop.Value.Column().Name),
	)
	return prop, nil
}

// buildBasicProperty creates the value, column and property of a basic attribute bound to table
func (b *Binder) buildBasicProperty(entity *metamodel.TypeMetadata, attr *metamodel.AttributeMetadata, table *mapping.Table, spec columnSpec, nullableDefault bool) (*mapping.Property, error) {
	member := attr.Member

	name := b.ctx.Naming.ImplicitColumn(attr.Name)
	if spec.name != nil && *spec.name != "" {
		name = b.ctx.Naming.Column(*spec.name)
	}
	sqlType, known := b.ctx.Types.Resolve(member.Type)
	if !known {
		b.logger.Debug("unknown basic type", zap.String("type", member.Type), zap.String("attribute", attr.Name))
	}

	value := mapping.NewBasicValue(table, b.ctx.Types.TypeName(member.Type))
	value.AddColumn(spec.column(name, nullableDefault, sqlType))

	converter, err := b.resolveConverter(entity, attr)
	if err != nil {
		return nil, err
	}
	value.Converter = converter

	prop := &mapping.Property{
		Name:             attr.Name,
		Value:            value,
		Insertable:       valueOr(spec.insertable, true),
		Updatable:        valueOr(spec.updatable, true),
		OptimisticLocked: true,
		NaturalID:        attr.IsNaturalID(),
		AccessStrategy:   attr.Access.String(),
	}
	if declaring := member.DeclaringClass(); declaring != nil {
		prop.DeclaringClass = declaring.Name
	}
	if lock, ok := member.Annotation(decl.OptimisticLock); ok && lock.BoolOr("excluded", false) {
		prop.OptimisticLocked = false
	}
	if basic, ok := member.Annotation(decl.Basic); ok && strings.EqualFold(basic.StringOr("fetch", "EAGER"), "LAZY") {
		prop.Lazy = true
	}
	return prop, nil
}

// resolveConverter returns the converter class applied to attr: the entity's
// conversion override, else an auto-apply converter for the attribute type
func (b *Binder) resolveConverter(entity *metamodel.TypeMetadata, attr *metamodel.AttributeMetadata) (string, error) {
	convert, ok := entity.ConversionOverride(attr.Name)
	if !ok {
		convert, ok = attr.Member.Annotation(decl.Convert)
	}
	if ok {
		disabled, err := convert.Bool("disableConversion")
		if err != nil {
			return "", binderrors.NewInvalidDirective(entity.ClassName(), string(decl.Convert), err.Error()).WithAttribute(attr.Name)
		}
		if valueOr(disabled, false) {
			return "", nil
		}
		if converter, ok := convert.String("converter"); ok {
			return converter, nil
		}
	}
	converter, _ := b.ctx.Collector.AutoApplyConverterFor(attr.Member.Type)
	return converter, nil
}
