package binder

import (
	"fmt"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/orm/decl"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
	"github.com/conduit-lang/ormbind/internal/orm/mapping"
	"github.com/conduit-lang/ormbind/internal/orm/metamodel"
	"github.com/conduit-lang/ormbind/internal/orm/naming"
)

// Discriminator defaults
const (
	discriminatorDefaultLength = 31
	discriminatorString        = "STRING"
	discriminatorChar          = "CHAR"
	discriminatorInteger       = "INTEGER"
)

// bindRoot produces the root record with its primary table, identifier,
// discriminator, caching settings and mapped-superclass chain
func (b *Binder) bindRoot(h *metamodel.EntityHierarchy, node *metamodel.TypeMetadata) (*mapping.RootClass, error) {
	collector := b.ctx.Collector
	root := mapping.NewRootClass(node.EntityName(), node.JPAEntityName(), node.ClassName(), node.IsAbstract())

	abstractTable := node.IsAbstract() && h.InheritanceType() == metamodel.TablePerClass
	schema, catalog, name := b.tableName(node)
	root.SetTable(collector.AddTable(schema, catalog, name, abstractTable))
	root.InheritanceStrategy = h.InheritanceType().String()

	caching := h.Caching()
	root.Cached = caching.Enabled
	if caching.Enabled {
		root.CacheRegionName = caching.Region
		root.CacheConcurrencyStrategy = caching.Concurrency.String()
		root.CacheLazyProperties = caching.CacheLazyProperties
	}
	if naturalID := h.NaturalIDCaching(); naturalID.Enabled {
		root.NaturalIDCacheRegionName = naturalID.Region
	}

	b.bindMappedSuperclassChain(root, h.SuperNodes(), nil)
	if err := b.bindIdentifier(h, node, root); err != nil {
		return nil, err
	}
	if err := b.bindDiscriminator(h, node, root); err != nil {
		return nil, err
	}
	if err := b.bindSecondaryTables(node, root); err != nil {
		return nil, err
	}
	if err := b.bindDiscriminatorValue(node, root); err != nil {
		return nil, err
	}
	if err := b.register(root); err != nil {
		return nil, err
	}

	b.logger.Debug("bound root entity",
		zap.String("entity", root.EntityName()),
		zap.String("table", root.Table().QualifiedName()),
		zap.Bool("discriminator", root.HasDiscriminator()),
	)
	return root, nil
}

// bindSubclass produces the subclass variant selected by the hierarchy's
// inheritance strategy, attached to the nearest entity record above
func (b *Binder) bindSubclass(h *metamodel.EntityHierarchy, node *metamodel.TypeMetadata) (mapping.PersistentClass, error) {
	collector := b.ctx.Collector

	superNode, passed := node.NearestEntitySuper()
	if superNode == nil {
		return nil, binderrors.NewUnsupported(node.ClassName(), "subclass without an entity superclass")
	}
	// the identifier belongs to the root; one declared further down would be lost
	for _, n := range append([]*metamodel.TypeMetadata{node}, passed...) {
		if ids := n.IdentifierMembers(); len(ids) > 0 {
			return nil, binderrors.NewUnsupported(n.ClassName(), "identifiers declared below the hierarchy root").
				WithAttribute(ids[0].AttributeName())
		}
	}
	super, ok := collector.EntityBinding(superNode.EntityName())
	if !ok {
		return nil, binderrors.NewUnsupported(node.ClassName(),
			fmt.Sprintf("superclass '%s' has not been bound", superNode.EntityName()))
	}

	var sub mapping.PersistentClass
	switch h.InheritanceType() {
	case metamodel.Joined:
		joined, err := b.bindJoinedSubclass(node, super)
		if err != nil {
			return nil, err
		}
		sub = joined
	case metamodel.TablePerClass:
		schema, catalog, name := b.tableName(node)
		table, err := collector.AddDenormalizedTable(schema, catalog, name, node.IsAbstract(), super.Table())
		if err != nil {
			return nil, err
		}
		sub = mapping.NewUnionSubclass(super, node.EntityName(), node.JPAEntityName(), node.ClassName(), node.IsAbstract(), table)
	default:
		sub = mapping.NewDiscriminatedSubclass(super, node.EntityName(), node.JPAEntityName(), node.ClassName(), node.IsAbstract())
	}
	super.AddSubclass(sub)

	b.bindMappedSuperclassChain(sub, passed, super)
	if err := b.bindSecondaryTables(node, sub); err != nil {
		return nil, err
	}
	if err := b.bindDiscriminatorValue(node, sub); err != nil {
		return nil, err
	}
	if err := b.register(sub); err != nil {
		return nil, err
	}

	b.logger.Debug("bound subclass entity",
		zap.String("entity", sub.EntityName()),
		zap.String("kind", sub.Kind().String()),
		zap.String("super", super.EntityName()),
	)
	return sub, nil
}

func (b *Binder) bindJoinedSubclass(node *metamodel.TypeMetadata, super mapping.PersistentClass) (*mapping.JoinedSubclass, error) {
	rootID := super.Root().Identifier
	if rootID == nil || rootID.Value.Column() == nil {
		return nil, binderrors.NewUnsupported(node.ClassName(), "joined subclass of a root without a basic identifier")
	}
	idColumn := rootID.Value.Column()

	schema, catalog, name := b.tableName(node)
	table := b.ctx.Collector.AddTable(schema, catalog, name, false)
	sub := mapping.NewJoinedSubclass(super, node.EntityName(), node.JPAEntityName(), node.ClassName(), node.IsAbstract(), table)

	keyName := b.ctx.Naming.Physical.ColumnName(b.ctx.Naming.Implicit.PrimaryKeyJoinColumnName(idColumn.Name))
	if ann, ok := node.Declaration().Annotation(decl.PrimaryKeyJoinColumn); ok {
		if explicit, ok := ann.String("name"); ok {
			keyName = b.ctx.Naming.Column(explicit)
		}
	}

	key := mapping.NewBasicValue(table, rootID.Value.TypeName)
	column := key.AddColumn(&mapping.Column{
		Name:      keyName,
		Nullable:  false,
		Length:    idColumn.Length,
		Precision: idColumn.Precision,
		Scale:     idColumn.Scale,
		SQLType:   idColumn.SQLType,
	})
	table.SetPrimaryKey(column)
	sub.Key = key
	return sub, nil
}

// bindMappedSuperclassChain records the mapped superclasses passed between
// owner and the entity record above it (nil for the root), nearest first
func (b *Binder) bindMappedSuperclassChain(owner mapping.PersistentClass, passed []*metamodel.TypeMetadata, above mapping.PersistentClass) {
	if len(passed) == 0 {
		return
	}
	var upper *mapping.MappedSuperclass
	for i := len(passed) - 1; i >= 0; i-- {
		ms, ok := b.ctx.Collector.MappedSuperclass(passed[i].ClassName())
		if !ok {
			ms = mapping.NewMappedSuperclass(passed[i].ClassName(), upper, above)
			b.ctx.Collector.AddMappedSuperclass(ms.ClassName, ms)
		}
		upper = ms
	}
	owner.SetSuperMappedSuperclass(upper)
}

// bindIdentifier binds the single basic identifier declared on the root or a
// mapped superclass above it
func (b *Binder) bindIdentifier(h *metamodel.EntityHierarchy, node *metamodel.TypeMetadata, root *mapping.RootClass) error {
	type declared struct {
		member *decl.MemberDeclaration
		owner  *metamodel.TypeMetadata
	}
	var ids []declared
	for _, n := range append([]*metamodel.TypeMetadata{node}, h.SuperNodes()...) {
		for _, m := range n.IdentifierMembers() {
			ids = append(ids, declared{member: m, owner: n})
		}
	}

	switch {
	case len(ids) == 0:
		b.logger.Warn("root entity declares no identifier", zap.String("entity", root.EntityName()))
		return nil
	case len(ids) > 1:
		return binderrors.NewUnsupported(node.ClassName(), "composite identifiers (multiple @Id members)")
	}

	id := ids[0]
	if id.member.HasAnnotation(decl.EmbeddedID) {
		return binderrors.NewUnsupported(node.ClassName(), "embedded identifiers").WithAttribute(id.member.AttributeName())
	}

	columnAnn, present := id.member.Annotation(decl.Column)
	if override, ok := node.AttributeOverride(id.member.AttributeName()); ok {
		columnAnn, present = override.Nested("column", decl.Column)
	}
	spec, err := readColumnSpec(columnAnn, present, node.ClassName(), id.member.AttributeName())
	if err != nil {
		return err
	}
	if spec.table != nil {
		return binderrors.NewUnsupported(node.ClassName(), "identifier columns outside the primary table").WithAttribute(id.member.AttributeName())
	}

	prop, err := b.buildBasicProperty(node, &metamodel.AttributeMetadata{
		Name:   id.member.AttributeName(),
		Nature: metamodel.NatureBasic,
		Member: id.member,
		Access: id.owner.AccessType(),
	}, root.Table(), spec, false)
	if err != nil {
		return err
	}
	prop.Value.Column().Nullable = false
	root.Table().SetPrimaryKey(prop.Value.Column())
	root.Identifier = prop

	if !id.owner.IsEntity() {
		if ms, ok := b.ctx.Collector.MappedSuperclass(id.owner.ClassName()); ok {
			ms.DeclaredIdentifier = prop
		}
	}
	return nil
}

// bindDiscriminator synthesizes the root's discriminator column when it is
// declared, or when a single-table root has subtypes
func (b *Binder) bindDiscriminator(h *metamodel.EntityHierarchy, node *metamodel.TypeMetadata, root *mapping.RootClass) error {
	ann, explicit := node.Declaration().Annotation(decl.DiscriminatorColumn)
	implicit := h.InheritanceType() == metamodel.SingleTable && len(node.Subtypes()) > 0
	if !explicit && !implicit {
		return nil
	}

	nm := b.ctx.Naming
	column := &mapping.Column{
		Name:     nm.Column(nm.Implicit.DiscriminatorColumnName()),
		Nullable: false,
		Length:   discriminatorDefaultLength,
		SQLType:  mapping.TypeVarchar,
	}
	typeName := "string"

	if explicit {
		if name, ok := ann.String("name"); ok {
			column.Name = nm.Column(name)
		}
		switch ann.StringOr("discriminatorType", discriminatorString) {
		case discriminatorChar:
			column.SQLType = mapping.TypeChar
			column.Length = 1
			typeName = "character"
		case discriminatorInteger:
			column.SQLType = mapping.TypeInteger
			column.Length = mapping.DefaultLength
			typeName = "integer"
		default:
			length, err := ann.Int("length")
			if err != nil {
				return binderrors.NewInvalidDirective(node.ClassName(), string(decl.DiscriminatorColumn), err.Error())
			}
			column.Length = valueOr(length, discriminatorDefaultLength)
		}
	}

	value := mapping.NewBasicValue(root.Table(), typeName)
	value.AddColumn(column)
	root.Discriminator = value
	return nil
}

// bindDiscriminatorValue assigns @DiscriminatorValue or the default for the
// discriminator type. Records of roots without a discriminator get none.
func (b *Binder) bindDiscriminatorValue(node *metamodel.TypeMetadata, pc mapping.PersistentClass) error {
	root := pc.Root()
	if root == nil || !root.HasDiscriminator() {
		return nil
	}
	if ann, ok := node.Declaration().Annotation(decl.DiscriminatorValue); ok {
		if value, ok := ann.String("value"); ok {
			pc.SetDiscriminatorValue(value)
			return nil
		}
	}

	name := pc.JPAEntityName()
	switch root.Discriminator.TypeName {
	case "character":
		first, _ := utf8.DecodeRuneInString(name)
		pc.SetDiscriminatorValue(string(first))
	case "integer":
		pc.SetDiscriminatorValue(strconv.Itoa(int(javaStringHash(name))))
	default:
		pc.SetDiscriminatorValue(name)
	}
	return nil
}

// bindSecondaryTables registers each @SecondaryTable and its join keyed by the
// root identifier column
func (b *Binder) bindSecondaryTables(node *metamodel.TypeMetadata, pc mapping.PersistentClass) error {
	for _, ann := range node.Declaration().AnnotationsOf(decl.SecondaryTable) {
		logical, ok := ann.String("name")
		if !ok {
			return binderrors.NewInvalidDirective(node.ClassName(), string(decl.SecondaryTable), "name is required")
		}
		nm := b.ctx.Naming
		table := b.ctx.Collector.AddTable(
			nm.Schema(ann.StringOr("schema", "")),
			nm.Catalog(ann.StringOr("catalog", "")),
			nm.Table(logical),
			false,
		)
		join := mapping.NewJoin(table)
		join.Optional = ann.BoolOr("optional", true)

		if id := pc.Root().Identifier; id != nil && id.Value.Column() != nil {
			idColumn := id.Value.Column()
			key := table.AddColumn(&mapping.Column{
				Name:      idColumn.Name,
				Nullable:  false,
				Length:    idColumn.Length,
				Precision: idColumn.Precision,
				Scale:     idColumn.Scale,
				SQLType:   idColumn.SQLType,
			})
			table.SetPrimaryKey(key)
			join.Key = []*mapping.Column{key}
		}
		pc.AddJoin(join)
	}
	return nil
}

// register adds the record and its import to the collector
func (b *Binder) register(pc mapping.PersistentClass) error {
	if err := b.ctx.Collector.AddEntityBinding(pc); err != nil {
		return err
	}
	return b.ctx.Collector.AddImport(pc.JPAEntityName(), pc.EntityName())
}

// tableName resolves the physical schema, catalog and name of a node's primary table
func (b *Binder) tableName(node *metamodel.TypeMetadata) (schema, catalog, name string) {
	nm := b.ctx.Naming
	ann, ok := node.Declaration().Annotation(decl.Table)
	if !ok {
		ann = decl.Annotation{}
	}
	schema = nm.Schema(ann.StringOr("schema", ""))
	catalog = nm.Catalog(ann.StringOr("catalog", ""))
	if explicit, ok := ann.String("name"); ok {
		name = nm.Table(explicit)
	} else {
		name = nm.ImplicitTable(naming.EntityNamingSource{
			ClassName:     node.ClassName(),
			EntityName:    node.EntityName(),
			JPAEntityName: node.JPAEntityName(),
		})
	}
	return schema, catalog, name
}

// javaStringHash is the 32-bit string hash the INTEGER discriminator default is
// derived from, computed over UTF-16 code units
func javaStringHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}
