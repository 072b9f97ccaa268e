package binder

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/ormbind/internal/orm/decl"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
	"github.com/conduit-lang/ormbind/internal/orm/mapping"
	"github.com/conduit-lang/ormbind/internal/orm/metamodel"
)

func ann(kind decl.AnnotationKind, kv ...interface{}) decl.Annotation {
	return decl.NewAnnotation(kind, kv...)
}

func anns(a ...decl.Annotation) []decl.Annotation {
	return a
}

func field(name, typ string, a ...decl.Annotation) *decl.MemberDeclaration {
	return &decl.MemberDeclaration{Name: name, Kind: decl.MemberField, Type: typ, Annotations: a}
}

func bind(t *testing.T, options metamodel.Options, classes ...*decl.ClassDeclaration) *BuildingContext {
	t.Helper()
	ctx, err := tryBind(options, classes...)
	require.NoError(t, err)
	return ctx
}

func tryBind(options metamodel.Options, classes ...*decl.ClassDeclaration) (*BuildingContext, error) {
	registry := decl.NewMemoryRegistry()
	if err := registry.AddManaged(classes...); err != nil {
		return nil, err
	}
	ctx := NewBuildingContext(registry, options)
	return ctx, BindBootModel(ManagedResources{}, ctx)
}

func entity(t *testing.T, ctx *BuildingContext, name string) mapping.PersistentClass {
	t.Helper()
	pc, ok := ctx.Collector.EntityBinding(name)
	require.True(t, ok, "entity %s not bound", name)
	return pc
}

func columnNames(table *mapping.Table) []string {
	var names []string
	for _, c := range table.Columns() {
		names = append(names, c.Name)
	}
	return names
}

func TestBind_SingleTable(t *testing.T) {
	ctx := bind(t, metamodel.Options{},
		decl.NewClass("Animal", "", anns(ann(decl.Entity)),
			field("id", "long", ann(decl.ID)),
			field("name", "java.lang.String"),
		),
		decl.NewClass("Dog", "Animal", anns(ann(decl.Entity)),
			field("barks", "boolean"),
		),
	)

	root, ok := entity(t, ctx, "Animal").(*mapping.RootClass)
	require.True(t, ok)
	assert.Equal(t, "single_table", root.InheritanceStrategy)
	assert.Equal(t, "Animal", root.Table().Name)
	assert.Equal(t, []string{"id", "DTYPE", "name", "barks"}, columnNames(root.Table()))

	require.NotNil(t, root.Identifier)
	assert.Equal(t, "id", root.Identifier.Name)
	idColumn := root.Identifier.Value.Column()
	assert.False(t, idColumn.Nullable)
	assert.Equal(t, mapping.TypeBigInt, idColumn.SQLType)
	require.NotNil(t, root.Table().PrimaryKey)
	assert.Equal(t, []*mapping.Column{idColumn}, root.Table().PrimaryKey.Columns)

	require.True(t, root.HasDiscriminator())
	dtype := root.Discriminator.Column()
	assert.Equal(t, "DTYPE", dtype.Name)
	assert.False(t, dtype.Nullable)
	assert.Equal(t, 31, dtype.Length)
	assert.Equal(t, "Animal", root.DiscriminatorValue())

	dog := entity(t, ctx, "Dog")
	assert.Equal(t, mapping.KindDiscriminatedSubclass, dog.Kind())
	assert.Same(t, root.Table(), dog.Table())
	assert.Same(t, root, dog.Superclass())
	assert.Equal(t, "Dog", dog.DiscriminatorValue())
	require.Len(t, root.Subclasses(), 1)

	barks, ok := dog.Property("barks")
	require.True(t, ok)
	assert.True(t, barks.Value.Column().Nullable)
	assert.Equal(t, "Dog", barks.DeclaringClass)
	assert.Equal(t, "field", barks.AccessStrategy)

	name, ok := root.Property("name")
	require.True(t, ok)
	assert.True(t, name.Insertable)
	assert.True(t, name.Updatable)
	assert.Equal(t, 255, name.Value.Column().Length)
	_, onRoot := root.Property("barks")
	assert.False(t, onRoot)

	imported, ok := ctx.Collector.ResolveImport("Dog")
	assert.True(t, ok)
	assert.Equal(t, "Dog", imported)
}

func TestBind_MappedSuperclassAndJoined(t *testing.T) {
	ctx := bind(t, metamodel.Options{},
		decl.NewClass("BaseEntity", "", anns(ann(decl.MappedSuperclass)),
			field("id", "long", ann(decl.ID)),
			field("revision", "int", ann(decl.Version)),
		),
		decl.NewClass("Animal", "BaseEntity", anns(
			ann(decl.Entity),
			ann(decl.Inheritance, "strategy", "JOINED"),
		),
			field("name", "java.lang.String"),
		),
		decl.NewClass("Dog", "Animal", anns(
			ann(decl.Entity),
			ann(decl.PrimaryKeyJoinColumn, "name", "animal_id"),
		),
			field("breed", "java.lang.String"),
		),
	)

	root := entity(t, ctx, "Animal").Root()
	assert.Equal(t, "joined", root.InheritanceStrategy)
	assert.False(t, root.HasDiscriminator())
	assert.Equal(t, []string{"id", "revision", "name"}, columnNames(root.Table()))

	ms, ok := ctx.Collector.MappedSuperclass("BaseEntity")
	require.True(t, ok)
	assert.Same(t, ms, root.SuperMappedSuperclass())
	assert.Nil(t, ms.SuperPersistentClass)
	assert.Same(t, root.Identifier, ms.DeclaredIdentifier)
	require.NotNil(t, root.Version)
	assert.Same(t, root.Version, ms.DeclaredVersion)
	assert.True(t, ms.HasDeclaredProperty("revision"))
	assert.False(t, ms.HasDeclaredProperty("name"))

	dog, ok := entity(t, ctx, "Dog").(*mapping.JoinedSubclass)
	require.True(t, ok)
	assert.Equal(t, "Dog", dog.Table().Name)
	assert.Equal(t, []string{"animal_id", "breed"}, columnNames(dog.Table()))
	require.NotNil(t, dog.Key)
	assert.Equal(t, mapping.TypeBigInt, dog.Key.Column().SQLType)
	require.NotNil(t, dog.Table().PrimaryKey)
	assert.Equal(t, "animal_id", dog.Table().PrimaryKey.Columns[0].Name)

	breed, ok := dog.Property("breed")
	require.True(t, ok)
	assert.Same(t, dog.Table(), breed.Value.Table)
	assert.True(t, breed.Value.Column().Nullable)
}

func TestBind_MappedSuperclassBetweenEntities(t *testing.T) {
	ctx := bind(t, metamodel.Options{},
		decl.NewClass("Animal", "", anns(ann(decl.Entity)),
			field("id", "long", ann(decl.ID)),
		),
		decl.NewClass("Pet", "Animal", anns(ann(decl.MappedSuperclass)),
			field("nickname", "java.lang.String", ann(decl.Column, "nullable", false)),
		),
		decl.NewClass("Dog", "Pet", anns(ann(decl.Entity))),
		decl.NewClass("Cat", "Pet", anns(ann(decl.Entity))),
	)

	root := entity(t, ctx, "Animal").Root()
	pet, ok := ctx.Collector.MappedSuperclass("Pet")
	require.True(t, ok)
	assert.Same(t, root, pet.SuperPersistentClass)
	require.Len(t, pet.DeclaredProperties(), 1)

	for _, name := range []string{"Dog", "Cat"} {
		sub := entity(t, ctx, name)
		assert.Same(t, pet, sub.SuperMappedSuperclass())
		nickname, ok := sub.Property("nickname")
		require.True(t, ok, name)
		assert.True(t, nickname.Value.Column().Nullable, "single-table subclass columns are nullable")
	}
}

func TestBind_TablePerClass(t *testing.T) {
	animal := decl.NewClass("Animal", "", anns(
		ann(decl.Entity),
		ann(decl.Inheritance, "strategy", "TABLE_PER_CLASS"),
	), field("id", "long", ann(decl.ID)))
	animal.Abstract = true

	ctx := bind(t, metamodel.Options{},
		animal,
		decl.NewClass("Dog", "Animal", anns(ann(decl.Entity)),
			field("breed", "java.lang.String"),
		),
	)

	root := entity(t, ctx, "Animal").Root()
	assert.True(t, root.IsAbstract())
	assert.True(t, root.Table().Abstract)
	assert.False(t, root.HasDiscriminator())

	dog, ok := entity(t, ctx, "Dog").(*mapping.UnionSubclass)
	require.True(t, ok)
	assert.Same(t, root.Table(), dog.Table().IncludedTable)

	var all []string
	for _, c := range dog.Table().AllColumns() {
		all = append(all, c.Name)
	}
	assert.Equal(t, []string{"id", "breed"}, all)
}

func TestBind_SecondaryTableRouting(t *testing.T) {
	ctx := bind(t, metamodel.Options{},
		decl.NewClass("Animal", "", anns(
			ann(decl.Entity),
			ann(decl.SecondaryTable, "name", "AUX"),
		),
			field("id", "long", ann(decl.ID)),
			field("name", "java.lang.String"),
			field("notes", "java.lang.String", ann(decl.Column, "table", "AUX", "length", 4000)),
		),
	)

	root := entity(t, ctx, "Animal").Root()
	_, onRoot := root.Property("notes")
	assert.False(t, onRoot)
	assert.Equal(t, []string{"id", "name"}, columnNames(root.Table()))

	require.Len(t, root.Joins(), 1)
	join := root.Joins()[0]
	assert.Equal(t, "AUX", join.Table.Name)
	assert.True(t, join.Optional)
	notes, ok := join.Property("notes")
	require.True(t, ok)
	assert.Equal(t, 4000, notes.Value.Column().Length)
	assert.Equal(t, []string{"id", "notes"}, columnNames(join.Table))
	require.Len(t, join.Key, 1)
	assert.Equal(t, "id", join.Key[0].Name)

	_, registered := ctx.Collector.Table("AUX")
	assert.True(t, registered)
}

func TestBind_UnknownSecondaryTable(t *testing.T) {
	_, err := tryBind(metamodel.Options{},
		decl.NewClass("Animal", "", anns(ann(decl.Entity)),
			field("id", "long", ann(decl.ID)),
			field("notes", "java.lang.String", ann(decl.Column, "table", "AUX")),
		),
	)
	require.Error(t, err)
	assert.True(t, binderrors.HasCode(err, binderrors.ErrUnknownTable))
}

func TestBind_Discriminator(t *testing.T) {
	tests := []struct {
		name          string
		annotations   []decl.Annotation
		subtype       bool
		expectPresent bool
		expectColumn  string
		expectType    mapping.SQLType
		expectLength  int
		expectValue   string
	}{
		{
			name:          "single table root without subtypes",
			annotations:   anns(ann(decl.Entity, "name", "A")),
			expectPresent: false,
		},
		{
			name:          "single table root with a subtype",
			annotations:   anns(ann(decl.Entity, "name", "A")),
			subtype:       true,
			expectPresent: true,
			expectColumn:  "DTYPE",
			expectType:    mapping.TypeVarchar,
			expectLength:  31,
			expectValue:   "A",
		},
		{
			name:          "explicit string column length",
			annotations:   anns(ann(decl.Entity, "name", "A"), ann(decl.DiscriminatorColumn, "length", 10)),
			expectPresent: true,
			expectColumn:  "DTYPE",
			expectType:    mapping.TypeVarchar,
			expectLength:  10,
			expectValue:   "A",
		},
		{
			name:          "explicit char column",
			annotations:   anns(ann(decl.Entity, "name", "Apple"), ann(decl.DiscriminatorColumn, "discriminatorType", "CHAR")),
			expectPresent: true,
			expectColumn:  "DTYPE",
			expectType:    mapping.TypeChar,
			expectLength:  1,
			expectValue:   "A",
		},
		{
			name:          "char value keeps a multibyte first character whole",
			annotations:   anns(ann(decl.Entity, "name", "Ärger"), ann(decl.DiscriminatorColumn, "discriminatorType", "CHAR")),
			expectPresent: true,
			expectColumn:  "DTYPE",
			expectType:    mapping.TypeChar,
			expectLength:  1,
			expectValue:   "Ä",
		},
		{
			name:          "explicit integer column",
			annotations:   anns(ann(decl.Entity, "name", "A"), ann(decl.DiscriminatorColumn, "discriminatorType", "INTEGER")),
			expectPresent: true,
			expectColumn:  "DTYPE",
			expectType:    mapping.TypeInteger,
			expectLength:  mapping.DefaultLength,
			expectValue:   "65",
		},
		{
			name:          "integer value hashes UTF-16 code units",
			annotations:   anns(ann(decl.Entity, "name", "😀"), ann(decl.DiscriminatorColumn, "discriminatorType", "INTEGER")),
			expectPresent: true,
			expectColumn:  "DTYPE",
			expectType:    mapping.TypeInteger,
			expectLength:  mapping.DefaultLength,
			expectValue:   "1772899",
		},
		{
			name: "explicit value",
			annotations: anns(
				ann(decl.Entity, "name", "A"),
				ann(decl.DiscriminatorColumn, "name", "kind"),
				ann(decl.DiscriminatorValue, "value", "alpha"),
			),
			expectPresent: true,
			expectColumn:  "kind",
			expectType:    mapping.TypeVarchar,
			expectLength:  31,
			expectValue:   "alpha",
		},
		{
			name:          "joined root with a subtype",
			annotations:   anns(ann(decl.Entity, "name", "A"), ann(decl.Inheritance, "strategy", "JOINED")),
			subtype:       true,
			expectPresent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classes := []*decl.ClassDeclaration{
				decl.NewClass("com.acme.Root", "", tt.annotations, field("id", "long", ann(decl.ID))),
			}
			if tt.subtype {
				classes = append(classes, decl.NewClass("com.acme.Sub", "com.acme.Root", anns(ann(decl.Entity))))
			}
			ctx := bind(t, metamodel.Options{}, classes...)

			root := entity(t, ctx, "com.acme.Root").Root()
			assert.Equal(t, tt.expectPresent, root.HasDiscriminator())
			if !tt.expectPresent {
				assert.Empty(t, root.DiscriminatorValue())
				return
			}
			column := root.Discriminator.Column()
			assert.Equal(t, tt.expectColumn, column.Name)
			assert.Equal(t, tt.expectType, column.SQLType)
			assert.Equal(t, tt.expectLength, column.Length)
			assert.False(t, column.Nullable)
			assert.Equal(t, tt.expectValue, root.DiscriminatorValue())
			assert.True(t, utf8.ValidString(root.DiscriminatorValue()))
		})
	}
}

func TestJavaStringHash(t *testing.T) {
	tests := []struct {
		input    string
		expected int32
	}{
		{"", 0},
		{"A", 65},
		{"Dog", 68892},
		{"Ärger", 184508518},
		{"😀", 1772899},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, javaStringHash(tt.input))
		})
	}
}

func TestBind_PropertyDirectives(t *testing.T) {
	ctx := bind(t, metamodel.Options{},
		decl.NewClass("com.acme.YesNo", "", anns(ann(decl.Converter, "autoApply", true, "attributeType", "boolean"))),
		decl.NewClass("Animal", "", anns(
			ann(decl.Entity),
			ann(decl.AttributeOverride, "name", "name", "column", map[string]interface{}{"name": "animal_name", "length": 80}),
		),
			field("id", "long", ann(decl.ID)),
			field("name", "java.lang.String"),
			field("tag", "java.lang.String", ann(decl.Basic, "optional", false, "fetch", "LAZY"), ann(decl.NaturalID)),
			field("alive", "boolean"),
			field("tame", "boolean", ann(decl.Convert, "disableConversion", true)),
			field("weight", "double", ann(decl.OptimisticLock, "excluded", true), ann(decl.Column, "insertable", false, "updatable", false)),
		),
	)

	root := entity(t, ctx, "Animal").Root()

	name, ok := root.Property("name")
	require.True(t, ok)
	assert.Equal(t, "animal_name", name.Value.Column().Name)
	assert.Equal(t, 80, name.Value.Column().Length)

	tag, _ := root.Property("tag")
	assert.False(t, tag.Value.Column().Nullable)
	assert.True(t, tag.Lazy)
	assert.True(t, tag.NaturalID)

	alive, _ := root.Property("alive")
	assert.Equal(t, "com.acme.YesNo", alive.Value.Converter)
	tame, _ := root.Property("tame")
	assert.Empty(t, tame.Value.Converter)

	weight, _ := root.Property("weight")
	assert.False(t, weight.OptimisticLocked)
	assert.False(t, weight.Insertable)
	assert.False(t, weight.Updatable)
	assert.Equal(t, mapping.TypeDouble, weight.Value.Column().SQLType)
}

func TestBind_Caching(t *testing.T) {
	ctx := bind(t, metamodel.Options{SharedCacheMode: metamodel.CacheModeAll},
		decl.NewClass("Animal", "", anns(ann(decl.Entity)),
			field("id", "long", ann(decl.ID)),
		),
	)

	root := entity(t, ctx, "Animal").Root()
	assert.True(t, root.Cached)
	assert.Equal(t, "Animal", root.CacheRegionName)
	assert.Equal(t, "read_write", root.CacheConcurrencyStrategy)
	assert.Equal(t, "Animal##NaturalId", root.NaturalIDCacheRegionName)
}

func TestBind_Unsupported(t *testing.T) {
	tests := []struct {
		name    string
		classes []*decl.ClassDeclaration
	}{
		{
			name: "to-one attribute",
			classes: []*decl.ClassDeclaration{
				decl.NewClass("Animal", "", anns(ann(decl.Entity)),
					field("id", "long", ann(decl.ID)),
					field("owner", "Person", ann(decl.ManyToOne)),
				),
			},
		},
		{
			name: "embedded identifier",
			classes: []*decl.ClassDeclaration{
				decl.NewClass("Animal", "", anns(ann(decl.Entity)),
					field("id", "AnimalKey", ann(decl.EmbeddedID)),
				),
			},
		},
		{
			name: "identifier on a subclass entity",
			classes: []*decl.ClassDeclaration{
				decl.NewClass("Animal", "", anns(ann(decl.Entity)), field("id", "long", ann(decl.ID))),
				decl.NewClass("Dog", "Animal", anns(ann(decl.Entity)), field("tag", "long", ann(decl.ID))),
			},
		},
		{
			name: "identifier on a mapped superclass between entities",
			classes: []*decl.ClassDeclaration{
				decl.NewClass("Animal", "", anns(ann(decl.Entity)), field("id", "long", ann(decl.ID))),
				decl.NewClass("Pet", "Animal", anns(ann(decl.MappedSuperclass)), field("tag", "long", ann(decl.ID))),
				decl.NewClass("Dog", "Pet", anns(ann(decl.Entity))),
			},
		},
		{
			name: "composite identifier",
			classes: []*decl.ClassDeclaration{
				decl.NewClass("Animal", "", anns(ann(decl.Entity)),
					field("zoo", "long", ann(decl.ID)),
					field("number", "long", ann(decl.ID)),
				),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tryBind(metamodel.Options{}, tt.classes...)
			require.Error(t, err)
			assert.True(t, binderrors.IsUnsupported(err), err.Error())
		})
	}
}

func TestBind_IdentifierBelowRoot(t *testing.T) {
	_, err := tryBind(metamodel.Options{},
		decl.NewClass("Animal", "", anns(ann(decl.Entity)), field("id", "long", ann(decl.ID))),
		decl.NewClass("Pet", "Animal", anns(ann(decl.MappedSuperclass)), field("tag", "long", ann(decl.ID))),
		decl.NewClass("Dog", "Pet", anns(ann(decl.Entity))),
	)
	require.Error(t, err)
	be, ok := binderrors.AsBindError(err)
	require.True(t, ok)
	assert.Equal(t, binderrors.ErrUnsupported, be.Code)
	assert.Equal(t, "Pet", be.ClassName)
	assert.Equal(t, "tag", be.Attribute)
}

func TestBind_SupertypeCycle(t *testing.T) {
	_, err := tryBind(metamodel.Options{},
		decl.NewClass("A", "B", anns(ann(decl.Entity)), field("id", "long", ann(decl.ID))),
		decl.NewClass("B", "C", nil),
		decl.NewClass("C", "B", nil),
	)
	require.Error(t, err)
	assert.True(t, binderrors.HasCode(err, binderrors.ErrInvalidHierarchy))
	assert.ErrorIs(t, err, decl.ErrSupertypeCycle)
}

func TestBinder_Lifecycle(t *testing.T) {
	t.Run("second bind fails", func(t *testing.T) {
		registry := decl.NewMemoryRegistry()
		require.NoError(t, registry.AddManaged(
			decl.NewClass("Animal", "", anns(ann(decl.Entity)), field("id", "long", ann(decl.ID))),
		))
		b := New(NewBuildingContext(registry, metamodel.Options{}))
		require.NoError(t, b.Bind(ManagedResources{}))
		require.Len(t, b.Hierarchies(), 1)

		err := b.Bind(ManagedResources{})
		require.Error(t, err)
		assert.True(t, binderrors.HasCode(err, binderrors.ErrAlreadyBound))
	})

	t.Run("xml bindings are unsupported", func(t *testing.T) {
		ctx := NewBuildingContext(decl.NewMemoryRegistry(), metamodel.Options{})
		err := BindBootModel(ManagedResources{XMLBindings: []string{"orm.xml"}}, ctx)
		require.Error(t, err)
		assert.True(t, binderrors.IsUnsupported(err))
	})

	t.Run("unresolved class name", func(t *testing.T) {
		ctx := NewBuildingContext(decl.NewMemoryRegistry(), metamodel.Options{})
		err := BindBootModel(ManagedResources{ClassNames: []string{"Missing"}}, ctx)
		require.Error(t, err)
		assert.True(t, binderrors.HasCode(err, binderrors.ErrUnresolvedClass))
	})

	t.Run("class refs are registered", func(t *testing.T) {
		ctx := NewBuildingContext(decl.NewMemoryRegistry(), metamodel.Options{})
		err := BindBootModel(ManagedResources{ClassRefs: []*decl.ClassDeclaration{
			decl.NewClass("Animal", "", anns(ann(decl.Entity)), field("id", "long", ann(decl.ID))),
		}}, ctx)
		require.NoError(t, err)
		_, ok := ctx.Collector.EntityBinding("Animal")
		assert.True(t, ok)
	})
}
