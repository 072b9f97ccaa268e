package report

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/ormbind/internal/orm/binder"
	"github.com/conduit-lang/ormbind/internal/orm/decl"
	"github.com/conduit-lang/ormbind/internal/orm/metamodel"
)

func bound(t *testing.T) *binder.Binder {
	t.Helper()
	registry := decl.NewMemoryRegistry()
	require.NoError(t, registry.AddManaged(
		decl.NewClass("com.acme.Auditable", "", []decl.Annotation{decl.NewAnnotation(decl.MappedSuperclass)}),
		decl.NewClass("com.acme.Animal", "", []decl.Annotation{
			decl.NewAnnotation(decl.Entity),
			decl.NewAnnotation(decl.Cacheable),
			decl.NewAnnotation(decl.NamedQuery, "name", "Animal.all", "query", "from Animal"),
		},
			&decl.MemberDeclaration{Name: "id", Type: "long", Annotations: []decl.Annotation{decl.NewAnnotation(decl.ID)}},
			&decl.MemberDeclaration{Name: "name", Type: "java.lang.String"},
			&decl.MemberDeclaration{Name: "touch", Kind: decl.MemberMethod, Type: "void", Annotations: []decl.Annotation{decl.NewAnnotation(decl.PrePersist)}},
		),
		decl.NewClass("com.acme.Dog", "com.acme.Animal", []decl.Annotation{decl.NewAnnotation(decl.Entity)},
			&decl.MemberDeclaration{Name: "breed", Type: "java.lang.String"},
		),
	))

	b := binder.New(binder.NewBuildingContext(registry, metamodel.Options{SharedCacheMode: metamodel.CacheModeEnableSelective}))
	require.NoError(t, b.Bind(binder.ManagedResources{}))
	return b
}

func TestBuild(t *testing.T) {
	r, err := Build(bound(t))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, r.RunID)
	assert.False(t, r.CreatedAt.IsZero())

	require.Len(t, r.Hierarchies, 1)
	h := r.Hierarchies[0]
	assert.Equal(t, "com.acme.Animal", h.Root)
	assert.Equal(t, "single_table", h.Inheritance)
	assert.Equal(t, "field", h.Access)
	assert.True(t, h.Cached)
	assert.Equal(t, "com.acme.Animal##NaturalId", h.NaturalIDCacheRegion)
	assert.Equal(t, []string{"com.acme.Animal", "com.acme.Dog"}, h.Entities)

	animal, ok := r.Entity("Animal")
	require.True(t, ok)
	assert.Equal(t, "root", animal.Kind)
	require.NotNil(t, animal.Identifier)
	assert.Equal(t, "id", animal.Identifier.Column)
	assert.False(t, animal.Identifier.Nullable)
	require.Len(t, animal.Properties, 1)
	assert.Equal(t, "name", animal.Properties[0].Name)
	require.Len(t, animal.Callbacks, 1)
	assert.Equal(t, Callback{Event: "PrePersist", Source: "entity_method", Class: "com.acme.Animal", Method: "touch"}, animal.Callbacks[0])

	dog, ok := r.Entity("com.acme.Dog")
	require.True(t, ok)
	assert.Equal(t, "discriminated_subclass", dog.Kind)
	assert.Equal(t, "com.acme.Animal", dog.Super)
	assert.Equal(t, "Dog", dog.DiscriminatorValue)
	require.Len(t, dog.Callbacks, 1, "inherited entity callbacks")

	table, ok := r.Table("Animal")
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, table.PrimaryKey)
	var columns []string
	for _, c := range table.Columns {
		columns = append(columns, c.Name+" "+c.Definition)
	}
	assert.Equal(t, []string{"id BIGINT", "DTYPE VARCHAR(31)", "name VARCHAR(255)", "breed VARCHAR(255)"}, columns)

	assert.Equal(t, []string{"Animal.all"}, r.Contributions.NamedQueries)

	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, "BND201", r.Diagnostics[0].Code)
	assert.Equal(t, "com.acme.Auditable", r.Diagnostics[0].Class)
}

func TestReport_JSON(t *testing.T) {
	r, err := Build(bound(t))
	require.NoError(t, err)

	data, err := r.JSON()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"run_id"`))
	assert.True(t, strings.Contains(string(data), `"discriminator_value": "Dog"`))

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, parsed.RunID)
	assert.Equal(t, r.Entities, parsed.Entities)
	assert.Equal(t, r.Tables, parsed.Tables)

	_, err = Parse([]byte("{not json"))
	assert.Error(t, err)
}
