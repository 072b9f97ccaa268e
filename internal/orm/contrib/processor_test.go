package contrib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/ormbind/internal/orm/decl"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
	"github.com/conduit-lang/ormbind/internal/orm/mapping"
	"github.com/conduit-lang/ormbind/internal/orm/types"
)

func TestProcessor_Process(t *testing.T) {
	registry := decl.NewMemoryRegistry()
	registry.AddPackage(&decl.PackageDeclaration{
		Name: "com.acme",
		Annotations: []decl.Annotation{
			decl.NewAnnotation(decl.GenericGenerator, "name", "uuid2", "strategy", "uuid2",
				"parameters", map[string]interface{}{"format": "compact"}),
			decl.NewAnnotation(decl.TypeRegistration, "basicClass", "com.acme.Money", "userType", "com.acme.MoneyType"),
		},
	})
	require.NoError(t, registry.AddManaged(
		decl.NewClass("com.acme.Animal", "", []decl.Annotation{
			decl.NewAnnotation(decl.Entity),
			decl.NewAnnotation(decl.NamedQuery, "name", "Animal.all", "query", "from Animal"),
			decl.NewAnnotation(decl.NamedNativeQuery, "name", "Animal.count", "query", "select count(*) from Animal", "resultClass", "long"),
			decl.NewAnnotation(decl.FilterDef, "name", "alive", "defaultCondition", "alive = true"),
		}, &decl.MemberDeclaration{
			Name: "id",
			Type: "long",
			Annotations: []decl.Annotation{
				decl.NewAnnotation(decl.ID),
				decl.NewAnnotation(decl.SequenceGenerator, "name", "animal_seq", "sequenceName", "ANIMAL_SEQ", "allocationSize", 50),
			},
		}),
		decl.NewClass("com.acme.YesNoConverter", "", []decl.Annotation{
			decl.NewAnnotation(decl.Converter, "autoApply", true, "attributeType", "boolean"),
		}),
	))

	collector := mapping.NewCollector()
	resolver := types.NewResolver()
	require.NoError(t, NewProcessor(registry, collector, resolver, nil).Process())

	generators := collector.IdentifierGenerators()
	require.Len(t, generators, 2)
	assert.Equal(t, "uuid2", generators[0].Name)
	assert.Equal(t, "com.acme", generators[0].Source)
	assert.Equal(t, map[string]string{"format": "compact"}, generators[0].Parameters)
	assert.Equal(t, "animal_seq", generators[1].Name)
	assert.Equal(t, "sequence", generators[1].Strategy)
	assert.Equal(t, "com.acme.Animal.id", generators[1].Source)
	assert.Equal(t, map[string]string{"sequenceName": "ANIMAL_SEQ", "allocationSize": "50"}, generators[1].Parameters)

	queries := collector.NamedQueries()
	require.Len(t, queries, 2)
	assert.False(t, queries[0].Native)
	assert.True(t, queries[1].Native)
	assert.Equal(t, "long", queries[1].ResultClass)

	filter, ok := collector.FilterDefinition("alive")
	require.True(t, ok)
	assert.Equal(t, "alive = true", filter.DefaultCondition)

	require.Len(t, collector.TypeRegistrations(), 1)
	userType, ok := resolver.UserType("com.acme.Money")
	assert.True(t, ok)
	assert.Equal(t, "com.acme.MoneyType", userType)

	converter, ok := collector.AutoApplyConverterFor("boolean")
	assert.True(t, ok)
	assert.Equal(t, "com.acme.YesNoConverter", converter)
}

func TestProcessor_Errors(t *testing.T) {
	tests := []struct {
		name        string
		annotations []decl.Annotation
		code        binderrors.ErrorCode
	}{
		{
			name: "duplicate generator",
			annotations: []decl.Annotation{
				decl.NewAnnotation(decl.SequenceGenerator, "name", "seq"),
				decl.NewAnnotation(decl.TableGenerator, "name", "seq"),
			},
			code: binderrors.ErrDuplicateMapping,
		},
		{
			name: "duplicate named query",
			annotations: []decl.Annotation{
				decl.NewAnnotation(decl.NamedQuery, "name", "q", "query", "from A"),
				decl.NewAnnotation(decl.NamedNativeQuery, "name", "q", "query", "select 1"),
			},
			code: binderrors.ErrDuplicateMapping,
		},
		{
			name: "conflicting type registration",
			annotations: []decl.Annotation{
				decl.NewAnnotation(decl.TypeRegistration, "basicClass", "M", "userType", "T1"),
				decl.NewAnnotation(decl.TypeRegistration, "basicClass", "M", "userType", "T2"),
			},
			code: binderrors.ErrDuplicateMapping,
		},
		{
			name:        "generic generator without strategy",
			annotations: []decl.Annotation{decl.NewAnnotation(decl.GenericGenerator, "name", "g")},
			code:        binderrors.ErrInvalidDirective,
		},
		{
			name:        "named query without query string",
			annotations: []decl.Annotation{decl.NewAnnotation(decl.NamedQuery, "name", "q")},
			code:        binderrors.ErrInvalidDirective,
		},
		{
			name:        "filter without name",
			annotations: []decl.Annotation{decl.NewAnnotation(decl.FilterDef)},
			code:        binderrors.ErrInvalidDirective,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := decl.NewMemoryRegistry()
			require.NoError(t, registry.AddManaged(decl.NewClass("A", "", tt.annotations)))

			err := NewProcessor(registry, mapping.NewCollector(), types.NewResolver(), nil).Process()
			require.Error(t, err)
			assert.True(t, binderrors.HasCode(err, tt.code), err.Error())
		})
	}
}
