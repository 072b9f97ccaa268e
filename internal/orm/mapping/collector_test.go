package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
)

func TestCollector_AddTable(t *testing.T) {
	t.Run("returns existing table for same qualified name", func(t *testing.T) {
		c := NewCollector()
		first := c.AddTable("app", "", "Animal", true)
		second := c.AddTable("app", "", "Animal", false)

		assert.Same(t, first, second)
		assert.False(t, first.Abstract, "concrete registration should clear the abstract flag")
		assert.Len(t, c.Tables(), 1)
	})

	t.Run("schema and catalog distinguish tables", func(t *testing.T) {
		c := NewCollector()
		a := c.AddTable("s1", "", "T", false)
		b := c.AddTable("s2", "", "T", false)
		assert.NotSame(t, a, b)

		found, ok := c.Table("s2.T")
		require.True(t, ok)
		assert.Same(t, b, found)
	})

	t.Run("denormalized table includes parent columns", func(t *testing.T) {
		c := NewCollector()
		parent := c.AddTable("", "", "Animal", true)
		parent.AddColumn(&Column{Name: "id", SQLType: TypeBigInt})

		child, err := c.AddDenormalizedTable("", "", "Dog", false, parent)
		require.NoError(t, err)
		child.AddColumn(&Column{Name: "bark", SQLType: TypeVarchar, Length: 255})

		names := []string{}
		for _, col := range child.AllColumns() {
			names = append(names, col.Name)
		}
		assert.Equal(t, []string{"id", "bark"}, names)

		_, err = c.AddDenormalizedTable("", "", "Dog", false, parent)
		assert.True(t, binderrors.HasCode(err, binderrors.ErrDuplicateMapping))
	})
}

func TestCollector_EntityBindings(t *testing.T) {
	c := NewCollector()
	root := NewRootClass("com.acme.Animal", "Animal", "com.acme.Animal", false)
	require.NoError(t, c.AddEntityBinding(root))

	err := c.AddEntityBinding(NewRootClass("com.acme.Animal", "Animal", "com.acme.Animal", false))
	assert.True(t, binderrors.HasCode(err, binderrors.ErrDuplicateMapping))

	found, ok := c.EntityBinding("com.acme.Animal")
	require.True(t, ok)
	assert.Same(t, root, found)

	sub := NewDiscriminatedSubclass(root, "com.acme.Dog", "Dog", "com.acme.Dog", false)
	require.NoError(t, c.AddEntityBinding(sub))
	assert.Len(t, c.EntityBindings(), 2)
	assert.Equal(t, "com.acme.Dog", c.EntityBindings()[1].EntityName())
}

func TestCollector_Imports(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.AddImport("Animal", "com.acme.Animal"))
	require.NoError(t, c.AddImport("Animal", "com.acme.Animal"))
	assert.Error(t, c.AddImport("Animal", "org.other.Animal"))

	name, ok := c.ResolveImport("Animal")
	assert.True(t, ok)
	assert.Equal(t, "com.acme.Animal", name)
}

func TestCollector_GlobalContributions(t *testing.T) {
	c := NewCollector()

	require.NoError(t, c.AddIdentifierGenerator(&GeneratorDefinition{Name: "seq", Strategy: "sequence"}))
	assert.Error(t, c.AddIdentifierGenerator(&GeneratorDefinition{Name: "seq"}))

	require.NoError(t, c.AddNamedQuery(&NamedQueryDefinition{Name: "Animal.all", Query: "from Animal"}))
	assert.Error(t, c.AddNamedQuery(&NamedQueryDefinition{Name: "Animal.all"}))

	require.NoError(t, c.AddFilterDefinition(&FilterDefinition{Name: "tenant"}))
	assert.Error(t, c.AddFilterDefinition(&FilterDefinition{Name: "tenant"}))

	c.AddAttributeConverter(&ConverterRegistration{ClassName: "YesNo", AttributeType: "boolean", AutoApply: true})
	c.AddAttributeConverter(&ConverterRegistration{ClassName: "Upper", AttributeType: "java.lang.String"})

	conv, ok := c.AutoApplyConverterFor("boolean")
	assert.True(t, ok)
	assert.Equal(t, "YesNo", conv)
	_, ok = c.AutoApplyConverterFor("java.lang.String")
	assert.False(t, ok, "converter without autoApply must not be applied")
}

func TestTable_Columns(t *testing.T) {
	table := newTable("", "", "Animal", false)
	first := table.AddColumn(&Column{Name: "name", SQLType: TypeVarchar, Length: 255})
	again := table.AddColumn(&Column{Name: "NAME", SQLType: TypeVarchar, Length: 10})

	assert.Same(t, first, again)
	assert.Len(t, table.Columns(), 1)

	table.SetPrimaryKey(first)
	require.NotNil(t, table.PrimaryKey)
	assert.Equal(t, "PK_ANIMAL", table.PrimaryKey.Name)
}

func TestColumn_Definition(t *testing.T) {
	tests := []struct {
		column   Column
		expected string
	}{
		{Column{SQLType: TypeVarchar, Length: 31}, "VARCHAR(31)"},
		{Column{SQLType: TypeChar, Length: 1}, "CHAR(1)"},
		{Column{SQLType: TypeInteger}, "INTEGER"},
		{Column{SQLType: TypeNumeric, Precision: 10, Scale: 2}, "NUMERIC(10,2)"},
		{Column{SQLType: TypeNumeric}, "NUMERIC"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.column.Definition())
		})
	}
}

func TestPersistentClass_LocateTable(t *testing.T) {
	c := NewCollector()
	root := NewRootClass("Animal", "Animal", "Animal", false)
	root.SetTable(c.AddTable("", "", "Animal", false))
	aux := c.AddTable("", "", "AUX", false)
	root.AddJoin(NewJoin(aux))

	dog := NewDiscriminatedSubclass(root, "Dog", "Dog", "Dog", false)

	table, ok := dog.LocateTable("aux")
	require.True(t, ok)
	assert.Same(t, aux, table)
	assert.Same(t, root.Table(), dog.Table())
	assert.Same(t, root, dog.Root())

	_, ok = dog.LocateTable("MISSING")
	assert.False(t, ok)

	join, ok := JoinForTable(dog, aux)
	require.True(t, ok)
	assert.Same(t, aux, join.Table)
}
