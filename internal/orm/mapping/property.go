package mapping

// BasicValue is a single-typed value bound to one table
type BasicValue struct {
	Table     *Table
	Columns   []*Column
	TypeName  string
	Converter string
}

// NewBasicValue creates a value bound to the given table
func NewBasicValue(table *Table, typeName string) *BasicValue {
	return &BasicValue{Table: table, TypeName: typeName}
}

// AddColumn adds a column to the value and to the value's table.
// The table's existing column is reused when the name is already present.
func (v *BasicValue) AddColumn(c *Column) *Column {
	bound := c
	if v.Table != nil {
		bound = v.Table.AddColumn(c)
	}
	v.Columns = append(v.Columns, bound)
	return bound
}

// Column returns the first column of the value
func (v *BasicValue) Column() *Column {
	if len(v.Columns) == 0 {
		return nil
	}
	return v.Columns[0]
}

// Property is one persistent attribute of a class
type Property struct {
	Name             string
	Value            *BasicValue
	Insertable       bool
	Updatable        bool
	OptimisticLocked bool
	Lazy             bool
	NaturalID        bool
	// AccessStrategy is "field" or "property"
	AccessStrategy string
	// DeclaringClass is the class whose member produced the property
	DeclaringClass string
}

// Join groups the properties of an entity that live in a secondary table
type Join struct {
	Table    *Table
	Key      []*Column
	Optional bool

	properties []*Property
}

// NewJoin creates a join for the given secondary table
func NewJoin(table *Table) *Join {
	return &Join{Table: table, Optional: true}
}

// AddProperty adds a property to the join
func (j *Join) AddProperty(p *Property) {
	j.properties = append(j.properties, p)
}

// Properties returns the join's properties in insertion order
func (j *Join) Properties() []*Property {
	return j.properties
}

// Property returns the property with the given name
func (j *Join) Property(name string) (*Property, bool) {
	for _, p := range j.properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
