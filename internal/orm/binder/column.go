package binder

import (
	"github.com/conduit-lang/ormbind/internal/orm/decl"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
	"github.com/conduit-lang/ormbind/internal/orm/mapping"
)

// columnSpec holds the values a column directive set explicitly; nil means unset
type columnSpec struct {
	name       *string
	table      *string
	nullable   *bool
	unique     *bool
	insertable *bool
	updatable  *bool
	length     *int
	precision  *int
	scale      *int
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

func stringPtr(ann decl.Annotation, name string) *string {
	if s, ok := ann.String(name); ok {
		return &s
	}
	return nil
}

// readColumnSpec reads a @Column (or a nested override column); a missing directive is an empty spec
func readColumnSpec(ann decl.Annotation, present bool, className, attribute string) (columnSpec, error) {
	var spec columnSpec
	if !present {
		return spec, nil
	}

	spec.name = stringPtr(ann, "name")
	spec.table = stringPtr(ann, "table")

	bools := []struct {
		attr string
		dst  **bool
	}{
		{"nullable", &spec.nullable},
		{"unique", &spec.unique},
		{"insertable", &spec.insertable},
		{"updatable", &spec.updatable},
	}
	for _, b := range bools {
		v, err := ann.Bool(b.attr)
		if err != nil {
			return spec, binderrors.NewInvalidDirective(className, string(decl.Column), err.Error()).WithAttribute(attribute)
		}
		*b.dst = v
	}

	ints := []struct {
		attr string
		dst  **int
	}{
		{"length", &spec.length},
		{"precision", &spec.precision},
		{"scale", &spec.scale},
	}
	for _, i := range ints {
		v, err := ann.Int(i.attr)
		if err != nil {
			return spec, binderrors.NewInvalidDirective(className, string(decl.Column), err.Error()).WithAttribute(attribute)
		}
		*i.dst = v
	}

	return spec, nil
}

// column builds the column named name, applying the defaults for every unset value
func (s columnSpec) column(name string, nullableDefault bool, sqlType mapping.SQLType) *mapping.Column {
	return &mapping.Column{
		Name:      name,
		Nullable:  valueOr(s.nullable, nullableDefault),
		Unique:    valueOr(s.unique, false),
		Length:    valueOr(s.length, mapping.DefaultLength),
		Precision: valueOr(s.precision, mapping.DefaultPrecision),
		Scale:     valueOr(s.scale, mapping.DefaultScale),
		SQLType:   sqlType,
	}
}
