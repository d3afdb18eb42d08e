package composite

import (
	"fmt"
	"strings"

	"github.com/stokaro/pgcomposite/core/sqlutil"
)

// Descriptor is the immutable definition of a composite type: its database
// name and its attributes in declaration order. The order is the wire order,
// so it must match the order the attributes were created in the database.
type Descriptor struct {
	typeName string
	attrs    []Attribute
	index    map[string]int
}

// Define builds a descriptor for the composite type typeName.
//
// Example:
//
//	point, err := composite.Define("x_point",
//		composite.Field("x", composite.Integer()),
//		composite.Field("y", composite.Integer()),
//	)
func Define(typeName string, attrs ...Attribute) (*Descriptor, error) {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return nil, &ConfigurationError{Message: "database type name is required"}
	}

	d := &Descriptor{
		typeName: typeName,
		attrs:    make([]Attribute, len(attrs)),
		index:    make(map[string]int, len(attrs)),
	}
	copy(d.attrs, attrs)

	for i, attr := range d.attrs {
		if err := attr.validate(); err != nil {
			return nil, &ConfigurationError{Type: typeName, Message: err.Error()}
		}
		if _, exists := d.index[attr.Name]; exists {
			return nil, &ConfigurationError{Type: typeName, Message: fmt.Sprintf("duplicate attribute %s", attr.Name)}
		}
		d.index[attr.Name] = i
	}

	return d, nil
}

// MustDefine is like Define but panics on error. It is meant for package level
// declarations.
func MustDefine(typeName string, attrs ...Attribute) *Descriptor {
	d, err := Define(typeName, attrs...)
	if err != nil {
		panic(err)
	}
	return d
}

// TypeName returns the database type name.
func (d *Descriptor) TypeName() string {
	return d.typeName
}

// ColumnType returns the type name as it must appear in DDL.
func (d *Descriptor) ColumnType() string {
	return sqlutil.QuoteIdent(d.typeName)
}

// Attributes returns a copy of the attributes in declaration order.
func (d *Descriptor) Attributes() []Attribute {
	out := make([]Attribute, len(d.attrs))
	copy(out, d.attrs)
	return out
}

// Len returns the number of attributes.
func (d *Descriptor) Len() int {
	return len(d.attrs)
}

// Attribute returns the i-th attribute.
func (d *Descriptor) Attribute(i int) Attribute {
	return d.attrs[i]
}

// Index returns the position of the named attribute.
func (d *Descriptor) Index(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Dependencies returns the composite types referenced directly by nested or
// array attributes, without duplicates, in attribute order.
func (d *Descriptor) Dependencies() []*Descriptor {
	var deps []*Descriptor
	seen := make(map[*Descriptor]bool)
	for _, attr := range d.attrs {
		if attr.Type == nil || seen[attr.Type] {
			continue
		}
		seen[attr.Type] = true
		deps = append(deps, attr.Type)
	}
	return deps
}

// SameShape reports whether both descriptors declare the same type name and
// the same attributes in the same order.
func (d *Descriptor) SameShape(other *Descriptor) bool {
	if d == other {
		return true
	}
	if d == nil || other == nil || d.typeName != other.typeName || len(d.attrs) != len(other.attrs) {
		return false
	}
	for i, a := range d.attrs {
		b := other.attrs[i]
		if a.Name != b.Name || a.Kind != b.Kind || a.Scalar != b.Scalar {
			return false
		}
		if (a.Type == nil) != (b.Type == nil) {
			return false
		}
		if a.Type != nil && !a.Type.SameShape(b.Type) {
			return false
		}
	}
	return true
}

// String returns the type in CREATE TYPE body notation, e.g. "x_point(x integer, y integer)".
func (d *Descriptor) String() string {
	parts := make([]string, len(d.attrs))
	for i, attr := range d.attrs {
		parts[i] = attr.Name + " " + attr.SQLType()
	}
	return d.typeName + "(" + strings.Join(parts, ", ") + ")"
}
