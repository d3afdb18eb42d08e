package composite

import (
	"fmt"
	"reflect"
	"strings"
)

// Array is a one-dimensional array of values of a single composite type.
// Elements may be NULL values. The zero Array is NULL.
type Array struct {
	desc  *Descriptor
	elems []Value
	valid bool
}

// NewArray builds an array from the given elements. Each element goes through
// Coerce, so maps and tuples are accepted.
func (d *Descriptor) NewArray(elems ...any) (Array, error) {
	out := Array{desc: d, elems: make([]Value, len(elems)), valid: true}
	for i, elem := range elems {
		v, err := d.Coerce(elem)
		if err != nil {
			return Array{}, prefixAttribute(err, d.typeName, fmt.Sprintf("[%d]", i))
		}
		out.elems[i] = v
	}
	return out, nil
}

// MustNewArray is like NewArray but panics on error.
func (d *Descriptor) MustNewArray(elems ...any) Array {
	a, err := d.NewArray(elems...)
	if err != nil {
		panic(err)
	}
	return a
}

// ZeroArray returns an empty, non-NULL array. It is also the scan target to
// pass to pgx for array columns.
func (d *Descriptor) ZeroArray() Array {
	return Array{desc: d, valid: true}
}

// NullArray returns the NULL array of this type.
func (d *Descriptor) NullArray() Array {
	return Array{desc: d}
}

// CoerceArray converts an Array, []Value or any slice of coercible elements.
// nil yields the NULL array.
func (d *Descriptor) CoerceArray(input any) (Array, error) {
	switch x := input.(type) {
	case nil:
		return d.NullArray(), nil
	case Array:
		if x.desc == nil {
			return d.NullArray(), nil
		}
		if x.desc == d {
			return x, nil
		}
		if !d.SameShape(x.desc) {
			return Array{}, validationErrorf(d.typeName, "", CodeWrongType, "cannot use array of %s", x.TypeName())
		}
		x.desc = d
		return x, nil
	case []Value:
		if x == nil {
			return d.NullArray(), nil
		}
		elems := make([]any, len(x))
		for i := range x {
			elems[i] = x[i]
		}
		return d.NewArray(elems...)
	case []any:
		if x == nil {
			return d.NullArray(), nil
		}
		return d.NewArray(x...)
	}

	rv := reflect.ValueOf(input)
	if rv.Kind() != reflect.Slice {
		return Array{}, validationErrorf(d.typeName, "", CodeWrongType, "cannot use %T as an array", input)
	}
	if rv.IsNil() {
		return d.NullArray(), nil
	}
	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return d.NewArray(elems...)
}

// Descriptor returns the element type.
func (a Array) Descriptor() *Descriptor {
	return a.desc
}

// TypeName returns the element type name.
func (a Array) TypeName() string {
	if a.desc == nil {
		return ""
	}
	return a.desc.typeName
}

// IsNull reports whether the array is NULL.
func (a Array) IsNull() bool {
	return !a.valid
}

// Len returns the number of elements.
func (a Array) Len() int {
	return len(a.elems)
}

// At returns the i-th element.
func (a Array) At(i int) Value {
	return a.elems[i]
}

// Values returns a copy of the elements.
func (a Array) Values() []Value {
	if !a.valid {
		return nil
	}
	out := make([]Value, len(a.elems))
	copy(out, a.elems)
	return out
}

// Equal reports whether both arrays hold equal elements in the same order.
func (a Array) Equal(other Array) bool {
	if a.valid != other.valid || len(a.elems) != len(other.elems) {
		return false
	}
	if a.desc != nil && other.desc != nil && !a.desc.SameShape(other.desc) {
		return false
	}
	for i := range a.elems {
		if !a.elems[i].Equal(other.elems[i]) {
			return false
		}
	}
	return true
}

func (a Array) String() string {
	if !a.valid {
		return "NULL"
	}
	parts := make([]string, len(a.elems))
	for i, elem := range a.elems {
		parts[i] = elem.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
