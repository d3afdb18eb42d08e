package composite

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Value is an ordered record of a composite type. Attribute values are held in
// their canonical Go representation: scalars as described on ScalarType,
// nested composites as Value, composite arrays as Array, scalar arrays as []any.
// A NULL attribute is nil.
//
// Values are immutable once built; use With to derive a modified copy.
type Value struct {
	desc   *Descriptor
	fields []any
	null   bool
}

// New builds a value from positional attribute values. The number of values
// must match the number of attributes.
func (d *Descriptor) New(values ...any) (Value, error) {
	if err := d.checkCount(len(values)); err != nil {
		return Value{}, err
	}

	v := d.Zero()
	for i, raw := range values {
		converted, err := convertAttribute(d, d.attrs[i], raw)
		if err != nil {
			return Value{}, err
		}
		v.fields[i] = converted
	}
	return v, nil
}

// MustNew is like New but panics on error.
func (d *Descriptor) MustNew(values ...any) Value {
	v, err := d.New(values...)
	if err != nil {
		panic(err)
	}
	return v
}

// FromMap builds a value from named attribute values. Missing attributes are
// NULL, unknown names are rejected.
func (d *Descriptor) FromMap(values map[string]any) (Value, error) {
	v := d.Zero()
	for name, raw := range values {
		i, ok := d.index[name]
		if !ok {
			return Value{}, validationErrorf(d.typeName, name, CodeUnknown, "unknown attribute")
		}
		converted, err := convertAttribute(d, d.attrs[i], raw)
		if err != nil {
			return Value{}, err
		}
		v.fields[i] = converted
	}
	return v, nil
}

// Coerce converts a Value, *Value, map[string]any or positional []any into a
// value of this type. nil yields the NULL value.
func (d *Descriptor) Coerce(input any) (Value, error) {
	switch x := input.(type) {
	case nil:
		return d.Null(), nil
	case Value:
		return d.rebind(x)
	case *Value:
		if x == nil {
			return d.Null(), nil
		}
		return d.rebind(*x)
	case map[string]any:
		return d.FromMap(x)
	case []any:
		return d.New(x...)
	}
	return Value{}, validationErrorf(d.typeName, "", CodeNotComposite, "cannot use %T as a composite value", input)
}

func (d *Descriptor) rebind(v Value) (Value, error) {
	if v.desc == nil {
		return d.Null(), nil
	}
	if v.desc == d {
		return v, nil
	}
	if !d.SameShape(v.desc) {
		return Value{}, validationErrorf(d.typeName, "", CodeWrongType, "cannot use value of type %s", v.TypeName())
	}
	out := v
	out.desc = d
	return out, nil
}

// Zero returns a non-NULL value with every attribute NULL. It is also the
// scan target to pass to pgx.
func (d *Descriptor) Zero() Value {
	return Value{desc: d, fields: make([]any, len(d.attrs))}
}

// Null returns the NULL value of this type.
func (d *Descriptor) Null() Value {
	return Value{desc: d, null: true}
}

func (d *Descriptor) checkCount(n int) error {
	switch {
	case n < len(d.attrs):
		return validationErrorf(d.typeName, d.attrs[n].Name, CodeMissing,
			"missing attribute: got %d values for %d attributes", n, len(d.attrs))
	case n > len(d.attrs):
		return validationErrorf(d.typeName, "", CodeExtra,
			"unexpected extra value at position %d: got %d values for %d attributes", len(d.attrs), n, len(d.attrs))
	}
	return nil
}

func convertAttribute(d *Descriptor, attr Attribute, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	switch attr.Kind {
	case KindScalar:
		return convertScalar(d, attr.Name, attr.Scalar, raw)
	case KindComposite:
		nested, err := attr.Type.Coerce(raw)
		if err != nil {
			return nil, prefixAttribute(err, d.typeName, attr.Name)
		}
		if nested.null {
			return nil, nil
		}
		return nested, nil
	case KindArray:
		if attr.Type != nil {
			arr, err := attr.Type.CoerceArray(raw)
			if err != nil {
				return nil, prefixAttribute(err, d.typeName, attr.Name)
			}
			if arr.IsNull() {
				return nil, nil
			}
			return arr, nil
		}
		return convertScalarArray(d, attr, raw)
	}
	return nil, validationErrorf(d.typeName, attr.Name, CodeInvalid, "invalid attribute kind %s", attr.Kind)
}

func convertScalar(d *Descriptor, name string, typ ScalarType, raw any) (any, error) {
	out, err := typ.Convert(raw)
	if err != nil {
		code := CodeWrongType
		switch {
		case errors.Is(err, errValueTooLong):
			code = CodeValueTooLong
		case errors.Is(err, errOutOfRange):
			code = CodeOutOfRange
		}
		return nil, &ValidationError{
			Type:      d.typeName,
			Attribute: name,
			Code:      code,
			Message:   fmt.Sprintf("invalid %s value: %v", typ.SQLType(), err),
			Err:       err,
		}
	}
	return out, nil
}

func convertScalarArray(d *Descriptor, attr Attribute, raw any) (any, error) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, validationErrorf(d.typeName, attr.Name, CodeWrongType, "expected a slice, got %T", raw)
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, nil
	}

	out := make([]any, rv.Len())
	for i := range out {
		elem, err := convertScalar(d, fmt.Sprintf("%s[%d]", attr.Name, i), attr.Scalar, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = elem
	}
	return out, nil
}

// Descriptor returns the type of the value.
func (v Value) Descriptor() *Descriptor {
	return v.desc
}

// TypeName returns the database type name, or "" for the zero Value.
func (v Value) TypeName() string {
	if v.desc == nil {
		return ""
	}
	return v.desc.typeName
}

// IsNull reports whether v is the NULL value of its type. The zero Value is NULL.
func (v Value) IsNull() bool {
	return v.null || v.desc == nil
}

// Len returns the number of attributes.
func (v Value) Len() int {
	return len(v.fields)
}

// At returns the i-th attribute value.
func (v Value) At(i int) any {
	return v.fields[i]
}

// Get returns the named attribute value.
func (v Value) Get(name string) (any, bool) {
	if v.desc == nil || v.null {
		return nil, false
	}
	i, ok := v.desc.index[name]
	if !ok {
		return nil, false
	}
	return v.fields[i], true
}

// Tuple returns the attribute values in declaration order.
func (v Value) Tuple() []any {
	if v.IsNull() {
		return nil
	}
	out := make([]any, len(v.fields))
	copy(out, v.fields)
	return out
}

// Map returns the attribute values keyed by name.
func (v Value) Map() map[string]any {
	if v.IsNull() {
		return nil
	}
	out := make(map[string]any, len(v.fields))
	for i, attr := range v.desc.attrs {
		out[attr.Name] = v.fields[i]
	}
	return out
}

// With returns a copy of v with the named attribute replaced.
func (v Value) With(name string, raw any) (Value, error) {
	if v.IsNull() {
		return Value{}, validationErrorf(v.TypeName(), name, CodeInvalid, "cannot set attribute on NULL value")
	}
	i, ok := v.desc.index[name]
	if !ok {
		return Value{}, validationErrorf(v.desc.typeName, name, CodeUnknown, "unknown attribute")
	}
	converted, err := convertAttribute(v.desc, v.desc.attrs[i], raw)
	if err != nil {
		return Value{}, err
	}

	out := Value{desc: v.desc, fields: make([]any, len(v.fields))}
	copy(out.fields, v.fields)
	out.fields[i] = converted
	return out, nil
}

// Equal reports whether both values have the same type and attribute values.
func (v Value) Equal(other Value) bool {
	if v.IsNull() || other.IsNull() {
		return v.IsNull() == other.IsNull() && v.TypeName() == other.TypeName()
	}
	if !v.desc.SameShape(other.desc) || len(v.fields) != len(other.fields) {
		return false
	}
	for i := range v.fields {
		if !valuesEqual(v.fields[i], other.fields[i]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case Value:
		y, ok := b.(Value)
		return ok && x.Equal(y)
	case Array:
		y, ok := b.(Array)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valuesEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

// String formats the value as type(name=value, ...).
func (v Value) String() string {
	if v.IsNull() {
		return v.TypeName() + "(NULL)"
	}
	parts := make([]string, len(v.fields))
	for i, attr := range v.desc.attrs {
		parts[i] = fmt.Sprintf("%s=%v", attr.Name, formatField(v.fields[i]))
	}
	return v.desc.typeName + "(" + strings.Join(parts, ", ") + ")"
}

func formatField(f any) any {
	switch x := f.(type) {
	case nil:
		return "NULL"
	case string:
		return fmt.Sprintf("%q", x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return f
}
