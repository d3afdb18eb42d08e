package composite

import (
	"fmt"
)

// Encode converts input (anything Coerce accepts) into a wire tuple: the
// positional attribute values, with nested composites as sub-tuples and
// composite arrays as slices of sub-tuples. A NULL value encodes to nil.
func (d *Descriptor) Encode(input any) ([]any, error) {
	v, err := d.Coerce(input)
	if err != nil {
		return nil, err
	}
	return encodeValue(v), nil
}

// Encode converts v into its wire tuple.
func Encode(v Value) []any {
	return encodeValue(v)
}

func encodeValue(v Value) []any {
	if v.IsNull() {
		return nil
	}
	out := make([]any, len(v.fields))
	for i, f := range v.fields {
		out[i] = encodeField(f)
	}
	return out
}

func encodeField(f any) any {
	switch x := f.(type) {
	case Value:
		if x.IsNull() {
			return nil
		}
		return encodeValue(x)
	case Array:
		if x.IsNull() {
			return nil
		}
		elems := make([]any, len(x.elems))
		for i, elem := range x.elems {
			if t := encodeValue(elem); t != nil {
				elems[i] = t
			}
		}
		return elems
	case []any:
		out := make([]any, len(x))
		copy(out, x)
		return out
	}
	return f
}

// Decode converts a wire tuple into a value. Each attribute is converted by
// its kind: scalars through their ScalarType, nested composites and composite
// arrays recursively. A nil tuple decodes to the NULL value.
func (d *Descriptor) Decode(tuple []any) (Value, error) {
	if tuple == nil {
		return d.Null(), nil
	}
	if err := d.checkCount(len(tuple)); err != nil {
		return Value{}, err
	}

	v := d.Zero()
	for i, raw := range tuple {
		f, err := decodeField(d, d.attrs[i], raw)
		if err != nil {
			return Value{}, err
		}
		v.fields[i] = f
	}
	return v, nil
}

func decodeField(d *Descriptor, attr Attribute, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	switch attr.Kind {
	case KindScalar:
		return convertScalar(d, attr.Name, attr.Scalar, raw)
	case KindComposite:
		sub, ok := raw.([]any)
		if !ok {
			return nil, validationErrorf(d.typeName, attr.Name, CodeWrongType, "expected a sub-tuple, got %T", raw)
		}
		nested, err := attr.Type.Decode(sub)
		if err != nil {
			return nil, prefixAttribute(err, d.typeName, attr.Name)
		}
		return nested, nil
	case KindArray:
		elems, ok := raw.([]any)
		if !ok {
			return nil, validationErrorf(d.typeName, attr.Name, CodeWrongType, "expected an array, got %T", raw)
		}
		if attr.Type == nil {
			return convertScalarArray(d, attr, elems)
		}
		arr := Array{desc: attr.Type, elems: make([]Value, len(elems)), valid: true}
		for i, elem := range elems {
			name := fmt.Sprintf("%s[%d]", attr.Name, i)
			if elem == nil {
				arr.elems[i] = attr.Type.Null()
				continue
			}
			sub, ok := elem.([]any)
			if !ok {
				return nil, validationErrorf(d.typeName, name, CodeWrongType, "expected a sub-tuple, got %T", elem)
			}
			v, err := attr.Type.Decode(sub)
			if err != nil {
				return nil, prefixAttribute(err, d.typeName, name)
			}
			arr.elems[i] = v
		}
		return arr, nil
	}
	return nil, validationErrorf(d.typeName, attr.Name, CodeInvalid, "invalid attribute kind %s", attr.Kind)
}
