package composite

import (
	"bytes"

	"github.com/goccy/go-json"
)

// MarshalJSON encodes the value as a JSON object with the attributes in
// declaration order. NULL encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsNull() {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range v.desc.attrs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(attr.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(v.fields[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the array as a JSON array of objects.
func (a Array) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	if a.elems == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.elems)
}

// ParseJSON decodes a value previously produced by MarshalJSON. A JSON array
// is taken as a positional tuple. Malformed input yields a ValidationError
// with code CodeBadJSON.
func (d *Descriptor) ParseJSON(data []byte) (Value, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return Value{}, &ValidationError{
			Type:    d.typeName,
			Code:    CodeBadJSON,
			Message: "received a string that was not valid JSON",
			Err:     err,
		}
	}
	return d.Coerce(raw)
}

// ParseJSONArray decodes a JSON array of objects into an Array.
func (d *Descriptor) ParseJSONArray(data []byte) (Array, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return Array{}, &ValidationError{
			Type:    d.typeName,
			Code:    CodeBadJSON,
			Message: "received a string that was not valid JSON",
			Err:     err,
		}
	}
	return d.CoerceArray(raw)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return normalizeNumbers(raw), nil
}

// normalizeNumbers replaces json.Number with its literal text so the scalar
// converters parse integers without a float64 round trip.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		return x.String()
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = normalizeNumbers(e)
		}
	}
	return v
}
