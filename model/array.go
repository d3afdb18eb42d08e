package model

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/registry"
)

var (
	_ sql.Scanner        = (*ArrayField)(nil)
	_ driver.Valuer      = ArrayField{}
	_ pgtype.ArrayGetter = ArrayField{}
	_ pgtype.ArraySetter = (*ArrayField)(nil)
)

// ArrayField is a nullable column holding an array of composite values.
type ArrayField struct {
	Records composite.Array
	Valid   bool

	desc *composite.Descriptor
	opts options
}

// NewArrayField returns a NULL array field of desc values.
func NewArrayField(desc *composite.Descriptor, opts ...Option) ArrayField {
	return ArrayField{
		Records: desc.NullArray(),
		desc:    desc,
		opts:    buildOptions(opts),
	}
}

// Descriptor returns the element type.
func (f ArrayField) Descriptor() *composite.Descriptor {
	return f.desc
}

// ColumnType returns the array type to use for the column in DDL.
func (f ArrayField) ColumnType() string {
	return f.desc.ColumnType() + "[]"
}

// Set stores input, which may be anything composite.Descriptor.CoerceArray accepts.
func (f *ArrayField) Set(input any) error {
	a, err := f.desc.CoerceArray(input)
	if err != nil {
		return err
	}
	f.Records = a
	f.Valid = !a.IsNull()
	return nil
}

// Scan implements sql.Scanner.
func (f *ArrayField) Scan(src any) error {
	if f.desc == nil {
		return fmt.Errorf("cannot scan into a model.ArrayField without a descriptor")
	}

	var text []byte
	switch x := src.(type) {
	case nil:
		f.Records = f.desc.NullArray()
		f.Valid = false
		return nil
	case string:
		text = []byte(x)
	case []byte:
		text = x
	default:
		return f.Set(src)
	}

	a, err := f.registry().ScanArray(f.desc, registry.TextFormat, text)
	if err != nil {
		return err
	}
	f.Records = a
	f.Valid = !a.IsNull()
	return nil
}

// Value implements driver.Valuer using the text representation.
func (f ArrayField) Value() (driver.Value, error) {
	if !f.Valid || f.Records.IsNull() {
		return nil, nil
	}
	buf, err := f.registry().EncodeArray(f.Records, registry.TextFormat)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

func (f ArrayField) registry() *registry.Registry {
	if f.opts.registry == nil {
		return registry.Default()
	}
	return f.opts.registry
}

// Dimensions implements pgtype.ArrayGetter.
func (f ArrayField) Dimensions() []pgtype.ArrayDimension {
	if !f.Valid {
		return nil
	}
	return f.Records.Dimensions()
}

// Index implements pgtype.ArrayGetter.
func (f ArrayField) Index(i int) any {
	return f.Records.Index(i)
}

// IndexType implements pgtype.ArrayGetter.
func (f ArrayField) IndexType() any {
	return f.desc.Zero()
}

// SetDimensions implements pgtype.ArraySetter.
func (f *ArrayField) SetDimensions(dimensions []pgtype.ArrayDimension) error {
	f.Records = f.desc.ZeroArray()
	if err := f.Records.SetDimensions(dimensions); err != nil {
		return err
	}
	f.Valid = !f.Records.IsNull()
	return nil
}

// ScanIndex implements pgtype.ArraySetter.
func (f *ArrayField) ScanIndex(i int) any {
	return f.Records.ScanIndex(i)
}

// ScanIndexType implements pgtype.ArraySetter.
func (f *ArrayField) ScanIndexType() any {
	v := f.desc.Zero()
	return &v
}

// MarshalJSON encodes the array as a JSON array, or null.
func (f ArrayField) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return f.Records.MarshalJSON()
}

// UnmarshalJSON decodes a JSON array of objects or null.
func (f *ArrayField) UnmarshalJSON(data []byte) error {
	if f.desc == nil {
		return fmt.Errorf("cannot unmarshal into a model.ArrayField without a descriptor")
	}
	a, err := f.desc.ParseJSONArray(data)
	if err != nil {
		return err
	}
	f.Records = a
	f.Valid = !a.IsNull()
	return nil
}
