// Package model provides nullable column holders for composite types, for use
// as struct fields in models read and written through database/sql or pgx.
//
// With database/sql the pgx stdlib driver returns composite columns in text
// format, so Field parses and renders that format through a registry.Registry
// (the default one unless WithRegistry is given). With native pgx, Field
// implements the pgtype composite interfaces and the connection's own codecs
// do the work.
package model

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/registry"
)

var (
	_ sql.Scanner                  = (*Field)(nil)
	_ driver.Valuer                = Field{}
	_ pgtype.CompositeIndexGetter  = Field{}
	_ pgtype.CompositeIndexScanner = (*Field)(nil)
	_ json.Marshaler               = Field{}
	_ json.Unmarshaler             = (*Field)(nil)
)

// Option configures a Field or ArrayField.
type Option func(*options)

type options struct {
	registry *registry.Registry
}

// WithRegistry selects the registry used for text format conversion.
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

func buildOptions(opts []Option) options {
	o := options{registry: registry.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Field is a nullable composite column. Record holds the value when Valid.
type Field struct {
	Record composite.Value
	Valid  bool

	desc *composite.Descriptor
	opts options
}

// NewField returns a NULL field bound to desc.
func NewField(desc *composite.Descriptor, opts ...Option) Field {
	return Field{
		Record: desc.Null(),
		desc:   desc,
		opts:   buildOptions(opts),
	}
}

// Descriptor returns the composite type of the field.
func (f Field) Descriptor() *composite.Descriptor {
	return f.desc
}

// ColumnType returns the type to use for the column in DDL.
func (f Field) ColumnType() string {
	return f.desc.ColumnType()
}

// Set stores input, which may be anything composite.Descriptor.Coerce accepts.
func (f *Field) Set(input any) error {
	v, err := f.desc.Coerce(input)
	if err != nil {
		return err
	}
	f.Record = v
	f.Valid = !v.IsNull()
	return nil
}

// Scan implements sql.Scanner. Strings and byte slices are parsed as the
// PostgreSQL text representation of the type.
func (f *Field) Scan(src any) error {
	if f.desc == nil {
		return fmt.Errorf("cannot scan into a model.Field without a descriptor")
	}

	switch x := src.(type) {
	case nil:
		f.setNull()
		return nil
	case string:
		return f.scanText([]byte(x))
	case []byte:
		return f.scanText(x)
	}
	return f.Set(src)
}

func (f *Field) scanText(src []byte) error {
	v, err := f.registry().ScanValue(f.desc, registry.TextFormat, src)
	if err != nil {
		return err
	}
	f.Record = v
	f.Valid = !v.IsNull()
	return nil
}

func (f *Field) setNull() {
	f.Record = f.desc.Null()
	f.Valid = false
}

// Value implements driver.Valuer using the text representation.
func (f Field) Value() (driver.Value, error) {
	if !f.Valid || f.Record.IsNull() {
		return nil, nil
	}
	buf, err := f.registry().EncodeValue(f.Record, registry.TextFormat)
	if err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, nil
	}
	return string(buf), nil
}

func (f Field) registry() *registry.Registry {
	if f.opts.registry == nil {
		return registry.Default()
	}
	return f.opts.registry
}

// IsNull implements pgtype.CompositeIndexGetter.
func (f Field) IsNull() bool {
	return !f.Valid || f.Record.IsNull()
}

// Index implements pgtype.CompositeIndexGetter.
func (f Field) Index(i int) any {
	return f.Record.Index(i)
}

// ScanNull implements pgtype.CompositeIndexScanner.
func (f *Field) ScanNull() error {
	f.setNull()
	return nil
}

// ScanIndex implements pgtype.CompositeIndexScanner.
func (f *Field) ScanIndex(i int) any {
	if i == 0 {
		f.Record = f.desc.Zero()
		f.Valid = true
	}
	return f.Record.ScanIndex(i)
}

// MarshalJSON encodes the record as a JSON object, or null.
func (f Field) MarshalJSON() ([]byte, error) {
	if f.IsNull() {
		return []byte("null"), nil
	}
	return f.Record.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, positional array or null.
func (f *Field) UnmarshalJSON(data []byte) error {
	if f.desc == nil {
		return fmt.Errorf("cannot unmarshal into a model.Field without a descriptor")
	}
	v, err := f.desc.ParseJSON(data)
	if err != nil {
		return err
	}
	f.Record = v
	f.Valid = !v.IsNull()
	return nil
}
