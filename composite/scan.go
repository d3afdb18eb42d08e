package composite

import (
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	_ pgtype.CompositeIndexGetter  = Value{}
	_ pgtype.CompositeIndexScanner = (*Value)(nil)
	_ pgtype.ArrayGetter           = Array{}
	_ pgtype.ArraySetter           = (*Array)(nil)
)

// Index implements pgtype.CompositeIndexGetter.
func (v Value) Index(i int) any {
	attr := v.desc.attrs[i]
	f := v.fields[i]
	if f == nil {
		return nil
	}
	switch attr.Kind {
	case KindScalar:
		return attr.Scalar.wireValue(f)
	case KindArray:
		if elems, ok := f.([]any); ok {
			return scalarArray{typ: attr.Scalar, elems: elems}
		}
	}
	return f
}

// ScanNull implements pgtype.CompositeIndexScanner.
func (v *Value) ScanNull() error {
	v.null = true
	v.fields = nil
	return nil
}

// ScanIndex implements pgtype.CompositeIndexScanner. The value must have been
// created with Descriptor.Zero so that its type is known. Fields are scanned
// in order, so index 0 starts a new record with fresh storage.
func (v *Value) ScanIndex(i int) any {
	if v.desc == nil {
		return nil
	}
	if i == 0 || v.null || v.fields == nil {
		v.null = false
		v.fields = make([]any, len(v.desc.attrs))
	}
	return scanTarget(v.desc.attrs[i], &v.fields[i])
}

func scanTarget(attr Attribute, slot *any) any {
	switch attr.Kind {
	case KindComposite:
		nested := attr.Type.Zero()
		*slot = nested
		return &nestedScanner{slot: slot, v: nested}
	case KindArray:
		if attr.Type != nil {
			return &compositeArrayScanner{slot: slot, desc: attr.Type}
		}
		return &scalarArrayScanner{slot: slot, typ: attr.Scalar}
	}
	return &scalarScanner{slot: slot, typ: attr.Scalar}
}

// scalarScanner receives a database/sql style value and stores it converted.
type scalarScanner struct {
	slot *any
	typ  ScalarType
}

func (s *scalarScanner) Scan(src any) error {
	v, err := s.typ.Convert(src)
	if err != nil {
		return err
	}
	*s.slot = v
	return nil
}

// nestedScanner fills a nested value stored in its parent's slot. The stored
// copy shares its field slice with v, so writes through v are visible there.
type nestedScanner struct {
	slot *any
	v    Value
}

func (s *nestedScanner) ScanNull() error {
	*s.slot = nil
	return nil
}

func (s *nestedScanner) ScanIndex(i int) any {
	return scanTarget(s.v.desc.attrs[i], &s.v.fields[i])
}

type compositeArrayScanner struct {
	slot  *any
	desc  *Descriptor
	elems []Value
}

func (s *compositeArrayScanner) SetDimensions(dimensions []pgtype.ArrayDimension) error {
	if dimensions == nil {
		*s.slot = nil
		return nil
	}
	s.elems = zeroValues(s.desc, elementCount(dimensions))
	*s.slot = Array{desc: s.desc, elems: s.elems, valid: true}
	return nil
}

func (s *compositeArrayScanner) ScanIndex(i int) any {
	return &s.elems[i]
}

func (s *compositeArrayScanner) ScanIndexType() any {
	v := s.desc.Zero()
	return &v
}

type scalarArrayScanner struct {
	slot  *any
	typ   ScalarType
	elems []any
}

func (s *scalarArrayScanner) SetDimensions(dimensions []pgtype.ArrayDimension) error {
	if dimensions == nil {
		*s.slot = nil
		return nil
	}
	s.elems = make([]any, elementCount(dimensions))
	*s.slot = s.elems
	return nil
}

func (s *scalarArrayScanner) ScanIndex(i int) any {
	return &scalarScanner{slot: &s.elems[i], typ: s.typ}
}

func (s *scalarArrayScanner) ScanIndexType() any {
	var slot any
	return &scalarScanner{slot: &slot, typ: s.typ}
}

type scalarArray struct {
	typ   ScalarType
	elems []any
}

func (a scalarArray) Dimensions() []pgtype.ArrayDimension {
	return []pgtype.ArrayDimension{{Length: int32(len(a.elems)), LowerBound: 1}}
}

func (a scalarArray) Index(i int) any {
	if a.elems[i] == nil {
		return nil
	}
	return a.typ.wireValue(a.elems[i])
}

func (a scalarArray) IndexType() any {
	return a.typ.wireValue(a.typ.Zero())
}

// Dimensions implements pgtype.ArrayGetter.
func (a Array) Dimensions() []pgtype.ArrayDimension {
	if !a.valid {
		return nil
	}
	return []pgtype.ArrayDimension{{Length: int32(len(a.elems)), LowerBound: 1}}
}

// Index implements pgtype.ArrayGetter.
func (a Array) Index(i int) any {
	return a.elems[i]
}

// IndexType implements pgtype.ArrayGetter.
func (a Array) IndexType() any {
	return a.desc.Zero()
}

// SetDimensions implements pgtype.ArraySetter. Multi-dimensional arrays are flattened.
func (a *Array) SetDimensions(dimensions []pgtype.ArrayDimension) error {
	if dimensions == nil {
		a.valid = false
		a.elems = nil
		return nil
	}
	a.valid = true
	a.elems = zeroValues(a.desc, elementCount(dimensions))
	return nil
}

// ScanIndex implements pgtype.ArraySetter.
func (a *Array) ScanIndex(i int) any {
	return &a.elems[i]
}

// ScanIndexType implements pgtype.ArraySetter.
func (a *Array) ScanIndexType() any {
	v := a.desc.Zero()
	return &v
}

func elementCount(dimensions []pgtype.ArrayDimension) int {
	if len(dimensions) == 0 {
		return 0
	}
	n := 1
	for _, dim := range dimensions {
		n *= int(dim.Length)
	}
	return n
}

func zeroValues(desc *Descriptor, n int) []Value {
	out := make([]Value, n)
	for i := range out {
		out[i] = desc.Zero()
	}
	return out
}
