package composite

import (
	"fmt"
)

// Kind classifies how an attribute is stored on the wire.
type Kind int

const (
	// KindScalar is a single scalar value
	KindScalar Kind = iota + 1
	// KindArray is an array of scalars or of composite values
	KindArray
	// KindComposite is a nested composite value
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindComposite:
		return "composite"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Attribute is one named, positioned member of a composite type.
type Attribute struct {
	// Name is the attribute name as created in the database
	Name string
	// Kind tells which of Scalar and Type describes the attribute
	Kind Kind
	// Scalar is the type of a scalar attribute, or the element type of a scalar array
	Scalar ScalarType
	// Type is the nested composite type, or the element type of a composite array
	Type *Descriptor
}

// Field declares a scalar attribute.
func Field(name string, typ ScalarType) Attribute {
	return Attribute{Name: name, Kind: KindScalar, Scalar: typ}
}

// Nested declares an attribute holding another composite type.
func Nested(name string, typ *Descriptor) Attribute {
	return Attribute{Name: name, Kind: KindComposite, Type: typ}
}

// ArrayOf declares an attribute holding an array of composite values.
func ArrayOf(name string, elem *Descriptor) Attribute {
	return Attribute{Name: name, Kind: KindArray, Type: elem}
}

// ScalarArray declares an attribute holding an array of scalars.
func ScalarArray(name string, elem ScalarType) Attribute {
	return Attribute{Name: name, Kind: KindArray, Scalar: elem}
}

// IsCompositeArray reports whether the attribute is an array of composite values.
func (a Attribute) IsCompositeArray() bool {
	return a.Kind == KindArray && a.Type != nil
}

// SQLType returns the column type used for the attribute in CREATE TYPE,
// delegating to the scalar or composite type it refers to.
func (a Attribute) SQLType() string {
	switch a.Kind {
	case KindScalar:
		return a.Scalar.SQLType()
	case KindComposite:
		return a.Type.ColumnType()
	case KindArray:
		if a.Type != nil {
			return a.Type.ColumnType() + "[]"
		}
		return a.Scalar.SQLType() + "[]"
	}
	return ""
}

func (a Attribute) validate() error {
	if a.Name == "" {
		return fmt.Errorf("attribute name is required")
	}
	switch a.Kind {
	case KindScalar:
		if !a.Scalar.IsValid() {
			return fmt.Errorf("attribute %s has no scalar type", a.Name)
		}
	case KindComposite:
		if a.Type == nil {
			return fmt.Errorf("attribute %s has no composite type", a.Name)
		}
	case KindArray:
		if a.Type == nil && !a.Scalar.IsValid() {
			return fmt.Errorf("attribute %s has no element type", a.Name)
		}
	default:
		return fmt.Errorf("attribute %s has invalid kind %s", a.Name, a.Kind)
	}
	return nil
}
