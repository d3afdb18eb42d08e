package registry

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/stokaro/pgcomposite/composite"
)

// EncodeValue encodes v in the given pgx format code. A NULL value encodes
// to nil.
func (r *Registry) EncodeValue(v composite.Value, format int16) ([]byte, error) {
	if v.Descriptor() == nil {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.entry(v.TypeName())
	if err != nil {
		return nil, err
	}
	buf, err := r.typeMap.Encode(entry.OID, format, v, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", v.TypeName(), err)
	}
	return buf, nil
}

// EncodeArray encodes a in the given pgx format code. A NULL array encodes
// to nil.
func (r *Registry) EncodeArray(a composite.Array, format int16) ([]byte, error) {
	if a.Descriptor() == nil || a.IsNull() {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	oid, err := r.arrayOID(a.TypeName())
	if err != nil {
		return nil, err
	}
	buf, err := r.typeMap.Encode(oid, format, a, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s[]: %w", a.TypeName(), err)
	}
	return buf, nil
}

// ScanValue decodes src, in the given pgx format code, as a value of desc.
// nil src decodes to the NULL value.
func (r *Registry) ScanValue(desc *composite.Descriptor, format int16, src []byte) (composite.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.entry(desc.TypeName())
	if err != nil {
		return composite.Value{}, err
	}
	v := desc.Zero()
	if err := r.typeMap.Scan(entry.OID, format, src, &v); err != nil {
		return composite.Value{}, fmt.Errorf("failed to scan %s: %w", desc.TypeName(), err)
	}
	return v, nil
}

// ScanArray decodes src, in the given pgx format code, as an array of desc.
func (r *Registry) ScanArray(desc *composite.Descriptor, format int16, src []byte) (composite.Array, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	oid, err := r.arrayOID(desc.TypeName())
	if err != nil {
		return composite.Array{}, err
	}
	a := desc.ZeroArray()
	if err := r.typeMap.Scan(oid, format, src, &a); err != nil {
		return composite.Array{}, fmt.Errorf("failed to scan %s[]: %w", desc.TypeName(), err)
	}
	return a, nil
}

func (r *Registry) entry(typeName string) (*Entry, error) {
	entry, ok := r.entries[typeName]
	if !ok {
		return nil, &composite.ValidationError{
			Type:    typeName,
			Code:    composite.CodeUnregistered,
			Message: "type is not registered with the driver",
			Err:     ErrNotRegistered,
		}
	}
	return entry, nil
}

func (r *Registry) arrayOID(typeName string) (uint32, error) {
	entry, err := r.entry(typeName)
	if err != nil {
		return 0, err
	}
	if entry.ArrayOID == 0 {
		return 0, fmt.Errorf("%w: %s[]", ErrNotRegistered, typeName)
	}
	return entry.ArrayOID, nil
}

// TextFormat and BinaryFormat are the pgx format codes accepted by the
// Encode and Scan methods.
const (
	TextFormat   = pgtype.TextFormatCode
	BinaryFormat = pgtype.BinaryFormatCode
)
