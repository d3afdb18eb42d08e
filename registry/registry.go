// Package registry keeps track of the composite types known to the process and
// teaches pgx how to encode and decode them.
//
// Composite types have database assigned OIDs, so a descriptor alone is not
// enough for the driver. Load reads the OID and attribute list from the
// catalog, checks them against the descriptor and builds the pgtype codecs.
// Sync copies the loaded types into a connection's type map, and the
// AfterConnect and ResetSession hooks do that for every pooled connection.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/stokaro/pgcomposite/composite"
)

var (
	// ErrTypeNotFound is returned by Load when the type does not exist in the database.
	ErrTypeNotFound = errors.New("composite type not found")
	// ErrDefinitionMismatch is returned by Load when the database type differs from the descriptor.
	ErrDefinitionMismatch = errors.New("composite type definition mismatch")
	// ErrNotRegistered is returned when a type is used before it was loaded or registered.
	ErrNotRegistered = errors.New("composite type not registered")
)

// Entry is a composite type registered with the driver.
type Entry struct {
	Descriptor *composite.Descriptor
	OID        uint32
	ArrayOID   uint32
	Type       *pgtype.Type
	ArrayType  *pgtype.Type
}

// Registry holds registered composite types. It is safe for concurrent use;
// mutations are serialized.
type Registry struct {
	mu       sync.Mutex
	declared []*composite.Descriptor
	entries  map[string]*Entry
	order    []string
	typeMap  *pgtype.Map
	logger   *slog.Logger
}

var defaultRegistry = New()

// Default returns the process wide registry.
func Default() *Registry {
	return defaultRegistry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		typeMap: pgtype.NewMap(),
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger used for warnings.
func (r *Registry) SetLogger(l *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l
}

// Declare adds descriptors to load when a connection is opened. Their
// dependencies are declared as well.
func (r *Registry) Declare(descs ...*composite.Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range composite.Closure(descs...) {
		found := false
		for _, existing := range r.declared {
			if existing == d {
				found = true
				break
			}
		}
		if !found {
			r.declared = append(r.declared, d)
		}
	}
}

// Declared returns the declared descriptors in declaration order.
func (r *Registry) Declared() []*composite.Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*composite.Descriptor, len(r.declared))
	copy(out, r.declared)
	return out
}

// Register adds a composite type with known OIDs without reading the catalog.
// Every composite type desc references must already be registered. arrayOID
// may be zero when the array type is not needed.
func (r *Registry) Register(desc *composite.Descriptor, oid, arrayOID uint32) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(desc, oid, arrayOID)
}

func (r *Registry) register(desc *composite.Descriptor, oid, arrayOID uint32) (*Entry, error) {
	if oid == 0 {
		return nil, fmt.Errorf("type %s: oid is required", desc.TypeName())
	}

	fields := make([]pgtype.CompositeCodecField, desc.Len())
	for i, attr := range desc.Attributes() {
		typ, err := r.attributeType(attr)
		if err != nil {
			return nil, fmt.Errorf("type %s: attribute %s: %w", desc.TypeName(), attr.Name, err)
		}
		fields[i] = pgtype.CompositeCodecField{Name: attr.Name, Type: typ}
	}

	entry := &Entry{
		Descriptor: desc,
		OID:        oid,
		ArrayOID:   arrayOID,
		Type: &pgtype.Type{
			Name:  desc.TypeName(),
			OID:   oid,
			Codec: &pgtype.CompositeCodec{Fields: fields},
		},
	}
	if arrayOID != 0 {
		entry.ArrayType = &pgtype.Type{
			Name:  "_" + desc.TypeName(),
			OID:   arrayOID,
			Codec: &pgtype.ArrayCodec{ElementType: entry.Type},
		}
	}

	name := desc.TypeName()
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = entry
	r.typeMap.RegisterType(entry.Type)
	if entry.ArrayType != nil {
		r.typeMap.RegisterType(entry.ArrayType)
	}

	return entry, nil
}

func (r *Registry) attributeType(attr composite.Attribute) (*pgtype.Type, error) {
	switch attr.Kind {
	case composite.KindScalar:
		return r.builtinType(attr.Scalar.PgName())
	case composite.KindComposite:
		entry, ok := r.entries[attr.Type.TypeName()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotRegistered, attr.Type.TypeName())
		}
		return entry.Type, nil
	case composite.KindArray:
		if attr.Type == nil {
			return r.builtinType("_" + attr.Scalar.PgName())
		}
		entry, ok := r.entries[attr.Type.TypeName()]
		if !ok || entry.ArrayType == nil {
			return nil, fmt.Errorf("%w: %s[]", ErrNotRegistered, attr.Type.TypeName())
		}
		return entry.ArrayType, nil
	}
	return nil, fmt.Errorf("invalid attribute kind %s", attr.Kind)
}

func (r *Registry) builtinType(name string) (*pgtype.Type, error) {
	typ, ok := r.typeMap.TypeForName(name)
	if !ok {
		return nil, fmt.Errorf("unknown builtin type %s", name)
	}
	return typ, nil
}

// Lookup returns the entry registered under the type name.
func (r *Registry) Lookup(typeName string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[typeName]
	return entry, ok
}

// Entries returns all entries, each after the types it depends on.
func (r *Registry) Entries() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entriesLocked()
}

func (r *Registry) entriesLocked() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

// Deregister removes the type and every registered type that depends on it.
// It returns the names removed. Connections synced earlier keep their codecs
// until they are closed; the OIDs they refer to no longer exist either way.
func (r *Registry) Deregister(typeName string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[typeName]; !ok {
		return nil
	}

	removed := map[string]bool{typeName: true}
	for changed := true; changed; {
		changed = false
		for _, name := range r.order {
			if removed[name] {
				continue
			}
			for _, dep := range r.entries[name].Descriptor.Dependencies() {
				if removed[dep.TypeName()] {
					removed[name] = true
					changed = true
					break
				}
			}
		}
	}

	var names []string
	kept := r.order[:0]
	for _, name := range r.order {
		if removed[name] {
			names = append(names, name)
			delete(r.entries, name)
			continue
		}
		kept = append(kept, name)
	}
	r.order = kept

	if len(names) > 1 {
		r.logger.Warn("Deregistered dependent composite types", "type", typeName, "removed", names)
	}

	r.rebuildTypeMap()
	return names
}

// Reset forgets every registered entry. Declarations are kept.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*Entry)
	r.order = nil
	r.typeMap = pgtype.NewMap()
}

// rebuildTypeMap recreates the internal type map since pgtype.Map cannot
// unregister types.
func (r *Registry) rebuildTypeMap() {
	r.typeMap = pgtype.NewMap()
	for _, entry := range r.entriesLocked() {
		r.typeMap.RegisterType(entry.Type)
		if entry.ArrayType != nil {
			r.typeMap.RegisterType(entry.ArrayType)
		}
	}
}
