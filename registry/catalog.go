package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stokaro/pgcomposite/composite"
)

// Querier runs catalog queries. *sql.DB, *sql.Tx and *sql.Conn implement it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const catalogQuery = `
SELECT t.oid, t.typarray, a.attname, a.atttypid, format_type(a.atttypid, a.atttypmod)
FROM pg_catalog.pg_type t
JOIN pg_catalog.pg_class c ON c.oid = t.typrelid AND c.relkind = 'c'
JOIN pg_catalog.pg_attribute a ON a.attrelid = t.typrelid AND a.attnum > 0 AND NOT a.attisdropped
WHERE t.oid = to_regtype($1)
ORDER BY a.attnum`

// catalogType is a composite type as stored in pg_type/pg_attribute.
type catalogType struct {
	OID        uint32
	ArrayOID   uint32
	Attributes []catalogAttribute
}

type catalogAttribute struct {
	Name    string
	TypeOID uint32
	Type    string
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanCatalogRows(rows rowScanner, typeName string) (*catalogType, error) {
	var ct *catalogType
	for rows.Next() {
		var (
			oid, arrayOID uint32
			attr          catalogAttribute
		)
		if err := rows.Scan(&oid, &arrayOID, &attr.Name, &attr.TypeOID, &attr.Type); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row for type %s: %w", typeName, err)
		}
		if ct == nil {
			ct = &catalogType{OID: oid, ArrayOID: arrayOID}
		}
		ct.Attributes = append(ct.Attributes, attr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog for type %s: %w", typeName, err)
	}
	if ct == nil {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeName)
	}
	return ct, nil
}

type catalogFunc func(ctx context.Context, desc *composite.Descriptor) (*catalogType, error)

func sqlCatalog(q Querier) catalogFunc {
	return func(ctx context.Context, desc *composite.Descriptor) (*catalogType, error) {
		rows, err := q.QueryContext(ctx, catalogQuery, desc.ColumnType())
		if err != nil {
			return nil, fmt.Errorf("failed to query catalog for type %s: %w", desc.TypeName(), err)
		}
		defer rows.Close()
		return scanCatalogRows(rows, desc.TypeName())
	}
}

func pgxCatalog(conn *pgx.Conn) catalogFunc {
	return func(ctx context.Context, desc *composite.Descriptor) (*catalogType, error) {
		rows, err := conn.Query(ctx, catalogQuery, desc.ColumnType())
		if err != nil {
			return nil, fmt.Errorf("failed to query catalog for type %s: %w", desc.TypeName(), err)
		}
		defer rows.Close()
		return scanCatalogRows(rows, desc.TypeName())
	}
}

// Load reads desc and the composite types it depends on from the catalog,
// verifies that the database attributes match the descriptor in name, order
// and type, and registers them.
func (r *Registry) Load(ctx context.Context, q Querier, desc *composite.Descriptor) (*Entry, error) {
	return r.load(ctx, sqlCatalog(q), desc)
}

// LoadConn is Load for a native pgx connection. The loaded types are also
// registered on conn.
func (r *Registry) LoadConn(ctx context.Context, conn *pgx.Conn, desc *composite.Descriptor) (*Entry, error) {
	entry, err := r.load(ctx, pgxCatalog(conn), desc)
	if err != nil {
		return nil, err
	}
	r.Sync(conn.TypeMap())
	return entry, nil
}

// load reads the catalog rows for desc and its dependencies before taking the
// lock. The query may open a pooled connection whose AfterConnect hook uses
// the registry, so r.mu must not be held while it runs.
func (r *Registry) load(ctx context.Context, catalog catalogFunc, desc *composite.Descriptor) (*Entry, error) {
	ordered, err := composite.SortByDependencies([]*composite.Descriptor{desc})
	if err != nil {
		return nil, err
	}

	found := make([]*catalogType, len(ordered))
	for i, d := range ordered {
		if found[i], err = catalog(ctx, d); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var entry *Entry
	for i, d := range ordered {
		ct := found[i]
		if err := r.verify(d, ct); err != nil {
			return nil, err
		}
		if entry, err = r.register(d, ct.OID, ct.ArrayOID); err != nil {
			return nil, err
		}
		r.logger.Debug("Registered composite type", "type", d.TypeName(), "oid", ct.OID, "arrayOid", ct.ArrayOID)
	}
	return entry, nil
}

// verify compares the catalog definition with the descriptor. Scalar types are
// compared by their format_type spelling, composite ones by OID since their
// name may be schema qualified.
func (r *Registry) verify(desc *composite.Descriptor, ct *catalogType) error {
	mismatch := func(attr, format string, args ...any) error {
		return &composite.ValidationError{
			Type:      desc.TypeName(),
			Attribute: attr,
			Code:      composite.CodeShapeMismatch,
			Message:   fmt.Sprintf(format, args...),
			Err:       ErrDefinitionMismatch,
		}
	}

	if len(ct.Attributes) != desc.Len() {
		return mismatch("", "database has %d attributes, descriptor has %d", len(ct.Attributes), desc.Len())
	}

	for i, attr := range desc.Attributes() {
		got := ct.Attributes[i]
		if got.Name != attr.Name {
			return mismatch(attr.Name, "attribute %d is %s in the database", i+1, got.Name)
		}

		switch {
		case attr.Kind == composite.KindScalar:
			if want := attr.Scalar.CatalogType(); got.Type != want {
				return mismatch(attr.Name, "database type is %s, descriptor type is %s", got.Type, want)
			}
		case attr.Kind == composite.KindArray && attr.Type == nil:
			if want := attr.Scalar.CatalogType() + "[]"; got.Type != want {
				return mismatch(attr.Name, "database type is %s, descriptor type is %s", got.Type, want)
			}
		default:
			dep := r.entries[attr.Type.TypeName()]
			want := dep.OID
			if attr.Kind == composite.KindArray {
				want = dep.ArrayOID
			}
			if got.TypeOID != want {
				return mismatch(attr.Name, "database type is %s, descriptor type is %s", got.Type, attr.SQLType())
			}
		}
	}
	return nil
}

// LoadDeclared loads every declared descriptor that is not registered yet. A
// type missing from the database is logged and skipped, since the migration
// creating it may not have run yet. Other errors abort.
func (r *Registry) LoadDeclared(ctx context.Context, q Querier) error {
	return r.loadMissing(ctx, sqlCatalog(q))
}

func (r *Registry) loadMissing(ctx context.Context, catalog catalogFunc) error {
	for _, desc := range r.Declared() {
		if _, ok := r.Lookup(desc.TypeName()); ok {
			continue
		}
		if _, err := r.load(ctx, catalog, desc); err != nil {
			if errors.Is(err, ErrTypeNotFound) {
				r.warn("Composite type is not in the database yet, skipping registration", "type", desc.TypeName())
				continue
			}
			return fmt.Errorf("failed to register composite type %s: %w", desc.TypeName(), err)
		}
	}
	return nil
}

func (r *Registry) warn(msg string, args ...any) {
	r.mu.Lock()
	logger := r.logger
	r.mu.Unlock()
	logger.Warn(msg, args...)
}
