package types

import (
	"context"
	"database/sql"
)

// DBSchema represents the composite types read from a database schema
type DBSchema struct {
	CompositeTypes []DBCompositeType `json:"composite_types"`
}

// DBCompositeType represents a composite (row) type created with CREATE TYPE ... AS (...)
type DBCompositeType struct {
	Name       string                 `json:"name"`
	OID        uint32                 `json:"oid"`
	ArrayOID   uint32                 `json:"array_oid"`
	Comment    string                 `json:"comment"`
	Attributes []DBCompositeAttribute `json:"attributes"`
}

// DBCompositeAttribute represents one attribute of a composite type
type DBCompositeAttribute struct {
	Name            string `json:"name"`
	DataType        string `json:"data_type"` // format_type() spelling, e.g. "character varying(20)"
	UDTName         string `json:"udt_name"`  // pg_type.typname of the attribute type, e.g. "_int4"
	OrdinalPosition int    `json:"ordinal_position"`
	IsArray         bool   `json:"is_array"`
	IsComposite     bool   `json:"is_composite"` // Attribute type (or element type for arrays) is a composite
	ElementType     string `json:"element_type"` // Element typname for arrays, UDTName otherwise
}

// DependencyNames returns the composite types referenced by t's attributes.
func (t DBCompositeType) DependencyNames() []string {
	var deps []string
	seen := make(map[string]bool)
	for _, attr := range t.Attributes {
		if !attr.IsComposite || seen[attr.ElementType] {
			continue
		}
		seen[attr.ElementType] = true
		deps = append(deps, attr.ElementType)
	}
	return deps
}

// DBInfo contains connection and metadata information
type DBInfo struct {
	Dialect string `json:"dialect"` // always postgres
	Version string `json:"version"`
	Schema  string `json:"schema"` // public unless configured
	URL     string `json:"url"`    // database connection URL (for reference)
}

// Querier runs read queries. *sql.DB, *sql.Tx and *sql.Conn implement it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SchemaReader interface for reading composite types from a database
type SchemaReader interface {
	ReadSchema(ctx context.Context) (*DBSchema, error)
	ReadCompositeTypes(ctx context.Context) ([]DBCompositeType, error)
	ReadCompositeType(ctx context.Context, name string) (*DBCompositeType, error)
	TypeExists(ctx context.Context, name string) (bool, error)
}

// SchemaWriter interface for writing schemas to databases
type SchemaWriter interface {
	ExecuteSQL(ctx context.Context, sql string) error
	BeginTransaction(ctx context.Context) error
	CommitTransaction() error
	RollbackTransaction() error
	InTransaction() bool
	Querier() Querier
	SetDryRun(dryRun bool)
	IsDryRun() bool
}
