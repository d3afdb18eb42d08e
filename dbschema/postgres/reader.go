package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stokaro/pgcomposite/dbschema/types"
)

// ErrTypeNotFound is returned by ReadCompositeType for a name that is not a
// composite type in the reader's schema.
var ErrTypeNotFound = errors.New("composite type not found")

const compositeTypesQuery = `
	SELECT
		t.typname,
		t.oid,
		t.typarray,
		COALESCE(obj_description(t.oid, 'pg_type'), '') AS type_comment,
		a.attname,
		format_type(a.atttypid, a.atttypmod) AS data_type,
		at.typname AS udt_name,
		a.attnum,
		at.typcategory = 'A' AS is_array,
		COALESCE(et.typname, at.typname) AS element_type,
		COALESCE(et.typtype, at.typtype) = 'c' AS is_composite
	FROM pg_catalog.pg_type t
	JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
	JOIN pg_catalog.pg_class c ON c.oid = t.typrelid AND c.relkind = 'c'
	JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid AND a.attnum > 0 AND NOT a.attisdropped
	JOIN pg_catalog.pg_type at ON at.oid = a.atttypid
	LEFT JOIN pg_catalog.pg_type et ON et.oid = at.typelem AND at.typcategory = 'A'
	WHERE n.nspname = $1`

// Reader reads composite types from PostgreSQL databases
type Reader struct {
	db     types.Querier
	schema string
}

// NewPostgreSQLReader creates a new PostgreSQL schema reader. db may be a
// *sql.DB or an open *sql.Tx, so types created earlier in the same
// transaction are visible.
func NewPostgreSQLReader(db types.Querier, schema string) *Reader {
	if schema == "" {
		schema = "public"
	}
	return &Reader{
		db:     db,
		schema: schema,
	}
}

// Schema returns the schema the reader inspects
func (r *Reader) Schema() string {
	return r.schema
}

// ReadSchema reads every composite type of the schema
func (r *Reader) ReadSchema(ctx context.Context) (*types.DBSchema, error) {
	compositeTypes, err := r.ReadCompositeTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read composite types: %w", err)
	}
	return &types.DBSchema{CompositeTypes: compositeTypes}, nil
}

// ReadCompositeTypes reads all composite types ordered by name, each with its
// attributes in declaration order
func (r *Reader) ReadCompositeTypes(ctx context.Context) ([]types.DBCompositeType, error) {
	query := compositeTypesQuery + `
	ORDER BY t.typname, a.attnum`

	rows, err := r.db.QueryContext(ctx, query, r.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query composite types: %w", err)
	}
	defer rows.Close()

	return scanCompositeTypes(rows)
}

// ReadCompositeType reads a single composite type. It returns an error
// wrapping ErrTypeNotFound when the type does not exist.
func (r *Reader) ReadCompositeType(ctx context.Context, name string) (*types.DBCompositeType, error) {
	query := compositeTypesQuery + `
	AND t.typname = $2
	ORDER BY a.attnum`

	rows, err := r.db.QueryContext(ctx, query, r.schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query composite type %s: %w", name, err)
	}
	defer rows.Close()

	compositeTypes, err := scanCompositeTypes(rows)
	if err != nil {
		return nil, err
	}
	if len(compositeTypes) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", ErrTypeNotFound, r.schema, name)
	}
	return &compositeTypes[0], nil
}

// TypeExists reports whether a composite type with the given name exists
func (r *Reader) TypeExists(ctx context.Context, name string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM pg_catalog.pg_type t
			JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
			WHERE n.nspname = $1 AND t.typname = $2 AND t.typtype = 'c'
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, r.schema, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check composite type %s: %w", name, err)
	}
	return exists, nil
}

type attributeRow struct {
	typeName string
	oid      uint32
	arrayOID uint32
	comment  string
	attr     types.DBCompositeAttribute
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanCompositeTypes(rows rowScanner) ([]types.DBCompositeType, error) {
	var attributeRows []attributeRow
	for rows.Next() {
		var row attributeRow
		err := rows.Scan(
			&row.typeName,
			&row.oid,
			&row.arrayOID,
			&row.comment,
			&row.attr.Name,
			&row.attr.DataType,
			&row.attr.UDTName,
			&row.attr.OrdinalPosition,
			&row.attr.IsArray,
			&row.attr.ElementType,
			&row.attr.IsComposite,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan composite type attribute: %w", err)
		}
		attributeRows = append(attributeRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating composite type rows: %w", err)
	}
	return groupAttributeRows(attributeRows), nil
}

// groupAttributeRows folds consecutive rows of the same type into one
// DBCompositeType. Rows must be ordered by type name.
func groupAttributeRows(rows []attributeRow) []types.DBCompositeType {
	var compositeTypes []types.DBCompositeType
	for _, row := range rows {
		n := len(compositeTypes)
		if n == 0 || compositeTypes[n-1].Name != row.typeName {
			compositeTypes = append(compositeTypes, types.DBCompositeType{
				Name:     row.typeName,
				OID:      row.oid,
				ArrayOID: row.arrayOID,
				Comment:  row.comment,
			})
			n++
		}
		compositeTypes[n-1].Attributes = append(compositeTypes[n-1].Attributes, row.attr)
	}
	return compositeTypes
}

// SplitQualifiedName splits "schema.name" into its parts. Unqualified names
// return an empty schema. Double-quoted parts are unquoted.
func SplitQualifiedName(qualified string) (schema, name string) {
	schema, name, ok := strings.Cut(qualified, ".")
	if !ok || strings.HasPrefix(qualified, `"`) && !strings.HasSuffix(schema, `"`) {
		return "", unquote(qualified)
	}
	return unquote(schema), unquote(name)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}

var _ types.SchemaReader = (*Reader)(nil)
