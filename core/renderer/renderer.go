// Package renderer turns composite type descriptors into PostgreSQL DDL.
//
// CreateTypeSQL and DropTypeSQL return a single bare statement with no
// terminator, suitable for Exec. CreateScript and DropScript return complete
// scripts with every dependency included and one terminated statement per line.
package renderer

import (
	"fmt"
	"strings"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/core/ast"
	"github.com/stokaro/pgcomposite/core/convert/fromschema"
	"github.com/stokaro/pgcomposite/core/renderer/dialects/postgres"
)

// CreateTypeSQL returns CREATE TYPE name AS (attr type, ...) for desc as it
// is now. Nothing is cached between calls.
func CreateTypeSQL(desc *composite.Descriptor) (string, error) {
	return renderStatement(fromschema.FromDescriptor(desc))
}

// DropTypeSQL returns DROP TYPE name for desc.
func DropTypeSQL(desc *composite.Descriptor) (string, error) {
	return renderStatement(fromschema.FromDescriptorDrop(desc))
}

// AddColumnSQL returns ALTER TABLE table ADD COLUMN column type, using the
// array type when array is set.
func AddColumnSQL(table, column string, desc *composite.Descriptor, array bool) (string, error) {
	columnType := desc.ColumnType()
	if array {
		columnType += "[]"
	}
	return renderStatement(ast.NewAlterTable(table).AddColumn(column, columnType))
}

// DropColumnSQL returns ALTER TABLE table DROP COLUMN column.
func DropColumnSQL(table, column string) (string, error) {
	return renderStatement(ast.NewAlterTable(table).DropColumn(column, false))
}

// CreateScript renders the CREATE TYPE statements for descs and their
// dependencies in creation order.
func CreateScript(descs ...*composite.Descriptor) (string, error) {
	statements, err := fromschema.FromDescriptors(descs...)
	if err != nil {
		return "", err
	}
	return postgres.New().Render(statements)
}

// DropScript renders the DROP TYPE statements for descs and their
// dependencies, dependents first.
func DropScript(descs ...*composite.Descriptor) (string, error) {
	statements, err := fromschema.FromDescriptorsDrop(descs...)
	if err != nil {
		return "", err
	}
	return postgres.New().Render(statements)
}

// OrderedCreateStatements returns the bare CREATE TYPE statements for descs
// and their dependencies in creation order.
func OrderedCreateStatements(descs ...*composite.Descriptor) ([]string, error) {
	ordered, err := composite.SortByDependencies(descs)
	if err != nil {
		return nil, fmt.Errorf("failed to order composite types: %w", err)
	}
	out := make([]string, 0, len(ordered))
	for _, desc := range ordered {
		stmt, err := CreateTypeSQL(desc)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func renderStatement(node ast.Node) (string, error) {
	sql, err := postgres.New().Render(node)
	if err != nil {
		return "", fmt.Errorf("failed to render SQL: %w", err)
	}
	return strings.TrimSuffix(strings.TrimSpace(sql), ";"), nil
}
