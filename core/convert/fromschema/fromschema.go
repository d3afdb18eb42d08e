// Package fromschema converts composite type descriptors into AST nodes.
//
// This package is the bridge between composite.Descriptor, the in-memory
// definition used by the value codec, and the AST nodes rendered into DDL by
// the dialect renderers.
//
// # Example Usage
//
//	point := composite.MustDefine("x_point",
//		composite.Field("x", composite.Integer()),
//		composite.Field("y", composite.Integer()),
//	)
//	node := fromschema.FromDescriptor(point)
//	sql, _ := postgres.New().Render(node)
//	// CREATE TYPE x_point AS (x integer, y integer);
//
// Converting a set of types in creation order:
//
//	statements, err := fromschema.FromDescriptors(box, point)
//	// point is created before box because box nests it
package fromschema

import (
	"fmt"
	"log/slog"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/core/ast"
)

// FromAttribute converts a descriptor attribute into an attribute node.
// Scalar attributes delegate to their SQL type, nested ones use the nested
// type name and arrays append [].
func FromAttribute(attr composite.Attribute) *ast.AttributeNode {
	return ast.NewAttribute(attr.Name, attr.SQLType())
}

// FromDescriptor converts a descriptor into a CREATE TYPE node.
//
// The node reflects the descriptor at call time. A migration that calls this
// at apply time creates whatever the descriptor currently says, not what it
// said when the migration was written.
func FromDescriptor(desc *composite.Descriptor) *ast.CreateTypeNode {
	node := ast.NewCreateType(desc.TypeName())
	for _, attr := range desc.Attributes() {
		node.AddAttribute(FromAttribute(attr))
	}
	return node
}

// FromDescriptorDrop converts a descriptor into a DROP TYPE node.
func FromDescriptorDrop(desc *composite.Descriptor) *ast.DropTypeNode {
	return ast.NewDropType(desc.TypeName())
}

// FromDescriptors converts descriptors and every type they depend on into a
// statement list ordered so that each type is created after its dependencies.
func FromDescriptors(descs ...*composite.Descriptor) (*ast.StatementList, error) {
	ordered, err := composite.SortByDependencies(descs)
	if err != nil {
		return nil, fmt.Errorf("failed to order composite types: %w", err)
	}

	statements := &ast.StatementList{Statements: make([]ast.Node, 0, len(ordered))}
	for _, desc := range ordered {
		slog.Debug("Converting composite type", "type", desc.TypeName(), "attributes", desc.Len())
		statements.Statements = append(statements.Statements, FromDescriptor(desc))
	}
	return statements, nil
}

// FromDescriptorsDrop is the reverse of FromDescriptors: dependents are
// dropped before the types they use.
func FromDescriptorsDrop(descs ...*composite.Descriptor) (*ast.StatementList, error) {
	ordered, err := composite.SortByDependencies(descs)
	if err != nil {
		return nil, fmt.Errorf("failed to order composite types: %w", err)
	}

	statements := &ast.StatementList{Statements: make([]ast.Node, 0, len(ordered))}
	for i := len(ordered) - 1; i >= 0; i-- {
		statements.Statements = append(statements.Statements, FromDescriptorDrop(ordered[i]))
	}
	return statements, nil
}
