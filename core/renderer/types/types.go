// Package types declares the interface implemented by dialect renderers.
package types

import "github.com/stokaro/pgcomposite/core/ast"

// RenderVisitor is an ast.Visitor that accumulates SQL output.
type RenderVisitor interface {
	ast.Visitor

	// Dialect returns the database dialect name
	Dialect() string
	// Render renders a node and returns the SQL for it alone
	Render(node ast.Node) (string, error)
	// Output returns everything rendered since the last Reset
	Output() string
	// Reset clears the output
	Reset()
}
