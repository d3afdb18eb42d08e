// Package postgres renders composite type DDL for PostgreSQL.
package postgres

import (
	"fmt"
	"strings"

	"github.com/stokaro/pgcomposite/core/ast"
	"github.com/stokaro/pgcomposite/core/platform"
	"github.com/stokaro/pgcomposite/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/pgcomposite/core/renderer/types"
	"github.com/stokaro/pgcomposite/core/sqlutil"
)

var (
	_ types.RenderVisitor = (*Renderer)(nil)
)

// Renderer provides PostgreSQL-specific SQL rendering.
//
// Every statement is written on its own line and terminated with a semicolon.
type Renderer struct {
	w bufwriter.Writer
}

// New creates a new PostgreSQL renderer
func New() *Renderer {
	return &Renderer{}
}

// Dialect returns the database dialect.
func (r *Renderer) Dialect() string {
	return platform.Postgres
}

// Reset clears the output.
func (r *Renderer) Reset() {
	r.w.Reset()
}

// Output returns the SQL rendered so far.
func (r *Renderer) Output() string {
	return r.w.String()
}

// Render renders an AST node to SQL and returns the result
func (r *Renderer) Render(node ast.Node) (string, error) {
	r.Reset()
	if err := node.Accept(r); err != nil {
		return "", err
	}
	return r.Output(), nil
}

// VisitCreateType renders CREATE TYPE name AS (attr type, ...).
func (r *Renderer) VisitCreateType(node *ast.CreateTypeNode) error {
	if node.Name == "" {
		return fmt.Errorf("type name is required")
	}
	r.writeComment(node.Comment)

	attrs := make([]string, 0, len(node.Attributes))
	for _, attr := range node.Attributes {
		if attr.Name == "" || attr.Type == "" {
			return fmt.Errorf("type %s: attribute name and type are required", node.Name)
		}
		attrs = append(attrs, sqlutil.QuoteIdent(attr.Name)+" "+attr.Type)
	}

	r.w.WriteLinef("CREATE TYPE %s AS (%s);", sqlutil.QuoteIdent(node.Name), strings.Join(attrs, ", "))
	return nil
}

// VisitDropType renders DROP TYPE [IF EXISTS] name [CASCADE].
func (r *Renderer) VisitDropType(node *ast.DropTypeNode) error {
	if node.Name == "" {
		return fmt.Errorf("type name is required")
	}
	r.writeComment(node.Comment)

	var sb strings.Builder
	sb.WriteString("DROP TYPE ")
	if node.IfExists {
		sb.WriteString("IF EXISTS ")
	}
	sb.WriteString(sqlutil.QuoteIdent(node.Name))
	if node.Cascade {
		sb.WriteString(" CASCADE")
	}
	sb.WriteString(";")
	r.w.WriteLine(sb.String())
	return nil
}

// VisitAlterTable renders one ALTER TABLE statement per operation.
func (r *Renderer) VisitAlterTable(node *ast.AlterTableNode) error {
	table := sqlutil.QuoteIdent(node.Name)
	for _, op := range node.Operations {
		switch op := op.(type) {
		case *ast.AddColumnOperation:
			r.w.WriteLinef("ALTER TABLE %s ADD COLUMN %s %s;", table, sqlutil.QuoteIdent(op.Name), op.Type)
		case *ast.DropColumnOperation:
			ifExists := ""
			if op.IfExists {
				ifExists = "IF EXISTS "
			}
			r.w.WriteLinef("ALTER TABLE %s DROP COLUMN %s%s;", table, ifExists, sqlutil.QuoteIdent(op.Name))
		default:
			return fmt.Errorf("unsupported alter table operation %T", op)
		}
	}
	return nil
}

// VisitComment renders a "--" comment line.
func (r *Renderer) VisitComment(node *ast.CommentNode) error {
	r.writeComment(node.Text)
	return nil
}

func (r *Renderer) writeComment(text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		r.w.WriteLine("-- " + line)
	}
}
