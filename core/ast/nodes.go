// Package ast models the DDL statements needed to manage composite types and
// the table columns that use them. Renderers turn the nodes into SQL through
// the Visitor interface.
package ast

import (
	"fmt"
)

// Node is a statement a Visitor can render
type Node interface {
	Accept(visitor Visitor) error
}

// Visitor receives each kind of node
type Visitor interface {
	VisitCreateType(node *CreateTypeNode) error
	VisitDropType(node *DropTypeNode) error
	VisitAlterTable(node *AlterTableNode) error
	VisitComment(node *CommentNode) error
}

// AttributeNode is one attribute of a composite type
type AttributeNode struct {
	Name string
	// Type is the SQL type as written in DDL, e.g. "integer" or "x_point[]"
	Type string
}

// NewAttribute returns an attribute of the given SQL type
func NewAttribute(name, dataType string) *AttributeNode {
	return &AttributeNode{Name: name, Type: dataType}
}

// CreateTypeNode is CREATE TYPE name AS (...). Attribute order is the order
// PostgreSQL uses to encode values, so it is preserved as added.
type CreateTypeNode struct {
	Name       string
	Attributes []*AttributeNode
	// Comment, when set, is rendered as a line comment above the statement
	Comment string
}

// NewCreateType starts a CREATE TYPE statement without attributes:
//
//	NewCreateType("x_point").
//		AddAttribute(NewAttribute("x", "integer")).
//		AddAttribute(NewAttribute("y", "integer"))
func NewCreateType(name string) *CreateTypeNode {
	return &CreateTypeNode{Name: name, Attributes: []*AttributeNode{}}
}

// AddAttribute appends attr
func (n *CreateTypeNode) AddAttribute(attr *AttributeNode) *CreateTypeNode {
	n.Attributes = append(n.Attributes, attr)
	return n
}

// SetComment attaches a line comment
func (n *CreateTypeNode) SetComment(comment string) *CreateTypeNode {
	n.Comment = comment
	return n
}

func (n *CreateTypeNode) Accept(visitor Visitor) error {
	return visitor.VisitCreateType(n)
}

// DropTypeNode is DROP TYPE [IF EXISTS] name [CASCADE]
type DropTypeNode struct {
	Name     string
	IfExists bool
	// Cascade also drops columns and types built on the type
	Cascade bool
	Comment string
}

// NewDropType returns a plain DROP TYPE, which PostgreSQL refuses while other
// objects still use the type.
func NewDropType(name string) *DropTypeNode {
	return &DropTypeNode{Name: name}
}

// SetIfExists adds IF EXISTS
func (n *DropTypeNode) SetIfExists() *DropTypeNode {
	n.IfExists = true
	return n
}

// SetCascade adds CASCADE
func (n *DropTypeNode) SetCascade() *DropTypeNode {
	n.Cascade = true
	return n
}

// SetComment attaches a line comment
func (n *DropTypeNode) SetComment(comment string) *DropTypeNode {
	n.Comment = comment
	return n
}

func (n *DropTypeNode) Accept(visitor Visitor) error {
	return visitor.VisitDropType(n)
}

// AlterOperation is one clause of an ALTER TABLE statement. It is implemented
// by AddColumnOperation and DropColumnOperation only.
type AlterOperation interface {
	alterOperation()
}

// AddColumnOperation is ADD COLUMN name type
type AddColumnOperation struct {
	Name string
	Type string
}

func (*AddColumnOperation) alterOperation() {}

// DropColumnOperation is DROP COLUMN [IF EXISTS] name
type DropColumnOperation struct {
	Name     string
	IfExists bool
}

func (*DropColumnOperation) alterOperation() {}

// AlterTableNode is ALTER TABLE name followed by comma separated clauses
type AlterTableNode struct {
	Name       string
	Operations []AlterOperation
}

// NewAlterTable starts an ALTER TABLE statement, e.g.
//
//	NewAlterTable("items").AddColumn("bounding_box", "x_box")
func NewAlterTable(name string) *AlterTableNode {
	return &AlterTableNode{Name: name, Operations: []AlterOperation{}}
}

// AddColumn appends an ADD COLUMN clause
func (n *AlterTableNode) AddColumn(name, dataType string) *AlterTableNode {
	n.Operations = append(n.Operations, &AddColumnOperation{Name: name, Type: dataType})
	return n
}

// DropColumn appends a DROP COLUMN clause
func (n *AlterTableNode) DropColumn(name string, ifExists bool) *AlterTableNode {
	n.Operations = append(n.Operations, &DropColumnOperation{Name: name, IfExists: ifExists})
	return n
}

func (n *AlterTableNode) Accept(visitor Visitor) error {
	return visitor.VisitAlterTable(n)
}

// CommentNode is a standalone "-- text" line
type CommentNode struct {
	Text string
}

// NewComment returns a comment line
func NewComment(text string) *CommentNode {
	return &CommentNode{Text: text}
}

func (n *CommentNode) Accept(visitor Visitor) error {
	return visitor.VisitComment(n)
}

// StatementList is a script. Its statements are visited in order and the
// first error stops the walk.
type StatementList struct {
	Statements []Node
}

func (sl *StatementList) Accept(visitor Visitor) error {
	for _, stmt := range sl.Statements {
		if err := stmt.Accept(visitor); err != nil {
			return fmt.Errorf("error visiting statement: %w", err)
		}
	}
	return nil
}
