package mocks

import (
	"errors"

	"github.com/stokaro/pgcomposite/core/ast"
)

// MockVisitor implements the Visitor interface for testing
type MockVisitor struct {
	VisitedNodes []string
	ReturnError  bool
}

func (m *MockVisitor) VisitCreateType(node *ast.CreateTypeNode) error {
	return m.visit("CreateType:" + node.Name)
}

func (m *MockVisitor) VisitDropType(node *ast.DropTypeNode) error {
	return m.visit("DropType:" + node.Name)
}

func (m *MockVisitor) VisitAlterTable(node *ast.AlterTableNode) error {
	return m.visit("AlterTable:" + node.Name)
}

func (m *MockVisitor) VisitComment(node *ast.CommentNode) error {
	return m.visit("Comment:" + node.Text)
}

func (m *MockVisitor) visit(name string) error {
	m.VisitedNodes = append(m.VisitedNodes, name)
	if m.ReturnError {
		return errors.New("mock error")
	}
	return nil
}
