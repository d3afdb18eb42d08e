package postgres_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/pgcomposite/core/ast"
	"github.com/stokaro/pgcomposite/core/renderer/dialects/postgres"
)

func TestRenderer_VisitCreateType(t *testing.T) {
	tests := []struct {
		name     string
		node     *ast.CreateTypeNode
		expected string
	}{
		{
			name: "scalar attributes",
			node: ast.NewCreateType("x_point").
				AddAttribute(ast.NewAttribute("x", "integer")).
				AddAttribute(ast.NewAttribute("y", "integer")),
			expected: "CREATE TYPE x_point AS (x integer, y integer);\n",
		},
		{
			name: "reserved attribute name is quoted",
			node: ast.NewCreateType("date_range").
				AddAttribute(ast.NewAttribute("start", "timestamptz")).
				AddAttribute(ast.NewAttribute("end", "timestamptz")),
			expected: "CREATE TYPE date_range AS (start timestamptz, \"end\" timestamptz);\n",
		},
		{
			name: "array attribute with comment",
			node: ast.NewCreateType("hand").
				AddAttribute(ast.NewAttribute("cards", "card[]")).
				SetComment("a hand of cards"),
			expected: "-- a hand of cards\nCREATE TYPE hand AS (cards card[]);\n",
		},
		{
			name:     "no attributes",
			node:     ast.NewCreateType("empty_type"),
			expected: "CREATE TYPE empty_type AS ();\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			got, err := postgres.New().Render(tt.node)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, tt.expected)
		})
	}
}

func TestRenderer_VisitCreateType_Errors(t *testing.T) {
	c := qt.New(t)
	r := postgres.New()

	_, err := r.Render(ast.NewCreateType(""))
	c.Assert(err, qt.ErrorMatches, "type name is required")

	_, err = r.Render(ast.NewCreateType("t").AddAttribute(ast.NewAttribute("a", "")))
	c.Assert(err, qt.ErrorMatches, "type t: attribute name and type are required")
}

func TestRenderer_VisitDropType(t *testing.T) {
	tests := []struct {
		name     string
		node     *ast.DropTypeNode
		expected string
	}{
		{name: "plain", node: ast.NewDropType("x_point"), expected: "DROP TYPE x_point;\n"},
		{name: "if exists cascade", node: ast.NewDropType("x_point").SetIfExists().SetCascade(), expected: "DROP TYPE IF EXISTS x_point CASCADE;\n"},
		{name: "quoted", node: ast.NewDropType("Order"), expected: "DROP TYPE \"Order\";\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			got, err := postgres.New().Render(tt.node)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, tt.expected)
		})
	}
}

func TestRenderer_VisitAlterTable(t *testing.T) {
	c := qt.New(t)
	node := ast.NewAlterTable("items").AddColumn("bounding_box", "x_box").DropColumn("legacy", true)

	got, err := postgres.New().Render(node)

	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, "ALTER TABLE items ADD COLUMN bounding_box x_box;\nALTER TABLE items DROP COLUMN IF EXISTS legacy;\n")
}

func TestRenderer_StatementList(t *testing.T) {
	c := qt.New(t)
	r := postgres.New()
	list := &ast.StatementList{Statements: []ast.Node{
		ast.NewComment("types"),
		ast.NewCreateType("card").
			AddAttribute(ast.NewAttribute("suit", "text")).
			AddAttribute(ast.NewAttribute("rank", "text")),
		ast.NewDropType("old_card"),
	}}

	got, err := r.Render(list)

	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, "-- types\nCREATE TYPE card AS (suit text, rank text);\nDROP TYPE old_card;\n")
	c.Assert(r.Dialect(), qt.Equals, "postgres")
	c.Assert(r.Output(), qt.Equals, got)

	r.Reset()
	c.Assert(r.Output(), qt.Equals, "")
}
