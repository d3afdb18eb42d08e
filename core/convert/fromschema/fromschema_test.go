package fromschema_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/core/ast"
	"github.com/stokaro/pgcomposite/core/convert/fromschema"
)

func TestFromDescriptor(t *testing.T) {
	c := qt.New(t)
	point := composite.MustDefine("x_point",
		composite.Field("x", composite.Integer()),
		composite.Field("y", composite.Integer()),
	)
	shape := composite.MustDefine("shape",
		composite.Field("name", composite.Text()),
		composite.ArrayOf("vertices", point),
		composite.ScalarArray("tags", composite.Varchar(10)),
	)

	node := fromschema.FromDescriptor(shape)

	c.Assert(node.Name, qt.Equals, "shape")
	c.Assert(node.Attributes, qt.DeepEquals, []*ast.AttributeNode{
		{Name: "name", Type: "text"},
		{Name: "vertices", Type: "x_point[]"},
		{Name: "tags", Type: "varchar(10)[]"},
	})
	c.Assert(fromschema.FromDescriptorDrop(shape).Name, qt.Equals, "shape")
}

func TestFromDescriptors(t *testing.T) {
	c := qt.New(t)
	point := composite.MustDefine("x_point", composite.Field("x", composite.Integer()))
	box := composite.MustDefine("x_box", composite.Nested("top_left", point))

	create, err := fromschema.FromDescriptors(box)
	c.Assert(err, qt.IsNil)
	c.Assert(names(create), qt.DeepEquals, []string{"x_point", "x_box"})

	drop, err := fromschema.FromDescriptorsDrop(box)
	c.Assert(err, qt.IsNil)
	c.Assert(names(drop), qt.DeepEquals, []string{"x_box", "x_point"})
}

func names(list *ast.StatementList) []string {
	var out []string
	for _, stmt := range list.Statements {
		switch n := stmt.(type) {
		case *ast.CreateTypeNode:
			out = append(out, n.Name)
		case *ast.DropTypeNode:
			out = append(out, n.Name)
		}
	}
	return out
}
