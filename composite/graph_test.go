package composite_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/pgcomposite/composite"
)

func typeNames(descs []*composite.Descriptor) []string {
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = d.TypeName()
	}
	return out
}

func TestClosure(t *testing.T) {
	c := qt.New(t)
	c.Assert(typeNames(composite.Closure(item, hand)), qt.DeepEquals, []string{"x_point", "x_box", "item", "card", "hand"})
	c.Assert(composite.Closure(), qt.HasLen, 0)
}

func TestSortByDependencies(t *testing.T) {
	tests := []struct {
		name  string
		input []*composite.Descriptor
		want  []string
	}{
		{name: "already ordered", input: []*composite.Descriptor{point, box}, want: []string{"x_point", "x_box"}},
		{name: "dependent first", input: []*composite.Descriptor{box, point}, want: []string{"x_point", "x_box"}},
		{name: "missing dependency added", input: []*composite.Descriptor{hand}, want: []string{"card", "hand"}},
		{name: "independent keep input order", input: []*composite.Descriptor{card, point, simpleType}, want: []string{"card", "x_point", "test_type"}},
		{name: "duplicates merged", input: []*composite.Descriptor{point, point}, want: []string{"x_point"}},
		{name: "deep", input: []*composite.Descriptor{item}, want: []string{"x_point", "x_box", "item"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			got, err := composite.SortByDependencies(tt.input)
			c.Assert(err, qt.IsNil)
			c.Assert(typeNames(got), qt.DeepEquals, tt.want)
		})
	}
}

func TestSortByDependencies_SameNameSameShape(t *testing.T) {
	c := qt.New(t)
	again := composite.MustDefine("x_point",
		composite.Field("x", composite.Integer()),
		composite.Field("y", composite.Integer()),
	)
	got, err := composite.SortByDependencies([]*composite.Descriptor{point, again})
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 1)
}

func TestSortByDependencies_Conflict(t *testing.T) {
	c := qt.New(t)
	other := composite.MustDefine("x_point", composite.Field("x", composite.Text()))
	_, err := composite.SortByDependencies([]*composite.Descriptor{box, other})
	c.Assert(err, qt.ErrorMatches, "composite type x_point: declared twice with different attributes")
	c.Assert(composite.IsConfigurationError(err), qt.IsTrue)
}
