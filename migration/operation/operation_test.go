package operation_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/dbschema"
	"github.com/stokaro/pgcomposite/migration/operation"
)

var (
	point = composite.MustDefine("x_point",
		composite.Field("x", composite.Integer()),
		composite.Field("y", composite.Integer()),
	)
	box = composite.MustDefine("x_box",
		composite.Nested("top_left", point),
		composite.Nested("bottom_right", point),
	)
	card = composite.MustDefine("card",
		composite.Field("suit", composite.Varchar(1)),
		composite.Field("rank", composite.Text()),
	)
	hand = composite.MustDefine("hand",
		composite.ArrayOf("cards", card),
	)
)

type fakeOperation struct {
	name     string
	provides []string
	requires []string
}

func (f *fakeOperation) Forward(context.Context, *dbschema.DatabaseConnection) error  { return nil }
func (f *fakeOperation) Backward(context.Context, *dbschema.DatabaseConnection) error { return nil }
func (f *fakeOperation) ForwardSQL() (string, error)                                  { return "", nil }
func (f *fakeOperation) BackwardSQL() (string, error)                                 { return "", nil }
func (f *fakeOperation) Describe() string                                             { return f.name }
func (f *fakeOperation) Provides() []string                                           { return f.provides }
func (f *fakeOperation) Requires() []string                                           { return f.requires }

func describeAll(ops []operation.Operation) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Describe())
	}
	return out
}

func TestCreateType(t *testing.T) {
	c := qt.New(t)

	op := operation.NewCreateType(point)
	c.Assert(op.Describe(), qt.Equals, "Creates type x_point")
	c.Assert(op.Provides(), qt.DeepEquals, []string{"x_point"})
	c.Assert(op.Requires(), qt.IsNil)

	forward, err := op.ForwardSQL()
	c.Assert(err, qt.IsNil)
	c.Assert(forward, qt.Equals, "CREATE TYPE x_point AS (x integer, y integer)")

	backward, err := op.BackwardSQL()
	c.Assert(err, qt.IsNil)
	c.Assert(backward, qt.Equals, "DROP TYPE x_point")
}

func TestCreateType_Requires(t *testing.T) {
	c := qt.New(t)

	c.Assert(operation.NewCreateType(box).Requires(), qt.DeepEquals, []string{"x_point"})
	c.Assert(operation.NewCreateType(hand).Requires(), qt.DeepEquals, []string{"card"})
}

func TestAddColumn(t *testing.T) {
	c := qt.New(t)

	op := operation.NewAddColumn("shapes", "bounds", box)
	c.Assert(op.Describe(), qt.Equals, "Adds column shapes.bounds")
	c.Assert(op.Provides(), qt.IsNil)
	c.Assert(op.Requires(), qt.DeepEquals, []string{"x_box"})

	forward, err := op.ForwardSQL()
	c.Assert(err, qt.IsNil)
	c.Assert(forward, qt.Equals, "ALTER TABLE shapes ADD COLUMN bounds x_box")

	backward, err := op.BackwardSQL()
	c.Assert(err, qt.IsNil)
	c.Assert(backward, qt.Equals, "ALTER TABLE shapes DROP COLUMN bounds")

	arrayOp := operation.NewAddArrayColumn("players", "hands", hand)
	forward, err = arrayOp.ForwardSQL()
	c.Assert(err, qt.IsNil)
	c.Assert(forward, qt.Equals, "ALTER TABLE players ADD COLUMN hands hand[]")
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name string
		ops  []operation.Operation
		want []string
	}{
		{
			name: "already ordered",
			ops: []operation.Operation{
				operation.NewCreateType(point),
				operation.NewCreateType(box),
			},
			want: []string{"Creates type x_point", "Creates type x_box"},
		},
		{
			name: "dependent declared first",
			ops: []operation.Operation{
				operation.NewAddColumn("shapes", "bounds", box),
				operation.NewCreateType(box),
				operation.NewCreateType(point),
			},
			want: []string{"Creates type x_point", "Creates type x_box", "Adds column shapes.bounds"},
		},
		{
			name: "independent operations keep their order",
			ops: []operation.Operation{
				operation.NewCreateType(card),
				operation.NewCreateType(point),
				operation.NewCreateType(hand),
			},
			want: []string{"Creates type card", "Creates type x_point", "Creates type hand"},
		},
		{
			name: "existing types satisfy requirements",
			ops: []operation.Operation{
				operation.NewAddArrayColumn("players", "hands", hand),
				operation.NewUseExisting(hand),
			},
			want: []string{"Uses existing types [hand]", "Adds column players.hands"},
		},
		{
			name: "empty",
			ops:  nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			planned, err := operation.Plan(tt.ops...)
			c.Assert(err, qt.IsNil)
			c.Assert(describeAll(planned), qt.DeepEquals, tt.want)
		})
	}
}

func TestPlan_MissingDependency(t *testing.T) {
	c := qt.New(t)

	_, err := operation.Plan(operation.NewCreateType(box))
	c.Assert(err, qt.ErrorIs, operation.ErrMissingDependency)
	c.Assert(err, qt.ErrorMatches, `missing composite type dependency: "Creates type x_box" requires type x_point`)
}

func TestPlan_DuplicateProvider(t *testing.T) {
	c := qt.New(t)

	_, err := operation.Plan(operation.NewCreateType(point), operation.NewCreateType(point))
	c.Assert(err, qt.ErrorIs, operation.ErrDuplicateProvider)
}

func TestPlan_Cycle(t *testing.T) {
	c := qt.New(t)

	a := &fakeOperation{name: "a", provides: []string{"a"}, requires: []string{"b"}}
	b := &fakeOperation{name: "b", provides: []string{"b"}, requires: []string{"a"}}
	free := &fakeOperation{name: "free", provides: []string{"free"}}

	_, err := operation.Plan(free, a, b)
	c.Assert(err, qt.ErrorIs, operation.ErrCyclicDependency)
	c.Assert(err, qt.ErrorMatches, `cyclic composite type dependency: \[a b\]`)
}

func TestNewMigration(t *testing.T) {
	c := qt.New(t)

	m, err := operation.NewMigration(3, "", operation.NewCreateType(box), operation.NewCreateType(point))
	c.Assert(err, qt.IsNil)
	c.Assert(m.Version, qt.Equals, 3)
	c.Assert(m.Description, qt.Equals, "Creates type x_point; Creates type x_box")
	c.Assert(m.Up, qt.IsNotNil)
	c.Assert(m.Down, qt.IsNotNil)

	m, err = operation.NewMigration(4, "Create shapes", operation.NewCreateType(point))
	c.Assert(err, qt.IsNil)
	c.Assert(m.Description, qt.Equals, "Create shapes")

	_, err = operation.NewMigration(5, "", operation.NewCreateType(hand))
	c.Assert(err, qt.ErrorIs, operation.ErrMissingDependency)
	c.Assert(err, qt.ErrorMatches, "failed to plan migration 5: .*")
}

func TestMustNewMigration_Panics(t *testing.T) {
	c := qt.New(t)

	c.Assert(func() {
		operation.MustNewMigration(1, "", operation.NewCreateType(hand))
	}, qt.PanicMatches, ".*missing composite type dependency.*")
}

func TestScriptSQL(t *testing.T) {
	c := qt.New(t)

	up, down, err := operation.ScriptSQL(
		operation.NewAddColumn("shapes", "bounds", box),
		operation.NewCreateType(box),
		operation.NewCreateType(point),
	)
	c.Assert(err, qt.IsNil)
	c.Assert(up, qt.Equals, "CREATE TYPE x_point AS (x integer, y integer);\n"+
		"CREATE TYPE x_box AS (top_left x_point, bottom_right x_point);\n"+
		"ALTER TABLE shapes ADD COLUMN bounds x_box;\n")
	c.Assert(down, qt.Equals, "ALTER TABLE shapes DROP COLUMN bounds;\n"+
		"DROP TYPE x_box;\n"+
		"DROP TYPE x_point;\n")
}

func TestScriptSQL_SkipsExisting(t *testing.T) {
	c := qt.New(t)

	up, down, err := operation.ScriptSQL(operation.NewUseExisting(point), operation.NewCreateType(box))
	c.Assert(err, qt.IsNil)
	c.Assert(up, qt.Equals, "CREATE TYPE x_box AS (top_left x_point, bottom_right x_point);\n")
	c.Assert(down, qt.Equals, "DROP TYPE x_box;\n")
}
