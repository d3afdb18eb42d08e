package sqlutil_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/pgcomposite/core/sqlutil"
)

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain identifier", in: "x_point", want: "x_point"},
		{name: "non reserved keyword", in: "start", want: "start"},
		{name: "reserved keyword", in: "end", want: `"end"`},
		{name: "upper case", in: "Point", want: `"Point"`},
		{name: "leading digit", in: "1st", want: `"1st"`},
		{name: "space", in: "my type", want: `"my type"`},
		{name: "embedded quote", in: `a"b`, want: `"a""b"`},
		{name: "dollar inside", in: "a$b", want: "a$b"},
		{name: "empty", in: "", want: `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(sqlutil.QuoteIdent(tt.in), qt.Equals, tt.want)
		})
	}
}

func TestIsReservedKeyword(t *testing.T) {
	c := qt.New(t)
	c.Assert(sqlutil.IsReservedKeyword("END"), qt.IsTrue)
	c.Assert(sqlutil.IsReservedKeyword("user"), qt.IsTrue)
	c.Assert(sqlutil.IsReservedKeyword("suit"), qt.IsFalse)
}

func TestStripComments(t *testing.T) {
	c := qt.New(t)
	in := "-- header\nCREATE TYPE x AS (a text); -- trailing\nSELECT '--not a comment';"
	got := sqlutil.StripComments(in)
	c.Assert(got, qt.Equals, "\nCREATE TYPE x AS (a text); \nSELECT '--not a comment';")
}

func TestSplitSQLStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "two statements",
			sql:  "CREATE TYPE x_point AS (x integer, y integer);\nCREATE TYPE x_box AS (top_left x_point, bottom_right x_point);\n",
			want: []string{
				"CREATE TYPE x_point AS (x integer, y integer)",
				"CREATE TYPE x_box AS (top_left x_point, bottom_right x_point)",
			},
		},
		{
			name: "semicolon inside literal",
			sql:  "INSERT INTO t VALUES ('a;b'); DROP TYPE x_point",
			want: []string{"INSERT INTO t VALUES ('a;b')", "DROP TYPE x_point"},
		},
		{
			name: "empty script",
			sql:  "  \n",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			got, err := sqlutil.SplitSQLStatements(tt.sql)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.DeepEquals, tt.want)
		})
	}
}

func TestSplitSQLStatements_InvalidSQL(t *testing.T) {
	c := qt.New(t)
	_, err := sqlutil.SplitSQLStatements("CREATE TYPE AS (;")
	c.Assert(err, qt.ErrorMatches, "failed to parse SQL: .*")
}

func TestValidate(t *testing.T) {
	c := qt.New(t)
	c.Assert(sqlutil.Validate("CREATE TYPE x_point AS (x integer, y integer)"), qt.IsNil)
	c.Assert(sqlutil.Validate("CREATE TYPE x_point AS x integer"), qt.IsNotNil)
}
