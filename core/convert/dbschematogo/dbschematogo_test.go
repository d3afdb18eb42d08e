package dbschematogo_test

import (
	"go/parser"
	"go/token"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/core/convert/dbschematogo"
	"github.com/stokaro/pgcomposite/dbschema/types"
)

func cardsSchema() *types.DBSchema {
	return &types.DBSchema{
		CompositeTypes: []types.DBCompositeType{
			{
				Name: "hand",
				Attributes: []types.DBCompositeAttribute{
					{Name: "cards", DataType: "card[]", UDTName: "_card", ElementType: "card", IsArray: true, IsComposite: true, OrdinalPosition: 1},
					{Name: "owner", DataType: "uuid", UDTName: "uuid", ElementType: "uuid", OrdinalPosition: 2},
				},
			},
			{
				Name: "card",
				Attributes: []types.DBCompositeAttribute{
					{Name: "suit", DataType: "character varying(1)", UDTName: "varchar", ElementType: "varchar", OrdinalPosition: 1},
					{Name: "rank", DataType: "text", UDTName: "text", ElementType: "text", OrdinalPosition: 2},
					{Name: "tags", DataType: "integer[]", UDTName: "_int4", ElementType: "int4", IsArray: true, OrdinalPosition: 3},
				},
			},
		},
	}
}

func TestConvertDBSchemaToDescriptors(t *testing.T) {
	c := qt.New(t)

	descs, err := dbschematogo.ConvertDBSchemaToDescriptors(cardsSchema())
	c.Assert(err, qt.IsNil)
	c.Assert(descs, qt.HasLen, 2)

	// Dependencies come first
	card, hand := descs[0], descs[1]
	c.Assert(card.TypeName(), qt.Equals, "card")
	c.Assert(hand.TypeName(), qt.Equals, "hand")

	c.Assert(card.Attribute(0).Scalar.SQLType(), qt.Equals, "varchar(1)")
	c.Assert(card.Attribute(1).Scalar.SQLType(), qt.Equals, "text")
	c.Assert(card.Attribute(2).Kind, qt.Equals, composite.KindArray)
	c.Assert(card.Attribute(2).Scalar.SQLType(), qt.Equals, "integer")

	c.Assert(hand.Attribute(0).IsCompositeArray(), qt.IsTrue)
	c.Assert(hand.Attribute(0).Type, qt.Equals, card)
	c.Assert(hand.Attribute(1).Scalar.SQLType(), qt.Equals, "uuid")
}

func TestConvertDBSchemaToDescriptors_Errors(t *testing.T) {
	tests := []struct {
		name    string
		schema  *types.DBSchema
		wantErr string
	}{
		{
			name: "unknown scalar",
			schema: &types.DBSchema{CompositeTypes: []types.DBCompositeType{{
				Name:       "geo",
				Attributes: []types.DBCompositeAttribute{{Name: "shape", DataType: "geometry"}},
			}}},
			wantErr: `type geo: attribute shape: unsupported scalar type "geometry"`,
		},
		{
			name: "composite from another schema",
			schema: &types.DBSchema{CompositeTypes: []types.DBCompositeType{{
				Name:       "hand",
				Attributes: []types.DBCompositeAttribute{{Name: "cards", DataType: "other.card[]", ElementType: "card", IsArray: true, IsComposite: true}},
			}}},
			wantErr: "type hand: attribute cards: composite type card is not in the schema",
		},
		{
			name: "self reference",
			schema: &types.DBSchema{CompositeTypes: []types.DBCompositeType{{
				Name:       "node",
				Attributes: []types.DBCompositeAttribute{{Name: "next", DataType: "node[]", ElementType: "node", IsArray: true, IsComposite: true}},
			}}},
			wantErr: "type node: attribute next: composite type node depends on itself",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			_, err := dbschematogo.ConvertDBSchemaToDescriptors(tt.schema)
			c.Assert(err, qt.ErrorMatches, tt.wantErr)
		})
	}
}

func TestGoName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "x_point", expected: "XPoint"},
		{input: "user_profiles", expected: "UserProfiles"},
		{input: "test_date_range", expected: "TestDateRange"},
		{input: "card", expected: "Card"},
		{input: "a", expected: "A"},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(dbschematogo.GoName(tt.input), qt.Equals, tt.expected)
		})
	}
}

func TestGenerateGoSource(t *testing.T) {
	c := qt.New(t)

	descs, err := dbschematogo.ConvertDBSchemaToDescriptors(cardsSchema())
	c.Assert(err, qt.IsNil)

	src, err := dbschematogo.GenerateGoSource("models", descs)
	c.Assert(err, qt.IsNil)

	out := string(src)
	c.Assert(out, qt.Contains, "// Code generated by pgcomposite. DO NOT EDIT.")
	c.Assert(out, qt.Contains, "package models")
	c.Assert(out, qt.Contains, `Card = composite.MustDefine("card",`)
	c.Assert(out, qt.Contains, `composite.Field("suit", composite.Varchar(1)),`)
	c.Assert(out, qt.Contains, `composite.Field("rank", composite.Text()),`)
	c.Assert(out, qt.Contains, `composite.ScalarArray("tags", composite.Integer()),`)
	c.Assert(out, qt.Contains, `Hand = composite.MustDefine("hand",`)
	c.Assert(out, qt.Contains, `composite.ArrayOf("cards", Card),`)
	c.Assert(out, qt.Contains, `composite.Field("owner", composite.UUID()),`)

	_, err = parser.ParseFile(token.NewFileSet(), "types.go", src, parser.AllErrors)
	c.Assert(err, qt.IsNil)
}

func TestGenerateGoSource_NameCollision(t *testing.T) {
	c := qt.New(t)

	a := composite.MustDefine("x_point", composite.Field("x", composite.Integer()))
	b := composite.MustDefine("xpoint", composite.Field("x", composite.Integer()))
	_, err := dbschematogo.GenerateGoSource("models", []*composite.Descriptor{a, b})
	c.Assert(err, qt.IsNil)

	b = composite.MustDefine("x__point", composite.Field("x", composite.Integer()))
	_, err = dbschematogo.GenerateGoSource("models", []*composite.Descriptor{a, b})
	c.Assert(err, qt.ErrorMatches, `types "x_point" and "x__point" both map to Go name XPoint`)
}
