// Package dbschematogo converts composite types read from the database into
// descriptors, and renders descriptors as Go source declaring them.
package dbschematogo

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/dbschema/types"
)

// ConvertDBSchemaToDescriptors builds descriptors for every composite type in
// schema, dependencies first. Attributes referencing a composite type that is
// not part of schema, or a scalar type without a descriptor equivalent, fail.
func ConvertDBSchemaToDescriptors(schema *types.DBSchema) ([]*composite.Descriptor, error) {
	byName := make(map[string]types.DBCompositeType, len(schema.CompositeTypes))
	for _, t := range schema.CompositeTypes {
		byName[t.Name] = t
	}

	built := make(map[string]*composite.Descriptor, len(byName))
	visiting := make(map[string]bool)
	var out []*composite.Descriptor

	var build func(name string) (*composite.Descriptor, error)
	build = func(name string) (*composite.Descriptor, error) {
		if d, ok := built[name]; ok {
			return d, nil
		}
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("composite type %s is not in the schema", name)
		}
		if visiting[name] {
			return nil, fmt.Errorf("composite type %s depends on itself", name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		attrs := make([]composite.Attribute, 0, len(t.Attributes))
		for _, a := range t.Attributes {
			attr, err := convertAttribute(a, build)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", name, err)
			}
			attrs = append(attrs, attr)
		}

		d, err := composite.Define(t.Name, attrs...)
		if err != nil {
			return nil, err
		}
		built[name] = d
		out = append(out, d)
		return d, nil
	}

	for _, t := range schema.CompositeTypes {
		if _, err := build(t.Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func convertAttribute(a types.DBCompositeAttribute, build func(string) (*composite.Descriptor, error)) (composite.Attribute, error) {
	if a.IsComposite {
		elem, err := build(a.ElementType)
		if err != nil {
			return composite.Attribute{}, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		if a.IsArray {
			return composite.ArrayOf(a.Name, elem), nil
		}
		return composite.Nested(a.Name, elem), nil
	}

	dataType := a.DataType
	if a.IsArray {
		dataType = strings.TrimSuffix(dataType, "[]")
	}
	scalar, err := composite.ScalarByName(dataType)
	if err != nil {
		return composite.Attribute{}, fmt.Errorf("attribute %s: %w", a.Name, err)
	}
	if a.IsArray {
		return composite.ScalarArray(a.Name, scalar), nil
	}
	return composite.Field(a.Name, scalar), nil
}

// GoName converts a type name such as "x_point" into an exported Go
// identifier such as "XPoint".
func GoName(typeName string) string {
	words := strings.FieldsFunc(typeName, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	caser := cases.Title(language.English, cases.NoLower)

	var b strings.Builder
	for _, w := range words {
		b.WriteString(caser.String(w))
	}
	name := b.String()
	if name != "" && !unicode.IsLetter([]rune(name)[0]) {
		name = "T" + name
	}
	return name
}

// GenerateGoSource renders gofmt'ed Go source declaring descs as package
// level variables in package pkg. descs must be ordered dependencies first,
// as returned by ConvertDBSchemaToDescriptors.
func GenerateGoSource(pkg string, descs []*composite.Descriptor) ([]byte, error) {
	names := make(map[*composite.Descriptor]string, len(descs))
	used := make(map[string]string, len(descs))
	for _, d := range descs {
		name := GoName(d.TypeName())
		if name == "" {
			return nil, fmt.Errorf("type %q has no usable Go name", d.TypeName())
		}
		if other, ok := used[name]; ok {
			return nil, fmt.Errorf("types %q and %q both map to Go name %s", other, d.TypeName(), name)
		}
		used[name] = d.TypeName()
		names[d] = name
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by pgcomposite. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	buf.WriteString("import \"github.com/stokaro/pgcomposite/composite\"\n\n")
	buf.WriteString("var (\n")
	for _, d := range descs {
		fmt.Fprintf(&buf, "\t// %s is the %s composite type.\n", names[d], d.TypeName())
		fmt.Fprintf(&buf, "\t%s = composite.MustDefine(%s,\n", names[d], strconv.Quote(d.TypeName()))
		for _, attr := range d.Attributes() {
			expr, err := attributeExpr(attr, names)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", d.TypeName(), err)
			}
			fmt.Fprintf(&buf, "\t\t%s,\n", expr)
		}
		buf.WriteString("\t)\n")
	}
	buf.WriteString(")\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated source: %w", err)
	}
	return src, nil
}

func attributeExpr(attr composite.Attribute, names map[*composite.Descriptor]string) (string, error) {
	name := strconv.Quote(attr.Name)
	switch {
	case attr.Kind == composite.KindScalar:
		return fmt.Sprintf("composite.Field(%s, %s)", name, scalarExpr(attr.Scalar)), nil
	case attr.Kind == composite.KindArray && attr.Type == nil:
		return fmt.Sprintf("composite.ScalarArray(%s, %s)", name, scalarExpr(attr.Scalar)), nil
	case attr.Kind == composite.KindComposite || attr.IsCompositeArray():
		ref, ok := names[attr.Type]
		if !ok {
			return "", fmt.Errorf("attribute %s references undeclared type %s", attr.Name, attr.Type.TypeName())
		}
		if attr.IsCompositeArray() {
			return fmt.Sprintf("composite.ArrayOf(%s, %s)", name, ref), nil
		}
		return fmt.Sprintf("composite.Nested(%s, %s)", name, ref), nil
	}
	return "", fmt.Errorf("attribute %s has unknown kind %s", attr.Name, attr.Kind)
}

func scalarExpr(s composite.ScalarType) string {
	sqlType := s.SQLType()
	if strings.HasPrefix(sqlType, "varchar(") {
		return "composite.Varchar(" + strings.TrimSuffix(strings.TrimPrefix(sqlType, "varchar("), ")") + ")"
	}
	switch sqlType {
	case "smallint":
		return "composite.SmallInt()"
	case "integer":
		return "composite.Integer()"
	case "bigint":
		return "composite.BigInt()"
	case "real":
		return "composite.Real()"
	case "double precision":
		return "composite.DoublePrecision()"
	case "varchar":
		return "composite.Varchar(0)"
	case "boolean":
		return "composite.Boolean()"
	case "date":
		return "composite.Date()"
	case "timestamp":
		return "composite.Timestamp()"
	case "timestamptz":
		return "composite.TimestampTZ()"
	case "uuid":
		return "composite.UUID()"
	}
	return "composite.Text()"
}
