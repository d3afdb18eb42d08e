package composite

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SQLLiteral renders the value as a self-contained SQL expression including
// casts, e.g.
//
//	ROW(1, 'b', '1985-10-26T09:00:00'::timestamp)::test_type
//
// It is meant for generated data migrations and debugging output; queries
// should pass values as parameters instead.
func (v Value) SQLLiteral() string {
	if v.IsNull() {
		if v.desc == nil {
			return "NULL"
		}
		return "NULL::" + v.desc.ColumnType()
	}

	parts := make([]string, len(v.fields))
	for i, attr := range v.desc.attrs {
		parts[i] = attributeLiteral(attr, v.fields[i])
	}
	return "ROW(" + strings.Join(parts, ", ") + ")::" + v.desc.ColumnType()
}

// SQLLiteral renders the array as an ARRAY constructor cast to the array type.
func (a Array) SQLLiteral() string {
	typ := "[]"
	if a.desc != nil {
		typ = a.desc.ColumnType() + "[]"
	}
	if !a.valid {
		return "NULL::" + typ
	}
	if len(a.elems) == 0 {
		return "'{}'::" + typ
	}
	parts := make([]string, len(a.elems))
	for i, elem := range a.elems {
		parts[i] = elem.SQLLiteral()
	}
	return "ARRAY[" + strings.Join(parts, ", ") + "]::" + typ
}

func attributeLiteral(attr Attribute, f any) string {
	if f == nil {
		return "NULL"
	}
	switch attr.Kind {
	case KindComposite:
		return f.(Value).SQLLiteral()
	case KindArray:
		if arr, ok := f.(Array); ok {
			return arr.SQLLiteral()
		}
		elems := f.([]any)
		typ := attr.Scalar.SQLType() + "[]"
		if len(elems) == 0 {
			return "'{}'::" + typ
		}
		parts := make([]string, len(elems))
		for i, elem := range elems {
			parts[i] = scalarLiteral(attr.Scalar, elem)
		}
		return "ARRAY[" + strings.Join(parts, ", ") + "]::" + typ
	}
	return scalarLiteral(attr.Scalar, f)
}

func scalarLiteral(typ ScalarType, f any) string {
	switch x := f.(type) {
	case nil:
		return "NULL"
	case int16, int32, int64:
		return fmt.Sprintf("%d", x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case string:
		if typ.kind == kindText {
			return pq.QuoteLiteral(x)
		}
		return pq.QuoteLiteral(x) + "::" + typ.SQLType()
	case time.Time:
		format := time.RFC3339Nano
		if typ.kind == kindDate {
			format = time.DateOnly
		} else if typ.kind == kindTimestamp {
			format = "2006-01-02T15:04:05.999999999"
		}
		return pq.QuoteLiteral(x.Format(format)) + "::" + typ.SQLType()
	case uuid.UUID:
		return pq.QuoteLiteral(x.String()) + "::uuid"
	}
	return pq.QuoteLiteral(fmt.Sprint(f)) + "::" + typ.SQLType()
}
