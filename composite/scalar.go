package composite

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

var (
	errValueTooLong = errors.New("value too long")
	errOutOfRange   = errors.New("value out of range")
)

type scalarKind int

const (
	kindInvalid scalarKind = iota
	kindSmallInt
	kindInteger
	kindBigInt
	kindReal
	kindDouble
	kindText
	kindVarchar
	kindBoolean
	kindDate
	kindTimestamp
	kindTimestampTZ
	kindUUID
)

// ScalarType is the column type of a scalar attribute. It knows its SQL spelling
// and how to normalise Go values into its canonical representation:
//
//	smallint          int16
//	integer           int32
//	bigint            int64
//	real              float32
//	double precision  float64
//	text, varchar(n)  string
//	boolean           bool
//	date, timestamp   time.Time
//	timestamptz       time.Time
//	uuid              uuid.UUID
type ScalarType struct {
	kind   scalarKind
	length int
}

func SmallInt() ScalarType        { return ScalarType{kind: kindSmallInt} }
func Integer() ScalarType         { return ScalarType{kind: kindInteger} }
func BigInt() ScalarType          { return ScalarType{kind: kindBigInt} }
func Real() ScalarType            { return ScalarType{kind: kindReal} }
func DoublePrecision() ScalarType { return ScalarType{kind: kindDouble} }
func Text() ScalarType            { return ScalarType{kind: kindText} }
func Boolean() ScalarType         { return ScalarType{kind: kindBoolean} }
func Date() ScalarType            { return ScalarType{kind: kindDate} }
func Timestamp() ScalarType       { return ScalarType{kind: kindTimestamp} }
func TimestampTZ() ScalarType     { return ScalarType{kind: kindTimestampTZ} }
func UUID() ScalarType            { return ScalarType{kind: kindUUID} }

// Varchar returns a character varying type limited to n characters.
// A non-positive n means no limit.
func Varchar(n int) ScalarType {
	if n < 0 {
		n = 0
	}
	return ScalarType{kind: kindVarchar, length: n}
}

// ScalarByName resolves a SQL type spelling such as "integer", "int4",
// "varchar(20)" or "timestamp with time zone".
func ScalarByName(name string) (ScalarType, error) {
	n := strings.ToLower(strings.Join(strings.Fields(name), " "))

	if base, arg, ok := splitTypeModifier(n); ok {
		switch base {
		case "varchar", "character varying":
			length, err := strconv.Atoi(arg)
			if err != nil || length <= 0 {
				return ScalarType{}, fmt.Errorf("invalid length in type %q", name)
			}
			return Varchar(length), nil
		default:
			return ScalarType{}, fmt.Errorf("unsupported scalar type %q", name)
		}
	}

	switch n {
	case "smallint", "int2":
		return SmallInt(), nil
	case "integer", "int", "int4":
		return Integer(), nil
	case "bigint", "int8":
		return BigInt(), nil
	case "real", "float4":
		return Real(), nil
	case "double precision", "float8":
		return DoublePrecision(), nil
	case "text":
		return Text(), nil
	case "varchar", "character varying":
		return Varchar(0), nil
	case "boolean", "bool":
		return Boolean(), nil
	case "date":
		return Date(), nil
	case "timestamp", "timestamp without time zone":
		return Timestamp(), nil
	case "timestamptz", "timestamp with time zone":
		return TimestampTZ(), nil
	case "uuid":
		return UUID(), nil
	}
	return ScalarType{}, fmt.Errorf("unsupported scalar type %q", name)
}

func splitTypeModifier(n string) (base, arg string, ok bool) {
	open := strings.IndexByte(n, '(')
	if open < 0 || !strings.HasSuffix(n, ")") {
		return "", "", false
	}
	return strings.TrimSpace(n[:open]), strings.TrimSpace(n[open+1 : len(n)-1]), true
}

// IsValid reports whether s was built by one of the constructors.
func (s ScalarType) IsValid() bool {
	return s.kind != kindInvalid
}

// SQLType returns the type as written in DDL.
func (s ScalarType) SQLType() string {
	switch s.kind {
	case kindSmallInt:
		return "smallint"
	case kindInteger:
		return "integer"
	case kindBigInt:
		return "bigint"
	case kindReal:
		return "real"
	case kindDouble:
		return "double precision"
	case kindText:
		return "text"
	case kindVarchar:
		if s.length > 0 {
			return fmt.Sprintf("varchar(%d)", s.length)
		}
		return "varchar"
	case kindBoolean:
		return "boolean"
	case kindDate:
		return "date"
	case kindTimestamp:
		return "timestamp"
	case kindTimestampTZ:
		return "timestamptz"
	case kindUUID:
		return "uuid"
	}
	return ""
}

// CatalogType returns the type as reported by PostgreSQL's format_type().
func (s ScalarType) CatalogType() string {
	switch s.kind {
	case kindVarchar:
		if s.length > 0 {
			return fmt.Sprintf("character varying(%d)", s.length)
		}
		return "character varying"
	case kindTimestamp:
		return "timestamp without time zone"
	case kindTimestampTZ:
		return "timestamp with time zone"
	}
	return s.SQLType()
}

// PgName returns the pgx type map name of the type.
func (s ScalarType) PgName() string {
	switch s.kind {
	case kindSmallInt:
		return "int2"
	case kindInteger:
		return "int4"
	case kindBigInt:
		return "int8"
	case kindReal:
		return "float4"
	case kindDouble:
		return "float8"
	case kindText:
		return "text"
	case kindVarchar:
		return "varchar"
	case kindBoolean:
		return "bool"
	case kindDate:
		return "date"
	case kindTimestamp:
		return "timestamp"
	case kindTimestampTZ:
		return "timestamptz"
	case kindUUID:
		return "uuid"
	}
	return ""
}

// Zero returns the zero value of the canonical Go type.
func (s ScalarType) Zero() any {
	switch s.kind {
	case kindSmallInt:
		return int16(0)
	case kindInteger:
		return int32(0)
	case kindBigInt:
		return int64(0)
	case kindReal:
		return float32(0)
	case kindDouble:
		return float64(0)
	case kindText, kindVarchar:
		return ""
	case kindBoolean:
		return false
	case kindDate, kindTimestamp, kindTimestampTZ:
		return time.Time{}
	case kindUUID:
		return uuid.UUID{}
	}
	return nil
}

// Convert normalises v into the canonical Go type. nil converts to nil (NULL).
func (s ScalarType) Convert(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch s.kind {
	case kindSmallInt:
		n, err := toInteger(v, math.MinInt16, math.MaxInt16)
		if err != nil {
			return nil, err
		}
		return int16(n), nil
	case kindInteger:
		n, err := toInteger(v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case kindBigInt:
		n, err := toInteger(v, math.MinInt64, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case kindReal:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, err
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: %v does not fit in real", errOutOfRange, f)
		}
		return float32(f), nil
	case kindDouble:
		return cast.ToFloat64E(v)
	case kindText:
		return cast.ToStringE(v)
	case kindVarchar:
		str, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		if s.length > 0 && utf8.RuneCountInString(str) > s.length {
			return nil, fmt.Errorf("%w for type %s", errValueTooLong, s.SQLType())
		}
		return str, nil
	case kindBoolean:
		return cast.ToBoolE(v)
	case kindDate:
		t, err := cast.ToTimeE(v)
		if err != nil {
			return nil, err
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case kindTimestamp, kindTimestampTZ:
		return cast.ToTimeE(v)
	case kindUUID:
		return toUUID(v)
	}
	return nil, fmt.Errorf("invalid scalar type")
}

// toInteger converts v to an integer within [lo, hi]. Floats must be integral.
func toInteger(v any, lo, hi int64) (int64, error) {
	var n int64
	switch x := v.(type) {
	case float32:
		return toInteger(float64(x), lo, hi)
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
		if x < float64(lo) || x > float64(hi) || x >= math.Exp2(63) {
			return 0, fmt.Errorf("%w: %v not in [%d, %d]", errOutOfRange, x, lo, hi)
		}
		n = int64(x)
	case uint:
		if uint64(x) > uint64(hi) {
			return 0, fmt.Errorf("%w: %d not in [%d, %d]", errOutOfRange, x, lo, hi)
		}
		n = int64(x)
	case uint64:
		if x > uint64(hi) {
			return 0, fmt.Errorf("%w: %d not in [%d, %d]", errOutOfRange, x, lo, hi)
		}
		n = int64(x)
	default:
		var err error
		if n, err = cast.ToInt64E(v); err != nil {
			return 0, err
		}
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", errOutOfRange, n, lo, hi)
	}
	return n, nil
}

func toUUID(v any) (uuid.UUID, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case [16]byte:
		return uuid.UUID(x), nil
	case []byte:
		if len(x) == 16 {
			return uuid.FromBytes(x)
		}
		return uuid.ParseBytes(x)
	case string:
		return uuid.Parse(x)
	case fmt.Stringer:
		return uuid.Parse(x.String())
	}
	return uuid.UUID{}, fmt.Errorf("unable to cast %#v of type %T to uuid", v, v)
}

// wireValue returns the representation handed to the pgx codecs.
func (s ScalarType) wireValue(v any) any {
	if u, ok := v.(uuid.UUID); ok {
		return [16]byte(u)
	}
	return v
}

func (s ScalarType) String() string {
	return s.SQLType()
}
