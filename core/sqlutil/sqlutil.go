// Package sqlutil holds small SQL text helpers shared by the renderer, the
// migrator and the value literal encoder.
package sqlutil

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// reservedKeywords are the PostgreSQL keywords that cannot be used as a bare
// column or type name.
var reservedKeywords = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true, "array": true,
	"as": true, "asc": true, "asymmetric": true, "authorization": true, "binary": true,
	"both": true, "case": true, "cast": true, "check": true, "collate": true, "collation": true,
	"column": true, "concurrently": true, "constraint": true, "create": true, "cross": true,
	"current_catalog": true, "current_date": true, "current_role": true, "current_schema": true,
	"current_time": true, "current_timestamp": true, "current_user": true, "default": true,
	"deferrable": true, "desc": true, "distinct": true, "do": true, "else": true, "end": true,
	"except": true, "false": true, "fetch": true, "for": true, "foreign": true, "freeze": true,
	"from": true, "full": true, "grant": true, "group": true, "having": true, "ilike": true,
	"in": true, "initially": true, "inner": true, "intersect": true, "into": true, "is": true,
	"isnull": true, "join": true, "lateral": true, "leading": true, "left": true, "like": true,
	"limit": true, "localtime": true, "localtimestamp": true, "natural": true, "not": true,
	"notnull": true, "null": true, "offset": true, "on": true, "only": true, "or": true,
	"order": true, "outer": true, "overlaps": true, "placing": true, "primary": true,
	"references": true, "returning": true, "right": true, "select": true, "session_user": true,
	"similar": true, "some": true, "symmetric": true, "system_user": true, "table": true,
	"tablesample": true, "then": true, "to": true, "trailing": true, "true": true, "union": true,
	"unique": true, "user": true, "using": true, "variadic": true, "verbose": true, "when": true,
	"where": true, "window": true, "with": true,
}

// maxIdentifierLength is PostgreSQL's NAMEDATALEN - 1.
const maxIdentifierLength = 63

// IsReservedKeyword reports whether name is a reserved PostgreSQL keyword.
func IsReservedKeyword(name string) bool {
	return reservedKeywords[strings.ToLower(name)]
}

// NeedsQuoting reports whether name has to be double-quoted to be used as an
// identifier without being folded or rejected.
func NeedsQuoting(name string) bool {
	if name == "" || len(name) > maxIdentifierLength || IsReservedKeyword(name) {
		return true
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case (r >= '0' && r <= '9') || r == '$':
			if i == 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// QuoteIdent returns name unchanged when it is a plain lower-case identifier
// and a double-quoted identifier otherwise.
func QuoteIdent(name string) string {
	if NeedsQuoting(name) {
		return pq.QuoteIdentifier(name)
	}
	return name
}

// StripComments removes "--" line comments outside of string literals and
// quoted identifiers.
func StripComments(sql string) string {
	var b strings.Builder
	inSingle, inDouble := false, false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case inSingle:
			if ch == '\'' {
				inSingle = false
			}
		case inDouble:
			if ch == '"' {
				inDouble = false
			}
		case ch == '\'':
			inSingle = true
		case ch == '"':
			inDouble = true
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			if i < len(sql) {
				b.WriteByte('\n')
			}
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// SplitSQLStatements splits a script into individual statements using the
// PostgreSQL parser, so semicolons inside literals, dollar quotes and comments
// are handled. Statements are returned trimmed and without the terminator.
func SplitSQLStatements(sql string) ([]string, error) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SQL: %w", err)
	}

	statements := make([]string, 0, len(result.Stmts))
	for _, raw := range result.Stmts {
		start := int(raw.StmtLocation)
		end := len(sql)
		if raw.StmtLen > 0 {
			end = start + int(raw.StmtLen)
		}
		stmt := strings.TrimSpace(sql[start:end])
		stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements, nil
}

// Validate reports whether sql parses as PostgreSQL.
func Validate(sql string) error {
	if _, err := pg_query.Parse(sql); err != nil {
		return fmt.Errorf("invalid SQL: %w", err)
	}
	return nil
}
