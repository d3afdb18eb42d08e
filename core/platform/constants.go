// Package platform names the database dialects recognised in connection URLs.
package platform

import (
	"strings"
)

const (
	Postgres = "postgres"
	MySQL    = "mysql"
	MariaDB  = "mariadb"
)

// NormalizeDialect maps driver and scheme aliases onto a dialect constant.
// Unknown dialects yield "".
func NormalizeDialect(dialect string) string {
	switch strings.ToLower(dialect) {
	case "pgx", "postgresql", "postgres":
		return Postgres
	case "mysql":
		return MySQL
	case "mariadb":
		return MariaDB
	default:
		return ""
	}
}

// FromURL returns the dialect of a connection URL based on its scheme.
func FromURL(dbURL string) string {
	scheme, _, ok := strings.Cut(dbURL, "://")
	if !ok {
		return ""
	}
	return NormalizeDialect(scheme)
}

// SupportsCompositeTypes reports whether the dialect has CREATE TYPE ... AS (...).
func SupportsCompositeTypes(dialect string) bool {
	return NormalizeDialect(dialect) == Postgres
}
