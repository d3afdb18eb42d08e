package migrator

import (
	"context"
	_ "embed"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/stokaro/pgcomposite/core/sqlutil"
	"github.com/stokaro/pgcomposite/dbschema"
)

//go:embed base/schema.sql
var migrationsSchemaSQL string

//go:embed base/get_version.sql
var getVersionSQL string

//go:embed base/get_applied.sql
var getAppliedSQL string

//go:embed base/record_migration.sql
var recordMigrationSQL string

//go:embed base/delete_migration.sql
var deleteMigrationSQL string

// MigrationFunc changes the schema in one direction. It runs inside the
// migration transaction and must issue its statements through conn.Writer().
type MigrationFunc func(ctx context.Context, conn *dbschema.DatabaseConnection) error

// Migration is one schema version with its forward and backward steps
type Migration struct {
	Version     int
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// NoopMigrationFunc does nothing
func NoopMigrationFunc(context.Context, *dbschema.DatabaseConnection) error {
	return nil
}

// SplitSQLStatements splits a script into statements with the PostgreSQL
// parser, so semicolons inside literals and comments do not end a statement.
func SplitSQLStatements(sql string) ([]string, error) {
	return sqlutil.SplitSQLStatements(sqlutil.StripComments(sql))
}

// FormatTimestampForDatabase returns t in UTC as a quoted timestamptz literal
// for the applied_at column
func FormatTimestampForDatabase(t time.Time) string {
	return pq.QuoteLiteral(t.UTC().Format("2006-01-02 15:04:05.999999Z07:00"))
}

func recordMigrationStatement(version int, description string, appliedAt time.Time) string {
	return fmt.Sprintf(strings.TrimSpace(recordMigrationSQL), version, pq.QuoteLiteral(description), FormatTimestampForDatabase(appliedAt))
}

// CreateMigrationFromSQL builds a migration running fixed SQL scripts
func CreateMigrationFromSQL(version int, description, upSQL, downSQL string) *Migration {
	return &Migration{
		Version:     version,
		Description: description,
		Up:          sqlScript(func() (string, error) { return upSQL, nil }),
		Down:        sqlScript(func() (string, error) { return downSQL, nil }),
	}
}

// MigrationFuncFromSQLFilename returns a migration function running the script
// stored at filename in fsys. The file is read when the migration runs.
func MigrationFuncFromSQLFilename(filename string, fsys fs.FS) MigrationFunc {
	return sqlScript(func() (string, error) {
		data, err := fs.ReadFile(fsys, filename)
		if err != nil {
			return "", fmt.Errorf("failed to read migration file: %w", err)
		}
		return string(data), nil
	})
}

func sqlScript(load func() (string, error)) MigrationFunc {
	return func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
		script, err := load()
		if err != nil {
			return err
		}
		statements, err := SplitSQLStatements(script)
		if err != nil {
			return fmt.Errorf("failed to split migration SQL: %w", err)
		}
		for _, stmt := range statements {
			if stmt = strings.TrimSpace(stmt); stmt == "" {
				continue
			}
			if err := conn.Writer().ExecuteSQL(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute SQL statement: %w\nSQL: %s", err, stmt)
			}
		}
		return nil
	}
}
