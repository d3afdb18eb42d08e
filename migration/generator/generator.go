// Package generator writes migration files that snapshot the DDL of
// composite types at generation time, so later changes to a descriptor do not
// change migrations that were already written.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/core/sqlutil"
	"github.com/stokaro/pgcomposite/dbschema"
	"github.com/stokaro/pgcomposite/migration/migrator"
	"github.com/stokaro/pgcomposite/migration/operation"
)

// GenerateMigrationOptions configures GenerateMigration
type GenerateMigrationOptions struct {
	// Descriptors are the composite types to create. Their dependencies are
	// created too.
	Descriptors []*composite.Descriptor
	// Operations run after the types, e.g. AddColumn
	Operations []operation.Operation
	// DatabaseURL, or DBConn when already connected, lets types that exist
	// in the database be skipped. Both are optional.
	DatabaseURL string
	DBConn      *dbschema.DatabaseConnection
	// MigrationName ends up in the file names, "migration" when empty
	MigrationName string
	OutputDir     string
	// Version replaces the timestamp version when not zero
	Version int
	// Now defaults to time.Now
	Now func() time.Time
}

// MigrationFiles are the paths written by GenerateMigration
type MigrationFiles struct {
	UpFile   string
	DownFile string
	Version  int
}

// GenerateMigration writes an up and a down file creating the given composite
// types and running the extra operations. When a database is reachable, types
// already present in it are declared with UseExisting instead of created. The
// result is nil when the migration would be empty. An existing file with the
// same version bumps the version until a free one is found.
func GenerateMigration(ctx context.Context, opts GenerateMigrationOptions) (*MigrationFiles, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.MigrationName == "" {
		opts.MigrationName = "migration"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ops, err := planOperations(ctx, opts)
	if err != nil {
		return nil, err
	}
	upBody, downBody, err := operation.ScriptSQL(ops...)
	if err != nil {
		return nil, fmt.Errorf("error generating migration SQL: %w", err)
	}
	if strings.TrimSpace(sqlutil.StripComments(upBody)) == "" {
		return nil, nil
	}
	for _, body := range []string{upBody, downBody} {
		if err := sqlutil.Validate(body); err != nil {
			return nil, fmt.Errorf("error validating generated SQL: %w", err)
		}
	}

	generatedAt := opts.Now()
	version := opts.Version
	if version == 0 {
		version = migrator.VersionFromTime(generatedAt)
	}
	summary := operation.Describe(ops...)

	files, err := writeMigrationFiles(opts.OutputDir, version, opts.MigrationName,
		migrationHeader(generatedAt, "UP", summary)+upBody,
		migrationHeader(generatedAt, "DOWN", summary)+downBody,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating migration files: %w", err)
	}
	slog.Debug("Generated migration", "version", files.Version, "up", files.UpFile)
	return files, nil
}

// planOperations orders the requested types after their dependencies and
// splits them into those to create and those the database already has.
func planOperations(ctx context.Context, opts GenerateMigrationOptions) ([]operation.Operation, error) {
	ordered, err := composite.SortByDependencies(opts.Descriptors)
	if err != nil {
		return nil, fmt.Errorf("error ordering composite types: %w", err)
	}

	conn := opts.DBConn
	if conn == nil && opts.DatabaseURL != "" {
		conn, err = dbschema.ConnectToDatabase(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		defer conn.Close()
	}

	var existing []*composite.Descriptor
	var ops []operation.Operation
	for _, desc := range ordered {
		if conn != nil {
			found, err := conn.Reader().TypeExists(ctx, desc.TypeName())
			if err != nil {
				return nil, fmt.Errorf("error reading database schema: %w", err)
			}
			if found {
				slog.Debug("Composite type already exists, skipping", "type", desc.TypeName())
				existing = append(existing, desc)
				continue
			}
		}
		ops = append(ops, operation.NewCreateType(desc))
	}
	if len(existing) > 0 {
		ops = append([]operation.Operation{operation.NewUseExisting(existing...)}, ops...)
	}
	return append(ops, opts.Operations...), nil
}

func migrationHeader(generatedAt time.Time, direction, description string) string {
	return fmt.Sprintf("-- Migration generated from composite type declarations\n-- Generated on: %s\n-- Direction: %s\n-- %s\n\n",
		generatedAt.UTC().Format(time.RFC3339), direction, description)
}

func writeMigrationFiles(dir string, version int, name, upSQL, downSQL string) (*MigrationFiles, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := func(direction string) string {
		return filepath.Join(dir, migrator.GenerateMigrationFileName(version, name, direction))
	}
	for {
		info, err := os.Stat(path(migrator.DirectionUp))
		if err != nil || info.Size() == 0 {
			break
		}
		version++
	}

	files := &MigrationFiles{
		UpFile:   path(migrator.DirectionUp),
		DownFile: path(migrator.DirectionDown),
		Version:  version,
	}
	if err := os.WriteFile(files.UpFile, []byte(upSQL), 0644); err != nil { //nolint:gosec // migrations are not secret
		return nil, fmt.Errorf("failed to write up migration file: %w", err)
	}
	if err := os.WriteFile(files.DownFile, []byte(downSQL), 0644); err != nil { //nolint:gosec // migrations are not secret
		return nil, fmt.Errorf("failed to write down migration file: %w", err)
	}
	return files, nil
}
