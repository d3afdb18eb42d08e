package migrator

import (
	"cmp"
	"fmt"
	"io/fs"
	"maps"
	"slices"
)

// MigrationProvider supplies the migrations a Migrator works with
type MigrationProvider interface {
	// Migrations returns the migrations ordered by ascending version
	Migrations() []*Migration
}

// RegisteredMigrationProvider holds migrations built in code, typically with
// operation.NewMigration.
type RegisteredMigrationProvider struct {
	migrations []*Migration
	dirty      bool
}

// NewRegisteredMigrationProvider returns a provider holding the given
// migrations in any order.
func NewRegisteredMigrationProvider(migrations ...*Migration) *RegisteredMigrationProvider {
	return &RegisteredMigrationProvider{migrations: migrations, dirty: true}
}

// Register appends a migration
func (p *RegisteredMigrationProvider) Register(migration *Migration) {
	p.migrations = append(p.migrations, migration)
	p.dirty = true
}

// Migrations implements MigrationProvider
func (p *RegisteredMigrationProvider) Migrations() []*Migration {
	if p.dirty {
		byVersion(p.migrations)
		p.dirty = false
	}
	return p.migrations
}

// FSMigrationProvider reads pairs of NNNNNNNNNN_description.up.sql and
// NNNNNNNNNN_description.down.sql files from a filesystem. Files that do not
// follow the pattern are ignored.
type FSMigrationProvider struct {
	fsys       fs.FS
	migrations []*Migration
}

// NewFSMigrationProvider scans fsys once. It fails when the walk fails, when a
// version has two files for the same direction, or when a version misses its
// up or down file.
func NewFSMigrationProvider(fsys fs.FS) (*FSMigrationProvider, error) {
	migrations, err := scanMigrationFiles(fsys)
	if err != nil {
		return nil, err
	}
	return &FSMigrationProvider{fsys: fsys, migrations: migrations}, nil
}

// Migrations implements MigrationProvider
func (p *FSMigrationProvider) Migrations() []*Migration {
	return p.migrations
}

// sqlPair collects the files found for one version
type sqlPair struct {
	name     string
	up, down string
}

func scanMigrationFiles(fsys fs.FS) ([]*Migration, error) {
	pairs := map[int]*sqlPair{}

	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		file, err := ParseMigrationFileName(d.Name())
		if err != nil {
			return nil
		}

		pair, ok := pairs[file.Version]
		if !ok {
			pair = &sqlPair{name: file.Name}
			pairs[file.Version] = pair
		}
		slot := &pair.up
		if file.Direction == DirectionDown {
			slot = &pair.down
		}
		if *slot != "" {
			return fmt.Errorf("duplicate %s migration for version %d: %s and %s", file.Direction, file.Version, *slot, path)
		}
		*slot = path
		return nil
	}
	if err := fs.WalkDir(fsys, ".", walk); err != nil {
		return nil, fmt.Errorf("failed to scan migrations directory: %w", err)
	}

	versions := slices.Sorted(maps.Keys(pairs))
	var incomplete []int
	migrations := make([]*Migration, 0, len(versions))
	for _, version := range versions {
		pair := pairs[version]
		if pair.up == "" || pair.down == "" {
			incomplete = append(incomplete, version)
			continue
		}
		migrations = append(migrations, &Migration{
			Version:     version,
			Description: pair.name,
			Up:          MigrationFuncFromSQLFilename(pair.up, fsys),
			Down:        MigrationFuncFromSQLFilename(pair.down, fsys),
		})
	}
	if len(incomplete) > 0 {
		return nil, fmt.Errorf("incomplete migrations found (missing up or down files): %v", incomplete)
	}
	return migrations, nil
}

func byVersion(migrations []*Migration) {
	slices.SortStableFunc(migrations, func(a, b *Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})
}
