package migrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/stokaro/pgcomposite/dbschema"
	"github.com/stokaro/pgcomposite/registry"
)

// ErrNoPreviousMigration is returned by GetPreviousMigrationVersion and
// MigrateDown when nothing has been applied
var ErrNoPreviousMigration = errors.New("no previous migrations exist")

// MigrationStatus represents the current state of migrations
type MigrationStatus struct {
	CurrentVersion    int   `json:"current_version"`
	PendingMigrations []int `json:"pending_migrations"`
	TotalMigrations   int   `json:"total_migrations"`
	HasPendingChanges bool  `json:"has_pending_changes"`
}

// Migrator applies versioned migrations and records them in schema_migrations.
// Every migration runs in its own transaction together with its bookkeeping
// row. When a migration fails, composite types it registered or deregistered
// are restored in the connection's registry along with the rollback.
type Migrator struct {
	conn              *dbschema.DatabaseConnection
	migrationProvider MigrationProvider
	initialized       bool
	logger            *slog.Logger
	now               func() time.Time
}

// NewFSMigrator creates a migrator for the NNNNNNNNNN_description.up.sql and
// NNNNNNNNNN_description.down.sql files of fsys. It fails when fsys cannot be
// scanned or a migration lacks its up or down file.
func NewFSMigrator(conn *dbschema.DatabaseConnection, fsys fs.FS) (*Migrator, error) {
	provider, err := NewFSMigrationProvider(fsys)
	if err != nil {
		return nil, err
	}
	return NewMigrator(conn, provider), nil
}

// NewMigrator creates a new migrator with the given database connection
func NewMigrator(conn *dbschema.DatabaseConnection, provider MigrationProvider) *Migrator {
	return &Migrator{
		conn:              conn,
		migrationProvider: provider,
		logger:            slog.Default(),
		now:               time.Now,
	}
}

// WithLogger sets the logger for the migrator
func (m *Migrator) WithLogger(l *slog.Logger) *Migrator {
	tmp := *m
	tmp.logger = l
	return &tmp
}

// MigrationProvider returns the migration provider
func (m *Migrator) MigrationProvider() MigrationProvider {
	return m.migrationProvider
}

// Initialize creates the schema_migrations table if it doesn't exist. The
// statement runs outside the writer, so it never joins a migration transaction.
func (m *Migrator) Initialize(ctx context.Context) error {
	if m.initialized {
		return nil
	}
	if _, err := m.conn.ExecContext(ctx, migrationsSchemaSQL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	m.initialized = true
	return nil
}

// GetCurrentVersion returns the highest applied version, 0 when none is
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int, error) {
	if err := m.Initialize(ctx); err != nil {
		return 0, fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	var version int
	if err := m.conn.QueryRowContext(ctx, getVersionSQL).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// GetAppliedMigrations returns the applied versions in ascending order
func (m *Migrator) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	rows, err := m.conn.QueryContext(ctx, getAppliedSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []int
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied = append(applied, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration rows: %w", err)
	}
	return applied, nil
}

// GetPendingMigrations returns the versions above the current one, ascending
func (m *Migrator) GetPendingMigrations(ctx context.Context) ([]int, error) {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	var pending []int
	for _, migration := range m.migrationProvider.Migrations() {
		if migration.Version > currentVersion {
			pending = append(pending, migration.Version)
		}
	}
	slices.Sort(pending)
	return pending, nil
}

// GetPreviousMigrationVersion returns the version preceding the current one,
// 0 when the current one is the first. It returns ErrNoPreviousMigration when
// nothing is applied.
func (m *Migrator) GetPreviousMigrationVersion(ctx context.Context) (int, error) {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return -1, fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion == 0 {
		return -1, ErrNoPreviousMigration
	}

	previousVersion := 0
	for _, migration := range m.migrationProvider.Migrations() {
		if migration.Version >= currentVersion {
			break
		}
		previousVersion = migration.Version
	}
	return previousVersion, nil
}

// GetMigrationStatus summarizes the applied and pending migrations
func (m *Migrator) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}

	pendingMigrations, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending migrations: %w", err)
	}

	return &MigrationStatus{
		CurrentVersion:    currentVersion,
		PendingMigrations: pendingMigrations,
		TotalMigrations:   len(m.migrationProvider.Migrations()),
		HasPendingChanges: len(pendingMigrations) > 0,
	}, nil
}

// MigrateUp applies every pending migration
func (m *Migrator) MigrateUp(ctx context.Context) error {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}
	migrations := m.migrationProvider.Migrations()
	if len(migrations) == 0 {
		m.logger.Info("No migrations to apply")
		return nil
	}
	return m.migrateUp(ctx, currentVersion, migrations[len(migrations)-1].Version)
}

// MigrateDown reverts the latest applied migration
func (m *Migrator) MigrateDown(ctx context.Context) error {
	targetVersion, err := m.GetPreviousMigrationVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get previous version: %w", err)
	}
	return m.MigrateDownTo(ctx, targetVersion)
}

// MigrateDownTo reverts the applied migrations above targetVersion, newest first
func (m *Migrator) MigrateDownTo(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}
	if targetVersion >= currentVersion {
		m.logger.Info("Already at or below target version", "targetVersion", targetVersion, "currentVersion", currentVersion)
		return nil
	}

	migrations := slices.Clone(m.migrationProvider.Migrations())
	slices.Reverse(migrations)

	m.logger.Info("Migrating down", "targetVersion", targetVersion, "currentVersion", currentVersion, "totalMigrations", len(migrations))
	for _, migration := range migrations {
		if migration.Version <= targetVersion || migration.Version > currentVersion {
			continue
		}
		if err := m.step(ctx, migration, false); err != nil {
			return err
		}
	}

	m.logger.Info("Migrated down successfully", "targetVersion", targetVersion)
	return nil
}

// MigrateTo migrates the database up or down to targetVersion
func (m *Migrator) MigrateTo(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}

	switch {
	case targetVersion == currentVersion:
		m.logger.Info("Already at target version", "version", targetVersion)
		return nil
	case targetVersion > currentVersion:
		return m.migrateUp(ctx, currentVersion, targetVersion)
	default:
		return m.MigrateDownTo(ctx, targetVersion)
	}
}

func (m *Migrator) migrateUp(ctx context.Context, currentVersion, targetVersion int) error {
	migrations := m.migrationProvider.Migrations()

	m.logger.Info("Migrating up", "currentVersion", currentVersion, "targetVersion", targetVersion, "totalMigrations", len(migrations))
	for _, migration := range migrations {
		if migration.Version <= currentVersion || migration.Version > targetVersion {
			continue
		}
		if err := m.step(ctx, migration, true); err != nil {
			return err
		}
	}

	m.logger.Info("Migrated up successfully", "targetVersion", targetVersion)
	return nil
}

// step runs one migration and its bookkeeping statement in a transaction
func (m *Migrator) step(ctx context.Context, migration *Migration, up bool) error {
	run, bookkeeping, verb := migration.Down, deleteMigrationStatement(migration.Version), "revert"
	if up {
		run, bookkeeping, verb = migration.Up, recordMigrationStatement(migration.Version, migration.Description, m.now()), "apply"
	}
	log := m.logger.With("version", migration.Version, "description", migration.Description)
	log.Info("Running migration", "action", verb)

	writer := m.conn.Writer()
	if err := writer.BeginTransaction(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
	}
	snapshot := m.conn.Registry().Entries()

	fail := func(format string, err error) error {
		if rbErr := writer.RollbackTransaction(); rbErr != nil {
			log.Error("Failed to roll back migration", "error", rbErr)
		}
		restoreRegistry(m.conn.Registry(), snapshot, log)
		return fmt.Errorf(format, migration.Version, err)
	}

	if err := run(ctx, m.conn); err != nil {
		return fail("failed to "+verb+" migration %d: %w", err)
	}
	if err := writer.ExecuteSQL(ctx, bookkeeping); err != nil {
		return fail("failed to record migration %d: %w", err)
	}
	if err := writer.CommitTransaction(); err != nil {
		restoreRegistry(m.conn.Registry(), snapshot, log)
		return fmt.Errorf("failed to commit transaction for migration %d: %w", migration.Version, err)
	}

	log.Info("Migration done", "action", verb)
	return nil
}

func deleteMigrationStatement(version int) string {
	return fmt.Sprintf(strings.TrimSpace(deleteMigrationSQL), version)
}

// restoreRegistry makes reg hold the entries of snapshot again: entries added
// since are deregistered and entries removed since are registered back.
func restoreRegistry(reg *registry.Registry, snapshot []*registry.Entry, log *slog.Logger) {
	kept := make(map[string]bool, len(snapshot))
	for _, e := range snapshot {
		kept[e.Descriptor.TypeName()] = true
	}
	for _, e := range reg.Entries() {
		name := e.Descriptor.TypeName()
		if !kept[name] {
			log.Debug("Deregistering composite type created by the failed migration", "type", name)
			reg.Deregister(name)
		}
	}
	for _, e := range snapshot {
		if _, ok := reg.Lookup(e.Descriptor.TypeName()); ok {
			continue
		}
		if _, err := reg.Register(e.Descriptor, e.OID, e.ArrayOID); err != nil {
			log.Warn("Failed to restore composite type registration", "type", e.Descriptor.TypeName(), "error", err)
		}
	}
}
