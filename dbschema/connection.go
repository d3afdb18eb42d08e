// Package dbschema connects to PostgreSQL with composite type support and
// gives access to the catalog reader and the DDL writer.
package dbschema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/stokaro/pgcomposite/core/platform"
	"github.com/stokaro/pgcomposite/dbschema/postgres"
	"github.com/stokaro/pgcomposite/dbschema/types"
	"github.com/stokaro/pgcomposite/registry"
)

// ErrUnsupportedDialect is returned by ConnectToDatabase for non-PostgreSQL URLs.
var ErrUnsupportedDialect = errors.New("composite types are only available for postgres")

// poolParams are pgxpool settings. pgx.ParseConfig would pass them to the
// server as runtime parameters, which it rejects.
var poolParams = []string{
	"pool_max_conns",
	"pool_min_conns",
	"pool_min_idle_conns",
	"pool_max_conn_lifetime",
	"pool_max_conn_lifetime_jitter",
	"pool_max_conn_idle_time",
	"pool_health_check_period",
}

// DatabaseConnection is an open database plus the registry whose types are
// synced onto every pooled connection
type DatabaseConnection struct {
	db       *sql.DB
	info     types.DBInfo
	reader   *postgres.Reader
	writer   *postgres.Writer
	registry *registry.Registry
	logger   *slog.Logger
}

type connectOptions struct {
	schema   string
	registry *registry.Registry
	logger   *slog.Logger
}

// Option configures ConnectToDatabase
type Option func(*connectOptions)

// WithSchema sets the schema inspected by the reader (default "public")
func WithSchema(schema string) Option {
	return func(o *connectOptions) {
		o.schema = schema
	}
}

// WithRegistry sets the registry wired into the connection hooks
// (default registry.Default())
func WithRegistry(r *registry.Registry) Option {
	return func(o *connectOptions) {
		o.registry = r
	}
}

// WithLogger sets the logger of the connection and its writer
func WithLogger(l *slog.Logger) Option {
	return func(o *connectOptions) {
		o.logger = l
	}
}

// ConnectToDatabase opens a PostgreSQL database through the pgx stdlib
// driver. Every new pooled connection runs the registry AfterConnect hook,
// which loads the declared composite types and syncs the registered ones, and
// ResetSession re-syncs types registered since.
func ConnectToDatabase(ctx context.Context, dbURL string, opts ...Option) (*DatabaseConnection, error) {
	o := connectOptions{
		schema:   "public",
		registry: registry.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	dialect := platform.FromURL(dbURL)
	if !platform.SupportsCompositeTypes(dialect) {
		return nil, fmt.Errorf("%w: unsupported dialect %q", ErrUnsupportedDialect, dialect)
	}

	config, err := pgx.ParseConfig(removePostgresPoolParams(dbURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	db := stdlib.OpenDB(*config,
		stdlib.OptionAfterConnect(o.registry.AfterConnect),
		stdlib.OptionResetSession(o.registry.ResetSession),
	)

	// The first connection is opened here, so declared types are loaded
	// before ConnectToDatabase returns.
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// The hook only runs for new connections; anything it did not register
	// is loaded here so errors surface from ConnectToDatabase.
	if err := o.registry.LoadDeclared(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to get database version: %w", err)
	}

	o.logger.Debug("Connected to database", "dialect", platform.Postgres, "schema", o.schema, "registered_types", len(o.registry.Entries()))

	return &DatabaseConnection{
		db: db,
		info: types.DBInfo{
			Dialect: platform.Postgres,
			Version: version,
			Schema:  o.schema,
			URL:     dbURL,
		},
		reader:   postgres.NewPostgreSQLReader(db, o.schema),
		writer:   postgres.NewPostgreSQLWriter(db).WithLogger(o.logger),
		registry: o.registry,
		logger:   o.logger,
	}, nil
}

// Close closes the database and resets the registry, since its OIDs are only
// valid for this database
func (c *DatabaseConnection) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	c.registry.Reset()
	return c.db.Close()
}

// Info returns dialect, version and schema information
func (c *DatabaseConnection) Info() types.DBInfo {
	return c.info
}

// Reader returns the catalog reader bound to the database
func (c *DatabaseConnection) Reader() *postgres.Reader {
	return c.reader
}

// TxReader returns a catalog reader that sees the writer's active transaction
func (c *DatabaseConnection) TxReader() *postgres.Reader {
	return postgres.NewPostgreSQLReader(c.writer.Querier(), c.info.Schema)
}

// Writer returns the DDL writer
func (c *DatabaseConnection) Writer() *postgres.Writer {
	return c.writer
}

// Registry returns the registry wired into the connection hooks
func (c *DatabaseConnection) Registry() *registry.Registry {
	return c.registry
}

// Logger returns the connection logger
func (c *DatabaseConnection) Logger() *slog.Logger {
	return c.logger
}

// DB returns the underlying database handle
func (c *DatabaseConnection) DB() *sql.DB {
	return c.db
}

// ExecContext executes a statement outside of the writer's transaction
func (c *DatabaseConnection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query outside of the writer's transaction
func (c *DatabaseConnection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single row query outside of the writer's transaction
func (c *DatabaseConnection) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// removePostgresPoolParams strips pgxpool-only parameters from a connection
// URL. The remaining query is re-encoded in sorted order. Input that does not
// parse as a URL with a scheme is returned unchanged.
func removePostgresPoolParams(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.Scheme == "" {
		return dbURL
	}

	query := u.Query()
	for _, param := range poolParams {
		query.Del(param)
	}
	u.RawQuery = query.Encode()
	return u.String()
}
