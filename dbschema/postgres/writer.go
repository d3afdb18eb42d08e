package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stokaro/pgcomposite/dbschema/types"
)

// ErrNoTransaction is returned when committing or rolling back without an
// active transaction.
var ErrNoTransaction = errors.New("no active transaction")

// Writer executes DDL against PostgreSQL, optionally inside a transaction
type Writer struct {
	db     *sql.DB
	tx     *sql.Tx
	dryRun bool
	logger *slog.Logger
}

// NewPostgreSQLWriter creates a new PostgreSQL schema writer
func NewPostgreSQLWriter(db *sql.DB) *Writer {
	return &Writer{
		db:     db,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used for dry-run output
func (w *Writer) WithLogger(l *slog.Logger) *Writer {
	w.logger = l
	return w
}

// BeginTransaction starts a transaction. Statements executed until commit or
// rollback run inside it.
func (w *Writer) BeginTransaction(ctx context.Context) error {
	if w.dryRun {
		w.logger.Info("[DRY RUN] Would begin transaction")
		return nil
	}
	if w.tx != nil {
		return fmt.Errorf("transaction already in progress")
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	w.tx = tx
	return nil
}

// CommitTransaction commits the active transaction
func (w *Writer) CommitTransaction() error {
	if w.dryRun {
		w.logger.Info("[DRY RUN] Would commit transaction")
		return nil
	}
	if w.tx == nil {
		return ErrNoTransaction
	}
	err := w.tx.Commit()
	w.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the active transaction
func (w *Writer) RollbackTransaction() error {
	if w.dryRun {
		w.logger.Info("[DRY RUN] Would rollback transaction")
		return nil
	}
	if w.tx == nil {
		return ErrNoTransaction
	}
	err := w.tx.Rollback()
	w.tx = nil
	if err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// InTransaction reports whether a transaction is active
func (w *Writer) InTransaction() bool {
	return w.tx != nil
}

// ExecuteSQL executes a statement in the active transaction, or directly on
// the database when there is none. Driver errors are wrapped with %w so
// errors.As still finds *pgconn.PgError.
func (w *Writer) ExecuteSQL(ctx context.Context, query string) error {
	if w.dryRun {
		w.logger.Info("[DRY RUN] Would execute SQL", "sql", query)
		return nil
	}

	var err error
	if w.tx != nil {
		_, err = w.tx.ExecContext(ctx, query)
	} else {
		_, err = w.db.ExecContext(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Querier returns the active transaction, or the database when there is none
func (w *Writer) Querier() types.Querier {
	if w.tx != nil {
		return w.tx
	}
	return w.db
}

// SetDryRun enables or disables dry run mode
func (w *Writer) SetDryRun(dryRun bool) {
	w.dryRun = dryRun
}

// IsDryRun returns whether dry run mode is enabled
func (w *Writer) IsDryRun() bool {
	return w.dryRun
}

var _ types.SchemaWriter = (*Writer)(nil)
