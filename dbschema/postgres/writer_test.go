package postgres_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/pgcomposite/dbschema/postgres"
)

func TestWriter_DryRun(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	var buf bytes.Buffer
	w := postgres.NewPostgreSQLWriter(nil).WithLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	w.SetDryRun(true)
	c.Assert(w.IsDryRun(), qt.IsTrue)

	c.Assert(w.BeginTransaction(ctx), qt.IsNil)
	c.Assert(w.ExecuteSQL(ctx, "CREATE TYPE x_point AS (x integer, y integer)"), qt.IsNil)
	c.Assert(w.CommitTransaction(), qt.IsNil)
	c.Assert(w.InTransaction(), qt.IsFalse)

	c.Assert(buf.String(), qt.Contains, "[DRY RUN] Would execute SQL")
	c.Assert(buf.String(), qt.Contains, "CREATE TYPE x_point AS (x integer, y integer)")
}

func TestWriter_NoTransaction(t *testing.T) {
	c := qt.New(t)

	w := postgres.NewPostgreSQLWriter(nil)
	c.Assert(w.IsDryRun(), qt.IsFalse)
	c.Assert(w.InTransaction(), qt.IsFalse)
	c.Assert(w.CommitTransaction(), qt.ErrorIs, postgres.ErrNoTransaction)
	c.Assert(w.RollbackTransaction(), qt.ErrorIs, postgres.ErrNoTransaction)
}
