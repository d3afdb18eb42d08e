//go:build integration

package integration_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/stokaro/pgcomposite/dbschema"
	"github.com/stokaro/pgcomposite/registry"
)

// testDSN returns POSTGRES_TEST_DSN, or the DSN of a PostgreSQL container
// started for the test when the variable is not set.
func testDSN(c *qt.C) string {
	c.Helper()
	if dsn := os.Getenv("POSTGRES_TEST_DSN"); dsn != "" {
		return dsn
	}
	if testing.Short() {
		c.Skip("Skipping integration test in short mode: POSTGRES_TEST_DSN environment variable not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:17",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	c.Assert(err, qt.IsNil, qt.Commentf("failed to start container"))
	c.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			c.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	c.Assert(err, qt.IsNil)
	return dsn
}

// connect opens a connection with its own registry. cleanup statements run
// before the test and again when it ends.
func connect(c *qt.C, reg *registry.Registry, cleanup ...string) *dbschema.DatabaseConnection {
	c.Helper()
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg.SetLogger(logger)
	conn, err := dbschema.ConnectToDatabase(ctx, testDSN(c),
		dbschema.WithRegistry(reg),
		dbschema.WithLogger(logger),
	)
	c.Assert(err, qt.IsNil)

	drop := func() {
		for _, stmt := range cleanup {
			_, err := conn.ExecContext(ctx, stmt)
			c.Check(err, qt.IsNil, qt.Commentf("cleanup: %s", stmt))
		}
	}
	drop()
	c.Cleanup(func() {
		drop()
		c.Check(conn.Close(), qt.IsNil)
	})
	return conn
}
