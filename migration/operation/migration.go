package operation

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-extras/go-kit/must"

	"github.com/stokaro/pgcomposite/dbschema"
	"github.com/stokaro/pgcomposite/migration/migrator"
)

// NewMigration builds a migrator migration from ops. Up runs Forward in plan
// order and Down runs Backward in reverse plan order. An empty description is
// replaced by the operation descriptions.
func NewMigration(version int, description string, ops ...Operation) (*migrator.Migration, error) {
	planned, err := Plan(ops...)
	if err != nil {
		return nil, fmt.Errorf("failed to plan migration %d: %w", version, err)
	}

	if description == "" {
		description = Describe(planned...)
	}

	return &migrator.Migration{
		Version:     version,
		Description: description,
		Up: func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
			for _, op := range planned {
				conn.Logger().Debug("Applying operation", "version", version, "operation", op.Describe())
				if err := op.Forward(ctx, conn); err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
			for i := len(planned) - 1; i >= 0; i-- {
				op := planned[i]
				conn.Logger().Debug("Reverting operation", "version", version, "operation", op.Describe())
				if err := op.Backward(ctx, conn); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}

// MustNewMigration is like NewMigration but panics on a planning error.
// It is meant for package level migration declarations.
func MustNewMigration(version int, description string, ops ...Operation) *migrator.Migration {
	return must.Must(NewMigration(version, description, ops...))
}

// Describe joins the descriptions of ops, skipping UseExisting declarations
func Describe(ops ...Operation) string {
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		if _, ok := op.(*UseExisting); ok {
			continue
		}
		parts = append(parts, op.Describe())
	}
	return strings.Join(parts, "; ")
}

// ScriptSQL renders the forward and backward scripts of ops: forward in plan
// order, backward in reverse plan order, one terminated statement per line.
func ScriptSQL(ops ...Operation) (up, down string, err error) {
	planned, err := Plan(ops...)
	if err != nil {
		return "", "", err
	}

	var upSB, downSB strings.Builder
	for _, op := range planned {
		stmt, err := op.ForwardSQL()
		if err != nil {
			return "", "", fmt.Errorf("failed to render %q: %w", op.Describe(), err)
		}
		if stmt != "" {
			upSB.WriteString(stmt + ";\n")
		}
	}
	for i := len(planned) - 1; i >= 0; i-- {
		stmt, err := planned[i].BackwardSQL()
		if err != nil {
			return "", "", fmt.Errorf("failed to render %q: %w", planned[i].Describe(), err)
		}
		if stmt != "" {
			downSB.WriteString(stmt + ";\n")
		}
	}
	return upSB.String(), downSB.String(), nil
}
