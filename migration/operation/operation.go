// Package operation provides migration operations that create and drop
// composite types, and columns using them, in dependency order.
//
// An operation is Unapplied until Forward succeeds and Applied until
// Backward succeeds. Forward on CreateType runs CREATE TYPE, registers the
// type with the connection's registry and calls the OnTypeCreated hooks;
// Backward runs DROP TYPE and deregisters it. Database errors such as a
// duplicate type are returned as is, wrapped only with %w.
//
// The DDL is generated from the descriptor when the operation runs, so a
// migration applied after its descriptor changed creates the changed type.
// Use the generator package to snapshot the SQL into migration files instead.
package operation

import (
	"context"
	"fmt"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/core/renderer"
	"github.com/stokaro/pgcomposite/dbschema"
)

// Operation is one reversible schema change
type Operation interface {
	// Forward applies the change
	Forward(ctx context.Context, conn *dbschema.DatabaseConnection) error
	// Backward reverts the change
	Backward(ctx context.Context, conn *dbschema.DatabaseConnection) error
	// ForwardSQL returns the statement executed by Forward
	ForwardSQL() (string, error)
	// BackwardSQL returns the statement executed by Backward
	BackwardSQL() (string, error)
	// Describe returns a short human readable description
	Describe() string
	// Provides lists the composite type names the operation creates
	Provides() []string
	// Requires lists the composite type names that must exist before Forward
	Requires() []string
}

// CreateType creates a composite type. The DDL is rendered from Descriptor when
// the operation runs, so an old migration applied after the descriptor changed
// creates the current shape. Use migration/generator to keep the shape written
// at authoring time.
type CreateType struct {
	Descriptor *composite.Descriptor
}

// NewCreateType returns the operation creating desc
func NewCreateType(desc *composite.Descriptor) *CreateType {
	return &CreateType{Descriptor: desc}
}

// Describe returns "Creates type <name>"
func (o *CreateType) Describe() string {
	return "Creates type " + o.Descriptor.TypeName()
}

// Provides returns the created type name
func (o *CreateType) Provides() []string {
	return []string{o.Descriptor.TypeName()}
}

// Requires returns the composite types referenced by the attributes
func (o *CreateType) Requires() []string {
	return dependencyNames(o.Descriptor)
}

// ForwardSQL returns CREATE TYPE name AS (...)
func (o *CreateType) ForwardSQL() (string, error) {
	return renderer.CreateTypeSQL(o.Descriptor)
}

// BackwardSQL returns DROP TYPE name
func (o *CreateType) BackwardSQL() (string, error) {
	return renderer.DropTypeSQL(o.Descriptor)
}

// Forward creates the type, registers it and runs the created hooks. In dry
// run mode only the statement is logged.
func (o *CreateType) Forward(ctx context.Context, conn *dbschema.DatabaseConnection) error {
	stmt, err := o.ForwardSQL()
	if err != nil {
		return err
	}
	if err := conn.Writer().ExecuteSQL(ctx, stmt); err != nil {
		return err
	}
	if conn.Writer().IsDryRun() {
		return nil
	}

	entry, err := conn.Registry().Load(ctx, conn.Writer().Querier(), o.Descriptor)
	if err != nil {
		return fmt.Errorf("failed to register composite type %s: %w", o.Descriptor.TypeName(), err)
	}
	conn.Logger().Debug("Created composite type", "type", o.Descriptor.TypeName(), "oid", entry.OID)

	return runTypeCreatedHooks(ctx, conn, entry)
}

// Backward drops the type and removes it from the registry.
func (o *CreateType) Backward(ctx context.Context, conn *dbschema.DatabaseConnection) error {
	stmt, err := o.BackwardSQL()
	if err != nil {
		return err
	}
	if err := conn.Writer().ExecuteSQL(ctx, stmt); err != nil {
		return err
	}
	if conn.Writer().IsDryRun() {
		return nil
	}

	removed := conn.Registry().Deregister(o.Descriptor.TypeName())
	conn.Logger().Debug("Dropped composite type", "type", o.Descriptor.TypeName(), "deregistered", removed)
	return nil
}

// AddColumn adds a column of a composite type, or an array of it, to a table
type AddColumn struct {
	Table      string
	Column     string
	Descriptor *composite.Descriptor
	Array      bool
}

// NewAddColumn returns the operation adding a desc typed column
func NewAddColumn(table, column string, desc *composite.Descriptor) *AddColumn {
	return &AddColumn{Table: table, Column: column, Descriptor: desc}
}

// NewAddArrayColumn returns the operation adding a desc[] typed column
func NewAddArrayColumn(table, column string, desc *composite.Descriptor) *AddColumn {
	return &AddColumn{Table: table, Column: column, Descriptor: desc, Array: true}
}

// Describe returns "Adds column <table>.<column>"
func (o *AddColumn) Describe() string {
	return fmt.Sprintf("Adds column %s.%s", o.Table, o.Column)
}

// Provides returns nothing; columns are not types
func (o *AddColumn) Provides() []string {
	return nil
}

// Requires returns the column type name
func (o *AddColumn) Requires() []string {
	return []string{o.Descriptor.TypeName()}
}

// ForwardSQL returns ALTER TABLE ... ADD COLUMN
func (o *AddColumn) ForwardSQL() (string, error) {
	return renderer.AddColumnSQL(o.Table, o.Column, o.Descriptor, o.Array)
}

// BackwardSQL returns ALTER TABLE ... DROP COLUMN
func (o *AddColumn) BackwardSQL() (string, error) {
	return renderer.DropColumnSQL(o.Table, o.Column)
}

// Forward adds the column
func (o *AddColumn) Forward(ctx context.Context, conn *dbschema.DatabaseConnection) error {
	return execute(ctx, conn, o.ForwardSQL)
}

// Backward drops the column
func (o *AddColumn) Backward(ctx context.Context, conn *dbschema.DatabaseConnection) error {
	return execute(ctx, conn, o.BackwardSQL)
}

// UseExisting declares composite types created by an earlier migration, so
// operations requiring them can be planned. It executes nothing.
type UseExisting struct {
	Descriptors []*composite.Descriptor
}

// NewUseExisting returns the operation declaring descs as existing
func NewUseExisting(descs ...*composite.Descriptor) *UseExisting {
	return &UseExisting{Descriptors: descs}
}

// Describe returns "Uses existing types <names>"
func (o *UseExisting) Describe() string {
	return fmt.Sprintf("Uses existing types %v", o.Provides())
}

// Provides returns the declared type names
func (o *UseExisting) Provides() []string {
	names := make([]string, 0, len(o.Descriptors))
	for _, d := range o.Descriptors {
		names = append(names, d.TypeName())
	}
	return names
}

// Requires returns nothing
func (o *UseExisting) Requires() []string {
	return nil
}

// ForwardSQL returns an empty statement
func (o *UseExisting) ForwardSQL() (string, error) { return "", nil }

// BackwardSQL returns an empty statement
func (o *UseExisting) BackwardSQL() (string, error) { return "", nil }

// Forward is a no-op
func (o *UseExisting) Forward(context.Context, *dbschema.DatabaseConnection) error { return nil }

// Backward is a no-op
func (o *UseExisting) Backward(context.Context, *dbschema.DatabaseConnection) error { return nil }

func execute(ctx context.Context, conn *dbschema.DatabaseConnection, render func() (string, error)) error {
	stmt, err := render()
	if err != nil {
		return err
	}
	return conn.Writer().ExecuteSQL(ctx, stmt)
}

func dependencyNames(desc *composite.Descriptor) []string {
	deps := desc.Dependencies()
	if len(deps) == 0 {
		return nil
	}
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.TypeName())
	}
	return names
}

var (
	_ Operation = (*CreateType)(nil)
	_ Operation = (*AddColumn)(nil)
	_ Operation = (*UseExisting)(nil)
)
