package registry

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Sync registers every entry on m, dependencies first. Registering a type
// that m already knows replaces it, so Sync may be called repeatedly.
func (r *Registry) Sync(m *pgtype.Map) {
	for _, entry := range r.Entries() {
		m.RegisterType(entry.Type)
		if entry.ArrayType != nil {
			m.RegisterType(entry.ArrayType)
		}
	}
}

// AfterConnect loads declared types that are not registered yet and syncs all
// entries onto the new connection. It has the signature expected by pgx
// stdlib.OptionAfterConnect and pgxpool.Config.AfterConnect.
func (r *Registry) AfterConnect(ctx context.Context, conn *pgx.Conn) error {
	if err := r.loadMissing(ctx, pgxCatalog(conn)); err != nil {
		return err
	}
	r.Sync(conn.TypeMap())
	return nil
}

// ResetSession syncs entries registered since the connection was opened. It
// has the signature expected by pgx stdlib.OptionResetSession.
func (r *Registry) ResetSession(ctx context.Context, conn *pgx.Conn) error {
	r.Sync(conn.TypeMap())
	return nil
}
