package operation

import (
	"context"
	"fmt"
	"sync"

	"github.com/stokaro/pgcomposite/dbschema"
	"github.com/stokaro/pgcomposite/registry"
)

// TypeCreatedHook is called after CreateType created and registered a type.
// It runs inside the migration transaction; an error fails the migration.
type TypeCreatedHook func(ctx context.Context, conn *dbschema.DatabaseConnection, entry *registry.Entry) error

type hookEntry struct {
	id int
	fn TypeCreatedHook
}

var hooks struct {
	mu     sync.Mutex
	nextID int
	list   []hookEntry
}

// OnTypeCreated adds a hook called after every composite type created by a
// CreateType operation. The returned function removes the hook.
func OnTypeCreated(fn TypeCreatedHook) (remove func()) {
	hooks.mu.Lock()
	defer hooks.mu.Unlock()

	hooks.nextID++
	id := hooks.nextID
	hooks.list = append(hooks.list, hookEntry{id: id, fn: fn})

	return func() {
		hooks.mu.Lock()
		defer hooks.mu.Unlock()
		for i, h := range hooks.list {
			if h.id == id {
				hooks.list = append(hooks.list[:i:i], hooks.list[i+1:]...)
				return
			}
		}
	}
}

func runTypeCreatedHooks(ctx context.Context, conn *dbschema.DatabaseConnection, entry *registry.Entry) error {
	hooks.mu.Lock()
	list := make([]hookEntry, len(hooks.list))
	copy(list, hooks.list)
	hooks.mu.Unlock()

	for _, h := range list {
		if err := h.fn(ctx, conn, entry); err != nil {
			return fmt.Errorf("type created hook failed for %s: %w", entry.Descriptor.TypeName(), err)
		}
	}
	return nil
}
