package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rl1809/tenant-inventory/internal/core/domain"
)

// HandleOpener opens a database handle for a tenant schema.
type HandleOpener func(schema string) (*sql.DB, error)

// Router maps tenant ids to per-tenant database handles. Reads take a
// lock-free snapshot of the route table; Register installs a new snapshot
// atomically, so in-flight resolutions never observe a half-built route and
// existing routes are never invalidated by adding one.
type Router struct {
	master *sql.DB
	open   HandleOpener

	mu     sync.Mutex // serializes writers only
	routes atomic.Pointer[map[string]*sql.DB]
}

func NewRouter(master *sql.DB, open HandleOpener) *Router {
	r := &Router{master: master, open: open}
	empty := make(map[string]*sql.DB)
	r.routes.Store(&empty)
	return r
}

// Master returns the handle for the master schema, used only by
// tenant-management operations.
func (r *Router) Master() *sql.DB {
	return r.master
}

// Resolve returns the handle for the tenant bound to ctx.
func (r *Router) Resolve(ctx context.Context) (*sql.DB, error) {
	tenantID, ok := FromContext(ctx)
	if !ok {
		return nil, domain.ErrMissingTenant
	}
	db, ok := (*r.routes.Load())[tenantID]
	if !ok {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	return db, nil
}

// Register adds a route for a tenant at runtime. Idempotent: registering an
// already-routed tenant is a no-op. Safe to call concurrently with Resolve.
func (r *Router) Register(tenantID, schema string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.routes.Load()
	if _, ok := current[tenantID]; ok {
		return nil
	}

	db, err := r.open(schema)
	if err != nil {
		return fmt.Errorf("open handle for schema %s: %w", schema, err)
	}

	next := make(map[string]*sql.DB, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[tenantID] = db
	r.routes.Store(&next)
	return nil
}

// Routes returns the tenant ids currently routed.
func (r *Router) Routes() []string {
	current := *r.routes.Load()
	ids := make([]string, 0, len(current))
	for id := range current {
		ids = append(ids, id)
	}
	return ids
}

// Close closes every tenant handle. The master handle is owned by the caller.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, db := range *r.routes.Load() {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	empty := make(map[string]*sql.DB)
	r.routes.Store(&empty)
	return firstErr
}
