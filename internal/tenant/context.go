// Package tenant carries the current tenant identity through a unit of work
// and routes it to the right database handle.
//
// The tenant id travels on the request's context.Context rather than in any
// process-global slot, so it cannot leak from one unit of work into the next:
// when the request's context is gone, so is the tenant binding.
package tenant

import "context"

type ctxKey struct{}

// WithTenant returns a child context bound to the given tenant id.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// FromContext extracts the tenant id bound to ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
