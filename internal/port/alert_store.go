package port

import "context"

// AlertStore deduplicates low-stock alerts. Acquire returns true when the
// caller won the dedup window for the tenant and should emit the alert.
type AlertStore interface {
	Acquire(ctx context.Context, tenantID string) (bool, error)
}
