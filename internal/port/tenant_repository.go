package port

import (
	"context"

	"github.com/rl1809/tenant-inventory/internal/core/domain"
)

type TenantRepository interface {
	// Create persists a new tenant record. Returns domain.ErrAlreadyExists
	// if the tenant id or schema name is already registered.
	Create(ctx context.Context, t domain.Tenant) error

	// GetByID returns domain.ErrNotFound when the tenant is unknown.
	GetByID(ctx context.Context, tenantID string) (*domain.Tenant, error)

	List(ctx context.Context) ([]domain.Tenant, error)

	// SetActive toggles the active flag. Idempotent.
	SetActive(ctx context.Context, tenantID string, active bool) error
}

// SchemaProvisioner creates and migrates one tenant's isolated schema.
// Provision must be idempotent so a partially failed tenant creation can be
// retried without side effects.
type SchemaProvisioner interface {
	Provision(ctx context.Context, schema string) error
}

// StoreRegistrar adds a tenant route at runtime.
type StoreRegistrar interface {
	Register(tenantID, schema string) error
}
