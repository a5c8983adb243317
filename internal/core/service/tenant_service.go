package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/tenant-inventory/internal/core/domain"
	"github.com/rl1809/tenant-inventory/internal/port"
)

// TenantService owns the tenant registry and drives onboarding: registry row
// first, then schema provisioning, then route registration. The ordering is
// deliberate: the registry row is the durable record that the tenant exists,
// and provisioning is idempotent, so a crash between the two steps is
// repaired by re-running Provision.
type TenantService struct {
	tenants     port.TenantRepository
	provisioner port.SchemaProvisioner
	routes      port.StoreRegistrar
	logger      *zap.Logger
}

func NewTenantService(tenants port.TenantRepository, provisioner port.SchemaProvisioner, routes port.StoreRegistrar, logger *zap.Logger) *TenantService {
	return &TenantService{
		tenants:     tenants,
		provisioner: provisioner,
		routes:      routes,
		logger:      logger,
	}
}

func (s *TenantService) Create(ctx context.Context, tenantID, name string) (*domain.Tenant, error) {
	if !domain.ValidTenantID(tenantID) {
		return nil, fmt.Errorf("%w: tenant id %q must match [a-z0-9_]{1,50}", domain.ErrInvalidArgument, tenantID)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: tenant name is required", domain.ErrInvalidArgument)
	}

	now := time.Now()
	t := domain.Tenant{
		ID:         tenantID,
		Name:       name,
		SchemaName: domain.SchemaFor(tenantID),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("tenant registered",
		zap.String("tenant_id", t.ID),
		zap.String("schema", t.SchemaName))

	if err := s.provisionAndRoute(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("tenant created", zap.String("tenant_id", t.ID))
	return &t, nil
}

// Provision re-runs schema provisioning and route registration for an
// existing tenant. This is the operator path after a tenant creation that
// failed between the registry insert and schema creation.
func (s *TenantService) Provision(ctx context.Context, tenantID string) error {
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.provisionAndRoute(ctx, *t)
}

func (s *TenantService) provisionAndRoute(ctx context.Context, t domain.Tenant) error {
	if err := s.provisioner.Provision(ctx, t.SchemaName); err != nil {
		s.logger.Error("tenant schema provisioning failed",
			zap.String("tenant_id", t.ID),
			zap.String("schema", t.SchemaName),
			zap.Error(err))
		return &domain.ProvisioningError{Schema: t.SchemaName, Err: err}
	}

	if err := s.routes.Register(t.ID, t.SchemaName); err != nil {
		return &domain.ProvisioningError{Schema: t.SchemaName, Err: err}
	}
	return nil
}

func (s *TenantService) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	return s.tenants.GetByID(ctx, tenantID)
}

func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.tenants.List(ctx)
}

// Deactivate soft-disables a tenant. The schema, its data and its route all
// remain; only the active flag changes. Idempotent.
func (s *TenantService) Deactivate(ctx context.Context, tenantID string) error {
	if err := s.tenants.SetActive(ctx, tenantID, false); err != nil {
		return err
	}
	s.logger.Info("tenant deactivated", zap.String("tenant_id", tenantID))
	return nil
}
