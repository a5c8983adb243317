package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/tenant-inventory/internal/core/domain"
	"github.com/rl1809/tenant-inventory/internal/port"
	"github.com/rl1809/tenant-inventory/internal/tenant"
)

// ReconciliationService runs two periodic sweeps over every active tenant: a
// daily inventory report and an hourly low-stock check. Tenants are visited
// sequentially, each under its own tenant-bound context, and one tenant's
// failure never aborts the sweep for the rest.
type ReconciliationService struct {
	tenants     port.TenantRepository
	products    port.ProductRepository
	adjustments port.AdjustmentRepository
	alerts      port.AlertStore // optional; nil means alerts are never deduplicated
	logger      *zap.Logger

	dailyEvery  time.Duration
	hourlyEvery time.Duration
}

func NewReconciliationService(
	tenants port.TenantRepository,
	products port.ProductRepository,
	adjustments port.AdjustmentRepository,
	alerts port.AlertStore,
	dailyEvery, hourlyEvery time.Duration,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		tenants:     tenants,
		products:    products,
		adjustments: adjustments,
		alerts:      alerts,
		logger:      logger,
		dailyEvery:  dailyEvery,
		hourlyEvery: hourlyEvery,
	}
}

// Run blocks, driving both sweeps on their intervals until ctx is cancelled.
func (s *ReconciliationService) Run(ctx context.Context) {
	daily := time.NewTicker(s.dailyEvery)
	hourly := time.NewTicker(s.hourlyEvery)
	defer daily.Stop()
	defer hourly.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-daily.C:
			s.RunDaily(ctx)
		case <-hourly.C:
			s.RunHourly(ctx)
		}
	}
}

// RunDaily reports per-tenant product counts, reorder candidates, total
// inventory value and ledger drift.
func (s *ReconciliationService) RunDaily(ctx context.Context) {
	s.logger.Info("daily reconciliation sweep started")

	tenants, err := s.activeTenants(ctx)
	if err != nil {
		s.logger.Error("reconciliation: listing tenants failed", zap.Error(err))
		return
	}

	for _, t := range tenants {
		// A fresh child context per tenant: the binding cannot outlive
		// this iteration.
		tctx := tenant.WithTenant(ctx, t.ID)
		if err := s.reconcileTenant(tctx, t); err != nil {
			s.logger.Error("reconciliation failed for tenant",
				zap.String("tenant_id", t.ID), zap.Error(err))
		}
	}

	s.logger.Info("daily reconciliation sweep completed", zap.Int("tenants", len(tenants)))
}

// RunHourly alerts on tenants that have products at or below reorder level.
func (s *ReconciliationService) RunHourly(ctx context.Context) {
	tenants, err := s.activeTenants(ctx)
	if err != nil {
		s.logger.Error("low stock check: listing tenants failed", zap.Error(err))
		return
	}

	for _, t := range tenants {
		tctx := tenant.WithTenant(ctx, t.ID)
		if err := s.checkLowStock(tctx, t); err != nil {
			s.logger.Error("low stock check failed for tenant",
				zap.String("tenant_id", t.ID), zap.Error(err))
		}
	}
}

func (s *ReconciliationService) activeTenants(ctx context.Context) ([]domain.Tenant, error) {
	all, err := s.tenants.List(ctx)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, t := range all {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

func (s *ReconciliationService) reconcileTenant(ctx context.Context, t domain.Tenant) error {
	all, err := s.products.List(ctx)
	if err != nil {
		return err
	}

	activeCount := 0
	totalValue := decimal.Zero
	for _, p := range all {
		if p.Active {
			activeCount++
			totalValue = totalValue.Add(p.InventoryValue())
		}
	}

	s.logger.Info("tenant inventory report",
		zap.String("tenant_id", t.ID),
		zap.Int("total_products", len(all)),
		zap.Int("active", activeCount),
		zap.Int("inactive", len(all)-activeCount),
		zap.String("total_value", totalValue.StringFixed(2)))

	reorder, err := s.products.ListNeedingReorder(ctx)
	if err != nil {
		return err
	}
	for _, p := range reorder {
		s.logger.Warn("product needs reordering",
			zap.String("tenant_id", t.ID),
			zap.String("sku", p.SKU),
			zap.String("name", p.Name),
			zap.Int("stock", p.StockQuantity),
			zap.Int("reorder_level", p.ReorderLevel))

		// Low-stock products are the ones mutating most; check their
		// ledgers while we are here.
		if drift, err := s.ledgerDrift(ctx, p); err == nil && drift != 0 {
			s.logger.Warn("ledger drift detected",
				zap.String("tenant_id", t.ID),
				zap.String("product_id", p.ID),
				zap.String("sku", p.SKU),
				zap.Int("drift", drift))
		}
	}
	return nil
}

func (s *ReconciliationService) ledgerDrift(ctx context.Context, p domain.Product) (int, error) {
	history, err := s.adjustments.ListByProduct(ctx, p.ID)
	if err != nil {
		return 0, err
	}
	sum := 0
	for _, a := range history {
		sum += a.QuantityChange
	}
	return p.StockQuantity - sum, nil
}

func (s *ReconciliationService) checkLowStock(ctx context.Context, t domain.Tenant) error {
	reorder, err := s.products.ListNeedingReorder(ctx)
	if err != nil {
		return err
	}
	if len(reorder) == 0 {
		return nil
	}

	if s.alerts != nil {
		won, err := s.alerts.Acquire(ctx, t.ID)
		if err != nil {
			// Dedup is advisory; alert anyway.
			s.logger.Warn("alert dedup unavailable", zap.Error(err))
		} else if !won {
			return nil
		}
	}

	s.logger.Warn("low stock alert",
		zap.String("tenant_id", t.ID),
		zap.Int("products_below_reorder_level", len(reorder)))
	return nil
}
