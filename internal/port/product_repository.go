package port

import (
	"context"

	"github.com/rl1809/tenant-inventory/internal/core/domain"
)

// ProductRepository persists products inside the tenant store resolved from
// the request context. Every method fails with domain.ErrMissingTenant when
// no tenant is bound.
type ProductRepository interface {
	// Create persists a new product. Returns domain.ErrAlreadyExists on a
	// duplicate SKU.
	Create(ctx context.Context, p domain.Product) error

	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)

	List(ctx context.Context) ([]domain.Product, error)
	ListActive(ctx context.Context) ([]domain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
	// ListNeedingReorder returns active products with stock at or below
	// their reorder level.
	ListNeedingReorder(ctx context.Context) ([]domain.Product, error)

	// UpdateDetails updates descriptive fields only; stock quantity and
	// version are never touched by it.
	UpdateDetails(ctx context.Context, p domain.Product) error

	SetActive(ctx context.Context, id string, active bool) error

	// UpdateStock is the conditional write: it persists newQuantity and
	// bumps the version, but only if the stored version still equals
	// expectedVersion. Returns domain.ErrVersionConflict when another
	// writer got there first.
	UpdateStock(ctx context.Context, id string, newQuantity int, expectedVersion int64) error
}

// AdjustmentRepository is the append-only stock ledger.
type AdjustmentRepository interface {
	Append(ctx context.Context, a domain.StockAdjustment) error
	// ListByProduct returns a product's adjustments in creation order.
	ListByProduct(ctx context.Context, productID string) ([]domain.StockAdjustment, error)
}
