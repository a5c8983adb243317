package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/tenant-inventory/internal/core/domain"
	"github.com/rl1809/tenant-inventory/internal/port"
)

const (
	// Total attempts for one stock adjustment, including the first.
	adjustMaxAttempts = 3
	adjustRetryBase   = 100 * time.Millisecond
)

const initialStockReason = "Initial stock"

type CreateProductInput struct {
	SKU           string
	Name          string
	Description   string
	Category      string
	Price         decimal.Decimal
	StockQuantity int
	ReorderLevel  int
}

func (in *CreateProductInput) validate() error {
	switch {
	case in.SKU == "":
		return fmt.Errorf("%w: sku is required", domain.ErrInvalidArgument)
	case in.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	case in.Category == "":
		return fmt.Errorf("%w: category is required", domain.ErrInvalidArgument)
	case !in.Price.IsPositive():
		return fmt.Errorf("%w: price must be greater than 0", domain.ErrInvalidArgument)
	case in.StockQuantity < 0:
		return fmt.Errorf("%w: stock quantity cannot be negative", domain.ErrInvalidArgument)
	case in.ReorderLevel < 0:
		return fmt.Errorf("%w: reorder level cannot be negative", domain.ErrInvalidArgument)
	}
	return nil
}

type UpdateProductInput struct {
	Name         string
	Description  string
	Category     string
	Price        decimal.Decimal
	ReorderLevel int
}

// ProductService is the tenant-scoped inventory core: product lifecycle,
// read queries, and the optimistic-locking stock mutation engine.
type ProductService struct {
	products    port.ProductRepository
	adjustments port.AdjustmentRepository
	logger      *zap.Logger

	retryBase   time.Duration
	maxAttempts int
}

func NewProductService(products port.ProductRepository, adjustments port.AdjustmentRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		products:    products,
		adjustments: adjustments,
		logger:      logger,
		retryBase:   adjustRetryBase,
		maxAttempts: adjustMaxAttempts,
	}
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	p := domain.Product{
		ID:            uuid.NewString(),
		SKU:           in.SKU,
		Name:          in.Name,
		Description:   in.Description,
		Category:      in.Category,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		ReorderLevel:  in.ReorderLevel,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.ReorderLevel == 0 {
		p.ReorderLevel = domain.DefaultReorderLevel
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("product created",
		zap.String("product_id", p.ID),
		zap.String("sku", p.SKU))

	// An opening balance gets its own ledger entry so the full history
	// folds to the current quantity.
	if p.StockQuantity > 0 {
		s.record(ctx, &p, 0, p.StockQuantity, p.StockQuantity,
			domain.AdjustmentRestock, initialStockReason)
	}

	return &p, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return s.products.GetBySKU(ctx, sku)
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func (s *ProductService) ListActive(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListActive(ctx)
}

func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.products.ListByCategory(ctx, category)
}

func (s *ProductService) ListNeedingReorder(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListNeedingReorder(ctx)
}

func (s *ProductService) Update(ctx context.Context, id string, in UpdateProductInput) (*domain.Product, error) {
	if in.Name == "" || in.Category == "" {
		return nil, fmt.Errorf("%w: name and category are required", domain.ErrInvalidArgument)
	}
	if !in.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be greater than 0", domain.ErrInvalidArgument)
	}
	if in.ReorderLevel < 0 {
		return nil, fmt.Errorf("%w: reorder level cannot be negative", domain.ErrInvalidArgument)
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Category = in.Category
	p.Price = in.Price
	p.ReorderLevel = in.ReorderLevel

	if err := s.products.UpdateDetails(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate soft-deletes a product. Idempotent.
func (s *ProductService) Deactivate(ctx context.Context, id string) error {
	return s.products.SetActive(ctx, id, false)
}

// AdjustStock applies a signed quantity delta under optimistic locking.
//
// Each attempt re-reads the product, bounds-checks the new quantity, and
// issues a conditional write against the version it read. A version conflict
// means another writer landed first; the attempt is retried with backoff up
// to the attempt ceiling. An insufficient-stock rejection is terminal and
// never retried. Only after the conditional write commits is the ledger
// entry appended; an append failure leaves state correct but the ledger one
// row short, which the reconciliation sweep reports as drift.
func (s *ProductService) AdjustStock(ctx context.Context, productID string, change int, adjType domain.AdjustmentType, reason string) (*domain.Product, error) {
	if change == 0 {
		return nil, fmt.Errorf("%w: quantity change must be non-zero", domain.ErrInvalidArgument)
	}
	if !adjType.Valid() {
		return nil, fmt.Errorf("%w: unknown adjustment type %q", domain.ErrInvalidArgument, adjType)
	}

	var (
		updated  *domain.Product
		previous int
	)

	attempt := func() error {
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return backoff.Permanent(err)
		}

		newQuantity := p.StockQuantity + change
		if newQuantity < 0 {
			return backoff.Permanent(&domain.InsufficientStockError{
				Available: p.StockQuantity,
				Requested: -change,
			})
		}

		if err := s.products.UpdateStock(ctx, p.ID, newQuantity, p.Version); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				s.logger.Warn("stock write conflict, retrying",
					zap.String("product_id", p.ID),
					zap.Int64("version", p.Version))
				return err
			}
			return backoff.Permanent(err)
		}

		previous = p.StockQuantity
		p.StockQuantity = newQuantity
		p.Version++
		updated = p
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryBase
	bo.RandomizationFactor = 0

	err := backoff.Retry(attempt, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(s.maxAttempts-1)), ctx))
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, fmt.Errorf("product %s: %w", productID, domain.ErrConcurrentModification)
		}
		return nil, err
	}

	s.record(ctx, updated, previous, updated.StockQuantity, change, adjType, reason)

	s.logger.Info("stock adjusted",
		zap.String("product_id", updated.ID),
		zap.String("sku", updated.SKU),
		zap.Int("previous", previous),
		zap.Int("new", updated.StockQuantity),
		zap.String("type", string(adjType)))

	return updated, nil
}

// record appends one ledger entry. Failures are logged, not propagated: the
// conditional write already committed, and the ledger records applied
// changes rather than gating them. The daily sweep surfaces the resulting
// drift.
func (s *ProductService) record(ctx context.Context, p *domain.Product, previous, current, change int, adjType domain.AdjustmentType, reason string) {
	a := domain.StockAdjustment{
		ID:               uuid.NewString(),
		ProductID:        p.ID,
		ProductSKU:       p.SKU,
		AdjustmentType:   adjType,
		QuantityChange:   change,
		PreviousQuantity: previous,
		NewQuantity:      current,
		Reason:           reason,
		CreatedAt:        time.Now(),
	}
	if err := s.adjustments.Append(ctx, a); err != nil {
		s.logger.Error("ledger append failed, stock state is ahead of ledger",
			zap.String("product_id", p.ID),
			zap.Int("quantity_change", change),
			zap.Error(err))
	}
}

func (s *ProductService) StockHistory(ctx context.Context, productID string) ([]domain.StockAdjustment, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.adjustments.ListByProduct(ctx, productID)
}

// VerifyLedger folds a product's adjustment history and compares the result
// with the current stock quantity. Returns the drift (quantity minus ledger
// sum); zero means the ledger fully accounts for current state.
func (s *ProductService) VerifyLedger(ctx context.Context, productID string) (int, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	history, err := s.adjustments.ListByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}

	sum := 0
	for _, a := range history {
		sum += a.QuantityChange
	}
	return p.StockQuantity - sum, nil
}
