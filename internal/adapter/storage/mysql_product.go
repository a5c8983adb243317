package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/tenant-inventory/internal/core/domain"
	"github.com/rl1809/tenant-inventory/internal/tenant"
)

// ProductStore persists products and their adjustment ledger inside the
// tenant schema resolved from the request context. All queries are
// schema-unqualified: isolation comes from the routed handle, so a query can
// never reach another tenant's rows.
type ProductStore struct {
	router *tenant.Router
}

func NewProductStore(router *tenant.Router) *ProductStore {
	return &ProductStore{router: router}
}

const productColumns = `id, sku, name, description, category, price,
	stock_quantity, reorder_level, active, version, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.Price,
		&p.StockQuantity, &p.ReorderLevel, &p.Active, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) Create(ctx context.Context, p domain.Product) error {
	db, err := s.router.Resolve(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SKU, p.Name, p.Description, p.Category, p.Price,
		p.StockQuantity, p.ReorderLevel, p.Active, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if isDupEntry(err) {
		return fmt.Errorf("sku %s: %w", p.SKU, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	db, err := s.router.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (s *ProductStore) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	db, err := s.router.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE sku = ?`, sku))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sku %s: %w", sku, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (s *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products`)
}

func (s *ProductStore) ListActive(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE active = TRUE`)
}

func (s *ProductStore) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE category = ?`, category)
}

func (s *ProductStore) ListNeedingReorder(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE active = TRUE AND stock_quantity <= reorder_level`)
}

func (s *ProductStore) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	db, err := s.router.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *ProductStore) UpdateDetails(ctx context.Context, p domain.Product) error {
	db, err := s.router.Resolve(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, category = ?, price = ?, reorder_level = ?, updated_at = NOW()
		WHERE id = ?`,
		p.Name, p.Description, p.Category, p.Price, p.ReorderLevel, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProductStore) SetActive(ctx context.Context, id string, active bool) error {
	db, err := s.router.Resolve(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE products SET active = ?, updated_at = NOW() WHERE id = ?`,
		active, id,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStock is the conditional write: the UPDATE only lands when the row
// version still matches what the caller read, so concurrent writers on the
// same product serialize on the version token.
func (s *ProductStore) UpdateStock(ctx context.Context, id string, newQuantity int, expectedVersion int64) error {
	db, err := s.router.Resolve(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = ?, version = version + 1, updated_at = NOW()
		WHERE id = ? AND version = ?`,
		newQuantity, id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrVersionConflict
	}
	return nil
}

func (s *ProductStore) Append(ctx context.Context, a domain.StockAdjustment) error {
	db, err := s.router.Resolve(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO stock_adjustments
			(id, product_id, product_sku, adjustment_type, quantity_change,
			 previous_quantity, new_quantity, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProductID, a.ProductSKU, a.AdjustmentType, a.QuantityChange,
		a.PreviousQuantity, a.NewQuantity, a.Reason, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

func (s *ProductStore) ListByProduct(ctx context.Context, productID string) ([]domain.StockAdjustment, error) {
	db, err := s.router.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, product_id, product_sku, adjustment_type, quantity_change,
		       previous_quantity, new_quantity, reason, created_at
		FROM stock_adjustments
		WHERE product_id = ?
		ORDER BY created_at, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("query adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []domain.StockAdjustment
	for rows.Next() {
		var a domain.StockAdjustment
		if err := rows.Scan(&a.ID, &a.ProductID, &a.ProductSKU, &a.AdjustmentType,
			&a.QuantityChange, &a.PreviousQuantity, &a.NewQuantity, &a.Reason, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}
