package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ReorderLevel  int             `json:"reorder_level"`
	Active        bool            `json:"active"`
	Version       int64           `json:"version"` // optimistic locking
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NeedsReorder reports whether stock has fallen to or below the reorder level.
func (p *Product) NeedsReorder() bool {
	return p.StockQuantity <= p.ReorderLevel
}

// InventoryValue is price multiplied by the current stock quantity.
func (p *Product) InventoryValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}

const DefaultReorderLevel = 10
