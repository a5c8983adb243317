package domain

import "time"

type AdjustmentType string

const (
	AdjustmentRestock        AdjustmentType = "RESTOCK"
	AdjustmentSale           AdjustmentType = "SALE"
	AdjustmentDamage         AdjustmentType = "DAMAGE"
	AdjustmentReconciliation AdjustmentType = "RECONCILIATION"
)

func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentRestock, AdjustmentSale, AdjustmentDamage, AdjustmentReconciliation:
		return true
	}
	return false
}

// StockAdjustment is one entry in a product's append-only stock ledger.
// Rows are never updated or deleted; replaying QuantityChange over a
// product's history in creation order reconstructs its current quantity.
type StockAdjustment struct {
	ID               string         `json:"id"`
	ProductID        string         `json:"product_id"`
	ProductSKU       string         `json:"product_sku"`
	AdjustmentType   AdjustmentType `json:"adjustment_type"`
	QuantityChange   int            `json:"quantity_change"`
	PreviousQuantity int            `json:"previous_quantity"`
	NewQuantity      int            `json:"new_quantity"`
	Reason           string         `json:"reason,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}
