package purchasing

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplierPrice is a point of a material's supplier price history, joined into
// requirement reports for procurement decision support.
type SupplierPrice struct {
	ID           int64
	MaterialID   int64
	SupplierID   int64
	SupplierName string
	UnitPrice    decimal.Decimal
	QuotedAt     time.Time
}
