package allocation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation records which lot was chosen to cover one material of a
// production order. At most one row exists per (order, material);
// re-committing before production starts overwrites it. This is a decision
// record, not a ledger: committing does not consume stock.
type Allocation struct {
	ID         int64
	OrderID    int64
	MaterialID int64
	LotID      int64
	Quantity   decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ChosenLot is the caller's pick for one material when committing a plan.
type ChosenLot struct {
	MaterialID int64           `json:"materialId"`
	LotID      int64           `json:"lotId"`
	Quantity   decimal.Decimal `json:"quantity"`
}
