package kardex

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType classifies a kardex movement. Receipt and positive adjustments
// carry positive quantity, consumption and negative adjustments negative.
// Corrections are zero-quantity audit markers (cost changes do not move stock).
type MovementType string

const (
	Receipt          MovementType = "RECEIPT"
	Consumption      MovementType = "CONSUMPTION"
	ManualAdjustment MovementType = "MANUAL_ADJUSTMENT"
	Correction       MovementType = "CORRECTION"
)

// Entry is one immutable row of the perpetual inventory ledger. For a fixed
// (material, warehouse) the entries ordered by (occurred_at, id) form a running
// balance: BalanceAfter = previous BalanceAfter + Quantity.
type Entry struct {
	ID            int64
	MaterialID    int64
	WarehouseID   int64
	LotID         *int64
	Type          MovementType
	Quantity      decimal.Decimal // signed
	BalanceAfter  decimal.Decimal
	ReferenceType string
	ReferenceID   int64
	Note          string
	OccurredAt    time.Time
	CreatedAt     time.Time
}

// Signed applies the movement-type sign convention to a positive magnitude.
func Signed(t MovementType, magnitude decimal.Decimal) decimal.Decimal {
	if t == Consumption {
		return magnitude.Neg()
	}
	return magnitude
}

// Filter narrows List queries. Nil pointer fields are ignored.
type Filter struct {
	MaterialID    *int64
	WarehouseID   *int64
	LotID         *int64
	ReferenceType string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}
