package lots

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Lot is one distinguishable receipt batch of a raw material. The natural key
// is (material, warehouse, supplier lot code); QuantityInitial never changes
// after receipt and 0 <= QuantityAvailable <= QuantityInitial always holds.
type Lot struct {
	ID                int64
	MaterialID        int64
	WarehouseID       int64
	SupplierLotCode   string
	QuantityInitial   decimal.Decimal
	QuantityAvailable decimal.Decimal
	UnitCost          decimal.NullDecimal
	ReceivedAt        time.Time
	ExpiresAt         *time.Time
	InspectionID      *int64
	CreatedAt         time.Time
}

// Key is the natural key of a lot.
type Key struct {
	MaterialID      int64
	WarehouseID     int64
	SupplierLotCode string
}

// Policy selects the order in which available lots are consumed.
type Policy string

const (
	// PolicyFIFO orders by received date, oldest first.
	PolicyFIFO Policy = "fifo"
	// PolicyFEFO orders by expiry date (lots without expiry last),
	// then received date.
	PolicyFEFO Policy = "fefo"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFIFO, PolicyFEFO:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown consumption policy %q", s)
}

// Correction is the audit record of a retroactive unit-cost change.
type Correction struct {
	ID        int64
	LotID     int64
	OldCost   decimal.NullDecimal
	NewCost   decimal.Decimal
	Reason    string
	Actor     string
	CreatedAt time.Time
}

var (
	ErrNotFound = errors.New("lot not found")
	// ErrDuplicate signals a natural-key collision on insert; callers are
	// expected to recover by adding quantity to the existing lot.
	ErrDuplicate = errors.New("lot already exists")
	// ErrConcurrentModification signals a failed compare-and-swap; the caller
	// retries with a fresh read of the lot.
	ErrConcurrentModification = errors.New("lot modified concurrently")
)

// InsufficientQuantityError reports an attempted over-consumption. The lot is
// left untouched.
type InsufficientQuantityError struct {
	LotID     int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("lot %d: requested %s exceeds available %s",
		e.LotID, e.Requested, e.Available)
}
