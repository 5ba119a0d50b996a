package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Item is one production order line: a product variant and how many to make.
type Item struct {
	VariantID int64
	Quantity  decimal.Decimal
}

type Order struct {
	ID          int64
	Code        string
	Status      Status
	WarehouseID int64
	Items       []Item
	CreatedAt   time.Time
}

var (
	ErrNotFound = errors.New("production order not found")
	// ErrAlreadyCompleted rejects a second completion of the same order;
	// its allocations must never be consumed twice.
	ErrAlreadyCompleted = errors.New("production order already completed")
)
