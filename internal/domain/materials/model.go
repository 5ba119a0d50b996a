package materials

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material is the raw-material master record. AverageCost is a derived
// aggregate owned by the costing engine; nothing else writes it.
type Material struct {
	ID           int64
	Code         string
	Name         string
	Unit         string
	StandardCost decimal.Decimal
	AverageCost  decimal.Decimal
	MinStock     decimal.Decimal
	Active       bool
	CreatedAt    time.Time
}
