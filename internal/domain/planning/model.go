package planning

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jbetancur12/matplan/internal/domain/purchasing"
)

// LotSuggestion proposes drawing SuggestedUse from one lot. Suggestions never
// exceed the lot's availability and never double-count a lot.
type LotSuggestion struct {
	LotID           int64               `json:"lotId"`
	SupplierLotCode string              `json:"supplierLotCode"`
	SuggestedUse    decimal.Decimal     `json:"suggestedUse"`
	Available       decimal.Decimal     `json:"available"`
	UnitCost        decimal.NullDecimal `json:"unitCost"`
	ExpiresAt       *time.Time          `json:"expiresAt,omitempty"`
}

// MaterialRequirement is one row of a requirement plan: how much of a raw
// material a production order needs, what is on hand and where to take it
// from. Err carries a per-material annotation instead of failing the whole
// plan when one material lookup fails.
type MaterialRequirement struct {
	MaterialID   int64                     `json:"materialId"`
	MaterialCode string                    `json:"materialCode"`
	MaterialName string                    `json:"materialName"`
	Unit         string                    `json:"unit"`
	Required     decimal.Decimal           `json:"required"`
	Available    decimal.Decimal           `json:"available"`
	Missing      decimal.Decimal           `json:"missing"`
	Suggestions  []LotSuggestion           `json:"suggestions"`
	BestPrice    *purchasing.SupplierPrice `json:"bestPrice,omitempty"`
	Err          string                    `json:"error,omitempty"`
}
