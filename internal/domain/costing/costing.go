// Package costing maintains the moving weighted-average unit cost of raw
// materials. The average is never patched incrementally: every recompute
// replays the weighted sum over the material's lots, so retroactive cost
// corrections stay exact and order-independent.
package costing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/jbetancur12/matplan/internal/domain/lots"
	"github.com/jbetancur12/matplan/internal/domain/materials"
	"github.com/jbetancur12/matplan/internal/infra/metrics"
)

// InvalidCostError reports a negative unit cost supplied by a caller.
type InvalidCostError struct {
	Cost decimal.Decimal
}

func (e *InvalidCostError) Error() string {
	return fmt.Sprintf("invalid unit cost %s: must be non-negative", e.Cost)
}

// ValidateCost rejects negative costs before they reach the engine.
// (Non-finite values cannot be represented by decimal.Decimal; they are
// rejected at parse time by the transport layer.)
func ValidateCost(c decimal.Decimal) error {
	if c.IsNegative() {
		return &InvalidCostError{Cost: c}
	}
	return nil
}

// AverageFromLots computes the weighted-average unit cost over lot
// availability: sum(available_i * cost_i) / sum(available_i). Lots with
// unknown cost are excluded from both sums. ok is false when no weighted
// quantity remains, in which case the previous average should be kept.
func AverageFromLots(ls []lots.Lot) (avg decimal.Decimal, ok bool) {
	totalQty := decimal.Zero
	totalCost := decimal.Zero
	for _, l := range ls {
		if !l.UnitCost.Valid || !l.QuantityAvailable.IsPositive() {
			continue
		}
		totalQty = totalQty.Add(l.QuantityAvailable)
		totalCost = totalCost.Add(l.QuantityAvailable.Mul(l.UnitCost.Decimal))
	}
	if totalQty.IsZero() {
		return decimal.Zero, false
	}
	return totalCost.Div(totalQty), true
}

// Engine recomputes and persists per-material average costs. Recompute must
// run inside the transaction of the stock mutation that triggered it; the
// material row lock makes average-cost updates single-writer per material.
type Engine struct {
	lots      lots.Repo
	materials materials.Repo
	log       *slog.Logger
}

func NewEngine(lotRepo lots.Repo, materialRepo materials.Repo, log *slog.Logger) *Engine {
	return &Engine{lots: lotRepo, materials: materialRepo, log: log}
}

// Recompute derives the average cost of a material from its lots and persists
// it. Returns the new average (or the previous one when no costed stock
// remains).
func (e *Engine) Recompute(ctx context.Context, materialID int64) (decimal.Decimal, error) {
	if err := e.materials.Lock(ctx, materialID); err != nil {
		return decimal.Zero, fmt.Errorf("lock material %d: %w", materialID, err)
	}

	ls, err := e.lots.ListByMaterial(ctx, materialID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list lots for material %d: %w", materialID, err)
	}

	avg, ok := AverageFromLots(ls)
	if !ok {
		m, err := e.materials.GetByID(ctx, materialID)
		if err != nil {
			return decimal.Zero, err
		}
		e.log.Debug("no costed stock, keeping previous average",
			"material_id", materialID, "average", m.AverageCost)
		return m.AverageCost, nil
	}

	if err := e.materials.UpdateAverageCost(ctx, materialID, avg); err != nil {
		return decimal.Zero, fmt.Errorf("persist average cost for material %d: %w", materialID, err)
	}
	metrics.CostRecomputes.Inc()
	e.log.Debug("average cost recomputed", "material_id", materialID, "average", avg)
	return avg, nil
}
