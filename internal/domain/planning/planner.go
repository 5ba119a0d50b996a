// Package planning expands production orders through the BOM into flattened
// raw-material requirements, nets them against lot availability and proposes
// FIFO/FEFO lot allocations. Planning is read-only and deterministic: two
// runs without an intervening stock change return identical plans.
package planning

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jbetancur12/matplan/internal/domain/bom"
	"github.com/jbetancur12/matplan/internal/domain/lots"
	"github.com/jbetancur12/matplan/internal/domain/materials"
	"github.com/jbetancur12/matplan/internal/domain/orders"
	"github.com/jbetancur12/matplan/internal/domain/purchasing"
	"github.com/jbetancur12/matplan/internal/infra/metrics"
)

type Planner struct {
	orders    orders.Repo
	bom       bom.Repo
	lots      lots.Repo
	materials materials.Repo
	prices    purchasing.Repo
	policy    lots.Policy
	log       *slog.Logger
}

func NewPlanner(orderRepo orders.Repo, bomRepo bom.Repo, lotRepo lots.Repo,
	materialRepo materials.Repo, priceRepo purchasing.Repo,
	policy lots.Policy, log *slog.Logger) *Planner {
	return &Planner{
		orders:    orderRepo,
		bom:       bomRepo,
		lots:      lotRepo,
		materials: materialRepo,
		prices:    priceRepo,
		policy:    policy,
		log:       log,
	}
}

// ComputeRequirements builds the material requirement plan for a production
// order against the order's warehouse. Returns orders.ErrNotFound for an
// unknown order and an empty plan (no error) for an order without items.
func (p *Planner) ComputeRequirements(ctx context.Context, orderID int64) ([]MaterialRequirement, error) {
	order, err := p.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	metrics.PlanRuns.Inc()

	// Expand each order item through the BOM and aggregate per material.
	required := map[int64]decimal.Decimal{}
	for _, item := range order.Items {
		lines, err := p.bom.ListByVariant(ctx, item.VariantID)
		if err != nil {
			return nil, fmt.Errorf("load BOM for variant %d: %w", item.VariantID, err)
		}
		for _, line := range lines {
			perUnit, err := bom.UnitsPerProduct(line.Params)
			if err != nil {
				return nil, fmt.Errorf("BOM line %d: %w", line.ID, err)
			}
			qty := item.Quantity.Mul(perUnit)
			required[line.MaterialID] = required[line.MaterialID].Add(qty)
		}
	}

	materialIDs := make([]int64, 0, len(required))
	for id := range required {
		materialIDs = append(materialIDs, id)
	}
	sort.Slice(materialIDs, func(i, j int) bool { return materialIDs[i] < materialIDs[j] })

	out := make([]MaterialRequirement, 0, len(materialIDs))
	for _, materialID := range materialIDs {
		req := p.requirementFor(ctx, materialID, order.WarehouseID, required[materialID])
		out = append(out, req)
	}
	return out, nil
}

// requirementFor nets one material's requirement against availability and
// proposes lot draws. Lookup failures annotate the row instead of failing
// the whole plan.
func (p *Planner) requirementFor(ctx context.Context, materialID, warehouseID int64, required decimal.Decimal) MaterialRequirement {
	req := MaterialRequirement{
		MaterialID:  materialID,
		Required:    required,
		Missing:     required,
		Suggestions: []LotSuggestion{},
	}

	m, err := p.materials.GetByID(ctx, materialID)
	if err != nil {
		p.log.Warn("planning: material lookup failed", "material_id", materialID, "err", err)
		req.Err = err.Error()
		return req
	}
	req.MaterialCode = m.Code
	req.MaterialName = m.Name
	req.Unit = m.Unit

	available, err := p.lots.ListAvailable(ctx, materialID, warehouseID, p.policy)
	if err != nil {
		p.log.Warn("planning: lot listing failed", "material_id", materialID, "err", err)
		req.Err = err.Error()
		return req
	}

	for _, l := range available {
		req.Available = req.Available.Add(l.QuantityAvailable)
	}
	req.Missing = decimal.Max(decimal.Zero, required.Sub(req.Available))

	// Greedy walk in consumption order until the requirement is covered.
	remaining := required
	for _, l := range available {
		if !remaining.IsPositive() {
			break
		}
		use := decimal.Min(remaining, l.QuantityAvailable)
		req.Suggestions = append(req.Suggestions, LotSuggestion{
			LotID:           l.ID,
			SupplierLotCode: l.SupplierLotCode,
			SuggestedUse:    use,
			Available:       l.QuantityAvailable,
			UnitCost:        l.UnitCost,
			ExpiresAt:       l.ExpiresAt,
		})
		remaining = remaining.Sub(use)
	}

	// Read-only price join for procurement decision support.
	price, err := p.prices.BestPrice(ctx, materialID)
	if err != nil {
		p.log.Warn("planning: price lookup failed", "material_id", materialID, "err", err)
	} else {
		req.BestPrice = price
	}
	return req
}
