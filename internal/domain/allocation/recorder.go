// Package allocation persists the planner's chosen lot allocations per
// production order and drives actual consumption when an order completes.
package allocation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jbetancur12/matplan/internal/domain/lots"
	"github.com/jbetancur12/matplan/internal/domain/materials"
	"github.com/jbetancur12/matplan/internal/domain/orders"
	"github.com/jbetancur12/matplan/internal/domain/stock"
	"github.com/jbetancur12/matplan/internal/infra/notify"
)

const refProductionOrder = "production_order"

type Recorder struct {
	tx        stock.TxRunner
	allocs    Repo
	orders    orders.Repo
	lots      lots.Repo
	materials materials.Repo
	ledger    *stock.Ledger
	notifier  notify.Notifier
	log       *slog.Logger
}

func NewRecorder(tx stock.TxRunner, allocRepo Repo, orderRepo orders.Repo,
	lotRepo lots.Repo, materialRepo materials.Repo, ledger *stock.Ledger,
	notifier notify.Notifier, log *slog.Logger) *Recorder {
	return &Recorder{
		tx:        tx,
		allocs:    allocRepo,
		orders:    orderRepo,
		lots:      lotRepo,
		materials: materialRepo,
		ledger:    ledger,
		notifier:  notifier,
		log:       log,
	}
}

// Commit records the chosen lots for an order, one row per material.
// Re-committing overwrites prior choices (re-planning before production
// starts). Nothing is consumed here. The whole slice is validated before the
// first row is written, so a bad entry leaves earlier choices untouched.
func (r *Recorder) Commit(ctx context.Context, orderID int64, chosen []ChosenLot) error {
	if _, err := r.orders.GetByID(ctx, orderID); err != nil {
		return err
	}

	seen := map[int64]bool{}
	for _, c := range chosen {
		if seen[c.MaterialID] {
			return fmt.Errorf("duplicate allocation for material %d in order %d", c.MaterialID, orderID)
		}
		seen[c.MaterialID] = true

		if !c.Quantity.IsPositive() {
			return fmt.Errorf("allocation quantity must be positive, got %s for material %d", c.Quantity, c.MaterialID)
		}
		lot, err := r.lots.GetByID(ctx, c.LotID)
		if err != nil {
			return fmt.Errorf("lot %d: %w", c.LotID, err)
		}
		if lot.MaterialID != c.MaterialID {
			return fmt.Errorf("lot %d holds material %d, not %d", c.LotID, lot.MaterialID, c.MaterialID)
		}
	}

	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		for _, c := range chosen {
			if _, err := r.allocs.Upsert(ctx, Allocation{
				OrderID:    orderID,
				MaterialID: c.MaterialID,
				LotID:      c.LotID,
				Quantity:   c.Quantity,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info("allocations committed", "order_id", orderID, "count", len(chosen))
	return nil
}

// ConsumeForOrder executes the committed allocations when the order reaches
// completion: the status check, every lot draw with its kardex entry, and the
// status flip all run inside one transaction while the order row is locked,
// so a concurrent completion either waits and fails with ErrAlreadyCompleted
// or never consumes. Afterwards it flags materials that fell below their
// minimum stock level.
func (r *Recorder) ConsumeForOrder(ctx context.Context, orderID int64) error {
	var (
		warehouseID int64
		consumed    []Allocation
	)
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		order, err := r.orders.Lock(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == orders.StatusCompleted {
			return fmt.Errorf("order %d: %w", orderID, orders.ErrAlreadyCompleted)
		}

		allocs, err := r.allocs.ListByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if len(allocs) == 0 {
			return fmt.Errorf("order %d has no committed allocations", orderID)
		}

		cs := make([]stock.Consumption, 0, len(allocs))
		for _, a := range allocs {
			cs = append(cs, stock.Consumption{LotID: a.LotID, Quantity: a.Quantity})
		}
		if err := r.ledger.ConsumeBatch(ctx, refProductionOrder, orderID, cs); err != nil {
			return fmt.Errorf("consume for order %d: %w", orderID, err)
		}

		if err := r.orders.SetStatus(ctx, orderID, orders.StatusCompleted); err != nil {
			return err
		}
		warehouseID = order.WarehouseID
		consumed = allocs
		return nil
	})
	if err != nil {
		return err
	}
	r.log.Info("order consumption recorded", "order_id", orderID, "allocations", len(consumed))

	r.alertBelowMinimum(ctx, warehouseID, consumed)
	return nil
}

// alertBelowMinimum notifies once per material whose availability dropped
// under its configured minimum. Alert failures are logged only.
func (r *Recorder) alertBelowMinimum(ctx context.Context, warehouseID int64, allocs []Allocation) {
	for _, a := range allocs {
		m, err := r.materials.GetByID(ctx, a.MaterialID)
		if err != nil || !m.MinStock.IsPositive() {
			continue
		}
		sum, err := r.lots.SumAvailable(ctx, a.MaterialID, warehouseID)
		if err != nil {
			continue
		}
		if sum.LessThan(m.MinStock) {
			msg := fmt.Sprintf("Stock alert: %s (%s) at %s %s, below minimum %s",
				m.Name, m.Code, sum, m.Unit, m.MinStock)
			if err := r.notifier.Alert(ctx, msg); err != nil {
				r.log.Warn("stock alert delivery failed", "material_id", a.MaterialID, "err", err)
			}
		}
	}
}
