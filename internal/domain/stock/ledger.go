// Package stock composes the lot store, the kardex ledger and the costing
// engine into the transactional stock operations: receipt, cost correction,
// manual adjustment and consumption. Every mutation runs inside one TxRunner
// scope, acquires the per-material row lock before touching lots or the
// kardex (multiple materials in ascending id order), and ends with a
// reconciliation check of the kardex running balance against summed lot
// availability. The material lock is what keeps balance_after computation
// single-writer per (material, warehouse).
package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jbetancur12/matplan/internal/domain/costing"
	"github.com/jbetancur12/matplan/internal/domain/kardex"
	"github.com/jbetancur12/matplan/internal/domain/lots"
	"github.com/jbetancur12/matplan/internal/domain/materials"
	"github.com/jbetancur12/matplan/internal/infra/metrics"
)

// consumeRetries bounds compare-and-swap retries on concurrent consumption.
const consumeRetries = 3

// ReconciliationError is fatal for the operation that detected it: the kardex
// running balance disagrees with summed lot availability. Never swallowed;
// the surrounding transaction rolls back and the mismatch is logged for
// manual reconciliation.
type ReconciliationError struct {
	MaterialID    int64
	WarehouseID   int64
	KardexBalance decimal.Decimal
	LotSum        decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation failed for material %d warehouse %d: kardex balance %s, lot availability %s",
		e.MaterialID, e.WarehouseID, e.KardexBalance, e.LotSum)
}

// ReceiveRequest describes a goods receipt (purchase order receipt, incoming
// inspection release or manual stock entry).
type ReceiveRequest struct {
	MaterialID      int64
	WarehouseID     int64
	SupplierLotCode string
	Quantity        decimal.Decimal
	UnitCost        decimal.NullDecimal
	ReceivedAt      time.Time
	ExpiresAt       *time.Time
	InspectionID    *int64
	ReferenceType   string
	ReferenceID     int64
}

// CorrectionRequest is a typed retroactive cost correction, validated before
// it reaches the engine.
type CorrectionRequest struct {
	LotID       int64
	NewUnitCost decimal.Decimal
	Reason      string
	Actor       string
}

// AdjustmentRequest is a signed manual stock adjustment against one lot.
type AdjustmentRequest struct {
	LotID  int64
	Delta  decimal.Decimal
	Reason string
	Actor  string
}

// Consumption is one lot draw within a batch consumption.
type Consumption struct {
	LotID    int64
	Quantity decimal.Decimal
}

type Ledger struct {
	tx          TxRunner
	lots        lots.Repo
	kardex      kardex.Repo
	materials   materials.Repo
	costing     *costing.Engine
	corrections lots.CorrectionRepo
	log         *slog.Logger
}

func NewLedger(tx TxRunner, lotRepo lots.Repo, kardexRepo kardex.Repo,
	materialRepo materials.Repo, costEngine *costing.Engine,
	correctionRepo lots.CorrectionRepo, log *slog.Logger) *Ledger {
	return &Ledger{
		tx:          tx,
		lots:        lotRepo,
		kardex:      kardexRepo,
		materials:   materialRepo,
		costing:     costEngine,
		corrections: correctionRepo,
		log:         log,
	}
}

// ReceiveLot creates a lot (or grows the existing lot under the same natural
// key), records the kardex receipt and recomputes the material's average
// cost, all in one transaction.
func (s *Ledger) ReceiveLot(ctx context.Context, req ReceiveRequest) (*lots.Lot, error) {
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("receipt quantity must be positive, got %s", req.Quantity)
	}
	if req.UnitCost.Valid {
		if err := costing.ValidateCost(req.UnitCost.Decimal); err != nil {
			return nil, err
		}
	}
	if _, err := s.materials.GetByID(ctx, req.MaterialID); err != nil {
		return nil, err
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = time.Now().UTC()
	}

	var out *lots.Lot
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		// Material lock first: serializes the kardex balance computation
		// and the average-cost replay against concurrent mutations of
		// other lots of the same material.
		if err := s.materials.Lock(ctx, req.MaterialID); err != nil {
			return err
		}
		lot, err := s.lots.Insert(ctx, lots.Lot{
			MaterialID:      req.MaterialID,
			WarehouseID:     req.WarehouseID,
			SupplierLotCode: req.SupplierLotCode,
			QuantityInitial: req.Quantity,
			UnitCost:        req.UnitCost,
			ReceivedAt:      req.ReceivedAt,
			ExpiresAt:       req.ExpiresAt,
			InspectionID:    req.InspectionID,
		})
		if errors.Is(err, lots.ErrDuplicate) {
			// Natural-key collision: recover by growing the existing lot.
			existing, gerr := s.lots.GetByKey(ctx, lots.Key{
				MaterialID:      req.MaterialID,
				WarehouseID:     req.WarehouseID,
				SupplierLotCode: req.SupplierLotCode,
			})
			if gerr != nil {
				return gerr
			}
			lot, err = s.lots.AddQuantity(ctx, existing.ID, req.Quantity)
		}
		if err != nil {
			return err
		}

		if _, err := s.kardex.Append(ctx, kardex.Entry{
			MaterialID:    req.MaterialID,
			WarehouseID:   req.WarehouseID,
			LotID:         &lot.ID,
			Type:          kardex.Receipt,
			Quantity:      kardex.Signed(kardex.Receipt, req.Quantity),
			ReferenceType: req.ReferenceType,
			ReferenceID:   req.ReferenceID,
			OccurredAt:    req.ReceivedAt,
		}); err != nil {
			return err
		}

		if _, err := s.costing.Recompute(ctx, req.MaterialID); err != nil {
			return err
		}
		if err := s.reconcile(ctx, req.MaterialID, req.WarehouseID); err != nil {
			return err
		}
		out = lot
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LotReceipts.Inc()
	s.log.Info("lot received",
		"material_id", req.MaterialID, "warehouse_id", req.WarehouseID,
		"lot_id", out.ID, "supplier_lot", req.SupplierLotCode, "qty", req.Quantity)
	return out, nil
}

// CorrectCost changes a lot's unit cost after the fact (inspection cost
// correction). Quantities are untouched; the average cost is recomputed by
// replay and the change is recorded in the correction audit plus a
// zero-quantity kardex CORRECTION marker.
func (s *Ledger) CorrectCost(ctx context.Context, req CorrectionRequest) (*lots.Lot, error) {
	if err := costing.ValidateCost(req.NewUnitCost); err != nil {
		return nil, err
	}

	var out *lots.Lot
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		prev, err := s.lots.GetByID(ctx, req.LotID)
		if err != nil {
			return err
		}
		if err := s.materials.Lock(ctx, prev.MaterialID); err != nil {
			return err
		}

		lot, err := s.lots.SetUnitCost(ctx, req.LotID, req.NewUnitCost)
		if err != nil {
			return err
		}

		if _, err := s.corrections.Insert(ctx, lots.Correction{
			LotID:   req.LotID,
			OldCost: prev.UnitCost,
			NewCost: req.NewUnitCost,
			Reason:  req.Reason,
			Actor:   req.Actor,
		}); err != nil {
			return err
		}

		if _, err := s.kardex.Append(ctx, kardex.Entry{
			MaterialID:    lot.MaterialID,
			WarehouseID:   lot.WarehouseID,
			LotID:         &lot.ID,
			Type:          kardex.Correction,
			Quantity:      decimal.Zero,
			ReferenceType: "cost_correction",
			ReferenceID:   lot.ID,
			Note:          fmt.Sprintf("unit cost %s -> %s by %s: %s", nullCost(prev.UnitCost), req.NewUnitCost, req.Actor, req.Reason),
		}); err != nil {
			return err
		}

		if _, err := s.costing.Recompute(ctx, lot.MaterialID); err != nil {
			return err
		}
		out = lot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("lot cost corrected",
		"lot_id", req.LotID, "new_cost", req.NewUnitCost, "actor", req.Actor)
	return out, nil
}

func nullCost(c decimal.NullDecimal) string {
	if !c.Valid {
		return "unknown"
	}
	return c.Decimal.String()
}

// Adjust applies a signed manual adjustment to a lot's availability with a
// matching kardex MANUAL_ADJUSTMENT entry.
func (s *Ledger) Adjust(ctx context.Context, req AdjustmentRequest) (*lots.Lot, error) {
	if req.Delta.IsZero() {
		return nil, fmt.Errorf("adjustment delta must be non-zero")
	}

	var out *lots.Lot
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		cur, err := s.lots.GetByID(ctx, req.LotID)
		if err != nil {
			return err
		}
		if err := s.materials.Lock(ctx, cur.MaterialID); err != nil {
			return err
		}

		lot, err := s.lots.AdjustAvailable(ctx, req.LotID, req.Delta)
		if err != nil {
			return err
		}

		if _, err := s.kardex.Append(ctx, kardex.Entry{
			MaterialID:    lot.MaterialID,
			WarehouseID:   lot.WarehouseID,
			LotID:         &lot.ID,
			Type:          kardex.ManualAdjustment,
			Quantity:      req.Delta,
			ReferenceType: "manual_adjustment",
			ReferenceID:   lot.ID,
			Note:          fmt.Sprintf("by %s: %s", req.Actor, req.Reason),
		}); err != nil {
			return err
		}

		if err := s.reconcile(ctx, lot.MaterialID, lot.WarehouseID); err != nil {
			return err
		}
		out = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConsumeLot atomically decrements a lot and records the kardex consumption.
// Concurrent consumers of the same lot serialize through the compare-and-swap
// retry loop; over-consumption fails without mutating anything.
func (s *Ledger) ConsumeLot(ctx context.Context, lotID int64, qty decimal.Decimal, refType string, refID int64) (*lots.Lot, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("consumption quantity must be positive, got %s", qty)
	}

	var out *lots.Lot
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		cur, err := s.lots.GetByID(ctx, lotID)
		if err != nil {
			return err
		}
		if err := s.materials.Lock(ctx, cur.MaterialID); err != nil {
			return err
		}

		lot, err := s.consume(ctx, lotID, qty)
		if err != nil {
			return err
		}
		if _, err := s.kardex.Append(ctx, kardex.Entry{
			MaterialID:    lot.MaterialID,
			WarehouseID:   lot.WarehouseID,
			LotID:         &lot.ID,
			Type:          kardex.Consumption,
			Quantity:      kardex.Signed(kardex.Consumption, qty),
			ReferenceType: refType,
			ReferenceID:   refID,
		}); err != nil {
			return err
		}
		if err := s.reconcile(ctx, lot.MaterialID, lot.WarehouseID); err != nil {
			return err
		}
		out = lot
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LotConsumptions.Inc()
	return out, nil
}

// ConsumeBatch consumes several lots in one transaction, all-or-nothing.
// Availability is pre-checked for the whole batch before any decrement so the
// in-memory runner cannot fail halfway either.
func (s *Ledger) ConsumeBatch(ctx context.Context, refType string, refID int64, cs []Consumption) error {
	for _, c := range cs {
		if !c.Quantity.IsPositive() {
			return fmt.Errorf("consumption quantity must be positive, got %s for lot %d", c.Quantity, c.LotID)
		}
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		perLot := map[int64]decimal.Decimal{}
		for _, c := range cs {
			perLot[c.LotID] = perLot[c.LotID].Add(c.Quantity)
		}

		// Resolve the touched materials and lock them in id order before
		// any read that informs a write.
		materialSet := map[int64]struct{}{}
		for lotID := range perLot {
			lot, err := s.lots.GetByID(ctx, lotID)
			if err != nil {
				return err
			}
			materialSet[lot.MaterialID] = struct{}{}
		}
		if err := s.lockMaterials(ctx, materialSet); err != nil {
			return err
		}

		// Pre-check aggregated demand per lot under the lock.
		for lotID, qty := range perLot {
			lot, err := s.lots.GetByID(ctx, lotID)
			if err != nil {
				return err
			}
			if qty.GreaterThan(lot.QuantityAvailable) {
				return &lots.InsufficientQuantityError{LotID: lotID, Requested: qty, Available: lot.QuantityAvailable}
			}
		}

		touched := map[[2]int64]struct{}{}
		for _, c := range cs {
			lot, err := s.consume(ctx, c.LotID, c.Quantity)
			if err != nil {
				return err
			}
			if _, err := s.kardex.Append(ctx, kardex.Entry{
				MaterialID:    lot.MaterialID,
				WarehouseID:   lot.WarehouseID,
				LotID:         &lot.ID,
				Type:          kardex.Consumption,
				Quantity:      kardex.Signed(kardex.Consumption, c.Quantity),
				ReferenceType: refType,
				ReferenceID:   refID,
			}); err != nil {
				return err
			}
			metrics.LotConsumptions.Inc()
			touched[[2]int64{lot.MaterialID, lot.WarehouseID}] = struct{}{}
		}

		for pair := range touched {
			if err := s.reconcile(ctx, pair[0], pair[1]); err != nil {
				return err
			}
		}
		return nil
	})
}

// lockMaterials acquires the per-material row locks in ascending id order so
// concurrent batches cannot deadlock on each other.
func (s *Ledger) lockMaterials(ctx context.Context, ids map[int64]struct{}) error {
	ordered := make([]int64, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	for _, id := range ordered {
		if err := s.materials.Lock(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// consume runs the compare-and-swap loop: read availability, attempt the
// decrement against it, retry on concurrent modification with a fresh read.
func (s *Ledger) consume(ctx context.Context, lotID int64, qty decimal.Decimal) (*lots.Lot, error) {
	var lastErr error
	for attempt := 0; attempt < consumeRetries; attempt++ {
		lot, err := s.lots.GetByID(ctx, lotID)
		if err != nil {
			return nil, err
		}
		if qty.GreaterThan(lot.QuantityAvailable) {
			return nil, &lots.InsufficientQuantityError{LotID: lotID, Requested: qty, Available: lot.QuantityAvailable}
		}

		updated, err := s.lots.Consume(ctx, lotID, qty, lot.QuantityAvailable)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, lots.ErrConcurrentModification) {
			return nil, err
		}
		metrics.ConsumeRetries.Inc()
		lastErr = err
	}
	return nil, fmt.Errorf("lot %d: retry budget exhausted: %w", lotID, lastErr)
}

// Balance returns the kardex running balance for a material/warehouse pair.
func (s *Ledger) Balance(ctx context.Context, materialID, warehouseID int64) (decimal.Decimal, error) {
	return s.kardex.LastBalance(ctx, materialID, warehouseID)
}

// Entries exposes filtered kardex listings for audit and reporting.
func (s *Ledger) Entries(ctx context.Context, f kardex.Filter) ([]kardex.Entry, error) {
	return s.kardex.List(ctx, f)
}

// Corrections lists the cost-correction audit trail of a lot.
func (s *Ledger) Corrections(ctx context.Context, lotID int64) ([]lots.Correction, error) {
	return s.corrections.ListByLot(ctx, lotID)
}

// reconcile enforces the invariant that the kardex running balance equals the
// sum of lot availability for the material/warehouse pair.
func (s *Ledger) reconcile(ctx context.Context, materialID, warehouseID int64) error {
	bal, err := s.kardex.LastBalance(ctx, materialID, warehouseID)
	if err != nil {
		return err
	}
	sum, err := s.lots.SumAvailable(ctx, materialID, warehouseID)
	if err != nil {
		return err
	}
	if !bal.Equal(sum) {
		metrics.ReconciliationFailures.Inc()
		rerr := &ReconciliationError{MaterialID: materialID, WarehouseID: warehouseID, KardexBalance: bal, LotSum: sum}
		s.log.Error("reconciliation failed", "err", rerr)
		return rerr
	}
	return nil
}
