package kardex

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Memory is an in-memory Repo for tests and DB-free wiring.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	items  []Entry
}

func NewMemory() *Memory { return &Memory{nextID: 1} }

var _ Repo = (*Memory)(nil)

func (r *Memory) Append(_ context.Context, e Entry) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = r.nextID
	r.nextID++
	e.BalanceAfter = r.lastBalanceLocked(e.MaterialID, e.WarehouseID).Add(e.Quantity)
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.items = append(r.items, e)
	out := e
	return &out, nil
}

func (r *Memory) LastBalance(_ context.Context, materialID, warehouseID int64) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastBalanceLocked(materialID, warehouseID), nil
}

// lastBalanceLocked scans backwards; entries are appended in occurred order.
func (r *Memory) lastBalanceLocked(materialID, warehouseID int64) decimal.Decimal {
	for i := len(r.items) - 1; i >= 0; i-- {
		e := r.items[i]
		if e.MaterialID == materialID && e.WarehouseID == warehouseID {
			return e.BalanceAfter
		}
	}
	return decimal.Zero
}

func (r *Memory) List(_ context.Context, f Filter) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Entry
	for _, e := range r.items {
		if f.MaterialID != nil && e.MaterialID != *f.MaterialID {
			continue
		}
		if f.WarehouseID != nil && e.WarehouseID != *f.WarehouseID {
			continue
		}
		if f.LotID != nil && (e.LotID == nil || *e.LotID != *f.LotID) {
			continue
		}
		if f.ReferenceType != "" && e.ReferenceType != f.ReferenceType {
			continue
		}
		if f.From != nil && e.OccurredAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.OccurredAt.Before(*f.To) {
			continue
		}
		matched = append(matched, e)
	}

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	out := make([]Entry, len(matched))
	copy(out, matched)
	return out, nil
}
