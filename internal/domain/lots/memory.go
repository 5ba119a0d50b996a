package lots

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Memory is an in-memory Repo for tests and DB-free wiring. All methods are
// safe for concurrent use; Consume behaves as a real compare-and-swap.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]Lot
	byKey  map[Key]int64

	// forcedCASMisses makes the next n Consume calls fail with
	// ErrConcurrentModification, to exercise retry paths in tests.
	forcedCASMisses int
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, items: map[int64]Lot{}, byKey: map[Key]int64{}}
}

var _ Repo = (*Memory)(nil)

// ForceCASMisses schedules n artificial compare-and-swap failures.
func (r *Memory) ForceCASMisses(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forcedCASMisses = n
}

func (r *Memory) Insert(_ context.Context, l Lot) (*Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := Key{l.MaterialID, l.WarehouseID, l.SupplierLotCode}
	if _, ok := r.byKey[k]; ok {
		return nil, ErrDuplicate
	}
	l.ID = r.nextID
	r.nextID++
	l.QuantityAvailable = l.QuantityInitial
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	r.items[l.ID] = l
	r.byKey[k] = l.ID
	out := l
	return &out, nil
}

func (r *Memory) GetByID(_ context.Context, id int64) (*Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(id)
}

func (r *Memory) getLocked(id int64) (*Lot, error) {
	l, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := l
	return &out, nil
}

func (r *Memory) GetByKey(_ context.Context, k Key) (*Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[k]
	if !ok {
		return nil, ErrNotFound
	}
	return r.getLocked(id)
}

func (r *Memory) AddQuantity(_ context.Context, id int64, qty decimal.Decimal) (*Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	l.QuantityInitial = l.QuantityInitial.Add(qty)
	l.QuantityAvailable = l.QuantityAvailable.Add(qty)
	r.items[id] = l
	out := l
	return &out, nil
}

func (r *Memory) Consume(_ context.Context, id int64, qty, expected decimal.Decimal) (*Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.forcedCASMisses > 0 {
		r.forcedCASMisses--
		return nil, ErrConcurrentModification
	}
	if !l.QuantityAvailable.Equal(expected) {
		return nil, ErrConcurrentModification
	}
	if qty.GreaterThan(l.QuantityAvailable) {
		return nil, &InsufficientQuantityError{LotID: id, Requested: qty, Available: l.QuantityAvailable}
	}
	l.QuantityAvailable = l.QuantityAvailable.Sub(qty)
	r.items[id] = l
	out := l
	return &out, nil
}

func (r *Memory) AdjustAvailable(_ context.Context, id int64, delta decimal.Decimal) (*Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := l.QuantityAvailable.Add(delta)
	if next.IsNegative() || next.GreaterThan(l.QuantityInitial) {
		return nil, &InsufficientQuantityError{LotID: id, Requested: delta.Abs(), Available: l.QuantityAvailable}
	}
	l.QuantityAvailable = next
	r.items[id] = l
	out := l
	return &out, nil
}

func (r *Memory) SetUnitCost(_ context.Context, id int64, cost decimal.Decimal) (*Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	l.UnitCost = decimal.NewNullDecimal(cost)
	r.items[id] = l
	out := l
	return &out, nil
}

func (r *Memory) ListAvailable(_ context.Context, materialID, warehouseID int64, p Policy) ([]Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Lot
	for _, l := range r.items {
		if l.MaterialID == materialID && l.WarehouseID == warehouseID && l.QuantityAvailable.IsPositive() {
			out = append(out, l)
		}
	}
	sortLots(out, p)
	return out, nil
}

func sortLots(ls []Lot, p Policy) {
	sort.Slice(ls, func(i, j int) bool {
		a, b := ls[i], ls[j]
		if p == PolicyFEFO {
			switch {
			case a.ExpiresAt == nil && b.ExpiresAt != nil:
				return false
			case a.ExpiresAt != nil && b.ExpiresAt == nil:
				return true
			case a.ExpiresAt != nil && b.ExpiresAt != nil && !a.ExpiresAt.Equal(*b.ExpiresAt):
				return a.ExpiresAt.Before(*b.ExpiresAt)
			}
		}
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		return a.ID < b.ID
	})
}

func (r *Memory) ListByMaterial(_ context.Context, materialID int64) ([]Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Lot
	for _, l := range r.items {
		if l.MaterialID == materialID {
			out = append(out, l)
		}
	}
	sortLots(out, PolicyFIFO)
	return out, nil
}

func (r *Memory) SumAvailable(_ context.Context, materialID, warehouseID int64) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum := decimal.Zero
	for _, l := range r.items {
		if l.MaterialID == materialID && l.WarehouseID == warehouseID {
			sum = sum.Add(l.QuantityAvailable)
		}
	}
	return sum, nil
}

/* In-memory correction audit */

type CorrectionMemory struct {
	mu     sync.Mutex
	nextID int64
	items  []Correction
}

func NewCorrectionMemory() *CorrectionMemory { return &CorrectionMemory{nextID: 1} }

var _ CorrectionRepo = (*CorrectionMemory)(nil)

func (r *CorrectionMemory) Insert(_ context.Context, c Correction) (*Correction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.items = append(r.items, c)
	out := c
	return &out, nil
}

func (r *CorrectionMemory) ListByLot(_ context.Context, lotID int64) ([]Correction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Correction
	for _, c := range r.items {
		if c.LotID == lotID {
			out = append(out, c)
		}
	}
	return out, nil
}
