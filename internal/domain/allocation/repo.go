package allocation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jbetancur12/matplan/internal/infra/db"
)

type Repo interface {
	// Upsert inserts or overwrites the allocation for (order, material).
	Upsert(ctx context.Context, a Allocation) (*Allocation, error)
	ListByOrder(ctx context.Context, orderID int64) ([]Allocation, error)
}

type PG struct{ pool *pgxpool.Pool }

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

var _ Repo = (*PG)(nil)

func (r *PG) Upsert(ctx context.Context, a Allocation) (*Allocation, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO production_material_allocations (order_id, material_id, lot_id, quantity)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (order_id, material_id)
		DO UPDATE SET lot_id = EXCLUDED.lot_id, quantity = EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, order_id, material_id, lot_id, quantity, created_at, updated_at
	`, a.OrderID, a.MaterialID, a.LotID, a.Quantity)

	var out Allocation
	if err := row.Scan(&out.ID, &out.OrderID, &out.MaterialID, &out.LotID, &out.Quantity, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PG) ListByOrder(ctx context.Context, orderID int64) ([]Allocation, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT id, order_id, material_id, lot_id, quantity, created_at, updated_at
		FROM production_material_allocations
		WHERE order_id = $1
		ORDER BY material_id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Allocation
	for rows.Next() {
		var a Allocation
		if err := rows.Scan(&a.ID, &a.OrderID, &a.MaterialID, &a.LotID, &a.Quantity, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Memory is an in-memory Repo for tests and DB-free wiring.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	items  map[[2]int64]Allocation // (orderID, materialID)
}

func NewMemory() *Memory { return &Memory{nextID: 1, items: map[[2]int64]Allocation{}} }

var _ Repo = (*Memory)(nil)

func (r *Memory) Upsert(_ context.Context, a Allocation) (*Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := [2]int64{a.OrderID, a.MaterialID}
	now := time.Now().UTC()
	if prev, ok := r.items[k]; ok {
		prev.LotID = a.LotID
		prev.Quantity = a.Quantity
		prev.UpdatedAt = now
		r.items[k] = prev
		out := prev
		return &out, nil
	}
	a.ID = r.nextID
	r.nextID++
	a.CreatedAt = now
	a.UpdatedAt = now
	r.items[k] = a
	out := a
	return &out, nil
}

func (r *Memory) ListByOrder(_ context.Context, orderID int64) ([]Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Allocation
	for k, a := range r.items {
		if k[0] == orderID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialID < out[j].MaterialID })
	return out, nil
}
