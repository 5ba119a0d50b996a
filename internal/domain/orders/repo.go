package orders

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jbetancur12/matplan/internal/infra/db"
)

// Repo is a read model over production orders. Order lifecycle itself is
// owned by the production module; the engine only reads and flips status on
// completion.
type Repo interface {
	GetByID(ctx context.Context, id int64) (*Order, error)
	// Lock reads the order while holding its row lock for the rest of the
	// transaction, so a status check and the following consumption cannot
	// race with a concurrent completion.
	Lock(ctx context.Context, id int64) (*Order, error)
	SetStatus(ctx context.Context, id int64, s Status) error
}

type PG struct{ pool *pgxpool.Pool }

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

var _ Repo = (*PG)(nil)

func (r *PG) GetByID(ctx context.Context, id int64) (*Order, error) {
	return r.fetch(ctx, id, "")
}

func (r *PG) Lock(ctx context.Context, id int64) (*Order, error) {
	return r.fetch(ctx, id, " FOR UPDATE")
}

func (r *PG) fetch(ctx context.Context, id int64, suffix string) (*Order, error) {
	q := db.From(ctx, r.pool)

	row := q.QueryRow(ctx, `
		SELECT id, code, status, warehouse_id, created_at
		FROM production_orders WHERE id = $1
	`+suffix, id)
	var o Order
	if err := row.Scan(&o.ID, &o.Code, &o.Status, &o.WarehouseID, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT variant_id, quantity
		FROM production_order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.VariantID, &it.Quantity); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

func (r *PG) SetStatus(ctx context.Context, id int64, s Status) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx, `
		UPDATE production_orders SET status = $2 WHERE id = $1
	`, id, string(s))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Memory is an in-memory Repo for tests and DB-free wiring.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]Order
}

func NewMemory() *Memory { return &Memory{nextID: 1, items: map[int64]Order{}} }

var _ Repo = (*Memory)(nil)

func (r *Memory) Add(o Order) Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == 0 {
		o.ID = r.nextID
		r.nextID++
	} else if o.ID >= r.nextID {
		r.nextID = o.ID + 1
	}
	r.items[o.ID] = o
	return o
}

func (r *Memory) GetByID(_ context.Context, id int64) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := o
	out.Items = append([]Item(nil), o.Items...)
	return &out, nil
}

// Lock behaves like GetByID; callers are already serialized by the in-memory
// transaction runner.
func (r *Memory) Lock(ctx context.Context, id int64) (*Order, error) {
	return r.GetByID(ctx, id)
}

func (r *Memory) SetStatus(_ context.Context, id int64, s Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = s
	r.items[id] = o
	return nil
}
