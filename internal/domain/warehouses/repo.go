// Package warehouses is a thin read model over the warehouse catalog, used to
// label reports and validate incoming warehouse ids. Warehouse CRUD itself
// belongs to the catalog module, not the engine.
package warehouses

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jbetancur12/matplan/internal/infra/db"
)

type Warehouse struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
}

var ErrNotFound = errors.New("warehouse not found")

type Repo interface {
	GetByID(ctx context.Context, id int64) (*Warehouse, error)
	List(ctx context.Context) ([]Warehouse, error)
}

type PG struct{ pool *pgxpool.Pool }

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

var _ Repo = (*PG)(nil)

func (r *PG) GetByID(ctx context.Context, id int64) (*Warehouse, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, active, created_at FROM warehouses WHERE id = $1
	`, id)
	var w Warehouse
	if err := row.Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *PG) List(ctx context.Context) ([]Warehouse, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT id, name, active, created_at FROM warehouses ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Memory is an in-memory Repo for tests and DB-free wiring.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]Warehouse
}

func NewMemory() *Memory { return &Memory{nextID: 1, items: map[int64]Warehouse{}} }

var _ Repo = (*Memory)(nil)

func (r *Memory) Add(w Warehouse) Warehouse {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w.ID == 0 {
		w.ID = r.nextID
		r.nextID++
	} else if w.ID >= r.nextID {
		r.nextID = w.ID + 1
	}
	r.items[w.ID] = w
	return w
}

func (r *Memory) GetByID(_ context.Context, id int64) (*Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := w
	return &out, nil
}

func (r *Memory) List(_ context.Context) ([]Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Warehouse, 0, len(r.items))
	for _, w := range r.items {
		out = append(out, w)
	}
	return out, nil
}
